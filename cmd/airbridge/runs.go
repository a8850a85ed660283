package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/steveyegge/airbridge/internal/journal"
	"github.com/steveyegge/airbridge/internal/ui"
)

var (
	runsLimit int
	runsJSON  bool
)

var runsCmd = &cobra.Command{
	Use:     "runs",
	GroupID: "history",
	Short:   "List past imports",
	Long: `List the imports recorded in the journal, newest first.

Imports are not idempotent, so the journal is how to find the rows a run
created: 'airbridge runs show <run-id>' lists them.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		j, err := openJournal(cmd.Context(), settings.Journal)
		if err != nil {
			return err
		}
		defer j.Close()

		runs, err := j.Runs(cmd.Context(), runsLimit)
		if err != nil {
			return err
		}
		if runsJSON {
			return printJSON(runs)
		}
		if len(runs) == 0 {
			fmt.Printf("No runs recorded in %s\n", j.Path())
			return nil
		}

		rows := make([][]string, 0, len(runs))
		for _, r := range runs {
			rows = append(rows, []string{
				r.ID,
				r.StartedAt.Local().Format("2006-01-02 15:04:05"),
				duration(r),
				renderStatus(r.Status),
				strconv.Itoa(r.RecordsCreated),
				strconv.Itoa(r.LinksPatched),
				strconv.Itoa(r.FilesUploaded),
			})
		}
		fmt.Print(ui.Table([]string{"RUN", "STARTED", "TOOK", "STATUS", "ROWS", "LINKS", "FILES"}, rows))
		return nil
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show a run and the rows it created",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		j, err := openJournal(cmd.Context(), settings.Journal)
		if err != nil {
			return err
		}
		defer j.Close()

		run, err := j.GetRun(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		created, err := j.Rows(cmd.Context(), run.ID)
		if err != nil {
			return err
		}
		if runsJSON {
			return printJSON(struct {
				journal.Run
				Rows []journal.Row
			}{run, created})
		}

		fmt.Printf("\n%s %s\n", ui.RenderAccent("Run"), run.ID)
		fmt.Printf("   Status:    %s\n", renderStatus(run.Status))
		fmt.Printf("   Field map: %s\n", run.FieldMap)
		fmt.Printf("   Started:   %s (%s)\n", run.StartedAt.Local().Format(time.RFC1123), duration(run))
		if run.Error != "" {
			fmt.Printf("   Error:     %s\n", run.Error)
		}
		fmt.Println()

		rows := make([][]string, 0, len(created))
		for _, r := range created {
			rows = append(rows, []string{r.BaseID, r.SourceTable, r.SourceID, strconv.Itoa(r.TableID), strconv.Itoa(r.RowID)})
		}
		fmt.Print(ui.Table([]string{"BASE", "TABLE", "RECORD", "BASEROW TABLE", "ROW"}, rows))
		return nil
	},
}

func init() {
	runsCmd.PersistentFlags().BoolVar(&runsJSON, "json", false, "Output as JSON")
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "Show at most this many runs (0 for all)")
	runsCmd.AddCommand(runsShowCmd)
	rootCmd.AddCommand(runsCmd)
}

func renderStatus(status string) string {
	switch status {
	case journal.StatusSucceeded:
		return ui.RenderPass(status)
	case journal.StatusFailed:
		return ui.RenderFail(status)
	default:
		return ui.RenderWarn(status)
	}
}

func duration(r journal.Run) string {
	if r.FinishedAt == nil {
		return ui.RenderMuted("-")
	}
	return r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String()
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
