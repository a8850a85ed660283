package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/steveyegge/airbridge/internal/config"
	"github.com/steveyegge/airbridge/internal/importer"
	"github.com/steveyegge/airbridge/internal/journal"
	"github.com/steveyegge/airbridge/internal/ui"
)

var (
	importBases     []string
	importNoJournal bool
	importJSON      bool
)

var importCmd = &cobra.Command{
	Use:     "import",
	GroupID: "migrate",
	Short:   "Import records from Airtable into Baserow",
	Long: `Import every base in the field map into Baserow.

Each base is imported in three passes:
  1. Create rows for every table, with all scalar fields
  2. Fill in link fields, now that every linked row exists
  3. Upload attachments and fill in file fields

The first error stops the import. Rows created before it stay in Baserow,
and running the import again creates every row again. Each run is recorded
in the journal (see 'airbridge runs') so its rows can be found.`,
	Example: `  airbridge import -m field_map.json
  airbridge import --base appXXXXXXXXXXXXXX --batch-size 50
  airbridge import --source-dir exports/`,
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringSliceVar(&importBases, "base", nil, "Only import these base ids")
	importCmd.Flags().BoolVar(&importNoJournal, "no-journal", false, "Do not record the run in the journal")
	importCmd.Flags().BoolVar(&importJSON, "json", false, "Print the result as JSON")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	if err := settings.Validate(config.NeedFieldMap | config.NeedBaserow | config.NeedSource); err != nil {
		return err
	}
	fm, err := loadFieldMap(settings, importBases)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	at := newAirtable(settings)
	var source importer.Source = at
	if settings.SourceDir != "" {
		source = sourceDir(settings.SourceDir)
		logger.Info().Str("dir", settings.SourceDir).Msg("reading records from exports")
	}

	opts := importer.DefaultOptions()
	opts.BatchSize = settings.BatchSize
	opts.Logger = &logger
	opts.RunID = uuid.NewString()

	var j *journal.Journal
	if !importNoJournal {
		j, err = openJournal(ctx, settings.Journal)
		if err != nil {
			return err
		}
		defer j.Close()
		if err := j.StartRun(ctx, opts.RunID, settings.FieldMap); err != nil {
			return err
		}
		opts.Journal = j
	}

	im, err := importer.New(source, newBaserow(settings), at, opts)
	if err != nil {
		return err
	}

	start := time.Now()
	result, runErr := im.Run(ctx, fm)
	totals := result.Totals()

	if j != nil {
		counts := journal.Counts{
			RecordsCreated: totals.RecordsCreated,
			LinksPatched:   totals.LinkRowsPatched,
			FilesUploaded:  totals.FilesUploaded,
		}
		// The run context may be cancelled; the outcome still gets stored.
		if err := j.FinishRun(context.WithoutCancel(ctx), opts.RunID, counts, runErr); err != nil {
			logger.Warn().Err(err).Msg("failed to record run outcome")
		}
	}

	if importJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return runErr
	}

	if runErr != nil {
		printImportFailure(runErr, totals)
		return runErr
	}

	fmt.Printf("\n%s Import complete in %v\n", ui.RenderPass("✓"), time.Since(start).Round(time.Millisecond))
	fmt.Printf("   Run:     %s\n", ui.RenderAccent(result.RunID))
	fmt.Printf("   Bases:   %d (%d tables)\n", len(result.Bases), totals.Tables)
	fmt.Printf("   Rows:    %d created in %d batches\n", totals.RecordsCreated, totals.CreateBatches)
	fmt.Printf("   Links:   %d rows patched\n", totals.LinkRowsPatched)
	fmt.Printf("   Files:   %d uploaded to %d rows\n", totals.FilesUploaded, totals.FileRowsPatched)
	return nil
}

func printImportFailure(err error, totals importer.BaseResult) {
	kind := "Import failed"
	switch {
	case importer.IsConfigError(err):
		kind = "Field map does not match Baserow"
	case importer.IsConversionError(err):
		kind = "A value could not be converted"
	case importer.IsSourceShapeError(err):
		kind = "An Airtable value has the wrong shape"
	case errors.Is(err, importer.ErrUnmappedRecordReference):
		kind = "A record links to a record that was not imported"
	case importer.IsFileError(err):
		kind = "An attachment could not be copied"
	case importer.IsDestinationError(err):
		kind = "Baserow rejected a request"
	case errors.Is(err, context.Canceled):
		kind = "Import interrupted"
	}

	fmt.Fprintf(os.Stderr, "\n%s %s\n", ui.RenderFail("✗"), kind)
	if totals.RecordsCreated > 0 {
		fmt.Fprintf(os.Stderr, "%s %d rows were created before the failure and remain in Baserow.\n",
			ui.RenderWarn("⚠"), totals.RecordsCreated)
		fmt.Fprintf(os.Stderr, "   Running the import again will create them again.\n")
	}
}

func openJournal(ctx context.Context, path string) (*journal.Journal, error) {
	j, err := journal.Open(path)
	if err != nil {
		return nil, err
	}
	if err := j.InitSchema(ctx); err != nil {
		_ = j.Close()
		return nil, err
	}
	return j, nil
}
