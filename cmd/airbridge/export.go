package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/steveyegge/airbridge/internal/airtable"
	"github.com/steveyegge/airbridge/internal/config"
	"github.com/steveyegge/airbridge/internal/ui"
)

var exportBases []string

var exportCmd = &cobra.Command{
	Use:     "export",
	GroupID: "migrate",
	Short:   "Save Airtable records to JSONL files",
	Long: `Download every table in the field map into --source-dir, one
<base>/<table>.jsonl file per table. 'airbridge import --source-dir' can
then import from the files instead of the Airtable API.

Attachment URLs in Airtable records expire after a few hours, so import
soon after exporting.`,
	Example: `  airbridge export --source-dir exports/`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := settings.Validate(config.NeedFieldMap | config.NeedAirtable | config.NeedSourceDir); err != nil {
			return err
		}
		fm, err := loadFieldMap(settings, exportBases)
		if err != nil {
			return err
		}

		at := newAirtable(settings)
		start := time.Now()
		total := 0
		for _, baseID := range fm.BaseIDs() {
			for _, table := range fm.Bases[baseID].TableNames() {
				n, err := at.Export(cmd.Context(), settings.SourceDir, baseID, table)
				if err != nil {
					return fmt.Errorf("failed to export %s/%s: %w", baseID, table, err)
				}
				total += n
				logger.Info().Str("base", baseID).Str("table", table).Int("records", n).Msg("exported table")
			}
		}

		fmt.Printf("%s Exported %d records in %v\n", ui.RenderPass("✓"), total, time.Since(start).Round(time.Millisecond))
		fmt.Printf("   Directory: %s\n", ui.RenderAccent(settings.SourceDir))
		return nil
	},
}

// sourceDir reads records from a directory written by export.
func sourceDir(path string) airtable.Dir {
	return airtable.Dir{Path: path}
}

func init() {
	exportCmd.Flags().StringSliceVar(&exportBases, "base", nil, "Only export these base ids")
	rootCmd.AddCommand(exportCmd)
}
