package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/steveyegge/airbridge/internal/config"
	"github.com/steveyegge/airbridge/internal/convert"
	"github.com/steveyegge/airbridge/internal/importer"
	"github.com/steveyegge/airbridge/internal/schema"
	"github.com/steveyegge/airbridge/internal/ui"
)

var validateCmd = &cobra.Command{
	Use:     "validate",
	GroupID: "migrate",
	Short:   "Check the field map against the Baserow schema",
	Long: `Load the field map and compare every mapped field with the live
Baserow schema of its table, without writing anything. All problems are
reported at once.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := settings.Validate(config.NeedFieldMap | config.NeedBaserow); err != nil {
			return err
		}
		fm, err := loadFieldMap(settings, nil)
		if err != nil {
			return err
		}

		opts := importer.DefaultOptions()
		opts.BatchSize = settings.BatchSize
		opts.Logger = &logger
		im, err := importer.New(nil, newBaserow(settings), nil, opts)
		if err != nil {
			return err
		}
		if err := im.Validate(cmd.Context(), fm); err != nil {
			if errors.Is(err, convert.ErrUnsupportedFieldType) {
				fmt.Fprintf(os.Stderr, "%s airbridge can fill these Baserow field types: %s\n",
					ui.RenderMuted("hint:"), supportedTypes())
			}
			return err
		}

		tables := 0
		for _, base := range fm.Bases {
			tables += len(base.Tables)
		}
		fmt.Printf("%s %s matches Baserow (%d bases, %d tables)\n",
			ui.RenderPass("✓"), ui.RenderAccent(settings.FieldMap), len(fm.Bases), tables)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func supportedTypes() string {
	types := convert.New().Types()
	names := make([]string, 0, len(types)+2)
	for _, t := range types {
		names = append(names, string(t))
	}
	names = append(names, string(schema.TypeLinkRow), string(schema.TypeFile))
	return strings.Join(names, ", ")
}
