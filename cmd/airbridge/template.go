package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"github.com/steveyegge/airbridge/internal/fieldmap"
	"github.com/steveyegge/airbridge/internal/ui"
)

var templateInteractive bool

var templateCmd = &cobra.Command{
	Use:     "template [path]",
	GroupID: "setup",
	Short:   "Write a skeleton field map",
	Long: `Write a field map skeleton to path (default field_map.json). The
format follows the extension: .json, .yaml, .yml or .toml.

An existing file is never overwritten.

With --interactive, prompts for one base, table and its fields instead of
writing placeholders.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := fieldmap.DefaultFilename
		if len(args) == 1 {
			path = args[0]
		}

		fm := fieldmap.Template()
		if templateInteractive {
			var err error
			if fm, err = promptFieldMap(); err != nil {
				return err
			}
		}

		written, err := fieldmap.WriteTemplate(path, fm)
		if err != nil {
			return err
		}
		if !written {
			fmt.Printf("%s %s already exists, not overwriting\n", ui.RenderWarn("⚠"), path)
			return nil
		}
		fmt.Printf("%s Wrote %s\n", ui.RenderPass("✓"), ui.RenderAccent(path))
		return nil
	},
}

func init() {
	templateCmd.Flags().BoolVarP(&templateInteractive, "interactive", "i", false, "Prompt for the base, table and fields")
	rootCmd.AddCommand(templateCmd)
}

func promptFieldMap() (*fieldmap.FieldMap, error) {
	var baseID, table, tableID, fieldLines string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Airtable base id").
				Placeholder("appXXXXXXXXXXXXXX").
				Value(&baseID).
				Validate(required),
			huh.NewInput().
				Title("Airtable table id or name").
				Value(&table).
				Validate(required),
			huh.NewInput().
				Title("Baserow table id").
				Value(&tableID).
				Validate(positiveInt),
		),
		huh.NewGroup(
			huh.NewText().
				Title("Fields").
				Description("One per line: Airtable field name = Baserow field id").
				Value(&fieldLines).
				Validate(func(s string) error {
					_, err := parseFieldLines(s)
					return err
				}),
		),
	)
	if err := form.Run(); err != nil {
		return nil, err
	}

	id, _ := strconv.Atoi(strings.TrimSpace(tableID))
	fields, _ := parseFieldLines(fieldLines)
	return &fieldmap.FieldMap{
		Bases: map[string]fieldmap.Base{
			strings.TrimSpace(baseID): {
				Tables: map[string]fieldmap.Table{
					strings.TrimSpace(table): {ID: id, Fields: fields},
				},
			},
		},
	}, nil
}

func required(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("required")
	}
	return nil
}

func positiveInt(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return errors.New("must be a positive number")
	}
	return nil
}

// parseFieldLines reads "name = id" lines. The name may contain '='; the
// id is taken after the last one.
func parseFieldLines(s string) (map[string]int, error) {
	fields := make(map[string]int)
	for i, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		sep := strings.LastIndex(line, "=")
		if sep < 0 {
			return nil, fmt.Errorf("line %d: expected name = id", i+1)
		}
		name := strings.TrimSpace(line[:sep])
		id, err := strconv.Atoi(strings.TrimSpace(line[sep+1:]))
		if name == "" || err != nil || id <= 0 {
			return nil, fmt.Errorf("line %d: expected name = id", i+1)
		}
		if _, dup := fields[name]; dup {
			return nil, fmt.Errorf("line %d: %q listed twice", i+1, name)
		}
		fields[name] = id
	}
	if len(fields) == 0 {
		return nil, errors.New("at least one field is required")
	}
	return fields, nil
}
