package main

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/steveyegge/airbridge/internal/config"
	"github.com/steveyegge/airbridge/internal/logging"
	"github.com/steveyegge/airbridge/internal/ui"
)

var (
	cfgFile string
	noColor bool

	v         *viper.Viper
	settings  *config.Settings
	logger    = zerolog.Nop()
	logCloser io.Closer
)

// flagKeys binds persistent flags to setting keys.
var flagKeys = map[string]string{
	"airtable-url": config.KeyAirtableURL,
	"baserow-url":  config.KeyBaserowURL,
	"batch-size":   config.KeyBatchSize,
	"field-map":    config.KeyFieldMap,
	"source-dir":   config.KeySourceDir,
	"journal":      config.KeyJournal,
	"log-level":    config.KeyLogLevel,
	"log-file":     config.KeyLogFile,
	"quiet":        config.KeyQuiet,
	"http-timeout": config.KeyHTTPTimeout,
}

var rootCmd = &cobra.Command{
	Use:   "airbridge",
	Short: "Copy Airtable bases into Baserow",
	Long: `airbridge copies records from Airtable into existing Baserow tables.

A field map (see 'airbridge template') says which Airtable tables and fields
go to which Baserow tables and fields. Values are converted to the Baserow
field type, links between records are rebuilt after every table is created,
and attachments are uploaded to Baserow storage.

Tokens are read from AIRTABLE_TOKEN and BASEROW_TOKEN (or the AIRBRIDGE_
prefixed forms), a .env file, or a config file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if noColor {
			ui.DisableColor()
		}

		var err error
		v, err = config.New(cfgFile)
		if err != nil {
			return err
		}
		for flag, key := range flagKeys {
			if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
				return fmt.Errorf("failed to bind --%s: %w", flag, err)
			}
		}
		if settings, err = config.Load(v); err != nil {
			return err
		}

		logger, logCloser, err = logging.New(logging.Options{
			Level:   settings.LogLevel,
			File:    settings.LogFile,
			Quiet:   settings.Quiet,
			NoColor: noColor || !ui.IsTerminal(),
		})
		return err
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if logCloser != nil {
			return logCloser.Close()
		}
		return nil
	},
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: "migrate", Title: "Migration:"},
		&cobra.Group{ID: "setup", Title: "Setup:"},
		&cobra.Group{ID: "history", Title: "History:"},
	)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "Config file (default: ./airbridge.{yaml,toml,json})")
	flags.BoolVar(&noColor, "no-color", false, "Disable colored output")
	flags.String("airtable-url", "", "Airtable API URL")
	flags.String("baserow-url", "", "Baserow URL, for self-hosted instances")
	flags.Int("batch-size", 0, "Rows per create/update request (1-200)")
	flags.StringP("field-map", "m", "", "Field map file (.json, .yaml or .toml)")
	flags.String("source-dir", "", "Read records from JSONL exports in this directory instead of the Airtable API")
	flags.String("journal", "", "Journal database path")
	flags.String("log-level", "", "Log level: debug, info, warn, error")
	flags.String("log-file", "", "Also write JSON logs to this file, rotated")
	flags.BoolP("quiet", "q", false, "Only print warnings and errors")
	flags.Duration("http-timeout", 0, "Timeout per HTTP request")
}
