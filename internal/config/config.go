// Package config resolves runtime settings from flags, environment
// variables, an optional config file and a .env file, in that order of
// precedence.
//
// Environment variables use the AIRBRIDGE_ prefix (AIRBRIDGE_BASEROW_URL).
// The tokens also fall back to the unprefixed AIRTABLE_TOKEN and
// BASEROW_TOKEN.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/steveyegge/airbridge/internal/airtable"
	"github.com/steveyegge/airbridge/internal/baserow"
	"github.com/steveyegge/airbridge/internal/fieldmap"
)

// EnvPrefix prefixes every environment variable.
const EnvPrefix = "AIRBRIDGE"

// Setting keys.
const (
	KeyAirtableToken = "airtable_token"
	KeyAirtableURL   = "airtable_url"
	KeyBaserowToken  = "baserow_token"
	KeyBaserowURL    = "baserow_url"
	KeyBatchSize     = "batch_size"
	KeyFieldMap      = "field_map"
	KeySourceDir     = "source_dir"
	KeyJournal       = "journal"
	KeyLogLevel      = "log_level"
	KeyLogFile       = "log_file"
	KeyQuiet         = "quiet"
	KeyHTTPTimeout   = "http_timeout"
)

// ErrInvalidSettings is wrapped by every Validate problem.
var ErrInvalidSettings = errors.New("invalid settings")

// Settings are the resolved runtime settings.
type Settings struct {
	AirtableToken string        `mapstructure:"airtable_token"`
	AirtableURL   string        `mapstructure:"airtable_url"`
	BaserowToken  string        `mapstructure:"baserow_token"`
	BaserowURL    string        `mapstructure:"baserow_url"`
	BatchSize     int           `mapstructure:"batch_size"`
	FieldMap      string        `mapstructure:"field_map"`
	SourceDir     string        `mapstructure:"source_dir"`
	Journal       string        `mapstructure:"journal"`
	LogLevel      string        `mapstructure:"log_level"`
	LogFile       string        `mapstructure:"log_file"`
	Quiet         bool          `mapstructure:"quiet"`
	HTTPTimeout   time.Duration `mapstructure:"http_timeout"`
}

// DefaultJournalPath is where runs are journaled unless configured.
func DefaultJournalPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "airbridge", "journal.db")
	}
	return filepath.Join(".airbridge", "journal.db")
}

// SetDefaults registers the default of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyAirtableToken, "")
	v.SetDefault(KeyAirtableURL, airtable.DefaultURL)
	v.SetDefault(KeyBaserowToken, "")
	v.SetDefault(KeyBaserowURL, baserow.DefaultURL)
	v.SetDefault(KeyBatchSize, baserow.MaxBatchSize)
	v.SetDefault(KeyFieldMap, fieldmap.DefaultFilename)
	v.SetDefault(KeySourceDir, "")
	v.SetDefault(KeyJournal, DefaultJournalPath())
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFile, "")
	v.SetDefault(KeyQuiet, false)
	v.SetDefault(KeyHTTPTimeout, 60*time.Second)
}

// New returns a viper instance wired to the environment. dotenv files are
// loaded into the process environment first; missing files are ignored.
// configFile may be empty, in which case airbridge.{yaml,toml,json} is
// looked up in the working directory and the user config directory.
func New(configFile string, dotenv ...string) (*viper.Viper, error) {
	if len(dotenv) == 0 {
		dotenv = []string{".env"}
	}
	for _, path := range dotenv {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv(KeyAirtableToken, EnvPrefix+"_AIRTABLE_TOKEN", "AIRTABLE_TOKEN")
	_ = v.BindEnv(KeyBaserowToken, EnvPrefix+"_BASEROW_TOKEN", "BASEROW_TOKEN")

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", configFile, err)
		}
		return v, nil
	}

	v.SetConfigName("airbridge")
	v.AddConfigPath(".")
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, "airbridge"))
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}
	return v, nil
}

// Load decodes the settings held by v.
func Load(v *viper.Viper) (*Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	return &s, nil
}

// Need names the settings a command requires.
type Need int

const (
	NeedFieldMap Need = 1 << iota
	NeedBaserow
	NeedAirtable
	// NeedSource is satisfied by an Airtable token or a source directory.
	NeedSource
	NeedSourceDir
)

// Validate reports every problem with s at once. Settings that are always
// consulted are checked regardless of needs.
func (s *Settings) Validate(needs Need) error {
	var result *multierror.Error
	fail := func(format string, args ...any) {
		result = multierror.Append(result, fmt.Errorf("%w: "+format, append([]any{ErrInvalidSettings}, args...)...))
	}

	if s.BatchSize < 1 || s.BatchSize > baserow.MaxBatchSize {
		fail("%s must be between 1 and %d, got %d", KeyBatchSize, baserow.MaxBatchSize, s.BatchSize)
	}
	if s.HTTPTimeout <= 0 {
		fail("%s must be positive, got %s", KeyHTTPTimeout, s.HTTPTimeout)
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(s.LogLevel)); err != nil {
		fail("%s: unknown level %q", KeyLogLevel, s.LogLevel)
	}
	for key, raw := range map[string]string{KeyAirtableURL: s.AirtableURL, KeyBaserowURL: s.BaserowURL} {
		if u, err := url.Parse(raw); err != nil || u.Scheme == "" || u.Host == "" {
			fail("%s must be an absolute URL, got %q", key, raw)
		}
	}

	if needs&NeedFieldMap != 0 && s.FieldMap == "" {
		fail("%s is required", KeyFieldMap)
	}
	if needs&NeedBaserow != 0 && s.BaserowToken == "" {
		fail("%s is required (set %s_BASEROW_TOKEN or BASEROW_TOKEN)", KeyBaserowToken, EnvPrefix)
	}
	if needs&NeedAirtable != 0 && s.AirtableToken == "" {
		fail("%s is required (set %s_AIRTABLE_TOKEN or AIRTABLE_TOKEN)", KeyAirtableToken, EnvPrefix)
	}
	if needs&NeedSource != 0 && s.AirtableToken == "" && s.SourceDir == "" {
		fail("either %s or %s is required", KeyAirtableToken, KeySourceDir)
	}
	if needs&NeedSourceDir != 0 && s.SourceDir == "" {
		fail("%s is required", KeySourceDir)
	}
	return result.ErrorOrNil()
}
