package fieldmap

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-json"
	"github.com/hashicorp/go-multierror"
	"github.com/steveyegge/airbridge/internal/convert"
	"gopkg.in/yaml.v3"
)

// DefaultFilename is where the template is written when no path is given.
const DefaultFilename = "field_map.json"

var (
	// ErrInvalidFieldMap is returned by Validate for structural problems.
	ErrInvalidFieldMap = errors.New("invalid field map")

	// ErrUnsupportedFormat is returned for file extensions other than
	// .json, .yaml, .yml and .toml.
	ErrUnsupportedFormat = errors.New("unsupported field map format")
)

// FieldMap maps Airtable bases to Baserow tables.
type FieldMap struct {
	Bases map[string]Base `json:"bases" yaml:"bases" toml:"bases"`
}

// Base lists the tables to import from one Airtable base.
type Base struct {
	Tables map[string]Table `json:"tables" yaml:"tables" toml:"tables"`
}

// Table maps one Airtable table onto one Baserow table.
type Table struct {
	ID        int               `json:"id" yaml:"id" toml:"id"`
	Fields    map[string]int    `json:"fields" yaml:"fields" toml:"fields"`
	Overrides map[string]string `json:"overrides,omitempty" yaml:"overrides,omitempty" toml:"overrides,omitempty"`
}

// Format is a field map encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Load reads and validates a field map file.
func Load(path string) (*FieldMap, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open field map: %w", err)
	}
	defer f.Close()

	fm, err := Decode(f, format)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := fm.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return fm, nil
}

// Decode reads a field map in the given format. Unknown keys are errors so
// that typos do not silently drop fields.
func Decode(r io.Reader, format Format) (*FieldMap, error) {
	var fm FieldMap
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&fm); err != nil {
			return nil, err
		}
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&fm); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
	case FormatTOML:
		md, err := toml.NewDecoder(r).Decode(&fm)
		if err != nil {
			return nil, err
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("unknown keys: %v", undecoded)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return &fm, nil
}

// Encode writes fm in the given format.
func Encode(w io.Writer, fm *FieldMap, format Format) error {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(fm, "", "    ")
		if err != nil {
			return err
		}
		_, err = w.Write(append(data, '\n'))
		return err
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(fm); err != nil {
			return err
		}
		return enc.Close()
	case FormatTOML:
		return toml.NewEncoder(w).Encode(fm)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// Validate reports every structural problem in fm at once. It does not
// contact Baserow; field ids are checked against the live schema when a
// table is imported.
func (fm *FieldMap) Validate() error {
	var result *multierror.Error
	if len(fm.Bases) == 0 {
		result = multierror.Append(result, fmt.Errorf("%w: no bases", ErrInvalidFieldMap))
	}

	for _, baseID := range fm.BaseIDs() {
		base := fm.Bases[baseID]
		if len(base.Tables) == 0 {
			result = multierror.Append(result, fmt.Errorf("%w: base %s has no tables", ErrInvalidFieldMap, baseID))
		}
		for _, name := range base.TableNames() {
			t := base.Tables[name]
			where := baseID + "/" + name
			if t.ID <= 0 {
				result = multierror.Append(result, fmt.Errorf("%w: %s: table id must be positive, got %d", ErrInvalidFieldMap, where, t.ID))
			}
			for _, field := range sortedKeys(t.Fields) {
				if id := t.Fields[field]; id <= 0 {
					result = multierror.Append(result, fmt.Errorf("%w: %s: field %q: id must be positive, got %d", ErrInvalidFieldMap, where, field, id))
				}
			}
			if _, err := t.OverrideFuncs(); err != nil {
				result = multierror.Append(result, fmt.Errorf("%s: %w", where, err))
			}
		}
	}
	return result.ErrorOrNil()
}

// BaseIDs lists base ids in sorted order.
func (fm *FieldMap) BaseIDs() []string {
	return sortedKeys(fm.Bases)
}

// TableNames lists source table keys in sorted order.
func (b Base) TableNames() []string {
	return sortedKeys(b.Tables)
}

// OverrideFuncs resolves the named overrides of a table by Baserow field
// id. Each override must target a field that the table maps.
func (t Table) OverrideFuncs() (map[int]convert.Override, error) {
	if len(t.Overrides) == 0 {
		return nil, nil
	}

	mapped := make(map[int]bool, len(t.Fields))
	for _, id := range t.Fields {
		mapped[id] = true
	}

	var result *multierror.Error
	funcs := make(map[int]convert.Override, len(t.Overrides))
	for _, key := range sortedKeys(t.Overrides) {
		id, err := strconv.Atoi(key)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("%w: override key %q is not a field id", ErrInvalidFieldMap, key))
			continue
		}
		if !mapped[id] {
			result = multierror.Append(result, fmt.Errorf("%w: override for field %d, which no source field maps to", ErrInvalidFieldMap, id))
			continue
		}
		o, err := convert.NamedOverride(t.Overrides[key])
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("field %d: %w", id, err))
			continue
		}
		funcs[id] = o
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return funcs, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
