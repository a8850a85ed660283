package fieldmap

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/steveyegge/airbridge/internal/convert"
	"github.com/steveyegge/airbridge/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jsonMap = `{
    "bases": {
        "appOne": {
            "tables": {
                "Tasks": {
                    "id": 101,
                    "fields": {"Name": 1001, "Owner": 1002},
                    "overrides": {"1001": "trim"}
                },
                "People": {"id": 102, "fields": {"Name": 2001}}
            }
        }
    }
}`

const yamlMap = `bases:
  appOne:
    tables:
      Tasks:
        id: 101
        fields:
          Name: 1001
          Owner: 1002
        overrides:
          "1001": trim
      People:
        id: 102
        fields:
          Name: 2001
`

const tomlMap = `[bases.appOne.tables.Tasks]
id = 101
fields = { Name = 1001, Owner = 1002 }
overrides = { "1001" = "trim" }

[bases.appOne.tables.People]
id = 102
fields = { Name = 2001 }
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Formats(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"map.json", jsonMap},
		{"map.yaml", yamlMap},
		{"map.yml", yamlMap},
		{"map.toml", tomlMap},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fm, err := Load(writeFile(t, tt.name, tt.content))
			require.NoError(t, err)

			assert.Equal(t, []string{"appOne"}, fm.BaseIDs())
			base := fm.Bases["appOne"]
			assert.Equal(t, []string{"People", "Tasks"}, base.TableNames())

			tasks := base.Tables["Tasks"]
			assert.Equal(t, 101, tasks.ID)
			assert.Equal(t, map[string]int{"Name": 1001, "Owner": 1002}, tasks.Fields)

			funcs, err := tasks.OverrideFuncs()
			require.NoError(t, err)
			require.Contains(t, funcs, 1001)

			got, err := funcs[1001]("  hi  ", schema.Field{ID: 1001, Type: schema.TypeText}, func(v any) (any, error) { return v, nil })
			require.NoError(t, err)
			assert.Equal(t, "hi", got)
		})
	}
}

func TestLoad_UnknownKey(t *testing.T) {
	_, err := Load(writeFile(t, "map.json", `{"bases": {"appOne": {"tables": {"T": {"id": 1, "feilds": {}}}}}}`))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "map.toml", "[bases.appOne.tables.T]\nid = 1\nfeilds = {}\n"))
	assert.Error(t, err)
}

func TestLoad_UnsupportedFormat(t *testing.T) {
	_, err := Load(writeFile(t, "map.ini", jsonMap))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	fm := &FieldMap{Bases: map[string]Base{
		"appEmpty": {},
		"appBad": {Tables: map[string]Table{
			"T": {
				ID:        0,
				Fields:    map[string]int{"A": -1, "B": 5},
				Overrides: map[string]string{"5": "shout", "x": "trim", "9": "trim"},
			},
		}},
	}}

	err := fm.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidFieldMap)
	assert.ErrorIs(t, err, convert.ErrUnknownOverride)

	msg := err.Error()
	assert.Contains(t, msg, "appEmpty has no tables")
	assert.Contains(t, msg, "table id must be positive")
	assert.Contains(t, msg, `field "A": id must be positive`)
	assert.Contains(t, msg, `override key "x"`)
	assert.Contains(t, msg, "override for field 9")
	assert.Contains(t, msg, `"shout"`)
}

func TestValidate_NoBases(t *testing.T) {
	assert.ErrorIs(t, (&FieldMap{}).Validate(), ErrInvalidFieldMap)
}

func TestOverrideFuncs_None(t *testing.T) {
	funcs, err := Table{ID: 1, Fields: map[string]int{"A": 1}}.OverrideFuncs()
	require.NoError(t, err)
	assert.Nil(t, funcs)
}

func TestEncodeDecode_Template(t *testing.T) {
	for _, format := range []Format{FormatJSON, FormatYAML, FormatTOML} {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Encode(&buf, Template(), format))

			fm, err := Decode(&buf, format)
			require.NoError(t, err)
			assert.Equal(t, Template(), fm)
		})
	}
}
