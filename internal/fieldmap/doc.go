// Package fieldmap loads the field map that tells an import which Airtable
// tables and fields go to which Baserow tables and fields.
//
// A field map looks like this in JSON (YAML and TOML use the same keys):
//
//	{
//	    "bases": {
//	        "appXXXXXXXXXXXXXX": {
//	            "tables": {
//	                "Tasks": {
//	                    "id": 101,
//	                    "fields": {"Name": 1001, "Owner": 1002},
//	                    "overrides": {"1001": "trim"}
//	                }
//	            }
//	        }
//	    }
//	}
//
// Table keys are Airtable table ids or names, field keys are Airtable field
// names, and the numbers are Baserow table and field ids. overrides is
// optional and binds a built-in override to a Baserow field id.
package fieldmap
