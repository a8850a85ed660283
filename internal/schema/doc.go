// Package schema defines the record and field shapes shared by the Airtable
// source, the Baserow destination and the conversion engine.
//
// # Destination fields
//
// Baserow describes every table column with a field descriptor returned by
// the "list fields" endpoint:
//
//	{
//	  "id": 1234,
//	  "name": "Price",
//	  "type": "number",
//	  "number_decimal_places": 2,
//	  "number_negative": false
//	}
//
// Field keeps the typed constraints the converters need and the raw
// descriptor so user overrides can read anything else.
//
// # Source records
//
// Airtable records are {id, createdTime, fields}. Field values are scalars,
// lists of scalars, lists of linked record ids or lists of attachment
// descriptors ({url, filename, type}). Numbers are kept as json.Number so no
// precision is lost before conversion.
//
// # Record files
//
// Exported tables are stored as JSONL, one record per line, under
// <dir>/<base>/<table>.jsonl. WriteRecordFile writes atomically via a temp
// file; ReadRecordFile streams records lazily.
package schema
