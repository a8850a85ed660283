// Package importer copies Airtable bases into Baserow.
//
// Each base is imported in three passes, and every pass finishes for all
// tables of the base before the next one starts:
//
//  1. Create: for each table, read the Baserow schema, stream the Airtable
//     records through the mapper and create rows in batches. The row ids
//     returned by each batch extend the base's IDMap.
//  2. Links: translate the linked Airtable record ids collected in pass 1
//     into Baserow row ids and patch the link fields.
//  3. Files: download every attachment, upload it to Baserow and patch the
//     file fields with the stored names.
//
// Link targets may live in any table of the base, which is why pass 2
// waits for every table to be created.
//
// The first error stops the import. Batches already written stay written,
// and running the same import again creates every row again.
package importer
