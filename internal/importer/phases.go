package importer

import (
	"context"
	"fmt"
	"sort"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"github.com/steveyegge/airbridge/internal/fieldmap"
	"github.com/steveyegge/airbridge/internal/mapper"
	"github.com/steveyegge/airbridge/internal/schema"
)

// baseRun owns the state of one base import: the id map and the link and
// file fields set aside during the create pass.
type baseRun struct {
	im     *Importer
	baseID string
	log    zerolog.Logger
	ids    IDMap
	tables []*tableRun
	result BaseResult

	// latest is the pending record of the last record seen per Airtable
	// id, matching the id map's later-row-wins rule.
	latest map[string]*pendingRecord
}

// tableRun holds what the later passes need from one table, in creation
// order. Only records with link or file values are kept.
type tableRun struct {
	name    string
	tableID int
	pending []*pendingRecord
}

// pendingRecord is keyed by the Airtable id until the id map resolves it.
type pendingRecord struct {
	sourceID   string
	links      mapper.Links
	files      mapper.Files
	superseded bool
}

// rowUpdate is a pending record re-keyed to its Baserow row.
type rowUpdate struct {
	rowID  int
	fields map[int]any
}

type createItem struct {
	sourceID string
	payload  map[string]any
}

func (r *baseRun) createTable(ctx context.Context, name string, t fieldmap.Table) error {
	m, err := r.im.tableMapper(ctx, t)
	if err != nil {
		return err
	}

	tr := &tableRun{name: name, tableID: t.ID}
	r.tables = append(r.tables, tr)
	log := r.log.With().Str("table", name).Int("table_id", t.ID).Logger()

	b := newBatcher(r.im.opts.BatchSize, func(items []createItem) error {
		return r.createBatch(ctx, log, tr, items)
	})

	for rec, err := range r.im.source.Records(ctx, r.baseID, name) {
		if err != nil {
			return fmt.Errorf("failed to read records: %w", err)
		}

		links, files := make(mapper.Links), make(mapper.Files)
		payload, err := m.Map(rec.Fields, links, files)
		if err != nil {
			return fmt.Errorf("record %s: %w", rec.ID, err)
		}
		r.track(tr, rec.ID, links, files)
		if err := b.Add(createItem{sourceID: rec.ID, payload: payload}); err != nil {
			return err
		}
	}
	return b.Flush()
}

func (r *baseRun) createBatch(ctx context.Context, log zerolog.Logger, tr *tableRun, items []createItem) error {
	payloads := make([]map[string]any, len(items))
	sourceIDs := make([]string, len(items))
	for i, item := range items {
		payloads[i] = item.payload
		sourceIDs[i] = item.sourceID
	}

	rowIDs, err := r.im.dest.BatchCreate(ctx, tr.tableID, payloads)
	if err != nil {
		return err
	}
	for _, id := range sourceIDs {
		if _, dup := r.ids[id]; dup {
			log.Warn().Str("record", id).Msg("record id seen twice in base, links will point at the later row")
		}
	}
	if err := r.ids.Add(sourceIDs, rowIDs); err != nil {
		return err
	}

	r.result.RecordsCreated += len(rowIDs)
	r.result.CreateBatches++
	log.Debug().Int("rows", len(rowIDs)).Int("total", r.result.RecordsCreated).Msg("created batch")

	if j := r.im.opts.Journal; j != nil {
		if err := j.RecordRows(ctx, r.im.opts.RunID, r.baseID, tr.name, tr.tableID, sourceIDs, rowIDs); err != nil {
			return fmt.Errorf("failed to journal created rows: %w", err)
		}
	}
	return nil
}

// track sets aside the link and file values of a created record. A later
// record with the same id replaces the earlier one's values, since the id
// map sends both to the later row.
func (r *baseRun) track(tr *tableRun, sourceID string, links mapper.Links, files mapper.Files) {
	if prev := r.latest[sourceID]; prev != nil {
		prev.superseded = true
		delete(r.latest, sourceID)
	}
	if len(links) == 0 && len(files) == 0 {
		return
	}
	p := &pendingRecord{sourceID: sourceID, links: links, files: files}
	tr.pending = append(tr.pending, p)
	r.latest[sourceID] = p
}

// rekey moves the pending records of tr onto Baserow row ids. pick returns
// the fields a record contributes, or nil to skip it. Each row appears at
// most once.
func (r *baseRun) rekey(tr *tableRun, pick func(pendingRecord) (map[int]any, error)) ([]rowUpdate, error) {
	updates := make([]rowUpdate, 0, len(tr.pending))
	seen := make(map[int]bool, len(tr.pending))
	for _, p := range tr.pending {
		if p.superseded {
			continue
		}
		rowID, ok := r.ids[p.sourceID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnmappedRecordReference, p.sourceID)
		}
		if seen[rowID] {
			continue
		}
		fields, err := pick(*p)
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", p.sourceID, err)
		}
		if len(fields) == 0 {
			continue
		}
		seen[rowID] = true
		updates = append(updates, rowUpdate{rowID: rowID, fields: fields})
	}
	return updates, nil
}

func (r *baseRun) patchLinks(ctx context.Context, tr *tableRun) error {
	updates, err := r.rekey(tr, func(p pendingRecord) (map[int]any, error) {
		if len(p.links) == 0 {
			return nil, nil
		}
		fields := make(map[int]any, len(p.links))
		for fieldID, sourceIDs := range p.links {
			rowIDs, err := r.ids.Resolve(sourceIDs)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", schema.FieldKey(fieldID), err)
			}
			fields[fieldID] = rowIDs
		}
		return fields, nil
	})
	if err != nil {
		return err
	}

	n, batches, err := r.patch(ctx, tr, updates)
	r.result.LinkRowsPatched += n
	r.result.LinkBatches += batches
	return err
}

func (r *baseRun) patchFiles(ctx context.Context, tr *tableRun) error {
	updates, err := r.rekey(tr, func(p pendingRecord) (map[int]any, error) {
		if len(p.files) == 0 {
			return nil, nil
		}
		fields := make(map[int]any, len(p.files))
		for _, fieldID := range sortedFieldIDs(p.files) {
			refs := make([]map[string]any, 0, len(p.files[fieldID]))
			for _, att := range p.files[fieldID] {
				name, err := r.transfer(ctx, att)
				if err != nil {
					return nil, fmt.Errorf("%s: %w", schema.FieldKey(fieldID), err)
				}
				refs = append(refs, map[string]any{"name": name})
			}
			fields[fieldID] = refs
		}
		return fields, nil
	})
	if err != nil {
		return err
	}

	n, batches, err := r.patch(ctx, tr, updates)
	r.result.FileRowsPatched += n
	r.result.FileBatches += batches
	return err
}

// transfer copies one attachment from Airtable into Baserow storage and
// returns the stored name.
func (r *baseRun) transfer(ctx context.Context, att schema.Attachment) (string, error) {
	if r.im.fetcher == nil {
		return "", fmt.Errorf("%w: %s: no fetcher configured", ErrAttachmentFetch, att.Filename)
	}
	content, err := r.im.fetcher.Download(ctx, att.URL)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrAttachmentFetch, att.Filename, err)
	}

	mimeType, filename := att.Type, att.Filename
	if mimeType == "" || filename == "" {
		detected := mimetype.Detect(content)
		if mimeType == "" {
			mimeType = detected.String()
		}
		if filename == "" {
			filename = att.ID + detected.Extension()
		}
	}

	name, err := r.im.dest.UploadFile(ctx, filename, content, mimeType)
	if err != nil {
		return "", err
	}
	r.result.FilesUploaded++
	r.log.Debug().Str("file", filename).Str("stored", name).Msg("uploaded file")
	return name, nil
}

// patch sends updates in batches and returns the rows and batches sent.
func (r *baseRun) patch(ctx context.Context, tr *tableRun, updates []rowUpdate) (rows, batches int, err error) {
	b := newBatcher(r.im.opts.BatchSize, func(items []map[string]any) error {
		if err := r.im.dest.BatchUpdate(ctx, tr.tableID, items); err != nil {
			return err
		}
		rows += len(items)
		batches++
		return nil
	})

	for _, u := range updates {
		item := make(map[string]any, len(u.fields)+1)
		item["id"] = u.rowID
		for fieldID, v := range u.fields {
			item[schema.FieldKey(fieldID)] = v
		}
		if err := b.Add(item); err != nil {
			return rows, batches, err
		}
	}
	if err := b.Flush(); err != nil {
		return rows, batches, err
	}
	if rows > 0 {
		r.log.Debug().Str("table", tr.name).Int("rows", rows).Int("batches", batches).Msg("patched rows")
	}
	return rows, batches, nil
}

func sortedFieldIDs(files mapper.Files) []int {
	ids := make([]int, 0, len(files))
	for id := range files {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
