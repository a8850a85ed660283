package importer

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"github.com/steveyegge/airbridge/internal/baserow"
	"github.com/steveyegge/airbridge/internal/convert"
	"github.com/steveyegge/airbridge/internal/fieldmap"
	"github.com/steveyegge/airbridge/internal/mapper"
	"github.com/steveyegge/airbridge/internal/schema"
)

// Importer moves records from a Source into a Destination.
type Importer struct {
	source  Source
	dest    Destination
	fetcher Fetcher
	opts    Options
	log     zerolog.Logger
}

// New creates an Importer. fetcher may be nil when no mapped field is a
// file field.
func New(source Source, dest Destination, fetcher Fetcher, opts Options) (*Importer, error) {
	if opts.BatchSize < 1 || opts.BatchSize > baserow.MaxBatchSize {
		return nil, fmt.Errorf("%w: %d (must be 1-%d)", ErrInvalidBatchSize, opts.BatchSize, baserow.MaxBatchSize)
	}
	opts = opts.withDefaults()
	return &Importer{
		source:  source,
		dest:    dest,
		fetcher: fetcher,
		opts:    opts,
		log:     opts.Logger.With().Str("run_id", opts.RunID).Logger(),
	}, nil
}

// RunID returns the id that tags this importer's logs and journal rows.
func (im *Importer) RunID() string {
	return im.opts.RunID
}

// Run imports every base of fm in base id order.
func (im *Importer) Run(ctx context.Context, fm *fieldmap.FieldMap) (Result, error) {
	result := Result{RunID: im.opts.RunID}
	for _, baseID := range fm.BaseIDs() {
		br, err := im.ImportBase(ctx, baseID, fm.Bases[baseID])
		result.Bases = append(result.Bases, br)
		if err != nil {
			return result, err
		}
	}
	im.log.Info().Int("bases", len(result.Bases)).Msg("Done!")
	return result, nil
}

// ImportBase runs the three passes for one base.
func (im *Importer) ImportBase(ctx context.Context, baseID string, base fieldmap.Base) (BaseResult, error) {
	log := im.log.With().Str("base", baseID).Logger()
	run := &baseRun{
		im:     im,
		baseID: baseID,
		log:    log,
		ids:    make(IDMap),
		result: BaseResult{BaseID: baseID},
		latest: make(map[string]*pendingRecord),
	}

	log.Info().Msgf("Importing records from %s...", baseID)
	for _, name := range base.TableNames() {
		if err := run.createTable(ctx, name, base.Tables[name]); err != nil {
			return run.result, fmt.Errorf("base %s, table %s: %w", baseID, name, err)
		}
		run.result.Tables++
	}

	log.Info().Int("records", len(run.ids)).Msg("Mapping linked records...")
	for _, t := range run.tables {
		if err := run.patchLinks(ctx, t); err != nil {
			return run.result, fmt.Errorf("base %s, table %s: %w", baseID, t.name, err)
		}
	}

	log.Info().Msg("Uploading files...")
	for _, t := range run.tables {
		if err := run.patchFiles(ctx, t); err != nil {
			return run.result, fmt.Errorf("base %s, table %s: %w", baseID, t.name, err)
		}
	}

	log.Info().
		Int("created", run.result.RecordsCreated).
		Int("linked", run.result.LinkRowsPatched).
		Int("files", run.result.FilesUploaded).
		Msg("base imported")
	return run.result, nil
}

// Validate checks every table of fm against the live Baserow schema
// without writing anything, and reports all problems at once.
func (im *Importer) Validate(ctx context.Context, fm *fieldmap.FieldMap) error {
	var result *multierror.Error
	for _, baseID := range fm.BaseIDs() {
		base := fm.Bases[baseID]
		for _, name := range base.TableNames() {
			if _, err := im.tableMapper(ctx, base.Tables[name]); err != nil {
				result = multierror.Append(result, fmt.Errorf("base %s, table %s: %w", baseID, name, err))
			}
		}
	}
	return result.ErrorOrNil()
}

// tableMapper fetches the destination schema of t and returns a checked
// mapper for it.
func (im *Importer) tableMapper(ctx context.Context, t fieldmap.Table) (*mapper.Mapper, error) {
	list, err := im.dest.ListFields(ctx, t.ID)
	if err != nil {
		return nil, err
	}

	overrides, err := im.overridesFor(t)
	if err != nil {
		return nil, err
	}

	m := mapper.New(im.opts.Converter, t.Fields, schema.IndexFields(list), overrides)
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// overridesFor merges the named overrides of t with Options.Overrides into
// a fresh map.
func (im *Importer) overridesFor(t fieldmap.Table) (map[int]convert.Override, error) {
	named, err := t.OverrideFuncs()
	if err != nil {
		return nil, err
	}
	if len(named) == 0 && len(im.opts.Overrides) == 0 {
		return nil, nil
	}

	merged := make(map[int]convert.Override, len(named)+len(im.opts.Overrides))
	for id, o := range named {
		merged[id] = o
	}
	for id, o := range im.opts.Overrides {
		merged[id] = o
	}
	return merged, nil
}
