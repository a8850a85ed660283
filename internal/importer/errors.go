package importer

import (
	"errors"

	"github.com/steveyegge/airbridge/internal/baserow"
	"github.com/steveyegge/airbridge/internal/convert"
	"github.com/steveyegge/airbridge/internal/fieldmap"
	"github.com/steveyegge/airbridge/internal/mapper"
)

var (
	// ErrUnmappedRecordReference is returned when a record links to an
	// Airtable record that was not imported in the same base.
	ErrUnmappedRecordReference = errors.New("linked record was not imported")

	// ErrAttachmentFetch is returned when attachment content cannot be
	// downloaded from Airtable.
	ErrAttachmentFetch = errors.New("failed to fetch attachment")

	// ErrInvalidBatchSize is returned by New for batch sizes outside
	// 1..baserow.MaxBatchSize.
	ErrInvalidBatchSize = errors.New("invalid batch size")
)

// IsConfigError returns true if err means the field map or options do not
// fit the destination.
func IsConfigError(err error) bool {
	return mapper.IsConfigError(err) ||
		errors.Is(err, convert.ErrUnsupportedFieldType) ||
		errors.Is(err, convert.ErrUnknownOverride) ||
		errors.Is(err, fieldmap.ErrInvalidFieldMap) ||
		errors.Is(err, ErrInvalidBatchSize)
}

// IsConversionError returns true if a source value failed a conversion rule.
func IsConversionError(err error) bool {
	return convert.IsConversionError(err)
}

// IsSourceShapeError returns true if a link or file field got a value of
// the wrong shape.
func IsSourceShapeError(err error) bool {
	return mapper.IsSourceShapeError(err)
}

// IsDestinationError returns true if Baserow rejected a request.
func IsDestinationError(err error) bool {
	return errors.Is(err, baserow.ErrDestinationWrite) || errors.Is(err, baserow.ErrFileUpload)
}

// IsFileError returns true if an attachment could not be moved.
func IsFileError(err error) bool {
	return errors.Is(err, ErrAttachmentFetch) || errors.Is(err, baserow.ErrFileUpload)
}
