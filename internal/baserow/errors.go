package baserow

import (
	"errors"
	"fmt"
)

var (
	// ErrDestinationWrite is returned when Baserow rejects a schema read,
	// batch create or batch update.
	ErrDestinationWrite = errors.New("baserow request failed")

	// ErrFileUpload is returned when Baserow rejects a file upload.
	ErrFileUpload = errors.New("baserow file upload failed")
)

// APIError is a non-success response from Baserow. Body is the response
// body verbatim, which is where Baserow puts its validation details.
type APIError struct {
	Op         string
	Method     string
	Path       string
	StatusCode int
	Body       string

	kind error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s %s returned %d: %s", e.Op, e.Method, e.Path, e.StatusCode, e.Body)
}

// Unwrap returns ErrDestinationWrite or ErrFileUpload.
func (e *APIError) Unwrap() error {
	return e.kind
}
