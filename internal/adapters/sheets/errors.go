package sheets

import (
	"fmt"

	apperrors "github.com/botivate/systems-dashboard/internal/errors"
)

// FetchError describes a failed read of one sheet.
// It matches errors.ErrRemoteFetch under errors.Is, as well as its cause.
type FetchError struct {
	Sheet string
	// Op is the failing step: "request", "status", "decode" or "envelope".
	Op string
	// StatusCode is set when Op is "status".
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch sheet %q: %s: http %d", e.Sheet, e.Op, e.StatusCode)
	}
	return fmt.Sprintf("fetch sheet %q: %s: %v", e.Sheet, e.Op, e.Err)
}

// Unwrap exposes both the remote-fetch sentinel and the underlying cause.
func (e *FetchError) Unwrap() []error {
	if e.Err == nil {
		return []error{apperrors.ErrRemoteFetch}
	}
	return []error{apperrors.ErrRemoteFetch, e.Err}
}
