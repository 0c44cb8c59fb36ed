package data

import "errors"

// ErrTabKeyRequired is returned when a write is missing its tab id or key.
var ErrTabKeyRequired = errors.New("tab_id and key are required")
