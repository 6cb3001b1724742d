package store

import "errors"

// ErrNotFound is returned when a record does not exist or is not visible to
// the requesting organization.
var ErrNotFound = errors.New("record not found")
