package storage

import "errors"

// ErrDraftNotFound is returned when no draft exists for the given id
var ErrDraftNotFound = errors.New("draft not found")

// ErrStoreClosed is returned when the store is used after Close
var ErrStoreClosed = errors.New("store is closed")
