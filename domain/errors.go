package domain

import "errors"

// ErrNotFound reports that a record is absent from the remote store.
var ErrNotFound = errors.New("record not found")

// ErrInvalidTransition reports that a job is not in the status a requested
// status change requires.
var ErrInvalidTransition = errors.New("invalid status transition")
