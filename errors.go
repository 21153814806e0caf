package rjq

import "errors"

var (
	// ErrNotFound is returned by status and result lookups when the key is
	// absent from the store, either because it expired or because it never
	// existed. Callers often display this as a failure, but it is distinct
	// from every Status value.
	ErrNotFound = errors.New("rjq: not found")

	// ErrJobLost is returned by Work when a job exceeds its timeout and the
	// Fall policy is enabled. Callers should treat it as fatal and let a
	// process supervisor restart a clean worker.
	ErrJobLost = errors.New("rjq: job lost")

	// ErrStoreClosed is returned by store operations after Close.
	ErrStoreClosed = errors.New("rjq: store closed")
)
