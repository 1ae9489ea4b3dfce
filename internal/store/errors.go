// server/internal/store/errors.go
package store

import "errors"

// Sentinel errors surfaced by the stores. The dispatch service translates
// these into per-order skip reasons or request-level diagnostics; they never
// reach the transport layer directly.
var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrOrderNotReady     = errors.New("order not in a dispatchable state")
	ErrRiderNotFound     = errors.New("rider not found")
	ErrCapacityExceeded  = errors.New("rider capacity exceeded")
	ErrAlreadyDispatched = errors.New("order already dispatched")
)
