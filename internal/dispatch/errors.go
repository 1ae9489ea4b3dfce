// server/internal/dispatch/errors.go
package dispatch

import (
	"errors"
	"fmt"

	"darkstore-dispatch-api-server/internal/models"
)

// Request-level failures. Per-order problems never surface as errors; they
// accumulate in the skipped list and only escalate to one of these when not
// a single order survives.
var (
	ErrNoAvailableRiders = errors.New("no riders available for assignment")
	ErrRiderOffline      = errors.New("rider is offline")
	ErrNoOrders          = errors.New("no order ids given and auto-assign is disabled")
)

// Diagnostic is the payload attached to a zero-dispatched failure. Operators
// use these counts to tell "no riders" from "orders already claimed" from
// "orders not yet ready" without reading the database.
type Diagnostic struct {
	ReadyOrders       int                   `json:"readyOrders"`
	NotReady          int                   `json:"notReadyOrders"`
	AlreadyDispatched int                   `json:"alreadyDispatched"`
	NotFound          int                   `json:"notFound"`
	AvailableRiders   int                   `json:"availableRiders"`
	Skipped           []models.SkippedOrder `json:"skipped"`
}

// NothingDispatchedError reports that a request completed without placing a
// single order, with the full per-order breakdown.
type NothingDispatchedError struct {
	Diag Diagnostic
}

func (e *NothingDispatchedError) Error() string {
	return fmt.Sprintf("nothing to dispatch: %d not ready, %d already dispatched, %d not found, %d riders available",
		e.Diag.NotReady, e.Diag.AlreadyDispatched, e.Diag.NotFound, e.Diag.AvailableRiders)
}

func diagnose(skipped []models.SkippedOrder, readyCount, riderCount int) Diagnostic {
	diag := Diagnostic{
		ReadyOrders:     readyCount,
		AvailableRiders: riderCount,
		Skipped:         skipped,
	}
	if diag.Skipped == nil {
		diag.Skipped = []models.SkippedOrder{}
	}
	for _, s := range skipped {
		switch s.Reason {
		case models.SkipOrderNotReady:
			diag.NotReady++
		case models.SkipAlreadyDispatched:
			diag.AlreadyDispatched++
		case models.SkipOrderNotFound:
			diag.NotFound++
		}
	}
	return diag
}
