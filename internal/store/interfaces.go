// server/internal/store/interfaces.go
package store

import (
	"context"

	"darkstore-dispatch-api-server/internal/models"
)

// OrderStoreI defines the slice of the order ledger this subsystem touches.
// The only state transition it may perform is ready -> processing (plus the
// compensating revert of its own failed commits).
type OrderStoreI interface {
	// FindReady returns up to limit orders in "ready" state for the store,
	// oldest deadline first.
	FindReady(ctx context.Context, storeID string, limit int) ([]models.Order, error)
	GetByOrderID(ctx context.Context, storeID, orderID string) (*models.Order, error)
	// MarkProcessing atomically flips an unassigned order to "processing"
	// with the given assignee. With requireReady it only matches orders in
	// "ready" state; without (the manual SLA override) it also matches
	// "new". Returns ErrOrderNotReady when nothing matched.
	MarkProcessing(ctx context.Context, storeID, orderID string, assignee models.Assignee, requireReady bool) error
	// RevertProcessing undoes a MarkProcessing performed by this very
	// request after a later commit step failed. It only matches orders the
	// given rider holds, so it can never clobber someone else's assignment.
	RevertProcessing(ctx context.Context, storeID, orderID, riderID string) error
}

// RiderStoreI defines the slice of the rider pool this subsystem touches:
// ordered assignability queries and the atomic capacity reservation.
// Capacity is only ever incremented here; the delivery workflow owns the
// decrement when orders complete.
type RiderStoreI interface {
	// FindAssignable returns riders with spare capacity and status online or
	// waiting, ordered ascending by currentOrders, ties broken by riderID.
	FindAssignable(ctx context.Context, storeID string) ([]models.Rider, error)
	GetByRiderID(ctx context.Context, storeID, riderID string) (*models.Rider, error)
	// Reserve atomically increments currentOrders by count, failing with
	// ErrCapacityExceeded if the increment would pass maxCapacity. A rider
	// filled to capacity moves online -> busy; waiting stays waiting.
	Reserve(ctx context.Context, storeID, riderID string, count int) (*models.Rider, error)
}

// DispatchStoreI owns dispatch events and the per-order claim records.
type DispatchStoreI interface {
	CreateDispatch(ctx context.Context, d *models.Dispatch) error
	// ClaimOrder inserts the claim record for an order. The unique index on
	// orderID makes this the at-most-once gate: a second claim for the same
	// order fails with ErrAlreadyDispatched.
	ClaimOrder(ctx context.Context, claim models.DispatchOrder) error
	// DeleteClaim removes a claim inserted earlier in the same request whose
	// commit could not be completed. Committed claims are never deleted.
	DeleteClaim(ctx context.Context, orderID string) error
	// FindClaims returns the existing claims for the given order ids, keyed
	// by order id.
	FindClaims(ctx context.Context, orderIDs []string) (map[string]models.DispatchOrder, error)
}

// AuditSinkI accepts structured audit records. Fire-and-forget: a failed
// audit write must never fail the operation that produced it, so Record
// returns nothing.
type AuditSinkI interface {
	Record(ctx context.Context, rec models.AuditRecord)
}
