// server/internal/dispatch/service.go
package dispatch

import (
	"context"
	"errors"
	"strings"
	"time"

	"darkstore-dispatch-api-server/internal/allocator"
	"darkstore-dispatch-api-server/internal/models"
	"darkstore-dispatch-api-server/internal/store"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const defaultBatchSize = 20

// DispatchEvent is broadcast to websocket subscribers after each committed
// group, so the ops dashboard updates without polling.
type DispatchEvent struct {
	DispatchID string              `json:"dispatchId"`
	StoreID    string              `json:"storeId"`
	RiderID    string              `json:"riderId"`
	RiderName  string              `json:"riderName"`
	Mode       models.DispatchMode `json:"mode"`
	OrderIDs   []string            `json:"orderIds"`
	At         time.Time           `json:"at"`
}

// EventPublisherI pushes dispatch events to live subscribers. Best effort;
// the service never fails a dispatch over a publish problem.
type EventPublisherI interface {
	PublishDispatch(event DispatchEvent)
}

// BatchRequest asks for a set of orders (or, with AutoAssign and no ids, the
// oldest-deadline ready orders) to be spread across available riders.
type BatchRequest struct {
	StoreID    string
	OrderIDs   []string
	AutoAssign bool
	Actor      string
}

// ManualRequest pins the given orders to one explicit rider. OverrideSLA is
// the exception-handling escape hatch that accepts orders not yet ready.
type ManualRequest struct {
	StoreID     string
	OrderIDs    []string
	RiderID     string
	OverrideSLA bool
	Actor       string
}

// Result is what a dispatch call answers with when at least one order was
// placed. Skipped lists every order that was not, with a reason.
type Result struct {
	DispatchIDs      []string              `json:"dispatchIds"`
	AssignedRiders   int                   `json:"assignedRiders"`
	OrdersDispatched int                   `json:"ordersDispatched"`
	Skipped          []models.SkippedOrder `json:"skipped"`
}

// Service is the transactional boundary of the dispatch subsystem. It plans
// with the allocator over store snapshots, then commits order by order under
// the stores' atomic guards, so concurrent requests can race freely without
// double-dispatching an order or overbooking a rider.
type Service struct {
	orders    store.OrderStoreI
	riders    store.RiderStoreI
	ledger    store.DispatchStoreI
	audit     store.AuditSinkI
	events    EventPublisherI
	batchSize int
	log       zerolog.Logger
}

func NewService(
	orders store.OrderStoreI,
	riders store.RiderStoreI,
	ledger store.DispatchStoreI,
	audit store.AuditSinkI,
	events EventPublisherI,
	batchSize int,
	log zerolog.Logger,
) *Service {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Service{
		orders:    orders,
		riders:    riders,
		ledger:    ledger,
		audit:     audit,
		events:    events,
		batchSize: batchSize,
		log:       log,
	}
}

// DispatchBatch implements auto/batch mode: least-loaded riders are filled
// in order, one dispatch event per rider touched.
func (s *Service) DispatchBatch(ctx context.Context, req BatchRequest) (*Result, error) {
	started := time.Now()
	defer func() { dispatchDuration.Observe(time.Since(started).Seconds()) }()

	if len(req.OrderIDs) == 0 && !req.AutoAssign {
		return nil, ErrNoOrders
	}

	riders, err := s.riders.FindAssignable(ctx, req.StoreID)
	if err != nil {
		return nil, err
	}
	if len(riders) == 0 {
		return nil, ErrNoAvailableRiders
	}

	candidates, err := s.loadCandidates(ctx, req.StoreID, req.OrderIDs)
	if err != nil {
		return nil, err
	}

	plan := allocator.PlanBatch(candidates, riders)
	if plan.Assigned() == 0 {
		return nil, &NothingDispatchedError{Diag: diagnose(plan.Skipped, readyCount(candidates), len(riders))}
	}

	result, err := s.commit(ctx, req.StoreID, plan, models.DispatchModeBatch, req.Actor, true)
	if err != nil {
		return nil, err
	}
	if result.OrdersDispatched == 0 {
		return nil, &NothingDispatchedError{Diag: diagnose(result.Skipped, readyCount(candidates), len(riders))}
	}
	return result, nil
}

// AssignToRider implements manual mode: every surviving order goes to the
// one named rider, capacity permitting.
func (s *Service) AssignToRider(ctx context.Context, req ManualRequest) (*Result, error) {
	started := time.Now()
	defer func() { dispatchDuration.Observe(time.Since(started).Seconds()) }()

	if req.RiderID == "" {
		return nil, store.ErrRiderNotFound
	}
	if len(req.OrderIDs) == 0 {
		return nil, ErrNoOrders
	}

	rider, err := s.riders.GetByRiderID(ctx, req.StoreID, req.RiderID)
	if err != nil {
		return nil, err
	}
	if rider.Status == models.RiderStatusOffline {
		return nil, ErrRiderOffline
	}

	candidates, err := s.loadCandidates(ctx, req.StoreID, req.OrderIDs)
	if err != nil {
		return nil, err
	}

	plan := allocator.PlanManual(candidates, *rider, req.OverrideSLA)
	if plan.Assigned() == 0 {
		return nil, &NothingDispatchedError{Diag: diagnose(plan.Skipped, readyCount(candidates), 1)}
	}

	result, err := s.commit(ctx, req.StoreID, plan, models.DispatchModeSingle, req.Actor, !req.OverrideSLA)
	if err != nil {
		return nil, err
	}
	if result.OrdersDispatched == 0 {
		return nil, &NothingDispatchedError{Diag: diagnose(result.Skipped, readyCount(candidates), 1)}
	}
	return result, nil
}

// loadCandidates snapshots the requested orders and their existing claims.
// With no explicit ids it auto-selects the ready queue, oldest deadline
// first, bounded by the configured batch size. Duplicate ids are collapsed.
func (s *Service) loadCandidates(ctx context.Context, storeID string, orderIDs []string) ([]allocator.Candidate, error) {
	if len(orderIDs) == 0 {
		ready, err := s.orders.FindReady(ctx, storeID, s.batchSize)
		if err != nil {
			return nil, err
		}
		orderIDs = make([]string, 0, len(ready))
		byID := make(map[string]*models.Order, len(ready))
		for i := range ready {
			orderIDs = append(orderIDs, ready[i].OrderID)
			byID[ready[i].OrderID] = &ready[i]
		}
		return s.attachClaims(ctx, orderIDs, byID)
	}

	seen := make(map[string]bool, len(orderIDs))
	deduped := make([]string, 0, len(orderIDs))
	byID := make(map[string]*models.Order, len(orderIDs))
	for _, id := range orderIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		deduped = append(deduped, id)

		order, err := s.orders.GetByOrderID(ctx, storeID, id)
		if err != nil {
			if errors.Is(err, store.ErrOrderNotFound) {
				continue
			}
			return nil, err
		}
		byID[id] = order
	}
	return s.attachClaims(ctx, deduped, byID)
}

func (s *Service) attachClaims(ctx context.Context, orderIDs []string, byID map[string]*models.Order) ([]allocator.Candidate, error) {
	claims, err := s.ledger.FindClaims(ctx, orderIDs)
	if err != nil {
		return nil, err
	}

	candidates := make([]allocator.Candidate, 0, len(orderIDs))
	for _, id := range orderIDs {
		_, claimed := claims[id]
		candidates = append(candidates, allocator.Candidate{
			OrderID: id,
			Order:   byID[id],
			Claimed: claimed,
		})
	}
	return candidates, nil
}

// commit writes a validated plan. Per order: insert the claim (the unique
// index is the at-most-once gate), then flip the order to processing; a lost
// race at either step skips just that order. The rider reservation uses the
// count that actually survived; losing a capacity race there unwinds the
// orders that no longer fit.
func (s *Service) commit(ctx context.Context, storeID string, plan allocator.Plan, mode models.DispatchMode, actor string, requireReady bool) (*Result, error) {
	result := &Result{
		DispatchIDs: []string{},
		Skipped:     plan.Skipped,
	}
	if result.Skipped == nil {
		result.Skipped = []models.SkippedOrder{}
	}

	for _, group := range plan.Groups {
		dispatchID := newDispatchID()
		assignee := models.Assignee{RiderID: group.Rider.RiderID, RiderName: group.Rider.Name}

		committed := make([]string, 0, len(group.OrderIDs))
		for _, orderID := range group.OrderIDs {
			claim := models.DispatchOrder{
				DispatchID: dispatchID,
				OrderID:    orderID,
				RiderID:    group.Rider.RiderID,
				StoreID:    storeID,
				AssignedAt: time.Now(),
			}
			if err := s.ledger.ClaimOrder(ctx, claim); err != nil {
				if errors.Is(err, store.ErrAlreadyDispatched) {
					result.Skipped = append(result.Skipped, models.SkippedOrder{
						OrderID: orderID, Reason: models.SkipAlreadyDispatched,
					})
					continue
				}
				return nil, err
			}

			if err := s.orders.MarkProcessing(ctx, storeID, orderID, assignee, requireReady); err != nil {
				// Claimed but the order left the dispatchable state since
				// planning. Unwind the claim and move on.
				_ = s.ledger.DeleteClaim(ctx, orderID)
				if errors.Is(err, store.ErrOrderNotReady) {
					result.Skipped = append(result.Skipped, models.SkippedOrder{
						OrderID: orderID, Reason: models.SkipOrderNotReady,
					})
					continue
				}
				return nil, err
			}
			committed = append(committed, orderID)
		}

		granted := len(committed)
		for granted > 0 {
			_, err := s.riders.Reserve(ctx, storeID, group.Rider.RiderID, granted)
			if err == nil {
				break
			}
			if errors.Is(err, store.ErrCapacityExceeded) {
				granted--
				continue
			}
			return nil, err
		}
		for _, orderID := range committed[granted:] {
			_ = s.ledger.DeleteClaim(ctx, orderID)
			_ = s.orders.RevertProcessing(ctx, storeID, orderID, group.Rider.RiderID)
			result.Skipped = append(result.Skipped, models.SkippedOrder{
				OrderID: orderID, Reason: models.SkipCapacityExceeded,
			})
		}
		committed = committed[:granted]
		if len(committed) == 0 {
			continue
		}

		now := time.Now()
		d := &models.Dispatch{
			DispatchID: dispatchID,
			StoreID:    storeID,
			RiderID:    group.Rider.RiderID,
			RiderName:  group.Rider.Name,
			Mode:       mode,
			OrderCount: len(committed),
			Status:     models.DispatchStatusAssigned,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := s.ledger.CreateDispatch(ctx, d); err != nil {
			return nil, err
		}

		result.DispatchIDs = append(result.DispatchIDs, dispatchID)
		result.AssignedRiders++
		result.OrdersDispatched += len(committed)

		ordersDispatched.WithLabelValues(storeID).Add(float64(len(committed)))
		dispatchesTotal.WithLabelValues(string(mode)).Inc()

		s.log.Info().
			Str("store", storeID).
			Str("dispatch", dispatchID).
			Str("rider", group.Rider.RiderID).
			Int("orders", len(committed)).
			Msg("dispatch committed")

		if s.audit != nil {
			s.audit.Record(ctx, models.AuditRecord{
				Action: "dispatch." + strings.ToLower(string(mode)),
				Actor:  actor,
				Details: map[string]any{
					"storeId":    storeID,
					"dispatchId": dispatchID,
					"riderId":    group.Rider.RiderID,
					"orderCount": len(committed),
					"orderIds":   committed,
				},
			})
		}
		if s.events != nil {
			s.events.PublishDispatch(DispatchEvent{
				DispatchID: dispatchID,
				StoreID:    storeID,
				RiderID:    group.Rider.RiderID,
				RiderName:  group.Rider.Name,
				Mode:       mode,
				OrderIDs:   committed,
				At:         now,
			})
		}
	}

	for _, skip := range result.Skipped {
		ordersSkipped.WithLabelValues(string(skip.Reason)).Inc()
	}
	return result, nil
}

func readyCount(candidates []allocator.Candidate) int {
	n := 0
	for _, c := range candidates {
		if c.Order != nil && c.Order.Status == models.OrderStatusReady {
			n++
		}
	}
	return n
}

func newDispatchID() string {
	return "DSP-" + strings.ToUpper(uuid.New().String()[:8])
}
