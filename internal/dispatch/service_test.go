package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"darkstore-dispatch-api-server/internal/models"
	"darkstore-dispatch-api-server/internal/store"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testStore = "store-1"

func newTestService(mem *memStores, events EventPublisherI) *Service {
	return NewService(mem, mem, mem, mem, events, 20, zerolog.Nop())
}

func readyOrder(id string, deadline time.Time) models.Order {
	return models.Order{
		OrderID:     id,
		StoreID:     testStore,
		Status:      models.OrderStatusReady,
		Class:       models.OrderClassNormal,
		ItemCount:   3,
		SLADeadline: deadline,
	}
}

func onlineRider(id string, current, max int) models.Rider {
	return models.Rider{
		RiderID:       id,
		StoreID:       testStore,
		Name:          "Rider " + id,
		Status:        models.RiderStatusOnline,
		CurrentOrders: current,
		MaxCapacity:   max,
	}
}

func TestDispatchBatchAutoAssign(t *testing.T) {
	mem := newMemStores()
	now := time.Now()
	mem.addOrder(readyOrder("ORD-1", now.Add(30*time.Minute)))
	mem.addOrder(readyOrder("ORD-2", now.Add(40*time.Minute)))
	mem.addRider(onlineRider("R1", 0, 5))

	events := &capturePublisher{}
	svc := newTestService(mem, events)

	result, err := svc.DispatchBatch(context.Background(), BatchRequest{
		StoreID: testStore, AutoAssign: true, Actor: "ops@example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.OrdersDispatched)
	assert.Equal(t, 1, result.AssignedRiders)
	assert.Len(t, result.DispatchIDs, 1)
	assert.Empty(t, result.Skipped)

	for _, id := range []string{"ORD-1", "ORD-2"} {
		o := mem.order(id)
		assert.Equal(t, models.OrderStatusProcessing, o.Status)
		require.NotNil(t, o.Assignee)
		assert.Equal(t, "R1", o.Assignee.RiderID)
	}
	assert.Equal(t, 2, mem.rider("R1").CurrentOrders)

	// One audit record and one live event per committed group.
	require.Len(t, mem.audits, 1)
	assert.Equal(t, "dispatch.batch", mem.audits[0].Action)
	assert.Equal(t, "ops@example.com", mem.audits[0].Actor)
	require.Len(t, events.events, 1)
	assert.ElementsMatch(t, []string{"ORD-1", "ORD-2"}, events.events[0].OrderIDs)

	// A repeat with the same order ids dispatches nothing and names both
	// orders as already claimed.
	_, err = svc.DispatchBatch(context.Background(), BatchRequest{
		StoreID: testStore, OrderIDs: []string{"ORD-1", "ORD-2"}, AutoAssign: true,
	})
	var nothing *NothingDispatchedError
	require.ErrorAs(t, err, &nothing)
	assert.Equal(t, 2, nothing.Diag.AlreadyDispatched)
	assert.Len(t, nothing.Diag.Skipped, 2)
	for _, s := range nothing.Diag.Skipped {
		assert.Equal(t, models.SkipAlreadyDispatched, s.Reason)
	}
}

func TestDispatchBatchPartialFailure(t *testing.T) {
	mem := newMemStores()
	now := time.Now()
	mem.addOrder(readyOrder("ORD-1", now.Add(time.Hour)))
	mem.addOrder(readyOrder("ORD-2", now.Add(time.Hour)))
	picking := readyOrder("ORD-3", now.Add(time.Hour))
	picking.Status = models.OrderStatusNew
	mem.addOrder(picking)
	done := readyOrder("ORD-4", now.Add(time.Hour))
	done.Status = models.OrderStatusCompleted
	mem.addOrder(done)
	mem.addRider(onlineRider("R1", 0, 10))

	svc := newTestService(mem, nil)

	result, err := svc.DispatchBatch(context.Background(), BatchRequest{
		StoreID:  testStore,
		OrderIDs: []string{"ORD-1", "ORD-2", "ORD-3", "ORD-4", "ORD-MISSING"},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.OrdersDispatched)
	require.Len(t, result.Skipped, 3)
	reasons := map[string]models.SkipReason{}
	for _, s := range result.Skipped {
		reasons[s.OrderID] = s.Reason
	}
	assert.Equal(t, models.SkipOrderNotReady, reasons["ORD-3"])
	assert.Equal(t, models.SkipOrderNotReady, reasons["ORD-4"])
	assert.Equal(t, models.SkipOrderNotFound, reasons["ORD-MISSING"])
}

func TestDispatchBatchLeastLoadedFirst(t *testing.T) {
	mem := newMemStores()
	mem.addOrder(readyOrder("ORD-1", time.Now().Add(time.Hour)))
	mem.addRider(onlineRider("R1", 3, 5))
	mem.addRider(onlineRider("R2", 1, 5))
	mem.addRider(onlineRider("R3", 4, 5))

	svc := newTestService(mem, nil)

	result, err := svc.DispatchBatch(context.Background(), BatchRequest{
		StoreID: testStore, AutoAssign: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.OrdersDispatched)

	assert.Equal(t, "R2", mem.order("ORD-1").Assignee.RiderID)
	assert.Equal(t, 2, mem.rider("R2").CurrentOrders)
	assert.Equal(t, 3, mem.rider("R1").CurrentOrders)
}

func TestDispatchBatchValidation(t *testing.T) {
	mem := newMemStores()
	mem.addRider(onlineRider("R1", 0, 5))
	svc := newTestService(mem, nil)

	_, err := svc.DispatchBatch(context.Background(), BatchRequest{StoreID: testStore})
	assert.ErrorIs(t, err, ErrNoOrders)
}

func TestDispatchBatchNoRiders(t *testing.T) {
	mem := newMemStores()
	mem.addOrder(readyOrder("ORD-1", time.Now().Add(time.Hour)))
	offline := onlineRider("R1", 0, 5)
	offline.Status = models.RiderStatusOffline
	mem.addRider(offline)

	svc := newTestService(mem, nil)

	_, err := svc.DispatchBatch(context.Background(), BatchRequest{StoreID: testStore, AutoAssign: true})
	assert.ErrorIs(t, err, ErrNoAvailableRiders)
}

func TestAssignToRiderCapacityExhaustion(t *testing.T) {
	mem := newMemStores()
	now := time.Now()
	mem.addOrder(readyOrder("ORD-1", now.Add(time.Hour)))
	mem.addOrder(readyOrder("ORD-2", now.Add(time.Hour)))
	mem.addRider(onlineRider("R1", 4, 5))

	svc := newTestService(mem, nil)

	result, err := svc.AssignToRider(context.Background(), ManualRequest{
		StoreID: testStore, OrderIDs: []string{"ORD-1", "ORD-2"}, RiderID: "R1",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.OrdersDispatched)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, "ORD-2", result.Skipped[0].OrderID)
	assert.Equal(t, models.SkipCapacityExceeded, result.Skipped[0].Reason)

	r := mem.rider("R1")
	assert.Equal(t, 5, r.CurrentOrders)
	assert.Equal(t, models.RiderStatusBusy, r.Status)
}

func TestAssignToRiderFatalErrors(t *testing.T) {
	mem := newMemStores()
	mem.addOrder(readyOrder("ORD-1", time.Now().Add(time.Hour)))
	offline := onlineRider("R1", 0, 5)
	offline.Status = models.RiderStatusOffline
	mem.addRider(offline)

	svc := newTestService(mem, nil)

	_, err := svc.AssignToRider(context.Background(), ManualRequest{
		StoreID: testStore, OrderIDs: []string{"ORD-1"}, RiderID: "R1",
	})
	assert.ErrorIs(t, err, ErrRiderOffline)

	_, err = svc.AssignToRider(context.Background(), ManualRequest{
		StoreID: testStore, OrderIDs: []string{"ORD-1"}, RiderID: "R-NOPE",
	})
	assert.ErrorIs(t, err, store.ErrRiderNotFound)
}

func TestAssignToRiderOverrideSLA(t *testing.T) {
	mem := newMemStores()
	notReady := readyOrder("ORD-1", time.Now().Add(time.Hour))
	notReady.Status = models.OrderStatusNew
	mem.addOrder(notReady)
	mem.addRider(onlineRider("R1", 0, 5))

	svc := newTestService(mem, nil)

	// Refused without the override.
	_, err := svc.AssignToRider(context.Background(), ManualRequest{
		StoreID: testStore, OrderIDs: []string{"ORD-1"}, RiderID: "R1",
	})
	var nothing *NothingDispatchedError
	require.ErrorAs(t, err, &nothing)
	assert.Equal(t, 1, nothing.Diag.NotReady)

	// Forced through with it.
	result, err := svc.AssignToRider(context.Background(), ManualRequest{
		StoreID: testStore, OrderIDs: []string{"ORD-1"}, RiderID: "R1", OverrideSLA: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.OrdersDispatched)
	assert.Equal(t, models.OrderStatusProcessing, mem.order("ORD-1").Status)
}

// At most one of any number of racing dispatch calls may claim a given
// order; everyone else has to see already_dispatched.
func TestConcurrentDispatchUniqueness(t *testing.T) {
	mem := newMemStores()
	mem.addOrder(readyOrder("ORD-1", time.Now().Add(time.Hour)))
	for i := 1; i <= 5; i++ {
		mem.addRider(onlineRider(fmt.Sprintf("R%d", i), 0, 5))
	}

	svc := newTestService(mem, nil)

	var wg sync.WaitGroup
	wins := make(chan string, 5)
	for i := 1; i <= 5; i++ {
		wg.Add(1)
		go func(riderID string) {
			defer wg.Done()
			result, err := svc.AssignToRider(context.Background(), ManualRequest{
				StoreID: testStore, OrderIDs: []string{"ORD-1"}, RiderID: riderID,
			})
			if err == nil {
				if result.OrdersDispatched != 1 {
					t.Errorf("rider %s: expected 1 dispatched, got %d", riderID, result.OrdersDispatched)
				}
				wins <- riderID
				return
			}
			var nothing *NothingDispatchedError
			if !errors.As(err, &nothing) {
				t.Errorf("rider %s: unexpected error: %v", riderID, err)
				return
			}
			if len(nothing.Diag.Skipped) != 1 || nothing.Diag.Skipped[0].Reason != models.SkipAlreadyDispatched {
				t.Errorf("rider %s: expected already_dispatched skip, got %+v", riderID, nothing.Diag.Skipped)
			}
		}(fmt.Sprintf("R%d", i))
	}
	wg.Wait()
	close(wins)

	var winners []string
	for w := range wins {
		winners = append(winners, w)
	}
	require.Len(t, winners, 1)
	assert.Equal(t, 1, mem.claimCount())

	o := mem.order("ORD-1")
	assert.Equal(t, models.OrderStatusProcessing, o.Status)
	require.NotNil(t, o.Assignee)
	assert.Equal(t, winners[0], o.Assignee.RiderID)

	// Exactly one rider carries the order.
	total := 0
	for i := 1; i <= 5; i++ {
		total += mem.rider(fmt.Sprintf("R%d", i)).CurrentOrders
	}
	assert.Equal(t, 1, total)
}

// Racing reservations never push a rider past max capacity, and losers are
// fully unwound: their orders return to ready with no dangling claim.
func TestConcurrentCapacityBound(t *testing.T) {
	mem := newMemStores()
	now := time.Now()
	const orders = 10
	for i := 1; i <= orders; i++ {
		mem.addOrder(readyOrder(fmt.Sprintf("ORD-%d", i), now.Add(time.Hour)))
	}
	mem.addRider(onlineRider("R1", 0, 5))

	svc := newTestService(mem, nil)

	var wg sync.WaitGroup
	dispatched := make(chan int, orders)
	for i := 1; i <= orders; i++ {
		wg.Add(1)
		go func(orderID string) {
			defer wg.Done()
			result, err := svc.AssignToRider(context.Background(), ManualRequest{
				StoreID: testStore, OrderIDs: []string{orderID}, RiderID: "R1",
			})
			if err == nil {
				dispatched <- result.OrdersDispatched
				return
			}
			var nothing *NothingDispatchedError
			if !errors.As(err, &nothing) {
				t.Errorf("unexpected error for %s: %v", orderID, err)
			}
		}(fmt.Sprintf("ORD-%d", i))
	}
	wg.Wait()
	close(dispatched)

	total := 0
	for n := range dispatched {
		total += n
	}
	assert.Equal(t, 5, total)

	r := mem.rider("R1")
	assert.Equal(t, 5, r.CurrentOrders)
	assert.LessOrEqual(t, r.CurrentOrders, r.MaxCapacity)
	assert.Equal(t, 5, mem.claimCount())

	// Losers must be back in the ready queue, unassigned.
	processing, ready := 0, 0
	for i := 1; i <= orders; i++ {
		switch mem.order(fmt.Sprintf("ORD-%d", i)).Status {
		case models.OrderStatusProcessing:
			processing++
		case models.OrderStatusReady:
			ready++
		}
	}
	assert.Equal(t, 5, processing)
	assert.Equal(t, 5, ready)
}

func TestDispatchBatchSpillsAcrossRiders(t *testing.T) {
	mem := newMemStores()
	now := time.Now()
	for i := 1; i <= 4; i++ {
		mem.addOrder(readyOrder(fmt.Sprintf("ORD-%d", i), now.Add(time.Duration(i)*time.Minute)))
	}
	mem.addRider(onlineRider("R1", 3, 5))
	mem.addRider(onlineRider("R2", 4, 8))

	svc := newTestService(mem, nil)

	result, err := svc.DispatchBatch(context.Background(), BatchRequest{
		StoreID: testStore, AutoAssign: true,
	})
	require.NoError(t, err)

	assert.Equal(t, 4, result.OrdersDispatched)
	assert.Equal(t, 2, result.AssignedRiders)
	assert.Len(t, result.DispatchIDs, 2)
	assert.Equal(t, 5, mem.rider("R1").CurrentOrders)
	assert.Equal(t, models.RiderStatusBusy, mem.rider("R1").Status)
	assert.Equal(t, 6, mem.rider("R2").CurrentOrders)
}
