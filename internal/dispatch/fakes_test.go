package dispatch

import (
	"context"
	"sort"
	"sync"

	"darkstore-dispatch-api-server/internal/models"
	"darkstore-dispatch-api-server/internal/store"
)

// memStores backs the service tests with an in-memory implementation of the
// store interfaces. A single mutex gives each method the same atomicity the
// Mongo implementations get from guarded single-document writes, so the
// concurrency tests exercise the real race handling in the service.
type memStores struct {
	mu         sync.Mutex
	orders     map[string]*models.Order
	riders     map[string]*models.Rider
	claims     map[string]models.DispatchOrder
	dispatches []models.Dispatch
	audits     []models.AuditRecord
}

func newMemStores() *memStores {
	return &memStores{
		orders: make(map[string]*models.Order),
		riders: make(map[string]*models.Rider),
		claims: make(map[string]models.DispatchOrder),
	}
}

func (m *memStores) addOrder(o models.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := o
	m.orders[o.OrderID] = &copied
}

func (m *memStores) addRider(r models.Rider) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := r
	m.riders[r.RiderID] = &copied
}

func (m *memStores) order(id string) models.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.orders[id]
}

func (m *memStores) rider(id string) models.Rider {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.riders[id]
}

func (m *memStores) claimCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.claims)
}

// OrderStoreI

func (m *memStores) FindReady(_ context.Context, storeID string, limit int) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ready []models.Order
	for _, o := range m.orders {
		if o.StoreID == storeID && o.Status == models.OrderStatusReady {
			ready = append(ready, *o)
		}
	}
	sort.Slice(ready, func(i, j int) bool {
		if !ready[i].SLADeadline.Equal(ready[j].SLADeadline) {
			return ready[i].SLADeadline.Before(ready[j].SLADeadline)
		}
		return ready[i].OrderID < ready[j].OrderID
	})
	if len(ready) > limit {
		ready = ready[:limit]
	}
	return ready, nil
}

func (m *memStores) GetByOrderID(_ context.Context, storeID, orderID string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok || o.StoreID != storeID {
		return nil, store.ErrOrderNotFound
	}
	copied := *o
	return &copied, nil
}

func (m *memStores) MarkProcessing(_ context.Context, storeID, orderID string, assignee models.Assignee, requireReady bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok || o.StoreID != storeID || o.Assignee != nil {
		return store.ErrOrderNotReady
	}
	if requireReady {
		if o.Status != models.OrderStatusReady {
			return store.ErrOrderNotReady
		}
	} else if o.Status != models.OrderStatusReady && o.Status != models.OrderStatusNew {
		return store.ErrOrderNotReady
	}
	o.Status = models.OrderStatusProcessing
	copied := assignee
	o.Assignee = &copied
	return nil
}

func (m *memStores) RevertProcessing(_ context.Context, storeID, orderID, riderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok || o.StoreID != storeID {
		return nil
	}
	if o.Status != models.OrderStatusProcessing || o.Assignee == nil || o.Assignee.RiderID != riderID {
		return nil
	}
	o.Status = models.OrderStatusReady
	o.Assignee = nil
	return nil
}

// RiderStoreI

func (m *memStores) FindAssignable(_ context.Context, storeID string) ([]models.Rider, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var assignable []models.Rider
	for _, r := range m.riders {
		if r.StoreID == storeID && r.Assignable() {
			assignable = append(assignable, *r)
		}
	}
	sort.Slice(assignable, func(i, j int) bool {
		if assignable[i].CurrentOrders != assignable[j].CurrentOrders {
			return assignable[i].CurrentOrders < assignable[j].CurrentOrders
		}
		return assignable[i].RiderID < assignable[j].RiderID
	})
	return assignable, nil
}

func (m *memStores) GetByRiderID(_ context.Context, storeID, riderID string) (*models.Rider, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.riders[riderID]
	if !ok || r.StoreID != storeID {
		return nil, store.ErrRiderNotFound
	}
	copied := *r
	return &copied, nil
}

func (m *memStores) Reserve(_ context.Context, storeID, riderID string, count int) (*models.Rider, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.riders[riderID]
	if !ok || r.StoreID != storeID {
		return nil, store.ErrRiderNotFound
	}
	if count > 0 {
		if r.CurrentOrders+count > r.MaxCapacity {
			return nil, store.ErrCapacityExceeded
		}
		r.CurrentOrders += count
		if r.CurrentOrders >= r.MaxCapacity && r.Status == models.RiderStatusOnline {
			r.Status = models.RiderStatusBusy
		}
	}
	copied := *r
	return &copied, nil
}

// DispatchStoreI

func (m *memStores) CreateDispatch(_ context.Context, d *models.Dispatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dispatches = append(m.dispatches, *d)
	return nil
}

func (m *memStores) ClaimOrder(_ context.Context, claim models.DispatchOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.claims[claim.OrderID]; exists {
		return store.ErrAlreadyDispatched
	}
	m.claims[claim.OrderID] = claim
	return nil
}

func (m *memStores) DeleteClaim(_ context.Context, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.claims, orderID)
	return nil
}

func (m *memStores) FindClaims(_ context.Context, orderIDs []string) (map[string]models.DispatchOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	found := make(map[string]models.DispatchOrder, len(orderIDs))
	for _, id := range orderIDs {
		if claim, ok := m.claims[id]; ok {
			found[id] = claim
		}
	}
	return found, nil
}

// AuditSinkI

func (m *memStores) Record(_ context.Context, rec models.AuditRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audits = append(m.audits, rec)
}

// capturePublisher records dispatch events for assertions.
type capturePublisher struct {
	mu     sync.Mutex
	events []DispatchEvent
}

func (p *capturePublisher) PublishDispatch(event DispatchEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}
