// Package allocator plans rider assignments over point-in-time snapshots of
// the order ledger and rider pool. It performs no I/O: the dispatch service
// fetches the snapshots, and commits whatever survives the plan under the
// store-level atomic guards.
package allocator

import "darkstore-dispatch-api-server/internal/models"

// Candidate is one requested order as observed at planning time.
type Candidate struct {
	OrderID string
	Order   *models.Order // nil when no order with this id exists
	Claimed bool          // a dispatch_orders claim already exists
}

// Group is one rider's share of a plan: the orders tentatively assigned to
// that rider, bounded by the rider's free capacity at selection time.
type Group struct {
	Rider    models.Rider
	OrderIDs []string
}

// Plan is the allocator output: per-rider groups plus the orders that could
// not be placed, each with a reason the caller reports verbatim.
type Plan struct {
	Groups  []Group
	Skipped []models.SkippedOrder
}

// Assigned returns the total number of orders across all groups.
func (p Plan) Assigned() int {
	n := 0
	for _, g := range p.Groups {
		n += len(g.OrderIDs)
	}
	return n
}

// vet applies the per-order preconditions shared by both modes. It returns
// the skip reason, or "" when the order is dispatchable. requireReady is
// relaxed only by the manual SLA override, which still refuses terminal and
// already-processing orders.
func vet(c Candidate, requireReady bool) models.SkipReason {
	if c.Order == nil {
		return models.SkipOrderNotFound
	}
	if c.Claimed {
		return models.SkipAlreadyDispatched
	}
	if requireReady {
		if c.Order.Status != models.OrderStatusReady {
			return models.SkipOrderNotReady
		}
		return ""
	}
	if c.Order.Status.Terminal() || c.Order.Status == models.OrderStatusProcessing {
		return models.SkipOrderNotReady
	}
	return ""
}

// PlanBatch bin-packs candidates onto riders. Riders must arrive in
// assignable order (least-loaded first, riderID ties); the walk stays on the
// current rider until its free capacity is used up, then advances. This
// concentrates a batch on as few riders as possible rather than spreading it
// round-robin, matching observed dispatch behavior. Orders left over once
// every rider is full are skipped as capacity_exceeded.
func PlanBatch(candidates []Candidate, riders []models.Rider) Plan {
	var plan Plan

	riderIdx := 0
	var current *Group
	assignedToCurrent := 0

	for _, c := range candidates {
		if reason := vet(c, true); reason != "" {
			plan.Skipped = append(plan.Skipped, models.SkippedOrder{OrderID: c.OrderID, Reason: reason})
			continue
		}

		// Advance past riders with no room left in this batch.
		for riderIdx < len(riders) {
			free := riders[riderIdx].FreeCapacity()
			if assignedToCurrent < free {
				break
			}
			riderIdx++
			current = nil
			assignedToCurrent = 0
		}
		if riderIdx >= len(riders) {
			plan.Skipped = append(plan.Skipped, models.SkippedOrder{OrderID: c.OrderID, Reason: models.SkipCapacityExceeded})
			continue
		}

		if current == nil {
			plan.Groups = append(plan.Groups, Group{Rider: riders[riderIdx]})
			current = &plan.Groups[len(plan.Groups)-1]
		}
		current.OrderIDs = append(current.OrderIDs, c.OrderID)
		assignedToCurrent++
	}

	return plan
}

// PlanManual assigns candidates to one explicit rider, capacity permitting.
// Orders past the rider's free capacity are skipped as capacity_exceeded
// rather than silently truncated. Rider existence and offline checks happen
// in the service before planning; overrideSLA relaxes the ready-state check.
func PlanManual(candidates []Candidate, rider models.Rider, overrideSLA bool) Plan {
	var plan Plan

	free := rider.FreeCapacity()
	group := Group{Rider: rider}

	for _, c := range candidates {
		if reason := vet(c, !overrideSLA); reason != "" {
			plan.Skipped = append(plan.Skipped, models.SkippedOrder{OrderID: c.OrderID, Reason: reason})
			continue
		}
		if len(group.OrderIDs) >= free {
			plan.Skipped = append(plan.Skipped, models.SkippedOrder{OrderID: c.OrderID, Reason: models.SkipCapacityExceeded})
			continue
		}
		group.OrderIDs = append(group.OrderIDs, c.OrderID)
	}

	if len(group.OrderIDs) > 0 {
		plan.Groups = append(plan.Groups, group)
	}
	return plan
}
