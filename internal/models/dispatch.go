// server/internal/models/dispatch.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DispatchMode distinguishes auto-assigned batches from manual assignments.
type DispatchMode string

const (
	DispatchModeBatch  DispatchMode = "Batch"
	DispatchModeSingle DispatchMode = "Single"
)

// DispatchStatus starts at "assigned"; the delivery workflow advances it.
type DispatchStatus string

const (
	DispatchStatusAssigned DispatchStatus = "assigned"
)

// Dispatch is one rider-assignment event. A batch dispatch may cover many
// orders handed to the same rider in the same request.
type Dispatch struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	DispatchID string             `bson:"dispatchID" json:"dispatchId"` // DSP-XXXXXXXX
	StoreID    string             `bson:"storeID" json:"storeId"`
	RiderID    string             `bson:"riderID" json:"riderId"`
	RiderName  string             `bson:"riderName" json:"riderName"`
	Mode       DispatchMode       `bson:"mode" json:"mode"`
	OrderCount int                `bson:"orderCount" json:"orderCount"`
	Status     DispatchStatus     `bson:"status" json:"status"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// DispatchOrder binds one order to the dispatch that claimed it. The
// collection carries a unique index on orderID, which is what makes an
// order impossible to hand out twice.
type DispatchOrder struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	DispatchID string             `bson:"dispatchID" json:"dispatchId"`
	OrderID    string             `bson:"orderID" json:"orderId"`
	RiderID    string             `bson:"riderID" json:"riderId"`
	StoreID    string             `bson:"storeID" json:"storeId"`
	AssignedAt time.Time          `bson:"assignedAt" json:"assignedAt"`
}

// SkipReason explains why a single order in a request was not dispatched.
type SkipReason string

const (
	SkipOrderNotFound     SkipReason = "order_not_found"
	SkipOrderNotReady     SkipReason = "order_not_ready"
	SkipAlreadyDispatched SkipReason = "already_dispatched"
	SkipCapacityExceeded  SkipReason = "capacity_exceeded"
)

// SkippedOrder is one entry of the per-order failure list returned to the
// caller alongside whatever did dispatch.
type SkippedOrder struct {
	OrderID string     `bson:"orderID" json:"orderId"`
	Reason  SkipReason `bson:"reason" json:"reason"`
}
