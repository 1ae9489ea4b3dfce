// server/internal/models/order.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderStatus is the fulfillment state of an order.
type OrderStatus string

const (
	OrderStatusNew        OrderStatus = "new"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusReady      OrderStatus = "ready"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRTO        OrderStatus = "rto"
)

// Terminal reports whether the order has left the fulfillment pipeline.
// Terminal orders are never dispatchable, not even with an SLA override.
func (s OrderStatus) Terminal() bool {
	switch s {
	case OrderStatusCompleted, OrderStatusCancelled, OrderStatusRTO:
		return true
	default:
		return false
	}
}

// OrderClass is the service tier the order was sold under.
type OrderClass string

const (
	OrderClassNormal   OrderClass = "Normal"
	OrderClassPriority OrderClass = "Priority"
	OrderClassExpress  OrderClass = "Express"
	OrderClassPremium  OrderClass = "Premium"
)

// Assignee is the rider currently holding the order.
type Assignee struct {
	RiderID   string `bson:"riderID" json:"riderId"`
	RiderName string `bson:"riderName" json:"riderName"`
}

type Order struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderID     string             `bson:"orderID" json:"orderId"` // ORD-XXXXXXXX
	StoreID     string             `bson:"storeID" json:"storeId"`
	Status      OrderStatus        `bson:"status" json:"status"`
	Class       OrderClass         `bson:"class" json:"class"`
	ItemCount   int                `bson:"itemCount" json:"itemCount"`
	SLADeadline time.Time          `bson:"slaDeadline" json:"slaDeadline"`
	Assignee    *Assignee          `bson:"assignee,omitempty" json:"assignee,omitempty"`
	RTORisk     bool               `bson:"rtoRisk" json:"rtoRisk"`
	RTOReason   string             `bson:"rtoReason,omitempty" json:"rtoReason,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}
