// server/internal/models/rider.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RiderStatus is the availability state reported by the rider app.
type RiderStatus string

const (
	RiderStatusOnline  RiderStatus = "online"
	RiderStatusOffline RiderStatus = "offline"
	RiderStatusBusy    RiderStatus = "busy"
	RiderStatusWaiting RiderStatus = "waiting" // at the store, between trips
)

// Location is the last position pushed by the rider app. Informational only,
// the allocator never reads it.
type Location struct {
	Latitude  float64 `bson:"latitude" json:"latitude"`
	Longitude float64 `bson:"longitude" json:"longitude"`
}

type Rider struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RiderID       string             `bson:"riderID" json:"riderId"` // RDR-XXXXXXXX
	StoreID       string             `bson:"storeID" json:"storeId"`
	Name          string             `bson:"name" json:"name"`
	Phone         string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Status        RiderStatus        `bson:"status" json:"status"`
	CurrentOrders int                `bson:"currentOrders" json:"currentOrders"`
	MaxCapacity   int                `bson:"maxCapacity" json:"maxCapacity"`
	LastLocation  *Location          `bson:"lastLocation,omitempty" json:"lastLocation,omitempty"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// FreeCapacity is the number of additional orders the rider can carry.
func (r *Rider) FreeCapacity() int {
	free := r.MaxCapacity - r.CurrentOrders
	if free < 0 {
		return 0
	}
	return free
}

// Assignable reports whether the allocator may hand new orders to the rider.
func (r *Rider) Assignable() bool {
	if r.Status != RiderStatusOnline && r.Status != RiderStatusWaiting {
		return false
	}
	return r.CurrentOrders < r.MaxCapacity
}
