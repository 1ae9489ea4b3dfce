// server/internal/models/audit.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuditRecord is one structured entry in the operations audit trail.
// Writes are fire-and-forget; a failed audit write never fails the
// operation it describes.
type AuditRecord struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Action    string             `bson:"action" json:"action"`
	Actor     string             `bson:"actor" json:"actor"`
	Details   map[string]any     `bson:"details,omitempty" json:"details,omitempty"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
}
