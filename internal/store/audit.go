// server/internal/store/audit.go
package store

import (
	"context"
	"time"

	"darkstore-dispatch-api-server/internal/models"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
)

// AuditSink writes audit records to the audit_logs collection. Best effort:
// insert failures are logged and swallowed so an audit outage can never roll
// back a dispatch that already committed.
type AuditSink struct {
	col *mongo.Collection
	log zerolog.Logger
}

func NewAuditSink(db *mongo.Database, log zerolog.Logger) *AuditSink {
	return &AuditSink{col: db.Collection("audit_logs"), log: log}
}

func (s *AuditSink) Record(ctx context.Context, rec models.AuditRecord) {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}

	// Detach from the request context so an already-answered request does
	// not cancel the write mid-flight.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if _, err := s.col.InsertOne(writeCtx, rec); err != nil {
		s.log.Warn().Err(err).Str("action", rec.Action).Msg("audit record dropped")
	}
}
