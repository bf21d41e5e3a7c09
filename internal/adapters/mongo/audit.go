package mongo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/robertarktes/clinic-front-desk/internal/domain"
	"github.com/robertarktes/clinic-front-desk/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// AuditLogger keeps an append-only trail of queue lifecycle actions in
// the audit_logs collection. Failures are logged and swallowed; the
// trail never blocks the front desk.
type AuditLogger struct {
	coll   *mongo.Collection
	logger observability.Logger
}

func NewAuditLogger(db *mongo.Database, logger observability.Logger) *AuditLogger {
	return &AuditLogger{
		coll:   db.Collection("audit_logs"),
		logger: logger,
	}
}

type AuditLog struct {
	ID        uuid.UUID `bson:"_id"`
	Action    string    `bson:"action"`
	ActorID   uuid.UUID `bson:"actor_id"`
	Day       string    `bson:"day"`
	Timestamp time.Time `bson:"timestamp"`
	Data      bson.M    `bson:"data"`
}

func (a *AuditLogger) LogEvent(ctx context.Context, action string, actorID uuid.UUID, day domain.Day, data map[string]interface{}) {
	log := AuditLog{
		ID:        uuid.New(),
		Action:    action,
		ActorID:   actorID,
		Day:       day.String(),
		Timestamp: time.Now(),
		Data:      bson.M(data),
	}
	if _, err := a.coll.InsertOne(ctx, log); err != nil {
		a.logger.WithError(err).Error("failed to insert audit log")
	}
}

func (a *AuditLogger) LogTicketIssued(ctx context.Context, t domain.Ticket) {
	a.LogEvent(ctx, "ticket.created", t.PatientID, t.Day, map[string]interface{}{
		"ticket_id": t.ID,
		"number":    t.Number,
	})
}

func (a *AuditLogger) LogTicketCalled(ctx context.Context, t domain.Ticket) {
	a.LogEvent(ctx, "ticket.called", t.PatientID, t.Day, map[string]interface{}{
		"ticket_id": t.ID,
		"number":    t.Number,
	})
}

func (a *AuditLogger) LogTicketCancelled(ctx context.Context, t domain.Ticket) {
	a.LogEvent(ctx, "ticket.cancelled", t.PatientID, t.Day, map[string]interface{}{
		"ticket_id": t.ID,
		"number":    t.Number,
	})
}

func (a *AuditLogger) LogStatusChanged(ctx context.Context, day domain.Day, status domain.QueueStatus) {
	a.LogEvent(ctx, "queue.status_changed", uuid.Nil, day, map[string]interface{}{
		"status": status,
	})
}
