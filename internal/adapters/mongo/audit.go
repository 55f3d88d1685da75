package mongo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/eventhub/orders-service/internal/domain"
	"github.com/eventhub/orders-service/internal/observability"
)

// AuditLogger records order lifecycle events. Inserts are best-effort; a
// failed write is logged and never propagates to the caller's flow.
type AuditLogger struct {
	coll   *mongo.Collection
	logger observability.Logger
}

func NewAuditLogger(db *mongo.Database, logger observability.Logger) *AuditLogger {
	return &AuditLogger{
		coll:   db.Collection("order_audit"),
		logger: logger,
	}
}

type auditDoc struct {
	ID        uuid.UUID `bson:"_id"`
	Action    string    `bson:"action"`
	OrderID   uuid.UUID `bson:"order_id"`
	UserID    string    `bson:"user_id"`
	Timestamp time.Time `bson:"timestamp"`
	Data      bson.M    `bson:"data"`
}

func (a *AuditLogger) Record(ctx context.Context, action string, order domain.Order) {
	doc := auditDoc{
		ID:        uuid.New(),
		Action:    action,
		OrderID:   order.ID,
		UserID:    order.UserID,
		Timestamp: time.Now().UTC(),
		Data: bson.M{
			"status": order.Status,
			"paid":   order.Paid,
			"total":  order.TotalAmount.String(),
			"lines":  len(order.Details),
		},
	}
	if _, err := a.coll.InsertOne(ctx, doc); err != nil {
		a.logger.WithError(err).WithField("action", action).Error("failed to insert audit record")
	}
}
