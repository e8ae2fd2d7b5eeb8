package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"gearshare/internal/app/policies"
)

// AuditRepository appends raw gateway payloads to an insert-only collection.
type AuditRepository struct {
	col *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{col: db.Collection("payment_audit")}
}

// EnsureIndexes builds the lookup index used by support tooling.
func (r *AuditRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "gateway_payment_id", Value: 1}, {Key: "received_at", Value: 1}},
	})
	return err
}

func (r *AuditRepository) Append(ctx context.Context, entry policies.AuditEntry) error {
	doc := bson.M{
		"gateway_payment_id": entry.GatewayPaymentID,
		"rental_id":          entry.RentalID,
		"gateway_status":     entry.GatewayStatus,
		"payload":            entry.Payload,
		"received_at":        entry.ReceivedAt.UnixMilli(),
	}
	_, err := r.col.InsertOne(ctx, doc, options.InsertOne())
	return err
}

var _ policies.AuditPort = (*AuditRepository)(nil)
