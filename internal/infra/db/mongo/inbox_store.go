package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"gearshare/internal/app/policies"
)

// InboxStore deduplicates inbound gateway deliveries via a unique index on
// (consumer, event_id). Insert-or-conflict makes the check atomic across
// replicas.
type InboxStore struct {
	col *mongo.Collection
}

func NewInboxStore(db *mongo.Database) *InboxStore {
	return &InboxStore{col: db.Collection("payment_inbox")}
}

func (s *InboxStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "consumer", Value: 1}, {Key: "event_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (s *InboxStore) Seen(ctx context.Context, consumer, eventID string) (bool, error) {
	doc := bson.M{
		"consumer":    consumer,
		"event_id":    eventID,
		"received_at": time.Now().UTC().UnixMilli(),
	}
	if _, err := s.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return true, nil
		}
		return false, err
	}
	return false, nil
}

// Forget removes a mark whose downstream processing failed so the next
// redelivery is not misread as a duplicate.
func (s *InboxStore) Forget(ctx context.Context, consumer, eventID string) error {
	_, err := s.col.DeleteOne(ctx, bson.M{"consumer": consumer, "event_id": eventID})
	return err
}

var _ policies.InboxPort = (*InboxStore)(nil)
