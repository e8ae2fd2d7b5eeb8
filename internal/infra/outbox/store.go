package outbox

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	appoutbox "gearshare/internal/app/outbox"
)

const (
	statusPending = "pending"
	statusSending = "sending"
	statusSent    = "sent"
	statusFailed  = "failed"
)

// EventDocument is the persisted outbox row.
type EventDocument struct {
	ID          string            `bson:"_id"`
	Name        string            `bson:"name"`
	Aggregate   string            `bson:"aggregate"`
	Payload     []byte            `bson:"payload"`
	Headers     map[string]string `bson:"headers,omitempty"`
	OccurredAt  time.Time         `bson:"occurred_at"`
	Status      string            `bson:"status"`
	Attempts    int               `bson:"attempts"`
	NextRetryAt time.Time         `bson:"next_retry_at,omitempty"`
	LockedBy    string            `bson:"locked_by,omitempty"`
	LastError   string            `bson:"last_error,omitempty"`
}

// Store is the durable transactional outbox. Add runs inside the command's
// Mongo transaction, so events become visible exactly when the aggregate
// write commits.
type Store struct {
	col *mongo.Collection
}

func NewStore(db *mongo.Database) *Store {
	return &Store{col: db.Collection("outbox_events")}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "status", Value: 1}, {Key: "occurred_at", Value: 1}},
	})
	return err
}

func (s *Store) Add(ctx context.Context, record appoutbox.EventRecord) error {
	doc := EventDocument{
		ID:         record.ID,
		Name:       record.Name,
		Aggregate:  record.Aggregate,
		Payload:    record.Payload,
		Headers:    record.Headers,
		OccurredAt: record.OccurredAt,
		Status:     statusPending,
	}
	_, err := s.col.InsertOne(ctx, doc)
	return err
}

// Flush is a no-op: rows are already durable once the surrounding
// transaction commits. The worker drains them asynchronously.
func (s *Store) Flush(ctx context.Context) error {
	return nil
}

// Claim leases the oldest deliverable event for this worker.
func (s *Store) Claim(ctx context.Context, workerID string) (*EventDocument, error) {
	now := time.Now().UTC()
	filter := bson.M{"$or": bson.A{
		bson.M{"status": statusPending},
		bson.M{"status": statusFailed, "next_retry_at": bson.M{"$lte": now}},
	}}
	update := bson.M{"$set": bson.M{"status": statusSending, "locked_by": workerID}}
	opts := options.FindOneAndUpdate().
		SetSort(bson.D{{Key: "occurred_at", Value: 1}}).
		SetReturnDocument(options.After)
	var doc EventDocument
	if err := s.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &doc, nil
}

func (s *Store) MarkSent(ctx context.Context, id string) error {
	update := bson.M{"$set": bson.M{"status": statusSent, "sent_at": time.Now().UTC()}}
	_, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}

func (s *Store) MarkFailed(ctx context.Context, id string, nextRetry time.Time, reason string) error {
	update := bson.M{
		"$set": bson.M{"status": statusFailed, "next_retry_at": nextRetry, "last_error": reason},
		"$inc": bson.M{"attempts": 1},
	}
	_, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}

var _ appoutbox.Outbox = (*Store)(nil)
