package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainavailability "gearshare/internal/domain/availability"
	domainlisting "gearshare/internal/domain/listing"
)

// CalendarRepository persists block calendars with a version-filtered
// upsert. A lost race surfaces as ErrStaleCalendar so the booking handler
// re-reads and re-validates before retrying.
type CalendarRepository struct {
	col *mongo.Collection
}

func NewCalendarRepository(db *mongo.Database) *CalendarRepository {
	return &CalendarRepository{col: db.Collection("agg_calendar")}
}

func (r *CalendarRepository) Calendar(ctx context.Context, id domainlisting.ListingID) (*domainavailability.BlockCalendar, error) {
	var doc calendarDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domainavailability.NewCalendar(id), nil
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *CalendarRepository) Save(ctx context.Context, cal *domainavailability.BlockCalendar) error {
	doc := newCalendarDocument(cal)
	filter := bson.M{"_id": doc.ID, "version": cal.Version}
	if cal.Version == 0 {
		// First write for this listing: match the filter only when no
		// document exists yet, letting the upsert insert it.
		filter = bson.M{"_id": doc.ID, "version": bson.M{"$in": bson.A{nil, int64(0)}}}
	}
	doc.Version = cal.Version + 1
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domainavailability.ErrStaleCalendar
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return domainavailability.ErrStaleCalendar
	}
	cal.Version = doc.Version
	return nil
}

type calendarDocument struct {
	ID      string          `bson:"_id"`
	Blocks  []blockDocument `bson:"blocks"`
	Version int64           `bson:"version"`
}

type blockDocument struct {
	Window    windowDocument `bson:"window"`
	RentalID  string         `bson:"rental_id"`
	CreatedAt int64          `bson:"created_at"`
}

func newCalendarDocument(cal *domainavailability.BlockCalendar) calendarDocument {
	doc := calendarDocument{
		ID:      string(cal.ListingID),
		Blocks:  make([]blockDocument, 0, len(cal.Blocks)),
		Version: cal.Version,
	}
	for _, block := range cal.Blocks {
		doc.Blocks = append(doc.Blocks, blockDocument{
			Window:    newWindowDocument(block.Window),
			RentalID:  block.RentalID,
			CreatedAt: block.CreatedAt.UnixMilli(),
		})
	}
	return doc
}

func (d calendarDocument) toAggregate() *domainavailability.BlockCalendar {
	cal := &domainavailability.BlockCalendar{
		ListingID: domainlisting.ListingID(d.ID),
		Version:   d.Version,
	}
	for _, block := range d.Blocks {
		cal.Blocks = append(cal.Blocks, domainavailability.BlockedRange{
			Window:    block.Window.toWindow(),
			RentalID:  block.RentalID,
			CreatedAt: timestampToTime(block.CreatedAt),
		})
	}
	return cal
}
