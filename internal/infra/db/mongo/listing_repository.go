package mongo

import (
	"context"
	"errors"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainlisting "gearshare/internal/domain/listing"
	"gearshare/internal/domain/shared/timewindow"
)

var ErrConcurrentUpdate = errors.New("mongo: concurrent update detected")

type ListingRepository struct {
	col *mongo.Collection
}

func NewListingRepository(db *mongo.Database) *ListingRepository {
	return &ListingRepository{col: db.Collection("agg_listing")}
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlisting.ListingID) (*domainlisting.Listing, error) {
	var doc listingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainlisting.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate()
}

func (r *ListingRepository) Save(ctx context.Context, l *domainlisting.Listing) error {
	doc := newListingDocument(l)
	filter := bson.M{"_id": doc.ID, "version": l.Version}
	doc.Version = l.Version + 1
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	l.Version = doc.Version
	return nil
}

type listingDocument struct {
	ID             string                 `bson:"_id"`
	OwnerID        string                 `bson:"owner_id"`
	Title          string                 `bson:"title"`
	PriceType      string                 `bson:"price_type"`
	PricePerDay    moneyDocument          `bson:"price_per_day"`
	PricePerHour   moneyDocument          `bson:"price_per_hour"`
	DepositPercent int64                  `bson:"deposit_percent"`
	Schedule       map[string]dayDocument `bson:"schedule"`
	CreatedAt      int64                  `bson:"created_at"`
	UpdatedAt      int64                  `bson:"updated_at"`
	Version        int64                  `bson:"version"`
}

type dayDocument struct {
	Enabled bool           `bson:"enabled"`
	Slots   []slotDocument `bson:"slots,omitempty"`
}

type slotDocument struct {
	Start int `bson:"start"`
	End   int `bson:"end"`
}

func newListingDocument(l *domainlisting.Listing) listingDocument {
	schedule := make(map[string]dayDocument, len(l.Schedule))
	for weekday, day := range l.Schedule {
		mapped := dayDocument{Enabled: day.Enabled}
		for _, slot := range day.Slots {
			mapped.Slots = append(mapped.Slots, slotDocument{Start: int(slot.Start), End: int(slot.End)})
		}
		schedule[strconv.Itoa(int(weekday))] = mapped
	}
	return listingDocument{
		ID:             string(l.ID),
		OwnerID:        l.OwnerID,
		Title:          l.Title,
		PriceType:      string(l.PriceType),
		PricePerDay:    newMoneyDocument(l.PricePerDay),
		PricePerHour:   newMoneyDocument(l.PricePerHour),
		DepositPercent: l.DepositPercent,
		Schedule:       schedule,
		CreatedAt:      l.CreatedAt.UnixMilli(),
		UpdatedAt:      l.UpdatedAt.UnixMilli(),
		Version:        l.Version,
	}
}

func (d listingDocument) toAggregate() (*domainlisting.Listing, error) {
	schedule := make(domainlisting.WeeklySchedule, len(d.Schedule))
	for key, day := range d.Schedule {
		weekday, err := strconv.Atoi(key)
		if err != nil {
			return nil, err
		}
		mapped := domainlisting.DaySchedule{Enabled: day.Enabled}
		for _, slot := range day.Slots {
			mapped.Slots = append(mapped.Slots, timewindow.TimeRange{
				Start: timewindow.TimeOfDay(slot.Start),
				End:   timewindow.TimeOfDay(slot.End),
			})
		}
		schedule[time.Weekday(weekday)] = mapped
	}
	return &domainlisting.Listing{
		ID:             domainlisting.ListingID(d.ID),
		OwnerID:        d.OwnerID,
		Title:          d.Title,
		PriceType:      domainlisting.PriceType(d.PriceType),
		PricePerDay:    d.PricePerDay.toMoney(),
		PricePerHour:   d.PricePerHour.toMoney(),
		DepositPercent: d.DepositPercent,
		Schedule:       schedule,
		CreatedAt:      timestampToTime(d.CreatedAt),
		UpdatedAt:      timestampToTime(d.UpdatedAt),
		Version:        d.Version,
	}, nil
}
