package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainlisting "gearshare/internal/domain/listing"
	domainrental "gearshare/internal/domain/rental"
)

type RentalRepository struct {
	col *mongo.Collection
}

func NewRentalRepository(db *mongo.Database) *RentalRepository {
	return &RentalRepository{col: db.Collection("agg_rental")}
}

func (r *RentalRepository) ByID(ctx context.Context, id domainrental.RentalID) (*domainrental.Rental, error) {
	var doc rentalDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainrental.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *RentalRepository) Save(ctx context.Context, rec *domainrental.Rental) error {
	doc := newRentalDocument(rec)
	filter := bson.M{"_id": doc.ID, "version": rec.Version}
	doc.Version = rec.Version + 1
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
	rec.Version = doc.Version
	return nil
}

func (r *RentalRepository) ListByRenter(ctx context.Context, renterID string) ([]*domainrental.Rental, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.col.Find(ctx, bson.M{"renter_id": renterID}, opts)
	if err != nil {
		return nil, err
	}
	return decodeRentals(ctx, cursor)
}

func (r *RentalRepository) ListPendingBefore(ctx context.Context, cutoff time.Time) ([]*domainrental.Rental, error) {
	filter := bson.M{
		"status":     string(domainrental.StatusPendingReservation),
		"created_at": bson.M{"$lt": cutoff.UnixMilli()},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	return decodeRentals(ctx, cursor)
}

func decodeRentals(ctx context.Context, cursor *mongo.Cursor) ([]*domainrental.Rental, error) {
	defer cursor.Close(ctx)
	var out []*domainrental.Rental
	for cursor.Next(ctx) {
		var doc rentalDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cursor.Err()
}

type rentalDocument struct {
	ID                string         `bson:"_id"`
	ListingID         string         `bson:"listing_id"`
	RenterID          string         `bson:"renter_id"`
	OwnerID           string         `bson:"owner_id"`
	Window            windowDocument `bson:"window"`
	TotalPrice        moneyDocument  `bson:"total_price"`
	ReservationAmount moneyDocument  `bson:"reservation_amount"`
	ReservationFee    moneyDocument  `bson:"reservation_fee"`
	Status            string         `bson:"status"`
	PaymentRef        string         `bson:"payment_ref,omitempty"`
	CreatedAt         int64          `bson:"created_at"`
	UpdatedAt         int64          `bson:"updated_at"`
	Version           int64          `bson:"version"`
}

func newRentalDocument(rec *domainrental.Rental) rentalDocument {
	return rentalDocument{
		ID:                string(rec.ID),
		ListingID:         string(rec.ListingID),
		RenterID:          rec.RenterID,
		OwnerID:           rec.OwnerID,
		Window:            newWindowDocument(rec.Window),
		TotalPrice:        newMoneyDocument(rec.TotalPrice),
		ReservationAmount: newMoneyDocument(rec.ReservationAmount),
		ReservationFee:    newMoneyDocument(rec.ReservationFee),
		Status:            string(rec.Status),
		PaymentRef:        rec.PaymentRef,
		CreatedAt:         rec.CreatedAt.UnixMilli(),
		UpdatedAt:         rec.UpdatedAt.UnixMilli(),
		Version:           rec.Version,
	}
}

func (d rentalDocument) toAggregate() *domainrental.Rental {
	return &domainrental.Rental{
		ID:                domainrental.RentalID(d.ID),
		ListingID:         domainlisting.ListingID(d.ListingID),
		RenterID:          d.RenterID,
		OwnerID:           d.OwnerID,
		Window:            d.Window.toWindow(),
		TotalPrice:        d.TotalPrice.toMoney(),
		ReservationAmount: d.ReservationAmount.toMoney(),
		ReservationFee:    d.ReservationFee.toMoney(),
		Status:            domainrental.Status(d.Status),
		PaymentRef:        d.PaymentRef,
		CreatedAt:         timestampToTime(d.CreatedAt),
		UpdatedAt:         timestampToTime(d.UpdatedAt),
		Version:           d.Version,
	}
}
