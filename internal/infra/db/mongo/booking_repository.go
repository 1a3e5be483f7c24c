package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainaccommodation "staybook/internal/domain/accommodation"
	domainbooking "staybook/internal/domain/booking"
	domainpolicy "staybook/internal/domain/policy"
	domainrange "staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/money"
)

var ErrConcurrentUpdate = errors.New("mongo: concurrent update detected")

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	col := db.Collection("agg_booking")
	idx := []mongo.IndexModel{
		{Keys: bson.D{{Key: "guest_id", Value: 1}, {Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "accommodation_id", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: 1}}},
	}
	_, _ = col.Indexes().CreateMany(context.Background(), idx)
	return &BookingRepository{col: col}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrBookingNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

// Save upserts with a version filter so two coordinators racing on the same
// booking cannot both win.
func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
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
	b.Version = doc.Version
	return nil
}

func (r *BookingRepository) ListByGuest(ctx context.Context, guestID string) ([]*domainbooking.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	return r.list(ctx, bson.M{"guest_id": guestID}, opts)
}

func (r *BookingRepository) ListByAccommodation(ctx context.Context, id domainaccommodation.AccommodationID) ([]*domainbooking.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	return r.list(ctx, bson.M{"accommodation_id": string(id)}, opts)
}

func (r *BookingRepository) ListStalePending(ctx context.Context, olderThan time.Time) ([]*domainbooking.Booking, error) {
	filter := bson.M{
		"status":     string(domainbooking.StatusPending),
		"created_at": bson.M{"$lte": olderThan.UTC().UnixMilli()},
	}
	return r.list(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
}

func (r *BookingRepository) ListBlocking(ctx context.Context) ([]*domainbooking.Booking, error) {
	blocking := []string{
		string(domainbooking.StatusPending),
		string(domainbooking.StatusConfirmed),
		string(domainbooking.StatusCheckedIn),
	}
	return r.list(ctx, bson.M{"status": bson.M{"$in": blocking}}, options.Find())
}

func (r *BookingRepository) list(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domainbooking.Booking, error) {
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var out []*domainbooking.Booking
	for cursor.Next(ctx) {
		var doc bookingDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cursor.Err()
}

type bookingDocument struct {
	ID              string         `bson:"_id"`
	GuestID         string         `bson:"guest_id"`
	AccommodationID string         `bson:"accommodation_id"`
	Range           rangeDocument  `bson:"range"`
	Guests          int            `bson:"guests"`
	NightlyRate     moneyDocument  `bson:"nightly_rate"`
	Total           moneyDocument  `bson:"total"`
	Status          string         `bson:"status"`
	PaymentHold     string         `bson:"payment_hold"`
	Policy          policyDocument `bson:"policy"`
	CalendarToken   string         `bson:"calendar_token"`
	CreatedAt       int64          `bson:"created_at"`
	UpdatedAt       int64          `bson:"updated_at"`
	CancelledAt     *int64         `bson:"cancelled_at,omitempty"`
	Version         int64          `bson:"version"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	doc := bookingDocument{
		ID:              string(b.ID),
		GuestID:         b.GuestID,
		AccommodationID: string(b.AccommodationID),
		Range:           rangeDocument{CheckIn: b.Range.CheckIn.UnixMilli(), CheckOut: b.Range.CheckOut.UnixMilli()},
		Guests:          b.Guests,
		NightlyRate:     moneyDocument{Amount: b.NightlyRate.Amount, Currency: b.NightlyRate.Currency},
		Total:           moneyDocument{Amount: b.Total.Amount, Currency: b.Total.Currency},
		Status:          string(b.Status),
		PaymentHold:     b.PaymentHold,
		Policy:          newPolicyDocument(&b.Policy),
		CalendarToken:   b.CalendarToken,
		CreatedAt:       b.CreatedAt.UnixMilli(),
		UpdatedAt:       b.UpdatedAt.UnixMilli(),
		Version:         b.Version,
	}
	if b.CancelledAt != nil {
		ms := b.CancelledAt.UnixMilli()
		doc.CancelledAt = &ms
	}
	return doc
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	b := &domainbooking.Booking{
		ID:              domainbooking.BookingID(d.ID),
		GuestID:         d.GuestID,
		AccommodationID: domainaccommodation.AccommodationID(d.AccommodationID),
		Range:           domainrange.DateRange{CheckIn: timestampToTime(d.Range.CheckIn), CheckOut: timestampToTime(d.Range.CheckOut)},
		Guests:          d.Guests,
		NightlyRate:     money.Money{Amount: d.NightlyRate.Amount, Currency: d.NightlyRate.Currency},
		Total:           money.Money{Amount: d.Total.Amount, Currency: d.Total.Currency},
		Status:          domainbooking.Status(d.Status),
		PaymentHold:     d.PaymentHold,
		Policy:          d.Policy.toPolicy(),
		CalendarToken:   d.CalendarToken,
		CreatedAt:       timestampToTime(d.CreatedAt),
		UpdatedAt:       timestampToTime(d.UpdatedAt),
		Version:         d.Version,
	}
	if d.CancelledAt != nil {
		at := timestampToTime(*d.CancelledAt)
		b.CancelledAt = &at
	}
	return b
}

type rangeDocument struct {
	CheckIn  int64 `bson:"check_in"`
	CheckOut int64 `bson:"check_out"`
}

type moneyDocument struct {
	Amount   int64  `bson:"amount"`
	Currency string `bson:"currency"`
}

type policyDocument struct {
	ID              string         `bson:"id"`
	Name            string         `bson:"name"`
	Tiers           []tierDocument `bson:"tiers"`
	DefaultFraction float64        `bson:"default_fraction"`
	StayInterrupted bool           `bson:"stay_interrupted"`
}

type tierDocument struct {
	DaysBefore int     `bson:"days_before"`
	Fraction   float64 `bson:"fraction"`
}

func newPolicyDocument(p *domainpolicy.CancellationPolicy) policyDocument {
	doc := policyDocument{
		ID:              string(p.ID),
		Name:            p.Name,
		DefaultFraction: p.DefaultFraction,
		StayInterrupted: p.StayInterrupted,
	}
	for _, tier := range p.Tiers {
		doc.Tiers = append(doc.Tiers, tierDocument{DaysBefore: tier.DaysBefore, Fraction: tier.Fraction})
	}
	return doc
}

func (d policyDocument) toPolicy() domainpolicy.CancellationPolicy {
	p := domainpolicy.CancellationPolicy{
		ID:              domainpolicy.PolicyID(d.ID),
		Name:            d.Name,
		DefaultFraction: d.DefaultFraction,
		StayInterrupted: d.StayInterrupted,
	}
	for _, tier := range d.Tiers {
		p.Tiers = append(p.Tiers, domainpolicy.Tier{DaysBefore: tier.DaysBefore, Fraction: tier.Fraction})
	}
	return p
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
