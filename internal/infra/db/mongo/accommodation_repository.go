package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainaccommodation "staybook/internal/domain/accommodation"
	domainpolicy "staybook/internal/domain/policy"
	"staybook/internal/domain/shared/money"
)

type AccommodationRepository struct {
	col *mongo.Collection
}

func NewAccommodationRepository(db *mongo.Database) *AccommodationRepository {
	return &AccommodationRepository{col: db.Collection("agg_accommodation")}
}

func (r *AccommodationRepository) ByID(ctx context.Context, id domainaccommodation.AccommodationID) (*domainaccommodation.Accommodation, error) {
	var doc accommodationDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainaccommodation.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *AccommodationRepository) Save(ctx context.Context, a *domainaccommodation.Accommodation) error {
	doc := newAccommodationDocument(a)
	filter := bson.M{"_id": doc.ID, "version": a.Version}
	doc.Version = a.Version + 1
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc}, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	a.Version = doc.Version
	return nil
}

func (r *AccommodationRepository) Delete(ctx context.Context, id domainaccommodation.AccommodationID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": string(id)})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domainaccommodation.ErrNotFound
	}
	return nil
}

type accommodationDocument struct {
	ID          string        `bson:"_id"`
	PropertyID  string        `bson:"property_id"`
	Title       string        `bson:"title"`
	NightlyRate moneyDocument `bson:"nightly_rate"`
	MaxGuests   int           `bson:"max_guests"`
	PolicyID    string        `bson:"policy_id"`
	Tier        string        `bson:"tier"`
	CreatedAt   int64         `bson:"created_at"`
	UpdatedAt   int64         `bson:"updated_at"`
	Version     int64         `bson:"version"`
}

func newAccommodationDocument(a *domainaccommodation.Accommodation) accommodationDocument {
	return accommodationDocument{
		ID:          string(a.ID),
		PropertyID:  a.PropertyID,
		Title:       a.Title,
		NightlyRate: moneyDocument{Amount: a.NightlyRate.Amount, Currency: a.NightlyRate.Currency},
		MaxGuests:   a.MaxGuests,
		PolicyID:    string(a.PolicyID),
		Tier:        string(a.Tier),
		CreatedAt:   a.CreatedAt.UnixMilli(),
		UpdatedAt:   a.UpdatedAt.UnixMilli(),
		Version:     a.Version,
	}
}

func (d accommodationDocument) toAggregate() *domainaccommodation.Accommodation {
	return &domainaccommodation.Accommodation{
		ID:          domainaccommodation.AccommodationID(d.ID),
		PropertyID:  d.PropertyID,
		Title:       d.Title,
		NightlyRate: money.Money{Amount: d.NightlyRate.Amount, Currency: d.NightlyRate.Currency},
		MaxGuests:   d.MaxGuests,
		PolicyID:    domainpolicy.PolicyID(d.PolicyID),
		Tier:        domainaccommodation.Tier(d.Tier),
		CreatedAt:   timestampToTime(d.CreatedAt),
		UpdatedAt:   timestampToTime(d.UpdatedAt),
		Version:     d.Version,
	}
}
