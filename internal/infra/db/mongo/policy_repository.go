package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainpolicy "staybook/internal/domain/policy"
)

type PolicyRepository struct {
	col *mongo.Collection
}

func NewPolicyRepository(db *mongo.Database) *PolicyRepository {
	return &PolicyRepository{col: db.Collection("cfg_policy")}
}

// storedPolicy keys the embedded policy shape by _id for the collection.
type storedPolicy struct {
	ID     string         `bson:"_id"`
	Policy policyDocument `bson:"policy"`
}

func (r *PolicyRepository) ByID(ctx context.Context, id domainpolicy.PolicyID) (*domainpolicy.CancellationPolicy, error) {
	var doc storedPolicy
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainpolicy.ErrPolicyNotFound
		}
		return nil, err
	}
	p := doc.Policy.toPolicy()
	return &p, nil
}

// Save rejects malformed tier sets before they ever reach a booking.
func (r *PolicyRepository) Save(ctx context.Context, p *domainpolicy.CancellationPolicy) error {
	if err := p.Validate(); err != nil {
		return err
	}
	doc := storedPolicy{ID: string(p.ID), Policy: newPolicyDocument(p)}
	opts := options.Replace().SetUpsert(true)
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, opts)
	return err
}
