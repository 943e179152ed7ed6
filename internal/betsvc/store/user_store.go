package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rtsant123/myteer-backend/internal/betsvc/errs"
	"github.com/rtsant123/myteer-backend/internal/betsvc/models"
)

type UserStore struct {
	col *mongo.Collection
}

func NewUserStore(db *mongo.Database) *UserStore {
	return &UserStore{col: db.Collection("users")}
}

func (s *UserStore) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	user := &models.User{}
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errs.Newf(errs.KindNotFound, "user %s not found", id.Hex())
		}
		return nil, fmt.Errorf("failed to get user %s: %w", id.Hex(), err)
	}
	return user, nil
}

// DebitForStake decrements the balance in a single document update whose
// filter requires sufficient funds. The balance never goes through
// application memory, so concurrent wagers cannot lose an update.
func (s *UserStore) DebitForStake(ctx context.Context, userID primitive.ObjectID, amount decimal.Decimal) (*models.User, error) {
	filter := bson.M{"_id": userID, "balance": bson.M{"$gte": amount}}
	update := bson.M{
		"$inc": bson.M{"balance": amount.Neg()},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}

	user := &models.User{}
	err := s.col.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(user)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to debit user %s: %w", userID.Hex(), err)
	}

	// No match: missing user or not enough balance.
	if _, getErr := s.GetByID(ctx, userID); getErr != nil {
		return nil, getErr
	}
	return nil, errs.Newf(errs.KindInsufficient, "user %s has insufficient balance for stake %s",
		userID.Hex(), amount.StringFixed(2))
}

// Credit increments the balance atomically; used for payouts and for
// compensating a failed admission after the debit went through.
func (s *UserStore) Credit(ctx context.Context, userID primitive.ObjectID, amount decimal.Decimal) (*models.User, error) {
	update := bson.M{
		"$inc": bson.M{"balance": amount},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}

	user := &models.User{}
	err := s.col.FindOneAndUpdate(ctx, bson.M{"_id": userID}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errs.Newf(errs.KindNotFound, "user %s not found", userID.Hex())
		}
		return nil, fmt.Errorf("failed to credit user %s: %w", userID.Hex(), err)
	}
	return user, nil
}
