package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rtsant123/myteer-backend/internal/betsvc/models"
)

type TransactionStore struct {
	col *mongo.Collection
}

func NewTransactionStore(db *mongo.Database) *TransactionStore {
	return &TransactionStore{col: db.Collection("transactions")}
}

func (s *TransactionStore) Create(ctx context.Context, txn *models.Transaction) (*models.Transaction, error) {
	txn.CreatedAt = time.Now().UTC()

	res, err := s.col.InsertOne(ctx, txn)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	txn.ID = res.InsertedID.(primitive.ObjectID)
	return txn, nil
}

func (s *TransactionStore) ListByUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]*models.Transaction, error) {
	cur, err := s.col.Find(ctx, bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions for user %s: %w", userID.Hex(), err)
	}
	defer cur.Close(ctx)

	var txns []*models.Transaction
	if err := cur.All(ctx, &txns); err != nil {
		return nil, fmt.Errorf("failed to decode transactions: %w", err)
	}
	return txns, nil
}
