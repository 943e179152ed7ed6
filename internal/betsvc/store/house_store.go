package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rtsant123/myteer-backend/internal/betsvc/errs"
	"github.com/rtsant123/myteer-backend/internal/betsvc/models"
)

type HouseStore struct {
	col *mongo.Collection
}

func NewHouseStore(db *mongo.Database) *HouseStore {
	return &HouseStore{col: db.Collection("houses")}
}

func (s *HouseStore) GetByID(ctx context.Context, id primitive.ObjectID) (*models.House, error) {
	house := &models.House{}
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(house)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errs.Newf(errs.KindNotFound, "house %s not found", id.Hex())
		}
		return nil, fmt.Errorf("failed to get house %s: %w", id.Hex(), err)
	}
	return house, nil
}

func (s *HouseStore) ListActive(ctx context.Context) ([]*models.House, error) {
	cur, err := s.col.Find(ctx, bson.M{"active": true},
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list active houses: %w", err)
	}
	defer cur.Close(ctx)

	var houses []*models.House
	if err := cur.All(ctx, &houses); err != nil {
		return nil, fmt.Errorf("failed to decode houses: %w", err)
	}
	return houses, nil
}

// ListAutoCreate returns the houses the scheduler creates rounds for.
func (s *HouseStore) ListAutoCreate(ctx context.Context) ([]*models.House, error) {
	cur, err := s.col.Find(ctx, bson.M{"active": true, "auto_create": true})
	if err != nil {
		return nil, fmt.Errorf("failed to list auto-create houses: %w", err)
	}
	defer cur.Close(ctx)

	var houses []*models.House
	if err := cur.All(ctx, &houses); err != nil {
		return nil, fmt.Errorf("failed to decode houses: %w", err)
	}
	return houses, nil
}
