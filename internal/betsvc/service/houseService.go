package service

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/rtsant123/myteer-backend/internal/betsvc/models"
)

// HouseService reads house configuration. Snapshot results are cached
// briefly so admission and settlement work against one consistent rate
// table per call instead of hitting the store for every entry.
type HouseService struct {
	houseStore HouseStore
	cache      *gocache.Cache
}

func NewHouseService(houseStore HouseStore) *HouseService {
	return &HouseService{
		houseStore: houseStore,
		cache:      gocache.New(1*time.Minute, 5*time.Minute),
	}
}

// Snapshot returns the house configuration as of now.
func (s *HouseService) Snapshot(ctx context.Context, houseID primitive.ObjectID) (*models.House, error) {
	if cached, found := s.cache.Get(houseID.Hex()); found {
		return cached.(*models.House), nil
	}

	house, err := s.houseStore.GetByID(ctx, houseID)
	if err != nil {
		return nil, err
	}

	s.cache.SetDefault(houseID.Hex(), house)
	return house, nil
}

func (s *HouseService) ListActive(ctx context.Context) ([]*models.House, error) {
	return s.houseStore.ListActive(ctx)
}

func (s *HouseService) ListAutoCreate(ctx context.Context) ([]*models.House, error) {
	return s.houseStore.ListAutoCreate(ctx)
}
