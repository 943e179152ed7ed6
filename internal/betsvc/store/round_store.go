package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rtsant123/myteer-backend/internal/betsvc/errs"
	"github.com/rtsant123/myteer-backend/internal/betsvc/models"
)

type RoundStore struct {
	col *mongo.Collection
}

func NewRoundStore(db *mongo.Database) *RoundStore {
	return &RoundStore{col: db.Collection("rounds")}
}

func (s *RoundStore) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Round, error) {
	round := &models.Round{}
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(round)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errs.Newf(errs.KindNotFound, "round %s not found", id.Hex())
		}
		return nil, fmt.Errorf("failed to get round %s: %w", id.Hex(), err)
	}
	return round, nil
}

// GetActiveByHouse returns the earliest round of the house that has not
// fully finished yet.
func (s *RoundStore) GetActiveByHouse(ctx context.Context, houseID primitive.ObjectID) (*models.Round, error) {
	filter := bson.M{
		"house_id":        houseID,
		"forecast_status": bson.M{"$ne": models.SubGameFinished},
	}
	round := &models.Round{}
	err := s.col.FindOne(ctx, filter,
		options.FindOne().SetSort(bson.D{{Key: "date", Value: 1}})).Decode(round)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errs.Newf(errs.KindNotFound, "no open round for house %s", houseID.Hex())
		}
		return nil, fmt.Errorf("failed to get active round for house %s: %w", houseID.Hex(), err)
	}
	return round, nil
}

func (s *RoundStore) GetByHouseAndDate(ctx context.Context, houseID primitive.ObjectID, date string) (*models.Round, error) {
	round := &models.Round{}
	err := s.col.FindOne(ctx, bson.M{"house_id": houseID, "date": date}).Decode(round)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errs.Newf(errs.KindNotFound, "no round for house %s on %s", houseID.Hex(), date)
		}
		return nil, fmt.Errorf("failed to get round for house %s on %s: %w", houseID.Hex(), date, err)
	}
	return round, nil
}

// ListUnfinished returns every round whose forecast sub-game is not yet
// finished; the scheduler re-evaluates these each tick.
func (s *RoundStore) ListUnfinished(ctx context.Context) ([]*models.Round, error) {
	cur, err := s.col.Find(ctx, bson.M{"forecast_status": bson.M{"$ne": models.SubGameFinished}})
	if err != nil {
		return nil, fmt.Errorf("failed to list unfinished rounds: %w", err)
	}
	defer cur.Close(ctx)

	var rounds []*models.Round
	if err := cur.All(ctx, &rounds); err != nil {
		return nil, fmt.Errorf("failed to decode rounds: %w", err)
	}
	return rounds, nil
}

// Create inserts a round. A duplicate (house, date) insert reports a
// conflict; the unique index is what makes auto-creation idempotent.
func (s *RoundStore) Create(ctx context.Context, round *models.Round) (*models.Round, error) {
	now := time.Now().UTC()
	round.CreatedAt = now
	round.UpdatedAt = now

	res, err := s.col.InsertOne(ctx, round)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, errs.Newf(errs.KindConflict, "round for house %s on %s already exists",
				round.HouseID.Hex(), round.Date)
		}
		return nil, fmt.Errorf("failed to create round: %w", err)
	}

	round.ID = res.InsertedID.(primitive.ObjectID)
	return round, nil
}

// UpdateStatuses persists a status snapshot with a compare-and-set on the
// previously read statuses. A false return means another writer got there
// first; the caller re-reads and re-evaluates.
func (s *RoundStore) UpdateStatuses(ctx context.Context, roundID primitive.ObjectID, prev, next models.RoundStatuses) (bool, error) {
	filter := bson.M{
		"_id":             roundID,
		"fr_status":       prev.FR,
		"sr_status":       prev.SR,
		"forecast_status": prev.Forecast,
	}
	update := bson.M{"$set": bson.M{
		"fr_status":       next.FR,
		"sr_status":       next.SR,
		"forecast_status": next.Forecast,
		"status":          next.Overall,
		"updated_at":      time.Now().UTC(),
	}}

	res, err := s.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to update statuses of round %s: %w", roundID.Hex(), err)
	}
	return res.MatchedCount == 1, nil
}

// SetResult records one sub-game result. The filter requires the field
// to still be unset, so resubmitting a result is a conflict, never a
// silent overwrite.
func (s *RoundStore) SetResult(ctx context.Context, roundID primitive.ObjectID, subGame models.SubGame, value int, at time.Time) (*models.Round, error) {
	var resultField, timeField, statusField string
	switch subGame {
	case models.SubGameFR:
		resultField, timeField, statusField = "fr_result", "fr_result_at", "fr_status"
	case models.SubGameSR:
		resultField, timeField, statusField = "sr_result", "sr_result_at", "sr_status"
	default:
		return nil, errs.Newf(errs.KindValidation, "cannot record a result for sub-game %s", subGame)
	}

	filter := bson.M{"_id": roundID, resultField: nil}
	update := bson.M{"$set": bson.M{
		resultField: value,
		timeField:   at,
		statusField: models.SubGameFinished,
		"updated_at": at,
	}}

	round := &models.Round{}
	err := s.col.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(round)
	if err == nil {
		return round, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to set %s result of round %s: %w", subGame, roundID.Hex(), err)
	}

	// No match: either the round is missing or the result is already set.
	if _, getErr := s.GetByID(ctx, roundID); getErr != nil {
		return nil, getErr
	}
	return nil, errs.Newf(errs.KindConflict, "%s result of round %s is already recorded", subGame, roundID.Hex())
}
