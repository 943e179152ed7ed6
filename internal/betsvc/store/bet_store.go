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

type BetStore struct {
	col *mongo.Collection
}

func NewBetStore(db *mongo.Database) *BetStore {
	return &BetStore{col: db.Collection("bets")}
}

func (s *BetStore) Create(ctx context.Context, bet *models.Bet) (*models.Bet, error) {
	now := time.Now().UTC()
	bet.CreatedAt = now
	bet.UpdatedAt = now

	res, err := s.col.InsertOne(ctx, bet)
	if err != nil {
		return nil, fmt.Errorf("failed to create bet: %w", err)
	}

	bet.ID = res.InsertedID.(primitive.ObjectID)
	return bet, nil
}

func (s *BetStore) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Bet, error) {
	bet := &models.Bet{}
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(bet)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errs.Newf(errs.KindNotFound, "bet %s not found", id.Hex())
		}
		return nil, fmt.Errorf("failed to get bet %s: %w", id.Hex(), err)
	}
	return bet, nil
}

// Delete removes a bet. Only used to unwind a failed admission before
// the compensating balance credit.
func (s *BetStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete bet %s: %w", id.Hex(), err)
	}
	return nil
}

func (s *BetStore) ListByUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]*models.Bet, error) {
	cur, err := s.col.Find(ctx, bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list bets for user %s: %w", userID.Hex(), err)
	}
	defer cur.Close(ctx)

	var bets []*models.Bet
	if err := cur.All(ctx, &bets); err != nil {
		return nil, fmt.Errorf("failed to decode bets: %w", err)
	}
	return bets, nil
}

// ListPendingByRound returns the bets a settlement pass considers. Bets
// already won or lost are excluded here, which is half of the
// double-settlement guard; FinalizeSettlement is the other half.
func (s *BetStore) ListPendingByRound(ctx context.Context, roundID primitive.ObjectID) ([]*models.Bet, error) {
	cur, err := s.col.Find(ctx, bson.M{"round_id": roundID, "status": models.BetPending})
	if err != nil {
		return nil, fmt.Errorf("failed to list pending bets for round %s: %w", roundID.Hex(), err)
	}
	defer cur.Close(ctx)

	var bets []*models.Bet
	if err := cur.All(ctx, &bets); err != nil {
		return nil, fmt.Errorf("failed to decode bets: %w", err)
	}
	return bets, nil
}

// ListPendingRoundIDs returns the ids of rounds that still carry
// pending bets. The resettle sweep walks these.
func (s *BetStore) ListPendingRoundIDs(ctx context.Context) ([]primitive.ObjectID, error) {
	raw, err := s.col.Distinct(ctx, "round_id", bson.M{"status": models.BetPending})
	if err != nil {
		return nil, fmt.Errorf("failed to list rounds with pending bets: %w", err)
	}

	ids := make([]primitive.ObjectID, 0, len(raw))
	for _, v := range raw {
		if id, ok := v.(primitive.ObjectID); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// FinalizeSettlement moves a bet out of pending exactly once. The filter
// on status makes concurrent settlement passes race safely: only the
// writer that matches pays the winner.
func (s *BetStore) FinalizeSettlement(ctx context.Context, betID primitive.ObjectID,
	entries []models.BetEntry, status models.BetStatus, totalWin decimal.Decimal, settledAt time.Time) (bool, error) {

	filter := bson.M{"_id": betID, "status": models.BetPending}
	update := bson.M{"$set": bson.M{
		"entries":    entries,
		"status":     status,
		"total_win":  totalWin,
		"settled_at": settledAt,
		"updated_at": settledAt,
	}}

	res, err := s.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to finalize bet %s: %w", betID.Hex(), err)
	}
	return res.ModifiedCount == 1, nil
}
