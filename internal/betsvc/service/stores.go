package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/rtsant123/myteer-backend/internal/betsvc/models"
)

// Store interfaces the services consume. The mongo-backed structs in
// the store package satisfy them; tests substitute in-memory fakes so
// the money paths can be exercised without a database.

type RoundStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Round, error)
	GetActiveByHouse(ctx context.Context, houseID primitive.ObjectID) (*models.Round, error)
	GetByHouseAndDate(ctx context.Context, houseID primitive.ObjectID, date string) (*models.Round, error)
	ListUnfinished(ctx context.Context) ([]*models.Round, error)
	Create(ctx context.Context, round *models.Round) (*models.Round, error)
	UpdateStatuses(ctx context.Context, roundID primitive.ObjectID, prev, next models.RoundStatuses) (bool, error)
	SetResult(ctx context.Context, roundID primitive.ObjectID, subGame models.SubGame, value int, at time.Time) (*models.Round, error)
}

type BetStore interface {
	Create(ctx context.Context, bet *models.Bet) (*models.Bet, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	ListByUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]*models.Bet, error)
	ListPendingByRound(ctx context.Context, roundID primitive.ObjectID) ([]*models.Bet, error)
	ListPendingRoundIDs(ctx context.Context) ([]primitive.ObjectID, error)
	FinalizeSettlement(ctx context.Context, betID primitive.ObjectID, entries []models.BetEntry,
		status models.BetStatus, totalWin decimal.Decimal, settledAt time.Time) (bool, error)
}

type UserStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	DebitForStake(ctx context.Context, userID primitive.ObjectID, amount decimal.Decimal) (*models.User, error)
	Credit(ctx context.Context, userID primitive.ObjectID, amount decimal.Decimal) (*models.User, error)
}

type TransactionStore interface {
	Create(ctx context.Context, txn *models.Transaction) (*models.Transaction, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]*models.Transaction, error)
}

type HouseStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.House, error)
	ListActive(ctx context.Context) ([]*models.House, error)
	ListAutoCreate(ctx context.Context) ([]*models.House, error)
}
