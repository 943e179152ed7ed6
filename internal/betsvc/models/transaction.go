package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TransactionKind string

const (
	TransactionBetStake    TransactionKind = "bet_stake"
	TransactionWinPayout   TransactionKind = "win_payout"
	TransactionStakeRefund TransactionKind = "stake_refund"
)

// Transaction is an immutable ledger record of one balance mutation.
// For every record balance_after = balance_before + amount, and the sum
// of a user's amounts equals their current balance.
type Transaction struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID        primitive.ObjectID  `bson:"user_id" json:"user_id"`
	Kind          TransactionKind     `bson:"kind" json:"kind"`
	Amount        decimal.Decimal     `bson:"amount" json:"amount"` // signed: stakes negative, payouts positive
	BalanceBefore decimal.Decimal     `bson:"balance_before" json:"balance_before"`
	BalanceAfter  decimal.Decimal     `bson:"balance_after" json:"balance_after"`
	Description   string              `bson:"description" json:"description"`
	BetID         *primitive.ObjectID `bson:"bet_id,omitempty" json:"bet_id,omitempty"`
	TRef          string              `bson:"tref" json:"tref"`
	CreatedAt     time.Time           `bson:"created_at" json:"created_at"`
}
