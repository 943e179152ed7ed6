package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PlayType string

const (
	PlayTypeDirect PlayType = "DIRECT"
	PlayTypeHouse  PlayType = "HOUSE"
	PlayTypeEnding PlayType = "ENDING"
)

type BetStatus string

const (
	BetPending BetStatus = "pending"
	BetWon     BetStatus = "won"
	BetLost    BetStatus = "lost"
)

// BetEntry is one line of a bet: a target number (pair, for forecast)
// on one sub-game under one play type. The house rate is snapshotted at
// admission so a later rate change never alters an in-flight payout.
type BetEntry struct {
	SubGame      SubGame         `bson:"sub_game" json:"sub_game"`
	PlayType     PlayType        `bson:"play_type" json:"play_type"`
	Number       int             `bson:"number" json:"number"`
	SecondNumber *int            `bson:"second_number,omitempty" json:"second_number,omitempty"` // forecast SR target
	Amount       decimal.Decimal `bson:"amount" json:"amount"`
	Rate         decimal.Decimal `bson:"rate" json:"rate"`
	PotentialWin decimal.Decimal `bson:"potential_win" json:"potential_win"`
	IsWinner     bool            `bson:"is_winner" json:"is_winner"`
	WinAmount    decimal.Decimal `bson:"win_amount" json:"win_amount"`
}

// Bet is one user's wager against one round. A bet stays pending until
// every entry's sub-game has a recorded result; settlement finalizes it
// exactly once.
type Bet struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID `bson:"user_id" json:"user_id"`
	HouseID     primitive.ObjectID `bson:"house_id" json:"house_id"`
	RoundID     primitive.ObjectID `bson:"round_id" json:"round_id"`
	Entries     []BetEntry         `bson:"entries" json:"entries"`
	TotalAmount decimal.Decimal    `bson:"total_amount" json:"total_amount"`
	Status      BetStatus          `bson:"status" json:"status"`
	TotalWin    decimal.Decimal    `bson:"total_win" json:"total_win"`
	SettledAt   *time.Time         `bson:"settled_at,omitempty" json:"settled_at,omitempty"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

// Digits splits a 0-99 number into its zero-padded digits.
func Digits(n int) (first, last int) {
	return n / 10, n % 10
}

// EntryWins evaluates one entry against the round's recorded results.
// The caller must not invoke it before the entry's sub-game result is
// known.
func EntryWins(e *BetEntry, r *Round) (bool, error) {
	switch e.SubGame {
	case SubGameFR, SubGameSR:
		result := r.FRResult
		if e.SubGame == SubGameSR {
			result = r.SRResult
		}
		if result == nil {
			return false, fmt.Errorf("%s result not recorded for round %s", e.SubGame, r.ID.Hex())
		}
		return numberMatches(e.PlayType, e.Number, *result), nil
	case SubGameForecast:
		if r.FRResult == nil || r.SRResult == nil {
			return false, fmt.Errorf("forecast needs both results for round %s", r.ID.Hex())
		}
		if e.SecondNumber == nil {
			return false, fmt.Errorf("forecast entry missing second number")
		}
		return numberMatches(e.PlayType, e.Number, *r.FRResult) &&
			numberMatches(e.PlayType, *e.SecondNumber, *r.SRResult), nil
	default:
		return false, fmt.Errorf("unknown sub-game %q", e.SubGame)
	}
}

func numberMatches(pt PlayType, target, result int) bool {
	tFirst, tLast := Digits(target)
	rFirst, rLast := Digits(result)
	switch pt {
	case PlayTypeDirect:
		return target == result
	case PlayTypeHouse:
		return tFirst == rFirst
	case PlayTypeEnding:
		return tLast == rLast
	default:
		return false
	}
}
