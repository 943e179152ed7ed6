package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlayRates holds the payout multipliers for one sub-game.
type PlayRates struct {
	Direct decimal.Decimal `bson:"direct" json:"direct"`
	House  decimal.Decimal `bson:"house" json:"house"`
	Ending decimal.Decimal `bson:"ending" json:"ending"`
}

// HouseRates is the full 3x3 rate table of a house.
type HouseRates struct {
	FR       PlayRates `bson:"fr" json:"fr"`
	SR       PlayRates `bson:"sr" json:"sr"`
	Forecast PlayRates `bson:"forecast" json:"forecast"`
}

// House is a betting venue. Houses are managed by admin tooling; the
// betting core only reads them.
type House struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Rates        HouseRates         `bson:"rates" json:"rates"`
	DeadlineTime string             `bson:"deadline_time" json:"deadline_time"` // "15:04", civil time
	Timezone     string             `bson:"timezone" json:"timezone"`           // IANA name, e.g. "Asia/Kolkata"
	Weekdays     []int              `bson:"weekdays" json:"weekdays"`           // time.Weekday values with rounds
	Active       bool               `bson:"active" json:"active"`
	AutoCreate   bool               `bson:"auto_create" json:"auto_create"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

// Rate returns the payout multiplier for a (sub-game, play-type) pair.
func (h *House) Rate(subGame SubGame, playType PlayType) (decimal.Decimal, error) {
	var pr PlayRates
	switch subGame {
	case SubGameFR:
		pr = h.Rates.FR
	case SubGameSR:
		pr = h.Rates.SR
	case SubGameForecast:
		pr = h.Rates.Forecast
	default:
		return decimal.Zero, fmt.Errorf("unknown sub-game %q", subGame)
	}

	var rate decimal.Decimal
	switch playType {
	case PlayTypeDirect:
		rate = pr.Direct
	case PlayTypeHouse:
		rate = pr.House
	case PlayTypeEnding:
		rate = pr.Ending
	default:
		return decimal.Zero, fmt.Errorf("unknown play type %q", playType)
	}

	if !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("house %s has no positive rate for %s/%s", h.ID.Hex(), subGame, playType)
	}
	return rate, nil
}

// OperatesOn reports whether the house opens a round on the given weekday.
func (h *House) OperatesOn(day time.Weekday) bool {
	for _, wd := range h.Weekdays {
		if time.Weekday(wd) == day {
			return true
		}
	}
	return false
}

// DeadlineOn resolves the house's daily deadline time on the given civil
// date to an absolute instant. The conversion happens once, at round
// creation; the round stores the instant.
func (h *House) DeadlineOn(date time.Time) (time.Time, error) {
	loc, err := time.LoadLocation(h.Timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("house %s has invalid timezone %q: %w", h.ID.Hex(), h.Timezone, err)
	}

	t, err := time.Parse("15:04", h.DeadlineTime)
	if err != nil {
		return time.Time{}, fmt.Errorf("house %s has invalid deadline time %q: %w", h.ID.Hex(), h.DeadlineTime, err)
	}

	deadline := time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, loc)
	return deadline.UTC(), nil
}
