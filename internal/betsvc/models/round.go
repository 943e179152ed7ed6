package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SubGame string

const (
	SubGameFR       SubGame = "FR"
	SubGameSR       SubGame = "SR"
	SubGameForecast SubGame = "FORECAST"
)

type SubGameStatus string

const (
	SubGamePending  SubGameStatus = "pending"
	SubGameLive     SubGameStatus = "live"
	SubGameFinished SubGameStatus = "finished"
)

// RoundStatus is the derived overall status kept for client display.
type RoundStatus string

const (
	RoundPending  RoundStatus = "pending"
	RoundLive     RoundStatus = "live"
	RoundFRClosed RoundStatus = "fr_closed"
	RoundSRClosed RoundStatus = "sr_closed"
	RoundFinished RoundStatus = "finished"
)

// Round is one day's betting cycle for one house. At most one round
// exists per (house, date); a unique index enforces it.
type Round struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	HouseID        primitive.ObjectID `bson:"house_id" json:"house_id"`
	Date           string             `bson:"date" json:"date"`         // "2006-01-02" in the house timezone
	Deadline       time.Time          `bson:"deadline" json:"deadline"` // absolute instant, UTC
	FRResult       *int               `bson:"fr_result" json:"fr_result"`
	SRResult       *int               `bson:"sr_result" json:"sr_result"`
	FRResultAt     *time.Time         `bson:"fr_result_at,omitempty" json:"fr_result_at,omitempty"`
	SRResultAt     *time.Time         `bson:"sr_result_at,omitempty" json:"sr_result_at,omitempty"`
	FRStatus       SubGameStatus      `bson:"fr_status" json:"fr_status"`
	SRStatus       SubGameStatus      `bson:"sr_status" json:"sr_status"`
	ForecastStatus SubGameStatus      `bson:"forecast_status" json:"forecast_status"`
	Status         RoundStatus        `bson:"status" json:"status"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updated_at"`
}

// RoundStatuses is the full status snapshot of a round.
type RoundStatuses struct {
	FR       SubGameStatus
	SR       SubGameStatus
	Forecast SubGameStatus
	Overall  RoundStatus
}

// EvaluateStatuses derives the round's statuses from its results and
// deadline at the given instant. It never regresses a status the round
// already reached, so repeated calls with a non-decreasing clock are
// monotonic. Pure; callers persist the result if it changed.
func EvaluateStatuses(r *Round, now time.Time) RoundStatuses {
	st := RoundStatuses{
		FR:       evalSubGame(r.FRResult != nil, r.Deadline, now, r.FRStatus),
		SR:       evalSubGame(r.SRResult != nil, r.Deadline, now, r.SRStatus),
		Forecast: evalSubGame(r.FRResult != nil && r.SRResult != nil, r.Deadline, now, r.ForecastStatus),
	}

	switch {
	case r.FRResult != nil && r.SRResult != nil:
		st.Overall = RoundFinished
	case r.SRResult != nil:
		st.Overall = RoundSRClosed
	case r.FRResult != nil:
		st.Overall = RoundFRClosed
	case st.FR == SubGameLive || st.SR == SubGameLive || st.Forecast == SubGameLive:
		st.Overall = RoundLive
	default:
		st.Overall = RoundPending
	}

	return st
}

func evalSubGame(resultKnown bool, deadline, now time.Time, current SubGameStatus) SubGameStatus {
	if resultKnown || current == SubGameFinished {
		return SubGameFinished
	}
	if current == SubGameLive || !now.Before(deadline) {
		return SubGameLive
	}
	return SubGamePending
}

// ApplyStatuses writes a status snapshot onto the round. Returns true
// when anything changed.
func (r *Round) ApplyStatuses(st RoundStatuses) bool {
	if r.FRStatus == st.FR && r.SRStatus == st.SR && r.ForecastStatus == st.Forecast && r.Status == st.Overall {
		return false
	}
	r.FRStatus = st.FR
	r.SRStatus = st.SR
	r.ForecastStatus = st.Forecast
	r.Status = st.Overall
	return true
}

// SubGameStatusFor returns the current status for one sub-game.
func (r *Round) SubGameStatusFor(sg SubGame) SubGameStatus {
	switch sg {
	case SubGameFR:
		return r.FRStatus
	case SubGameSR:
		return r.SRStatus
	default:
		return r.ForecastStatus
	}
}

// ResultsKnownFor reports whether the result(s) the sub-game settles
// against are recorded.
func (r *Round) ResultsKnownFor(sg SubGame) bool {
	switch sg {
	case SubGameFR:
		return r.FRResult != nil
	case SubGameSR:
		return r.SRResult != nil
	default:
		return r.FRResult != nil && r.SRResult != nil
	}
}
