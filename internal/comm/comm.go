package comm

import (
	"encoding/json"
	"time"
)

// NATS topics shared between betsvc and socketsvc.
const (
	TopicRoundSettled = "round.settled"
	TopicSocketRounds = "socket.rounds"
)

type WSMessage struct {
	Type     string          `json:"type"` // e.g. "subscribe", "round-update"
	Data     json.RawMessage `json:"data"`
	SocketId string          `json:"socketid"`
}

// RoundUpdate is pushed to web clients whenever a round's statuses or
// results change.
type RoundUpdate struct {
	RoundID        string `json:"round_id"`
	HouseID        string `json:"house_id"`
	Date           string `json:"date"`
	Deadline       string `json:"deadline"`
	FRStatus       string `json:"fr_status"`
	SRStatus       string `json:"sr_status"`
	ForecastStatus string `json:"forecast_status"`
	Status         string `json:"status"`
	FRResult       *int   `json:"fr_result,omitempty"`
	SRResult       *int   `json:"sr_result,omitempty"`
}

// RoundSettled tells the scheduler a round has both results recorded and
// its settlement pass finished, so the next round can be created.
type RoundSettled struct {
	RoundID   string    `json:"round_id"`
	HouseID   string    `json:"house_id"`
	SettledAt time.Time `json:"settled_at"`
}

type SubscribeRequest struct {
	HouseID string `json:"house_id"`
}
