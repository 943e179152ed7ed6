package broker

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"

	"github.com/rtsant123/myteer-backend/internal/betsvc/models"
	"github.com/rtsant123/myteer-backend/internal/comm"
)

// Broker publishes round changes for the socket service and carries the
// settlement-complete signal the scheduler reacts to.
type Broker struct {
	Conn *nats.Conn
}

func NewBroker(nc *nats.Conn) *Broker {
	return &Broker{Conn: nc}
}

func (b *Broker) PublishRoundUpdate(round *models.Round) {
	update := comm.RoundUpdate{
		RoundID:        round.ID.Hex(),
		HouseID:        round.HouseID.Hex(),
		Date:           round.Date,
		Deadline:       round.Deadline.Format(time.RFC3339),
		FRStatus:       string(round.FRStatus),
		SRStatus:       string(round.SRStatus),
		ForecastStatus: string(round.ForecastStatus),
		Status:         string(round.Status),
		FRResult:       round.FRResult,
		SRResult:       round.SRResult,
	}

	b.publish(comm.TopicSocketRounds, "round-update", update)
}

func (b *Broker) PublishRoundSettled(round *models.Round) {
	notice := comm.RoundSettled{
		RoundID:   round.ID.Hex(),
		HouseID:   round.HouseID.Hex(),
		SettledAt: time.Now().UTC(),
	}

	b.publish(comm.TopicRoundSettled, "round-settled", notice)
}

// SubscribeRoundSettled invokes the handler for every settled round; the
// queue group keeps a single handler active across instances.
func (b *Broker) SubscribeRoundSettled(handler func(comm.RoundSettled)) (*nats.Subscription, error) {
	return b.Conn.QueueSubscribe(comm.TopicRoundSettled, "betsvc", func(msgNats *nats.Msg) {
		msg := &comm.WSMessage{}
		if err := json.Unmarshal(msgNats.Data, msg); err != nil {
			log.Errorf("Error nats message %s", err)
			return
		}

		var notice comm.RoundSettled
		if err := json.Unmarshal(msg.Data, &notice); err != nil {
			log.Errorf("Error decoding round-settled payload %s", err)
			return
		}

		handler(notice)
	})
}

func (b *Broker) publish(topic, msgType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Errorf("error marshaling %s payload: %v", msgType, err)
		return
	}

	msg := &comm.WSMessage{
		Type: msgType,
		Data: data,
	}

	raw, err := json.Marshal(msg)
	if err != nil {
		log.Errorf("error marshaling WSMessage: %v", err)
		return
	}

	if err := b.Conn.Publish(topic, raw); err != nil {
		log.Errorf("error publishing to topic %s: %v", topic, err)
	}
}
