package broker

import (
	"encoding/json"

	"github.com/gorilla/websocket"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"

	"github.com/rtsant123/myteer-backend/internal/comm"
)

// Broker consumes round updates published by the bet service and fans
// them out to the sockets watching each house.
type Broker struct {
	Conn            *nats.Conn
	GetConnection   func(string) (*websocket.Conn, bool)
	GetHouseSockets func(string) ([]string, bool)
}

func NewBroker(conn *nats.Conn, fncGetConnection func(string) (*websocket.Conn, bool),
	fncGetHouseSockets func(string) ([]string, bool)) *Broker {
	return &Broker{
		Conn:            conn,
		GetConnection:   fncGetConnection,
		GetHouseSockets: fncGetHouseSockets,
	}
}

// Subscribe consumes round updates from the bet service.
func (b *Broker) Subscribe(topic string) (*nats.Subscription, error) {
	sub, err := b.Conn.Subscribe(topic, b.handleMessages)
	if err != nil {
		return nil, err
	}

	return sub, nil
}

func (b *Broker) handleMessages(msgNats *nats.Msg) {
	message := &comm.WSMessage{}
	err := json.Unmarshal(msgNats.Data, &message)
	if err != nil {
		log.Errorf("Error %s", err)
		return
	}

	switch message.Type {
	case "round-update":
		b.broadcastRoundUpdate(message)
	default:
		log.Error("Unknown message")
		return
	}
}

// broadcastRoundUpdate sends the update to every socket subscribed to
// the round's house.
func (b *Broker) broadcastRoundUpdate(m *comm.WSMessage) {
	var update comm.RoundUpdate
	if err := json.Unmarshal(m.Data, &update); err != nil {
		log.Errorf("Error decoding round update %s", err)
		return
	}

	sockets, found := b.GetHouseSockets(update.HouseID)
	if !found {
		return
	}

	raw, err := json.Marshal(m)
	if err != nil {
		log.Errorf("Error marshaling round update %s", err)
		return
	}

	for _, socketId := range sockets {
		conn, ok := b.GetConnection(socketId)
		if !ok {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, raw); err != nil {
			log.Errorf("Error writing to socket %s: %v", socketId, err)
		}
	}
}
