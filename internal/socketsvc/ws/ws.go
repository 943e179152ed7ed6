package ws

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/rtsant123/myteer-backend/internal/comm"
)

// Ws tracks client connections and which house each socket watches.
type Ws struct {
	connMap  sync.Map // socketId -> *websocket.Conn
	houseMap sync.Map // socketId -> houseId
}

func NewWs() *Ws {
	return &Ws{}
}

// SocketMessage handles a message from a web client.
func (s *Ws) SocketMessage(socketId string, message *comm.WSMessage) {
	switch message.Type {
	case "subscribe":
		s.handleSubscribe(socketId, message)
	case "unsubscribe":
		s.houseMap.Delete(socketId)
	default:
		log.Warnf("unknown event received: %s", message.Type)
	}
}

func (s *Ws) handleSubscribe(socketId string, msg *comm.WSMessage) {
	var payload comm.SubscribeRequest
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		log.Errorf("Error: malformed subscribe payload %s", err)
		return
	}

	if payload.HouseID == "" {
		log.Error("Invalid subscribe payload: missing house_id")
		return
	}

	s.houseMap.Store(socketId, payload.HouseID)
	log.Infof("socket %s subscribed to house %s", socketId, payload.HouseID)
}

func (s *Ws) StoreConnection(socketId string, conn *websocket.Conn) {
	s.connMap.Store(socketId, conn)
}

func (s *Ws) GetConnection(socketId string) (*websocket.Conn, bool) {
	conn, ok := s.connMap.Load(socketId)
	if !ok {
		return nil, false
	}
	return conn.(*websocket.Conn), true
}

// GetHouseSockets returns every socket watching the given house.
func (s *Ws) GetHouseSockets(houseId string) ([]string, bool) {
	var sockets []string
	found := false

	s.houseMap.Range(func(key, value interface{}) bool {
		if value.(string) == houseId {
			sockets = append(sockets, key.(string))
			found = true
		}
		return true // continue iterating
	})

	return sockets, found
}

func (s *Ws) HandleDisconnect(socketId string) {
	s.connMap.Delete(socketId)
	s.houseMap.Delete(socketId)
}
