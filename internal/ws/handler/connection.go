package handler

import (
	"encoding/json"
	"github.com/gorilla/websocket"
	"github.com/memeworldorder/tetris-game-sub004/internal/http-server/handlers/event"
	"github.com/memeworldorder/tetris-game-sub004/internal/lib/logger/sl"
	"golang.org/x/exp/slog"
	"net/http"
	"sync"
)

// Message is the wire frame for fairness announcements: session
// lifecycle events on the session channel, raffle results on the
// raffle channel.
type Message struct {
	Channel string                 `json:"channel"`
	Event   string                 `json:"event"`
	Data    map[string]interface{} `json:"data"`
}

type Subscription struct {
	Conn    *websocket.Conn
	Channel string
}

type Hub struct {
	Channels    map[string]map[*websocket.Conn]bool
	Broadcast   chan Message
	Subscribe   chan Subscription
	Unsubscribe chan *websocket.Conn
	mutex       sync.RWMutex
	log         *slog.Logger
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		Channels:    make(map[string]map[*websocket.Conn]bool),
		Broadcast:   make(chan Message),
		Subscribe:   make(chan Subscription),
		Unsubscribe: make(chan *websocket.Conn),
		log:         log,
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func knownChannel(channel string) bool {
	return channel == event.SessionChannel || channel == event.RaffleChannel
}

func (hub *Hub) run() {
	var (
		err       error
		data      []byte
		conn      *websocket.Conn
		receivers map[*websocket.Conn]bool
		ok        bool
	)

	for {
		select {
		case sub := <-hub.Subscribe:
			if hub.Channels[sub.Channel] == nil {
				hub.Channels[sub.Channel] = make(map[*websocket.Conn]bool)
			}
			hub.Channels[sub.Channel][sub.Conn] = true
		case conn = <-hub.Unsubscribe:
			for _, receivers = range hub.Channels {
				delete(receivers, conn)
			}
		case message := <-hub.Broadcast:
			if receivers, ok = hub.Channels[message.Channel]; ok {
				data, err = json.Marshal(message)
				if err != nil {
					hub.log.Error("failed to marshal message", sl.Err(err))

					continue
				}

				hub.log.Info("broadcasting message", sl.String("channel", message.Channel),
					sl.String("event", message.Event))

				for conn = range receivers {
					if err = conn.WriteMessage(websocket.TextMessage, data); err != nil {
						hub.log.Error("failed to write message", sl.Err(err))
					}
				}
			}
		}
	}
}

func (hub *Hub) HandleConnection(w http.ResponseWriter, r *http.Request) {
	var (
		err error
		ws  *websocket.Conn
		p   []byte
	)

	ws, err = upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.log.Error("failed to upgrade connection", sl.Err(err))

		return
	}
	defer func(ws *websocket.Conn) {
		hub.Unsubscribe <- ws

		if err = ws.Close(); err != nil {
			hub.log.Error("failed to close connection", sl.Err(err))
		}
	}(ws)

	for {
		_, p, err = ws.ReadMessage()
		if err != nil {
			hub.log.Error("failed to read message", sl.Err(err))
			return
		}

		var message Message

		if err = json.Unmarshal(p, &message); err != nil {
			hub.log.Error("failed to unmarshal message", sl.Err(err))

			continue
		}

		if !knownChannel(message.Channel) {
			hub.log.Info("ignoring unknown channel", sl.String("channel", message.Channel))

			continue
		}

		hub.log.Info("incoming message", sl.String("channel", message.Channel),
			sl.String("event", message.Event))

		hub.Subscribe <- Subscription{Conn: ws, Channel: message.Channel}

		hub.Broadcast <- message
	}
}

func (hub *Hub) RunServer() {
	go hub.run()
}
