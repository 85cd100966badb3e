package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"assetwatch/internal/logger"
	"assetwatch/internal/notify"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// WSHandler bridges the subscriber registry to live WebSocket clients.
// Each connection becomes one dispatcher subscriber; a connection that
// cannot keep up is pruned by the dispatcher and the socket closed.
type WSHandler struct {
	dispatcher *notify.Dispatcher
	upgrader   websocket.Upgrader
}

// NewWSHandler creates a new WebSocket handler
func NewWSHandler(dispatcher *notify.Dispatcher) *WSHandler {
	return &WSHandler{
		dispatcher: dispatcher,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origin checks are the responsibility of the surrounding service
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the connection and streams events to it
func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := logger.WithComponent("ws")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("remote_addr", r.RemoteAddr).Msg("websocket upgrade failed")
		return
	}

	sub := h.dispatcher.Subscribe()
	log.Info().Str("remote_addr", r.RemoteAddr).Msg("websocket client connected")

	go h.writePump(conn, sub)
	h.readPump(conn, sub)
}

// readPump discards inbound messages and detects disconnects
func (h *WSHandler) readPump(conn *websocket.Conn, sub *notify.Subscriber) {
	defer func() {
		h.dispatcher.Unsubscribe(sub)
		conn.Close()
	}()

	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log := logger.WithComponent("ws")
				log.Warn().Err(err).Msg("websocket read error")
			}
			return
		}
	}
}

// writePump streams dispatcher events to the connection
func (h *WSHandler) writePump(conn *websocket.Conn, sub *notify.Subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case event, ok := <-sub.Events():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Dispatcher dropped this subscriber
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := conn.WriteJSON(event); err != nil {
				log := logger.WithComponent("ws")
				log.Warn().Err(err).Msg("websocket write error")
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
