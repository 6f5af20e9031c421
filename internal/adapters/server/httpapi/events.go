package httpapi

import (
	"encoding/json"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/evanschultz/kanboard/internal/adapters/server/common"
)

const (
	// writeWait bounds one websocket write.
	writeWait = 10 * time.Second
	// pongWait is how long a silent peer is kept.
	pongWait = 60 * time.Second
	// pingPeriod must stay below pongWait.
	pingPeriod = (pongWait * 9) / 10
	// eventBuffer is the per-connection backlog; a full backlog drops the connection.
	eventBuffer = 64
)

// handleEvents serves GET `/events`, upgrading to a websocket that receives one JSON event per
// board change.
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	if h.events == nil {
		writeJSONError(w, http.StatusNotImplemented, APIError{
			Code:    "not_implemented",
			Message: "change feed is not available",
		})
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "err", err)
		return
	}

	var (
		send     = make(chan []byte, eventBuffer)
		overflow = make(chan struct{})
		once     sync.Once
	)
	cancel := h.events.Subscribe(func(e common.Event) {
		payload, err := json.Marshal(e)
		if err != nil {
			h.logger.Error("encode change event", "err", err)
			return
		}
		select {
		case send <- payload:
		default:
			once.Do(func() { close(overflow) })
		}
	})
	defer cancel()

	closed := make(chan struct{})
	go readPump(conn, closed)
	h.writePump(conn, send, overflow, closed)
}

// readPump discards client frames and reports when the peer goes away.
func readPump(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Handler) writePump(conn *websocket.Conn, send <-chan []byte, overflow, closed <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()
	for {
		select {
		case payload := <-send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-overflow:
			h.logger.Warn("dropping slow change feed client", "remote", conn.RemoteAddr().String())
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "event backlog full"),
				time.Now().Add(writeWait))
			return
		case <-closed:
			return
		}
	}
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.origins) == 0 || slices.Contains(h.origins, "*") {
		return true
	}
	return slices.Contains(h.origins, origin)
}
