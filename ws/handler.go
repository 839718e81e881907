// Package ws carries the real-time side of the messaging core: one WebSocket
// per tab, registered into the presence registry on the register event.
package ws

import (
	"log/slog"
	"net/http"
	"time"

	"task-portal/services"
	"task-portal/sink"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type Handler struct {
	log         *slog.Logger
	chat        services.IChatService
	sendBuffer  int
	pushTimeout time.Duration
	upgrader    websocket.Upgrader
}

func NewHandler(log *slog.Logger, chat services.IChatService, sendBuffer int, pushTimeout time.Duration) *Handler {
	return &Handler{
		log:         log,
		chat:        chat,
		sendBuffer:  sendBuffer,
		pushTimeout: pushTimeout,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // origin policy is enforced by the CORS layer
			},
		},
	}
}

// Handle upgrades the request and starts the per-connection goroutines.
// Identity is announced over the socket via the register event, not taken
// from the HTTP request.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("WebSocket upgrade failed", "error", err)
		return
	}

	session := &Session{
		log:         h.log,
		chat:        h.chat,
		conn:        conn,
		sink:        sink.NewChanSink(h.log, h.sendBuffer),
		connID:      uuid.NewString(),
		pushTimeout: h.pushTimeout,
	}

	go session.writePump()
	go session.readPump()
}
