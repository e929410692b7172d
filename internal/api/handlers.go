package api

import (
	"net/http"

	"github.com/gorilla/websocket"

	"gimbal-control/internal/dispatcher"
	"gimbal-control/internal/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The control plane is driven by operator UIs on the local network, not
	// browsers that need an origin allowlist; accept any origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler owns the HTTP surface: a single websocket endpoint onto the
// dispatcher and its Hub.
type Handler struct {
	hub  *Hub
	disp *dispatcher.Dispatcher
}

func NewHandler(hub *Hub, disp *dispatcher.Dispatcher) *Handler {
	return &Handler{hub: hub, disp: disp}
}

func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("api: upgrade: %v", err)
		return
	}

	client := newClient(h.hub, conn, h.disp)
	h.hub.register <- client

	go client.writePump()
	go client.readPump()
}
