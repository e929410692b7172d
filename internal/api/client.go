package api

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"gimbal-control/internal/dispatcher"
	"gimbal-control/internal/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 1 << 16
)

// Client bridges one websocket connection to the Hub's broadcast stream and
// the dispatcher's inbound Operation queue.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	disp *dispatcher.Dispatcher
}

func newClient(hub *Hub, conn *websocket.Conn, disp *dispatcher.Dispatcher) *Client {
	return &Client{hub: hub, conn: conn, send: make(chan []byte, 16), disp: disp}
}

// readPump decodes every inbound text message as an Operation and submits
// it to the dispatcher; a malformed message is logged and the connection
// stays open. It returns when the connection closes, triggering unregister.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("api: websocket read: %v", err)
			}
			return
		}
		var op dispatcher.Operation
		if err := json.Unmarshal(data, &op); err != nil {
			logger.Warn("api: invalid operation payload: %v", err)
			continue
		}
		c.disp.Submit(op)
	}
}

// writePump drains the client's send channel to the socket and keeps the
// connection alive with periodic pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
