package hub

import (
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/bytedance/sonic"
)

const (
	writeWait = 10 * time.Second
	pongWait  = 60 * time.Second

	// pingPeriod must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// The feed is server-to-client; inbound frames are pongs and close
	// frames only.
	maxMessageSize = 1024
)

// Client is a single dashboard websocket connection.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// NewClient registers a connection with the hub and sends it the hello
// snapshot so a dashboard can render without waiting for the next event.
func NewClient(h *Hub, conn *websocket.Conn, hello Event) *Client {
	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, 64),
	}
	if data, err := sonic.Marshal(hello); err == nil {
		client.send <- data
	}
	h.register <- client
	return client
}

// Run services the connection. It blocks until the client disconnects,
// which is what the Fiber websocket handler expects.
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

// readPump drains the connection to detect disconnects and pongs.
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
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

// writePump is the only goroutine that writes to the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
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
