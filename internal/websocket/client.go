package websocket

import (
	"context"
	"time"

	ws "github.com/coder/websocket"
)

const (
	sendBufferSize = 16
	pingInterval   = 30 * time.Second
	writeTimeout   = 10 * time.Second
)

// Client is one open connection belonging to a person. The connection is
// server-to-client only; anything the browser sends is discarded.
type Client struct {
	hub      *Hub
	conn     *ws.Conn
	personID int64
	send     chan []byte
}

func NewClient(hub *Hub, conn *ws.Conn, personID int64) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		personID: personID,
		send:     make(chan []byte, sendBufferSize),
	}
}

// Run registers the client and pumps queued messages to the connection until
// the peer goes away, a write fails, or ctx ends.
func (c *Client) Run(ctx context.Context) {
	c.hub.Register(c)
	defer c.hub.Unregister(c)

	// CloseRead discards inbound frames and cancels ctx once the peer closes.
	ctx = c.conn.CloseRead(ctx)

	status, reason := c.pump(ctx)
	c.conn.Close(status, reason)
}

func (c *Client) pump(ctx context.Context) (ws.StatusCode, string) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg := <-c.send:
			if err := c.write(ctx, msg); err != nil {
				return ws.StatusInternalError, "write failed"
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return ws.StatusPolicyViolation, "ping timeout"
			}
		case <-ctx.Done():
			return ws.StatusGoingAway, ""
		}
	}
}

func (c *Client) write(ctx context.Context, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return c.conn.Write(ctx, ws.MessageText, msg)
}
