package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20
)

var ErrClosed = errors.New("websocket connection closed")

// Client is a middleman between the websocket connection and the session
// running on it. One client serves exactly one session.
type Client struct {
	Hub *Hub

	// The websocket connection. Nil in tests.
	Conn *websocket.Conn

	SessionID string

	// Buffered channel of outbound frames.
	Send chan []byte

	// Decoded inbound frames.
	Inbound chan Frame

	// OnActivity runs for every inbound frame. Optional.
	OnActivity func()

	cancel    context.CancelFunc
	closed    chan struct{}
	closeOnce sync.Once
}

func NewClient(hub *Hub, conn *websocket.Conn, sessionID string, cancel context.CancelFunc) *Client {
	if cancel == nil {
		cancel = func() {}
	}
	return &Client{
		Hub:       hub,
		Conn:      conn,
		SessionID: sessionID,
		Send:      make(chan []byte, 256),
		Inbound:   make(chan Frame, 16),
		cancel:    cancel,
		closed:    make(chan struct{}),
	}
}

// Done is closed once the client is closed.
func (c *Client) Done() <-chan struct{} { return c.closed }

// Close cancels the session and leaves the hub. WritePump flushes what is
// queued and then closes the connection. Safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		c.cancel()
		if c.Hub != nil {
			c.Hub.leave(c)
		}
	})
}

func (c *Client) write(ctx context.Context, f Frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	select {
	case <-c.closed:
		return ErrClosed
	default:
	}
	select {
	case c.Send <- data:
		return nil
	case <-c.closed:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ReadPump pumps frames from the websocket connection to Inbound.
func (c *Client) ReadPump() {
	defer c.Close()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[WARN] readPump error for session %s: %v", c.SessionID, err)
			}
			return
		}

		var f Frame
		if err := json.Unmarshal(data, &f); err != nil {
			log.Printf("[WARN] dropping malformed frame for session %s: %v", c.SessionID, err)
			continue
		}
		if c.OnActivity != nil {
			c.OnActivity()
		}

		select {
		case c.Inbound <- f:
		case <-c.closed:
			return
		}
	}
}

// WritePump pumps frames from Send to the websocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
		c.Conn.Close()
	}()

	for {
		select {
		case message := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("[WARN] writePump ping error for session %s: %v", c.SessionID, err)
				return
			}
		case <-c.closed:
			c.flush()
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

// flush writes whatever is still queued, so the last frames of a finished
// session reach the client.
func (c *Client) flush() {
	for {
		select {
		case message := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		default:
			return
		}
	}
}
