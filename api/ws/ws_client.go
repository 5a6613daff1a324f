package ws

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 1024 * 16

	// Outbound messages queued per connection before it counts as too slow.
	sendBufferSize = 256

	// Rate limiting: 120 messages per second with a burst of 240. Pointer
	// moves arrive at display refresh rate.
	messagesPerSecond = 120
	burstLimit        = 240
)

type MessageHandler func(client *Client, messageBytes []byte)

func NewClient(id string, conn *websocket.Conn, handler MessageHandler, onClose func(*Client)) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		id:      id,
		conn:    conn,
		handler: handler,
		onClose: onClose,
		send:    make(chan []byte, sendBufferSize),
		ctx:     ctx,
		cancel:  cancel,
		limiter: rate.NewLimiter(rate.Limit(messagesPerSecond), burstLimit),
		log:     logrus.WithField("connection_id", id),
	}
}

// Client is a middleman between the websocket connection and the session
// engine.
type Client struct {
	id      string
	conn    *websocket.Conn
	handler MessageHandler
	onClose func(*Client)

	mu     sync.Mutex
	send   chan []byte // Buffered channel of outbound messages.
	closed bool

	ctx     context.Context
	cancel  context.CancelFunc
	limiter *rate.Limiter
	log     *logrus.Entry
}

func (c *Client) ID() string {
	return c.id
}

// Context is cancelled once the connection is gone.
func (c *Client) Context() context.Context {
	return c.ctx
}

// Send queues a message without blocking. A client whose buffer is full is
// too slow to keep up; its outbound channel is closed, which ends the
// connection.
func (c *Client) Send(msg []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.send <- msg:
		return true
	default:
		c.log.Warn("Send buffer full, closing connection")
		c.closed = true
		close(c.send)
		return false
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) ReadPump() {
	defer func() {
		c.onClose(c)
		c.closeSend()
		c.cancel()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		_, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.log.WithError(err).Warn("WS close error")
			}
			break
		}

		if !c.limiter.Allow() {
			c.log.Warn("Closing connection: message rate limit exceeded")
			break
		}

		c.handler(c, messageBytes)
	}
}

func (c *Client) WritePump(shutdownCtx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.log.WithError(err).Debug("WS send error")
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-shutdownCtx.Done():
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "Whiteboard service shutting down"),
			)
			return
		}
	}
}
