package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/bishal292/whiteboard/protocol"
	"github.com/gorilla/websocket"
)

var ErrUnexpectedGreeting = errors.New("server did not send connected")

// Conn is a joined whiteboard connection. Messages yields every server
// message after the greeting and is closed when the connection ends.
type Conn struct {
	ConnectionId string
	Messages     <-chan protocol.Message

	ws      *websocket.Conn
	writeMu sync.Mutex
}

// Dial connects to a whiteboard server and sends join-room.
func Dial(ctx context.Context, url string, join protocol.JoinRoomData) (*Conn, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	_, b, err := ws.ReadMessage()
	if err != nil {
		ws.Close()
		return nil, fmt.Errorf("read greeting: %w", err)
	}
	greeting, err := protocol.Decode(b)
	if err != nil || greeting.Type != protocol.TypeConnected {
		ws.Close()
		return nil, ErrUnexpectedGreeting
	}
	var connected protocol.ConnectedData
	if err := json.Unmarshal(greeting.Data, &connected); err != nil {
		ws.Close()
		return nil, ErrUnexpectedGreeting
	}

	messages := make(chan protocol.Message, 64)
	c := &Conn{
		ConnectionId: connected.ConnectionId,
		Messages:     messages,
		ws:           ws,
	}

	if err := c.Send(protocol.TypeJoinRoom, join); err != nil {
		ws.Close()
		return nil, err
	}

	go c.readLoop(messages)
	return c, nil
}

func (c *Conn) readLoop(messages chan<- protocol.Message) {
	defer close(messages)
	for {
		_, b, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		msg, err := protocol.Decode(b)
		if err != nil {
			continue
		}
		messages <- msg
	}
}

func (c *Conn) Send(msgType string, data any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteMessage(websocket.TextMessage, protocol.Encode(msgType, data))
}

func (c *Conn) Close() error {
	c.writeMu.Lock()
	c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()
	return c.ws.Close()
}
