package services

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
)

// Client is one live socket connection. Identity is attached later by an
// identify message; until then every room operation is rejected.
type Client struct {
	id    string
	conn  *websocket.Conn
	coord *Coordinator
	send  chan []byte
	once  sync.Once

	mu       sync.Mutex
	userID   uint
	username string
	balance  float64
	roomID   string
}

func (c *Client) Close() {
	c.once.Do(func() {
		close(c.send)
		if c.conn != nil {
			c.conn.Close()
		}
	})
}

// identity returns the cached user id and name; ok is false before identify.
func (c *Client) identity() (uint, string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID, c.username, c.userID != 0
}

func (c *Client) setIdentity(userID uint, username string, balance float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.userID = userID
	c.username = username
	c.balance = balance
}

func (c *Client) room() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roomID
}

func (c *Client) setRoom(roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roomID = roomID
}

func (c *Client) cachedBalance() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.balance
}

func (c *Client) setBalance(balance float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.balance = balance
}

func (c *Client) adjustBalance(delta float64) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.balance += delta
	return c.balance
}

// trySend queues a message without blocking; slow consumers drop messages
// rather than stalling the whole room.
func (c *Client) trySend(msg []byte) {
	defer func() {
		// send on a closed channel during teardown is a benign race
		_ = recover()
	}()
	select {
	case c.send <- msg:
	default:
		c.coord.log.Debugw("dropping message to slow client", "conn", c.id)
	}
}

func (c *Client) readPump() {
	defer func() {
		c.coord.Disconnect(c)
		c.conn.Close()
	}()

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.coord.log.Debugw("client disconnected", "conn", c.id)
			} else {
				c.coord.log.Debugw("client read error", "conn", c.id, "err", err)
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.trySendEvent(newErrorEvent("BAD_MESSAGE", "malformed message"))
			continue
		}
		c.coord.Dispatch(c, msg)
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			c.coord.log.Debugw("client write error", "conn", c.id, "err", err)
			return
		}
	}
}

func (c *Client) trySendEvent(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		c.coord.log.Errorw("marshal event", "err", err)
		return
	}
	c.trySend(b)
}
