package transport

import (
	"errors"
	"sync"
	"time"

	"whiteboard/internal/event"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10 // Send pings at 90% of pong deadline
)

var (
	ErrConnectionClosed = errors.New("connection closed")
	ErrSendBufferFull   = errors.New("send buffer full")
)

// Conn is one client WebSocket with its outbound queue.
type Conn struct {
	id      string
	ws      *websocket.Conn
	codec   event.Codec
	send    chan []byte
	limiter *rate.Limiter
	remote  string

	closed bool
	mu     sync.Mutex
}

func newConn(id string, ws *websocket.Conn, codec event.Codec, buffer int, limiter *rate.Limiter, remote string) *Conn {
	if buffer <= 0 {
		buffer = 256
	}
	return &Conn{
		id:      id,
		ws:      ws,
		codec:   codec,
		send:    make(chan []byte, buffer),
		limiter: limiter,
		remote:  remote,
	}
}

func (c *Conn) ID() string { return c.id }

func (c *Conn) Codec() event.Codec { return c.codec }

func (c *Conn) RemoteAddr() string { return c.remote }

// enqueue queues a frame without blocking. A slow client loses frames
// rather than stalling the sender.
func (c *Conn) enqueue(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrConnectionClosed
	}
	select {
	case c.send <- frame:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// closeSend stops the write pump once the queue drains. Safe to call twice.
func (c *Conn) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Conn) messageType() int {
	if c.codec.Binary() {
		return websocket.BinaryMessage
	}
	return websocket.TextMessage
}

// writePump: drains the send queue and keeps the connection alive with pings
func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(c.messageType(), frame); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return // Connection dead, ping loop exits
			}
		}
	}
}
