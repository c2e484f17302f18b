package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"whiteboard/internal/event"
	"whiteboard/internal/metrics"
)

var ErrUnknownConnection = errors.New("unknown connection")

// Hub indexes open connections by id and delivers events to them.
// It is the session.Transport of the running server.
type Hub struct {
	conns   map[string]*Conn
	mu      sync.RWMutex
	wg      sync.WaitGroup
	metrics *metrics.Metrics
	log     *slog.Logger
}

func NewHub(logger *slog.Logger, m *metrics.Metrics) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		conns:   make(map[string]*Conn),
		metrics: m,
		log:     logger,
	}
}

// Register: adds a connection so it can receive events
func (h *Hub) Register(c *Conn) {
	h.mu.Lock()
	h.conns[c.id] = c
	count := len(h.conns)
	h.mu.Unlock()

	h.metrics.ConnectionOpened()
	h.log.Info("client connected", "connectionId", c.id, "remote", c.remote, "codec", c.codec.Name(), "clients", count)
}

// Unregister: removes a connection and stops its write pump
func (h *Hub) Unregister(connID string) {
	h.mu.Lock()
	c, exists := h.conns[connID]
	delete(h.conns, connID)
	count := len(h.conns)
	h.mu.Unlock()

	if !exists {
		return
	}
	c.closeSend()

	h.metrics.ConnectionClosed()
	h.log.Info("client disconnected", "connectionId", connID, "clients", count)
}

// Send encodes ev with the connection's codec and queues it.
func (h *Hub) Send(connID string, ev event.Event) error {
	h.mu.RLock()
	c, exists := h.conns[connID]
	h.mu.RUnlock()

	if !exists {
		return fmt.Errorf("%w: %s", ErrUnknownConnection, connID)
	}

	frame, err := c.codec.Encode(ev)
	if err != nil {
		return err
	}
	return c.enqueue(frame)
}

// Count returns the number of registered connections
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.conns)
}

// start runs the write pump for c under the hub's wait group.
func (h *Hub) start(c *Conn) {
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		c.writePump()
	}()
}

// Shutdown closes every connection and waits for their write pumps,
// or until ctx is done.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.RLock()
	conns := make([]*Conn, 0, len(h.conns))
	for _, c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		c.closeSend()
		if c.ws != nil {
			c.ws.Close()
		}
	}
	h.log.Info("closing client connections", "count", len(conns))

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
