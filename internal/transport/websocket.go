package transport

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"whiteboard/internal/event"
	"whiteboard/internal/middleware"
	"whiteboard/internal/user"

	"github.com/gorilla/websocket"
)

// Router dispatches one decoded request from a connection.
type Router interface {
	Route(connID string, req event.Request) error
}

// Lifecycle is notified about connections that join on upgrade and
// connections that go away.
type Lifecycle interface {
	Join(roomID, connID, participantID string) error
	Disconnect(connID string) []string
}

// HandlerConfig: knobs for the WebSocket endpoint
type HandlerConfig struct {
	AllowedOrigins []string // "*" allows any origin
	Limits         *middleware.Limits
	IPLimiter      *middleware.IPRateLimit
	SendBuffer     int
	Logger         *slog.Logger
}

// Handler upgrades HTTP requests and runs the connection read loop.
type Handler struct {
	hub       *Hub
	router    Router
	lifecycle Lifecycle
	cfg       HandlerConfig
	upgrader  websocket.Upgrader
	log       *slog.Logger
}

func NewHandler(hub *Hub, router Router, lifecycle Lifecycle, cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		hub:       hub,
		router:    router,
		lifecycle: lifecycle,
		cfg:       cfg,
		log:       logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		Subprotocols:    event.Subprotocols,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// CORS
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true // not a browser
	}
	for _, allowed := range h.cfg.AllowedOrigins {
		allowed = strings.TrimSpace(allowed)
		if allowed == "*" || strings.EqualFold(origin, allowed) {
			return true
		}
	}
	return false
}

// ServeHTTP: upgrades HTTP to WebSocket. An optional ?room= (and
// ?participant=) joins the room right after the upgrade.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	clientIP := middleware.ClientIP(r)
	if h.cfg.IPLimiter != nil && !h.cfg.IPLimiter.Allow(clientIP) {
		h.log.Warn("connection rate limit exceeded", "ip", clientIP)
		http.Error(w, "Too many connections", http.StatusTooManyRequests)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "ip", clientIP, "err", err)
		return
	}

	c := newConn(
		user.NewConnectionID(),
		ws,
		event.ForSubprotocol(ws.Subprotocol()),
		h.cfg.SendBuffer,
		h.cfg.Limits.NewMessageLimiter(),
		clientIP,
	)
	h.hub.Register(c)
	h.hub.start(c)

	defer func() {
		h.hub.Unregister(c.id)
		h.lifecycle.Disconnect(c.id)
		ws.Close()
	}()

	if roomID := r.URL.Query().Get("room"); roomID != "" {
		if err := h.lifecycle.Join(roomID, c.id, r.URL.Query().Get("participant")); err != nil {
			h.log.Warn("join on connect failed", "connectionId", c.id, "room", roomID, "err", err)
		}
	}

	h.readLoop(c)
}

// readLoop: reads until the connection dies, dropping bad messages one at a time
func (h *Handler) readLoop(c *Conn) {
	if h.cfg.Limits != nil && h.cfg.Limits.MaxMessageSize > 0 {
		// Frames well past the limit close the connection; the check below
		// drops anything merely over it.
		c.ws.SetReadLimit(h.cfg.Limits.MaxMessageSize * 4)
	}
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, msg, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				h.log.Warn("read error", "connectionId", c.id, "err", err)
			}
			return // Connection dead
		}

		if !h.cfg.Limits.ValidateMessageSize(len(msg)) {
			h.log.Warn("message too large", "connectionId", c.id, "bytes", len(msg))
			continue // Drop oversized message
		}

		if !c.limiter.Allow() {
			h.log.Warn("message rate limit exceeded", "connectionId", c.id)
			continue // Drop message
		}

		req, err := c.codec.DecodeRequest(msg)
		if err != nil {
			h.log.Warn("invalid message", "connectionId", c.id, "err", err)
			continue
		}

		if err := h.router.Route(c.id, req); err != nil {
			h.log.Warn("request rejected", "connectionId", c.id, "type", req.Type, "err", err)
			continue // Skip message
		}
	}
}
