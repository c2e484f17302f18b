package handlers

import (
	"fmt"

	"whiteboard/internal/event"
)

// CursorHandler handles cursor position updates
type CursorHandler struct {
	cursors Cursors
}

// NewCursorHandler creates a new cursor handler with dependencies
func NewCursorHandler(cursors Cursors) *CursorHandler {
	return &CursorHandler{cursors: cursors}
}

// Handle relays a cursor position; throttled positions are silently dropped
func (h *CursorHandler) Handle(connID string, req event.Request) error {
	var p event.MoveCursorRequest
	if err := req.Decode(&p); err != nil {
		return fmt.Errorf("decode %s: %w", req.Type, err)
	}

	_, err := h.cursors.MoveCursor(p.RoomID, connID, p.X, p.Y)
	return err
}
