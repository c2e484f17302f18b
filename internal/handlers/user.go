package handlers

import (
	"fmt"

	"whiteboard/internal/event"
)

// UserHandler handles room membership requests
type UserHandler struct {
	membership Membership
}

func NewUserHandler(membership Membership) *UserHandler {
	return &UserHandler{membership: membership}
}

// HandleJoin: JoinWhiteboard requests
func (h *UserHandler) HandleJoin(connID string, req event.Request) error {
	var p event.JoinRequest
	if err := req.Decode(&p); err != nil {
		return fmt.Errorf("decode %s: %w", req.Type, err)
	}
	return h.membership.Join(p.RoomID, connID, p.ParticipantID)
}

// HandleLeave: LeaveWhiteboard requests
func (h *UserHandler) HandleLeave(connID string, req event.Request) error {
	var p event.RoomRequest
	if err := req.Decode(&p); err != nil {
		return fmt.Errorf("decode %s: %w", req.Type, err)
	}
	_, err := h.membership.Leave(p.RoomID, connID)
	return err
}
