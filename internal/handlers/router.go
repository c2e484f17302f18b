package handlers

import (
	"fmt"
	"log/slog"

	"whiteboard/internal/event"
)

// MessageRouter routes decoded requests to the appropriate handler
type MessageRouter struct {
	objectHandler *ObjectHandler
	cursorHandler *CursorHandler
	userHandler   *UserHandler
}

func NewMessageRouter(wb Whiteboard, logger *slog.Logger) *MessageRouter {
	if logger == nil {
		logger = slog.Default()
	}
	return &MessageRouter{
		objectHandler: NewObjectHandler(wb, logger),
		cursorHandler: NewCursorHandler(wb),
		userHandler:   NewUserHandler(wb),
	}
}

// Route: process a request via appropriate handler
func (mr *MessageRouter) Route(connID string, req event.Request) error {
	switch req.Type {
	case event.RequestJoin:
		return mr.userHandler.HandleJoin(connID, req)
	case event.RequestLeave:
		return mr.userHandler.HandleLeave(connID, req)
	case event.RequestAddElement:
		return mr.objectHandler.HandleAdded(connID, req)
	case event.RequestUpdateElement:
		return mr.objectHandler.HandleUpdated(connID, req)
	case event.RequestDeleteElement:
		return mr.objectHandler.HandleDeleted(connID, req)
	case event.RequestClearWhiteboard:
		return mr.objectHandler.HandleCleared(connID, req)
	case event.RequestChangeBackground:
		return mr.objectHandler.HandleBackground(connID, req)
	case event.RequestMoveCursor:
		return mr.cursorHandler.Handle(connID, req)
	default:
		return fmt.Errorf("unknown message type: %s", req.Type)
	}
}
