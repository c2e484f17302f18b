package handlers

import (
	"fmt"
	"log/slog"

	"whiteboard/internal/event"
)

// ObjectHandler: handles element-related requests (add, update, delete, clear, background)
type ObjectHandler struct {
	elements Elements
	log      *slog.Logger
}

func NewObjectHandler(elements Elements, logger *slog.Logger) *ObjectHandler {
	return &ObjectHandler{
		elements: elements,
		log:      logger,
	}
}

// HandleAdded: AddElement requests
func (h *ObjectHandler) HandleAdded(connID string, req event.Request) error {
	var p event.ElementRequest
	if err := req.Decode(&p); err != nil {
		return fmt.Errorf("decode %s: %w", req.Type, err)
	}

	el, err := h.elements.AddElement(p.RoomID, connID, p.Element)
	if err != nil {
		return err
	}
	h.log.Debug("element.added", "room", p.RoomID, "connectionId", connID, "elementId", el.ID, "elementType", el.Type)
	return nil
}

// HandleUpdated: UpdateElement requests
func (h *ObjectHandler) HandleUpdated(connID string, req event.Request) error {
	var p event.ElementRequest
	if err := req.Decode(&p); err != nil {
		return fmt.Errorf("decode %s: %w", req.Type, err)
	}

	applied, err := h.elements.UpdateElement(p.RoomID, connID, p.Element)
	if err != nil {
		return err
	}
	if !applied {
		h.log.Debug("element.update.dropped", "room", p.RoomID, "connectionId", connID, "elementId", p.Element.ID)
	}
	return nil
}

// HandleDeleted: DeleteElement requests
func (h *ObjectHandler) HandleDeleted(connID string, req event.Request) error {
	var p event.DeleteElementRequest
	if err := req.Decode(&p); err != nil {
		return fmt.Errorf("decode %s: %w", req.Type, err)
	}

	removed, err := h.elements.DeleteElement(p.RoomID, connID, p.ElementID)
	if err != nil {
		return err
	}
	if !removed {
		h.log.Debug("element.delete.dropped", "room", p.RoomID, "connectionId", connID, "elementId", p.ElementID)
	}
	return nil
}

// HandleCleared: ClearWhiteboard requests
func (h *ObjectHandler) HandleCleared(connID string, req event.Request) error {
	var p event.RoomRequest
	if err := req.Decode(&p); err != nil {
		return fmt.Errorf("decode %s: %w", req.Type, err)
	}
	return h.elements.ClearBoard(p.RoomID, connID)
}

// HandleBackground: ChangeBackground requests
func (h *ObjectHandler) HandleBackground(connID string, req event.Request) error {
	var p event.ChangeBackgroundRequest
	if err := req.Decode(&p); err != nil {
		return fmt.Errorf("decode %s: %w", req.Type, err)
	}
	return h.elements.ChangeBackground(p.RoomID, connID, p.BackgroundColor)
}
