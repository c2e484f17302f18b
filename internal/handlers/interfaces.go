package handlers

import (
	"whiteboard/internal/object"
)

// Membership is the part of the session service the join/leave handlers use.
type Membership interface {
	Join(roomID, connID, participantID string) error
	Leave(roomID, connID string) (bool, error)
}

// Elements is the part of the session service the element handlers use.
type Elements interface {
	AddElement(roomID, connID string, in object.Element) (object.Element, error)
	UpdateElement(roomID, connID string, in object.Element) (bool, error)
	DeleteElement(roomID, connID, elementID string) (bool, error)
	ClearBoard(roomID, connID string) error
	ChangeBackground(roomID, connID, background string) error
}

// Cursors relays ephemeral pointer positions.
type Cursors interface {
	MoveCursor(roomID, connID string, x, y float64) (bool, error)
}

// Whiteboard is everything the router dispatches to.
type Whiteboard interface {
	Membership
	Elements
	Cursors
}
