// Package event defines the typed messages exchanged with whiteboard clients
// and the codecs that put them on the wire.
//
// Every outbound message is one of the concrete Event types below wrapped in
// an Envelope; inbound messages are Requests whose payload is decoded into the
// matching *Request struct.
package event

import (
	"time"

	"whiteboard/internal/object"
	"whiteboard/internal/user"
)

// Version of the envelope schema.
const Version = 1

// Type names an outbound event.
type Type string

const (
	TypeWhiteboardState   Type = "WhiteboardState"
	TypeUserJoined        Type = "UserJoinedWhiteboard"
	TypeUserLeft          Type = "UserLeftWhiteboard"
	TypeElementAdded      Type = "ElementAdded"
	TypeElementUpdated    Type = "ElementUpdated"
	TypeElementDeleted    Type = "ElementDeleted"
	TypeWhiteboardCleared Type = "WhiteboardCleared"
	TypeBackgroundChanged Type = "BackgroundChanged"
	TypeCursorMoved       Type = "CursorMoved"
)

// Event is implemented by every outbound message.
type Event interface {
	EventType() Type
}

// Envelope is the versioned wrapper written to the wire.
type Envelope struct {
	Type    Type  `json:"type"`
	Version int   `json:"v"`
	Payload Event `json:"payload"`
}

// Wrap puts ev in an envelope of the current version.
func Wrap(ev Event) Envelope {
	return Envelope{Type: ev.EventType(), Version: Version, Payload: ev}
}

// WhiteboardState is the snapshot sent to a joining connection.
type WhiteboardState struct {
	RoomID       string             `json:"roomId"`
	Elements     []object.Element   `json:"elements"`
	Background   string             `json:"background"`
	LastModified time.Time          `json:"lastModified"`
	Members      []user.Participant `json:"members"`
}

type UserJoined struct {
	RoomID        string `json:"roomId"`
	ParticipantID string `json:"participantId"`
	ConnectionID  string `json:"connectionId"`
	Color         string `json:"color"`
}

type UserLeft struct {
	RoomID       string `json:"roomId"`
	ConnectionID string `json:"connectionId"`
}

// ElementAdded carries the element as finalized by the server.
type ElementAdded struct {
	object.Element
}

type ElementUpdated struct {
	object.Element
}

type ElementDeleted struct {
	ElementID string `json:"elementId"`
}

type WhiteboardCleared struct{}

type BackgroundChanged struct {
	BackgroundColor string `json:"backgroundColor"`
}

type CursorMoved struct {
	ConnectionID  string  `json:"connectionId"`
	ParticipantID string  `json:"participantId"`
	Color         string  `json:"color"`
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
}

func (WhiteboardState) EventType() Type   { return TypeWhiteboardState }
func (UserJoined) EventType() Type        { return TypeUserJoined }
func (UserLeft) EventType() Type          { return TypeUserLeft }
func (ElementAdded) EventType() Type      { return TypeElementAdded }
func (ElementUpdated) EventType() Type    { return TypeElementUpdated }
func (ElementDeleted) EventType() Type    { return TypeElementDeleted }
func (WhiteboardCleared) EventType() Type { return TypeWhiteboardCleared }
func (BackgroundChanged) EventType() Type { return TypeBackgroundChanged }
func (CursorMoved) EventType() Type       { return TypeCursorMoved }
