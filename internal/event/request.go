package event

import "whiteboard/internal/object"

// RequestType names an inbound client operation.
type RequestType string

const (
	RequestJoin             RequestType = "JoinWhiteboard"
	RequestLeave            RequestType = "LeaveWhiteboard"
	RequestAddElement       RequestType = "AddElement"
	RequestUpdateElement    RequestType = "UpdateElement"
	RequestDeleteElement    RequestType = "DeleteElement"
	RequestClearWhiteboard  RequestType = "ClearWhiteboard"
	RequestChangeBackground RequestType = "ChangeBackground"
	RequestMoveCursor       RequestType = "MoveCursor"
)

// Request is a decoded inbound envelope whose payload has not been parsed yet.
type Request struct {
	Type    RequestType
	payload []byte
	codec   Codec
}

// Decode parses the request payload into v.
func (r Request) Decode(v any) error {
	if len(r.payload) == 0 {
		return ErrMissingPayload
	}
	return r.codec.Unmarshal(r.payload, v)
}

type JoinRequest struct {
	RoomID        string `json:"roomId"`
	ParticipantID string `json:"participantId"`
}

type RoomRequest struct {
	RoomID string `json:"roomId"`
}

type ElementRequest struct {
	RoomID  string         `json:"roomId"`
	Element object.Element `json:"element"`
}

type DeleteElementRequest struct {
	RoomID    string `json:"roomId"`
	ElementID string `json:"elementId"`
}

type ChangeBackgroundRequest struct {
	RoomID          string `json:"roomId"`
	BackgroundColor string `json:"backgroundColor"`
}

type MoveCursorRequest struct {
	RoomID string  `json:"roomId"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}
