package user

import (
	"time"

	"github.com/google/uuid"
)

// Participant is one connection's membership in a room.
type Participant struct {
	ID           string    `json:"participantId"`
	ConnectionID string    `json:"connectionId"`
	Color        string    `json:"color"`
	JoinedAt     time.Time `json:"joinedAt"`
}

// NewConnectionID generates a random id for a transport connection
func NewConnectionID() string {
	return uuid.NewString()
}
