package room

import (
	"time"

	"whiteboard/internal/object"
)

// Snapshot is the state a (re)joining client needs to redraw the board.
type Snapshot struct {
	Elements     []object.Element
	Background   string
	LastModified time.Time
}
