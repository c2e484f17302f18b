package user

import (
	"sort"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// CursorLimit bounds cursor broadcasts per member (~30fps with a small burst).
var CursorLimit = rate.Limit(30)

const cursorBurst = 5

type member struct {
	Participant
	cursor *rate.Limiter
}

type roomMembers struct {
	members map[string]*member // connectionID -> member
	colors  *ColorGenerator
	// colors stay stable for a connection that leaves and rejoins the same room
	assigned map[string]string
}

// Tracker keeps room membership plus a reverse index from connection to rooms
// so a disconnect touches only the rooms that connection was in.
type Tracker struct {
	rooms  map[string]*roomMembers    // roomID -> members
	byConn map[string]map[string]bool // connectionID -> roomIDs
	now    func() time.Time
	mu     sync.RWMutex
}

func NewTracker() *Tracker {
	return &Tracker{
		rooms:  make(map[string]*roomMembers),
		byConn: make(map[string]map[string]bool),
		now:    time.Now,
	}
}

// Join adds connID to roomID and returns the joined participant together with
// the room's membership after the add. Joining twice keeps the first color.
func (t *Tracker) Join(roomID, participantID, connID string) (Participant, []Participant) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rm, exists := t.rooms[roomID]
	if !exists {
		rm = &roomMembers{
			members:  make(map[string]*member),
			colors:   NewColorGenerator(),
			assigned: make(map[string]string),
		}
		t.rooms[roomID] = rm
	}

	m, exists := rm.members[connID]
	if exists {
		m.ID = participantID
	} else {
		color, hasColor := rm.assigned[participantID]
		if !hasColor {
			color = rm.colors.NextColor()
			rm.assigned[participantID] = color
		}
		m = &member{
			Participant: Participant{
				ID:           participantID,
				ConnectionID: connID,
				Color:        color,
				JoinedAt:     t.now(),
			},
			cursor: rate.NewLimiter(CursorLimit, cursorBurst),
		}
		rm.members[connID] = m
	}

	rooms, exists := t.byConn[connID]
	if !exists {
		rooms = make(map[string]bool)
		t.byConn[connID] = rooms
	}
	rooms[roomID] = true

	return m.Participant, rm.snapshot()
}

// Leave removes connID from roomID. Not being a member is a no-op.
func (t *Tracker) Leave(roomID, connID string) (Participant, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.leaveLocked(roomID, connID)
}

func (t *Tracker) leaveLocked(roomID, connID string) (Participant, bool) {
	rm, exists := t.rooms[roomID]
	if !exists {
		return Participant{}, false
	}
	m, exists := rm.members[connID]
	if !exists {
		return Participant{}, false
	}

	delete(rm.members, connID)
	if len(rm.members) == 0 {
		delete(t.rooms, roomID)
	}

	if rooms, ok := t.byConn[connID]; ok {
		delete(rooms, roomID)
		if len(rooms) == 0 {
			delete(t.byConn, connID)
		}
	}
	return m.Participant, true
}

// Disconnect removes connID from every room it joined and returns what it left.
func (t *Tracker) Disconnect(connID string) map[string]Participant {
	t.mu.Lock()
	defer t.mu.Unlock()

	rooms := t.byConn[connID]
	left := make(map[string]Participant, len(rooms))
	for roomID := range rooms {
		if p, ok := t.leaveLocked(roomID, connID); ok {
			left[roomID] = p
		}
	}
	return left
}

// MembersOf returns the current members of roomID ordered by join time.
func (t *Tracker) MembersOf(roomID string) []Participant {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rm, exists := t.rooms[roomID]
	if !exists {
		return nil
	}
	return rm.snapshot()
}

// ConnectionsOf: connection ids in roomID, optionally without one of them
func (t *Tracker) ConnectionsOf(roomID, except string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rm, exists := t.rooms[roomID]
	if !exists {
		return nil
	}
	conns := make([]string, 0, len(rm.members))
	for connID := range rm.members {
		if connID != except {
			conns = append(conns, connID)
		}
	}
	sort.Strings(conns)
	return conns
}

// Member looks up connID's membership in roomID.
func (t *Tracker) Member(roomID, connID string) (Participant, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if rm, ok := t.rooms[roomID]; ok {
		if m, ok := rm.members[connID]; ok {
			return m.Participant, true
		}
	}
	return Participant{}, false
}

// AllowCursor reports whether connID may broadcast a cursor position in
// roomID right now. Non-members are never allowed.
func (t *Tracker) AllowCursor(roomID, connID string) (Participant, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rm, ok := t.rooms[roomID]
	if !ok {
		return Participant{}, false
	}
	m, ok := rm.members[connID]
	if !ok {
		return Participant{}, false
	}
	return m.Participant, m.cursor.Allow()
}

// RoomsOf: sorted room ids connID is a member of
func (t *Tracker) RoomsOf(connID string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rooms := make([]string, 0, len(t.byConn[connID]))
	for roomID := range t.byConn[connID] {
		rooms = append(rooms, roomID)
	}
	sort.Strings(rooms)
	return rooms
}

// Count returns the number of connections in roomID
func (t *Tracker) Count(roomID string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if rm, ok := t.rooms[roomID]; ok {
		return len(rm.members)
	}
	return 0
}

// Connections returns the number of distinct connections in any room
func (t *Tracker) Connections() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.byConn)
}

func (rm *roomMembers) snapshot() []Participant {
	out := make([]Participant, 0, len(rm.members))
	for _, m := range rm.members {
		out = append(out, m.Participant)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].JoinedAt.Before(out[j].JoinedAt)
		}
		return out[i].ConnectionID < out[j].ConnectionID
	})
	return out
}
