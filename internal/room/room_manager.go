package room

import (
	"sort"
	"sync"
	"time"
)

// Manager is the registry of all rooms in the process
type Manager struct {
	rooms map[string]*Room
	now   func() time.Time
	mu    sync.RWMutex
}

// NewManager creates a new room manager
func NewManager() *Manager {
	return NewManagerWithClock(time.Now)
}

// NewManagerWithClock: manager whose rooms read time from now
func NewManagerWithClock(now func() time.Time) *Manager {
	return &Manager{
		rooms: make(map[string]*Room),
		now:   now,
	}
}

// GetOrCreate returns the room for roomID, creating an empty one on first use.
// The room is marked active before the registry lock is released so a
// concurrent Sweep cannot evict it from under the caller.
func (rm *Manager) GetOrCreate(roomID string) *Room {
	rm.mu.RLock()
	room, exists := rm.rooms[roomID]
	if exists {
		room.Touch()
	}
	rm.mu.RUnlock()
	if exists {
		return room
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	// Another caller may have created it between the two locks
	if room, exists = rm.rooms[roomID]; exists {
		room.Touch()
		return room
	}
	room = newRoom(roomID, rm.now)
	rm.rooms[roomID] = room
	return room
}

// Get: checks if a room exists and returns it
func (rm *Manager) Get(roomID string) (*Room, bool) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	room, exists := rm.rooms[roomID]
	return room, exists
}

// Active returns an existing room marked active under the registry lock, so a
// concurrent Sweep either removed it already or will keep it. It never creates.
func (rm *Manager) Active(roomID string) (*Room, bool) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	room, exists := rm.rooms[roomID]
	if exists {
		room.Touch()
	}
	return room, exists
}

// Remove drops a room. Unknown ids are ignored.
func (rm *Manager) Remove(roomID string) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	delete(rm.rooms, roomID)
}

// Count returns the total number of rooms
func (rm *Manager) Count() int {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	return len(rm.rooms)
}

// IDs: sorted room ids
func (rm *Manager) IDs() []string {
	rm.mu.RLock()
	ids := make([]string, 0, len(rm.rooms))
	for id := range rm.rooms {
		ids = append(ids, id)
	}
	rm.mu.RUnlock()

	sort.Strings(ids)
	return ids
}

// Sweep removes rooms idle for longer than idle that inUse reports as unused,
// and returns their ids. inUse is called without the manager lock held.
func (rm *Manager) Sweep(idle time.Duration, inUse func(roomID string) bool) []string {
	if idle <= 0 {
		return nil
	}
	now := rm.now()

	rm.mu.RLock()
	candidates := make([]*Room, 0)
	for _, room := range rm.rooms {
		if now.Sub(room.LastActive()) > idle {
			candidates = append(candidates, room)
		}
	}
	rm.mu.RUnlock()

	var removed []string
	for _, room := range candidates {
		if inUse != nil && inUse(room.ID) {
			continue
		}

		rm.mu.Lock()
		// Skip if the room was touched or replaced since the scan
		if current, ok := rm.rooms[room.ID]; ok && current == room && now.Sub(room.LastActive()) > idle {
			delete(rm.rooms, room.ID)
			removed = append(removed, room.ID)
		}
		rm.mu.Unlock()
	}

	sort.Strings(removed)
	return removed
}
