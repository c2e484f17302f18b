package room

import (
	"errors"
	"sort"
	"sync"
	"time"

	"whiteboard/internal/object"
)

// DefaultBackground is the background of a freshly created room.
const DefaultBackground = "#ffffff"

var (
	ErrDuplicateID = errors.New("element id already in use")
	ErrFull        = errors.New("room at maximum element capacity")
)

// Room holds the mutable state of one whiteboard.
// Every method is atomic with respect to the others.
type Room struct {
	ID string

	elements     map[string]*object.Element
	background   string
	lastModified time.Time
	lastActive   time.Time
	createdAt    time.Time
	now          func() time.Time
	mu           sync.RWMutex
}

func newRoom(id string, now func() time.Time) *Room {
	t := now()
	return &Room{
		ID:           id,
		elements:     make(map[string]*object.Element),
		background:   DefaultBackground,
		lastModified: t,
		lastActive:   t,
		createdAt:    t,
		now:          now,
	}
}

// stamp returns a mutation time that never goes backwards within the room.
// Caller must hold r.mu.
func (r *Room) stamp() time.Time {
	t := r.now()
	if !t.After(r.lastModified) {
		t = r.lastModified.Add(time.Nanosecond)
	}
	r.lastModified = t
	r.lastActive = t
	return t
}

// Add: inserts e with a fresh timestamp. limit caps the element count,
// 0 means unlimited.
func (r *Room) Add(e object.Element, limit int) (object.Element, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit > 0 && len(r.elements) >= limit {
		return object.Element{}, ErrFull
	}
	if _, exists := r.elements[e.ID]; exists {
		return object.Element{}, ErrDuplicateID
	}

	stored := e.Clone()
	stored.Timestamp = r.stamp()
	r.elements[stored.ID] = &stored
	return stored.Clone(), nil
}

// Update runs mutate on a copy of element id and stores the result, all under
// the room lock. ID, Type and CreatedBy survive whatever mutate does.
// Unknown ids report false. A mutate error leaves the element as it was.
func (r *Room) Update(id string, mutate func(*object.Element) error) (object.Element, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.elements[id]
	if !exists {
		return object.Element{}, false, nil
	}

	next := existing.Clone()
	if err := mutate(&next); err != nil {
		return object.Element{}, true, err
	}
	next.ID, next.Type, next.CreatedBy = existing.ID, existing.Type, existing.CreatedBy
	next.Timestamp = r.stamp()
	r.elements[id] = &next
	return next.Clone(), true, nil
}

// Delete: removes an element. lastModified only moves if something was removed.
func (r *Room) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.elements[id]; !exists {
		return false
	}
	delete(r.elements, id)
	r.stamp()
	return true
}

// Clear: drops every element, returns how many were removed
func (r *Room) Clear() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.elements)
	r.elements = make(map[string]*object.Element)
	r.stamp()
	return n
}

// SetBackground: replaces the background color/style
func (r *Room) SetBackground(background string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.background = background
	r.stamp()
}

// Touch marks the room as active without counting as a mutation.
func (r *Room) Touch() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastActive = r.now()
}

// Element: retrieves a copy of one element
func (r *Room) Element(id string) (object.Element, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, exists := r.elements[id]
	if !exists {
		return object.Element{}, false
	}
	return e.Clone(), true
}

// ElementCount: returns number of elements in room
func (r *Room) ElementCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.elements)
}

func (r *Room) Background() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.background
}

func (r *Room) LastModified() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.lastModified
}

func (r *Room) LastActive() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.lastActive
}

func (r *Room) CreatedAt() time.Time {
	return r.createdAt
}

// Snapshot: consistent copy of the room state, elements ordered by timestamp
func (r *Room) Snapshot() Snapshot {
	r.mu.RLock()
	elements := make([]object.Element, 0, len(r.elements))
	for _, e := range r.elements {
		elements = append(elements, e.Clone())
	}
	snap := Snapshot{
		Elements:     elements,
		Background:   r.background,
		LastModified: r.lastModified,
	}
	r.mu.RUnlock()

	sort.Slice(snap.Elements, func(i, j int) bool {
		a, b := snap.Elements[i], snap.Elements[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Before(b.Timestamp)
		}
		return a.ID < b.ID
	})
	return snap
}
