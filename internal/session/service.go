// Package session is the whiteboard orchestrator: it applies client
// operations to room state and membership and decides which connections
// hear about the result.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"whiteboard/internal/event"
	"whiteboard/internal/metrics"
	"whiteboard/internal/middleware"
	"whiteboard/internal/object"
	"whiteboard/internal/room"
	"whiteboard/internal/user"

	"github.com/google/uuid"
)

var (
	ErrMissingRoom       = errors.New("missing roomId")
	ErrMissingElementID  = errors.New("missing element id")
	ErrMissingBackground = errors.New("missing backgroundColor")
	ErrInvalidBackground = errors.New("invalid backgroundColor")
	ErrRoomFull          = errors.New("room at maximum element capacity")
	ErrIDExhausted       = errors.New("could not allocate a unique element id")
	ErrInvalidCursor     = errors.New("cursor position must be finite")
)

// Transport delivers one event to one connection. Implementations must not
// block on slow clients; Service treats every send as fire-and-forget.
type Transport interface {
	Send(connID string, ev event.Event) error
}

// Config carries the Service's collaborators. Nil fields get defaults.
type Config struct {
	Rooms     *room.Manager
	Members   *user.Tracker
	Validator *object.Validator
	Limits    *middleware.Limits
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
	// NewID generates element ids; uuid v4 when nil.
	NewID func() string
}

// Service correlates the room registry and the membership tracker by room id.
type Service struct {
	rooms     *room.Manager
	members   *user.Tracker
	transport Transport
	validator *object.Validator
	limits    *middleware.Limits
	metrics   *metrics.Metrics
	log       *slog.Logger
	newID     func() string
}

func NewService(transport Transport, cfg Config) *Service {
	s := &Service{
		rooms:     cfg.Rooms,
		members:   cfg.Members,
		transport: transport,
		validator: cfg.Validator,
		limits:    cfg.Limits,
		metrics:   cfg.Metrics,
		log:       cfg.Logger,
		newID:     cfg.NewID,
	}
	if s.rooms == nil {
		s.rooms = room.NewManager()
	}
	if s.members == nil {
		s.members = user.NewTracker()
	}
	if s.validator == nil {
		s.validator = object.NewValidator()
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	return s
}

func (s *Service) Rooms() *room.Manager   { return s.rooms }
func (s *Service) Members() *user.Tracker { return s.members }

// Join registers connID in roomID, sends it the room snapshot and announces
// it to the whole room, itself included. An empty participantID falls back
// to the connection id.
func (s *Service) Join(roomID, connID, participantID string) error {
	if roomID == "" {
		s.metrics.Op("join", "rejected")
		return ErrMissingRoom
	}
	participantID = s.validator.SanitizeString(participantID)
	if participantID == "" {
		participantID = connID
	}

	rm := s.rooms.GetOrCreate(roomID)
	// Membership first: anything mutated after this point reaches the caller
	// either in the snapshot or as an event.
	p, members := s.members.Join(roomID, participantID, connID)
	snap := rm.Snapshot()

	s.toConn(connID, event.WhiteboardState{
		RoomID:       roomID,
		Elements:     snap.Elements,
		Background:   snap.Background,
		LastModified: snap.LastModified,
		Members:      members,
	})
	s.toRoom(roomID, event.UserJoined{
		RoomID:        roomID,
		ParticipantID: p.ID,
		ConnectionID:  connID,
		Color:         p.Color,
	}, "")

	s.metrics.Op("join", "ok")
	s.log.Debug("room.joined", "room", roomID, "connectionId", connID, "participantId", p.ID, "members", len(members))
	return nil
}

// AddElement validates in, gives it a fresh id and timestamp and broadcasts
// the stored element to the whole room including the sender.
func (s *Service) AddElement(roomID, connID string, in object.Element) (object.Element, error) {
	if roomID == "" {
		s.metrics.Op("add", "rejected")
		return object.Element{}, ErrMissingRoom
	}
	el, err := s.validator.ValidateAndSanitize(in)
	if err != nil {
		s.metrics.Op("add", "rejected")
		return object.Element{}, fmt.Errorf("add element: %w", err)
	}

	rm := s.rooms.GetOrCreate(roomID)

	el.CreatedBy = connID
	if p, ok := s.members.Member(roomID, connID); ok {
		el.CreatedBy = p.ID
	}

	var stored object.Element
	err = room.ErrDuplicateID
	for attempt := 0; attempt < 3 && errors.Is(err, room.ErrDuplicateID); attempt++ {
		el.ID = s.newID()
		stored, err = rm.Add(el, s.limits.ElementCap())
	}
	switch {
	case errors.Is(err, room.ErrFull):
		s.metrics.Op("add", "rejected")
		return object.Element{}, ErrRoomFull
	case err != nil:
		s.metrics.Op("add", "rejected")
		return object.Element{}, ErrIDExhausted
	}

	recipients := s.members.ConnectionsOf(roomID, connID)
	recipients = append(recipients, connID)
	s.deliver(event.ElementAdded{Element: stored}, recipients)

	s.metrics.Op("add", "ok")
	return stored, nil
}

// UpdateElement overwrites an existing element last-write-wins and tells
// everyone but the sender, who already applied it locally. Unknown ids are
// dropped without an event.
func (s *Service) UpdateElement(roomID, connID string, in object.Element) (bool, error) {
	if roomID == "" {
		s.metrics.Op("update", "rejected")
		return false, ErrMissingRoom
	}
	if in.ID == "" {
		s.metrics.Op("update", "rejected")
		return false, ErrMissingElementID
	}

	rm, ok := s.rooms.Active(roomID)
	if !ok {
		s.metrics.Op("update", "dropped")
		return false, nil
	}

	// Merge, validate and store under one room lock
	stored, found, err := rm.Update(in.ID, func(el *object.Element) error {
		el.Apply(in)
		clean, err := s.validator.ValidateAndSanitize(*el)
		if err != nil {
			return err
		}
		*el = clean
		return nil
	})
	if err != nil {
		s.metrics.Op("update", "rejected")
		return false, fmt.Errorf("update element: %w", err)
	}
	if !found {
		s.metrics.Op("update", "dropped")
		return false, nil
	}

	s.toRoom(roomID, event.ElementUpdated{Element: stored}, connID)
	s.metrics.Op("update", "ok")
	return true, nil
}

// DeleteElement removes an element and tells the whole room. Nothing is
// sent when the id was unknown.
func (s *Service) DeleteElement(roomID, connID, elementID string) (bool, error) {
	if roomID == "" {
		s.metrics.Op("delete", "rejected")
		return false, ErrMissingRoom
	}
	if elementID == "" {
		s.metrics.Op("delete", "rejected")
		return false, ErrMissingElementID
	}

	rm, ok := s.rooms.Active(roomID)
	if !ok || !rm.Delete(elementID) {
		s.metrics.Op("delete", "dropped")
		return false, nil
	}

	s.toRoom(roomID, event.ElementDeleted{ElementID: elementID}, "")
	s.metrics.Op("delete", "ok")
	return true, nil
}

// ClearBoard empties the room and tells everyone.
func (s *Service) ClearBoard(roomID, connID string) error {
	if roomID == "" {
		s.metrics.Op("clear", "rejected")
		return ErrMissingRoom
	}

	removed := s.rooms.GetOrCreate(roomID).Clear()
	s.toRoom(roomID, event.WhiteboardCleared{}, "")

	s.metrics.Op("clear", "ok")
	s.log.Debug("room.cleared", "room", roomID, "connectionId", connID, "removed", removed)
	return nil
}

// ChangeBackground sets the room background and tells everyone.
func (s *Service) ChangeBackground(roomID, connID, background string) error {
	if roomID == "" {
		s.metrics.Op("background", "rejected")
		return ErrMissingRoom
	}
	if background == "" {
		s.metrics.Op("background", "rejected")
		return ErrMissingBackground
	}
	background = s.validator.SanitizeString(background)
	if background == "" || len(background) > object.MaxColorLength {
		s.metrics.Op("background", "rejected")
		return ErrInvalidBackground
	}

	s.rooms.GetOrCreate(roomID).SetBackground(background)
	s.toRoom(roomID, event.BackgroundChanged{BackgroundColor: background}, "")

	s.metrics.Op("background", "ok")
	return nil
}

// Leave removes connID from roomID and tells the remaining members.
// Leaving a room one is not in does nothing.
func (s *Service) Leave(roomID, connID string) (bool, error) {
	if roomID == "" {
		s.metrics.Op("leave", "rejected")
		return false, ErrMissingRoom
	}

	if _, ok := s.members.Leave(roomID, connID); !ok {
		s.metrics.Op("leave", "dropped")
		return false, nil
	}
	s.touch(roomID)
	s.toRoom(roomID, event.UserLeft{RoomID: roomID, ConnectionID: connID}, "")

	s.metrics.Op("leave", "ok")
	s.log.Debug("room.left", "room", roomID, "connectionId", connID)
	return true, nil
}

// Disconnect is called by the transport when a connection closes. Every room
// the connection was in gets one member-left event.
func (s *Service) Disconnect(connID string) []string {
	left := s.members.Disconnect(connID)

	rooms := make([]string, 0, len(left))
	for roomID := range left {
		s.touch(roomID)
		s.toRoom(roomID, event.UserLeft{RoomID: roomID, ConnectionID: connID}, "")
		rooms = append(rooms, roomID)
	}

	s.metrics.Op("disconnect", "ok")
	if len(rooms) > 0 {
		s.log.Debug("connection.disconnected", "connectionId", connID, "rooms", len(rooms))
	}
	return rooms
}

// MoveCursor relays a cursor position to the other members of the room.
// Positions arriving faster than the per-member cursor limit are dropped.
func (s *Service) MoveCursor(roomID, connID string, x, y float64) (bool, error) {
	if roomID == "" {
		return false, ErrMissingRoom
	}
	if !finite(x) || !finite(y) {
		return false, ErrInvalidCursor
	}

	p, allowed := s.members.AllowCursor(roomID, connID)
	if !allowed {
		return false, nil
	}

	s.toRoom(roomID, event.CursorMoved{
		ConnectionID:  connID,
		ParticipantID: p.ID,
		Color:         p.Color,
		X:             x,
		Y:             y,
	}, connID)
	return true, nil
}

// touch keeps an existing room from looking idle without creating one.
func (s *Service) touch(roomID string) {
	s.rooms.Active(roomID)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
