package session

import (
	"whiteboard/internal/event"
)

// toConn: sends ev to a single connection
func (s *Service) toConn(connID string, ev event.Event) {
	s.deliver(ev, []string{connID})
}

// toRoom: sends ev to every member of roomID except the connection in except
// (empty except means the whole room)
func (s *Service) toRoom(roomID string, ev event.Event, except string) {
	s.deliver(ev, s.members.ConnectionsOf(roomID, except))
}

// deliver hands ev to the transport once per recipient. A failing recipient
// is logged and skipped; it never stops delivery to the others.
func (s *Service) deliver(ev event.Event, recipients []string) int {
	evType := string(ev.EventType())
	delivered := 0

	for _, connID := range recipients {
		if err := s.transport.Send(connID, ev); err != nil {
			s.log.Warn("broadcast.failed", "type", evType, "connectionId", connID, "err", err)
			s.metrics.SendFailed(evType)
			continue
		}
		s.metrics.Sent(evType)
		delivered++
	}
	return delivered
}
