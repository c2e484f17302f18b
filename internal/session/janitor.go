package session

import (
	"context"
	"time"
)

// SweepIdleRooms evicts rooms that have no members and have been idle for
// longer than idle. It returns the evicted room ids.
func (s *Service) SweepIdleRooms(idle time.Duration) []string {
	removed := s.rooms.Sweep(idle, func(roomID string) bool {
		return s.members.Count(roomID) > 0
	})
	s.metrics.Evicted(len(removed))
	if len(removed) > 0 {
		s.log.Info("rooms.evicted", "count", len(removed), "remaining", s.rooms.Count())
	}
	return removed
}

// RunJanitor sweeps idle rooms every interval until ctx is cancelled.
// A non-positive idle or interval disables eviction.
func (s *Service) RunJanitor(ctx context.Context, interval, idle time.Duration) {
	if interval <= 0 || idle <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepIdleRooms(idle)
		}
	}
}
