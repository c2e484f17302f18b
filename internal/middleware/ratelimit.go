package middleware

import (
	"golang.org/x/time/rate"
)

//  configuration for message and room limits
type Limits struct {
	MaxElements       int // per room, 0 = unlimited
	MaxMessageSize    int64
	MessagesPerSecond float64
	BurstSize         int
}

// NewLimits: creates a new Limits configuration
func NewLimits(maxElements int, maxMessageSize int64, messagesPerSecond float64, burstSize int) *Limits {
	return &Limits{
		MaxElements:       maxElements,
		MaxMessageSize:    maxMessageSize,
		MessagesPerSecond: messagesPerSecond,
		BurstSize:         burstSize,
	}
}

// ElementCap: per-room element limit to enforce on insert, 0 = unlimited
func (l *Limits) ElementCap() int {
	if l == nil || l.MaxElements <= 0 {
		return 0
	}
	return l.MaxElements
}

// ValidateMessageSize: checks if a message is within the size limit
func (l *Limits) ValidateMessageSize(msgSize int) bool {
	if l == nil || l.MaxMessageSize <= 0 {
		return true
	}
	return int64(msgSize) <= l.MaxMessageSize
}

// NewMessageLimiter: per-connection inbound message limiter
func (l *Limits) NewMessageLimiter() *rate.Limiter {
	if l == nil || l.MessagesPerSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := l.BurstSize
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(l.MessagesPerSecond), burst)
}
