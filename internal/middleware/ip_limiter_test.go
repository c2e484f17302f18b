package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIPRateLimit_AllowPerIP(t *testing.T) {
	l := NewIPRateLimit(1, 2)

	assert.True(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))

	assert.True(t, l.Allow("10.0.0.2"))
}

func TestIPRateLimit_Cleanup(t *testing.T) {
	l := NewIPRateLimit(0, 0)
	l.Allow("10.0.0.1")
	l.Allow("10.0.0.2")

	assert.Zero(t, l.Cleanup(time.Hour))
	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, 2, l.Cleanup(time.Millisecond))
	assert.Zero(t, l.Cleanup(0))
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		remote string
		want   string
	}{
		{remote: "192.0.2.1:1234", want: "192.0.2.1"},
		{remote: "[2001:db8::1]:443", want: "2001:db8::1"},
		{remote: "no-port", want: "no-port"},
	}
	for _, tt := range tests {
		t.Run(tt.remote, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/ws", nil)
			r.RemoteAddr = tt.remote
			r.Header.Set("X-Forwarded-For", "203.0.113.9")
			assert.Equal(t, tt.want, ClientIP(r))
		})
	}
}
