package app

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	t.Run("prod writes json", func(t *testing.T) {
		var buf bytes.Buffer
		NewLogger(&buf, "prod", "info").Info("room.joined", "room", "r1")

		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		assert.Equal(t, "room.joined", line["msg"])
		assert.Equal(t, "r1", line["room"])
	})

	t.Run("dev writes text", func(t *testing.T) {
		var buf bytes.Buffer
		NewLogger(&buf, "dev", "info").Info("room.joined", "room", "r1")
		assert.Contains(t, buf.String(), "msg=room.joined")
		assert.Contains(t, buf.String(), "room=r1")
	})

	t.Run("level filters", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewLogger(&buf, "dev", "warn")
		log.Info("hidden")
		log.Warn("shown")
		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "shown")
	})

	t.Run("unknown level falls back to info", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewLogger(&buf, "dev", "loud")
		log.Debug("hidden")
		log.Info("shown")
		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "shown")
	})
}
