package handlers

import (
	"errors"
	"testing"

	"whiteboard/internal/event"
	"whiteboard/internal/object"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	op     string
	roomID string
	connID string
	arg    any
}

type fakeWhiteboard struct {
	calls []call
	err   error
}

func (f *fakeWhiteboard) record(op, roomID, connID string, arg any) {
	f.calls = append(f.calls, call{op: op, roomID: roomID, connID: connID, arg: arg})
}

func (f *fakeWhiteboard) Join(roomID, connID, participantID string) error {
	f.record("join", roomID, connID, participantID)
	return f.err
}

func (f *fakeWhiteboard) Leave(roomID, connID string) (bool, error) {
	f.record("leave", roomID, connID, nil)
	return true, f.err
}

func (f *fakeWhiteboard) AddElement(roomID, connID string, in object.Element) (object.Element, error) {
	f.record("add", roomID, connID, in)
	in.ID = "generated"
	return in, f.err
}

func (f *fakeWhiteboard) UpdateElement(roomID, connID string, in object.Element) (bool, error) {
	f.record("update", roomID, connID, in)
	return false, f.err
}

func (f *fakeWhiteboard) DeleteElement(roomID, connID, elementID string) (bool, error) {
	f.record("delete", roomID, connID, elementID)
	return false, f.err
}

func (f *fakeWhiteboard) ClearBoard(roomID, connID string) error {
	f.record("clear", roomID, connID, nil)
	return f.err
}

func (f *fakeWhiteboard) ChangeBackground(roomID, connID, background string) error {
	f.record("background", roomID, connID, background)
	return f.err
}

func (f *fakeWhiteboard) MoveCursor(roomID, connID string, x, y float64) (bool, error) {
	f.record("cursor", roomID, connID, [2]float64{x, y})
	return true, f.err
}

func decode(t *testing.T, raw string) event.Request {
	t.Helper()
	req, err := event.JSON.DecodeRequest([]byte(raw))
	require.NoError(t, err)
	return req
}

func TestMessageRouter_Route(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want call
	}{
		{
			name: "join",
			raw:  `{"type":"JoinWhiteboard","payload":{"roomId":"r1","participantId":"alice"}}`,
			want: call{op: "join", roomID: "r1", connID: "c1", arg: "alice"},
		},
		{
			name: "leave",
			raw:  `{"type":"LeaveWhiteboard","payload":{"roomId":"r1"}}`,
			want: call{op: "leave", roomID: "r1", connID: "c1"},
		},
		{
			name: "add",
			raw:  `{"type":"AddElement","payload":{"roomId":"r1","element":{"type":"circle","points":[{"x":1,"y":1},{"x":2,"y":2}]}}}`,
			want: call{op: "add", roomID: "r1", connID: "c1", arg: object.Element{
				Type:   object.TypeCircle,
				Points: []object.Point{{X: 1, Y: 1}, {X: 2, Y: 2}},
			}},
		},
		{
			name: "update",
			raw:  `{"type":"UpdateElement","payload":{"roomId":"r1","element":{"id":"e1","color":"#fff"}}}`,
			want: call{op: "update", roomID: "r1", connID: "c1", arg: object.Element{ID: "e1", Color: "#fff"}},
		},
		{
			name: "delete",
			raw:  `{"type":"DeleteElement","payload":{"roomId":"r1","elementId":"e1"}}`,
			want: call{op: "delete", roomID: "r1", connID: "c1", arg: "e1"},
		},
		{
			name: "clear",
			raw:  `{"type":"ClearWhiteboard","payload":{"roomId":"r1"}}`,
			want: call{op: "clear", roomID: "r1", connID: "c1"},
		},
		{
			name: "background",
			raw:  `{"type":"ChangeBackground","payload":{"roomId":"r1","backgroundColor":"#eee"}}`,
			want: call{op: "background", roomID: "r1", connID: "c1", arg: "#eee"},
		},
		{
			name: "cursor",
			raw:  `{"type":"MoveCursor","payload":{"roomId":"r1","x":3,"y":4}}`,
			want: call{op: "cursor", roomID: "r1", connID: "c1", arg: [2]float64{3, 4}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wb := &fakeWhiteboard{}
			router := NewMessageRouter(wb, nil)

			require.NoError(t, router.Route("c1", decode(t, tt.raw)))
			require.Len(t, wb.calls, 1)
			assert.Equal(t, tt.want, wb.calls[0])
		})
	}
}

func TestMessageRouter_Errors(t *testing.T) {
	t.Run("unknown type", func(t *testing.T) {
		wb := &fakeWhiteboard{}
		err := NewMessageRouter(wb, nil).Route("c1", decode(t, `{"type":"Teleport","payload":{}}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown message type: Teleport")
		assert.Empty(t, wb.calls)
	})

	t.Run("missing payload", func(t *testing.T) {
		wb := &fakeWhiteboard{}
		err := NewMessageRouter(wb, nil).Route("c1", decode(t, `{"type":"ClearWhiteboard"}`))
		assert.ErrorIs(t, err, event.ErrMissingPayload)
		assert.Empty(t, wb.calls)
	})

	t.Run("malformed payload", func(t *testing.T) {
		wb := &fakeWhiteboard{}
		err := NewMessageRouter(wb, nil).Route("c1", decode(t, `{"type":"DeleteElement","payload":{"elementId":7}}`))
		assert.Error(t, err)
		assert.Empty(t, wb.calls)
	})

	t.Run("service error is returned", func(t *testing.T) {
		boom := errors.New("boom")
		wb := &fakeWhiteboard{err: boom}
		err := NewMessageRouter(wb, nil).Route("c1", decode(t, `{"type":"AddElement","payload":{"roomId":"r1","element":{}}}`))
		assert.ErrorIs(t, err, boom)
	})
}
