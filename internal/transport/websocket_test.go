package transport_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"whiteboard/internal/event"
	"whiteboard/internal/handlers"
	"whiteboard/internal/middleware"
	"whiteboard/internal/session"
	"whiteboard/internal/transport"

	"github.com/fxamacker/cbor/v2"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type frame struct {
	Type    string
	Payload map[string]any
}

type testServer struct {
	*httptest.Server
	hub *transport.Hub
	svc *session.Service
}

func newTestServer(t *testing.T, cfg transport.HandlerConfig) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg.Logger = logger

	hub := transport.NewHub(logger, nil)
	svc := session.NewService(hub, session.Config{Logger: logger})
	router := handlers.NewMessageRouter(svc, logger)
	srv := httptest.NewServer(transport.NewHandler(hub, router, svc, cfg))
	t.Cleanup(srv.Close)

	return &testServer{Server: srv, hub: hub, svc: svc}
}

func (s *testServer) dial(t *testing.T, query, subprotocol string) *websocket.Conn {
	t.Helper()
	ws, resp, err := s.tryDial(query, subprotocol, nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { ws.Close() })
	return ws
}

func (s *testServer) tryDial(query, subprotocol string, header http.Header) (*websocket.Conn, *http.Response, error) {
	url := "ws" + strings.TrimPrefix(s.URL, "http") + "/" + query
	dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
	if subprotocol != "" {
		dialer.Subprotocols = []string{subprotocol}
	}
	return dialer.Dial(url, header)
}

func readFrame(t *testing.T, ws *websocket.Conn) frame {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	mt, data, err := ws.ReadMessage()
	require.NoError(t, err)

	var env struct {
		Type    string         `json:"type"`
		Version int            `json:"v"`
		Payload map[string]any `json:"payload"`
	}
	if mt == websocket.BinaryMessage {
		require.NoError(t, cbor.Unmarshal(data, &env))
	} else {
		require.NoError(t, json.Unmarshal(data, &env))
	}
	require.Equal(t, event.Version, env.Version)
	return frame{Type: env.Type, Payload: env.Payload}
}

// readUntil skips frames until one of type typ arrives
func readUntil(t *testing.T, ws *websocket.Conn, typ event.Type) frame {
	t.Helper()
	for i := 0; i < 20; i++ {
		f := readFrame(t, ws)
		if f.Type == string(typ) {
			return f
		}
	}
	t.Fatalf("no %s frame received", typ)
	return frame{}
}

func sendJSON(t *testing.T, ws *websocket.Conn, typ event.RequestType, payload any) {
	t.Helper()
	require.NoError(t, ws.WriteJSON(map[string]any{"type": typ, "payload": payload}))
}

func sendCBOR(t *testing.T, ws *websocket.Conn, typ event.RequestType, payload any) {
	t.Helper()
	b, err := cbor.Marshal(map[string]any{"type": string(typ), "payload": payload})
	require.NoError(t, err)
	require.NoError(t, ws.WriteMessage(websocket.BinaryMessage, b))
}

func TestHandler_JSONAndCBORClientsShareARoom(t *testing.T) {
	srv := newTestServer(t, transport.HandlerConfig{})

	alice := srv.dial(t, "?room=r1&participant=alice", event.JSONSubprotocol)
	assert.Equal(t, event.JSONSubprotocol, alice.Subprotocol())
	state := readFrame(t, alice)
	assert.Equal(t, string(event.TypeWhiteboardState), state.Type)
	assert.Equal(t, "r1", state.Payload["roomId"])
	readUntil(t, alice, event.TypeUserJoined)

	bob := srv.dial(t, "", event.CBORSubprotocol)
	assert.Equal(t, event.CBORSubprotocol, bob.Subprotocol())
	sendCBOR(t, bob, event.RequestJoin, map[string]any{"roomId": "r1", "participantId": "bob"})
	readUntil(t, bob, event.TypeWhiteboardState)

	joined := readUntil(t, alice, event.TypeUserJoined)
	assert.Equal(t, "bob", joined.Payload["participantId"])

	sendJSON(t, alice, event.RequestAddElement, map[string]any{
		"roomId": "r1",
		"element": map[string]any{
			"type":   "line",
			"points": []map[string]float64{{"x": 0, "y": 0}, {"x": 5, "y": 5}},
			"color":  "#000000",
		},
	})

	mine := readUntil(t, alice, event.TypeElementAdded)
	theirs := readUntil(t, bob, event.TypeElementAdded)
	id, _ := mine.Payload["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, id, theirs.Payload["id"])
	assert.Equal(t, "alice", theirs.Payload["createdBy"])

	sendCBOR(t, bob, event.RequestDeleteElement, map[string]any{"roomId": "r1", "elementId": id})
	deleted := readUntil(t, alice, event.TypeElementDeleted)
	assert.Equal(t, id, deleted.Payload["elementId"])
}

func TestHandler_DefaultsToJSONWithoutSubprotocol(t *testing.T) {
	srv := newTestServer(t, transport.HandlerConfig{})
	ws := srv.dial(t, "?room=r1", "")

	assert.Empty(t, ws.Subprotocol())
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	mt, _, err := ws.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, mt)
}

func TestHandler_BadMessagesDoNotCloseConnection(t *testing.T) {
	srv := newTestServer(t, transport.HandlerConfig{
		Limits: middleware.NewLimits(0, 256, 0, 0),
	})
	ws := srv.dial(t, "?room=r1", event.JSONSubprotocol)
	readUntil(t, ws, event.TypeUserJoined)

	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte("not json")))
	sendJSON(t, ws, "Teleport", map[string]any{})
	sendJSON(t, ws, event.RequestAddElement, map[string]any{"roomId": "r1", "element": map[string]any{"type": "blob"}})
	sendJSON(t, ws, event.RequestChangeBackground, map[string]any{"roomId": "r1", "backgroundColor": strings.Repeat("x", 300)})
	sendJSON(t, ws, event.RequestClearWhiteboard, map[string]any{"roomId": "r1"})

	cleared := readFrame(t, ws)
	assert.Equal(t, string(event.TypeWhiteboardCleared), cleared.Type)
}

func TestHandler_DisconnectNotifiesRoom(t *testing.T) {
	srv := newTestServer(t, transport.HandlerConfig{})
	stay := srv.dial(t, "?room=r1&participant=stay", event.JSONSubprotocol)
	readUntil(t, stay, event.TypeUserJoined)

	leave := srv.dial(t, "?room=r1&participant=leave", event.JSONSubprotocol)
	readUntil(t, leave, event.TypeUserJoined)
	readUntil(t, stay, event.TypeUserJoined)

	require.NoError(t, leave.Close())

	left := readUntil(t, stay, event.TypeUserLeft)
	assert.Equal(t, "r1", left.Payload["roomId"])
	assert.Eventually(t, func() bool {
		return srv.svc.Members().Count("r1") == 1 && srv.hub.Count() == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHandler_RejectsForeignOrigin(t *testing.T) {
	srv := newTestServer(t, transport.HandlerConfig{AllowedOrigins: []string{"https://board.example"}})

	_, resp, err := srv.tryDial("", "", http.Header{"Origin": {"https://evil.example"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	ws, resp, err := srv.tryDial("", "", http.Header{"Origin": {"https://BOARD.example"}})
	require.NoError(t, err)
	resp.Body.Close()
	ws.Close()
}

func TestHandler_ConnectionRateLimit(t *testing.T) {
	srv := newTestServer(t, transport.HandlerConfig{IPLimiter: middleware.NewIPRateLimit(1, 1)})

	ws, resp, err := srv.tryDial("", "", nil)
	require.NoError(t, err)
	resp.Body.Close()
	defer ws.Close()

	_, resp, err = srv.tryDial("", "", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}
