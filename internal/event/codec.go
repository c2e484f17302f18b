package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

var (
	ErrMissingType    = errors.New("missing message type")
	ErrMissingPayload = errors.New("missing payload")
)

// Codec turns envelopes into frames and frames into requests.
type Codec interface {
	// Name is the WebSocket subprotocol this codec is negotiated under.
	Name() string
	// Binary reports whether frames must be sent as binary messages.
	Binary() bool
	Encode(ev Event) ([]byte, error)
	DecodeRequest(data []byte) (Request, error)
	Unmarshal(data []byte, v any) error
}

const (
	JSONSubprotocol = "whiteboard.v1.json"
	CBORSubprotocol = "whiteboard.v1.cbor"
)

// Subprotocols lists the negotiable codecs, preferred first.
var Subprotocols = []string{JSONSubprotocol, CBORSubprotocol}

// ForSubprotocol returns the codec for a negotiated subprotocol.
// An empty or unknown name selects JSON.
func ForSubprotocol(name string) Codec {
	if name == CBORSubprotocol {
		return CBOR
	}
	return JSON
}

// =============================================================================
// JSON
// =============================================================================

type jsonCodec struct{}

// JSON is the default text codec.
var JSON Codec = jsonCodec{}

func (jsonCodec) Name() string { return JSONSubprotocol }
func (jsonCodec) Binary() bool { return false }

func (jsonCodec) Encode(ev Event) ([]byte, error) {
	b, err := json.Marshal(Wrap(ev))
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", ev.EventType(), err)
	}
	return b, nil
}

func (c jsonCodec) DecodeRequest(data []byte) (Request, error) {
	var raw struct {
		Type    RequestType     `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Request{}, fmt.Errorf("unmarshal base message: %w", err)
	}
	if raw.Type == "" {
		return Request{}, ErrMissingType
	}
	return Request{Type: raw.Type, payload: raw.Payload, codec: c}, nil
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// =============================================================================
// CBOR
// =============================================================================

var (
	cborEnc cbor.EncMode
	cborDec cbor.DecMode
)

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	// Keep sub-second precision for element timestamps
	encOptions.Time = cbor.TimeRFC3339Nano
	cborEnc, err = encOptions.EncMode()
	if err != nil {
		panic("event: CBOR encoder initialization failed: " + err.Error())
	}

	cborDec, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("event: CBOR decoder initialization failed: " + err.Error())
	}
}

type cborCodec struct{}

// CBOR is the binary codec. Field names follow the json tags.
var CBOR Codec = cborCodec{}

func (cborCodec) Name() string { return CBORSubprotocol }
func (cborCodec) Binary() bool { return true }

func (cborCodec) Encode(ev Event) ([]byte, error) {
	b, err := cborEnc.Marshal(Wrap(ev))
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", ev.EventType(), err)
	}
	return b, nil
}

func (c cborCodec) DecodeRequest(data []byte) (Request, error) {
	var raw struct {
		Type    RequestType     `json:"type"`
		Payload cbor.RawMessage `json:"payload"`
	}
	if err := cborDec.Unmarshal(data, &raw); err != nil {
		return Request{}, fmt.Errorf("unmarshal base message: %w", err)
	}
	if raw.Type == "" {
		return Request{}, ErrMissingType
	}
	return Request{Type: raw.Type, payload: raw.Payload, codec: c}, nil
}

func (cborCodec) Unmarshal(data []byte, v any) error {
	return cborDec.Unmarshal(data, v)
}
