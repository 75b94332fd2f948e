// Package protocol defines the message vocabulary between a ripple session
// host and its clients. Frames are JSON envelopes with a type tag; payloads
// for value writes and observer emissions stay raw so the host never has to
// understand application payload shapes.
package protocol

import (
	"encoding/json"
	"fmt"
)

// MaxFrameSize is the largest inbound frame the host will decode.
const MaxFrameSize = 1 << 20

// MsgType tags an envelope with its payload kind.
type MsgType string

const (
	// TypeHello is sent by the server after a successful connect or resume.
	TypeHello MsgType = "hello"

	// TypeSet is a client write to a named input cell. The session applies
	// it and flushes.
	TypeSet MsgType = "set"

	// TypeBatch carries several writes applied together before one flush.
	TypeBatch MsgType = "batch"

	// TypeUpdate is a server-side observer emission.
	TypeUpdate MsgType = "update"

	// TypeError reports an engine or session error to the client.
	TypeError MsgType = "error"

	// TypePing and TypePong keep idle connections alive.
	TypePing MsgType = "ping"
	TypePong MsgType = "pong"
)

// Envelope is the wire frame: a type tag plus the raw payload.
type Envelope struct {
	Type MsgType         `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Hello announces the session to the client.
type Hello struct {
	SessionID string   `json:"session_id"`
	Resumed   bool     `json:"resumed"`
	Cells     []string `json:"cells,omitempty"`
}

// Set writes a value into a named input cell.
type Set struct {
	Cell  string          `json:"cell"`
	Value json.RawMessage `json:"value"`
}

// Batch applies several writes, then flushes once.
type Batch struct {
	Sets []Set `json:"sets"`
}

// Update is an observer emission pushed to the client.
type Update struct {
	Topic string          `json:"topic"`
	Value json.RawMessage `json:"value"`
	Seq   uint64          `json:"seq"`
}

// ErrorMsg surfaces an engine error to the client. Node is 0 when the error
// is not attributable to a single node.
type ErrorMsg struct {
	Node    uint64 `json:"node,omitempty"`
	Message string `json:"message"`
}

// DecodeError reports a malformed or oversized frame.
type DecodeError struct {
	Reason string
}

func (e *DecodeError) Error() string {
	return "protocol: " + e.Reason
}

// Encode wraps a payload in an envelope and marshals it.
func Encode(t MsgType, payload any) ([]byte, error) {
	env := Envelope{Type: t}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("protocol: encode %s: %w", t, err)
		}
		env.Data = data
	}
	return json.Marshal(env)
}

// Decode parses a frame into an envelope. The payload stays raw; use
// Envelope.Payload to project it onto a typed message.
func Decode(frame []byte) (Envelope, error) {
	var env Envelope
	if len(frame) > MaxFrameSize {
		return env, &DecodeError{Reason: fmt.Sprintf("frame of %d bytes exceeds limit", len(frame))}
	}
	if err := json.Unmarshal(frame, &env); err != nil {
		return env, &DecodeError{Reason: "malformed frame: " + err.Error()}
	}
	if env.Type == "" {
		return env, &DecodeError{Reason: "missing type tag"}
	}
	return env, nil
}

// Payload unmarshals the envelope's raw data into a typed message.
func (e Envelope) Payload(into any) error {
	if len(e.Data) == 0 {
		return &DecodeError{Reason: fmt.Sprintf("%s frame has no payload", e.Type)}
	}
	if err := json.Unmarshal(e.Data, into); err != nil {
		return &DecodeError{Reason: fmt.Sprintf("bad %s payload: %s", e.Type, err)}
	}
	return nil
}
