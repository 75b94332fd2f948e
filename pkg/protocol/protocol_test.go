package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	frame, err := Encode(TypeSet, Set{Cell: "temp_c", Value: json.RawMessage(`-3`)})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	env, err := Decode(frame)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Type != TypeSet {
		t.Errorf("expected set, got %s", env.Type)
	}

	var set Set
	if err := env.Payload(&set); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if set.Cell != "temp_c" || !bytes.Equal(set.Value, []byte(`-3`)) {
		t.Errorf("unexpected payload: %+v", set)
	}
}

func TestEncodeWithoutPayload(t *testing.T) {
	frame, err := Encode(TypePing, nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	env, err := Decode(frame)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Type != TypePing {
		t.Errorf("expected ping, got %s", env.Type)
	}
	if len(env.Data) != 0 {
		t.Errorf("expected empty data, got %q", env.Data)
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	cases := []struct {
		name  string
		frame string
	}{
		{"not json", `{{{`},
		{"missing type", `{"data":{}}`},
		{"empty", ``},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode([]byte(tc.frame))
			var decErr *DecodeError
			if !errors.As(err, &decErr) {
				t.Errorf("expected DecodeError, got %v", err)
			}
		})
	}
}

func TestDecodeRejectsOversizedFrame(t *testing.T) {
	huge := `{"type":"set","data":{"cell":"x","value":"` +
		strings.Repeat("a", MaxFrameSize) + `"}}`
	_, err := Decode([]byte(huge))
	if err == nil {
		t.Fatalf("expected oversized frame rejection")
	}
}

func TestPayloadErrors(t *testing.T) {
	env := Envelope{Type: TypeSet}
	var set Set
	if err := env.Payload(&set); err == nil {
		t.Errorf("expected error for missing payload")
	}

	env.Data = json.RawMessage(`"not an object"`)
	if err := env.Payload(&set); err == nil {
		t.Errorf("expected error for mistyped payload")
	}
}

func TestBatchRoundTrip(t *testing.T) {
	frame, err := Encode(TypeBatch, Batch{Sets: []Set{
		{Cell: "a", Value: json.RawMessage(`1`)},
		{Cell: "b", Value: json.RawMessage(`"two"`)},
	}})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	env, err := Decode(frame)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	var batch Batch
	if err := env.Payload(&batch); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if len(batch.Sets) != 2 || batch.Sets[1].Cell != "b" {
		t.Errorf("unexpected batch: %+v", batch)
	}
}
