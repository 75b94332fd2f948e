package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ripple-dev/ripple/pkg/protocol"
	"github.com/ripple-dev/ripple/pkg/ripple"
	"github.com/ripple-dev/ripple/pkg/snapshot"
)

// Program builds a session's reactive graph: its input cells, derived
// expressions, and the observers that emit output to the client. It runs
// once per session, on the session's event loop goroutine.
type Program func(sess *Session) error

// wsConn is the subset of *websocket.Conn the session uses.
// Narrowed for testability.
type wsConn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetReadLimit(limit int64)
	Close() error
}

// Session is one client's reactive graph plus its transport. All session
// state is confined to the event loop goroutine: inbound frames are applied
// and flushed one at a time, which is what gives the graph its single
// logical timeline.
type Session struct {
	id    string
	graph *ripple.Graph
	conn  wsConn

	cells     map[string]*ripple.Value[json.RawMessage]
	cellOrder []string

	// restored holds snapshot payloads consumed by Input during program
	// setup, so observers' first runs already see resumed state.
	restored map[string]json.RawMessage
	resumed  bool

	seq uint64

	// started flips once the Hello frame is on the wire. Frames produced
	// earlier (observer first runs during program setup) are held back so
	// Hello is always the first thing a client sees.
	started bool
	outbox  [][]byte

	logger  *slog.Logger
	metrics *Metrics
	tracer  trace.Tracer
	store   snapshot.Store
	ttl     time.Duration

	closed bool
}

// ID returns the session identifier clients use to resume.
func (s *Session) ID() string {
	return s.id
}

// Graph returns the session's reactive graph for the program to build on.
func (s *Session) Graph() *ripple.Graph {
	return s.graph
}

// Resumed reports whether the session was restored from a snapshot.
func (s *Session) Resumed() bool {
	return s.resumed
}

// Input registers a named input cell the client may write. If the session
// resumed from a snapshot, the persisted payload wins over initial.
// Registering the same name twice returns the existing cell.
func (s *Session) Input(name string, initial json.RawMessage) *ripple.Value[json.RawMessage] {
	if cell, ok := s.cells[name]; ok {
		return cell
	}
	if persisted, ok := s.restored[name]; ok {
		initial = persisted
	}
	cell := ripple.NewValue(s.graph, initial).WithEquals(func(a, b json.RawMessage) bool {
		return bytes.Equal(a, b)
	})
	s.cells[name] = cell
	s.cellOrder = append(s.cellOrder, name)
	return cell
}

// Emit pushes an observer output to the client. Typically called from
// observer bodies; the session loop guarantees no two emissions interleave.
func (s *Session) Emit(topic string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("server: emit %s: %w", topic, err)
	}
	s.seq++
	frame, err := protocol.Encode(protocol.TypeUpdate, protocol.Update{
		Topic: topic,
		Value: data,
		Seq:   s.seq,
	})
	if err != nil {
		return err
	}
	s.metrics.updatesSent.Inc()
	return s.writeFrame(frame)
}

// writeFrame sends a frame, or parks it until the Hello goes out.
func (s *Session) writeFrame(frame []byte) error {
	if !s.started {
		s.outbox = append(s.outbox, frame)
		return nil
	}
	return s.conn.WriteMessage(websocket.TextMessage, frame)
}

// reportEngineError is installed as the graph's error reporter: log it,
// count it, and tell the client.
func (s *Session) reportEngineError(id ripple.NodeID, err error) {
	s.logger.Error("engine error",
		"session", s.id,
		"node", uint64(id),
		"err", err,
	)
	s.metrics.engineErrors.Inc()
	s.sendError(uint64(id), err.Error())
}

func (s *Session) sendError(node uint64, msg string) {
	frame, err := protocol.Encode(protocol.TypeError, protocol.ErrorMsg{
		Node:    node,
		Message: msg,
	})
	if err != nil {
		return
	}
	s.writeFrame(frame)
}

func (s *Session) sendHello() error {
	frame, err := protocol.Encode(protocol.TypeHello, protocol.Hello{
		SessionID: s.id,
		Resumed:   s.resumed,
		Cells:     s.cellOrder,
	})
	if err != nil {
		return err
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return err
	}
	s.started = true
	for _, held := range s.outbox {
		if err := s.conn.WriteMessage(websocket.TextMessage, held); err != nil {
			return err
		}
	}
	s.outbox = nil
	return nil
}

// run is the session event loop. It returns when the connection drops or
// the frame stream ends.
func (s *Session) run(ctx context.Context) {
	for {
		_, frame, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure,
				websocket.CloseAbnormalClosure) {
				s.logger.Warn("session read failed", "session", s.id, "err", err)
			}
			return
		}
		s.handleFrame(ctx, frame)
	}
}

// handleFrame applies one inbound frame. Writes are applied and flushed
// before the loop reads the next frame.
func (s *Session) handleFrame(ctx context.Context, frame []byte) {
	env, err := protocol.Decode(frame)
	if err != nil {
		s.metrics.decodeErrors.Inc()
		s.sendError(0, err.Error())
		return
	}
	s.metrics.eventsTotal.WithLabelValues(string(env.Type)).Inc()

	_, span := s.tracer.Start(ctx, "ripple.event", trace.WithAttributes(
		attribute.String("session.id", s.id),
		attribute.String("event.type", string(env.Type)),
	))
	defer span.End()

	switch env.Type {
	case protocol.TypeSet:
		var set protocol.Set
		if err := env.Payload(&set); err != nil {
			s.metrics.decodeErrors.Inc()
			s.sendError(0, err.Error())
			span.SetStatus(codes.Error, err.Error())
			return
		}
		span.SetAttributes(attribute.String("cell", set.Cell))
		if err := s.applySet(set); err != nil {
			s.sendError(0, err.Error())
			span.SetStatus(codes.Error, err.Error())
			return
		}
		s.flush()

	case protocol.TypeBatch:
		var batch protocol.Batch
		if err := env.Payload(&batch); err != nil {
			s.metrics.decodeErrors.Inc()
			s.sendError(0, err.Error())
			span.SetStatus(codes.Error, err.Error())
			return
		}
		span.SetAttributes(attribute.Int("batch.size", len(batch.Sets)))
		for _, set := range batch.Sets {
			if err := s.applySet(set); err != nil {
				s.sendError(0, err.Error())
			}
		}
		// One flush for the whole batch: observers see the final state.
		s.flush()

	case protocol.TypePing:
		frame, err := protocol.Encode(protocol.TypePong, nil)
		if err == nil {
			s.conn.WriteMessage(websocket.TextMessage, frame)
		}

	default:
		s.sendError(0, fmt.Sprintf("unsupported frame type %q", env.Type))
		span.SetStatus(codes.Error, "unsupported frame type")
	}
}

// applySet writes a payload into a named cell. Unknown cells are rejected;
// the client's writable surface is exactly what the program registered.
func (s *Session) applySet(set protocol.Set) error {
	cell, ok := s.cells[set.Cell]
	if !ok {
		return fmt.Errorf("server: unknown cell %q", set.Cell)
	}
	cell.Set(set.Value)
	return nil
}

func (s *Session) flush() {
	start := time.Now()
	s.graph.Flush()
	s.metrics.flushDuration.Observe(time.Since(start).Seconds())
}

// close saves the snapshot and releases the connection. Idempotent.
func (s *Session) close(ctx context.Context) {
	if s.closed {
		return
	}
	s.closed = true

	s.saveSnapshot(ctx)
	s.conn.Close()
}

// saveSnapshot persists the current input-cell payloads so the client can
// resume. Derived state is not persisted; the program rebuilds it.
func (s *Session) saveSnapshot(ctx context.Context) {
	if len(s.cells) == 0 {
		return
	}
	cells := make(map[string]json.RawMessage, len(s.cells))
	for name, cell := range s.cells {
		cells[name] = cell.Peek()
	}
	data, err := snapshot.Encode(&snapshot.Snapshot{
		SessionID: s.id,
		TakenAt:   time.Now().UTC(),
		Cells:     cells,
	})
	if err != nil {
		s.logger.Error("snapshot encode failed", "session", s.id, "err", err)
		s.metrics.snapshotErrors.Inc()
		return
	}
	if err := s.store.Save(ctx, s.id, data, time.Now().Add(s.ttl)); err != nil {
		s.logger.Error("snapshot save failed", "session", s.id, "err", err)
		s.metrics.snapshotErrors.Inc()
	}
}
