// Package server hosts reactive graphs over WebSocket connections.
//
// Each connected client gets its own Session: one ripple.Graph confined to
// the session's event loop goroutine, a set of named input cells the client
// may write, and the observer outputs the session program emits back over
// the wire. The host application supplies a Program that builds the
// session's cells, expressions, and observers.
//
// The session loop is the scheduling point the engine requires: every
// inbound write is applied and flushed before the next frame is read, so a
// client always observes outputs consistent with its latest writes.
//
// Sessions persist their input cells to a snapshot.Store on close; a client
// reconnecting with its session ID resumes with the state it left behind.
package server
