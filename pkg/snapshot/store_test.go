package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestMemoryStoreSaveLoad(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()

	ctx := context.Background()
	data := []byte(`{"cells":{"temp_c":10}}`)

	if err := store.Save(ctx, "sess-1", data, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Load(ctx, "sess-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(got) != string(data) {
		t.Errorf("expected %s, got %s", data, got)
	}
}

func TestMemoryStoreLoadMissing(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()

	got, err := store.Load(context.Background(), "nope")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing snapshot, got %q", got)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()

	ctx := context.Background()
	store.Save(ctx, "sess-1", []byte("x"), time.Now().Add(-time.Second))

	got, err := store.Load(ctx, "sess-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != nil {
		t.Errorf("expected expired snapshot to be absent, got %q", got)
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()

	ctx := context.Background()
	store.Save(ctx, "sess-1", []byte("x"), time.Now().Add(time.Hour))

	if err := store.Delete(ctx, "sess-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got, _ := store.Load(ctx, "sess-1"); got != nil {
		t.Errorf("expected deleted snapshot to be absent")
	}

	// Deleting a missing snapshot is fine.
	if err := store.Delete(ctx, "sess-1"); err != nil {
		t.Errorf("delete missing: %v", err)
	}
}

func TestMemoryStoreClosed(t *testing.T) {
	store := NewMemoryStore()
	store.Close()

	ctx := context.Background()
	if err := store.Save(ctx, "a", []byte("x"), time.Now().Add(time.Hour)); !errors.As(err, &ErrStoreClosed{}) {
		t.Errorf("expected ErrStoreClosed on save, got %v", err)
	}
	if _, err := store.Load(ctx, "a"); !errors.As(err, &ErrStoreClosed{}) {
		t.Errorf("expected ErrStoreClosed on load, got %v", err)
	}

	// Close is idempotent.
	if err := store.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}
}

func TestMemoryStoreIsolatesCallerBuffer(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()

	ctx := context.Background()
	data := []byte("original")
	store.Save(ctx, "sess-1", data, time.Now().Add(time.Hour))
	data[0] = 'X'

	got, _ := store.Load(ctx, "sess-1")
	if string(got) != "original" {
		t.Errorf("store shares the caller's buffer: %q", got)
	}
}

func TestSnapshotEncodeDecodeRoundTrip(t *testing.T) {
	s := &Snapshot{
		SessionID: "sess-1",
		TakenAt:   time.Now().UTC().Truncate(time.Second),
		Cells: map[string]json.RawMessage{
			"temp_c": json.RawMessage(`-3`),
			"name":   json.RawMessage(`"kelvin"`),
		},
	}

	data, err := Encode(s)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	got, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.SessionID != "sess-1" {
		t.Errorf("expected sess-1, got %s", got.SessionID)
	}
	if got.Version != FormatVersion {
		t.Errorf("expected version %d, got %d", FormatVersion, got.Version)
	}
	if string(got.Cells["temp_c"]) != `-3` {
		t.Errorf("unexpected cell payload: %s", got.Cells["temp_c"])
	}
}

func TestSnapshotDecodeRejectsNewerVersion(t *testing.T) {
	data := []byte(`{"session_id":"s","version":99}`)
	if _, err := Decode(data); err == nil {
		t.Errorf("expected rejection of newer format version")
	}
}

func TestSQLStoreQueriesPerDialect(t *testing.T) {
	cases := []struct {
		dialect     SQLDialect
		wantSaveHas string
		wantLoadHas string
	}{
		{DialectPostgreSQL, "ON CONFLICT", "$1"},
		{DialectMySQL, "ON DUPLICATE KEY", "?"},
		{DialectSQLite, "INSERT OR REPLACE", "?"},
	}

	for _, tc := range cases {
		s := &SQLStore{tableName: "ripple_snapshots", dialect: tc.dialect}
		if q := s.saveQuery(); !strings.Contains(q, tc.wantSaveHas) {
			t.Errorf("dialect %d: save query missing %q:\n%s", tc.dialect, tc.wantSaveHas, q)
		}
		if q := s.loadQuery(); !strings.Contains(q, tc.wantLoadHas) {
			t.Errorf("dialect %d: load query missing %q:\n%s", tc.dialect, tc.wantLoadHas, q)
		}
		if q := s.saveQuery(); !strings.Contains(q, "ripple_snapshots") {
			t.Errorf("dialect %d: save query missing table name:\n%s", tc.dialect, q)
		}
	}
}
