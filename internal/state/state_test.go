package state

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "state", "markers.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestGetMissingMarker(t *testing.T) {
	db := openTestDB(t)

	m, err := db.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if m != nil {
		t.Fatalf("Get unknown session = %+v, want nil", m)
	}
}

func TestUpsertAndGet(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	syncedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	marker := &Marker{
		SessionID:       "abc123",
		SourcePath:      "/home/u/.claude/projects/-p/abc123.jsonl",
		SourceSize:      4096,
		SourceMtime:     syncedAt.UnixNano(),
		ContentHash:     "deadbeef",
		IncludeThinking: true,
		SyncedAt:        syncedAt,
	}
	if err := db.Upsert(ctx, marker); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := db.Get(ctx, "abc123")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil {
		t.Fatal("Get returned nil after Upsert")
	}
	if got.SourceSize != 4096 || got.ContentHash != "deadbeef" || !got.IncludeThinking {
		t.Errorf("marker = %+v", got)
	}
	if !got.SyncedAt.Equal(syncedAt) {
		t.Errorf("SyncedAt = %v, want %v", got.SyncedAt, syncedAt)
	}

	// second upsert replaces, not duplicates
	marker.ContentHash = "cafef00d"
	marker.SourceSize = 8192
	marker.IncludeThinking = false
	if err := db.Upsert(ctx, marker); err != nil {
		t.Fatalf("second Upsert: %v", err)
	}

	got, err = db.Get(ctx, "abc123")
	if err != nil {
		t.Fatalf("Get after update: %v", err)
	}
	if got.ContentHash != "cafef00d" || got.SourceSize != 8192 || got.IncludeThinking {
		t.Errorf("updated marker = %+v", got)
	}

	n, err := db.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}
}

func TestReopenPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "markers.db")
	ctx := context.Background()

	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	marker := &Marker{SessionID: "s1", SourcePath: "/p", ContentHash: "h", SyncedAt: time.Now()}
	if err := db.Upsert(ctx, marker); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()

	got, err := db.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if got == nil || got.ContentHash != "h" {
		t.Errorf("marker after reopen = %+v", got)
	}
}
