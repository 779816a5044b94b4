package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"safeguard/internal/database"
)

func newSQLKV(t *testing.T) *SQLKV {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "kv.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Initialize(); err != nil {
		t.Fatalf("failed to initialize schema: %v", err)
	}
	return NewSQLKV(db)
}

func TestSQLKVGetMissingKey(t *testing.T) {
	kv := newSQLKV(t)

	_, ok, err := kv.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if ok {
		t.Error("missing key must report ok=false")
	}
}

func TestSQLKVSetGetOverwrite(t *testing.T) {
	kv := newSQLKV(t)
	ctx := context.Background()

	if err := kv.Set(ctx, PersistKey, "[]"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := kv.Set(ctx, PersistKey, `[{"content":"x"}]`); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}

	v, ok, err := kv.Get(ctx, PersistKey)
	if err != nil || !ok {
		t.Fatalf("Get failed: ok=%v err=%v", ok, err)
	}
	if v != `[{"content":"x"}]` {
		t.Errorf("unexpected value: %q", v)
	}
}

func TestAlertStoreOverSQLKV(t *testing.T) {
	kv := newSQLKV(t)
	ctx := context.Background()

	s := NewAlertStore(ctx, kv, nil)
	if err := s.Append(ctx, record("sql-backed", 0.9, time.Now().UTC())); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	reloaded := NewAlertStore(ctx, kv, nil)
	all := reloaded.All()
	if len(all) != 1 || all[0].Content != "sql-backed" {
		t.Errorf("expected the record to survive a reload, got %+v", all)
	}
}
