package cacheinfra

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
)

func openTestSQLiteSession(t *testing.T, path string) *SQLiteSession {
	t.Helper()
	session, err := OpenSQLiteSession(context.Background(), path)
	if err != nil {
		t.Fatalf("OpenSQLiteSession(%q) error = %v", path, err)
	}
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func TestOpenSQLiteSession_EmptyPath(t *testing.T) {
	_, err := OpenSQLiteSession(context.Background(), "  ")
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("OpenSQLiteSession() error = %v, want *ConfigError", err)
	}
}

func TestSQLiteSession_SetGetRemove(t *testing.T) {
	session := openTestSQLiteSession(t, ":memory:")

	if _, ok, err := session.GetItem("missing"); ok || err != nil {
		t.Fatalf("GetItem(missing) = ok %v, err %v, want miss", ok, err)
	}

	if err := session.SetItem("a", `{"value":1}`); err != nil {
		t.Fatalf("SetItem() error = %v", err)
	}
	if err := session.SetItem("a", `{"value":2}`); err != nil {
		t.Fatalf("SetItem() upsert error = %v", err)
	}

	got, ok, err := session.GetItem("a")
	if err != nil || !ok {
		t.Fatalf("GetItem(a) = ok %v, err %v", ok, err)
	}
	if got != `{"value":2}` {
		t.Errorf("GetItem(a) = %q, want the upserted value", got)
	}

	if err := session.RemoveItem("a"); err != nil {
		t.Fatalf("RemoveItem() error = %v", err)
	}
	if err := session.RemoveItem("a"); err != nil {
		t.Fatalf("RemoveItem() on missing key error = %v", err)
	}
	if _, ok, _ := session.GetItem("a"); ok {
		t.Error("GetItem(a) after RemoveItem() should miss")
	}
}

func TestSQLiteSession_KeysAndClear(t *testing.T) {
	session := openTestSQLiteSession(t, ":memory:")

	for _, key := range []string{"hybrid-cache:homepage:2", "hybrid-cache:homepage:1", "hybrid_cache", "other"} {
		if err := session.SetItem(key, "v"); err != nil {
			t.Fatalf("SetItem(%q) error = %v", key, err)
		}
	}

	keys, err := session.Keys("hybrid-cache:")
	if err != nil {
		t.Fatalf("Keys() error = %v", err)
	}
	want := []string{"hybrid-cache:homepage:1", "hybrid-cache:homepage:2"}
	if !reflect.DeepEqual(keys, want) {
		t.Errorf("Keys() = %v, want %v", keys, want)
	}

	all, err := session.Keys("")
	if err != nil {
		t.Fatalf("Keys(\"\") error = %v", err)
	}
	if len(all) != 4 {
		t.Errorf("Keys(\"\") returned %d keys, want 4", len(all))
	}

	if err := session.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if keys, _ := session.Keys(""); len(keys) != 0 {
		t.Errorf("Keys() after Clear() = %v, want none", keys)
	}
}

func TestSQLiteSession_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")

	first, err := OpenSQLiteSession(context.Background(), path)
	if err != nil {
		t.Fatalf("OpenSQLiteSession() error = %v", err)
	}
	if err := first.SetItem("hybrid-cache:homepage:1", "kept"); err != nil {
		t.Fatalf("SetItem() error = %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	second := openTestSQLiteSession(t, path)
	got, ok, err := second.GetItem("hybrid-cache:homepage:1")
	if err != nil || !ok {
		t.Fatalf("GetItem() after reopen = ok %v, err %v", ok, err)
	}
	if got != "kept" {
		t.Errorf("GetItem() after reopen = %q, want %q", got, "kept")
	}
}
