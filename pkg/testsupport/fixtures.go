package testsupport

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// FixturePath returns name under the calling package's testdata directory.
func FixturePath(name string) string {
	return filepath.Join("testdata", name)
}

// ReadFile returns the contents of path or fails the test.
func ReadFile(t testing.TB, path string) []byte {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read fixture %s: %v", path, err)
	}
	return data
}

// DecodeJSON reads path and unmarshals it into dest.
func DecodeJSON(t testing.TB, path string, dest any) {
	t.Helper()

	if err := json.Unmarshal(ReadFile(t, path), dest); err != nil {
		t.Fatalf("decode fixture %s: %v", path, err)
	}
}

// SessionRecord reads a stored session value from testdata, trimmed the way
// SessionStorage would hold it.
func SessionRecord(t testing.TB, name string) string {
	t.Helper()
	return string(bytes.TrimSpace(ReadFile(t, FixturePath(name))))
}

// WriteJSON writes v as indented JSON, creating parent directories. Used to
// regenerate testdata after a format change.
func WriteJSON(t testing.TB, path string, v any) {
	t.Helper()

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		t.Fatalf("encode fixture %s: %v", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("create fixture dir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write fixture %s: %v", path, err)
	}
}
