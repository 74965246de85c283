package passage

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestWatcherReloadsOnWrite verifies a rewrite of the passage file reaches
// the callback with the new set.
func TestWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "passages.json")
	if err := os.WriteFile(path, []byte(`[{"title":"A","speaker":"female","text":"one"}]`), 0o644); err != nil {
		t.Fatal(err)
	}

	reloaded := make(chan []Passage, 4)
	w, err := NewWatcher(path, func(ps []Passage) { reloaded <- ps })
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close() //nolint:errcheck

	if err := os.WriteFile(path, []byte(`[{"title":"B","speaker":"male","text":"two"}]`), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case ps := <-reloaded:
		if len(ps) != 1 || ps[0].Title != "B" {
			t.Errorf("unexpected reload result: %+v", ps)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("reload callback never fired")
	}
}

// TestWatcherKeepsPreviousOnBadWrite verifies a malformed rewrite is skipped
// rather than delivered.
func TestWatcherKeepsPreviousOnBadWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "passages.json")
	if err := os.WriteFile(path, []byte(`[{"title":"A","speaker":"female","text":"one"}]`), 0o644); err != nil {
		t.Fatal(err)
	}

	reloaded := make(chan []Passage, 4)
	w, err := NewWatcher(path, func(ps []Passage) { reloaded <- ps })
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close() //nolint:errcheck

	if err := os.WriteFile(path, []byte(`this is not json`), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case ps := <-reloaded:
		t.Errorf("malformed file must not be delivered, got %+v", ps)
	case <-time.After(300 * time.Millisecond):
	}
}

// TestWatcherIgnoresSiblingFiles verifies changes to other files in the
// directory do not trigger a reload.
func TestWatcherIgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "passages.json")
	if err := os.WriteFile(path, []byte(`[{"title":"A","speaker":"female","text":"one"}]`), 0o644); err != nil {
		t.Fatal(err)
	}

	reloaded := make(chan []Passage, 4)
	w, err := NewWatcher(path, func(ps []Passage) { reloaded <- ps })
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close() //nolint:errcheck

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("unrelated"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case ps := <-reloaded:
		t.Errorf("sibling write must not trigger a reload, got %+v", ps)
	case <-time.After(300 * time.Millisecond):
	}
}
