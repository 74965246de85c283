package passage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tiexiang0-alt/Mock-Test/tts"
)

func writePassages(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "passages.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// TestRole verifies speaker hints map onto known roles with a female
// default.
func TestRole(t *testing.T) {
	tests := []struct {
		speaker string
		want    tts.SpeakerRole
	}{
		{"female", tts.RoleFemale},
		{"MALE", tts.RoleMale},
		{"Lecturer", tts.RoleLecturer},
		{"duo", tts.RoleDuo},
		{"narrator", tts.RoleFemale},
		{"", tts.RoleFemale},
	}
	for _, tc := range tests {
		p := Passage{Speaker: tc.speaker}
		if got := p.Role(); got != tc.want {
			t.Errorf("Role(%q) = %s, want %s", tc.speaker, got, tc.want)
		}
	}
}

// TestLoad verifies loading and the empty-text filter.
func TestLoad(t *testing.T) {
	path := writePassages(t, `[
		{"title": "A", "speaker": "female", "text": "first passage"},
		{"title": "B", "speaker": "male", "text": "   "},
		{"title": "C", "speaker": "lecturer", "text": "third passage"}
	]`)

	passages, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(passages) != 2 {
		t.Fatalf("expected 2 usable passages, got %d", len(passages))
	}
	if passages[0].Title != "A" || passages[1].Title != "C" {
		t.Errorf("unexpected passages: %+v", passages)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected an error for a missing file")
	}

	path := writePassages(t, `{"not": "an array"}`)
	if _, err := Load(path); err == nil {
		t.Error("expected an error for malformed JSON")
	}

	path = writePassages(t, `[{"title": "empty", "speaker": "male", "text": ""}]`)
	if _, err := Load(path); err == nil {
		t.Error("expected an error when no passage has text")
	}
}

// TestBuiltin verifies the bundled set is usable as-is.
func TestBuiltin(t *testing.T) {
	passages := Builtin()
	if len(passages) == 0 {
		t.Fatal("builtin set is empty")
	}
	for _, p := range passages {
		if err := p.Request().Validate(); err != nil {
			t.Errorf("builtin passage %q: %v", p.Title, err)
		}
	}
}
