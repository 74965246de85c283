package server

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// countingSynth is a scripted SynthesizeFunc that tallies invocations.
type countingSynth struct {
	mu    sync.Mutex
	calls int
	data  []byte
	err   error
	last  struct {
		text, voice, rate, pitch string
	}
}

func (c *countingSynth) fn() SynthesizeFunc {
	return func(_ context.Context, text, voice, rate, pitch string) ([]byte, error) {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.calls++
		c.last.text, c.last.voice, c.last.rate, c.last.pitch = text, voice, rate, pitch
		return c.data, c.err
	}
}

func (c *countingSynth) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func newTestServer(t *testing.T, synth *countingSynth) http.Handler {
	t.Helper()
	cfg := DefaultConfig()
	cfg.CacheDir = t.TempDir()
	cfg.RequestsPerMinute = 100000 // effectively unlimited for tests
	srv, err := New(cfg, synth.fn())
	if err != nil {
		t.Fatal(err)
	}
	return srv.Router()
}

// TestHealth verifies the reachability endpoint.
func TestHealth(t *testing.T) {
	h := newTestServer(t, &countingSynth{data: []byte("mp3")})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("unexpected content type %q", ct)
	}
}

// TestVoices verifies the voice map is exposed.
func TestVoices(t *testing.T) {
	h := newTestServer(t, &countingSynth{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/voices", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte("en-US-JennyNeural")) {
		t.Errorf("voices response missing expected voice: %s", rec.Body.String())
	}
}

// TestTTSQueryForm verifies GET /tts with query parameters.
func TestTTSQueryForm(t *testing.T) {
	synth := &countingSynth{data: []byte("audio-bytes")}
	h := newTestServer(t, synth)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tts?text=hello&speaker=lecturer", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "audio/mpeg" {
		t.Errorf("unexpected content type %q", ct)
	}
	if rec.Body.String() != "audio-bytes" {
		t.Errorf("unexpected payload %q", rec.Body.String())
	}
	if synth.last.voice != "en-US-AndrewNeural" {
		t.Errorf("lecturer should map to AndrewNeural, got %q", synth.last.voice)
	}
	if synth.last.rate != "-10%" {
		t.Errorf("lecturer should get the slow preset, got rate %q", synth.last.rate)
	}
}

// TestTTSJSONBody verifies POST /tts with a JSON body.
func TestTTSJSONBody(t *testing.T) {
	synth := &countingSynth{data: []byte("audio-bytes")}
	h := newTestServer(t, synth)

	body := bytes.NewBufferString(`{"text": "good morning", "speaker": "male"}`)
	req := httptest.NewRequest(http.MethodPost, "/tts", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if synth.last.text != "good morning" || synth.last.voice != "en-US-GuyNeural" {
		t.Errorf("unexpected synthesis args: %+v", synth.last)
	}
}

// TestTTSValidation verifies bad requests are rejected before synthesis.
func TestTTSValidation(t *testing.T) {
	synth := &countingSynth{data: []byte("audio")}
	h := newTestServer(t, synth)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tts", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing text: expected 400, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/tts", bytes.NewBufferString("not json"))
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad JSON: expected 400, got %d", rec.Code)
	}

	if synth.count() != 0 {
		t.Errorf("rejected requests must not synthesize, got %d calls", synth.count())
	}
}

// TestUnknownSpeakerFallsBackToFemale verifies the speaker fallback.
func TestUnknownSpeakerFallsBackToFemale(t *testing.T) {
	synth := &countingSynth{data: []byte("audio")}
	h := newTestServer(t, synth)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tts?text=hi&speaker=robot", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if synth.last.voice != "en-US-JennyNeural" {
		t.Errorf("unknown speaker should fall back to the female voice, got %q", synth.last.voice)
	}
}

// TestCacheHitSkipsSynthesis verifies repeated passages cost one synthesis.
func TestCacheHitSkipsSynthesis(t *testing.T) {
	synth := &countingSynth{data: []byte("cached-audio")}
	h := newTestServer(t, synth)

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tts?text=repeat+after+me&speaker=female", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rec.Code)
		}
		if rec.Body.String() != "cached-audio" {
			t.Errorf("request %d: unexpected payload %q", i, rec.Body.String())
		}
	}

	if synth.count() != 1 {
		t.Errorf("expected exactly 1 synthesis, got %d", synth.count())
	}
}

// TestSynthesisFailure verifies synthesis errors surface as 500s.
func TestSynthesisFailure(t *testing.T) {
	synth := &countingSynth{err: errors.New("edge-tts exploded")}
	h := newTestServer(t, synth)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tts?text=hi", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}

// TestCORSPreflight verifies the open CORS policy.
func TestCORSPreflight(t *testing.T) {
	h := newTestServer(t, &countingSynth{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/tts", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for preflight, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected wildcard origin, got %q", got)
	}
}

// TestCacheKeyStability verifies the key covers every synthesis input.
func TestCacheKeyStability(t *testing.T) {
	base := Key("hello", "en-US-JennyNeural", "-5%", "+0Hz")
	if base != Key("hello", "en-US-JennyNeural", "-5%", "+0Hz") {
		t.Error("identical inputs must produce identical keys")
	}
	variants := []string{
		Key("hello!", "en-US-JennyNeural", "-5%", "+0Hz"),
		Key("hello", "en-US-GuyNeural", "-5%", "+0Hz"),
		Key("hello", "en-US-JennyNeural", "-10%", "+0Hz"),
		Key("hello", "en-US-JennyNeural", "-5%", "-2Hz"),
	}
	for i, v := range variants {
		if v == base {
			t.Errorf("variant %d collided with the base key", i)
		}
	}
}
