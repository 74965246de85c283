package tts_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tiexiang0-alt/Mock-Test/tts"
)

// TestClientHealth verifies the reachability check against status codes.
func TestClientHealth(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{"ok", http.StatusOK, false},
		{"server error", http.StatusInternalServerError, true},
		{"not found", http.StatusNotFound, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/health" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				w.WriteHeader(tc.status)
			}))
			defer srv.Close()

			err := tts.NewClient(srv.URL).Health(context.Background())
			if tc.wantErr && !errors.Is(err, tts.ErrBackendUnreachable) {
				t.Errorf("expected ErrBackendUnreachable, got %v", err)
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

// TestClientHealthTimeout verifies a hung service counts as unreachable.
func TestClientHealthTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := tts.NewClient(srv.URL).Health(ctx); err == nil {
		t.Error("expected an error from a hung health endpoint")
	}
}

// TestClientSynthesize verifies the request body and the audio payload round
// trip.
func TestClientSynthesize(t *testing.T) {
	payload := []byte("binary-mp3-bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/tts" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body struct {
			Text    string `json:"text"`
			Speaker string `json:"speaker"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decoding request body: %v", err)
		}
		if body.Text != "hello world" || body.Speaker != "lecturer" {
			t.Errorf("unexpected body %+v", body)
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	data, err := tts.NewClient(srv.URL).Synthesize(context.Background(), "hello world", "lecturer")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != string(payload) {
		t.Errorf("payload mismatch: got %q", data)
	}
}

// TestClientSynthesizeErrors verifies failure shapes map to their sentinels.
func TestClientSynthesizeErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    error
	}{
		{
			"server error",
			func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
			tts.ErrSynthesisFailed,
		},
		{
			"non-audio content type",
			func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"error":"no"}`))
			},
			tts.ErrNotAudio,
		},
		{
			"empty payload",
			func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "audio/mpeg")
			},
			tts.ErrSynthesisFailed,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			_, err := tts.NewClient(srv.URL).Synthesize(context.Background(), "hi", "female")
			if !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

// TestClientVoices verifies the voices map decodes.
func TestClientVoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/voices" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"female":"en-US-AriaNeural","male":"en-US-GuyNeural"}`)
	}))
	defer srv.Close()

	voices, err := tts.NewClient(srv.URL).Voices(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if voices["female"] != "en-US-AriaNeural" {
		t.Errorf("unexpected voices map: %v", voices)
	}
}
