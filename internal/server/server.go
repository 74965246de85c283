// Package server implements the synthesis HTTP service the playback client
// consumes: GET /health, GET /voices, and GET/POST /tts returning an
// audio/mpeg payload. Synthesized audio is cached on disk so repeated
// passages cost one synthesis each.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"
)

// voiceMap assigns each speaker type the most natural sounding neural voice
// for it. Unknown speaker types fall back to female.
var voiceMap = map[string]string{
	// Students / casual
	"female":         "en-US-JennyNeural",
	"male":           "en-US-GuyNeural",
	"student_female": "en-US-AnaNeural",
	"student_male":   "en-US-EricNeural",

	// Academic / formal
	"lecturer":         "en-US-AndrewNeural",
	"professor":        "en-US-ChristopherNeural",
	"professor_female": "en-US-AvaNeural",

	// Utilities
	"duo":      "en-US-AriaNeural",
	"narrator": "en-US-BrianNeural",
}

// prosody holds rate and pitch adjustments in edge-tts notation.
type prosody struct {
	rate  string
	pitch string
}

var prosodyPresets = map[string]prosody{
	"default":      {rate: "-5%", pitch: "+0Hz"},  // slightly slower for clarity
	"lecture_slow": {rate: "-10%", pitch: "-2Hz"}, // deep and measured
	"conversation": {rate: "+0%", pitch: "+0Hz"},
}

// prosodyFor picks the prosody preset for a speaker type.
func prosodyFor(speaker string) prosody {
	switch speaker {
	case "lecturer", "professor":
		return prosodyPresets["lecture_slow"]
	case "student_male", "student_female":
		return prosodyPresets["conversation"]
	default:
		return prosodyPresets["default"]
	}
}

// Config holds server configuration.
type Config struct {
	Addr              string
	CacheDir          string
	EdgeBinary        string
	RequestsPerMinute int
	SynthesisTimeout  time.Duration
}

// DefaultConfig returns the default server configuration. The port matches
// what the playback client expects out of the box.
func DefaultConfig() Config {
	return Config{
		Addr:              ":3001",
		CacheDir:          "audio_cache",
		RequestsPerMinute: 50,
		SynthesisTimeout:  60 * time.Second,
	}
}

// Server serves the synthesis HTTP contract.
type Server struct {
	cfg     Config
	synth   SynthesizeFunc
	cache   *Cache
	limiter *rate.Limiter
	logger  *log.Logger
}

// New creates a server. synth may be nil to use the edge-tts CLI.
func New(cfg Config, synth SynthesizeFunc) (*Server, error) {
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 50
	}
	if cfg.SynthesisTimeout <= 0 {
		cfg.SynthesisTimeout = 60 * time.Second
	}
	if synth == nil {
		synth = EdgeSynthesizer(cfg.EdgeBinary)
	}

	cache, err := NewCache(cfg.CacheDir)
	if err != nil {
		return nil, err
	}

	return &Server{
		cfg:     cfg,
		synth:   synth,
		cache:   cache,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1),
		logger:  log.Default().WithPrefix("server"),
	}, nil
}

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.logRequests)
	r.Use(chimiddleware.Recoverer)
	r.Use(permissiveCORS)

	r.Get("/health", s.handleHealth)
	r.Get("/voices", s.handleVoices)
	r.Get("/tts", s.handleTTSQuery)
	r.Post("/tts", s.handleTTSBody)

	return r
}

// ListenAndServe runs the server until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("synthesis server listening", "addr", s.cfg.Addr)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("synthesis server: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "edge-tts-enhanced",
	})
}

func (s *Server) handleVoices(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, voiceMap)
}

func (s *Server) handleTTSQuery(w http.ResponseWriter, r *http.Request) {
	text := r.URL.Query().Get("text")
	speaker := r.URL.Query().Get("speaker")
	s.serveTTS(w, r, text, speaker)
}

func (s *Server) handleTTSBody(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text    string `json:"text"`
		Speaker string `json:"speaker"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	s.serveTTS(w, r, req.Text, req.Speaker)
}

func (s *Server) serveTTS(w http.ResponseWriter, r *http.Request, text, speaker string) {
	if text == "" {
		http.Error(w, "missing 'text'", http.StatusBadRequest)
		return
	}
	if speaker == "" {
		speaker = "female"
	}

	voice, ok := voiceMap[speaker]
	if !ok {
		voice = voiceMap["female"]
	}
	pros := prosodyFor(speaker)

	key := Key(text, voice, pros.rate, pros.pitch)
	if data, hit := s.cache.Get(key); hit {
		s.logger.Debug("served cached audio", "speaker", speaker, "voice", voice)
		writeAudio(w, data)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.SynthesisTimeout)
	defer cancel()

	if err := s.limiter.Wait(ctx); err != nil {
		http.Error(w, "rate limit wait canceled", http.StatusServiceUnavailable)
		return
	}

	s.logger.Info("synthesizing", "speaker", speaker, "voice", voice, "rate", pros.rate, "chars", len(text))
	data, err := s.synth(ctx, text, voice, pros.rate, pros.pitch)
	if err != nil {
		s.logger.Error("synthesis failed", "speaker", speaker, "error", err)
		http.Error(w, "synthesis failed", http.StatusInternalServerError)
		return
	}

	if err := s.cache.Put(key, data); err != nil {
		// A failed write only costs a re-synthesis next time.
		s.logger.Warn("caching audio failed", "error", err)
	}
	writeAudio(w, data)
}

func writeAudio(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// permissiveCORS mirrors the open CORS policy the practice UI depends on.
func permissiveCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// logRequests logs each request with its id, method, path and duration.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"id", chimiddleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}
