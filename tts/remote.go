package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxPayloadSize caps the synthesis response body. A full listening passage
// encodes to a few hundred kilobytes of MP3; anything near this limit means
// the server is misbehaving.
const maxPayloadSize = 50 * 1024 * 1024

// synthesisRequest is the JSON body of POST /tts.
type synthesisRequest struct {
	Text    string `json:"text"`
	Speaker string `json:"speaker"`
}

// Client talks to the remote neural-voice synthesis service.
//
// The service contract: GET /health answers 200 when the service is up,
// POST /tts takes {text, speaker} and answers a binary audio/* payload, and
// GET /voices answers a JSON map of speaker roles to voice identifiers.
type Client struct {
	baseURL string
	hc      *http.Client
}

// NewClient creates a synthesis client for the service at baseURL. The
// client carries no request timeout of its own; callers bound every call
// through the context.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{},
	}
}

// Health performs a reachability check. Any non-200 status, network error,
// or context deadline counts as unreachable.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("build health request: %w", err)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBackendUnreachable, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: health status %d", ErrBackendUnreachable, resp.StatusCode)
	}
	return nil
}

// Synthesize requests audio for the given text and speaker role. The text
// travels in the POST body so passage length is unconstrained by the URL.
func (c *Client) Synthesize(ctx context.Context, text, speaker string) ([]byte, error) {
	body, err := json.Marshal(synthesisRequest{Text: text, Speaker: speaker})
	if err != nil {
		return nil, fmt.Errorf("encode synthesis request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/tts", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build synthesis request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSynthesisFailed, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", ErrSynthesisFailed, resp.StatusCode)
	}

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "audio/") {
		return nil, fmt.Errorf("%w: content-type %q", ErrNotAudio, ct)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read payload: %w", ErrSynthesisFailed, err)
	}
	if len(data) > maxPayloadSize {
		return nil, ErrPayloadTooLarge
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrSynthesisFailed)
	}
	return data, nil
}

// Voices fetches the role-to-voice map the service exposes. Introspection
// only; playback never depends on it.
func (c *Client) Voices(ctx context.Context) (map[string]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/voices", nil)
	if err != nil {
		return nil, fmt.Errorf("build voices request: %w", err)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBackendUnreachable, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("voices status %d", resp.StatusCode)
	}

	voices := make(map[string]string)
	if err := json.NewDecoder(resp.Body).Decode(&voices); err != nil {
		return nil, fmt.Errorf("decode voices: %w", err)
	}
	return voices, nil
}

// Ensure Client implements the Backend interface.
var _ Backend = (*Client)(nil)
