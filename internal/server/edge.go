package server

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// SynthesizeFunc produces audio for text with the given neural voice and
// prosody. rate and pitch use the edge-tts notation ("-5%", "+0Hz").
type SynthesizeFunc func(ctx context.Context, text, voice, rate, pitch string) ([]byte, error)

// EdgeSynthesizer returns a SynthesizeFunc backed by the edge-tts CLI,
// which streams Microsoft Edge's neural voices. binary may be empty to use
// "edge-tts" from PATH.
func EdgeSynthesizer(binary string) SynthesizeFunc {
	if binary == "" {
		binary = "edge-tts"
	}

	return func(ctx context.Context, text, voice, rate, pitch string) ([]byte, error) {
		tmp, err := os.MkdirTemp("", "edge-tts-*")
		if err != nil {
			return nil, fmt.Errorf("create temp dir: %w", err)
		}
		defer os.RemoveAll(tmp) //nolint:errcheck

		out := filepath.Join(tmp, "out.mp3")
		args := []string{
			"--voice", voice,
			"--rate", rate,
			"--pitch", pitch,
			"--text", text,
			"--write-media", out,
		}

		var stderr bytes.Buffer
		cmd := exec.CommandContext(ctx, binary, args...)
		cmd.Stderr = &stderr

		if err := cmd.Run(); err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("synthesis canceled: %w", ctx.Err())
			}
			return nil, fmt.Errorf("%s: %w: %s", binary, err, stderr.String())
		}

		data, err := os.ReadFile(out)
		if err != nil {
			return nil, fmt.Errorf("read synthesized audio: %w", err)
		}
		if len(data) == 0 {
			return nil, fmt.Errorf("%s produced no audio", binary)
		}
		return data, nil
	}
}
