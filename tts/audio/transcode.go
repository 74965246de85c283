package audio

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"

	"github.com/charmbracelet/log"
)

// maxPCMSize caps transcoder output. A listening passage is a few minutes
// of mono speech; 20MB of PCM is well past that.
const maxPCMSize = 20 * 1024 * 1024

// FFmpeg converts compressed audio payloads (MP3 from the synthesis
// service) to signed 16-bit little-endian PCM via the ffmpeg binary.
type FFmpeg struct {
	cfg     Config
	tempDir string
}

// NewFFmpeg creates a transcoder targeting the given device configuration.
// tempDir may be empty to use the system temp directory.
func NewFFmpeg(cfg Config, tempDir string) *FFmpeg {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &FFmpeg{cfg: cfg, tempDir: tempDir}
}

// Available reports whether the ffmpeg binary can be found.
func (f *FFmpeg) Available() bool {
	_, err := exec.LookPath("ffmpeg")
	return err == nil
}

// ToPCM decodes the payload to raw PCM matching the player's device format.
func (f *FFmpeg) ToPCM(ctx context.Context, data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty audio payload")
	}

	in, err := os.CreateTemp(f.tempDir, "tts-*.audio")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(in.Name()) //nolint:errcheck
	defer in.Close()           //nolint:errcheck

	if _, err := in.Write(data); err != nil {
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if err := in.Close(); err != nil {
		return nil, fmt.Errorf("close temp file: %w", err)
	}

	args := []string{
		"-i", in.Name(),
		"-f", "s16le",
		"-ar", strconv.Itoa(f.cfg.SampleRate),
		"-ac", strconv.Itoa(f.cfg.Channels),
		"-", // stdout
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("transcode canceled: %w", ctx.Err())
		}
		log.Debug("ffmpeg failed", "stderr", stderr.String())
		return nil, fmt.Errorf("ffmpeg: %w", err)
	}

	pcm := stdout.Bytes()
	if len(pcm) == 0 {
		return nil, fmt.Errorf("ffmpeg produced no output")
	}
	if len(pcm) > maxPCMSize {
		return nil, fmt.Errorf("transcoded audio too large: %d bytes", len(pcm))
	}
	return pcm, nil
}
