package server

import (
	"crypto/md5" //nolint:gosec // cache key, not a security boundary
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

// Cache is an on-disk MP3 cache keyed by the synthesis parameters, so a
// passage is only synthesized once per voice and prosody.
type Cache struct {
	dir string
}

// NewCache opens (creating if needed) a cache directory.
func NewCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &Cache{dir: dir}, nil
}

// Key derives the cache key from everything that shapes the audio.
func Key(text, voice, rate, pitch string) string {
	sum := md5.Sum([]byte(voice + ":" + rate + ":" + pitch + ":" + text)) //nolint:gosec
	return hex.EncodeToString(sum[:])
}

// Get returns the cached audio for key, if present.
func (c *Cache) Get(key string) ([]byte, bool) {
	data, err := os.ReadFile(c.path(key))
	if err != nil {
		return nil, false
	}
	return data, true
}

// Put stores audio under key.
func (c *Cache) Put(key string, data []byte) error {
	return os.WriteFile(c.path(key), data, 0o644)
}

func (c *Cache) path(key string) string {
	return filepath.Join(c.dir, key+".mp3")
}
