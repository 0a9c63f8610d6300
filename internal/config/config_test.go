package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sonic "github.com/tphakala/go-audio-sonic"
	"github.com/tphakala/go-audio-sonic/internal/logger"
)

func TestLoadFromReader_Full(t *testing.T) {
	const doc = `
stream:
  speed: 1.5
  pitch: 0.8
  rate: 1.0
  volume: 0.5
  quality: high
chunk_frames: 4096
log:
  level: debug
  format: json
`
	cfg, err := LoadFromReader(strings.NewReader(doc))
	require.NoError(t, err)

	assert.Equal(t, sonic.Params{Speed: 1.5, Pitch: 0.8, Rate: 1, Volume: 0.5, Quality: sonic.QualityHigh}, cfg.Stream)
	assert.Equal(t, 4096, cfg.ChunkFrames)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromReader_PartialKeepsDefaults(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader("stream:\n  speed: 2\n"))
	require.NoError(t, err)

	want := sonic.DefaultParams()
	want.Speed = 2
	assert.Equal(t, want, cfg.Stream)
	assert.Equal(t, DefaultChunkFrames, cfg.ChunkFrames)
	assert.Equal(t, logger.DefaultConfig(), cfg.Log)
}

func TestLoadFromReader_Empty(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFromReader_Errors(t *testing.T) {
	testCases := []struct {
		name string
		doc  string
		want string
	}{
		{"unknown key", "stream:\n  tempo: 2\n", "tempo"},
		{"bad speed", "stream:\n  speed: 0\n", "speed"},
		{"bad quality", "stream:\n  quality: ultra\n", "quality"},
		{"bad chunk", "chunk_frames: -1\n", "chunk_frames"},
		{"bad level", "log:\n  level: chatty\n", "log.level"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadFromReader(strings.NewReader(tc.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestValidate_JoinsErrors(t *testing.T) {
	cfg := Default()
	cfg.Stream.Speed = -1
	cfg.ChunkFrames = 0

	err := cfg.Validate()
	require.ErrorIs(t, err, sonic.ErrInvalidParameter)
	assert.Contains(t, err.Error(), "chunk_frames")
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preset.yaml")
	require.NoError(t, os.WriteFile(path, []byte("stream:\n  pitch: 1.25\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.InDelta(t, 1.25, cfg.Stream.Pitch, 0)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
