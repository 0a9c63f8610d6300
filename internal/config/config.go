// Package config loads processing presets for the command line tools.
//
// A preset is a YAML document:
//
//	stream:
//	  speed: 1.5
//	  pitch: 1.0
//	  rate: 1.0
//	  volume: 0.8
//	  quality: high
//	chunk_frames: 4096
//	log:
//	  level: debug
//	  format: json
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	sonic "github.com/tphakala/go-audio-sonic"
	"github.com/tphakala/go-audio-sonic/internal/logger"
)

// DefaultChunkFrames matches the converter's default chunk size.
const DefaultChunkFrames = 2048

// Config is a complete processing preset.
type Config struct {
	Stream      sonic.Params  `yaml:"stream"`
	ChunkFrames int           `yaml:"chunk_frames"`
	Log         logger.Config `yaml:"log"`
}

// Default returns a preset that leaves audio unchanged.
func Default() *Config {
	return &Config{
		Stream:      sonic.DefaultParams(),
		ChunkFrames: DefaultChunkFrames,
		Log:         logger.DefaultConfig(),
	}
}

// Load reads and validates the preset at path. Keys missing from the file
// keep their Default values.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a preset from r on top of Default and validates it.
// Unknown keys are rejected.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every problem in the preset.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Stream.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("stream: %w", err))
	}
	if c.ChunkFrames <= 0 {
		errs = append(errs, fmt.Errorf("chunk_frames must be positive, got %d", c.ChunkFrames))
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}

	return errors.Join(errs...)
}
