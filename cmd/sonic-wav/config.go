package main

import (
	sonic "github.com/tphakala/go-audio-sonic"
	"github.com/tphakala/go-audio-sonic/internal/config"
)

// resolveConfig loads the preset, if any, and applies the flags that were
// given on top of it.
func resolveConfig(cli *CLI) (*config.Config, error) {
	cfg := config.Default()
	if cli.Preset != "" {
		loaded, err := config.Load(cli.Preset)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if cli.Speed != nil {
		cfg.Stream.Speed = *cli.Speed
	}
	if cli.Pitch != nil {
		cfg.Stream.Pitch = *cli.Pitch
	}
	if cli.Rate != nil {
		cfg.Stream.Rate = *cli.Rate
	}
	if cli.Volume != nil {
		cfg.Stream.Volume = *cli.Volume
	}
	if cli.Quality != "" {
		q, err := sonic.ParseQuality(cli.Quality)
		if err != nil {
			return nil, err
		}
		cfg.Stream.Quality = q
	}
	if cli.Chunk > 0 {
		cfg.ChunkFrames = cli.Chunk
	}

	if cli.LogLevel != "" {
		cfg.Log.Level = cli.LogLevel
	}
	if cli.LogFormat != "" {
		cfg.Log.Format = cli.LogFormat
	}
	if cli.LogFile != "" {
		cfg.Log.File.Enabled = true
		cfg.Log.File.Path = cli.LogFile
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
