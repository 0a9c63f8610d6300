// Package logger builds the zap logger used by the command line tools.
package logger

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// ErrInvalidLevel is returned for an unrecognised level name.
var ErrInvalidLevel = errors.New("invalid log level")

const (
	defaultFileName  = "sonic.log"
	defaultMaxSizeMB = 50
	timeLayout       = "2006-01-02 15:04:05.000"
)

// Config selects the level, encoding and destinations of log output.
type Config struct {
	Level  string     `yaml:"level"`
	Format string     `yaml:"format"` // "console" or "json"
	Stderr bool       `yaml:"stderr"`
	File   FileConfig `yaml:"file"`
}

// FileConfig enables a rotating log file.
type FileConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Path       string `yaml:"path"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// DefaultConfig logs info and above to stderr in console format.
func DefaultConfig() Config {
	return Config{Level: "info", Format: "console", Stderr: true}
}

// New builds a logger from cfg. With no destination enabled it falls back
// to stderr.
func New(cfg Config) (*zap.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.Format(timeLayout))
	}

	var encoder zapcore.Encoder
	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "json":
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	case "console", "":
		encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	sink, err := buildSink(cfg)
	if err != nil {
		return nil, err
	}

	return zap.New(zapcore.NewCore(encoder, sink, level)), nil
}

func buildSink(cfg Config) (zapcore.WriteSyncer, error) {
	var sinks []zapcore.WriteSyncer

	if cfg.Stderr {
		sinks = append(sinks, zapcore.Lock(os.Stderr))
	}
	if cfg.File.Enabled {
		w, err := newFileWriter(cfg.File)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, zapcore.AddSync(w))
	}
	if len(sinks) == 0 {
		sinks = append(sinks, zapcore.Lock(os.Stderr))
	}

	return zapcore.NewMultiWriteSyncer(sinks...), nil
}

func newFileWriter(cfg FileConfig) (*lumberjack.Logger, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		path = defaultFileName
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log directory %s: %w", dir, err)
		}
	}

	w := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: max(cfg.MaxBackups, 0),
		MaxAge:     max(cfg.MaxAgeDays, 0),
		Compress:   cfg.Compress,
		LocalTime:  true,
	}
	if w.MaxSize <= 0 {
		w.MaxSize = defaultMaxSizeMB
	}
	return w, nil
}

// ParseLevel maps a level name to a zap level. The empty string means info.
func ParseLevel(raw string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info", "":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("%w: %q", ErrInvalidLevel, raw)
	}
}
