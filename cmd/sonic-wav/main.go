// Command sonic-wav changes the speed, pitch, rate or volume of a WAV file.
//
// Usage:
//
//	sonic-wav --speed 1.5 input.wav output.wav
//	sonic-wav --pitch 0.8 --quality high speech.wav deeper.wav
//	sonic-wav --preset slow.yaml --volume 0.5 input.wav output.wav
//	sonic-wav --speed 2 --analyze input.wav output.wav
//
// Flags given on the command line override the values of a preset.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/pprof"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	"github.com/tphakala/go-audio-sonic/internal/logger"
	"github.com/tphakala/go-audio-sonic/wavconv"
)

var version = "dev"

// CLI holds the command line. Pointer flags stay nil unless given so they
// can be told apart from preset values.
type CLI struct {
	Input  string `arg:"" name:"input" help:"Input WAV file"`
	Output string `arg:"" name:"output" help:"Output WAV file"`

	Speed   *float64 `help:"Speed factor, changes duration only (default 1)"`
	Pitch   *float64 `help:"Pitch factor, changes pitch only (default 1)"`
	Rate    *float64 `help:"Playback rate, changes duration and pitch (default 1)"`
	Volume  *float64 `help:"Linear output gain, 0 mutes (default 1)"`
	Quality string   `help:"Period search quality: fast or high" default:""`
	Chunk   int      `help:"Frames per processing chunk (default 2048)" default:"0"`
	Preset  string   `help:"YAML preset file"`

	LogLevel  string `help:"Log level: debug, info, warn, error" default:""`
	LogFormat string `help:"Log format: console or json" default:""`
	LogFile   string `help:"Also write logs to this file"`

	Analyze    bool   `help:"Report level and dominant frequency of input and output"`
	CPUProfile string `name:"cpuprofile" help:"Write CPU profile to file"`
	Version    kong.VersionFlag
}

func main() {
	var cli CLI
	kong.Parse(&cli,
		kong.Name("sonic-wav"),
		kong.Description("Change the speed, pitch, rate or volume of a WAV file."),
		kong.Vars{"version": version},
		kong.UsageOnError(),
	)

	if err := run(&cli, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "sonic-wav: %v\n", err)
		os.Exit(1)
	}
}

func run(cli *CLI, stdout io.Writer) error {
	cfg, err := resolveConfig(cli)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if cli.CPUProfile != "" {
		f, err := os.Create(cli.CPUProfile)
		if err != nil {
			return fmt.Errorf("could not create CPU profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			return fmt.Errorf("could not start CPU profile: %w", err)
		}
		defer func() {
			pprof.StopCPUProfile()
			_ = f.Close()
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Debug("starting conversion",
		zap.String("input", cli.Input),
		zap.String("output", cli.Output),
		zap.String("preset", cli.Preset))

	start := time.Now()
	stats, err := wavconv.ConvertFile(ctx, cli.Input, cli.Output, wavconv.Options{
		Params:      cfg.Stream,
		ChunkFrames: cfg.ChunkFrames,
		Analyze:     cli.Analyze,
		Logger:      log,
	})
	if err != nil {
		return err
	}

	printSummary(stdout, cli, stats, time.Since(start))
	return nil
}

func printSummary(w io.Writer, cli *CLI, stats *wavconv.Stats, elapsed time.Duration) {
	fmt.Fprintf(w, "Processed %s -> %s\n", filepath.Base(cli.Input), filepath.Base(cli.Output))
	fmt.Fprintf(w, "  %d Hz, %d channels, %d-bit\n", stats.SampleRate, stats.NumChannels, stats.BitDepth)
	fmt.Fprintf(w, "  %d frames (%.2fs) -> %d frames (%.2fs)\n",
		stats.InputFrames, stats.InputDuration().Seconds(),
		stats.OutputFrames, stats.OutputDuration().Seconds())
	if secs := elapsed.Seconds(); secs > 0 {
		fmt.Fprintf(w, "  Took %.2fs, %.1fx realtime\n", secs, stats.InputDuration().Seconds()/secs)
	}

	if stats.Input != nil && stats.Output != nil {
		fmt.Fprintf(w, "  Input:  rms %.4f, peak %.4f, dominant %.1f Hz\n",
			stats.Input.RMS, stats.Input.Peak, stats.Input.DominantHz)
		fmt.Fprintf(w, "  Output: rms %.4f, peak %.4f, dominant %.1f Hz\n",
			stats.Output.RMS, stats.Output.Peak, stats.Output.DominantHz)
	}
}
