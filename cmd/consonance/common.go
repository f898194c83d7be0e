//nolint:wrapcheck
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/farcloser/consonance"
	"github.com/farcloser/consonance/internal/types"
)

var (
	errInvalidArgCount = errors.New("expected exactly one argument: file path or \"-\" for stdin")
	errInvalidBitDepth = errors.New("must be 16, 24, or 32")
	errInvalidLogLevel = errors.New("must be debug, info, warn or error")
)

// analysisFlags are shared by every command that runs an analysis.
func analysisFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format: console, json, markdown",
			Value:   "console",
		},
		&cli.BoolFlag{
			Name:    "debug",
			Aliases: []string{"D"},
			Usage:   "Include all raw analyzer data in output",
		},
		&cli.StringFlag{
			Name:    "thresholds",
			Aliases: []string{"t"},
			Usage:   "YAML file overriding scoring and detection thresholds",
		},
		&cli.StringFlag{
			Name:    "summarizer-url",
			Usage:   "Endpoint of the text summarization service (disabled when empty)",
			Sources: cli.EnvVars("CONSONANCE_SUMMARIZER_URL"),
		},
		&cli.DurationFlag{
			Name:  "summarizer-timeout",
			Usage: "Timeout for the summarization call",
			Value: consonance.DefaultSummarizerTimeout,
		},
		&cli.BoolFlag{
			Name:  "no-stems",
			Usage: "Skip stem estimation",
		},
	}
}

// analysisOptions builds the engine options from the shared flags.
func analysisOptions(cmd *cli.Command, source string) (consonance.Options, error) {
	opts := consonance.DefaultOptions()
	opts.SkipStems = cmd.Bool("no-stems")
	opts.Source = source

	if path := cmd.String("thresholds"); path != "" {
		thresholds, err := consonance.LoadThresholds(path)
		if err != nil {
			return opts, err
		}

		opts.Thresholds = thresholds
	}

	return opts, nil
}

// runAnalysis analyzes buffer, asks the summarizer for a critique when one is configured,
// and prints the result.
func runAnalysis(ctx context.Context, cmd *cli.Command, source string, buffer types.SampleBuffer) error {
	opts, err := analysisOptions(cmd, source)
	if err != nil {
		return err
	}

	result, err := consonance.Analyze(buffer, opts)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if url := cmd.String("summarizer-url"); url != "" {
		consonance.Summarize(ctx, result, consonance.NewSummarizerClient(url, cmd.Duration("summarizer-timeout")))
	}

	return outputResult(source, result, cmd.String("format"), cmd.Bool("debug"))
}

func toBitDepth(v int) (types.BitDepth, error) {
	switch v {
	case 16:
		return types.Depth16, nil
	case 24:
		return types.Depth24, nil
	case 32:
		return types.Depth32, nil
	default:
		return 0, errInvalidBitDepth
	}
}

// setupLogging installs the default logger at the requested level.
func setupLogging(level string) error {
	var lvl slog.Level

	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		return fmt.Errorf("--log-level %q: %w", level, errInvalidLogLevel)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))

	return nil
}
