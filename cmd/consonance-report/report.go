//nolint:wrapcheck
package main

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/farcloser/consonance"
	"github.com/farcloser/consonance/internal/integration/ffprobe"
	"github.com/farcloser/consonance/internal/integration/media"
	"github.com/farcloser/consonance/internal/output"
)

const defaultOutputFile = "consonance-report.jsonl"

var (
	errArgs         = errors.New("expected exactly one argument: folder path")
	errNotDirectory = errors.New("not a directory")
	errNoAudioFiles = errors.New("no .wav, .flac, .m4a or .mp3 files found")
)

//nolint:gochecknoglobals // configuration data, effectively const
var audioExtensions = []string{".wav", ".flac", ".m4a", ".mp3"}

type reportConfig struct {
	folder     string
	outputFile string
	redact     bool
	workers    int
	opts       consonance.Options
	summarizer consonance.Summarizer
}

func reportCommand() *cli.Command {
	return &cli.Command{
		Name:      "report",
		Usage:     "Scan a folder of mixes and write a consonance JSONL report",
		ArgsUsage: "<folder>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "redact-path",
				Usage: "Strip file paths from the report",
			},
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"j"},
				Usage:   "Number of concurrent workers",
				Value:   runtime.NumCPU(),
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Report file",
				Value:   defaultOutputFile,
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
				Usage: "Timeout for each summarization call",
				Value: consonance.DefaultSummarizerTimeout,
			},
			&cli.BoolFlag{
				Name:  "no-stems",
				Usage: "Skip stem estimation",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return errArgs
			}

			config := reportConfig{
				folder:     cmd.Args().First(),
				outputFile: cmd.String("output"),
				redact:     cmd.Bool("redact-path"),
				workers:    max(cmd.Int("workers"), 1),
				opts:       consonance.DefaultOptions(),
			}

			config.opts.SkipStems = cmd.Bool("no-stems")

			if path := cmd.String("thresholds"); path != "" {
				thresholds, err := consonance.LoadThresholds(path)
				if err != nil {
					return err
				}

				config.opts.Thresholds = thresholds
			}

			if url := cmd.String("summarizer-url"); url != "" {
				config.summarizer = consonance.NewSummarizerClient(url, cmd.Duration("summarizer-timeout"))
			}

			return runReport(ctx, config)
		},
	}
}

func runReport(ctx context.Context, config reportConfig) error {
	info, err := os.Stat(config.folder)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%q: %w", config.folder, errNotDirectory)
	}

	files, err := collectAudioFiles(config.folder)
	if err != nil {
		return fmt.Errorf("scanning folder: %w", err)
	}

	if len(files) == 0 {
		return fmt.Errorf("%q: %w", config.folder, errNoAudioFiles)
	}

	fmt.Fprintf(os.Stderr, "Found %d files to analyze (%d workers)\n", len(files), config.workers)

	startTime := time.Now()
	results := make([]Record, len(files))

	var progress atomic.Int64

	// Per-file failures land in their record; only cancellation aborts the batch.
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(config.workers)

	for idx, filePath := range files {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}

			results[idx] = processFile(groupCtx, filePath, config)

			done := progress.Add(1)
			fmt.Fprintf(os.Stderr, "[%d/%d] %s\n", done, len(files), filePath)

			return nil
		})
	}

	if err = group.Wait(); err != nil {
		return err
	}

	failed, totals, err := writeReport(config, files, results)
	if err != nil {
		return err
	}

	if err = compressFile(config.outputFile); err != nil {
		slog.Error("compressing report", "error", err)
	}

	elapsed := time.Since(startTime)

	fmt.Fprintf(os.Stderr, "\nDone: %d files in %s (%d failed)\n", len(files), elapsed.Truncate(time.Second), failed)
	fmt.Fprintf(os.Stderr, "Report written to %s (and %s.gz)\n", config.outputFile, config.outputFile)

	analyzed := len(files) - failed

	fmt.Fprintf(os.Stderr, "\n--- Timing ---\n")
	fmt.Fprintf(os.Stderr, "  Wall clock:  %s\n", elapsed.Truncate(time.Millisecond))
	fmt.Fprintf(os.Stderr, "  decode:      %s (cumulative)\n", totals.decode.Truncate(time.Millisecond))
	fmt.Fprintf(os.Stderr, "  analysis:    %s (cumulative)\n", totals.analyze.Truncate(time.Millisecond))

	if config.summarizer != nil {
		fmt.Fprintf(os.Stderr, "  summarizer:  %s (cumulative)\n", totals.summarize.Truncate(time.Millisecond))
	}

	if analyzed > 0 {
		fmt.Fprintf(os.Stderr, "  avg/file:    %s\n",
			(totals.decode+totals.analyze+totals.summarize)/time.Duration(analyzed))
	}

	fmt.Fprintln(os.Stderr)

	return runDigest(config.outputFile, "")
}

type timingTotals struct {
	decode, analyze, summarize time.Duration
}

// writeReport writes results in file order.
func writeReport(config reportConfig, files []string, results []Record) (int, timingTotals, error) {
	var totals timingTotals

	out, err := os.Create(config.outputFile)
	if err != nil {
		return 0, totals, fmt.Errorf("creating output file: %w", err)
	}
	defer out.Close()

	enc := json.NewEncoder(out)
	failed := 0

	for idx := range results {
		record := &results[idx]

		if record.Error != "" {
			failed++
		}

		if record.Timing != nil {
			totals.decode += millisToDuration(record.Timing.DecodeMs)
			totals.analyze += millisToDuration(record.Timing.AnalyzeMs)
			totals.summarize += millisToDuration(record.Timing.SummarizeMs)
		}

		if config.redact {
			record.File = ""
			record.Probe = redactProbe(record.Probe)
		}

		if err := enc.Encode(record); err != nil {
			slog.Error("writing record", "file", files[idx], "error", err)
		}
	}

	return failed, totals, out.Close()
}

func processFile(ctx context.Context, filePath string, config reportConfig) Record {
	fileStart := time.Now()
	timing := &RecordTiming{}

	decodeStart := time.Now()

	buffer, probeResult, err := decodeFile(ctx, filePath)

	timing.DecodeMs = durationMs(time.Since(decodeStart))

	if err != nil {
		return Record{File: filePath, Error: fmt.Sprintf("decode failed: %v", err), Timing: timing}
	}

	analyzeStart := time.Now()

	opts := config.opts
	opts.Source = filePath

	result, err := consonance.Analyze(buffer, opts)

	timing.AnalyzeMs = durationMs(time.Since(analyzeStart))

	if err != nil {
		timing.TotalMs = durationMs(time.Since(fileStart))

		return Record{File: filePath, Error: fmt.Sprintf("analysis failed: %v", err), Timing: timing}
	}

	if config.summarizer != nil {
		summarizeStart := time.Now()

		consonance.Summarize(ctx, result, config.summarizer)

		timing.SummarizeMs = durationMs(time.Since(summarizeStart))
	}

	timing.TotalMs = durationMs(time.Since(fileStart))

	record := Record{
		File:     filePath,
		Analysis: output.ResultToMap(result),
		Timing:   timing,
	}

	if probeResult != nil {
		probeJSON, err := json.Marshal(probeResult)
		if err == nil {
			record.Probe = probeJSON
		} else {
			record.ProbeError = "probe serialization failed"
		}
	}

	return record
}

// decodeFile reads WAV files natively and everything else through ffprobe and ffmpeg.
func decodeFile(ctx context.Context, filePath string) (consonance.SampleBuffer, *ffprobe.Result, error) {
	if strings.EqualFold(filepath.Ext(filePath), ".wav") {
		buffer, err := media.Load(ctx, filePath)

		return buffer, nil, err
	}

	return media.Extract(ctx, filePath, 0)
}

func durationMs(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}

func millisToDuration(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}

func collectAudioFiles(root string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}

		if slices.Contains(audioExtensions, strings.ToLower(filepath.Ext(path))) {
			files = append(files, path)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.Sort(files)

	return files, nil
}

func compressFile(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // reading our own output file
	if err != nil {
		return err
	}

	gzFile, err := os.Create(path + ".gz")
	if err != nil {
		return err
	}
	defer gzFile.Close()

	gzWriter := gzip.NewWriter(gzFile)

	if _, err := gzWriter.Write(data); err != nil {
		return err
	}

	return gzWriter.Close()
}

func redactProbe(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}

	var probe map[string]any
	if err := json.Unmarshal(raw, &probe); err != nil {
		return raw
	}

	// Strip format.filename.
	if format, ok := probe["format"].(map[string]any); ok {
		delete(format, "filename")
	}

	redacted, err := json.Marshal(probe)
	if err != nil {
		return raw
	}

	return redacted
}
