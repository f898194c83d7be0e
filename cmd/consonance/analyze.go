//nolint:wrapcheck
package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/farcloser/consonance/internal/decode"
	"github.com/farcloser/consonance/internal/types"
)

func analyzeCommand() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Usage:     "Analyze a WAV file (or raw PCM with --sample-rate) and score the mix",
		ArgsUsage: "<file | ->",
		Flags: append([]cli.Flag{
			// Raw PCM input. Without --sample-rate the input is read as a WAV file.
			&cli.IntFlag{
				Name:    "sample-rate",
				Aliases: []string{"s"},
				Usage:   "Read raw interleaved PCM at this sample rate in Hz (e.g., 44100, 48000, 96000)",
			},
			&cli.IntFlag{
				Name:    "bit-depth",
				Aliases: []string{"b"},
				Usage:   "Raw PCM bit depth (16, 24, or 32)",
				Value:   32,
			},
			&cli.IntFlag{
				Name:    "channels",
				Aliases: []string{"c"},
				Usage:   "Raw PCM channel count (1 = mono, 2 = stereo)",
				Value:   2,
			},
		}, analysisFlags()...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return fmt.Errorf("%w: got %d", errInvalidArgCount, cmd.NArg())
			}

			inputPath := cmd.Args().First()

			data, err := readInput(inputPath)
			if err != nil {
				return err
			}

			var buffer types.SampleBuffer

			if cmd.Int("sample-rate") > 0 {
				format, formatErr := parsePCMFormat(cmd)
				if formatErr != nil {
					return formatErr
				}

				buffer, err = decode.PCM(bytes.NewReader(data), format)
			} else {
				buffer, err = decode.WAV(bytes.NewReader(data))
			}

			if err != nil {
				return fmt.Errorf("decoding %s: %w", inputPath, err)
			}

			return runAnalysis(ctx, cmd, inputPath, buffer)
		},
	}
}

func parsePCMFormat(cmd *cli.Command) (types.PCMFormat, error) {
	bitDepth, err := toBitDepth(cmd.Int("bit-depth"))
	if err != nil {
		return types.PCMFormat{}, fmt.Errorf("--bit-depth: %w", err)
	}

	channels := cmd.Int("channels")
	if channels <= 0 {
		return types.PCMFormat{}, fmt.Errorf("--channels: invalid channel count %d", channels)
	}

	return types.PCMFormat{
		SampleRate: cmd.Int("sample-rate"),
		BitDepth:   bitDepth,
		Channels:   uint(channels), //nolint:gosec // validated positive value
	}, nil
}

// readInput reads the whole input, from stdin when source is "-".
func readInput(source string) ([]byte, error) {
	if source == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}

		return data, nil
	}

	data, err := os.ReadFile(source) //nolint:gosec // CLI tool opens user-specified audio files
	if err != nil {
		return nil, fmt.Errorf("cannot access %s: %w", source, err)
	}

	return data, nil
}
