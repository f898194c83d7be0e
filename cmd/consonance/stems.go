//nolint:wrapcheck
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/farcloser/primordium/format"
	"github.com/urfave/cli/v3"

	"github.com/farcloser/consonance"
	"github.com/farcloser/consonance/internal/decode"
	"github.com/farcloser/consonance/internal/integration/media"
	"github.com/farcloser/consonance/internal/output"
	"github.com/farcloser/consonance/internal/types"
)

func stemsCommand() *cli.Command {
	return &cli.Command{
		Name:      "stems",
		Usage:     "Estimate vocals, drums, bass and other stems and write them as WAV files",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Directory receiving <name>.<stem>.wav files",
				Value:   ".",
			},
			&cli.IntFlag{
				Name:    "bit-depth",
				Aliases: []string{"b"},
				Usage:   "Bit depth of the written files (16, 24, or 32)",
				Value:   24,
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: console, json, markdown",
				Value:   "console",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return fmt.Errorf("%w: got %d", errProcessArgs, cmd.NArg())
			}

			filePath := cmd.Args().First()

			depth, err := toBitDepth(cmd.Int("bit-depth"))
			if err != nil {
				return fmt.Errorf("--bit-depth: %w", err)
			}

			buffer, err := media.Load(ctx, filePath)
			if err != nil {
				return err
			}

			estimate, err := consonance.NewStemEstimator(nil).Estimate(filePath, buffer)
			if err != nil {
				return fmt.Errorf("estimating stems: %w", err)
			}

			written, err := writeStems(cmd.String("output"), filePath, estimate, int(buffer.SampleRate), depth)
			if err != nil {
				return err
			}

			formatter, err := format.GetFormatter(cmd.String("format"))
			if err != nil {
				return err
			}

			meta := output.StemsToMap(estimate)
			meta["files"] = written

			return formatter.PrintAll([]*format.Data{{Object: filePath, Meta: meta}}, os.Stdout)
		},
	}
}

func writeStems(dir, source string, estimate *types.StemEstimate, sampleRate int, depth types.BitDepth) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:mnd,gosec // user-facing output directory
		return nil, fmt.Errorf("creating %s: %w", dir, err)
	}

	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	written := make([]string, 0, types.StemCount)

	for stem := range types.StemCount {
		path := filepath.Join(dir, fmt.Sprintf("%s.%s.wav", base, stem))
		track := estimate.Stems[stem]

		if err := writeStem(path, track, sampleRate, depth); err != nil {
			return written, err
		}

		written = append(written, path)
	}

	return written, nil
}

func writeStem(path string, track types.StemTrack, sampleRate int, depth types.BitDepth) error {
	file, err := os.Create(path) //nolint:gosec // path derived from user-specified output directory
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	if err = decode.WriteWAV(file, track.Left, track.Right, sampleRate, depth); err != nil {
		_ = file.Close()

		return fmt.Errorf("writing %s: %w", path, err)
	}

	return file.Close()
}
