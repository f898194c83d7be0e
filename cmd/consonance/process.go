//nolint:wrapcheck
package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/farcloser/consonance/internal/integration/media"
)

var errProcessArgs = errors.New("expected exactly one argument: file path")

func processCommand() *cli.Command {
	return &cli.Command{
		Name:      "process",
		Usage:     "Decode any audio file with ffmpeg and score the mix",
		ArgsUsage: "<file>",
		Flags: append([]cli.Flag{
			&cli.IntFlag{
				Name:  "stream",
				Usage: "Audio stream index (0-based)",
				Value: 0,
			},
		}, analysisFlags()...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return fmt.Errorf("%w: got %d", errProcessArgs, cmd.NArg())
			}

			filePath := cmd.Args().First()

			buffer, _, err := media.Extract(ctx, filePath, cmd.Int("stream"))
			if err != nil {
				return err
			}

			return runAnalysis(ctx, cmd, filePath, buffer)
		},
	}
}
