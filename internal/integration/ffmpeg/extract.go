//nolint:wrapcheck
package ffmpeg

import (
	"context"
	"io"
	"log/slog"
	"strconv"

	"github.com/farcloser/consonance/internal/integration/binary"
	"github.com/farcloser/consonance/internal/types"
)

// ExtractStream decodes one audio stream of a file to interleaved little-endian PCM on output,
// at the bit depth of format. Streams with more than two channels are downmixed to stereo.
func ExtractStream(
	ctx context.Context,
	filePath string,
	output io.Writer,
	streamIndex int,
	format *types.PCMFormat,
) error {
	slog.Debug("ffmpeg.ExtractStream", "file path", filePath, "stream index", streamIndex, "stage", "start")

	if err := binary.Run(ctx, name, timeout, output, extractArgs(filePath, streamIndex, format)...); err != nil {
		slog.Debug("ffmpeg.ExtractStream", "stream index", streamIndex, "stage", "error")

		return err
	}

	slog.Debug("ffmpeg.ExtractStream", "stream index", streamIndex, "stage", "done")

	return nil
}

func extractArgs(filePath string, streamIndex int, format *types.PCMFormat) []string {
	args := []string{
		"-v", "quiet",
		"-i", filePath,
		"-map", "0:a:" + strconv.Itoa(streamIndex),
	}

	if format.Channels > 2 || format.Channels == 0 {
		args = append(args, "-ac", "2")
	}

	return append(args,
		"-f", muxer(format.BitDepth),
		"-acodec", codec(format.BitDepth),
		"-",
	)
}
