// Package media decodes audio files of any container ffmpeg understands into sample buffers.
package media

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/farcloser/primordium/fault"

	"github.com/farcloser/consonance/internal/decode"
	"github.com/farcloser/consonance/internal/integration/ffmpeg"
	"github.com/farcloser/consonance/internal/integration/ffprobe"
	"github.com/farcloser/consonance/internal/types"
)

// Extract probes filePath and decodes the selected audio stream to a stereo buffer.
// The probe result is returned alongside for reporting.
func Extract(ctx context.Context, filePath string, streamIndex int) (types.SampleBuffer, *ffprobe.Result, error) {
	probeResult, err := ffprobe.Probe(ctx, filePath)
	if err != nil {
		return types.SampleBuffer{}, nil, fmt.Errorf("probing file: %w", err)
	}

	stream, err := probeResult.AudioStream(streamIndex)
	if err != nil {
		return types.SampleBuffer{}, probeResult, err
	}

	format, err := PCMFormat(stream)
	if err != nil {
		return types.SampleBuffer{}, probeResult, err
	}

	// Extract PCM (32-bit) from the file via ffmpeg.
	var pcmBuf bytes.Buffer

	if err = ffmpeg.ExtractStream(ctx, filePath, &pcmBuf, streamIndex, &format); err != nil {
		return types.SampleBuffer{}, probeResult, fmt.Errorf("extracting PCM: %w", err)
	}

	// ffmpeg downmixes anything wider than stereo.
	format.Channels = min(format.Channels, 2)

	buffer, err := decode.PCM(&pcmBuf, format)
	if err != nil {
		return types.SampleBuffer{}, probeResult, fmt.Errorf("decoding PCM: %w", err)
	}

	return buffer, probeResult, nil
}

// Load decodes WAV files directly and everything else through ffmpeg (first audio stream).
func Load(ctx context.Context, filePath string) (types.SampleBuffer, error) {
	if !strings.EqualFold(filepath.Ext(filePath), ".wav") {
		buffer, _, err := Extract(ctx, filePath, 0)

		return buffer, err
	}

	slog.Debug("media.Load", "file path", filePath, "decoder", "wav")

	file, err := os.Open(filePath) //nolint:gosec // CLI tool opens user-specified audio files
	if err != nil {
		return types.SampleBuffer{}, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
	}
	defer file.Close()

	buffer, err := decode.WAV(file)
	if err != nil {
		return types.SampleBuffer{}, fmt.Errorf("decoding %s: %w", filePath, err)
	}

	return buffer, nil
}

// PCMFormat is the extraction format for a probed stream: its rate and layout at 32 bits.
func PCMFormat(stream *ffprobe.Stream) (types.PCMFormat, error) {
	sampleRate, err := stream.SampleRateHz()
	if err != nil {
		return types.PCMFormat{}, err
	}

	if stream.Channels <= 0 {
		return types.PCMFormat{}, fmt.Errorf("%w: invalid channel count from probe: %d", decode.ErrUnsupportedFormat, stream.Channels)
	}

	return types.PCMFormat{
		SampleRate: sampleRate,
		BitDepth:   types.Depth32,
		Channels:   uint(stream.Channels), //nolint:gosec // validated positive value
	}, nil
}
