//nolint:tagliatelle,wrapcheck
package ffprobe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/farcloser/primordium/fault"

	"github.com/farcloser/consonance/internal/integration/binary"
)

const (
	name = "ffprobe"
	// Slow hard-drives spinning up or network retrieved resources may cause timeouts if too aggressive.
	timeout = 60 * time.Second
)

// ErrNoAudioStream is returned when the requested audio stream does not exist.
var ErrNoAudioStream = errors.New("audio stream not found")

// Result contains the marshalled output of ffprobe.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream holds the stream properties the analysis needs.
type Stream struct {
	Index         int    `json:"index"`
	CodecName     string `json:"codec_name"`                // flac
	CodecType     string `json:"codec_type"`                // audio
	SampleRate    string `json:"sample_rate,omitempty"`     // 44100
	Channels      int    `json:"channels,omitempty"`        // 2
	ChannelLayout string `json:"channel_layout,omitempty"`  // stereo
	Duration      string `json:"duration,omitempty"`        // 310.666667
	BitRate       string `json:"bit_rate,omitempty"`        // 956821
	SampleFmt     string `json:"sample_fmt,omitempty"`      // s16, ffmpeg's internal representation
	BitsPerSample int    `json:"bits_per_sample,omitempty"` // reliable for WAV/AIFF only

	// Most reliable bit depth for lossless codecs (FLAC, ALAC). Meaningless for lossy ones.
	BitsPerRawSample string `json:"bits_per_raw_sample,omitempty"`
}

// Format holds container level information.
type Format struct {
	Filename   string `json:"filename"`
	FormatName string `json:"format_name"`        // e.g. "flac", "mov,mp4,m4a,3gp,3g2,mj2"
	Duration   string `json:"duration,omitempty"` // seconds, as a float string
	ProbeScore int    `json:"probe_score"`        // 100 = certain, lower = guessed
}

// AudioStream returns the streamIndex-th audio stream (0-based, counting audio streams only).
func (r *Result) AudioStream(streamIndex int) (*Stream, error) {
	audioCount := 0

	for i := range r.Streams {
		if r.Streams[i].CodecType == "audio" {
			if audioCount == streamIndex {
				return &r.Streams[i], nil
			}

			audioCount++
		}
	}

	return nil, fmt.Errorf("%w: index %d (file has %d audio streams)", ErrNoAudioStream, streamIndex, audioCount)
}

// SampleRateHz parses the stream sample rate.
func (s *Stream) SampleRateHz() (int, error) {
	rate, err := strconv.Atoi(s.SampleRate)
	if err != nil || rate <= 0 {
		return 0, fmt.Errorf("%w: invalid sample rate %q", fault.ErrInvalidJSON, s.SampleRate)
	}

	return rate, nil
}

// Probe runs ffprobe on the given file path and returns parsed metadata.
// It requires ffprobe to be available in the system PATH.
func Probe(ctx context.Context, filePath string) (*Result, error) {
	slog.Debug("ffprobe.Probe", "file path", filePath)

	var output bytes.Buffer

	err := binary.Run(ctx, name, timeout, &output,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		filePath,
	)
	if err != nil {
		return nil, err
	}

	var result Result
	if err = json.Unmarshal(output.Bytes(), &result); err != nil {
		return nil, fmt.Errorf("%w: %w", fault.ErrInvalidJSON, err)
	}

	return &result, nil
}
