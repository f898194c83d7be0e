package decode

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/farcloser/primordium/fault"

	"github.com/farcloser/consonance/internal/audit/shared"
	"github.com/farcloser/consonance/internal/types"
)

var (
	// ErrInvalidWAV is returned when the input is not a RIFF/WAVE file.
	ErrInvalidWAV = errors.New("invalid WAV file")
	// ErrEncode is returned when a WAV file cannot be written.
	ErrEncode = errors.New("WAV encoding failed")
)

const wavFormatPCM = 1

// WAV decodes an integer PCM WAV file (16, 24 or 32 bit).
func WAV(r io.ReadSeeker) (types.SampleBuffer, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return types.SampleBuffer{}, ErrInvalidWAV
	}

	if decoder.WavAudioFormat != wavFormatPCM {
		return types.SampleBuffer{}, fmt.Errorf("%w: WAV audio format %d", ErrUnsupportedFormat, decoder.WavAudioFormat)
	}

	depth := types.BitDepth(decoder.BitDepth)

	maxVal, err := normalization(depth)
	if err != nil {
		return types.SampleBuffer{}, err
	}

	pcm, err := decoder.FullPCMBuffer()
	if err != nil {
		return types.SampleBuffer{}, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
	}

	channels := pcm.Format.NumChannels
	if channels <= 0 {
		return types.SampleBuffer{}, fmt.Errorf("%w: %d channels", ErrUnsupportedFormat, channels)
	}

	frames := len(pcm.Data) / channels
	if frames == 0 {
		return types.SampleBuffer{}, ErrNoAudio
	}

	slog.Debug("decode.WAV", "sample rate", pcm.Format.SampleRate, "bit depth", depth, "channels", channels, "frames", frames)

	left := make([]float64, frames)
	right := make([]float64, frames)

	for i := range frames {
		left[i] = float64(pcm.Data[i*channels]) / maxVal
		right[i] = left[i]

		if channels > 1 {
			right[i] = float64(pcm.Data[i*channels+1]) / maxVal
		}
	}

	return types.SampleBuffer{Left: left, Right: right, SampleRate: float64(pcm.Format.SampleRate)}, nil
}

// WriteWAV encodes left/right as a stereo integer PCM WAV file. Samples are clipped to [-1, 1].
func WriteWAV(w io.WriteSeeker, left, right []float64, sampleRate int, depth types.BitDepth) error {
	maxVal, err := normalization(depth)
	if err != nil {
		return err
	}

	if len(left) != len(right) {
		return fmt.Errorf("%w: channel lengths differ (%d/%d)", types.ErrInvalidBuffer, len(left), len(right))
	}

	data := make([]int, 2*len(left))
	for i := range left {
		data[2*i] = quantize(left[i], maxVal)
		data[2*i+1] = quantize(right[i], maxVal)
	}

	encoder := wav.NewEncoder(w, sampleRate, int(depth), 2, wavFormatPCM)

	if err = encoder.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 2, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: int(depth),
	}); err != nil {
		return fmt.Errorf("%w: %w", ErrEncode, err)
	}

	if err = encoder.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrEncode, err)
	}

	return nil
}

func quantize(value, maxVal float64) int {
	return int(math.Round(shared.Clamp(value, -1, (maxVal-1)/maxVal) * maxVal))
}
