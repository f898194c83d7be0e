// Package decode turns decoded audio (raw PCM or WAV files) into sample buffers.
package decode

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/farcloser/primordium/fault"

	"github.com/farcloser/consonance/internal/audit/shared"
	"github.com/farcloser/consonance/internal/types"
)

var (
	// ErrUnsupportedFormat is returned for bit depths or channel layouts the decoder cannot read.
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	// ErrNoAudio is returned when the input holds no complete frame.
	ErrNoAudio = errors.New("no audio frames")
)

const chunkFrames = 4096

// PCM reads interleaved little-endian signed PCM into a stereo buffer.
// Mono is duplicated to both sides; beyond two channels only the first two are kept.
func PCM(r io.Reader, format types.PCMFormat) (types.SampleBuffer, error) {
	if format.Channels == 0 || format.SampleRate <= 0 {
		return types.SampleBuffer{}, fmt.Errorf("%w: %d channels at %d Hz", ErrUnsupportedFormat, format.Channels, format.SampleRate)
	}

	maxVal, err := normalization(format.BitDepth)
	if err != nil {
		return types.SampleBuffer{}, err
	}

	bytesPerSample := int(format.BitDepth / 8) //nolint:gosec // bit depth and channel count are small constants
	numChannels := int(format.Channels)        //nolint:gosec // bit depth and channel count are small constants
	frameSize := bytesPerSample * numChannels

	var left, right []float64

	buf := make([]byte, frameSize*chunkFrames)
	pending := 0

	for {
		n, readErr := r.Read(buf[pending:])
		pending += n

		completeFrames := (pending / frameSize) * frameSize
		data := buf[:completeFrames]

		for i := 0; i < len(data); i += frameSize {
			l := sample(data[i:], format.BitDepth) / maxVal
			rr := l

			if numChannels > 1 {
				rr = sample(data[i+bytesPerSample:], format.BitDepth) / maxVal
			}

			left = append(left, l)
			right = append(right, rr)
		}

		// Carry a trailing partial frame into the next read.
		pending = copy(buf, buf[completeFrames:pending])

		if errors.Is(readErr, io.EOF) {
			break
		}

		if readErr != nil {
			return types.SampleBuffer{}, fmt.Errorf("%w: %w", fault.ErrReadFailure, readErr)
		}
	}

	if len(left) == 0 {
		return types.SampleBuffer{}, ErrNoAudio
	}

	return types.SampleBuffer{Left: left, Right: right, SampleRate: float64(format.SampleRate)}, nil
}

func normalization(depth types.BitDepth) (float64, error) {
	switch depth {
	case types.Depth16:
		return shared.MaxValue16, nil
	case types.Depth24:
		return shared.MaxValue24, nil
	case types.Depth32:
		return shared.MaxValue32, nil
	default:
		return 0, fmt.Errorf("%w: %d-bit", ErrUnsupportedFormat, depth)
	}
}

func sample(data []byte, depth types.BitDepth) float64 {
	switch depth {
	case types.Depth16:
		return float64(int16(binary.LittleEndian.Uint16(data))) //nolint:gosec // two's complement conversion for signed PCM samples
	case types.Depth24:
		raw := int32(data[0]) | int32(data[1])<<8 | int32(data[2])<<16
		if raw&0x800000 != 0 {
			raw |= ^0xFFFFFF
		}

		return float64(raw)
	default:
		return float64(int32(binary.LittleEndian.Uint32(data))) //nolint:gosec // two's complement conversion for signed PCM samples
	}
}
