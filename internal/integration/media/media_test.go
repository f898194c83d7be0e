package media_test

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/farcloser/consonance/internal/decode"
	"github.com/farcloser/consonance/internal/integration/ffprobe"
	"github.com/farcloser/consonance/internal/integration/media"
	"github.com/farcloser/consonance/internal/types"
)

func TestPCMFormat(t *testing.T) {
	t.Parallel()

	format, err := media.PCMFormat(&ffprobe.Stream{SampleRate: "48000", Channels: 6})
	if err != nil {
		t.Fatal(err)
	}

	if format.SampleRate != 48000 || format.Channels != 6 || format.BitDepth != types.Depth32 {
		t.Errorf("unexpected format %+v", format)
	}

	if _, err = media.PCMFormat(&ffprobe.Stream{SampleRate: "48000"}); !errors.Is(err, decode.ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestLoadWAV(t *testing.T) {
	t.Parallel()

	left := make([]float64, 2205)
	for i := range left {
		left[i] = 0.25 * math.Sin(2*math.Pi*440*float64(i)/22050)
	}

	path := filepath.Join(t.TempDir(), "tone.WAV")

	file, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}

	if err = decode.WriteWAV(file, left, left, 22050, types.Depth16); err != nil {
		t.Fatal(err)
	}

	_ = file.Close()

	buffer, err := media.Load(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}

	if buffer.Frames() != len(left) || buffer.SampleRate != 22050 {
		t.Errorf("%d frames at %v Hz", buffer.Frames(), buffer.SampleRate)
	}
}
