package clipping_test

import (
	"testing"

	"github.com/farcloser/consonance/internal/audit/clipping"
	"github.com/farcloser/consonance/internal/types"
)

func TestRuns(t *testing.T) {
	t.Parallel()

	left := []float64{0, 1, 0, 1, 1, 1, 0, -1, -1}
	right := []float64{0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 1}

	result := clipping.Detect(types.SampleBuffer{Left: left, Right: right, SampleRate: 44100})

	// left: single sample (ignored), run of 3, trailing run of 2. right: trailing single.
	if result.Events != 2 {
		t.Errorf("events %d, want 2", result.Events)
	}

	if result.ClippedSamples != 5 {
		t.Errorf("clipped samples %d, want 5", result.ClippedSamples)
	}

	if result.LongestRun != 3 {
		t.Errorf("longest run %d, want 3", result.LongestRun)
	}

	if result.Channels[1].Events != 0 {
		t.Errorf("right events %d, want 0", result.Channels[1].Events)
	}

	if result.Samples != 18 {
		t.Errorf("samples %d, want 18", result.Samples)
	}
}
