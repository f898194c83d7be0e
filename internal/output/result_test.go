package output_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/farcloser/consonance"
	"github.com/farcloser/consonance/internal/output"
)

func TestResultToMap(t *testing.T) {
	t.Parallel()

	const rate = 44100.0

	left := make([]float64, int(rate))
	right := make([]float64, int(rate))

	for i := range left {
		left[i] = 0.5 * math.Sin(2*math.Pi*220*float64(i)/rate)
		right[i] = 0.4 * math.Sin(2*math.Pi*330*float64(i)/rate)
	}

	result, err := consonance.Analyze(consonance.SampleBuffer{Left: left, Right: right, SampleRate: rate}, consonance.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	meta := output.ResultToMap(result)

	for _, key := range []string{"summary", "scores", "flags", "issues", "spectral", "stereo", "loudness", "clipping", "effects", "stems"} {
		if _, ok := meta[key]; !ok {
			t.Errorf("missing %q", key)
		}
	}

	if _, ok := meta["scores"].(map[string]any)["external"]; ok {
		t.Error("external score reported without a summarizer")
	}

	if len(meta["issues"].([]any)) != len(result.Issues) {
		t.Error("issues not all serialized")
	}

	// Must serialize cleanly for JSONL output.
	if _, err = json.Marshal(meta); err != nil {
		t.Fatal(err)
	}
}
