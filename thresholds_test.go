package consonance_test

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/farcloser/primordium/fault"

	"github.com/farcloser/consonance"
	"github.com/farcloser/consonance/internal/audit/effects"
)

func writeThresholds(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "thresholds.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	return path
}

func TestLoadThresholdsOverrides(t *testing.T) {
	t.Parallel()

	path := writeThresholds(t, `
width_penalty: 20
width_percent:
  min: 30
  max: 75
effects:
  reverb_early_ms: 40
`)

	th, err := consonance.LoadThresholds(path)
	if err != nil {
		t.Fatal(err)
	}

	defaults := consonance.DefaultThresholds()

	if th.WidthPenalty != 20 || th.WidthPercent != (consonance.Range{Min: 30, Max: 75}) {
		t.Errorf("overrides not applied: %+v %+v", th.WidthPenalty, th.WidthPercent)
	}

	if th.Effects.ReverbEarlyMs != 40 {
		t.Errorf("nested override not applied: %v", th.Effects.ReverbEarlyMs)
	}

	if th.Effects.ReverbLateMs != defaults.Effects.ReverbLateMs || th.ClipPeak != defaults.ClipPeak {
		t.Error("keys left out lost their defaults")
	}
}

func TestLoadThresholdsEmptyFile(t *testing.T) {
	t.Parallel()

	th, err := consonance.LoadThresholds(writeThresholds(t, ""))
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(th, consonance.DefaultThresholds()) {
		t.Error("empty file changed the defaults")
	}
}

func TestLoadThresholdsUnknownKey(t *testing.T) {
	t.Parallel()

	_, err := consonance.LoadThresholds(writeThresholds(t, "width_penalti: 20\n"))
	if !errors.Is(err, consonance.ErrInvalidThresholds) {
		t.Errorf("expected ErrInvalidThresholds, got %v", err)
	}
}

func TestLoadThresholdsMissingFile(t *testing.T) {
	t.Parallel()

	_, err := consonance.LoadThresholds(filepath.Join(t.TempDir(), "absent.yaml"))
	if !errors.Is(err, fault.ErrReadFailure) {
		t.Errorf("expected ErrReadFailure, got %v", err)
	}
}

func TestAnalyzeHonoursThresholds(t *testing.T) {
	t.Parallel()

	opts := consonance.DefaultOptions()
	opts.SkipStems = true
	opts.Thresholds.QuietPeak = 0.95

	result, err := consonance.Analyze(stereoMix(0.5), opts)
	if err != nil {
		t.Fatal(err)
	}

	if !result.TooQuiet {
		t.Error("raised quiet threshold ignored")
	}
}

func TestLoadThresholdsRejectsInconsistentValues(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"negative top recommendations": "top_recommendations: -1\n",
		"inverted range":               "width_percent:\n  min: 80\n  max: 20\n",
		"negative penalty":             "clip_penalty: -5\n",
		"tiering out of order":         "top_score: 90\n",
		"cap above maximum":            "missing_effects_cap: 120\n",
		"cohesion weights":             "effects:\n  weights:\n    depth_estimate: 0.5\n",
		"inverted factor":              "effects:\n  depth_estimate:\n    good:\n      min: 0.9\n      max: 0.1\n",
		"reverb windows":               "effects:\n  reverb_late_ms: 30\n",
		"compression steps":            "effects:\n  compression_steps:\n    - below: 9\n    - below: 6\n",
	}

	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			th, err := consonance.LoadThresholds(writeThresholds(t, content))
			if !errors.Is(err, consonance.ErrInvalidThresholds) {
				t.Fatalf("expected ErrInvalidThresholds, got %v", err)
			}

			if !reflect.DeepEqual(th, consonance.DefaultThresholds()) {
				t.Error("rejected file did not fall back to the defaults")
			}
		})
	}
}

func TestThresholdsValidate(t *testing.T) {
	t.Parallel()

	if err := consonance.DefaultThresholds().Validate(); err != nil {
		t.Fatalf("defaults rejected: %v", err)
	}

	if err := effects.DefaultThresholds().Validate(); err != nil {
		t.Fatalf("effect defaults rejected: %v", err)
	}

	th := consonance.DefaultThresholds()
	th.Effects.Weights.SpatialBalance = -0.15
	th.Effects.Weights.DepthEstimate = 0.45

	err := th.Validate()
	if !errors.Is(err, consonance.ErrInvalidThresholds) || !errors.Is(err, effects.ErrInvalidThresholds) {
		t.Errorf("negative weight accepted: %v", err)
	}
}

func TestAnalyzeRejectsPartialThresholds(t *testing.T) {
	t.Parallel()

	opts := consonance.Options{SkipStems: true}
	opts.Thresholds.WidthPenalty = 20

	if _, err := consonance.Analyze(stereoMix(0.5), opts); !errors.Is(err, consonance.ErrInvalidThresholds) {
		t.Errorf("partial table accepted: %v", err)
	}

	opts.Thresholds = consonance.DefaultThresholds()
	opts.Thresholds.TopRecommendations = -1

	if _, err := consonance.Analyze(stereoMix(0.5), opts); !errors.Is(err, consonance.ErrInvalidThresholds) {
		t.Errorf("negative top recommendations accepted: %v", err)
	}
}
