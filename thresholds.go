package consonance

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/farcloser/primordium/fault"

	"github.com/farcloser/consonance/internal/audit/effects"
)

// ErrInvalidThresholds is returned when a thresholds table cannot be decoded or is inconsistent.
var ErrInvalidThresholds = errors.New("invalid thresholds")

// Range is an inclusive [Min, Max] interval.
type Range = effects.Range

// EffectThresholds holds the mixing-effects detector breakpoints.
type EffectThresholds = effects.Thresholds

// Thresholds is the single table of every tunable value the scorer and detectors use.
// Override any subset from YAML with LoadThresholds; keys left out keep their defaults.
// Programmatic overrides must start from DefaultThresholds: a partially filled table fails Validate.
type Thresholds struct {
	// Stereo width, in percent of the perceptual 0-1 scale.
	WidthPercent Range   `yaml:"width_percent"`
	WidthPenalty float64 `yaml:"width_penalty"`

	MinCorrelation     float64 `yaml:"min_correlation"`
	CorrelationPenalty float64 `yaml:"correlation_penalty"`

	DynamicRangeDb      Range   `yaml:"dynamic_range_db"`
	DynamicRangePenalty float64 `yaml:"dynamic_range_penalty"`

	ClipPeak     float64 `yaml:"clip_peak"` // peak >= this is clipping
	ClipPenalty  float64 `yaml:"clip_penalty"`
	QuietPeak    float64 `yaml:"quiet_peak"` // peak < this is too quiet
	QuietPenalty float64 `yaml:"quiet_penalty"`

	// Combined band percentages (low = sub+bass, mid = lowMid+mid, high = highMid+high).
	BassHeavyPercent float64 `yaml:"bass_heavy_percent"`
	BassHeavyPenalty float64 `yaml:"bass_heavy_penalty"`
	MidPoorPercent   float64 `yaml:"mid_poor_percent"`
	MidPoorPenalty   float64 `yaml:"mid_poor_penalty"`
	TooBrightPercent float64 `yaml:"too_bright_percent"`
	TooBrightPenalty float64 `yaml:"too_bright_penalty"`

	// When at least MissingEffects effects are absent, the score cannot exceed MissingEffectsCap.
	MissingEffects    int     `yaml:"missing_effects"`
	MissingEffectsCap float64 `yaml:"missing_effects_cap"`

	// Recommendation tiering.
	PositiveScore      float64 `yaml:"positive_score"` // single positive message at or above
	TopScore           float64 `yaml:"top_score"`      // first TopRecommendations at or above
	TopRecommendations int     `yaml:"top_recommendations"`

	// Severity of a detected issue from its relative deviation past the threshold.
	Deviation Bands `yaml:"deviation"`
	// Severity of clipping from the number of clip events.
	ClipEvents Bands `yaml:"clip_events"`
	// Severity of inter-sample peaks from their count.
	InterSamplePeaks Bands `yaml:"inter_sample_peaks"`

	Effects EffectThresholds `yaml:"effects"`
}

// DefaultThresholds returns the tuned defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		WidthPercent: Range{Min: 25, Max: 80},
		WidthPenalty: 15,

		MinCorrelation:     0.5,
		CorrelationPenalty: 15,

		DynamicRangeDb:      Range{Min: 4, Max: 18},
		DynamicRangePenalty: 10,

		ClipPeak:     0.99,
		ClipPenalty:  15,
		QuietPeak:    0.25,
		QuietPenalty: 10,

		BassHeavyPercent: 45,
		BassHeavyPenalty: 10,
		MidPoorPercent:   25,
		MidPoorPenalty:   10,
		TooBrightPercent: 40,
		TooBrightPenalty: 10,

		MissingEffects:    3,
		MissingEffectsCap: 55,

		PositiveScore:      85,
		TopScore:           75,
		TopRecommendations: 3,

		Deviation:        Bands{Mild: 0, Moderate: 0.25, Severe: 0.5},
		ClipEvents:       Bands{Mild: 1, Moderate: 10, Severe: 100},
		InterSamplePeaks: Bands{Mild: 1, Moderate: 100, Severe: 1000},

		Effects: effects.DefaultThresholds(),
	}
}

// LoadThresholds reads a YAML override file on top of DefaultThresholds.
// Unknown keys are rejected.
func LoadThresholds(path string) (Thresholds, error) {
	thresholds := DefaultThresholds()

	file, err := os.Open(path)
	if err != nil {
		return thresholds, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	if err := decoder.Decode(&thresholds); err != nil {
		if errors.Is(err, io.EOF) {
			return thresholds, nil
		}

		return DefaultThresholds(), fmt.Errorf("%w: %s: %w", ErrInvalidThresholds, path, err)
	}

	if err := thresholds.Validate(); err != nil {
		return DefaultThresholds(), fmt.Errorf("%s: %w", path, err)
	}

	return thresholds, nil
}

// Validate rejects tables the scorer cannot apply: inverted ranges, negative penalties or
// counts, tiering cut-offs out of order and inconsistent effect thresholds.
func (t Thresholds) Validate() error {
	for name, r := range map[string]Range{
		"width_percent":    t.WidthPercent,
		"dynamic_range_db": t.DynamicRangeDb,
	} {
		if r.Min > r.Max {
			return fmt.Errorf("%w: %s: min %v above max %v", ErrInvalidThresholds, name, r.Min, r.Max)
		}
	}

	for name, penalty := range map[string]float64{
		"width_penalty":         t.WidthPenalty,
		"correlation_penalty":   t.CorrelationPenalty,
		"dynamic_range_penalty": t.DynamicRangePenalty,
		"clip_penalty":          t.ClipPenalty,
		"quiet_penalty":         t.QuietPenalty,
		"bass_heavy_penalty":    t.BassHeavyPenalty,
		"mid_poor_penalty":      t.MidPoorPenalty,
		"too_bright_penalty":    t.TooBrightPenalty,
	} {
		if penalty < 0 {
			return fmt.Errorf("%w: %s %v is negative", ErrInvalidThresholds, name, penalty)
		}
	}

	switch {
	case t.MissingEffects < 0:
		return fmt.Errorf("%w: missing_effects %d is negative", ErrInvalidThresholds, t.MissingEffects)
	case t.MissingEffectsCap < 0 || t.MissingEffectsCap > maxScore:
		return fmt.Errorf("%w: missing_effects_cap %v outside [0, %v]", ErrInvalidThresholds, t.MissingEffectsCap, maxScore)
	case t.TopRecommendations < 0:
		return fmt.Errorf("%w: top_recommendations %d is negative", ErrInvalidThresholds, t.TopRecommendations)
	case t.TopScore > t.PositiveScore:
		return fmt.Errorf("%w: top_score %v above positive_score %v", ErrInvalidThresholds, t.TopScore, t.PositiveScore)
	}

	if err := t.Effects.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidThresholds, err)
	}

	return nil
}
