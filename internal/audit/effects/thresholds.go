package effects

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidThresholds is returned by Thresholds.Validate.
var ErrInvalidThresholds = errors.New("invalid effect thresholds")

const weightTolerance = 1e-6

// Range is an inclusive [Min, Max] interval.
type Range struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Contains reports whether v lies inside the range, bounds included.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Step maps values strictly below Below to Amount.
type Step struct {
	Below  float64 `yaml:"below"`
	Amount float64 `yaml:"amount"`
}

// Zone is a rectangle over (width, correlation).
type Zone struct {
	Width       Range `yaml:"width"`
	Correlation Range `yaml:"correlation"`
}

// Contains reports whether the point lies inside the zone.
func (z Zone) Contains(width, correlation float64) bool {
	return z.Width.Contains(width) && z.Correlation.Contains(correlation)
}

// Factor is a tolerant piecewise rule: Good scores 1.0, anything outside Bad scores 0.0,
// values in between score Between.
type Factor struct {
	Good    Range   `yaml:"good"`
	Bad     Range   `yaml:"bad"` // tolerated range; outside of it scores 0
	Between float64 `yaml:"between"`
}

// Score applies the rule.
func (f Factor) Score(v float64) float64 {
	switch {
	case f.Good.Contains(v):
		return 1
	case !f.Bad.Contains(v):
		return 0
	default:
		return f.Between
	}
}

// Weights are the cohesion sub-factor weights. They are expected to sum to 1.
type Weights struct {
	SpectralCoherence  float64 `yaml:"spectral_coherence"`
	PhaseIntegrity     float64 `yaml:"phase_integrity"`
	DynamicConsistency float64 `yaml:"dynamic_consistency"`
	SpatialBalance     float64 `yaml:"spatial_balance"`
	DepthEstimate      float64 `yaml:"depth_estimate"`
}

// Thresholds holds every breakpoint the detector uses.
type Thresholds struct {
	// Compression, from crest factor (dB). Steps ascend; the last amount applies above them.
	CompressionSteps   []Step  `yaml:"compression_steps"`
	CompressionFloor   float64 `yaml:"compression_floor"`
	CompressionPresent float64 `yaml:"compression_present"` // amount >= this

	// Reverb, from energy envelope autocorrelation over early and late lag windows.
	ReverbFrameMs float64 `yaml:"reverb_frame_ms"` // envelope resolution
	ReverbEarlyMs float64 `yaml:"reverb_early_ms"`
	ReverbLateMs  float64 `yaml:"reverb_late_ms"`
	ReverbScale   float64 `yaml:"reverb_scale"`
	ReverbPresent float64 `yaml:"reverb_present"` // amount > this

	// Stereo processing, from (width, correlation).
	StereoProfessional     Zone    `yaml:"stereo_professional"`
	StereoAcceptable       Zone    `yaml:"stereo_acceptable"`
	StereoNarrowWidth      float64 `yaml:"stereo_narrow_width"`    // width below this scores 0
	StereoOverCorrelated   float64 `yaml:"stereo_over_correlated"` // correlation above this scores 0
	StereoOther            float64 `yaml:"stereo_other"`
	StereoAcceptableAmount float64 `yaml:"stereo_acceptable_amount"`
	StereoPresent          float64 `yaml:"stereo_present"` // amount >= this

	// EQ, from spectral flatness.
	EQCenter       float64 `yaml:"eq_center"`
	EQProfessional Range   `yaml:"eq_professional"`
	EQTolerated    Range   `yaml:"eq_tolerated"`
	EQFloor        float64 `yaml:"eq_floor"`
	EQBetween      float64 `yaml:"eq_between"`
	EQPresent      float64 `yaml:"eq_present"` // amount > this

	// Cohesion.
	SpectralCoherence  Factor  `yaml:"spectral_coherence"`  // spectral flatness
	PhaseIntegrity     Factor  `yaml:"phase_integrity"`     // correlation
	DynamicConsistency Factor  `yaml:"dynamic_consistency"` // crest factor dB
	SpatialBalance     Factor  `yaml:"spatial_balance"`     // |balance|
	DepthEstimate      Factor  `yaml:"depth_estimate"`      // reverb amount
	Weights            Weights `yaml:"weights"`
}

// DefaultThresholds returns the tuned breakpoints. Bands are wide: stylistic
// choices (dense rock spectra, dry electronic mixes) are not faults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		CompressionSteps: []Step{
			{Below: 6, Amount: 1.0},
			{Below: 9, Amount: 0.8},
			{Below: 12, Amount: 0.6},
			{Below: 15, Amount: 0.3},
		},
		CompressionFloor:   0,
		CompressionPresent: 0.6,

		ReverbFrameMs: 10,
		ReverbEarlyMs: 50,
		ReverbLateMs:  200,
		ReverbScale:   4,
		ReverbPresent: 0.25,

		StereoProfessional: Zone{
			Width:       Range{Min: 0.40, Max: 0.75},
			Correlation: Range{Min: 0.35, Max: 0.85},
		},
		StereoAcceptable: Zone{
			Width:       Range{Min: 0.30, Max: 0.85},
			Correlation: Range{Min: 0.20, Max: 0.90},
		},
		StereoNarrowWidth:      0.30,
		StereoOverCorrelated:   0.90,
		StereoOther:            0.4,
		StereoAcceptableAmount: 0.7,
		StereoPresent:          0.6,

		EQCenter:       0.20,
		EQProfessional: Range{Min: 0.05, Max: 0.40},
		EQTolerated:    Range{Min: 0.03, Max: 0.60},
		EQFloor:        0.50,
		EQBetween:      0.4,
		EQPresent:      0.50,

		SpectralCoherence: Factor{
			Good: Range{Min: 0.05, Max: 0.50}, Bad: Range{Min: 0.02, Max: 0.70}, Between: 0.6,
		},
		PhaseIntegrity: Factor{
			Good: Range{Min: 0.30, Max: 1}, Bad: Range{Min: 0, Max: 1}, Between: 0.6,
		},
		DynamicConsistency: Factor{
			Good: Range{Min: 4, Max: 20}, Bad: Range{Min: 2, Max: 25}, Between: 0.6,
		},
		SpatialBalance: Factor{
			Good: Range{Min: 0, Max: 0.10}, Bad: Range{Min: 0, Max: 0.30}, Between: 0.6,
		},
		DepthEstimate: Factor{
			Good: Range{Min: 0.10, Max: 0.80}, Bad: Range{Min: 0, Max: 0.95}, Between: 0.6,
		},
		Weights: Weights{
			SpectralCoherence:  0.25,
			PhaseIntegrity:     0.25,
			DynamicConsistency: 0.20,
			SpatialBalance:     0.15,
			DepthEstimate:      0.15,
		},
	}
}

// Validate rejects tables the detector cannot evaluate meaningfully.
func (t Thresholds) Validate() error {
	for name, r := range map[string]Range{
		"stereo_professional.width":       t.StereoProfessional.Width,
		"stereo_professional.correlation": t.StereoProfessional.Correlation,
		"stereo_acceptable.width":         t.StereoAcceptable.Width,
		"stereo_acceptable.correlation":   t.StereoAcceptable.Correlation,
		"eq_professional":                 t.EQProfessional,
		"eq_tolerated":                    t.EQTolerated,
		"spectral_coherence.good":         t.SpectralCoherence.Good,
		"spectral_coherence.bad":          t.SpectralCoherence.Bad,
		"phase_integrity.good":            t.PhaseIntegrity.Good,
		"phase_integrity.bad":             t.PhaseIntegrity.Bad,
		"dynamic_consistency.good":        t.DynamicConsistency.Good,
		"dynamic_consistency.bad":         t.DynamicConsistency.Bad,
		"spatial_balance.good":            t.SpatialBalance.Good,
		"spatial_balance.bad":             t.SpatialBalance.Bad,
		"depth_estimate.good":             t.DepthEstimate.Good,
		"depth_estimate.bad":              t.DepthEstimate.Bad,
	} {
		if r.Min > r.Max {
			return fmt.Errorf("%w: %s: min %v above max %v", ErrInvalidThresholds, name, r.Min, r.Max)
		}
	}

	for i := 1; i < len(t.CompressionSteps); i++ {
		if t.CompressionSteps[i].Below <= t.CompressionSteps[i-1].Below {
			return fmt.Errorf("%w: compression_steps must ascend", ErrInvalidThresholds)
		}
	}

	if t.ReverbFrameMs <= 0 || t.ReverbEarlyMs < 2*t.ReverbFrameMs || t.ReverbLateMs <= t.ReverbEarlyMs {
		return fmt.Errorf("%w: reverb windows need 0 < 2 x frame <= early < late (frame %v, early %v, late %v)",
			ErrInvalidThresholds, t.ReverbFrameMs, t.ReverbEarlyMs, t.ReverbLateMs)
	}

	if t.ReverbScale < 0 {
		return fmt.Errorf("%w: reverb_scale %v is negative", ErrInvalidThresholds, t.ReverbScale)
	}

	w := t.Weights
	weights := []float64{w.SpectralCoherence, w.PhaseIntegrity, w.DynamicConsistency, w.SpatialBalance, w.DepthEstimate}

	var sum float64

	for _, weight := range weights {
		if weight < 0 {
			return fmt.Errorf("%w: negative cohesion weight %v", ErrInvalidThresholds, weight)
		}

		sum += weight
	}

	if math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("%w: cohesion weights sum to %v, want 1", ErrInvalidThresholds, sum)
	}

	return nil
}
