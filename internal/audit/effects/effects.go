// Package effects judges which mixing processes (compression, reverb, stereo processing, EQ)
// shaped a mix, and how well its spectral, phase, dynamic and spatial traits hold together.
package effects

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/farcloser/consonance/internal/audit/shared"
	"github.com/farcloser/consonance/internal/dsp"
	"github.com/farcloser/consonance/internal/types"
)

// Inputs are the features the detector consumes. Reverb is the amount returned by Reverb.
type Inputs struct {
	CrestFactorDb float64
	Flatness      float64
	Width         float64
	Correlation   float64
	Balance       float64
	Reverb        float64
}

// Detect classifies each effect independently and combines the cohesion factors.
func Detect(in Inputs, thresholds Thresholds) *types.EffectsResult {
	result := &types.EffectsResult{}

	compression := Compression(in.CrestFactorDb, thresholds)
	result.Effects[types.EffectCompression] = types.EffectJudgment{
		Present: compression >= thresholds.CompressionPresent,
		Amount:  compression,
	}

	reverb := shared.Clamp(in.Reverb, 0, 1)
	result.Effects[types.EffectReverb] = types.EffectJudgment{
		Present: reverb > thresholds.ReverbPresent,
		Amount:  reverb,
	}

	stereo := StereoProcessing(in.Width, in.Correlation, thresholds)
	result.Effects[types.EffectStereoProcessing] = types.EffectJudgment{
		Present: stereo >= thresholds.StereoPresent,
		Amount:  stereo,
	}

	eq := EQ(in.Flatness, thresholds)
	result.Effects[types.EffectEQ] = types.EffectJudgment{
		Present: eq > thresholds.EQPresent,
		Amount:  eq,
	}

	result.Factors = types.CohesionFactors{
		SpectralCoherence:  thresholds.SpectralCoherence.Score(in.Flatness),
		PhaseIntegrity:     thresholds.PhaseIntegrity.Score(in.Correlation),
		DynamicConsistency: thresholds.DynamicConsistency.Score(in.CrestFactorDb),
		SpatialBalance:     thresholds.SpatialBalance.Score(math.Abs(in.Balance)),
		DepthEstimate:      thresholds.DepthEstimate.Score(reverb),
	}
	result.Cohesion = cohesion(result.Factors, thresholds.Weights)

	return result
}

// Compression maps crest factor to an amount through descending steps.
func Compression(crestDb float64, thresholds Thresholds) float64 {
	for _, step := range thresholds.CompressionSteps {
		if crestDb < step.Below {
			return step.Amount
		}
	}

	return thresholds.CompressionFloor
}

// StereoProcessing classifies a (width, correlation) point into the professional, acceptable,
// narrow/over-correlated or remaining zone.
func StereoProcessing(width, correlation float64, thresholds Thresholds) float64 {
	switch {
	case thresholds.StereoProfessional.Contains(width, correlation):
		return 1
	case thresholds.StereoAcceptable.Contains(width, correlation):
		return thresholds.StereoAcceptableAmount
	case width < thresholds.StereoNarrowWidth || correlation > thresholds.StereoOverCorrelated:
		return 0
	default:
		return thresholds.StereoOther
	}
}

// EQ maps spectral flatness onto a tent centred in the professional range.
func EQ(flatness float64, thresholds Thresholds) float64 {
	switch {
	case thresholds.EQProfessional.Contains(flatness):
		halfWidth := thresholds.EQCenter
		if halfWidth <= 0 {
			return thresholds.EQFloor
		}

		return math.Max(thresholds.EQFloor, 1-math.Abs(flatness-thresholds.EQCenter)/halfWidth)
	case !thresholds.EQTolerated.Contains(flatness):
		return 0
	default:
		return thresholds.EQBetween
	}
}

// Reverb estimates how much of samples is a decaying tail. It correlates the frame energy
// envelope with itself: lags below ReverbEarlyMs give the early correlation, lags up to
// ReverbLateMs the late one. A reverberant tail keeps energy correlated into the late window
// while decaying from the early one; dry transients correlate at neither and stationary
// material does not decay. amount = scale x late x (1 - late/early), clamped to [0,1].
// Silent or too short input yields 0.
func Reverb(samples []float64, sampleRate float64, thresholds Thresholds) (float64, error) {
	frame := int(sampleRate * thresholds.ReverbFrameMs / 1000)
	if frame < 1 || thresholds.ReverbFrameMs <= 0 {
		return 0, nil
	}

	early := int(thresholds.ReverbEarlyMs / thresholds.ReverbFrameMs)
	late := int(thresholds.ReverbLateMs / thresholds.ReverbFrameMs)

	envelope := energyEnvelope(samples, frame)
	if early < 2 || late <= early || len(envelope) <= 2*late {
		return 0, nil
	}

	r, err := dsp.Autocorrelation(envelope, late)
	if err != nil {
		return 0, err
	}

	if r[0] <= shared.Epsilon {
		return 0, nil
	}

	frames := float64(len(envelope))
	power := r[0] / frames

	// Mean correlation over lags [from, to), each lag normalized by its overlap.
	correlation := func(from, to int) float64 {
		var sum float64

		for lag := from; lag < to; lag++ {
			sum += r[lag] / (frames - float64(lag)) / power
		}

		return sum / float64(to-from)
	}

	earlyCorr := correlation(1, early)
	if earlyCorr <= shared.Epsilon {
		return 0, nil
	}

	lateCorr := max(correlation(early, late+1), 0)
	decay := shared.Clamp(1-lateCorr/earlyCorr, 0, 1)

	return shared.Clamp(thresholds.ReverbScale*lateCorr*decay, 0, 1), nil
}

// energyEnvelope returns the mean-square energy of each full frame.
func energyEnvelope(samples []float64, frame int) []float64 {
	envelope := make([]float64, len(samples)/frame)

	for i := range envelope {
		segment := samples[i*frame : (i+1)*frame]
		envelope[i] = floats.Dot(segment, segment) / float64(frame)
	}

	return envelope
}

func cohesion(f types.CohesionFactors, w Weights) float64 {
	factors := []float64{f.SpectralCoherence, f.PhaseIntegrity, f.DynamicConsistency, f.SpatialBalance, f.DepthEstimate}
	weights := []float64{w.SpectralCoherence, w.PhaseIntegrity, w.DynamicConsistency, w.SpatialBalance, w.DepthEstimate}

	return shared.Clamp(floats.Dot(factors, weights), 0, 1)
}
