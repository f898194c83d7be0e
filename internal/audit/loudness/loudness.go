package loudness

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/farcloser/consonance/internal/audit/shared"
	"github.com/farcloser/consonance/internal/audit/truepeak"
	"github.com/farcloser/consonance/internal/types"
)

const (
	shortTermWindowMs = 100
	shortTermHopMs    = 50

	blockMs = 400
	hopMs   = 100 // 75% overlap

	absoluteGateLU = -70.0
	relativeGateLU = -10.0

	lraLowPercentile  = 0.10
	lraHighPercentile = 0.95

	// RLB high-pass corner (BS.1770), standing in for the full K-weighting stage.
	highPassHz = 38.13547087602444
	highPassQ  = 0.5003270373238773
)

// Biquad filter coefficients.
type biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
}

// Biquad filter state.
type biquadState struct {
	z1, z2 float64
}

func (s *biquadState) process(b *biquad, in float64) float64 {
	out := b.b0*in + s.z1
	s.z1 = b.b1*in - b.a1*out + s.z2
	s.z2 = b.b2*in - b.a2*out

	return out
}

// highPass returns the second order high-pass used as the simplified pre-filter.
func highPass(sampleRate float64) biquad {
	k := math.Tan(math.Pi * highPassHz / sampleRate)
	a0 := 1 + k/highPassQ + k*k

	return biquad{
		b0: 1 / a0,
		b1: -2 / a0,
		b2: 1 / a0,
		a1: 2 * (k*k - 1) / a0,
		a2: (1 - k/highPassQ + k*k) / a0,
	}
}

// Analyze computes level, crest, loudness range and integrated loudness for a stereo pair.
func Analyze(buffer types.SampleBuffer) *types.LoudnessResult {
	left, right := buffer.Left, buffer.Right

	rmsL, rmsR := shared.RMS(left), shared.RMS(right)
	rms := (rmsL + rmsR) / 2
	peak := max(shared.Peak(left), shared.Peak(right))
	truePeak := truepeak.Detect(buffer)

	result := &types.LoudnessResult{
		RMS:              rms,
		Peak:             peak,
		TruePeakEstimate: truePeak.TruePeak,
		IntegratedLUFS:   shared.FloorDb,
		TruePeak:         truePeak,
	}

	if peak > 0 && rms > 0 {
		result.CrestFactorDb = 20 * math.Log10(peak/rms)
		result.DynamicRangeDb = 20 * math.Log10(peak/(rms+shared.Epsilon))
	}

	result.LoudnessRangeLU = loudnessRange(left, right, buffer.SampleRate)
	result.IntegratedLUFS = integratedLoudness(left, right, buffer.SampleRate)

	return result
}

// loudnessRange is the spread between the 10th and 95th percentile of short-term loudness
// over overlapping 100 ms windows. Windows under the absolute gate are dropped.
func loudnessRange(left, right []float64, sampleRate float64) float64 {
	window := int(sampleRate * shortTermWindowMs / 1000)
	hop := int(sampleRate * shortTermHopMs / 1000)

	if window <= 0 || hop <= 0 || len(left) < window {
		return 0
	}

	var values []float64

	for start := 0; start+window <= len(left); start += hop {
		var sum float64
		for i := start; i < start+window; i++ {
			sum += left[i]*left[i] + right[i]*right[i]
		}

		rms := math.Sqrt(sum / float64(2*window))
		if rms <= 0 {
			continue
		}

		lu := 20*math.Log10(rms) + shared.LoudnessOffset
		if lu > absoluteGateLU {
			values = append(values, lu)
		}
	}

	if len(values) < 2 {
		return 0
	}

	sort.Float64s(values)

	low := stat.Quantile(lraLowPercentile, stat.Empirical, values, nil)
	high := stat.Quantile(lraHighPercentile, stat.Empirical, values, nil)

	return high - low
}

// integratedLoudness applies the high-pass pre-filter, measures 400 ms blocks with a 100 ms
// hop, then gates absolutely (-70) and relatively (gated mean - 10) before averaging.
func integratedLoudness(left, right []float64, sampleRate float64) float64 {
	block := int(sampleRate * blockMs / 1000)
	hop := int(sampleRate * hopMs / 1000)

	if block <= 0 || hop <= 0 || len(left) < block {
		return shared.FloorDb
	}

	filter := highPass(sampleRate)

	var stateL, stateR biquadState

	power := make([]float64, len(left))
	for i := range left {
		fl := stateL.process(&filter, left[i])
		fr := stateR.process(&filter, right[i])
		power[i] = fl*fl + fr*fr
	}

	// Running sum so each block is O(1).
	prefix := make([]float64, len(power)+1)
	for i, p := range power {
		prefix[i+1] = prefix[i] + p
	}

	var blocks []float64
	for start := 0; start+block <= len(power); start += hop {
		blocks = append(blocks, (prefix[start+block]-prefix[start])/float64(block))
	}

	return gatedLoudness(blocks)
}

func gatedLoudness(powers []float64) float64 {
	// First pass: absolute gate
	var (
		sum   float64
		count int
	)

	for _, p := range powers {
		if shared.PowerLoudness(p) > absoluteGateLU {
			sum += p
			count++
		}
	}

	if count == 0 {
		return shared.FloorDb
	}

	relativeThreshold := shared.PowerLoudness(sum/float64(count)) + relativeGateLU

	// Second pass: relative gate
	sum = 0
	count = 0

	for _, p := range powers {
		if shared.PowerLoudness(p) > relativeThreshold {
			sum += p
			count++
		}
	}

	if count == 0 {
		return shared.FloorDb
	}

	return shared.PowerLoudness(sum / float64(count))
}
