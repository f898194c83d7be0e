// Package stems approximates vocal, drum, bass and "other" stems by frequency gating and
// transient emphasis. This is not source separation: energies are indicative only.
package stems

import (
	"log/slog"

	"golang.org/x/sync/singleflight"
	"gonum.org/v1/gonum/floats"

	"github.com/farcloser/consonance/internal/audit/shared"
	"github.com/farcloser/consonance/internal/audit/stereo"
	"github.com/farcloser/consonance/internal/dsp"
	"github.com/farcloser/consonance/internal/types"
)

const (
	// SeparationQuality is reported for every estimate; frequency gating is a coarse approximation.
	SeparationQuality = 0.5

	vocalsLowHz  = 200
	vocalsHighHz = 3000
	bassLowHz    = 20
	bassHighHz   = 250
	otherLowHz   = 3000

	transientFrameMs = 10
	risingGain       = 1.5
	fallingGain      = 0.5
)

// Estimator produces stem estimates, optionally memoized in a Cache.
type Estimator struct {
	cache *Cache
	group singleflight.Group
}

// NewEstimator returns an estimator backed by cache. A nil cache disables memoization.
func NewEstimator(cache *Cache) *Estimator {
	return &Estimator{cache: cache}
}

// Cache returns the cache this estimator writes to, or nil.
func (e *Estimator) Cache() *Cache {
	return e.cache
}

// Estimate returns the stems of buffer. key identifies the source; an empty key bypasses the
// cache. Concurrent calls with the same key share one computation.
// Every caller gets its own StemEstimate, but the per-stem sample slices are shared with the
// cache and must be treated as read-only.
func (e *Estimator) Estimate(key string, buffer types.SampleBuffer) (*types.StemEstimate, error) {
	if key == "" || e.cache == nil {
		return Estimate(buffer)
	}

	if estimate, ok := e.cache.Get(key); ok {
		slog.Debug("stems.Estimate", "stage", "cache hit", "key", key)

		return detach(estimate), nil
	}

	value, err, coalesced := e.group.Do(key, func() (any, error) {
		generation := e.cache.currentGeneration()

		estimate, err := Estimate(buffer)
		if err != nil {
			return nil, err
		}

		if !e.cache.putIfCurrent(key, generation, estimate) {
			slog.Debug("stems.Estimate", "stage", "cache cleared during estimation", "key", key)
		}

		return estimate, nil
	})
	if err != nil {
		return nil, err
	}

	slog.Debug("stems.Estimate", "stage", "computed", "key", key, "shared", coalesced)

	return detach(value.(*types.StemEstimate)), nil //nolint:forcetypeassert // only type stored
}

// detach copies the estimate so callers never alias the cached value.
func detach(estimate *types.StemEstimate) *types.StemEstimate {
	clone := *estimate

	return &clone
}

// Estimate computes the stems of buffer without caching.
func Estimate(buffer types.SampleBuffer) (*types.StemEstimate, error) {
	nyquist := buffer.SampleRate / 2

	result := &types.StemEstimate{
		SeparationQuality: SeparationQuality,
	}

	bands := []struct {
		stem        types.Stem
		lowHz, hiHz float64
	}{
		{stem: types.StemVocals, lowHz: vocalsLowHz, hiHz: vocalsHighHz},
		{stem: types.StemBass, lowHz: bassLowHz, hiHz: bassHighHz},
		{stem: types.StemOther, lowHz: otherLowHz, hiHz: nyquist},
	}

	for _, band := range bands {
		left, err := dsp.BandFilter(buffer.Left, buffer.SampleRate, band.lowHz, band.hiHz)
		if err != nil {
			return nil, err
		}

		right, err := dsp.BandFilter(buffer.Right, buffer.SampleRate, band.lowHz, band.hiHz)
		if err != nil {
			return nil, err
		}

		result.Stems[band.stem] = track(left, right)
	}

	result.Stems[types.StemDrums] = track(
		Transients(buffer.Left, buffer.SampleRate),
		Transients(buffer.Right, buffer.SampleRate),
	)

	var powers [types.StemCount]float64
	for i := range result.Stems {
		powers[i] = result.Stems[i].RMS * result.Stems[i].RMS
	}

	if total := floats.Sum(powers[:]); total > 0 {
		for i := range result.Stems {
			result.Stems[i].EnergyShare = powers[i] / total
		}
	}

	return result, nil
}

// Transients emphasizes attacks: each 10 ms frame is boosted when its energy rose from the
// previous frame and attenuated when it fell.
func Transients(samples []float64, sampleRate float64) []float64 {
	out := make([]float64, len(samples))

	frame := int(sampleRate * transientFrameMs / 1000)
	if frame < 1 {
		copy(out, samples)

		return out
	}

	previous := -1.0

	for start := 0; start < len(samples); start += frame {
		end := min(start+frame, len(samples))

		var energy float64
		for _, s := range samples[start:end] {
			energy += s * s
		}

		energy /= float64(end - start)

		gain := 1.0

		switch {
		case previous < 0:
		case energy > previous:
			gain = risingGain
		case energy < previous:
			gain = fallingGain
		}

		for i := start; i < end; i++ {
			out[i] = samples[i] * gain
		}

		previous = energy
	}

	return out
}

func track(left, right []float64) types.StemTrack {
	field := stereo.Analyze(left, right)

	return types.StemTrack{
		Left:    left,
		Right:   right,
		RMS:     (shared.RMS(left) + shared.RMS(right)) / 2,
		Peak:    max(shared.Peak(left), shared.Peak(right)),
		Width:   field.Width,
		Balance: field.Balance,
	}
}
