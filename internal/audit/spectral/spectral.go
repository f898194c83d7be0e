package spectral

import (
	"log/slog"
	"math"

	"github.com/farcloser/consonance/internal/audit/shared"
	"github.com/farcloser/consonance/internal/dsp"
	"github.com/farcloser/consonance/internal/types"
)

const (
	// DefaultFFTSize is used whenever the buffer is long enough.
	DefaultFFTSize = 8192

	centroidMinHz = 20.0
	// Bins more than 80 dB below the spectrum peak are ignored by the centroid.
	centroidRelativeFloor = 1e-4
	// Numerical floor for flatness; anything below is treated as exact silence.
	flatnessFloor = 1e-12
)

type Options struct {
	FFTSize  int  // default 8192
	Weighted bool // apply the perceptual band weighting (default true via DefaultOptions)
}

func DefaultOptions() Options {
	return Options{
		FFTSize:  DefaultFFTSize,
		Weighted: true,
	}
}

// Analyze runs a single windowed transform over the first N samples.
// Buffers shorter than dsp.MinTransformSize yield a zeroed result.
func Analyze(samples []float64, sampleRate float64, opts Options) (*types.SpectralResult, error) {
	if opts.FFTSize == 0 {
		opts.FFTSize = DefaultFFTSize
	}

	fftSize := dsp.FitSize(len(samples), opts.FFTSize)
	if fftSize == 0 || sampleRate <= 0 {
		slog.Debug("spectral.Analyze", "stage", "degenerate", "samples", len(samples))

		return &types.SpectralResult{}, nil
	}

	transform, err := dsp.NewTransform(fftSize)
	if err != nil {
		return nil, err
	}

	magnitude := transform.Magnitudes(samples[:fftSize])
	binHz := sampleRate / float64(fftSize)

	result := &types.SpectralResult{
		FFTSize:  fftSize,
		BinHz:    binHz,
		Spectrum: magnitude,
		Centroid: calculateCentroid(magnitude, binHz),
		Flatness: spectralFlatness(magnitude[1:]),
	}

	result.BandRMS = calculateBandRMS(magnitude, binHz, sampleRate/2)
	result.BandPercent = normalizeBands(result.BandRMS, opts.Weighted)

	return result, nil
}

// calculateBandRMS returns the RMS magnitude within each band's bin range.
// Bands reaching past Nyquist are clamped; bands entirely above it are zero.
func calculateBandRMS(magnitude []float64, binHz, nyquist float64) types.FrequencyBands {
	var bands types.FrequencyBands

	for band, rng := range types.BandRanges {
		startBin := int(math.Ceil(rng.LowHz / binHz))
		endBin := int(math.Ceil(min(rng.HighHz, nyquist)/binHz)) - 1

		startBin = max(startBin, 0)
		endBin = min(endBin, len(magnitude)-1)

		if startBin > endBin {
			continue
		}

		var sum float64
		for i := startBin; i <= endBin; i++ {
			sum += magnitude[i] * magnitude[i]
		}

		bands[band] = math.Sqrt(sum / float64(endBin-startBin+1))
	}

	return bands
}

// normalizeBands converts band RMS to a percentage of total (optionally weighted) energy.
func normalizeBands(bandRMS types.FrequencyBands, weighted bool) types.FrequencyBands {
	var (
		percent types.FrequencyBands
		total   float64
	)

	for band, rng := range types.BandRanges {
		value := bandRMS[band]
		if weighted {
			value *= PerceptualWeight(math.Sqrt(rng.LowHz * rng.HighHz))
		}

		percent[band] = value
		total += value
	}

	if total <= 0 {
		return types.FrequencyBands{}
	}

	for band := range percent {
		percent[band] = percent[band] / total * 100
	}

	return percent
}

// PerceptualWeight is a fixed equal-loudness-inspired curve: quiet below 20 Hz, flat in the
// 500 Hz - 6 kHz region the ear is most sensitive to, rolling off again above 12 kHz.
func PerceptualWeight(freq float64) float64 {
	switch {
	case freq < 20:
		return 0.1
	case freq < 60:
		return 0.5
	case freq < 250:
		return 0.8
	case freq < 500:
		return 0.9
	case freq < 6000:
		return 1.0
	case freq < 12000:
		return 0.9
	default:
		return 0.6
	}
}

func calculateCentroid(magnitude []float64, binHz float64) float64 {
	var peak float64
	for _, mag := range magnitude {
		peak = max(peak, mag)
	}

	if peak <= 0 {
		return 0
	}

	floor := peak * centroidRelativeFloor

	var weightedSum float64
	var totalMag float64

	for i, mag := range magnitude {
		freq := float64(i) * binHz
		if freq < centroidMinHz || mag < floor {
			continue
		}

		weightedSum += freq * mag
		totalMag += mag
	}

	if totalMag <= shared.Epsilon {
		return 0
	}

	return weightedSum / totalMag
}

// spectralFlatness computes the Wiener entropy: geometric mean / arithmetic mean.
// Returns 1.0 for white noise (flat spectrum), lower for tonal content, 0 for silence.
func spectralFlatness(magnitudes []float64) float64 {
	var arithmeticSum float64
	var logSum float64
	count := 0

	for _, m := range magnitudes {
		if m > flatnessFloor {
			arithmeticSum += m
			logSum += math.Log(m)
			count++
		}
	}

	if count == 0 || arithmeticSum == 0 {
		return 0
	}

	arithmeticMean := arithmeticSum / float64(count)
	geometricMean := math.Exp(logSum / float64(count))

	return shared.Clamp(geometricMean/arithmeticMean, 0, 1)
}
