package dsp

import (
	"math"
)

const (
	// FilterWindowSize is the STFT frame length used by BandFilter.
	FilterWindowSize = 2048
	// FilterHop is the frame advance (window/4).
	FilterHop = FilterWindowSize / 4

	minWindowSum = 1e-3
)

// BandFilter keeps only the bins inside [lowHz, highHz] using overlap-add short-time Fourier
// filtering. The output has the same length as samples; samples is not modified.
func BandFilter(samples []float64, sampleRate, lowHz, highHz float64) ([]float64, error) {
	out := make([]float64, len(samples))
	if len(samples) == 0 {
		return out, nil
	}

	transform, err := NewTransform(FilterWindowSize)
	if err != nil {
		return nil, err
	}

	binHz := sampleRate / float64(FilterWindowSize)
	lowBin := int(math.Ceil(lowHz / binHz))
	highBin := int(math.Floor(highHz / binHz))

	window := transform.Window()
	windowSum := make([]float64, len(samples))

	for start := 0; start < len(samples); start += FilterHop {
		end := min(start+FilterWindowSize, len(samples))

		coeffs := transform.Forward(samples[start:end])
		for k := range coeffs {
			if k < lowBin || k > highBin {
				coeffs[k] = 0
			}
		}

		frame := transform.Inverse(coeffs)
		for i := 0; i < end-start; i++ {
			out[start+i] += frame[i]
			windowSum[start+i] += window[i]
		}

		if end == len(samples) {
			break
		}
	}

	for i := range out {
		if windowSum[i] > minWindowSum {
			out[i] /= windowSum[i]
		}
	}

	return out, nil
}

// Autocorrelation returns r[lag] for lag in [0, maxLag] of seq, computed through the FFT
// with zero padding so the result is linear (not circular). r[0] is the signal energy.
func Autocorrelation(seq []float64, maxLag int) ([]float64, error) {
	if len(seq) == 0 || maxLag < 0 {
		return nil, nil
	}

	maxLag = min(maxLag, len(seq)-1)

	transform, err := NewTransform(NextPowerOfTwo(2 * len(seq)))
	if err != nil {
		return nil, err
	}

	coeffs := transform.ForwardRaw(seq)
	for k, c := range coeffs {
		coeffs[k] = complex(real(c)*real(c)+imag(c)*imag(c), 0)
	}

	full := transform.Inverse(coeffs)

	result := make([]float64, maxLag+1)
	copy(result, full[:maxLag+1])

	return result, nil
}
