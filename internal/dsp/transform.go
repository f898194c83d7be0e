// Package dsp holds the Fourier primitives shared by the analyzers: a scoped real transform,
// the Hann analysis window, overlap-add band filtering and FFT autocorrelation.
package dsp

import (
	"errors"
	"fmt"
	"math"
	"math/bits"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

const (
	// MinTransformSize is the smallest transform the analyzers will run.
	MinTransformSize = 256

	// HannAmplitudeCorrection compensates the Hann window energy loss.
	HannAmplitudeCorrection = 1.63
)

// ErrTransformSetup is returned when a transform cannot be created for the requested size.
var ErrTransformSetup = errors.New("transform setup failed")

// Transform is a real-input FFT of a fixed power-of-two size with its scratch buffers.
// It is created for one call (or one buffer's worth of filtering) and then dropped.
type Transform struct {
	size   int
	fft    *fourier.FFT
	window []float64
	in     []float64
	coeffs []complex128
	out    []float64
}

// NewTransform allocates a transform of the given size.
func NewTransform(size int) (*Transform, error) {
	if !IsPowerOfTwo(size) || size < 2 {
		return nil, fmt.Errorf("%w: size %d is not a power of two", ErrTransformSetup, size)
	}

	return &Transform{
		size:   size,
		fft:    fourier.NewFFT(size),
		window: HannWindow(size),
		in:     make([]float64, size),
		coeffs: make([]complex128, size/2+1),
		out:    make([]float64, size),
	}, nil
}

// Size returns the transform length.
func (t *Transform) Size() int {
	return t.size
}

// Window returns the Hann coefficients used by this transform. Callers must not modify them.
func (t *Transform) Window() []float64 {
	return t.window
}

// Forward windows seq (zero padded to Size) and returns the complex spectrum, 0..N/2.
// The returned slice is reused by the next call.
func (t *Transform) Forward(seq []float64) []complex128 {
	for i := range t.in {
		if i < len(seq) {
			t.in[i] = seq[i] * t.window[i]
		} else {
			t.in[i] = 0
		}
	}

	return t.fft.Coefficients(t.coeffs, t.in)
}

// ForwardRaw transforms seq without applying the window.
func (t *Transform) ForwardRaw(seq []float64) []complex128 {
	for i := range t.in {
		if i < len(seq) {
			t.in[i] = seq[i]
		} else {
			t.in[i] = 0
		}
	}

	return t.fft.Coefficients(t.coeffs, t.in)
}

// Inverse returns the time-domain sequence for coeffs, normalized by 1/N.
// The returned slice is reused by the next call.
func (t *Transform) Inverse(coeffs []complex128) []float64 {
	seq := t.fft.Sequence(t.out, coeffs)

	scale := 1 / float64(t.size)
	for i := range seq {
		seq[i] *= scale
	}

	return seq
}

// Magnitudes returns |X[k]| / N * HannAmplitudeCorrection for every bin of the windowed seq.
func (t *Transform) Magnitudes(seq []float64) []float64 {
	coeffs := t.Forward(seq)
	mags := make([]float64, len(coeffs))
	scale := HannAmplitudeCorrection / float64(t.size)

	for i, c := range coeffs {
		mags[i] = math.Sqrt(real(c)*real(c)+imag(c)*imag(c)) * scale
	}

	return mags
}

// HannWindow returns w[i] = 0.5·(1 − cos(2π·i/(N−1))).
func HannWindow(size int) []float64 {
	ones := make([]float64, size)
	for i := range ones {
		ones[i] = 1
	}

	return window.Hann(ones)
}

// IsPowerOfTwo reports whether n is a positive power of two.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// NextPowerOfTwo returns the smallest power of two >= n.
func NextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}

	return 1 << bits.Len(uint(n-1))
}

// FitSize returns preferred if length allows it, otherwise the largest power of two <= length.
// It returns 0 when length is below MinTransformSize.
func FitSize(length, preferred int) int {
	if length < MinTransformSize {
		return 0
	}

	if length >= preferred {
		return preferred
	}

	return 1 << (bits.Len(uint(length)) - 1)
}
