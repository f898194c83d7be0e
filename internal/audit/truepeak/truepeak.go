// Package truepeak estimates reconstructed (inter-sample) peaks with 4x polyphase oversampling.
package truepeak

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/farcloser/consonance/internal/audit/shared"
	"github.com/farcloser/consonance/internal/types"
)

const (
	oversample = 4 // ITU-R BS.1770 minimum at 44.1/48 kHz
	taps       = 12
	kaiserBeta = 5.0
)

//nolint:gochecknoglobals // computed once, read only
var phases = design(oversample, taps, kaiserBeta)

// design builds a Kaiser windowed sinc lowpass at the original Nyquist, split into
// one unity-gain sub-filter per output phase.
func design(factor, length int, beta float64) [][]float64 {
	total := factor * length
	center := float64(total-1) / 2
	norm := besselI0(beta)

	table := make([][]float64, factor)

	for phase := range table {
		coeffs := make([]float64, length)

		for tap := range coeffs {
			x := float64(tap*factor+phase) - center

			sinc := 1.0
			if math.Abs(x) >= shared.Epsilon {
				arg := math.Pi * x / float64(factor)
				sinc = math.Sin(arg) / arg
			}

			alpha := x / center
			coeffs[tap] = sinc * besselI0(beta*math.Sqrt(1-alpha*alpha)) / norm
		}

		floats.Scale(1/floats.Sum(coeffs), coeffs)
		table[phase] = coeffs
	}

	return table
}

// besselI0 is the zeroth order modified Bessel function of the first kind (power series).
func besselI0(x float64) float64 {
	sum, term := 1.0, 1.0

	for k := 1.0; k <= 25; k++ {
		term *= x * x / (4 * k * k)
		sum += term

		if term < 1e-12 {
			break
		}
	}

	return sum
}

// Meter tracks the true peak of one channel. Samples may be written in any number of chunks.
type Meter struct {
	// history holds the last taps samples twice so the window is always contiguous.
	history    [2 * taps]float64
	pos        int
	samplePeak float64
	truePeak   float64
	isp        uint64
}

// Write feeds samples to the meter.
func (m *Meter) Write(samples []float64) {
	for _, sample := range samples {
		m.samplePeak = max(m.samplePeak, math.Abs(sample))

		m.history[m.pos] = sample
		m.history[m.pos+taps] = sample
		m.pos = (m.pos + 1) % taps

		window := m.history[m.pos : m.pos+taps]

		for _, coeffs := range phases {
			level := math.Abs(floats.Dot(window, coeffs))
			m.truePeak = max(m.truePeak, level)

			if level > 1 {
				m.isp++
			}
		}
	}
}

// Result reports what the meter has seen so far. The true peak never reads below the sample peak.
func (m *Meter) Result() *types.TruePeakResult {
	truePeak := max(m.truePeak, m.samplePeak)

	return &types.TruePeakResult{
		TruePeak:     truePeak,
		TruePeakDb:   shared.AmplitudeDb(truePeak),
		SamplePeakDb: shared.AmplitudeDb(m.samplePeak),
		ISPCount:     m.isp,
	}
}

// Detect meters both channels of buffer and reports the louder one, with ISPs summed.
func Detect(buffer types.SampleBuffer) *types.TruePeakResult {
	var left, right Meter

	left.Write(buffer.Left)
	right.Write(buffer.Right)

	lres, rres := left.Result(), right.Result()

	result := lres
	if rres.TruePeak > lres.TruePeak {
		result = rres
	}

	result.SamplePeakDb = max(lres.SamplePeakDb, rres.SamplePeakDb)
	result.ISPCount = lres.ISPCount + rres.ISPCount

	return result
}
