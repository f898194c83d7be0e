package shared

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// AmplitudeDb converts a linear amplitude to dBFS, floored at FloorDb.
func AmplitudeDb(v float64) float64 {
	if v <= 0 {
		return FloorDb
	}

	db := 20 * math.Log10(v)
	if db < FloorDb {
		return FloorDb
	}

	return db
}

// PowerLoudness converts a mean-square power to loudness units, floored at FloorDb.
func PowerLoudness(p float64) float64 {
	if p <= 0 {
		return FloorDb
	}

	return max(LoudnessOffset+10*math.Log10(p), FloorDb)
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}

	if v > hi {
		return hi
	}

	return v
}

// RMS returns the root-mean-square of samples; 0 for an empty slice.
func RMS(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}

	return math.Sqrt(floats.Dot(samples, samples) / float64(len(samples)))
}

// Peak returns the maximum absolute sample value; 0 for an empty slice.
func Peak(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}

	return max(floats.Max(samples), -floats.Min(samples), 0)
}
