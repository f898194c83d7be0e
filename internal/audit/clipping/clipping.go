package clipping

import (
	"math"

	"github.com/farcloser/consonance/internal/types"
)

const (
	// Threshold is the normalized level at or above which a sample counts as full scale.
	Threshold = 0.999

	minRun = 2
)

// Detect counts runs of consecutive full-scale samples per channel. A single full-scale
// sample is not an event; two or more in a row are.
func Detect(buffer types.SampleBuffer) *types.ClippingDetection {
	result := &types.ClippingDetection{}

	for ch, channel := range [2][]float64{buffer.Left, buffer.Right} {
		var consecutive uint64

		for _, sample := range channel {
			result.Samples++

			if math.Abs(sample) >= Threshold {
				consecutive++

				continue
			}

			flush(result, ch, consecutive)

			consecutive = 0
		}

		// Trailing clip
		flush(result, ch, consecutive)
	}

	return result
}

func flush(result *types.ClippingDetection, ch int, run uint64) {
	if run < minRun {
		return
	}

	result.Channels[ch].Events++
	result.Channels[ch].ClippedSamples += run
	result.Channels[ch].LongestRun = max(result.Channels[ch].LongestRun, run)

	result.Events++
	result.ClippedSamples += run
	result.LongestRun = max(result.LongestRun, run)
}
