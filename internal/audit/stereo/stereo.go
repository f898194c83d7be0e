package stereo

import (
	"math"

	"github.com/farcloser/consonance/internal/audit/shared"
	"github.com/farcloser/consonance/internal/types"
)

// Width remap breakpoints. Downstream scoring thresholds are tuned against this scale.
const (
	narrowRatio   = 0.25 // below: width = ratio * narrowSlope
	balancedRatio = 0.40 // 0.25..0.40 maps to 0.40..0.65, above maps to 0.65..1.00

	narrowSlope   = 1.6
	balancedFloor = 0.40
	wideFloor     = 0.65

	maxMidSideRatio = 1000.0
)

// Analyze derives width, correlation and balance from a stereo pair.
// left and right must have equal length; an empty pair yields the zero result.
func Analyze(left, right []float64) *types.StereoResult {
	frames := min(len(left), len(right))
	if frames == 0 {
		return &types.StereoResult{
			CancellationDb: 0,
			ImbalanceDb:    0,
		}
	}

	var sumL, sumR, sumLL, sumRR, sumLR float64
	var sumMidSq, sumSideSq float64

	for i := range frames {
		l := left[i]
		r := right[i]

		sumL += l
		sumR += r
		sumLL += l * l
		sumRR += r * r
		sumLR += l * r

		mid := (l + r) / 2
		side := (l - r) / 2
		sumMidSq += mid * mid
		sumSideSq += side * side
	}

	n := float64(frames)

	// Pearson correlation
	numerator := n*sumLR - sumL*sumR
	denominator := math.Sqrt(math.Max((n*sumLL-sumL*sumL)*(n*sumRR-sumR*sumR), 0))
	correlation := shared.Clamp(numerator/(denominator+shared.Epsilon), -1, 1)

	leftRms := math.Sqrt(sumLL / n)
	rightRms := math.Sqrt(sumRR / n)
	midRms := math.Sqrt(sumMidSq / n)
	sideRms := math.Sqrt(sumSideSq / n)
	stereoRms := math.Sqrt((sumLL + sumRR) / (2 * n))

	rawRatio := sideRms / (midRms + sideRms + shared.Epsilon)

	return &types.StereoResult{
		Width:          RemapWidth(rawRatio),
		Correlation:    correlation,
		Balance:        shared.Clamp((rightRms-leftRms)/(leftRms+rightRms+shared.Epsilon), -1, 1),
		MidSideRatio:   math.Min(midRms/(sideRms+shared.Epsilon), maxMidSideRatio),
		RawSideRatio:   rawRatio,
		LeftRms:        leftRms,
		RightRms:       rightRms,
		CancellationDb: shared.AmplitudeDb(stereoRms) - shared.AmplitudeDb(midRms),
		ImbalanceDb:    shared.AmplitudeDb(leftRms) - shared.AmplitudeDb(rightRms),
	}
}

// RemapWidth maps side/(mid+side) onto the three-segment perceptual width scale.
func RemapWidth(ratio float64) float64 {
	ratio = shared.Clamp(ratio, 0, 1)

	var width float64

	switch {
	case ratio < narrowRatio:
		width = ratio * narrowSlope
	case ratio < balancedRatio:
		width = balancedFloor + (ratio-narrowRatio)/(balancedRatio-narrowRatio)*(wideFloor-balancedFloor)
	default:
		width = wideFloor + (ratio-balancedRatio)/(1-balancedRatio)*(1-wideFloor)
	}

	return shared.Clamp(width, 0, 1)
}
