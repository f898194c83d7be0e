package stereo_test

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/farcloser/consonance/internal/audit/stereo"
)

func tone(n int, phase float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 0.5 * math.Sin(2*math.Pi*440*float64(i)/44100+phase)
	}

	return out
}

func TestIdenticalChannels(t *testing.T) {
	t.Parallel()

	left := tone(44100, 0)

	result := stereo.Analyze(left, left)

	if result.Correlation < 0.999 {
		t.Errorf("correlation %v, want ~1", result.Correlation)
	}

	if result.Width > 0.01 {
		t.Errorf("width %v, want near 0", result.Width)
	}

	if math.Abs(result.Balance) > 1e-9 {
		t.Errorf("balance %v", result.Balance)
	}

	if result.MidSideRatio != 1000 {
		t.Errorf("mid/side ratio %v, want capped 1000", result.MidSideRatio)
	}
}

func TestInvertedChannels(t *testing.T) {
	t.Parallel()

	left := tone(44100, 0)

	right := make([]float64, len(left))
	for i := range left {
		right[i] = -left[i]
	}

	result := stereo.Analyze(left, right)

	if result.Correlation > -0.999 {
		t.Errorf("correlation %v, want ~-1", result.Correlation)
	}

	if result.Width < 0.99 {
		t.Errorf("width %v, want ~1", result.Width)
	}

	if result.CancellationDb < 60 {
		t.Errorf("cancellation %v dB, want large", result.CancellationDb)
	}
}

func TestBalanceSign(t *testing.T) {
	t.Parallel()

	left := tone(4410, 0)

	right := make([]float64, len(left))
	for i := range left {
		right[i] = left[i] * 0.5
	}

	result := stereo.Analyze(left, right)

	if result.Balance >= 0 {
		t.Errorf("left louder should give negative balance, got %v", result.Balance)
	}

	if result.ImbalanceDb < 5.9 || result.ImbalanceDb > 6.1 {
		t.Errorf("imbalance %v dB, want ~6", result.ImbalanceDb)
	}
}

func TestBounds(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(3, 4))

	for range 20 {
		n := 100 + rng.IntN(2000)

		left := make([]float64, n)
		right := make([]float64, n)

		mix := rng.Float64()
		for i := range left {
			common := rng.NormFloat64()
			left[i] = common + mix*rng.NormFloat64()
			right[i] = common + mix*rng.NormFloat64()
		}

		result := stereo.Analyze(left, right)

		if result.Width < 0 || result.Width > 1 {
			t.Errorf("width %v out of range", result.Width)
		}

		if result.Correlation < -1 || result.Correlation > 1 {
			t.Errorf("correlation %v out of range", result.Correlation)
		}
	}
}

func TestSilence(t *testing.T) {
	t.Parallel()

	result := stereo.Analyze(make([]float64, 1000), make([]float64, 1000))

	if result.Correlation != 0 || result.Width != 0 || result.Balance != 0 {
		t.Errorf("silence: %+v", result)
	}

	empty := stereo.Analyze(nil, nil)
	if empty.Width != 0 {
		t.Errorf("empty: %+v", empty)
	}
}

func TestRemapWidthBreakpoints(t *testing.T) {
	t.Parallel()

	cases := []struct {
		ratio, want float64
	}{
		{ratio: 0, want: 0},
		{ratio: 0.2, want: 0.32},
		{ratio: 0.25, want: 0.40},
		{ratio: 0.325, want: 0.525},
		{ratio: 0.40, want: 0.65},
		{ratio: 0.70, want: 0.825},
		{ratio: 1, want: 1},
	}

	for _, tc := range cases {
		if got := stereo.RemapWidth(tc.ratio); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("RemapWidth(%v) = %v, want %v", tc.ratio, got, tc.want)
		}
	}
}
