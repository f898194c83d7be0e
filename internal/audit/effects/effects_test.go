package effects_test

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/farcloser/consonance/internal/audit/effects"
	"github.com/farcloser/consonance/internal/types"
)

func TestCompressionSteps(t *testing.T) {
	t.Parallel()

	th := effects.DefaultThresholds()

	cases := []struct {
		crest float64
		want  float64
	}{
		{crest: 3, want: 1.0},
		{crest: 6, want: 0.8},
		{crest: 8.9, want: 0.8},
		{crest: 9, want: 0.6},
		{crest: 12, want: 0.3},
		{crest: 15, want: 0},
		{crest: 30, want: 0},
	}

	for _, tc := range cases {
		if got := effects.Compression(tc.crest, th); got != tc.want {
			t.Errorf("Compression(%v) = %v, want %v", tc.crest, got, tc.want)
		}
	}
}

func TestStereoProcessingZones(t *testing.T) {
	t.Parallel()

	th := effects.DefaultThresholds()

	cases := []struct {
		name        string
		width, corr float64
		want        float64
	}{
		{name: "professional", width: 0.5, corr: 0.6, want: 1},
		{name: "acceptable", width: 0.8, corr: 0.6, want: 0.7},
		{name: "narrow", width: 0.1, corr: 0.5, want: 0},
		{name: "over-correlated", width: 0.5, corr: 0.97, want: 0},
		{name: "other", width: 0.95, corr: 0.1, want: 0.4},
	}

	for _, tc := range cases {
		if got := effects.StereoProcessing(tc.width, tc.corr, th); got != tc.want {
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestEQTent(t *testing.T) {
	t.Parallel()

	th := effects.DefaultThresholds()

	if got := effects.EQ(0.20, th); got != 1 {
		t.Errorf("centre: got %v, want 1", got)
	}

	if got := effects.EQ(0.39, th); got != 0.5 {
		t.Errorf("edge of professional range: got %v, want floor 0.5", got)
	}

	if got := effects.EQ(0.5, th); got != 0.4 {
		t.Errorf("tolerated: got %v, want 0.4", got)
	}

	if got := effects.EQ(0.01, th); got != 0 {
		t.Errorf("outside: got %v, want 0", got)
	}
}

func TestDetectProfessionalMix(t *testing.T) {
	t.Parallel()

	result := effects.Detect(effects.Inputs{
		CrestFactorDb: 9,
		Flatness:      0.2,
		Width:         0.5,
		Correlation:   0.6,
		Balance:       0.02,
		Reverb:        0.4,
	}, effects.DefaultThresholds())

	for e := range types.EffectCount {
		if !result.Effects[e].Present {
			t.Errorf("%s: expected present, amount %v", e, result.Effects[e].Amount)
		}
	}

	if result.Cohesion < 0.7 {
		t.Errorf("cohesion %v, want >= 0.7", result.Cohesion)
	}

	if result.Missing() != 0 {
		t.Errorf("missing %d, want 0", result.Missing())
	}
}

func TestDetectNearMono(t *testing.T) {
	t.Parallel()

	result := effects.Detect(effects.Inputs{
		CrestFactorDb: 17,
		Flatness:      0.2,
		Width:         0.02,
		Correlation:   0.99,
		Reverb:        0.1,
	}, effects.DefaultThresholds())

	if result.Effects[types.EffectCompression].Present {
		t.Error("uncompressed material flagged as compressed")
	}

	if result.Effects[types.EffectStereoProcessing].Present {
		t.Error("near-mono flagged as stereo processed")
	}

	if result.Missing() < 3 {
		t.Errorf("missing %d, want >= 3", result.Missing())
	}
}

func TestCohesionFactorBands(t *testing.T) {
	t.Parallel()

	result := effects.Detect(effects.Inputs{
		CrestFactorDb: 1,    // bad
		Flatness:      0.6,  // between
		Correlation:   -0.2, // bad
		Balance:       -0.5, // bad
		Reverb:        0.99, // bad
	}, effects.DefaultThresholds())

	f := result.Factors
	if f.SpectralCoherence != 0.6 || f.PhaseIntegrity != 0 || f.DynamicConsistency != 0 ||
		f.SpatialBalance != 0 || f.DepthEstimate != 0 {
		t.Errorf("unexpected factors %+v", f)
	}

	if math.Abs(result.Cohesion-0.15) > 1e-9 {
		t.Errorf("cohesion %v, want 0.15", result.Cohesion)
	}
}

func TestReverbBounds(t *testing.T) {
	t.Parallel()

	th := effects.DefaultThresholds()

	silence := make([]float64, 44100)

	amount, err := effects.Reverb(silence, 44100, th)
	if err != nil {
		t.Fatal(err)
	}

	if amount != 0 {
		t.Errorf("silence: got %v, want 0", amount)
	}

	short, err := effects.Reverb(make([]float64, 100), 44100, th)
	if err != nil || short != 0 {
		t.Errorf("short buffer: got %v, %v", short, err)
	}

	rng := rand.New(rand.NewPCG(1, 2))

	noise := make([]float64, 44100)
	for i := range noise {
		noise[i] = rng.Float64()*2 - 1
	}

	amount, err = effects.Reverb(noise, 44100, th)
	if err != nil {
		t.Fatal(err)
	}

	if amount < 0 || amount > 1 {
		t.Errorf("noise: amount %v out of [0,1]", amount)
	}
}

// clickTrain places a click every 500 ms, each optionally followed by a noise tail decaying
// with time constant tailSeconds (0 = dry).
func clickTrain(seconds, tailSeconds float64) []float64 {
	const (
		sampleRate = 44100
		period     = sampleRate / 2
		offset     = 1000
	)

	rng := rand.New(rand.NewPCG(3, 4))
	samples := make([]float64, int(seconds*sampleRate))

	for click := offset; click < len(samples); click += period {
		samples[click] = 0.8

		if tailSeconds == 0 {
			continue
		}

		for n := 1; n < period && click+n < len(samples); n++ {
			decay := math.Exp(-float64(n) / (tailSeconds * sampleRate))
			samples[click+n] = 0.5 * decay * (rng.Float64()*2 - 1)
		}
	}

	return samples
}

func TestReverbSeparatesDryFromWet(t *testing.T) {
	t.Parallel()

	th := effects.DefaultThresholds()

	dry, err := effects.Reverb(clickTrain(3, 0), 44100, th)
	if err != nil {
		t.Fatal(err)
	}

	wet, err := effects.Reverb(clickTrain(3, 0.3), 44100, th)
	if err != nil {
		t.Fatal(err)
	}

	if !(dry < th.ReverbPresent && th.ReverbPresent < wet) {
		t.Errorf("dry %.3f, wet %.3f: want dry < %.2f < wet", dry, wet, th.ReverbPresent)
	}
}

func TestReverbStationaryIsDry(t *testing.T) {
	t.Parallel()

	th := effects.DefaultThresholds()
	rng := rand.New(rand.NewPCG(5, 6))

	noise := make([]float64, 2*44100)
	tone := make([]float64, 2*44100)

	for i := range noise {
		noise[i] = rng.Float64()*2 - 1
		tone[i] = 0.5 * math.Sin(2*math.Pi*440*float64(i)/44100)
	}

	for name, samples := range map[string][]float64{"white noise": noise, "sine": tone} {
		amount, err := effects.Reverb(samples, 44100, th)
		if err != nil {
			t.Fatal(err)
		}

		if amount >= th.ReverbPresent {
			t.Errorf("%s: reverb %.3f reads as present", name, amount)
		}
	}
}
