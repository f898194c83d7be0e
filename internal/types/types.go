//nolint:staticcheck // too dumb on Db vs. DB
package types

import (
	"errors"
	"fmt"
)

// ErrInvalidBuffer is returned when a SampleBuffer violates its shape contract.
var ErrInvalidBuffer = errors.New("invalid sample buffer")

type BitDepth uint

const (
	Depth16 BitDepth = 16
	Depth24 BitDepth = 24
	Depth32 BitDepth = 32
)

// PCMFormat describes interleaved little-endian signed PCM handed over by the decoder collaborator.
type PCMFormat struct {
	SampleRate int
	BitDepth   BitDepth
	Channels   uint
}

// SampleBuffer is a decoded stereo mix. The engine never mutates it.
type SampleBuffer struct {
	Left       []float64
	Right      []float64
	SampleRate float64
}

// NewMonoBuffer duplicates a mono signal to both channels.
func NewMonoBuffer(samples []float64, sampleRate float64) SampleBuffer {
	return SampleBuffer{
		Left:       samples,
		Right:      samples,
		SampleRate: sampleRate,
	}
}

// Validate checks left/right have equal, non-zero length and the sample rate is positive.
func (b SampleBuffer) Validate() error {
	if len(b.Left) == 0 || len(b.Left) != len(b.Right) {
		return fmt.Errorf("%w: channels must be non-empty and of equal length (%d/%d)", ErrInvalidBuffer, len(b.Left), len(b.Right))
	}

	if b.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be positive (%v)", ErrInvalidBuffer, b.SampleRate)
	}

	return nil
}

// Frames returns the number of stereo frames.
func (b SampleBuffer) Frames() int {
	return len(b.Left)
}

// Mid returns a fresh mono mix (L+R)/2.
func (b SampleBuffer) Mid() []float64 {
	mid := make([]float64, len(b.Left))
	for i := range mid {
		mid[i] = (b.Left[i] + b.Right[i]) / 2
	}

	return mid
}

/*
Spectral Analysis Interpretation

## Frequency Bands

| Band    | Range (Hz)   | Typical content                      |
|---------|--------------|--------------------------------------|
| sub     | 20-60        | Kick fundamental, sub bass, rumble   |
| bass    | 60-250       | Bass guitar, kick body, warmth       |
| lowMid  | 250-500      | Mud zone, guitar/piano body          |
| mid     | 500-2000     | Vocals, snare, presence of most parts|
| highMid | 2000-6000    | Intelligibility, attack, harshness   |
| high    | 6000-20000   | Air, cymbals, sibilance              |

Percentages are of total perceptually weighted energy. Combined view used by the scorer:

| Combined | Bands         | Healthy share | Flag when            |
|----------|---------------|---------------|----------------------|
| low      | sub + bass    | 20-45 %       | > 45 % (bass heavy)  |
| mid      | lowMid + mid  | 25-55 %       | < 25 % (mid poor)    |
| high     | highMid + high| 10-40 %       | > 40 % (too bright)  |

## Spectral Centroid

| Centroid Hz | Character                            |
|-------------|--------------------------------------|
| < 1500      | Dark, bassy                          |
| 1500-2500   | Warm, balanced                       |
| 2500-4000   | Bright, present                      |
| > 4000      | Very bright, potentially harsh       |

## Spectral Flatness

| Flatness  | Character                                          |
|-----------|----------------------------------------------------|
| < 0.03    | Extremely tonal (sine, solo instrument)            |
| 0.05-0.40 | Typical produced music (rock/metal sits low)       |
| > 0.60    | Noise-like                                         |
*/

// Band indexes the fixed analysis bands.
type Band int

const (
	BandSub Band = iota
	BandBass
	BandLowMid
	BandMid
	BandHighMid
	BandHigh

	BandCount
)

func (b Band) String() string {
	switch b {
	case BandSub:
		return "sub"
	case BandBass:
		return "bass"
	case BandLowMid:
		return "low_mid"
	case BandMid:
		return "mid"
	case BandHighMid:
		return "high_mid"
	case BandHigh:
		return "high"
	case BandCount:
	}

	return "unknown"
}

// BandRange is the [LowHz, HighHz) range of a band.
type BandRange struct {
	LowHz  float64
	HighHz float64
}

// BandRanges lists the fixed, ascending, non-overlapping band ranges.
//
//nolint:gochecknoglobals // configuration data, effectively const
var BandRanges = [BandCount]BandRange{
	BandSub:     {LowHz: 20, HighHz: 60},
	BandBass:    {LowHz: 60, HighHz: 250},
	BandLowMid:  {LowHz: 250, HighHz: 500},
	BandMid:     {LowHz: 500, HighHz: 2000},
	BandHighMid: {LowHz: 2000, HighHz: 6000},
	BandHigh:    {LowHz: 6000, HighHz: 20000},
}

// FrequencyBands holds one value per band.
type FrequencyBands [BandCount]float64

// Low returns sub + bass.
func (f FrequencyBands) Low() float64 {
	return f[BandSub] + f[BandBass]
}

// Mid returns lowMid + mid.
func (f FrequencyBands) Mid() float64 {
	return f[BandLowMid] + f[BandMid]
}

// High returns highMid + high.
func (f FrequencyBands) High() float64 {
	return f[BandHighMid] + f[BandHigh]
}

// SpectralResult contains the result of spectral analysis.
type SpectralResult struct {
	FFTSize  int
	BinHz    float64
	Spectrum []float64 // magnitude per bin, 0..N/2 inclusive

	BandRMS     FrequencyBands // raw RMS magnitude per band
	BandPercent FrequencyBands // percent of total weighted energy

	Centroid float64 // Hz
	Flatness float64 // 0 (tonal) .. 1 (noise)
}

/*
Stereo Analysis Interpretation

## Width (perceptual remap of side / (mid + side))

| Raw side ratio | Width     | Meaning                        |
|----------------|-----------|--------------------------------|
| < 0.25         | 0-0.40    | Mono-leaning                   |
| 0.25-0.40      | 0.40-0.65 | Balanced professional zone     |
| >= 0.40        | 0.65-1.00 | Wide, side-heavy               |

## Correlation

| Correlation | Diagnosis                    |
|-------------|------------------------------|
| > 0.95      | Near mono                    |
| 0.5 to 0.95 | Normal stereo                |
| 0 to 0.5    | Wide, mono-compatibility risk|
| < 0         | Phase problems               |

## Balance

Sign: positive = right louder, negative = left louder. |balance| > 0.1 is audible.
*/

// StereoResult contains stereo field features.
type StereoResult struct {
	Width        float64 // 0..1, perceptual
	Correlation  float64 // -1..1
	Balance      float64 // -1..1, positive = right louder
	MidSideRatio float64 // midRMS / sideRMS, capped

	RawSideRatio   float64 // side / (mid + side) before remap
	LeftRms        float64
	RightRms       float64
	CancellationDb float64 // stereo RMS - mono sum RMS; positive = loss when summed
	ImbalanceDb    float64 // left - right; positive = left louder
}

/*
Loudness Analysis Interpretation

## Crest Factor

| Crest (dB) | Interpretation                          |
|------------|-----------------------------------------|
| < 6        | Brickwalled                             |
| 6-9        | Heavily compressed, modern loud master  |
| 9-12       | Moderately compressed                   |
| 12-15      | Light compression                       |
| > 15       | Uncompressed, natural dynamics          |

## Loudness Range (LU)

| LRA (LU) | Interpretation                          |
|----------|-----------------------------------------|
| < 5      | Very compressed, little dynamics        |
| 5-10     | Moderate dynamics, typical pop/rock     |
| 10-15    | Good dynamics                           |
| > 15     | Wide dynamics, classical/jazz           |

Integrated loudness here is an approximation (high-pass pre-filter only), not a certified
EBU R128 measurement.
*/

// LoudnessResult contains level and dynamics features.
type LoudnessResult struct {
	RMS              float64 // mean of channel RMS
	Peak             float64 // max absolute sample
	TruePeakEstimate float64 // 4x oversampled peak, linear
	CrestFactorDb    float64
	DynamicRangeDb   float64
	LoudnessRangeLU  float64
	IntegratedLUFS   float64 // approximation

	TruePeak *TruePeakResult
}

// TruePeakResult contains the oversampled peak analysis.
type TruePeakResult struct {
	TruePeak     float64 // linear
	TruePeakDb   float64 // max reconstructed level; > 0 = ISP present
	SamplePeakDb float64
	ISPCount     uint64 // reconstructed samples above 0 dBFS
}

// ChannelClipping contains per channel clipping detection results.
type ChannelClipping struct {
	Events         uint64
	ClippedSamples uint64
	LongestRun     uint64
}

// ClippingDetection contains overall clipping detection results.
type ClippingDetection struct {
	Events         uint64
	ClippedSamples uint64
	LongestRun     uint64
	Samples        uint64
	Channels       [2]ChannelClipping
}

/*
Mixing Effects Interpretation

| Effect            | Derived from                 | Present when   |
|-------------------|------------------------------|----------------|
| compression       | crest factor steps           | amount >= 0.6  |
| reverb            | late/early autocorrelation   | amount > 0.25  |
| stereo processing | width x correlation zones    | amount >= 0.6  |
| eq                | spectral flatness tent       | amount > 0.5   |

Tolerance bands are deliberately wide: stylistic choices (dense rock spectra, dry
electronic mixes) are not faults. Only clear technical problems score low.
*/

// Effect indexes the detected mixing effects.
type Effect int

const (
	EffectCompression Effect = iota
	EffectReverb
	EffectStereoProcessing
	EffectEQ

	EffectCount
)

func (e Effect) String() string {
	switch e {
	case EffectCompression:
		return "compression"
	case EffectReverb:
		return "reverb"
	case EffectStereoProcessing:
		return "stereo_processing"
	case EffectEQ:
		return "eq"
	case EffectCount:
	}

	return "unknown"
}

// EffectJudgment is a presence / strength pair.
type EffectJudgment struct {
	Present bool
	Amount  float64 // 0..1
}

// CohesionFactors are the weighted components of the cohesion score.
type CohesionFactors struct {
	SpectralCoherence  float64
	PhaseIntegrity     float64
	DynamicConsistency float64
	SpatialBalance     float64
	DepthEstimate      float64
}

// EffectsResult contains mixing effect judgments and the combined cohesion score.
type EffectsResult struct {
	Effects  [EffectCount]EffectJudgment
	Cohesion float64 // 0..1
	Factors  CohesionFactors
}

// Missing returns how many effects were judged absent.
func (e *EffectsResult) Missing() int {
	missing := 0

	for _, j := range e.Effects {
		if !j.Present {
			missing++
		}
	}

	return missing
}

/*
Stem Estimation Interpretation

Stems are frequency-gated approximations, NOT source separation:

| Stem   | Method                                    |
|--------|-------------------------------------------|
| vocals | band-pass 200 Hz - 3 kHz                  |
| bass   | band-pass 20 - 250 Hz                     |
| drums  | transient emphasis over the full band     |
| other  | high-pass above 3 kHz                     |

SeparationQuality is fixed at 0.5. Energies and placements are indicative only.
*/

// Stem indexes the estimated stems.
type Stem int

const (
	StemVocals Stem = iota
	StemDrums
	StemBass
	StemOther

	StemCount
)

func (s Stem) String() string {
	switch s {
	case StemVocals:
		return "vocals"
	case StemDrums:
		return "drums"
	case StemBass:
		return "bass"
	case StemOther:
		return "other"
	case StemCount:
	}

	return "unknown"
}

// StemTrack is one estimated stem.
type StemTrack struct {
	Left        []float64
	Right       []float64
	RMS         float64
	Peak        float64
	Width       float64
	Balance     float64
	EnergyShare float64 // this stem's power over the sum of stem powers
}

// StemEstimate aggregates all estimated stems.
type StemEstimate struct {
	Stems             [StemCount]StemTrack
	SeparationQuality float64
}
