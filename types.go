package consonance

import (
	"github.com/farcloser/consonance/internal/audit/stems"
	"github.com/farcloser/consonance/internal/types"
)

// SampleBuffer is a decoded stereo mix.
type SampleBuffer = types.SampleBuffer

// StemCache memoizes stem estimates by source identity.
type StemCache = stems.Cache

// StemEstimator estimates stems, sharing work between concurrent callers of one source.
type StemEstimator = stems.Estimator

// NewStemCache returns an empty stem cache.
func NewStemCache() *StemCache {
	return stems.NewCache()
}

// NewStemEstimator returns an estimator memoizing into cache (nil disables memoization).
func NewStemEstimator(cache *StemCache) *StemEstimator {
	return stems.NewEstimator(cache)
}

// Result contains all analysis results.
type Result struct {
	// High-level issues, one per check.
	Issues []Issue

	// Issue flags
	PhaseIssues        bool
	StereoIssues       bool
	FrequencyImbalance bool
	DynamicRangeIssues bool
	HasClipping        bool
	TooQuiet           bool

	// Detected mixing processes
	HasCompression      bool
	HasReverb           bool
	HasStereoProcessing bool
	HasEQ               bool

	// Scores, 0-100. OverallScore never drops below TechnicalScore.
	TechnicalScore float64
	ExternalScore  *float64
	OverallScore   float64

	Recommendations []string
	Summary         string // narrative, set by Summarize

	// Summary
	IssueCount    int
	WorstSeverity Severity

	// Source
	SampleRate float64
	Frames     int
	Duration   float64 // seconds

	// Raw analysis results (nil when not computed)
	Spectral *types.SpectralResult
	Stereo   *types.StereoResult
	Loudness *types.LoudnessResult
	Clipping *types.ClippingDetection
	Effects  *types.EffectsResult
	Stems    *types.StemEstimate // per-stem sample slices may be shared through a StemCache: read-only

	thresholds            Thresholds
	engineRecommendations []string
}
