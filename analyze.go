//nolint:wrapcheck
package consonance

import (
	"log/slog"
	"reflect"

	"github.com/farcloser/consonance/internal/audit/clipping"
	"github.com/farcloser/consonance/internal/audit/effects"
	"github.com/farcloser/consonance/internal/audit/loudness"
	"github.com/farcloser/consonance/internal/audit/spectral"
	"github.com/farcloser/consonance/internal/audit/stereo"
	"github.com/farcloser/consonance/internal/types"
)

// Options configures the analysis.
type Options struct {
	// Zero value = DefaultThresholds. Anything else replaces the whole table, so overrides
	// must start from DefaultThresholds; Analyze rejects a table that fails Validate.
	Thresholds Thresholds

	FFTSize int // spectral transform size (default 8192)

	// Stem estimation. SkipStems disables it; Stems shares a cache and in-flight work across
	// analyses (nil = a fresh, uncached estimator); Source is the cache key ("" = no caching).
	SkipStems bool
	Stems     *StemEstimator
	Source    string
}

// DefaultOptions returns the default analysis options.
func DefaultOptions() Options {
	return Options{
		Thresholds: DefaultThresholds(),
		FFTSize:    spectral.DefaultFFTSize,
	}
}

func applyDefaults(opts *Options) error {
	defaults := DefaultOptions()

	if reflect.ValueOf(opts.Thresholds).IsZero() {
		opts.Thresholds = defaults.Thresholds
	} else if err := opts.Thresholds.Validate(); err != nil {
		return err
	}

	if opts.FFTSize == 0 {
		opts.FFTSize = defaults.FFTSize
	}

	if opts.Stems == nil && !opts.SkipStems {
		opts.Stems = NewStemEstimator(nil)
	}

	return nil
}

// Analyze runs every analyzer over buffer and scores the mix. The buffer is not modified.
// Errors are returned only for invalid thresholds, an invalid buffer or a transform setup
// failure; degenerate input (short, silent) yields zeroed features.
func Analyze(buffer SampleBuffer, opts Options) (*Result, error) {
	if err := applyDefaults(&opts); err != nil {
		return nil, err
	}

	if err := buffer.Validate(); err != nil {
		return nil, err
	}

	result := &Result{
		SampleRate: buffer.SampleRate,
		Frames:     buffer.Frames(),
		Duration:   float64(buffer.Frames()) / buffer.SampleRate,
		thresholds: opts.Thresholds,
	}

	mid := buffer.Mid()

	var err error

	slog.Debug("consonance.Analyze", "stage", "spectral", "frames", result.Frames)

	result.Spectral, err = spectral.Analyze(mid, buffer.SampleRate, spectral.Options{
		FFTSize:  opts.FFTSize,
		Weighted: true,
	})
	if err != nil {
		return nil, err
	}

	slog.Debug("consonance.Analyze", "stage", "stereo")

	result.Stereo = stereo.Analyze(buffer.Left, buffer.Right)

	slog.Debug("consonance.Analyze", "stage", "loudness")

	result.Loudness = loudness.Analyze(buffer)
	result.Clipping = clipping.Detect(buffer)

	slog.Debug("consonance.Analyze", "stage", "effects")

	reverb, err := effects.Reverb(mid, buffer.SampleRate, opts.Thresholds.Effects)
	if err != nil {
		return nil, err
	}

	result.Effects = effects.Detect(effects.Inputs{
		CrestFactorDb: result.Loudness.CrestFactorDb,
		Flatness:      result.Spectral.Flatness,
		Width:         result.Stereo.Width,
		Correlation:   result.Stereo.Correlation,
		Balance:       result.Stereo.Balance,
		Reverb:        reverb,
	}, opts.Thresholds.Effects)

	if !opts.SkipStems {
		slog.Debug("consonance.Analyze", "stage", "stems", "source", opts.Source)

		result.Stems, err = opts.Stems.Estimate(opts.Source, buffer)
		if err != nil {
			return nil, err
		}
	}

	slog.Debug("consonance.Analyze", "stage", "score")

	interpretResults(result, opts.Thresholds)

	return result, nil
}

// Features extracts the scorer inputs from the raw results.
func (r *Result) Features() Features {
	features := Features{Effects: r.Effects}

	if r.Spectral != nil {
		features.Bands = r.Spectral.BandPercent
	}

	if r.Stereo != nil {
		features.Width = r.Stereo.Width
		features.Correlation = r.Stereo.Correlation
	}

	if r.Loudness != nil {
		features.DynamicRangeDb = r.Loudness.DynamicRangeDb
		features.Peak = r.Loudness.Peak

		if r.Loudness.TruePeak != nil {
			features.ISPCount = r.Loudness.TruePeak.ISPCount
		}
	}

	if r.Clipping != nil {
		features.ClipEvents = r.Clipping.Events
	}

	return features
}

func interpretResults(result *Result, thresholds Thresholds) {
	card := Score(result.Features(), thresholds)

	result.Issues = card.Issues
	result.PhaseIssues = card.PhaseIssues
	result.StereoIssues = card.StereoIssues
	result.FrequencyImbalance = card.FrequencyImbalance
	result.DynamicRangeIssues = card.DynamicRangeIssues
	result.HasClipping = card.HasClipping
	result.TooQuiet = card.TooQuiet
	result.HasCompression = card.HasCompression
	result.HasReverb = card.HasReverb
	result.HasStereoProcessing = card.HasStereoProcessing
	result.HasEQ = card.HasEQ

	result.TechnicalScore = card.TechnicalScore
	result.OverallScore = card.TechnicalScore
	result.engineRecommendations = card.Recommendations
	result.Recommendations = TierRecommendations(result.OverallScore, card.Recommendations, thresholds)

	// Calculate summary stats
	result.IssueCount = 0
	result.WorstSeverity = SeverityNone

	for _, issue := range result.Issues {
		if issue.Detected {
			result.IssueCount++
		}

		if issue.Severity > result.WorstSeverity {
			result.WorstSeverity = issue.Severity
		}
	}
}

// ApplyExternal merges an external score and recommendations. The overall score becomes
// max(technical, external): an external opinion never lowers the engine's own floor.
// Non-empty external recommendations replace the engine's as the tiering candidates.
func (r *Result) ApplyExternal(score float64, recommendations []string) {
	score = clampScore(score)
	r.ExternalScore = &score
	r.OverallScore = max(r.TechnicalScore, score)

	candidates := r.engineRecommendations
	if len(recommendations) > 0 {
		candidates = recommendations
	}

	r.Recommendations = TierRecommendations(r.OverallScore, candidates, r.thresholdsOrDefault())
}

func (r *Result) thresholdsOrDefault() Thresholds {
	if reflect.ValueOf(r.thresholds).IsZero() {
		return DefaultThresholds()
	}

	return r.thresholds
}

// ErrInvalidBuffer is returned by Analyze for a buffer with mismatched, empty channels or no sample rate.
var ErrInvalidBuffer = types.ErrInvalidBuffer
