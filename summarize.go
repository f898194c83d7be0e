package consonance

import (
	"context"
	"log/slog"
	"time"

	"github.com/farcloser/consonance/internal/audit/shared"
	"github.com/farcloser/consonance/internal/integration/summarizer"
	"github.com/farcloser/consonance/internal/narrative"
)

// FallbackScore is the external score used when the summarizer cannot be reached.
const FallbackScore = 50.0

// FallbackSummary is the narrative used when the summarizer cannot be reached.
const FallbackSummary = "Automated critique unavailable; the technical measurements and recommendations below still apply."

const summaryPrompt = "You are a mixing engineer. Critique this stereo mix from the measurements provided. " +
	"Answer with a short summary, a 0-100 score and a list of concrete recommendations."

// DefaultSummarizerTimeout bounds a summarizer call; feature payloads can be large.
const DefaultSummarizerTimeout = summarizer.DefaultTimeout

type (
	// SummaryRequest is the payload sent to a summarizer.
	SummaryRequest = summarizer.Request
	// SummaryResponse is a summarizer's critique.
	SummaryResponse = summarizer.Response
	// SummarizerClient talks to an HTTP summarization service.
	SummarizerClient = summarizer.Client
)

// Summarizer produces a narrative critique from a feature set.
type Summarizer interface {
	Summarize(ctx context.Context, req *SummaryRequest) (*SummaryResponse, error)
}

// NewSummarizerClient returns a client posting to endpoint, giving up after timeout.
func NewSummarizerClient(endpoint string, timeout time.Duration) *SummarizerClient {
	return summarizer.New(endpoint, timeout)
}

// Summarize asks s for a narrative critique of result and merges it in place. Any summarizer
// failure is absorbed: the fallback score and summary are used and the result stays valid.
// The final narrative always agrees with the final overall score band.
func Summarize(ctx context.Context, result *Result, s Summarizer) {
	var (
		resp *summarizer.Response
		err  error
	)

	if s != nil {
		resp, err = s.Summarize(ctx, &summarizer.Request{
			Prompt:   summaryPrompt,
			Features: result.FeatureMap(),
		})
	}

	if s == nil || err != nil || resp == nil {
		if err != nil {
			slog.Warn("summarizer unavailable, using fallback", "error", err)
		}

		resp = &summarizer.Response{Summary: FallbackSummary, Score: FallbackScore}
	}

	result.ApplyExternal(resp.Score, resp.Recommendations)

	text, violations := narrative.Ensure(resp.Summary, result.OverallScore)
	if violations != nil {
		slog.Warn("narrative contradicts score, replaced with template",
			"score", result.OverallScore,
			"band", narrative.Classify(result.OverallScore).String(),
			"terms", violations,
		)
	}

	result.Summary = text
}

// FeatureMap flattens the measurements sent to the summarizer.
func (r *Result) FeatureMap() map[string]any {
	features := map[string]any{
		"technical_score":       r.TechnicalScore,
		"duration_seconds":      r.Duration,
		"sample_rate":           r.SampleRate,
		"phase_issues":          r.PhaseIssues,
		"stereo_issues":         r.StereoIssues,
		"frequency_imbalance":   r.FrequencyImbalance,
		"dynamic_range_issues":  r.DynamicRangeIssues,
		"has_clipping":          r.HasClipping,
		"too_quiet":             r.TooQuiet,
		"has_compression":       r.HasCompression,
		"has_reverb":            r.HasReverb,
		"has_stereo_processing": r.HasStereoProcessing,
		"has_eq":                r.HasEQ,
		"recommendations":       r.engineRecommendations,
	}

	if r.Spectral != nil {
		features["spectral_centroid_hz"] = r.Spectral.Centroid
		features["spectral_flatness"] = r.Spectral.Flatness
		features["low_percent"] = r.Spectral.BandPercent.Low()
		features["mid_percent"] = r.Spectral.BandPercent.Mid()
		features["high_percent"] = r.Spectral.BandPercent.High()
	}

	if r.Stereo != nil {
		features["stereo_width"] = r.Stereo.Width
		features["phase_correlation"] = r.Stereo.Correlation
		features["stereo_balance"] = r.Stereo.Balance
	}

	if r.Loudness != nil {
		features["rms_db"] = shared.AmplitudeDb(r.Loudness.RMS)
		features["peak_db"] = shared.AmplitudeDb(r.Loudness.Peak)
		features["true_peak_db"] = shared.AmplitudeDb(r.Loudness.TruePeakEstimate)
		features["crest_factor_db"] = r.Loudness.CrestFactorDb
		features["dynamic_range_db"] = r.Loudness.DynamicRangeDb
		features["integrated_lufs"] = r.Loudness.IntegratedLUFS
		features["loudness_range"] = r.Loudness.LoudnessRangeLU
	}

	if r.Effects != nil {
		features["cohesion"] = r.Effects.Cohesion
	}

	return features
}

func clampScore(score float64) float64 {
	return shared.Clamp(score, 0, maxScore)
}
