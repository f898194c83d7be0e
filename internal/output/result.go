// Package output provides shared result serialization for consonance JSON output.
package output

import (
	"github.com/farcloser/consonance"
	"github.com/farcloser/consonance/internal/types"
)

// ResultToMap converts an analysis result into the canonical map structure
// used for JSON and JSONL serialization.
func ResultToMap(result *consonance.Result) map[string]any {
	scores := map[string]any{
		"technical": result.TechnicalScore,
		"overall":   result.OverallScore,
	}

	if result.ExternalScore != nil {
		scores["external"] = *result.ExternalScore
	}

	meta := map[string]any{
		"summary": map[string]any{
			"issue_count":    result.IssueCount,
			"worst_severity": result.WorstSeverity.String(),
		},
		"scores": scores,
		"flags": map[string]any{
			"phase_issues":          result.PhaseIssues,
			"stereo_issues":         result.StereoIssues,
			"frequency_imbalance":   result.FrequencyImbalance,
			"dynamic_range_issues":  result.DynamicRangeIssues,
			"has_clipping":          result.HasClipping,
			"too_quiet":             result.TooQuiet,
			"has_compression":       result.HasCompression,
			"has_reverb":            result.HasReverb,
			"has_stereo_processing": result.HasStereoProcessing,
			"has_eq":                result.HasEQ,
		},
		"recommendations": result.Recommendations,
		"duration_sec":    result.Duration,
		"sample_rate":     result.SampleRate,
	}

	if result.Summary != "" {
		meta["narrative"] = result.Summary
	}

	// Issues.
	issues := make([]any, 0, len(result.Issues))
	for _, issue := range result.Issues {
		issues = append(issues, map[string]any{
			"check":      issue.Check.String(),
			"detected":   issue.Detected,
			"severity":   issue.Severity.String(),
			"summary":    issue.Summary,
			"confidence": issue.Confidence,
			"deduction":  issue.Deduction,
		})
	}

	meta["issues"] = issues

	// Raw analyzer results.
	if r := result.Spectral; r != nil {
		meta["spectral"] = SpectralToMap(r)
	}

	if r := result.Stereo; r != nil {
		meta["stereo"] = map[string]any{
			"width":           r.Width,
			"correlation":     r.Correlation,
			"balance":         r.Balance,
			"mid_side_ratio":  r.MidSideRatio,
			"raw_side_ratio":  r.RawSideRatio,
			"left_rms":        r.LeftRms,
			"right_rms":       r.RightRms,
			"cancellation_db": r.CancellationDb,
			"imbalance_db":    r.ImbalanceDb,
		}
	}

	if r := result.Loudness; r != nil {
		loudness := map[string]any{
			"rms":                r.RMS,
			"peak":               r.Peak,
			"true_peak_estimate": r.TruePeakEstimate,
			"crest_factor_db":    r.CrestFactorDb,
			"dynamic_range_db":   r.DynamicRangeDb,
			"loudness_range_lu":  r.LoudnessRangeLU,
			"integrated_lufs":    r.IntegratedLUFS,
		}

		if tp := r.TruePeak; tp != nil {
			loudness["true_peak"] = map[string]any{
				"true_peak_db":   tp.TruePeakDb,
				"sample_peak_db": tp.SamplePeakDb,
				"isp_count":      tp.ISPCount,
			}
		}

		meta["loudness"] = loudness
	}

	if r := result.Clipping; r != nil {
		meta["clipping"] = ClippingToMap(r)
	}

	if r := result.Effects; r != nil {
		meta["effects"] = EffectsToMap(r)
	}

	if r := result.Stems; r != nil {
		meta["stems"] = StemsToMap(r)
	}

	return meta
}

// ClippingToMap converts clipping detection results to a map.
func ClippingToMap(result *types.ClippingDetection) map[string]any {
	channels := make([]any, 0, len(result.Channels))
	for i, ch := range result.Channels {
		channels = append(channels, map[string]any{
			"channel":         i,
			"events":          ch.Events,
			"clipped_samples": ch.ClippedSamples,
			"longest_run":     ch.LongestRun,
		})
	}

	return map[string]any{
		"events":          result.Events,
		"clipped_samples": result.ClippedSamples,
		"longest_run":     result.LongestRun,
		"samples":         result.Samples,
		"channels":        channels,
	}
}

// SpectralToMap converts spectral analysis results to a map. The raw spectrum is left out.
func SpectralToMap(result *types.SpectralResult) map[string]any {
	bands := make(map[string]any, types.BandCount)
	for band := range types.BandCount {
		bands[band.String()] = map[string]any{
			"rms":     result.BandRMS[band],
			"percent": result.BandPercent[band],
		}
	}

	return map[string]any{
		"fft_size":     result.FFTSize,
		"bin_hz":       result.BinHz,
		"centroid_hz":  result.Centroid,
		"flatness":     result.Flatness,
		"low_percent":  result.BandPercent.Low(),
		"mid_percent":  result.BandPercent.Mid(),
		"high_percent": result.BandPercent.High(),
		"bands":        bands,
	}
}

// EffectsToMap converts mixing-effects judgments to a map.
func EffectsToMap(result *types.EffectsResult) map[string]any {
	judgments := make(map[string]any, types.EffectCount)
	for effect := range types.EffectCount {
		judgments[effect.String()] = map[string]any{
			"present": result.Effects[effect].Present,
			"amount":  result.Effects[effect].Amount,
		}
	}

	return map[string]any{
		"detected": judgments,
		"cohesion": result.Cohesion,
		"factors": map[string]any{
			"spectral_coherence":  result.Factors.SpectralCoherence,
			"phase_integrity":     result.Factors.PhaseIntegrity,
			"dynamic_consistency": result.Factors.DynamicConsistency,
			"spatial_balance":     result.Factors.SpatialBalance,
			"depth_estimate":      result.Factors.DepthEstimate,
		},
	}
}

// StemsToMap converts a stem estimate to a map. Stem samples are left out.
func StemsToMap(result *types.StemEstimate) map[string]any {
	stems := make(map[string]any, types.StemCount)
	for stem := range types.StemCount {
		track := result.Stems[stem]
		stems[stem.String()] = map[string]any{
			"rms":          track.RMS,
			"peak":         track.Peak,
			"width":        track.Width,
			"balance":      track.Balance,
			"energy_share": track.EnergyShare,
		}
	}

	return map[string]any{
		"separation_quality": result.SeparationQuality,
		"tracks":             stems,
	}
}
