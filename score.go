package consonance

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/farcloser/consonance/internal/audit/shared"
	"github.com/farcloser/consonance/internal/types"
)

// PositiveRecommendation is the only recommendation returned for high scores.
const PositiveRecommendation = "Your mix is well balanced. No significant technical issues detected; trust your ears for final creative decisions."

const maxScore = 100.0

// Features are the measurements the scorer consumes.
type Features struct {
	Width          float64 // 0..1
	Correlation    float64 // -1..1
	DynamicRangeDb float64
	Peak           float64              // linear
	Bands          types.FrequencyBands // percent of weighted energy
	Effects        *types.EffectsResult
	ClipEvents     uint64
	ISPCount       uint64
}

// Scorecard is the scorer's output before external opinions are merged.
type Scorecard struct {
	TechnicalScore float64

	PhaseIssues        bool
	StereoIssues       bool
	FrequencyImbalance bool
	DynamicRangeIssues bool
	HasClipping        bool
	TooQuiet           bool

	HasCompression      bool
	HasReverb           bool
	HasStereoProcessing bool
	HasEQ               bool

	Issues []Issue

	// Engine recommendations, largest deduction first.
	Recommendations []string
}

type finding struct {
	issue          Issue
	recommendation string
}

// Score applies the ordered penalty rules. Deductions are additive; the missing-effects cap
// and the [0, 100] clamp are applied after all of them.
func Score(features Features, thresholds Thresholds) *Scorecard {
	card := &Scorecard{}

	var findings []finding

	add := func(issue Issue, recommendation string) {
		findings = append(findings, finding{issue: issue, recommendation: recommendation})
	}

	// Stereo width
	widthPercent := features.Width * 100
	card.StereoIssues = !thresholds.WidthPercent.Contains(widthPercent)
	{
		issue := Issue{Check: CheckStereoWidth, Confidence: 1.0}

		switch {
		case widthPercent < thresholds.WidthPercent.Min:
			issue.Detected = true
			issue.Deduction = thresholds.WidthPenalty
			issue.Severity = thresholds.deviationSeverity(thresholds.WidthPercent.Min-widthPercent, thresholds.WidthPercent.Min)
			issue.Summary = fmt.Sprintf("Narrow stereo image (%.0f%% width)", widthPercent)
			add(issue, "Widen the stereo image: pan supporting parts (guitars, keys, backing vocals) away from the centre.")
		case widthPercent > thresholds.WidthPercent.Max:
			issue.Detected = true
			issue.Deduction = thresholds.WidthPenalty
			issue.Severity = thresholds.deviationSeverity(widthPercent-thresholds.WidthPercent.Max, thresholds.WidthPercent.Max)
			issue.Summary = fmt.Sprintf("Very wide stereo image (%.0f%% width)", widthPercent)
			add(issue, "Rein in the stereo width: keep bass, kick and lead vocal centred and reduce stereo widening.")
		default:
			issue.Summary = fmt.Sprintf("Stereo width %.0f%%", widthPercent)
			add(issue, "")
		}
	}

	// Phase correlation
	card.PhaseIssues = features.Correlation < thresholds.MinCorrelation
	{
		issue := Issue{Check: CheckPhaseCorrelation, Confidence: 1.0}

		if card.PhaseIssues {
			issue.Detected = true
			issue.Deduction = thresholds.CorrelationPenalty
			issue.Severity = thresholds.deviationSeverity(thresholds.MinCorrelation-features.Correlation, thresholds.MinCorrelation)
			issue.Summary = fmt.Sprintf("Low phase correlation (%.2f), mono compatibility at risk", features.Correlation)
			add(issue, "Check mono compatibility: look for out-of-phase layers, stereo wideners and mis-aligned multi-mic sources.")
		} else {
			issue.Summary = fmt.Sprintf("Phase correlation %.2f", features.Correlation)
			add(issue, "")
		}
	}

	// Dynamic range
	card.DynamicRangeIssues = !thresholds.DynamicRangeDb.Contains(features.DynamicRangeDb)
	{
		issue := Issue{Check: CheckDynamicRange, Confidence: 0.9}

		switch {
		case features.DynamicRangeDb < thresholds.DynamicRangeDb.Min:
			issue.Detected = true
			issue.Deduction = thresholds.DynamicRangePenalty
			issue.Severity = thresholds.deviationSeverity(thresholds.DynamicRangeDb.Min-features.DynamicRangeDb, thresholds.DynamicRangeDb.Min)
			issue.Summary = fmt.Sprintf("Over-compressed (%.1f dB dynamic range)", features.DynamicRangeDb)
			add(issue, "Ease off bus compression and limiting to restore transients and punch.")
		case features.DynamicRangeDb > thresholds.DynamicRangeDb.Max:
			issue.Detected = true
			issue.Deduction = thresholds.DynamicRangePenalty
			issue.Severity = thresholds.deviationSeverity(features.DynamicRangeDb-thresholds.DynamicRangeDb.Max, thresholds.DynamicRangeDb.Max)
			issue.Summary = fmt.Sprintf("Very wide dynamics (%.1f dB dynamic range)", features.DynamicRangeDb)
			add(issue, "Control peaks with gentle compression so quiet passages stay audible.")
		default:
			issue.Summary = fmt.Sprintf("Dynamic range %.1f dB", features.DynamicRangeDb)
			add(issue, "")
		}
	}

	// Peak level
	card.HasClipping = features.Peak >= thresholds.ClipPeak
	card.TooQuiet = features.Peak < thresholds.QuietPeak
	{
		issue := Issue{Check: CheckClipping, Confidence: 1.0}

		if card.HasClipping {
			issue.Detected = true
			issue.Deduction = thresholds.ClipPenalty
			issue.Severity, _ = thresholds.ClipEvents.Match(float64(features.ClipEvents))
			issue.Severity = max(issue.Severity, SeverityMild)
			issue.Summary = fmt.Sprintf("Peak at %.1f dBFS, %d clipping events", shared.AmplitudeDb(features.Peak), features.ClipEvents)
			add(issue, "Lower the master level or the limiter ceiling to leave at least 1 dB of headroom.")
		} else {
			issue.Summary = "No clipping detected"
			add(issue, "")
		}

		level := Issue{Check: CheckLevel, Confidence: 1.0}

		if card.TooQuiet {
			level.Detected = true
			level.Deduction = thresholds.QuietPenalty
			level.Severity = thresholds.deviationSeverity(thresholds.QuietPeak-features.Peak, thresholds.QuietPeak)
			level.Summary = fmt.Sprintf("Mix is too quiet (peak %.1f dBFS)", shared.AmplitudeDb(features.Peak))
			add(level, "Raise the overall level; the mix peaks well below full scale.")
		} else {
			level.Summary = fmt.Sprintf("Peak level %.1f dBFS", shared.AmplitudeDb(features.Peak))
			add(level, "")
		}
	}

	// Frequency balance, only meaningful with energy present.
	var total float64
	for _, value := range features.Bands {
		total += value
	}

	if total > 0 {
		low := features.Bands.Low() / total * 100
		mid := features.Bands.Mid() / total * 100
		high := features.Bands.High() / total * 100

		balance := []struct {
			check          Check
			detected       bool
			value, limit   float64
			penalty        float64
			summary        string
			ok             string
			recommendation string
		}{
			{
				check: CheckBassHeavy, detected: low > thresholds.BassHeavyPercent,
				value: low, limit: thresholds.BassHeavyPercent, penalty: thresholds.BassHeavyPenalty,
				summary:        "Bass heavy (%.0f%% low end)",
				ok:             "Low end %.0f%%",
				recommendation: "Tame the low end: high-pass non-bass parts and carve space between kick and bass.",
			},
			{
				check: CheckMidPoor, detected: mid < thresholds.MidPoorPercent,
				value: mid, limit: thresholds.MidPoorPercent, penalty: thresholds.MidPoorPenalty,
				summary:        "Thin midrange (%.0f%% mids)",
				ok:             "Midrange %.0f%%",
				recommendation: "Bring up the midrange where vocals and lead instruments live (roughly 250 Hz - 2 kHz).",
			},
			{
				check: CheckTooBright, detected: high > thresholds.TooBrightPercent,
				value: high, limit: thresholds.TooBrightPercent, penalty: thresholds.TooBrightPenalty,
				summary:        "Too bright (%.0f%% high end)",
				ok:             "High end %.0f%%",
				recommendation: "Reduce harshness: de-ess vocals and pull back 3-8 kHz on cymbals and bright sources.",
			},
		}

		for _, rule := range balance {
			issue := Issue{Check: rule.check, Confidence: 0.8}

			if rule.detected {
				card.FrequencyImbalance = true
				issue.Detected = true
				issue.Deduction = rule.penalty
				issue.Severity = thresholds.deviationSeverity(math.Abs(rule.value-rule.limit), rule.limit)
				issue.Summary = fmt.Sprintf(rule.summary, rule.value)
				add(issue, rule.recommendation)
			} else {
				issue.Summary = fmt.Sprintf(rule.ok, rule.value)
				add(issue, "")
			}
		}
	}

	score := maxScore
	for _, f := range findings {
		score -= f.issue.Deduction
	}

	// Mixing effects
	if features.Effects != nil {
		card.HasCompression = features.Effects.Effects[types.EffectCompression].Present
		card.HasReverb = features.Effects.Effects[types.EffectReverb].Present
		card.HasStereoProcessing = features.Effects.Effects[types.EffectStereoProcessing].Present
		card.HasEQ = features.Effects.Effects[types.EffectEQ].Present

		issue := Issue{Check: CheckMixingEffects, Confidence: 0.6}
		missing := features.Effects.Missing()

		if missing >= thresholds.MissingEffects && score > thresholds.MissingEffectsCap {
			issue.Detected = true
			issue.Deduction = score - thresholds.MissingEffectsCap
			issue.Severity = SeverityModerate
			issue.Summary = fmt.Sprintf("%d of %d mixing processes not detected, mix sounds unfinished", missing, types.EffectCount)
			score = thresholds.MissingEffectsCap

			add(issue, "Apply core mix processing: gentle compression for glue, EQ to separate parts, and reverb for depth.")
		} else {
			issue.Detected = missing >= thresholds.MissingEffects
			issue.Summary = fmt.Sprintf("%d of %d mixing processes detected", int(types.EffectCount)-missing, types.EffectCount)
			add(issue, "")
		}
	}

	// Inter-sample peaks: informational, no deduction.
	{
		severity, detected := thresholds.InterSamplePeaks.Match(float64(features.ISPCount))
		issue := Issue{
			Check:      CheckInterSamplePeaks,
			Detected:   detected,
			Severity:   severity,
			Summary:    fmt.Sprintf("%d inter-sample peaks", features.ISPCount),
			Confidence: 1.0,
		}
		add(issue, "")
	}

	card.TechnicalScore = shared.Clamp(score, 0, maxScore)

	for _, f := range findings {
		card.Issues = append(card.Issues, f.issue)
	}

	ranked := slices.Clone(findings)
	slices.SortStableFunc(ranked, func(a, b finding) int {
		return cmp.Compare(b.issue.Deduction, a.issue.Deduction)
	})

	for _, f := range ranked {
		if f.recommendation != "" && f.issue.Detected {
			card.Recommendations = append(card.Recommendations, f.recommendation)
		}
	}

	return card
}

// TierRecommendations shapes the candidate list by score: a single positive message at or above
// PositiveScore, the first TopRecommendations at or above TopScore, all of them otherwise.
func TierRecommendations(score float64, candidates []string, thresholds Thresholds) []string {
	switch {
	case score >= thresholds.PositiveScore:
		return []string{PositiveRecommendation}
	case score >= thresholds.TopScore:
		return slices.Clone(candidates[:max(0, min(thresholds.TopRecommendations, len(candidates)))])
	default:
		return slices.Clone(candidates)
	}
}

// deviationSeverity grades how far past its limit a value went, relative to the limit.
func (t Thresholds) deviationSeverity(excess, limit float64) Severity {
	relative := excess / (math.Abs(limit) + shared.Epsilon)

	severity, _ := t.Deviation.Match(relative)

	return max(severity, SeverityMild)
}
