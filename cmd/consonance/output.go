//nolint:wrapcheck
package main

import (
	"fmt"
	"math"
	"os"

	"github.com/farcloser/primordium/format"

	"github.com/farcloser/consonance"
	"github.com/farcloser/consonance/internal/narrative"
	"github.com/farcloser/consonance/internal/output"
)

//nolint:gochecknoglobals // configuration data, effectively const
var checkCategory = map[consonance.Check]string{
	consonance.CheckStereoWidth:      "1. Stereo field",
	consonance.CheckPhaseCorrelation: "1. Stereo field",

	consonance.CheckDynamicRange:     "2. Dynamics & levels",
	consonance.CheckClipping:         "2. Dynamics & levels",
	consonance.CheckLevel:            "2. Dynamics & levels",
	consonance.CheckInterSamplePeaks: "2. Dynamics & levels",

	consonance.CheckBassHeavy: "3. Frequency balance",
	consonance.CheckMidPoor:   "3. Frequency balance",
	consonance.CheckTooBright: "3. Frequency balance",

	consonance.CheckMixingEffects: "4. Mix processing",
}

// categoryOrder defines the display order for categories (numbered for sorting).
//
//nolint:gochecknoglobals // configuration data, effectively const
var categoryOrder = []string{
	"1. Stereo field",
	"2. Dynamics & levels",
	"3. Frequency balance",
	"4. Mix processing",
}

func outputResult(filePath string, result *consonance.Result, formatName string, debug bool) error {
	formatter, err := format.GetFormatter(formatName)
	if err != nil {
		return err
	}

	var meta map[string]any
	if debug {
		meta = output.ResultToMap(result)
	} else {
		meta = buildFriendlyOutput(result)
	}

	data := &format.Data{
		Object: filePath,
		Meta:   meta,
	}

	return formatter.PrintAll([]*format.Data{data}, os.Stdout)
}

// buildFriendlyOutput creates a user-friendly summary of the analysis results.
func buildFriendlyOutput(result *consonance.Result) map[string]any {
	summary := result.Summary
	if summary == "" {
		summary = narrative.Template(result.OverallScore)
	}

	meta := map[string]any{
		"score":           fmt.Sprintf("%.0f/100 (technical: %.0f)", result.OverallScore, result.TechnicalScore),
		"summary":         summary,
		"recommendations": result.Recommendations,
	}

	// Group issues by category.
	categoryIssues := make(map[string][]any)

	for _, issue := range result.Issues {
		category, ok := checkCategory[issue.Check]
		if !ok {
			continue
		}

		marker := "  "
		if issue.Detected {
			marker = "!!"
		}

		line := fmt.Sprintf("%s [%s] %s: %s (%.0f%% confidence)",
			marker, issue.Severity, issue.Check, issue.Summary, issue.Confidence*100)

		if issue.Deduction > 0 {
			line += fmt.Sprintf(", -%.0f", issue.Deduction)
		}

		categoryIssues[category] = append(categoryIssues[category], line)
	}

	if len(categoryIssues) > 0 {
		issues := make(map[string]any)

		for _, cat := range categoryOrder {
			if catIssues, ok := categoryIssues[cat]; ok {
				issues[cat] = catIssues
			}
		}

		meta["issues"] = issues
	}

	// Key properties.
	props := buildProperties(result)
	if len(props) > 0 {
		meta["properties"] = props
	}

	return meta
}

func buildProperties(result *consonance.Result) map[string]any {
	props := make(map[string]any)

	if r := result.Loudness; r != nil {
		props["loudness"] = fmt.Sprintf("%.1f LUFS (range: %.1f LU)", r.IntegratedLUFS, r.LoudnessRangeLU)
		props["dynamics"] = fmt.Sprintf("%.1f dB range, %.1f dB crest", r.DynamicRangeDb, r.CrestFactorDb)

		if tp := r.TruePeak; tp != nil {
			props["true_peak"] = fmt.Sprintf("%.1f dBTP", tp.TruePeakDb)
		}
	}

	if r := result.Spectral; r != nil {
		props["spectral_centroid"] = fmt.Sprintf("%.0f Hz", r.Centroid)
		props["balance"] = fmt.Sprintf("low %.0f%%, mid %.0f%%, high %.0f%%",
			r.BandPercent.Low(), r.BandPercent.Mid(), r.BandPercent.High())
	}

	if r := result.Stereo; r != nil {
		props["stereo_width"] = fmt.Sprintf("%s (width: %.0f%%, correlation: %.2f)",
			stereoWidthLabel(r.Width), r.Width*100, r.Correlation)
		if math.Abs(r.ImbalanceDb) > 0.5 {
			props["channel_imbalance"] = fmt.Sprintf(
				"%.1f dB (%s louder)",
				math.Abs(r.ImbalanceDb),
				imbalanceSide(r.ImbalanceDb),
			)
		}
	}

	if r := result.Effects; r != nil {
		props["cohesion"] = fmt.Sprintf("%.0f%%", r.Cohesion*100)
	}

	return props
}

func stereoWidthLabel(width float64) string {
	switch {
	case width < 0.05:
		return "Mono"
	case width < 0.25:
		return "Narrow"
	case width <= 0.80:
		return "Normal"
	default:
		return "Very Wide"
	}
}

func imbalanceSide(imbalanceDb float64) string {
	if imbalanceDb > 0 {
		return "left"
	}

	return "right"
}
