// Package consonance analyzes a stereo mix and scores its technical quality: stereo imaging,
// frequency balance, loudness and dynamics, and which mixing processes shaped it.
package consonance

/*
Usage:

buffer := consonance.SampleBuffer{Left: left, Right: right, SampleRate: 44100}
result, err := consonance.Analyze(buffer, consonance.DefaultOptions())
if result.StereoIssues {
    fmt.Println("Stereo image out of range")
}

// Tune thresholds (always start from the defaults)
opts := consonance.DefaultOptions()
opts.Thresholds.WidthPercent = consonance.Range{Min: 20, Max: 85}
result, err := consonance.Analyze(buffer, opts)

// Thresholds from YAML
opts.Thresholds, err = consonance.LoadThresholds("thresholds.yaml")

// Share a stem cache across analyses
opts.Stems = consonance.NewStemEstimator(consonance.NewStemCache())
opts.Source = "file:///music/song.wav"

// Narrative from an external summarizer (never lowers the score)
consonance.Summarize(ctx, result, consonance.NewSummarizerClient(endpoint, consonance.DefaultSummarizerTimeout))
fmt.Println(result.OverallScore, result.Summary)

// Iterate issues
for _, issue := range result.Issues {
    if issue.Detected {
        fmt.Printf("[%s] %s\n", issue.Severity, issue.Summary)
    }
}
*/

// Check represents one scoring rule.
type Check int

const (
	CheckStereoWidth Check = iota
	CheckPhaseCorrelation
	CheckDynamicRange
	CheckClipping
	CheckLevel
	CheckBassHeavy
	CheckMidPoor
	CheckTooBright
	CheckMixingEffects
	CheckInterSamplePeaks
)

func (c Check) String() string {
	switch c {
	case CheckStereoWidth:
		return "stereo-width"
	case CheckPhaseCorrelation:
		return "phase-correlation"
	case CheckDynamicRange:
		return "dynamic-range"
	case CheckClipping:
		return "clipping"
	case CheckLevel:
		return "level"
	case CheckBassHeavy:
		return "bass-heavy"
	case CheckMidPoor:
		return "mid-poor"
	case CheckTooBright:
		return "too-bright"
	case CheckMixingEffects:
		return "mixing-effects"
	case CheckInterSamplePeaks:
		return "inter-sample-peaks"
	}

	return "unknown"
}

// Severity indicates how bad a detected issue is.
type Severity int

const (
	SeverityNone Severity = iota
	SeverityMild
	SeverityModerate
	SeveritySevere
)

func (s Severity) String() string {
	switch s {
	case SeverityNone:
		return "no issue"
	case SeverityMild:
		return "mild"
	case SeverityModerate:
		return "moderate"
	case SeveritySevere:
		return "severe"
	}

	return "unknown"
}

// Issue is the outcome of one check.
type Issue struct {
	Check      Check
	Detected   bool
	Severity   Severity
	Summary    string  // human-readable summary
	Confidence float64 // 0.0-1.0
	Deduction  float64 // points taken off the technical score
}

// Bands defines severity thresholds for a check. Direction is implicit:
// if Mild < Severe, higher values are worse (ascending, e.g. clip events).
// If Mild > Severe, lower values are worse (descending).
type Bands struct {
	Mild     float64 `yaml:"mild"`
	Moderate float64 `yaml:"moderate"`
	Severe   float64 `yaml:"severe"`
}

// Match returns the severity for a value.
// Returns (SeverityNone, false) when the value is below detection (the Mild threshold).
func (b Bands) Match(value float64) (Severity, bool) {
	if b.Mild <= b.Severe {
		// Ascending: higher = worse.
		if value >= b.Severe {
			return SeveritySevere, true
		}

		if value >= b.Moderate {
			return SeverityModerate, true
		}

		if value >= b.Mild {
			return SeverityMild, true
		}
	} else {
		// Descending: lower = worse.
		if value <= b.Severe {
			return SeveritySevere, true
		}

		if value <= b.Moderate {
			return SeverityModerate, true
		}

		if value <= b.Mild {
			return SeverityMild, true
		}
	}

	return SeverityNone, false
}
