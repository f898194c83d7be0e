// Package narrative keeps written critiques consistent with the numeric score they accompany.
// A narrative whose tone contradicts its score band is replaced by a fixed template for that band.
package narrative

import (
	"fmt"
	"regexp"
	"strings"
)

// Band is a score band.
type Band int

const (
	BandPoor Band = iota
	BandFair
	BandGood
	BandExcellent
)

func (b Band) String() string {
	switch b {
	case BandPoor:
		return "poor"
	case BandFair:
		return "fair"
	case BandGood:
		return "good"
	case BandExcellent:
		return "excellent"
	}

	return "unknown"
}

const (
	excellentScore = 85
	goodScore      = 70
	fairScore      = 50
)

// Classify returns the band for a 0-100 score.
func Classify(score float64) Band {
	switch {
	case score >= excellentScore:
		return BandExcellent
	case score >= goodScore:
		return BandGood
	case score >= fairScore:
		return BandFair
	default:
		return BandPoor
	}
}

//nolint:gochecknoglobals // vocabulary tables
var (
	negative = []string{
		"poor", "terrible", "awful", "bad", "muddy", "amateur", "amateurish", "unprofessional",
		"unbalanced", "unusable", "needs significant work", "major problems", "fails",
	}
	praise = []string{
		"excellent", "outstanding", "perfect", "flawless", "superb", "exceptional", "great",
		"polished", "professional quality", "radio ready",
	}
	extremes = []string{
		"excellent", "outstanding", "perfect", "flawless", "exceptional",
		"terrible", "awful", "unusable",
	}

	forbidden = map[Band]*regexp.Regexp{
		BandExcellent: vocabulary(negative),
		BandGood:      vocabulary(negative),
		BandFair:      vocabulary(extremes),
		BandPoor:      vocabulary(praise),
	}
)

func vocabulary(terms []string) *regexp.Regexp {
	quoted := make([]string, len(terms))
	for i, term := range terms {
		quoted[i] = strings.ReplaceAll(regexp.QuoteMeta(term), " ", `\s+`)
	}

	return regexp.MustCompile(`(?i)\b(` + strings.Join(quoted, "|") + `)\b`)
}

// Validate returns the forbidden terms text uses for the band of score, lower-cased and
// deduplicated in order of appearance. An empty text is reported as a violation.
func Validate(text string, score float64) []string {
	if strings.TrimSpace(text) == "" {
		return []string{"(empty)"}
	}

	var (
		found []string
		seen  = map[string]bool{}
	)

	for _, match := range forbidden[Classify(score)].FindAllString(text, -1) {
		term := strings.ToLower(strings.Join(strings.Fields(match), " "))
		if !seen[term] {
			seen[term] = true
			found = append(found, term)
		}
	}

	return found
}

// Template returns the deterministic narrative for the band of score.
func Template(score float64) string {
	switch Classify(score) {
	case BandExcellent:
		return fmt.Sprintf(
			"Excellent mix (score %.0f/100). Stereo image, frequency balance and dynamics all sit in a professional range; remaining choices are creative rather than technical.",
			score,
		)
	case BandGood:
		return fmt.Sprintf(
			"Good mix (score %.0f/100). The fundamentals are solid; a few targeted adjustments listed below would tighten it further.",
			score,
		)
	case BandFair:
		return fmt.Sprintf(
			"Fair mix (score %.0f/100). Several technical areas need attention before release; work through the recommendations in order.",
			score,
		)
	default:
		return fmt.Sprintf(
			"This mix needs significant work (score %.0f/100). Address the flagged technical problems first, starting with the highest-impact recommendations.",
			score,
		)
	}
}

// Ensure returns text unchanged when it is consistent with score, otherwise the band template
// along with the violations that triggered the replacement.
func Ensure(text string, score float64) (string, []string) {
	violations := Validate(text, score)
	if len(violations) == 0 {
		return text, nil
	}

	return Template(score), violations
}
