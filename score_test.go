package consonance_test

import (
	"slices"
	"testing"

	"github.com/farcloser/consonance"
	"github.com/farcloser/consonance/internal/audit/effects"
	"github.com/farcloser/consonance/internal/types"
)

// 30% low, 40% mid, 30% high.
var balancedBands = types.FrequencyBands{10, 20, 15, 25, 20, 10}

func professionalEffects() *types.EffectsResult {
	return effects.Detect(effects.Inputs{
		CrestFactorDb: 9,
		Flatness:      0.2,
		Width:         0.5,
		Correlation:   0.6,
		Balance:       0.02,
		Reverb:        0.4,
	}, effects.DefaultThresholds())
}

func professionalFeatures() consonance.Features {
	return consonance.Features{
		Width:          0.5,
		Correlation:    0.6,
		DynamicRangeDb: 10,
		Peak:           0.8,
		Bands:          balancedBands,
		Effects:        professionalEffects(),
	}
}

func findIssue(t *testing.T, issues []consonance.Issue, check consonance.Check) consonance.Issue {
	t.Helper()

	for _, issue := range issues {
		if issue.Check == check {
			return issue
		}
	}

	t.Fatalf("no %s issue reported", check)

	return consonance.Issue{}
}

func TestScoreProfessionalMix(t *testing.T) {
	t.Parallel()

	card := consonance.Score(professionalFeatures(), consonance.DefaultThresholds())

	if card.TechnicalScore < 80 {
		t.Errorf("technical score %v, want >= 80", card.TechnicalScore)
	}

	if !card.HasCompression || !card.HasReverb || !card.HasStereoProcessing || !card.HasEQ {
		t.Errorf("expected every effect present: %+v", card)
	}

	if card.PhaseIssues || card.StereoIssues || card.FrequencyImbalance || card.DynamicRangeIssues ||
		card.HasClipping || card.TooQuiet {
		t.Errorf("unexpected flags: %+v", card)
	}

	if len(card.Recommendations) != 0 {
		t.Errorf("recommendations for a clean mix: %v", card.Recommendations)
	}
}

func TestScoreFullScalePeak(t *testing.T) {
	t.Parallel()

	features := professionalFeatures()
	features.Peak = 1.0
	features.ClipEvents = 12

	card := consonance.Score(features, consonance.DefaultThresholds())

	if !card.HasClipping {
		t.Fatal("full-scale peak not flagged as clipping")
	}

	if card.TechnicalScore != 85 {
		t.Errorf("technical score %v, want 85", card.TechnicalScore)
	}

	issue := findIssue(t, card.Issues, consonance.CheckClipping)
	if !issue.Detected || issue.Deduction != 15 || issue.Severity != consonance.SeverityModerate {
		t.Errorf("unexpected clipping issue %+v", issue)
	}
}

func TestScoreNearMono(t *testing.T) {
	t.Parallel()

	features := consonance.Features{
		Width:          0.02,
		Correlation:    0.99,
		DynamicRangeDb: 17,
		Peak:           0.8,
		Bands:          balancedBands,
		Effects: effects.Detect(effects.Inputs{
			CrestFactorDb: 17,
			Flatness:      0.2,
			Width:         0.02,
			Correlation:   0.99,
			Reverb:        0.1,
		}, effects.DefaultThresholds()),
	}

	card := consonance.Score(features, consonance.DefaultThresholds())

	if !card.StereoIssues {
		t.Error("near-mono not flagged as a stereo issue")
	}

	if card.HasCompression {
		t.Error("uncompressed material flagged as compressed")
	}

	if card.TechnicalScore >= 60 {
		t.Errorf("technical score %v, want < 60", card.TechnicalScore)
	}

	issue := findIssue(t, card.Issues, consonance.CheckMixingEffects)
	if !issue.Detected || issue.Deduction <= 0 {
		t.Errorf("missing-effects cap not recorded: %+v", issue)
	}
}

func TestScoreDeductionsAreAdditive(t *testing.T) {
	t.Parallel()

	features := professionalFeatures()
	features.Width = 0.9        // -15
	features.Correlation = 0.2  // -15
	features.DynamicRangeDb = 2 // -10
	features.Peak = 0.1         // -10

	card := consonance.Score(features, consonance.DefaultThresholds())

	if card.TechnicalScore != 50 {
		t.Errorf("technical score %v, want 50", card.TechnicalScore)
	}

	for _, check := range []consonance.Check{consonance.CheckStereoWidth, consonance.CheckPhaseCorrelation} {
		if issue := findIssue(t, card.Issues, check); issue.Deduction != 15 {
			t.Errorf("%s deduction %v", check, issue.Deduction)
		}
	}

	if len(card.Recommendations) != 4 {
		t.Errorf("got %d recommendations, want 4: %v", len(card.Recommendations), card.Recommendations)
	}
}

func TestScoreFrequencyBalance(t *testing.T) {
	t.Parallel()

	features := professionalFeatures()
	// 60% low, 20% mid, 20% high.
	features.Bands = types.FrequencyBands{30, 30, 10, 10, 10, 10}

	card := consonance.Score(features, consonance.DefaultThresholds())

	if !card.FrequencyImbalance {
		t.Fatal("bass heavy mix not flagged")
	}

	if !findIssue(t, card.Issues, consonance.CheckBassHeavy).Detected ||
		!findIssue(t, card.Issues, consonance.CheckMidPoor).Detected {
		t.Errorf("expected bass-heavy and mid-poor: %+v", card.Issues)
	}

	if findIssue(t, card.Issues, consonance.CheckTooBright).Detected {
		t.Error("too bright flagged at 20% high end")
	}

	if card.TechnicalScore != 80 {
		t.Errorf("technical score %v, want 80", card.TechnicalScore)
	}
}

func TestScoreSilentBandsSkipBalance(t *testing.T) {
	t.Parallel()

	features := professionalFeatures()
	features.Bands = types.FrequencyBands{}

	card := consonance.Score(features, consonance.DefaultThresholds())

	if card.FrequencyImbalance {
		t.Error("frequency imbalance flagged without energy")
	}

	for _, issue := range card.Issues {
		if issue.Check == consonance.CheckBassHeavy {
			t.Errorf("balance rule evaluated without energy: %+v", issue)
		}
	}
}

func TestScoreClamps(t *testing.T) {
	t.Parallel()

	th := consonance.DefaultThresholds()
	th.WidthPenalty = 500

	features := professionalFeatures()
	features.Width = 0

	if score := consonance.Score(features, th).TechnicalScore; score != 0 {
		t.Errorf("score %v, want 0", score)
	}
}

func TestTierRecommendations(t *testing.T) {
	t.Parallel()

	th := consonance.DefaultThresholds()
	candidates := []string{"a", "b", "c", "d", "e"}

	if got := consonance.TierRecommendations(90, candidates, th); !slices.Equal(got, []string{consonance.PositiveRecommendation}) {
		t.Errorf("score 90: %v", got)
	}

	if got := consonance.TierRecommendations(85, candidates, th); len(got) != 1 {
		t.Errorf("score 85: %v", got)
	}

	if got := consonance.TierRecommendations(80, candidates, th); !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Errorf("score 80: %v", got)
	}

	if got := consonance.TierRecommendations(75, candidates[:2], th); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("score 75, two candidates: %v", got)
	}

	if got := consonance.TierRecommendations(60, candidates, th); !slices.Equal(got, candidates) {
		t.Errorf("score 60: %v", got)
	}

	th.TopRecommendations = -1
	if got := consonance.TierRecommendations(80, candidates, th); len(got) != 0 {
		t.Errorf("negative top count: %v", got)
	}

	th = consonance.DefaultThresholds()

	got := consonance.TierRecommendations(10, candidates, th)
	got[0] = "mutated"

	if candidates[0] != "a" {
		t.Error("tiering aliased the candidate slice")
	}
}
