package consonance_test

import (
	"context"
	"fmt"
	"math"

	"github.com/farcloser/consonance"
)

func ExampleAnalyze() {
	left := make([]float64, 44100)
	right := make([]float64, 44100)

	for i := range left {
		left[i] = 0.5 * math.Sin(2*math.Pi*220*float64(i)/44100)
		right[i] = 0.5 * math.Sin(2*math.Pi*330*float64(i)/44100)
	}

	buffer := consonance.SampleBuffer{Left: left, Right: right, SampleRate: 44100}

	opts := consonance.DefaultOptions()
	opts.Thresholds.WidthPercent = consonance.Range{Min: 20, Max: 85}
	opts.Stems = consonance.NewStemEstimator(consonance.NewStemCache())
	opts.Source = "file:///music/song.wav"

	result, err := consonance.Analyze(buffer, opts)
	if err != nil {
		fmt.Println(err)

		return
	}

	client := consonance.NewSummarizerClient("http://localhost:8080/summarize", consonance.DefaultSummarizerTimeout)
	consonance.Summarize(context.Background(), result, client)

	fmt.Println(result.OverallScore, result.Summary)

	for _, issue := range result.Issues {
		if issue.Detected {
			fmt.Printf("[%s] %s\n", issue.Severity, issue.Summary)
		}
	}
}
