package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/urfave/cli/v3"

	"github.com/farcloser/consonance/internal/narrative"
)

var errDigestArgs = errors.New("expected exactly one argument: path to report.jsonl")

func digestCommand() *cli.Command {
	return &cli.Command{
		Name:      "digest",
		Usage:     "Produce a summary digest from a consonance JSONL report",
		ArgsUsage: "<report.jsonl>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "issue",
				Usage: "Show files affected by a specific check (e.g., clipping, stereo-width, bass-heavy)",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return errDigestArgs
			}

			return runDigest(cmd.Args().First(), cmd.String("issue"))
		},
	}
}

func runDigest(reportPath, issueFilter string) error {
	records, rawLines, err := readRecordsWithRaw(reportPath)
	if err != nil {
		return err
	}

	printDigest(records)

	if issueFilter != "" {
		printIssueDetail(records, rawLines, issueFilter)
	}

	return nil
}

func readRecordsWithRaw(path string) ([]digestRecord, [][]byte, error) {
	file, err := os.Open(path) //nolint:gosec // CLI tool opens user-specified report files
	if err != nil {
		return nil, nil, fmt.Errorf("opening report: %w", err)
	}
	defer file.Close()

	var (
		records []digestRecord
		lines   [][]byte
	)

	scanner := bufio.NewScanner(file)

	const maxLineSize = 1024 * 1024 // 1MB
	scanner.Buffer(make([]byte, 0, maxLineSize), maxLineSize)

	for scanner.Scan() {
		line := make([]byte, len(scanner.Bytes()))
		copy(line, scanner.Bytes())
		lines = append(lines, line)

		var rec digestRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			records = append(records, digestRecord{Error: "parse error"})

			continue
		}

		records = append(records, rec)
	}

	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("reading report: %w", err)
	}

	return records, lines, nil
}

//nolint:gochecknoglobals // configuration data, effectively const
var (
	bandOrder = []narrative.Band{narrative.BandExcellent, narrative.BandGood, narrative.BandFair, narrative.BandPoor}
	flagOrder = []string{
		"phase_issues", "stereo_issues", "frequency_imbalance", "dynamic_range_issues", "has_clipping", "too_quiet",
		"has_compression", "has_reverb", "has_stereo_processing", "has_eq",
	}
)

// digest aggregates a report.
type digest struct {
	total, failed int
	scoreSum      float64
	bands         map[narrative.Band]int
	flags         map[string]int
	checks        map[string]*checkBreakdown
}

func summarize(records []digestRecord) *digest {
	dig := &digest{
		total:  len(records),
		bands:  map[narrative.Band]int{},
		flags:  map[string]int{},
		checks: map[string]*checkBreakdown{},
	}

	for _, rec := range records {
		if rec.Error != "" || rec.Analysis == nil {
			dig.failed++

			continue
		}

		dig.scoreSum += rec.Analysis.Scores.Overall
		dig.bands[narrative.Classify(rec.Analysis.Scores.Overall)]++

		for name, set := range rec.Analysis.Flags {
			if set {
				dig.flags[name]++
			}
		}

		for _, issue := range rec.Analysis.Issues {
			if !issue.Detected {
				continue
			}

			breakdown, ok := dig.checks[issue.Check]
			if !ok {
				breakdown = &checkBreakdown{Check: issue.Check}
				dig.checks[issue.Check] = breakdown
			}

			breakdown.Total++

			switch issue.Severity {
			case "severe":
				breakdown.Severe++
			case "moderate":
				breakdown.Moderate++
			case "mild":
				breakdown.Mild++
			}
		}
	}

	return dig
}

func printDigest(records []digestRecord) {
	dig := summarize(records)
	analyzed := dig.total - dig.failed

	fmt.Println("=== Consonance Report Digest ===")
	fmt.Println()
	fmt.Printf("Total tracks:  %d\n", dig.total)
	fmt.Printf("Failed:        %d\n", dig.failed)
	fmt.Printf("Analyzed:      %d\n", analyzed)

	if analyzed > 0 {
		fmt.Printf("Mean score:    %.1f\n", dig.scoreSum/float64(analyzed))
	}

	fmt.Println()

	fmt.Println("--- Score Bands ---")

	for _, band := range bandOrder {
		fmt.Printf("  %-10s %d\n", band.String()+":", dig.bands[band])
	}

	fmt.Println()

	fmt.Println("--- Flags ---")

	for _, name := range flagOrder {
		fmt.Printf("  %-22s %d\n", name+":", dig.flags[name])
	}

	fmt.Println()

	fmt.Println("--- Issues By Type ---")

	breakdowns := make([]*checkBreakdown, 0, len(dig.checks))
	for _, bd := range dig.checks {
		breakdowns = append(breakdowns, bd)
	}

	slices.SortFunc(breakdowns, func(a, b *checkBreakdown) int {
		if a.Total != b.Total {
			return b.Total - a.Total
		}

		if a.Check < b.Check {
			return -1
		}

		return 1
	})

	for _, bd := range breakdowns {
		fmt.Printf("  %s\n", bd.Check)
		fmt.Printf("    total: %d  severe: %d  moderate: %d  mild: %d\n", bd.Total, bd.Severe, bd.Moderate, bd.Mild)
	}
}

//nolint:gochecknoglobals
var checkKeyMap = map[string]string{
	"stereo-width":       "stereo",
	"phase-correlation":  "stereo",
	"dynamic-range":      "loudness",
	"clipping":           "clipping",
	"level":              "loudness",
	"bass-heavy":         "spectral",
	"mid-poor":           "spectral",
	"too-bright":         "spectral",
	"mixing-effects":     "effects",
	"inter-sample-peaks": "loudness",
}

type issueEntry struct {
	file       string
	severity   string
	summary    string
	confidence float64
	score      float64
	detail     map[string]any
}

func printIssueDetail(records []digestRecord, rawLines [][]byte, check string) {
	fmt.Println()

	var entries []issueEntry

	detailKey := checkKeyMap[check]

	for idx, rec := range records {
		if rec.Error != "" || rec.Analysis == nil {
			continue
		}

		for _, issue := range rec.Analysis.Issues {
			if !issue.Detected || issue.Check != check {
				continue
			}

			entry := issueEntry{
				file:       rec.File,
				severity:   issue.Severity,
				summary:    issue.Summary,
				confidence: issue.Confidence,
				score:      rec.Analysis.Scores.Overall,
			}

			if entry.file == "" {
				entry.file = "(redacted)"
			}

			// Extract detail from raw JSONL line.
			if detailKey != "" && idx < len(rawLines) {
				entry.detail = extractDetailFromRaw(rawLines[idx], detailKey)
			}

			entries = append(entries, entry)
		}
	}

	if len(entries) == 0 {
		fmt.Printf("No tracks affected by %s\n", check)

		return
	}

	slices.SortStableFunc(entries, func(a, b issueEntry) int {
		return severityRank(a.severity) - severityRank(b.severity)
	})

	fmt.Printf("=== %s: %d tracks ===\n\n", check, len(entries))

	for _, entry := range entries {
		fmt.Printf("  %s\n", entry.file)
		fmt.Printf("    severity: %s  confidence: %.0f%%  score: %.0f\n", entry.severity, entry.confidence*100, entry.score)
		fmt.Printf("    %s\n", entry.summary)

		if entry.detail != nil {
			keys := make([]string, 0, len(entry.detail))
			for key := range entry.detail {
				keys = append(keys, key)
			}

			slices.Sort(keys)

			for _, key := range keys {
				fmt.Printf("    %s: %s\n", key, formatDetailValue(entry.detail[key]))
			}
		}

		fmt.Println()
	}
}

func extractDetailFromRaw(rawLine []byte, key string) map[string]any {
	var full struct {
		Analysis map[string]any `json:"analysis"`
	}

	if err := json.Unmarshal(rawLine, &full); err != nil {
		return nil
	}

	if full.Analysis == nil {
		return nil
	}

	if detail, ok := full.Analysis[key].(map[string]any); ok {
		return detail
	}

	return nil
}

func severityRank(severity string) int {
	switch severity {
	case "severe":
		return 0
	case "moderate":
		return 1
	case "mild":
		return 2
	default:
		return 3
	}
}

func formatDetailValue(value any) string {
	switch val := value.(type) {
	case []any:
		return fmt.Sprintf("%d entries", len(val))
	case map[string]any:
		return fmt.Sprintf("%d fields", len(val))
	case string:
		return val
	default:
		return fmt.Sprintf("%v", value)
	}
}
