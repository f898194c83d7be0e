package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/farcloser/consonance/internal/narrative"
)

const report = `{"file":"a.wav","analysis":{"summary":{"issue_count":1,"worst_severity":"moderate"},"scores":{"technical":88,"overall":88},"flags":{"has_clipping":true,"has_eq":true},"issues":[{"check":"clipping","detected":true,"severity":"moderate"}]}}
{"file":"b.wav","analysis":{"summary":{"issue_count":2,"worst_severity":"severe"},"scores":{"technical":40,"external":55,"overall":55},"flags":{"stereo_issues":true},"issues":[{"check":"stereo-width","detected":true,"severity":"severe"},{"check":"clipping","detected":false,"severity":"no issue"}]}}
{"file":"c.wav","error":"decode failed: boom"}
not json
`

func TestDigest(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "report.jsonl")
	if err := os.WriteFile(path, []byte(report), 0o600); err != nil {
		t.Fatal(err)
	}

	records, lines, err := readRecordsWithRaw(path)
	if err != nil {
		t.Fatal(err)
	}

	if len(records) != 4 || len(lines) != 4 {
		t.Fatalf("read %d records, %d lines", len(records), len(lines))
	}

	dig := summarize(records)

	if dig.total != 4 || dig.failed != 2 {
		t.Errorf("total %d, failed %d", dig.total, dig.failed)
	}

	if dig.bands[narrative.BandExcellent] != 1 || dig.bands[narrative.BandFair] != 1 {
		t.Errorf("bands %v", dig.bands)
	}

	if dig.scoreSum != 143 {
		t.Errorf("score sum %v", dig.scoreSum)
	}

	if dig.flags["has_clipping"] != 1 || dig.flags["stereo_issues"] != 1 || dig.flags["too_quiet"] != 0 {
		t.Errorf("flags %v", dig.flags)
	}

	clipping := dig.checks["clipping"]
	if clipping == nil || clipping.Total != 1 || clipping.Moderate != 1 {
		t.Errorf("clipping breakdown %+v", clipping)
	}

	if dig.checks["stereo-width"].Severe != 1 {
		t.Errorf("stereo-width breakdown %+v", dig.checks["stereo-width"])
	}
}
