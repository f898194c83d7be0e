package tests_test

import (
	"fmt"
	"strings"

	"github.com/containerd/nerdctl/mod/tigron/test"
	"github.com/containerd/nerdctl/mod/tigron/tig"
)

// processDebug runs the process command with raw output on file.
func processDebug(helpers test.Helpers, file string, extra ...string) test.TestableCommand {
	args := append([]string{"process", "--debug", "--no-stems"}, extra...)

	return helpers.Command(append(args, file)...)
}

// issueBlock returns the lines of the issue block for check: its "check:" line and the keys
// that follow it, up to the next issue.
func issueBlock(stdout, check string) []string {
	const blockKeys = 6

	lines := strings.Split(stdout, "\n")
	checkLine := "check: " + check

	for i, line := range lines {
		if !strings.HasSuffix(strings.TrimSpace(line), checkLine) {
			continue
		}

		block := []string{line}

		for _, next := range lines[i+1 : min(len(lines), i+blockKeys)] {
			if strings.Contains(next, "check: ") {
				break
			}

			block = append(block, next)
		}

		return block
	}

	return nil
}

func blockContains(block []string, target string) bool {
	for _, line := range block {
		if strings.Contains(line, target) {
			return true
		}
	}

	return false
}

// expectIssue returns a comparator verifying that the given check was detected with the given severity.
func expectIssue(check, severity string) test.Comparator {
	return func(stdout string, testing tig.T) {
		testing.Helper()

		block := issueBlock(stdout, check)
		if blockContains(block, "detected: true") && blockContains(block, "severity: "+severity) {
			return
		}

		testing.Log(
			fmt.Sprintf("expected issue %q with severity %q not found in output:\n%s", check, severity, stdout),
		)
		testing.Fail()
	}
}

// expectIssueDetected returns a comparator verifying that the given check was detected (any severity).
func expectIssueDetected(check string) test.Comparator {
	return func(stdout string, testing tig.T) {
		testing.Helper()

		if blockContains(issueBlock(stdout, check), "detected: true") {
			return
		}

		testing.Log(fmt.Sprintf("expected issue %q to be detected but was not found in output:\n%s", check, stdout))
		testing.Fail()
	}
}

// expectNoIssue returns a comparator verifying that the given check was not detected.
// An absent check passes.
func expectNoIssue(check string) test.Comparator {
	return func(stdout string, testing tig.T) {
		testing.Helper()

		if blockContains(issueBlock(stdout, check), "detected: true") {
			testing.Log(fmt.Sprintf("expected no issue for %q but it was detected in output:\n%s", check, stdout))
			testing.Fail()
		}
	}
}

// expectContains returns a comparator verifying the output contains a substring.
func expectContains(substr string) test.Comparator {
	return func(stdout string, testing tig.T) {
		testing.Helper()

		if !strings.Contains(stdout, substr) {
			testing.Log(fmt.Sprintf("expected substring %q not found in output:\n%s", substr, stdout))
			testing.Fail()
		}
	}
}
