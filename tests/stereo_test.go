package tests_test

import (
	"testing"

	"github.com/containerd/nerdctl/mod/tigron/expect"
	"github.com/containerd/nerdctl/mod/tigron/test"

	"github.com/farcloser/agar/pkg/agar"

	"github.com/farcloser/consonance/tests/testutils"
)

func TestStereoWidth(t *testing.T) {
	testCase := testutils.Setup()

	testCase.SubTests = []*test.Case{
		{
			Description: "mono duplicated to stereo is too narrow",
			Setup: func(data test.Data, helpers test.Helpers) {
				data.Labels().Set("file", agar.FakeStereoMonoDuplicate(data, helpers))
			},
			Command: func(data test.Data, helpers test.Helpers) test.TestableCommand {
				return processDebug(helpers, data.Labels().Get("file"))
			},
			Expected: func(_ test.Data, _ test.Helpers) *test.Expected {
				return &test.Expected{
					ExitCode: expect.ExitCodeSuccess,
					Output:   expectIssue("stereo-width", "severe"),
				}
			},
		},
		{
			Description: "true stereo is wide enough",
			Setup: func(data test.Data, helpers test.Helpers) {
				data.Labels().Set("file", agar.TrueStereoDifferentChannels(data, helpers))
			},
			Command: func(data test.Data, helpers test.Helpers) test.TestableCommand {
				return processDebug(helpers, data.Labels().Get("file"))
			},
			Expected: func(_ test.Data, _ test.Helpers) *test.Expected {
				return &test.Expected{
					ExitCode: expect.ExitCodeSuccess,
					Output:   expectContains("width:"),
				}
			},
		},
	}

	testCase.Run(t)
}

func TestPhaseCorrelation(t *testing.T) {
	testCase := testutils.Setup()

	testCase.SubTests = []*test.Case{
		{
			Description: "inverted phase detected",
			Setup: func(data test.Data, helpers test.Helpers) {
				data.Labels().Set("file", agar.PhaseCancellationInverted(data, helpers))
			},
			Command: func(data test.Data, helpers test.Helpers) test.TestableCommand {
				return processDebug(helpers, data.Labels().Get("file"))
			},
			Expected: func(_ test.Data, _ test.Helpers) *test.Expected {
				return &test.Expected{
					ExitCode: expect.ExitCodeSuccess,
					Output:   expect.All(expectIssueDetected("phase-correlation"), expectContains("phase_issues: true")),
				}
			},
		},
		{
			Description: "mono duplicated to stereo has no phase issue",
			Setup: func(data test.Data, helpers test.Helpers) {
				data.Labels().Set("file", agar.FakeStereoMonoDuplicate(data, helpers))
			},
			Command: func(data test.Data, helpers test.Helpers) test.TestableCommand {
				return processDebug(helpers, data.Labels().Get("file"))
			},
			Expected: func(_ test.Data, _ test.Helpers) *test.Expected {
				return &test.Expected{
					ExitCode: expect.ExitCodeSuccess,
					Output:   expectNoIssue("phase-correlation"),
				}
			},
		},
	}

	testCase.Run(t)
}
