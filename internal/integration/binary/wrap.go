// Package binary runs the external media tools.
package binary

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/farcloser/primordium/fault"
)

// Available checks if a binary is available in the system PATH.
func Available(binName string) (string, bool) {
	path, err := exec.LookPath(binName)

	return path, err == nil
}

// Run executes binName with args, streaming its standard output to stdout, and gives up after
// timeout. Errors wrap fault.ErrMissingRequirements, fault.ErrTimeout or fault.ErrCommandFailure.
func Run(ctx context.Context, binName string, timeout time.Duration, stdout io.Writer, args ...string) error {
	binPath, found := Available(binName)
	if !found {
		return fmt.Errorf("%w: %s", fault.ErrMissingRequirements, binName)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	slog.Debug("binary.Run", "binary", binName, "args", args)

	//nolint:gosec // arguments carry user-provided media paths
	cmd := exec.CommandContext(ctx, binPath, args...)
	cmd.Stdout = stdout

	var stderr bytes.Buffer

	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s after %v", fault.ErrTimeout, binName, timeout)
		}

		return fmt.Errorf("%w: %s: %s: %w", fault.ErrCommandFailure, binName, strings.TrimSpace(stderr.String()), err)
	}

	return nil
}
