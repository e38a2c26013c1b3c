// Package execx runs external programs and captures their output.
package execx

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// ProcessError reports a program that exited with a non-zero status. The
// captured standard error travels with the error so callers can surface
// the tool's own diagnostics verbatim.
type ProcessError struct {
	Program  string
	ExitCode int
	Stderr   string
}

func (e *ProcessError) Error() string {
	msg := fmt.Sprintf("process failed: %s (exit code: %d)", e.Program, e.ExitCode)
	if tail := strings.TrimSpace(e.Stderr); tail != "" {
		msg += "\n" + tail
	}
	return msg
}

// RunCapture runs program with args and returns its standard output.
// A non-zero exit yields a ProcessError carrying the exit code and the
// captured standard error.
func RunCapture(ctx context.Context, program string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, program, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return stdout.Bytes(), nil
	}

	if exitErr, ok := err.(*exec.ExitError); ok {
		return nil, &ProcessError{
			Program:  program,
			ExitCode: exitErr.ExitCode(),
			Stderr:   stderr.String(),
		}
	}
	return nil, fmt.Errorf("failed to run %s: %w", program, err)
}
