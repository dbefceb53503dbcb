// Where: cli/internal/helm/runner.go
// What: Subprocess runner for helm and kubectl invocations.
// Why: Commands are behind an interface so upgrades are testable
// without a cluster.
package helm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout bounds a single helm or kubectl invocation.
const DefaultTimeout = 10 * time.Minute

// CommandRunner defines the interface for executing external commands.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// ExecRunner is a concrete implementation of CommandRunner using os/exec.
type ExecRunner struct {
	// Timeout per invocation, DefaultTimeout when zero.
	Timeout time.Duration
}

func (r ExecRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	timeout := r.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		var exit *exec.ExitError
		if errors.As(err, &exit) {
			return stdout.String(), fmt.Errorf("%s %s exited %d: %s",
				name, strings.Join(args, " "), exit.ExitCode(), strings.TrimSpace(stderr.String()))
		}
		return stdout.String(), fmt.Errorf("%s: %w", name, err)
	}
	return stdout.String(), nil
}
