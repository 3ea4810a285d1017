package collectors

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
)

// CommandRunner runs an external command and returns its standard output.
// Monitors that shell out (network, audio) depend on this interface so tests
// can substitute canned output.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec. There is no timeout beyond ctx.
type ExecRunner struct{}

// Run executes name with args. A missing binary or non-zero exit is returned
// as a KindCommand MonitorError that carries the first line of stderr.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		op := strings.TrimSpace(name + " " + strings.Join(args, " "))
		if msg, _, _ := strings.Cut(strings.TrimSpace(stderr.String()), "\n"); msg != "" {
			return out, Errorf(KindCommand, op, "%v: %s", err, msg)
		}
		return out, NewError(KindCommand, op, err)
	}
	return out, nil
}

// FuncRunner adapts a function to CommandRunner.
type FuncRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func (f FuncRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return f(ctx, name, args...)
}
