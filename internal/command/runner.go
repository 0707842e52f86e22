package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultTimeout bounds a single host tool invocation.
const DefaultTimeout = 10 * time.Second

// waitDelay is how long Run waits for output pipes to close after the
// deadline killed the process. Children that inherited the pipes are cut
// off after it.
const waitDelay = time.Second

var (
	// ErrTimeout is returned when a command does not finish before its deadline.
	ErrTimeout = errors.New("command timed out")
	// ErrNotInstalled is returned when the binary cannot be found in PATH.
	ErrNotInstalled = errors.New("command not installed")
)

// Runner runs a host tool and returns its stdout.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExitError describes a command that ran but exited non-zero.
type ExitError struct {
	Name   string
	Args   []string
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s %s: exit status %d", e.Name, strings.Join(e.Args, " "), e.Code)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

// Exec runs commands with os/exec.
type Exec struct {
	Timeout time.Duration
	Logger  *zap.Logger
}

// NewExec returns an Exec runner. A zero timeout means DefaultTimeout.
func NewExec(timeout time.Duration, logger *zap.Logger) *Exec {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exec{Timeout: timeout, Logger: logger}
}

// Run executes name with args and returns stdout.
func (e *Exec) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	log := e.Logger
	if log == nil {
		log = zap.NewNop()
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.WaitDelay = waitDelay
	cmd.Stderr = &stderr

	start := time.Now()
	out, err := cmd.Output()
	log.Debug("ran command",
		zap.String("name", name),
		zap.Strings("args", args),
		zap.Duration("took", time.Since(start)),
		zap.Error(err))
	if err == nil {
		return out, nil
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("%s after %s: %w", name, timeout, ErrTimeout)
	}
	if errors.Is(err, exec.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", name, ErrNotInstalled)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil, &ExitError{
			Name:   name,
			Args:   args,
			Code:   exitErr.ExitCode(),
			Stderr: strings.TrimSpace(stderr.String()),
		}
	}
	return nil, fmt.Errorf("%s: %w", name, err)
}

// StderrOf returns the captured stderr of err if it is an ExitError.
func StderrOf(err error) string {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Stderr
	}
	return ""
}
