// Package runner executes external commands with the bootstrap environment.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/blackwell-systems/devboot/internal/env"
)

// Runner runs external commands. Run streams output to the operator; Output
// captures stdout and returns it trimmed.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
	Output(ctx context.Context, name string, args ...string) (string, error)
}

// ExecRunner runs commands as child processes. Binaries are resolved against
// Env's PATH, not the parent process PATH, so directories added earlier in
// the run are visible.
type ExecRunner struct {
	Env    *env.Context
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger *zap.Logger
}

// New creates an ExecRunner wired to the process's standard streams.
func New(e *env.Context, logger *zap.Logger) *ExecRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExecRunner{
		Env:    e,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Logger: logger,
	}
}

func (r *ExecRunner) command(ctx context.Context, name string, args []string) (*exec.Cmd, error) {
	path, err := r.Env.LookPath(name)
	if err != nil {
		return nil, err
	}
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Env = r.Env.Environ()
	return cmd, nil
}

// Run executes name with args. Stdin is passed through so sudo and
// installers can prompt.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	cmdline := Commandline(name, args...)
	cmd, err := r.command(ctx, name, args)
	if err != nil {
		return fmt.Errorf("%s failed: %w", cmdline, err)
	}
	cmd.Stdin = r.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	start := time.Now()
	r.Logger.Debug("running command", zap.String("cmd", cmdline))
	err = cmd.Run()
	r.Logger.Debug("command finished",
		zap.String("cmd", cmdline),
		zap.Duration("elapsed", time.Since(start)),
		zap.Error(err))
	if err != nil {
		return fmt.Errorf("%s failed: %w", cmdline, err)
	}
	return nil
}

// Output executes name with args and returns its trimmed stdout.
func (r *ExecRunner) Output(ctx context.Context, name string, args ...string) (string, error) {
	cmdline := Commandline(name, args...)
	cmd, err := r.command(ctx, name, args)
	if err != nil {
		return "", fmt.Errorf("%s failed: %w", cmdline, err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	r.Logger.Debug("capturing command output", zap.String("cmd", cmdline))
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("%s failed: %w (stderr: %s)", cmdline, err, strings.TrimSpace(stderr.String()))
		}
		return "", fmt.Errorf("%s failed: %w", cmdline, err)
	}
	return strings.TrimSpace(string(out)), nil
}

// Commandline renders a command for messages and fake matching.
func Commandline(name string, args ...string) string {
	if len(args) == 0 {
		return name
	}
	return name + " " + strings.Join(args, " ")
}

// Quote single-quotes s for POSIX shells.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// FirstLine returns the first non-empty line of s. Version banners such as
// `git --version` or `brew --version` span several lines.
func FirstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
