// Package tools implements the probe/install/verify units that make up a
// bootstrap pipeline. Each Tool wraps one external collaborator (a package
// manager, nvm, npm, a downloaded binary) behind the same small interface,
// so the orchestrator never needs to know which concrete tool it is driving.
package tools

import (
	"context"

	"go.uber.org/zap"

	"github.com/blackwell-systems/devboot/internal/download"
	"github.com/blackwell-systems/devboot/internal/env"
	"github.com/blackwell-systems/devboot/internal/platform"
	"github.com/blackwell-systems/devboot/internal/runner"
)

// Tool is one stage of the pipeline.
//
// Probe must not change the machine. Install is only called after a failed
// Probe. Verify re-checks after Install and is never retried.
type Tool interface {
	Name() string
	Probe(ctx context.Context) bool
	Install(ctx context.Context) error
	Verify(ctx context.Context) bool
	Version(ctx context.Context) string
}

// Activator is implemented by tools that must publish something into the
// environment (PATH entries, NVM_DIR) once they are known to be present,
// whether they were just installed or already there.
type Activator interface {
	Activate(ctx context.Context) error
}

// Remedier supplies the manual action printed when the stage fails.
type Remedier interface {
	Remedy() string
}

// SessionLoader marks tools that are loaded into a shell session rather
// than found on PATH. A failed verification of such a tool is reported as a
// dependency-load failure.
type SessionLoader interface {
	LoadsIntoSession() bool
}

// Noticer reports conditions the operator should know about after a
// successful run.
type Noticer interface {
	Notices() []string
}

// Fetcher downloads a URL to a local path.
type Fetcher interface {
	Fetch(ctx context.Context, url, dest string, progress download.ProgressFunc) error
}

// Deps is shared by every tool in one run.
type Deps struct {
	Env     *env.Context
	Runner  runner.Runner
	Profile platform.Profile
	Policy  platform.Policy
	Logger  *zap.Logger
}

func (d Deps) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

// onPath reports whether name resolves on the context PATH.
func (d Deps) onPath(name string) bool {
	_, err := d.Env.LookPath(name)
	return err == nil
}

// versionOf runs `<name> --version` and returns the first line, or "" when
// the tool cannot report one.
func (d Deps) versionOf(ctx context.Context, name string) string {
	out, err := d.Runner.Output(ctx, name, "--version")
	if err != nil {
		d.logger().Debug("version query failed", zap.String("tool", name), zap.Error(err))
		return ""
	}
	return runner.FirstLine(out)
}
