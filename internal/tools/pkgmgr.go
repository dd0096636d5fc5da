package tools

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

const homebrewInstallScript = "https://raw.githubusercontent.com/Homebrew/install/HEAD/install.sh"

// Homebrew is the macOS package manager stage.
type Homebrew struct {
	Deps
}

func (h *Homebrew) Name() string { return "Homebrew" }

func (h *Homebrew) brewAtPrefix() string {
	if h.Policy.PackageManagerBin == "" {
		return ""
	}
	return filepath.Join(h.Policy.PackageManagerBin, "brew")
}

// Probe finds brew on PATH or at the architecture's default prefix, which
// covers the common case of a fresh install whose shellenv was never added.
func (h *Homebrew) Probe(ctx context.Context) bool {
	if h.onPath("brew") {
		return true
	}
	if p := h.brewAtPrefix(); p != "" {
		if _, err := os.Stat(p); err == nil {
			return true
		}
	}
	return false
}

func (h *Homebrew) Install(ctx context.Context) error {
	script := fmt.Sprintf(`NONINTERACTIVE=1 /bin/bash -c "$(curl -fsSL %s)"`, homebrewInstallScript)
	if err := h.Runner.Run(ctx, "/bin/bash", "-c", script); err != nil {
		return fmt.Errorf("homebrew install script failed: %w", err)
	}
	return nil
}

// Activate puts the Homebrew prefix on PATH for the rest of the run.
func (h *Homebrew) Activate(ctx context.Context) error {
	if h.onPath("brew") || h.Policy.PackageManagerBin == "" {
		return nil
	}
	if h.Env.PrependPath(h.Policy.PackageManagerBin) {
		h.logger().Debug("added Homebrew prefix to PATH", zap.String("dir", h.Policy.PackageManagerBin))
	}
	return nil
}

func (h *Homebrew) Verify(ctx context.Context) bool {
	return h.onPath("brew")
}

func (h *Homebrew) Version(ctx context.Context) string {
	return h.versionOf(ctx, "brew")
}

func (h *Homebrew) Remedy() string {
	return "Install Homebrew manually from https://brew.sh, then rerun devboot"
}

// Apt is the Linux package manager stage. It cannot be installed; its
// absence means the distribution is not supported.
type Apt struct {
	Deps
}

func (a *Apt) Name() string { return "apt-get" }

func (a *Apt) Probe(ctx context.Context) bool {
	return a.onPath("apt-get")
}

func (a *Apt) Install(ctx context.Context) error {
	return errors.New("apt-get not found: only Debian and Ubuntu based distributions are supported")
}

func (a *Apt) Verify(ctx context.Context) bool {
	return a.Probe(ctx)
}

func (a *Apt) Version(ctx context.Context) string {
	return a.versionOf(ctx, "apt-get")
}

// InstallPackage installs pkg with the policy's package manager.
func InstallPackage(ctx context.Context, d Deps, pkg string) error {
	switch d.Policy.PackageManager {
	case "brew":
		return d.Runner.Run(ctx, "brew", "install", pkg)
	case "apt-get":
		if err := d.Runner.Run(ctx, "sudo", "apt-get", "update"); err != nil {
			return err
		}
		return d.Runner.Run(ctx, "sudo", "apt-get", "install", "-y", pkg)
	default:
		return fmt.Errorf("no package manager configured to install %s", pkg)
	}
}

// PackageManager returns the package manager stage for the policy.
func PackageManager(d Deps) Tool {
	if d.Policy.PackageManager == "apt-get" {
		return &Apt{Deps: d}
	}
	return &Homebrew{Deps: d}
}

// Git is the version-control stage.
type Git struct {
	Deps
}

func (g *Git) Name() string { return "git" }

func (g *Git) Probe(ctx context.Context) bool {
	return g.onPath("git")
}

func (g *Git) Install(ctx context.Context) error {
	if err := InstallPackage(ctx, g.Deps, "git"); err != nil {
		return fmt.Errorf("failed to install git: %w", err)
	}
	return nil
}

func (g *Git) Verify(ctx context.Context) bool {
	return g.Probe(ctx)
}

func (g *Git) Version(ctx context.Context) string {
	return g.versionOf(ctx, "git")
}
