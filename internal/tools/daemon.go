package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/blackwell-systems/devboot/internal/download"
)

// Daemon is the prebuilt companion binary fetched from a release URL chosen
// by the platform policy.
type Daemon struct {
	Deps
	Binary   string
	Fetcher  Fetcher
	Progress download.ProgressFunc
}

func (d *Daemon) Name() string { return d.Binary }

// Path is where the binary lives once installed.
func (d *Daemon) Path() string {
	return filepath.Join(d.Policy.InstallDir, d.Binary)
}

func (d *Daemon) Probe(ctx context.Context) bool {
	return regularFile(d.Path())
}

func (d *Daemon) Install(ctx context.Context) error {
	if d.Policy.NeedsSudo {
		return d.installWithSudo(ctx)
	}

	if err := os.MkdirAll(d.Policy.InstallDir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", d.Policy.InstallDir, err)
	}
	if err := d.Fetcher.Fetch(ctx, d.Policy.ArtifactURL, d.Path(), d.Progress); err != nil {
		return err
	}
	if d.Policy.SetExecutable {
		if err := os.Chmod(d.Path(), 0755); err != nil {
			return fmt.Errorf("failed to mark %s executable: %w", d.Path(), err)
		}
	}
	return nil
}

// installWithSudo downloads as the user, then moves the file into the
// system directory with sudo.
func (d *Daemon) installWithSudo(ctx context.Context) error {
	tmpDir, err := os.MkdirTemp("", "devboot-")
	if err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	staged := filepath.Join(tmpDir, d.Binary)
	if err := d.Fetcher.Fetch(ctx, d.Policy.ArtifactURL, staged, d.Progress); err != nil {
		return err
	}

	if err := d.Runner.Run(ctx, "sudo", "mkdir", "-p", d.Policy.InstallDir); err != nil {
		return fmt.Errorf("failed to create %s: %w", d.Policy.InstallDir, err)
	}
	if err := d.Runner.Run(ctx, "sudo", "mv", staged, d.Path()); err != nil {
		return fmt.Errorf("failed to install %s: %w", d.Path(), err)
	}
	if d.Policy.SetExecutable {
		if err := d.Runner.Run(ctx, "sudo", "chmod", "755", d.Path()); err != nil {
			return fmt.Errorf("failed to mark %s executable: %w", d.Path(), err)
		}
	}

	d.logger().Debug("installed daemon", zap.String("path", d.Path()), zap.Bool("executable", d.Policy.SetExecutable))
	return nil
}

func (d *Daemon) Verify(ctx context.Context) bool {
	return d.Probe(ctx)
}

// Version runs the installed binary. A binary without the executable bit
// cannot report one.
func (d *Daemon) Version(ctx context.Context) string {
	if !isExecutable(d.Path()) {
		return ""
	}
	return d.versionOf(ctx, d.Path())
}

// Notices flags an installed binary that cannot be executed. On Linux the
// download is moved into place without chmod.
func (d *Daemon) Notices() []string {
	if !regularFile(d.Path()) || isExecutable(d.Path()) {
		return nil
	}
	cmd := "chmod +x " + d.Path()
	if d.Policy.NeedsSudo {
		cmd = "sudo " + cmd
	}
	return []string{fmt.Sprintf("%s is installed without the executable bit; run: %s", d.Path(), cmd)}
}
