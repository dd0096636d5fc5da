package tools

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/blackwell-systems/devboot/internal/config"
	"github.com/blackwell-systems/devboot/internal/shell"
)

// PathEntry persists a directory on PATH through the user's shell profile.
type PathEntry struct {
	Deps
	Dir string
}

func (p *PathEntry) Name() string { return fmt.Sprintf("PATH entry %s", p.Dir) }

func (p *PathEntry) present() bool {
	inProfile, _, err := shell.HasPathEntry(p.Env, p.Dir)
	return err == nil && inProfile
}

// Probe checks only the persisted profile line. A shell that has not been
// restarted still lacks the dir; Activate covers that.
func (p *PathEntry) Probe(ctx context.Context) bool {
	return p.present()
}

// Activate puts the dir on PATH for the rest of the run.
func (p *PathEntry) Activate(ctx context.Context) error {
	p.Env.PrependPath(p.Dir)
	return nil
}

func (p *PathEntry) Install(ctx context.Context) error {
	added, configFile, err := shell.EnsurePathEntry(p.Env, p.Dir)
	if err != nil {
		return err
	}
	p.logger().Debug("ensured PATH entry",
		zap.String("dir", p.Dir),
		zap.String("profile", configFile),
		zap.Bool("appended", added))
	return nil
}

func (p *PathEntry) Verify(ctx context.Context) bool {
	return p.present() && p.Env.HasPath(p.Dir)
}

func (p *PathEntry) Version(ctx context.Context) string { return "" }

// ServicesSeed creates the daemon's services.json if it does not exist.
type ServicesSeed struct {
	Path string
}

func (s *ServicesSeed) Name() string { return "services.json" }

func (s *ServicesSeed) Probe(ctx context.Context) bool {
	return regularFile(s.Path)
}

func (s *ServicesSeed) Install(ctx context.Context) error {
	_, err := config.SeedServices(s.Path)
	return err
}

func (s *ServicesSeed) Verify(ctx context.Context) bool {
	return s.Probe(ctx)
}

func (s *ServicesSeed) Version(ctx context.Context) string { return "" }
