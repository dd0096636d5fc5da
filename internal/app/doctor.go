package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/blackwell-systems/devboot/internal/bootstrap"
	"github.com/blackwell-systems/devboot/internal/output"
	"github.com/blackwell-systems/devboot/internal/platform"
	"github.com/blackwell-systems/devboot/internal/tools"
	"github.com/blackwell-systems/devboot/internal/watcher"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check every stage without installing anything",
	Long: `Runs the probe of every bootstrap stage and reports what is present.
Nothing is installed or written.

Checks:
  • Every stage devboot would install, with its version
  • ~/.conduit/services.json parses and has a "services" array
  • The companion's .env file exists and holds the API key
  • Platform warnings (for example a daemon binary without the executable bit)

Exits with an error when any stage is missing.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

// stageCheck is the probe result for one stage.
type stageCheck struct {
	name    string
	present bool
	version string
}

func runDoctor(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.logger.Sync()

	if s.profile.OS == platform.Unsupported {
		return &bootstrap.StageError{
			Kind:  bootstrap.EnvironmentBlocker,
			Stage: "platform",
			Err:   fmt.Errorf("%w: %s", platform.ErrUnsupported, s.profile),
		}
	}

	plan, err := bootstrap.NewPlan(s.profile, bootstrap.Inputs{Config: s.cfg, Deps: s.deps()})
	if err != nil {
		return err
	}

	s.out.Println(fmt.Sprintf("Running devboot diagnostics on %s...", s.profile))

	spinner := output.NewSpinner("Probing stages").WithTimeout(0)
	spinner.SetWriter(cmd.ErrOrStderr())
	spinner.Start()
	checks := probeStages(cmd.Context(), plan.Stages)
	spinner.Stop()

	installed := lastInstalled(s.logger)

	critical, warnings := 0, 0
	s.out.Heading("Stages")
	for _, c := range checks {
		if !c.present {
			s.out.Fail("%s not installed", c.name)
			critical++
			continue
		}
		line := c.name
		if c.version != "" {
			line = fmt.Sprintf("%-22s %s", c.name, c.version)
		}
		if at, ok := installed[c.name]; ok {
			line += fmt.Sprintf(" (installed by devboot %s)", output.RelativeTime(at))
		}
		s.out.Success("%s", line)
	}

	s.out.Heading("Files")
	if !checkServices(s, s.cfg.ServicesPath(s.env.Home)) {
		critical++
	}
	if plan.Secret != nil && !checkSecret(cmd.Context(), s, plan.Secret) {
		warnings++
	}

	for _, t := range plan.Stages {
		if n, ok := t.(tools.Noticer); ok {
			for _, notice := range n.Notices() {
				s.out.Warn("%s", notice)
				warnings++
			}
		}
	}

	s.out.Println("")
	if critical == 0 && warnings == 0 {
		s.out.Println("✓ All checks passed!")
		return nil
	}
	s.out.Println(fmt.Sprintf("Found %d critical issue(s) and %d warning(s).", critical, warnings))
	if critical > 0 {
		s.out.Println("Run 'devboot' to install what is missing.")
		return fmt.Errorf("diagnostics failed")
	}
	return nil
}

// probeStages probes in pipeline order. Present tools are activated so later
// probes see the same environment a real run would; activation only touches
// the in-memory environment.
func probeStages(ctx context.Context, stages []tools.Tool) []stageCheck {
	checks := make([]stageCheck, 0, len(stages))
	for _, t := range stages {
		c := stageCheck{name: t.Name(), present: t.Probe(ctx)}
		if c.present {
			if a, ok := t.(tools.Activator); ok {
				_ = a.Activate(ctx)
			}
			c.version = t.Version(ctx)
		}
		checks = append(checks, c)
	}
	return checks
}

// lastInstalled reads install times from the history. A missing history is
// not a doctor failure, and doctor never creates one.
func lastInstalled(logger *zap.Logger) map[string]time.Time {
	path, err := getDBPath()
	if err != nil {
		logger.Debug("run history unavailable", zap.Error(err))
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		logger.Debug("no run history yet", zap.String("path", path))
		return nil
	}

	history, err := openHistory()
	if err != nil {
		logger.Debug("run history unavailable", zap.Error(err))
		return nil
	}
	defer history.Close()

	installed, err := history.LastInstalled()
	if err != nil {
		logger.Debug("run history unreadable", zap.Error(err))
		return nil
	}
	return installed
}

func checkServices(s *session, path string) bool {
	r := watcher.Validate(path)
	switch {
	case r.Removed:
		s.out.Fail("%s not found", path)
		s.out.Info("Action: run 'devboot' to create it")
		return false
	case r.Err != nil:
		s.out.Fail("%s is invalid: %v", path, r.Err)
		return false
	default:
		s.out.Success("%s (%d services)", path, r.Services)
		return true
	}
}

// checkSecret reads the companion .env back. The value itself is never
// printed.
func checkSecret(ctx context.Context, s *session, step *bootstrap.SecretStep) bool {
	dir, err := step.Target.PackageDir(ctx)
	if err != nil {
		s.out.Warn("cannot resolve the companion package directory: %v", err)
		return false
	}

	path := filepath.Join(dir, bootstrap.SecretFileName)
	values, err := godotenv.Read(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		s.out.Warn("%s not found", path)
		s.out.Info("Action: run 'devboot' to enter %s", step.Key)
		return false
	case err != nil:
		s.out.Warn("%s is unreadable: %v", path, err)
		return false
	}

	value, ok := values[step.Key]
	switch {
	case !ok:
		s.out.Warn("%s has no %s entry", path, step.Key)
		return false
	case value == "":
		s.out.Warn("%s is empty in %s", step.Key, path)
		return false
	default:
		s.out.Success("%s set in %s", step.Key, path)
		return true
	}
}
