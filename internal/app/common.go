package app

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/blackwell-systems/devboot/internal/config"
	"github.com/blackwell-systems/devboot/internal/download"
	"github.com/blackwell-systems/devboot/internal/env"
	"github.com/blackwell-systems/devboot/internal/logging"
	"github.com/blackwell-systems/devboot/internal/output"
	"github.com/blackwell-systems/devboot/internal/platform"
	"github.com/blackwell-systems/devboot/internal/prompt"
	"github.com/blackwell-systems/devboot/internal/runner"
	"github.com/blackwell-systems/devboot/internal/store"
	"github.com/blackwell-systems/devboot/internal/tools"
)

// Collaborators that touch the real machine. Tests replace them.
var (
	loadEnv       = env.FromOS
	detectProfile = func() platform.Profile {
		return platform.Detect(os.Getenv, runtime.GOOS, runtime.GOARCH)
	}
	newRunner = func(e *env.Context, logger *zap.Logger) runner.Runner {
		return runner.New(e, logger)
	}
	newFetcher = func(logger *zap.Logger) tools.Fetcher {
		return download.New(logger)
	}
	newPrompt = func() prompt.SecretPrompt {
		return prompt.NewTerminal()
	}
)

// session is what every command needs before it can look at the machine.
type session struct {
	cfg     *config.Config
	env     *env.Context
	profile platform.Profile
	logger  *zap.Logger
	out     *output.Printer
}

func newSession(cmd *cobra.Command) (*session, error) {
	logger := logging.New(verbose)

	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	e, err := loadEnv()
	if err != nil {
		return nil, err
	}

	profile := detectProfile()
	logger.Debug("session ready",
		zap.String("platform", profile.String()),
		zap.String("home", e.Home),
		zap.String("shell", e.Shell))

	return &session{
		cfg:     cfg,
		env:     e,
		profile: profile,
		logger:  logger,
		out:     output.NewPrinter(cmd.OutOrStdout()),
	}, nil
}

func (s *session) deps() tools.Deps {
	return tools.Deps{
		Env:    s.env,
		Runner: newRunner(s.env, s.logger),
		Logger: s.logger,
	}
}

// loadConfig reads --config, or the default path when the flag is unset.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("failed to locate config: %w", err)
		}
	}
	return config.Load(path)
}

// openHistory opens the run history database.
func openHistory() (*store.Store, error) {
	path, err := getDBPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get database path: %w", err)
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return st, nil
}
