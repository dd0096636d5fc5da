package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var (
	dbPath     string
	configPath string
	verbose    bool

	// RootCmd is the root command for devboot
	RootCmd = &cobra.Command{
		Use:   "devboot",
		Short: "Bootstrap the conduit developer toolchain on macOS and Linux",
		Long: `devboot installs everything the conduit toolchain needs, in order, and
skips whatever is already present. Running it twice is safe: the second run
only probes.

Stages:
  1. Package manager (Homebrew on macOS, apt-get on Linux)
  2. nvm, Node.js LTS and pnpm (via corepack)
  3. git
  4. The conduit CLI and the conduitd daemon binary
  5. The companion bridge package
  6. ~/.conduit/services.json (created once, never overwritten)
  7. The companion's API key, written to its .env file

The first failing stage stops the run with exit code 1 and a suggested fix.

Quick Start:
  devboot              # run the bootstrap
  devboot doctor       # check what is installed without changing anything
  devboot history      # list previous runs

Examples:
  # Run with diagnostic logging
  devboot --verbose

  # Use an alternate catalog
  devboot --config ./devboot.yaml

  # Validate services.json while editing it
  devboot watch`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          runBootstrap,
	}
)

func init() {
	// Global flags
	RootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "run history database path (default: ~/.devboot/devboot.db)")
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "catalog override file (default: ~/.config/devboot/config.yaml)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every command and decision to stderr")

	// Enable cobra's built-in suggestion feature for unknown subcommands
	RootCmd.SuggestionsMinimumDistance = 2

	RootCmd.AddCommand(doctorCmd)
	RootCmd.AddCommand(historyCmd)
	RootCmd.AddCommand(watchCmd)
	RootCmd.AddCommand(versionCmd)
}

// Execute runs the root command. ctx is cancelled on SIGINT/SIGTERM by main.
func Execute(ctx context.Context) error {
	return RootCmd.ExecuteContext(ctx)
}

// stateDir returns ~/.devboot, creating it if needed.
func stateDir() (string, error) {
	dir, err := stateDirPath()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create devboot directory: %w", err)
	}
	return dir, nil
}

// stateDirPath is ~/.devboot without creating it.
func stateDirPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, ".devboot"), nil
}

// getDBPath returns the database path, using the flag value or default.
// store.Open creates the directory when a run records history.
func getDBPath() (string, error) {
	if dbPath != "" {
		return dbPath, nil
	}
	dir, err := stateDirPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "devboot.db"), nil
}

// getDefaultPIDFile returns the default PID file path
func getDefaultPIDFile() (string, error) {
	dir, err := stateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "watch.pid"), nil
}

// getDefaultLogFile returns the default log file path
func getDefaultLogFile() (string, error) {
	dir, err := stateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "watch.log"), nil
}
