// Package shell provides utilities for writing shell configuration files.
package shell

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/blackwell-systems/devboot/internal/env"
)

const marker = "# added by devboot"

// ProfilePath picks the login profile for the user's shell.
// fish gets a dedicated conf.d snippet instead of a profile file.
func ProfilePath(home, shellPath string) (path string, isFish bool) {
	switch filepath.Base(shellPath) {
	case "zsh":
		return filepath.Join(home, ".zprofile"), false
	case "bash":
		return filepath.Join(home, ".bash_profile"), false
	case "fish":
		return filepath.Join(home, ".config", "fish", "conf.d", "devboot.fish"), true
	default:
		return filepath.Join(home, ".profile"), false
	}
}

// ExportLine returns the line that puts dir on PATH for the given shell.
func ExportLine(dir string, isFish bool) string {
	if isFish {
		return fmt.Sprintf("fish_add_path %s", dir)
	}
	return fmt.Sprintf("export PATH=%q:$PATH", dir)
}

// HasPathEntry reports whether the profile for e already contains the export
// line for dir. A missing profile is not an error.
func HasPathEntry(e *env.Context, dir string) (bool, string, error) {
	configPath, isFish := ProfilePath(e.Home, e.Shell)

	content, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, configPath, nil
		}
		return false, configPath, fmt.Errorf("cannot read config file %s: %w", configPath, err)
	}

	return containsLine(string(content), ExportLine(dir, isFish)), configPath, nil
}

// EnsurePathEntry makes dir visible both to the rest of this run (through e)
// and to future login shells (through the profile file). The profile is
// appended at most once per dir.
// Returns (added bool, configFile string, err error).
// added=false means the profile already had the line (no change made).
func EnsurePathEntry(e *env.Context, dir string) (added bool, configFile string, err error) {
	e.PrependPath(dir)

	present, configPath, err := HasPathEntry(e, dir)
	if err != nil {
		return false, "", err
	}
	if present {
		return false, configPath, nil
	}

	// Ensure the parent directory exists (needed for fish conf.d path).
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return false, "", fmt.Errorf("cannot create config directory %s: %w", filepath.Dir(configPath), err)
	}

	_, isFish := ProfilePath(e.Home, e.Shell)
	line := fmt.Sprintf("\n%s\n%s\n", marker, ExportLine(dir, isFish))

	f, err := os.OpenFile(configPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return false, "", fmt.Errorf("cannot open config file %s: %w", configPath, err)
	}
	defer f.Close()

	if _, err := fmt.Fprint(f, line); err != nil {
		return false, "", fmt.Errorf("cannot write to config file %s: %w", configPath, err)
	}

	return true, configPath, nil
}

func containsLine(content, line string) bool {
	for _, l := range strings.Split(content, "\n") {
		if strings.TrimSpace(l) == line {
			return true
		}
	}
	return false
}
