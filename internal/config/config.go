// Package config provides configuration file parsing for devboot.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/blackwell-systems/devboot/internal/platform"
)

// Dir returns the devboot config directory, respecting XDG_CONFIG_HOME.
// Defaults to ~/.config/devboot if XDG_CONFIG_HOME is not set.
func Dir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "devboot"), nil
}

// Config is the catalog of things devboot installs. Every field has a
// default; config.yaml only needs the fields it overrides.
type Config struct {
	// ToolName names the per-user state directory (~/.<tool_name>).
	ToolName string `yaml:"tool_name"`

	NVMVersion  string `yaml:"nvm_version"`
	NodeVersion string `yaml:"node_version"`

	CLI       PackageSpec   `yaml:"cli"`
	Daemon    DaemonSpec    `yaml:"daemon"`
	Companion CompanionSpec `yaml:"companion"`
}

// PackageSpec is an npm package installed globally.
type PackageSpec struct {
	Package string `yaml:"package"`
	Binary  string `yaml:"binary"`
}

// DaemonSpec is the prebuilt daemon binary.
type DaemonSpec struct {
	Binary    string             `yaml:"binary"`
	Artifacts platform.Artifacts `yaml:"artifacts"`
}

// CompanionSpec is the secondary npm package that receives the secret.
type CompanionSpec struct {
	Package   string `yaml:"package"`
	SecretKey string `yaml:"secret_key"`
}

const releaseBase = "https://github.com/conduit-dev/conduit/releases/latest/download/"

// Default returns the built-in catalog.
func Default() *Config {
	return &Config{
		ToolName:    "conduit",
		NVMVersion:  "v0.40.1",
		NodeVersion: "lts/*",
		CLI: PackageSpec{
			Package: "@conduit/cli",
			Binary:  "conduit",
		},
		Daemon: DaemonSpec{
			Binary: "conduitd",
			Artifacts: platform.Artifacts{
				platform.ArtifactDarwinARM64: releaseBase + "conduitd-darwin-arm64",
				platform.ArtifactDarwinX8664: releaseBase + "conduitd-darwin-amd64",
				platform.ArtifactLinux:       releaseBase + "conduitd-linux-amd64",
			},
		},
		Companion: CompanionSpec{
			Package:   "@conduit/gemini-bridge",
			SecretKey: "GOOGLE_API_KEY",
		},
	}
}

// DefaultPath returns {Dir()}/config.yaml.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the config file at path on top of the defaults. If the file
// does not exist, the defaults are returned without an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var override Config
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.merge(&override)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) merge(o *Config) {
	setIf(&c.ToolName, o.ToolName)
	setIf(&c.NVMVersion, o.NVMVersion)
	setIf(&c.NodeVersion, o.NodeVersion)
	setIf(&c.CLI.Package, o.CLI.Package)
	setIf(&c.CLI.Binary, o.CLI.Binary)
	setIf(&c.Daemon.Binary, o.Daemon.Binary)
	setIf(&c.Companion.Package, o.Companion.Package)
	setIf(&c.Companion.SecretKey, o.Companion.SecretKey)
	for key, url := range o.Daemon.Artifacts {
		if url != "" {
			c.Daemon.Artifacts[key] = url
		}
	}
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// Validate rejects values that would produce unusable paths.
func (c *Config) Validate() error {
	if filepath.Base(c.ToolName) != c.ToolName || c.ToolName == "." {
		return fmt.Errorf("tool_name %q must be a plain name", c.ToolName)
	}
	if filepath.Base(c.Daemon.Binary) != c.Daemon.Binary {
		return fmt.Errorf("daemon.binary %q must be a plain name", c.Daemon.Binary)
	}
	for key := range c.Daemon.Artifacts {
		switch key {
		case platform.ArtifactDarwinARM64, platform.ArtifactDarwinX8664, platform.ArtifactLinux:
		default:
			return fmt.Errorf("unknown artifact key %q", key)
		}
	}
	return nil
}

// StateDir returns ~/.<tool_name>, where the daemon keeps its service
// registrations.
func (c *Config) StateDir(home string) string {
	return filepath.Join(home, "."+c.ToolName)
}

// ServicesPath returns ~/.<tool_name>/services.json.
func (c *Config) ServicesPath(home string) string {
	return filepath.Join(c.StateDir(home), "services.json")
}
