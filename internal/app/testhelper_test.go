package app

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/blackwell-systems/devboot/internal/download"
	"github.com/blackwell-systems/devboot/internal/env"
	"github.com/blackwell-systems/devboot/internal/platform"
	"github.com/blackwell-systems/devboot/internal/prompt"
	"github.com/blackwell-systems/devboot/internal/runner"
	"github.com/blackwell-systems/devboot/internal/tools"
)

// machine is a fake macOS workstation rooted in a temp dir. Everything the
// pipeline needs is present except the daemon binary, the PATH entries and
// services.json, which a first run creates.
type machine struct {
	home    string
	bin     string
	prefix  string
	runner  *runner.Fake
	fetcher *fileFetcher
	secret  string
	profile platform.Profile
	path    string // PATH of the shell devboot is started from
}

type fileFetcher struct {
	urls []string
}

func (f *fileFetcher) Fetch(_ context.Context, url, dest string, progress download.ProgressFunc) error {
	f.urls = append(f.urls, url)
	if progress != nil {
		progress(6, 6)
	}
	return os.WriteFile(dest, []byte("binary"), 0644)
}

func newMachine(t *testing.T) *machine {
	t.Helper()
	home := t.TempDir()
	m := &machine{
		home:    home,
		bin:     filepath.Join(home, "bin"),
		prefix:  filepath.Join(home, "npm-global"),
		runner:  runner.NewFake(),
		fetcher: &fileFetcher{},
		secret:  "abc123",
		profile: platform.Profile{OS: platform.MacOS, Arch: platform.ARM64},
	}
	m.path = m.bin

	for _, name := range []string{"brew", "node", "npm", "pnpm", "git", "conduit"} {
		writeFile(t, filepath.Join(m.bin, name), "#!/bin/sh\n", 0755)
	}
	writeFile(t, filepath.Join(home, ".nvm", "nvm.sh"), "nvm() { :; }\n", 0644)
	if err := os.MkdirAll(m.companionDir(), 0755); err != nil {
		t.Fatalf("failed to create companion dir: %v", err)
	}

	m.runner.On("npm prefix -g", runner.FakeResult{Output: m.prefix})
	m.runner.On("node --version", runner.FakeResult{Output: "v20.11.0\n"})

	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	m.install(t)
	return m
}

func (m *machine) companionDir() string {
	return filepath.Join(m.prefix, "lib", "node_modules", "@conduit", "gemini-bridge")
}

func (m *machine) servicesPath() string {
	return filepath.Join(m.home, ".conduit", "services.json")
}

// install points the package-level hooks and flags at the machine and
// restores them when the test ends.
func (m *machine) install(t *testing.T) {
	t.Helper()

	oldEnv, oldDetect, oldRunner, oldFetcher, oldPrompt := loadEnv, detectProfile, newRunner, newFetcher, newPrompt
	oldDB, oldConfig, oldVerbose := dbPath, configPath, verbose
	t.Cleanup(func() {
		loadEnv, detectProfile, newRunner, newFetcher, newPrompt = oldEnv, oldDetect, oldRunner, oldFetcher, oldPrompt
		dbPath, configPath, verbose = oldDB, oldConfig, oldVerbose
	})

	loadEnv = func() (*env.Context, error) {
		return env.New(m.home, "/bin/zsh", m.path), nil
	}
	detectProfile = func() platform.Profile { return m.profile }
	newRunner = func(*env.Context, *zap.Logger) runner.Runner { return m.runner }
	newFetcher = func(*zap.Logger) tools.Fetcher { return m.fetcher }
	newPrompt = func() prompt.SecretPrompt { return prompt.Static(m.secret) }

	dbPath = filepath.Join(m.home, ".devboot", "devboot.db")
	configPath = filepath.Join(m.home, "devboot.yaml")
	verbose = false
}

// testCommand returns a command with captured stdout for calling RunE
// functions directly.
func testCommand(t *testing.T) (*cobra.Command, *bytes.Buffer) {
	t.Helper()
	t.Setenv("NO_COLOR", "1")
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	cmd.SetErr(io.Discard)
	cmd.SetContext(context.Background())
	return cmd, &buf
}

func writeFile(t *testing.T, path, content string, mode os.FileMode) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), mode); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}
