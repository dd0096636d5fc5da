package tools

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/blackwell-systems/devboot/internal/platform"
	"github.com/blackwell-systems/devboot/internal/runner"
)

const nvmInstallScript = "https://raw.githubusercontent.com/nvm-sh/nvm/%s/install.sh"

// NVM is the Node version manager stage. nvm is a shell function, so every
// interaction sources nvm.sh in a fresh bash.
type NVM struct {
	Deps
	// InstallerVersion is the nvm release whose install script is used on Linux.
	InstallerVersion string
}

func (n *NVM) Name() string { return "nvm" }

// Dir is $NVM_DIR, defaulting to ~/.nvm.
func (n *NVM) Dir() string {
	if dir := n.Env.Get("NVM_DIR"); dir != "" {
		return dir
	}
	return filepath.Join(n.Env.Home, ".nvm")
}

// Script locates nvm.sh. Homebrew keeps it under the formula prefix rather
// than in $NVM_DIR.
func (n *NVM) Script(ctx context.Context) string {
	if n.Profile.OS == platform.MacOS && n.onPath("brew") {
		prefix, err := n.Runner.Output(ctx, "brew", "--prefix", "nvm")
		if err == nil && prefix != "" {
			if p := filepath.Join(prefix, "nvm.sh"); nonEmptyFile(p) {
				return p
			}
		}
	}
	return filepath.Join(n.Dir(), "nvm.sh")
}

func (n *NVM) shell(ctx context.Context, command string) (string, []string) {
	return "bash", []string{"-c", ". " + runner.Quote(n.Script(ctx)) + " && " + command}
}

// Exec runs command in a bash with nvm loaded, streaming its output.
func (n *NVM) Exec(ctx context.Context, command string) error {
	name, args := n.shell(ctx, command)
	return n.Runner.Run(ctx, name, args...)
}

// Output runs command in a bash with nvm loaded and captures stdout.
func (n *NVM) Output(ctx context.Context, command string) (string, error) {
	name, args := n.shell(ctx, command)
	return n.Runner.Output(ctx, name, args...)
}

func (n *NVM) Probe(ctx context.Context) bool {
	return nonEmptyFile(n.Script(ctx))
}

func (n *NVM) Install(ctx context.Context) error {
	dir := n.Dir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	n.Env.Set("NVM_DIR", dir)

	if n.Profile.OS == platform.MacOS {
		if err := n.Runner.Run(ctx, "brew", "install", "nvm"); err != nil {
			return fmt.Errorf("failed to install nvm: %w", err)
		}
		return nil
	}

	script := fmt.Sprintf("curl -fsSL %s | bash", fmt.Sprintf(nvmInstallScript, n.InstallerVersion))
	if err := n.Runner.Run(ctx, "bash", "-c", script); err != nil {
		return fmt.Errorf("failed to install nvm: %w", err)
	}
	return nil
}

// Activate exports NVM_DIR for every later child process.
func (n *NVM) Activate(ctx context.Context) error {
	n.Env.Set("NVM_DIR", n.Dir())
	return nil
}

// Verify loads nvm into a shell session and checks the function exists.
func (n *NVM) Verify(ctx context.Context) bool {
	if err := n.Exec(ctx, "command -v nvm >/dev/null"); err != nil {
		n.logger().Debug("nvm did not load", zap.Error(err))
		return false
	}
	return true
}

func (n *NVM) Version(ctx context.Context) string {
	out, err := n.Output(ctx, "nvm --version")
	if err != nil {
		return ""
	}
	return runner.FirstLine(out)
}

func (n *NVM) LoadsIntoSession() bool { return true }

func (n *NVM) Remedy() string {
	return "Restart your terminal so nvm is loaded, then rerun devboot"
}

// Node installs the Node.js runtime through nvm.
type Node struct {
	Deps
	NVM *NVM
	// Release is the nvm version spec, e.g. "lts/*".
	Release string
}

func (n *Node) Name() string { return "Node.js" }

// nvmDefault returns the node binary of nvm's default alias, or "".
func (n *Node) nvmDefault(ctx context.Context) string {
	out, err := n.NVM.Output(ctx, "nvm which default")
	if err != nil {
		return ""
	}
	path := runner.FirstLine(out)
	if !isExecutable(path) {
		return ""
	}
	return path
}

func (n *Node) Probe(ctx context.Context) bool {
	return n.onPath("node") || n.nvmDefault(ctx) != ""
}

func (n *Node) Install(ctx context.Context) error {
	release := runner.Quote(n.Release)
	if err := n.NVM.Exec(ctx, "nvm install "+release+" && nvm alias default "+release); err != nil {
		return fmt.Errorf("failed to install Node.js %s: %w", n.Release, err)
	}
	return nil
}

// Activate puts nvm's default node on PATH when no node is visible yet.
func (n *Node) Activate(ctx context.Context) error {
	if n.onPath("node") {
		return nil
	}
	path := n.nvmDefault(ctx)
	if path == "" {
		return errors.New("nvm reports no default Node.js installation")
	}
	n.Env.PrependPath(filepath.Dir(path))
	n.logger().Debug("added node to PATH", zap.String("node", path))
	return nil
}

func (n *Node) Verify(ctx context.Context) bool {
	return n.onPath("node") && n.onPath("npm")
}

func (n *Node) Version(ctx context.Context) string {
	return n.versionOf(ctx, "node")
}

func (n *Node) Remedy() string {
	return "Open a new terminal, run 'nvm install --lts', then rerun devboot"
}

// Corepack activates a package manager shim (pnpm) that ships with Node.js.
type Corepack struct {
	Deps
	Manager string
}

func (c *Corepack) Name() string { return c.Manager }

func (c *Corepack) Probe(ctx context.Context) bool {
	return c.onPath(c.Manager)
}

func (c *Corepack) Install(ctx context.Context) error {
	if err := c.Runner.Run(ctx, "corepack", "enable", c.Manager); err != nil {
		return fmt.Errorf("failed to enable %s: %w", c.Manager, err)
	}
	return nil
}

func (c *Corepack) Verify(ctx context.Context) bool {
	return c.Probe(ctx)
}

func (c *Corepack) Version(ctx context.Context) string {
	return c.versionOf(ctx, c.Manager)
}
