package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// NPMGlobal is a package installed with `npm install -g`.
type NPMGlobal struct {
	Deps
	Label   string
	Package string
	// Binary is the command the package puts on PATH. Packages without one
	// are probed by their install directory.
	Binary string
}

func (p *NPMGlobal) Name() string {
	if p.Label != "" {
		return p.Label
	}
	return p.Package
}

// PackageDir resolves where npm keeps the package: the global prefix
// reported by npm plus lib/node_modules/<package>.
func (p *NPMGlobal) PackageDir(ctx context.Context) (string, error) {
	prefix, err := p.Runner.Output(ctx, "npm", "prefix", "-g")
	if err != nil {
		return "", fmt.Errorf("failed to query npm global prefix: %w", err)
	}
	if prefix == "" {
		return "", errors.New("npm reported an empty global prefix")
	}
	return filepath.Join(prefix, "lib", "node_modules", filepath.FromSlash(p.Package)), nil
}

func (p *NPMGlobal) Probe(ctx context.Context) bool {
	if p.Binary != "" {
		return p.onPath(p.Binary)
	}
	dir, err := p.PackageDir(ctx)
	return err == nil && dirExists(dir)
}

func (p *NPMGlobal) Install(ctx context.Context) error {
	if err := p.Runner.Run(ctx, "npm", "install", "-g", p.Package); err != nil {
		return fmt.Errorf("failed to install %s: %w", p.Package, err)
	}
	return nil
}

func (p *NPMGlobal) Verify(ctx context.Context) bool {
	return p.Probe(ctx)
}

// Version asks the binary when there is one, otherwise reads the installed
// package.json.
func (p *NPMGlobal) Version(ctx context.Context) string {
	if p.Binary != "" {
		return p.versionOf(ctx, p.Binary)
	}

	dir, err := p.PackageDir(ctx)
	if err != nil {
		return ""
	}
	data, err := os.ReadFile(filepath.Join(dir, "package.json"))
	if err != nil {
		return ""
	}
	var manifest struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(data, &manifest); err != nil || manifest.Version == "" {
		return ""
	}
	return p.Package + "@" + manifest.Version
}
