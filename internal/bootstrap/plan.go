package bootstrap

import (
	"context"

	"github.com/blackwell-systems/devboot/internal/config"
	"github.com/blackwell-systems/devboot/internal/download"
	"github.com/blackwell-systems/devboot/internal/platform"
	"github.com/blackwell-systems/devboot/internal/tools"
)

// SecretTarget resolves the directory that receives the .env file.
type SecretTarget interface {
	PackageDir(ctx context.Context) (string, error)
}

// SecretStep describes the final credential capture.
type SecretStep struct {
	Target SecretTarget
	// Key is the variable name written to .env.
	Key string
}

// Plan is the ordered pipeline for one machine.
type Plan struct {
	Profile platform.Profile
	Stages  []tools.Tool
	Secret  *SecretStep
}

// Inputs are the collaborators NewPlan wires into the stages.
type Inputs struct {
	Config   *config.Config
	Deps     tools.Deps // Profile and Policy are filled in by NewPlan
	Fetcher  tools.Fetcher
	Progress download.ProgressFunc
}

// NewPlan resolves the platform policy for profile and builds the stage
// list. An unsupported profile yields an empty plan that Run rejects
// before anything executes.
func NewPlan(profile platform.Profile, in Inputs) (*Plan, error) {
	if profile.OS == platform.Unsupported {
		return &Plan{Profile: profile}, nil
	}

	cfg := in.Config
	policy, err := platform.Resolve(profile, in.Deps.Env.Home, cfg.Daemon.Artifacts)
	if err != nil {
		return nil, &StageError{Kind: EnvironmentBlocker, Stage: "platform", Err: err}
	}

	d := in.Deps
	d.Profile = profile
	d.Policy = policy

	nvm := &tools.NVM{Deps: d, InstallerVersion: cfg.NVMVersion}
	companion := &tools.NPMGlobal{Deps: d, Package: cfg.Companion.Package}

	stages := []tools.Tool{tools.PackageManager(d)}
	if policy.PersistPath && policy.PackageManagerBin != "" {
		stages = append(stages, &tools.PathEntry{Deps: d, Dir: policy.PackageManagerBin})
	}
	stages = append(stages,
		nvm,
		&tools.Node{Deps: d, NVM: nvm, Release: cfg.NodeVersion},
		&tools.Corepack{Deps: d, Manager: "pnpm"},
		&tools.Git{Deps: d},
		&tools.NPMGlobal{Deps: d, Label: cfg.CLI.Binary + " CLI", Package: cfg.CLI.Package, Binary: cfg.CLI.Binary},
		&tools.Daemon{Deps: d, Binary: cfg.Daemon.Binary, Fetcher: in.Fetcher, Progress: in.Progress},
	)
	if policy.PersistPath {
		stages = append(stages, &tools.PathEntry{Deps: d, Dir: policy.InstallDir})
	}
	stages = append(stages,
		companion,
		&tools.ServicesSeed{Path: cfg.ServicesPath(d.Env.Home)},
	)

	return &Plan{
		Profile: profile,
		Stages:  stages,
		Secret:  &SecretStep{Target: companion, Key: cfg.Companion.SecretKey},
	}, nil
}
