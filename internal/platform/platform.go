// Package platform classifies the host machine and maps it to the install
// policy used by every downstream stage.
package platform

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// OS is the coarse operating system family devboot knows how to bootstrap.
type OS string

const (
	MacOS       OS = "macos"
	Linux       OS = "linux"
	Unsupported OS = "unsupported"
)

// Arch is the CPU architecture as named by the release artifacts.
type Arch string

const (
	ARM64  Arch = "arm64"
	X86_64 Arch = "x86_64"
)

// ErrUnsupported is returned when no policy exists for the host.
var ErrUnsupported = errors.New("unsupported platform")

// Profile identifies the host. It is resolved once at startup and passed by
// value afterwards.
type Profile struct {
	OS   OS
	Arch Arch
}

func (p Profile) String() string {
	return fmt.Sprintf("%s/%s", p.OS, p.Arch)
}

// Classify maps a host-identifying string (an OSTYPE value such as
// "darwin23" or "linux-gnu", or a GOOS value) to an OS.
func Classify(host string) OS {
	host = strings.ToLower(strings.TrimSpace(host))
	switch {
	case strings.HasPrefix(host, "darwin"):
		return MacOS
	case strings.HasPrefix(host, "linux"):
		return Linux
	default:
		return Unsupported
	}
}

// ClassifyArch maps a GOARCH or uname -m value to an Arch. Unknown values are
// passed through unchanged so Resolve can reject them where they matter.
func ClassifyArch(arch string) Arch {
	switch strings.ToLower(strings.TrimSpace(arch)) {
	case "arm64", "aarch64":
		return ARM64
	case "amd64", "x86_64":
		return X86_64
	default:
		return Arch(arch)
	}
}

// Detect builds the Profile. OSTYPE wins when the shell exported it;
// otherwise goos is used.
func Detect(getenv func(string) string, goos, goarch string) Profile {
	host := goos
	if getenv != nil {
		if ostype := getenv("OSTYPE"); ostype != "" {
			host = ostype
		}
	}
	return Profile{OS: Classify(host), Arch: ClassifyArch(goarch)}
}

// Artifact keys used in Artifacts.
const (
	ArtifactDarwinARM64 = "darwin-arm64"
	ArtifactDarwinX8664 = "darwin-x86_64"
	ArtifactLinux       = "linux"
)

// Artifacts maps an artifact key to its download URL.
type Artifacts map[string]string

// Policy is everything a stage needs to know about the host.
type Policy struct {
	// PackageManager is the system package manager command ("brew" or "apt-get").
	PackageManager string
	// PackageManagerBin is where the package manager puts its binaries when
	// it is not yet on PATH. Empty on Linux.
	PackageManagerBin string
	ArtifactKey       string
	ArtifactURL       string
	// InstallDir receives the daemon binary.
	InstallDir string
	// NeedsSudo means InstallDir is not writable by the user.
	NeedsSudo bool
	// SetExecutable controls whether the daemon gets chmod +x after download.
	// Linux leaves the bit unset; the summary warns about it.
	SetExecutable bool
	// PersistPath appends InstallDir to the user's shell profile.
	PersistPath bool
}

type policyRow struct {
	os                OS
	arch              Arch // empty matches any arch
	packageManager    string
	packageManagerBin string
	artifactKey       string
	userLocal         bool
	installDir        string
	needsSudo         bool
	setExecutable     bool
	persistPath       bool
}

var policyTable = []policyRow{
	{
		os:                MacOS,
		arch:              ARM64,
		packageManager:    "brew",
		packageManagerBin: "/opt/homebrew/bin",
		artifactKey:       ArtifactDarwinARM64,
		userLocal:         true,
		setExecutable:     true,
		persistPath:       true,
	},
	{
		os:                MacOS,
		arch:              X86_64,
		packageManager:    "brew",
		packageManagerBin: "/usr/local/bin",
		artifactKey:       ArtifactDarwinX8664,
		userLocal:         true,
		setExecutable:     true,
		persistPath:       true,
	},
	{
		os:             Linux,
		packageManager: "apt-get",
		artifactKey:    ArtifactLinux,
		installDir:     "/usr/local/bin",
		needsSudo:      true,
	},
}

// Resolve looks up the policy for p. home is used for user-local install
// directories; artifacts supplies the download URLs.
func Resolve(p Profile, home string, artifacts Artifacts) (Policy, error) {
	if p.OS == Unsupported {
		return Policy{}, fmt.Errorf("%w: %s", ErrUnsupported, p)
	}

	for _, row := range policyTable {
		if row.os != p.OS || (row.arch != "" && row.arch != p.Arch) {
			continue
		}

		url, ok := artifacts[row.artifactKey]
		if !ok || url == "" {
			return Policy{}, fmt.Errorf("no download URL configured for %s", row.artifactKey)
		}

		installDir := row.installDir
		if row.userLocal {
			installDir = filepath.Join(home, ".local", "bin")
		}

		return Policy{
			PackageManager:    row.packageManager,
			PackageManagerBin: row.packageManagerBin,
			ArtifactKey:       row.artifactKey,
			ArtifactURL:       url,
			InstallDir:        installDir,
			NeedsSudo:         row.needsSudo,
			SetExecutable:     row.setExecutable,
			PersistPath:       row.persistPath,
		}, nil
	}

	return Policy{}, fmt.Errorf("%w: %s", ErrUnsupported, p)
}
