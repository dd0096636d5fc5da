package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/blackwell-systems/devboot/internal/platform"
)

func TestDir_XDGConfigHome(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	dir, err := Dir()
	if err != nil {
		t.Fatalf("Dir() error = %v", err)
	}
	if dir != filepath.Join(xdg, "devboot") {
		t.Errorf("Dir() = %q, want %q", dir, filepath.Join(xdg, "devboot"))
	}
}

func TestDir_DefaultsToHomeConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("HOME", home)

	dir, err := Dir()
	if err != nil {
		t.Fatalf("Dir() error = %v", err)
	}
	if dir != filepath.Join(home, ".config", "devboot") {
		t.Errorf("Dir() = %q", dir)
	}
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := Default()
	if cfg.ToolName != want.ToolName || cfg.CLI != want.CLI || cfg.Companion != want.Companion {
		t.Errorf("Load() = %+v, want defaults %+v", cfg, want)
	}
	if len(cfg.Daemon.Artifacts) != 3 {
		t.Errorf("expected 3 default artifacts, got %v", cfg.Daemon.Artifacts)
	}
}

func TestLoad_OverridesOnlyGivenFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
tool_name: relay
cli:
  package: "@relay/cli"
daemon:
  artifacts:
    linux: https://mirror.internal/relayd-linux
companion:
  secret_key: GEMINI_API_KEY
`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ToolName != "relay" {
		t.Errorf("ToolName = %q", cfg.ToolName)
	}
	if cfg.CLI.Package != "@relay/cli" {
		t.Errorf("CLI.Package = %q", cfg.CLI.Package)
	}
	if cfg.CLI.Binary != "conduit" {
		t.Errorf("CLI.Binary should keep its default, got %q", cfg.CLI.Binary)
	}
	if cfg.Daemon.Artifacts[platform.ArtifactLinux] != "https://mirror.internal/relayd-linux" {
		t.Errorf("linux artifact = %q", cfg.Daemon.Artifacts[platform.ArtifactLinux])
	}
	if cfg.Daemon.Artifacts[platform.ArtifactDarwinARM64] == "" {
		t.Error("unspecified artifacts should keep their defaults")
	}
	if cfg.Companion.SecretKey != "GEMINI_API_KEY" || cfg.Companion.Package != "@conduit/gemini-bridge" {
		t.Errorf("Companion = %+v", cfg.Companion)
	}
	if got := cfg.ServicesPath("/home/dev"); got != "/home/dev/.relay/services.json" {
		t.Errorf("ServicesPath() = %q", got)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"bad yaml":         "tool_name: [unclosed",
		"tool name path":   "tool_name: ../etc",
		"daemon with path": "daemon:\n  binary: bin/conduitd\n",
		"unknown artifact": "daemon:\n  artifacts:\n    windows: https://x\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(body), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Errorf("Load() expected error for %s", name)
			}
		})
	}
}

func TestSeedServices_CreatesOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".conduit", "services.json")

	created, err := SeedServices(path)
	if err != nil {
		t.Fatalf("SeedServices() error = %v", err)
	}
	if !created {
		t.Error("expected created=true on first call")
	}

	sf, err := LoadServices(path)
	if err != nil {
		t.Fatalf("LoadServices() error = %v", err)
	}
	if len(sf.Services) != 0 {
		t.Errorf("expected empty services, got %d", len(sf.Services))
	}

	created, err = SeedServices(path)
	if err != nil {
		t.Fatalf("second SeedServices() error = %v", err)
	}
	if created {
		t.Error("expected created=false on second call")
	}
}

func TestSeedServices_NeverClobbers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "services.json")
	custom := []byte(`{"services":[{"name":"search","port":7070}]}` + "\n")
	if err := os.WriteFile(path, custom, 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := SeedServices(path); err != nil {
		t.Fatalf("SeedServices() error = %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(custom) {
		t.Errorf("existing services.json modified:\n got %q\nwant %q", got, custom)
	}
}

func TestParseServices(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		count   int
		wantErr bool
	}{
		{name: "seed", input: string(DefaultServices), count: 0},
		{name: "two entries", input: `{"services":[{"name":"a"},{"name":"b"}]}`, count: 2},
		{name: "comments and trailing comma", input: "{\n  // registered by conduit\n  \"services\": [{\"name\":\"a\"},],\n}", count: 1},
		{name: "missing key", input: `{"svc":[]}`, wantErr: true},
		{name: "not an array", input: `{"services":{}}`, wantErr: true},
		{name: "null", input: `{"services": null}`, wantErr: true},
		{name: "garbage", input: `services: []`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sf, err := ParseServices([]byte(tt.input))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseServices() error = %v", err)
			}
			if len(sf.Services) != tt.count {
				t.Errorf("got %d services, want %d", len(sf.Services), tt.count)
			}
		})
	}

	if _, err := ParseServices([]byte(`{}`)); !errors.Is(err, ErrNoServicesKey) {
		t.Errorf("expected ErrNoServicesKey, got %v", err)
	}
}
