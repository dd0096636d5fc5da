package env

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew_DedupesPath(t *testing.T) {
	c := New("/home/dev", "/bin/zsh", "/usr/bin:/bin:/usr/bin")
	got := c.Path()
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %v", got)
	}
}

func TestPrependPath(t *testing.T) {
	c := New("/home/dev", "", "/usr/bin:/bin")

	if !c.PrependPath("/opt/homebrew/bin") {
		t.Error("expected first prepend to report a change")
	}
	if c.PrependPath("/opt/homebrew/bin/") {
		t.Error("expected second prepend of the same dir to be a no-op")
	}

	path := c.Path()
	if path[0] != "/opt/homebrew/bin" {
		t.Errorf("expected new dir first, got %v", path)
	}
	if len(path) != 3 {
		t.Errorf("expected 3 entries, got %v", path)
	}
}

func TestLookPath(t *testing.T) {
	dir := t.TempDir()
	exe := filepath.Join(dir, "node")
	if err := os.WriteFile(exe, []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatal(err)
	}
	plain := filepath.Join(dir, "notes")
	if err := os.WriteFile(plain, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	c := New(t.TempDir(), "", "")
	if _, err := c.LookPath("node"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound before PATH update, got %v", err)
	}

	c.PrependPath(dir)
	got, err := c.LookPath("node")
	if err != nil {
		t.Fatalf("LookPath() error = %v", err)
	}
	if got != exe {
		t.Errorf("LookPath() = %q, want %q", got, exe)
	}

	if _, err := c.LookPath("notes"); err == nil {
		t.Error("non-executable file should not be found")
	}
	if _, err := c.LookPath(exe); err != nil {
		t.Errorf("absolute path lookup failed: %v", err)
	}
}

func TestGetAndEnviron(t *testing.T) {
	c := New("/home/dev", "", "/usr/bin")
	c.base = []string{"PATH=/ignored", "LANG=C", "NVM_DIR=/old"}

	if got := c.Get("LANG"); got != "C" {
		t.Errorf("Get(LANG) = %q, want C", got)
	}

	c.Set("NVM_DIR", "/home/dev/.nvm")
	if got := c.Get("NVM_DIR"); got != "/home/dev/.nvm" {
		t.Errorf("Get(NVM_DIR) = %q", got)
	}

	c.PrependPath("/home/dev/.local/bin")
	environ := strings.Join(c.Environ(), "\n")

	for _, want := range []string{
		"LANG=C",
		"NVM_DIR=/home/dev/.nvm",
		"HOME=/home/dev",
		"PATH=/home/dev/.local/bin" + string(filepath.ListSeparator) + "/usr/bin",
	} {
		if !strings.Contains(environ, want) {
			t.Errorf("Environ() missing %q:\n%s", want, environ)
		}
	}
	if strings.Contains(environ, "/ignored") || strings.Contains(environ, "NVM_DIR=/old") {
		t.Errorf("Environ() kept overridden values:\n%s", environ)
	}
}
