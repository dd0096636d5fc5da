package runner

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/blackwell-systems/devboot/internal/env"
)

func writeScript(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("#!/bin/sh\n"+body), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
}

func TestExecRunner_UsesContextPath(t *testing.T) {
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("requires /bin/sh")
	}

	bin := t.TempDir()
	writeScript(t, bin, "hello", "echo \"hello $GREETING\"\n")

	e := env.New(t.TempDir(), "", "/usr/bin:/bin")
	r := New(e, nil)

	if _, err := r.Output(context.Background(), "hello"); err == nil {
		t.Fatal("expected lookup failure before the dir is on the context PATH")
	}

	e.PrependPath(bin)
	e.Set("GREETING", "devboot")

	out, err := r.Output(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Output() error = %v", err)
	}
	if out != "hello devboot" {
		t.Errorf("Output() = %q, want %q", out, "hello devboot")
	}
}

func TestExecRunner_RunStreamsOutput(t *testing.T) {
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("requires /bin/sh")
	}

	bin := t.TempDir()
	writeScript(t, bin, "installer", "echo installing\necho oops 1>&2\n")

	var stdout, stderr bytes.Buffer
	r := New(env.New(t.TempDir(), "", bin+string(filepath.ListSeparator)+"/usr/bin:/bin"), nil)
	r.Stdin = strings.NewReader("")
	r.Stdout = &stdout
	r.Stderr = &stderr

	if err := r.Run(context.Background(), "installer"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(stdout.String(), "installing") {
		t.Errorf("stdout = %q", stdout.String())
	}
	if !strings.Contains(stderr.String(), "oops") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestExecRunner_OutputIncludesStderrOnFailure(t *testing.T) {
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("requires /bin/sh")
	}

	bin := t.TempDir()
	writeScript(t, bin, "broken", "echo 'no such formula' 1>&2\nexit 3\n")

	r := New(env.New(t.TempDir(), "", bin+string(filepath.ListSeparator)+"/usr/bin:/bin"), nil)
	_, err := r.Output(context.Background(), "broken", "--flag")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "broken --flag failed") || !strings.Contains(err.Error(), "no such formula") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestQuote(t *testing.T) {
	tests := map[string]string{
		"lts/*":          `'lts/*'`,
		"it's":           `'it'\''s'`,
		"/path with spc": `'/path with spc'`,
	}
	for in, want := range tests {
		if got := Quote(in); got != want {
			t.Errorf("Quote(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestFirstLine(t *testing.T) {
	if got := FirstLine("\n  Homebrew 4.3.1\nHomebrew/homebrew-core\n"); got != "Homebrew 4.3.1" {
		t.Errorf("FirstLine() = %q", got)
	}
	if got := FirstLine(""); got != "" {
		t.Errorf("FirstLine(\"\") = %q", got)
	}
}

func TestFake(t *testing.T) {
	boom := errors.New("boom")
	ran := false
	f := NewFake().
		On("brew --prefix nvm", FakeResult{Output: "/opt/homebrew/opt/nvm"}).
		On("brew install nvm", FakeResult{Err: boom, Do: func() { ran = true }})

	out, err := f.Output(context.Background(), "brew", "--prefix", "nvm")
	if err != nil || out != "/opt/homebrew/opt/nvm" {
		t.Errorf("Output() = (%q, %v)", out, err)
	}
	if err := f.Run(context.Background(), "brew", "install", "nvm"); !errors.Is(err, boom) {
		t.Errorf("Run() error = %v, want boom", err)
	}
	if !ran {
		t.Error("expected Do hook to run")
	}
	if err := f.Run(context.Background(), "git", "--version"); err != nil {
		t.Errorf("unscripted command should succeed, got %v", err)
	}
	if !f.Called("git --version") || f.Called("npm -v") {
		t.Errorf("unexpected call log: %v", f.Calls)
	}
}
