package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeServices(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "services.json")

	r := Validate(path)
	if !r.Removed || r.Err == nil {
		t.Errorf("missing file: %+v", r)
	}

	writeServices(t, path, `{
		// two services
		"services": [{"name": "a"}, {"name": "b"},],
	}`)
	r = Validate(path)
	if r.Err != nil || r.Services != 2 {
		t.Errorf("valid file: %+v", r)
	}

	writeServices(t, path, `{"servces": []}`)
	r = Validate(path)
	if r.Err == nil || !strings.Contains(r.Err.Error(), "services") {
		t.Errorf("missing key should fail: %+v", r)
	}
}

func TestNew_MissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent", "services.json")
	if _, err := New(path, nil); err == nil || !strings.Contains(err.Error(), "devboot") {
		t.Errorf("New() error = %v, want hint to run devboot", err)
	}
}

func TestRun_ReportsInitialAndChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "services.json")
	writeServices(t, path, `{ "services": [] }`)

	w, err := New(path, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer w.Close()
	w.SetDebounce(20 * time.Millisecond)

	results := make(chan Result, 16)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(r Result) { results <- r })
	}()

	next := func() Result {
		t.Helper()
		select {
		case r := <-results:
			return r
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for validation")
			return Result{}
		}
	}

	if r := next(); r.Err != nil || r.Services != 0 {
		t.Errorf("initial validation: %+v", r)
	}

	writeServices(t, path, `{ "services": [ {"name": "x"} ] }`)
	if r := next(); r.Err != nil || r.Services != 1 {
		t.Errorf("after valid edit: %+v", r)
	}

	writeServices(t, path, `{ "services": [ `)
	if r := next(); r.Err == nil {
		t.Errorf("after broken edit: %+v", r)
	}

	// Unrelated files in the same directory are ignored.
	writeServices(t, filepath.Join(dir, "other.json"), `{}`)
	select {
	case r := <-results:
		t.Errorf("unexpected validation for unrelated file: %+v", r)
	case <-time.After(150 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}
