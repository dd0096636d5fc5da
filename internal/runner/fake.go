package runner

import (
	"context"
	"sync"
)

// FakeResult is the scripted outcome of one command line.
type FakeResult struct {
	Output string
	Err    error
	// Do runs before the result is returned, to simulate side effects such
	// as an installer creating a file.
	Do func()
}

// Fake is a Runner for tests. Commands are matched by their full command
// line (see Commandline); unmatched commands succeed with empty output.
type Fake struct {
	mu      sync.Mutex
	Results map[string]FakeResult
	Calls   []string
}

// NewFake creates an empty Fake.
func NewFake() *Fake {
	return &Fake{Results: make(map[string]FakeResult)}
}

// On scripts the result for a command line.
func (f *Fake) On(cmdline string, result FakeResult) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Results[cmdline] = result
	return f
}

// Called reports whether cmdline was executed.
func (f *Fake) Called(cmdline string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.Calls {
		if c == cmdline {
			return true
		}
	}
	return false
}

func (f *Fake) exec(name string, args []string) FakeResult {
	cmdline := Commandline(name, args...)
	f.mu.Lock()
	f.Calls = append(f.Calls, cmdline)
	res := f.Results[cmdline]
	f.mu.Unlock()

	if res.Do != nil {
		res.Do()
	}
	return res
}

func (f *Fake) Run(_ context.Context, name string, args ...string) error {
	return f.exec(name, args).Err
}

func (f *Fake) Output(_ context.Context, name string, args ...string) (string, error) {
	res := f.exec(name, args)
	return res.Output, res.Err
}
