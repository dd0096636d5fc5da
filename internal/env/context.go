// Package env holds the environment a bootstrap run reads and mutates.
//
// Stages never touch the real process environment. They read PATH and
// variables from a Context and write changes (new PATH entries, NVM_DIR)
// back into it; child processes receive Context.Environ().
package env

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned by LookPath when no executable matches.
var ErrNotFound = errors.New("executable file not found in PATH")

// Context is the explicit environment threaded through every stage.
type Context struct {
	Home  string
	Shell string

	path []string
	vars map[string]string
	base []string
}

// New creates a Context from explicit values. path uses the OS list separator.
func New(home, shell, path string) *Context {
	c := &Context{
		Home:  home,
		Shell: shell,
		vars:  make(map[string]string),
	}
	for _, entry := range filepath.SplitList(path) {
		if entry != "" && !c.HasPath(entry) {
			c.path = append(c.path, entry)
		}
	}
	return c
}

// FromOS snapshots the current process environment.
func FromOS() (*Context, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("cannot determine home directory: %w", err)
	}
	c := New(home, os.Getenv("SHELL"), os.Getenv("PATH"))
	c.base = os.Environ()
	return c, nil
}

// Path returns a copy of the PATH entries in search order.
func (c *Context) Path() []string {
	out := make([]string, len(c.path))
	copy(out, c.path)
	return out
}

// PathString renders PATH with the OS list separator.
func (c *Context) PathString() string {
	return strings.Join(c.path, string(filepath.ListSeparator))
}

// HasPath reports whether dir is already a PATH entry.
func (c *Context) HasPath(dir string) bool {
	dir = filepath.Clean(dir)
	for _, entry := range c.path {
		if filepath.Clean(entry) == dir {
			return true
		}
	}
	return false
}

// PrependPath puts dir at the front of PATH. It returns false when dir was
// already present, in which case PATH is unchanged.
func (c *Context) PrependPath(dir string) bool {
	if dir == "" || c.HasPath(dir) {
		return false
	}
	c.path = append([]string{dir}, c.path...)
	return true
}

// Set records a variable exported to child processes.
func (c *Context) Set(key, value string) {
	c.vars[key] = value
}

// Get returns a variable set on the Context, falling back to the snapshot
// taken by FromOS.
func (c *Context) Get(key string) string {
	if v, ok := c.vars[key]; ok {
		return v
	}
	prefix := key + "="
	for _, kv := range c.base {
		if strings.HasPrefix(kv, prefix) {
			return kv[len(prefix):]
		}
	}
	return ""
}

// LookPath searches the Context's PATH for an executable named name.
func (c *Context) LookPath(name string) (string, error) {
	if strings.ContainsRune(name, filepath.Separator) {
		if isExecutable(name) {
			return name, nil
		}
		return "", fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	for _, dir := range c.path {
		candidate := filepath.Join(dir, name)
		if isExecutable(candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%s: %w", name, ErrNotFound)
}

// Environ builds the environment for a child process: the OS snapshot with
// PATH, HOME and every Set variable overridden.
func (c *Context) Environ() []string {
	overrides := map[string]string{"PATH": c.PathString()}
	if c.Home != "" {
		overrides["HOME"] = c.Home
	}
	for k, v := range c.vars {
		overrides[k] = v
	}

	out := make([]string, 0, len(c.base)+len(overrides))
	for _, kv := range c.base {
		key, _, _ := strings.Cut(kv, "=")
		if _, ok := overrides[key]; ok {
			continue
		}
		out = append(out, kv)
	}
	for k, v := range overrides {
		out = append(out, k+"="+v)
	}
	return out
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return info.Mode()&0111 != 0
}
