package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/jsonc"
)

// DefaultServices is the seed written to services.json on first run.
var DefaultServices = []byte("{ \"services\": [] }\n")

// ErrNoServicesKey is returned when services.json lacks the "services" array.
var ErrNoServicesKey = errors.New(`missing "services" array`)

// ServicesFile is the daemon's service registration document. Entries are
// kept raw; their shape belongs to the daemon.
type ServicesFile struct {
	Services []json.RawMessage `json:"services"`
}

// SeedServices writes DefaultServices to path unless the file already
// exists. Existing content is never touched. Returns whether it wrote.
func SeedServices(path string) (bool, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if os.IsExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Write(DefaultServices); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return true, nil
}

// ParseServices decodes a services document. Comments and trailing commas
// are tolerated since people edit this file by hand.
func ParseServices(data []byte) (*ServicesFile, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(jsonc.ToJSON(data), &raw); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	services, ok := raw["services"]
	if !ok {
		return nil, ErrNoServicesKey
	}
	// null would decode into an empty slice.
	if bytes.Equal(bytes.TrimSpace(services), []byte("null")) {
		return nil, errors.New(`"services" must be an array, got null`)
	}

	var sf ServicesFile
	if err := json.Unmarshal(services, &sf.Services); err != nil {
		return nil, fmt.Errorf(`"services" must be an array: %w`, err)
	}
	return &sf, nil
}

// LoadServices reads and parses the services document at path.
func LoadServices(path string) (*ServicesFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sf, err := ParseServices(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sf, nil
}
