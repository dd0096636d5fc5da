package bootstrap

import (
	"fmt"
	"os"
	"path/filepath"
)

// SecretFileName is the file written into the companion package directory.
const SecretFileName = ".env"

// WriteSecret replaces dir/.env with the single line KEY=value. The value is
// written verbatim; an empty value is allowed. dir must already exist.
func WriteSecret(dir, key, value string) (string, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", &StageError{Kind: MissingPath, Stage: "secret capture", Path: dir}
	}

	path := filepath.Join(dir, SecretFileName)
	if err := os.WriteFile(path, []byte(key+"="+value+"\n"), 0600); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	// WriteFile keeps the mode of an existing file.
	if err := os.Chmod(path, 0600); err != nil {
		return "", fmt.Errorf("failed to restrict %s: %w", path, err)
	}
	return path, nil
}
