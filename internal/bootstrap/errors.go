package bootstrap

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a run stopped. Every kind is fatal.
type ErrorKind int

const (
	// EnvironmentBlocker: the platform cannot be bootstrapped at all.
	EnvironmentBlocker ErrorKind = iota + 1
	// DependencyLoad: a tool loaded into the shell session (nvm) is still
	// missing after its install.
	DependencyLoad
	// StageFailed: an install command returned an error.
	StageFailed
	// Verification: the install reported success but the re-probe failed.
	Verification
	// MissingPath: a computed path that must exist does not.
	MissingPath
)

func (k ErrorKind) String() string {
	switch k {
	case EnvironmentBlocker:
		return "environment blocker"
	case DependencyLoad:
		return "dependency load failure"
	case StageFailed:
		return "stage failure"
	case Verification:
		return "verification failure"
	case MissingPath:
		return "missing path"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// StageError is the error returned by Run when the pipeline aborts.
type StageError struct {
	Kind  ErrorKind
	Stage string
	// Path is the filesystem path involved, for MissingPath.
	Path string
	// Remedy is the manual action that resolves the failure, if known.
	Remedy string
	Err    error
}

func (e *StageError) Error() string {
	var msg string
	switch e.Kind {
	case EnvironmentBlocker:
		msg = "cannot bootstrap this machine"
	case DependencyLoad:
		msg = fmt.Sprintf("%s could not be loaded into the shell session", e.Stage)
	case Verification:
		msg = fmt.Sprintf("%s was installed but is still not detected", e.Stage)
	case MissingPath:
		if e.Path == "" {
			msg = fmt.Sprintf("%s: could not resolve the target directory", e.Stage)
		} else {
			msg = fmt.Sprintf("%s: %s does not exist", e.Stage, e.Path)
		}
	default:
		msg = e.Stage
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// KindOf returns the ErrorKind of err, or 0 when err is not a StageError.
func KindOf(err error) ErrorKind {
	var se *StageError
	if errors.As(err, &se) {
		return se.Kind
	}
	return 0
}
