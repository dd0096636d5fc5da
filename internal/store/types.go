package store

import "time"

// Run is one recorded bootstrap run.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	OS         string
	Arch       string
	Error      string // empty on success
	Stages     []StageRecord
}

// Succeeded reports whether the run finished without error.
func (r *Run) Succeeded() bool {
	return r.Error == ""
}

// Installed counts stages that performed an install.
func (r *Run) Installed() int {
	n := 0
	for _, s := range r.Stages {
		if s.Outcome == "installed" {
			n++
		}
	}
	return n
}

// StageRecord is the outcome of one stage within a run.
type StageRecord struct {
	Position int
	Stage    string
	Outcome  string // "skipped_already_present", "installed" or "failed"
	Detail   string
	Version  string
	Duration time.Duration
}
