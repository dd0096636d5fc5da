package bootstrap

import (
	"time"

	"github.com/google/uuid"

	"github.com/blackwell-systems/devboot/internal/platform"
	"github.com/blackwell-systems/devboot/internal/store"
)

// Outcome is what a stage did.
type Outcome string

const (
	Skipped   Outcome = "skipped_already_present"
	Installed Outcome = "installed"
	Failed    Outcome = "failed"
)

// StageResult is the outcome of one stage.
type StageResult struct {
	Stage    string
	Outcome  Outcome
	Detail   string
	Version  string
	Duration time.Duration
}

// Report collects the results of one run.
type Report struct {
	ID         string
	Profile    platform.Profile
	StartedAt  time.Time
	FinishedAt time.Time
	Stages     []StageResult
	// Notices are warnings printed with the summary.
	Notices []string
	// SecretPath is the .env file written by the run, if any.
	SecretPath string
	Err        error
}

func newReport(profile platform.Profile, now time.Time) *Report {
	return &Report{
		ID:        uuid.NewString(),
		Profile:   profile,
		StartedAt: now,
	}
}

// Count returns how many stages ended with outcome o.
func (r *Report) Count(o Outcome) int {
	n := 0
	for _, s := range r.Stages {
		if s.Outcome == o {
			n++
		}
	}
	return n
}

// Record converts the report into its stored form.
func (r *Report) Record() *store.Run {
	run := &store.Run{
		ID:         r.ID,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		OS:         string(r.Profile.OS),
		Arch:       string(r.Profile.Arch),
	}
	if r.Err != nil {
		run.Error = r.Err.Error()
	}
	for i, s := range r.Stages {
		run.Stages = append(run.Stages, store.StageRecord{
			Position: i + 1,
			Stage:    s.Stage,
			Outcome:  string(s.Outcome),
			Detail:   s.Detail,
			Version:  s.Version,
			Duration: s.Duration,
		})
	}
	return run
}
