// Package bootstrap runs the ordered install pipeline: every stage is
// probed, installed only when missing, and verified, and the first failure
// stops the run.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/blackwell-systems/devboot/internal/output"
	"github.com/blackwell-systems/devboot/internal/platform"
	"github.com/blackwell-systems/devboot/internal/prompt"
	"github.com/blackwell-systems/devboot/internal/store"
	"github.com/blackwell-systems/devboot/internal/tools"
)

// Recorder persists finished runs.
type Recorder interface {
	RecordRun(run *store.Run) error
}

// Orchestrator executes a Plan.
type Orchestrator struct {
	Plan   *Plan
	Prompt prompt.SecretPrompt
	Out    *output.Printer
	// History is optional.
	History Recorder
	Logger  *zap.Logger

	now func() time.Time
}

// New creates an Orchestrator. out and logger may be nil.
func New(plan *Plan, p prompt.SecretPrompt, out *output.Printer, logger *zap.Logger) *Orchestrator {
	if out == nil {
		out = output.Discard()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{Plan: plan, Prompt: p, Out: out, Logger: logger, now: time.Now}
}

func (o *Orchestrator) clock() time.Time {
	if o.now == nil {
		return time.Now()
	}
	return o.now()
}

// Run executes every stage in order, then captures the secret and prints
// the summary. The returned Report is never nil; on failure it holds the
// stages run so far and err is a *StageError.
func (o *Orchestrator) Run(ctx context.Context) (*Report, error) {
	report := newReport(o.Plan.Profile, o.clock())
	o.Logger.Debug("bootstrap starting",
		zap.String("run", report.ID),
		zap.String("platform", o.Plan.Profile.String()),
		zap.Int("stages", len(o.Plan.Stages)))

	err := o.run(ctx, report)
	report.Err = err
	report.FinishedAt = o.clock()

	if o.History != nil {
		if recErr := o.History.RecordRun(report.Record()); recErr != nil {
			o.Logger.Warn("failed to record run", zap.Error(recErr))
		}
	}
	return report, err
}

func (o *Orchestrator) run(ctx context.Context, report *Report) error {
	if o.Plan.Profile.OS == platform.Unsupported {
		err := &StageError{
			Kind:  EnvironmentBlocker,
			Stage: "platform",
			Err:   fmt.Errorf("%w: %s", platform.ErrUnsupported, o.Plan.Profile),
		}
		o.Out.Fail("Unsupported platform %s: devboot supports macOS and Linux", o.Plan.Profile)
		return err
	}

	total := len(o.Plan.Stages)
	if o.Plan.Secret != nil {
		total++
	}

	for i, t := range o.Plan.Stages {
		if err := ctx.Err(); err != nil {
			return err
		}
		o.Out.Step(i+1, total, t.Name())
		result, err := o.runStage(ctx, t)
		report.Stages = append(report.Stages, result)
		if err != nil {
			o.fail(err)
			return err
		}
	}

	if o.Plan.Secret != nil {
		o.Out.Step(total, total, o.Plan.Secret.Key)
		start := o.clock()
		path, err := o.captureSecret(ctx, o.Plan.Secret)
		result := StageResult{Stage: o.Plan.Secret.Key, Duration: o.clock().Sub(start)}
		if err != nil {
			result.Outcome = Failed
			result.Detail = err.Error()
			report.Stages = append(report.Stages, result)
			o.fail(err)
			return err
		}
		result.Outcome = Installed
		result.Detail = path
		report.Stages = append(report.Stages, result)
		report.SecretPath = path
		o.Out.Success("Wrote %s", path)
	}

	o.summarize(ctx, report)
	return nil
}

// runStage applies the probe, install, verify protocol to one tool.
func (o *Orchestrator) runStage(ctx context.Context, t tools.Tool) (StageResult, error) {
	start := o.clock()
	result := StageResult{Stage: t.Name()}
	finish := func(outcome Outcome, detail string) StageResult {
		result.Outcome = outcome
		result.Detail = detail
		result.Duration = o.clock().Sub(start)
		o.Logger.Debug("stage finished",
			zap.String("stage", result.Stage),
			zap.String("outcome", string(outcome)),
			zap.Duration("duration", result.Duration))
		return result
	}

	if t.Probe(ctx) {
		if err := activate(ctx, t); err != nil {
			se := o.stageError(t, StageFailed, err)
			return finish(Failed, se.Error()), se
		}
		o.Out.Success("%s already present, skipping", t.Name())
		return finish(Skipped, "already present"), nil
	}

	o.Logger.Debug("stage missing, installing", zap.String("stage", t.Name()))
	if err := t.Install(ctx); err != nil {
		se := o.stageError(t, StageFailed, err)
		return finish(Failed, se.Error()), se
	}

	if err := activate(ctx, t); err != nil {
		se := o.stageError(t, verifyKind(t), err)
		return finish(Failed, se.Error()), se
	}
	if !t.Verify(ctx) {
		se := o.stageError(t, verifyKind(t), nil)
		return finish(Failed, se.Error()), se
	}

	o.Out.Success("%s installed", t.Name())
	return finish(Installed, "installed"), nil
}

func activate(ctx context.Context, t tools.Tool) error {
	if a, ok := t.(tools.Activator); ok {
		return a.Activate(ctx)
	}
	return nil
}

// verifyKind is DependencyLoad for tools that live in the shell session.
func verifyKind(t tools.Tool) ErrorKind {
	if sl, ok := t.(tools.SessionLoader); ok && sl.LoadsIntoSession() {
		return DependencyLoad
	}
	return Verification
}

func (o *Orchestrator) stageError(t tools.Tool, kind ErrorKind, err error) *StageError {
	se := &StageError{Kind: kind, Stage: t.Name(), Err: err}
	if r, ok := t.(tools.Remedier); ok {
		se.Remedy = r.Remedy()
	}
	return se
}

func (o *Orchestrator) fail(err error) {
	o.Out.Fail("%s", err)
	var se *StageError
	if errors.As(err, &se) && se.Remedy != "" {
		o.Out.Info("%s", se.Remedy)
	}
}

// captureSecret resolves the companion directory, prompts, and writes .env.
func (o *Orchestrator) captureSecret(ctx context.Context, s *SecretStep) (string, error) {
	dir, err := s.Target.PackageDir(ctx)
	if err != nil {
		return "", &StageError{Kind: MissingPath, Stage: "secret capture", Err: err}
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return "", &StageError{Kind: MissingPath, Stage: "secret capture", Path: dir}
	}

	value, err := o.Prompt.Prompt(fmt.Sprintf("Enter %s (input hidden, leave empty to skip): ", s.Key))
	if err != nil {
		return "", &StageError{Kind: StageFailed, Stage: "secret capture", Err: err}
	}

	path, err := WriteSecret(dir, s.Key, value)
	if err != nil {
		var se *StageError
		if errors.As(err, &se) {
			return "", se
		}
		return "", &StageError{Kind: StageFailed, Stage: "secret capture", Err: err}
	}
	return path, nil
}

// summarize fills in versions and notices and prints the closing report.
func (o *Orchestrator) summarize(ctx context.Context, report *Report) {
	installed, present := 0, 0
	for i, t := range o.Plan.Stages {
		report.Stages[i].Version = t.Version(ctx)
		if n, ok := t.(tools.Noticer); ok {
			report.Notices = append(report.Notices, n.Notices()...)
		}
		switch report.Stages[i].Outcome {
		case Installed:
			installed++
		case Skipped:
			present++
		}
	}

	o.Out.Heading("Summary")
	for _, s := range report.Stages[:len(o.Plan.Stages)] {
		if s.Version != "" {
			o.Out.Success("%-22s %s", s.Stage, s.Version)
		}
	}
	for _, n := range report.Notices {
		o.Out.Warn("%s", n)
	}
	o.Out.Println("")
	o.Out.Println(fmt.Sprintf("Bootstrap complete: %d installed, %d already present.", installed, present))
	o.Out.Println("Restart your shell (or open a new terminal) so PATH and profile changes take effect.")
}
