package app

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/blackwell-systems/devboot/internal/bootstrap"
	"github.com/blackwell-systems/devboot/internal/output"
)

// keepRuns bounds the run history.
const keepRuns = 50

func runBootstrap(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.logger.Sync()

	s.out.Println(fmt.Sprintf("devboot: bootstrapping the %s toolchain on %s", s.cfg.ToolName, s.profile))

	bar := output.NewProgress(0, "Downloading "+s.cfg.Daemon.Binary)
	bar.SetWriter(cmd.ErrOrStderr())

	plan, err := bootstrap.NewPlan(s.profile, bootstrap.Inputs{
		Config:   s.cfg,
		Deps:     s.deps(),
		Fetcher:  newFetcher(s.logger),
		Progress: bar.Update,
	})
	if err != nil {
		return err
	}

	o := bootstrap.New(plan, newPrompt(), s.out, s.logger)

	// A broken history database never blocks the bootstrap itself.
	history, err := openHistory()
	if err != nil {
		s.logger.Warn("run history disabled", zap.Error(err))
	} else {
		defer history.Close()
		o.History = history
	}

	report, runErr := o.Run(cmd.Context())
	s.logger.Debug("bootstrap finished",
		zap.String("run", report.ID),
		zap.Int("installed", report.Count(bootstrap.Installed)),
		zap.Int("skipped", report.Count(bootstrap.Skipped)),
		zap.Error(runErr))

	if history != nil {
		if n, err := history.PruneRuns(keepRuns); err != nil {
			s.logger.Warn("failed to prune run history", zap.Error(err))
		} else if n > 0 {
			s.logger.Debug("pruned run history", zap.Int64("deleted", n))
		}
	}
	return runErr
}
