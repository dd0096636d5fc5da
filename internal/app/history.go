package app

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/devboot/internal/output"
	"github.com/blackwell-systems/devboot/internal/store"
)

var (
	historyLimit int

	historyCmd = &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show previous bootstrap runs",
		Long: `Lists recorded bootstrap runs, newest first. Pass a run id (or any unique
prefix of one) to see every stage of that run with its outcome, duration and
the version that was detected.`,
		Example: `  # Recent runs
  devboot history

  # Stages of one run
  devboot history 3f2a9c1e`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistory,
	}
)

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "number of runs to list")
}

func runHistory(cmd *cobra.Command, args []string) error {
	st, err := openHistory()
	if err != nil {
		return err
	}
	defer st.Close()

	w := cmd.OutOrStdout()

	if len(args) == 1 {
		run, err := st.GetRun(args[0])
		if err != nil {
			if errors.Is(err, store.ErrRunNotFound) {
				return fmt.Errorf("no run matches %q: see 'devboot history'", args[0])
			}
			return err
		}
		fmt.Fprintf(w, "Run %s on %s/%s, started %s\n\n", run.ID, run.OS, run.Arch,
			run.StartedAt.Local().Format("2006-01-02 15:04:05"))
		fmt.Fprint(w, output.RenderStageTable(run.Stages))
		if !run.Succeeded() {
			fmt.Fprintf(w, "\nFailed: %s\n", run.Error)
		}
		return nil
	}

	if historyLimit <= 0 {
		return fmt.Errorf("--limit must be positive, got %d", historyLimit)
	}
	runs, err := st.ListRuns(historyLimit)
	if err != nil {
		return err
	}
	fmt.Fprint(w, output.RenderRunTable(runs))
	return nil
}
