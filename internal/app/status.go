package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/devboot/internal/output"
	"github.com/blackwell-systems/devboot/internal/watcher"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the last bootstrap run and the watcher daemon",
	Long: `Display a one-screen summary of devboot on this machine.

Shows:
  • When devboot last ran and whether it succeeded
  • How many runs are recorded and where
  • Whether the services.json watcher daemon is running

Use 'devboot doctor' for a full check of every stage.`,
	Example: `  # Check status
  devboot status`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	RootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()

	pidFile, err := getDefaultPIDFile()
	if err != nil {
		return fmt.Errorf("failed to get PID file path: %w", err)
	}

	resolvedDBPath, err := getDBPath()
	if err != nil {
		return fmt.Errorf("failed to get database path: %w", err)
	}

	if _, err := os.Stat(resolvedDBPath); os.IsNotExist(err) {
		fmt.Fprintln(w, "devboot has not run on this machine yet. Run 'devboot' to bootstrap.")
		return nil
	}

	st, err := openHistory()
	if err != nil {
		return err
	}
	defer st.Close()

	total, err := st.CountRuns()
	if err != nil {
		return err
	}
	runs, err := st.ListRuns(1)
	if err != nil {
		return err
	}

	const label = "%-12s"
	fmt.Fprintln(w)

	if len(runs) == 0 {
		fmt.Fprintf(w, label+"never\n", "Last run:")
	} else {
		last := runs[0]
		result := "succeeded"
		if !last.Succeeded() {
			result = "failed: " + last.Error
		}
		fmt.Fprintf(w, label+"%s on %s/%s, %s\n", "Last run:",
			output.RelativeTime(last.StartedAt), last.OS, last.Arch, result)
		fmt.Fprintf(w, label+"%d of %d stages installed\n", "", last.Installed(), len(last.Stages))
	}

	var size string
	if fi, err := os.Stat(resolvedDBPath); err == nil {
		size = fmt.Sprintf(", %d KB", fi.Size()/1024)
	}
	fmt.Fprintf(w, label+"%d run(s) in %s%s\n", "History:", total, resolvedDBPath, size)

	fmt.Fprintf(w, label+"%s\n", "Watcher:", watcherStatus(pidFile))

	if len(runs) == 1 && !runs[0].Succeeded() {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Run 'devboot history %s' for the failing stage.\n", shortRunID(runs[0].ID))
	}
	return nil
}

func watcherStatus(pidFile string) string {
	running, err := watcher.IsDaemonRunning(pidFile)
	if err != nil {
		return fmt.Sprintf("unknown (%v)", err)
	}
	if !running {
		return "stopped (run 'devboot watch --daemon')"
	}
	return fmt.Sprintf("running (PID %d, started %s)", readPIDFile(pidFile), daemonSince(pidFile))
}

func readPIDFile(pidFile string) int {
	data, err := os.ReadFile(pidFile)
	if err != nil {
		return 0
	}
	pid, _ := strconv.Atoi(strings.TrimSpace(string(data)))
	return pid
}

// daemonSince uses the PID file's mtime as the daemon start time.
func daemonSince(pidFile string) string {
	fi, err := os.Stat(pidFile)
	if err != nil {
		return "unknown"
	}
	return output.RelativeTime(fi.ModTime())
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
