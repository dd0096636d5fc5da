package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/blackwell-systems/devboot/internal/output"
	"github.com/blackwell-systems/devboot/internal/watcher"
)

var (
	watchDaemon      bool
	watchDaemonChild bool
	watchPIDFile     string
	watchLogFile     string
	watchStop        bool

	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Validate services.json whenever it changes",
		Long: `Watch ~/.conduit/services.json and re-validate it after every edit.

Each change is reported as a ✓ line with the number of services, or a ✗ line
with the parse error, so mistakes show up before conduitd reads the file.

Watch modes:
  • Foreground (default): Run in current terminal with Ctrl+C to stop
  • Daemon: Run as a background process, logging to a file
  • Stop: Stop a running daemon`,
		Example: `  # Run in foreground (Ctrl+C to stop)
  devboot watch

  # Run as background daemon
  devboot watch --daemon

  # Stop running daemon
  devboot watch --stop

  # Use custom PID and log files
  devboot watch --daemon --pid-file /tmp/watch.pid --log-file /tmp/watch.log`,
		Args: cobra.NoArgs,
		RunE: runWatch,
	}
)

func init() {
	watchCmd.Flags().BoolVar(&watchDaemon, "daemon", false, "run as background daemon")
	watchCmd.Flags().BoolVar(&watchDaemonChild, "daemon-child", false, "internal flag for daemon child process")
	watchCmd.Flags().StringVar(&watchPIDFile, "pid-file", "", "PID file path (default: ~/.devboot/watch.pid)")
	watchCmd.Flags().StringVar(&watchLogFile, "log-file", "", "log file path (default: ~/.devboot/watch.log)")
	watchCmd.Flags().BoolVar(&watchStop, "stop", false, "stop running daemon")

	// Hide the internal daemon-child flag from help
	watchCmd.Flags().MarkHidden("daemon-child")
}

func runWatch(cmd *cobra.Command, args []string) error {
	if watchPIDFile == "" {
		defaultPID, err := getDefaultPIDFile()
		if err != nil {
			return fmt.Errorf("failed to get default PID file path: %w", err)
		}
		watchPIDFile = defaultPID
	}

	if watchLogFile == "" {
		defaultLog, err := getDefaultLogFile()
		if err != nil {
			return fmt.Errorf("failed to get default log file path: %w", err)
		}
		watchLogFile = defaultLog
	}

	if watchDaemon && watchStop {
		return fmt.Errorf("--daemon and --stop are mutually exclusive")
	}

	if watchStop {
		return stopWatchDaemon(cmd.OutOrStdout())
	}

	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.logger.Sync()

	w, err := watcher.New(s.cfg.ServicesPath(s.env.Home), s.logger)
	if err != nil {
		return err
	}
	defer w.Close()

	if watchDaemon {
		return startWatchDaemon(cmd.OutOrStdout())
	}

	if watchDaemonChild {
		return runWatchDaemonChild(cmd.Context(), w, s)
	}

	return runWatchForeground(cmd.Context(), w, s)
}

func stopWatchDaemon(out io.Writer) error {
	running, err := watcher.IsDaemonRunning(watchPIDFile)
	if err != nil {
		return fmt.Errorf("failed to check daemon status: %w", err)
	}

	if !running {
		fmt.Fprintln(out, "Daemon is not running")
		return nil
	}

	spinner := output.NewSpinner("Stopping daemon")
	spinner.SetWriter(out)
	spinner.Start()
	if err := watcher.StopDaemon(watchPIDFile); err != nil {
		spinner.Stop()
		return fmt.Errorf("failed to stop daemon: %w", err)
	}
	spinner.StopWithMessage("✓ Daemon stopped")
	return nil
}

// daemonArgs are the arguments the detached child is started with.
func daemonArgs() []string {
	args := []string{"watch", "--daemon-child", "--pid-file", watchPIDFile}
	if configPath != "" {
		args = append(args, "--config", configPath)
	}
	if verbose {
		args = append(args, "--verbose")
	}
	return args
}

func startWatchDaemon(out io.Writer) error {
	running, err := watcher.IsDaemonRunning(watchPIDFile)
	if err != nil {
		return fmt.Errorf("failed to check daemon status: %w", err)
	}
	if running {
		fmt.Fprintf(out, "Daemon already running (PID file: %s). Nothing to do.\n", watchPIDFile)
		return nil
	}

	spinner := output.NewSpinner("Starting daemon")
	spinner.SetWriter(out)
	spinner.Start()
	if err := watcher.StartDaemon(watchPIDFile, watchLogFile, daemonArgs()...); err != nil {
		spinner.Stop()
		return fmt.Errorf("failed to start daemon: %w", err)
	}
	spinner.StopWithMessage("✓ Daemon started")

	fmt.Fprintf(out, "\nservices.json watcher started\n")
	fmt.Fprintf(out, "  PID file: %s\n", watchPIDFile)
	fmt.Fprintf(out, "  Log file: %s\n", watchLogFile)
	fmt.Fprintf(out, "\nTo stop: devboot watch --stop\n")
	return nil
}

// runWatchDaemonChild runs detached; its output goes to the log file.
func runWatchDaemonChild(ctx context.Context, w *watcher.Watcher, s *session) error {
	s.out.Println(fmt.Sprintf("%s devboot watch started (PID %d)",
		time.Now().Format("2006-01-02 15:04:05"), os.Getpid()))
	defer func() {
		if err := watcher.RemovePIDFile(watchPIDFile); err != nil {
			s.logger.Warn("failed to remove PID file", zap.Error(err))
		}
	}()
	return w.Run(ctx, func(r watcher.Result) { report(s.out, r, true) })
}

func runWatchForeground(ctx context.Context, w *watcher.Watcher, s *session) error {
	s.out.Println("Watching services.json (press Ctrl+C to stop)...")
	s.out.Println("")

	if err := w.Run(ctx, func(r watcher.Result) { report(s.out, r, false) }); err != nil {
		return err
	}

	s.out.Println("")
	s.out.Println("Watcher stopped")
	return nil
}

// report prints one validation. Daemon output carries a full timestamp since
// it lands in a long-lived log file.
func report(out *output.Printer, r watcher.Result, daemon bool) {
	stamp := r.Time.Format("15:04:05")
	if daemon {
		stamp = r.Time.Format("2006-01-02 15:04:05")
	}
	if r.Err != nil {
		out.Fail("%s %v", stamp, r.Err)
		return
	}
	out.Success("%s %s is valid (%d services)", stamp, r.Path, r.Services)
}
