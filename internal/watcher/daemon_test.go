package watcher

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

func TestIsDaemonRunning_NotRunning(t *testing.T) {
	tmpDir := t.TempDir()
	pidFile := filepath.Join(tmpDir, "test.pid")

	running, err := IsDaemonRunning(pidFile)
	if err != nil {
		t.Errorf("IsDaemonRunning() error = %v, want nil", err)
	}
	if running {
		t.Error("IsDaemonRunning() = true, want false for non-existent PID file")
	}
}

func TestIsDaemonRunning_WithCurrentProcess(t *testing.T) {
	tmpDir := t.TempDir()
	pidFile := filepath.Join(tmpDir, "test.pid")

	// Write current process PID
	pid := os.Getpid()
	if err := os.WriteFile(pidFile, []byte(strconv.Itoa(pid)+"\n"), 0644); err != nil {
		t.Fatalf("failed to write PID file: %v", err)
	}

	running, err := IsDaemonRunning(pidFile)
	if err != nil {
		t.Errorf("IsDaemonRunning() error = %v, want nil", err)
	}
	if !running {
		t.Error("IsDaemonRunning() = false, want true for current process")
	}
}

func TestIsDaemonRunning_WithDeadProcess(t *testing.T) {
	tmpDir := t.TempDir()
	pidFile := filepath.Join(tmpDir, "test.pid")

	// Write a PID that (hopefully) doesn't exist
	// Using a very high PID that's unlikely to be in use
	deadPID := 999999
	if err := os.WriteFile(pidFile, []byte(strconv.Itoa(deadPID)+"\n"), 0644); err != nil {
		t.Fatalf("failed to write PID file: %v", err)
	}

	running, err := IsDaemonRunning(pidFile)
	if err != nil {
		t.Errorf("IsDaemonRunning() error = %v, want nil", err)
	}
	if running {
		t.Error("IsDaemonRunning() = true, want false for dead process")
	}

	// PID file should be removed
	if _, err := os.Stat(pidFile); !os.IsNotExist(err) {
		t.Error("stale PID file was not removed")
	}
}

func TestIsDaemonRunning_InvalidPID(t *testing.T) {
	tmpDir := t.TempDir()
	pidFile := filepath.Join(tmpDir, "test.pid")

	// Write invalid PID
	if err := os.WriteFile(pidFile, []byte("not-a-number\n"), 0644); err != nil {
		t.Fatalf("failed to write PID file: %v", err)
	}

	running, err := IsDaemonRunning(pidFile)
	if err != nil {
		t.Errorf("IsDaemonRunning() error = %v, want nil for invalid PID", err)
	}
	if running {
		t.Error("IsDaemonRunning() = true, want false for invalid PID")
	}
}

func TestStopDaemon_NotRunning(t *testing.T) {
	tmpDir := t.TempDir()
	pidFile := filepath.Join(tmpDir, "test.pid")

	err := StopDaemon(pidFile)
	if err == nil {
		t.Error("StopDaemon() expected error for non-existent daemon, got nil")
	}
}

func TestStopDaemon_InvalidPID(t *testing.T) {
	tmpDir := t.TempDir()
	pidFile := filepath.Join(tmpDir, "test.pid")

	// Write invalid PID
	if err := os.WriteFile(pidFile, []byte("invalid\n"), 0644); err != nil {
		t.Fatalf("failed to write PID file: %v", err)
	}

	err := StopDaemon(pidFile)
	if err == nil {
		t.Error("StopDaemon() expected error for invalid PID, got nil")
	}
}

func TestStartDaemon_AlreadyRunning(t *testing.T) {
	tmpDir := t.TempDir()
	pidFile := filepath.Join(tmpDir, "test.pid")
	logFile := filepath.Join(tmpDir, "test.log")

	// Write current process PID to simulate running daemon
	if err := os.WriteFile(pidFile, []byte(strconv.Itoa(os.Getpid())+"\n"), 0644); err != nil {
		t.Fatalf("failed to write PID file: %v", err)
	}

	// Should fail because daemon appears to be running
	if err := StartDaemon(pidFile, logFile, "watch", "--daemon-child"); err == nil {
		t.Error("StartDaemon() expected error for already running daemon, got nil")
	}
}

func TestStartDaemon_InvalidLogFile(t *testing.T) {
	tmpDir := t.TempDir()
	pidFile := filepath.Join(tmpDir, "test.pid")
	logFile := filepath.Join(tmpDir, "nonexistent", "test.log") // Invalid path

	if err := StartDaemon(pidFile, logFile, "watch", "--daemon-child"); err == nil {
		t.Error("StartDaemon() expected error for invalid log file path, got nil")
	}
	if _, err := os.Stat(pidFile); !os.IsNotExist(err) {
		t.Error("no PID file should be written when the start fails")
	}
}

func TestRemovePIDFile(t *testing.T) {
	tmpDir := t.TempDir()
	pidFile := filepath.Join(tmpDir, "test.pid")

	if err := os.WriteFile(pidFile, []byte("12345\n"), 0644); err != nil {
		t.Fatalf("failed to write PID file: %v", err)
	}
	if err := RemovePIDFile(pidFile); err != nil {
		t.Errorf("RemovePIDFile() error = %v", err)
	}
	if _, err := os.Stat(pidFile); !os.IsNotExist(err) {
		t.Error("PID file still exists after cleanup")
	}

	// Removing again is not an error.
	if err := RemovePIDFile(pidFile); err != nil {
		t.Errorf("second RemovePIDFile() error = %v", err)
	}
}
