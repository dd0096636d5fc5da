// Package output provides terminal output utilities for devboot.
//
// This package includes:
//   - A Printer for the step-by-step pipeline log (✓ / ⚠ / ✗ lines)
//   - Table rendering for recorded runs and their stages
//   - A byte progress bar for downloads and a spinner for probes
//
// Colors are ANSI codes, emitted only when the writer is a terminal and
// NO_COLOR is unset.
package output

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/blackwell-systems/devboot/internal/store"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorGray   = "\033[90m"
)

// IsColorEnabled returns true if ANSI color codes should be emitted.
// It checks that os.Stdout is a TTY and that the NO_COLOR env var is not set.
func IsColorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

// colorize wraps text in the given ANSI color code if color is enabled,
// otherwise returns the plain text.
func colorize(color, text string) string {
	if IsColorEnabled() {
		return color + text + colorReset
	}
	return text
}

// RenderRunTable renders recorded runs, newest first as given.
func RenderRunTable(runs []*store.Run) string {
	if len(runs) == 0 {
		return "No runs recorded.\n"
	}

	var sb strings.Builder

	// Header
	sb.WriteString(fmt.Sprintf("%-10s %-16s %-14s %-10s %-9s %s\n",
		"Run", "Started", "Platform", "Installed", "Duration", "Result"))
	sb.WriteString(strings.Repeat("─", 80))
	sb.WriteString("\n")

	// Rows
	for _, run := range runs {
		platform := run.OS
		if run.Arch != "" {
			platform += "/" + run.Arch
		}
		installed := fmt.Sprintf("%d/%d", run.Installed(), len(run.Stages))

		result := colorize(colorGreen, "ok")
		if !run.Succeeded() {
			result = colorize(colorRed, truncate("failed: "+run.Error, 40))
		}

		sb.WriteString(fmt.Sprintf("%-10s %-16s %-14s %-10s %-9s %s\n",
			shortID(run.ID),
			RelativeTime(run.StartedAt),
			truncate(platform, 14),
			installed,
			formatDuration(run.FinishedAt.Sub(run.StartedAt)),
			result))
	}

	return sb.String()
}

// RenderStageTable renders the stages of one run in pipeline order.
func RenderStageTable(stages []store.StageRecord) string {
	if len(stages) == 0 {
		return "No stages recorded.\n"
	}

	var sb strings.Builder

	// Header
	sb.WriteString(fmt.Sprintf("%-3s %-28s %-10s %-9s %s\n",
		"#", "Stage", "Outcome", "Duration", "Version"))
	sb.WriteString(strings.Repeat("─", 76))
	sb.WriteString("\n")

	for _, st := range stages {
		version := st.Version
		if version == "" {
			version = "-"
		}
		// Pad before coloring so escape codes do not break alignment.
		outcome := fmt.Sprintf("%-10s", formatOutcome(st.Outcome))
		sb.WriteString(fmt.Sprintf("%-3d %-28s %s %-9s %s\n",
			st.Position,
			truncate(st.Stage, 28),
			colorize(getOutcomeColor(st.Outcome), outcome),
			formatDuration(st.Duration),
			truncate(version, 30)))
		if st.Outcome == "failed" && st.Detail != "" {
			sb.WriteString(fmt.Sprintf("    %s\n", colorize(colorGray, truncate(st.Detail, 72))))
		}
	}

	return sb.String()
}

// formatOutcome shortens stage outcomes for table display.
func formatOutcome(outcome string) string {
	switch outcome {
	case "skipped_already_present":
		return "present"
	case "installed":
		return "installed"
	case "failed":
		return "FAILED"
	default:
		return outcome
	}
}

// getOutcomeColor returns the ANSI color code for a stage outcome.
func getOutcomeColor(outcome string) string {
	switch outcome {
	case "installed":
		return colorGreen
	case "failed":
		return colorRed
	default:
		return colorGray
	}
}

// formatDuration renders a duration rounded for humans ("850ms", "12s", "3m5s").
func formatDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "-"
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	default:
		return d.Round(time.Second).String()
	}
}

// truncate truncates a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// shortID is the run id prefix accepted by `devboot history <id>`.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// formatSize converts bytes to human-readable size.
func formatSize(bytes int64) string {
	const (
		KB = 1024
		MB = 1024 * KB
		GB = 1024 * MB
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.0f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.0f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// RelativeTime converts a timestamp to relative time (e.g., "2 days ago").
func RelativeTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}

	diff := time.Since(t)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return plural(int(diff.Minutes()), "minute")
	case diff < 24*time.Hour:
		return plural(int(diff.Hours()), "hour")
	case diff < 7*24*time.Hour:
		return plural(int(diff.Hours()/24), "day")
	case diff < 30*24*time.Hour:
		return plural(int(diff.Hours()/24/7), "week")
	case diff < 365*24*time.Hour:
		return plural(int(diff.Hours()/24/30), "month")
	default:
		return plural(int(diff.Hours()/24/365), "year")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit + " ago"
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
