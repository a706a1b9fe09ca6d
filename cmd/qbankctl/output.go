package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"

	"qbank-admin/pkg/commit"
	"qbank-admin/pkg/progress"
)

var (
	green  = color.New(color.FgGreen)
	red    = color.New(color.FgRed)
	yellow = color.New(color.FgYellow)
	cyan   = color.New(color.FgCyan)
	bold   = color.New(color.Bold)
)

func printSuccess(w io.Writer, format string, args ...any) {
	green.Fprintln(w, "✓ "+fmt.Sprintf(format, args...))
}

func printError(w io.Writer, format string, args ...any) {
	red.Fprintln(w, "✗ "+fmt.Sprintf(format, args...))
}

func printWarning(w io.Writer, format string, args ...any) {
	yellow.Fprintln(w, "⚠ "+fmt.Sprintf(format, args...))
}

func printStep(w io.Writer, format string, args ...any) {
	cyan.Fprintln(w, "→ "+fmt.Sprintf(format, args...))
}

func printStatus(w io.Writer, label string, format string, args ...any) {
	fmt.Fprintf(w, "  %s %s\n", bold.Sprint(label+":"), fmt.Sprintf(format, args...))
}

func printSummary(w io.Writer, s commit.Summary) {
	switch s.Outcome {
	case commit.OutcomeSucceeded:
		printSuccess(w, "%s", s.Message)
	case commit.OutcomePartial:
		printWarning(w, "%s", s.Message)
	default:
		printError(w, "%s", s.Message)
	}
	for _, e := range s.Errors {
		fmt.Fprintf(w, "    %s\n", e)
	}
}

const barWidth = 30

// progressBar redraws one terminal line per progress change.
type progressBar struct {
	mu   sync.Mutex
	w    io.Writer
	last string
}

func newProgressBar(w io.Writer) *progressBar {
	return &progressBar{w: w}
}

func (b *progressBar) render(s progress.Snapshot) {
	line := formatProgress(s)

	b.mu.Lock()
	defer b.mu.Unlock()
	if line == b.last {
		return
	}
	b.last = line
	fmt.Fprint(b.w, "\r"+line)
	if s.State == progress.StateCompleted || s.State == progress.StateFailed {
		fmt.Fprintln(b.w)
	}
}

func formatProgress(s progress.Snapshot) string {
	if !s.Known() {
		return fmt.Sprintf("[%s] %s", strings.Repeat("?", barWidth), s.State)
	}
	filled := int(s.Percent / 100 * barWidth)
	if filled > barWidth {
		filled = barWidth
	}
	return fmt.Sprintf("[%s%s] %3.0f%%", strings.Repeat("#", filled), strings.Repeat(" ", barWidth-filled), s.Percent)
}
