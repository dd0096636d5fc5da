package output

import (
	"fmt"
	"io"
	"os"
)

// Printer writes the operator-facing pipeline log:
//
//	Step 3/11: nvm
//	  ✓ nvm already present, skipping
type Printer struct {
	w     io.Writer
	color bool
}

// NewPrinter creates a Printer. Colors are enabled when w is a terminal and
// NO_COLOR is unset.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{
		w:     w,
		color: os.Getenv("NO_COLOR") == "" && writerIsTTY(w),
	}
}

// Discard returns a Printer that writes nothing.
func Discard() *Printer {
	return &Printer{w: io.Discard}
}

// Writer returns the underlying writer.
func (p *Printer) Writer() io.Writer {
	return p.w
}

func (p *Printer) paint(color, text string) string {
	if p.color {
		return color + text + colorReset
	}
	return text
}

// Step starts a numbered pipeline step.
func (p *Printer) Step(n, total int, name string) {
	fmt.Fprintf(p.w, "Step %d/%d: %s\n", n, total, name)
}

// Heading prints a plain section title preceded by a blank line.
func (p *Printer) Heading(title string) {
	fmt.Fprintf(p.w, "\n%s\n", title)
}

// Success prints an indented check line.
func (p *Printer) Success(format string, args ...any) {
	fmt.Fprintf(p.w, "  %s %s\n", p.paint(colorGreen, "✓"), fmt.Sprintf(format, args...))
}

// Warn prints an indented warning line.
func (p *Printer) Warn(format string, args ...any) {
	fmt.Fprintf(p.w, "  %s %s\n", p.paint(colorYellow, "⚠"), fmt.Sprintf(format, args...))
}

// Fail prints an indented failure line in red.
func (p *Printer) Fail(format string, args ...any) {
	fmt.Fprintf(p.w, "  %s\n", p.paint(colorRed, "✗ "+fmt.Sprintf(format, args...)))
}

// Info prints an indented plain line.
func (p *Printer) Info(format string, args ...any) {
	fmt.Fprintf(p.w, "  %s\n", fmt.Sprintf(format, args...))
}

// Println prints a plain unindented line.
func (p *Printer) Println(text string) {
	fmt.Fprintln(p.w, text)
}

// Error formats a top-level error for stderr, in red when stderr is a
// terminal.
func Error(err error) string {
	msg := "Error: " + err.Error()
	if os.Getenv("NO_COLOR") == "" && writerIsTTY(os.Stderr) {
		return colorRed + msg + colorReset
	}
	return msg
}
