// Package style renders claude-pipe's diagnostics on stderr. stdout is
// reserved for the answer itself, so every status, progress, and error
// line goes through here instead.
package style

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Color palette
var (
	colorMuted   = lipgloss.Color("242") // gray
	colorError   = lipgloss.Color("196") // red
	colorSuccess = lipgloss.Color("76")  // green
)

var (
	prefixStyle = lipgloss.NewStyle().Foreground(colorMuted)
	errorStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorError)
	okStyle     = lipgloss.NewStyle().Foreground(colorSuccess)
)

// prefix tags every diagnostic line so piped stderr stays attributable.
const prefix = "[claude-pipe]"

// Logger writes diagnostics to a stream, coloring only when the stream
// is a terminal that supports it.
type Logger struct {
	out     io.Writer
	verbose bool
	color   bool
}

// NewLogger creates a Logger on stderr. Progress lines print only when
// verbose; errors always print.
func NewLogger(verbose bool) *Logger {
	return &Logger{
		out:     os.Stderr,
		verbose: verbose,
		color:   termenv.NewOutput(os.Stderr).Profile != termenv.Ascii,
	}
}

// NewLoggerTo creates a Logger on an arbitrary writer, uncolored.
// Used in tests.
func NewLoggerTo(out io.Writer, verbose bool) *Logger {
	return &Logger{out: out, verbose: verbose}
}

// Verbose reports whether progress output is enabled.
func (l *Logger) Verbose() bool {
	return l.verbose
}

// Logf prints a progress line when verbose is on.
func (l *Logger) Logf(format string, args ...any) {
	if !l.verbose {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if l.color {
		fmt.Fprintln(l.out, prefixStyle.Render(prefix), msg)
		return
	}
	fmt.Fprintf(l.out, "%s %s\n", prefix, msg)
}

// Errorf prints an error line unconditionally.
func (l *Logger) Errorf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if l.color {
		fmt.Fprintln(l.out, prefixStyle.Render(prefix), errorStyle.Render("ERROR:"), msg)
		return
	}
	fmt.Fprintf(l.out, "%s ERROR: %s\n", prefix, msg)
}

// Successf prints a completion line when verbose is on.
func (l *Logger) Successf(format string, args ...any) {
	if !l.verbose {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if l.color {
		fmt.Fprintln(l.out, prefixStyle.Render(prefix), okStyle.Render(msg))
		return
	}
	fmt.Fprintf(l.out, "%s %s\n", prefix, msg)
}
