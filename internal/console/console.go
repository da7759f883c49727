// Package console writes styled, human-facing build output: compiler
// diagnostics, warnings, and stage progress. Structured logs go through
// internal/log; everything a user is meant to read goes through here.
package console

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// DefaultWidth is the fallback terminal width when detection fails.
const DefaultWidth = 80

// Console renders user-facing output with severity styling.
type Console struct {
	w     io.Writer
	width int

	errStyle  lipgloss.Style
	warnStyle lipgloss.Style
	okStyle   lipgloss.Style
	dimStyle  lipgloss.Style
}

// New creates a Console writing to w. Width is detected from stdout when it
// is a terminal, otherwise DefaultWidth is used.
func New(w io.Writer) *Console {
	width := DefaultWidth
	if tw, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && tw > 0 {
		width = tw
	}
	return &Console{
		w:         w,
		width:     width,
		errStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		warnStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		okStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		dimStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// Plain creates a Console with styling disabled and a fixed width: zero-value
// styles render their text verbatim, with no escape sequences. Used for
// --no-color runs, piped output and tests.
func Plain(w io.Writer) *Console {
	return &Console{w: w, width: DefaultWidth}
}

// Printf writes unstyled output.
func (c *Console) Printf(format string, args ...any) {
	fmt.Fprintf(c.w, format, args...)
}

// Stagef announces a pipeline stage.
func (c *Console) Stagef(format string, args ...any) {
	fmt.Fprintf(c.w, "%s %s\n", c.dimStyle.Render("›"), fmt.Sprintf(format, args...))
}

// Successf writes a success line.
func (c *Console) Successf(format string, args ...any) {
	fmt.Fprintf(c.w, "%s %s\n", c.okStyle.Render("✓"), fmt.Sprintf(format, args...))
}

// Warnf writes a warning line.
func (c *Console) Warnf(format string, args ...any) {
	fmt.Fprintf(c.w, "%s %s\n", c.warnStyle.Render("warning:"), fmt.Sprintf(format, args...))
}

// Errorf writes an error line.
func (c *Console) Errorf(format string, args ...any) {
	fmt.Fprintf(c.w, "%s %s\n", c.errStyle.Render("error:"), fmt.Sprintf(format, args...))
}

// Divider writes a horizontal rule capped at the detected width.
func (c *Console) Divider() {
	n := c.width
	if n > DefaultWidth {
		n = DefaultWidth
	}
	fmt.Fprintln(c.w, c.dimStyle.Render(strings.Repeat("─", n)))
}
