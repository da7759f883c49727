package build

import (
	"fmt"

	"github.com/crosspack/crosspack/internal/console"
)

// Warnings deduplicates warning messages within one build invocation: each
// unique message is surfaced at most once and never aborts the pipeline.
// The state is scoped to the invocation, not the process, so repeated
// builds cannot cross-contaminate each other's history.
type Warnings struct {
	console *console.Console
	seen    map[string]bool
	list    []string
}

// NewWarnings creates an empty warning set for one invocation.
func NewWarnings(con *console.Console) *Warnings {
	return &Warnings{console: con, seen: map[string]bool{}}
}

// Warnf surfaces a warning unless the identical message already was.
func (w *Warnings) Warnf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if w.seen[msg] {
		return
	}
	w.seen[msg] = true
	w.list = append(w.list, msg)
	w.console.Warnf("%s", msg)
}

// List returns the surfaced warnings in first-seen order.
func (w *Warnings) List() []string { return w.list }
