// Package harness implements the test-execution state machine that replays
// a converted test suite against both emitted formats, and generates the
// standalone Node runner script that embeds the same machine. The Go
// implementation is the executable model of the semantics; the generated
// script shares its status words and formatting constants so the two
// cannot drift apart.
package harness

import (
	"fmt"
	"io"
	"strings"
)

// Status is the lifecycle state of one test node. A node starts pending;
// ignored is terminal and short-circuits execution.
type Status int

const (
	StatusPending Status = iota
	StatusOK
	StatusFail
	StatusIgnored
)

// Status words shared between the Go runner and the generated script.
const (
	statusWordPending = "pending"
	statusWordOK      = "ok"
	statusWordFail    = "fail"
	statusWordIgnored = "ignored"
)

// String returns the report spelling of the status.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return statusWordOK
	case StatusFail:
		return statusWordFail
	case StatusIgnored:
		return statusWordIgnored
	default:
		return statusWordPending
	}
}

// Formatting constants shared with the generated script.
const (
	// Marker separates a node's name from its status in the report.
	Marker = "..."
	// IndentUnit is one level of report indentation.
	IndentUnit = "  "
)

// Context is one node in the test tree: a top-level test or a nested step.
// Children are appended the moment a step starts, so partially-completed
// trees are inspectable.
type Context struct {
	Name     string
	Status   Status
	Err      string
	Children []*Context
}

// HasFailingChild reports whether any descendant is failed or still
// pending. A pending descendant means a step was started and never awaited
// to completion; the suite treats that the same as a failure. The value is
// computed on every read, never cached.
func (c *Context) HasFailingChild() bool {
	for _, child := range c.Children {
		if child.Status == StatusFail || child.Status == StatusPending {
			return true
		}
		if child.HasFailingChild() {
			return true
		}
	}
	return false
}

// Effective is the status used for reporting: a node whose own body
// completed cleanly still reports fail when a child failed or never
// settled. The stored Status field is not mutated.
func (c *Context) Effective() Status {
	if c.Status == StatusOK && c.HasFailingChild() {
		return StatusFail
	}
	return c.Status
}

// Errors collects the recorded error of this node and every descendant,
// in tree order.
func (c *Context) Errors() []string {
	var out []string
	if c.Err != "" {
		out = append(out, c.Err)
	}
	for _, child := range c.Children {
		out = append(out, child.Errors()...)
	}
	return out
}

// Render writes the node's report: name, marker, effective status, the
// stringified error one level deeper, then children one level deeper.
func Render(w io.Writer, c *Context, depth int) {
	indent := strings.Repeat(IndentUnit, depth)
	fmt.Fprintf(w, "%s%s %s %s\n", indent, c.Name, Marker, c.Effective())
	if c.Err != "" {
		for _, line := range strings.Split(c.Err, "\n") {
			fmt.Fprintf(w, "%s%s%s\n", indent, IndentUnit, line)
		}
	}
	for _, child := range c.Children {
		Render(w, child, depth+1)
	}
}
