package harness

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
)

// Format is one emitted output format a test run executes against.
type Format string

const (
	FormatCJS Format = "cjs"
	FormatESM Format = "esm"
)

// formatOrder is the order each entry point is exercised: CommonJS first,
// then ESM, matching the generated script.
var formatOrder = []Format{FormatCJS, FormatESM}

// Loader loads one emitted module, causing its test definitions to be
// registered on the queue. Loading is a blocking call; a load failure
// means tests could not run at all, which is distinct from tests failing.
type Loader interface {
	Load(ctx context.Context, modulePath string) error
}

// Failure is one failing top-level test, attributed to the format it ran
// under. The same test failing under both formats yields two entries.
type Failure struct {
	Name   string
	Format Format
	Errors []string
}

// Runner executes registered definitions sequentially and renders the
// hierarchical report followed by a flat failure summary.
type Runner struct {
	queue    *Queue
	out      io.Writer
	failures []Failure
}

// NewRunner creates a Runner draining the given queue.
func NewRunner(queue *Queue, out io.Writer) *Runner {
	return &Runner{queue: queue, out: out}
}

// Queue returns the registration queue, for loaders that register
// definitions directly.
func (r *Runner) Queue() *Queue { return r.queue }

// Run exercises every entry point under both formats: load the CommonJS
// build, drain and run its definitions in registration order, then the
// same for the ESM build. Every test therefore runs twice, and a failure
// is reported against the format it ran under. The returned bool is true
// only when no test failed anywhere; a non-nil error means tests could
// not run.
func (r *Runner) Run(ctx context.Context, entryPoints []string, loader Loader) (bool, error) {
	for _, entry := range entryPoints {
		for _, format := range formatOrder {
			modulePath := FormatPath(entry, format)
			fmt.Fprintf(r.out, "\nrunning tests in %s\n\n", modulePath)
			if err := loader.Load(ctx, modulePath); err != nil {
				return false, fmt.Errorf("load %s: %w", modulePath, err)
			}
			for _, def := range r.queue.Drain() {
				r.runTest(def, format)
			}
		}
	}
	r.renderSummary()
	return len(r.failures) == 0, nil
}

// FormatPath maps an entry-point path to its emitted module path for one
// format, with the source extension rewritten.
func FormatPath(entryPoint string, format Format) string {
	base := strings.TrimSuffix(entryPoint, path.Ext(entryPoint))
	return "./" + string(format) + "/" + base + ".js"
}

func (r *Runner) runTest(def Definition, format Format) {
	root := &Context{Name: def.Name, Status: StatusPending}

	// Ignored is terminal: the body is never invoked.
	if def.Ignored {
		root.Status = StatusIgnored
		Render(r.out, root, 0)
		return
	}

	r.invoke(root, def.Body)
	Render(r.out, root, 0)

	if root.Effective() == StatusFail {
		errs := root.Errors()
		if len(errs) == 0 {
			errs = []string{"a step failed or never completed"}
		}
		r.failures = append(r.failures, Failure{Name: def.Name, Format: format, Errors: errs})
	}
}

// invoke runs a body against a fresh node. A returned error or panic marks
// the node failed; a clean return marks it ok. Whether the node reports ok
// is a separate question answered by Effective at read time.
func (r *Runner) invoke(c *Context, body Body) {
	err := safeCall(body, &T{ctx: c})
	if err != nil {
		c.Status = StatusFail
		c.Err = err.Error()
		return
	}
	c.Status = StatusOK
}

func safeCall(body Body, t *T) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%v", rec)
		}
	}()
	return body(t)
}

func (r *Runner) renderSummary() {
	if len(r.failures) == 0 {
		return
	}
	fmt.Fprintf(r.out, "\nFAILURES\n\n")
	for _, f := range r.failures {
		fmt.Fprintf(r.out, "%s (%s)\n", f.Name, f.Format)
		for _, e := range f.Errors {
			for _, line := range strings.Split(e, "\n") {
				fmt.Fprintf(r.out, "%s%s\n", IndentUnit, line)
			}
		}
	}
}

// Failures returns the accumulated failures of the run.
func (r *Runner) Failures() []Failure { return r.failures }

// T is the step surface handed to a running body.
type T struct {
	ctx *Context
}

// Step runs a nested step synchronously. The child node is appended to the
// parent before the body runs. The step's failure is collected into the
// tree, never returned to the parent; the return value only reports
// whether the step (including its own children) passed.
func (t *T) Step(name string, body Body) bool {
	child := &Context{Name: name, Status: StatusPending}
	t.ctx.Children = append(t.ctx.Children, child)

	err := safeCall(body, &T{ctx: child})
	if err != nil {
		child.Status = StatusFail
		child.Err = err.Error()
	} else {
		child.Status = StatusOK
	}
	return child.Effective() != StatusFail
}

// Begin starts a step without completing it, modeling a body that kicks
// off asynchronous work and returns before it settles. The child stays
// pending until the returned settle function runs; a body that never calls
// it leaves the child pending, which the parent reports as a failure.
func (t *T) Begin(name string) func(err error) {
	child := &Context{Name: name, Status: StatusPending}
	t.ctx.Children = append(t.ctx.Children, child)

	return func(err error) {
		if err != nil {
			child.Status = StatusFail
			child.Err = err.Error()
			return
		}
		child.Status = StatusOK
	}
}
