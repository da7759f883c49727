package harness

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// queueLoader registers the configured definitions on every load, the way
// a module registers its tests each time it is evaluated.
type queueLoader struct {
	queue  *Queue
	defs   []Definition
	loads  []string
	err    error
}

func (l *queueLoader) Load(ctx context.Context, modulePath string) error {
	l.loads = append(l.loads, modulePath)
	if l.err != nil {
		return l.err
	}
	for _, def := range l.defs {
		l.queue.Register(def)
	}
	return nil
}

func TestRunner_PassingTestRunsOncePerFormat(t *testing.T) {
	var q Queue
	var out bytes.Buffer
	runner := NewRunner(&q, &out)

	runs := 0
	loader := &queueLoader{queue: &q, defs: []Definition{
		{Name: "adds numbers", Body: func(t *T) error { runs++; return nil }},
	}}

	passed, err := runner.Run(context.Background(), []string{"mod.test.ts"}, loader)
	require.NoError(t, err)
	assert.True(t, passed)

	// CJS pass then ESM pass.
	assert.Equal(t, []string{"./cjs/mod.test.js", "./esm/mod.test.js"}, loader.loads)
	assert.Equal(t, 2, runs)
	assert.Equal(t, 2, strings.Count(out.String(), "adds numbers ... ok"))
	assert.NotContains(t, out.String(), "FAILURES")
}

func TestRunner_OutputIsDeterministic(t *testing.T) {
	run := func() string {
		var q Queue
		var out bytes.Buffer
		loader := &queueLoader{queue: &q, defs: []Definition{
			{Name: "stable", Body: func(t *T) error { return nil }},
		}}
		_, err := NewRunner(&q, &out).Run(context.Background(), []string{"mod.test.ts"}, loader)
		require.NoError(t, err)
		return out.String()
	}
	assert.Equal(t, run(), run())
}

func TestRunner_FailureReportedOncePerFormat(t *testing.T) {
	var q Queue
	var out bytes.Buffer
	runner := NewRunner(&q, &out)

	loader := &queueLoader{queue: &q, defs: []Definition{
		{Name: "explodes", Body: func(t *T) error { return errors.New("kaboom") }},
	}}

	passed, err := runner.Run(context.Background(), []string{"mod.test.ts"}, loader)
	require.NoError(t, err)
	assert.False(t, passed)

	require.Len(t, runner.Failures(), 2)
	assert.Equal(t, FormatCJS, runner.Failures()[0].Format)
	assert.Equal(t, FormatESM, runner.Failures()[1].Format)

	report := out.String()
	assert.Contains(t, report, "FAILURES")
	assert.Equal(t, 1, strings.Count(report, "explodes (cjs)"))
	assert.Equal(t, 1, strings.Count(report, "explodes (esm)"))
	assert.Contains(t, report, IndentUnit+"kaboom")
}

func TestRunner_IgnoredNeverInvokesBody(t *testing.T) {
	var q Queue
	var out bytes.Buffer
	runner := NewRunner(&q, &out)

	invocations := 0
	loader := &queueLoader{queue: &q, defs: []Definition{
		{Name: "skipped", Ignored: true, Body: func(t *T) error { invocations++; return nil }},
	}}

	passed, err := runner.Run(context.Background(), []string{"mod.test.ts"}, loader)
	require.NoError(t, err)
	assert.True(t, passed)
	assert.Zero(t, invocations)
	assert.Equal(t, 2, strings.Count(out.String(), "skipped ... ignored"))
}

func TestRunner_PanicIsRecordedAsFailure(t *testing.T) {
	var q Queue
	var out bytes.Buffer
	runner := NewRunner(&q, &out)

	loader := &queueLoader{queue: &q, defs: []Definition{
		{Name: "panics", Body: func(t *T) error { panic("unexpected state") }},
	}}

	passed, err := runner.Run(context.Background(), []string{"mod.test.ts"}, loader)
	require.NoError(t, err)
	assert.False(t, passed)
	assert.Contains(t, out.String(), "unexpected state")
}

func TestRunner_StepFailureDoesNotAbortSiblings(t *testing.T) {
	var q Queue
	var out bytes.Buffer
	runner := NewRunner(&q, &out)

	var order []string
	loader := &queueLoader{queue: &q, defs: []Definition{
		{Name: "parent", Body: func(t *T) error {
			t.Step("first", func(t *T) error {
				order = append(order, "first")
				return errors.New("step failed")
			})
			t.Step("second", func(t *T) error {
				order = append(order, "second")
				return nil
			})
			order = append(order, "parent-tail")
			return nil
		}},
	}}

	passed, err := runner.Run(context.Background(), []string{"mod.test.ts"}, loader)
	require.NoError(t, err)
	assert.False(t, passed)

	// The failing step neither aborted its sibling nor the parent's
	// remaining code; it only failed the parent's report.
	assert.Equal(t, []string{"first", "second", "parent-tail"}, order[:3])
	assert.Contains(t, out.String(), "parent ... fail")
	assert.Contains(t, out.String(), IndentUnit+"second ... ok")
}

func TestRunner_UnsettledStepFailsParent(t *testing.T) {
	var q Queue
	var out bytes.Buffer
	runner := NewRunner(&q, &out)

	loader := &queueLoader{queue: &q, defs: []Definition{
		{Name: "forgot to await", Body: func(t *T) error {
			t.Begin("background step") // never settled
			return nil
		}},
	}}

	passed, err := runner.Run(context.Background(), []string{"mod.test.ts"}, loader)
	require.NoError(t, err)
	assert.False(t, passed)

	report := out.String()
	assert.Contains(t, report, "forgot to await ... fail")
	assert.Contains(t, report, IndentUnit+"background step ... pending")
	assert.Contains(t, report, "a step failed or never completed")
}

func TestRunner_LoadErrorMeansTestsCouldNotRun(t *testing.T) {
	var q Queue
	var out bytes.Buffer
	runner := NewRunner(&q, &out)

	loader := &queueLoader{queue: &q, err: fmt.Errorf("module not found")}

	passed, err := runner.Run(context.Background(), []string{"mod.test.ts"}, loader)
	assert.False(t, passed)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "module not found")
}

func TestRunner_DefinitionsRegisteredMidRunDeferToNextLoad(t *testing.T) {
	var q Queue
	var out bytes.Buffer
	runner := NewRunner(&q, &out)

	reentrant := 0
	loader := &queueLoader{queue: &q}
	loader.defs = []Definition{
		{Name: "registers another", Body: func(t *T) error {
			q.Register(Definition{Name: "late arrival", Body: func(t *T) error {
				reentrant++
				return nil
			}})
			return nil
		}},
	}

	passed, err := runner.Run(context.Background(), []string{"mod.test.ts"}, loader)
	require.NoError(t, err)
	assert.True(t, passed)

	// The late definition was not picked up by the drain pass that was in
	// flight when it was registered; it ran on the next format's drain.
	// The copy registered during the final format's pass has no later
	// drain and stays queued.
	assert.Equal(t, 1, strings.Count(out.String(), "late arrival ... ok"))
	assert.Equal(t, 1, reentrant)
	assert.Equal(t, 1, q.Len())
}
