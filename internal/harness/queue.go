package harness

// Body is a test or step body. A returned error (or panic) marks the node
// failed; the error is recorded, not rethrown.
type Body func(t *T) error

// Definition is one registered test.
type Definition struct {
	Name    string
	Ignored bool
	Body    Body
}

// Queue holds test definitions registered while a module loads. Draining
// is destructive with explicit semantics: Drain returns and removes
// exactly the definitions present at call time. Definitions registered
// during an in-progress drain pass are visible only to the next drain, so
// re-entrant registration from a running test is safe.
type Queue struct {
	defs []Definition
}

// Register appends a definition.
func (q *Queue) Register(def Definition) {
	q.defs = append(q.defs, def)
}

// Drain removes and returns the definitions present right now.
func (q *Queue) Drain() []Definition {
	defs := q.defs
	q.defs = nil
	return defs
}

// Len reports how many definitions are waiting.
func (q *Queue) Len() int { return len(q.defs) }
