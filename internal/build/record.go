package build

import (
	"encoding/json"
	"time"
)

// RecordFileName is the build record written at the output root.
const RecordFileName = "build_record.json"

// StageTiming is the wall-clock duration of one pipeline stage.
type StageTiming struct {
	Name       string `json:"name"`
	DurationMS int64  `json:"durationMs"`
}

// Record summarizes one build invocation.
type Record struct {
	RunID          string        `json:"runId"`
	Package        string        `json:"package"`
	Version        string        `json:"version"`
	ManifestDigest string        `json:"manifestDigest"`
	Stages         []StageTiming `json:"stages"`
	Warnings       []string      `json:"warnings,omitempty"`

	// TestsRan reports whether the harness was executed; TestsPassed is
	// meaningful only when TestsRan is true.
	TestsRan    bool `json:"testsRan"`
	TestsPassed bool `json:"testsPassed"`
}

// Encode renders the record as JSON.
func (r *Record) Encode() ([]byte, error) {
	out, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

func (r *Record) addStage(name string, start time.Time) {
	r.Stages = append(r.Stages, StageTiming{
		Name:       name,
		DurationMS: time.Since(start).Milliseconds(),
	})
}
