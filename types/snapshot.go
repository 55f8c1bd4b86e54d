package types

import (
	"encoding/json"
	"time"
)

// RunnerState is the raw state string the host runner reports for a test
type RunnerState string

const (
	RunnerStatePass    RunnerState = "pass"
	RunnerStateFail    RunnerState = "fail"
	RunnerStatePending RunnerState = "pending"
)

// RunnerStats is the host runner's lifecycle snapshot of a finished run.
// Collections are slices so the order the runner produced them in is kept.
type RunnerStats struct {
	Start    time.Time        `json:"start"`
	End      time.Time        `json:"end"`
	Duration int64            `json:"duration"` // milliseconds
	Counts   RunnerCounts     `json:"counts"`
	Runners  []RunnerSnapshot `json:"runners"`
}

// RunnerCounts are the totals the host runner reports about itself.
// They are known to be unreliable and are only logged.
type RunnerCounts struct {
	Tests    int `json:"tests"`
	Passes   int `json:"passes"`
	Failures int `json:"failures"`
	Pending  int `json:"pending"`
}

// RunnerSnapshot holds everything one worker process executed
type RunnerSnapshot struct {
	CID   string         `json:"cid"`
	Specs []SpecSnapshot `json:"specs"`
}

// SpecSnapshot is one spec (file) execution inside a worker
type SpecSnapshot struct {
	ID     string              `json:"id"`
	Files  []string            `json:"files"`
	Suites []SuiteSnapshotData `json:"suites"`
}

// File returns the spec's source file, the first of Files
func (s SpecSnapshot) File() string {
	if len(s.Files) == 0 {
		return ""
	}
	return s.Files[0]
}

// SuiteSnapshotData is the lifecycle record of a describe/context block
type SuiteSnapshotData struct {
	Title    string         `json:"title"`
	UID      string         `json:"uid"`
	Start    time.Time      `json:"start"`
	End      time.Time      `json:"end"`
	Duration int64          `json:"duration"`
	Tests    []TestSnapshot `json:"tests"`
}

// TestSnapshot is the lifecycle record of a single test
type TestSnapshot struct {
	Title    string       `json:"title"`
	UID      string       `json:"uid"`
	Start    time.Time    `json:"start"`
	End      time.Time    `json:"end"`
	Duration int64        `json:"duration"`
	State    RunnerState  `json:"state"`
	Error    *RunnerError `json:"error,omitempty"`
}

// RunnerError is the failure detail attached to a test by the runner
type RunnerError struct {
	Type     string          `json:"type"`
	Message  string          `json:"message"`
	Stack    string          `json:"stack"`
	Actual   json.RawMessage `json:"actual,omitempty"`
	Expected json.RawMessage `json:"expected,omitempty"`
}
