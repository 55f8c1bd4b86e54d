package types

import (
	"encoding/json"
	"time"
)

// TestState is the reconciled outcome of a test. A test has exactly one.
type TestState string

const (
	TestStatePass    TestState = "pass"
	TestStateFail    TestState = "fail"
	TestStatePending TestState = "pending"
	TestStateUnknown TestState = "unknown"
)

// legacyFlag is the boolean field older report consumers look for
func (s TestState) legacyFlag() string {
	switch s {
	case TestStatePass:
		return "pass"
	case TestStateFail:
		return "fail"
	case TestStatePending:
		return "pending"
	default:
		return "unknown_state"
	}
}

// StateFromRunner maps the runner's state string onto a TestState
func StateFromRunner(s RunnerState) TestState {
	switch s {
	case RunnerStatePass:
		return TestStatePass
	case RunnerStateFail:
		return TestStateFail
	case RunnerStatePending:
		return TestStatePending
	default:
		return TestStateUnknown
	}
}

// SuiteID is the synthetic identity of a SuiteRecord: its index in the
// arena it was built into. Titles are never used as identity.
type SuiteID int

// TestError is the failure detail of a test
type TestError struct {
	Name     string          `json:"name,omitempty"`
	Message  string          `json:"message,omitempty"`
	Stack    string          `json:"stack,omitempty"`
	Actual   json.RawMessage `json:"actual,omitempty"`
	Expected json.RawMessage `json:"expected,omitempty"`
}

// TestRecord is a normalized test. Identity is (CID, Title, ParentTitle).
type TestRecord struct {
	CID         string
	Title       string
	ParentTitle string
	UID         string
	Start       time.Time
	End         time.Time
	Duration    int64 // milliseconds
	State       TestState
	Error       *TestError
	Screenshots []string
	Annotations Annotations
}

// Key returns the composite identity annotations are matched against
func (t *TestRecord) Key() TestKey {
	return TestKey{CID: t.CID, Title: t.Title, ParentTitle: t.ParentTitle}
}

// SuiteRecord is a normalized describe/context block
type SuiteRecord struct {
	ID          SuiteID
	UUID        string
	CID         string
	UID         string
	Title       string
	File        string
	ParentTitle string
	HasParent   bool
	Start       time.Time
	End         time.Time
	Duration    int64 // milliseconds

	Tests        TestSet
	NestedSuites []*SuiteRecord

	// Set on file roots only
	Annotations Annotations
	Counts      *AggregateCount
}

// IsRootLike reports whether the record declares itself the root of its file
func (s *SuiteRecord) IsRootLike() bool {
	return s.HasParent && s.ParentTitle == s.Title
}

// Walk visits the record and all nested records depth first
func (s *SuiteRecord) Walk(visit func(*SuiteRecord)) {
	visit(s)
	for _, child := range s.NestedSuites {
		child.Walk(visit)
	}
}

// AggregateCount holds rolled-up test totals
type AggregateCount struct {
	TestCount    int `json:"testCount"`
	PassCount    int `json:"passCount"`
	FailCount    int `json:"failCount"`
	SkipCount    int `json:"skipCount"`
	UnknownCount int `json:"unknownCount"`
}

// Record counts a single test in the given state
func (c *AggregateCount) Record(state TestState) {
	switch state {
	case TestStatePass:
		c.PassCount++
	case TestStateFail:
		c.FailCount++
	case TestStatePending:
		c.SkipCount++
	default:
		c.UnknownCount++
	}
	c.TestCount++
}

// Add accumulates other into c
func (c *AggregateCount) Add(other AggregateCount) {
	c.TestCount += other.TestCount
	c.PassCount += other.PassCount
	c.FailCount += other.FailCount
	c.SkipCount += other.SkipCount
	c.UnknownCount += other.UnknownCount
}

// Overview is the run-wide summary of a report
type Overview struct {
	Host         string    `json:"host"`
	Port         int       `json:"port"`
	TargetURL    string    `json:"targetUrl"`
	WaitTimeout  int       `json:"waitTimeout"`
	ReportOutput string    `json:"reportOutput"`
	TestCount    int       `json:"testCount"`
	PassCount    int       `json:"passCount"`
	FailCount    int       `json:"failCount"`
	SkipCount    int       `json:"skipCount"`
	UnknownCount int       `json:"unknownCount"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	Duration     int64     `json:"duration"`
	Browser      string    `json:"browser"`
	MaxInstances int       `json:"maxInstances"`
}

// Counts returns the totals of the overview as an AggregateCount
func (o Overview) Counts() AggregateCount {
	return AggregateCount{
		TestCount:    o.TestCount,
		PassCount:    o.PassCount,
		FailCount:    o.FailCount,
		SkipCount:    o.SkipCount,
		UnknownCount: o.UnknownCount,
	}
}

// SetCounts overrides the totals of the overview
func (o *Overview) SetCounts(c AggregateCount) {
	o.TestCount = c.TestCount
	o.PassCount = c.PassCount
	o.FailCount = c.FailCount
	o.SkipCount = c.SkipCount
	o.UnknownCount = c.UnknownCount
}

// OverallResult is the final reconciled report
type OverallResult struct {
	RunID    string    `json:"-"`
	Overview Overview  `json:"overview"`
	Suites   FileRoots `json:"suites"`
}
