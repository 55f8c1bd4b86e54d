package reconcile

import (
	"strings"

	"github.com/acarl005/stripansi"
	"github.com/google/uuid"

	"github.com/ethereum-optimism/infra/op-testreport/types"
)

// Hook failures are reported by the runner as suites with these titles.
// Their tests are never reported.
const (
	beforeAllHook = `"before all" hook`
	afterAllHook  = `"after all" hook`
)

// IsHookSuite reports whether title names a before/after all hook suite
func IsHookSuite(title string) bool {
	return strings.Contains(title, beforeAllHook) || strings.Contains(title, afterAllHook)
}

// Arena owns the suite records built in one finalize pass. A record's
// SuiteID is its index here.
type Arena struct {
	suites []*types.SuiteRecord
}

func NewArena() *Arena {
	return &Arena{}
}

// Add assigns the record a fresh SuiteID and stores it
func (a *Arena) Add(s *types.SuiteRecord) types.SuiteID {
	s.ID = types.SuiteID(len(a.suites))
	a.suites = append(a.suites, s)
	return s.ID
}

func (a *Arena) Get(id types.SuiteID) *types.SuiteRecord {
	if int(id) < 0 || int(id) >= len(a.suites) {
		return nil
	}
	return a.suites[id]
}

func (a *Arena) Len() int {
	return len(a.suites)
}

// All returns the records in insertion order
func (a *Arena) All() []*types.SuiteRecord {
	return a.suites
}

// BuildSuite normalizes the runner's snapshot of a suite run by worker cid
// for the given spec file
func BuildSuite(cid, file string, data types.SuiteSnapshotData) *types.SuiteRecord {
	return &types.SuiteRecord{
		UUID:     uuid.NewString(),
		CID:      cid,
		UID:      data.UID,
		Title:    data.Title,
		File:     file,
		Start:    data.Start,
		End:      data.End,
		Duration: data.Duration,
	}
}

// BuildTest normalizes the runner's snapshot of a test inside the suite
// titled parentTitle
func BuildTest(cid, parentTitle string, data types.TestSnapshot) *types.TestRecord {
	return &types.TestRecord{
		CID:         cid,
		Title:       data.Title,
		ParentTitle: parentTitle,
		UID:         data.UID,
		Start:       data.Start,
		End:         data.End,
		Duration:    data.Duration,
		State:       types.StateFromRunner(data.State),
		Error:       buildError(data.Error),
	}
}

func buildError(e *types.RunnerError) *types.TestError {
	if e == nil {
		return nil
	}
	out := &types.TestError{
		Name:    e.Type,
		Message: stripansi.Strip(e.Message),
		Stack:   stripansi.Strip(e.Stack),
	}
	if e.Actual != nil && e.Expected != nil {
		out.Actual = e.Actual
		out.Expected = e.Expected
	}
	return out
}
