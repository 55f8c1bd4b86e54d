package reconcile

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/op-testreport/types"
)

func TestIsHookSuite(t *testing.T) {
	tests := []struct {
		title string
		want  bool
	}{
		{`"before all" hook`, true},
		{`"after all" hook for "Cart"`, true},
		{`"before each" hook`, false},
		{"Cart", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, IsHookSuite(tt.title))
		})
	}
}

func TestBuildTest_States(t *testing.T) {
	tests := []struct {
		state types.RunnerState
		want  types.TestState
	}{
		{types.RunnerStatePass, types.TestStatePass},
		{types.RunnerStateFail, types.TestStateFail},
		{types.RunnerStatePending, types.TestStatePending},
		{"skipped", types.TestStateUnknown},
		{"", types.TestStateUnknown},
	}
	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			test := BuildTest("0-0", "Suite", types.TestSnapshot{Title: "t", State: tt.state})
			assert.Equal(t, tt.want, test.State)
			assert.Nil(t, test.Error)
		})
	}
}

func TestBuildTest_Error(t *testing.T) {
	test := BuildTest("0-0", "Suite", types.TestSnapshot{
		Title: "t",
		State: types.RunnerStateFail,
		Error: &types.RunnerError{
			Type:     "AssertionError",
			Message:  "\x1b[31mexpected\x1b[39m 1 to equal 2",
			Stack:    "\x1b[90mat Context.<anonymous>\x1b[39m",
			Actual:   json.RawMessage(`1`),
			Expected: json.RawMessage(`2`),
		},
	})
	require.NotNil(t, test.Error)
	assert.Equal(t, "AssertionError", test.Error.Name)
	assert.Equal(t, "expected 1 to equal 2", test.Error.Message)
	assert.Equal(t, "at Context.<anonymous>", test.Error.Stack)
	assert.JSONEq(t, `1`, string(test.Error.Actual))
	assert.JSONEq(t, `2`, string(test.Error.Expected))
}

func TestBuildTest_ErrorWithoutExpected(t *testing.T) {
	test := BuildTest("0-0", "Suite", types.TestSnapshot{
		State: types.RunnerStateFail,
		Error: &types.RunnerError{Message: "boom", Actual: json.RawMessage(`1`)},
	})
	require.NotNil(t, test.Error)
	assert.Nil(t, test.Error.Actual)
	assert.Nil(t, test.Error.Expected)
}

func TestArena(t *testing.T) {
	a := NewArena()
	s1 := BuildSuite("0-0", "a.spec.js", types.SuiteSnapshotData{Title: "Same"})
	s2 := BuildSuite("0-0", "a.spec.js", types.SuiteSnapshotData{Title: "Same"})
	id1 := a.Add(s1)
	id2 := a.Add(s2)
	assert.NotEqual(t, id1, id2)
	assert.NotEqual(t, s1.UUID, s2.UUID)
	assert.Same(t, s2, a.Get(id2))
	assert.Nil(t, a.Get(types.SuiteID(5)))
	assert.Equal(t, 2, a.Len())
}

func TestLinkParents(t *testing.T) {
	a := NewArena()
	first := BuildSuite("0-0", "a.spec.js", types.SuiteSnapshotData{Title: "edge cases"})
	second := BuildSuite("0-0", "a.spec.js", types.SuiteSnapshotData{Title: "edge cases"})
	other := BuildSuite("0-1", "b.spec.js", types.SuiteSnapshotData{Title: "Root"})
	missing := BuildSuite("0-0", "a.spec.js", types.SuiteSnapshotData{Title: "no snapshot"})
	for _, s := range []*types.SuiteRecord{first, second, other, missing} {
		a.Add(s)
	}

	unlinked := LinkParents(a, []types.SuiteSnapshot{
		{CID: "0-0", File: "a.spec.js", Title: "edge cases", ParentTitle: "login", HasParent: true},
		{CID: "0-0", File: "a.spec.js", Title: "edge cases", ParentTitle: "logout", HasParent: true},
		{CID: "0-9", File: "b.spec.js", Title: "Root", ParentTitle: "Root", HasParent: true},
	})
	assert.Equal(t, 1, unlinked)
	assert.Equal(t, "login", first.ParentTitle)
	assert.Equal(t, "logout", second.ParentTitle)
	assert.True(t, other.IsRootLike())
	assert.False(t, missing.HasParent)
}
