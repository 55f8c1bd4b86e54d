package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ethereum-optimism/infra/op-testreport/types"
)

func TestMsToTime(t *testing.T) {
	tests := []struct {
		ms   int64
		want string
	}{
		{0, "0.0s"},
		{1500, "1.500s"},
		{59999, "59.999s"},
		{61000, "1:1"},
		{3600000, "1:0:0"},
		{3723000, "1:2:3"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, MsToTime(tt.ms))
		})
	}
}

func TestRootStatusClass(t *testing.T) {
	assert.Equal(t, "fail", RootStatusClass(&types.AggregateCount{PassCount: 3, FailCount: 1, SkipCount: 1}))
	assert.Equal(t, "skip", RootStatusClass(&types.AggregateCount{PassCount: 3, SkipCount: 1, UnknownCount: 1}))
	assert.Equal(t, "unknown_state", RootStatusClass(&types.AggregateCount{PassCount: 3, UnknownCount: 1}))
	assert.Equal(t, "pass", RootStatusClass(&types.AggregateCount{PassCount: 3}))
	assert.Equal(t, "", RootStatusClass(&types.AggregateCount{}))
	assert.Equal(t, "", RootStatusClass(nil))
}

func TestTestStateClass(t *testing.T) {
	assert.Equal(t, "skip", TestStateClass(types.TestStatePending))
	assert.Equal(t, "unknown_state", TestStateClass(types.TestStateUnknown))
	assert.Equal(t, "pass", TestStateClass(types.TestStatePass))
}

func TestShortFile(t *testing.T) {
	assert.Equal(t, "cart/add.spec.js", ShortFile("/repo/specs/ui/cart/add.spec.js", "/specs/ui"))
	assert.Equal(t, "/repo/other.spec.js", ShortFile("/repo/other.spec.js", "/specs/ui"))
	assert.Equal(t, "/repo/a.spec.js", ShortFile("/repo/a.spec.js", ""))
}
