package annotate

import (
	"bytes"
	"testing"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/op-testreport/events"
	"github.com/ethereum-optimism/infra/op-testreport/types"
)

func TestNewHandler(t *testing.T) {
	_, err := NewHandler("", "0-0", events.NewStore())
	require.ErrorIs(t, err, ErrMissingFilename)

	_, err = NewHandler("a.spec.js", "0-0", nil)
	require.Error(t, err)

	h, err := NewHandler("a.spec.js", "0-0", events.NewStore())
	require.NoError(t, err)
	require.NotNil(t, h)
}

func TestHandler_Main(t *testing.T) {
	store := events.NewStore()
	h, err := NewHandler("a.spec.js", "0-0", store)
	require.NoError(t, err)

	require.NoError(t, h.SetMainFeature("checkout"))
	require.NoError(t, h.SetMainCategory("smoke"))
	require.NoError(t, h.SetMainSubCategory("web"))
	require.ErrorIs(t, h.SetMainFeature(42), ErrNonStringValue)

	got := store.MainEvents()
	require.Len(t, got, 3)
	assert.Equal(t, types.MainAnnotation{CID: "0-0", File: "a.spec.js", Key: KeyFeature, Value: "checkout"}, got[0])
	assert.Equal(t, KeyCategory, got[1].Key)
	assert.Equal(t, KeySubCategory, got[2].Key)
}

func TestHandler_Test(t *testing.T) {
	store := events.NewStore()
	h, err := NewHandler("a.spec.js", "0-0", store)
	require.NoError(t, err)

	tc := &TestContext{Title: "should succeed", ParentTitle: "valid login"}
	require.NoError(t, h.SetTestFeature(tc, "auth"))
	require.NoError(t, h.SetTestCategory(tc, "regression"))
	require.NoError(t, h.SetTestSubCategory(tc, "login"))

	require.ErrorIs(t, h.SetTestFeature(nil, "auth"), ErrNoActiveTest)
	require.ErrorIs(t, h.SetTestFeature(&TestContext{Title: "orphan"}, "auth"), ErrMissingTestInfo)
	require.ErrorIs(t, h.SetTestFeature(tc, []string{"auth"}), ErrNonStringValue)

	got := store.TestEvents()
	require.Len(t, got, 3)
	assert.Equal(t, types.TestKey{CID: "0-0", Title: "should succeed", ParentTitle: "valid login"}, got[0].Test.TestKey())
	assert.Equal(t, "auth", got[0].Test.Value)
}

func TestHandler_CaptureFile(t *testing.T) {
	var buf bytes.Buffer
	h, err := NewHandler("a.spec.js", "0-0", events.NewEncoder(&buf))
	require.NoError(t, err)
	require.NoError(t, h.SetMainFeature(""))
	require.NoError(t, h.SetTestFeature(&TestContext{Title: "works", ParentTitle: "Suite"}, "auth"))

	store := events.NewStore()
	stats, err := events.Decode(&buf, store, log.NewLogger(log.DiscardHandler()))
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Appended)

	main := store.MainEvents()
	require.Len(t, main, 1)
	assert.Equal(t, "", main[0].Value)
	assert.Equal(t, "Suite", store.TestEvents()[0].Test.ParentTitle)
}
