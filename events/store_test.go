package events

import (
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/op-testreport/types"
)

func TestStore_AppendDispatchesByKind(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Append(types.NewMainAnnotationEvent(types.MainAnnotation{Key: "feature"})))
	require.NoError(t, s.Append(types.NewTestAnnotationEvent(types.TestAnnotation{Key: "feature"})))
	require.NoError(t, s.Append(types.NewScreenshotEvent(types.ScreenshotEvent{ImagePath: "a.png"})))
	require.NoError(t, s.Append(types.NewSuiteEndEvent(types.SuiteSnapshot{Title: "Root"})))

	assert.Len(t, s.MainEvents(), 1)
	assert.Len(t, s.TestEvents(), 2)
	assert.Len(t, s.SuiteEvents(), 1)

	require.Error(t, s.Append(types.RawEvent{Kind: types.EventCustomTest}))
	require.Error(t, s.Append(types.RawEvent{Kind: "runner:start"}))
}

func TestStore_TakeKeepsOrder(t *testing.T) {
	s := NewStore()
	for _, title := range []string{"a", "b", "a", "c", "a"} {
		require.NoError(t, s.Append(types.NewTestAnnotationEvent(types.TestAnnotation{Title: title, Key: title})))
	}
	taken := s.TakeTestEvents(func(ev types.RawEvent) bool { return ev.Test.Title == "a" })
	assert.Len(t, taken, 3)

	var rest []string
	for _, ev := range s.TestEvents() {
		rest = append(rest, ev.Test.Title)
	}
	assert.Equal(t, []string{"b", "c"}, rest)
	assert.Empty(t, s.TakeTestEvents(func(ev types.RawEvent) bool { return ev.Test.Title == "a" }))
}

func TestStore_Drain(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Append(types.NewMainAnnotationEvent(types.MainAnnotation{Key: "k"})))
	require.NoError(t, s.Append(types.NewSuiteEndEvent(types.SuiteSnapshot{Title: "Root"})))

	r := s.Drain()
	assert.Equal(t, 1, r.Len())
	assert.Zero(t, s.Drain().Len())
	assert.Len(t, s.SuiteEvents(), 1)
}

func TestStore_ConcurrentAppend(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = s.Append(types.NewScreenshotEvent(types.ScreenshotEvent{ImagePath: "x.png"}))
			}
		}()
	}
	wg.Wait()
	assert.Len(t, s.TestEvents(), 400)
}

func TestDecode(t *testing.T) {
	input := strings.Join([]string{
		`{"event":"custom:main","cid":"0-0","file":"a.spec.js","key":"feature","value":"auth"}`,
		`{"event":"custom:test","cid":"0-0","file":"a.spec.js","title":"works","parent":"Suite","key":"feature","value":"login"}`,
		`{"event":"runner:screenshot","cid":"0-0","title":"works","parent":"Suite","filename":"/tmp/w.png"}`,
		`{"event":"suite:end","cid":"0-0","file":"a.spec.js","title":"Suite","parent":"Root"}`,
		`{"event":"suite:end","cid":"0-0","file":"a.spec.js","title":"Loose"}`,
		``,
		`{"event":"runner:start","cid":"0-0"}`,
		`{"event":"custom:test","cid":"0-0","title":"works","parent":"Suite","key":"n","value":3}`,
		`not json`,
	}, "\n")

	s := NewStore()
	stats, err := Decode(strings.NewReader(input), s, log.NewLogger(log.DiscardHandler()))
	require.NoError(t, err)
	assert.Equal(t, DecodeStats{Appended: 5, Skipped: 2, Malformed: 1}, stats)

	mains := s.MainEvents()
	require.Len(t, mains, 1)
	assert.Equal(t, "auth", mains[0].Value)

	suites := s.SuiteEvents()
	require.Len(t, suites, 2)
	assert.True(t, suites[0].HasParent)
	assert.Equal(t, "Root", suites[0].ParentTitle)
	assert.False(t, suites[1].HasParent)

	tests := s.TestEvents()
	require.Len(t, tests, 2)
	assert.Equal(t, types.EventScreenshot, tests[1].Kind)
	assert.Equal(t, "/tmp/w.png", tests[1].Screenshot.ImagePath)
}

func TestDecodeRunnerStats(t *testing.T) {
	input := `{
		"start": "2024-03-01T10:00:00Z",
		"end": "2024-03-01T10:00:02Z",
		"duration": 2000,
		"counts": {"tests": 1, "passes": 1},
		"runners": [{"cid": "0-0", "specs": [{"id": "0-0", "files": ["a.spec.js"], "suites": [
			{"title": "Login", "tests": [{"title": "works", "state": "pass", "duration": 12}]}
		]}]}]
	}`
	stats, err := DecodeRunnerStats(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, int64(2000), stats.Duration)
	require.Len(t, stats.Runners, 1)
	spec := stats.Runners[0].Specs[0]
	assert.Equal(t, "a.spec.js", spec.File())
	assert.Equal(t, types.RunnerStatePass, spec.Suites[0].Tests[0].State)

	_, err = DecodeRunnerStats(strings.NewReader("{"))
	require.Error(t, err)
}
