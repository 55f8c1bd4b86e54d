package testreport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/op-testreport/events"
	"github.com/ethereum-optimism/infra/op-testreport/reporting"
	"github.com/ethereum-optimism/infra/op-testreport/types"
)

const specFile = "/repo/specs/login.spec.js"

// writeCapture writes an events capture, runner stats and run config for a
// one file run and returns a config pointing at them
func writeCapture(t *testing.T, state types.RunnerState) *Config {
	t.Helper()
	dir := t.TempDir()

	eventsPath := filepath.Join(dir, "events.jsonl")
	f, err := os.Create(eventsPath)
	require.NoError(t, err)
	enc := events.NewEncoder(f)
	for _, ev := range []types.RawEvent{
		types.NewTestAnnotationEvent(types.TestAnnotation{CID: "0-0", File: specFile, Title: "should succeed", ParentTitle: "valid login", Key: "feature", Value: "auth"}),
		types.NewSuiteEndEvent(types.SuiteSnapshot{CID: "0-0", File: specFile, Title: "valid login", ParentTitle: "Login", HasParent: true}),
		types.NewSuiteEndEvent(types.SuiteSnapshot{CID: "0-0", File: specFile, Title: "Login", ParentTitle: "Login", HasParent: true}),
		types.NewMainAnnotationEvent(types.MainAnnotation{CID: "0-0", File: specFile, Key: "category", Value: "smoke"}),
	} {
		require.NoError(t, enc.Append(ev))
	}
	require.NoError(t, f.Close())

	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	test := types.TestSnapshot{Title: "should succeed", State: state, Duration: 120}
	if state == types.RunnerStateFail {
		test.Error = &types.RunnerError{Type: "AssertionError", Message: "expected home"}
	}
	stats := types.RunnerStats{
		Start:    start,
		End:      start.Add(2 * time.Second),
		Duration: 2000,
		Runners: []types.RunnerSnapshot{{
			CID: "0-0",
			Specs: []types.SpecSnapshot{{
				ID:    "0-0",
				Files: []string{specFile},
				Suites: []types.SuiteSnapshotData{
					{Title: "Login"},
					{Title: "valid login", Tests: []types.TestSnapshot{test}},
				},
			}},
		}},
	}
	statsData, err := json.Marshal(stats)
	require.NoError(t, err)
	statsPath := filepath.Join(dir, "runner-stats.json")
	require.NoError(t, os.WriteFile(statsPath, statsData, 0644))

	configPath := filepath.Join(dir, "wdio.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(`
host: localhost
port: 4444
baseUrl: https://shop.example.com
capabilities:
  - browserName: chrome
    maxInstances: 2
reporterOptions:
  reportFilename: report
`), 0644))

	return &Config{
		EventsFile:      eventsPath,
		RunnerStatsFile: statsPath,
		RunConfigFile:   configPath,
		OutputDir:       filepath.Join(dir, "out"),
		HTML:            true,
		TextSummary:     true,
		Log:             log.NewLogger(log.DiscardHandler()),
	}
}

func newTestReport(t *testing.T, cfg *Config) (*testReport, chan error) {
	t.Helper()
	shutdown := make(chan error, 1)
	r, err := New(context.Background(), cfg, "test", func(err error) { shutdown <- err })
	require.NoError(t, err)
	r.out = &bytes.Buffer{}
	return r, shutdown
}

func TestStart_RunOnce(t *testing.T) {
	cfg := writeCapture(t, types.RunnerStatePass)
	r, shutdown := newTestReport(t, cfg)

	require.NoError(t, r.Start(context.Background()))
	select {
	case err := <-shutdown:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown callback was not invoked")
	}

	for _, name := range []string{"report.json", reporting.HTMLFilename, reporting.SummaryFilename} {
		_, err := os.Stat(filepath.Join(cfg.OutputDir, name))
		require.NoError(t, err, name)
	}

	data, err := os.ReadFile(filepath.Join(cfg.OutputDir, "report.json"))
	require.NoError(t, err)
	var doc struct {
		Overview types.Overview            `json:"overview"`
		Suites   map[string]map[string]any `json:"suites"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, 1, doc.Overview.PassCount)
	assert.Equal(t, "chrome", doc.Overview.Browser)
	assert.Equal(t, cfg.OutputDir, doc.Overview.ReportOutput)
	require.Contains(t, doc.Suites, specFile)
	assert.Equal(t, "smoke", doc.Suites[specFile]["category"])

	result, stats := r.Result()
	require.NotNil(t, result)
	assert.Equal(t, 2, stats.Suites)
	assert.Contains(t, r.out.(*bytes.Buffer).String(), "TOTAL")

	require.NoError(t, r.Stop(context.Background()))
	assert.True(t, r.Stopped())
}

func TestStart_FailOnFailures(t *testing.T) {
	cfg := writeCapture(t, types.RunnerStateFail)
	cfg.FailOnFailures = true
	r, _ := newTestReport(t, cfg)

	err := r.Start(context.Background())
	require.Error(t, err)
	assert.True(t, IsTestFailureError(err))
	assert.False(t, IsRuntimeError(err))
	assert.Contains(t, err.Error(), "1 of 1 tests failed")

	// The report is still written
	_, statErr := os.Stat(filepath.Join(cfg.OutputDir, "report.json"))
	require.NoError(t, statErr)
}

func TestStart_FailuresNotFatalByDefault(t *testing.T) {
	cfg := writeCapture(t, types.RunnerStateFail)
	r, shutdown := newTestReport(t, cfg)

	require.NoError(t, r.Start(context.Background()))
	require.NoError(t, <-shutdown)
}

func TestStart_MissingCaptureIsRuntimeError(t *testing.T) {
	cfg := writeCapture(t, types.RunnerStatePass)
	cfg.EventsFile = filepath.Join(t.TempDir(), "missing.jsonl")
	r, _ := newTestReport(t, cfg)

	err := r.Start(context.Background())
	require.Error(t, err)
	assert.True(t, IsRuntimeError(err))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

type recordingSink struct {
	runID string
}

func (s *recordingSink) Name() string { return "recording" }

func (s *recordingSink) Write(_ context.Context, result *types.OverallResult) error {
	s.runID = result.RunID
	return errors.New("upload failed")
}

func TestStart_HistoryAndPublishers(t *testing.T) {
	cfg := writeCapture(t, types.RunnerStatePass)
	cfg.HistoryDB = filepath.Join(t.TempDir(), "history.db")
	r, shutdown := newTestReport(t, cfg)
	publisher := &recordingSink{}
	r.publishers = []reporting.Sink{publisher}

	// A failing publisher does not fail the run
	require.NoError(t, r.Start(context.Background()))
	require.NoError(t, <-shutdown)

	result, _ := r.Result()
	assert.Equal(t, result.RunID, publisher.runID)

	runs, err := r.history.RecentRuns(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, result.RunID, runs[0].RunID)

	require.NoError(t, r.Stop(context.Background()))
}

func TestNew_RequiresConfig(t *testing.T) {
	_, err := New(context.Background(), nil, "test", func(error) {})
	require.Error(t, err)
}

func TestErrors(t *testing.T) {
	base := errors.New("boom")
	runtimeErr := NewRuntimeError(base)
	assert.True(t, IsRuntimeError(runtimeErr))
	assert.ErrorIs(t, runtimeErr, base)
	assert.Equal(t, "runtime error: boom", runtimeErr.Error())

	failure := NewTestFailureError("2 of 3 tests failed")
	assert.True(t, IsTestFailureError(failure))
	assert.False(t, IsRuntimeError(failure))
	assert.False(t, IsTestFailureError(nil))
}
