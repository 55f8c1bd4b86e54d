package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/op-testreport/reporting"
	"github.com/ethereum-optimism/infra/op-testreport/types"
)

type stubRuns struct {
	runs  []reporting.RunSummary
	err   error
	limit int
}

func (s *stubRuns) RecentRuns(_ context.Context, limit int) ([]reporting.RunSummary, error) {
	s.limit = limit
	return s.runs, s.err
}

func testResult() *types.OverallResult {
	root := &types.SuiteRecord{
		UUID:        "root-uuid",
		CID:         "0-0",
		Title:       "Login",
		File:        "/specs/login.spec.js",
		ParentTitle: "Login",
		HasParent:   true,
		Counts:      &types.AggregateCount{TestCount: 1, PassCount: 1},
	}
	root.Tests.Put(&types.TestRecord{CID: "0-0", Title: "works", ParentTitle: "Login", State: types.TestStatePass})
	result := &types.OverallResult{RunID: "run-1"}
	result.Overview.SetCounts(*root.Counts)
	result.Suites.Put(root.File, root)
	return result
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestReportServer_Healthz(t *testing.T) {
	s := NewReportServer(log.NewLogger(log.DiscardHandler()), "", nil)
	rec := get(t, s.Handler(), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestReportServer_Report(t *testing.T) {
	s := NewReportServer(log.NewLogger(log.DiscardHandler()), "", nil)
	h := s.Handler()

	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/report").Code)

	s.SetResult(testResult())
	rec := get(t, h, "/api/report")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		Overview types.Overview            `json:"overview"`
		Suites   map[string]map[string]any `json:"suites"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Overview.PassCount)
	require.Contains(t, body.Suites, "/specs/login.spec.js")
	assert.Equal(t, "Login", body.Suites["/specs/login.spec.js"]["title"])

	rec = get(t, h, "/api/report/roots/root-uuid")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"title":"Login"`)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/report/roots/missing").Code)
}

func TestReportServer_Runs(t *testing.T) {
	logger := log.NewLogger(log.DiscardHandler())

	assert.Equal(t, http.StatusNotFound, get(t, NewReportServer(logger, "", nil).Handler(), "/api/runs").Code)

	runs := &stubRuns{runs: []reporting.RunSummary{{RunID: "run-2"}, {RunID: "run-1"}}}
	h := NewReportServer(logger, "", runs).Handler()

	rec := get(t, h, "/api/runs")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, defaultRunsLimit, runs.limit)
	var decoded []reporting.RunSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "run-2", decoded[0].RunID)

	require.Equal(t, http.StatusOK, get(t, h, "/api/runs?limit=5").Code)
	assert.Equal(t, 5, runs.limit)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/runs?limit=zero").Code)

	runs.runs = nil
	rec = get(t, h, "/api/runs")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())

	runs.err = errors.New("database is locked")
	assert.Equal(t, http.StatusInternalServerError, get(t, h, "/api/runs").Code)
}

func TestReportServer_StaticFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "test_result.html"), []byte("<html>report</html>"), 0644))

	srv := httptest.NewServer(NewReportServer(log.NewLogger(log.DiscardHandler()), dir, nil).Handler())
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/test_result.html", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://dashboard.example.com")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "<html>report</html>", string(data))
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestServiceShutdownBeforeStart(t *testing.T) {
	s := New(log.NewLogger(log.DiscardHandler()), NewReportServer(nil, "", nil), "", "")
	s.Start(context.Background())
	assert.NotPanics(t, s.Shutdown)
}

func TestReportServer_Metrics(t *testing.T) {
	rec := get(t, NewReportServer(nil, "", nil).Handler(), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

type httpServer interface {
	Start(ctx context.Context, addr string) error
	Shutdown() error
}

func TestServers_ShutdownStopsStart(t *testing.T) {
	for _, tc := range []struct {
		name   string
		server func() httpServer
	}{
		{"report", func() httpServer { return NewReportServer(nil, "", nil) }},
		{"metrics", func() httpServer { return &MetricsServer{} }},
		{"healthz", func() httpServer { return &HealthzServer{} }},
	} {
		t.Run(tc.name+" concurrent", func(t *testing.T) {
			srv := tc.server()
			done := make(chan error, 1)
			go func() { done <- srv.Start(context.Background(), "127.0.0.1:0") }()
			require.NoError(t, srv.Shutdown())

			select {
			case err := <-done:
				assert.ErrorIs(t, err, http.ErrServerClosed)
			case <-time.After(5 * time.Second):
				t.Fatal("Start did not return after Shutdown")
			}
		})
		t.Run(tc.name+" shutdown first", func(t *testing.T) {
			srv := tc.server()
			require.NoError(t, srv.Shutdown())
			assert.ErrorIs(t, srv.Start(context.Background(), "127.0.0.1:0"), http.ErrServerClosed)
		})
	}
}
