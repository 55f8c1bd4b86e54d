package service

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"

	"github.com/ethereum/go-ethereum/log"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/ethereum-optimism/infra/op-testreport/metrics"
	"github.com/ethereum-optimism/infra/op-testreport/reporting"
	"github.com/ethereum-optimism/infra/op-testreport/types"
)

const defaultRunsLimit = 20

// RunLister lists previously recorded runs
type RunLister interface {
	RecentRuns(ctx context.Context, limit int) ([]reporting.RunSummary, error)
}

// ReportServer serves the generated report directory and the last
// reconciled result over HTTP
type ReportServer struct {
	lis  listener
	log  log.Logger
	runs RunLister

	mu        sync.RWMutex
	outputDir string
	result    *types.OverallResult
}

// NewReportServer creates a server for outputDir. runs may be nil when no
// history is kept.
func NewReportServer(logger log.Logger, outputDir string, runs RunLister) *ReportServer {
	if logger == nil {
		logger = log.Root()
	}
	return &ReportServer{log: logger, outputDir: outputDir, runs: runs}
}

// SetOutputDir changes the directory served at /
func (s *ReportServer) SetOutputDir(dir string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outputDir = dir
}

// SetResult replaces the result served at /api/report
func (s *ReportServer) SetResult(result *types.OverallResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.result = result
}

func (s *ReportServer) current() *types.OverallResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result
}

// Handler returns the router with every report route mounted
func (s *ReportServer) Handler() http.Handler {
	r := mux.NewRouter()
	healthz := &HealthzServer{log: s.log}
	r.HandleFunc("/healthz", healthz.Handle).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/api/report", s.handleReport).Methods(http.MethodGet)
	r.HandleFunc("/api/report/roots/{uuid}", s.handleRoot).Methods(http.MethodGet)
	r.HandleFunc("/api/runs", s.handleRuns).Methods(http.MethodGet)
	r.PathPrefix("/").HandlerFunc(s.handleStatic)
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
	})
	return c.Handler(r)
}

func (s *ReportServer) Start(ctx context.Context, addr string) error {
	return s.lis.serve(ctx, &http.Server{
		Handler: s.Handler(),
		Addr:    addr,
	})
}

func (s *ReportServer) Shutdown() error {
	return s.lis.shutdown()
}

func (s *ReportServer) handleStatic(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	dir := s.outputDir
	s.mu.RUnlock()
	if dir == "" {
		http.NotFound(w, r)
		return
	}
	http.FileServer(http.Dir(dir)).ServeHTTP(w, r)
}

func (s *ReportServer) handleReport(w http.ResponseWriter, _ *http.Request) {
	result := s.current()
	if result == nil {
		http.Error(w, "no report available", http.StatusNotFound)
		return
	}
	s.writeJSON(w, result)
}

func (s *ReportServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["uuid"]
	result := s.current()
	if result == nil {
		http.Error(w, "no report available", http.StatusNotFound)
		return
	}
	for _, root := range result.Suites.Roots() {
		if root.UUID == id {
			s.writeJSON(w, root)
			return
		}
	}
	http.Error(w, "unknown suite", http.StatusNotFound)
}

func (s *ReportServer) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		http.Error(w, "run history disabled", http.StatusNotFound)
		return
	}
	limit := defaultRunsLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	runs, err := s.runs.RecentRuns(r.Context(), limit)
	if err != nil {
		s.log.Error("failed to list runs", "err", err)
		metrics.RecordErrorDetails("list_runs", err)
		http.Error(w, "failed to list runs", http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []reporting.RunSummary{}
	}
	s.writeJSON(w, runs)
}

func (s *ReportServer) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("failed to encode response", "err", err)
	}
}
