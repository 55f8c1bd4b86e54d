// Package testreport reconciles the captured telemetry of a finished test
// run into a hierarchical report and writes it to the configured sinks.
package testreport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/ethereum-optimism/infra/op-testreport/events"
	"github.com/ethereum-optimism/infra/op-testreport/reconcile"
	"github.com/ethereum-optimism/infra/op-testreport/reporting"
	"github.com/ethereum-optimism/infra/op-testreport/runconfig"
	"github.com/ethereum-optimism/infra/op-testreport/service"
	"github.com/ethereum-optimism/infra/op-testreport/types"
	"github.com/ethereum-optimism/optimism/op-service/cliapp"
)

var _ cliapp.Lifecycle = &testReport{}

type testReport struct {
	ctx     context.Context
	config  *Config
	version string
	tracer  trace.Tracer
	metrics MetricsReporter
	out     io.Writer

	history    *reporting.HistorySink
	publishers []reporting.Sink
	server     *service.ReportServer
	svc        *service.Service

	result *types.OverallResult
	stats  reconcile.Stats

	running atomic.Bool

	shutdownCallback func(error) // Callback to signal application shutdown
}

// New creates the report lifecycle. shutdownCallback is invoked once the
// report is written unless the report is being served.
func New(ctx context.Context, config *Config, version string, shutdownCallback func(error)) (*testReport, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}

	config.Log.Debug("Creating test report with config",
		"events", config.EventsFile,
		"runnerStats", config.RunnerStatsFile,
		"runConfig", config.RunConfigFile,
		"serve", config.Serve)

	r := &testReport{
		ctx:              ctx,
		config:           config,
		version:          version,
		tracer:           otel.Tracer("test report"),
		metrics:          NewDefaultMetricsReporter(),
		out:              os.Stdout,
		shutdownCallback: shutdownCallback,
	}

	if config.HistoryDB != "" {
		history, err := reporting.OpenHistory(config.HistoryDB)
		if err != nil {
			return nil, fmt.Errorf("failed to open run history: %w", err)
		}
		r.history = history
	}

	var runs service.RunLister
	if r.history != nil {
		runs = r.history
	}
	if config.Serve {
		r.server = service.NewReportServer(config.Log, "", runs)
	}
	serveAddr := ""
	if config.Serve {
		serveAddr = config.ServeAddr
	}
	r.svc = service.New(config.Log, r.server, serveAddr, config.MetricsAddr)
	return r, nil
}

func (r *testReport) Start(ctx context.Context) error {
	r.ctx = ctx
	r.running.Store(true)

	result, err := r.runReport(ctx)
	if err != nil {
		r.config.Log.Error("Runtime error writing report", "error", err)
		return err
	}
	r.svc.Start(ctx)

	if r.config.FailOnFailures && result.Overview.FailCount > 0 {
		r.config.Log.Warn("Report contains failed tests, returning exit code 1", "failed", result.Overview.FailCount)
		return NewTestFailureError(fmt.Sprintf("%d of %d tests failed", result.Overview.FailCount, result.Overview.TestCount))
	}

	if r.config.Serve {
		r.config.Log.Info("Serving report", "addr", r.config.ServeAddr)
		return nil
	}

	r.config.Log.Info("Report written, exiting")
	go func() {
		r.shutdownCallback(nil)
	}()
	return nil
}

// runReport loads the capture files, reconciles them and writes every sink
func (r *testReport) runReport(ctx context.Context) (*types.OverallResult, error) {
	ctx, span := r.tracer.Start(ctx, "report")
	defer span.End()

	in, outputDir, err := r.loadInputs(ctx)
	if err != nil {
		return nil, NewRuntimeError(err)
	}

	_, finalizeSpan := r.tracer.Start(ctx, "finalize")
	result, stats, err := reconcile.Finalize(in)
	finalizeSpan.End()
	if err != nil {
		return nil, NewRuntimeError(fmt.Errorf("failed to reconcile run: %w", err))
	}
	r.result = result
	r.stats = stats
	r.metrics.ReportResults(result, stats)
	r.logStats(result, stats)

	if err := r.writeSinks(ctx, result, outputDir, in.Config.ReporterOptions.ReportFilename); err != nil {
		return nil, NewRuntimeError(err)
	}

	if err := reporting.PrintTable(r.out, result, fmt.Sprintf("Test Report (%s)", result.RunID), r.config.SpecRoot); err != nil {
		r.config.Log.Warn("Failed to print results table", "err", err)
	}
	if r.server != nil {
		r.server.SetResult(result)
	}
	return result, nil
}

// loadInputs reads the events, runner stats and run config. Flags override
// the output options of the run config.
func (r *testReport) loadInputs(ctx context.Context) (reconcile.Input, string, error) {
	_, span := r.tracer.Start(ctx, "load inputs")
	defer span.End()

	var in reconcile.Input
	runCfg, err := runconfig.Load(r.config.RunConfigFile)
	if err != nil {
		return in, "", err
	}
	if r.config.OutputDir != "" {
		runCfg.ReporterOptions.OutputDir = r.config.OutputDir
	}
	if r.config.ReportFilename != "" {
		runCfg.ReporterOptions.ReportFilename = r.config.ReportFilename
	}
	outputDir := runCfg.ReporterOptions.OutputDir
	if outputDir != "" {
		if outputDir, err = filepath.Abs(outputDir); err != nil {
			return in, "", fmt.Errorf("failed to resolve output directory: %w", err)
		}
	}

	store := events.NewStore()
	eventsFile, err := os.Open(r.config.EventsFile)
	if err != nil {
		return in, "", fmt.Errorf("failed to open events file: %w", err)
	}
	defer eventsFile.Close()
	decoded, err := events.Decode(eventsFile, store, r.config.Log)
	if err != nil {
		return in, "", err
	}
	r.config.Log.Info("Loaded events", "appended", decoded.Appended, "skipped", decoded.Skipped, "malformed", decoded.Malformed)

	statsFile, err := os.Open(r.config.RunnerStatsFile)
	if err != nil {
		return in, "", fmt.Errorf("failed to open runner stats file: %w", err)
	}
	defer statsFile.Close()
	runnerStats, err := events.DecodeRunnerStats(statsFile)
	if err != nil {
		return in, "", err
	}

	return reconcile.Input{
		Store:  store,
		Stats:  runnerStats,
		Config: runCfg,
		Log:    r.config.Log,
	}, outputDir, nil
}

func (r *testReport) writeSinks(ctx context.Context, result *types.OverallResult, outputDir, reportFilename string) error {
	ctx, span := r.tracer.Start(ctx, "write sinks")
	defer span.End()

	local := []reporting.Sink{
		reporting.NewJSONSink(outputDir, reportFilename),
	}
	if r.config.HTML {
		html, err := reporting.NewHTMLSink(outputDir, r.config.ScreenshotDir, r.config.SpecRoot)
		if err != nil {
			return err
		}
		local = append(local, html)
	}
	if r.config.TextSummary {
		local = append(local, reporting.NewTextSummarySink(outputDir, r.config.SpecRoot, true))
	}
	if r.history != nil {
		local = append(local, r.history)
	}

	publishers := r.publishers
	if publishers == nil && r.config.S3.Bucket != "" {
		s3Sink, err := reporting.NewS3Sink(ctx, outputDir, r.config.S3)
		if err != nil {
			return err
		}
		publishers = []reporting.Sink{s3Sink}
	}

	for _, res := range reporting.NewWriter(r.config.Log, local, publishers).Write(ctx, result) {
		if res.Err != nil {
			span.RecordError(res.Err)
		}
	}
	if r.server != nil && outputDir != "" {
		r.server.SetOutputDir(outputDir)
	}
	return nil
}

func (r *testReport) logStats(result *types.OverallResult, stats reconcile.Stats) {
	o := result.Overview
	r.config.Log.Info("Reconciled run",
		"run_id", result.RunID,
		"files", result.Suites.Len(),
		"suites", stats.Suites,
		"tests", o.TestCount,
		"passed", o.PassCount,
		"failed", o.FailCount,
		"skipped", o.SkipCount,
		"unknown", o.UnknownCount)

	if stats.UnmatchedMain > 0 || stats.UnmatchedTest > 0 || stats.AnnotationsRejected > 0 {
		r.config.Log.Warn("Dropped annotations",
			"unmatched_main", stats.UnmatchedMain,
			"unmatched_test", stats.UnmatchedTest,
			"rejected", stats.AnnotationsRejected)
	}
	if stats.OrphanedSuites > 0 || stats.PromotedRoots > 0 {
		r.config.Log.Warn("Suites attached to fallback parents",
			"orphaned", stats.OrphanedSuites,
			"promoted", stats.PromotedRoots)
	}
	if len(stats.UnattachedFiles) > 0 {
		r.config.Log.Warn("Tests counted for files without a root suite", "files", stats.UnattachedFiles)
	}
	if stats.RunnerCountsDisagree {
		r.config.Log.Warn("Runner counts disagree with the reconciled tests, using reconciled counts")
	}
}

func (r *testReport) Stop(ctx context.Context) error {
	r.config.Log.Info("Stopping op-testreport")

	if !r.running.Load() {
		r.config.Log.Debug("Service already stopped, nothing to do")
		return nil
	}
	r.running.Store(false)

	r.svc.Shutdown()
	if r.history != nil {
		if err := r.history.Close(); err != nil {
			r.config.Log.Warn("Failed to close run history", "err", err)
		}
	}

	r.config.Log.Info("op-testreport stopped successfully")
	return nil
}

func (r *testReport) Stopped() bool {
	return !r.running.Load()
}

// Result returns the last reconciled report and its stats
func (r *testReport) Result() (*types.OverallResult, reconcile.Stats) {
	return r.result, r.stats
}
