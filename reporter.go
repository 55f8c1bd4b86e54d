package testreport

import (
	"github.com/ethereum-optimism/infra/op-testreport/metrics"
	"github.com/ethereum-optimism/infra/op-testreport/reconcile"
	"github.com/ethereum-optimism/infra/op-testreport/types"
)

// MetricsReporter is responsible for reporting metrics from a finished report.
type MetricsReporter interface {
	ReportResults(result *types.OverallResult, stats reconcile.Stats)
}

// DefaultMetricsReporter implements the MetricsReporter interface.
type DefaultMetricsReporter struct{}

// NewDefaultMetricsReporter creates a new DefaultMetricsReporter.
func NewDefaultMetricsReporter() *DefaultMetricsReporter {
	return &DefaultMetricsReporter{}
}

// ReportResults records the dropped annotations, orphaned suites and the
// per-file test totals of the report.
func (r *DefaultMetricsReporter) ReportResults(result *types.OverallResult, stats reconcile.Stats) {
	metrics.RecordAnnotationDropped("main", "unmatched", stats.UnmatchedMain)
	metrics.RecordAnnotationDropped("test", "unmatched", stats.UnmatchedTest)
	metrics.RecordAnnotationDropped("any", "reserved_key", stats.AnnotationsRejected)
	metrics.RecordOrphanedSuites(stats.OrphanedSuites)

	for _, root := range result.Suites.Roots() {
		if root.Counts == nil {
			continue
		}
		c := root.Counts
		metrics.RecordFileTests(result.RunID, root.File, "pass", c.PassCount)
		metrics.RecordFileTests(result.RunID, root.File, "fail", c.FailCount)
		metrics.RecordFileTests(result.RunID, root.File, "pending", c.SkipCount)
		metrics.RecordFileTests(result.RunID, root.File, "unknown", c.UnknownCount)
	}
}
