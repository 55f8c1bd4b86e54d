package reconcile

import (
	"github.com/ethereum-optimism/infra/op-testreport/types"
)

// BuildOverview merges the run configuration with the runner's timing. The
// totals are always the locally recomputed ones.
func BuildOverview(cfg types.RunConfig, stats *types.RunnerStats, totals types.AggregateCount) types.Overview {
	capability := cfg.PrimaryCapability()
	overview := types.Overview{
		Host:         cfg.Host,
		Port:         cfg.Port,
		TargetURL:    cfg.BaseURL,
		WaitTimeout:  cfg.WaitforTimeout,
		ReportOutput: cfg.ReporterOptions.OutputDir,
		Browser:      capability.BrowserName,
		MaxInstances: capability.MaxInstances,
	}
	if stats != nil {
		overview.Start = stats.Start
		overview.End = stats.End
		overview.Duration = stats.Duration
	}
	overview.SetCounts(totals)
	return overview
}

// runnerCountsAgree reports whether the runner's self-reported totals match
// the recomputed ones
func runnerCountsAgree(c types.RunnerCounts, totals types.AggregateCount) bool {
	return c.Tests == totals.TestCount &&
		c.Passes == totals.PassCount &&
		c.Failures == totals.FailCount &&
		c.Pending == totals.SkipCount
}
