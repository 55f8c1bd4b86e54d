// Package reconcile turns the buffered telemetry of a finished run into a
// single hierarchical report.
package reconcile

import (
	"errors"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"

	"github.com/ethereum-optimism/infra/op-testreport/events"
	"github.com/ethereum-optimism/infra/op-testreport/types"
)

// Input is everything one finalize pass reads
type Input struct {
	Store  *events.Store
	Stats  *types.RunnerStats
	Config types.RunConfig
	// RunID identifies the report. A fresh one is generated when empty.
	RunID string
	Log   log.Logger
}

// Stats reports the anomalies a finalize pass tolerated
type Stats struct {
	Suites     int
	Tests      int
	HookSuites int

	AnnotationsApplied  int
	ScreenshotsAttached int
	AnnotationsRejected int
	// Leftover events that never matched a record
	UnmatchedMain int
	UnmatchedTest int

	UnlinkedSuites  int
	OrphanedSuites  int
	PromotedRoots   int
	UnattachedFiles []string

	RunnerCountsDisagree bool
}

// Finalize reconciles the store against the runner's lifecycle snapshot.
// It consumes the store's annotation buffers. Anomalies in the input are
// never fatal; they are counted in Stats.
func Finalize(in Input) (*types.OverallResult, Stats, error) {
	var stats Stats
	if in.Store == nil {
		return nil, stats, errors.New("no event store")
	}
	if in.Stats == nil {
		return nil, stats, errors.New("no runner stats")
	}
	logger := in.Log
	if logger == nil {
		logger = log.Root()
	}
	runID := in.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	arena := NewArena()
	counts := NewFileCounts()
	var merged MergeStats
	for _, runner := range in.Stats.Runners {
		for _, spec := range runner.Specs {
			file := spec.File()
			for _, data := range spec.Suites {
				suite := BuildSuite(runner.CID, file, data)
				arena.Add(suite)
				if IsHookSuite(data.Title) {
					stats.HookSuites++
					continue
				}
				for _, td := range data.Tests {
					test := BuildTest(runner.CID, data.Title, td)
					merged.add(MergeTestEvents(test, in.Store))
					if prev, ok := suite.Tests.Get(test.Title); ok {
						CarryOver(test, prev)
					}
					suite.Tests.Put(test)
					counts.Record(file, test.State)
					stats.Tests++
				}
			}
		}
	}
	stats.Suites = arena.Len()

	stats.UnlinkedSuites = LinkParents(arena, in.Store.SuiteEvents())
	forest := Resolve(arena)
	stats.OrphanedSuites = forest.Orphans
	stats.PromotedRoots = forest.Promoted
	if forest.Orphans > 0 || forest.Promoted > 0 {
		logger.Warn("Suites placed without a resolvable parent",
			"orphaned", forest.Orphans, "promoted", forest.Promoted)
	}

	merged.add(MergeMainEvents(&forest.Roots, in.Store))
	stats.AnnotationsApplied = merged.Applied
	stats.ScreenshotsAttached = merged.Screenshots
	stats.AnnotationsRejected = merged.Rejected
	if merged.Rejected > 0 {
		logger.Warn("Refused annotations with reserved keys", "count", merged.Rejected)
	}

	stats.UnattachedFiles = AttachCounts(&forest.Roots, counts)
	if len(stats.UnattachedFiles) > 0 {
		logger.Warn("Tests counted for files without a root", "files", stats.UnattachedFiles)
	}

	totals := counts.Total()
	overview := BuildOverview(in.Config, in.Stats, totals)
	if !runnerCountsAgree(in.Stats.Counts, totals) {
		stats.RunnerCountsDisagree = true
		logger.Debug("Runner reported different totals",
			"runnerTests", in.Stats.Counts.Tests, "tests", totals.TestCount,
			"runnerPasses", in.Stats.Counts.Passes, "passes", totals.PassCount,
			"runnerFailures", in.Stats.Counts.Failures, "failures", totals.FailCount,
			"runnerPending", in.Stats.Counts.Pending, "skipped", totals.SkipCount)
	}

	remaining := in.Store.Drain()
	stats.UnmatchedMain = len(remaining.Main)
	stats.UnmatchedTest = len(remaining.Test)
	for _, ev := range remaining.Main {
		logger.Debug("Dropping unmatched file annotation", "cid", ev.CID, "file", ev.File, "key", ev.Key)
	}
	for _, ev := range remaining.Test {
		switch ev.Kind {
		case types.EventCustomTest:
			logger.Debug("Dropping unmatched test annotation",
				"cid", ev.Test.CID, "title", ev.Test.Title, "parent", ev.Test.ParentTitle, "key", ev.Test.Key)
		case types.EventScreenshot:
			logger.Debug("Dropping unmatched screenshot",
				"cid", ev.Screenshot.CID, "title", ev.Screenshot.Title, "parent", ev.Screenshot.ParentTitle)
		}
	}

	logger.Debug("Finalized report", "runID", runID, "files", forest.Roots.Len(),
		"suites", stats.Suites, "tests", stats.Tests)

	return &types.OverallResult{
		RunID:    runID,
		Overview: overview,
		Suites:   forest.Roots,
	}, stats, nil
}
