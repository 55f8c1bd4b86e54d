// Package reporting writes a reconciled report to its output artifacts
package reporting

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/sourcegraph/conc/pool"

	"github.com/ethereum-optimism/infra/op-testreport/metrics"
	"github.com/ethereum-optimism/infra/op-testreport/types"
)

var ErrNoOutputDir = errors.New("cannot write test result report: outputDir is empty or invalid")

// Sink persists a finished report
type Sink interface {
	Name() string
	Write(ctx context.Context, result *types.OverallResult) error
}

// SinkResult is the outcome of one sink write
type SinkResult struct {
	Sink     string
	Err      error
	Duration time.Duration
}

// Writer fans a report out to its sinks. Local sinks run concurrently;
// publishers run after them since they ship what the local sinks wrote.
type Writer struct {
	log        log.Logger
	local      []Sink
	publishers []Sink
}

func NewWriter(logger log.Logger, local []Sink, publishers []Sink) *Writer {
	return &Writer{log: logger, local: local, publishers: publishers}
}

// Write runs every sink. Sink failures are logged and counted but never
// returned; the results say which sinks failed.
func (w *Writer) Write(ctx context.Context, result *types.OverallResult) []SinkResult {
	results := w.run(ctx, result, w.local)
	if len(w.publishers) > 0 {
		results = append(results, w.run(ctx, result, w.publishers)...)
	}
	return results
}

func (w *Writer) run(ctx context.Context, result *types.OverallResult, sinks []Sink) []SinkResult {
	p := pool.NewWithResults[SinkResult]().WithContext(ctx)
	for _, sink := range sinks {
		p.Go(func(ctx context.Context) (SinkResult, error) {
			start := time.Now()
			err := sink.Write(ctx, result)
			res := SinkResult{Sink: sink.Name(), Err: err, Duration: time.Since(start)}
			metrics.RecordWrite(sink.Name(), err)
			if err != nil {
				w.log.Error("Failed to write report", "sink", sink.Name(), "err", err)
				metrics.RecordErrorDetails("sink."+sink.Name(), err)
			} else {
				w.log.Debug("Wrote report", "sink", sink.Name(), "duration", res.Duration)
			}
			return res, nil
		})
	}
	// The tasks never return an error
	results, _ := p.Wait()
	return results
}
