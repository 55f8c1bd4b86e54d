// Package events buffers the raw telemetry a test run emits until the run
// is finalized.
package events

import (
	"fmt"
	"sync"

	"github.com/ethereum-optimism/infra/op-testreport/metrics"
	"github.com/ethereum-optimism/infra/op-testreport/types"
)

// Store holds the three append-only event buffers of a run. Test
// annotations and screenshots share one buffer since they are matched the
// same way.
type Store struct {
	mu     sync.Mutex
	main   []types.MainAnnotation
	test   []types.RawEvent
	suites []types.SuiteSnapshot
}

type appendFunc func(s *Store, ev types.RawEvent)

var dispatch = map[types.EventKind]appendFunc{
	types.EventCustomMain: func(s *Store, ev types.RawEvent) { s.main = append(s.main, *ev.Main) },
	types.EventCustomTest: func(s *Store, ev types.RawEvent) { s.test = append(s.test, ev) },
	types.EventScreenshot: func(s *Store, ev types.RawEvent) { s.test = append(s.test, ev) },
	types.EventSuiteEnd:   func(s *Store, ev types.RawEvent) { s.suites = append(s.suites, *ev.Suite) },
}

func NewStore() *Store {
	return &Store{}
}

// Append buffers an event in the buffer its kind maps to
func (s *Store) Append(ev types.RawEvent) error {
	if err := ev.Validate(); err != nil {
		return fmt.Errorf("invalid event: %w", err)
	}
	fn, ok := dispatch[ev.Kind]
	if !ok {
		return fmt.Errorf("no buffer for event kind %q", ev.Kind)
	}
	s.mu.Lock()
	fn(s, ev)
	s.mu.Unlock()
	metrics.RecordEvent(string(ev.Kind))
	return nil
}

// SuiteEvents returns a copy of the buffered suite:end snapshots
func (s *Store) SuiteEvents() []types.SuiteSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.SuiteSnapshot(nil), s.suites...)
}

// MainEvents returns a copy of the buffered file-level annotations
func (s *Store) MainEvents() []types.MainAnnotation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.MainAnnotation(nil), s.main...)
}

// TestEvents returns a copy of the buffered test annotations and screenshots
func (s *Store) TestEvents() []types.RawEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.RawEvent(nil), s.test...)
}

// TakeTestEvents removes and returns, in order, every test-level event
// match selects. Everything else stays buffered.
func (s *Store) TakeTestEvents(match func(types.RawEvent) bool) []types.RawEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []types.RawEvent
	matched, s.test = partition(s.test, match)
	return matched
}

// TakeMainEvents removes and returns, in order, every file-level annotation
// match selects
func (s *Store) TakeMainEvents(match func(types.MainAnnotation) bool) []types.MainAnnotation {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []types.MainAnnotation
	matched, s.main = partition(s.main, match)
	return matched
}

// Remaining holds the annotation events no record consumed
type Remaining struct {
	Main []types.MainAnnotation
	Test []types.RawEvent
}

// Len is the number of leftover events
func (r Remaining) Len() int {
	return len(r.Main) + len(r.Test)
}

// Drain empties the annotation buffers and returns what was left in them.
// Suite snapshots are kept; they are only read.
func (s *Store) Drain() Remaining {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := Remaining{Main: s.main, Test: s.test}
	s.main, s.test = nil, nil
	return r
}

// partition splits items into those match selects and the rest, keeping
// relative order in both
func partition[T any](items []T, match func(T) bool) (matched, rest []T) {
	rest = items[:0:0]
	for _, item := range items {
		if match(item) {
			matched = append(matched, item)
		} else {
			rest = append(rest, item)
		}
	}
	return matched, rest
}
