package types

import "fmt"

// EventKind tags the variant carried by a RawEvent
type EventKind string

const (
	EventCustomMain EventKind = "custom:main"
	EventCustomTest EventKind = "custom:test"
	EventScreenshot EventKind = "runner:screenshot"
	EventSuiteEnd   EventKind = "suite:end"
)

// IsValid reports whether the kind is one of the known event kinds
func (k EventKind) IsValid() bool {
	switch k {
	case EventCustomMain, EventCustomTest, EventScreenshot, EventSuiteEnd:
		return true
	}
	return false
}

// MainAnnotation is a file-scoped custom metadatum
type MainAnnotation struct {
	CID   string
	File  string
	Key   string
	Value string
}

// TestAnnotation is a custom metadatum for a single test
type TestAnnotation struct {
	CID         string
	File        string
	Title       string
	ParentTitle string
	Key         string
	Value       string
}

// ScreenshotEvent records an image captured while a test was running
type ScreenshotEvent struct {
	CID         string
	Title       string
	ParentTitle string
	ImagePath   string
}

// SuiteSnapshot is emitted once per suite when it ends and carries the
// parent linkage the lifecycle snapshot lacks
type SuiteSnapshot struct {
	CID         string
	Title       string
	ParentTitle string
	HasParent   bool // runners omit the parent for some suites
	File        string
}

// RawEvent is a tagged union. Exactly one payload matching Kind is set.
type RawEvent struct {
	Kind       EventKind
	Main       *MainAnnotation
	Test       *TestAnnotation
	Screenshot *ScreenshotEvent
	Suite      *SuiteSnapshot
}

func NewMainAnnotationEvent(a MainAnnotation) RawEvent {
	return RawEvent{Kind: EventCustomMain, Main: &a}
}

func NewTestAnnotationEvent(a TestAnnotation) RawEvent {
	return RawEvent{Kind: EventCustomTest, Test: &a}
}

func NewScreenshotEvent(s ScreenshotEvent) RawEvent {
	return RawEvent{Kind: EventScreenshot, Screenshot: &s}
}

func NewSuiteEndEvent(s SuiteSnapshot) RawEvent {
	return RawEvent{Kind: EventSuiteEnd, Suite: &s}
}

// Validate checks that the payload matches the kind tag
func (e RawEvent) Validate() error {
	var ok bool
	switch e.Kind {
	case EventCustomMain:
		ok = e.Main != nil
	case EventCustomTest:
		ok = e.Test != nil
	case EventScreenshot:
		ok = e.Screenshot != nil
	case EventSuiteEnd:
		ok = e.Suite != nil
	default:
		return fmt.Errorf("unknown event kind %q", e.Kind)
	}
	if !ok {
		return fmt.Errorf("event %q has no matching payload", e.Kind)
	}
	return nil
}

// TestKey is the composite identity shared by tests and their annotations
type TestKey struct {
	CID         string
	Title       string
	ParentTitle string
}

func (a *TestAnnotation) TestKey() TestKey {
	return TestKey{CID: a.CID, Title: a.Title, ParentTitle: a.ParentTitle}
}

func (s *ScreenshotEvent) TestKey() TestKey {
	return TestKey{CID: s.CID, Title: s.Title, ParentTitle: s.ParentTitle}
}
