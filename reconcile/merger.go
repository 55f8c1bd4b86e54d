package reconcile

import (
	"path"
	"strings"

	"github.com/ethereum-optimism/infra/op-testreport/events"
	"github.com/ethereum-optimism/infra/op-testreport/types"
)

// MergeStats counts what a merge did with the events it consumed
type MergeStats struct {
	Applied     int
	Screenshots int
	Rejected    int
}

func (m *MergeStats) add(o MergeStats) {
	m.Applied += o.Applied
	m.Screenshots += o.Screenshots
	m.Rejected += o.Rejected
}

// MergeTestEvents applies every buffered annotation and screenshot whose
// (cid, title, parent) matches test, consuming them from store. Running it
// again for the same test finds nothing left to apply.
func MergeTestEvents(test *types.TestRecord, store *events.Store) MergeStats {
	key := test.Key()
	matched := store.TakeTestEvents(func(ev types.RawEvent) bool {
		switch ev.Kind {
		case types.EventCustomTest:
			return ev.Test.TestKey() == key
		case types.EventScreenshot:
			return ev.Screenshot.TestKey() == key
		}
		return false
	})

	var stats MergeStats
	for _, ev := range matched {
		switch ev.Kind {
		case types.EventScreenshot:
			if ev.Screenshot.ImagePath == "" {
				continue
			}
			test.Screenshots = append(test.Screenshots, imageBasename(ev.Screenshot.ImagePath))
			stats.Screenshots++
		case types.EventCustomTest:
			if types.IsReservedTestKey(ev.Test.Key) {
				stats.Rejected++
				continue
			}
			test.Annotations.Set(ev.Test.Key, ev.Test.Value)
			stats.Applied++
		}
	}
	return stats
}

// CarryOver moves what prev already consumed onto test, which replaces it
// under the same title. Annotations of test override those of prev.
func CarryOver(test, prev *types.TestRecord) {
	test.Screenshots = append(append([]string(nil), prev.Screenshots...), test.Screenshots...)
	var annotations types.Annotations
	for _, a := range []*types.Annotations{&prev.Annotations, &test.Annotations} {
		for _, k := range a.Keys() {
			v, _ := a.Get(k)
			annotations.Set(k, v)
		}
	}
	test.Annotations = annotations
}

// MergeMainEvents applies buffered file-level annotations to the file root
// with the same (cid, file). Only events that match a root are consumed;
// the rest stay buffered.
func MergeMainEvents(roots *types.FileRoots, store *events.Store) MergeStats {
	var stats MergeStats
	for _, root := range roots.Roots() {
		matched := store.TakeMainEvents(func(ev types.MainAnnotation) bool {
			return ev.CID == root.CID && ev.File == root.File
		})
		for _, ev := range matched {
			key := strings.ReplaceAll(ev.Key, "-", "_")
			if types.IsReservedSuiteKey(key) {
				stats.Rejected++
				continue
			}
			root.Annotations.Set(key, ev.Value)
			stats.Applied++
		}
	}
	return stats
}

// imageBasename keeps only the file name of a screenshot path. Composing
// the display path is up to the renderer.
func imageBasename(p string) string {
	return path.Base(strings.ReplaceAll(p, "\\", "/"))
}
