package reconcile

import (
	"github.com/ethereum-optimism/infra/op-testreport/types"
)

// FileCounts accumulates test totals per spec file across specs and workers
type FileCounts struct {
	files  []string
	counts map[string]*types.AggregateCount
}

func NewFileCounts() *FileCounts {
	return &FileCounts{counts: make(map[string]*types.AggregateCount)}
}

func (f *FileCounts) ensure(file string) *types.AggregateCount {
	c, ok := f.counts[file]
	if !ok {
		c = &types.AggregateCount{}
		f.counts[file] = c
		f.files = append(f.files, file)
	}
	return c
}

// Record counts one test of file in the given state
func (f *FileCounts) Record(file string, state types.TestState) {
	f.ensure(file).Record(state)
}

// Get returns the totals of file, zero if it had no tests
func (f *FileCounts) Get(file string) types.AggregateCount {
	if c, ok := f.counts[file]; ok {
		return *c
	}
	return types.AggregateCount{}
}

// Files returns the files that had tests, in the order first seen
func (f *FileCounts) Files() []string {
	return append([]string(nil), f.files...)
}

// Total sums the totals of all files
func (f *FileCounts) Total() types.AggregateCount {
	var total types.AggregateCount
	for _, file := range f.files {
		total.Add(*f.counts[file])
	}
	return total
}

// AttachCounts sets each file root's totals from counts. Roots of files
// without tests get zero totals. It returns the files that have counts but
// no root.
func AttachCounts(roots *types.FileRoots, counts *FileCounts) []string {
	for _, root := range roots.Roots() {
		c := counts.Get(root.File)
		root.Counts = &c
	}
	var unattached []string
	for _, file := range counts.Files() {
		if _, ok := roots.Get(file); !ok {
			unattached = append(unattached, file)
		}
	}
	return unattached
}
