package reconcile

import (
	"github.com/ethereum-optimism/infra/op-testreport/types"
)

const noParent = -1

// Forest is the resolved per-file tree of suite records
type Forest struct {
	Roots types.FileRoots

	// Orphans were attached to a fallback parent of their file
	Orphans int
	// Promoted became their file's root without declaring themselves one
	Promoted int
}

// Resolve links the arena's flat records into one tree per file. Every
// record ends up reachable from exactly one root; none are dropped and no
// cycles are formed.
func Resolve(arena *Arena) Forest {
	recs := arena.All()
	r := &resolver{
		recs:      recs,
		parent:    make([]int, len(recs)),
		rootOf:    make(map[string]int),
		firstOf:   make(map[string]int),
		lastOf:    make(map[string]int),
		byTitleOf: make(map[string][]int),
	}
	for i, rec := range recs {
		r.parent[i] = noParent
		r.byTitleOf[titleKey(rec.File, rec.Title)] = append(r.byTitleOf[titleKey(rec.File, rec.Title)], i)
	}

	var forest Forest
	// The first root-like record of each file holds the root slot
	for i, rec := range recs {
		if rec.IsRootLike() {
			if _, ok := r.rootOf[rec.File]; !ok {
				r.rootOf[rec.File] = i
				forest.Roots.Put(rec.File, rec)
			}
		}
	}

	for i, rec := range recs {
		if _, ok := r.firstOf[rec.File]; !ok {
			r.firstOf[rec.File] = i
		}
		if root, ok := r.rootOf[rec.File]; ok && root == i {
			r.lastOf[rec.File] = i
			continue
		}
		if rec.HasParent {
			if p := r.findParent(i); p != noParent {
				r.parent[i] = p
				r.lastOf[rec.File] = p
				continue
			}
		}
		if p := r.fallback(i); p != noParent {
			r.parent[i] = p
			forest.Orphans++
			continue
		}
		// Nothing of this file has been placed yet
		r.rootOf[rec.File] = i
		r.lastOf[rec.File] = i
		forest.Roots.Put(rec.File, rec)
		forest.Promoted++
	}

	// Children are attached in insertion order once all links are known.
	// A child may precede its parent, so every list is cleared first.
	for _, rec := range recs {
		rec.NestedSuites = nil
	}
	for i, rec := range recs {
		if p := r.parent[i]; p != noParent {
			recs[p].NestedSuites = append(recs[p].NestedSuites, rec)
		}
	}
	return forest
}

type resolver struct {
	recs      []*types.SuiteRecord
	parent    []int
	rootOf    map[string]int
	firstOf   map[string]int
	lastOf    map[string]int
	byTitleOf map[string][]int
}

func titleKey(file, title string) string {
	return file + "\x00" + title
}

// findParent returns the first record of the same file titled after the
// record's parent that is not the record itself or one of its descendants
func (r *resolver) findParent(i int) int {
	rec := r.recs[i]
	for _, j := range r.byTitleOf[titleKey(rec.File, rec.ParentTitle)] {
		if !r.isDescendant(j, i) {
			return j
		}
	}
	return noParent
}

// fallback picks a parent for a record whose own parent can't be found:
// the last resolved parent of its file, the first record of its file, or
// the file root
func (r *resolver) fallback(i int) int {
	file := r.recs[i].File
	for _, lookup := range []map[string]int{r.lastOf, r.firstOf, r.rootOf} {
		if j, ok := lookup[file]; ok && !r.isDescendant(j, i) {
			return j
		}
	}
	return noParent
}

// isDescendant reports whether j is i or lies below i
func (r *resolver) isDescendant(j, i int) bool {
	for k := j; k != noParent; k = r.parent[k] {
		if k == i {
			return true
		}
	}
	return false
}
