package reconcile

import (
	"github.com/ethereum-optimism/infra/op-testreport/types"
)

type linkKey struct {
	cid   string
	title string
	file  string
}

// LinkParents copies parent titles from suite:end snapshots onto the
// records, which the lifecycle snapshot does not carry. Each snapshot is
// claimed by at most one record: records take the unclaimed snapshots with
// the same (cid, title, file) in order, and fall back to an unclaimed one
// with the same (title, file) from any worker. Records left without a
// snapshot keep no parent and are placed by the resolver. It returns the
// number of records that got no snapshot.
func LinkParents(arena *Arena, snapshots []types.SuiteSnapshot) int {
	claimed := make([]bool, len(snapshots))
	exact := make(map[linkKey][]int)
	loose := make(map[linkKey][]int)
	for i, snap := range snapshots {
		k := linkKey{snap.CID, snap.Title, snap.File}
		exact[k] = append(exact[k], i)
		lk := linkKey{title: snap.Title, file: snap.File}
		loose[lk] = append(loose[lk], i)
	}

	next := func(candidates []int) int {
		for _, i := range candidates {
			if !claimed[i] {
				return i
			}
		}
		return -1
	}

	unlinked := 0
	for _, rec := range arena.All() {
		i := next(exact[linkKey{rec.CID, rec.Title, rec.File}])
		if i < 0 {
			i = next(loose[linkKey{title: rec.Title, file: rec.File}])
		}
		if i < 0 {
			unlinked++
			continue
		}
		claimed[i] = true
		rec.HasParent = snapshots[i].HasParent
		rec.ParentTitle = snapshots[i].ParentTitle
	}
	return unlinked
}
