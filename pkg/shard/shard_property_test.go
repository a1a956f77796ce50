package shard_test

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/Julesc013/dominium-sub018/pkg/shard"
	"github.com/Julesc013/dominium-sub018/pkg/tile"
)

var resolutions = []tile.Resolution{tile.ResFull, tile.ResMedium, tile.ResCoarse, tile.ResAnalytic}

// TestIndexAddKeepsSortedOrder is a property test: regardless of
// insertion order, Index.Assignments stays sorted by (domain_id,
// resolution, tile_id) after every Add (SPEC_FULL.md §8's ordered-index
// property, exercised the way pkg/volume/ladder_test.go checks
// conservative containment across arbitrary draws).
func TestIndexAddKeepsSortedOrder(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		idx := shard.NewIndex(0)
		n := rapid.IntRange(0, 30).Draw(rt, "n")
		for i := 0; i < n; i++ {
			a := shard.Assignment{
				DomainID:   uint64(rapid.IntRange(0, 4).Draw(rt, "domainID")),
				TileID:     uint64(rapid.IntRange(0, 50).Draw(rt, "tileID")),
				Resolution: resolutions[rapid.IntRange(0, len(resolutions)-1).Draw(rt, "res")],
			}
			if err := idx.Add(a); err != nil {
				t.Fatalf("unexpected Add error: %v", err)
			}
		}

		for i := 1; i < len(idx.Assignments); i++ {
			prev, cur := idx.Assignments[i-1], idx.Assignments[i]
			if prev.DomainID > cur.DomainID {
				t.Fatalf("domain order violated at %d: %+v -> %+v", i, prev, cur)
			}
			if prev.DomainID == cur.DomainID && prev.Resolution > cur.Resolution {
				t.Fatalf("resolution order violated at %d: %+v -> %+v", i, prev, cur)
			}
			if prev.DomainID == cur.DomainID && prev.Resolution == cur.Resolution && prev.TileID > cur.TileID {
				t.Fatalf("tile order violated at %d: %+v -> %+v", i, prev, cur)
			}
		}
	})
}

// TestIndexAddNeverExceedsCapacity is a property test: a capacity-bounded
// Index never holds more assignments than its Capacity, and sets
// Overflow exactly when an Add is rejected.
func TestIndexAddNeverExceedsCapacity(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		capacity := uint32(rapid.IntRange(0, 10).Draw(rt, "capacity"))
		idx := shard.NewIndex(capacity)
		attempts := rapid.IntRange(0, 20).Draw(rt, "attempts")
		for i := 0; i < attempts; i++ {
			a := shard.Assignment{
				DomainID: uint64(i),
				TileID:   uint64(i),
			}
			err := idx.Add(a)
			if capacity > 0 && uint32(idx.Count()) > capacity {
				t.Fatalf("index holds %d assignments, exceeding capacity %d", idx.Count(), capacity)
			}
			if err != nil && !idx.Overflow {
				t.Fatalf("Add returned an error but Overflow was not set")
			}
		}
	})
}
