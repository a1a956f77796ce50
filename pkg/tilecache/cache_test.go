package tilecache_test

import (
	"testing"

	"github.com/Julesc013/dominium-sub018/pkg/tile"
	"github.com/Julesc013/dominium-sub018/pkg/tilecache"
	"pgregory.net/rapid"
)

func TestPutZeroCapacityReturnsNil(t *testing.T) {
	var c tilecache.Cache
	tl := tile.Tile{Descriptor: tile.Descriptor{TileID: 1, SampleDim: 1}}
	if got := c.Put(1, &tl); got != nil {
		t.Fatalf("Put on zero-capacity cache = %v, want nil", got)
	}
}

func TestPutMovesCallerTile(t *testing.T) {
	var c tilecache.Cache
	c.Reserve(2)
	tl := tile.Tile{Descriptor: tile.Descriptor{TileID: 1, SampleDim: 1}}
	got := c.Put(1, &tl)
	if got == nil {
		t.Fatal("expected Put to succeed")
	}
	if !tl.Empty() {
		t.Fatal("caller's tile should be emptied after Put (move semantics)")
	}
}

func TestPeekDoesNotAffectEviction(t *testing.T) {
	var c tilecache.Cache
	c.Reserve(1)
	tl := tile.Tile{Descriptor: tile.Descriptor{TileID: 1, SampleDim: 1}}
	c.Put(1, &tl)

	// Peek repeatedly; it must not change which entry is evicted next.
	for i := 0; i < 5; i++ {
		c.Peek(1, 1, tile.ResFull, 0)
	}

	tl2 := tile.Tile{Descriptor: tile.Descriptor{TileID: 2, SampleDim: 1}}
	c.Put(1, &tl2) // capacity 1: must evict tile 1 regardless of Peek calls.
	if _, ok := c.Peek(1, 1, tile.ResFull, 0); ok {
		t.Fatal("tile 1 should have been evicted despite intervening Peek calls")
	}
	if _, ok := c.Peek(1, 2, tile.ResFull, 0); !ok {
		t.Fatal("tile 2 should be resident")
	}
}

func TestEvictionPicksInvalidSlotFirst(t *testing.T) {
	var c tilecache.Cache
	c.Reserve(2)
	a := tile.Tile{Descriptor: tile.Descriptor{TileID: 1, SampleDim: 1}}
	c.Put(1, &a)
	// Second slot is still invalid; inserting a new tile must land there,
	// not evict the first.
	b := tile.Tile{Descriptor: tile.Descriptor{TileID: 2, SampleDim: 1}}
	c.Put(1, &b)
	if _, ok := c.Peek(1, 1, tile.ResFull, 0); !ok {
		t.Fatal("first tile should not have been evicted while an invalid slot remained")
	}
	if _, ok := c.Peek(1, 2, tile.ResFull, 0); !ok {
		t.Fatal("second tile should be resident")
	}
}

func TestEvictionTieBreaksOnInsertOrder(t *testing.T) {
	var c tilecache.Cache
	c.Reserve(2)
	a := tile.Tile{Descriptor: tile.Descriptor{TileID: 1, SampleDim: 1}}
	c.Put(1, &a)
	b := tile.Tile{Descriptor: tile.Descriptor{TileID: 2, SampleDim: 1}}
	c.Put(1, &b)
	// Every Put and Get stamps a distinct last_used value from the use
	// counter, so two valid entries never share last_used and the
	// insert_order tie-break is not reachable through Put/Get. This test
	// therefore checks the path around it: after InvalidateAll both slots
	// are invalid (insert_order is kept, not reset), and a new Put reuses
	// an invalid slot.
	c.InvalidateAll()
	d := tile.Tile{Descriptor: tile.Descriptor{TileID: 3, SampleDim: 1}}
	got := c.Put(1, &d)
	if got == nil {
		t.Fatal("expected reuse after InvalidateAll to succeed")
	}
}

func TestInvalidateDomainOnlyAffectsThatDomain(t *testing.T) {
	var c tilecache.Cache
	c.Reserve(2)
	a := tile.Tile{Descriptor: tile.Descriptor{TileID: 1, SampleDim: 1}}
	c.Put(1, &a)
	b := tile.Tile{Descriptor: tile.Descriptor{TileID: 1, SampleDim: 1}}
	c.Put(2, &b)

	c.InvalidateDomain(1)
	if _, ok := c.Peek(1, 1, tile.ResFull, 0); ok {
		t.Fatal("domain 1 entry should be invalidated")
	}
	if _, ok := c.Peek(2, 1, tile.ResFull, 0); !ok {
		t.Fatal("domain 2 entry should be untouched")
	}
}

// TestDeterministicResidency is a property test over random access
// sequences: two independently driven caches of identical capacity, fed
// the identical sequence of Put operations, must reach identical
// residency and eviction decisions (property 6, SPEC_FULL.md §8).
func TestDeterministicResidency(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		capacity := uint32(rapid.IntRange(1, 4).Draw(rt, "capacity"))
		ops := rapid.SliceOfN(rapid.IntRange(0, 5), 1, 20).Draw(rt, "ops")

		var c1, c2 tilecache.Cache
		c1.Reserve(capacity)
		c2.Reserve(capacity)

		for _, id := range ops {
			tid := uint64(id)
			t1 := tile.Tile{Descriptor: tile.Descriptor{TileID: tid, SampleDim: 1}}
			t2 := tile.Tile{Descriptor: tile.Descriptor{TileID: tid, SampleDim: 1}}
			c1.Put(1, &t1)
			c2.Put(1, &t2)
		}

		for id := 0; id < 6; id++ {
			_, ok1 := c1.Peek(1, uint64(id), tile.ResFull, 0)
			_, ok2 := c2.Peek(1, uint64(id), tile.ResFull, 0)
			if ok1 != ok2 {
				t.Fatalf("residency diverged for tile %d: %v vs %v", id, ok1, ok2)
			}
		}
	})
}
