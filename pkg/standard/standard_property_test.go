package standard_test

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/Julesc013/dominium-sub018/pkg/volume"
)

// TestStandardBudgetMonotonic is a property test: across arbitrary
// definition ids, UsedUnits only ever increases and never exceeds
// MaxUnits (SPEC_FULL.md §8 property 1), mirroring
// pkg/volume/ladder_test.go's TestBudgetMonotonic.
func TestStandardBudgetMonotonic(t *testing.T) {
	d := newPopulatedDomain()

	rapid.Check(t, func(rt *rapid.T) {
		max := uint32(rapid.IntRange(0, 500).Draw(rt, "max"))
		budget := volume.NewBudget(max)
		prev := uint32(0)
		for i := 0; i < 5; i++ {
			id := uint32(rapid.IntRange(0, 5).Draw(rt, "standardID"))
			d.DefinitionQuery(id, budget)
			if budget.UsedUnits < prev {
				t.Fatalf("UsedUnits decreased: %d -> %d", prev, budget.UsedUnits)
			}
			if budget.UsedUnits > budget.MaxUnits {
				t.Fatalf("UsedUnits %d exceeded MaxUnits %d", budget.UsedUnits, budget.MaxUnits)
			}
			prev = budget.UsedUnits
		}
	})
}

// TestStandardRefusalNeverReportsExact is a property test: whenever a
// query refuses (non-OK status), it never simultaneously claims Exact
// confidence.
func TestStandardRefusalNeverReportsExact(t *testing.T) {
	d := newPopulatedDomain()

	rapid.Check(t, func(rt *rapid.T) {
		max := uint32(rapid.IntRange(0, 10).Draw(rt, "max"))
		id := uint32(rapid.IntRange(0, 5).Draw(rt, "standardID"))
		budget := volume.NewBudget(max)
		sample := d.DefinitionQuery(id, budget)
		if sample.Meta.Status != volume.StatusOK && sample.Meta.Confidence == volume.ConfidenceExact {
			t.Fatalf("refused query reported ConfidenceExact: %+v", sample.Meta)
		}
	})
}

// TestStandardResolveIsIdempotentAtFixedTick is a property test: calling
// Resolve twice at the same tick with an unbounded budget applies zero
// new events the second time, since FlagEventApplied makes the event's
// apply a no-op on replay (SPEC_FULL.md §8's idempotent-resolve
// property).
func TestStandardResolveIsIdempotentAtFixedTick(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		d := newPopulatedDomain()
		tick := uint64(rapid.IntRange(0, 200).Draw(rt, "tick"))
		budget := volume.NewBudget(10000)
		d.Resolve(1, tick, 0, budget)
		second := d.Resolve(1, tick, 0, budget)
		if second.EventAppliedCount != 0 {
			t.Fatalf("second Resolve at the same tick applied %d new events, want 0", second.EventAppliedCount)
		}
	})
}
