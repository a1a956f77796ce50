package institution_test

import (
	"testing"

	"github.com/Julesc013/dominium-sub018/pkg/fixedpoint"
	"github.com/Julesc013/dominium-sub018/pkg/institution"
	"github.com/Julesc013/dominium-sub018/pkg/volume"
)

func newPopulatedDomain() *institution.Domain {
	d := institution.New(1)
	d.Entities = []institution.Entity{
		{InstitutionID: 1, ScopeID: 1, RegionID: 1, EnforcementCapacity: fixedpoint.Int32ToQ48(10), ResourceBudget: fixedpoint.Int32ToQ48(20), LegitimacyLevel: fixedpoint.Int32ToQ16(1) / 2},
		{InstitutionID: 2, ScopeID: 1, RegionID: 1, EnforcementCapacity: fixedpoint.Int32ToQ48(20), ResourceBudget: fixedpoint.Int32ToQ48(40), LegitimacyLevel: fixedpoint.Int32ToQ16(1)},
	}
	d.Rules = []institution.Rule{
		{RuleID: 1, InstitutionID: 1, ScopeID: 1, Action: institution.RuleAllow, RegionID: 1},
	}
	d.Enforcements = []institution.Enforcement{
		{EnforcementID: 1, InstitutionID: 1, RuleID: 1, Action: institution.EnforcePermit, EventTick: 5, RegionID: 1},
		{EnforcementID: 2, InstitutionID: 1, RuleID: 1, Action: institution.EnforceDeny, EventTick: 100, RegionID: 1},
	}
	return d
}

func TestEntityQueryExact(t *testing.T) {
	d := newPopulatedDomain()
	budget := volume.NewBudget(1000)
	sample := d.EntityQuery(1, budget)
	if sample.Meta.Status != volume.StatusOK || sample.Meta.Confidence != volume.ConfidenceExact {
		t.Fatalf("expected OK/exact, got %+v", sample.Meta)
	}
	if sample.InstitutionID != 1 {
		t.Fatalf("wrong entity returned: %+v", sample.Entity)
	}
}

func TestEntityQueryMissingRefuses(t *testing.T) {
	d := newPopulatedDomain()
	budget := volume.NewBudget(1000)
	sample := d.EntityQuery(999, budget)
	if sample.Meta.Status != volume.StatusRefused || sample.Meta.RefusalReason != volume.RefuseNoSource {
		t.Fatalf("expected RefuseNoSource, got %+v", sample.Meta)
	}
}

func TestEntityQueryRefusesWhenInactive(t *testing.T) {
	d := newPopulatedDomain()
	d.SetState(volume.ExistenceNonexistent, volume.ArchivalLive)
	budget := volume.NewBudget(1000)
	sample := d.EntityQuery(1, budget)
	if sample.Meta.Status != volume.StatusRefused || sample.Meta.RefusalReason != volume.RefuseDomainInactive {
		t.Fatalf("expected RefuseDomainInactive, got %+v", sample.Meta)
	}
}

func TestRegionQueryAggregatesAcrossEntities(t *testing.T) {
	d := newPopulatedDomain()
	budget := volume.NewBudget(1000)
	sample := d.RegionQuery(1, budget)
	if sample.Meta.Status != volume.StatusOK {
		t.Fatalf("expected OK, got %+v", sample.Meta)
	}
	if sample.EntityCount != 2 {
		t.Fatalf("expected 2 entities in region, got %d", sample.EntityCount)
	}
	wantAvgCapacity := fixedpoint.Int32ToQ48(15)
	if sample.EnforcementCapacityAvg != wantAvgCapacity {
		t.Fatalf("average enforcement capacity = %d, want %d", sample.EnforcementCapacityAvg, wantAvgCapacity)
	}
}

func TestResolveAppliesDueEnforcementsIdempotently(t *testing.T) {
	d := newPopulatedDomain()
	budget := volume.NewBudget(1000)

	res1 := d.Resolve(0, 10, 1, budget)
	if !res1.OK {
		t.Fatalf("expected resolve to succeed: %+v", res1)
	}
	if res1.EnforcementAppliedCount != 1 {
		t.Fatalf("expected exactly 1 enforcement applied at tick 10 (only event_tick=5 is due), got %d", res1.EnforcementAppliedCount)
	}

	// Re-resolving at a later tick must not re-apply the already-applied
	// enforcement, but should pick up the one that just became due.
	res2 := d.Resolve(0, 200, 1, budget)
	if !res2.OK {
		t.Fatalf("expected second resolve to succeed: %+v", res2)
	}
	if res2.EnforcementAppliedCount != 1 {
		t.Fatalf("expected exactly 1 newly-applied enforcement (event_tick=100), got %d", res2.EnforcementAppliedCount)
	}

	res3 := d.Resolve(0, 200, 1, budget)
	if res3.EnforcementAppliedCount != 0 {
		t.Fatalf("expected 0 newly-applied enforcements on third resolve (all already applied), got %d", res3.EnforcementAppliedCount)
	}
}

func TestCollapseExpandRegionRoundTrip(t *testing.T) {
	d := newPopulatedDomain()
	if !d.CollapseRegion(1) {
		t.Fatal("expected CollapseRegion to succeed")
	}
	if d.CollapseRegion(1) {
		t.Fatal("expected a second CollapseRegion on the same region to fail")
	}
	if d.CapsuleCount() != 1 {
		t.Fatalf("expected 1 capsule, got %d", d.CapsuleCount())
	}

	budget := volume.NewBudget(1000)
	sample := d.EntityQuery(1, budget)
	if sample.Flags&institution.FlagCollapsed == 0 {
		t.Fatalf("expected collapsed flag on entity query after region collapse, got %+v", sample)
	}

	if !d.ExpandRegion(1) {
		t.Fatal("expected ExpandRegion to succeed")
	}
	if d.CapsuleCount() != 0 {
		t.Fatalf("expected 0 capsules after expand, got %d", d.CapsuleCount())
	}
	sample2 := d.EntityQuery(1, budget)
	if sample2.Meta.Confidence != volume.ConfidenceExact {
		t.Fatalf("expected exact confidence after expand, got %+v", sample2.Meta)
	}
}

func TestRegionQueryPartialOnBudgetExhaustion(t *testing.T) {
	d := newPopulatedDomain()
	// Budget covers the base cost and exactly one entity visit.
	budget := volume.NewBudget(budgetFor(d) + d.Policy.CostMedium)
	sample := d.RegionQuery(1, budget)
	if sample.Flags&institution.FlagResolvePartial == 0 {
		t.Fatalf("expected RESOLVE_PARTIAL under exhausted budget, got %+v", sample)
	}
	if sample.Meta.Confidence != volume.ConfidenceUnknown {
		t.Fatalf("partial aggregates must report unknown confidence, got %v", sample.Meta.Confidence)
	}
}

func budgetFor(d *institution.Domain) uint32 {
	if d.Policy.CostAnalytic == 0 {
		return 1
	}
	return d.Policy.CostAnalytic
}
