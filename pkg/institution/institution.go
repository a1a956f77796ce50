// Package institution implements deterministic institution, law, and
// governance field resolution: fixed-capacity entity/scope/capability/
// rule/enforcement tables, single-record and per-region queries, an
// idempotent enforcement-event resolve pass, and region collapse/expand
// into macro capsules for distance-based detail reduction.
package institution

import (
	"github.com/Julesc013/dominium-sub018/pkg/fixedpoint"
	"github.com/Julesc013/dominium-sub018/pkg/tile"
	"github.com/Julesc013/dominium-sub018/pkg/volume"
)

const (
	MaxAuthorityTypes = 8
	MaxSubjectDomains = 8
	HistBins          = 4
	ActionBins        = 4
	ratioOne          = fixedpoint.Q16(1 << 16)
)

// RuleAction enumerates what a rule permits, forbids, or conditions.
type RuleAction uint32

const (
	RuleUnset RuleAction = iota
	RuleAllow
	RuleForbid
	RuleConditional
	RuleLicense
)

// EnforcementAction enumerates the outcome an enforcement event records.
type EnforcementAction uint32

const (
	EnforceUnset EnforcementAction = iota
	EnforcePermit
	EnforceDeny
	EnforcePenalize
	EnforceLicense
)

// Flags carried on samples and resolve results.
const (
	FlagUnresolved        uint32 = 1 << 0
	FlagCollapsed         uint32 = 1 << 1
	FlagLicenseRequired   uint32 = 1 << 2
	FlagConditional       uint32 = 1 << 2
	FlagApplied           uint32 = 1 << 1
	FlagResolvePartial    uint32 = 1 << 0
	FlagResolveEventsUsed uint32 = 1 << 1
)

func actionIndex(action EnforcementAction) int {
	switch action {
	case EnforcePermit:
		return 0
	case EnforceDeny:
		return 1
	case EnforcePenalize:
		return 2
	case EnforceLicense:
		return 3
	default:
		return 0
	}
}

func clampRatio(v fixedpoint.Q16) fixedpoint.Q16 {
	return fixedpoint.ClampQ16(v, 0, ratioOne)
}

func ratioFromCounts(count, total uint32) fixedpoint.Q16 {
	if total == 0 {
		return 0
	}
	return fixedpoint.Q16((uint64(count) << fixedpoint.FracBits) / uint64(total))
}

func histBin(ratio fixedpoint.Q16) int {
	clamped := clampRatio(ratio)
	scaled := (int64(clamped) * (HistBins - 1)) >> fixedpoint.FracBits
	if scaled >= HistBins {
		scaled = HistBins - 1
	}
	return int(scaled)
}

// Entity is an institutional actor: an authority holder bound to a scope.
type Entity struct {
	InstitutionID       uint32
	ScopeID             uint32
	AuthorityCount      uint32
	AuthorityTypes      [MaxAuthorityTypes]uint32
	EnforcementCapacity fixedpoint.Q48
	ResourceBudget      fixedpoint.Q48
	LegitimacyLevel     fixedpoint.Q16
	LegitimacyRefID     uint32
	KnowledgeBaseID     uint32
	ProvenanceID        uint32
	RegionID            uint32
	Flags               uint32
}

// Scope binds a spatial domain to the subject domains an institution's
// authority reaches over.
type Scope struct {
	ScopeID            uint32
	SpatialDomainID    uint32
	SubjectDomainCount uint32
	SubjectDomainIDs   [MaxSubjectDomains]uint32
	OverlapPolicyID    uint32
	ProvenanceID       uint32
	RegionID           uint32
	Flags              uint32
}

// Capability grants an institution the capacity to act within a scope.
type Capability struct {
	CapabilityID      uint32
	InstitutionID     uint32
	ScopeID           uint32
	AuthorityTypeID   uint32
	ProcessFamilyID   uint32
	CapacityLimit     fixedpoint.Q48
	LicenseRequiredID uint32
	ProvenanceID      uint32
	RegionID          uint32
	Flags             uint32
}

// Rule is a standing allow/forbid/conditional/license declaration.
type Rule struct {
	RuleID            uint32
	InstitutionID     uint32
	ScopeID           uint32
	ProcessFamilyID   uint32
	SubjectDomainID   uint32
	AuthorityTypeID   uint32
	Action            RuleAction
	LicenseRequiredID uint32
	ProvenanceID      uint32
	RegionID          uint32
	Flags             uint32
}

// Enforcement is a recorded application of a rule against an agent at a
// tick; Resolve applies it (idempotently) once event_tick is reached.
type Enforcement struct {
	EnforcementID   uint32
	InstitutionID   uint32
	RuleID          uint32
	ProcessFamilyID uint32
	AgentID         uint32
	Action          EnforcementAction
	EventTick       uint64
	ProvenanceID    uint32
	RegionID        uint32
	Flags           uint32
}

func (e *Enforcement) apply(tick uint64, actionCounts *[ActionBins]uint32) bool {
	if e.Flags&FlagApplied != 0 {
		return false
	}
	if e.EventTick > tick {
		return false
	}
	e.Flags |= FlagApplied
	if actionCounts != nil {
		actionCounts[actionIndex(e.Action)]++
	}
	return true
}

// MacroCapsule is a region's collapsed, aggregate representation.
type MacroCapsule struct {
	CapsuleID               uint64
	RegionID                uint32
	EntityCount             uint32
	ScopeCount              uint32
	CapabilityCount         uint32
	RuleCount               uint32
	EnforcementCount        uint32
	EnforcementCapacityAvg  fixedpoint.Q48
	ResourceBudgetAvg       fixedpoint.Q48
	LegitimacyAvg           fixedpoint.Q16
	LegitimacyHist          [HistBins]fixedpoint.Q16
	EnforcementActionCounts [ActionBins]uint32
}

// Domain holds one institution domain's full record set.
type Domain struct {
	DomainID         uint64
	AuthoringVersion uint32
	Existence        volume.ExistenceState
	Archival         volume.ArchivalState
	Policy           volume.Policy

	Entities     []Entity
	Scopes       []Scope
	Capabilities []Capability
	Rules        []Rule
	Enforcements []Enforcement
	Capsules     []MacroCapsule
}

// New returns a domain with default policy and REALIZED/LIVE state,
// matching dom_institution_domain_init's defaults (the institution domain,
// unlike a bare SDF volume, starts realized: its records are authored
// data, not something that needs to be sampled into existence).
func New(domainID uint64) *Domain {
	return &Domain{
		DomainID:         domainID,
		AuthoringVersion: 1,
		Existence:        volume.ExistenceRealized,
		Archival:         volume.ArchivalLive,
		Policy:           volume.DefaultPolicy(),
	}
}

func (d *Domain) isActive() bool {
	if d == nil {
		return false
	}
	return d.Existence != volume.ExistenceNonexistent && d.Existence != volume.ExistenceDeclared
}

// SetState updates existence/archival state.
func (d *Domain) SetState(existence volume.ExistenceState, archival volume.ArchivalState) {
	d.Existence = existence
	d.Archival = archival
}

// SetPolicy replaces the domain's cost-ladder policy (used only to derive
// query costs here; institution records have no spatial resolution rungs).
func (d *Domain) SetPolicy(p volume.Policy) {
	d.Policy = p
}

func (d *Domain) regionCollapsed(regionID uint32) bool {
	if regionID == 0 {
		return false
	}
	for i := range d.Capsules {
		if d.Capsules[i].RegionID == regionID {
			return true
		}
	}
	return false
}

func (d *Domain) findCapsule(regionID uint32) *MacroCapsule {
	for i := range d.Capsules {
		if d.Capsules[i].RegionID == regionID {
			return &d.Capsules[i]
		}
	}
	return nil
}

func budgetCost(cost uint32) uint32 {
	if cost == 0 {
		return 1
	}
	return cost
}

func refusedMeta(reason volume.RefusalReason, b *volume.Budget) volume.QueryMeta {
	m := volume.QueryMeta{
		Status:        volume.StatusRefused,
		Resolution:    tile.ResRefused,
		Confidence:    volume.ConfidenceUnknown,
		RefusalReason: reason,
	}
	if b != nil {
		m.BudgetUsed = b.UsedUnits
		m.BudgetMax = b.MaxUnits
	}
	return m
}

func okMeta(confidence volume.Confidence, cost uint32, b *volume.Budget) volume.QueryMeta {
	m := volume.QueryMeta{
		Status:     volume.StatusOK,
		Resolution: tile.ResAnalytic,
		Confidence: confidence,
		CostUnits:  cost,
	}
	if b != nil {
		m.BudgetUsed = b.UsedUnits
		m.BudgetMax = b.MaxUnits
	}
	return m
}

// EntitySample is the result of EntityQuery.
type EntitySample struct {
	Entity
	Flags uint32
	Meta  volume.QueryMeta
}

// EntityQuery looks up a single entity record by id.
func (d *Domain) EntityQuery(institutionID uint32, budget *volume.Budget) EntitySample {
	var out EntitySample
	out.Flags = FlagUnresolved
	if !d.isActive() {
		out.Meta = refusedMeta(volume.RefuseDomainInactive, budget)
		return out
	}
	cost := budgetCost(d.Policy.CostFull)
	if !budget.Consume(cost) {
		out.Meta = refusedMeta(volume.RefuseBudget, budget)
		return out
	}
	idx := -1
	for i := range d.Entities {
		if d.Entities[i].InstitutionID == institutionID {
			idx = i
			break
		}
	}
	if idx < 0 {
		out.Meta = refusedMeta(volume.RefuseNoSource, budget)
		return out
	}
	e := d.Entities[idx]
	if d.regionCollapsed(e.RegionID) {
		out.InstitutionID = e.InstitutionID
		out.RegionID = e.RegionID
		out.Flags = FlagCollapsed
		out.Meta = okMeta(volume.ConfidenceUnknown, cost, budget)
		return out
	}
	out.Entity = e
	out.Flags = e.Flags
	out.Meta = okMeta(volume.ConfidenceExact, cost, budget)
	return out
}

// ScopeSample is the result of ScopeQuery.
type ScopeSample struct {
	Scope
	Meta volume.QueryMeta
}

// ScopeQuery looks up a single scope record by id.
func (d *Domain) ScopeQuery(scopeID uint32, budget *volume.Budget) ScopeSample {
	var out ScopeSample
	out.Flags = FlagUnresolved
	if !d.isActive() {
		out.Meta = refusedMeta(volume.RefuseDomainInactive, budget)
		return out
	}
	cost := budgetCost(d.Policy.CostFull)
	if !budget.Consume(cost) {
		out.Meta = refusedMeta(volume.RefuseBudget, budget)
		return out
	}
	idx := -1
	for i := range d.Scopes {
		if d.Scopes[i].ScopeID == scopeID {
			idx = i
			break
		}
	}
	if idx < 0 {
		out.Meta = refusedMeta(volume.RefuseNoSource, budget)
		return out
	}
	s := d.Scopes[idx]
	if d.regionCollapsed(s.RegionID) {
		out.ScopeID = s.ScopeID
		out.RegionID = s.RegionID
		out.Flags = FlagCollapsed
		out.Meta = okMeta(volume.ConfidenceUnknown, cost, budget)
		return out
	}
	out.Scope = s
	out.Meta = okMeta(volume.ConfidenceExact, cost, budget)
	return out
}

// CapabilitySample is the result of CapabilityQuery.
type CapabilitySample struct {
	Capability
	Meta volume.QueryMeta
}

// CapabilityQuery looks up a single capability record by id.
func (d *Domain) CapabilityQuery(capabilityID uint32, budget *volume.Budget) CapabilitySample {
	var out CapabilitySample
	out.Flags = FlagUnresolved
	if !d.isActive() {
		out.Meta = refusedMeta(volume.RefuseDomainInactive, budget)
		return out
	}
	cost := budgetCost(d.Policy.CostFull)
	if !budget.Consume(cost) {
		out.Meta = refusedMeta(volume.RefuseBudget, budget)
		return out
	}
	idx := -1
	for i := range d.Capabilities {
		if d.Capabilities[i].CapabilityID == capabilityID {
			idx = i
			break
		}
	}
	if idx < 0 {
		out.Meta = refusedMeta(volume.RefuseNoSource, budget)
		return out
	}
	c := d.Capabilities[idx]
	if d.regionCollapsed(c.RegionID) {
		out.CapabilityID = c.CapabilityID
		out.RegionID = c.RegionID
		out.Flags = FlagCollapsed
		out.Meta = okMeta(volume.ConfidenceUnknown, cost, budget)
		return out
	}
	out.Capability = c
	out.Meta = okMeta(volume.ConfidenceExact, cost, budget)
	return out
}

// RuleSample is the result of RuleQuery.
type RuleSample struct {
	Rule
	Meta volume.QueryMeta
}

// RuleQuery looks up a single rule record by id.
func (d *Domain) RuleQuery(ruleID uint32, budget *volume.Budget) RuleSample {
	var out RuleSample
	out.Flags = FlagUnresolved
	if !d.isActive() {
		out.Meta = refusedMeta(volume.RefuseDomainInactive, budget)
		return out
	}
	cost := budgetCost(d.Policy.CostFull)
	if !budget.Consume(cost) {
		out.Meta = refusedMeta(volume.RefuseBudget, budget)
		return out
	}
	idx := -1
	for i := range d.Rules {
		if d.Rules[i].RuleID == ruleID {
			idx = i
			break
		}
	}
	if idx < 0 {
		out.Meta = refusedMeta(volume.RefuseNoSource, budget)
		return out
	}
	r := d.Rules[idx]
	if d.regionCollapsed(r.RegionID) {
		out.RuleID = r.RuleID
		out.RegionID = r.RegionID
		out.Flags = FlagCollapsed
		out.Meta = okMeta(volume.ConfidenceUnknown, cost, budget)
		return out
	}
	out.Rule = r
	out.Meta = okMeta(volume.ConfidenceExact, cost, budget)
	return out
}

// EnforcementSample is the result of EnforcementQuery.
type EnforcementSample struct {
	Enforcement
	Meta volume.QueryMeta
}

// EnforcementQuery looks up a single enforcement record by id.
func (d *Domain) EnforcementQuery(enforcementID uint32, budget *volume.Budget) EnforcementSample {
	var out EnforcementSample
	out.Flags = FlagUnresolved
	if !d.isActive() {
		out.Meta = refusedMeta(volume.RefuseDomainInactive, budget)
		return out
	}
	cost := budgetCost(d.Policy.CostFull)
	if !budget.Consume(cost) {
		out.Meta = refusedMeta(volume.RefuseBudget, budget)
		return out
	}
	idx := -1
	for i := range d.Enforcements {
		if d.Enforcements[i].EnforcementID == enforcementID {
			idx = i
			break
		}
	}
	if idx < 0 {
		out.Meta = refusedMeta(volume.RefuseNoSource, budget)
		return out
	}
	e := d.Enforcements[idx]
	if d.regionCollapsed(e.RegionID) {
		out.EnforcementID = e.EnforcementID
		out.RegionID = e.RegionID
		out.Flags = FlagCollapsed
		out.Meta = okMeta(volume.ConfidenceUnknown, cost, budget)
		return out
	}
	out.Enforcement = e
	out.Meta = okMeta(volume.ConfidenceExact, cost, budget)
	return out
}

// RegionSample is the result of RegionQuery: an aggregate over every
// record whose RegionID matches (or, for region_id=0, every
// non-collapsed record across the whole domain).
type RegionSample struct {
	RegionID                uint32
	EntityCount             uint32
	ScopeCount              uint32
	CapabilityCount         uint32
	RuleCount               uint32
	EnforcementCount        uint32
	EnforcementCapacityAvg  fixedpoint.Q48
	ResourceBudgetAvg       fixedpoint.Q48
	LegitimacyAvg           fixedpoint.Q16
	EnforcementActionCounts [ActionBins]uint32
	Flags                   uint32
	Meta                    volume.QueryMeta
}

// RegionQuery aggregates every record in regionID (or, if regionID is 0,
// every non-collapsed record domain-wide), debiting the policy's
// CostMedium per entity and CostCoarse per scope, capability, rule or
// enforcement it visits, in addition to the CostAnalytic base cost. Running out of
// budget mid-scan yields a partial result, never a refusal: whatever was
// aggregated before exhaustion is still a valid, if incomplete, answer.
func (d *Domain) RegionQuery(regionID uint32, budget *volume.Budget) RegionSample {
	var out RegionSample
	if !d.isActive() {
		out.Meta = refusedMeta(volume.RefuseDomainInactive, budget)
		return out
	}
	costBase := budgetCost(d.Policy.CostAnalytic)
	if !budget.Consume(costBase) {
		out.Meta = refusedMeta(volume.RefuseBudget, budget)
		return out
	}

	if regionID != 0 && d.regionCollapsed(regionID) {
		if capsule := d.findCapsule(regionID); capsule != nil {
			out.RegionID = capsule.RegionID
			out.EntityCount = capsule.EntityCount
			out.ScopeCount = capsule.ScopeCount
			out.CapabilityCount = capsule.CapabilityCount
			out.RuleCount = capsule.RuleCount
			out.EnforcementCount = capsule.EnforcementCount
			out.EnforcementCapacityAvg = capsule.EnforcementCapacityAvg
			out.ResourceBudgetAvg = capsule.ResourceBudgetAvg
			out.LegitimacyAvg = capsule.LegitimacyAvg
			out.EnforcementActionCounts = capsule.EnforcementActionCounts
		}
		out.Flags = FlagResolvePartial
		out.Meta = okMeta(volume.ConfidenceUnknown, costBase, budget)
		return out
	}

	costEntity := budgetCost(d.Policy.CostMedium)
	costRest := budgetCost(d.Policy.CostCoarse)

	var enforcementTotal, budgetTotal fixedpoint.Q48
	var legitimacySum fixedpoint.Q16
	var flags uint32

	for i := range d.Entities {
		e := &d.Entities[i]
		if regionID != 0 && e.RegionID != regionID {
			continue
		}
		if regionID == 0 && d.regionCollapsed(e.RegionID) {
			flags |= FlagResolvePartial
			continue
		}
		if !budget.Consume(costEntity) {
			flags |= FlagResolvePartial
			break
		}
		enforcementTotal = fixedpoint.AddQ48(enforcementTotal, e.EnforcementCapacity)
		budgetTotal = fixedpoint.AddQ48(budgetTotal, e.ResourceBudget)
		legitimacySum = fixedpoint.AddQ16(legitimacySum, e.LegitimacyLevel)
		out.EntityCount++
	}
	for i := range d.Scopes {
		s := &d.Scopes[i]
		if regionID != 0 && s.RegionID != regionID {
			continue
		}
		if regionID == 0 && d.regionCollapsed(s.RegionID) {
			flags |= FlagResolvePartial
			continue
		}
		if !budget.Consume(costRest) {
			flags |= FlagResolvePartial
			break
		}
		out.ScopeCount++
	}
	for i := range d.Capabilities {
		c := &d.Capabilities[i]
		if regionID != 0 && c.RegionID != regionID {
			continue
		}
		if regionID == 0 && d.regionCollapsed(c.RegionID) {
			flags |= FlagResolvePartial
			continue
		}
		if !budget.Consume(costRest) {
			flags |= FlagResolvePartial
			break
		}
		out.CapabilityCount++
	}
	for i := range d.Rules {
		r := &d.Rules[i]
		if regionID != 0 && r.RegionID != regionID {
			continue
		}
		if regionID == 0 && d.regionCollapsed(r.RegionID) {
			flags |= FlagResolvePartial
			continue
		}
		if !budget.Consume(costRest) {
			flags |= FlagResolvePartial
			break
		}
		out.RuleCount++
	}
	for i := range d.Enforcements {
		e := &d.Enforcements[i]
		if regionID != 0 && e.RegionID != regionID {
			continue
		}
		if regionID == 0 && d.regionCollapsed(e.RegionID) {
			flags |= FlagResolvePartial
			continue
		}
		if !budget.Consume(costRest) {
			flags |= FlagResolvePartial
			break
		}
		out.EnforcementCount++
		out.EnforcementActionCounts[actionIndex(e.Action)]++
	}

	out.RegionID = regionID
	if out.EntityCount > 0 {
		n := fixedpoint.Int32ToQ48(int32(out.EntityCount))
		out.EnforcementCapacityAvg = fixedpoint.DivQ48(enforcementTotal, n)
		out.ResourceBudgetAvg = fixedpoint.DivQ48(budgetTotal, n)
		out.LegitimacyAvg = clampRatio(fixedpoint.Q16(int32(legitimacySum) / int32(out.EntityCount)))
	}
	out.Flags = flags
	confidence := volume.ConfidenceExact
	if flags != 0 {
		confidence = volume.ConfidenceUnknown
	}
	out.Meta = okMeta(confidence, costBase, budget)
	return out
}

// ResolveResult is the result of Resolve.
type ResolveResult struct {
	OK                      bool
	RefusalReason           volume.RefusalReason
	Flags                   uint32
	EntityCount             uint32
	ScopeCount              uint32
	CapabilityCount         uint32
	RuleCount               uint32
	EnforcementCount        uint32
	EnforcementAppliedCount uint32
	EnforcementCapacityAvg  fixedpoint.Q48
	ResourceBudgetAvg       fixedpoint.Q48
	LegitimacyAvg           fixedpoint.Q16
	EnforcementActionCounts [ActionBins]uint32
}

// Resolve advances the domain's enforcement state machine: every
// enforcement record whose EventTick has been reached and which has not
// yet been applied is applied exactly once (idempotent re-application is
// a no-op, driven by the FlagApplied bit), and a region aggregate
// identical in shape to RegionQuery is produced alongside it in the same
// pass. tickDelta is accepted for interface symmetry with the original
// source's tick-driven resolve loop but is not itself consulted (a
// zero value is coerced to 1, matching dom_institution_resolve).
func (d *Domain) Resolve(regionID uint32, tick, tickDelta uint64, budget *volume.Budget) ResolveResult {
	var out ResolveResult
	if !d.isActive() {
		out.RefusalReason = volume.RefuseDomainInactive
		return out
	}
	costBase := budgetCost(d.Policy.CostAnalytic)
	if !budget.Consume(costBase) {
		out.RefusalReason = volume.RefuseBudget
		return out
	}

	if regionID != 0 && d.regionCollapsed(regionID) {
		if capsule := d.findCapsule(regionID); capsule != nil {
			out.EntityCount = capsule.EntityCount
			out.ScopeCount = capsule.ScopeCount
			out.CapabilityCount = capsule.CapabilityCount
			out.RuleCount = capsule.RuleCount
			out.EnforcementCount = capsule.EnforcementCount
			out.EnforcementCapacityAvg = capsule.EnforcementCapacityAvg
			out.ResourceBudgetAvg = capsule.ResourceBudgetAvg
			out.LegitimacyAvg = capsule.LegitimacyAvg
			out.EnforcementActionCounts = capsule.EnforcementActionCounts
		}
		out.OK = true
		out.Flags = FlagResolvePartial
		return out
	}

	if tickDelta == 0 {
		tickDelta = 1
	}
	_ = tickDelta

	costEntity := budgetCost(d.Policy.CostMedium)
	costRest := budgetCost(d.Policy.CostCoarse)

	var enforcementTotal, budgetTotal fixedpoint.Q48
	var legitimacySum fixedpoint.Q16
	var flags uint32

	for i := range d.Entities {
		e := &d.Entities[i]
		if regionID != 0 && e.RegionID != regionID {
			continue
		}
		if regionID == 0 && d.regionCollapsed(e.RegionID) {
			flags |= FlagResolvePartial
			continue
		}
		if !budget.Consume(costEntity) {
			flags |= FlagResolvePartial
			if out.RefusalReason == volume.RefuseNone {
				out.RefusalReason = volume.RefuseBudget
			}
			break
		}
		enforcementTotal = fixedpoint.AddQ48(enforcementTotal, e.EnforcementCapacity)
		budgetTotal = fixedpoint.AddQ48(budgetTotal, e.ResourceBudget)
		legitimacySum = fixedpoint.AddQ16(legitimacySum, e.LegitimacyLevel)
		out.EntityCount++
	}
	for i := range d.Scopes {
		s := &d.Scopes[i]
		if regionID != 0 && s.RegionID != regionID {
			continue
		}
		if regionID == 0 && d.regionCollapsed(s.RegionID) {
			flags |= FlagResolvePartial
			continue
		}
		if !budget.Consume(costRest) {
			flags |= FlagResolvePartial
			break
		}
		out.ScopeCount++
	}
	for i := range d.Capabilities {
		c := &d.Capabilities[i]
		if regionID != 0 && c.RegionID != regionID {
			continue
		}
		if regionID == 0 && d.regionCollapsed(c.RegionID) {
			flags |= FlagResolvePartial
			continue
		}
		if !budget.Consume(costRest) {
			flags |= FlagResolvePartial
			break
		}
		out.CapabilityCount++
	}
	for i := range d.Rules {
		r := &d.Rules[i]
		if regionID != 0 && r.RegionID != regionID {
			continue
		}
		if regionID == 0 && d.regionCollapsed(r.RegionID) {
			flags |= FlagResolvePartial
			continue
		}
		if !budget.Consume(costRest) {
			flags |= FlagResolvePartial
			break
		}
		out.RuleCount++
	}
	for i := range d.Enforcements {
		e := &d.Enforcements[i]
		if regionID != 0 && e.RegionID != regionID {
			continue
		}
		if regionID == 0 && d.regionCollapsed(e.RegionID) {
			flags |= FlagResolvePartial
			continue
		}
		if !budget.Consume(costRest) {
			flags |= FlagResolvePartial
			break
		}
		out.EnforcementCount++
		if e.apply(tick, &out.EnforcementActionCounts) {
			out.EnforcementAppliedCount++
			flags |= FlagResolveEventsUsed
		}
	}

	out.OK = true
	out.Flags = flags
	if out.EntityCount > 0 {
		n := fixedpoint.Int32ToQ48(int32(out.EntityCount))
		out.EnforcementCapacityAvg = fixedpoint.DivQ48(enforcementTotal, n)
		out.ResourceBudgetAvg = fixedpoint.DivQ48(budgetTotal, n)
		out.LegitimacyAvg = clampRatio(fixedpoint.Q16(int32(legitimacySum) / int32(out.EntityCount)))
	}
	return out
}

// CollapseRegion aggregates every record in regionID into a MacroCapsule
// and retires the region's per-record detail from further per-record
// queries (they answer COLLAPSED/RESOLVE_PARTIAL until ExpandRegion is
// called). Returns false if the region is already collapsed or
// regionID is 0.
func (d *Domain) CollapseRegion(regionID uint32) bool {
	if regionID == 0 || d.regionCollapsed(regionID) {
		return false
	}
	var capsule MacroCapsule
	capsule.CapsuleID = uint64(regionID)
	capsule.RegionID = regionID

	var enforcementTotal, budgetTotal fixedpoint.Q48
	var legitimacySum fixedpoint.Q16
	var legitimacyBins [HistBins]uint32

	for i := range d.Entities {
		e := &d.Entities[i]
		if e.RegionID != regionID {
			continue
		}
		capsule.EntityCount++
		enforcementTotal = fixedpoint.AddQ48(enforcementTotal, e.EnforcementCapacity)
		budgetTotal = fixedpoint.AddQ48(budgetTotal, e.ResourceBudget)
		legitimacySum = fixedpoint.AddQ16(legitimacySum, e.LegitimacyLevel)
		legitimacyBins[histBin(e.LegitimacyLevel)]++
	}
	for i := range d.Scopes {
		if d.Scopes[i].RegionID == regionID {
			capsule.ScopeCount++
		}
	}
	for i := range d.Capabilities {
		if d.Capabilities[i].RegionID == regionID {
			capsule.CapabilityCount++
		}
	}
	for i := range d.Rules {
		if d.Rules[i].RegionID == regionID {
			capsule.RuleCount++
		}
	}
	for i := range d.Enforcements {
		e := &d.Enforcements[i]
		if e.RegionID != regionID {
			continue
		}
		capsule.EnforcementCount++
		capsule.EnforcementActionCounts[actionIndex(e.Action)]++
	}

	if capsule.EntityCount > 0 {
		n := fixedpoint.Int32ToQ48(int32(capsule.EntityCount))
		capsule.EnforcementCapacityAvg = fixedpoint.DivQ48(enforcementTotal, n)
		capsule.ResourceBudgetAvg = fixedpoint.DivQ48(budgetTotal, n)
		capsule.LegitimacyAvg = clampRatio(fixedpoint.Q16(int32(legitimacySum) / int32(capsule.EntityCount)))
	}
	for b := 0; b < HistBins; b++ {
		capsule.LegitimacyHist[b] = ratioFromCounts(legitimacyBins[b], capsule.EntityCount)
	}

	d.Capsules = append(d.Capsules, capsule)
	return true
}

// ExpandRegion removes a region's macro capsule, restoring per-record
// query resolution. Returns false if the region was not collapsed.
func (d *Domain) ExpandRegion(regionID uint32) bool {
	for i := range d.Capsules {
		if d.Capsules[i].RegionID == regionID {
			last := len(d.Capsules) - 1
			d.Capsules[i] = d.Capsules[last]
			d.Capsules = d.Capsules[:last]
			return true
		}
	}
	return false
}

// CapsuleCount reports how many regions are currently collapsed.
func (d *Domain) CapsuleCount() int { return len(d.Capsules) }

// CapsuleAt returns the capsule at index, or false if out of range.
func (d *Domain) CapsuleAt(index int) (MacroCapsule, bool) {
	if index < 0 || index >= len(d.Capsules) {
		return MacroCapsule{}, false
	}
	return d.Capsules[index], true
}
