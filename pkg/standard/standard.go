// Package standard implements deterministic standards, toolchains, and
// meta-tool field resolution: fixed-capacity definition/version/scope/
// event/tool/edge/graph tables, single-record and per-region queries, an
// idempotent propose/adopt/audit/enforce/revoke event-application pass,
// and region collapse/expand into macro capsules for distance-based
// detail reduction.
package standard

import (
	"github.com/Julesc013/dominium-sub018/pkg/fixedpoint"
	"github.com/Julesc013/dominium-sub018/pkg/tile"
	"github.com/Julesc013/dominium-sub018/pkg/volume"
)

const (
	MaxAdoptionReqs = 8
	MaxEnforcements = 8
	MaxGraphNodes   = 16
	MaxGraphEdges   = 32
	HistBins        = 4
	EventBins       = 5
	ratioOne        = fixedpoint.Q16(1 << 16)
)

// ProcessType enumerates the standards-lifecycle event kinds.
type ProcessType uint32

const (
	ProcessUnset ProcessType = iota
	ProcessPropose
	ProcessAdopt
	ProcessAudit
	ProcessEnforce
	ProcessRevoke
)

// VersionStatus is a standard version's lifecycle stage.
type VersionStatus uint32

const (
	StatusUnset VersionStatus = iota
	StatusActive
	StatusDeprecated
	StatusRevoked
)

// Flags carried on samples, scopes, and resolve results. Bit values are
// reused across distinct flag groups, matching the source's per-enum-type
// bit reuse.
const (
	FlagDefUnresolved      uint32 = 1 << 0
	FlagDefCollapsed       uint32 = 1 << 1
	FlagVersionUnresolved  uint32 = 1 << 0
	FlagVersionCollapsed   uint32 = 1 << 1
	FlagVersionRevoked     uint32 = 1 << 2
	FlagScopeUnresolved    uint32 = 1 << 0
	FlagScopeCollapsed     uint32 = 1 << 1
	FlagScopeAdopted       uint32 = 1 << 2
	FlagScopeNoncompliant  uint32 = 1 << 3
	FlagScopeLockedIn      uint32 = 1 << 4
	FlagScopeRevoked       uint32 = 1 << 5
	FlagEventUnresolved    uint32 = 1 << 0
	FlagEventApplied       uint32 = 1 << 1
	FlagEventFailed        uint32 = 1 << 2
	FlagEventCollapsed     uint32 = 1 << 3
	FlagToolUnresolved     uint32 = 1 << 0
	FlagToolCollapsed      uint32 = 1 << 1
	FlagEdgeUnresolved     uint32 = 1 << 0
	FlagEdgeCollapsed      uint32 = 1 << 1
	FlagEdgeBridge         uint32 = 1 << 2
	FlagGraphUnresolved    uint32 = 1 << 0
	FlagGraphCollapsed     uint32 = 1 << 1
	FlagGraphAcyclic       uint32 = 1 << 2
	FlagResolvePartial     uint32 = 1 << 0
	FlagResolveEventsUsed  uint32 = 1 << 1
	FlagResolveAdoptShift  uint32 = 1 << 2
	FlagResolveComplyShift uint32 = 1 << 3
	FlagResolveLockinShift uint32 = 1 << 4
	FlagResolveRevocation  uint32 = 1 << 5
)

func clampRatio(v fixedpoint.Q16) fixedpoint.Q16 {
	return fixedpoint.ClampQ16(v, 0, ratioOne)
}

func adjustClamped(base, delta fixedpoint.Q16) fixedpoint.Q16 {
	return clampRatio(fixedpoint.AddQ16(base, delta))
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

func eventBin(p ProcessType) int {
	switch p {
	case ProcessPropose:
		return 0
	case ProcessAdopt:
		return 1
	case ProcessAudit:
		return 2
	case ProcessEnforce:
		return 3
	case ProcessRevoke:
		return 4
	default:
		return 0
	}
}

// Definition is a standard: the governing record tying a subject domain
// to its current version, compatibility policy, and issuing institution.
type Definition struct {
	StandardID            uint32
	SubjectDomainID       uint32
	SpecificationID       uint32
	CurrentVersionID      uint32
	CompatibilityPolicyID uint32
	IssuingInstitutionID  uint32
	AdoptionReqCount      uint32
	AdoptionReqIDs        [MaxAdoptionReqs]uint32
	EnforcementCount      uint32
	EnforcementIDs        [MaxEnforcements]uint32
	ProvenanceID          uint32
	RegionID              uint32
	Flags                 uint32
}

// Version is one versioned release of a standard.
type Version struct {
	VersionID            uint32
	StandardID           uint32
	VersionTagID         uint32
	CompatibilityGroupID uint32
	CompatibilityScore   fixedpoint.Q16
	AdoptionThreshold    fixedpoint.Q16
	Status               VersionStatus
	ReleaseTick          uint64
	ProvenanceID         uint32
	RegionID             uint32
	Flags                uint32
}

// Scope binds a standard version to a spatial and subject domain, and
// tracks how far it has been adopted, complied with, and locked in.
type Scope struct {
	ScopeID          uint32
	StandardID       uint32
	VersionID        uint32
	SpatialDomainID  uint32
	SubjectDomainID  uint32
	AdoptionRate     fixedpoint.Q16
	ComplianceRate   fixedpoint.Q16
	LockInIndex      fixedpoint.Q16
	EnforcementLevel fixedpoint.Q16
	ProvenanceID     uint32
	RegionID         uint32
	Flags            uint32
}

// Event is one propose/adopt/audit/enforce/revoke occurrence against a
// scope. applyEvent applies it (idempotently) once event_tick is
// reached, mutating the scope's rates and re-deriving its flags.
type Event struct {
	EventID         uint32
	ProcessType     ProcessType
	StandardID      uint32
	VersionID       uint32
	ScopeID         uint32
	DeltaAdoption   fixedpoint.Q16
	DeltaCompliance fixedpoint.Q16
	DeltaLockIn     fixedpoint.Q16
	EventTick       uint64
	ProvenanceID    uint32
	RegionID        uint32
	Flags           uint32
}

// MetaTool is a standard-consuming/producing tool instance: a converter
// with a resource profile and an accuracy/bias characterisation.
type MetaTool struct {
	ToolID           uint32
	ToolTypeID       uint32
	InputStandardID  uint32
	OutputStandardID uint32
	Capacity         fixedpoint.Q48
	EnergyCost       fixedpoint.Q48
	HeatOutput       fixedpoint.Q48
	ErrorRate        fixedpoint.Q16
	Bias             fixedpoint.Q16
	ProvenanceID     uint32
	RegionID         uint32
	Flags            uint32
}

// ToolchainEdge is a directed dependency between two tools via a
// standard conversion.
type ToolchainEdge struct {
	EdgeID             uint32
	FromToolID         uint32
	ToToolID           uint32
	InputStandardID    uint32
	OutputStandardID   uint32
	CompatibilityScore fixedpoint.Q16
	ProvenanceID       uint32
	RegionID           uint32
	Flags              uint32
}

// ToolchainGraph names a fixed set of tool nodes and edges; the region
// walk additionally derives, and folds into the graph's Flags, whether
// that edge set is acyclic (supplemented diagnostic; see DESIGN.md).
type ToolchainGraph struct {
	GraphID      uint32
	NodeCount    uint32
	NodeToolIDs  [MaxGraphNodes]uint32
	EdgeCount    uint32
	EdgeIDs      [MaxGraphEdges]uint32
	ProvenanceID uint32
	RegionID     uint32
	Flags        uint32
}

// MacroCapsule is a region's collapsed, aggregate representation.
type MacroCapsule struct {
	CapsuleID        uint64
	RegionID         uint32
	DefinitionCount  uint32
	VersionCount     uint32
	ScopeCount       uint32
	EventCount       uint32
	ToolCount        uint32
	EdgeCount        uint32
	GraphCount       uint32
	AdoptionAvg      fixedpoint.Q16
	ComplianceAvg    fixedpoint.Q16
	LockInAvg        fixedpoint.Q16
	CompatibilityAvg fixedpoint.Q16
	AdoptionHist     [HistBins]fixedpoint.Q16
	ComplianceHist   [HistBins]fixedpoint.Q16
	LockInHist       [HistBins]fixedpoint.Q16
	EventTypeCounts  [EventBins]uint32
}

// Domain holds one standard domain's full record set.
type Domain struct {
	DomainID         uint64
	AuthoringVersion uint32
	Existence        volume.ExistenceState
	Archival         volume.ArchivalState
	Policy           volume.Policy

	Definitions []Definition
	Versions    []Version
	Scopes      []Scope
	Events      []Event
	Tools       []MetaTool
	Edges       []ToolchainEdge
	Graphs      []ToolchainGraph
	Capsules    []MacroCapsule
}

// New returns a domain with default policy and REALIZED/LIVE state,
// matching dom_standard_domain_init's defaults: standards records are
// authored data, not something that needs to be sampled into existence.
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
// query costs here; standard records have no spatial resolution rungs).
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

func (d *Domain) findVersionIndex(versionID uint32) int {
	for i := range d.Versions {
		if d.Versions[i].VersionID == versionID {
			return i
		}
	}
	return -1
}

func (d *Domain) findScopeIndex(scopeID uint32) int {
	for i := range d.Scopes {
		if d.Scopes[i].ScopeID == scopeID {
			return i
		}
	}
	return -1
}

func (d *Domain) findScopeForEvent(e *Event) int {
	if e.ScopeID != 0 {
		return d.findScopeIndex(e.ScopeID)
	}
	for i := range d.Scopes {
		s := &d.Scopes[i]
		if e.StandardID != 0 && s.StandardID != e.StandardID {
			continue
		}
		if e.VersionID != 0 && s.VersionID != e.VersionID {
			continue
		}
		return i
	}
	return -1
}

func (d *Domain) findVersionForScope(s *Scope) *Version {
	idx := d.findVersionIndex(s.VersionID)
	if idx < 0 {
		return nil
	}
	return &d.Versions[idx]
}

func updateScopeFlags(scope *Scope, version *Version) {
	scope.Flags &^= FlagScopeAdopted | FlagScopeNoncompliant | FlagScopeLockedIn | FlagScopeRevoked

	if version != nil && version.Status == StatusRevoked {
		scope.Flags |= FlagScopeRevoked
		return
	}
	if scope.AdoptionRate > 0 {
		if version == nil || version.AdoptionThreshold <= 0 || scope.AdoptionRate >= version.AdoptionThreshold {
			scope.Flags |= FlagScopeAdopted
		}
	}
	if scope.ComplianceRate < scope.AdoptionRate {
		scope.Flags |= FlagScopeNoncompliant
	}
	if scope.LockInIndex > 0 {
		scope.Flags |= FlagScopeLockedIn
	}
}

// applyEvent applies a single propose/adopt/audit/enforce/revoke event
// against its target scope, mutating adoption/compliance/lock-in rates
// and re-deriving the scope's flags. It is idempotent: once applied
// (FlagEventApplied set), a repeated call is a no-op. Returns whether the
// scope's state actually changed and the RESOLVE_* shift/revocation bits
// this event contributed.
func (d *Domain) applyEvent(e *Event, tick uint64) (changed bool, contributed uint32) {
	if e.Flags&FlagEventApplied != 0 {
		return false, 0
	}
	if e.EventTick > tick {
		return false, 0
	}

	scopeIdx := d.findScopeForEvent(e)
	if scopeIdx < 0 {
		e.Flags |= FlagEventFailed
		return false, 0
	}
	scope := &d.Scopes[scopeIdx]
	version := d.findVersionForScope(scope)

	switch e.ProcessType {
	case ProcessPropose:
		if version != nil && version.Status == StatusUnset {
			version.Status = StatusActive
			changed = true
		}
		if e.DeltaAdoption != 0 {
			scope.AdoptionRate = adjustClamped(scope.AdoptionRate, e.DeltaAdoption)
			changed = true
			contributed |= FlagResolveAdoptShift
		}
	case ProcessAdopt:
		if e.DeltaAdoption != 0 {
			scope.AdoptionRate = adjustClamped(scope.AdoptionRate, e.DeltaAdoption)
			changed = true
			contributed |= FlagResolveAdoptShift
		}
	case ProcessAudit:
		if e.DeltaCompliance != 0 {
			scope.ComplianceRate = adjustClamped(scope.ComplianceRate, e.DeltaCompliance)
			changed = true
			contributed |= FlagResolveComplyShift
		}
	case ProcessEnforce:
		if e.DeltaCompliance != 0 {
			scope.ComplianceRate = adjustClamped(scope.ComplianceRate, e.DeltaCompliance)
			changed = true
			contributed |= FlagResolveComplyShift
		}
		if e.DeltaLockIn != 0 {
			scope.LockInIndex = adjustClamped(scope.LockInIndex, e.DeltaLockIn)
			changed = true
			contributed |= FlagResolveLockinShift
		}
	case ProcessRevoke:
		scope.AdoptionRate = 0
		scope.ComplianceRate = 0
		scope.LockInIndex = 0
		scope.Flags |= FlagScopeRevoked
		if version != nil {
			version.Status = StatusRevoked
			version.Flags |= FlagVersionRevoked
		}
		changed = true
		contributed |= FlagResolveRevocation
	default:
		e.Flags |= FlagEventFailed
		return false, 0
	}

	updateScopeFlags(scope, version)
	e.Flags |= FlagEventApplied
	return changed, contributed
}

// graphAcyclic reports whether the edge set named by a toolchain graph's
// node/edge ids contains a cycle, via DFS colouring over the tool-id
// adjacency it induces. Edges or nodes the graph does not reference are
// ignored; this is a supplemented diagnostic absent from the original
// source (SPEC_FULL.md §4.5), not part of the wire format.
func (d *Domain) graphAcyclic(g *ToolchainGraph) bool {
	nodes := make(map[uint32]bool, g.NodeCount)
	for i := uint32(0); i < g.NodeCount && i < MaxGraphNodes; i++ {
		nodes[g.NodeToolIDs[i]] = true
	}
	adj := make(map[uint32][]uint32, g.EdgeCount)
	for i := uint32(0); i < g.EdgeCount && i < MaxGraphEdges; i++ {
		edgeID := g.EdgeIDs[i]
		for j := range d.Edges {
			edge := &d.Edges[j]
			if edge.EdgeID != edgeID {
				continue
			}
			if !nodes[edge.FromToolID] || !nodes[edge.ToToolID] {
				break
			}
			adj[edge.FromToolID] = append(adj[edge.FromToolID], edge.ToToolID)
			break
		}
	}

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[uint32]int, len(nodes))
	var visit func(n uint32) bool
	visit = func(n uint32) bool {
		color[n] = gray
		for _, next := range adj[n] {
			switch color[next] {
			case gray:
				return false
			case white:
				if !visit(next) {
					return false
				}
			}
		}
		color[n] = black
		return true
	}
	for n := range nodes {
		if color[n] == white {
			if !visit(n) {
				return false
			}
		}
	}
	return true
}

// DefinitionSample is the result of DefinitionQuery.
type DefinitionSample struct {
	Definition
	Flags uint32
	Meta  volume.QueryMeta
}

// DefinitionQuery looks up a single standard definition by id.
func (d *Domain) DefinitionQuery(standardID uint32, budget *volume.Budget) DefinitionSample {
	var out DefinitionSample
	out.Flags = FlagDefUnresolved
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
	for i := range d.Definitions {
		if d.Definitions[i].StandardID == standardID {
			idx = i
			break
		}
	}
	if idx < 0 {
		out.Meta = refusedMeta(volume.RefuseNoSource, budget)
		return out
	}
	def := d.Definitions[idx]
	if d.regionCollapsed(def.RegionID) {
		out.StandardID = def.StandardID
		out.RegionID = def.RegionID
		out.Flags = FlagDefCollapsed
		out.Meta = okMeta(volume.ConfidenceUnknown, cost, budget)
		return out
	}
	out.Definition = def
	out.Flags = def.Flags
	out.Meta = okMeta(volume.ConfidenceExact, cost, budget)
	return out
}

// VersionSample is the result of VersionQuery.
type VersionSample struct {
	Version
	Flags uint32
	Meta  volume.QueryMeta
}

// VersionQuery looks up a single standard version by id.
func (d *Domain) VersionQuery(versionID uint32, budget *volume.Budget) VersionSample {
	var out VersionSample
	out.Flags = FlagVersionUnresolved
	if !d.isActive() {
		out.Meta = refusedMeta(volume.RefuseDomainInactive, budget)
		return out
	}
	cost := budgetCost(d.Policy.CostFull)
	if !budget.Consume(cost) {
		out.Meta = refusedMeta(volume.RefuseBudget, budget)
		return out
	}
	idx := d.findVersionIndex(versionID)
	if idx < 0 {
		out.Meta = refusedMeta(volume.RefuseNoSource, budget)
		return out
	}
	ver := d.Versions[idx]
	if d.regionCollapsed(ver.RegionID) {
		out.VersionID = ver.VersionID
		out.RegionID = ver.RegionID
		out.Flags = FlagVersionCollapsed
		out.Meta = okMeta(volume.ConfidenceUnknown, cost, budget)
		return out
	}
	out.Version = ver
	out.Flags = ver.Flags
	out.Meta = okMeta(volume.ConfidenceExact, cost, budget)
	return out
}

// ScopeSample is the result of ScopeQuery.
type ScopeSample struct {
	Scope
	Flags uint32
	Meta  volume.QueryMeta
}

// ScopeQuery looks up a single standard scope by id.
func (d *Domain) ScopeQuery(scopeID uint32, budget *volume.Budget) ScopeSample {
	var out ScopeSample
	out.Flags = FlagScopeUnresolved
	if !d.isActive() {
		out.Meta = refusedMeta(volume.RefuseDomainInactive, budget)
		return out
	}
	cost := budgetCost(d.Policy.CostFull)
	if !budget.Consume(cost) {
		out.Meta = refusedMeta(volume.RefuseBudget, budget)
		return out
	}
	idx := d.findScopeIndex(scopeID)
	if idx < 0 {
		out.Meta = refusedMeta(volume.RefuseNoSource, budget)
		return out
	}
	s := d.Scopes[idx]
	if d.regionCollapsed(s.RegionID) {
		out.ScopeID = s.ScopeID
		out.RegionID = s.RegionID
		out.Flags = FlagScopeCollapsed
		out.Meta = okMeta(volume.ConfidenceUnknown, cost, budget)
		return out
	}
	out.Scope = s
	out.Flags = s.Flags
	out.Meta = okMeta(volume.ConfidenceExact, cost, budget)
	return out
}

// EventSample is the result of EventQuery.
type EventSample struct {
	Event
	Flags uint32
	Meta  volume.QueryMeta
}

// EventQuery looks up a single standards-lifecycle event by id.
func (d *Domain) EventQuery(eventID uint32, budget *volume.Budget) EventSample {
	var out EventSample
	out.Flags = FlagEventUnresolved
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
	for i := range d.Events {
		if d.Events[i].EventID == eventID {
			idx = i
			break
		}
	}
	if idx < 0 {
		out.Meta = refusedMeta(volume.RefuseNoSource, budget)
		return out
	}
	ev := d.Events[idx]
	if d.regionCollapsed(ev.RegionID) {
		out.EventID = ev.EventID
		out.RegionID = ev.RegionID
		out.Flags = FlagEventCollapsed
		out.Meta = okMeta(volume.ConfidenceUnknown, cost, budget)
		return out
	}
	out.Event = ev
	out.Flags = ev.Flags
	out.Meta = okMeta(volume.ConfidenceExact, cost, budget)
	return out
}

// ToolSample is the result of ToolQuery.
type ToolSample struct {
	MetaTool
	Flags uint32
	Meta  volume.QueryMeta
}

// ToolQuery looks up a single meta-tool by id.
func (d *Domain) ToolQuery(toolID uint32, budget *volume.Budget) ToolSample {
	var out ToolSample
	out.Flags = FlagToolUnresolved
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
	for i := range d.Tools {
		if d.Tools[i].ToolID == toolID {
			idx = i
			break
		}
	}
	if idx < 0 {
		out.Meta = refusedMeta(volume.RefuseNoSource, budget)
		return out
	}
	tool := d.Tools[idx]
	if d.regionCollapsed(tool.RegionID) {
		out.ToolID = tool.ToolID
		out.RegionID = tool.RegionID
		out.Flags = FlagToolCollapsed
		out.Meta = okMeta(volume.ConfidenceUnknown, cost, budget)
		return out
	}
	out.MetaTool = tool
	out.Flags = tool.Flags
	out.Meta = okMeta(volume.ConfidenceExact, cost, budget)
	return out
}

// EdgeSample is the result of EdgeQuery.
type EdgeSample struct {
	ToolchainEdge
	Flags uint32
	Meta  volume.QueryMeta
}

// EdgeQuery looks up a single toolchain edge by id.
func (d *Domain) EdgeQuery(edgeID uint32, budget *volume.Budget) EdgeSample {
	var out EdgeSample
	out.Flags = FlagEdgeUnresolved
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
	for i := range d.Edges {
		if d.Edges[i].EdgeID == edgeID {
			idx = i
			break
		}
	}
	if idx < 0 {
		out.Meta = refusedMeta(volume.RefuseNoSource, budget)
		return out
	}
	edge := d.Edges[idx]
	if d.regionCollapsed(edge.RegionID) {
		out.EdgeID = edge.EdgeID
		out.RegionID = edge.RegionID
		out.Flags = FlagEdgeCollapsed
		out.Meta = okMeta(volume.ConfidenceUnknown, cost, budget)
		return out
	}
	out.ToolchainEdge = edge
	out.Flags = edge.Flags
	out.Meta = okMeta(volume.ConfidenceExact, cost, budget)
	return out
}

// GraphSample is the result of GraphQuery. Acyclic is computed fresh on
// every query (supplemented diagnostic, SPEC_FULL.md §4.5) and costs one
// additional CostFull debit beyond the base query cost.
type GraphSample struct {
	ToolchainGraph
	Acyclic bool
	Flags   uint32
	Meta    volume.QueryMeta
}

// GraphQuery looks up a single toolchain graph by id.
func (d *Domain) GraphQuery(graphID uint32, budget *volume.Budget) GraphSample {
	var out GraphSample
	out.Flags = FlagGraphUnresolved
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
	for i := range d.Graphs {
		if d.Graphs[i].GraphID == graphID {
			idx = i
			break
		}
	}
	if idx < 0 {
		out.Meta = refusedMeta(volume.RefuseNoSource, budget)
		return out
	}
	graph := d.Graphs[idx]
	if d.regionCollapsed(graph.RegionID) {
		out.GraphID = graph.GraphID
		out.RegionID = graph.RegionID
		out.Flags = FlagGraphCollapsed
		out.Meta = okMeta(volume.ConfidenceUnknown, cost, budget)
		return out
	}
	acyclicCost := budgetCost(d.Policy.CostFull)
	acyclic := true
	if budget.Consume(acyclicCost) {
		acyclic = d.graphAcyclic(&graph)
		cost += acyclicCost
	}
	out.ToolchainGraph = graph
	out.Acyclic = acyclic
	out.Flags = graph.Flags
	if acyclic {
		out.Flags |= FlagGraphAcyclic
	}
	out.Meta = okMeta(volume.ConfidenceExact, cost, budget)
	return out
}

// RegionSample is the result of RegionQuery: an aggregate over every
// record whose RegionID matches (or, for region_id=0, every
// non-collapsed record across the whole domain).
type RegionSample struct {
	RegionID         uint32
	DefinitionCount  uint32
	VersionCount     uint32
	ScopeCount       uint32
	EventCount       uint32
	ToolCount        uint32
	EdgeCount        uint32
	GraphCount       uint32
	CyclicGraphCount uint32
	AdoptionAvg      fixedpoint.Q16
	ComplianceAvg    fixedpoint.Q16
	LockInAvg        fixedpoint.Q16
	CompatibilityAvg fixedpoint.Q16
	EventTypeCounts  [EventBins]uint32
	Flags            uint32
	Meta             volume.QueryMeta
}

// RegionQuery aggregates every record in regionID (or, if regionID is 0,
// every non-collapsed record domain-wide), debiting a per-record-kind
// budget cost per record it visits in addition to the base query cost.
// Running out of budget mid-scan yields a partial result, never a
// refusal: whatever was aggregated before exhaustion is still a valid,
// if incomplete, answer. Per graph visited, an additional CostFull debit
// derives the supplemented acyclic diagnostic (SPEC_FULL.md §4.5); a
// graph found cyclic counts toward CyclicGraphCount but never refuses
// the walk.
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
			out.DefinitionCount = capsule.DefinitionCount
			out.VersionCount = capsule.VersionCount
			out.ScopeCount = capsule.ScopeCount
			out.EventCount = capsule.EventCount
			out.ToolCount = capsule.ToolCount
			out.EdgeCount = capsule.EdgeCount
			out.GraphCount = capsule.GraphCount
			out.AdoptionAvg = capsule.AdoptionAvg
			out.ComplianceAvg = capsule.ComplianceAvg
			out.LockInAvg = capsule.LockInAvg
			out.CompatibilityAvg = capsule.CompatibilityAvg
			out.EventTypeCounts = capsule.EventTypeCounts
		}
		out.Flags = FlagResolvePartial
		out.Meta = okMeta(volume.ConfidenceUnknown, costBase, budget)
		return out
	}

	out, flags, _ := d.walkRegion(regionID, budget, nil, 0)
	out.RegionID = regionID
	out.Flags = flags
	confidence := volume.ConfidenceExact
	if flags != 0 {
		confidence = volume.ConfidenceUnknown
	}
	out.Meta = okMeta(confidence, costBase, budget)
	return out
}

// walkRegion performs the shared definition/version/scope/event/tool/
// edge/graph aggregation scan used by both RegionQuery and Resolve. When
// tick is non-nil, due events are applied in the same pass (Resolve's
// behaviour); otherwise events are only counted (RegionQuery's
// behaviour).
func (d *Domain) walkRegion(regionID uint32, budget *volume.Budget, tick *uint64, _ uint64) (out RegionSample, flags uint32, eventApplied uint32) {
	costDefinition := budgetCost(d.Policy.CostMedium)
	costVersion := budgetCost(d.Policy.CostMedium)
	costScope := budgetCost(d.Policy.CostMedium)
	costEvent := budgetCost(d.Policy.CostCoarse)
	costTool := budgetCost(d.Policy.CostCoarse)
	costEdge := budgetCost(d.Policy.CostCoarse)
	costGraph := budgetCost(d.Policy.CostCoarse)
	costAcyclic := budgetCost(d.Policy.CostFull)

	var adoptionTotal, complianceTotal, lockInTotal, compatTotal fixedpoint.Q48
	var compatSeen uint32

	for i := range d.Definitions {
		r := d.Definitions[i].RegionID
		if regionID != 0 && r != regionID {
			continue
		}
		if regionID == 0 && d.regionCollapsed(r) {
			flags |= FlagResolvePartial
			continue
		}
		if !budget.Consume(costDefinition) {
			flags |= FlagResolvePartial
			break
		}
		out.DefinitionCount++
	}
	for i := range d.Versions {
		v := &d.Versions[i]
		if regionID != 0 && v.RegionID != regionID {
			continue
		}
		if regionID == 0 && d.regionCollapsed(v.RegionID) {
			flags |= FlagResolvePartial
			continue
		}
		if !budget.Consume(costVersion) {
			flags |= FlagResolvePartial
			break
		}
		compatTotal = fixedpoint.AddQ48(compatTotal, fixedpoint.Q16ToQ48(v.CompatibilityScore))
		compatSeen++
		out.VersionCount++
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
		if !budget.Consume(costScope) {
			flags |= FlagResolvePartial
			break
		}
		adoptionTotal = fixedpoint.AddQ48(adoptionTotal, fixedpoint.Q16ToQ48(s.AdoptionRate))
		complianceTotal = fixedpoint.AddQ48(complianceTotal, fixedpoint.Q16ToQ48(s.ComplianceRate))
		lockInTotal = fixedpoint.AddQ48(lockInTotal, fixedpoint.Q16ToQ48(s.LockInIndex))
		out.ScopeCount++
	}
	for i := range d.Events {
		e := &d.Events[i]
		if regionID != 0 && e.RegionID != regionID {
			continue
		}
		if regionID == 0 && d.regionCollapsed(e.RegionID) {
			flags |= FlagResolvePartial
			continue
		}
		if !budget.Consume(costEvent) {
			flags |= FlagResolvePartial
			break
		}
		out.EventCount++
		if tick != nil {
			if changed, contributed := d.applyEvent(e, *tick); changed {
				eventApplied++
				flags |= contributed
				out.EventTypeCounts[eventBin(e.ProcessType)]++
			}
		} else {
			out.EventTypeCounts[eventBin(e.ProcessType)]++
		}
	}
	for i := range d.Tools {
		r := d.Tools[i].RegionID
		if regionID != 0 && r != regionID {
			continue
		}
		if regionID == 0 && d.regionCollapsed(r) {
			flags |= FlagResolvePartial
			continue
		}
		if !budget.Consume(costTool) {
			flags |= FlagResolvePartial
			break
		}
		out.ToolCount++
	}
	for i := range d.Edges {
		e := &d.Edges[i]
		if regionID != 0 && e.RegionID != regionID {
			continue
		}
		if regionID == 0 && d.regionCollapsed(e.RegionID) {
			flags |= FlagResolvePartial
			continue
		}
		if !budget.Consume(costEdge) {
			flags |= FlagResolvePartial
			break
		}
		compatTotal = fixedpoint.AddQ48(compatTotal, fixedpoint.Q16ToQ48(e.CompatibilityScore))
		compatSeen++
		out.EdgeCount++
	}
	for i := range d.Graphs {
		g := d.Graphs[i]
		if regionID != 0 && g.RegionID != regionID {
			continue
		}
		if regionID == 0 && d.regionCollapsed(g.RegionID) {
			flags |= FlagResolvePartial
			continue
		}
		if !budget.Consume(costGraph) {
			flags |= FlagResolvePartial
			break
		}
		out.GraphCount++
		if budget.Consume(costAcyclic) {
			if !d.graphAcyclic(&g) {
				out.CyclicGraphCount++
			}
		}
	}

	if tick != nil {
		// Re-derive flags for every matching, non-collapsed scope, not
		// only the ones an applied event touched this pass (mirrors
		// dom_standard_resolve's trailing scope-flag refresh loop).
		for i := range d.Scopes {
			s := &d.Scopes[i]
			if regionID != 0 && s.RegionID != regionID {
				continue
			}
			if regionID == 0 && d.regionCollapsed(s.RegionID) {
				continue
			}
			updateScopeFlags(s, d.findVersionForScope(s))
		}
		if eventApplied > 0 {
			flags |= FlagResolveEventsUsed
		}
	}

	if out.ScopeCount > 0 {
		n := fixedpoint.Int32ToQ48(int32(out.ScopeCount))
		out.AdoptionAvg = clampRatio(fixedpoint.Q48ToQ16(fixedpoint.DivQ48(adoptionTotal, n)))
		out.ComplianceAvg = clampRatio(fixedpoint.Q48ToQ16(fixedpoint.DivQ48(complianceTotal, n)))
		out.LockInAvg = clampRatio(fixedpoint.Q48ToQ16(fixedpoint.DivQ48(lockInTotal, n)))
	}
	if compatSeen > 0 {
		n := fixedpoint.Int32ToQ48(int32(compatSeen))
		out.CompatibilityAvg = clampRatio(fixedpoint.Q48ToQ16(fixedpoint.DivQ48(compatTotal, n)))
	}
	return out, flags, eventApplied
}

// ResolveResult is the result of Resolve.
type ResolveResult struct {
	OK                bool
	RefusalReason     volume.RefusalReason
	Flags             uint32
	DefinitionCount   uint32
	VersionCount      uint32
	ScopeCount        uint32
	EventCount        uint32
	EventAppliedCount uint32
	ToolCount         uint32
	EdgeCount         uint32
	GraphCount        uint32
	CyclicGraphCount  uint32
	AdoptionAvg       fixedpoint.Q16
	ComplianceAvg     fixedpoint.Q16
	LockInAvg         fixedpoint.Q16
	CompatibilityAvg  fixedpoint.Q16
	EventTypeCounts   [EventBins]uint32
}

// Resolve advances the domain's standards-lifecycle state machine: every
// event whose EventTick has been reached and which has not yet been
// applied is applied exactly once (idempotent re-application is a no-op,
// driven by FlagEventApplied), and a region aggregate identical in shape
// to RegionQuery is produced alongside it in the same pass. tickDelta is
// accepted for interface symmetry with the original source's tick-driven
// resolve loop but is not itself consulted (a zero value is coerced to
// 1, matching dom_standard_resolve).
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
			out.DefinitionCount = capsule.DefinitionCount
			out.VersionCount = capsule.VersionCount
			out.ScopeCount = capsule.ScopeCount
			out.EventCount = capsule.EventCount
			out.ToolCount = capsule.ToolCount
			out.EdgeCount = capsule.EdgeCount
			out.GraphCount = capsule.GraphCount
			out.AdoptionAvg = capsule.AdoptionAvg
			out.ComplianceAvg = capsule.ComplianceAvg
			out.LockInAvg = capsule.LockInAvg
			out.CompatibilityAvg = capsule.CompatibilityAvg
			out.EventTypeCounts = capsule.EventTypeCounts
		}
		out.OK = true
		out.Flags = FlagResolvePartial
		return out
	}

	if tickDelta == 0 {
		tickDelta = 1
	}
	_ = tickDelta

	sample, flags, eventApplied := d.walkRegion(regionID, budget, &tick, tickDelta)
	out.DefinitionCount = sample.DefinitionCount
	out.VersionCount = sample.VersionCount
	out.ScopeCount = sample.ScopeCount
	out.EventCount = sample.EventCount
	out.EventAppliedCount = eventApplied
	out.ToolCount = sample.ToolCount
	out.EdgeCount = sample.EdgeCount
	out.GraphCount = sample.GraphCount
	out.CyclicGraphCount = sample.CyclicGraphCount
	out.AdoptionAvg = sample.AdoptionAvg
	out.ComplianceAvg = sample.ComplianceAvg
	out.LockInAvg = sample.LockInAvg
	out.CompatibilityAvg = sample.CompatibilityAvg
	out.EventTypeCounts = sample.EventTypeCounts

	out.OK = true
	out.Flags = flags
	return out
}

// CollapseRegion aggregates every record in regionID into a MacroCapsule
// and retires the region's per-record detail from further per-record
// queries (they answer COLLAPSED/RESOLVE_PARTIAL until ExpandRegion is
// called). Returns false if the region is already collapsed or regionID
// is 0.
func (d *Domain) CollapseRegion(regionID uint32) bool {
	if regionID == 0 || d.regionCollapsed(regionID) {
		return false
	}
	var capsule MacroCapsule
	capsule.CapsuleID = uint64(regionID)
	capsule.RegionID = regionID

	var adoptionTotal, complianceTotal, lockInTotal, compatTotal fixedpoint.Q48
	var compatSeen uint32
	var adoptionBins, complianceBins, lockInBins [HistBins]uint32

	for i := range d.Definitions {
		if d.Definitions[i].RegionID == regionID {
			capsule.DefinitionCount++
		}
	}
	for i := range d.Versions {
		v := &d.Versions[i]
		if v.RegionID != regionID {
			continue
		}
		capsule.VersionCount++
		compatTotal = fixedpoint.AddQ48(compatTotal, fixedpoint.Q16ToQ48(v.CompatibilityScore))
		compatSeen++
	}
	for i := range d.Scopes {
		s := &d.Scopes[i]
		if s.RegionID != regionID {
			continue
		}
		capsule.ScopeCount++
		adoptionTotal = fixedpoint.AddQ48(adoptionTotal, fixedpoint.Q16ToQ48(s.AdoptionRate))
		complianceTotal = fixedpoint.AddQ48(complianceTotal, fixedpoint.Q16ToQ48(s.ComplianceRate))
		lockInTotal = fixedpoint.AddQ48(lockInTotal, fixedpoint.Q16ToQ48(s.LockInIndex))
		adoptionBins[histBin(s.AdoptionRate)]++
		complianceBins[histBin(s.ComplianceRate)]++
		lockInBins[histBin(s.LockInIndex)]++
	}
	for i := range d.Events {
		e := &d.Events[i]
		if e.RegionID != regionID {
			continue
		}
		capsule.EventCount++
		capsule.EventTypeCounts[eventBin(e.ProcessType)]++
	}
	for i := range d.Tools {
		if d.Tools[i].RegionID == regionID {
			capsule.ToolCount++
		}
	}
	for i := range d.Edges {
		e := &d.Edges[i]
		if e.RegionID != regionID {
			continue
		}
		capsule.EdgeCount++
		compatTotal = fixedpoint.AddQ48(compatTotal, fixedpoint.Q16ToQ48(e.CompatibilityScore))
		compatSeen++
	}
	for i := range d.Graphs {
		if d.Graphs[i].RegionID == regionID {
			capsule.GraphCount++
		}
	}

	if capsule.ScopeCount > 0 {
		n := fixedpoint.Int32ToQ48(int32(capsule.ScopeCount))
		capsule.AdoptionAvg = clampRatio(fixedpoint.Q48ToQ16(fixedpoint.DivQ48(adoptionTotal, n)))
		capsule.ComplianceAvg = clampRatio(fixedpoint.Q48ToQ16(fixedpoint.DivQ48(complianceTotal, n)))
		capsule.LockInAvg = clampRatio(fixedpoint.Q48ToQ16(fixedpoint.DivQ48(lockInTotal, n)))
	}
	if compatSeen > 0 {
		n := fixedpoint.Int32ToQ48(int32(compatSeen))
		capsule.CompatibilityAvg = clampRatio(fixedpoint.Q48ToQ16(fixedpoint.DivQ48(compatTotal, n)))
	}
	for b := 0; b < HistBins; b++ {
		capsule.AdoptionHist[b] = ratioFromCounts(adoptionBins[b], capsule.ScopeCount)
		capsule.ComplianceHist[b] = ratioFromCounts(complianceBins[b], capsule.ScopeCount)
		capsule.LockInHist[b] = ratioFromCounts(lockInBins[b], capsule.ScopeCount)
	}

	d.Capsules = append(d.Capsules, capsule)
	return true
}

// ExpandRegion removes a region's macro capsule, restoring per-record
// query resolution. Returns false if the region was not collapsed.
func (d *Domain) ExpandRegion(regionID uint32) bool {
	if regionID == 0 {
		return false
	}
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
