// Package volume implements the domain engine's heart: the policy-driven
// cost ladder (Full → Medium → Coarse → Analytic → Refuse), the volume
// that binds a source+policy+cache+state, and streaming hint emission.
package volume

import (
	"errors"

	"github.com/Julesc013/dominium-sub018/pkg/fixedpoint"
	"github.com/Julesc013/dominium-sub018/pkg/tile"
)

// ExistenceState is the authoring lifecycle stage of a volume, ordered
// NONEXISTENT < DECLARED < LATENT < REFINABLE < REALIZED < ARCHIVED.
type ExistenceState uint32

const (
	ExistenceNonexistent ExistenceState = iota
	ExistenceDeclared
	ExistenceLatent
	ExistenceRefinable
	ExistenceRealized
	ExistenceArchived
)

// ArchivalState is a volume's retention/fork status, orthogonal to
// ExistenceState.
type ArchivalState uint32

const (
	ArchivalLive ArchivalState = iota
	ArchivalFrozen
	ArchivalArchived
	ArchivalForked
)

// Status is the outer query status.
type Status uint32

const (
	StatusOK Status = iota
	StatusRefused
)

// Confidence qualifies how trustworthy a returned distance is.
type Confidence uint32

const (
	ConfidenceExact Confidence = iota
	ConfidenceLowerBound
	ConfidenceUnknown
)

// RefusalReason enumerates the stable refusal codes a caller may branch
// on. These are never returned as a Go error: refusals are expected,
// in-band outcomes (SPEC_FULL.md §7).
type RefusalReason uint32

const (
	RefuseNone RefusalReason = iota
	RefuseBudget
	RefuseDomainInactive
	RefuseNoSource
	RefuseNoAnalytic
	RefusePolicy
	RefuseInternal
)

// Contract-violation sentinel errors (null arguments). No function in this
// package returns them: the query functions answer a nil volume with an
// in-band RefuseInternal meta and treat a nil budget as unbounded.
var (
	ErrNilVolume = errors.New("volume: volume is nil")
	ErrNilPoint  = errors.New("volume: point is nil")
	ErrNilBudget = errors.New("volume: budget is nil")
	ErrNilRay    = errors.New("volume: ray is nil")
)

// Budget is a per-call cost allowance. UsedUnits is monotonically
// non-decreasing and never exceeds MaxUnits (property 1, SPEC_FULL.md §8).
type Budget struct {
	MaxUnits  uint32
	UsedUnits uint32
}

// NewBudget returns a fresh budget with zero units used.
func NewBudget(maxUnits uint32) *Budget {
	return &Budget{MaxUnits: maxUnits}
}

// Consume debits cost units if doing so would not exceed MaxUnits,
// returning whether it succeeded. On failure, the budget is left
// unchanged. A nil budget always succeeds (treated as unbounded), matching
// the source's defensive nil-tolerant semantics.
func (b *Budget) Consume(cost uint32) bool {
	if b == nil {
		return true
	}
	if b.UsedUnits > b.MaxUnits {
		return false
	}
	remaining := b.MaxUnits - b.UsedUnits
	if cost > remaining {
		return false
	}
	b.UsedUnits += cost
	return true
}

// QueryMeta is the full result metadata returned from every query
// operation.
type QueryMeta struct {
	Status        Status
	Resolution    tile.Resolution
	Confidence    Confidence
	RefusalReason RefusalReason
	CostUnits     uint32
	BudgetUsed    uint32
	BudgetMax     uint32
}

func refusedMeta(reason RefusalReason, b *Budget) QueryMeta {
	m := QueryMeta{
		Status:        StatusRefused,
		Resolution:    tile.ResRefused,
		Confidence:    ConfidenceUnknown,
		RefusalReason: reason,
	}
	if b != nil {
		m.BudgetUsed = b.UsedUnits
		m.BudgetMax = b.MaxUnits
	}
	return m
}

func okMeta(res tile.Resolution, conf Confidence, cost uint32, b *Budget) QueryMeta {
	m := QueryMeta{
		Status:     StatusOK,
		Resolution: res,
		Confidence: conf,
		CostUnits:  cost,
	}
	if b != nil {
		m.BudgetUsed = b.UsedUnits
		m.BudgetMax = b.MaxUnits
	}
	return m
}

// Policy configures the cost ladder for a volume. It is treated as
// immutable during a single query.
type Policy struct {
	TileSize            fixedpoint.Q16 // must be > 0
	MaxResolution       tile.Resolution
	SampleDimFull       uint32
	SampleDimMedium     uint32
	SampleDimCoarse     uint32
	CostFull            uint32
	CostMedium          uint32
	CostCoarse          uint32
	CostAnalytic        uint32
	TileBuildCostFull   uint32
	TileBuildCostMedium uint32
	TileBuildCostCoarse uint32
	RayStep             fixedpoint.Q16 // must be > 0
	MaxRaySteps         uint32
}

// DefaultPolicy returns the volume-initialisation defaults specified in
// SPEC_FULL.md §6, grounded on dom_domain_policy_init.
func DefaultPolicy() Policy {
	return Policy{
		TileSize:            fixedpoint.Int32ToQ16(64),
		MaxResolution:       tile.ResFull,
		SampleDimFull:       8,
		SampleDimMedium:     4,
		SampleDimCoarse:     2,
		CostFull:            100,
		CostMedium:          40,
		CostCoarse:          10,
		CostAnalytic:        5,
		TileBuildCostFull:   80,
		TileBuildCostMedium: 30,
		TileBuildCostCoarse: 10,
		RayStep:             fixedpoint.Int32ToQ16(1),
		MaxRaySteps:         64,
	}
}
