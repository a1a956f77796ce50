// Package shard implements deterministic domain-to-shard partitioning: a
// per-domain tile walk over a volume's authored bounds, containment
// testing against the volume's own cost ladder, and hash-based shard
// assignment, collected into an ordered (domain, resolution, tile)
// index servers can query to find which shard owns a tile.
package shard

import (
	"errors"
	"sort"

	"github.com/Julesc013/dominium-sub018/pkg/fixedpoint"
	"github.com/Julesc013/dominium-sub018/pkg/tile"
	"github.com/Julesc013/dominium-sub018/pkg/volume"
)

// ID identifies a shard. 0 is never assigned; shard_pick always returns
// a value in [1, shard_count].
type ID uint32

// Flags carried on an Assignment.
const (
	FlagStreamingAllowed  uint32 = 1 << 0
	FlagSimulationAllowed uint32 = 1 << 1
	FlagWholeDomain       uint32 = 1 << 2
)

// Input flags: what the caller is asking the mapper to permit for this
// domain.
const (
	FlagAllowSplit      uint32 = 1 << 0
	FlagAllowStreaming  uint32 = 1 << 1
	FlagAllowSimulation uint32 = 1 << 2
)

var (
	errNilArgument    = errors.New("shard: inputs and index must not be nil")
	errZeroShardCount = errors.New("shard: shard count must be nonzero")
	errIndexOverflow  = errors.New("shard: index capacity exhausted")
)

// PartitionParams configures one Map call across every input domain.
type PartitionParams struct {
	ShardCount        uint32
	AllowSplit        bool
	Resolution        tile.Resolution
	MaxTilesPerDomain uint32
	BudgetUnits       uint32
	GlobalSeed        uint64
}

// DefaultPartitionParams matches dom_domain_partition_params_init's
// defaults: a single shard with splitting permitted, at coarse resolution, capped at 1024
// tiles per domain, with an unbounded (zero) budget.
func DefaultPartitionParams() PartitionParams {
	return PartitionParams{
		ShardCount:        1,
		AllowSplit:        true,
		Resolution:        tile.ResCoarse,
		MaxTilesPerDomain: 1024,
		BudgetUnits:       0,
		GlobalSeed:        0,
	}
}

// Input is one domain's volume plus the flags describing what a mapping
// pass may do with it.
type Input struct {
	DomainID uint64
	Volume   *volume.Volume
	Flags    uint32
}

// StreamingAllowed reports whether input permits streaming and its
// volume's state allows activity (active existence, LIVE archival).
func StreamingAllowed(input Input) bool {
	if input.Volume == nil {
		return false
	}
	if input.Flags&FlagAllowStreaming == 0 {
		return false
	}
	return stateAllowsActivity(input.Volume)
}

func simulationAllowed(input Input) bool {
	if input.Volume == nil {
		return false
	}
	if input.Flags&FlagAllowSimulation == 0 {
		return false
	}
	return stateAllowsActivity(input.Volume)
}

func stateAllowsActivity(v *volume.Volume) bool {
	if v == nil {
		return false
	}
	switch v.Existence {
	case volume.ExistenceNonexistent, volume.ExistenceDeclared, volume.ExistenceArchived:
		return false
	}
	return v.Archival == volume.ArchivalLive
}

func stateHasSpatial(v *volume.Volume) bool {
	if v == nil {
		return false
	}
	switch v.Existence {
	case volume.ExistenceNonexistent, volume.ExistenceDeclared:
		return false
	}
	return true
}

func boundsValid(b tile.AABB) bool {
	return b.Min.X <= b.Max.X && b.Min.Y <= b.Max.Y && b.Min.Z <= b.Max.Z
}

// shardHashMix is the FNV-1a-style byte-at-a-time mixing step used to
// fold a value into the running hash.
func shardHashMix(hash, value uint64) uint64 {
	for i := uint(0); i < 8; i++ {
		hash ^= (value >> (i * 8)) & 0xFF
		hash *= 1099511628211
	}
	return hash
}

// shardPick derives a deterministic shard id in [1, shardCount] from the
// global seed, domain id, and tile id. The mixing seed below is the
// source's own local constant — a 19-digit value, distinct from (and one
// digit short of) the canonical 20-digit FNV-1a 64-bit offset basis
// 14695981039346656037 — preserved verbatim rather than "corrected",
// since changing it would silently reshuffle every existing shard
// assignment.
func shardPick(seed uint64, domainID uint64, tileID uint64, shardCount uint32) ID {
	if shardCount == 0 {
		return 0
	}
	hash := uint64(1469598103934665603)
	hash = shardHashMix(hash, seed)
	hash = shardHashMix(hash, domainID)
	hash = shardHashMix(hash, tileID)
	return ID((hash % uint64(shardCount)) + 1)
}

func floorDivQ16(numer int64, denom fixedpoint.Q16) int32 {
	d := int64(denom)
	if d == 0 {
		return 0
	}
	if numer >= 0 {
		return int32(numer / d)
	}
	q := (-numer) / d
	if (-numer)%d != 0 {
		q++
	}
	return int32(-q)
}

func mulInt32Q16(a int32, b fixedpoint.Q16) fixedpoint.Q16 {
	v := int64(a) * int64(b)
	const maxQ16 = int64(2147483647)
	const minQ16 = -int64(2147483647) - 1
	if v > maxQ16 {
		return fixedpoint.Q16(maxQ16)
	}
	if v < minQ16 {
		return fixedpoint.Q16(minQ16)
	}
	return fixedpoint.Q16(v)
}

func makeTileBounds(bounds tile.AABB, tileSize fixedpoint.Q16, tx, ty, tz int32) tile.AABB {
	minP := tile.Point{
		X: bounds.Min.X + mulInt32Q16(tx, tileSize),
		Y: bounds.Min.Y + mulInt32Q16(ty, tileSize),
		Z: bounds.Min.Z + mulInt32Q16(tz, tileSize),
	}
	maxP := tile.Point{
		X: minP.X + tileSize,
		Y: minP.Y + tileSize,
		Z: minP.Z + tileSize,
	}
	if maxP.X > bounds.Max.X {
		maxP.X = bounds.Max.X
	}
	if maxP.Y > bounds.Max.Y {
		maxP.Y = bounds.Max.Y
	}
	if maxP.Z > bounds.Max.Z {
		maxP.Z = bounds.Max.Z
	}
	if minP.X < bounds.Min.X {
		minP.X = bounds.Min.X
	}
	if minP.Y < bounds.Min.Y {
		minP.Y = bounds.Min.Y
	}
	if minP.Z < bounds.Min.Z {
		minP.Z = bounds.Min.Z
	}
	return tile.AABB{Min: minP, Max: maxP}
}

func midQ16(a, b fixedpoint.Q16) fixedpoint.Q16 {
	diff := int64(b) - int64(a)
	mid := int64(a) + diff/2
	const maxQ16 = int64(2147483647)
	const minQ16 = -int64(2147483647) - 1
	if mid > maxQ16 {
		return fixedpoint.Q16(maxQ16)
	}
	if mid < minQ16 {
		return fixedpoint.Q16(minQ16)
	}
	return fixedpoint.Q16(mid)
}

// Map walks every input's authored bounds in tile-size steps, tests
// tile-centre containment against the volume's own cost ladder, and
// assigns contained tiles to shards, appending the result into index (any
// prior contents are cleared first). A domain with no source, invalid
// bounds, a non-positive tile size, or one that exhausts
// MaxTilesPerDomain flips index.Uncertain rather than failing the whole
// call. An error is returned for a malformed call (nil inputs or index,
// or a zero ShardCount) and when index.Add rejects an assignment because
// a capacity-bounded index is full.
func Map(inputs []Input, params PartitionParams, index *Index) error {
	if inputs == nil || index == nil {
		return errNilArgument
	}
	if params.ShardCount == 0 {
		return errZeroShardCount
	}
	index.Clear()

	for _, input := range inputs {
		v := input.Volume
		if v == nil {
			index.Uncertain = true
			continue
		}
		source := v.Source
		if source == nil || !boundsValid(source.Bounds()) {
			index.Uncertain = true
			continue
		}
		if !stateHasSpatial(v) {
			continue
		}

		tileSize := v.Policy.TileSize
		if tileSize <= 0 {
			index.Uncertain = true
			continue
		}

		bounds := source.Bounds()
		txMax := floorDivQ16(int64(bounds.Max.X)-int64(bounds.Min.X), tileSize)
		tyMax := floorDivQ16(int64(bounds.Max.Y)-int64(bounds.Min.Y), tileSize)
		tzMax := floorDivQ16(int64(bounds.Max.Z)-int64(bounds.Min.Z), tileSize)
		if txMax < 0 || tyMax < 0 || tzMax < 0 {
			index.Uncertain = true
			continue
		}

		resolution := params.Resolution
		if resolution >= tile.ResRefused {
			resolution = tile.ResCoarse
		}

		var budget *volume.Budget
		if params.BudgetUnits > 0 {
			budget = volume.NewBudget(params.BudgetUnits)
		}

		allowSplit := params.AllowSplit && input.Flags&FlagAllowSplit != 0
		domainShard := shardPick(params.GlobalSeed, input.DomainID, 0, params.ShardCount)
		streamAllowed := StreamingAllowed(input)
		simAllowed := simulationAllowed(input)

		tileCount := uint32(0)
		budgetExhausted := false
		for tz := int32(0); tz <= tzMax && !budgetExhausted; tz++ {
			for ty := int32(0); ty <= tyMax && !budgetExhausted; ty++ {
				for tx := int32(0); tx <= txMax; tx++ {
					if params.MaxTilesPerDomain > 0 && tileCount >= params.MaxTilesPerDomain {
						index.Uncertain = true
						budgetExhausted = true
						break
					}
					tileCount++

					tileBounds := makeTileBounds(bounds, tileSize, tx, ty, tz)
					center := tile.Point{
						X: midQ16(tileBounds.Min.X, tileBounds.Max.X),
						Y: midQ16(tileBounds.Min.Y, tileBounds.Max.Y),
						Z: midQ16(tileBounds.Min.Z, tileBounds.Max.Z),
					}

					inside, meta := volume.Contains(v, center, budget)
					if meta.Status != volume.StatusOK {
						index.Uncertain = true
						if meta.RefusalReason == volume.RefuseBudget {
							budgetExhausted = true
							break
						}
						continue
					}
					if meta.Confidence != volume.ConfidenceExact {
						index.Uncertain = true
						continue
					}
					if !inside {
						continue
					}

					tileID := tile.TileIDFromCoord(tx, ty, tz, uint32(resolution))
					shardID := domainShard
					if allowSplit {
						shardID = shardPick(params.GlobalSeed, input.DomainID, tileID, params.ShardCount)
					}

					assignment := Assignment{
						DomainID:   input.DomainID,
						TileID:     tileID,
						Resolution: resolution,
						Bounds:     tileBounds,
						ShardID:    shardID,
					}
					if streamAllowed {
						assignment.Flags |= FlagStreamingAllowed
					}
					if simAllowed {
						assignment.Flags |= FlagSimulationAllowed
					}
					if !allowSplit {
						assignment.Flags |= FlagWholeDomain
					}

					if err := index.Add(assignment); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

// Assignment binds one tile of one domain to the shard that owns it.
type Assignment struct {
	DomainID   uint64
	TileID     uint64
	Resolution tile.Resolution
	Bounds     tile.AABB
	ShardID    ID
	Flags      uint32
}

func assignmentBefore(a, b Assignment) bool {
	if a.DomainID != b.DomainID {
		return a.DomainID < b.DomainID
	}
	if a.Resolution != b.Resolution {
		return a.Resolution < b.Resolution
	}
	return a.TileID < b.TileID
}

// Index is the ordered (domain_id, resolution, tile_id) assignment list
// a Map call builds. Overflow reports whether a capacity-bounded Add was
// ever rejected; Uncertain reports whether any domain's mapping pass hit
// missing source data, invalid bounds, a non-exact containment answer,
// or its tile cap.
type Index struct {
	Assignments []Assignment
	Capacity    uint32 // 0 means unbounded
	Overflow    bool
	Uncertain   bool
}

// NewIndex returns an index with the given capacity (0 for unbounded).
func NewIndex(capacity uint32) *Index {
	return &Index{Capacity: capacity}
}

// Clear empties the assignment list and resets Overflow/Uncertain,
// keeping Capacity.
func (idx *Index) Clear() {
	idx.Assignments = idx.Assignments[:0]
	idx.Overflow = false
	idx.Uncertain = false
}

// Add inserts assignment in (domain_id, resolution, tile_id) order.
// Returns an error (and sets Overflow) if Capacity is nonzero and
// already reached.
func (idx *Index) Add(assignment Assignment) error {
	if idx.Capacity > 0 && uint32(len(idx.Assignments)) >= idx.Capacity {
		idx.Overflow = true
		return errIndexOverflow
	}
	at := sort.Search(len(idx.Assignments), func(i int) bool {
		return !assignmentBefore(idx.Assignments[i], assignment)
	})
	idx.Assignments = append(idx.Assignments, Assignment{})
	copy(idx.Assignments[at+1:], idx.Assignments[at:])
	idx.Assignments[at] = assignment
	return nil
}

// Find returns the shard owning (domainID, tileID), or ok=false if no
// assignment matches.
func (idx *Index) Find(domainID uint64, tileID uint64) (ID, bool) {
	for i := range idx.Assignments {
		a := &idx.Assignments[i]
		if a.DomainID == domainID && a.TileID == tileID {
			return a.ShardID, true
		}
	}
	return 0, false
}

// Count reports how many assignments the index currently holds.
func (idx *Index) Count() int {
	return len(idx.Assignments)
}
