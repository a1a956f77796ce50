package volume

import (
	"github.com/Julesc013/dominium-sub018/pkg/fixedpoint"
	"github.com/Julesc013/dominium-sub018/pkg/tile"
)

func resolutionAllowed(maxResolution, resolution tile.Resolution) bool {
	switch maxResolution {
	case tile.ResFull:
		return true
	case tile.ResMedium:
		return resolution != tile.ResFull
	case tile.ResCoarse:
		return resolution == tile.ResCoarse || resolution == tile.ResAnalytic
	case tile.ResAnalytic:
		return resolution == tile.ResAnalytic
	default:
		return resolution == tile.ResAnalytic
	}
}

func sampleDimForResolution(v *Volume, res tile.Resolution) uint32 {
	switch res {
	case tile.ResFull:
		return v.Policy.SampleDimFull
	case tile.ResMedium:
		return v.Policy.SampleDimMedium
	case tile.ResCoarse:
		return v.Policy.SampleDimCoarse
	default:
		return 0
	}
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

func makeTileBounds(bounds tile.AABB, tileSize fixedpoint.Q16, tx, ty, tz int32) tile.AABB {
	minP := tile.Point{
		X: fixedpoint.AddQ16(bounds.Min.X, fixedpoint.MulIntQ16(tx, tileSize)),
		Y: fixedpoint.AddQ16(bounds.Min.Y, fixedpoint.MulIntQ16(ty, tileSize)),
		Z: fixedpoint.AddQ16(bounds.Min.Z, fixedpoint.MulIntQ16(tz, tileSize)),
	}
	maxP := tile.Point{
		X: fixedpoint.AddQ16(minP.X, tileSize),
		Y: fixedpoint.AddQ16(minP.Y, tileSize),
		Z: fixedpoint.AddQ16(minP.Z, tileSize),
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

// buildTileDesc derives the tile descriptor a point falls into at the
// given resolution: tile coordinates are the floor-division of the
// point's offset from the source's min by tile_size.
func buildTileDesc(v *Volume, p tile.Point, res tile.Resolution) (tile.Descriptor, bool) {
	if v.Source == nil {
		return tile.Descriptor{}, false
	}
	tileSize := v.Policy.TileSize
	if tileSize <= 0 {
		return tile.Descriptor{}, false
	}
	sampleDim := sampleDimForResolution(v, res)
	if sampleDim == 0 {
		return tile.Descriptor{}, false
	}

	bounds := v.Source.Bounds()
	tx := floorDivQ16(int64(p.X)-int64(bounds.Min.X), tileSize)
	ty := floorDivQ16(int64(p.Y)-int64(bounds.Min.Y), tileSize)
	tz := floorDivQ16(int64(p.Z)-int64(bounds.Min.Z), tileSize)

	desc := tile.Descriptor{
		Resolution:       res,
		SampleDim:        sampleDim,
		TileID:           tile.TileIDFromCoord(tx, ty, tz, uint32(res)),
		AuthoringVersion: v.AuthoringVersion,
		Bounds:           makeTileBounds(bounds, tileSize, tx, ty, tz),
	}
	return desc, true
}

// evalResult is the ladder's internal result shape, shared by Distance,
// ClosestPoint, Contains and RayIntersect.
type evalResult struct {
	samplePoint tile.Point
	distance    fixedpoint.Q16
	meta        QueryMeta
}

// evalDistance is the cost ladder itself (SPEC_FULL.md §4.4). It always
// falls forward to the next admitted rung, except when a tile build fails
// mid-ladder, which is reported as RefuseInternal and stops the ladder.
func evalDistance(v *Volume, p tile.Point, budget *Budget) evalResult {
	if v == nil {
		return evalResult{meta: refusedMeta(RefuseInternal, budget)}
	}
	if !v.IsActive() {
		return evalResult{meta: refusedMeta(RefuseDomainInactive, budget)}
	}
	if v.Source == nil {
		return evalResult{meta: refusedMeta(RefuseNoSource, budget)}
	}

	bounds := v.Source.Bounds()
	if !tile.AABBContains(bounds, p) {
		d := tile.AABBDistanceL1(bounds, p)
		return evalResult{
			samplePoint: p,
			distance:    d,
			meta:        okMeta(tile.ResCoarse, ConfidenceLowerBound, 0, budget),
		}
	}

	if resolutionAllowed(v.Policy.MaxResolution, tile.ResFull) {
		cost := v.Policy.CostFull
		if budget.Consume(cost) {
			return evalResult{
				samplePoint: p,
				distance:    v.Source.Eval(p),
				meta:        okMeta(tile.ResFull, ConfidenceExact, cost, budget),
			}
		}
	}

	if res, ok := evalTiledRung(v, p, budget, tile.ResMedium, v.Policy.CostMedium, v.Policy.TileBuildCostMedium); ok {
		return res
	}
	if res, ok := evalTiledRung(v, p, budget, tile.ResCoarse, v.Policy.CostCoarse, v.Policy.TileBuildCostCoarse); ok {
		return res
	}

	if resolutionAllowed(v.Policy.MaxResolution, tile.ResAnalytic) {
		if !v.Source.HasAnalytic() {
			return evalResult{meta: refusedMeta(RefuseNoAnalytic, budget)}
		}
		cost := v.Policy.CostAnalytic
		if budget.Consume(cost) {
			return evalResult{
				samplePoint: p,
				distance:    v.Source.AnalyticEval(p),
				meta:        okMeta(tile.ResAnalytic, ConfidenceExact, cost, budget),
			}
		}
	}

	return evalResult{meta: refusedMeta(RefuseBudget, budget)}
}

// evalTiledRung evaluates the Medium/Coarse rungs, which share identical
// shape apart from resolution/cost parameters. The bool return reports
// whether this rung produced a terminal result (success or INTERNAL
// failure); false means "fall through to the next rung" (the rung was not
// permitted by policy, the tile descriptor could not be built, or the
// budget could not be debited).
func evalTiledRung(v *Volume, p tile.Point, budget *Budget, res tile.Resolution, baseCost, buildCost uint32) (evalResult, bool) {
	if !resolutionAllowed(v.Policy.MaxResolution, res) {
		return evalResult{}, false
	}
	desc, ok := buildTileDesc(v, p, res)
	if !ok {
		return evalResult{}, false
	}
	cost := baseCost
	if !v.tileCached(desc) {
		cost += buildCost
	}
	if !budget.Consume(cost) {
		return evalResult{}, false
	}

	t, ok := v.tileGet(desc, true)
	if !ok {
		return evalResult{meta: refusedMeta(RefuseInternal, budget)}, true
	}
	sample, samplePoint := tile.SampleNearest(t, p)
	l1 := tile.L1Distance(p, samplePoint)
	// NOTE (OQ1, preserved verbatim from original_source): this subtracts
	// the L1 distance between the query point and the sampled grid point
	// from the sampled SDF value, which is a conservative lower bound when
	// samples hold true SDF values but is overly pessimistic near tile
	// corners. Not "fixed" — see DESIGN.md.
	distance := fixedpoint.SubQ16(sample, l1)
	return evalResult{
		samplePoint: samplePoint,
		distance:    distance,
		meta:        okMeta(res, ConfidenceLowerBound, cost, budget),
	}, true
}

// Contains returns true iff the ladder's result is Exact with
// distance <= 0. Lower-bound answers are always treated as "not
// contained" (the conservative-under-uncertainty rule, property 3,
// SPEC_FULL.md §8).
func Contains(v *Volume, p tile.Point, budget *Budget) (bool, QueryMeta) {
	eval := evalDistance(v, p, budget)
	if eval.meta.Status != StatusOK || eval.meta.Confidence != ConfidenceExact {
		return false, eval.meta
	}
	return eval.distance <= 0, eval.meta
}

// DistanceResult is the outcome of Distance.
type DistanceResult struct {
	Distance fixedpoint.Q16
	Meta     QueryMeta
}

// Distance returns the ladder's distance and meta verbatim.
func Distance(v *Volume, p tile.Point, budget *Budget) DistanceResult {
	eval := evalDistance(v, p, budget)
	return DistanceResult{Distance: eval.distance, Meta: eval.meta}
}

// ClosestPointResult is the outcome of ClosestPoint.
type ClosestPointResult struct {
	Point    tile.Point
	Distance fixedpoint.Q16
	Meta     QueryMeta
}

// ClosestPoint returns the ladder's sample grid-point and distance.
func ClosestPoint(v *Volume, p tile.Point, budget *Budget) ClosestPointResult {
	eval := evalDistance(v, p, budget)
	return ClosestPointResult{Point: eval.samplePoint, Distance: eval.distance, Meta: eval.meta}
}

// Ray is a ray-march query: origin + direction, stepped in policy.ray_step
// increments up to max_distance (or 1, if non-positive).
type Ray struct {
	Origin      tile.Point
	Direction   tile.Point
	MaxDistance fixedpoint.Q16
}

// RayHitResult is the outcome of RayIntersect.
type RayHitResult struct {
	Hit      bool
	Point    tile.Point
	Distance fixedpoint.Q16
	Meta     QueryMeta
}

func rayPoint(ray Ray, t fixedpoint.Q16) tile.Point {
	return tile.Point{
		X: fixedpoint.AddQ16(ray.Origin.X, fixedpoint.MulQ16(ray.Direction.X, t)),
		Y: fixedpoint.AddQ16(ray.Origin.Y, fixedpoint.MulQ16(ray.Direction.Y, t)),
		Z: fixedpoint.AddQ16(ray.Origin.Z, fixedpoint.MulQ16(ray.Direction.Z, t)),
	}
}

// RayIntersect marches from t=0 in policy.ray_step increments, bounded by
// policy.max_ray_steps iterations and ray.max_distance, evaluating the
// ladder at each step. It stops with hit=true the first time the ladder
// reports Exact with distance <= 0; on refusal, it stops with hit=false
// and propagates the meta; on exhaustion, hit=false with the last OK
// step's meta.
func RayIntersect(v *Volume, ray Ray, budget *Budget) RayHitResult {
	var out RayHitResult
	if v == nil {
		out.Meta = refusedMeta(RefuseInternal, budget)
		return out
	}

	maxDistance := ray.MaxDistance
	if maxDistance <= 0 {
		maxDistance = fixedpoint.Int32ToQ16(1)
	}
	step := v.Policy.RayStep
	if step <= 0 {
		step = fixedpoint.Int32ToQ16(1)
	}
	steps := v.Policy.MaxRaySteps
	if steps == 0 {
		steps = 1
	}

	t := fixedpoint.Q16(0)
	for ; steps > 0; steps-- {
		if t > maxDistance {
			break
		}
		p := rayPoint(ray, t)
		eval := evalDistance(v, p, budget)
		out.Meta = eval.meta
		if eval.meta.Status != StatusOK {
			out.Hit = false
			return out
		}
		if eval.meta.Confidence == ConfidenceExact && eval.distance <= 0 {
			out.Hit = true
			out.Point = p
			out.Distance = t
			return out
		}
		t = fixedpoint.AddQ16(t, step)
	}

	out.Hit = false
	return out
}
