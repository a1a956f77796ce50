// Package tile implements the domain engine's tile model: the tile
// descriptor, the grid-sampling build step, nearest-sample lookup, and the
// axis-aligned bounding box predicates every other component (volume
// ladder, shard mapper) is built on.
package tile

import (
	"fmt"

	"github.com/Julesc013/dominium-sub018/pkg/fixedpoint"
)

// Point is a Q16.16 3-vector.
type Point struct {
	X, Y, Z fixedpoint.Q16
}

// AABB is an axis-aligned bounding box with the invariant Min <= Max on
// every axis. Callers constructing an AABB are responsible for the
// invariant; none of the functions in this package normalize a violated
// one.
type AABB struct {
	Min, Max Point
}

// Resolution is one rung of the query cost ladder.
type Resolution uint32

const (
	ResFull Resolution = iota
	ResMedium
	ResCoarse
	ResAnalytic
	ResRefused
)

func (r Resolution) String() string {
	switch r {
	case ResFull:
		return "full"
	case ResMedium:
		return "medium"
	case ResCoarse:
		return "coarse"
	case ResAnalytic:
		return "analytic"
	default:
		return "refused"
	}
}

// Source is the SDF evaluator contract an authored volume binds to. Eval
// MUST be a pure function of (the source's own context, point); the engine
// never mutates a source and treats it as read-only for the query's
// duration.
type Source interface {
	// Eval returns the signed distance at point.
	Eval(p Point) fixedpoint.Q16
	// Bounds is the source's authored extent.
	Bounds() AABB
	// HasAnalytic reports whether AnalyticEval is usable.
	HasAnalytic() bool
	// AnalyticEval returns the signed distance at point using a closed-form
	// evaluation. Only called when HasAnalytic reports true.
	AnalyticEval(p Point) fixedpoint.Q16
}

// Descriptor identifies a tile without its sample payload.
type Descriptor struct {
	TileID           uint64
	Resolution       Resolution
	SampleDim        uint32
	Bounds           AABB
	AuthoringVersion uint32
}

// Tile is a descriptor plus its flat sample buffer, indexed as
// z*dim*dim + y*dim + x.
type Tile struct {
	Descriptor
	Samples []fixedpoint.Q16
}

// Empty reports whether the tile holds no samples.
func (t *Tile) Empty() bool {
	return t.SampleDim == 0
}

// Clear releases the tile's sample storage and resets it to the empty
// state, matching the source's dom_domain_tile_free semantics.
func (t *Tile) Clear() {
	t.Samples = nil
	t.TileID = 0
	t.Resolution = ResRefused
	t.SampleDim = 0
	t.Bounds = AABB{}
	t.AuthoringVersion = 0
}

// TileIDFromCoord derives a stable tile id via FNV-1a mixing of the four
// u32 words (tx, ty, tz, resolution) in that order, seeded with the
// canonical FNV-1a 64-bit offset basis.
func TileIDFromCoord(tx, ty, tz int32, resolution uint32) uint64 {
	h := fixedpoint.FNVOffsetBasis64
	h = fixedpoint.HashU32Mix(h, uint32(tx))
	h = fixedpoint.HashU32Mix(h, uint32(ty))
	h = fixedpoint.HashU32Mix(h, uint32(tz))
	h = fixedpoint.HashU32Mix(h, resolution)
	return h
}

func stepFromExtent(extent fixedpoint.Q16, sampleDim uint32) fixedpoint.Q16 {
	if sampleDim <= 1 {
		return 0
	}
	return fixedpoint.Q16(int64(extent) / int64(sampleDim-1))
}

// BuildTile samples source on a uniform desc.SampleDim^3 grid over
// desc.Bounds, snapping the last index on each axis to the exact upper
// bound so the extrema are always represented exactly. Samples are
// evaluated in k,j,i (z,y,x) order, matching the source's iteration order
// bit-for-bit so sample indices line up identically across conforming
// implementations.
func BuildTile(desc Descriptor, source Source) (Tile, error) {
	if source == nil {
		return Tile{}, fmt.Errorf("tile: BuildTile: %w", ErrNilSource)
	}
	dim := desc.SampleDim
	if dim == 0 {
		return Tile{}, fmt.Errorf("tile: BuildTile: %w", ErrZeroSampleDim)
	}

	t := Tile{Descriptor: desc}
	t.Samples = make([]fixedpoint.Q16, dim*dim*dim)

	stepX := stepFromExtent(fixedpoint.SubQ16(desc.Bounds.Max.X, desc.Bounds.Min.X), dim)
	stepY := stepFromExtent(fixedpoint.SubQ16(desc.Bounds.Max.Y, desc.Bounds.Min.Y), dim)
	stepZ := stepFromExtent(fixedpoint.SubQ16(desc.Bounds.Max.Z, desc.Bounds.Min.Z), dim)

	for k := uint32(0); k < dim; k++ {
		pz := desc.Bounds.Max.Z
		if k != dim-1 {
			pz = fixedpoint.AddQ16(desc.Bounds.Min.Z, fixedpoint.MulIntQ16(int32(k), stepZ))
		}
		for j := uint32(0); j < dim; j++ {
			py := desc.Bounds.Max.Y
			if j != dim-1 {
				py = fixedpoint.AddQ16(desc.Bounds.Min.Y, fixedpoint.MulIntQ16(int32(j), stepY))
			}
			for i := uint32(0); i < dim; i++ {
				px := desc.Bounds.Max.X
				if i != dim-1 {
					px = fixedpoint.AddQ16(desc.Bounds.Min.X, fixedpoint.MulIntQ16(int32(i), stepX))
				}
				idx := k*dim*dim + j*dim + i
				t.Samples[idx] = source.Eval(Point{X: px, Y: py, Z: pz})
			}
		}
	}
	return t, nil
}

func sampleIndexFromCoord(coord, minv, maxv, step fixedpoint.Q16, dim uint32) uint32 {
	if dim <= 1 || step <= 0 {
		return 0
	}
	if coord <= minv {
		return 0
	}
	if coord >= maxv {
		return dim - 1
	}
	rel := int64(coord) - int64(minv)
	idx := rel / int64(step)
	rem := rel - idx*int64(step)
	if rem*2 >= int64(step) && uint32(idx+1) < dim {
		idx++
	}
	if idx < 0 {
		return 0
	}
	if uint32(idx) >= dim {
		return dim - 1
	}
	return uint32(idx)
}

// SampleNearest clamps point into the tile's bounds, finds the nearest
// grid index per axis with round-half-up tie-break, and returns the
// stored sample alongside the exact grid-point position it was sampled
// at. An empty tile yields a zero sample and a zeroed grid point.
func SampleNearest(t *Tile, p Point) (sample fixedpoint.Q16, gridPoint Point) {
	if t == nil || t.Empty() || len(t.Samples) == 0 {
		return 0, Point{}
	}

	px := fixedpoint.ClampQ16(p.X, t.Bounds.Min.X, t.Bounds.Max.X)
	py := fixedpoint.ClampQ16(p.Y, t.Bounds.Min.Y, t.Bounds.Max.Y)
	pz := fixedpoint.ClampQ16(p.Z, t.Bounds.Min.Z, t.Bounds.Max.Z)

	dim := t.SampleDim
	stepX := stepFromExtent(fixedpoint.SubQ16(t.Bounds.Max.X, t.Bounds.Min.X), dim)
	stepY := stepFromExtent(fixedpoint.SubQ16(t.Bounds.Max.Y, t.Bounds.Min.Y), dim)
	stepZ := stepFromExtent(fixedpoint.SubQ16(t.Bounds.Max.Z, t.Bounds.Min.Z), dim)

	ix := sampleIndexFromCoord(px, t.Bounds.Min.X, t.Bounds.Max.X, stepX, dim)
	iy := sampleIndexFromCoord(py, t.Bounds.Min.Y, t.Bounds.Max.Y, stepY, dim)
	iz := sampleIndexFromCoord(pz, t.Bounds.Min.Z, t.Bounds.Max.Z, stepZ, dim)

	sx := t.Bounds.Max.X
	if ix != dim-1 {
		sx = fixedpoint.AddQ16(t.Bounds.Min.X, fixedpoint.MulIntQ16(int32(ix), stepX))
	}
	sy := t.Bounds.Max.Y
	if iy != dim-1 {
		sy = fixedpoint.AddQ16(t.Bounds.Min.Y, fixedpoint.MulIntQ16(int32(iy), stepY))
	}
	sz := t.Bounds.Max.Z
	if iz != dim-1 {
		sz = fixedpoint.AddQ16(t.Bounds.Min.Z, fixedpoint.MulIntQ16(int32(iz), stepZ))
	}

	idx := iz*dim*dim + iy*dim + ix
	return t.Samples[idx], Point{X: sx, Y: sy, Z: sz}
}

// AABBContains is the textbook axis-aligned containment predicate,
// inclusive of the boundary.
func AABBContains(a AABB, p Point) bool {
	if p.X < a.Min.X || p.X > a.Max.X {
		return false
	}
	if p.Y < a.Min.Y || p.Y > a.Max.Y {
		return false
	}
	if p.Z < a.Min.Z || p.Z > a.Max.Z {
		return false
	}
	return true
}

// AABBDistanceL1 is the L1 (Manhattan) distance from p to the AABB,
// zero if p is inside, saturated to Q16.16 max on overflow.
func AABBDistanceL1(a AABB, p Point) fixedpoint.Q16 {
	var dx, dy, dz fixedpoint.Q16
	if p.X < a.Min.X {
		dx = fixedpoint.SubQ16(a.Min.X, p.X)
	} else if p.X > a.Max.X {
		dx = fixedpoint.SubQ16(p.X, a.Max.X)
	}
	if p.Y < a.Min.Y {
		dy = fixedpoint.SubQ16(a.Min.Y, p.Y)
	} else if p.Y > a.Max.Y {
		dy = fixedpoint.SubQ16(p.Y, a.Max.Y)
	}
	if p.Z < a.Min.Z {
		dz = fixedpoint.SubQ16(a.Min.Z, p.Z)
	} else if p.Z > a.Max.Z {
		dz = fixedpoint.SubQ16(p.Z, a.Max.Z)
	}
	sum := int64(fixedpoint.AbsQ16(dx)) + int64(fixedpoint.AbsQ16(dy)) + int64(fixedpoint.AbsQ16(dz))
	if sum > int64(1<<31-1) {
		return fixedpoint.Q16(1<<31 - 1)
	}
	return fixedpoint.Q16(sum)
}

// L1Distance is the L1 distance between two points, saturated to Q16.16
// max.
func L1Distance(a, b Point) fixedpoint.Q16 {
	dx := fixedpoint.AbsQ16(fixedpoint.SubQ16(a.X, b.X))
	dy := fixedpoint.AbsQ16(fixedpoint.SubQ16(a.Y, b.Y))
	dz := fixedpoint.AbsQ16(fixedpoint.SubQ16(a.Z, b.Z))
	sum := int64(dx) + int64(dy) + int64(dz)
	if sum > int64(1<<31-1) {
		return fixedpoint.Q16(1<<31 - 1)
	}
	return fixedpoint.Q16(sum)
}
