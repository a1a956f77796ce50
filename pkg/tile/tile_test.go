package tile_test

import (
	"testing"

	"github.com/Julesc013/dominium-sub018/pkg/fixedpoint"
	"github.com/Julesc013/dominium-sub018/pkg/tile"
	"pgregory.net/rapid"
)

// l1BallSource is an SDF source for an L1-norm ball: exact distance is
// |x|+|y|+|z| - radius. Used throughout the module's tests as the
// canonical concrete source from SPEC_FULL.md §8.
type l1BallSource struct {
	center tile.Point
	radius fixedpoint.Q16
	bounds tile.AABB
	evals  int
}

func (s *l1BallSource) Eval(p tile.Point) fixedpoint.Q16 {
	s.evals++
	d := tile.L1Distance(s.center, p)
	return fixedpoint.SubQ16(d, s.radius)
}

func (s *l1BallSource) Bounds() tile.AABB { return s.bounds }
func (s *l1BallSource) HasAnalytic() bool { return false }
func (s *l1BallSource) AnalyticEval(p tile.Point) fixedpoint.Q16 {
	return s.Eval(p)
}

func newL1Ball(radius int32) *l1BallSource {
	r := fixedpoint.Int32ToQ16(radius)
	lo := fixedpoint.Int32ToQ16(-16)
	hi := fixedpoint.Int32ToQ16(16)
	return &l1BallSource{
		center: tile.Point{},
		radius: r,
		bounds: tile.AABB{Min: tile.Point{X: lo, Y: lo, Z: lo}, Max: tile.Point{X: hi, Y: hi, Z: hi}},
	}
}

func TestTileIDFromCoordDeterministic(t *testing.T) {
	a := tile.TileIDFromCoord(1, 2, 3, uint32(tile.ResMedium))
	b := tile.TileIDFromCoord(1, 2, 3, uint32(tile.ResMedium))
	if a != b {
		t.Fatalf("TileIDFromCoord not deterministic: %d != %d", a, b)
	}
	c := tile.TileIDFromCoord(1, 2, 4, uint32(tile.ResMedium))
	if a == c {
		t.Fatalf("TileIDFromCoord collided across distinct coordinates")
	}
}

func TestBuildTileSnapsLastIndexToMax(t *testing.T) {
	src := newL1Ball(4)
	desc := tile.Descriptor{
		Resolution: tile.ResMedium,
		SampleDim:  4,
		Bounds:     src.Bounds(),
	}
	built, err := tile.BuildTile(desc, src)
	if err != nil {
		t.Fatalf("BuildTile failed: %v", err)
	}
	dim := int(desc.SampleDim)
	lastIdx := (dim-1)*dim*dim + (dim-1)*dim + (dim - 1)
	want := src.Eval(tile.Point{X: src.bounds.Max.X, Y: src.bounds.Max.Y, Z: src.bounds.Max.Z})
	if built.Samples[lastIdx] != want {
		t.Fatalf("last sample = %d, want %d (corner of bounds)", built.Samples[lastIdx], want)
	}
}

func TestBuildTileZeroDimFails(t *testing.T) {
	src := newL1Ball(4)
	desc := tile.Descriptor{Resolution: tile.ResMedium, SampleDim: 0, Bounds: src.Bounds()}
	if _, err := tile.BuildTile(desc, src); err == nil {
		t.Fatal("expected error building a zero-dimension tile")
	}
}

func TestSampleNearestEmptyTileYieldsZero(t *testing.T) {
	var empty tile.Tile
	sample, gp := tile.SampleNearest(&empty, tile.Point{})
	if sample != 0 || gp != (tile.Point{}) {
		t.Fatalf("SampleNearest on empty tile = (%d, %+v), want (0, zero point)", sample, gp)
	}
}

func TestAABBContainsInclusiveBoundary(t *testing.T) {
	a := tile.AABB{
		Min: tile.Point{X: fixedpoint.Int32ToQ16(-1), Y: fixedpoint.Int32ToQ16(-1), Z: fixedpoint.Int32ToQ16(-1)},
		Max: tile.Point{X: fixedpoint.Int32ToQ16(1), Y: fixedpoint.Int32ToQ16(1), Z: fixedpoint.Int32ToQ16(1)},
	}
	if !tile.AABBContains(a, tile.Point{X: fixedpoint.Int32ToQ16(1)}) {
		t.Fatal("boundary point should be contained")
	}
	if tile.AABBContains(a, tile.Point{X: fixedpoint.Int32ToQ16(2)}) {
		t.Fatal("outside point should not be contained")
	}
}

func TestAABBDistanceL1ZeroInside(t *testing.T) {
	a := tile.AABB{
		Min: tile.Point{X: fixedpoint.Int32ToQ16(-1), Y: fixedpoint.Int32ToQ16(-1), Z: fixedpoint.Int32ToQ16(-1)},
		Max: tile.Point{X: fixedpoint.Int32ToQ16(1), Y: fixedpoint.Int32ToQ16(1), Z: fixedpoint.Int32ToQ16(1)},
	}
	if d := tile.AABBDistanceL1(a, tile.Point{}); d != 0 {
		t.Fatalf("AABBDistanceL1 for interior point = %d, want 0", d)
	}
}

// TestSampleNearestClampsIntoBounds is a property test: for arbitrary
// query points, SampleNearest's returned grid point always lies within
// the tile bounds.
func TestSampleNearestClampsIntoBounds(t *testing.T) {
	src := newL1Ball(4)
	desc := tile.Descriptor{Resolution: tile.ResMedium, SampleDim: 5, Bounds: src.Bounds()}
	built, err := tile.BuildTile(desc, src)
	if err != nil {
		t.Fatalf("BuildTile: %v", err)
	}

	rapid.Check(t, func(rt *rapid.T) {
		x := rapid.Int32Range(-1000, 1000).Draw(rt, "x")
		y := rapid.Int32Range(-1000, 1000).Draw(rt, "y")
		z := rapid.Int32Range(-1000, 1000).Draw(rt, "z")
		p := tile.Point{X: fixedpoint.Q16(x), Y: fixedpoint.Q16(y), Z: fixedpoint.Q16(z)}
		_, gp := tile.SampleNearest(&built, p)
		if !tile.AABBContains(built.Bounds, gp) {
			t.Fatalf("grid point %+v escaped tile bounds %+v", gp, built.Bounds)
		}
	})
}
