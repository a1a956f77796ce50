package main

import (
	"fmt"

	"github.com/Julesc013/dominium-sub018/internal/config"
	"github.com/Julesc013/dominium-sub018/internal/fixture"
	"github.com/Julesc013/dominium-sub018/pkg/fixedpoint"
	"github.com/Julesc013/dominium-sub018/pkg/shard"
	"github.com/Julesc013/dominium-sub018/pkg/tile"
	"github.com/Julesc013/dominium-sub018/pkg/volume"
)

// ballSource is a fixed-radius L1-ball SDF source, the same shape used
// across the module's tests (SPEC_FULL.md §8), used here only to give a
// fixture-described domain some spatial extent for the shard-map preview.
type ballSource struct {
	radius fixedpoint.Q16
	bounds tile.AABB
}

func newBallSource(radius int32) *ballSource {
	r := fixedpoint.Int32ToQ16(radius)
	lo := fixedpoint.Int32ToQ16(-radius * 2)
	hi := fixedpoint.Int32ToQ16(radius * 2)
	return &ballSource{
		radius: r,
		bounds: tile.AABB{Min: tile.Point{X: lo, Y: lo, Z: lo}, Max: tile.Point{X: hi, Y: hi, Z: hi}},
	}
}

func (s *ballSource) Eval(p tile.Point) fixedpoint.Q16 {
	return fixedpoint.SubQ16(tile.L1Distance(tile.Point{}, p), s.radius)
}
func (s *ballSource) Bounds() tile.AABB                        { return s.bounds }
func (s *ballSource) HasAnalytic() bool                        { return false }
func (s *ballSource) AnalyticEval(p tile.Point) fixedpoint.Q16 { return s.Eval(p) }

func runShardMap(args []string) error {
	fs := newFlagSet("shard-map")
	fixturePath := fs.String("fixture", "", "path to a fixture file (required)")
	configPath := fs.String("config", "", "path to a YAML policy/partition config (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *fixturePath == "" || *configPath == "" {
		return fmt.Errorf("-fixture and -config are both required")
	}

	idx, err := buildShardIndex(*fixturePath, *configPath)
	if err != nil {
		return err
	}

	fmt.Printf("%-10s %-10s %-10s %-8s %s\n", "domain", "tile", "resolution", "shard", "flags")
	for _, a := range idx.Assignments {
		fmt.Printf("%-10d %-10d %-10s %-8d %#x\n", a.DomainID, a.TileID, a.Resolution, a.ShardID, a.Flags)
	}
	fmt.Printf("\n%d assignments, overflow=%v, uncertain=%v\n", idx.Count(), idx.Overflow, idx.Uncertain)
	return nil
}

// buildShardIndex loads a fixture and config, binds each shard.Input to a
// placeholder L1-ball volume (fixtures carry permission flags, not SDF
// sources — see internal/fixture.ShardInputs), and runs shard.Map.
func buildShardIndex(fixturePath, configPath string) (*shard.Index, error) {
	fx, err := fixture.Load(fixturePath)
	if err != nil {
		return nil, fmt.Errorf("loading fixture: %w", err)
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	inputs := fx.ShardInputs()
	for i := range inputs {
		v := volume.New(inputs[i].DomainID)
		v.SetSource(newBallSource(64))
		v.SetState(volume.ExistenceRealized, volume.ArchivalLive)
		p := v.Policy
		p.TileSize = cfg.Policy.TileSizeQ16()
		p.MaxResolution = cfg.Policy.MaxResolutionValue()
		v.SetPolicy(p)
		inputs[i].Volume = v
	}

	params := shard.PartitionParams{
		ShardCount:        cfg.Partition.ShardCount,
		AllowSplit:        cfg.Partition.AllowSplit,
		Resolution:        cfg.Partition.ResolutionValue(),
		MaxTilesPerDomain: cfg.Partition.MaxTilesPerDomain,
		BudgetUnits:       cfg.Partition.BudgetUnits,
		GlobalSeed:        cfg.Partition.GlobalSeed,
	}
	idx := shard.NewIndex(0)
	if err := shard.Map(inputs, params, idx); err != nil {
		return nil, fmt.Errorf("mapping shards: %w", err)
	}
	return idx, nil
}
