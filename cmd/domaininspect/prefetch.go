package main

import (
	"fmt"

	"github.com/Julesc013/dominium-sub018/internal/config"
	"github.com/Julesc013/dominium-sub018/internal/fixture"
	"github.com/Julesc013/dominium-sub018/pkg/volume"
)

// runPrefetch is a worked example of the streaming-hint touchpoint an
// installer/launcher is expected to call (SPEC_FULL.md §6a): load a
// fixture, bind its domains to volumes, and print the advisory hint list
// volume.EmitStreamingHints returns for them.
func runPrefetch(args []string) error {
	fs := newFlagSet("prefetch")
	fixturePath := fs.String("fixture", "", "path to a fixture file (required)")
	configPath := fs.String("config", "", "path to a YAML policy config (required)")
	budgetUnits := fs.Uint("budget", 64, "hint-emission budget in abstract units")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *fixturePath == "" || *configPath == "" {
		return fmt.Errorf("-fixture and -config are both required")
	}

	fx, err := fixture.Load(*fixturePath)
	if err != nil {
		return fmt.Errorf("loading fixture: %w", err)
	}
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	inputs := fx.ShardInputs()
	volumes := make([]*volume.Volume, 0, len(inputs))
	for i, in := range inputs {
		v := volume.New(in.DomainID)
		v.SetSource(newBallSource(int32(32 * (i + 1))))
		existence := volume.ExistenceRefinable
		if in.Flags&1 == 0 {
			existence = volume.ExistenceRealized
		}
		v.SetState(existence, volume.ArchivalLive)
		p := v.Policy
		p.TileSize = cfg.Policy.TileSizeQ16()
		v.SetPolicy(p)
		volumes = append(volumes, v)
	}

	budget := volume.NewBudget(uint32(*budgetUnits))
	hints := volume.EmitStreamingHints(volumes, budget)

	fmt.Printf("%-10s %-12s %-10s\n", "domain", "kind", "priority")
	for _, h := range hints {
		kind := "refine-soon"
		if h.Kind == volume.HintCollapseOK {
			kind = "collapse-ok"
		}
		fmt.Printf("%-10d %-12s %-10d\n", h.DomainID, kind, h.Priority)
	}
	fmt.Printf("\n%d hints emitted, %d/%d budget units remaining\n", len(hints), budget.MaxUnits-budget.UsedUnits, *budgetUnits)
	return nil
}
