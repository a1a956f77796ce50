package volume_test

import (
	"testing"

	"github.com/Julesc013/dominium-sub018/pkg/volume"
)

func TestStreamingHintOrdering(t *testing.T) {
	refinable := newActiveVolume(newL1Ball(4))
	refinable.SetState(volume.ExistenceRefinable, volume.ArchivalLive)

	realized := newActiveVolume(newL1Ball(4))
	realized.SetState(volume.ExistenceRealized, volume.ArchivalLive)

	budget := volume.NewBudget(10)
	hints := volume.EmitStreamingHints([]*volume.Volume{refinable, realized}, budget)

	if len(hints) != 2 {
		t.Fatalf("expected 2 hints, got %d: %+v", len(hints), hints)
	}
	if hints[0].Kind != volume.HintRefineSoon || hints[0].Priority != 100 {
		t.Fatalf("expected first hint RefineSoon/100, got %+v", hints[0])
	}
	if hints[1].Kind != volume.HintCollapseOK || hints[1].Priority != 10 {
		t.Fatalf("expected second hint CollapseOK/10, got %+v", hints[1])
	}
	for _, h := range hints {
		if h.Flags&volume.FlagAdvisory == 0 {
			t.Fatalf("hint missing advisory flag: %+v", h)
		}
	}
}

func TestStreamingHintsSkipInactiveAndArchivedAndSourceless(t *testing.T) {
	nonexistent := volume.New(1) // default NONEXISTENT, no source
	archived := newActiveVolume(newL1Ball(4))
	archived.SetState(volume.ExistenceArchived, volume.ArchivalLive)
	noSource := volume.New(3)
	noSource.SetState(volume.ExistenceRealized, volume.ArchivalLive)

	budget := volume.NewBudget(100)
	hints := volume.EmitStreamingHints([]*volume.Volume{nonexistent, archived, noSource}, budget)
	if len(hints) != 0 {
		t.Fatalf("expected no hints from inactive/archived/sourceless volumes, got %+v", hints)
	}
}

func TestStreamingHintsStopOnBudgetExhaustion(t *testing.T) {
	var volumes []*volume.Volume
	for i := 0; i < 5; i++ {
		v := newActiveVolume(newL1Ball(4))
		v.SetState(volume.ExistenceRefinable, volume.ArchivalLive)
		volumes = append(volumes, v)
	}
	budget := volume.NewBudget(2)
	hints := volume.EmitStreamingHints(volumes, budget)
	if len(hints) != 2 {
		t.Fatalf("expected exactly 2 hints under a 2-unit budget, got %d", len(hints))
	}
}
