package volume

import (
	"github.com/Julesc013/dominium-sub018/pkg/tile"
)

// HintKind enumerates the streaming-advisory kinds a volume can emit.
type HintKind uint32

const (
	HintRefineSoon HintKind = iota
	HintCollapseOK
)

// HintFlags are bit flags on a StreamingHint.
type HintFlags uint32

// FlagAdvisory marks every hint produced by this engine: hints are never
// authoritative, only suggestions for a caller's own streaming policy.
const FlagAdvisory HintFlags = 1 << 0

const (
	priorityRefineSoon  = 100
	priorityCollapseOK  = 10
	streamingHintBudget = 1
)

// StreamingHint is one advisory emitted by EmitStreamingHints.
type StreamingHint struct {
	DomainID   uint64
	TileID     uint64
	Resolution tile.Resolution
	Bounds     tile.AABB
	Kind       HintKind
	Priority   uint32
	Flags      HintFlags
}

func streamingActive(v *Volume) bool {
	if v == nil || v.Source == nil {
		return false
	}
	if v.Archival != ArchivalLive {
		return false
	}
	switch v.Existence {
	case ExistenceNonexistent, ExistenceDeclared, ExistenceArchived:
		return false
	default:
		return true
	}
}

func hintForVolume(v *Volume) (StreamingHint, bool) {
	var kind HintKind
	var priority uint32
	switch v.Existence {
	case ExistenceRefinable:
		kind, priority = HintRefineSoon, priorityRefineSoon
	case ExistenceRealized:
		kind, priority = HintCollapseOK, priorityCollapseOK
	default:
		return StreamingHint{}, false
	}
	return StreamingHint{
		DomainID:   v.DomainID,
		TileID:     0,
		Resolution: tile.ResAnalytic,
		Bounds:     v.Source.Bounds(),
		Kind:       kind,
		Priority:   priority,
		Flags:      FlagAdvisory,
	}, true
}

// EmitStreamingHints walks volumes in order and returns one advisory hint
// per volume eligible to emit one (REFINABLE -> refine-soon, REALIZED ->
// collapse-ok), spending one budget unit per emitted hint. It stops
// emitting once the budget is exhausted rather than refusing outright:
// a partial hint list is a valid, in-band outcome (SPEC_FULL.md §6a).
func EmitStreamingHints(volumes []*Volume, budget *Budget) []StreamingHint {
	var hints []StreamingHint
	for _, v := range volumes {
		if !streamingActive(v) {
			continue
		}
		hint, ok := hintForVolume(v)
		if !ok {
			continue
		}
		if !budget.Consume(streamingHintBudget) {
			break
		}
		hints = append(hints, hint)
	}
	return hints
}
