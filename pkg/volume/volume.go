package volume

import (
	"github.com/Julesc013/dominium-sub018/pkg/tile"
	"github.com/Julesc013/dominium-sub018/pkg/tilecache"
)

// LocalTileSlots is the number of non-analytic resolutions a volume can
// cache locally when it has no attached shared cache (Full, Medium,
// Coarse).
const LocalTileSlots = 3

type localSlot struct {
	t       tile.Tile
	valid   bool
	tileID  uint64
	version uint32
}

// Volume binds an SDF source, a policy, an optional shared cache, and
// lifecycle state. It is the unit every query operation acts on.
type Volume struct {
	DomainID         uint64
	AuthoringVersion uint32
	Existence        ExistenceState
	Archival         ArchivalState
	Source           tile.Source
	Policy           Policy

	cache      *tilecache.Cache
	localTiles [LocalTileSlots]localSlot
}

// New returns a volume initialised with default policy, NONEXISTENT
// existence, and LIVE archival state, matching dom_domain_volume_init.
func New(domainID uint64) *Volume {
	return &Volume{
		DomainID:  domainID,
		Existence: ExistenceNonexistent,
		Archival:  ArchivalLive,
		Policy:    DefaultPolicy(),
	}
}

// IsActive reports whether the volume is active for queries: existence
// state is neither NONEXISTENT nor DECLARED.
func (v *Volume) IsActive() bool {
	if v == nil {
		return false
	}
	return v.Existence != ExistenceNonexistent && v.Existence != ExistenceDeclared
}

func (v *Volume) clearLocalTiles() {
	for i := range v.localTiles {
		v.localTiles[i] = localSlot{}
	}
}

// SetSource binds a new SDF source, invalidating the local tile slots.
func (v *Volume) SetSource(source tile.Source) {
	v.Source = source
	v.clearLocalTiles()
}

// SetCache attaches (or detaches, with nil) a shared tile cache. Per
// SPEC_FULL.md §4.4, once a cache is attached the local slots are no
// longer consulted; ownership lives in the cache.
func (v *Volume) SetCache(c *tilecache.Cache) {
	v.cache = c
}

// SetPolicy replaces the volume's policy, invalidating the local tile
// slots.
func (v *Volume) SetPolicy(p Policy) {
	v.Policy = p
	v.clearLocalTiles()
}

// SetState updates existence/archival state, invalidating the local tile
// slots only if either actually changed.
func (v *Volume) SetState(existence ExistenceState, archival ArchivalState) {
	if v.Existence != existence || v.Archival != archival {
		v.Existence = existence
		v.Archival = archival
		v.clearLocalTiles()
	}
}

// SetAuthoringVersion bumps the authoring version, invalidating the local
// tile slots only if it actually changed.
func (v *Volume) SetAuthoringVersion(version uint32) {
	if v.AuthoringVersion != version {
		v.AuthoringVersion = version
		v.clearLocalTiles()
	}
}

func localSlotIndex(res tile.Resolution) (int, bool) {
	switch res {
	case tile.ResFull:
		return 0, true
	case tile.ResMedium:
		return 1, true
	case tile.ResCoarse:
		return 2, true
	default:
		return 0, false
	}
}

// localTileGet fetches (and optionally builds) the local-slot tile for
// desc. Only used when the volume has no attached cache.
func (v *Volume) localTileGet(desc tile.Descriptor, allowBuild bool) (*tile.Tile, bool) {
	idx, ok := localSlotIndex(desc.Resolution)
	if !ok || v.Source == nil {
		return nil, false
	}
	slot := &v.localTiles[idx]
	if slot.valid && slot.tileID == desc.TileID && slot.version == desc.AuthoringVersion && slot.t.SampleDim == desc.SampleDim {
		return &slot.t, true
	}
	if !allowBuild {
		return nil, false
	}
	built, err := tile.BuildTile(desc, v.Source)
	if err != nil {
		return nil, false
	}
	slot.t = built
	slot.valid = true
	slot.tileID = desc.TileID
	slot.version = desc.AuthoringVersion
	return &slot.t, true
}

// tileCached reports whether the tile described by desc is already
// resident (cache or local slot), without building it.
func (v *Volume) tileCached(desc tile.Descriptor) bool {
	if v.cache != nil {
		_, ok := v.cache.Peek(v.DomainID, desc.TileID, desc.Resolution, desc.AuthoringVersion)
		return ok
	}
	_, ok := v.localTileGet(desc, false)
	return ok
}

// tileGet fetches (building if allowed and necessary) the tile described
// by desc, from the attached cache if any, else from the local slots.
func (v *Volume) tileGet(desc tile.Descriptor, allowBuild bool) (*tile.Tile, bool) {
	if v.cache != nil {
		if cached, ok := v.cache.Get(v.DomainID, desc.TileID, desc.Resolution, desc.AuthoringVersion); ok {
			return cached, true
		}
		if !allowBuild || v.Source == nil {
			return nil, false
		}
		built, err := tile.BuildTile(desc, v.Source)
		if err != nil {
			return nil, false
		}
		put := v.cache.Put(v.DomainID, &built)
		if put == nil {
			return nil, false
		}
		return put, true
	}
	return v.localTileGet(desc, allowBuild)
}
