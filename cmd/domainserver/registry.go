package main

import (
	"sort"
	"sync"

	"github.com/Julesc013/dominium-sub018/internal/fixture"
	"github.com/Julesc013/dominium-sub018/pkg/institution"
	"github.com/Julesc013/dominium-sub018/pkg/standard"
	"github.com/Julesc013/dominium-sub018/pkg/volume"
)

// registry is the server's in-memory domain set: one volume per domain id
// for spatial queries, plus one institution and one standard domain per
// domain id for the structural-field endpoints. It is built once at
// startup from a fixture file and never mutated by a query handler —
// mutating endpoints are out of scope without a runtime/auth gateway to
// hand the server a validated internal/authority.Token.
type registry struct {
	mu          sync.RWMutex
	volumes     map[uint64]*volume.Volume
	institution map[uint64]*institution.Domain
	standard    map[uint64]*standard.Domain
}

func newRegistry() *registry {
	return &registry{
		volumes:     make(map[uint64]*volume.Volume),
		institution: make(map[uint64]*institution.Domain),
		standard:    make(map[uint64]*standard.Domain),
	}
}

// loadFixture populates the registry from a parsed fixture document. A
// shard.Input's domain id becomes a volume; institution/standard records
// are grouped into one Domain per id they reference.
func (r *registry) loadFixture(fx *fixture.Fixture) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, in := range fx.ShardInputs() {
		v := volume.New(in.DomainID)
		v.SetState(volume.ExistenceDeclared, volume.ArchivalLive)
		r.volumes[in.DomainID] = v
	}

	for _, e := range fx.InstitutionEntities() {
		d := r.institutionDomainFor(uint64(e.InstitutionID))
		d.Entities = append(d.Entities, e)
	}
	for _, rl := range fx.InstitutionRules() {
		d := r.institutionDomainFor(uint64(rl.InstitutionID))
		d.Rules = append(d.Rules, rl)
	}
	for _, en := range fx.InstitutionEnforcements() {
		d := r.institutionDomainFor(uint64(en.InstitutionID))
		d.Enforcements = append(d.Enforcements, en)
	}

	for _, def := range fx.StandardDefinitions() {
		d := r.standardDomainFor(uint64(def.StandardID))
		d.Definitions = append(d.Definitions, def)
	}
	for _, v := range fx.StandardVersions() {
		d := r.standardDomainFor(uint64(v.StandardID))
		d.Versions = append(d.Versions, v)
	}
	for _, s := range fx.StandardScopes() {
		d := r.standardDomainFor(uint64(s.StandardID))
		d.Scopes = append(d.Scopes, s)
	}
	for _, ev := range fx.StandardEvents() {
		d := r.standardDomainFor(uint64(ev.StandardID))
		d.Events = append(d.Events, ev)
	}
	for _, t := range fx.StandardTools() {
		d := r.standardDomainFor(uint64(t.ToolID))
		d.Tools = append(d.Tools, t)
	}
	for _, e := range fx.StandardEdges() {
		d := r.standardDomainFor(uint64(e.EdgeID))
		d.Edges = append(d.Edges, e)
	}
}

func (r *registry) institutionDomainFor(domainID uint64) *institution.Domain {
	d, ok := r.institution[domainID]
	if !ok {
		d = institution.New(domainID)
		r.institution[domainID] = d
	}
	return d
}

func (r *registry) standardDomainFor(domainID uint64) *standard.Domain {
	d, ok := r.standard[domainID]
	if !ok {
		d = standard.New(domainID)
		r.standard[domainID] = d
	}
	return d
}

func (r *registry) volume(domainID uint64) (*volume.Volume, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.volumes[domainID]
	return v, ok
}

func (r *registry) institutionDomain(domainID uint64) (*institution.Domain, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.institution[domainID]
	return d, ok
}

func (r *registry) standardDomain(domainID uint64) (*standard.Domain, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.standard[domainID]
	return d, ok
}

// allVolumes returns a stable-ordered snapshot (ascending domain id) for
// EmitStreamingHints.
func (r *registry) allVolumes() []*volume.Volume {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]uint64, 0, len(r.volumes))
	for id := range r.volumes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]*volume.Volume, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.volumes[id])
	}
	return out
}
