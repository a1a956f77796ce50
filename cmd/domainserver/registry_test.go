package main

import (
	"strings"
	"testing"

	"github.com/Julesc013/dominium-sub018/internal/fixture"
)

const registryFixture = `
institution.entity
institution_id=1 scope_id=1 enforcement_capacity=10 resource_budget=20 legitimacy_level=0.5 legitimacy_ref_id=0 knowledge_base_id=0 provenance_id=1 region_id=1

standard.definition
standard_id=1 subject_domain_id=1 specification_id=1 current_version_id=1 compatibility_policy_id=0 issuing_institution_id=1 provenance_id=1 region_id=1

shard.input
domain_id=1 flags=1
domain_id=2 flags=0
`

func TestRegistryLoadFixturePopulatesAllTables(t *testing.T) {
	fx, err := fixture.LoadFromReader(strings.NewReader(registryFixture))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reg := newRegistry()
	reg.loadFixture(fx)

	if _, ok := reg.volume(1); !ok {
		t.Fatal("expected domain 1 to have a registered volume")
	}
	if _, ok := reg.volume(2); !ok {
		t.Fatal("expected domain 2 to have a registered volume")
	}
	if _, ok := reg.volume(999); ok {
		t.Fatal("did not expect an unregistered domain to resolve")
	}

	instDomain, ok := reg.institutionDomain(1)
	if !ok || len(instDomain.Entities) != 1 {
		t.Fatalf("expected 1 institution entity on domain 1, got ok=%v domain=%+v", ok, instDomain)
	}

	stdDomain, ok := reg.standardDomain(1)
	if !ok || len(stdDomain.Definitions) != 1 {
		t.Fatalf("expected 1 standard definition on domain 1, got ok=%v domain=%+v", ok, stdDomain)
	}

	if len(reg.allVolumes()) != 2 {
		t.Fatalf("expected 2 volumes total, got %d", len(reg.allVolumes()))
	}
}
