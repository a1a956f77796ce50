package fixture_test

import (
	"strings"
	"testing"

	"github.com/Julesc013/dominium-sub018/internal/fixture"
)

const sampleDocument = `
# one institution entity and one rule
institution.entity
institution_id=1 scope_id=1 enforcement_capacity=10 resource_budget=20 legitimacy_level=0.5 legitimacy_ref_id=0 knowledge_base_id=0 provenance_id=1 region_id=1

institution.rule
rule_id=1 institution_id=1 scope_id=1 process_family_id=1 subject_domain_id=1 authority_type_id=1 action=1 provenance_id=1 region_id=1

standard.definition
standard_id=1 subject_domain_id=1 specification_id=1 current_version_id=1 compatibility_policy_id=0 issuing_institution_id=1 provenance_id=1 region_id=1

standard.tool
tool_id=1 tool_type_id=1 input_standard_id=0 output_standard_id=1 capacity=5 energy_cost=1 heat_output=1 error_rate=0.1 bias=0 provenance_id=1 region_id=1

shard.input
domain_id=1 flags=1
`

func TestLoadFromReaderParsesAllSections(t *testing.T) {
	fx, err := fixture.LoadFromReader(strings.NewReader(sampleDocument))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entities := fx.InstitutionEntities()
	if len(entities) != 1 {
		t.Fatalf("expected 1 institution entity, got %d", len(entities))
	}
	if entities[0].InstitutionID != 1 || entities[0].RegionID != 1 {
		t.Fatalf("unexpected entity: %+v", entities[0])
	}

	rules := fx.InstitutionRules()
	if len(rules) != 1 || rules[0].RuleID != 1 {
		t.Fatalf("unexpected rules: %+v", rules)
	}

	defs := fx.StandardDefinitions()
	if len(defs) != 1 || defs[0].StandardID != 1 {
		t.Fatalf("unexpected definitions: %+v", defs)
	}

	tools := fx.StandardTools()
	if len(tools) != 1 || tools[0].ToolID != 1 {
		t.Fatalf("unexpected tools: %+v", tools)
	}

	inputs := fx.ShardInputs()
	if len(inputs) != 1 || inputs[0].DomainID != 1 || inputs[0].Flags != 1 {
		t.Fatalf("unexpected shard inputs: %+v", inputs)
	}
}

func TestLoadFromReaderRejectsRecordBeforeHeader(t *testing.T) {
	_, err := fixture.LoadFromReader(strings.NewReader("domain_id=1 flags=1\n"))
	if err == nil {
		t.Fatal("expected an error for a key=value line with no preceding header")
	}
}

func TestLoadFromReaderRejectsMalformedField(t *testing.T) {
	doc := "shard.input\ndomain_id flags=1\n"
	_, err := fixture.LoadFromReader(strings.NewReader(doc))
	if err == nil {
		t.Fatal("expected an error for a field with no '=' separator")
	}
}

func TestLoadFromReaderIgnoresCommentsAndBlankLines(t *testing.T) {
	doc := "\n# comment\n\nshard.input\n# another comment\ndomain_id=9 flags=0\n\n"
	fx, err := fixture.LoadFromReader(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	inputs := fx.ShardInputs()
	if len(inputs) != 1 || inputs[0].DomainID != 9 {
		t.Fatalf("unexpected shard inputs: %+v", inputs)
	}
}

func TestUnknownSectionYieldsNoRecords(t *testing.T) {
	fx, err := fixture.LoadFromReader(strings.NewReader(sampleDocument))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fx.StandardVersions()) != 0 {
		t.Fatalf("expected no standard versions in a document that declares none")
	}
}
