// Package fixture implements the line-oriented "key=value" fixture
// format described in SPEC_FULL.md §6/§6a: a fixed header line per
// record kind (e.g. "institution.entity", "standard.tool",
// "shard.input"), followed by one record per line as space-separated
// key=value pairs, blank lines optional between sections. It is
// exercised only from cmd/domaininspect — never from the deterministic
// core packages, which never read files.
package fixture

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Julesc013/dominium-sub018/pkg/fixedpoint"
	"github.com/Julesc013/dominium-sub018/pkg/institution"
	"github.com/Julesc013/dominium-sub018/pkg/shard"
	"github.com/Julesc013/dominium-sub018/pkg/standard"
)

// Record is one line's worth of key=value fields.
type Record map[string]string

// Fixture holds every section read from a fixture file, keyed by its
// header ("institution.entity", "standard.tool", ...).
type Fixture struct {
	Sections map[string][]Record
}

// Load reads and parses a fixture file.
func Load(path string) (*Fixture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening fixture file: %w", err)
	}
	defer f.Close()
	return LoadFromReader(f)
}

// LoadFromReader parses a fixture document from r.
func LoadFromReader(r io.Reader) (*Fixture, error) {
	fx := &Fixture{Sections: make(map[string][]Record)}
	scanner := bufio.NewScanner(r)
	current := ""
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !strings.Contains(line, "=") {
			current = line
			if _, ok := fx.Sections[current]; !ok {
				fx.Sections[current] = nil
			}
			continue
		}
		if current == "" {
			return nil, fmt.Errorf("fixture line %d: key=value record before any header line", lineNo)
		}
		rec, err := parseRecord(line)
		if err != nil {
			return nil, fmt.Errorf("fixture line %d: %w", lineNo, err)
		}
		fx.Sections[current] = append(fx.Sections[current], rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading fixture: %w", err)
	}
	return fx, nil
}

func parseRecord(line string) (Record, error) {
	rec := make(Record)
	for _, field := range strings.Fields(line) {
		kv := strings.SplitN(field, "=", 2)
		if len(kv) != 2 || kv[0] == "" {
			return nil, fmt.Errorf("malformed field %q", field)
		}
		rec[kv[0]] = kv[1]
	}
	return rec, nil
}

func (r Record) uint32(key string) uint32 {
	v, _ := strconv.ParseUint(r[key], 10, 32)
	return uint32(v)
}

func (r Record) uint64(key string) uint64 {
	v, _ := strconv.ParseUint(r[key], 10, 64)
	return v
}

func (r Record) float64(key string) float64 {
	v, _ := strconv.ParseFloat(r[key], 64)
	return v
}

func (r Record) q16(key string) fixedpoint.Q16 {
	return fixedpoint.FromFloat64(r.float64(key))
}

func (r Record) q48(key string) fixedpoint.Q48 {
	return fixedpoint.Q16ToQ48(r.q16(key))
}

func (r Record) bool(key string) bool {
	return r[key] == "1" || r[key] == "true"
}

// InstitutionEntities builds institution.Entity records from the
// "institution.entity" section.
func (fx *Fixture) InstitutionEntities() []institution.Entity {
	var out []institution.Entity
	for _, r := range fx.Sections["institution.entity"] {
		out = append(out, institution.Entity{
			InstitutionID:       r.uint32("institution_id"),
			ScopeID:             r.uint32("scope_id"),
			EnforcementCapacity: r.q48("enforcement_capacity"),
			ResourceBudget:      r.q48("resource_budget"),
			LegitimacyLevel:     r.q16("legitimacy_level"),
			LegitimacyRefID:     r.uint32("legitimacy_ref_id"),
			KnowledgeBaseID:     r.uint32("knowledge_base_id"),
			ProvenanceID:        r.uint32("provenance_id"),
			RegionID:            r.uint32("region_id"),
		})
	}
	return out
}

// InstitutionRules builds institution.Rule records from the
// "institution.rule" section.
func (fx *Fixture) InstitutionRules() []institution.Rule {
	var out []institution.Rule
	for _, r := range fx.Sections["institution.rule"] {
		out = append(out, institution.Rule{
			RuleID:          r.uint32("rule_id"),
			InstitutionID:   r.uint32("institution_id"),
			ScopeID:         r.uint32("scope_id"),
			ProcessFamilyID: r.uint32("process_family_id"),
			SubjectDomainID: r.uint32("subject_domain_id"),
			AuthorityTypeID: r.uint32("authority_type_id"),
			Action:          institution.RuleAction(r.uint32("action")),
			ProvenanceID:    r.uint32("provenance_id"),
			RegionID:        r.uint32("region_id"),
		})
	}
	return out
}

// InstitutionEnforcements builds institution.Enforcement records from
// the "institution.enforcement" section.
func (fx *Fixture) InstitutionEnforcements() []institution.Enforcement {
	var out []institution.Enforcement
	for _, r := range fx.Sections["institution.enforcement"] {
		out = append(out, institution.Enforcement{
			EnforcementID:   r.uint32("enforcement_id"),
			InstitutionID:   r.uint32("institution_id"),
			RuleID:          r.uint32("rule_id"),
			ProcessFamilyID: r.uint32("process_family_id"),
			AgentID:         r.uint32("agent_id"),
			Action:          institution.EnforcementAction(r.uint32("action")),
			EventTick:       r.uint64("event_tick"),
			ProvenanceID:    r.uint32("provenance_id"),
			RegionID:        r.uint32("region_id"),
		})
	}
	return out
}

// StandardDefinitions builds standard.Definition records from the
// "standard.definition" section.
func (fx *Fixture) StandardDefinitions() []standard.Definition {
	var out []standard.Definition
	for _, r := range fx.Sections["standard.definition"] {
		out = append(out, standard.Definition{
			StandardID:            r.uint32("standard_id"),
			SubjectDomainID:       r.uint32("subject_domain_id"),
			SpecificationID:       r.uint32("specification_id"),
			CurrentVersionID:      r.uint32("current_version_id"),
			CompatibilityPolicyID: r.uint32("compatibility_policy_id"),
			IssuingInstitutionID:  r.uint32("issuing_institution_id"),
			ProvenanceID:          r.uint32("provenance_id"),
			RegionID:              r.uint32("region_id"),
		})
	}
	return out
}

// StandardVersions builds standard.Version records from the
// "standard.version" section.
func (fx *Fixture) StandardVersions() []standard.Version {
	var out []standard.Version
	for _, r := range fx.Sections["standard.version"] {
		out = append(out, standard.Version{
			VersionID:            r.uint32("version_id"),
			StandardID:           r.uint32("standard_id"),
			VersionTagID:         r.uint32("version_tag_id"),
			CompatibilityGroupID: r.uint32("compatibility_group_id"),
			CompatibilityScore:   r.q16("compatibility_score"),
			AdoptionThreshold:    r.q16("adoption_threshold"),
			Status:               standard.VersionStatus(r.uint32("status")),
			ReleaseTick:          r.uint64("release_tick"),
			ProvenanceID:         r.uint32("provenance_id"),
			RegionID:             r.uint32("region_id"),
		})
	}
	return out
}

// StandardScopes builds standard.Scope records from the
// "standard.scope" section.
func (fx *Fixture) StandardScopes() []standard.Scope {
	var out []standard.Scope
	for _, r := range fx.Sections["standard.scope"] {
		out = append(out, standard.Scope{
			ScopeID:         r.uint32("scope_id"),
			StandardID:      r.uint32("standard_id"),
			VersionID:       r.uint32("version_id"),
			SpatialDomainID: r.uint32("spatial_domain_id"),
			SubjectDomainID: r.uint32("subject_domain_id"),
			AdoptionRate:    r.q16("adoption_rate"),
			ComplianceRate:  r.q16("compliance_rate"),
			LockInIndex:     r.q16("lock_in_index"),
			ProvenanceID:    r.uint32("provenance_id"),
			RegionID:        r.uint32("region_id"),
		})
	}
	return out
}

// StandardEvents builds standard.Event records from the
// "standard.event" section.
func (fx *Fixture) StandardEvents() []standard.Event {
	var out []standard.Event
	for _, r := range fx.Sections["standard.event"] {
		out = append(out, standard.Event{
			EventID:         r.uint32("event_id"),
			ProcessType:     standard.ProcessType(r.uint32("process_type")),
			StandardID:      r.uint32("standard_id"),
			VersionID:       r.uint32("version_id"),
			ScopeID:         r.uint32("scope_id"),
			DeltaAdoption:   r.q16("delta_adoption"),
			DeltaCompliance: r.q16("delta_compliance"),
			DeltaLockIn:     r.q16("delta_lock_in"),
			EventTick:       r.uint64("event_tick"),
			ProvenanceID:    r.uint32("provenance_id"),
			RegionID:        r.uint32("region_id"),
		})
	}
	return out
}

// StandardTools builds standard.MetaTool records from the
// "standard.tool" section.
func (fx *Fixture) StandardTools() []standard.MetaTool {
	var out []standard.MetaTool
	for _, r := range fx.Sections["standard.tool"] {
		out = append(out, standard.MetaTool{
			ToolID:           r.uint32("tool_id"),
			ToolTypeID:       r.uint32("tool_type_id"),
			InputStandardID:  r.uint32("input_standard_id"),
			OutputStandardID: r.uint32("output_standard_id"),
			Capacity:         r.q48("capacity"),
			EnergyCost:       r.q48("energy_cost"),
			HeatOutput:       r.q48("heat_output"),
			ErrorRate:        r.q16("error_rate"),
			Bias:             r.q16("bias"),
			ProvenanceID:     r.uint32("provenance_id"),
			RegionID:         r.uint32("region_id"),
		})
	}
	return out
}

// StandardEdges builds standard.ToolchainEdge records from the
// "standard.edge" section.
func (fx *Fixture) StandardEdges() []standard.ToolchainEdge {
	var out []standard.ToolchainEdge
	for _, r := range fx.Sections["standard.edge"] {
		out = append(out, standard.ToolchainEdge{
			EdgeID:             r.uint32("edge_id"),
			FromToolID:         r.uint32("from_tool_id"),
			ToToolID:           r.uint32("to_tool_id"),
			InputStandardID:    r.uint32("input_standard_id"),
			OutputStandardID:   r.uint32("output_standard_id"),
			CompatibilityScore: r.q16("compatibility_score"),
			ProvenanceID:       r.uint32("provenance_id"),
			RegionID:           r.uint32("region_id"),
		})
	}
	return out
}

// ShardInputs builds shard.Input records from the "shard.input" section.
// Volume is left nil: the caller (cmd/domaininspect) binds each input to
// a live *volume.Volume after loading, since a fixture line only carries
// the domain id and permission flags, not an SDF source.
func (fx *Fixture) ShardInputs() []shard.Input {
	var out []shard.Input
	for _, r := range fx.Sections["shard.input"] {
		out = append(out, shard.Input{
			DomainID: r.uint64("domain_id"),
			Flags:    r.uint32("flags"),
		})
	}
	return out
}
