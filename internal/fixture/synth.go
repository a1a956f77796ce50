package fixture

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/Julesc013/dominium-sub018/pkg/rng"
)

// SynthParams controls synthetic fixture generation. It is only ever
// consumed by cmd/domaininspect's gen-fixture subcommand; the
// deterministic core packages never construct random data.
type SynthParams struct {
	MasterSeed       uint64
	InstitutionCount int
	StandardCount    int
	DomainCount      int
}

// DefaultSynthParams returns a small, fast-to-generate fixture shape.
func DefaultSynthParams() SynthParams {
	return SynthParams{
		MasterSeed:       1,
		InstitutionCount: 4,
		StandardCount:    4,
		DomainCount:      4,
	}
}

// Synthesize renders a fixture document text using the teacher's
// SHA-256 sub-seed idiom (pkg/rng): one stage-isolated *rng.RNG per
// section, so that regenerating only the standard section (say) with a
// different count still reproduces the same institution records.
func Synthesize(p SynthParams) string {
	// The per-section counts are left out of the config hash so that
	// changing one count does not reseed the other sections.
	configHash := sha256.Sum256([]byte(fmt.Sprintf("master_seed=%d", p.MasterSeed)))
	institutionRNG := rng.NewRNG(p.MasterSeed, "institution.entity", configHash[:])
	ruleRNG := rng.NewRNG(p.MasterSeed, "institution.rule", configHash[:])
	standardRNG := rng.NewRNG(p.MasterSeed, "standard.definition", configHash[:])
	toolRNG := rng.NewRNG(p.MasterSeed, "standard.tool", configHash[:])
	shardRNG := rng.NewRNG(p.MasterSeed, "shard.input", configHash[:])

	var b strings.Builder
	b.WriteString("# synthesized fixture, master_seed=")
	fmt.Fprintf(&b, "%d\n\n", p.MasterSeed)

	b.WriteString("institution.entity\n")
	for i := 1; i <= p.InstitutionCount; i++ {
		fmt.Fprintf(&b, "institution_id=%d scope_id=%d enforcement_capacity=%d resource_budget=%d legitimacy_level=%.4f legitimacy_ref_id=0 knowledge_base_id=0 provenance_id=1 region_id=%d\n",
			i, i, institutionRNG.IntRange(10, 1000), institutionRNG.IntRange(10, 1000), institutionRNG.Float64Range(0, 1), i)
	}
	b.WriteString("\ninstitution.rule\n")
	for i := 1; i <= p.InstitutionCount; i++ {
		fmt.Fprintf(&b, "rule_id=%d institution_id=%d scope_id=%d process_family_id=1 subject_domain_id=%d authority_type_id=1 action=%d provenance_id=1 region_id=%d\n",
			i, i, i, ruleRNG.IntRange(1, p.DomainCount), ruleRNG.IntRange(1, 4), i)
	}

	b.WriteString("\nstandard.definition\n")
	for i := 1; i <= p.StandardCount; i++ {
		fmt.Fprintf(&b, "standard_id=%d subject_domain_id=%d specification_id=%d current_version_id=1 compatibility_policy_id=0 issuing_institution_id=%d provenance_id=1 region_id=%d\n",
			i, standardRNG.IntRange(1, p.DomainCount), i, standardRNG.IntRange(1, p.InstitutionCount), i)
	}
	b.WriteString("\nstandard.tool\n")
	for i := 1; i <= p.StandardCount; i++ {
		fmt.Fprintf(&b, "tool_id=%d tool_type_id=1 input_standard_id=0 output_standard_id=%d capacity=%d energy_cost=%d heat_output=%d error_rate=%.4f bias=0 provenance_id=1 region_id=%d\n",
			i, i, toolRNG.IntRange(1, 100), toolRNG.IntRange(1, 20), toolRNG.IntRange(1, 20), toolRNG.Float64Range(0, 0.2), i)
	}

	b.WriteString("\nshard.input\n")
	for i := 1; i <= p.DomainCount; i++ {
		flags := uint32(1)
		if shardRNG.Bool() {
			flags |= 2
		}
		fmt.Fprintf(&b, "domain_id=%d flags=%d\n", i, flags)
	}

	return b.String()
}
