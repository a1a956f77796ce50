package main

import (
	"fmt"
	"os"

	"github.com/Julesc013/dominium-sub018/internal/fixture"
)

func runGenFixture(args []string) error {
	fs := newFlagSet("gen-fixture")
	out := fs.String("out", "", "output path (default: stdout)")
	seed := fs.Uint64("seed", 1, "master seed")
	institutions := fs.Int("institutions", 4, "number of institution entities to synthesize")
	standards := fs.Int("standards", 4, "number of standard definitions to synthesize")
	domains := fs.Int("domains", 4, "number of shard.input domains to synthesize")
	if err := fs.Parse(args); err != nil {
		return err
	}

	params := fixture.SynthParams{
		MasterSeed:       *seed,
		InstitutionCount: *institutions,
		StandardCount:    *standards,
		DomainCount:      *domains,
	}
	doc := fixture.Synthesize(params)

	if *out == "" {
		fmt.Print(doc)
		return nil
	}
	if err := os.WriteFile(*out, []byte(doc), 0o644); err != nil {
		return fmt.Errorf("writing fixture: %w", err)
	}
	fmt.Printf("wrote synthesized fixture to %s (seed=%d)\n", *out, *seed)
	return nil
}
