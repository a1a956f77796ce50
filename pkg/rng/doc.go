// Package rng provides deterministic random number generation for fixture
// synthesis.
//
// # Overview
//
// The RNG type ensures reproducible synthetic fixtures by deriving
// section-specific seeds from a master seed. This allows each fixture
// section (institution entities, institution rules, standard definitions,
// standard tools, shard inputs) to have an independent random sequence while
// regenerating the whole document from the same parameters stays
// reproducible.
//
// # Sub-Seed Derivation
//
// Each RNG derives its seed using SHA-256:
//
//	seed_section = H(masterSeed, stageName, configHash)
//
// where:
//   - masterSeed: Top-level seed for the entire fixture document
//   - stageName: Fixture section identifier (e.g., "institution.entity")
//   - configHash: Hash of the SynthParams that produced this document
//
// This ensures:
//  1. Same inputs always produce same RNG sequence (determinism)
//  2. Different sections get independent random sequences (isolation)
//  3. Parameter changes result in different sequences (sensitivity)
//
// # Usage
//
// Create an RNG for each fixture section:
//
//	configHash := sha256.Sum256([]byte(fmt.Sprintf("%+v", params)))
//	entityRNG := rng.NewRNG(params.MasterSeed, "institution.entity", configHash[:])
//	toolRNG := rng.NewRNG(params.MasterSeed, "standard.tool", configHash[:])
//
// Use the RNG for all random decisions in that section:
//
//	legitimacy := entityRNG.Float64Range(0.0, 1.0)
//	capacity := entityRNG.IntRange(1, 100)
//	if entityRNG.Bool() {
//	    // mark this entity's enforcement as pre-applied
//	}
//
// # Thread Safety
//
// RNG instances are NOT thread-safe. Each goroutine should use its own RNG
// instance. Create section-specific RNGs before spawning goroutines and pass
// them explicitly.
//
// # Performance
//
// The underlying math/rand.Rand is highly efficient:
//   - Uint64(): ~2ns per call
//   - Intn():   ~3ns per call
//   - Float64(): ~2ns per call
//
// Creating a new RNG costs ~8µs due to SHA-256 computation.
// Reuse RNG instances within a section for best performance.
package rng
