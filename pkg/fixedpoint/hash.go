package fixedpoint

// FNVOffsetBasis64 and FNVPrime64 are the canonical FNV-1a 64-bit
// constants. Every deterministic identifier in the module (tile ids, shard
// hashes) is derived from these two constants; no other hash primitive is
// permitted on the deterministic path (SPEC_FULL.md §4.1).
const (
	FNVOffsetBasis64 uint64 = 14695981039346656037
	FNVPrime64       uint64 = 1099511628211
)

// HashU8Mix folds a single byte into an FNV-1a running hash.
func HashU8Mix(h uint64, v uint8) uint64 {
	h ^= uint64(v)
	h *= FNVPrime64
	return h
}

// HashU32Mix folds a u32 into an FNV-1a running hash, byte by byte in
// little-endian order, matching the source's dom_domain_hash_u32.
func HashU32Mix(h uint64, v uint32) uint64 {
	h = HashU8Mix(h, uint8(v))
	h = HashU8Mix(h, uint8(v>>8))
	h = HashU8Mix(h, uint8(v>>16))
	h = HashU8Mix(h, uint8(v>>24))
	return h
}

// HashU64Mix folds a u64 into an FNV-1a running hash, byte by byte in
// little-endian order, matching the shard mapper's dom_domain_shard_hash_mix.
func HashU64Mix(h uint64, v uint64) uint64 {
	for i := 0; i < 8; i++ {
		h ^= (v >> (uint(i) * 8)) & 0xFF
		h *= FNVPrime64
	}
	return h
}

// HashStr32 is FNV-1a over the bytes of s, producing a 32-bit hash. It is
// exposed for fixture/tooling use (e.g. hashing configuration names); the
// deterministic query/shard paths never consume strings, only integer
// coordinates and ids.
func HashStr32(s string) uint32 {
	const (
		offset32 uint32 = 2166136261
		prime32  uint32 = 16777619
	)
	h := offset32
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= prime32
	}
	return h
}
