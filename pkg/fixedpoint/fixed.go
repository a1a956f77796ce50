// Package fixedpoint implements the signed Q16.16 and Q48.16 fixed-point
// formats used everywhere on the domain engine's deterministic path, plus
// the FNV-1a hash primitives built on top of them. All arithmetic saturates
// at the signed limits instead of wrapping; division by zero returns zero.
package fixedpoint

import (
	"math"
	"math/big"
)

// FracBits is the number of fractional bits shared by Q16.16 and Q48.16.
const FracBits = 16

// Q16 is a signed Q16.16 fixed-point value: a 32-bit integer with 16
// fractional bits.
type Q16 int32

// Q48 is a signed Q48.16 fixed-point value: a 64-bit integer with 16
// fractional bits.
type Q48 int64

const (
	q32Max = int64(math.MaxInt32)
	q32Min = int64(math.MinInt32)
)

// Int32ToQ16 converts a plain integer to Q16.16.
func Int32ToQ16(v int32) Q16 {
	return Q16(saturateToI32(int64(v) << FracBits))
}

// Int32ToQ48 converts a plain int32 to Q48.16. No saturation is needed: the
// widest int32 magnitude shifted by FracBits still fits well within int64.
func Int32ToQ48(v int32) Q48 {
	return Q48(int64(v) << FracBits)
}

// Q16ToQ48 widens a Q16.16 value to Q48.16 without loss.
func Q16ToQ48(v Q16) Q48 {
	return Q48(v)
}

// Q48ToQ16 narrows a Q48.16 value to Q16.16, saturating at the Q16.16
// limits if it does not fit.
func Q48ToQ16(v Q48) Q16 {
	return Q16(saturateToI32(int64(v)))
}

// FromFloat64 converts a float64 to Q16.16. This conversion exists ONLY for
// fixture loaders and other non-deterministic-path authoring tools; it must
// never be called from the deterministic query/resolve/shard paths.
func FromFloat64(v float64) Q16 {
	scaled := v * float64(int64(1)<<FracBits)
	if scaled >= float64(q32Max) {
		return Q16(q32Max)
	}
	if scaled <= float64(q32Min) {
		return Q16(q32Min)
	}
	return Q16(int32(math.Round(scaled)))
}

// ToFloat64 converts a Q16.16 value back to a float64. Diagnostic/debug use
// only (e.g. SVG export), never on the deterministic path.
func ToFloat64(v Q16) float64 {
	return float64(v) / float64(int64(1)<<FracBits)
}

func saturateToI32(v int64) int32 {
	if v > q32Max {
		return int32(q32Max)
	}
	if v < q32Min {
		return int32(q32Min)
	}
	return int32(v)
}

// AddQ16 saturates at the Q16.16 signed limits.
func AddQ16(a, b Q16) Q16 {
	return Q16(saturateToI32(int64(a) + int64(b)))
}

// SubQ16 saturates at the Q16.16 signed limits.
func SubQ16(a, b Q16) Q16 {
	return Q16(saturateToI32(int64(a) - int64(b)))
}

// MulQ16 multiplies two Q16.16 values, saturating the Q16.16 result.
func MulQ16(a, b Q16) Q16 {
	v := (int64(a) * int64(b)) >> FracBits
	return Q16(saturateToI32(v))
}

// MulIntQ16 multiplies a plain integer by a Q16.16 value, saturating the
// result. Grounded on the source's dom_domain_mul_i32_q16_16.
func MulIntQ16(a int32, b Q16) Q16 {
	v := int64(a) * int64(b)
	return Q16(saturateToI32(v))
}

// DivQ16 divides two Q16.16 values, saturating the result. Division by
// zero returns zero.
func DivQ16(a, b Q16) Q16 {
	if b == 0 {
		return 0
	}
	v := (int64(a) << FracBits) / int64(b)
	return Q16(saturateToI32(v))
}

// AbsQ16 returns the absolute value, saturating (MinInt32 negates to
// MaxInt32 rather than wrapping to MinInt32).
func AbsQ16(a Q16) Q16 {
	if a >= 0 {
		return a
	}
	return Q16(saturateToI32(-int64(a)))
}

// ClampQ16 clamps v to [lo, hi]. If lo > hi the behaviour follows the
// source: v is clamped against lo first, then hi, which for an inverted
// range collapses to hi.
func ClampQ16(v, lo, hi Q16) Q16 {
	if v < lo {
		v = lo
	}
	if v > hi {
		v = hi
	}
	return v
}

const (
	q64Max = int64(math.MaxInt64)
	q64Min = int64(math.MinInt64)
)

// AddQ48 saturates at the Q48.16 signed limits.
func AddQ48(a, b Q48) Q48 {
	s := int64(a) + int64(b)
	if (b > 0 && s < int64(a)) || (b < 0 && s > int64(a)) {
		if b > 0 {
			return Q48(q64Max)
		}
		return Q48(q64Min)
	}
	return Q48(s)
}

// SubQ48 saturates at the Q48.16 signed limits.
func SubQ48(a, b Q48) Q48 {
	return AddQ48(a, Q48(saturateNegQ48(int64(b))))
}

func saturateNegQ48(v int64) int64 {
	if v == q64Min {
		return q64Max
	}
	return -v
}

// MulQ48 multiplies two Q48.16 values, saturating the Q48.16 result. The
// intermediate product can exceed 64 bits, so it is computed with
// math/big rather than a raw int64 multiply.
func MulQ48(a, b Q48) Q48 {
	prod := new(big.Int).Mul(big.NewInt(int64(a)), big.NewInt(int64(b)))
	prod.Rsh(prod, FracBits)
	return saturateBigToQ48(prod)
}

// DivQ48 divides two Q48.16 values, saturating. Division by zero returns
// zero.
func DivQ48(a, b Q48) Q48 {
	if b == 0 {
		return 0
	}
	numer := new(big.Int).Lsh(big.NewInt(int64(a)), FracBits)
	numer.Quo(numer, big.NewInt(int64(b)))
	return saturateBigToQ48(numer)
}

var (
	bigQ64Max = big.NewInt(q64Max)
	bigQ64Min = big.NewInt(q64Min)
)

func saturateBigToQ48(v *big.Int) Q48 {
	if v.Cmp(bigQ64Max) > 0 {
		return Q48(q64Max)
	}
	if v.Cmp(bigQ64Min) < 0 {
		return Q48(q64Min)
	}
	return Q48(v.Int64())
}

// ClampQ48 clamps v to [lo, hi].
func ClampQ48(v, lo, hi Q48) Q48 {
	if v < lo {
		v = lo
	}
	if v > hi {
		v = hi
	}
	return v
}
