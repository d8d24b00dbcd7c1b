package consensus

import "math/big"

// U128 is a checked, immutable unsigned 128-bit integer: the universal
// numeric carrier for Keepsake amounts and encoded varint fields. It is
// backed by math/big, the same substrate the teacher uses for cumulative
// chain work, with an explicit [0, 2^128-1] bound enforced on every
// constructor and arithmetic operation.
type U128 struct {
	v *big.Int
}

var (
	maxU128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
	bigZero = big.NewInt(0)
)

// ZeroU128 is the additive identity.
var ZeroU128 = U128{v: big.NewInt(0)}

// U128FromUint64 lifts a uint64 into U128.
func U128FromUint64(v uint64) U128 {
	return U128{v: new(big.Int).SetUint64(v)}
}

// U128FromBigInt range-checks b into U128. Returns false if b is negative or
// exceeds 2^128-1.
func U128FromBigInt(b *big.Int) (U128, bool) {
	if b.Sign() < 0 || b.Cmp(maxU128) > 0 {
		return U128{}, false
	}
	return U128{v: new(big.Int).Set(b)}, true
}

// U128FromBytesBE interprets b (big-endian, up to 16 bytes) as a U128.
func U128FromBytesBE(b []byte) (U128, bool) {
	if len(b) > 16 {
		return U128{}, false
	}
	return U128{v: new(big.Int).SetBytes(b)}, true
}

func (u U128) big() *big.Int {
	if u.v == nil {
		return bigZero
	}
	return u.v
}

// IsZero reports whether u is zero (including the zero-value U128{}).
func (u U128) IsZero() bool { return u.big().Sign() == 0 }

// Cmp compares u and o, returning -1, 0, or 1.
func (u U128) Cmp(o U128) int { return u.big().Cmp(o.big()) }

// LessThan reports whether u < o.
func (u U128) LessThan(o U128) bool { return u.Cmp(o) < 0 }

// GreaterThan reports whether u > o.
func (u U128) GreaterThan(o U128) bool { return u.Cmp(o) > 0 }

// Add returns u+o and true, or the zero value and false on overflow past
// 2^128-1.
func (u U128) Add(o U128) (U128, bool) {
	sum := new(big.Int).Add(u.big(), o.big())
	return U128FromBigInt(sum)
}

// Sub returns u-o and true, or the zero value and false on underflow.
func (u U128) Sub(o U128) (U128, bool) {
	if u.LessThan(o) {
		return U128{}, false
	}
	return U128{v: new(big.Int).Sub(u.big(), o.big())}, true
}

// Mul returns u*o and true, or the zero value and false on overflow past
// 2^128-1.
func (u U128) Mul(o U128) (U128, bool) {
	p := new(big.Int).Mul(u.big(), o.big())
	return U128FromBigInt(p)
}

// Min returns the smaller of u and o.
func (u U128) Min(o U128) U128 {
	if u.LessThan(o) {
		return u
	}
	return o
}

// Uint64 reports u's value as a uint64 and whether it fit without truncation.
func (u U128) Uint64() (uint64, bool) {
	if !u.big().IsUint64() {
		return 0, false
	}
	return u.big().Uint64(), true
}

// MustUint64 is Uint64 without the ok flag, for call sites that have already
// range-checked the value (e.g. decoded tx_index fields capped at u32).
func (u U128) MustUint64() uint64 {
	v, _ := u.Uint64()
	return v
}

// BytesBE returns u as a 16-byte big-endian array, for use as a fixed-width
// store key/value component.
func (u U128) BytesBE() [16]byte {
	var out [16]byte
	b := u.big().Bytes()
	copy(out[16-len(b):], b)
	return out
}

// String renders the decimal value of u.
func (u U128) String() string { return u.big().String() }
