package consensus

import "math/big"

// PriceSchedule is the tagged union Fixed(u128) | Formula{a,b,c} of
// spec.md §3. Formula evaluates as price(x) = a - floor(b/(c+x)).
type PriceSchedule struct {
	Mode  uint8 // 0=Fixed, 1=Formula, matches TagPriceMode's wire value.
	Fixed U128
	A, B, C U128
}

const (
	PriceModeFixed   uint8 = 0
	PriceModeFormula uint8 = 1
)

// Evaluate computes price(x), the MBTC cost of the mint at minted_count=x.
// ok is false if the formula divides by zero, the result would be negative,
// or the subtraction/addition overflows the u128 domain (FlawPriceUnsolvable
// at the call site).
func (p PriceSchedule) Evaluate(x uint64) (U128, bool) {
	if p.Mode == PriceModeFixed {
		return p.Fixed, true
	}
	denom, ok := p.C.Add(U128FromUint64(x))
	if !ok || denom.IsZero() {
		return U128{}, false
	}
	q := new(big.Int).Quo(p.B.big(), denom.big())
	res := new(big.Int).Sub(p.A.big(), q)
	if res.Sign() < 0 {
		return U128{}, false
	}
	return U128FromBigInt(res)
}

// Solvable reports whether the schedule evaluates successfully at both
// boundary points minted_count=0 and minted_count=cap-1 (spec.md §4.5's
// Enshrine coherence requirement: "price schedule evaluable at x=0 and
// x=cap-1").
func (p PriceSchedule) Solvable(cap uint64) bool {
	if cap == 0 {
		return false
	}
	if _, ok := p.Evaluate(0); !ok {
		return false
	}
	_, ok := p.Evaluate(cap - 1)
	return ok
}
