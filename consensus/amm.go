package consensus

import (
	"github.com/holiman/uint256"
)

// SwapDirection values match TagSwapDirection's wire encoding.
const (
	SwapBaseToQuote uint8 = 0 // spend MBTC, receive the relic
	SwapQuoteToBase uint8 = 1 // spend the relic, receive MBTC
)

// SwapEffect is the outcome of a successful TrySwap: the amount taken from
// the input pool and the amount credited back by the allocation engine,
// plus the pool state to commit.
type SwapEffect struct {
	AmountIn  U128
	AmountOut U128
	NewPool   Pool
}

// TrySwap executes one leg of the constant-product formula of spec.md §4.6:
// a 1% fee charged on the input side, then x*y=k held constant across the
// trade. Intermediate products are computed in u256 (via
// github.com/holiman/uint256) to avoid overflow on the widened multiply
// before it is narrowed back down for the u128 output amount.
//
// ok is false when the pool is unseeded (a rejection, not a flaw), the
// input amount is zero, or the quoted
// output would fall below minOut (the slippage floor — also a rejection,
// never a flaw: spec.md §4.6).
func TrySwap(pool *Pool, direction uint8, amountIn U128, minOut U128) (SwapEffect, bool) {
	if pool == nil || pool.BaseReserve.IsZero() || pool.QuoteReserve.IsZero() {
		return SwapEffect{}, false // pool not seeded
	}
	if amountIn.IsZero() {
		return SwapEffect{}, false
	}

	var reserveIn, reserveOut U128
	switch direction {
	case SwapBaseToQuote:
		reserveIn, reserveOut = pool.BaseReserve, pool.QuoteReserve
	case SwapQuoteToBase:
		reserveIn, reserveOut = pool.QuoteReserve, pool.BaseReserve
	default:
		return SwapEffect{}, false
	}

	feeBps := pool.FeeBps
	if feeBps == 0 {
		feeBps = DefaultFeeBps
	}

	amountInAfterFee := mulDivU256(amountIn, u128FromUint16(10_000-feeBps), u128FromUint16(10_000))

	// Stay in u256 across the multiply *and* the divide (spec.md §4.6/§9):
	// narrowing amountInAfterFee*reserveOut to u128 before dividing would
	// truncate the product for any reserve pair near u128 range.
	numerator := new(uint256.Int).Mul(u256From(amountInAfterFee), u256From(reserveOut))
	denominator := add256(u256From(reserveIn), u256From(amountInAfterFee))
	if denominator.IsZero() {
		return SwapEffect{}, false
	}
	amountOutBig := new(uint256.Int).Div(numerator, denominator)
	amountOut, ok := u128FromU256(amountOutBig)
	if !ok {
		return SwapEffect{}, false
	}
	if amountOut.IsZero() || amountOut.LessThan(minOut) {
		return SwapEffect{}, false
	}
	if amountOut.GreaterThan(reserveOut) {
		return SwapEffect{}, false
	}

	newReserveIn, ok := reserveIn.Add(amountIn)
	if !ok {
		return SwapEffect{}, false
	}
	newReserveOut, ok := reserveOut.Sub(amountOut)
	if !ok {
		return SwapEffect{}, false
	}

	newPool := *pool
	switch direction {
	case SwapBaseToQuote:
		newPool.BaseReserve, newPool.QuoteReserve = newReserveIn, newReserveOut
	case SwapQuoteToBase:
		newPool.QuoteReserve, newPool.BaseReserve = newReserveIn, newReserveOut
	}

	return SwapEffect{AmountIn: amountIn, AmountOut: amountOut, NewPool: newPool}, true
}

func u128FromUint16(v uint16) U128 {
	return U128FromUint64(uint64(v))
}

func u256From(v U128) *uint256.Int {
	u, _ := uint256.FromBig(v.big())
	return u
}

func add256(a, b *uint256.Int) *uint256.Int {
	return new(uint256.Int).Add(a, b)
}

// mulDivU256 computes floor(a*b/c) widened through u256, used for the
// fee-adjusted input amount (amountIn * (10000-feeBps) / 10000).
func mulDivU256(a, b, c U128) U128 {
	num := new(uint256.Int).Mul(u256From(a), u256From(b))
	den := u256From(c)
	if den.IsZero() {
		return ZeroU128
	}
	q := new(uint256.Int).Div(num, den)
	out, _ := u128FromU256(q)
	return out
}

func u128FromU256(v *uint256.Int) (U128, bool) {
	return U128FromBigInt(v.ToBig())
}
