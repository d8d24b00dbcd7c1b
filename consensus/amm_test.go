package consensus

import "testing"

func TestTrySwap_Unseeded(t *testing.T) {
	pool := &Pool{}
	if _, ok := TrySwap(pool, SwapBaseToQuote, U128FromUint64(100), ZeroU128); ok {
		t.Fatalf("expected swap against unseeded pool to be rejected")
	}
}

func TestTrySwap_BaseToQuote(t *testing.T) {
	pool := &Pool{
		BaseReserve:  U128FromUint64(1_000_000),
		QuoteReserve: U128FromUint64(1_000_000),
		FeeBps:       DefaultFeeBps,
	}
	eff, ok := TrySwap(pool, SwapBaseToQuote, U128FromUint64(1000), ZeroU128)
	if !ok {
		t.Fatalf("expected swap to succeed")
	}
	if eff.AmountOut.IsZero() {
		t.Fatalf("expected a nonzero amount out")
	}
	// Constant product fee means the quoted output is strictly less than the
	// naive no-fee amount (1000 in, 1000 out for equal reserves).
	if !eff.AmountOut.LessThan(U128FromUint64(1000)) {
		t.Fatalf("amount out = %s, want < 1000 after fee", eff.AmountOut)
	}
	if eff.NewPool.BaseReserve.Cmp(U128FromUint64(1_001_000)) != 0 {
		t.Fatalf("new base reserve = %s, want 1001000", eff.NewPool.BaseReserve)
	}
}

func TestTrySwap_SlippageFloorRejects(t *testing.T) {
	pool := &Pool{
		BaseReserve:  U128FromUint64(1_000_000),
		QuoteReserve: U128FromUint64(1_000_000),
		FeeBps:       DefaultFeeBps,
	}
	if _, ok := TrySwap(pool, SwapBaseToQuote, U128FromUint64(1000), U128FromUint64(1000)); ok {
		t.Fatalf("expected slippage floor to reject the trade")
	}
}

func TestTrySwap_QuoteToBase(t *testing.T) {
	pool := &Pool{
		BaseReserve:  U128FromUint64(500_000),
		QuoteReserve: U128FromUint64(2_000_000),
		FeeBps:       DefaultFeeBps,
	}
	eff, ok := TrySwap(pool, SwapQuoteToBase, U128FromUint64(2000), ZeroU128)
	if !ok {
		t.Fatalf("expected swap to succeed")
	}
	if eff.NewPool.QuoteReserve.Cmp(U128FromUint64(2_002_000)) != 0 {
		t.Fatalf("new quote reserve = %s, want 2002000", eff.NewPool.QuoteReserve)
	}
	if eff.NewPool.BaseReserve.GreaterThan(pool.BaseReserve) {
		t.Fatalf("base reserve should have decreased")
	}
}
