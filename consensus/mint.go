package consensus

// MintEffect is the outcome of a successful TryMint: amount to credit to
// the allocation input pool, MBTC price owed, and whether this mint
// concludes the cap (triggering pool seeding, spec.md §4.5).
type MintEffect struct {
	AmountMinted U128
	PriceMBTC    U128
	PoolSeeded   bool
}

// TryMint evaluates a Mint(id) message against spec.md §4.5. A cap-exceeding
// or otherwise failing mint is a silent rejection (spec.md §7), never a
// flaw: counters are left untouched by the caller when ok is false.
//
// A Keepsake carries at most one Mint field (a repeated Mint tag is
// DuplicateTag, a parse-time flaw), so "per-transaction mint count" is
// always exactly 1 when this function runs; tx_cap therefore gates whether
// this single mint is allowed at all (tx_cap == 0 disables minting via this
// message).
func TryMint(entry *RelicEntry, availableMBTC U128) (MintEffect, bool) {
	if entry == nil || entry.Unmintable {
		return MintEffect{}, false
	}
	if entry.MintedCount >= entry.Terms.Cap {
		return MintEffect{}, false
	}
	if entry.Terms.BlockCap != nil && entry.MintsThisBlock >= *entry.Terms.BlockCap {
		return MintEffect{}, false
	}
	if entry.Terms.TxCap < 1 {
		return MintEffect{}, false
	}
	price, ok := entry.Terms.Price.Evaluate(entry.MintedCount)
	if !ok {
		return MintEffect{}, false
	}
	if availableMBTC.LessThan(price) {
		return MintEffect{}, false
	}
	seeded := entry.MintedCount+1 == entry.Terms.Cap
	return MintEffect{AmountMinted: entry.Terms.AmountPerMint, PriceMBTC: price, PoolSeeded: seeded}, true
}

// ApplyMint commits a MintEffect to entry: increments counters, accrues the
// paid MBTC into escrow, and seeds the pool on the mint that reaches cap.
func ApplyMint(entry *RelicEntry, eff MintEffect) {
	entry.MintedCount++
	entry.MintsThisBlock++
	escrow, ok := entry.mbtcEscrow.Add(eff.PriceMBTC)
	if !ok {
		escrow = entry.mbtcEscrow
	}
	entry.mbtcEscrow = escrow
	if eff.PoolSeeded {
		entry.Pool = &Pool{
			BaseReserve:  entry.mbtcEscrow,
			QuoteReserve: entry.Seed,
			FeeBps:       DefaultFeeBps,
		}
		entry.mbtcEscrow = ZeroU128
	}
}

// MBTCEscrow exposes the in-progress mint escrow for persistence: it is
// unexported on RelicEntry so only ApplyMint can mutate it in the normal
// consensus path, but the store package needs to round-trip it across
// restarts, since it is real state between mints and a pool seed.
func (e *RelicEntry) MBTCEscrow() U128 { return e.mbtcEscrow }

// SetMBTCEscrow restores a persisted escrow value; used only when loading a
// RelicEntry back from the store.
func (e *RelicEntry) SetMBTCEscrow(v U128) { e.mbtcEscrow = v }

// UnmintEffect is the outcome of a successful TryUnmint.
type UnmintEffect struct {
	BurnedRelic U128
	RefundMBTC  U128
}

// TryUnmint evaluates an Unmint(id) message against spec.md §4.5: max
// unmints not exhausted, the input pool holds at least one mint's worth of
// the relic, and a refund price is solvable at minted_count-1.
func TryUnmint(entry *RelicEntry, availableRelic U128) (UnmintEffect, bool) {
	if entry == nil || entry.Terms.MaxUnmints == nil {
		return UnmintEffect{}, false
	}
	if entry.UnmintedCount >= *entry.Terms.MaxUnmints {
		return UnmintEffect{}, false
	}
	if entry.MintedCount == 0 {
		return UnmintEffect{}, false
	}
	if availableRelic.LessThan(entry.Terms.AmountPerMint) {
		return UnmintEffect{}, false
	}
	refund, ok := entry.Terms.Price.Evaluate(entry.MintedCount - 1)
	if !ok {
		return UnmintEffect{}, false
	}
	return UnmintEffect{BurnedRelic: entry.Terms.AmountPerMint, RefundMBTC: refund}, true
}

// ApplyUnmint commits an UnmintEffect to entry: decrements minted_count and
// increments unminted_count.
func ApplyUnmint(entry *RelicEntry) {
	entry.MintedCount--
	entry.UnmintedCount++
}
