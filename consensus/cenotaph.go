package consensus

// CenotaphEffect describes how apply.go must unwind a transaction whose
// Keepsake raised a Flaw (spec.md §7): burn everything rather than the
// transaction's ordinary effects.
type CenotaphEffect struct {
	// BurnedInputPool is every relic the transaction's spent outputs carried
	// in; a cenotaph forfeits all of it rather than reallocating it.
	BurnedInputPool map[RelicId]U128

	// MintBurned is the amount a same-transaction Mint would have credited;
	// the mint's counters still advance (MintedCount/MintsThisBlock), but the
	// minted units are burned instead of entering the allocation pool.
	MintBurned  U128
	MintCounted bool

	// EnshrineUnmintable is true when a same-transaction Enshrine still
	// consumes its sealing and registers a RelicEntry, but the entry is
	// permanently marked Unmintable: the name is spent, the token is not
	// usable.
	EnshrineUnmintable bool

	// SealRejected is true when a same-transaction Seal is rejected outright:
	// no SealingRecord is created and no MBTC fee is refunded.
	SealRejected bool
}

// Cenotaph computes the burn-everything effect for a flawed transaction.
// mintEffect/mintOccurred carry whatever TryMint would have produced had the
// message parsed cleanly, so the caller can still advance mint counters
// while burning the proceeds (spec.md §7: "mints still count toward caps").
func Cenotaph(inputPool map[RelicId]U128, mintEffect MintEffect, mintOccurred, enshrineAttempted, sealAttempted bool) CenotaphEffect {
	burned := make(map[RelicId]U128, len(inputPool))
	for id, amt := range inputPool {
		burned[id] = amt
	}
	return CenotaphEffect{
		BurnedInputPool:    burned,
		MintBurned:         mintEffect.AmountMinted,
		MintCounted:        mintOccurred,
		EnshrineUnmintable: enshrineAttempted,
		SealRejected:       sealAttempted,
	}
}
