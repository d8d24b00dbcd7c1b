package consensus

import (
	"math/big"
	"sort"
)

// AllocationInput bundles everything the Allocation Engine needs to compute
// the per-output balance distribution for one transaction (spec.md §4.4).
type AllocationInput struct {
	InputPool    map[RelicId]U128 // union of spent outputs' balances
	MintAddition map[RelicId]U128 // {mint_relic_id: amount_per_mint}, if a mint occurred
	SwapAddition map[RelicId]U128 // the output leg of a swap, if one occurred
	Transfers    []Transfer
	Pointer      *uint32
	NOutputs     uint32 // count of the transaction's actual outputs
	IsOpReturn   []bool // len == NOutputs; true at OP_RETURN output indices
}

// AllocationResult is the outcome of Allocate: credited balances per output
// plus whatever was burned along the way (for the Burned event and
// conservation accounting).
type AllocationResult struct {
	PerOutput []OutputBalance // len == NOutputs
	Burned    map[RelicId]U128
}

// Allocate runs the algorithm of spec.md §4.4: merge the input pool with any
// mint/swap additions, apply the transfer list in order (saturating amounts,
// no-op on an absent id, the amount==0 "transfer all" case, and the
// output==NOutputs split sentinel), then flow whatever remains to the
// pointer output, the first non-OP_RETURN output, or burn it.
//
// ok is false only on an internal u128 overflow merging the three addition
// sources, which the caller (apply.go) escalates to a SupplyOverflow flaw.
func Allocate(in AllocationInput) (AllocationResult, bool) {
	unallocated := make(map[RelicId]U128, len(in.InputPool))
	for id, amt := range in.InputPool {
		unallocated[id] = amt
	}
	for _, add := range []map[RelicId]U128{in.MintAddition, in.SwapAddition} {
		for id, amt := range add {
			cur := unallocated[id]
			sum, ok := cur.Add(amt)
			if !ok {
				return AllocationResult{}, false
			}
			unallocated[id] = sum
		}
	}

	perOutput := make([]OutputBalance, in.NOutputs)
	burned := make(map[RelicId]U128)

	nonOpReturn := make([]uint32, 0, in.NOutputs)
	for i := uint32(0); i < in.NOutputs; i++ {
		if !in.IsOpReturn[i] {
			nonOpReturn = append(nonOpReturn, i)
		}
	}

	creditOrBurn := func(out uint32, id RelicId, amt U128) {
		if amt.IsZero() {
			return
		}
		if out >= in.NOutputs || in.IsOpReturn[out] {
			addTo(burned, id, amt)
			return
		}
		if perOutput[out] == nil {
			perOutput[out] = OutputBalance{}
		}
		addTo(perOutput[out], id, amt)
	}

	splitEvenly := func(id RelicId, amt U128) {
		if len(nonOpReturn) == 0 {
			addTo(burned, id, amt)
			return
		}
		n := U128FromUint64(uint64(len(nonOpReturn)))
		share := divFloor(amt, n)
		remainder, _ := amt.Sub(mustMul(share, n))
		for i, out := range nonOpReturn {
			credit := share
			if i == 0 {
				credit, _ = credit.Add(remainder)
			}
			creditOrBurn(out, id, credit)
		}
	}

	for _, tr := range in.Transfers {
		avail, ok := unallocated[tr.ID]
		if !ok || avail.IsZero() {
			continue // absent id: no-op, not a flaw (spec.md §4.4)
		}
		var consumed U128
		if tr.Amount.IsZero() {
			consumed = avail
		} else {
			consumed = tr.Amount.Min(avail)
		}
		if consumed.IsZero() {
			continue
		}
		remaining, _ := avail.Sub(consumed)
		if remaining.IsZero() {
			delete(unallocated, tr.ID)
		} else {
			unallocated[tr.ID] = remaining
		}

		if tr.Output == in.NOutputs {
			splitEvenly(tr.ID, consumed)
		} else {
			creditOrBurn(tr.Output, tr.ID, consumed)
		}
	}

	// Deterministic flush of whatever is left: iterate by (Block, TxIndex) so
	// two implementations never diverge on map order (spec.md §9).
	remainingIDs := make([]RelicId, 0, len(unallocated))
	for id := range unallocated {
		remainingIDs = append(remainingIDs, id)
	}
	sort.Slice(remainingIDs, func(i, j int) bool {
		a, b := remainingIDs[i], remainingIDs[j]
		if a.Block != b.Block {
			return a.Block < b.Block
		}
		return a.TxIndex < b.TxIndex
	})

	defaultOut, haveDefault := defaultOutput(in)
	for _, id := range remainingIDs {
		amt := unallocated[id]
		if amt.IsZero() {
			continue
		}
		if haveDefault {
			creditOrBurn(defaultOut, id, amt)
		} else {
			addTo(burned, id, amt)
		}
	}

	return AllocationResult{PerOutput: perOutput, Burned: burned}, true
}

// defaultOutput resolves the pointer output, falling back to the first
// non-OP_RETURN output (spec.md §4.4).
func defaultOutput(in AllocationInput) (uint32, bool) {
	if in.Pointer != nil {
		p := *in.Pointer
		if p < in.NOutputs && !in.IsOpReturn[p] {
			return p, true
		}
	}
	for i := uint32(0); i < in.NOutputs; i++ {
		if !in.IsOpReturn[i] {
			return i, true
		}
	}
	return 0, false
}

func addTo(m map[RelicId]U128, id RelicId, amt U128) {
	cur := m[id]
	sum, ok := cur.Add(amt)
	if !ok {
		// Unreachable under conservation (amounts are sub-totals of an
		// already-range-checked pool); keep the larger, never panic.
		sum = cur
	}
	m[id] = sum
}

func divFloor(a, b U128) U128 {
	if b.IsZero() {
		return ZeroU128
	}
	q := new(big.Int).Quo(a.big(), b.big())
	res, _ := U128FromBigInt(q)
	return res
}

func mustMul(a, b U128) U128 {
	res, ok := a.Mul(b)
	if !ok {
		return a
	}
	return res
}
