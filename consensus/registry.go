package consensus

// Divisibility is fixed at 8 for every protocol-level amount (spec.md §3):
// 10^8 atomic units per display unit.
const Divisibility = 8

var divisibilityScale = U128FromUint64(100_000_000)

// MBTCDisplay converts a whole-number display-unit amount of MBTC into
// atomic units.
func MBTCDisplay(n uint64) U128 {
	v, _ := U128FromUint64(n).Mul(divisibilityScale)
	return v
}

// SealFee is the MBTC burn required to seal a name of the given letter
// count (spec.md §4.5): 1/10/500/2100/21000/210000 MBTC for lengths
// 13+/7-12/4-6/3/2/1.
func SealFee(nameLen int) U128 {
	switch {
	case nameLen >= 13:
		return MBTCDisplay(1)
	case nameLen >= 7:
		return MBTCDisplay(10)
	case nameLen >= 4:
		return MBTCDisplay(500)
	case nameLen == 3:
		return MBTCDisplay(2100)
	case nameLen == 2:
		return MBTCDisplay(21000)
	default: // length 1
		return MBTCDisplay(210000)
	}
}

// SealOutcome is the result of evaluating a Seal message.
type SealOutcome int

const (
	SealSucceeded SealOutcome = iota
	SealFlawMissingInscription
	SealFlawInsufficientFee
	SealFlawNameTaken
	SealFrontrunRefund
)

// ClassifySeal evaluates a Seal(name) message against the checks of
// spec.md §4.5, in priority order: the missing-inscription and
// insufficient-fee flaws are reported before either collision case fires,
// so the frontrunning refund only ever applies to a sealing that would
// otherwise have succeeded outright ("rejected solely because another
// sealing... succeeded earlier in the same block").
//
//   - takenGlobally: a SealingRecord (or enshrined name) already reserves
//     these letters from a prior block.
//   - takenEarlierThisBlock: a sealing of the same letters committed
//     earlier (lower tx_index) within the current block.
func ClassifySeal(
	hasInscription, inscriptionMatches bool,
	burned, requiredFee U128,
	takenGlobally, takenEarlierThisBlock bool,
) SealOutcome {
	if !hasInscription || !inscriptionMatches {
		return SealFlawMissingInscription
	}
	if burned.LessThan(requiredFee) {
		return SealFlawInsufficientFee
	}
	if takenGlobally {
		return SealFlawNameTaken
	}
	if takenEarlierThisBlock {
		return SealFrontrunRefund
	}
	return SealSucceeded
}

// EvaluateEnshrine checks the Enshrine(name) success predicate of
// spec.md §4.5. record must be the live SealingRecord for the targeted
// name, or nil if none exists.
func EvaluateEnshrine(
	record *SealingRecord,
	spendsOwnerOutput bool,
	amount *U128,
	cap *uint64,
	hasPrice bool,
	price PriceSchedule,
	seed *U128,
) (ok bool, code FlawCode) {
	if record == nil || record.Enshrined || !record.InscriptionLive {
		return false, FlawEnshrineWithoutSealing
	}
	if !spendsOwnerOutput {
		return false, FlawEnshrineNotOwner
	}
	if amount == nil || cap == nil || seed == nil || !hasPrice {
		return false, FlawValueOutOfRange
	}
	if *cap == 0 {
		return false, FlawValueOutOfRange
	}
	supply, ok := amount.Mul(U128FromUint64(*cap))
	if !ok {
		return false, FlawSupplyOverflow
	}
	if !price.Solvable(*cap) {
		return false, FlawPriceUnsolvable
	}
	if seed.GreaterThan(supply) {
		return false, FlawSeedExceedsSupply
	}
	return true, ""
}
