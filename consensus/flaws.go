package consensus

import "fmt"

// FlawCode names a specific reason a Keepsake is classified as a cenotaph
// (spec.md §7). Flaws are protocol-observable outcomes, not Go errors: a
// flaw never aborts block processing, it only changes how the carrying
// transaction's effects are computed (cenotaph.go).
type FlawCode string

const (
	FlawVarintOverflow         FlawCode = "VARINT_OVERFLOW"
	FlawTruncatedVarint        FlawCode = "TRUNCATED_VARINT"
	FlawNonPushOpcode          FlawCode = "NON_PUSH_OPCODE"
	FlawUnrecognizedOddTag     FlawCode = "UNRECOGNIZED_ODD_TAG"
	FlawDuplicateTag           FlawCode = "DUPLICATE_TAG"
	FlawValueOutOfRange        FlawCode = "VALUE_OUT_OF_RANGE"
	FlawNameInvalid            FlawCode = "NAME_INVALID"
	FlawNameTaken              FlawCode = "NAME_TAKEN"
	FlawSealMissingInscription FlawCode = "SEAL_MISSING_INSCRIPTION"
	FlawInsufficientFee        FlawCode = "INSUFFICIENT_FEE"
	FlawEnshrineWithoutSealing FlawCode = "ENSHRINE_WITHOUT_SEALING"
	FlawEnshrineNotOwner       FlawCode = "ENSHRINE_NOT_OWNER"
	FlawPriceUnsolvable        FlawCode = "PRICE_UNSOLVABLE"
	FlawSeedExceedsSupply      FlawCode = "SEED_EXCEEDS_SUPPLY"
	FlawTransferOutputOOR      FlawCode = "TRANSFER_OUTPUT_OUT_OF_RANGE"
	FlawSupplyOverflow         FlawCode = "SUPPLY_OVERFLOW"
	FlawMultipleMarkers        FlawCode = "MULTIPLE_MARKERS"
)

// Flaw carries a FlawCode plus a short diagnostic. It is never returned as a
// Go error from the parser; flaw-detecting functions return it as a value
// alongside ok=false.
type Flaw struct {
	Code FlawCode
	Msg  string
}

func (f *Flaw) Error() string {
	if f == nil {
		return "<nil>"
	}
	if f.Msg == "" {
		return string(f.Code)
	}
	return fmt.Sprintf("%s: %s", f.Code, f.Msg)
}

func flaw(code FlawCode, msg string) *Flaw {
	return &Flaw{Code: code, Msg: msg}
}
