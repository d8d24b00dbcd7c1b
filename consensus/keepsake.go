package consensus

// Transfer is one entry of the flat transfer list introduced by TagBody
// (spec.md §4.2, §4.4): move `amount` of `ID` to output `Output`, with the
// amount==0 and Output==n_outputs sentinels handled by the Allocation
// Engine, not here.
type Transfer struct {
	ID     RelicId
	Amount U128
	Output uint32
}

// Keepsake is the parsed protocol message: a record of optional fields plus
// a transfer vector (spec.md §9 "tagged message" design note). A nil field
// means the tag was absent.
type Keepsake struct {
	Seal        *Name
	sealSet     bool
	spacersSet  bool
	Enshrine    *Name
	enshrineSet bool

	Symbol        *uint32
	Amount        *U128
	Cap           *uint64
	BlockCap      *uint64
	TxCap         *uint8
	MaxUnmints    *uint64
	PriceMode     *uint8
	PriceA        *U128
	PriceB        *U128
	PriceC        *U128
	Seed          *U128
	Turbo         *bool
	Mint          *RelicId
	Unmint        *RelicId
	Swap          *RelicId
	SwapInput     *U128
	SwapOutputMin *U128
	SwapDirection *uint8
	Pointer       *uint32

	Transfers []Transfer
}

// ParseKeepsake converts the raw push payload of a Keepsake output into a
// Keepsake message (spec.md §4.2). nOutputs is the transaction's total
// output count (used to range-check transfer outputs).
//
// A non-nil Flaw means the message is malformed and must be processed as a
// cenotaph (cenotaph.go); the partially built Keepsake is still returned so
// cenotaph handling can still see, e.g., any Enshrine that must be marked
// unmintable.
func ParseKeepsake(payload []byte, nOutputs uint32) (*Keepsake, *Flaw) {
	ints, fl := DecodeU128VarintStream(payload)
	if fl != nil {
		return &Keepsake{}, fl
	}

	k := &Keepsake{}
	seen := make(map[Tag]bool, len(ints))
	dec := &relicIDDeltaDecoder{}

	i := 0
	for i < len(ints) {
		tagVal, ok := ints[i].Uint64()
		i++
		if !ok {
			return k, flaw(FlawValueOutOfRange, "tag value exceeds uint64")
		}
		tag := Tag(tagVal)

		if tag == TagBody {
			rest := ints[i:]
			if len(rest)%4 != 0 {
				return k, flaw(FlawValueOutOfRange, "truncated transfer tuple")
			}
			for j := 0; j < len(rest); j += 4 {
				idDec, ok := dec.decode(rest[j], rest[j+1])
				if !ok {
					return k, flaw(FlawValueOutOfRange, "transfer id out of range")
				}
				amount := rest[j+2]
				outVal, ok := rest[j+3].Uint64()
				if !ok || outVal > 0xffffffff {
					return k, flaw(FlawValueOutOfRange, "transfer output out of range")
				}
				if uint32(outVal) > nOutputs {
					return k, flaw(FlawTransferOutputOOR, "transfer output index out of range")
				}
				k.Transfers = append(k.Transfers, Transfer{ID: idDec, Amount: amount, Output: uint32(outVal)})
			}
			return k, nil
		}

		if singleValuedTags[tag] && seen[tag] {
			return k, flaw(FlawDuplicateTag, "duplicate tag")
		}

		if relicIDTags[tag] {
			if i+1 >= len(ints) {
				return k, flaw(FlawValueOutOfRange, "truncated relic id")
			}
			blockDelta := ints[i]
			txIndex := ints[i+1]
			i += 2
			id, ok := dec.decode(blockDelta, txIndex)
			if !ok {
				return k, flaw(FlawValueOutOfRange, "relic id out of range")
			}
			seen[tag] = true
			switch tag {
			case TagMint:
				k.Mint = &id
			case TagUnmint:
				k.Unmint = &id
			case TagSwap:
				k.Swap = &id
			}
			continue
		}

		if i >= len(ints) {
			return k, flaw(FlawValueOutOfRange, "tag missing value")
		}
		value := ints[i]
		i++

		if !singleValuedTags[tag] {
			if tag.isOdd() {
				return k, flaw(FlawUnrecognizedOddTag, "unrecognized odd tag")
			}
			continue // even unknown tag: forward-compat ignore
		}
		seen[tag] = true

		if fl := k.assign(tag, value); fl != nil {
			return k, fl
		}
	}
	return k, nil
}

func (k *Keepsake) assign(tag Tag, value U128) *Flaw {
	switch tag {
	case TagSeal:
		letters, ok := DecodeNameInteger(value)
		if !ok {
			return flaw(FlawNameInvalid, "seal name decode failed")
		}
		k.Seal = &Name{Letters: letters}
		k.sealSet = true
	case TagSealSpacers:
		mask, ok := value.Uint64()
		if !ok || mask > 0xffffffff {
			return flaw(FlawValueOutOfRange, "spacer mask out of range")
		}
		k.spacersSet = true
		if k.Seal != nil {
			k.Seal.SpacerMask = uint32(mask)
		} else {
			// Recorded even without a Seal so coherence checks below can flag
			// SealSpacers-without-Seal uniformly.
			k.Seal = &Name{SpacerMask: uint32(mask)}
		}
	case TagEnshrine:
		letters, ok := DecodeNameInteger(value)
		if !ok {
			return flaw(FlawNameInvalid, "enshrine name decode failed")
		}
		k.Enshrine = &Name{Letters: letters}
		k.enshrineSet = true
	case TagSymbol:
		v, ok := value.Uint64()
		if !ok || v > 0x10ffff {
			return flaw(FlawValueOutOfRange, "symbol out of range")
		}
		u := uint32(v)
		k.Symbol = &u
	case TagAmount:
		k.Amount = &value
	case TagCap:
		v, ok := value.Uint64()
		if !ok {
			return flaw(FlawValueOutOfRange, "cap out of range")
		}
		k.Cap = &v
	case TagBlockCap:
		v, ok := value.Uint64()
		if !ok {
			return flaw(FlawValueOutOfRange, "block_cap out of range")
		}
		k.BlockCap = &v
	case TagTxCap:
		v, ok := value.Uint64()
		if !ok || v > 255 {
			return flaw(FlawValueOutOfRange, "tx_cap out of range")
		}
		u := uint8(v)
		k.TxCap = &u
	case TagMaxUnmints:
		v, ok := value.Uint64()
		if !ok {
			return flaw(FlawValueOutOfRange, "max_unmints out of range")
		}
		k.MaxUnmints = &v
	case TagPriceMode:
		v, ok := value.Uint64()
		if !ok || v > 1 {
			return flaw(FlawValueOutOfRange, "price_mode out of range")
		}
		u := uint8(v)
		k.PriceMode = &u
	case TagPriceA:
		k.PriceA = &value
	case TagPriceB:
		k.PriceB = &value
	case TagPriceC:
		k.PriceC = &value
	case TagSeed:
		k.Seed = &value
	case TagTurbo:
		v, ok := value.Uint64()
		if !ok || v > 1 {
			return flaw(FlawValueOutOfRange, "turbo out of range")
		}
		b := v == 1
		k.Turbo = &b
	case TagSwapInput:
		k.SwapInput = &value
	case TagSwapOutputMin:
		k.SwapOutputMin = &value
	case TagSwapDirection:
		v, ok := value.Uint64()
		if !ok || v > 1 {
			return flaw(FlawValueOutOfRange, "swap_direction out of range")
		}
		u := uint8(v)
		k.SwapDirection = &u
	case TagPointer:
		v, ok := value.Uint64()
		if !ok || v > 0xffffffff {
			return flaw(FlawValueOutOfRange, "pointer out of range")
		}
		u := uint32(v)
		k.Pointer = &u
	}
	return nil
}

// Coherent runs the cross-field flaw checks of spec.md §4.2 that can only be
// evaluated once the whole message is parsed: Seal/SealSpacers must appear
// together, and Seal/Enshrine are mutually exclusive.
func (k *Keepsake) Coherent() *Flaw {
	if k.sealSet != k.spacersSet {
		return flaw(FlawNameInvalid, "Seal and SealSpacers must appear together")
	}
	if k.Seal != nil && !ValidateSpacerMask(k.Seal.SpacerMask, len(k.Seal.Letters)) {
		return flaw(FlawNameInvalid, "spacer mask invalid for name length")
	}
	if k.sealSet && k.enshrineSet {
		return flaw(FlawNameInvalid, "Seal and Enshrine are mutually exclusive")
	}
	return nil
}
