package consensus

import "sort"

// ApplyBlock runs ApplyTransaction over every transaction of block in
// order, resetting each relic's per-block mint counter first (spec.md §4.5,
// §9: single-threaded, strict (height, tx_index) order).
func ApplyBlock(state *ChainState, block Block) []Event {
	state.ResetBlockMintCounters()
	state.Tip = block.Height

	events := make([]Event, 0, len(block.Txs))
	for i, tx := range block.Txs {
		events = append(events, ApplyTransaction(state, block.Height, uint32(i), tx)...)
	}
	return events
}

// ApplyTransaction runs the full per-transaction pipeline of spec.md §4:
// Scanner -> Parser -> Registry/Mint/AMM actions -> Allocation, or the
// Cenotaph Policy in place of the latter stages when a Flaw is raised.
func ApplyTransaction(state *ChainState, block uint64, txIndex uint32, tx ExternalTx) []Event {
	inputPool := make(map[RelicId]U128)
	for _, in := range tx.Inputs {
		for id, amt := range state.SpendOutput(in) {
			addTo(inputPool, id, amt)
		}
	}

	nOutputs := uint32(len(tx.Outputs))
	isOpReturn := make([]bool, nOutputs)
	scripts := make([][]byte, nOutputs)
	for i, out := range tx.Outputs {
		scripts[i] = out.ScriptBytes
		isOpReturn[i] = len(out.ScriptBytes) > 0 && out.ScriptBytes[0] == opReturn
	}

	payload, found, scanFlaw := ScanKeepsakeOutput(scripts)
	if scanFlaw != nil {
		return []Event{cenotaphEvent(state, block, txIndex, tx, inputPool, nil, false, false)}
	}
	if !found {
		return finishAllocation(state, block, txIndex, tx, inputPool, nil, nil, nil, nil, nOutputs, isOpReturn)
	}

	keepsake, parseFlaw := ParseKeepsake(payload, nOutputs)
	if parseFlaw != nil {
		return []Event{cenotaphEvent(state, block, txIndex, tx, inputPool, keepsake, keepsake.Enshrine != nil, keepsake.Seal != nil)}
	}
	if coherenceFlaw := keepsake.Coherent(); coherenceFlaw != nil {
		return []Event{cenotaphEvent(state, block, txIndex, tx, inputPool, keepsake, keepsake.Enshrine != nil, keepsake.Seal != nil)}
	}

	mintAdditions := make(map[RelicId]U128)
	swapAdditions := make(map[RelicId]U128)
	var sealEvent, enshrineEvent, mintEvent, unmintEvent, swapEvent *Event

	if keepsake.Seal != nil {
		letters := keepsake.Seal.Letters
		fee := SealFee(len(letters))
		available := inputPool[MBTCRelicId]
		hasInscription := tx.Inscription != nil
		existingSealing := state.Sealing(letters)
		existingRelic := state.RelicByName(letters)
		takenGlobally := existingRelic != nil
		takenEarlierThisBlock := false
		if existingSealing != nil {
			if existingSealing.SealingBlock == block {
				takenEarlierThisBlock = true
			} else {
				takenGlobally = true
			}
		}
		// Inscription-body verification (that the metadata actually names this
		// output) is a collaborator's job outside this engine; a revealed
		// inscription in this transaction is taken as a match.
		outcome := ClassifySeal(hasInscription, hasInscription, available, fee, takenGlobally, takenEarlierThisBlock)
		if outcome == SealSucceeded {
			burned := subtractFrom(inputPool, MBTCRelicId, fee)
			rec := &SealingRecord{
				Name:             *keepsake.Seal,
				OwnerInscription: tx.Inscription.ID,
				OwnerOutput:      tx.Inscription.Owner,
				SealingTxid:      tx.Txid,
				SealingBlock:     block,
				SealingTxIndex:   txIndex,
				MBTCBurned:       burned,
				InscriptionLive:  true,
			}
			state.PutSealing(rec)
			ev := SealedEvent(block, txIndex, tx.Txid, *keepsake.Seal, fee)
			sealEvent = &ev
		}
		// SealFlawMissingInscription / SealFlawInsufficientFee / SealFlawNameTaken
		// / SealFrontrunRefund are all rejections (spec.md §7): no refund beyond
		// whatever the allocation engine naturally does with the unspent fee.
	}

	if keepsake.Enshrine != nil {
		letters := keepsake.Enshrine.Letters
		record := state.Sealing(letters)
		spendsOwner := record != nil && containsOutpoint(tx.Inputs, record.OwnerOutput)
		hasPriceMode := keepsake.PriceMode != nil
		schedule := PriceSchedule{}
		if hasPriceMode {
			schedule.Mode = *keepsake.PriceMode
			if schedule.Mode == PriceModeFixed {
				if keepsake.PriceA != nil {
					schedule.Fixed = *keepsake.PriceA
				} else {
					hasPriceMode = false
				}
			} else {
				if keepsake.PriceA != nil && keepsake.PriceB != nil && keepsake.PriceC != nil {
					schedule.A, schedule.B, schedule.C = *keepsake.PriceA, *keepsake.PriceB, *keepsake.PriceC
				} else {
					hasPriceMode = false
				}
			}
		}
		ok, _ := EvaluateEnshrine(record, spendsOwner, keepsake.Amount, keepsake.Cap, hasPriceMode, schedule, keepsake.Seed)
		if ok {
			record.Enshrined = true
			txCap := uint8(255)
			if keepsake.TxCap != nil {
				txCap = *keepsake.TxCap
			}
			entry := &RelicEntry{
				ID:           RelicId{Block: block, TxIndex: txIndex},
				Name:         *keepsake.Enshrine,
				Symbol:       keepsake.Symbol,
				Divisibility: Divisibility,
				Turbo:        keepsake.Turbo != nil && *keepsake.Turbo,
				Terms: MintTerms{
					AmountPerMint: *keepsake.Amount,
					Cap:           *keepsake.Cap,
					BlockCap:      keepsake.BlockCap,
					TxCap:         txCap,
					MaxUnmints:    keepsake.MaxUnmints,
					Price:         schedule,
					Seed:          *keepsake.Seed,
				},
				Seed:            *keepsake.Seed,
				EnshriningBlock: block,
				EnshriningTx:    txIndex,
			}
			state.PutRelic(entry)
			ev := EnshrinedEvent(block, txIndex, tx.Txid, entry.ID, entry.Name)
			enshrineEvent = &ev
		}
	}

	if keepsake.Mint != nil {
		entry := state.Relic(*keepsake.Mint)
		available := inputPool[MBTCRelicId]
		if eff, ok := TryMint(entry, available); ok {
			ApplyMint(entry, eff)
			subtractFrom(inputPool, MBTCRelicId, eff.PriceMBTC)
			addTo(mintAdditions, *keepsake.Mint, eff.AmountMinted)
			ev := MintedEvent(block, txIndex, tx.Txid, *keepsake.Mint, eff)
			mintEvent = &ev
		}
	}

	if keepsake.Unmint != nil {
		entry := state.Relic(*keepsake.Unmint)
		available := inputPool[*keepsake.Unmint]
		if eff, ok := TryUnmint(entry, available); ok {
			ApplyUnmint(entry)
			subtractFrom(inputPool, *keepsake.Unmint, eff.BurnedRelic)
			addTo(mintAdditions, MBTCRelicId, eff.RefundMBTC)
			ev := UnmintedEvent(block, txIndex, tx.Txid, *keepsake.Unmint, eff)
			unmintEvent = &ev
		}
	}

	if keepsake.Swap != nil {
		entry := state.Relic(*keepsake.Swap)
		if entry != nil {
			direction := SwapBaseToQuote
			if keepsake.SwapDirection != nil {
				direction = *keepsake.SwapDirection
			}
			inID := *keepsake.Swap
			if direction == SwapBaseToQuote {
				inID = MBTCRelicId
			}
			available := inputPool[inID]
			amountIn := available
			if keepsake.SwapInput != nil {
				amountIn = keepsake.SwapInput.Min(available)
			}
			minOut := ZeroU128
			if keepsake.SwapOutputMin != nil {
				minOut = *keepsake.SwapOutputMin
			}
			var before Pool
			if entry.Pool != nil {
				before = *entry.Pool
			}
			if eff, ok := TrySwap(entry.Pool, direction, amountIn, minOut); ok {
				*entry.Pool = eff.NewPool
				subtractFrom(inputPool, inID, eff.AmountIn)
				outID := *keepsake.Swap
				if direction == SwapQuoteToBase {
					outID = MBTCRelicId
				}
				addTo(swapAdditions, outID, eff.AmountOut)
				ev := SwappedEvent(block, txIndex, tx.Txid, *keepsake.Swap, before, eff)
				swapEvent = &ev
			}
		}
	}

	tail := finishAllocation(state, block, txIndex, tx, inputPool, mintAdditions, swapAdditions, keepsake.Transfers, keepsake.Pointer, nOutputs, isOpReturn)
	prefix := make([]Event, 0, 5)
	for _, ev := range []*Event{sealEvent, enshrineEvent, mintEvent, unmintEvent, swapEvent} {
		if ev != nil {
			prefix = append(prefix, *ev)
		}
	}
	return append(prefix, tail...)
}

func finishAllocation(
	state *ChainState,
	block uint64, txIndex uint32, tx ExternalTx,
	inputPool map[RelicId]U128,
	mintAdditions, swapAdditions map[RelicId]U128,
	transfers []Transfer, pointer *uint32,
	nOutputs uint32, isOpReturn []bool,
) []Event {
	result, ok := Allocate(AllocationInput{
		InputPool:    inputPool,
		MintAddition: mintAdditions,
		SwapAddition: swapAdditions,
		Transfers:    transfers,
		Pointer:      pointer,
		NOutputs:     nOutputs,
		IsOpReturn:   isOpReturn,
	})
	if !ok {
		return []Event{cenotaphEvent(state, block, txIndex, tx, inputPool, nil, false, false)}
	}
	for i, bal := range result.PerOutput {
		state.SetOutput(TxOutPoint{Txid: tx.Txid, Vout: uint32(i)}, bal)
	}

	events := make([]Event, 0, len(result.PerOutput)+1)
	for i, bal := range result.PerOutput {
		if len(bal) == 0 {
			continue
		}
		ids := make([]RelicId, 0, len(bal))
		for id := range bal {
			ids = append(ids, id)
		}
		// Deterministic order, same rule as Allocate's own remainder flush
		// (spec.md §9): two implementations must never diverge on map order.
		sort.Slice(ids, func(a, b int) bool {
			if ids[a].Block != ids[b].Block {
				return ids[a].Block < ids[b].Block
			}
			return ids[a].TxIndex < ids[b].TxIndex
		})
		for _, id := range ids {
			events = append(events, TransferredEvent(block, txIndex, tx.Txid, id, uint32(i), bal[id]))
		}
	}
	if len(result.Burned) > 0 {
		events = append(events, BurnedEvent(block, txIndex, tx.Txid, result.Burned))
	}
	if len(events) == 0 {
		return nil
	}
	return events
}

func cenotaphEvent(
	state *ChainState,
	block uint64, txIndex uint32, tx ExternalTx,
	inputPool map[RelicId]U128,
	keepsake *Keepsake,
	enshrineAttempted, sealAttempted bool,
) Event {
	var mintEffect MintEffect
	mintOccurred := false
	if keepsake != nil && keepsake.Mint != nil {
		entry := state.Relic(*keepsake.Mint)
		if eff, ok := TryMint(entry, inputPool[MBTCRelicId]); ok {
			ApplyMint(entry, eff)
			mintEffect = eff
			mintOccurred = true
		}
	}
	if keepsake != nil && enshrineAttempted && keepsake.Enshrine != nil {
		record := state.Sealing(keepsake.Enshrine.Letters)
		if record != nil && !record.Enshrined {
			record.Enshrined = true
			entry := &RelicEntry{
				ID:         RelicId{Block: block, TxIndex: txIndex},
				Name:       *keepsake.Enshrine,
				Unmintable: true,
			}
			state.PutRelic(entry)
		}
	}
	eff := Cenotaph(inputPool, mintEffect, mintOccurred, enshrineAttempted, sealAttempted)
	burned := eff.BurnedInputPool
	if eff.MintCounted && !eff.MintBurned.IsZero() {
		addTo(burned, *keepsake.Mint, eff.MintBurned)
	}
	return CenotaphEvent(block, txIndex, tx.Txid, burned)
}

func containsOutpoint(haystack []TxOutPoint, needle TxOutPoint) bool {
	for _, op := range haystack {
		if op == needle {
			return true
		}
	}
	return false
}

// subtractFrom saturating-subtracts amt from pool[id], returning the amount
// actually removed (<= amt).
func subtractFrom(pool map[RelicId]U128, id RelicId, amt U128) U128 {
	cur, ok := pool[id]
	if !ok || cur.IsZero() {
		return ZeroU128
	}
	taken := amt.Min(cur)
	remaining, _ := cur.Sub(taken)
	if remaining.IsZero() {
		delete(pool, id)
	} else {
		pool[id] = remaining
	}
	return taken
}
