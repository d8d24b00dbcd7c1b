package consensus

import "testing"

func appendTag(dst []byte, tag Tag, v U128) []byte {
	dst = WriteU128Varint(dst, U128FromUint64(uint64(tag)))
	return WriteU128Varint(dst, v)
}

func keepsakeOutputScript(payload []byte) []byte {
	script := []byte{opReturn, opMarker}
	if len(payload) > maxDirectPush {
		panic("test payload too large for a direct push")
	}
	script = append(script, byte(len(payload)))
	return append(script, payload...)
}

func plainOutputScript() []byte {
	return []byte{0x76, 0xa9, 0x14}
}

func TestApplyTransaction_EnshrineThenMintThenTransfer(t *testing.T) {
	state := NewChainState()
	owner := TxOutPoint{Vout: 0}
	state.PutSealing(&SealingRecord{
		Name:            Name{Letters: "AB"},
		OwnerOutput:     owner,
		InscriptionLive: true,
	})

	const enshrineBlock = 200
	const enshrineTxIndex = 3

	var payload []byte
	payload = appendTag(payload, TagEnshrine, EncodeNameInteger("AB"))
	payload = appendTag(payload, TagAmount, U128FromUint64(100))
	payload = appendTag(payload, TagCap, U128FromUint64(2))
	payload = appendTag(payload, TagSeed, ZeroU128)
	payload = appendTag(payload, TagPriceMode, U128FromUint64(uint64(PriceModeFixed)))
	payload = appendTag(payload, TagPriceA, ZeroU128)

	enshrineTx := ExternalTx{
		Txid:   [32]byte{1},
		Inputs: []TxOutPoint{owner},
		Outputs: []ExternalOutput{
			{ScriptBytes: keepsakeOutputScript(payload)},
			{ScriptBytes: plainOutputScript()},
		},
	}

	events := ApplyTransaction(state, enshrineBlock, enshrineTxIndex, enshrineTx)
	if len(events) != 1 || events[0].Kind != EventEnshrined {
		t.Fatalf("expected a single Enshrined event, got %+v", events)
	}

	relicID := RelicId{Block: enshrineBlock, TxIndex: enshrineTxIndex}
	entry := state.Relic(relicID)
	if entry == nil {
		t.Fatalf("expected relic entry to be registered")
	}
	if entry.Terms.Cap != 2 || entry.Terms.AmountPerMint.Cmp(U128FromUint64(100)) != 0 {
		t.Fatalf("unexpected terms: %+v", entry.Terms)
	}

	var mintPayload []byte
	mintPayload = WriteU128Varint(mintPayload, U128FromUint64(uint64(TagMint)))
	mintPayload = WriteU128Varint(mintPayload, U128FromUint64(enshrineBlock)) // block_delta from 0
	mintPayload = WriteU128Varint(mintPayload, U128FromUint64(enshrineTxIndex))

	mintTx := ExternalTx{
		Txid: [32]byte{2},
		Outputs: []ExternalOutput{
			{ScriptBytes: keepsakeOutputScript(mintPayload)},
			{ScriptBytes: plainOutputScript()},
		},
	}

	events = ApplyTransaction(state, enshrineBlock+1, 0, mintTx)
	if len(events) != 2 || events[0].Kind != EventMinted || events[1].Kind != EventTransferred {
		t.Fatalf("expected a Minted event followed by a Transferred event, got %+v", events)
	}
	if entry.MintedCount != 1 {
		t.Fatalf("minted_count = %d, want 1", entry.MintedCount)
	}

	mintOutput := TxOutPoint{Txid: mintTx.Txid, Vout: 1}
	bal := state.OutputBalances[mintOutput]
	if bal[relicID].Cmp(U128FromUint64(100)) != 0 {
		t.Fatalf("minted balance at default output = %s, want 100", bal[relicID])
	}

	var transferPayload []byte
	transferPayload = WriteU128Varint(transferPayload, U128FromUint64(uint64(TagBody)))
	transferPayload = WriteU128Varint(transferPayload, U128FromUint64(enshrineBlock)) // id block_delta
	transferPayload = WriteU128Varint(transferPayload, U128FromUint64(enshrineTxIndex))
	transferPayload = WriteU128Varint(transferPayload, U128FromUint64(40)) // amount
	transferPayload = WriteU128Varint(transferPayload, U128FromUint64(0))  // output index

	transferTx := ExternalTx{
		Txid:   [32]byte{3},
		Inputs: []TxOutPoint{mintOutput},
		Outputs: []ExternalOutput{
			{ScriptBytes: plainOutputScript()},
			{ScriptBytes: keepsakeOutputScript(transferPayload)},
		},
	}

	events = ApplyTransaction(state, enshrineBlock+2, 0, transferTx)
	if len(events) != 1 || events[0].Kind != EventTransferred {
		t.Fatalf("expected a single Transferred event for a clean transfer, got %+v", events)
	}
	if events[0].Output != 0 || events[0].Amount.Cmp(U128FromUint64(100)) != 0 {
		t.Fatalf("unexpected transferred event: %+v", events[0])
	}

	// Output 0 receives the explicit 40-unit transfer plus the untransferred
	// 60 units, which default there (no pointer, output 0 is the first
	// non-OP_RETURN output).
	out0 := state.OutputBalances[TxOutPoint{Txid: transferTx.Txid, Vout: 0}]
	if out0[relicID].Cmp(U128FromUint64(100)) != 0 {
		t.Fatalf("output 0 balance = %s, want 100 (40 transferred + 60 default)", out0[relicID])
	}
}

func TestApplyTransaction_CenotaphBurnsInputPool(t *testing.T) {
	state := NewChainState()
	relicID := RelicId{Block: 5, TxIndex: 0}
	input := TxOutPoint{Txid: [32]byte{9}, Vout: 0}
	state.SetOutput(input, OutputBalance{relicID: U128FromUint64(500)})

	// Two marker outputs is a scan-level flaw (FlawMultipleMarkers).
	tx := ExternalTx{
		Txid:   [32]byte{10},
		Inputs: []TxOutPoint{input},
		Outputs: []ExternalOutput{
			{ScriptBytes: keepsakeOutputScript(nil)},
			{ScriptBytes: keepsakeOutputScript(nil)},
		},
	}

	events := ApplyTransaction(state, 6, 0, tx)
	if len(events) != 1 || events[0].Kind != EventCenotaph {
		t.Fatalf("expected a single Cenotaph event, got %+v", events)
	}
	if events[0].BurnedFees[relicID].Cmp(U128FromUint64(500)) != 0 {
		t.Fatalf("burned amount = %s, want 500", events[0].BurnedFees[relicID])
	}
	if len(state.OutputBalances) != 0 {
		t.Fatalf("expected no output balances to survive a cenotaph, got %+v", state.OutputBalances)
	}
}
