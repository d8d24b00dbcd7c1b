package store

import (
	"testing"

	"github.com/relicsprotocol/relics-ord/consensus"
)

func TestOutputBalanceRoundTrip(t *testing.T) {
	id1 := consensus.RelicId{Block: 5, TxIndex: 2}
	id2 := consensus.RelicId{Block: 5, TxIndex: 9}
	bal := consensus.OutputBalance{
		id1: consensus.U128FromUint64(100),
		id2: consensus.U128FromUint64(0xffffffffff),
	}
	got, err := decodeOutputBalance(encodeOutputBalance(bal))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 || got[id1].Cmp(bal[id1]) != 0 || got[id2].Cmp(bal[id2]) != 0 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestSealingRecordRoundTrip(t *testing.T) {
	rec := &consensus.SealingRecord{
		Name:             consensus.Name{Letters: "ABC", SpacerMask: 0b10},
		OwnerInscription: consensus.InscriptionId{Txid: [32]byte{1, 2, 3}, Index: 4},
		OwnerOutput:      consensus.TxOutPoint{Txid: [32]byte{5, 6}, Vout: 1},
		SealingTxid:      [32]byte{7, 8},
		SealingBlock:     100,
		SealingTxIndex:   3,
		MBTCBurned:       consensus.U128FromUint64(2100),
		Enshrined:        true,
		InscriptionLive:  false,
	}
	got, err := decodeSealingRecord(encodeSealingRecord(rec))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Name != rec.Name || got.SealingBlock != rec.SealingBlock || got.Enshrined != rec.Enshrined ||
		got.InscriptionLive != rec.InscriptionLive || got.MBTCBurned.Cmp(rec.MBTCBurned) != 0 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestRelicEntryRoundTrip(t *testing.T) {
	blockCap := uint64(10)
	maxUnmints := uint64(3)
	symbol := uint32('R')
	entry := &consensus.RelicEntry{
		ID:           consensus.RelicId{Block: 200, TxIndex: 1},
		Name:         consensus.Name{Letters: "RELIC", SpacerMask: 0},
		Symbol:       &symbol,
		Divisibility: consensus.Divisibility,
		Turbo:        true,
		Terms: consensus.MintTerms{
			AmountPerMint: consensus.U128FromUint64(100),
			Cap:           1000,
			BlockCap:      &blockCap,
			TxCap:         5,
			MaxUnmints:    &maxUnmints,
			Price:         consensus.PriceSchedule{Mode: consensus.PriceModeFixed, Fixed: consensus.U128FromUint64(50)},
			Seed:          consensus.U128FromUint64(9999),
		},
		MintedCount:     12,
		UnmintedCount:   1,
		MintsThisBlock:  2,
		Seed:            consensus.U128FromUint64(9999),
		Pool:            &consensus.Pool{BaseReserve: consensus.U128FromUint64(500), QuoteReserve: consensus.U128FromUint64(1000), FeeBps: consensus.DefaultFeeBps},
		Unmintable:      false,
		EnshriningBlock: 200,
		EnshriningTx:    1,
	}
	got, err := decodeRelicEntry(encodeRelicEntry(entry))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Name != entry.Name || got.MintedCount != entry.MintedCount || *got.Symbol != *entry.Symbol ||
		*got.Terms.BlockCap != *entry.Terms.BlockCap || *got.Terms.MaxUnmints != *entry.Terms.MaxUnmints ||
		got.Pool.BaseReserve.Cmp(entry.Pool.BaseReserve) != 0 || got.Terms.Price.Fixed.Cmp(entry.Terms.Price.Fixed) != 0 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestEventRoundTrip(t *testing.T) {
	id := consensus.RelicId{Block: 10, TxIndex: 1}
	name := consensus.Name{Letters: "AB"}
	ev := consensus.MintedEvent(10, 1, [32]byte{9}, id, consensus.MintEffect{AmountMinted: consensus.U128FromUint64(100), PriceMBTC: consensus.U128FromUint64(5)})
	ev.Name = &name

	got, err := decodeEvent(ev.Block, ev.TxIndex, encodeEvent(ev))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Kind != ev.Kind || *got.RelicID != *ev.RelicID || got.Amount.Cmp(ev.Amount) != 0 || got.PriceMBTC.Cmp(ev.PriceMBTC) != 0 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(t.TempDir(), "testnet")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestCommitAndReadBack(t *testing.T) {
	db := openTestDB(t)
	state := consensus.NewChainState()

	txid := [32]byte{1}
	op := consensus.TxOutPoint{Txid: txid, Vout: 0}
	id := consensus.RelicId{Block: 1, TxIndex: 0}
	state.SetOutput(op, consensus.OutputBalance{id: consensus.U128FromUint64(42)})
	state.PutSealing(&consensus.SealingRecord{Name: consensus.Name{Letters: "AB"}, SealingBlock: 1})
	state.PutRelic(&consensus.RelicEntry{ID: id, Name: consensus.Name{Letters: "AB"}})
	state.Tip = 1

	block := consensus.Block{Height: 1, Hash: [32]byte{2}, Txs: []consensus.ExternalTx{{Txid: txid, Outputs: []consensus.ExternalOutput{{ValueSats: 1000}}}}}
	events := []consensus.Event{consensus.SealedEvent(1, 0, txid, consensus.Name{Letters: "AB"}, consensus.U128FromUint64(10))}

	if err := CommitBlock(db, state, block, events); err != nil {
		t.Fatalf("commit: %v", err)
	}

	gotBal, err := db.GetOutputBalance(op)
	if err != nil {
		t.Fatalf("get output: %v", err)
	}
	if gotBal[id].Cmp(consensus.U128FromUint64(42)) != 0 {
		t.Fatalf("output balance = %+v", gotBal)
	}

	gotRelic, err := db.GetRelic(id)
	if err != nil {
		t.Fatalf("get relic: %v", err)
	}
	if gotRelic == nil || gotRelic.Name.Letters != "AB" {
		t.Fatalf("relic = %+v", gotRelic)
	}

	gotEvents, err := db.EventsForBlock(1)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(gotEvents) != 1 || gotEvents[0].Kind != consensus.EventSealed {
		t.Fatalf("events = %+v", gotEvents)
	}

	hash, ok, err := db.BlockHash(1)
	if err != nil || !ok || hash != block.Hash {
		t.Fatalf("block hash = %v %v %v", hash, ok, err)
	}
}

func TestDisconnectTipRestoresPriorState(t *testing.T) {
	db := openTestDB(t)
	state := consensus.NewChainState()

	fundingTxid := [32]byte{1}
	fundingOutpoint := consensus.TxOutPoint{Txid: fundingTxid, Vout: 0}
	id := consensus.RelicId{Block: 1, TxIndex: 0}
	state.SetOutput(fundingOutpoint, consensus.OutputBalance{id: consensus.U128FromUint64(100)})
	state.Tip = 1
	if err := CommitBlock(db, state, consensus.Block{Height: 1, Hash: [32]byte{1}}, nil); err != nil {
		t.Fatalf("commit block 1: %v", err)
	}

	spendTxid := [32]byte{2}
	block2 := consensus.Block{
		Height: 2,
		Hash:   [32]byte{2},
		Txs: []consensus.ExternalTx{{
			Txid:    spendTxid,
			Inputs:  []consensus.TxOutPoint{fundingOutpoint},
			Outputs: []consensus.ExternalOutput{{ValueSats: 1000}},
		}},
	}
	undo := BuildBlockUndo(state, block2)
	events := consensus.ApplyBlock(state, block2)
	if err := db.PutUndo(2, undo); err != nil {
		t.Fatalf("put undo: %v", err)
	}
	if err := CommitBlock(db, state, block2, events); err != nil {
		t.Fatalf("commit block 2: %v", err)
	}

	newOutpoint := consensus.TxOutPoint{Txid: spendTxid, Vout: 0}
	if bal := state.OutputBalances[newOutpoint]; bal[id].Cmp(consensus.U128FromUint64(100)) != 0 {
		t.Fatalf("expected spend to carry balance forward, got %+v", bal)
	}

	newTip, err := db.DisconnectTip(state)
	if err != nil {
		t.Fatalf("disconnect: %v", err)
	}
	if newTip != 1 {
		t.Fatalf("tip = %d, want 1", newTip)
	}
	if bal := state.OutputBalances[fundingOutpoint]; bal[id].Cmp(consensus.U128FromUint64(100)) != 0 {
		t.Fatalf("funding outpoint not restored: %+v", bal)
	}
	if bal, ok := state.OutputBalances[newOutpoint]; ok && len(bal) != 0 {
		t.Fatalf("spend output should be gone after disconnect: %+v", bal)
	}

	gotBal, err := db.GetOutputBalance(fundingOutpoint)
	if err != nil {
		t.Fatalf("get output: %v", err)
	}
	if gotBal[id].Cmp(consensus.U128FromUint64(100)) != 0 {
		t.Fatalf("persisted funding balance = %+v", gotBal)
	}
}
