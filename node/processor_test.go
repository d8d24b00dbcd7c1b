package node

import (
	"context"
	"testing"

	"github.com/relicsprotocol/relics-ord/consensus"
	"github.com/relicsprotocol/relics-ord/store"

	"github.com/prometheus/client_golang/prometheus"
)

func newTestProcessor(t *testing.T) (*Processor, *consensus.ChainState, *store.DB) {
	t.Helper()
	db, err := store.Open(t.TempDir(), "testnet")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	state := consensus.NewChainState()
	metric := NewMetrics(prometheus.NewRegistry())
	return NewProcessor(state, db, nil, metric), state, db
}

func TestProcessor_ApplyBlockRejectsNonContiguousHeight(t *testing.T) {
	p, _, _ := newTestProcessor(t)
	if err := p.ApplyBlock(consensus.Block{Height: 5}); err == nil {
		t.Fatalf("expected error for non-contiguous height")
	}
}

func TestProcessor_ApplyAndRewind(t *testing.T) {
	p, state, db := newTestProcessor(t)

	fundingTxid := [32]byte{1}
	fundingOutpoint := consensus.TxOutPoint{Txid: fundingTxid, Vout: 0}
	id := consensus.RelicId{Block: 1, TxIndex: 0}
	state.SetOutput(fundingOutpoint, consensus.OutputBalance{id: consensus.U128FromUint64(100)})

	block1 := consensus.Block{Height: 1, Hash: [32]byte{1}}
	if err := p.ApplyBlock(block1); err != nil {
		t.Fatalf("apply block 1: %v", err)
	}
	if state.Tip != 1 {
		t.Fatalf("tip = %d, want 1", state.Tip)
	}

	block2 := consensus.Block{
		Height: 2,
		Hash:   [32]byte{2},
		Txs: []consensus.ExternalTx{{
			Txid:    [32]byte{2},
			Inputs:  []consensus.TxOutPoint{fundingOutpoint},
			Outputs: []consensus.ExternalOutput{{ValueSats: 1000}},
		}},
	}
	if err := p.ApplyBlock(block2); err != nil {
		t.Fatalf("apply block 2: %v", err)
	}
	if state.Tip != 2 {
		t.Fatalf("tip = %d, want 2", state.Tip)
	}

	if err := p.Rewind(1); err != nil {
		t.Fatalf("rewind: %v", err)
	}
	if state.Tip != 1 {
		t.Fatalf("tip after rewind = %d, want 1", state.Tip)
	}
	if bal := state.OutputBalances[fundingOutpoint]; bal[id].Cmp(consensus.U128FromUint64(100)) != 0 {
		t.Fatalf("funding output not restored: %+v", bal)
	}

	gotBal, err := db.GetOutputBalance(fundingOutpoint)
	if err != nil {
		t.Fatalf("get output: %v", err)
	}
	if gotBal[id].Cmp(consensus.U128FromUint64(100)) != 0 {
		t.Fatalf("persisted balance after rewind = %+v", gotBal)
	}
}

func TestProcessor_RunStopsOnContextCancel(t *testing.T) {
	p, _, _ := newTestProcessor(t)
	ctx, cancel := context.WithCancel(context.Background())
	in := make(chan consensus.Block)
	cancel()
	if err := p.Run(ctx, in); err == nil {
		t.Fatalf("expected context cancellation error")
	}
}
