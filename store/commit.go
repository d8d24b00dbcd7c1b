package store

import (
	"fmt"

	"github.com/relicsprotocol/relics-ord/consensus"

	bolt "go.etcd.io/bbolt"
)

// CommitBlock durably persists the result of one consensus.ApplyBlock call:
// the touched outputs of every transaction in the block, the registry
// (Sealings/Relics/NameIndex) in its post-block shape, the emitted events,
// and the block's hash row, all inside one bbolt transaction so a crash never
// observes a half-applied block. The manifest tip is not written here; the
// caller advances it after this returns.
//
// Sealings/Relics/NameIndex are re-persisted in full each block rather than
// diffed against a dirty set: the registry is orders of magnitude smaller
// than the UTXO-style OutputBalances table, so the simpler whole-table write
// costs little and needs no extra bookkeeping threaded through consensus.
func CommitBlock(db *DB, state *consensus.ChainState, block consensus.Block, events []consensus.Event) error {
	return db.db.Update(func(tx *bolt.Tx) error {
		outputs := tx.Bucket(bucketOutputBalances)
		for _, t := range block.Txs {
			for _, in := range t.Inputs {
				if err := outputs.Delete(encodeOutpointKey(in)); err != nil {
					return fmt.Errorf("delete output: %w", err)
				}
			}
			for i := range t.Outputs {
				op := consensus.TxOutPoint{Txid: t.Txid, Vout: uint32(i)}
				bal, ok := state.OutputBalances[op]
				if !ok || len(bal) == 0 {
					if err := outputs.Delete(encodeOutpointKey(op)); err != nil {
						return fmt.Errorf("delete output: %w", err)
					}
					continue
				}
				if err := outputs.Put(encodeOutpointKey(op), encodeOutputBalance(bal)); err != nil {
					return fmt.Errorf("put output: %w", err)
				}
			}
		}

		sealings := tx.Bucket(bucketSealings)
		if err := clearBucket(sealings); err != nil {
			return fmt.Errorf("clear sealings: %w", err)
		}
		for letters, rec := range state.Sealings {
			if err := sealings.Put([]byte(letters), encodeSealingRecord(rec)); err != nil {
				return fmt.Errorf("put sealing: %w", err)
			}
		}

		relics := tx.Bucket(bucketRelics)
		if err := clearBucket(relics); err != nil {
			return fmt.Errorf("clear relics: %w", err)
		}
		for id, entry := range state.Relics {
			if err := relics.Put(encodeRelicIDKey(id), encodeRelicEntry(entry)); err != nil {
				return fmt.Errorf("put relic: %w", err)
			}
		}

		nameIndex := tx.Bucket(bucketNameIndex)
		if err := clearBucket(nameIndex); err != nil {
			return fmt.Errorf("clear name index: %w", err)
		}
		for letters, id := range state.NameIndex {
			if err := nameIndex.Put([]byte(letters), encodeRelicIDKey(id)); err != nil {
				return fmt.Errorf("put name index: %w", err)
			}
		}

		eventsBucket := tx.Bucket(bucketEvents)
		seqByTx := make(map[uint32]uint16)
		for _, ev := range events {
			seq := seqByTx[ev.TxIndex]
			seqByTx[ev.TxIndex] = seq + 1
			key := encodeEventKey(ev.Block, ev.TxIndex, seq)
			if err := eventsBucket.Put(key, encodeEvent(ev)); err != nil {
				return fmt.Errorf("put event: %w", err)
			}
		}

		if err := tx.Bucket(bucketBlockHashes).Put(heightKey(block.Height), block.Hash[:]); err != nil {
			return fmt.Errorf("put block hash: %w", err)
		}

		return nil
	})
}

// clearBucket empties bucket before a full re-persist. bbolt's ForEach
// explicitly forbids mutating a bucket during iteration, so this walks a
// Cursor instead, which is safe to Delete through as it advances.
func clearBucket(bucket *bolt.Bucket) error {
	c := bucket.Cursor()
	for k, _ := c.First(); k != nil; k, _ = c.Next() {
		if err := c.Delete(); err != nil {
			return err
		}
	}
	return nil
}
