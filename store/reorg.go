package store

import (
	"fmt"

	"github.com/relicsprotocol/relics-ord/consensus"

	bolt "go.etcd.io/bbolt"
)

// DisconnectTip rewinds state by exactly one block using the BlockUndo
// recorded when that block was committed, then drops the block's undo/hash/
// event rows and the manifest tip. Block supply and reorg detection (which
// height to disconnect back to) are an external collaborator's job, the same
// way Block delivery itself is (spec.md §6) — this only performs the
// mechanical rewind once told to.
func (d *DB) DisconnectTip(state *consensus.ChainState) (uint64, error) {
	height := state.Tip
	undo, ok, err := d.GetUndo(height)
	if err != nil {
		return 0, fmt.Errorf("disconnect tip %d: get undo: %w", height, err)
	}
	if !ok {
		return 0, fmt.Errorf("disconnect tip %d: no undo recorded", height)
	}

	undo.Apply(state)
	state.Tip = height - 1

	if err := d.db.Update(func(tx *bolt.Tx) error {
		outputs := tx.Bucket(bucketOutputBalances)
		for op, bal := range undo.PrevOutputs {
			if len(bal) == 0 {
				if err := outputs.Delete(encodeOutpointKey(op)); err != nil {
					return err
				}
				continue
			}
			if err := outputs.Put(encodeOutpointKey(op), encodeOutputBalance(bal)); err != nil {
				return err
			}
		}

		sealings := tx.Bucket(bucketSealings)
		if err := clearBucket(sealings); err != nil {
			return err
		}
		for letters, rec := range state.Sealings {
			if err := sealings.Put([]byte(letters), encodeSealingRecord(rec)); err != nil {
				return err
			}
		}

		relics := tx.Bucket(bucketRelics)
		if err := clearBucket(relics); err != nil {
			return err
		}
		for id, entry := range state.Relics {
			if err := relics.Put(encodeRelicIDKey(id), encodeRelicEntry(entry)); err != nil {
				return err
			}
		}

		nameIndex := tx.Bucket(bucketNameIndex)
		if err := clearBucket(nameIndex); err != nil {
			return err
		}
		for letters, id := range state.NameIndex {
			if err := nameIndex.Put([]byte(letters), encodeRelicIDKey(id)); err != nil {
				return err
			}
		}

		if err := tx.Bucket(bucketUndo).Delete(heightKey(height)); err != nil {
			return err
		}
		if err := tx.Bucket(bucketBlockHashes).Delete(heightKey(height)); err != nil {
			return err
		}
		c := tx.Bucket(bucketEvents).Cursor()
		prefix := blockPrefix(height)
		var stale [][]byte
		for k, _ := c.Seek(prefix); k != nil && hasPrefix(k, prefix); k, _ = c.Next() {
			stale = append(stale, append([]byte(nil), k...))
		}
		for _, k := range stale {
			if err := tx.Bucket(bucketEvents).Delete(k); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return 0, fmt.Errorf("disconnect tip %d: %w", height, err)
	}

	m := d.Manifest()
	if m != nil {
		newManifest := *m
		newManifest.TipHeight = state.Tip
		if hash, found, err := d.BlockHash(state.Tip); err == nil && found {
			newManifest.TipHash = hashHex(hash)
		}
		if err := d.SetManifest(&newManifest); err != nil {
			return 0, fmt.Errorf("disconnect tip %d: manifest: %w", height, err)
		}
	}
	return state.Tip, nil
}

// RewindTo repeatedly disconnects the tip until state.Tip == targetHeight,
// the mechanism a reorg uses before the new best chain's blocks are replayed
// through consensus.ApplyBlock + CommitBlock.
func (d *DB) RewindTo(state *consensus.ChainState, targetHeight uint64) error {
	for state.Tip > targetHeight {
		if _, err := d.DisconnectTip(state); err != nil {
			return err
		}
	}
	return nil
}
