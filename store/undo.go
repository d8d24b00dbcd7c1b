package store

import (
	"encoding/binary"
	"fmt"

	"github.com/relicsprotocol/relics-ord/consensus"

	bolt "go.etcd.io/bbolt"
)

var bucketUndo = []byte("undo_by_height")

// BlockUndo is everything needed to rewind one applied block: the pre-image
// of every output it touched, and a full pre-block snapshot of the registry
// (adapted from the teacher's UndoRecord/UndoSpent, generalized because a
// Keepsake can mutate mint counters and AMM reserves in place, not just
// spend/create outputs).
type BlockUndo struct {
	PrevOutputs map[consensus.TxOutPoint]consensus.OutputBalance
	Sealings    map[string]*consensus.SealingRecord
	Relics      map[consensus.RelicId]*consensus.RelicEntry
	NameIndex   map[string]consensus.RelicId
}

// BuildBlockUndo must be called against state BEFORE block is applied: it
// captures the pre-images of every outpoint the block's transactions will
// touch (spent inputs and rewritten outputs) plus a registry snapshot.
func BuildBlockUndo(state *consensus.ChainState, block consensus.Block) BlockUndo {
	prevOutputs := make(map[consensus.TxOutPoint]consensus.OutputBalance)
	for _, tx := range block.Txs {
		for _, in := range tx.Inputs {
			if _, seen := prevOutputs[in]; !seen {
				prevOutputs[in] = state.OutputBalances[in]
			}
		}
		for i := range tx.Outputs {
			op := consensus.TxOutPoint{Txid: tx.Txid, Vout: uint32(i)}
			if _, seen := prevOutputs[op]; !seen {
				prevOutputs[op] = state.OutputBalances[op]
			}
		}
	}
	sealings, relics, nameIndex := state.SnapshotRegistry()
	return BlockUndo{PrevOutputs: prevOutputs, Sealings: sealings, Relics: relics, NameIndex: nameIndex}
}

// Apply rewinds state to the pre-block shape this record captured.
func (u BlockUndo) Apply(state *consensus.ChainState) {
	for op, bal := range u.PrevOutputs {
		state.SetOutput(op, bal)
	}
	state.RestoreRegistry(u.Sealings, u.Relics, u.NameIndex)
}

func (d *DB) PutUndo(height uint64, u BlockUndo) error {
	val := encodeBlockUndo(u)
	return d.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketUndo).Put(heightKey(height), val)
	})
}

func (d *DB) GetUndo(height uint64) (*BlockUndo, bool, error) {
	var out *BlockUndo
	err := d.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketUndo).Get(heightKey(height))
		if v == nil {
			return nil
		}
		u, err := decodeBlockUndo(v)
		if err != nil {
			return err
		}
		out = u
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if out == nil {
		return nil, false, nil
	}
	return out, true, nil
}

func (d *DB) DeleteUndo(height uint64) error {
	return d.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketUndo).Delete(heightKey(height))
	})
}

func encodeBlockUndo(u BlockUndo) []byte {
	var out []byte
	var tmp4 [4]byte

	binary.LittleEndian.PutUint32(tmp4[:], uint32(len(u.PrevOutputs)))
	out = append(out, tmp4[:]...)
	for op, bal := range u.PrevOutputs {
		out = append(out, encodeOutpointKey(op)...)
		balBytes := encodeOutputBalance(bal)
		binary.LittleEndian.PutUint32(tmp4[:], uint32(len(balBytes)))
		out = append(out, tmp4[:]...)
		out = append(out, balBytes...)
	}

	binary.LittleEndian.PutUint32(tmp4[:], uint32(len(u.Sealings)))
	out = append(out, tmp4[:]...)
	for letters, rec := range u.Sealings {
		out = append(out, compactSize(len(letters)).encode()...)
		out = append(out, letters...)
		recBytes := encodeSealingRecord(rec)
		binary.LittleEndian.PutUint32(tmp4[:], uint32(len(recBytes)))
		out = append(out, tmp4[:]...)
		out = append(out, recBytes...)
	}

	binary.LittleEndian.PutUint32(tmp4[:], uint32(len(u.Relics)))
	out = append(out, tmp4[:]...)
	for id, entry := range u.Relics {
		out = append(out, encodeRelicIDKey(id)...)
		entryBytes := encodeRelicEntry(entry)
		binary.LittleEndian.PutUint32(tmp4[:], uint32(len(entryBytes)))
		out = append(out, tmp4[:]...)
		out = append(out, entryBytes...)
	}

	binary.LittleEndian.PutUint32(tmp4[:], uint32(len(u.NameIndex)))
	out = append(out, tmp4[:]...)
	for letters, id := range u.NameIndex {
		out = append(out, compactSize(len(letters)).encode()...)
		out = append(out, letters...)
		out = append(out, encodeRelicIDKey(id)...)
	}

	return out
}

func decodeBlockUndo(b []byte) (*BlockUndo, error) {
	off := 0
	readU32 := func() (uint32, error) {
		if off+4 > len(b) {
			return 0, fmt.Errorf("block undo: truncated u32")
		}
		v := binary.LittleEndian.Uint32(b[off : off+4])
		off += 4
		return v, nil
	}

	n, err := readU32()
	if err != nil {
		return nil, err
	}
	prevOutputs := make(map[consensus.TxOutPoint]consensus.OutputBalance, n)
	for i := uint32(0); i < n; i++ {
		if off+36 > len(b) {
			return nil, fmt.Errorf("block undo: truncated outpoint")
		}
		op, err := decodeOutpointKey(b[off : off+36])
		if err != nil {
			return nil, err
		}
		off += 36
		balLen, err := readU32()
		if err != nil {
			return nil, err
		}
		if off+int(balLen) > len(b) {
			return nil, fmt.Errorf("block undo: truncated balance")
		}
		bal, err := decodeOutputBalance(b[off : off+int(balLen)])
		if err != nil {
			return nil, err
		}
		off += int(balLen)
		prevOutputs[op] = bal
	}

	n, err = readU32()
	if err != nil {
		return nil, err
	}
	sealings := make(map[string]*consensus.SealingRecord, n)
	for i := uint32(0); i < n; i++ {
		letterLen, adv, err := decodeCompactSize(b[off:])
		if err != nil {
			return nil, err
		}
		off += adv
		if off+int(letterLen) > len(b) {
			return nil, fmt.Errorf("block undo: truncated sealing key")
		}
		letters := string(b[off : off+int(letterLen)])
		off += int(letterLen)
		recLen, err := readU32()
		if err != nil {
			return nil, err
		}
		if off+int(recLen) > len(b) {
			return nil, fmt.Errorf("block undo: truncated sealing")
		}
		rec, err := decodeSealingRecord(b[off : off+int(recLen)])
		if err != nil {
			return nil, err
		}
		off += int(recLen)
		sealings[letters] = rec
	}

	n, err = readU32()
	if err != nil {
		return nil, err
	}
	relics := make(map[consensus.RelicId]*consensus.RelicEntry, n)
	for i := uint32(0); i < n; i++ {
		if off+12 > len(b) {
			return nil, fmt.Errorf("block undo: truncated relic id")
		}
		id, err := decodeRelicIDKey(b[off : off+12])
		if err != nil {
			return nil, err
		}
		off += 12
		entryLen, err := readU32()
		if err != nil {
			return nil, err
		}
		if off+int(entryLen) > len(b) {
			return nil, fmt.Errorf("block undo: truncated relic entry")
		}
		entry, err := decodeRelicEntry(b[off : off+int(entryLen)])
		if err != nil {
			return nil, err
		}
		off += int(entryLen)
		relics[id] = entry
	}

	n, err = readU32()
	if err != nil {
		return nil, err
	}
	nameIndex := make(map[string]consensus.RelicId, n)
	for i := uint32(0); i < n; i++ {
		letterLen, adv, err := decodeCompactSize(b[off:])
		if err != nil {
			return nil, err
		}
		off += adv
		if off+int(letterLen)+12 > len(b) {
			return nil, fmt.Errorf("block undo: truncated name index entry")
		}
		letters := string(b[off : off+int(letterLen)])
		off += int(letterLen)
		id, err := decodeRelicIDKey(b[off : off+12])
		if err != nil {
			return nil, err
		}
		off += 12
		nameIndex[letters] = id
	}

	return &BlockUndo{PrevOutputs: prevOutputs, Sealings: sealings, Relics: relics, NameIndex: nameIndex}, nil
}
