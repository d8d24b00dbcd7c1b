package store

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/relicsprotocol/relics-ord/consensus"
)

// Binary encodings below are an engineering persistence format, not a
// consensus wire format: the wire format lives entirely in consensus/ and
// never touches disk directly.

func encodeOutpointKey(p consensus.TxOutPoint) []byte {
	out := make([]byte, 36)
	copy(out[0:32], p.Txid[:])
	binary.LittleEndian.PutUint32(out[32:36], p.Vout)
	return out
}

func decodeOutpointKey(b []byte) (consensus.TxOutPoint, error) {
	if len(b) != 36 {
		return consensus.TxOutPoint{}, fmt.Errorf("outpoint: expected 36 bytes, got %d", len(b))
	}
	var txid [32]byte
	copy(txid[:], b[0:32])
	return consensus.TxOutPoint{Txid: txid, Vout: binary.LittleEndian.Uint32(b[32:36])}, nil
}

func encodeRelicIDKey(id consensus.RelicId) []byte {
	out := make([]byte, 12)
	binary.LittleEndian.PutUint64(out[0:8], id.Block)
	binary.LittleEndian.PutUint32(out[8:12], id.TxIndex)
	return out
}

func decodeRelicIDKey(b []byte) (consensus.RelicId, error) {
	if len(b) != 12 {
		return consensus.RelicId{}, fmt.Errorf("relic id: expected 12 bytes, got %d", len(b))
	}
	return consensus.RelicId{
		Block:   binary.LittleEndian.Uint64(b[0:8]),
		TxIndex: binary.LittleEndian.Uint32(b[8:12]),
	}, nil
}

func encodeU128(v consensus.U128) []byte {
	b := v.BytesBE()
	return b[:]
}

func decodeU128(b []byte) (consensus.U128, error) {
	if len(b) != 16 {
		return consensus.U128{}, fmt.Errorf("u128: expected 16 bytes, got %d", len(b))
	}
	v, ok := consensus.U128FromBytesBE(b)
	if !ok {
		return consensus.U128{}, fmt.Errorf("u128: out of range")
	}
	return v, nil
}

func encodeName(n consensus.Name) []byte {
	out := append([]byte{}, compactSize(len(n.Letters)).encode()...)
	out = append(out, n.Letters...)
	var mask [4]byte
	binary.LittleEndian.PutUint32(mask[:], n.SpacerMask)
	return append(out, mask[:]...)
}

func decodeName(b []byte) (consensus.Name, int, error) {
	letterLen, n, err := decodeCompactSize(b)
	if err != nil {
		return consensus.Name{}, 0, fmt.Errorf("name: letters len: %w", err)
	}
	off := n
	if off+int(letterLen)+4 > len(b) {
		return consensus.Name{}, 0, fmt.Errorf("name: truncated")
	}
	letters := string(b[off : off+int(letterLen)])
	off += int(letterLen)
	mask := binary.LittleEndian.Uint32(b[off : off+4])
	off += 4
	return consensus.Name{Letters: letters, SpacerMask: mask}, off, nil
}

// encodeOutputBalance serializes a balance map sorted by RelicId so the
// encoding is deterministic (spec.md §9).
func encodeOutputBalance(bal consensus.OutputBalance) []byte {
	ids := make([]consensus.RelicId, 0, len(bal))
	for id := range bal {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if ids[i].Block != ids[j].Block {
			return ids[i].Block < ids[j].Block
		}
		return ids[i].TxIndex < ids[j].TxIndex
	})
	out := append([]byte{}, compactSize(len(ids)).encode()...)
	for _, id := range ids {
		out = append(out, encodeRelicIDKey(id)...)
		out = append(out, encodeU128(bal[id])...)
	}
	return out
}

func decodeOutputBalance(b []byte) (consensus.OutputBalance, error) {
	count, n, err := decodeCompactSize(b)
	if err != nil {
		return nil, fmt.Errorf("output balance: count: %w", err)
	}
	off := n
	bal := make(consensus.OutputBalance, count)
	for i := compactSize(0); i < count; i++ {
		if off+12+16 > len(b) {
			return nil, fmt.Errorf("output balance: truncated entry")
		}
		id, err := decodeRelicIDKey(b[off : off+12])
		if err != nil {
			return nil, err
		}
		off += 12
		amt, err := decodeU128(b[off : off+16])
		if err != nil {
			return nil, err
		}
		off += 16
		bal[id] = amt
	}
	return bal, nil
}

func putOptionalU64(out []byte, v *uint64) []byte {
	if v == nil {
		return append(out, 0)
	}
	out = append(out, 1)
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], *v)
	return append(out, tmp[:]...)
}

func getOptionalU64(b []byte, off int) (*uint64, int, error) {
	if off >= len(b) {
		return nil, 0, fmt.Errorf("optional u64: truncated presence byte")
	}
	present := b[off]
	off++
	if present == 0 {
		return nil, off, nil
	}
	if off+8 > len(b) {
		return nil, 0, fmt.Errorf("optional u64: truncated value")
	}
	v := binary.LittleEndian.Uint64(b[off : off+8])
	return &v, off + 8, nil
}

func encodePriceSchedule(p consensus.PriceSchedule) []byte {
	out := []byte{p.Mode}
	out = append(out, encodeU128(p.Fixed)...)
	out = append(out, encodeU128(p.A)...)
	out = append(out, encodeU128(p.B)...)
	out = append(out, encodeU128(p.C)...)
	return out
}

func decodePriceSchedule(b []byte, off int) (consensus.PriceSchedule, int, error) {
	if off+1+16*4 > len(b) {
		return consensus.PriceSchedule{}, 0, fmt.Errorf("price schedule: truncated")
	}
	mode := b[off]
	off++
	fixed, err := decodeU128(b[off : off+16])
	if err != nil {
		return consensus.PriceSchedule{}, 0, err
	}
	off += 16
	a, err := decodeU128(b[off : off+16])
	if err != nil {
		return consensus.PriceSchedule{}, 0, err
	}
	off += 16
	bb, err := decodeU128(b[off : off+16])
	if err != nil {
		return consensus.PriceSchedule{}, 0, err
	}
	off += 16
	c, err := decodeU128(b[off : off+16])
	if err != nil {
		return consensus.PriceSchedule{}, 0, err
	}
	off += 16
	return consensus.PriceSchedule{Mode: mode, Fixed: fixed, A: a, B: bb, C: c}, off, nil
}

func encodeSealingRecord(r *consensus.SealingRecord) []byte {
	out := encodeName(r.Name)
	out = append(out, r.OwnerInscription.Txid[:]...)
	var idx [4]byte
	binary.LittleEndian.PutUint32(idx[:], r.OwnerInscription.Index)
	out = append(out, idx[:]...)
	out = append(out, encodeOutpointKey(r.OwnerOutput)...)
	out = append(out, r.SealingTxid[:]...)
	var blk [8]byte
	binary.LittleEndian.PutUint64(blk[:], r.SealingBlock)
	out = append(out, blk[:]...)
	var txi [4]byte
	binary.LittleEndian.PutUint32(txi[:], r.SealingTxIndex)
	out = append(out, txi[:]...)
	out = append(out, encodeU128(r.MBTCBurned)...)
	flags := byte(0)
	if r.Enshrined {
		flags |= 1
	}
	if r.InscriptionLive {
		flags |= 2
	}
	return append(out, flags)
}

func decodeSealingRecord(b []byte) (*consensus.SealingRecord, error) {
	name, off, err := decodeName(b)
	if err != nil {
		return nil, err
	}
	if off+32+4+36+32+8+4+16+1 > len(b) {
		return nil, fmt.Errorf("sealing record: truncated")
	}
	var ownerInscTxid [32]byte
	copy(ownerInscTxid[:], b[off:off+32])
	off += 32
	ownerInscIdx := binary.LittleEndian.Uint32(b[off : off+4])
	off += 4
	ownerOutput, err := decodeOutpointKey(b[off : off+36])
	if err != nil {
		return nil, err
	}
	off += 36
	var sealingTxid [32]byte
	copy(sealingTxid[:], b[off:off+32])
	off += 32
	sealingBlock := binary.LittleEndian.Uint64(b[off : off+8])
	off += 8
	sealingTxIndex := binary.LittleEndian.Uint32(b[off : off+4])
	off += 4
	burned, err := decodeU128(b[off : off+16])
	if err != nil {
		return nil, err
	}
	off += 16
	flags := b[off]
	return &consensus.SealingRecord{
		Name:             name,
		OwnerInscription: consensus.InscriptionId{Txid: ownerInscTxid, Index: ownerInscIdx},
		OwnerOutput:      ownerOutput,
		SealingTxid:      sealingTxid,
		SealingBlock:     sealingBlock,
		SealingTxIndex:   sealingTxIndex,
		MBTCBurned:       burned,
		Enshrined:        flags&1 != 0,
		InscriptionLive:  flags&2 != 0,
	}, nil
}

func encodeRelicEntry(e *consensus.RelicEntry) []byte {
	out := encodeRelicIDKey(e.ID)
	out = append(out, encodeName(e.Name)...)
	if e.Symbol == nil {
		out = append(out, 0)
	} else {
		out = append(out, 1)
		var tmp [4]byte
		binary.LittleEndian.PutUint32(tmp[:], *e.Symbol)
		out = append(out, tmp[:]...)
	}
	out = append(out, e.Divisibility)
	out = append(out, boolByte(e.Turbo))

	out = append(out, encodeU128(e.Terms.AmountPerMint)...)
	var tmp8 [8]byte
	binary.LittleEndian.PutUint64(tmp8[:], e.Terms.Cap)
	out = append(out, tmp8[:]...)
	out = putOptionalU64(out, e.Terms.BlockCap)
	out = append(out, e.Terms.TxCap)
	out = putOptionalU64(out, e.Terms.MaxUnmints)
	out = append(out, encodePriceSchedule(e.Terms.Price)...)
	out = append(out, encodeU128(e.Terms.Seed)...)

	binary.LittleEndian.PutUint64(tmp8[:], e.MintedCount)
	out = append(out, tmp8[:]...)
	binary.LittleEndian.PutUint64(tmp8[:], e.UnmintedCount)
	out = append(out, tmp8[:]...)
	binary.LittleEndian.PutUint64(tmp8[:], e.MintsThisBlock)
	out = append(out, tmp8[:]...)
	out = append(out, encodeU128(e.Seed)...)

	if e.Pool == nil {
		out = append(out, 0)
	} else {
		out = append(out, 1)
		out = append(out, encodeU128(e.Pool.BaseReserve)...)
		out = append(out, encodeU128(e.Pool.QuoteReserve)...)
		var feeBps [2]byte
		binary.LittleEndian.PutUint16(feeBps[:], e.Pool.FeeBps)
		out = append(out, feeBps[:]...)
	}
	out = append(out, boolByte(e.Unmintable))
	binary.LittleEndian.PutUint64(tmp8[:], e.EnshriningBlock)
	out = append(out, tmp8[:]...)
	var tmp4 [4]byte
	binary.LittleEndian.PutUint32(tmp4[:], e.EnshriningTx)
	out = append(out, tmp4[:]...)
	return append(out, encodeU128(e.MBTCEscrow())...)
}

func decodeRelicEntry(b []byte) (*consensus.RelicEntry, error) {
	if len(b) < 12 {
		return nil, fmt.Errorf("relic entry: truncated id")
	}
	id, err := decodeRelicIDKey(b[0:12])
	if err != nil {
		return nil, err
	}
	off := 12
	name, n, err := decodeName(b[off:])
	if err != nil {
		return nil, err
	}
	off += n

	if off >= len(b) {
		return nil, fmt.Errorf("relic entry: truncated symbol presence")
	}
	var symbol *uint32
	if b[off] == 1 {
		off++
		if off+4 > len(b) {
			return nil, fmt.Errorf("relic entry: truncated symbol")
		}
		v := binary.LittleEndian.Uint32(b[off : off+4])
		symbol = &v
		off += 4
	} else {
		off++
	}

	if off+2 > len(b) {
		return nil, fmt.Errorf("relic entry: truncated divisibility/turbo")
	}
	divisibility := b[off]
	off++
	turbo := b[off] != 0
	off++

	amountPerMint, err := decodeU128(b[off : off+16])
	if err != nil {
		return nil, err
	}
	off += 16
	if off+8 > len(b) {
		return nil, fmt.Errorf("relic entry: truncated cap")
	}
	cap := binary.LittleEndian.Uint64(b[off : off+8])
	off += 8

	blockCap, off2, err := getOptionalU64(b, off)
	if err != nil {
		return nil, err
	}
	off = off2
	if off >= len(b) {
		return nil, fmt.Errorf("relic entry: truncated tx_cap")
	}
	txCap := b[off]
	off++
	maxUnmints, off3, err := getOptionalU64(b, off)
	if err != nil {
		return nil, err
	}
	off = off3

	price, off4, err := decodePriceSchedule(b, off)
	if err != nil {
		return nil, err
	}
	off = off4
	seed, err := decodeU128(b[off : off+16])
	if err != nil {
		return nil, err
	}
	off += 16

	if off+8*3+16 > len(b) {
		return nil, fmt.Errorf("relic entry: truncated counters")
	}
	mintedCount := binary.LittleEndian.Uint64(b[off : off+8])
	off += 8
	unmintedCount := binary.LittleEndian.Uint64(b[off : off+8])
	off += 8
	mintsThisBlock := binary.LittleEndian.Uint64(b[off : off+8])
	off += 8
	entrySeed, err := decodeU128(b[off : off+16])
	if err != nil {
		return nil, err
	}
	off += 16

	if off >= len(b) {
		return nil, fmt.Errorf("relic entry: truncated pool presence")
	}
	var pool *consensus.Pool
	if b[off] == 1 {
		off++
		base, err := decodeU128(b[off : off+16])
		if err != nil {
			return nil, err
		}
		off += 16
		quote, err := decodeU128(b[off : off+16])
		if err != nil {
			return nil, err
		}
		off += 16
		if off+2 > len(b) {
			return nil, fmt.Errorf("relic entry: truncated pool fee")
		}
		feeBps := binary.LittleEndian.Uint16(b[off : off+2])
		off += 2
		pool = &consensus.Pool{BaseReserve: base, QuoteReserve: quote, FeeBps: feeBps}
	} else {
		off++
	}

	if off+1+8+4+16 > len(b) {
		return nil, fmt.Errorf("relic entry: truncated tail")
	}
	unmintable := b[off] != 0
	off++
	enshriningBlock := binary.LittleEndian.Uint64(b[off : off+8])
	off += 8
	enshriningTx := binary.LittleEndian.Uint32(b[off : off+4])
	off += 4
	escrow, err := decodeU128(b[off : off+16])
	if err != nil {
		return nil, err
	}

	entry := &consensus.RelicEntry{
		ID:           id,
		Name:         name,
		Symbol:       symbol,
		Divisibility: divisibility,
		Turbo:        turbo,
		Terms: consensus.MintTerms{
			AmountPerMint: amountPerMint,
			Cap:           cap,
			BlockCap:      blockCap,
			TxCap:         txCap,
			MaxUnmints:    maxUnmints,
			Price:         price,
			Seed:          seed,
		},
		MintedCount:     mintedCount,
		UnmintedCount:   unmintedCount,
		MintsThisBlock:  mintsThisBlock,
		Seed:            entrySeed,
		Pool:            pool,
		Unmintable:      unmintable,
		EnshriningBlock: enshriningBlock,
		EnshriningTx:    enshriningTx,
	}
	entry.SetMBTCEscrow(escrow)
	return entry, nil
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// encodeEventKey keys the Events table by (block, tx_index, seq) so a
// transaction producing several events (e.g. Mint then Transfer) keeps them
// in emission order under one bbolt cursor range.
func encodeEventKey(block uint64, txIndex uint32, seq uint16) []byte {
	out := make([]byte, 14)
	binary.LittleEndian.PutUint64(out[0:8], block)
	binary.LittleEndian.PutUint32(out[8:12], txIndex)
	binary.LittleEndian.PutUint16(out[12:14], seq)
	return out
}

func blockPrefix(block uint64) []byte {
	out := make([]byte, 8)
	binary.LittleEndian.PutUint64(out, block)
	return out
}

func encodeEvent(ev consensus.Event) []byte {
	out := []byte(ev.Kind)
	out = append([]byte{byte(len(out))}, out...)
	out = append(out, ev.Txid[:]...)

	if ev.Name == nil {
		out = append(out, 0)
	} else {
		out = append(out, 1)
		out = append(out, encodeName(*ev.Name)...)
	}
	if ev.RelicID == nil {
		out = append(out, 0)
	} else {
		out = append(out, 1)
		out = append(out, encodeRelicIDKey(*ev.RelicID)...)
	}
	out = append(out, encodeU128(ev.Amount)...)
	out = append(out, encodeU128(ev.PriceMBTC)...)
	var outIdx [4]byte
	binary.LittleEndian.PutUint32(outIdx[:], ev.Output)
	out = append(out, outIdx[:]...)
	out = append(out, encodeU128(ev.FromPool.BaseReserve)...)
	out = append(out, encodeU128(ev.FromPool.QuoteReserve)...)
	var feeBps [2]byte
	binary.LittleEndian.PutUint16(feeBps[:], ev.FromPool.FeeBps)
	out = append(out, feeBps[:]...)
	out = append(out, encodeU128(ev.ToPool.BaseReserve)...)
	out = append(out, encodeU128(ev.ToPool.QuoteReserve)...)
	binary.LittleEndian.PutUint16(feeBps[:], ev.ToPool.FeeBps)
	out = append(out, feeBps[:]...)
	out = append(out, encodeOutputBalance(ev.BurnedFees)...)
	return out
}

func decodeEvent(block uint64, txIndex uint32, b []byte) (consensus.Event, error) {
	if len(b) < 1 {
		return consensus.Event{}, fmt.Errorf("event: empty")
	}
	kindLen := int(b[0])
	off := 1
	if off+kindLen+32 > len(b) {
		return consensus.Event{}, fmt.Errorf("event: truncated kind/txid")
	}
	kind := consensus.EventKind(b[off : off+kindLen])
	off += kindLen
	var txid [32]byte
	copy(txid[:], b[off:off+32])
	off += 32

	if off >= len(b) {
		return consensus.Event{}, fmt.Errorf("event: truncated name presence")
	}
	var name *consensus.Name
	if b[off] == 1 {
		off++
		n, adv, err := decodeName(b[off:])
		if err != nil {
			return consensus.Event{}, err
		}
		name = &n
		off += adv
	} else {
		off++
	}

	if off >= len(b) {
		return consensus.Event{}, fmt.Errorf("event: truncated relic id presence")
	}
	var relicID *consensus.RelicId
	if b[off] == 1 {
		off++
		if off+12 > len(b) {
			return consensus.Event{}, fmt.Errorf("event: truncated relic id")
		}
		id, err := decodeRelicIDKey(b[off : off+12])
		if err != nil {
			return consensus.Event{}, err
		}
		relicID = &id
		off += 12
	} else {
		off++
	}

	if off+16*2+4+16*2+2+16*2+2 > len(b) {
		return consensus.Event{}, fmt.Errorf("event: truncated fixed fields")
	}
	amount, err := decodeU128(b[off : off+16])
	if err != nil {
		return consensus.Event{}, err
	}
	off += 16
	price, err := decodeU128(b[off : off+16])
	if err != nil {
		return consensus.Event{}, err
	}
	off += 16
	output := binary.LittleEndian.Uint32(b[off : off+4])
	off += 4

	fromBase, err := decodeU128(b[off : off+16])
	if err != nil {
		return consensus.Event{}, err
	}
	off += 16
	fromQuote, err := decodeU128(b[off : off+16])
	if err != nil {
		return consensus.Event{}, err
	}
	off += 16
	fromFee := binary.LittleEndian.Uint16(b[off : off+2])
	off += 2

	toBase, err := decodeU128(b[off : off+16])
	if err != nil {
		return consensus.Event{}, err
	}
	off += 16
	toQuote, err := decodeU128(b[off : off+16])
	if err != nil {
		return consensus.Event{}, err
	}
	off += 16
	toFee := binary.LittleEndian.Uint16(b[off : off+2])
	off += 2

	burned, err := decodeOutputBalance(b[off:])
	if err != nil {
		return consensus.Event{}, err
	}

	return consensus.Event{
		Kind:       kind,
		Block:      block,
		TxIndex:    txIndex,
		Txid:       txid,
		Name:       name,
		RelicID:    relicID,
		Amount:     amount,
		PriceMBTC:  price,
		Output:     output,
		FromPool:   consensus.Pool{BaseReserve: fromBase, QuoteReserve: fromQuote, FeeBps: fromFee},
		ToPool:     consensus.Pool{BaseReserve: toBase, QuoteReserve: toQuote, FeeBps: toFee},
		BurnedFees: consensus.OutputBalance(burned),
	}, nil
}
