package consensus

import "fmt"

// RelicId is the ordered pair (block, tx_index) identifying a relic
// (spec.md §3). MBTCRelicId = (1,0) is the distinguished base-unit id.
type RelicId struct {
	Block   uint64
	TxIndex uint32
}

// MBTCRelicId is the reserved identifier for the base unit, treated
// identically to other relics in allocation with the exceptions named in
// spec.md §6 (cannot be enshrined or sealed, implicit infinite supply
// bounded by pool escrow).
var MBTCRelicId = RelicId{Block: 1, TxIndex: 0}

func (id RelicId) String() string { return fmt.Sprintf("%d:%d", id.Block, id.TxIndex) }

// IsMBTC reports whether id is the reserved MBTC identifier.
func (id RelicId) IsMBTC() bool { return id == MBTCRelicId }

// relicIDDeltaDecoder resolves the wire delta form of spec.md §3: successive
// ids in a message are encoded as (block_delta, tx_index), where a zero
// block_delta means "same block as the previous id decoded in this
// message." The decoder starts with an implicit previous block of 0.
type relicIDDeltaDecoder struct {
	lastBlock uint64
}

func (d *relicIDDeltaDecoder) decode(blockDelta, txIndex U128) (RelicId, bool) {
	delta, ok := blockDelta.Uint64()
	if !ok {
		return RelicId{}, false
	}
	tx, ok := txIndex.Uint64()
	if !ok || tx > 0xffffffff {
		return RelicId{}, false
	}
	block := d.lastBlock + delta
	d.lastBlock = block
	return RelicId{Block: block, TxIndex: uint32(tx)}, true
}
