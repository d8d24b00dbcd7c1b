package consensus

// EventKind discriminates the Events table's rows (spec.md §3). Every event
// carries enough of its own pre-image to be undone during a reorg without
// consulting anything but the event log itself.
type EventKind string

const (
	EventSealed      EventKind = "SEALED"
	EventEnshrined   EventKind = "ENSHRINED"
	EventMinted      EventKind = "MINTED"
	EventUnminted    EventKind = "UNMINTED"
	EventSwapped     EventKind = "SWAPPED"
	EventTransferred EventKind = "TRANSFERRED"
	EventBurned      EventKind = "BURNED"
	EventCenotaph    EventKind = "CENOTAPH"
)

// Event is one append-only row of the Events table, keyed by
// (Block, TxIndex) outside this struct by the store layer.
type Event struct {
	Kind    EventKind
	Block   uint64
	TxIndex uint32
	Txid    [32]byte

	Name       *Name
	RelicID    *RelicId
	Amount     U128
	PriceMBTC  U128
	Output     uint32
	FromPool   Pool
	ToPool     Pool
	BurnedFees map[RelicId]U128
}

// SealedEvent builds the event recorded when a Seal(name) succeeds.
func SealedEvent(block uint64, txIndex uint32, txid [32]byte, name Name, fee U128) Event {
	return Event{Kind: EventSealed, Block: block, TxIndex: txIndex, Txid: txid, Name: &name, PriceMBTC: fee}
}

// EnshrinedEvent builds the event recorded when an Enshrine(name) succeeds.
func EnshrinedEvent(block uint64, txIndex uint32, txid [32]byte, id RelicId, name Name) Event {
	return Event{Kind: EventEnshrined, Block: block, TxIndex: txIndex, Txid: txid, RelicID: &id, Name: &name}
}

// MintedEvent builds the event recorded when a Mint(id) succeeds.
func MintedEvent(block uint64, txIndex uint32, txid [32]byte, id RelicId, eff MintEffect) Event {
	return Event{Kind: EventMinted, Block: block, TxIndex: txIndex, Txid: txid, RelicID: &id, Amount: eff.AmountMinted, PriceMBTC: eff.PriceMBTC}
}

// UnmintedEvent builds the event recorded when an Unmint(id) succeeds.
func UnmintedEvent(block uint64, txIndex uint32, txid [32]byte, id RelicId, eff UnmintEffect) Event {
	return Event{Kind: EventUnminted, Block: block, TxIndex: txIndex, Txid: txid, RelicID: &id, Amount: eff.BurnedRelic, PriceMBTC: eff.RefundMBTC}
}

// SwappedEvent builds the event recorded when a Swap(id) succeeds; FromPool
// and ToPool bracket the trade so a reorg can restore reserves exactly.
func SwappedEvent(block uint64, txIndex uint32, txid [32]byte, id RelicId, before Pool, eff SwapEffect) Event {
	return Event{Kind: EventSwapped, Block: block, TxIndex: txIndex, Txid: txid, RelicID: &id, Amount: eff.AmountIn, FromPool: before, ToPool: eff.NewPool}
}

// TransferredEvent builds the event recorded for each relic credited to an
// output by the Allocation Engine (spec.md §4.4, §6): explicit Transfer
// instructions, mint/swap proceeds, and the default-output remainder all
// land here, one event per (output, relic) pair credited.
func TransferredEvent(block uint64, txIndex uint32, txid [32]byte, id RelicId, output uint32, amount U128) Event {
	return Event{Kind: EventTransferred, Block: block, TxIndex: txIndex, Txid: txid, RelicID: &id, Output: output, Amount: amount}
}

// BurnedEvent builds the event recorded for any relic units destroyed
// outright (default-output OP_RETURN, explicit transfer to an OP_RETURN
// output, or a cenotaph's forfeited input pool).
func BurnedEvent(block uint64, txIndex uint32, txid [32]byte, burned map[RelicId]U128) Event {
	return Event{Kind: EventBurned, Block: block, TxIndex: txIndex, Txid: txid, BurnedFees: burned}
}

// CenotaphEvent builds the event recorded when a transaction's Keepsake
// raises a Flaw.
func CenotaphEvent(block uint64, txIndex uint32, txid [32]byte, burned map[RelicId]U128) Event {
	return Event{Kind: EventCenotaph, Block: block, TxIndex: txIndex, Txid: txid, BurnedFees: burned}
}
