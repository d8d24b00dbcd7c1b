package consensus

// TxOutPoint identifies a previous output a transaction input spends.
type TxOutPoint struct {
	Txid [32]byte
	Vout uint32
}

// Inscription is the narrow touchpoint where a sealing carries an
// inscription (spec.md §1): full inscription indexing stays a collaborator
// outside this core, but Sealing/Enshrining both reference the inscription
// that proves ownership of a name.
type Inscription struct {
	ID       InscriptionId
	Metadata map[string]string
	Owner    TxOutPoint
}

// InscriptionId identifies an inscription by its reveal transaction and
// index within that transaction's inscriptions.
type InscriptionId struct {
	Txid  [32]byte
	Index uint32
}

// ExternalTx is a Bitcoin transaction as handed to the processor by the
// (out-of-scope) block-fetching collaborator (spec.md §6).
type ExternalTx struct {
	Txid    [32]byte
	Inputs  []TxOutPoint
	Outputs []ExternalOutput

	// Inscription is non-nil when this transaction's witness data reveals an
	// inscription (spec.md §1's narrow touchpoint). At most one inscription
	// is modeled per transaction, sufficient for Sealing/Enshrining.
	Inscription *Inscription
}

// ExternalOutput is one transaction output: its value and raw script bytes.
type ExternalOutput struct {
	ValueSats   uint64
	ScriptBytes []byte
}

// Block is a Bitcoin block as handed to the processor (spec.md §6).
type Block struct {
	Height   uint64
	Hash     [32]byte
	PrevHash [32]byte
	Txs      []ExternalTx
}

// OutputBalance is the fungible-token balance map attached to a specific
// output. Outputs with an empty map are absent from the OutputBalances
// table (spec.md §3).
type OutputBalance map[RelicId]U128

// SealingRecord is created when a sealing message succeeds (spec.md §3).
type SealingRecord struct {
	Name              Name
	OwnerInscription  InscriptionId
	OwnerOutput       TxOutPoint
	SealingTxid       [32]byte
	SealingBlock      uint64
	SealingTxIndex    uint32
	MBTCBurned        U128
	Enshrined         bool
	// InscriptionLive must be true for EvaluateEnshrine to accept an
	// Enshrine of this sealing. ApplyTransaction sets it when the sealing
	// succeeds; nothing in this package clears it afterwards.
	InscriptionLive bool
}

// MintTerms governs a relic's mint schedule (spec.md §3).
type MintTerms struct {
	AmountPerMint U128
	Cap           uint64
	BlockCap      *uint64
	TxCap         uint8
	MaxUnmints    *uint64
	Price         PriceSchedule
	Seed          U128
}

// Pool is the constant-product AMM state seeded on mint-out (spec.md §3).
type Pool struct {
	BaseReserve  U128 // MBTC, divisibility 8
	QuoteReserve U128 // relic
	FeeBps       uint16
}

// DefaultFeeBps is the AMM's 1% input-side fee (spec.md §4.6).
const DefaultFeeBps uint16 = 100

// RelicEntry is the enshrined-token registry row (spec.md §3).
type RelicEntry struct {
	ID              RelicId
	Name            Name
	Symbol          *uint32
	Divisibility    uint8
	Turbo           bool
	Terms           MintTerms
	MintedCount     uint64
	UnmintedCount   uint64
	MintsThisBlock  uint64
	Seed            U128
	Pool            *Pool
	Unmintable      bool
	EnshriningBlock uint64
	EnshriningTx    uint32

	// mbtcEscrow accumulates MBTC paid in by mints since the last pool seed;
	// consumed (zeroed) the instant the pool seeds (spec.md §4.5).
	mbtcEscrow U128
}
