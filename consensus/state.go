package consensus

// ChainState is a minimal, non-persistent container for the six logical
// tables of spec.md §3, sufficient to drive ApplyBlock in tests and
// conformance tooling without any disk persistence. The store package backs
// the same shape with bbolt for production use.
type ChainState struct {
	OutputBalances map[TxOutPoint]OutputBalance
	Sealings       map[string]*SealingRecord // key: canonical letters
	Relics         map[RelicId]*RelicEntry
	NameIndex      map[string]RelicId // canonical letters -> enshrined id
	Tip            uint64
}

// NewChainState returns an empty, ready-to-use ChainState.
func NewChainState() *ChainState {
	return &ChainState{
		OutputBalances: make(map[TxOutPoint]OutputBalance),
		Sealings:       make(map[string]*SealingRecord),
		Relics:         make(map[RelicId]*RelicEntry),
		NameIndex:      make(map[string]RelicId),
	}
}

// SpendOutput removes and returns an output's balance map (or nil if the
// output carried none), as the Allocation Engine's input pool is the union
// of exactly the outputs a transaction spends.
func (s *ChainState) SpendOutput(op TxOutPoint) OutputBalance {
	bal := s.OutputBalances[op]
	delete(s.OutputBalances, op)
	return bal
}

// SetOutput records the balance produced at op, or clears it entirely if
// bal is empty (spec.md §3: outputs with no balance are absent from the
// table, not present-with-zero-entries).
func (s *ChainState) SetOutput(op TxOutPoint, bal OutputBalance) {
	nonZero := make(OutputBalance, len(bal))
	for id, amt := range bal {
		if !amt.IsZero() {
			nonZero[id] = amt
		}
	}
	if len(nonZero) == 0 {
		delete(s.OutputBalances, op)
		return
	}
	s.OutputBalances[op] = nonZero
}

// Sealing looks up the live sealing for a name by letters, or nil.
func (s *ChainState) Sealing(letters string) *SealingRecord {
	return s.Sealings[letters]
}

// PutSealing records a new sealing.
func (s *ChainState) PutSealing(rec *SealingRecord) {
	s.Sealings[rec.Name.Letters] = rec
}

// Relic looks up a registry entry by id, or nil.
func (s *ChainState) Relic(id RelicId) *RelicEntry {
	return s.Relics[id]
}

// RelicByName resolves an enshrined name to its entry, or nil.
func (s *ChainState) RelicByName(letters string) *RelicEntry {
	id, ok := s.NameIndex[letters]
	if !ok {
		return nil
	}
	return s.Relics[id]
}

// PutRelic registers an entry, indexing it by its enshrined name.
func (s *ChainState) PutRelic(entry *RelicEntry) {
	s.Relics[entry.ID] = entry
	s.NameIndex[entry.Name.Letters] = entry.ID
}

// ResetBlockMintCounters zeroes every entry's per-block mint counter; call
// once before processing the first transaction of a new block.
func (s *ChainState) ResetBlockMintCounters() {
	for _, entry := range s.Relics {
		entry.MintsThisBlock = 0
	}
}

// SnapshotRegistry deep-copies Sealings, Relics and NameIndex so a caller
// can mutate the live state and still recover the pre-block shape of the
// registry for reorg rewind (store.BuildBlockUndo). OutputBalances is
// intentionally excluded: its pre-images are captured per-outpoint by the
// caller instead, since copying the whole table on every block would be
// wasteful.
func (s *ChainState) SnapshotRegistry() (sealings map[string]*SealingRecord, relics map[RelicId]*RelicEntry, nameIndex map[string]RelicId) {
	sealings = make(map[string]*SealingRecord, len(s.Sealings))
	for k, v := range s.Sealings {
		cp := *v
		sealings[k] = &cp
	}
	relics = make(map[RelicId]*RelicEntry, len(s.Relics))
	for k, v := range s.Relics {
		cp := *v
		if v.Pool != nil {
			poolCopy := *v.Pool
			cp.Pool = &poolCopy
		}
		if v.Terms.BlockCap != nil {
			bc := *v.Terms.BlockCap
			cp.Terms.BlockCap = &bc
		}
		if v.Terms.MaxUnmints != nil {
			mu := *v.Terms.MaxUnmints
			cp.Terms.MaxUnmints = &mu
		}
		relics[k] = &cp
	}
	nameIndex = make(map[string]RelicId, len(s.NameIndex))
	for k, v := range s.NameIndex {
		nameIndex[k] = v
	}
	return sealings, relics, nameIndex
}

// RestoreRegistry replaces Sealings/Relics/NameIndex wholesale, as used when
// rewinding a reorg back to a previously snapshotted shape.
func (s *ChainState) RestoreRegistry(sealings map[string]*SealingRecord, relics map[RelicId]*RelicEntry, nameIndex map[string]RelicId) {
	s.Sealings = sealings
	s.Relics = relics
	s.NameIndex = nameIndex
}
