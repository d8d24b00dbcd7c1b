package node

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/relicsprotocol/relics-ord/consensus"
	"github.com/relicsprotocol/relics-ord/crypto"
	"github.com/relicsprotocol/relics-ord/store"

	"go.uber.org/zap"
)

// Processor drives consensus.ApplyBlock single-threaded, strictly in the
// order blocks arrive on its input channel (spec.md §9), committing each
// block's result durably before moving to the next.
type Processor struct {
	state  *consensus.ChainState
	db     *store.DB
	log    *zap.Logger
	metric *Metrics
	hasher crypto.Provider
}

func NewProcessor(state *consensus.ChainState, db *store.DB, log *zap.Logger, metric *Metrics) *Processor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Processor{state: state, db: db, log: log, metric: metric, hasher: crypto.StdProvider{}}
}

// Run consumes blocks off in until it is closed or ctx is cancelled,
// applying each one in turn. It returns the first error encountered; a
// cenotaph or rejected message is never an error here (it's normal protocol
// behavior recorded as an event), only an engine-internal failure (e.g. a
// store I/O error) stops the loop.
func (p *Processor) Run(ctx context.Context, in <-chan consensus.Block) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case block, ok := <-in:
			if !ok {
				return nil
			}
			if err := p.ApplyBlock(block); err != nil {
				return fmt.Errorf("apply block %d: %w", block.Height, err)
			}
		}
	}
}

// ApplyBlock runs one block through consensus.ApplyBlock and commits the
// result, recording an undo record first so a later reorg can rewind it.
func (p *Processor) ApplyBlock(block consensus.Block) error {
	if block.Height != p.state.Tip+1 {
		return fmt.Errorf("non-contiguous block: have tip %d, got height %d", p.state.Tip, block.Height)
	}

	start := time.Now()
	undo := store.BuildBlockUndo(p.state, block)
	events := consensus.ApplyBlock(p.state, block)

	if p.db != nil {
		if err := p.db.PutUndo(block.Height, undo); err != nil {
			return fmt.Errorf("put undo: %w", err)
		}
		if err := store.CommitBlock(p.db, p.state, block, events); err != nil {
			return fmt.Errorf("commit block: %w", err)
		}
		if err := p.advanceManifest(block); err != nil {
			return err
		}
	}

	p.recordMetrics(block, events, time.Since(start))
	p.log.Info("applied block",
		zap.Uint64("height", block.Height),
		zap.Int("txs", len(block.Txs)),
		zap.Int("events", len(events)),
		zap.String("checkpoint", p.checkpoint(block, events)),
	)
	return nil
}

// checkpoint derives a deterministic fingerprint of a block's height and the
// events it produced, for operators to compare against another indexer
// instance after a reorg or when diagnosing a consensus divergence. It is
// not part of any consensus-critical data path.
func (p *Processor) checkpoint(block consensus.Block, events []consensus.Event) string {
	var buf []byte
	var heightBytes [8]byte
	binary.LittleEndian.PutUint64(heightBytes[:], block.Height)
	buf = append(buf, heightBytes[:]...)
	buf = append(buf, block.Hash[:]...)
	for _, ev := range events {
		buf = append(buf, []byte(ev.Kind)...)
		buf = append(buf, ev.Txid[:]...)
	}
	digest := p.hasher.SHA3_256(buf)
	return hex.EncodeToString(digest[:])
}

// Rewind walks the applied tip back to targetHeight using recorded undo
// records, for use when the block source signals a reorg.
func (p *Processor) Rewind(targetHeight uint64) error {
	if p.db == nil {
		return errors.New("processor: no store configured")
	}
	if err := p.db.RewindTo(p.state, targetHeight); err != nil {
		return err
	}
	p.log.Warn("rewound chain state", zap.Uint64("to_height", targetHeight))
	return nil
}

func (p *Processor) advanceManifest(block consensus.Block) error {
	next := store.Manifest{SchemaVersion: store.SchemaVersionV1, TipHeight: block.Height, TipHash: fmt.Sprintf("%x", block.Hash)}
	if m := p.db.Manifest(); m != nil {
		next.Network = m.Network
	}
	if err := p.db.SetManifest(&next); err != nil {
		return fmt.Errorf("set manifest: %w", err)
	}
	return nil
}

func (p *Processor) recordMetrics(block consensus.Block, events []consensus.Event, elapsed time.Duration) {
	if p.metric == nil {
		return
	}
	p.metric.BlocksApplied.Inc()
	p.metric.TxsApplied.Add(float64(len(block.Txs)))
	p.metric.TipHeight.Set(float64(block.Height))
	p.metric.ApplyDuration.Observe(elapsed.Seconds())
	for _, ev := range events {
		p.metric.EventsEmitted.WithLabelValues(string(ev.Kind)).Inc()
		if ev.Kind == consensus.EventCenotaph {
			p.metric.CenotaphsRaised.Inc()
		}
	}
}
