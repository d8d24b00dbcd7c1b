package store

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/relicsprotocol/relics-ord/consensus"

	bolt "go.etcd.io/bbolt"
)

var (
	bucketOutputBalances = []byte("output_balances")
	bucketSealings       = []byte("sealings_by_name")
	bucketRelics         = []byte("relics_by_id")
	bucketNameIndex      = []byte("relic_id_by_name")
	bucketEvents         = []byte("events_by_block_tx_seq")
	bucketBlockHashes    = []byte("block_hash_by_height")
)

// DB is the durable backing store for a ChainState: one bbolt database file
// per network, with one bucket per logical table (spec.md §8).
type DB struct {
	chainDir string
	db       *bolt.DB
	manifest *Manifest
}

// Open opens (creating if absent) the store for the given network under
// datadir, ensuring all logical-table buckets exist.
func Open(datadir, network string) (*DB, error) {
	if datadir == "" {
		return nil, fmt.Errorf("datadir required")
	}
	if network == "" {
		return nil, fmt.Errorf("network required")
	}

	chainDir := ChainDir(datadir, network)
	if err := ensureDir(chainDir); err != nil {
		return nil, err
	}
	if err := ensureDir(filepath.Join(chainDir, "db")); err != nil {
		return nil, err
	}

	path := filepath.Join(chainDir, "db", "relics.db")
	bdb, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt: %w", err)
	}

	d := &DB{chainDir: chainDir, db: bdb}

	buckets := [][]byte{
		bucketOutputBalances, bucketSealings, bucketRelics,
		bucketNameIndex, bucketEvents, bucketBlockHashes, bucketUndo,
	}
	if err := d.db.Update(func(tx *bolt.Tx) error {
		for _, b := range buckets {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("create bucket %s: %w", string(b), err)
			}
		}
		return nil
	}); err != nil {
		_ = bdb.Close()
		return nil, err
	}

	m, err := readManifest(chainDir)
	if err != nil {
		if !os.IsNotExist(err) {
			_ = bdb.Close()
			return nil, fmt.Errorf("read manifest: %w", err)
		}
		d.manifest = &Manifest{SchemaVersion: SchemaVersionV1, Network: network}
		return d, nil
	}
	if m.SchemaVersion > SchemaVersionV1 {
		_ = bdb.Close()
		return nil, fmt.Errorf("manifest schema_version %d > supported %d", m.SchemaVersion, SchemaVersionV1)
	}
	d.manifest = m
	return d, nil
}

func (d *DB) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	return d.db.Close()
}

func (d *DB) ChainDir() string { return d.chainDir }

func (d *DB) Manifest() *Manifest {
	if d == nil {
		return nil
	}
	return d.manifest
}

func (d *DB) SetManifest(m *Manifest) error {
	if d == nil {
		return fmt.Errorf("db: nil")
	}
	if err := writeManifestAtomic(d.chainDir, m); err != nil {
		return err
	}
	d.manifest = m
	return nil
}

// GetOutputBalance looks up the fungible balance map attached to an output.
// A missing key means an empty (or never-existent) balance, not an error.
func (d *DB) GetOutputBalance(op consensus.TxOutPoint) (consensus.OutputBalance, error) {
	var out consensus.OutputBalance
	err := d.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketOutputBalances).Get(encodeOutpointKey(op))
		if v == nil {
			return nil
		}
		bal, err := decodeOutputBalance(v)
		if err != nil {
			return err
		}
		out = bal
		return nil
	})
	return out, err
}

func (d *DB) GetSealing(letters string) (*consensus.SealingRecord, error) {
	var out *consensus.SealingRecord
	err := d.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketSealings).Get([]byte(letters))
		if v == nil {
			return nil
		}
		rec, err := decodeSealingRecord(v)
		if err != nil {
			return err
		}
		out = rec
		return nil
	})
	return out, err
}

func (d *DB) GetRelic(id consensus.RelicId) (*consensus.RelicEntry, error) {
	var out *consensus.RelicEntry
	err := d.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketRelics).Get(encodeRelicIDKey(id))
		if v == nil {
			return nil
		}
		entry, err := decodeRelicEntry(v)
		if err != nil {
			return err
		}
		out = entry
		return nil
	})
	return out, err
}

func (d *DB) GetRelicIDByName(letters string) (consensus.RelicId, bool, error) {
	var out consensus.RelicId
	var ok bool
	err := d.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketNameIndex).Get([]byte(letters))
		if v == nil {
			return nil
		}
		id, err := decodeRelicIDKey(v)
		if err != nil {
			return err
		}
		out = id
		ok = true
		return nil
	})
	return out, ok, err
}

// BlockHash returns the hash this DB recorded at height, used by
// DisconnectTip to restore the manifest's tip hash after a rewind.
func (d *DB) BlockHash(height uint64) ([32]byte, bool, error) {
	var out [32]byte
	var ok bool
	err := d.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketBlockHashes).Get(heightKey(height))
		if v == nil {
			return nil
		}
		copy(out[:], v)
		ok = true
		return nil
	})
	return out, ok, err
}

// EventsForBlock returns every event recorded for a block, in emission
// order, for use by reorg's undo pass.
func (d *DB) EventsForBlock(block uint64) ([]consensus.Event, error) {
	var out []consensus.Event
	prefix := blockPrefix(block)
	err := d.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketEvents).Cursor()
		for k, v := c.Seek(prefix); k != nil && hasPrefix(k, prefix); k, v = c.Next() {
			if len(k) < 12 {
				return fmt.Errorf("events: malformed key")
			}
			txIndex := binary.LittleEndian.Uint32(k[8:12])
			ev, err := decodeEvent(block, txIndex, v)
			if err != nil {
				return err
			}
			out = append(out, ev)
		}
		return nil
	})
	return out, err
}

func heightKey(height uint64) []byte {
	out := make([]byte, 8)
	binary.LittleEndian.PutUint64(out, height)
	return out
}

func hasPrefix(k, prefix []byte) bool {
	if len(k) < len(prefix) {
		return false
	}
	for i := range prefix {
		if k[i] != prefix[i] {
			return false
		}
	}
	return true
}
