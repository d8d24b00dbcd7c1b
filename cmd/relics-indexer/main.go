package main

import (
	"bufio"
	"context"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/relicsprotocol/relics-ord/consensus"
	"github.com/relicsprotocol/relics-ord/node"
	"github.com/relicsprotocol/relics-ord/store"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// blockJSON is the wire shape a Bitcoin-RPC-fetching collaborator (out of
// scope for this engine, spec.md §6) would hand the indexer: one block per
// line of newline-delimited JSON on stdin, or a path given with -blocks.
type blockJSON struct {
	Height   uint64    `json:"height"`
	Hash     string    `json:"hash"`
	PrevHash string    `json:"prev_hash"`
	Txs      []txJSON  `json:"txs"`
}

type txJSON struct {
	Txid        string         `json:"txid"`
	Inputs      []outpointJSON `json:"inputs"`
	Outputs     []outputJSON   `json:"outputs"`
	Inscription *inscJSON      `json:"inscription"`
}

type outpointJSON struct {
	Txid string `json:"txid"`
	Vout uint32 `json:"vout"`
}

type outputJSON struct {
	ValueSats   uint64 `json:"value_sats"`
	ScriptHex   string `json:"script_hex"`
}

type inscJSON struct {
	Txid  string       `json:"txid"`
	Index uint32       `json:"index"`
	Owner outpointJSON `json:"owner"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	defaults, err := node.LoadConfig()
	if err != nil {
		fmt.Fprintf(stderr, "invalid config: %v\n", err)
		return 2
	}
	cfg := defaults

	fs := flag.NewFlagSet("relics-indexer", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.Network, "network", defaults.Network, "network name (mainnet/testnet/regtest)")
	fs.StringVar(&cfg.DataDir, "datadir", defaults.DataDir, "indexer data directory")
	fs.StringVar(&cfg.LogLevel, "log-level", defaults.LogLevel, "log level: debug|info|warn|error")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", defaults.MetricsAddr, "bind address for /metrics (empty disables)")
	blocksPath := fs.String("blocks", "", "path to a newline-delimited JSON block file (default: stdin)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if err := node.ValidateConfig(cfg); err != nil {
		fmt.Fprintf(stderr, "invalid config: %v\n", err)
		return 2
	}

	logger, err := node.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(stderr, "logger init failed: %v\n", err)
		return 2
	}
	defer logger.Sync() //nolint:errcheck

	db, err := store.Open(cfg.DataDir, cfg.Network)
	if err != nil {
		logger.Error("store open failed", zap.Error(err))
		return 2
	}
	defer db.Close() //nolint:errcheck

	state := consensus.NewChainState()
	if m := db.Manifest(); m != nil {
		state.Tip = m.TipHeight
	}

	reg := prometheus.NewRegistry()
	metric := node.NewMetrics(reg)
	if cfg.MetricsAddr != "" {
		go func() {
			if err := node.Serve(cfg.MetricsAddr, reg); err != nil {
				logger.Warn("metrics server stopped", zap.Error(err))
			}
		}()
	}

	proc := node.NewProcessor(state, db, logger, metric)

	var input io.Reader = os.Stdin
	if *blocksPath != "" {
		f, err := os.Open(*blocksPath)
		if err != nil {
			fmt.Fprintf(stderr, "open blocks file: %v\n", err)
			return 2
		}
		defer f.Close() //nolint:errcheck
		input = f
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	blocks := make(chan consensus.Block)
	errCh := make(chan error, 1)
	go func() {
		errCh <- proc.Run(ctx, blocks)
	}()

	scanner := bufio.NewScanner(input)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		block, err := decodeBlockJSON(line)
		if err != nil {
			fmt.Fprintf(stderr, "decode block: %v\n", err)
			return 2
		}
		select {
		case blocks <- block:
		case <-ctx.Done():
			close(blocks)
			<-errCh
			return 0
		}
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(stderr, "read blocks: %v\n", err)
		close(blocks)
		<-errCh
		return 2
	}
	close(blocks)

	if err := <-errCh; err != nil && err != context.Canceled {
		logger.Error("processor stopped with error", zap.Error(err))
		return 1
	}
	return 0
}

func decodeBlockJSON(line []byte) (consensus.Block, error) {
	var bj blockJSON
	if err := json.Unmarshal(line, &bj); err != nil {
		return consensus.Block{}, fmt.Errorf("unmarshal: %w", err)
	}
	hash, err := decodeHash32(bj.Hash)
	if err != nil {
		return consensus.Block{}, fmt.Errorf("hash: %w", err)
	}
	prevHash, err := decodeHash32(bj.PrevHash)
	if err != nil {
		return consensus.Block{}, fmt.Errorf("prev_hash: %w", err)
	}
	txs := make([]consensus.ExternalTx, len(bj.Txs))
	for i, tj := range bj.Txs {
		tx, err := decodeTxJSON(tj)
		if err != nil {
			return consensus.Block{}, fmt.Errorf("tx %d: %w", i, err)
		}
		txs[i] = tx
	}
	return consensus.Block{Height: bj.Height, Hash: hash, PrevHash: prevHash, Txs: txs}, nil
}

func decodeTxJSON(tj txJSON) (consensus.ExternalTx, error) {
	txid, err := decodeHash32(tj.Txid)
	if err != nil {
		return consensus.ExternalTx{}, fmt.Errorf("txid: %w", err)
	}
	inputs := make([]consensus.TxOutPoint, len(tj.Inputs))
	for i, in := range tj.Inputs {
		op, err := decodeOutpointJSON(in)
		if err != nil {
			return consensus.ExternalTx{}, fmt.Errorf("input %d: %w", i, err)
		}
		inputs[i] = op
	}
	outputs := make([]consensus.ExternalOutput, len(tj.Outputs))
	for i, out := range tj.Outputs {
		script, err := hex.DecodeString(out.ScriptHex)
		if err != nil {
			return consensus.ExternalTx{}, fmt.Errorf("output %d script: %w", i, err)
		}
		outputs[i] = consensus.ExternalOutput{ValueSats: out.ValueSats, ScriptBytes: script}
	}
	var insc *consensus.Inscription
	if tj.Inscription != nil {
		inscTxid, err := decodeHash32(tj.Inscription.Txid)
		if err != nil {
			return consensus.ExternalTx{}, fmt.Errorf("inscription txid: %w", err)
		}
		owner, err := decodeOutpointJSON(tj.Inscription.Owner)
		if err != nil {
			return consensus.ExternalTx{}, fmt.Errorf("inscription owner: %w", err)
		}
		insc = &consensus.Inscription{
			ID:    consensus.InscriptionId{Txid: inscTxid, Index: tj.Inscription.Index},
			Owner: owner,
		}
	}
	return consensus.ExternalTx{Txid: txid, Inputs: inputs, Outputs: outputs, Inscription: insc}, nil
}

func decodeOutpointJSON(o outpointJSON) (consensus.TxOutPoint, error) {
	txid, err := decodeHash32(o.Txid)
	if err != nil {
		return consensus.TxOutPoint{}, err
	}
	return consensus.TxOutPoint{Txid: txid, Vout: o.Vout}, nil
}

func decodeHash32(s string) ([32]byte, error) {
	var out [32]byte
	if s == "" {
		return out, nil
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return out, err
	}
	if len(b) != 32 {
		return out, fmt.Errorf("expected 32 bytes, got %d", len(b))
	}
	copy(out[:], b)
	return out, nil
}
