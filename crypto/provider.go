// Package crypto provides the narrow hashing interface the indexer uses to
// produce deterministic digests (state fingerprints, event-log checkpoints).
// The Keepsake protocol performs no signature verification: it recognizes
// OP_RETURN script prefixes only and never executes or verifies scripts.
package crypto

// Provider is the hashing backend used outside of consensus-critical parsing,
// for deterministic fingerprints the indexer exposes to external consumers
// (reorg checkpoints, conformance fixtures).
type Provider interface {
	SHA3_256(input []byte) [32]byte
}
