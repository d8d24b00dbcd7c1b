package crypto

import "golang.org/x/crypto/sha3"

// StdProvider is the standard Provider backed by golang.org/x/crypto/sha3.
type StdProvider struct{}

func (p StdProvider) SHA3_256(input []byte) [32]byte {
	h := sha3.New256()
	_, _ = h.Write(input)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
