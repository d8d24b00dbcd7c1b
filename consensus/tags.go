package consensus

// Tag identifies a (tag, value) pair in the Keepsake integer stream
// (spec.md §4.2). Even tag numbers are reserved for forward-compatible
// fields an older parser silently ignores; odd unrecognized tags are a
// flaw (UnrecognizedOddTag).
type Tag uint64

const (
	TagBody          Tag = 0
	TagSeal          Tag = 2
	TagSealSpacers   Tag = 4
	TagEnshrine      Tag = 6
	TagSymbol        Tag = 8
	TagAmount        Tag = 10
	TagCap           Tag = 12
	TagBlockCap      Tag = 14
	TagTxCap         Tag = 16
	TagMaxUnmints    Tag = 18
	TagPriceMode     Tag = 20
	TagPriceA        Tag = 22
	TagPriceB        Tag = 24
	TagPriceC        Tag = 26
	TagSeed          Tag = 28
	TagTurbo         Tag = 30
	TagMint          Tag = 32
	TagUnmint        Tag = 34
	TagSwap          Tag = 36
	TagSwapInput     Tag = 38
	TagSwapOutputMin Tag = 40
	TagSwapDirection Tag = 42
	TagPointer       Tag = 44
)

// isOdd reports whether t is odd-numbered (spec.md §4.2 forward-compat rule).
func (t Tag) isOdd() bool { return t%2 == 1 }

// relicIDTags is the set of tags whose value is a RelicId, consuming two
// raw stream integers (block_delta, tx_index) rather than one.
var relicIDTags = map[Tag]bool{
	TagMint:   true,
	TagUnmint: true,
	TagSwap:   true,
}

// singleValuedTags enumerates every recognized tag other than Body, used to
// detect duplicates.
var singleValuedTags = map[Tag]bool{
	TagSeal: true, TagSealSpacers: true, TagEnshrine: true, TagSymbol: true,
	TagAmount: true, TagCap: true, TagBlockCap: true, TagTxCap: true,
	TagMaxUnmints: true, TagPriceMode: true, TagPriceA: true, TagPriceB: true,
	TagPriceC: true, TagSeed: true, TagTurbo: true, TagMint: true,
	TagUnmint: true, TagSwap: true, TagSwapInput: true, TagSwapOutputMin: true,
	TagSwapDirection: true, TagPointer: true,
}
