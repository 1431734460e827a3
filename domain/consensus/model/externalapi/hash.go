package externalapi

import (
	"encoding/hex"
	"io"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"
	"golang.org/x/crypto/sha3"
)

// BlockHashSize is the size of a block hash produced by this node.
// BlockHash itself accepts any length.
const BlockHashSize = 32

// BlockHash is an immutable byte digest identifying a block. Equality and
// ordering are defined purely over the raw bytes. BlockHash values are
// comparable and may be used as map keys.
type BlockHash struct {
	bytes string
}

var (
	zeroHash      = NewBlockHash(make([]byte, BlockHashSize))
	emptyListHash = Keccak256Hash([]byte{0xc0})
)

// ZeroHash returns the 32-byte all-zero hash used as the genesis parent
// sentinel.
func ZeroHash() *BlockHash {
	return zeroHash
}

// EmptyListHash returns the Keccak-256 digest of the RLP encoding of an
// empty list.
func EmptyListHash() *BlockHash {
	return emptyListHash
}

// NewBlockHash returns a BlockHash holding a copy of the given bytes.
func NewBlockHash(hashBytes []byte) *BlockHash {
	return &BlockHash{bytes: string(hashBytes)}
}

// NewBlockHashFromString parses a hex string, with or without a 0x prefix.
// An empty string yields a zero-length hash.
func NewBlockHashFromString(hashString string) (*BlockHash, error) {
	if hashString == "" {
		return &BlockHash{}, nil
	}
	prefixed := hashString
	if !strings.HasPrefix(prefixed, "0x") && !strings.HasPrefix(prefixed, "0X") {
		prefixed = "0x" + prefixed
	}
	hashBytes, err := hexutil.Decode(prefixed)
	if err != nil {
		return nil, errors.WithStack(&DecodeError{Input: hashString, Err: err})
	}
	return NewBlockHash(hashBytes), nil
}

// Keccak256Hash returns the Keccak-256 digest of data as a BlockHash.
func Keccak256Hash(data ...[]byte) *BlockHash {
	hasher := sha3.NewLegacyKeccak256()
	for _, chunk := range data {
		hasher.Write(chunk)
	}
	return NewBlockHash(hasher.Sum(nil))
}

// ByteSlice returns the hash bytes. The slice is a copy, so it is safe
// to modify.
func (hash *BlockHash) ByteSlice() []byte {
	return []byte(hash.bytes)
}

// Len returns the number of bytes in the hash.
func (hash *BlockHash) Len() int {
	return len(hash.bytes)
}

// String returns the hash as lowercase hex without a prefix.
func (hash BlockHash) String() string {
	return hex.EncodeToString([]byte(hash.bytes))
}

// JSONString returns the hash as 0x-prefixed lowercase hex.
func (hash *BlockHash) JSONString() string {
	return hexutil.Encode([]byte(hash.bytes))
}

// Equal returns whether hash equals to other
func (hash *BlockHash) Equal(other *BlockHash) bool {
	if hash == nil || other == nil {
		return hash == other
	}
	return hash.bytes == other.bytes
}

// Compare orders hashes by unsigned lexicographic comparison of their bytes,
// a shorter hash ordering first when it is a prefix of the longer one.
// It returns -1, 0 or +1.
func (hash *BlockHash) Compare(other *BlockHash) int {
	return strings.Compare(hash.bytes, other.bytes)
}

// Less returns whether hash orders strictly before other.
func (hash *BlockHash) Less(other *BlockHash) bool {
	return hash.Compare(other) < 0
}

// MarshalText implements encoding.TextMarshaler using 0x-prefixed hex.
func (hash BlockHash) MarshalText() ([]byte, error) {
	return hexutil.Bytes(hash.bytes).MarshalText()
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (hash *BlockHash) UnmarshalText(text []byte) error {
	parsed, err := NewBlockHashFromString(string(text))
	if err != nil {
		return err
	}
	*hash = *parsed
	return nil
}

// EncodeRLP implements rlp.Encoder. The hash is encoded as a byte string.
func (hash *BlockHash) EncodeRLP(w io.Writer) error {
	if hash == nil {
		return rlp.Encode(w, []byte{})
	}
	return rlp.Encode(w, []byte(hash.bytes))
}

// DecodeRLP implements rlp.Decoder.
func (hash *BlockHash) DecodeRLP(stream *rlp.Stream) error {
	hashBytes, err := stream.Bytes()
	if err != nil {
		return err
	}
	hash.bytes = string(hashBytes)
	return nil
}

// HashesEqual returns whether the given hash slices are equal.
func HashesEqual(a, b []*BlockHash) bool {
	if len(a) != len(b) {
		return false
	}
	for i, hash := range a {
		if !hash.Equal(b[i]) {
			return false
		}
	}
	return true
}

// HashesToStrings returns the hex representation of each hash.
func HashesToStrings(hashes []*BlockHash) []string {
	strs := make([]string, len(hashes))
	for i, hash := range hashes {
		strs[i] = hash.String()
	}
	return strs
}

// DecodeError is returned when a hash string is not valid hex.
type DecodeError struct {
	Input string
	Err   error
}

func (e *DecodeError) Error() string {
	return "malformed block hash " + `"` + e.Input + `": ` + e.Err.Error()
}

// Unwrap returns the underlying hex decoding error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}
