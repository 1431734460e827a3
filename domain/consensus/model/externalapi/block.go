package externalapi

import (
	"bytes"
	"math/big"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/rlp"
)

// DomainBlock represents a block as seen by the synchronization core: a
// header plus the headers of the uncles it includes.
type DomainBlock struct {
	Header *DomainBlockHeader
	Uncles []*DomainBlockHeader
}

// Hash returns the hash of the block header.
func (block *DomainBlock) Hash() *BlockHash {
	return block.Header.Hash()
}

// ParentHash returns the hash of the block's parent.
func (block *DomainBlock) ParentHash() *BlockHash {
	return block.Header.ParentHash
}

// Number returns the height of the block.
func (block *DomainBlock) Number() uint64 {
	return block.Header.Number
}

// Difficulty returns the work contributed by the block.
func (block *DomainBlock) Difficulty() *big.Int {
	return block.Header.Difficulty
}

// IsGenesis returns whether the block is at height 0.
func (block *DomainBlock) IsGenesis() bool {
	return block.Header.Number == 0
}

// Clone returns a clone of DomainBlock
func (block *DomainBlock) Clone() *DomainBlock {
	unclesClone := make([]*DomainBlockHeader, len(block.Uncles))
	for i, uncle := range block.Uncles {
		unclesClone[i] = uncle.Clone()
	}
	return &DomainBlock{
		Header: block.Header.Clone(),
		Uncles: unclesClone,
	}
}

// Equal returns whether block equals to other
func (block *DomainBlock) Equal(other *DomainBlock) bool {
	if block == nil || other == nil {
		return block == other
	}
	if len(block.Uncles) != len(other.Uncles) {
		return false
	}
	if !block.Header.Equal(other.Header) {
		return false
	}
	for i, uncle := range block.Uncles {
		if !uncle.Equal(other.Uncles[i]) {
			return false
		}
	}
	return true
}

// DomainBlockHeader represents the header part of a block. A header must
// not be modified after Hash has been called on it.
type DomainBlockHeader struct {
	ParentHash *BlockHash
	UnclesHash *BlockHash
	Coinbase   []byte
	Number     uint64
	Difficulty *big.Int
	Timestamp  uint64
	ExtraData  []byte
	Nonce      uint64

	cachedHash atomic.Pointer[BlockHash]
}

// rlpHeader is the canonical encoding of a header, hashed to identify it.
type rlpHeader struct {
	ParentHash []byte
	UnclesHash []byte
	Coinbase   []byte
	Number     uint64
	Difficulty []byte
	Timestamp  uint64
	ExtraData  []byte
	Nonce      uint64
}

func hashBytesOrNil(hash *BlockHash) []byte {
	if hash == nil {
		return nil
	}
	return hash.ByteSlice()
}

func (header *DomainBlockHeader) toRLP() *rlpHeader {
	var difficulty []byte
	if header.Difficulty != nil {
		difficulty = header.Difficulty.Bytes()
	}
	return &rlpHeader{
		ParentHash: hashBytesOrNil(header.ParentHash),
		UnclesHash: hashBytesOrNil(header.UnclesHash),
		Coinbase:   header.Coinbase,
		Number:     header.Number,
		Difficulty: difficulty,
		Timestamp:  header.Timestamp,
		ExtraData:  header.ExtraData,
		Nonce:      header.Nonce,
	}
}

func (encoded *rlpHeader) toDomain() *DomainBlockHeader {
	return &DomainBlockHeader{
		ParentHash: NewBlockHash(encoded.ParentHash),
		UnclesHash: NewBlockHash(encoded.UnclesHash),
		Coinbase:   encoded.Coinbase,
		Number:     encoded.Number,
		Difficulty: new(big.Int).SetBytes(encoded.Difficulty),
		Timestamp:  encoded.Timestamp,
		ExtraData:  encoded.ExtraData,
		Nonce:      encoded.Nonce,
	}
}

// EncodeHeader returns the RLP encoding of the header.
func EncodeHeader(header *DomainBlockHeader) ([]byte, error) {
	return rlp.EncodeToBytes(header.toRLP())
}

// DecodeHeader parses the RLP encoding produced by EncodeHeader.
func DecodeHeader(encoded []byte) (*DomainBlockHeader, error) {
	decoded := &rlpHeader{}
	err := rlp.DecodeBytes(encoded, decoded)
	if err != nil {
		return nil, err
	}
	return decoded.toDomain(), nil
}

// Hash returns the Keccak-256 hash of the header's RLP encoding.
func (header *DomainBlockHeader) Hash() *BlockHash {
	if cached := header.cachedHash.Load(); cached != nil {
		return cached
	}
	encoded, err := EncodeHeader(header)
	if err != nil {
		// Every field of rlpHeader is a byte slice or an unsigned integer,
		// which rlp always encodes.
		panic(err)
	}
	hash := Keccak256Hash(encoded)
	header.cachedHash.Store(hash)
	return hash
}

// CalcUnclesHash returns the hash committing to the given uncle headers.
func CalcUnclesHash(uncles []*DomainBlockHeader) *BlockHash {
	if len(uncles) == 0 {
		return EmptyListHash()
	}
	encodedUncles := make([]*rlpHeader, len(uncles))
	for i, uncle := range uncles {
		encodedUncles[i] = uncle.toRLP()
	}
	encoded, err := rlp.EncodeToBytes(encodedUncles)
	if err != nil {
		panic(err)
	}
	return Keccak256Hash(encoded)
}

// Clone returns a clone of DomainBlockHeader
func (header *DomainBlockHeader) Clone() *DomainBlockHeader {
	var difficulty *big.Int
	if header.Difficulty != nil {
		difficulty = new(big.Int).Set(header.Difficulty)
	}
	return &DomainBlockHeader{
		ParentHash: header.ParentHash,
		UnclesHash: header.UnclesHash,
		Coinbase:   append([]byte(nil), header.Coinbase...),
		Number:     header.Number,
		Difficulty: difficulty,
		Timestamp:  header.Timestamp,
		ExtraData:  append([]byte(nil), header.ExtraData...),
		Nonce:      header.Nonce,
	}
}

// Equal returns whether header equals to other
func (header *DomainBlockHeader) Equal(other *DomainBlockHeader) bool {
	if header == nil || other == nil {
		return header == other
	}
	if !header.ParentHash.Equal(other.ParentHash) {
		return false
	}
	if !header.UnclesHash.Equal(other.UnclesHash) {
		return false
	}
	if !bytes.Equal(header.Coinbase, other.Coinbase) {
		return false
	}
	if header.Number != other.Number {
		return false
	}
	if (header.Difficulty == nil) != (other.Difficulty == nil) {
		return false
	}
	if header.Difficulty != nil && header.Difficulty.Cmp(other.Difficulty) != 0 {
		return false
	}
	if header.Timestamp != other.Timestamp {
		return false
	}
	if !bytes.Equal(header.ExtraData, other.ExtraData) {
		return false
	}
	return header.Nonce == other.Nonce
}
