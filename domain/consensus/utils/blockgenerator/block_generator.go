package blockgenerator

import (
	"math/big"
	"sync/atomic"

	"github.com/kaspanet/chainsyncd/domain/consensus/model/externalapi"
)

// DefaultDifficulty is the difficulty of blocks built without an explicit one.
const DefaultDifficulty = 1

const blockInterval = 10

// BlockGenerator deterministically builds blocks. Every block it builds gets
// a distinct nonce, so siblings of the same parent never share a hash.
type BlockGenerator struct {
	nonce uint64
}

// New returns a new BlockGenerator
func New() *BlockGenerator {
	return &BlockGenerator{}
}

func (bg *BlockGenerator) nextNonce() uint64 {
	return atomic.AddUint64(&bg.nonce, 1)
}

// GenesisBlock returns a block at height 0 pointing to the zero hash.
func (bg *BlockGenerator) GenesisBlock() *externalapi.DomainBlock {
	return NewGenesisBlock(big.NewInt(DefaultDifficulty), 0, nil)
}

// NewGenesisBlock returns a genesis block with the given difficulty,
// timestamp and extra data.
func NewGenesisBlock(difficulty *big.Int, timestamp uint64, extraData []byte) *externalapi.DomainBlock {
	return &externalapi.DomainBlock{
		Header: &externalapi.DomainBlockHeader{
			ParentHash: externalapi.ZeroHash(),
			UnclesHash: externalapi.EmptyListHash(),
			Coinbase:   make([]byte, 20),
			Number:     0,
			Difficulty: new(big.Int).Set(difficulty),
			Timestamp:  timestamp,
			ExtraData:  extraData,
		},
	}
}

// CreateChildBlock returns a child of parent with the parent's difficulty.
func (bg *BlockGenerator) CreateChildBlock(parent *externalapi.DomainBlock) *externalapi.DomainBlock {
	return bg.CreateChildBlockWithUncles(parent, parent.Difficulty(), nil)
}

// CreateChildBlockWithDifficulty returns a child of parent with the given difficulty.
func (bg *BlockGenerator) CreateChildBlockWithDifficulty(parent *externalapi.DomainBlock, difficulty int64) *externalapi.DomainBlock {
	return bg.CreateChildBlockWithUncles(parent, big.NewInt(difficulty), nil)
}

// CreateChildBlockWithUncles returns a child of parent including the given
// uncle headers.
func (bg *BlockGenerator) CreateChildBlockWithUncles(parent *externalapi.DomainBlock,
	difficulty *big.Int, uncles []*externalapi.DomainBlockHeader) *externalapi.DomainBlock {

	unclesClone := make([]*externalapi.DomainBlockHeader, len(uncles))
	for i, uncle := range uncles {
		unclesClone[i] = uncle.Clone()
	}
	return &externalapi.DomainBlock{
		Header: &externalapi.DomainBlockHeader{
			ParentHash: parent.Hash(),
			UnclesHash: externalapi.CalcUnclesHash(unclesClone),
			Coinbase:   make([]byte, 20),
			Number:     parent.Number() + 1,
			Difficulty: new(big.Int).Set(difficulty),
			Timestamp:  parent.Header.Timestamp + blockInterval,
			Nonce:      bg.nextNonce(),
		},
		Uncles: unclesClone,
	}
}

// BlockChain returns size blocks, each a child of the previous one, the
// first being a child of parent.
func (bg *BlockGenerator) BlockChain(parent *externalapi.DomainBlock, size int) []*externalapi.DomainBlock {
	return bg.BlockChainWithDifficulty(parent, size, parent.Difficulty().Int64())
}

// BlockChainWithDifficulty is BlockChain with an explicit difficulty for
// every generated block.
func (bg *BlockGenerator) BlockChainWithDifficulty(parent *externalapi.DomainBlock, size int, difficulty int64) []*externalapi.DomainBlock {
	chain := make([]*externalapi.DomainBlock, 0, size)
	for i := 0; i < size; i++ {
		parent = bg.CreateChildBlockWithDifficulty(parent, difficulty)
		chain = append(chain, parent)
	}
	return chain
}
