package model

import (
	"math/big"

	"github.com/kaspanet/chainsyncd/domain/consensus/model/externalapi"
)

// BlockStore holds every connected block, including blocks on side chains,
// indexed by hash and by height, and tracks the block with the most
// cumulative work.
type BlockStore interface {
	SaveBlock(block *externalapi.DomainBlock, totalWork *big.Int, isMainChain bool) error
	RemoveBlock(blockHash *externalapi.BlockHash) error

	HasBlock(blockHash *externalapi.BlockHash) bool
	BlockByHash(blockHash *externalapi.BlockHash) (*externalapi.DomainBlock, error)
	BlockByNumber(number uint64) (*externalapi.DomainBlock, error)
	BlocksByNumber(number uint64) ([]*externalapi.DomainBlock, error)
	HashesByNumber(number uint64) []*externalapi.BlockHash
	TotalWork(blockHash *externalapi.BlockHash) (*big.Int, error)

	BestBlock() (*externalapi.DomainBlock, error)
	BestBlockHash() *externalapi.BlockHash
	BestTotalWork() *big.Int
	Count() int
}
