package model

import (
	"github.com/kaspanet/chainsyncd/domain/consensus/model/externalapi"
	"github.com/kaspanet/chainsyncd/domain/consensus/utils/hashset"
)

// BlockStoreReader is the read-only view of a BlockStore needed to walk
// block families.
type BlockStoreReader interface {
	BlockByHash(blockHash *externalapi.BlockHash) (*externalapi.DomainBlock, error)
	BlocksByNumber(number uint64) ([]*externalapi.DomainBlock, error)
}

// FamilyResolver computes ancestor and uncle relationships over a block store.
type FamilyResolver interface {
	Family(block *externalapi.DomainBlock, depth int) (hashset.HashSet, error)
	Ancestors(block *externalapi.DomainBlock, depth int) (hashset.HashSet, error)
	Uncles(block *externalapi.DomainBlock, depth int) (hashset.HashSet, error)
	UnclesHeaders(block *externalapi.DomainBlock, depth int) ([]*externalapi.DomainBlockHeader, error)
	UsedUncles(block *externalapi.DomainBlock, depth int) (hashset.HashSet, error)
	ValidateUncles(block *externalapi.DomainBlock, depth int) error
}
