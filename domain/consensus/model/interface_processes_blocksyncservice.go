package model

import (
	"github.com/kaspanet/chainsyncd/domain/consensus/model/externalapi"
	"github.com/kaspanet/chainsyncd/domain/consensus/utils/hashset"
)

// BlockSyncService admits blocks arriving from peers in any order, connects
// the ones whose parent is known, and holds back the rest until their
// ancestry arrives.
type BlockSyncService interface {
	ProcessBlock(sender *externalapi.PeerID, block *externalapi.DomainBlock, isFromFastSync bool) (*BlockProcessResult, error)

	BestBlock() (*externalapi.DomainBlock, error)
	BlockByHash(blockHash *externalapi.BlockHash) (*externalapi.DomainBlock, error)
	BlockByNumber(number uint64) (*externalapi.DomainBlock, error)
	Family(block *externalapi.DomainBlock, depth int) (hashset.HashSet, error)
	Uncles(block *externalapi.DomainBlock, depth int) (hashset.HashSet, error)

	IsKnownOrphan(blockHash *externalapi.BlockHash) bool
	OrphanCount() int
	OrphanMissingAncestorHashes(orphanHash *externalapi.BlockHash) []*externalapi.BlockHash
	RemoveOrphansFrom(sender *externalapi.PeerID) int
}

// BlockRequester asks peers for a block. Implementations must not block;
// the request is fire-and-forget.
type BlockRequester interface {
	RequestBlock(blockHash *externalapi.BlockHash, peers []*externalapi.PeerID)
}
