package blocksyncservice

import (
	"github.com/kaspanet/chainsyncd/domain/consensus/model/externalapi"
)

// requestMissingAncestors asks peers for the blocks missing at the root of
// the orphan's pooled ancestry. Peers known to have a missing block are
// asked first; otherwise the peer that sent the orphan is. Requests run in
// their own goroutines so the caller never waits on the network.
func (s *BlockSyncService) requestMissingAncestors(orphanHash *externalapi.BlockHash, sender *externalapi.PeerID) {
	if s.blockRequester == nil {
		return
	}

	for _, missingHash := range s.OrphanMissingAncestorHashes(orphanHash) {
		peers := s.nodeInformation.NodesByBlock(missingHash)
		if len(peers) == 0 && sender != nil {
			peers = []*externalapi.PeerID{sender}
		}

		missingHash := missingHash
		log.Debugf("Requesting missing block %s from %d peers", missingHash, len(peers))
		spawn("BlockSyncService.requestMissingAncestors", func() {
			s.blockRequester.RequestBlock(missingHash, peers)
		})
	}
}

// requestEvictedChildren asks again for the children of parentHash that
// were evicted from a full orphan pool. With their parent connected they
// no longer need the pool.
func (s *BlockSyncService) requestEvictedChildren(parentHash *externalapi.BlockHash) {
	for _, child := range s.takeEvictedChildren(parentHash) {
		if s.blockStore.HasBlock(child.hash) || s.IsKnownOrphan(child.hash) {
			continue
		}
		peers := s.nodeInformation.NodesByBlock(child.hash)
		if len(peers) == 0 && child.sender != nil {
			peers = []*externalapi.PeerID{child.sender}
		}

		childHash := child.hash
		log.Debugf("Requesting evicted orphan %s from %d peers", childHash, len(peers))
		spawn("BlockSyncService.requestEvictedChildren", func() {
			s.blockRequester.RequestBlock(childHash, peers)
		})
	}
}
