package blocksyncservice

import (
	"time"

	"github.com/kaspanet/chainsyncd/domain/consensus/model"
	"github.com/kaspanet/chainsyncd/domain/consensus/model/externalapi"
	"github.com/kaspanet/chainsyncd/domain/consensus/ruleerrors"
	"github.com/kaspanet/chainsyncd/infrastructure/metrics"
)

// orphanBlock represents a block that we don't yet have the parent for. It
// is a normal block plus the peer that sent it and an expiration time to
// prevent caching the orphan forever.
type orphanBlock struct {
	block      *externalapi.DomainBlock
	sender     *externalapi.PeerID
	expiration time.Time
}

// evictedOrphansPerPoolSlot bounds how many evicted orphans are remembered,
// relative to the orphan pool size.
const evictedOrphansPerPoolSlot = 16

// evictedOrphan remembers an orphan dropped from a full pool so that it can
// be requested again once its parent is connected.
type evictedOrphan struct {
	hash   *externalapi.BlockHash
	number uint64
	sender *externalapi.PeerID
}

// IsKnownOrphan returns whether the passed hash is currently a known orphan.
// Keep in mind that only a limited number of orphans are held onto for a
// limited amount of time, so this function must not be used as an absolute
// way to test if a block is an orphan block. A full block (as opposed to just
// its hash) must be passed to ProcessBlock for that purpose.
//
// This function is safe for concurrent access.
func (s *BlockSyncService) IsKnownOrphan(hash *externalapi.BlockHash) bool {
	s.orphanLock.RLock()
	defer s.orphanLock.RUnlock()

	_, exists := s.orphans[*hash]
	return exists
}

// OrphanCount returns the number of blocks in the orphan pool.
//
// This function is safe for concurrent access.
func (s *BlockSyncService) OrphanCount() int {
	s.orphanLock.RLock()
	defer s.orphanLock.RUnlock()

	return len(s.orphans)
}

// OrphanMissingAncestorHashes returns the missing ancestors at the root of
// the orphan's pooled ancestry. It returns nothing if the orphan is not
// pooled.
//
// This function is safe for concurrent access.
func (s *BlockSyncService) OrphanMissingAncestorHashes(orphanHash *externalapi.BlockHash) []*externalapi.BlockHash {
	s.orphanLock.RLock()
	defer s.orphanLock.RUnlock()

	return s.orphanMissingAncestorHashes(orphanHash)
}

// orphanMissingAncestorHashes must be called with the orphan lock held.
func (s *BlockSyncService) orphanMissingAncestorHashes(orphanHash *externalapi.BlockHash) []*externalapi.BlockHash {
	missingAncestorsHashes := make([]*externalapi.BlockHash, 0)

	current := orphanHash
	visited := make(map[externalapi.BlockHash]struct{})
	for {
		if _, ok := visited[*current]; ok {
			break
		}
		visited[*current] = struct{}{}

		orphan, orphanExists := s.orphans[*current]
		if !orphanExists {
			if !current.Equal(orphanHash) && !s.blockStore.HasBlock(current) {
				missingAncestorsHashes = append(missingAncestorsHashes, current)
			}
			break
		}
		current = orphan.block.ParentHash()
	}
	return missingAncestorsHashes
}

// RemoveOrphansFrom drops every orphan sent by sender and returns how many
// were dropped. It lets the owner of a cancelled sync session discard what
// that session left behind.
//
// This function is safe for concurrent access.
func (s *BlockSyncService) RemoveOrphansFrom(sender *externalapi.PeerID) int {
	s.orphanLock.Lock()
	defer s.orphanLock.Unlock()

	removed := 0
	for _, orphan := range s.orphans {
		if orphan.sender.Equal(sender) {
			s.removeOrphanBlockNoLock(orphan)
			removed++
		}
	}
	if removed > 0 {
		log.Debugf("Removed %d orphans sent by %s", removed, sender)
		metrics.IncEvictedOrphans("sender", removed)
		metrics.SetOrphanCount(len(s.orphans))
	}
	return removed
}

// removeOrphanBlock removes the passed orphan block from the orphan pool and
// previous orphan index.
func (s *BlockSyncService) removeOrphanBlock(orphan *orphanBlock) {
	s.orphanLock.Lock()
	defer s.orphanLock.Unlock()

	s.removeOrphanBlockNoLock(orphan)
}

func (s *BlockSyncService) removeOrphanBlockNoLock(orphan *orphanBlock) {
	// Remove the orphan block from the orphan pool.
	orphanHash := orphan.block.Hash()
	delete(s.orphans, *orphanHash)
	if s.newestOrphan == orphan {
		s.newestOrphan = nil
	}

	// Remove the reference from the previous orphan index too.
	parentHash := orphan.block.ParentHash()
	orphans := s.prevOrphans[*parentHash]
	// An indexing for loop is intentionally used over a range here as range
	// does not reevaluate the slice on each iteration nor does it adjust the
	// index for the modified slice.
	for i := 0; i < len(orphans); i++ {
		if orphans[i].block.Hash().Equal(orphanHash) {
			orphans = append(orphans[:i], orphans[i+1:]...)
			i--
		}
	}

	// Remove the map entry altogether if there are no longer any orphans
	// which depend on the parent hash.
	if len(orphans) == 0 {
		delete(s.prevOrphans, *parentHash)
		return
	}
	s.prevOrphans[*parentHash] = orphans
}

// isNewerOrphan returns whether block should be considered newer than the
// pooled orphan, going by timestamp and then by height.
func isNewerOrphan(block *externalapi.DomainBlock, orphan *orphanBlock) bool {
	if block.Header.Timestamp != orphan.block.Header.Timestamp {
		return block.Header.Timestamp > orphan.block.Header.Timestamp
	}
	return block.Number() > orphan.block.Number()
}

// addOrphanBlock adds the passed block (which is already determined to be
// an orphan prior calling this function) to the orphan pool. It lazily cleans
// up any expired blocks so a separate cleanup poller doesn't need to be run.
// It also imposes a maximum limit on the number of outstanding orphan
// blocks and will remove the newest orphan block if the limit is exceeded.
// It returns whether the block was added.
func (s *BlockSyncService) addOrphanBlock(block *externalapi.DomainBlock, sender *externalapi.PeerID) bool {
	s.orphanLock.Lock()
	defer s.orphanLock.Unlock()

	// Remove expired orphan blocks.
	now := s.timeNow()
	expired := 0
	for _, oBlock := range s.orphans {
		if now.After(oBlock.expiration) {
			s.removeOrphanBlockNoLock(oBlock)
			expired++
			continue
		}

		// Update the newest orphan block pointer so it can be discarded
		// in case the orphan pool fills up.
		if s.newestOrphan == nil || isNewerOrphan(oBlock.block, s.newestOrphan) {
			s.newestOrphan = oBlock
		}
	}
	if expired > 0 {
		log.Debugf("Removed %d expired orphans", expired)
		metrics.IncEvictedOrphans("expired", expired)
	}

	// Limit orphan blocks to prevent memory exhaustion.
	if len(s.orphans)+1 > s.cfg.MaxOrphanBlocks {
		log.Warnf("The orphan pool is full with %d blocks", len(s.orphans))
		// If the new orphan is newer than the newest orphan on the orphan
		// pool, don't add it.
		if s.newestOrphan == nil || isNewerOrphan(block, s.newestOrphan) {
			s.rememberEvictedOrphanNoLock(block, sender)
			metrics.IncEvictedOrphans("full", 1)
			return false
		}
		// Remove the newest orphan to make room for the added one.
		s.rememberEvictedOrphanNoLock(s.newestOrphan.block, s.newestOrphan.sender)
		s.removeOrphanBlockNoLock(s.newestOrphan)
		s.newestOrphan = nil
		metrics.IncEvictedOrphans("full", 1)
	}

	oBlock := &orphanBlock{
		block:      block,
		sender:     sender,
		expiration: now.Add(s.cfg.OrphanExpiration),
	}
	s.orphans[*block.Hash()] = oBlock

	// Add to parent hash lookup index for faster dependency lookups.
	parentHash := block.ParentHash()
	s.prevOrphans[*parentHash] = append(s.prevOrphans[*parentHash], oBlock)

	metrics.SetOrphanCount(len(s.orphans))
	return true
}

// rememberEvictedOrphanNoLock records block, dropped from the full pool,
// under its parent hash. Nothing is recorded when blocks are never requested
// or when the record is full.
func (s *BlockSyncService) rememberEvictedOrphanNoLock(block *externalapi.DomainBlock, sender *externalapi.PeerID) {
	if s.blockRequester == nil || s.evictedCount >= s.cfg.MaxOrphanBlocks*evictedOrphansPerPoolSlot {
		return
	}
	blockHash := block.Hash()
	parentHash := block.ParentHash()
	for _, child := range s.evictedOrphans[*parentHash] {
		if child.hash.Equal(blockHash) {
			return
		}
	}
	s.evictedOrphans[*parentHash] = append(s.evictedOrphans[*parentHash], &evictedOrphan{
		hash:   blockHash,
		number: block.Number(),
		sender: sender,
	})
	s.evictedCount++
}

// takeEvictedChildren returns and forgets the evicted orphans whose parent
// is parentHash.
func (s *BlockSyncService) takeEvictedChildren(parentHash *externalapi.BlockHash) []*evictedOrphan {
	s.orphanLock.Lock()
	defer s.orphanLock.Unlock()

	children, ok := s.evictedOrphans[*parentHash]
	if !ok {
		return nil
	}
	delete(s.evictedOrphans, *parentHash)
	s.evictedCount -= len(children)
	return children
}

// releaseOrphansBelow drops every orphan whose height is more than the
// release depth below bestNumber. Such orphans belong to forks too old to
// ever become the best chain.
func (s *BlockSyncService) releaseOrphansBelow(bestNumber uint64) {
	if bestNumber <= s.cfg.OrphanReleaseDepth {
		return
	}
	minNumber := bestNumber - s.cfg.OrphanReleaseDepth

	s.orphanLock.Lock()
	defer s.orphanLock.Unlock()

	released := 0
	for _, orphan := range s.orphans {
		if orphan.block.Number() < minNumber {
			s.removeOrphanBlockNoLock(orphan)
			released++
		}
	}
	for parentHash, evicted := range s.evictedOrphans {
		kept := evicted[:0]
		for _, child := range evicted {
			if child.number >= minNumber {
				kept = append(kept, child)
			}
		}
		s.evictedCount -= len(evicted) - len(kept)
		if len(kept) == 0 {
			delete(s.evictedOrphans, parentHash)
			continue
		}
		s.evictedOrphans[parentHash] = kept
	}
	if released > 0 {
		log.Debugf("Released %d orphans below height %d", released, minNumber)
		metrics.IncEvictedOrphans("released", released)
		metrics.SetOrphanCount(len(s.orphans))
	}
}

// processOrphans determines if there are any orphans which depend on the passed
// block hash (they are no longer orphans if true) and potentially accepts them.
// It repeats the process for the newly accepted blocks (to detect further
// orphans which may no longer be orphans) until there are no more.
//
// This function MUST be called with the process lock held.
func (s *BlockSyncService) processOrphans(hash *externalapi.BlockHash, result *model.BlockProcessResult) error {
	// Start with processing at least the passed hash. Leave a little room
	// for additional orphan blocks that need to be processed without
	// needing to grow the array in the common case.
	processHashes := make([]*externalapi.BlockHash, 0, 10)
	processHashes = append(processHashes, hash)
	for len(processHashes) > 0 {
		// Pop the first hash to process from the slice.
		processHash := processHashes[0]
		processHashes[0] = nil // Prevent GC leak.
		processHashes = processHashes[1:]

		s.requestEvictedChildren(processHash)

		s.orphanLock.RLock()
		waiting := append([]*orphanBlock(nil), s.prevOrphans[*processHash]...)
		s.orphanLock.RUnlock()

		for _, orphan := range waiting {
			orphanHash := orphan.block.Hash()
			s.removeOrphanBlock(orphan)

			// Since we don't want to reject the original block because of
			// a bad unorphaned child, only return an error if it's not a RuleError.
			_, err := s.connectBlock(orphan.block, true, result)
			if err != nil {
				if !ruleerrors.IsRuleError(err) {
					return err
				}
				log.Warnf("Verification failed for orphan block %s: %s", orphanHash, err)
				continue
			}

			// Add this block to the list of blocks to process so
			// any orphan blocks that depend on this block are
			// handled too.
			processHashes = append(processHashes, orphanHash)
		}
	}
	metrics.SetOrphanCount(s.OrphanCount())
	return nil
}
