package blocksyncservice

import (
	"math/big"

	"github.com/kaspanet/chainsyncd/domain/consensus/model"
	"github.com/kaspanet/chainsyncd/domain/consensus/model/externalapi"
	"github.com/kaspanet/chainsyncd/domain/consensus/ruleerrors"
	"github.com/kaspanet/chainsyncd/infrastructure/metrics"
	"github.com/pkg/errors"
)

// ProcessBlock is the main workhorse for admitting blocks. It includes
// functionality such as rejecting structurally invalid blocks, ignoring
// duplicates, orphan handling, and connecting blocks to the chain along
// with every orphan waiting on them.
//
// sender is the peer the block came from, nil for locally produced
// blocks. Missing parents are requested from peers unless isFromFastSync
// is set, in which case the sync session is expected to deliver them.
//
// A rule error is returned along with an InvalidBlock result when the block
// fails validation. Rule errors of released orphans are logged and never
// returned.
//
// This function is safe for concurrent access.
func (s *BlockSyncService) ProcessBlock(sender *externalapi.PeerID, block *externalapi.DomainBlock,
	isFromFastSync bool) (*model.BlockProcessResult, error) {

	if block == nil || block.Header == nil {
		return nil, errors.New("cannot process a nil block")
	}

	s.processLock.Lock()
	defer s.processLock.Unlock()

	result, err := s.processBlockNoLock(sender, block, isFromFastSync)
	metrics.IncImportResult(result.Result.String())
	if err != nil {
		return result, err
	}

	s.processedBlocks++
	if s.cfg.OrphanReleaseInterval > 0 && s.processedBlocks%s.cfg.OrphanReleaseInterval == 0 {
		best, err := s.blockStore.BestBlock()
		if err != nil {
			return result, err
		}
		s.releaseOrphansBelow(best.Number())
	}
	return result, nil
}

func (s *BlockSyncService) processBlockNoLock(sender *externalapi.PeerID, block *externalapi.DomainBlock,
	isFromFastSync bool) (*model.BlockProcessResult, error) {

	blockHash := block.Hash()
	log.Tracef("Processing block %s at height %d", blockHash, block.Number())
	result := model.NewBlockProcessResult(blockHash, model.InvalidBlock)

	err := checkBlockSanity(block)
	if err != nil {
		return result, err
	}

	isTooAdvanced, err := s.isBlockTooAdvanced(block)
	if err != nil {
		return result, err
	}
	if isTooAdvanced {
		log.Debugf("Ignoring block %s at height %d: too far above the best block", blockHash, block.Number())
		result.Result = model.Ignored
		return result, nil
	}

	s.nodeInformation.AddBlockToNode(blockHash, sender)

	// The block must not already exist in the store or as an orphan.
	if s.blockStore.HasBlock(blockHash) || s.IsKnownOrphan(blockHash) {
		log.Tracef("Already have block %s", blockHash)
		result.Result = model.Exist
		return result, nil
	}

	if block.IsGenesis() {
		if s.blockStore.Count() > 0 {
			return result, errors.Wrapf(ruleerrors.ErrInvalidGenesis,
				"block %s is a genesis block of another chain", blockHash)
		}
	} else if !s.blockStore.HasBlock(block.ParentHash()) {
		// Some orphans during fast sync are a normal part of the
		// process, so don't report them to the default logs.
		if isFromFastSync {
			log.Debugf("Adding orphan block %s with parent %s", blockHash, block.ParentHash())
		} else {
			log.Infof("Adding orphan block %s with parent %s", blockHash, block.ParentHash())
		}
		if !s.addOrphanBlock(block.Clone(), sender) {
			log.Debugf("Dropped orphan block %s: the orphan pool is full", blockHash)
			result.Result = model.Ignored
			return result, nil
		}
		if !isFromFastSync {
			s.requestMissingAncestors(blockHash, sender)
		}
		result.Result = model.NoParent
		return result, nil
	}

	importResult, err := s.connectBlock(block, false, result)
	if err != nil {
		return result, err
	}
	result.Result = importResult

	// Accept any orphan blocks that depend on this block (they are
	// no longer orphans) and repeat for those accepted blocks until
	// there are no more.
	err = s.processOrphans(blockHash, result)
	if err != nil {
		return result, err
	}
	return result, nil
}

// connectBlock stores a block whose parent is stored, or the genesis block
// of an empty store. The block becomes the best block if its cumulative
// work is strictly greater than the best block's.
//
// This function MUST be called with the process lock held.
func (s *BlockSyncService) connectBlock(block *externalapi.DomainBlock, wasUnorphaned bool,
	result *model.BlockProcessResult) (model.ImportResult, error) {

	blockHash := block.Hash()
	totalWork := new(big.Int).Set(block.Difficulty())
	if !block.IsGenesis() {
		parent, err := s.blockStore.BlockByHash(block.ParentHash())
		if err != nil {
			return model.InvalidBlock, err
		}
		err = s.checkBlockInContext(block, parent)
		if err != nil {
			return model.InvalidBlock, err
		}
		parentTotalWork, err := s.blockStore.TotalWork(parent.Hash())
		if err != nil {
			return model.InvalidBlock, err
		}
		totalWork.Add(totalWork, parentTotalWork)
	}

	oldBestHash := s.blockStore.BestBlockHash()
	isMainChain := oldBestHash == nil || totalWork.Cmp(s.blockStore.BestTotalWork()) > 0
	err := s.blockStore.SaveBlock(block, totalWork, isMainChain)
	if err != nil {
		return model.InvalidBlock, err
	}

	importResult := model.ImportedNotBest
	if isMainChain {
		importResult = model.ImportedBest
	}
	result.Connected[*blockHash] = importResult
	log.Debugf("Connected block %s at height %d with total work %s: %s",
		blockHash, block.Number(), totalWork, importResult)

	s.sendNotification(NTBlockConnected, &BlockConnectedNotificationData{
		Block:         block,
		Result:        importResult,
		WasUnorphaned: wasUnorphaned,
	})

	if isMainChain {
		metrics.SetBestBlock(block.Number(), totalWork)
		err = s.notifyChainChanged(oldBestHash, block)
		if err != nil {
			return importResult, err
		}
	}
	return importResult, nil
}

// notifyChainChanged sends an NTChainChanged notification describing the
// move of the best block from oldBestHash to newBest.
func (s *BlockSyncService) notifyChainChanged(oldBestHash *externalapi.BlockHash, newBest *externalapi.DomainBlock) error {
	removed, added, err := s.chainUpdates(oldBestHash, newBest)
	if err != nil {
		return err
	}
	if len(removed) > 0 {
		log.Infof("Reorganized the main chain: %d blocks removed, %d added, new best block %s at height %d",
			len(removed), len(added), newBest.Hash(), newBest.Number())
		metrics.ObserveReorganization(len(removed))
	}

	s.sendNotification(NTChainChanged, &ChainChangedNotificationData{
		OldBestHash:             oldBestHash,
		NewBestHash:             newBest.Hash(),
		RemovedChainBlockHashes: removed,
		AddedChainBlockHashes:   added,
	})
	return nil
}

// chainUpdates walks back from the old and the new best blocks to their
// common ancestor.
func (s *BlockSyncService) chainUpdates(oldBestHash *externalapi.BlockHash,
	newBest *externalapi.DomainBlock) (removed, added []*externalapi.BlockHash, err error) {

	if oldBestHash == nil {
		return nil, []*externalapi.BlockHash{newBest.Hash()}, nil
	}
	oldCurrent, err := s.blockStore.BlockByHash(oldBestHash)
	if err != nil {
		return nil, nil, err
	}
	newCurrent := newBest

	for !oldCurrent.Hash().Equal(newCurrent.Hash()) {
		if oldCurrent.IsGenesis() && newCurrent.IsGenesis() {
			return nil, nil, errors.Errorf("blocks %s and %s have no common ancestor", oldBestHash, newBest.Hash())
		}
		if oldCurrent.Number() >= newCurrent.Number() {
			removed = append(removed, oldCurrent.Hash())
			oldCurrent, err = s.blockStore.BlockByHash(oldCurrent.ParentHash())
			if err != nil {
				return nil, nil, err
			}
		}
		if newCurrent.Number() > oldCurrent.Number() {
			added = append(added, newCurrent.Hash())
			newCurrent, err = s.blockStore.BlockByHash(newCurrent.ParentHash())
			if err != nil {
				return nil, nil, err
			}
		}
	}

	for i, j := 0, len(added)-1; i < j; i, j = i+1, j-1 {
		added[i], added[j] = added[j], added[i]
	}
	return removed, added, nil
}
