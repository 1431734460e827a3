package blocksyncservice

import (
	"github.com/kaspanet/chainsyncd/domain/consensus/model/externalapi"
	"github.com/kaspanet/chainsyncd/domain/consensus/ruleerrors"
	"github.com/pkg/errors"
)

// checkBlockSanity performs the structural checks that need nothing but
// the block itself.
func checkBlockSanity(block *externalapi.DomainBlock) error {
	header := block.Header
	if header.ParentHash == nil {
		return errors.Wrapf(ruleerrors.ErrMissingParentHash, "block %s has no parent hash", block.Hash())
	}
	if header.ParentHash.Len() != externalapi.BlockHashSize {
		return errors.Wrapf(ruleerrors.ErrInvalidHashLength, "block %s has a parent hash of %d bytes",
			block.Hash(), header.ParentHash.Len())
	}
	if header.UnclesHash == nil || header.UnclesHash.Len() != externalapi.BlockHashSize {
		return errors.Wrapf(ruleerrors.ErrInvalidHashLength, "block %s has a malformed uncles hash", block.Hash())
	}
	for i, uncle := range block.Uncles {
		if uncle == nil {
			return errors.Wrapf(ruleerrors.ErrBadUnclesHash, "block %s has a nil uncle at index %d", block.Hash(), i)
		}
	}

	if header.Difficulty == nil {
		return errors.Wrapf(ruleerrors.ErrMissingDifficulty, "block %s has no difficulty", block.Hash())
	}
	if header.Difficulty.Sign() < 0 {
		return errors.Wrapf(ruleerrors.ErrNegativeDifficulty, "block %s has difficulty %s",
			block.Hash(), header.Difficulty)
	}

	pointsToZeroHash := header.ParentHash.Equal(externalapi.ZeroHash())
	if block.IsGenesis() && !pointsToZeroHash {
		return errors.Wrapf(ruleerrors.ErrInvalidGenesis, "block %s is at height 0 but its parent is %s",
			block.Hash(), header.ParentHash)
	}
	if !block.IsGenesis() && pointsToZeroHash {
		return errors.Wrapf(ruleerrors.ErrInvalidGenesis, "block %s at height %d points to the zero hash",
			block.Hash(), block.Number())
	}
	return nil
}

// checkBlockInContext performs the checks that need the block's parent.
func (s *BlockSyncService) checkBlockInContext(block *externalapi.DomainBlock, parent *externalapi.DomainBlock) error {
	if block.Number() != parent.Number()+1 {
		return errors.Wrapf(ruleerrors.ErrUnexpectedBlockNumber, "block %s is at height %d while its "+
			"parent %s is at height %d", block.Hash(), block.Number(), parent.Hash(), parent.Number())
	}
	if s.cfg.ValidateUncles {
		return s.familyResolver.ValidateUncles(block, s.cfg.UncleGenerationLimit)
	}
	return nil
}

// isBlockTooAdvanced returns whether block is so far above the best block
// that holding it would waste memory.
func (s *BlockSyncService) isBlockTooAdvanced(block *externalapi.DomainBlock) (bool, error) {
	if s.cfg.MaxBlockDistance == 0 || s.blockStore.BestBlockHash() == nil {
		return false, nil
	}
	best, err := s.blockStore.BestBlock()
	if err != nil {
		return false, err
	}
	return block.Number() > best.Number()+s.cfg.MaxBlockDistance, nil
}
