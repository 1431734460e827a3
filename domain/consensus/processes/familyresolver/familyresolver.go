package familyresolver

import (
	"github.com/kaspanet/chainsyncd/domain/consensus/database"
	"github.com/kaspanet/chainsyncd/domain/consensus/model"
	"github.com/kaspanet/chainsyncd/domain/consensus/model/externalapi"
	"github.com/kaspanet/chainsyncd/domain/consensus/utils/hashset"
)

// familyResolver computes the ancestors, siblings and uncles of blocks.
// It keeps no state of its own: every call reads the store anew.
type familyResolver struct {
	blockStore model.BlockStoreReader
	maxUncles  int
}

// New instantiates a new FamilyResolver
func New(blockStore model.BlockStoreReader, maxUncles int) model.FamilyResolver {
	return &familyResolver{
		blockStore: blockStore,
		maxUncles:  maxUncles,
	}
}

// ancestorChain returns the ancestors of block with a height of at least
// block.Number()-depth, parent first. The walk stops early at the genesis
// block or at the first ancestor missing from the store.
func (fr *familyResolver) ancestorChain(block *externalapi.DomainBlock, depth int) ([]*externalapi.DomainBlock, error) {
	if depth <= 0 || block.IsGenesis() {
		return nil, nil
	}

	minNumber := uint64(0)
	if uint64(depth) < block.Number() {
		minNumber = block.Number() - uint64(depth)
	}

	chain := make([]*externalapi.DomainBlock, 0, depth)
	current := block
	for !current.IsGenesis() {
		parent, err := fr.blockStore.BlockByHash(current.ParentHash())
		if database.IsNotFoundError(err) {
			log.Debugf("Ancestry of block %s is missing block %s", block.Hash(), current.ParentHash())
			break
		}
		if err != nil {
			return nil, err
		}
		if parent.Number() < minNumber || parent.Number() >= current.Number() {
			break
		}
		chain = append(chain, parent)
		current = parent
	}
	return chain, nil
}

// Ancestors returns the hashes of block's ancestors up to depth generations back.
func (fr *familyResolver) Ancestors(block *externalapi.DomainBlock, depth int) (hashset.HashSet, error) {
	chain, err := fr.ancestorChain(block, depth)
	if err != nil {
		return nil, err
	}
	ancestors := hashset.New()
	for _, ancestor := range chain {
		ancestors.Add(ancestor.Hash())
	}
	return ancestors, nil
}

// Family returns the ancestors of block up to depth generations back,
// together with every other child of each ancestor that lies within the
// same range of heights. block itself is never part of its family.
func (fr *familyResolver) Family(block *externalapi.DomainBlock, depth int) (hashset.HashSet, error) {
	chain, err := fr.ancestorChain(block, depth)
	if err != nil {
		return nil, err
	}

	family := hashset.New()
	for i, ancestor := range chain {
		family.Add(ancestor.Hash())
		if i == len(chain)-1 {
			break
		}

		grandparentHash := chain[i+1].Hash()
		siblings, err := fr.blockStore.BlocksByNumber(ancestor.Number())
		if err != nil {
			return nil, err
		}
		for _, sibling := range siblings {
			if sibling.ParentHash().Equal(grandparentHash) {
				family.Add(sibling.Hash())
			}
		}
	}
	family.Remove(block.Hash())
	return family, nil
}

// UsedUncles returns the hashes of the uncles already included by block's
// ancestors up to depth generations back.
func (fr *familyResolver) UsedUncles(block *externalapi.DomainBlock, depth int) (hashset.HashSet, error) {
	chain, err := fr.ancestorChain(block, depth)
	if err != nil {
		return nil, err
	}
	used := hashset.New()
	for _, ancestor := range chain {
		for _, uncle := range ancestor.Uncles {
			used.Add(uncle.Hash())
		}
	}
	return used, nil
}

// Uncles returns the members of block's family that are neither its direct
// ancestors nor already included as uncles by those ancestors.
func (fr *familyResolver) Uncles(block *externalapi.DomainBlock, depth int) (hashset.HashSet, error) {
	family, err := fr.Family(block, depth)
	if err != nil {
		return nil, err
	}
	ancestors, err := fr.Ancestors(block, depth)
	if err != nil {
		return nil, err
	}
	used, err := fr.UsedUncles(block, depth)
	if err != nil {
		return nil, err
	}
	return family.Subtract(ancestors).Subtract(used), nil
}

// UnclesHeaders returns the headers of the blocks returned by Uncles,
// ordered by hash.
func (fr *familyResolver) UnclesHeaders(block *externalapi.DomainBlock, depth int) ([]*externalapi.DomainBlockHeader, error) {
	uncles, err := fr.Uncles(block, depth)
	if err != nil {
		return nil, err
	}

	headers := make([]*externalapi.DomainBlockHeader, 0, len(uncles))
	for _, uncleHash := range uncles.ToSlice() {
		uncle, err := fr.blockStore.BlockByHash(uncleHash)
		if database.IsNotFoundError(err) {
			// Removed from the store since Uncles walked it
			continue
		}
		if err != nil {
			return nil, err
		}
		headers = append(headers, uncle.Header)
	}
	return headers, nil
}
