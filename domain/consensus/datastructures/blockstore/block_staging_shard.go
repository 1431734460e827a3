package blockstore

import (
	"math/big"

	"github.com/kaspanet/chainsyncd/domain/consensus/database/serialization"
	"github.com/kaspanet/chainsyncd/domain/consensus/model/externalapi"
	"github.com/kaspanet/chainsyncd/infrastructure/db/database"
	"github.com/pkg/errors"
)

// blockStagingShard collects every index change of a single store mutation
// so that the database write and the in-memory update happen together.
type blockStagingShard struct {
	store *blockStore

	toAdd      *blockEntry
	blockToAdd *externalapi.DomainBlock
	toDelete   *blockEntry

	canonicalToSet    map[uint64]*externalapi.BlockHash
	canonicalToDelete map[uint64]struct{}

	bestChanged bool
	newBest     *blockEntry
}

func (bs *blockStore) newStagingShard() *blockStagingShard {
	return &blockStagingShard{
		store:             bs,
		canonicalToSet:    make(map[uint64]*externalapi.BlockHash),
		canonicalToDelete: make(map[uint64]struct{}),
	}
}

// SaveBlock inserts or overwrites block. When isMainChain is set the block
// becomes the main chain block at its height, and if its total work is
// strictly greater than the best block's it becomes the new best block,
// the main chain index being rewritten along its ancestry.
func (bs *blockStore) SaveBlock(block *externalapi.DomainBlock, totalWork *big.Int, isMainChain bool) error {
	if block == nil || block.Header == nil {
		return errors.New("cannot save a nil block")
	}
	if totalWork == nil {
		return errors.Errorf("cannot save block %s without total work", block.Hash())
	}

	bs.lock.Lock()
	defer bs.lock.Unlock()

	shard := bs.newStagingShard()
	entry := bs.newEntry(block, totalWork)
	shard.toAdd = entry
	shard.blockToAdd = block.Clone()

	if isMainChain {
		shard.canonicalToSet[entry.number] = entry.hash
		if bs.best == nil || totalWork.Cmp(bs.best.totalWork) > 0 {
			shard.setBest(entry)
		}
	}

	return shard.commit()
}

// RemoveBlock deletes a single block. If it was the best block, the
// heaviest remaining block takes its place.
func (bs *blockStore) RemoveBlock(blockHash *externalapi.BlockHash) error {
	bs.lock.Lock()
	defer bs.lock.Unlock()

	entry, ok := bs.entries[*blockHash]
	if !ok {
		return errors.Wrapf(database.ErrNotFound, "block %s not found", blockHash)
	}

	shard := bs.newStagingShard()
	shard.toDelete = entry
	if canonicalHash, ok := bs.canonical[entry.number]; ok && canonicalHash.Equal(entry.hash) {
		shard.canonicalToDelete[entry.number] = struct{}{}
	}
	if bs.best == entry {
		shard.setBest(bs.heaviestEntry(entry))
	}

	return shard.commit()
}

// setBest stages newBest as the best block and rewrites the main chain
// index from newBest back to the first ancestor already on it. Main chain
// entries above newBest's height are dropped.
func (bss *blockStagingShard) setBest(newBest *blockEntry) {
	bss.bestChanged = true
	bss.newBest = newBest

	bs := bss.store
	for number := bs.canonicalTop; number > 0; number-- {
		if newBest != nil && number <= newBest.number {
			break
		}
		if _, ok := bs.canonical[number]; ok {
			bss.canonicalToDelete[number] = struct{}{}
		}
	}
	if newBest == nil {
		if _, ok := bs.canonical[0]; ok {
			bss.canonicalToDelete[0] = struct{}{}
		}
		return
	}

	current := newBest
	for current != nil {
		canonicalHash, ok := bs.canonical[current.number]
		_, isDeleted := bss.canonicalToDelete[current.number]
		if ok && !isDeleted && canonicalHash.Equal(current.hash) && current != newBest {
			break
		}
		bss.canonicalToSet[current.number] = current.hash
		if current.number == 0 || current.parentHash == nil {
			break
		}
		current = bs.entries[*current.parentHash]
	}
}

func (bss *blockStagingShard) commit() error {
	bs := bss.store

	dbTx, err := bs.db.Begin()
	if err != nil {
		return err
	}
	defer dbTx.RollbackUnlessClosed()

	if bss.toAdd != nil {
		blockBytes, err := serialization.SerializeBlock(bss.blockToAdd, bss.toAdd.totalWork, bss.toAdd.sequence)
		if err != nil {
			return err
		}
		err = dbTx.Put(hashAsKey(bss.toAdd.hash), blockBytes)
		if err != nil {
			return err
		}
	}
	if bss.toDelete != nil {
		err = dbTx.Delete(hashAsKey(bss.toDelete.hash))
		if err != nil {
			return err
		}
	}
	for number := range bss.canonicalToDelete {
		if _, ok := bss.canonicalToSet[number]; ok {
			continue
		}
		err = dbTx.Delete(numberAsCanonicalKey(number))
		if err != nil {
			return err
		}
	}
	for number, hash := range bss.canonicalToSet {
		err = dbTx.Put(numberAsCanonicalKey(number), serialization.DomainHashToDbHash(hash))
		if err != nil {
			return err
		}
	}
	if bss.bestChanged {
		if bss.newBest == nil {
			err = dbTx.Delete(bestBlockKey)
		} else {
			err = dbTx.Put(bestBlockKey, serialization.DomainHashToDbHash(bss.newBest.hash))
		}
		if err != nil {
			return err
		}
	}

	err = dbTx.Commit()
	if err != nil {
		return err
	}

	bss.apply()
	return nil
}

// apply mirrors a committed shard into the in-memory indices. It must be
// called with the store lock held for writes.
func (bss *blockStagingShard) apply() {
	bs := bss.store

	if bss.toAdd != nil {
		bs.indexEntry(bss.toAdd)
		bs.cache.Add(*bss.toAdd.hash, bss.blockToAdd)
	}
	if bss.toDelete != nil {
		bs.unindexEntry(bss.toDelete)
		bs.cache.Remove(*bss.toDelete.hash)
	}
	for number := range bss.canonicalToDelete {
		delete(bs.canonical, number)
	}
	for number, hash := range bss.canonicalToSet {
		bs.canonical[number] = hash
		if number > bs.canonicalTop {
			bs.canonicalTop = number
		}
	}
	if bss.bestChanged {
		bs.best = bss.newBest
		if bs.best != nil && bs.canonicalTop > bs.best.number {
			bs.canonicalTop = bs.best.number
		}
	}
	if len(bs.canonical) == 0 {
		bs.canonicalTop = 0
	}
}
