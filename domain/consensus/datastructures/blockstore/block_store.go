package blockstore

import (
	"math/big"
	"sort"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"github.com/kaspanet/chainsyncd/domain/consensus/database/serialization"
	"github.com/kaspanet/chainsyncd/domain/consensus/model"
	"github.com/kaspanet/chainsyncd/domain/consensus/model/externalapi"
	"github.com/kaspanet/chainsyncd/infrastructure/db/database"
	"github.com/pkg/errors"
)

var (
	blocksBucket    = database.MakeBucket([]byte("blocks"))
	canonicalBucket = database.MakeBucket([]byte("canonical"))
	bestBlockKey    = database.MakeBucket(nil).Key([]byte("best-block"))
)

// blockEntry is the in-memory index record of a stored block. Block bodies
// live in the database and the LRU cache.
type blockEntry struct {
	hash       *externalapi.BlockHash
	parentHash *externalapi.BlockHash
	number     uint64
	totalWork  *big.Int
	sequence   uint64
}

// blockStore represents a store of blocks
type blockStore struct {
	lock sync.RWMutex

	db    database.Database
	cache *lru.Cache

	entries      map[externalapi.BlockHash]*blockEntry
	heights      map[uint64][]*blockEntry
	canonical    map[uint64]*externalapi.BlockHash
	canonicalTop uint64
	best         *blockEntry
	nextSequence uint64
}

// New instantiates a new BlockStore over db, rebuilding its indices from
// the blocks already persisted there.
func New(db database.Database, cacheSize int) (model.BlockStore, error) {
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, errors.Wrapf(err, "failed creating a block cache of size %d", cacheSize)
	}
	bs := &blockStore{
		db:        db,
		cache:     cache,
		entries:   make(map[externalapi.BlockHash]*blockEntry),
		heights:   make(map[uint64][]*blockEntry),
		canonical: make(map[uint64]*externalapi.BlockHash),
	}
	err = bs.loadIndices()
	if err != nil {
		return nil, err
	}
	return bs, nil
}

func (bs *blockStore) loadIndices() error {
	blocksCursor, err := bs.db.Cursor(blocksBucket)
	if err != nil {
		return err
	}
	defer blocksCursor.Close()

	for blocksCursor.Next() {
		blockBytes, err := blocksCursor.Value()
		if err != nil {
			return err
		}
		block, totalWork, sequence, err := serialization.DeserializeBlock(blockBytes)
		if err != nil {
			return err
		}
		entry := &blockEntry{
			hash:       block.Hash(),
			parentHash: block.ParentHash(),
			number:     block.Number(),
			totalWork:  totalWork,
			sequence:   sequence,
		}
		bs.entries[*entry.hash] = entry
		bs.heights[entry.number] = append(bs.heights[entry.number], entry)
		if sequence >= bs.nextSequence {
			bs.nextSequence = sequence + 1
		}
	}
	for _, atHeight := range bs.heights {
		sort.Slice(atHeight, func(i, j int) bool {
			return atHeight[i].sequence < atHeight[j].sequence
		})
	}

	canonicalCursor, err := bs.db.Cursor(canonicalBucket)
	if err != nil {
		return err
	}
	defer canonicalCursor.Close()

	for canonicalCursor.Next() {
		key, err := canonicalCursor.Key()
		if err != nil {
			return err
		}
		number, err := serialization.KeyToBlockNumber(key.Suffix())
		if err != nil {
			return err
		}
		hashBytes, err := canonicalCursor.Value()
		if err != nil {
			return err
		}
		bs.canonical[number] = serialization.DbHashToDomainHash(hashBytes)
		if number > bs.canonicalTop {
			bs.canonicalTop = number
		}
	}

	bestHashBytes, err := bs.db.Get(bestBlockKey)
	if database.IsNotFoundError(err) {
		bs.best = bs.heaviestEntry(nil)
	} else if err != nil {
		return err
	} else {
		bestEntry, ok := bs.entries[*serialization.DbHashToDomainHash(bestHashBytes)]
		if !ok {
			return errors.Errorf("best block %x is not stored", bestHashBytes)
		}
		bs.best = bestEntry
	}

	if bs.best != nil {
		log.Infof("Loaded %d blocks, best block %s at height %d with total work %s",
			len(bs.entries), bs.best.hash, bs.best.number, bs.best.totalWork)
	}
	return nil
}

// newEntry builds the index record of block. A block already stored keeps
// its sequence, so overwriting it does not change the first-seen order.
func (bs *blockStore) newEntry(block *externalapi.DomainBlock, totalWork *big.Int) *blockEntry {
	entry := &blockEntry{
		hash:       block.Hash(),
		parentHash: block.ParentHash(),
		number:     block.Number(),
		totalWork:  new(big.Int).Set(totalWork),
	}
	if existing, ok := bs.entries[*entry.hash]; ok {
		entry.sequence = existing.sequence
		return entry
	}
	entry.sequence = bs.nextSequence
	bs.nextSequence++
	return entry
}

// indexEntry adds entry to the hash and height indices, replacing a
// previous entry of the same hash in place.
func (bs *blockStore) indexEntry(entry *blockEntry) {
	if existing, ok := bs.entries[*entry.hash]; ok {
		atHeight := bs.heights[existing.number]
		for i, candidate := range atHeight {
			if candidate == existing {
				atHeight[i] = entry
			}
		}
		if bs.best == existing {
			bs.best = entry
		}
	} else {
		bs.heights[entry.number] = append(bs.heights[entry.number], entry)
	}
	bs.entries[*entry.hash] = entry
}

func (bs *blockStore) unindexEntry(entry *blockEntry) {
	delete(bs.entries, *entry.hash)
	atHeight := bs.heights[entry.number]
	for i, candidate := range atHeight {
		if candidate == entry {
			atHeight = append(atHeight[:i], atHeight[i+1:]...)
			break
		}
	}
	if len(atHeight) == 0 {
		delete(bs.heights, entry.number)
		return
	}
	bs.heights[entry.number] = atHeight
}

// heaviestEntry returns the entry other than excluded with the most total
// work, the earliest stored one winning ties.
func (bs *blockStore) heaviestEntry(excluded *blockEntry) *blockEntry {
	var heaviest *blockEntry
	for _, entry := range bs.entries {
		if entry == excluded {
			continue
		}
		if heaviest == nil {
			heaviest = entry
			continue
		}
		cmp := entry.totalWork.Cmp(heaviest.totalWork)
		if cmp > 0 || (cmp == 0 && entry.sequence < heaviest.sequence) {
			heaviest = entry
		}
	}
	return heaviest
}

// HasBlock returns whether a block with a given hash exists in the store.
func (bs *blockStore) HasBlock(blockHash *externalapi.BlockHash) bool {
	bs.lock.RLock()
	defer bs.lock.RUnlock()

	_, ok := bs.entries[*blockHash]
	return ok
}

// BlockByHash gets the block associated with the given blockHash
func (bs *blockStore) BlockByHash(blockHash *externalapi.BlockHash) (*externalapi.DomainBlock, error) {
	bs.lock.RLock()
	defer bs.lock.RUnlock()

	return bs.block(blockHash)
}

func (bs *blockStore) block(blockHash *externalapi.BlockHash) (*externalapi.DomainBlock, error) {
	if _, ok := bs.entries[*blockHash]; !ok {
		return nil, errors.Wrapf(database.ErrNotFound, "block %s not found", blockHash)
	}

	if block, ok := bs.cache.Get(*blockHash); ok {
		return block.(*externalapi.DomainBlock).Clone(), nil
	}

	blockBytes, err := bs.db.Get(hashAsKey(blockHash))
	if err != nil {
		return nil, err
	}
	block, _, _, err := serialization.DeserializeBlock(blockBytes)
	if err != nil {
		return nil, err
	}
	bs.cache.Add(*blockHash, block)
	return block.Clone(), nil
}

// BlockByNumber gets the main chain block at the given height
func (bs *blockStore) BlockByNumber(number uint64) (*externalapi.DomainBlock, error) {
	bs.lock.RLock()
	defer bs.lock.RUnlock()

	blockHash, ok := bs.canonical[number]
	if !ok {
		return nil, errors.Wrapf(database.ErrNotFound, "no main chain block at height %d", number)
	}
	return bs.block(blockHash)
}

// BlocksByNumber gets every stored block at the given height, main chain
// or not, in the order they were stored.
func (bs *blockStore) BlocksByNumber(number uint64) ([]*externalapi.DomainBlock, error) {
	bs.lock.RLock()
	defer bs.lock.RUnlock()

	atHeight := bs.heights[number]
	blocks := make([]*externalapi.DomainBlock, 0, len(atHeight))
	for _, entry := range atHeight {
		block, err := bs.block(entry.hash)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}
	return blocks, nil
}

// HashesByNumber returns the hashes of every stored block at the given
// height, in the order they were stored.
func (bs *blockStore) HashesByNumber(number uint64) []*externalapi.BlockHash {
	bs.lock.RLock()
	defer bs.lock.RUnlock()

	atHeight := bs.heights[number]
	hashes := make([]*externalapi.BlockHash, len(atHeight))
	for i, entry := range atHeight {
		hashes[i] = entry.hash
	}
	return hashes
}

// TotalWork returns the cumulative work of the chain ending at blockHash
func (bs *blockStore) TotalWork(blockHash *externalapi.BlockHash) (*big.Int, error) {
	bs.lock.RLock()
	defer bs.lock.RUnlock()

	entry, ok := bs.entries[*blockHash]
	if !ok {
		return nil, errors.Wrapf(database.ErrNotFound, "total work of block %s not found", blockHash)
	}
	return new(big.Int).Set(entry.totalWork), nil
}

// BestBlock returns the block with the most cumulative work
func (bs *blockStore) BestBlock() (*externalapi.DomainBlock, error) {
	bs.lock.RLock()
	defer bs.lock.RUnlock()

	if bs.best == nil {
		return nil, errors.Wrapf(database.ErrNotFound, "the store is empty")
	}
	return bs.block(bs.best.hash)
}

// BestBlockHash returns the hash of the best block, or nil if the store is empty
func (bs *blockStore) BestBlockHash() *externalapi.BlockHash {
	bs.lock.RLock()
	defer bs.lock.RUnlock()

	if bs.best == nil {
		return nil
	}
	return bs.best.hash
}

// BestTotalWork returns the cumulative work of the best block, or zero if
// the store is empty
func (bs *blockStore) BestTotalWork() *big.Int {
	bs.lock.RLock()
	defer bs.lock.RUnlock()

	if bs.best == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(bs.best.totalWork)
}

// Count returns the number of stored blocks
func (bs *blockStore) Count() int {
	bs.lock.RLock()
	defer bs.lock.RUnlock()

	return len(bs.entries)
}

func hashAsKey(hash *externalapi.BlockHash) *database.Key {
	return blocksBucket.Key(hash.ByteSlice())
}

func numberAsCanonicalKey(number uint64) *database.Key {
	return canonicalBucket.Key(serialization.BlockNumberToKey(number))
}
