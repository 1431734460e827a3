package blocksyncservice

import (
	"sync"
	"time"

	"github.com/kaspanet/chainsyncd/domain/consensus/datastructures/nodeinformation"
	"github.com/kaspanet/chainsyncd/domain/consensus/model"
	"github.com/kaspanet/chainsyncd/domain/consensus/model/externalapi"
	"github.com/kaspanet/chainsyncd/domain/consensus/utils/hashset"
	"github.com/kaspanet/chainsyncd/infrastructure/metrics"
	"github.com/pkg/errors"
)

// BlockSyncService admits blocks arriving from peers in any order. Blocks
// whose parent is stored are connected; the rest wait in the orphan pool
// until their ancestry arrives.
type BlockSyncService struct {
	cfg *Config

	blockStore      model.BlockStore
	familyResolver  model.FamilyResolver
	nodeInformation *nodeinformation.NodeInformation
	blockRequester  model.BlockRequester

	// processLock serializes block admission. The block store, the orphan
	// pool and the best block form a single mutation domain.
	processLock     sync.Mutex
	processedBlocks uint64

	// These fields are related to handling of orphan blocks. They are
	// protected by a combination of the process lock and the orphan lock.
	orphanLock     sync.RWMutex
	orphans        map[externalapi.BlockHash]*orphanBlock
	prevOrphans    map[externalapi.BlockHash][]*orphanBlock
	newestOrphan   *orphanBlock
	evictedOrphans map[externalapi.BlockHash][]*evictedOrphan
	evictedCount   int

	notificationsLock sync.RWMutex
	notifications     []NotificationCallback

	timeNow func() time.Time
}

// New returns a BlockSyncService over blockStore. When the store is empty,
// genesis is stored as its first block. blockRequester may be nil, in which
// case missing parents are never requested.
func New(cfg *Config,
	blockStore model.BlockStore,
	familyResolver model.FamilyResolver,
	nodeInformation *nodeinformation.NodeInformation,
	blockRequester model.BlockRequester,
	genesis *externalapi.DomainBlock) (*BlockSyncService, error) {

	s := &BlockSyncService{
		cfg:             cfg,
		blockStore:      blockStore,
		familyResolver:  familyResolver,
		nodeInformation: nodeInformation,
		blockRequester:  blockRequester,
		orphans:         make(map[externalapi.BlockHash]*orphanBlock),
		prevOrphans:     make(map[externalapi.BlockHash][]*orphanBlock),
		evictedOrphans:  make(map[externalapi.BlockHash][]*evictedOrphan),
		timeNow:         time.Now,
	}

	if blockStore.Count() == 0 && genesis != nil {
		err := checkBlockSanity(genesis)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid genesis block %s", genesis.Hash())
		}
		if !genesis.IsGenesis() {
			return nil, errors.Errorf("genesis block %s is at height %d", genesis.Hash(), genesis.Number())
		}
		err = blockStore.SaveBlock(genesis, genesis.Difficulty(), true)
		if err != nil {
			return nil, err
		}
		log.Infof("Stored genesis block %s", genesis.Hash())
	} else if genesis != nil && !blockStore.HasBlock(genesis.Hash()) {
		return nil, errors.Errorf("the block store does not contain genesis block %s", genesis.Hash())
	}

	best, err := blockStore.BestBlock()
	if err == nil {
		metrics.SetBestBlock(best.Number(), blockStore.BestTotalWork())
	}
	return s, nil
}

// BestBlock returns the block with the most cumulative work.
func (s *BlockSyncService) BestBlock() (*externalapi.DomainBlock, error) {
	return s.blockStore.BestBlock()
}

// BlockByHash returns the stored block with the given hash.
func (s *BlockSyncService) BlockByHash(blockHash *externalapi.BlockHash) (*externalapi.DomainBlock, error) {
	return s.blockStore.BlockByHash(blockHash)
}

// BlockByNumber returns the main chain block at the given height.
func (s *BlockSyncService) BlockByNumber(number uint64) (*externalapi.DomainBlock, error) {
	return s.blockStore.BlockByNumber(number)
}

// Family returns the family of block up to depth generations back.
func (s *BlockSyncService) Family(block *externalapi.DomainBlock, depth int) (hashset.HashSet, error) {
	return s.familyResolver.Family(block, depth)
}

// Uncles returns the blocks eligible as uncles of block up to depth
// generations back.
func (s *BlockSyncService) Uncles(block *externalapi.DomainBlock, depth int) (hashset.HashSet, error) {
	return s.familyResolver.Uncles(block, depth)
}
