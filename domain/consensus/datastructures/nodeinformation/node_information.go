package nodeinformation

import (
	"sort"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"github.com/kaspanet/chainsyncd/domain/consensus/model/externalapi"
	"github.com/pkg/errors"
)

// DefaultMaxBlocks is the number of block hashes whose announcing peers
// are remembered when no other size is configured.
const DefaultMaxBlocks = 1000

// NodeInformation remembers which peers announced which blocks. Only the
// most recently announced blocks are remembered.
type NodeInformation struct {
	lock         sync.Mutex
	nodesByBlock *lru.Cache
}

// New instantiates a new NodeInformation remembering up to maxBlocks blocks
func New(maxBlocks int) (*NodeInformation, error) {
	cache, err := lru.New(maxBlocks)
	if err != nil {
		return nil, errors.Wrapf(err, "failed creating node information of size %d", maxBlocks)
	}
	return &NodeInformation{nodesByBlock: cache}, nil
}

// AddBlockToNode records that peer knows the block with the given hash.
func (ni *NodeInformation) AddBlockToNode(blockHash *externalapi.BlockHash, peer *externalapi.PeerID) {
	if peer == nil {
		return
	}

	ni.lock.Lock()
	defer ni.lock.Unlock()

	var peers map[externalapi.PeerID]struct{}
	if value, ok := ni.nodesByBlock.Get(*blockHash); ok {
		peers = value.(map[externalapi.PeerID]struct{})
	} else {
		peers = make(map[externalapi.PeerID]struct{})
		ni.nodesByBlock.Add(*blockHash, peers)
	}
	peers[*peer] = struct{}{}
}

// NodesByBlock returns the peers known to have the block with the given
// hash, ordered by ID.
func (ni *NodeInformation) NodesByBlock(blockHash *externalapi.BlockHash) []*externalapi.PeerID {
	ni.lock.Lock()
	defer ni.lock.Unlock()

	value, ok := ni.nodesByBlock.Get(*blockHash)
	if !ok {
		return nil
	}
	peers := value.(map[externalapi.PeerID]struct{})
	result := make([]*externalapi.PeerID, 0, len(peers))
	for peer := range peers {
		peer := peer
		result = append(result, &peer)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].String() < result[j].String()
	})
	return result
}

// Len returns the number of blocks currently remembered.
func (ni *NodeInformation) Len() int {
	ni.lock.Lock()
	defer ni.lock.Unlock()

	return ni.nodesByBlock.Len()
}
