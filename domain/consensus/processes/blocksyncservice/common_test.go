package blocksyncservice

import (
	"sync"
	"time"

	"github.com/kaspanet/chainsyncd/domain/consensus/datastructures/blockstore"
	"github.com/kaspanet/chainsyncd/domain/consensus/datastructures/nodeinformation"
	"github.com/kaspanet/chainsyncd/domain/consensus/model"
	"github.com/kaspanet/chainsyncd/domain/consensus/model/externalapi"
	"github.com/kaspanet/chainsyncd/domain/consensus/processes/familyresolver"
	"github.com/kaspanet/chainsyncd/domain/consensus/utils/blockgenerator"
	"github.com/kaspanet/chainsyncd/infrastructure/db/database/ldb"
)

// testingT is the part of testing.T and rapid.T the test helpers use.
type testingT interface {
	Helper()
	Fatalf(format string, args ...interface{})
}

type blockRequest struct {
	hash  *externalapi.BlockHash
	peers []*externalapi.PeerID
}

type testBlockRequester struct {
	lock     sync.Mutex
	requests []blockRequest

	// serve, when set before any block is processed, answers each request.
	serve func(blockHash *externalapi.BlockHash)
}

func (r *testBlockRequester) RequestBlock(blockHash *externalapi.BlockHash, peers []*externalapi.PeerID) {
	r.lock.Lock()
	r.requests = append(r.requests, blockRequest{hash: blockHash, peers: peers})
	r.lock.Unlock()

	if r.serve != nil {
		r.serve(blockHash)
	}
}

// waitForRequestOf waits until blockHash was requested and returns the
// first such request.
func (r *testBlockRequester) waitForRequestOf(t testingT, blockHash *externalapi.BlockHash) blockRequest {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		r.lock.Lock()
		for _, request := range r.requests {
			if request.hash.Equal(blockHash) {
				r.lock.Unlock()
				return request
			}
		}
		r.lock.Unlock()
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for a request of block %s", blockHash)
	return blockRequest{}
}

// waitForRequests waits until at least count requests were made and
// returns them.
func (r *testBlockRequester) waitForRequests(t testingT, count int) []blockRequest {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		r.lock.Lock()
		if len(r.requests) >= count {
			requests := append([]blockRequest(nil), r.requests...)
			r.lock.Unlock()
			return requests
		}
		r.lock.Unlock()
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d block requests", count)
	return nil
}

func (r *testBlockRequester) requestCount() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return len(r.requests)
}

type testService struct {
	*BlockSyncService
	t         testingT
	store     model.BlockStore
	bg        *blockgenerator.BlockGenerator
	genesis   *externalapi.DomainBlock
	requester *testBlockRequester
}

func testConfig() *Config {
	return &Config{
		MaxBlockDistance:      1000,
		MaxOrphanBlocks:       100,
		OrphanExpiration:      time.Hour,
		OrphanReleaseDepth:    1000,
		OrphanReleaseInterval: 200,
		UncleGenerationLimit:  7,
	}
}

// setupTestService creates a service over an in-memory store holding
// only a genesis block.
func setupTestService(t testingT, cfg *Config) (ts *testService, teardownFunc func()) {
	t.Helper()
	db, err := ldb.NewMemLevelDB()
	if err != nil {
		t.Fatalf("NewMemLevelDB: %s", err)
	}
	store, err := blockstore.New(db, 100)
	if err != nil {
		t.Fatalf("blockstore.New: %s", err)
	}
	nodeInformation, err := nodeinformation.New(nodeinformation.DefaultMaxBlocks)
	if err != nil {
		t.Fatalf("nodeinformation.New: %s", err)
	}

	bg := blockgenerator.New()
	genesis := bg.GenesisBlock()
	requester := &testBlockRequester{}
	service, err := New(cfg, store, familyresolver.New(store, 10), nodeInformation, requester, genesis)
	if err != nil {
		t.Fatalf("New: %s", err)
	}

	ts = &testService{
		BlockSyncService: service,
		t:                t,
		store:            store,
		bg:               bg,
		genesis:          genesis,
		requester:        requester,
	}
	teardownFunc = func() {
		db.Close()
	}
	return ts, teardownFunc
}

func (ts *testService) process(block *externalapi.DomainBlock) *model.BlockProcessResult {
	ts.t.Helper()
	return ts.processFrom(nil, block, false)
}

func (ts *testService) processFrom(sender *externalapi.PeerID, block *externalapi.DomainBlock,
	isFromFastSync bool) *model.BlockProcessResult {

	ts.t.Helper()
	result, err := ts.ProcessBlock(sender, block, isFromFastSync)
	if err != nil {
		ts.t.Fatalf("ProcessBlock(%s): %s", block.Hash(), err)
	}
	return result
}

// buildChain processes size blocks on top of the best block and returns them.
func (ts *testService) buildChain(size int) []*externalapi.DomainBlock {
	ts.t.Helper()
	chain := ts.bg.BlockChain(ts.bestBlock(), size)
	for _, block := range chain {
		ts.process(block)
	}
	return chain
}

func (ts *testService) bestBlock() *externalapi.DomainBlock {
	ts.t.Helper()
	best, err := ts.BestBlock()
	if err != nil {
		ts.t.Fatalf("BestBlock: %s", err)
	}
	return best
}

func (ts *testService) assertBest(expected *externalapi.DomainBlock) {
	ts.t.Helper()
	best := ts.bestBlock()
	if best.Number() != expected.Number() || !best.Hash().Equal(expected.Hash()) {
		ts.t.Fatalf("best block: expected %s at height %d, got %s at height %d",
			expected.Hash(), expected.Number(), best.Hash(), best.Number())
	}
}
