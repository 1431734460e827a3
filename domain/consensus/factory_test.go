package consensus

import (
	"testing"

	"github.com/kaspanet/chainsyncd/domain/chainparams"
	"github.com/kaspanet/chainsyncd/domain/consensus/model"
	"github.com/kaspanet/chainsyncd/domain/consensus/utils/blockgenerator"
	"github.com/kaspanet/chainsyncd/infrastructure/db/database/ldb"
)

func TestNewBlockSyncService(t *testing.T) {
	f := NewFactory()
	config := NewConfig(&chainparams.DevnetParams)

	path := t.TempDir()
	db, err := ldb.NewLevelDB(path, 8)
	if err != nil {
		t.Fatalf("error in NewLevelDB: %s", err)
	}

	service, err := f.NewBlockSyncService(config, db, nil)
	if err != nil {
		t.Fatalf("error in NewBlockSyncService: %+v", err)
	}
	best, err := service.BestBlock()
	if err != nil {
		t.Fatalf("BestBlock: %s", err)
	}
	if !best.Hash().Equal(chainparams.DevnetParams.GenesisHash()) {
		t.Fatalf("a new service does not start at the genesis block")
	}

	chain := blockgenerator.New().BlockChain(best, 5)
	for _, block := range chain {
		result, err := service.ProcessBlock(nil, block, false)
		if err != nil {
			t.Fatalf("ProcessBlock: %s", err)
		}
		if result.Result != model.ImportedBest {
			t.Fatalf("expected ImportedBest, got %s", result.Result)
		}
	}
	err = db.Close()
	if err != nil {
		t.Fatalf("Close: %s", err)
	}

	// A reopened database resumes from the stored best block
	db, err = ldb.NewLevelDB(path, 8)
	if err != nil {
		t.Fatalf("error in NewLevelDB: %s", err)
	}
	defer db.Close()
	service, err = f.NewBlockSyncService(config, db, nil)
	if err != nil {
		t.Fatalf("error in NewBlockSyncService: %+v", err)
	}
	best, err = service.BestBlock()
	if err != nil {
		t.Fatalf("BestBlock: %s", err)
	}
	if !best.Hash().Equal(chain[4].Hash()) {
		t.Fatalf("the reopened service lost its best block")
	}

	// A store of another network is refused
	_, err = f.NewBlockSyncService(NewConfig(&chainparams.MainnetParams), db, nil)
	if err == nil {
		t.Fatalf("NewBlockSyncService accepted a store of another network")
	}
}
