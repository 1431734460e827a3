package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kaspanet/chainsyncd/domain/chainparams"
	"github.com/kaspanet/chainsyncd/domain/consensus/utils/blockfile"
	"github.com/kaspanet/chainsyncd/domain/consensus/utils/blockgenerator"
	"github.com/kaspanet/chainsyncd/infrastructure/config"
)

func loadTestConfig(t *testing.T, args ...string) *config.Config {
	t.Helper()
	configFile := filepath.Join(t.TempDir(), "chainsyncd.conf")
	err := os.WriteFile(configFile, nil, 0600)
	if err != nil {
		t.Fatalf("WriteFile: %s", err)
	}
	args = append([]string{"--configfile", configFile, "--appdir", t.TempDir(), "--devnet"}, args...)
	cfg, _, err := config.LoadConfig(args)
	if err != nil {
		t.Fatalf("LoadConfig: %s", err)
	}
	return cfg
}

func TestChainsyncdImportsFiles(t *testing.T) {
	bg := blockgenerator.New()
	chain := bg.BlockChain(chainparams.DevnetParams.GenesisBlock, 10)

	importPath := filepath.Join(t.TempDir(), "blocks.rlp")
	file, err := os.Create(importPath)
	if err != nil {
		t.Fatalf("Create: %s", err)
	}
	writer := blockfile.NewWriter(file)
	for _, block := range chain {
		err := writer.WriteBlock(block)
		if err != nil {
			t.Fatalf("WriteBlock: %s", err)
		}
	}
	err = writer.Flush()
	if err != nil {
		t.Fatalf("Flush: %s", err)
	}
	file.Close()

	cfg := loadTestConfig(t, "--import", importPath, "--metricslisten", "127.0.0.1:0")
	db, err := openDB(cfg)
	if err != nil {
		t.Fatalf("openDB: %+v", err)
	}
	defer db.Close()

	daemon, err := newChainsyncd(cfg, db)
	if err != nil {
		t.Fatalf("newChainsyncd: %+v", err)
	}
	daemon.start()

	select {
	case <-daemon.importDone:
	case <-time.After(10 * time.Second):
		t.Fatalf("timed out waiting for the import")
	}
	best, err := daemon.service.BestBlock()
	if err != nil {
		t.Fatalf("BestBlock: %s", err)
	}
	if !best.Hash().Equal(chain[9].Hash()) {
		t.Fatalf("expected the imported chain tip to be best, got height %d", best.Number())
	}

	daemon.stop()
	daemon.stop()
}

func TestChainsyncdStopInterruptsImport(t *testing.T) {
	cfg := loadTestConfig(t, "--dbinmemory")
	db, err := openDB(cfg)
	if err != nil {
		t.Fatalf("openDB: %+v", err)
	}
	defer db.Close()

	daemon, err := newChainsyncd(cfg, db)
	if err != nil {
		t.Fatalf("newChainsyncd: %+v", err)
	}
	daemon.start()
	daemon.stop()

	select {
	case <-daemon.importDone:
	default:
		t.Fatalf("stop returned before the importer exited")
	}
}

func TestDatabaseVersion(t *testing.T) {
	dbPath := t.TempDir()
	exists, err := checkDatabaseVersion(dbPath)
	if err != nil || exists {
		t.Fatalf("a new database: expected no version file and no error, got %t, %v", exists, err)
	}

	err = createDatabaseVersionFile(dbPath)
	if err != nil {
		t.Fatalf("createDatabaseVersionFile: %s", err)
	}
	exists, err = checkDatabaseVersion(dbPath)
	if err != nil || !exists {
		t.Fatalf("expected a valid version file, got %t, %v", exists, err)
	}

	err = os.WriteFile(versionFilePath(dbPath), []byte("7"), 0600)
	if err != nil {
		t.Fatalf("WriteFile: %s", err)
	}
	_, err = checkDatabaseVersion(dbPath)
	if err == nil {
		t.Fatalf("expected an error for an unknown database version")
	}

	err = os.WriteFile(versionFilePath(dbPath), []byte("seven"), 0600)
	if err != nil {
		t.Fatalf("WriteFile: %s", err)
	}
	_, err = checkDatabaseVersion(dbPath)
	if err == nil {
		t.Fatalf("expected an error for a malformed version file")
	}
}
