package blockfile

import (
	"bytes"
	"io"
	"math/big"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/kaspanet/chainsyncd/domain/chainparams"
	"github.com/kaspanet/chainsyncd/domain/consensus"
	"github.com/kaspanet/chainsyncd/domain/consensus/model/externalapi"
	"github.com/kaspanet/chainsyncd/domain/consensus/utils/blockgenerator"
	"github.com/kaspanet/chainsyncd/infrastructure/db/database/ldb"
	"github.com/pkg/errors"
)

func TestWriteAndReadBlocks(t *testing.T) {
	bg := blockgenerator.New()
	genesis := bg.GenesisBlock()
	parent := bg.CreateChildBlock(genesis)
	uncle := bg.CreateChildBlock(genesis)
	withUncle := bg.CreateChildBlockWithUncles(parent, big.NewInt(5), []*externalapi.DomainBlockHeader{uncle.Header})
	blocks := []*externalapi.DomainBlock{genesis, parent, uncle, withUncle}

	buffer := &bytes.Buffer{}
	writer := NewWriter(buffer)
	for _, block := range blocks {
		err := writer.WriteBlock(block)
		if err != nil {
			t.Fatalf("WriteBlock: %s", err)
		}
	}
	err := writer.Flush()
	if err != nil {
		t.Fatalf("Flush: %s", err)
	}
	if writer.Count() != len(blocks) {
		t.Fatalf("Count: expected %d, got %d", len(blocks), writer.Count())
	}

	reader := NewReader(buffer)
	for i, expected := range blocks {
		block, err := reader.Next()
		if err != nil {
			t.Fatalf("Next #%d: %s", i, err)
		}
		if !block.Equal(expected) {
			t.Fatalf("block #%d: expected %s, got %s", i, spew.Sdump(expected), spew.Sdump(block))
		}
		if !block.Hash().Equal(expected.Hash()) {
			t.Fatalf("block #%d hashes differently after reading", i)
		}
	}
	_, err = reader.Next()
	if err != io.EOF {
		t.Fatalf("expected io.EOF at the end of the file, got %v", err)
	}
}

func TestReadTruncatedFile(t *testing.T) {
	bg := blockgenerator.New()
	buffer := &bytes.Buffer{}
	writer := NewWriter(buffer)
	err := writer.WriteBlock(bg.GenesisBlock())
	if err != nil {
		t.Fatalf("WriteBlock: %s", err)
	}
	err = writer.Flush()
	if err != nil {
		t.Fatalf("Flush: %s", err)
	}

	truncated := buffer.Bytes()[:buffer.Len()-3]
	_, err = NewReader(bytes.NewReader(truncated)).Next()
	if err == nil || err == io.EOF {
		t.Fatalf("expected an error reading a truncated block, got %v", err)
	}
}

func TestImportAndExport(t *testing.T) {
	params := &chainparams.DevnetParams
	bg := blockgenerator.New()
	genesis := params.GenesisBlock
	chain := bg.BlockChain(genesis, 20)
	fork := bg.BlockChain(chain[9], 3)

	// Deliver the chain with a few blocks out of order, and the genesis
	// block which the service already has.
	blocks := []*externalapi.DomainBlock{genesis}
	blocks = append(blocks, chain[:5]...)
	blocks = append(blocks, chain[6], chain[7], chain[5])
	blocks = append(blocks, chain[8:]...)
	blocks = append(blocks, fork...)

	buffer := &bytes.Buffer{}
	writer := NewWriter(buffer)
	for _, block := range blocks {
		err := writer.WriteBlock(block)
		if err != nil {
			t.Fatalf("WriteBlock: %s", err)
		}
	}
	err := writer.Flush()
	if err != nil {
		t.Fatalf("Flush: %s", err)
	}

	db, err := ldb.NewLevelDB(t.TempDir(), 8)
	if err != nil {
		t.Fatalf("NewLevelDB: %s", err)
	}
	defer db.Close()
	service, err := consensus.NewFactory().NewBlockSyncService(consensus.NewConfig(params), db, nil)
	if err != nil {
		t.Fatalf("NewBlockSyncService: %s", err)
	}

	stats, err := Import(service, NewReader(buffer), true, nil)
	if err != nil {
		t.Fatalf("Import: %s", err)
	}
	expectedStats := ImportStats{
		Read:      len(blocks),
		Connected: len(chain) + len(fork),
		Orphans:   2,
		Existing:  1,
	}
	if *stats != expectedStats {
		t.Fatalf("unexpected stats: expected %+v, got %+v", expectedStats, *stats)
	}

	best, err := service.BestBlock()
	if err != nil {
		t.Fatalf("BestBlock: %s", err)
	}
	if !best.Equal(chain[19]) {
		t.Fatalf("expected the long chain to be best, got block at height %d", best.Number())
	}

	exported := &bytes.Buffer{}
	err = ExportChain(service, NewWriter(exported))
	if err != nil {
		t.Fatalf("ExportChain: %s", err)
	}
	reader := NewReader(exported)
	expectedChain := append([]*externalapi.DomainBlock{genesis}, chain...)
	for i, expected := range expectedChain {
		block, err := reader.Next()
		if err != nil {
			t.Fatalf("Next #%d: %s", i, err)
		}
		if !block.Hash().Equal(expected.Hash()) {
			t.Fatalf("exported block #%d is not on the canonical chain", i)
		}
	}
	_, err = reader.Next()
	if err != io.EOF {
		t.Fatalf("expected the export to end at the best block, got %v", err)
	}
}

func TestImportSkipsInvalidBlocks(t *testing.T) {
	params := &chainparams.DevnetParams
	bg := blockgenerator.New()
	chain := bg.BlockChain(params.GenesisBlock, 3)
	invalid := bg.CreateChildBlock(chain[2])
	invalid.Header.Number = 10

	buffer := &bytes.Buffer{}
	writer := NewWriter(buffer)
	for _, block := range append(chain, invalid) {
		err := writer.WriteBlock(block)
		if err != nil {
			t.Fatalf("WriteBlock: %s", err)
		}
	}
	err := writer.Flush()
	if err != nil {
		t.Fatalf("Flush: %s", err)
	}

	db, err := ldb.NewLevelDB(t.TempDir(), 8)
	if err != nil {
		t.Fatalf("NewLevelDB: %s", err)
	}
	defer db.Close()
	service, err := consensus.NewFactory().NewBlockSyncService(consensus.NewConfig(params), db, nil)
	if err != nil {
		t.Fatalf("NewBlockSyncService: %s", err)
	}

	stats, err := Import(service, NewReader(buffer), true, nil)
	if err != nil {
		t.Fatalf("Import: %s", err)
	}
	if stats.Connected != 3 || stats.Rejected != 1 {
		t.Fatalf("unexpected stats %+v", *stats)
	}
}

func TestImportInterrupted(t *testing.T) {
	params := &chainparams.DevnetParams
	bg := blockgenerator.New()

	buffer := &bytes.Buffer{}
	writer := NewWriter(buffer)
	for _, block := range bg.BlockChain(params.GenesisBlock, 3) {
		err := writer.WriteBlock(block)
		if err != nil {
			t.Fatalf("WriteBlock: %s", err)
		}
	}
	err := writer.Flush()
	if err != nil {
		t.Fatalf("Flush: %s", err)
	}

	db, err := ldb.NewMemLevelDB()
	if err != nil {
		t.Fatalf("NewMemLevelDB: %s", err)
	}
	defer db.Close()
	service, err := consensus.NewFactory().NewBlockSyncService(consensus.NewConfig(params), db, nil)
	if err != nil {
		t.Fatalf("NewBlockSyncService: %s", err)
	}

	interrupt := make(chan struct{})
	close(interrupt)
	stats, err := Import(service, NewReader(buffer), true, interrupt)
	if !errors.Is(err, ErrInterrupted) {
		t.Fatalf("expected ErrInterrupted, got %v", err)
	}
	if stats.Read != 0 {
		t.Fatalf("an interrupted import read %d blocks", stats.Read)
	}
}
