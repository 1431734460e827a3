package main

import (
	"fmt"
	"math/rand"
	"os"

	"github.com/kaspanet/chainsyncd/domain/chainparams"
	"github.com/kaspanet/chainsyncd/domain/consensus"
	"github.com/kaspanet/chainsyncd/domain/consensus/model/externalapi"
	"github.com/kaspanet/chainsyncd/domain/consensus/utils/blockfile"
	"github.com/kaspanet/chainsyncd/domain/consensus/utils/blockgenerator"
	"github.com/kaspanet/chainsyncd/infrastructure/db/database"
	"github.com/kaspanet/chainsyncd/infrastructure/db/database/ldb"
	"github.com/kaspanet/chainsyncd/infrastructure/logger"
	"github.com/kaspanet/chainsyncd/infrastructure/os/signal"
	"github.com/kaspanet/chainsyncd/version"
	"github.com/pkg/errors"
)

const leveldbCacheSizeMiB = 64

func main() {
	interrupt := signal.InterruptListener()

	cfg, err := parseConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing command-line arguments: %s\n", err)
		os.Exit(1)
	}

	err = logger.BackendLog.AddLogWriter(os.Stdout, logger.LevelTrace)
	if err == nil {
		err = logger.BackendLog.Run()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error starting the logger: %s\n", err)
		os.Exit(1)
	}
	defer logger.BackendLog.Close()

	log.Infof("Version %s", version.Version())

	doneChan := make(chan error, 1)
	spawn("importblocks.run", func() {
		doneChan <- run(cfg, interrupt)
	})

	err = <-doneChan
	if err != nil {
		log.Errorf("%+v", err)
		logger.BackendLog.Close()
		os.Exit(1)
	}
}

func run(cfg *configFlags, interrupt <-chan struct{}) error {
	if cfg.Generate > 0 {
		return generate(cfg)
	}

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	consensusConfig := consensus.NewConfig(cfg.NetParams())
	consensusConfig.BlockCacheSize = cfg.BlockCacheSize
	consensusConfig.ValidateUncles = cfg.ValidateUncles
	service, err := consensus.NewFactory().NewBlockSyncService(consensusConfig, db, nil)
	if err != nil {
		return err
	}

	inFile, err := os.Open(cfg.InFile)
	if err != nil {
		return errors.WithStack(err)
	}
	defer inFile.Close()

	stats, err := blockfile.Import(service, blockfile.NewReader(inFile), cfg.FastSync, interrupt)
	if err != nil {
		return err
	}
	best, err := service.BestBlock()
	if err != nil {
		return err
	}
	log.Infof("Read %d blocks, %d orphans still pending. Best block is %s at height %d",
		stats.Read, service.OrphanCount(), best.Hash(), best.Number())

	if !cfg.InMemoryDB {
		log.Infof("Compacting the database")
		err = db.Compact()
		if err != nil {
			return err
		}
	}

	if cfg.OutFile == "" {
		return nil
	}
	return writeBlockFile(cfg.OutFile, func(writer *blockfile.Writer) error {
		return blockfile.ExportChain(service, writer)
	})
}

func openDB(cfg *configFlags) (database.Database, error) {
	if cfg.InMemoryDB {
		return ldb.NewMemLevelDB()
	}
	err := os.MkdirAll(cfg.DataDir, 0700)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return ldb.NewLevelDB(cfg.DataDir, leveldbCacheSizeMiB)
}

// generate writes cfg.Generate blocks extending the network's genesis
// block. The genesis block itself is not written.
func generate(cfg *configFlags) error {
	blocks := generateChain(cfg.NetParams(), cfg.Generate)
	if cfg.Shuffle {
		random := rand.New(rand.NewSource(cfg.Seed))
		random.Shuffle(len(blocks), func(i, j int) {
			blocks[i], blocks[j] = blocks[j], blocks[i]
		})
	}

	return writeBlockFile(cfg.OutFile, func(writer *blockfile.Writer) error {
		for _, block := range blocks {
			err := writer.WriteBlock(block)
			if err != nil {
				return err
			}
		}
		return writer.Flush()
	})
}

func generateChain(params *chainparams.Params, size int) []*externalapi.DomainBlock {
	return blockgenerator.New().BlockChain(params.GenesisBlock, size)
}

func writeBlockFile(path string, write func(writer *blockfile.Writer) error) error {
	outFile, err := os.Create(path)
	if err != nil {
		return errors.WithStack(err)
	}
	defer outFile.Close()

	writer := blockfile.NewWriter(outFile)
	err = write(writer)
	if err != nil {
		return err
	}
	log.Infof("Wrote %d blocks to %s", writer.Count(), path)
	return outFile.Sync()
}
