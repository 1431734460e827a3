package main

import (
	"fmt"
	"os"
	"sync/atomic"

	"github.com/kaspanet/chainsyncd/domain/consensus"
	"github.com/kaspanet/chainsyncd/domain/consensus/processes/blocksyncservice"
	"github.com/kaspanet/chainsyncd/domain/consensus/utils/blockfile"
	"github.com/kaspanet/chainsyncd/infrastructure/config"
	"github.com/kaspanet/chainsyncd/infrastructure/db/database"
	"github.com/kaspanet/chainsyncd/infrastructure/db/database/ldb"
	"github.com/kaspanet/chainsyncd/infrastructure/logger"
	"github.com/kaspanet/chainsyncd/infrastructure/metrics"
	"github.com/kaspanet/chainsyncd/infrastructure/os/signal"
	"github.com/kaspanet/chainsyncd/util/panics"
	"github.com/kaspanet/chainsyncd/version"
	"github.com/pkg/errors"
)

const leveldbCacheSizeMiB = 256

var spawn = panics.GoroutineWrapperFunc(log)

// chainsyncd is a wrapper for all the chainsyncd services
type chainsyncd struct {
	cfg           *config.Config
	service       *blocksyncservice.BlockSyncService
	metricsServer *metrics.Server
	quit          chan struct{}
	importDone    chan struct{}

	started, shutdown int32
}

// start launches all the chainsyncd services.
func (c *chainsyncd) start() {
	// Already started?
	if atomic.AddInt32(&c.started, 1) != 1 {
		return
	}

	log.Trace("Starting chainsyncd")

	if c.metricsServer != nil {
		c.metricsServer.Start()
		log.Infof("Serving metrics on %s", c.metricsServer.Addr())
	}

	spawn("chainsyncd.importFiles", c.importFiles)
}

// stop gracefully shuts down all the chainsyncd services.
func (c *chainsyncd) stop() {
	// Make sure this only happens once.
	if atomic.AddInt32(&c.shutdown, 1) != 1 {
		log.Infof("Chainsyncd is already in the process of shutting down")
		return
	}

	log.Warnf("Chainsyncd shutting down")

	close(c.quit)
	if atomic.LoadInt32(&c.started) != 0 {
		<-c.importDone
	}

	if c.metricsServer != nil {
		err := c.metricsServer.Stop()
		if err != nil {
			log.Errorf("Error stopping the metrics server: %+v", err)
		}
	}
}

func (c *chainsyncd) importFiles() {
	defer close(c.importDone)

	for _, path := range c.cfg.ImportFiles {
		err := importFile(c.service, path, c.quit)
		if errors.Is(err, blockfile.ErrInterrupted) {
			log.Infof("Import of %s interrupted", path)
			return
		}
		if err != nil {
			log.Errorf("Error importing %s: %+v", path, err)
			return
		}
	}
}

func importFile(service *blocksyncservice.BlockSyncService, path string, quit <-chan struct{}) error {
	file, err := os.Open(path)
	if err != nil {
		return errors.WithStack(err)
	}
	defer file.Close()

	log.Infof("Importing blocks from %s", path)
	_, err = blockfile.Import(service, blockfile.NewReader(file), false, quit)
	if err != nil {
		return err
	}
	best, err := service.BestBlock()
	if err != nil {
		return err
	}
	log.Infof("Finished importing %s. Best block is %s at height %d", path, best.Hash(), best.Number())
	return nil
}

// newChainsyncd returns a new chainsyncd instance over db. Use start to
// begin its services.
func newChainsyncd(cfg *config.Config, db database.Database) (*chainsyncd, error) {
	// No peer transport runs inside the daemon, so missing parents are
	// never requested.
	service, err := consensus.NewFactory().NewBlockSyncService(cfg.ConsensusConfig(), db, nil)
	if err != nil {
		return nil, err
	}
	service.Subscribe(logChainChanges)

	var metricsServer *metrics.Server
	if cfg.MetricsListen != "" {
		metricsServer, err = metrics.NewServer(cfg.MetricsListen)
		if err != nil {
			return nil, err
		}
	}

	return &chainsyncd{
		cfg:           cfg,
		service:       service,
		metricsServer: metricsServer,
		quit:          make(chan struct{}),
		importDone:    make(chan struct{}),
	}, nil
}

func logChainChanges(notification *blocksyncservice.Notification) {
	if notification.Type != blocksyncservice.NTChainChanged {
		return
	}
	data := notification.Data.(*blocksyncservice.ChainChangedNotificationData)
	if len(data.RemovedChainBlockHashes) == 0 {
		log.Debugf("Best block is now %s", data.NewBestHash)
		return
	}
	log.Infof("Reorganized %d blocks: best block %s replaced by %s",
		len(data.RemovedChainBlockHashes), data.OldBestHash, data.NewBestHash)
}

func openDB(cfg *config.Config) (database.Database, error) {
	if cfg.InMemoryDB {
		log.Infof("Using an in-memory block database")
		return ldb.NewMemLevelDB()
	}

	dbPath := cfg.DatabasePath()
	err := os.MkdirAll(dbPath, 0700)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	doesVersionFileExist, err := checkDatabaseVersion(dbPath)
	if err != nil {
		return nil, err
	}

	log.Infof("Loading database from '%s'", dbPath)
	db, err := ldb.NewLevelDB(dbPath, leveldbCacheSizeMiB)
	if err != nil {
		return nil, err
	}
	if !doesVersionFileExist {
		err = createDatabaseVersionFile(dbPath)
		if err != nil {
			db.Close()
			return nil, err
		}
	}
	return db, nil
}

// startChainsyncd is the real main function for chainsyncd. It is
// necessary to work around the fact that deferred functions do not run
// when os.Exit() is called.
func startChainsyncd(args []string) error {
	// Get a channel that will be closed when a shutdown signal has been
	// triggered either from an OS signal such as SIGINT (Ctrl+C) or from
	// another subsystem such as the RPC server.
	interrupt := signal.InterruptListener()

	cfg, _, err := config.LoadConfig(args)
	if err != nil {
		return err
	}

	// Special show command to list supported subsystems and exit.
	if cfg.DebugLevel == "show" {
		fmt.Println("Supported subsystems", logger.SupportedSubsystems())
		return nil
	}

	logger.InitLog(cfg.LogFile(), cfg.ErrLogFile())
	defer logger.BackendLog.Close()
	defer panics.HandlePanic(log, "startChainsyncd", nil)

	log.Infof("Version %s", version.Version())
	log.Infof("Syncing the %s network", cfg.NetParams().Name)

	// Return now if an interrupt signal was triggered.
	if signal.InterruptRequested(interrupt) {
		return nil
	}

	db, err := openDB(cfg)
	if err != nil {
		log.Errorf("Loading database failed: %+v", err)
		return err
	}
	defer func() {
		log.Infof("Gracefully shutting down the database...")
		err := db.Close()
		if err != nil {
			log.Errorf("Failed to close the database: %s", err)
		}
	}()

	// Return now if an interrupt signal was triggered.
	if signal.InterruptRequested(interrupt) {
		return nil
	}

	daemon, err := newChainsyncd(cfg, db)
	if err != nil {
		log.Errorf("Unable to start chainsyncd: %+v", err)
		return err
	}
	defer func() {
		log.Infof("Gracefully shutting down chainsyncd...")
		daemon.stop()
		log.Infof("Chainsyncd shutdown complete")
	}()

	daemon.start()

	<-interrupt
	return nil
}
