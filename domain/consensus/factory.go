package consensus

import (
	"github.com/kaspanet/chainsyncd/domain/chainparams"
	"github.com/kaspanet/chainsyncd/domain/consensus/datastructures/blockstore"
	"github.com/kaspanet/chainsyncd/domain/consensus/datastructures/nodeinformation"
	"github.com/kaspanet/chainsyncd/domain/consensus/model"
	"github.com/kaspanet/chainsyncd/domain/consensus/processes/blocksyncservice"
	"github.com/kaspanet/chainsyncd/domain/consensus/processes/familyresolver"
	"github.com/kaspanet/chainsyncd/infrastructure/db/database"
)

const (
	// DefaultBlockCacheSize is the default number of blocks the store keeps
	// in memory
	DefaultBlockCacheSize = 2000

	// DefaultNodeInformationSize is the default number of blocks whose
	// announcing peers are remembered
	DefaultNodeInformationSize = nodeinformation.DefaultMaxBlocks
)

// Config is the configuration of a synchronization core
type Config struct {
	*blocksyncservice.Config

	// Params is the network the core syncs
	Params *chainparams.Params

	// BlockCacheSize is the number of blocks the store keeps in memory
	BlockCacheSize int

	// NodeInformationSize is the number of blocks whose announcing peers
	// are remembered
	NodeInformationSize int
}

// NewConfig returns the default configuration for params
func NewConfig(params *chainparams.Params) *Config {
	return &Config{
		Config:              blocksyncservice.ConfigFromParams(params),
		Params:              params,
		BlockCacheSize:      DefaultBlockCacheSize,
		NodeInformationSize: DefaultNodeInformationSize,
	}
}

// Factory instantiates new synchronization cores
type Factory interface {
	NewBlockSyncService(config *Config, db database.Database,
		blockRequester model.BlockRequester) (*blocksyncservice.BlockSyncService, error)
}

type factory struct{}

// NewBlockSyncService instantiates a new BlockSyncService over db, along
// with the block store, family resolver and node information it uses
func (f *factory) NewBlockSyncService(config *Config, db database.Database,
	blockRequester model.BlockRequester) (*blocksyncservice.BlockSyncService, error) {

	// Data Structures
	blockStore, err := blockstore.New(db, config.BlockCacheSize)
	if err != nil {
		return nil, err
	}
	nodeInformation, err := nodeinformation.New(config.NodeInformationSize)
	if err != nil {
		return nil, err
	}

	// Processes
	familyResolver := familyresolver.New(blockStore, config.Params.MaxUncles)

	service, err := blocksyncservice.New(
		config.Config,
		blockStore,
		familyResolver,
		nodeInformation,
		blockRequester,
		config.Params.GenesisBlock)
	if err != nil {
		return nil, err
	}

	log.Infof("Synchronizing %s with %d stored blocks", config.Params.Name, blockStore.Count())
	return service, nil
}

// NewFactory creates a new synchronization core factory
func NewFactory() Factory {
	return &factory{}
}
