package chainparams

import (
	"time"

	"github.com/kaspanet/chainsyncd/domain/consensus/model/externalapi"
	"github.com/pkg/errors"
)

const (
	defaultUncleGenerationLimit = 7
	defaultMaxUncles            = 10
	defaultMaxBlockDistance     = 1000
	defaultMaxOrphanBlocks      = 100
	defaultOrphanExpiration     = time.Hour
	defaultOrphanReleaseDepth   = 1000
	defaultOrphanReleaseEvery   = 200
)

// Params defines a network by its genesis block and the parameters that
// govern block synchronization on it.
type Params struct {
	// Name defines a human-readable identifier for the network.
	Name string

	// GenesisBlock defines the first block of the chain.
	GenesisBlock *externalapi.DomainBlock

	// UncleGenerationLimit is the number of generations back from which a
	// block may include uncles.
	UncleGenerationLimit int

	// MaxUncles is the maximum number of uncles a block may include.
	MaxUncles int

	// MaxBlockDistance is how far above the best block a block may be
	// before it is ignored instead of held as an orphan.
	MaxBlockDistance uint64

	// MaxOrphanBlocks is the maximum number of orphan blocks held at once.
	MaxOrphanBlocks int

	// OrphanExpiration is how long an orphan is held before it is dropped.
	OrphanExpiration time.Duration

	// OrphanReleaseDepth is how far below the best block an orphan may be
	// before it is dropped.
	OrphanReleaseDepth uint64

	// OrphanReleaseInterval is the number of processed blocks between two
	// scans for orphans below OrphanReleaseDepth.
	OrphanReleaseInterval uint64
}

// GenesisHash returns the hash of the network's genesis block.
func (p *Params) GenesisHash() *externalapi.BlockHash {
	return p.GenesisBlock.Hash()
}

// MainnetParams defines the network parameters for the main network.
var MainnetParams = Params{
	Name:                  "mainnet",
	GenesisBlock:          mainnetGenesisBlock,
	UncleGenerationLimit:  defaultUncleGenerationLimit,
	MaxUncles:             defaultMaxUncles,
	MaxBlockDistance:      defaultMaxBlockDistance,
	MaxOrphanBlocks:       defaultMaxOrphanBlocks,
	OrphanExpiration:      defaultOrphanExpiration,
	OrphanReleaseDepth:    defaultOrphanReleaseDepth,
	OrphanReleaseInterval: defaultOrphanReleaseEvery,
}

// TestnetParams defines the network parameters for the test network.
var TestnetParams = Params{
	Name:                  "testnet",
	GenesisBlock:          testnetGenesisBlock,
	UncleGenerationLimit:  defaultUncleGenerationLimit,
	MaxUncles:             defaultMaxUncles,
	MaxBlockDistance:      defaultMaxBlockDistance,
	MaxOrphanBlocks:       defaultMaxOrphanBlocks,
	OrphanExpiration:      defaultOrphanExpiration,
	OrphanReleaseDepth:    defaultOrphanReleaseDepth,
	OrphanReleaseInterval: defaultOrphanReleaseEvery,
}

// RegressionNetParams defines the network parameters for the regression
// test network. Its genesis difficulty is 1 so that test chains can be
// built on it freely.
var RegressionNetParams = Params{
	Name:                  "regtest",
	GenesisBlock:          regtestGenesisBlock,
	UncleGenerationLimit:  defaultUncleGenerationLimit,
	MaxUncles:             defaultMaxUncles,
	MaxBlockDistance:      defaultMaxBlockDistance,
	MaxOrphanBlocks:       defaultMaxOrphanBlocks,
	OrphanExpiration:      defaultOrphanExpiration,
	OrphanReleaseDepth:    defaultOrphanReleaseDepth,
	OrphanReleaseInterval: defaultOrphanReleaseEvery,
}

// DevnetParams defines the network parameters for the development network.
var DevnetParams = Params{
	Name:                  "devnet",
	GenesisBlock:          devnetGenesisBlock,
	UncleGenerationLimit:  defaultUncleGenerationLimit,
	MaxUncles:             defaultMaxUncles,
	MaxBlockDistance:      defaultMaxBlockDistance,
	MaxOrphanBlocks:       defaultMaxOrphanBlocks,
	OrphanExpiration:      defaultOrphanExpiration,
	OrphanReleaseDepth:    defaultOrphanReleaseDepth,
	OrphanReleaseInterval: defaultOrphanReleaseEvery,
}

var (
	// ErrDuplicateNet describes an error where the parameters for a network
	// could not be set due to the network already being a standard
	// network or previously-registered into this package.
	ErrDuplicateNet = errors.New("duplicate network")

	// ErrUnknownNet describes an error where no network is registered
	// under the requested name.
	ErrUnknownNet = errors.New("unknown network")
)

var registeredNets = make(map[string]*Params)

// Register registers the network parameters for a network. This may error
// with ErrDuplicateNet if the network is already registered.
//
// Network parameters should be registered into this package by a main
// package as early as possible.
func Register(params *Params) error {
	if _, ok := registeredNets[params.Name]; ok {
		return errors.Wrapf(ErrDuplicateNet, "network %s", params.Name)
	}
	registeredNets[params.Name] = params
	return nil
}

// ParamsForName returns the registered parameters of the named network.
func ParamsForName(name string) (*Params, error) {
	params, ok := registeredNets[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownNet, "network %s", name)
	}
	return params, nil
}

// mustRegister performs the same function as Register except it panics if there
// is an error. This should only be called from package init functions.
func mustRegister(params *Params) {
	if err := Register(params); err != nil {
		panic("failed to register network: " + err.Error())
	}
}

func init() {
	// Register all default networks when the package is initialized.
	mustRegister(&MainnetParams)
	mustRegister(&TestnetParams)
	mustRegister(&RegressionNetParams)
	mustRegister(&DevnetParams)
}
