package blocksyncservice

import (
	"time"

	"github.com/kaspanet/chainsyncd/domain/chainparams"
)

// Config is a descriptor which specifies the block synchronization service
// instance configuration.
type Config struct {
	// MaxBlockDistance is how far above the best block a block may be
	// before it is ignored.
	MaxBlockDistance uint64

	// MaxOrphanBlocks bounds the orphan pool.
	MaxOrphanBlocks int

	// OrphanExpiration is how long an orphan is held before it is dropped.
	OrphanExpiration time.Duration

	// OrphanReleaseDepth is how far below the best block an orphan may be
	// before it is dropped.
	OrphanReleaseDepth uint64

	// OrphanReleaseInterval is the number of processed blocks between two
	// scans for orphans below OrphanReleaseDepth. 0 disables the scan.
	OrphanReleaseInterval uint64

	// ValidateUncles enables checking the uncles of every connected block.
	ValidateUncles bool

	// UncleGenerationLimit is the depth passed to the family resolver when
	// validating uncles.
	UncleGenerationLimit int
}

// ConfigFromParams returns the configuration defined by the given network
// parameters.
func ConfigFromParams(params *chainparams.Params) *Config {
	return &Config{
		MaxBlockDistance:      params.MaxBlockDistance,
		MaxOrphanBlocks:       params.MaxOrphanBlocks,
		OrphanExpiration:      params.OrphanExpiration,
		OrphanReleaseDepth:    params.OrphanReleaseDepth,
		OrphanReleaseInterval: params.OrphanReleaseInterval,
		UncleGenerationLimit:  params.UncleGenerationLimit,
	}
}
