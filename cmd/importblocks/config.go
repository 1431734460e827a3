package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/btcsuite/btcutil"
	"github.com/jessevdk/go-flags"
	"github.com/kaspanet/chainsyncd/domain/consensus"
	"github.com/kaspanet/chainsyncd/infrastructure/config"
	"github.com/kaspanet/chainsyncd/infrastructure/logger"
	"github.com/pkg/errors"
)

const defaultLogLevel = "info"

var (
	chainsyncdHomeDir = btcutil.AppDataDir("chainsyncd", false)
	defaultDataDir    = filepath.Join(chainsyncdHomeDir, "data")
)

type configFlags struct {
	DataDir        string `short:"b" long:"datadir" description:"Location of the chainsyncd data directory"`
	InMemoryDB     bool   `long:"dbinmemory" description:"Import into an in-memory database that is discarded on exit"`
	InFile         string `short:"i" long:"infile" description:"Block file to import"`
	OutFile        string `short:"o" long:"outfile" description:"Write the canonical chain, or the generated blocks with --generate, to this block file"`
	Generate       int    `long:"generate" description:"Write this many generated blocks on top of the network's genesis to --outfile instead of importing"`
	Shuffle        bool   `long:"shuffle" description:"Write generated blocks in random order"`
	Seed           int64  `long:"seed" description:"Seed of the shuffle of generated blocks"`
	FastSync       bool   `long:"fastsync" description:"Treat the imported blocks as part of a fast sync"`
	ValidateUncles bool   `long:"validateuncles" description:"Validate the uncles included by every connected block"`
	BlockCacheSize int    `long:"blockcachesize" description:"Number of blocks the block store keeps in memory"`
	DebugLevel     string `short:"d" long:"loglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical}"`
	config.NetworkFlags
}

// fileExists reports whether the named file or directory exists.
func fileExists(name string) bool {
	_, err := os.Stat(name)
	return !os.IsNotExist(err)
}

func parseConfig(args []string) (*configFlags, error) {
	cfg := &configFlags{
		DataDir:        defaultDataDir,
		BlockCacheSize: consensus.DefaultBlockCacheSize,
		DebugLevel:     defaultLogLevel,
	}
	parser := flags.NewParser(cfg, flags.Default)
	_, err := parser.ParseArgs(args)
	if err != nil {
		var flagsErr *flags.Error
		if ok := errors.As(err, &flagsErr); !ok || flagsErr.Type != flags.ErrHelp {
			parser.WriteHelp(os.Stderr)
		}
		return nil, err
	}

	err = cfg.ResolveNetwork(parser)
	if err != nil {
		return nil, err
	}

	err = logger.ParseAndSetDebugLevels(cfg.DebugLevel)
	if err != nil {
		return nil, err
	}

	if cfg.Generate < 0 {
		return nil, errors.Errorf("--generate may not be negative")
	}
	if cfg.Generate > 0 {
		if cfg.OutFile == "" {
			return nil, errors.Errorf("--generate requires --outfile")
		}
		return cfg, nil
	}
	if cfg.Shuffle {
		return nil, errors.Errorf("--shuffle is only valid with --generate")
	}
	if cfg.BlockCacheSize <= 0 {
		return nil, errors.Errorf("--blockcachesize must be positive")
	}

	if cfg.InFile == "" {
		return nil, errors.Errorf("one of --infile or --generate is required")
	}
	// Ensure the specified block file exists.
	if !fileExists(cfg.InFile) {
		str := "%s: The specified block file [%s] does not exist"
		err := errors.Errorf(str, "parseConfig", cfg.InFile)
		fmt.Fprintln(os.Stderr, err)
		parser.WriteHelp(os.Stderr)
		return nil, err
	}

	// Append the network type to the data directory so it is "namespaced"
	// per network, matching the daemon's layout.
	cfg.DataDir = filepath.Join(cfg.DataDir, cfg.NetParams().Name, "blocks")
	return cfg, nil
}
