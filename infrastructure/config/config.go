package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/btcsuite/btcutil"
	"github.com/jessevdk/go-flags"
	"github.com/kaspanet/chainsyncd/domain/consensus"
	"github.com/kaspanet/chainsyncd/infrastructure/logger"
	"github.com/kaspanet/chainsyncd/version"
	"github.com/pkg/errors"
)

const (
	defaultConfigFilename = "chainsyncd.conf"
	defaultDataDirname    = "data"
	defaultLogLevel       = "info"
	defaultLogDirname     = "logs"
	defaultLogFilename    = "chainsyncd.log"
	defaultErrLogFilename = "chainsyncd_err.log"
)

var (
	// DefaultAppDir is the default home directory for chainsyncd.
	DefaultAppDir = btcutil.AppDataDir("chainsyncd", false)

	defaultConfigFile = filepath.Join(DefaultAppDir, defaultConfigFilename)
	defaultDataDir    = filepath.Join(DefaultAppDir, defaultDataDirname)
	defaultLogDir     = filepath.Join(DefaultAppDir, defaultLogDirname)
)

// Flags defines the configuration options for chainsyncd.
//
// See LoadConfig for details on the configuration load process.
type Flags struct {
	ShowVersion   bool     `short:"V" long:"version" description:"Display version information and exit"`
	ConfigFile    string   `short:"C" long:"configfile" description:"Path to configuration file"`
	AppDir        string   `short:"b" long:"appdir" description:"Directory to store data"`
	LogDir        string   `long:"logdir" description:"Directory to log output."`
	DebugLevel    string   `short:"d" long:"loglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems -- Use show to list available subsystems"`
	InMemoryDB    bool     `long:"dbinmemory" description:"Keep the block database in memory only; nothing survives a restart"`
	MetricsListen string   `long:"metricslisten" description:"Serve prometheus metrics on the given interface/port (eg. 127.0.0.1:9090); disabled when empty"`
	ImportFiles   []string `long:"import" description:"Import the blocks of the given block file at startup; may be given multiple times"`

	BlockCacheSize     int           `long:"blockcachesize" description:"Number of blocks the block store keeps in memory"`
	NodeInfoSize       int           `long:"nodeinfosize" description:"Number of blocks whose announcing peers are remembered"`
	MaxBlockDistance   uint64        `long:"maxblockdistance" description:"Blocks further than this above the best block are ignored (0 to use the network default)"`
	MaxOrphanBlocks    int           `long:"maxorphans" description:"Maximum number of orphan blocks held in memory (0 to use the network default)"`
	OrphanExpiration   time.Duration `long:"orphanexpiration" description:"How long an orphan block is kept before it expires. Valid time units are {s, m, h} (0 to use the network default)"`
	OrphanReleaseDepth uint64        `long:"orphanreleasedepth" description:"Orphans this far below the best block are released (0 to use the network default)"`
	ValidateUncles     bool          `long:"validateuncles" description:"Validate the uncles included by every connected block"`
	NetworkFlags
}

// Config defines the configuration options for chainsyncd.
//
// See LoadConfig for details on the configuration load process.
type Config struct {
	*Flags
}

// cleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
func cleanAndExpandPath(path string) string {
	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		homeDir := filepath.Dir(DefaultAppDir)
		path = strings.Replace(path, "~", homeDir, 1)
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows-style %VARIABLE%,
	// but they variables can still be expanded via POSIX-style $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}

func defaultFlags() *Flags {
	return &Flags{
		ConfigFile:     defaultConfigFile,
		DebugLevel:     defaultLogLevel,
		AppDir:         defaultDataDir,
		LogDir:         defaultLogDir,
		BlockCacheSize: consensus.DefaultBlockCacheSize,
		NodeInfoSize:   consensus.DefaultNodeInformationSize,
	}
}

// LoadConfig initializes and parses the config using a config file and
// the given command line options.
//
// The configuration proceeds as follows:
//  1. Start with a default config with sane settings
//  2. Pre-parse the command line to check for an alternative config file
//  3. Load configuration file overwriting defaults with any specified options
//  4. Parse CLI options and overwrite/add any specified options
//
// The above results in chainsyncd functioning properly without any config
// settings while still allowing the user to override settings with config
// files and command line options. Command line options always take
// precedence.
func LoadConfig(args []string) (*Config, []string, error) {
	cfgFlags := defaultFlags()

	// Pre-parse the command line options to see if an alternative config
	// file or the version flag was specified. Any errors aside from the
	// help message error can be ignored here since they will be caught by
	// the final parse below.
	preCfg := *cfgFlags
	preParser := flags.NewParser(&preCfg, flags.HelpFlag)
	_, err := preParser.ParseArgs(args)
	if err != nil {
		var flagsErr *flags.Error
		if ok := errors.As(err, &flagsErr); ok && flagsErr.Type == flags.ErrHelp {
			fmt.Fprintln(os.Stderr, err)
			return nil, nil, err
		}
	}

	// Show the version and exit if the version flag was specified.
	appName := filepath.Base(os.Args[0])
	appName = strings.TrimSuffix(appName, filepath.Ext(appName))
	usageMessage := fmt.Sprintf("Use %s -h to show usage", appName)
	if preCfg.ShowVersion {
		fmt.Println(appName, "version", version.Version())
		os.Exit(0)
	}

	// Load additional config from file. A missing default config file is
	// not an error.
	parser := flags.NewParser(cfgFlags, flags.Default)
	err = flags.NewIniParser(parser).ParseFile(preCfg.ConfigFile)
	if err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) || preCfg.ConfigFile != defaultConfigFile {
			fmt.Fprintf(os.Stderr, "Error parsing config file: %s\n", err)
			fmt.Fprintln(os.Stderr, usageMessage)
			return nil, nil, err
		}
	}

	// Parse command line options again to ensure they take precedence.
	remainingArgs, err := parser.ParseArgs(args)
	if err != nil {
		var flagsErr *flags.Error
		if ok := errors.As(err, &flagsErr); !ok || flagsErr.Type != flags.ErrHelp {
			fmt.Fprintln(os.Stderr, usageMessage)
		}
		return nil, nil, err
	}

	cfg := &Config{Flags: cfgFlags}
	err = cfg.ResolveNetwork(parser)
	if err != nil {
		return nil, nil, err
	}

	err = cfg.validate()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, usageMessage)
		return nil, nil, err
	}

	// Append the network type to the data and log directories so they
	// are "namespaced" per network.
	cfg.AppDir = filepath.Join(cleanAndExpandPath(cfg.AppDir), cfg.NetParams().Name)
	cfg.LogDir = filepath.Join(cleanAndExpandPath(cfg.LogDir), cfg.NetParams().Name)
	for i, importFile := range cfg.ImportFiles {
		cfg.ImportFiles[i] = cleanAndExpandPath(importFile)
	}

	return cfg, remainingArgs, nil
}

func (cfg *Config) validate() error {
	funcName := "loadConfig"
	if cfg.BlockCacheSize <= 0 {
		return errors.Errorf("%s: blockcachesize must be positive, got %d", funcName, cfg.BlockCacheSize)
	}
	if cfg.NodeInfoSize <= 0 {
		return errors.Errorf("%s: nodeinfosize must be positive, got %d", funcName, cfg.NodeInfoSize)
	}
	if cfg.MaxOrphanBlocks < 0 {
		return errors.Errorf("%s: maxorphans may not be negative, got %d", funcName, cfg.MaxOrphanBlocks)
	}
	if cfg.OrphanExpiration != 0 && cfg.OrphanExpiration < time.Second {
		return errors.Errorf("%s: the orphanexpiration option may not be less than 1s -- parsed [%s]",
			funcName, cfg.OrphanExpiration)
	}
	if cfg.DebugLevel != "show" {
		err := logger.ParseAndSetDebugLevels(cfg.DebugLevel)
		if err != nil {
			return errors.Errorf("%s: %s", funcName, err)
		}
	}
	return nil
}

// ConsensusConfig returns the configuration of the synchronization core,
// starting from the active network's defaults and applying any override
// given on the command line or in the config file.
func (cfg *Config) ConsensusConfig() *consensus.Config {
	consensusConfig := consensus.NewConfig(cfg.NetParams())
	consensusConfig.BlockCacheSize = cfg.BlockCacheSize
	consensusConfig.NodeInformationSize = cfg.NodeInfoSize
	if cfg.MaxBlockDistance != 0 {
		consensusConfig.MaxBlockDistance = cfg.MaxBlockDistance
	}
	if cfg.MaxOrphanBlocks != 0 {
		consensusConfig.MaxOrphanBlocks = cfg.MaxOrphanBlocks
	}
	if cfg.OrphanExpiration != 0 {
		consensusConfig.OrphanExpiration = cfg.OrphanExpiration
	}
	if cfg.OrphanReleaseDepth != 0 {
		consensusConfig.OrphanReleaseDepth = cfg.OrphanReleaseDepth
	}
	consensusConfig.ValidateUncles = cfg.ValidateUncles
	return consensusConfig
}

// DatabasePath returns the directory of the block database.
func (cfg *Config) DatabasePath() string {
	return filepath.Join(cfg.AppDir, "blocks")
}

// LogFile returns the path of the main log file.
func (cfg *Config) LogFile() string {
	return filepath.Join(cfg.LogDir, defaultLogFilename)
}

// ErrLogFile returns the path of the error log file.
func (cfg *Config) ErrLogFile() string {
	return filepath.Join(cfg.LogDir, defaultErrLogFilename)
}
