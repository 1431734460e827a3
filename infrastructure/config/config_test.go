package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kaspanet/chainsyncd/domain/chainparams"
	"github.com/kaspanet/chainsyncd/domain/consensus"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chainsyncd.conf")
	err := os.WriteFile(path, []byte(content), 0600)
	if err != nil {
		t.Fatalf("Failed writing config file: %s", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	configFile := writeConfigFile(t, "")
	appDir := t.TempDir()
	cfg, _, err := LoadConfig([]string{"--configfile", configFile, "--appdir", appDir})
	if err != nil {
		t.Fatalf("LoadConfig: %s", err)
	}
	if cfg.NetParams() != &chainparams.MainnetParams {
		t.Fatalf("expected mainnet by default, got %s", cfg.NetParams().Name)
	}
	if cfg.AppDir != filepath.Join(appDir, chainparams.MainnetParams.Name) {
		t.Fatalf("the app directory is not namespaced by network: %s", cfg.AppDir)
	}

	consensusConfig := cfg.ConsensusConfig()
	if consensusConfig.MaxOrphanBlocks != chainparams.MainnetParams.MaxOrphanBlocks {
		t.Fatalf("expected the network's orphan bound %d, got %d",
			chainparams.MainnetParams.MaxOrphanBlocks, consensusConfig.MaxOrphanBlocks)
	}
	if consensusConfig.BlockCacheSize != consensus.DefaultBlockCacheSize ||
		consensusConfig.NodeInformationSize != consensus.DefaultNodeInformationSize || consensusConfig.ValidateUncles {
		t.Fatalf("unexpected default consensus config %+v", consensusConfig)
	}
}

func TestLoadConfigNetworks(t *testing.T) {
	tests := []struct {
		args        []string
		expected    *chainparams.Params
		expectedErr bool
	}{
		{nil, &chainparams.MainnetParams, false},
		{[]string{"--testnet"}, &chainparams.TestnetParams, false},
		{[]string{"--regtest"}, &chainparams.RegressionNetParams, false},
		{[]string{"--devnet"}, &chainparams.DevnetParams, false},
		{[]string{"--testnet", "--devnet"}, nil, true},
	}
	for _, test := range tests {
		args := append([]string{"--configfile", writeConfigFile(t, ""), "--appdir", t.TempDir()}, test.args...)
		cfg, _, err := LoadConfig(args)
		if test.expectedErr {
			if err == nil {
				t.Errorf("%v: expected an error", test.args)
			}
			continue
		}
		if err != nil {
			t.Errorf("%v: unexpected error: %s", test.args, err)
			continue
		}
		if cfg.NetParams() != test.expected {
			t.Errorf("%v: expected network %s, got %s", test.args, test.expected.Name, cfg.NetParams().Name)
		}
	}
}

func TestCommandLineOverridesConfigFile(t *testing.T) {
	configFile := writeConfigFile(t, `
[Application Options]
devnet=1
maxorphans=50
orphanexpiration=10m
blockcachesize=100
validateuncles=1
`)
	cfg, _, err := LoadConfig([]string{"--configfile", configFile, "--appdir", t.TempDir(), "--maxorphans=70"})
	if err != nil {
		t.Fatalf("LoadConfig: %s", err)
	}
	if cfg.NetParams() != &chainparams.DevnetParams {
		t.Fatalf("the network of the config file was not applied")
	}

	consensusConfig := cfg.ConsensusConfig()
	if consensusConfig.MaxOrphanBlocks != 70 {
		t.Fatalf("expected the command line to win with 70 orphans, got %d", consensusConfig.MaxOrphanBlocks)
	}
	if consensusConfig.OrphanExpiration != 10*time.Minute {
		t.Fatalf("expected the config file expiration, got %s", consensusConfig.OrphanExpiration)
	}
	if consensusConfig.BlockCacheSize != 100 || !consensusConfig.ValidateUncles {
		t.Fatalf("config file options were not applied: %+v", consensusConfig)
	}
	if consensusConfig.MaxBlockDistance != chainparams.DevnetParams.MaxBlockDistance {
		t.Fatalf("an unset option did not fall back to the network default")
	}
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	tests := [][]string{
		{"--blockcachesize=0"},
		{"--nodeinfosize=-1"},
		{"--maxorphans=-5"},
		{"--orphanexpiration=10ms"},
		{"--loglevel=verbose"},
		{"--nosuchflag"},
	}
	for _, args := range tests {
		args = append([]string{"--configfile", writeConfigFile(t, ""), "--appdir", t.TempDir()}, args...)
		_, _, err := LoadConfig(args)
		if err == nil {
			t.Errorf("%v: expected an error", args)
		}
	}
}

func TestMissingExplicitConfigFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.conf")
	_, _, err := LoadConfig([]string{"--configfile", missing})
	if err == nil {
		t.Fatalf("expected an error for a missing explicit config file")
	}
}
