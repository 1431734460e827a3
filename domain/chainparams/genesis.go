package chainparams

import (
	"math/big"

	"github.com/kaspanet/chainsyncd/domain/consensus/utils/blockgenerator"
)

// mainnetGenesisTimestamp is 2026-01-01 00:00:00 UTC.
const mainnetGenesisTimestamp = 1767225600

var mainnetGenesisDifficulty = big.NewInt(1 << 20)

// mainnetGenesisBlock defines the genesis block of the chain which serves
// as the public transaction ledger for the main network.
var mainnetGenesisBlock = blockgenerator.NewGenesisBlock(mainnetGenesisDifficulty,
	mainnetGenesisTimestamp, []byte("chainsyncd mainnet"))

var testnetGenesisBlock = blockgenerator.NewGenesisBlock(big.NewInt(1<<12),
	mainnetGenesisTimestamp, []byte("chainsyncd testnet"))

var regtestGenesisBlock = blockgenerator.NewGenesisBlock(big.NewInt(1),
	0, []byte("chainsyncd regtest"))

var devnetGenesisBlock = blockgenerator.NewGenesisBlock(big.NewInt(1),
	mainnetGenesisTimestamp, []byte("chainsyncd devnet"))
