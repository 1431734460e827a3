package blockgenerator

import (
	"testing"

	"github.com/kaspanet/chainsyncd/domain/consensus/model/externalapi"
)

func TestBlockChainLinks(t *testing.T) {
	bg := New()
	genesis := bg.GenesisBlock()
	if !genesis.ParentHash().Equal(externalapi.ZeroHash()) || !genesis.IsGenesis() {
		t.Fatalf("genesis does not point to the zero hash at height 0")
	}

	chain := bg.BlockChain(genesis, 5)
	parent := genesis
	for i, block := range chain {
		if !block.ParentHash().Equal(parent.Hash()) {
			t.Fatalf("block %d does not point to its predecessor", i)
		}
		if block.Number() != parent.Number()+1 {
			t.Fatalf("block %d has height %d, expected %d", i, block.Number(), parent.Number()+1)
		}
		parent = block
	}

	first := bg.CreateChildBlock(genesis)
	second := bg.CreateChildBlock(genesis)
	if first.Hash().Equal(second.Hash()) {
		t.Fatalf("two children of the same parent share a hash")
	}
}
