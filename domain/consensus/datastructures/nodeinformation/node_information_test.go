package nodeinformation

import (
	"testing"

	"github.com/kaspanet/chainsyncd/domain/consensus/model/externalapi"
)

func TestNodesByBlock(t *testing.T) {
	nodeInformation, err := New(DefaultMaxBlocks)
	if err != nil {
		t.Fatalf("New: %s", err)
	}
	blockHash := externalapi.Keccak256Hash([]byte("block"))

	if nodes := nodeInformation.NodesByBlock(blockHash); len(nodes) != 0 {
		t.Fatalf("NodesByBlock of an unknown block returned %d nodes", len(nodes))
	}

	nodeInformation.AddBlockToNode(blockHash, externalapi.NewPeerID("peer-b"))
	nodeInformation.AddBlockToNode(blockHash, externalapi.NewPeerID("peer-a"))
	nodeInformation.AddBlockToNode(blockHash, externalapi.NewPeerID("peer-b"))
	nodeInformation.AddBlockToNode(blockHash, nil)

	nodes := nodeInformation.NodesByBlock(blockHash)
	if len(nodes) != 2 {
		t.Fatalf("NodesByBlock: expected 2 nodes, got %d", len(nodes))
	}
	if nodes[0].String() != "peer-a" || nodes[1].String() != "peer-b" {
		t.Fatalf("NodesByBlock: unexpected nodes %s, %s", nodes[0], nodes[1])
	}
}

func TestOldestBlocksAreForgotten(t *testing.T) {
	nodeInformation, err := New(2)
	if err != nil {
		t.Fatalf("New: %s", err)
	}
	peer := externalapi.NewPeerID("peer")
	first := externalapi.Keccak256Hash([]byte{1})
	second := externalapi.Keccak256Hash([]byte{2})
	third := externalapi.Keccak256Hash([]byte{3})

	nodeInformation.AddBlockToNode(first, peer)
	nodeInformation.AddBlockToNode(second, peer)
	nodeInformation.AddBlockToNode(third, peer)

	if nodeInformation.Len() != 2 {
		t.Fatalf("Len: expected 2, got %d", nodeInformation.Len())
	}
	if len(nodeInformation.NodesByBlock(first)) != 0 {
		t.Fatalf("the oldest block was not forgotten")
	}
	if len(nodeInformation.NodesByBlock(third)) != 1 {
		t.Fatalf("the newest block was forgotten")
	}

	_, err = New(0)
	if err == nil {
		t.Fatalf("New unexpectedly accepted a size of 0")
	}
}
