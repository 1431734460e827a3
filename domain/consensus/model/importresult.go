package model

import (
	"fmt"

	"github.com/kaspanet/chainsyncd/domain/consensus/model/externalapi"
)

// ImportResult describes what happened to a block submitted for admission.
type ImportResult byte

const (
	// ImportedBest indicates the block was connected and became the best block.
	ImportedBest ImportResult = iota

	// ImportedNotBest indicates the block was connected on a chain that does
	// not carry the most work.
	ImportedNotBest

	// Exist indicates the block was already known.
	Exist

	// NoParent indicates the block was held back until its parent arrives.
	NoParent

	// InvalidBlock indicates the block failed validation.
	InvalidBlock

	// Ignored indicates the block is too far ahead of the best block to be
	// held in memory.
	Ignored
)

var importResultStrings = map[ImportResult]string{
	ImportedBest:    "ImportedBest",
	ImportedNotBest: "ImportedNotBest",
	Exist:           "Exist",
	NoParent:        "NoParent",
	InvalidBlock:    "InvalidBlock",
	Ignored:         "Ignored",
}

func (result ImportResult) String() string {
	if s, ok := importResultStrings[result]; ok {
		return s
	}
	return fmt.Sprintf("ImportResult(%d)", byte(result))
}

// IsConnected returns whether the result means the block is now in the store.
func (result ImportResult) IsConnected() bool {
	return result == ImportedBest || result == ImportedNotBest
}

// BlockProcessResult reports the outcome of a single ProcessBlock call:
// the result for the submitted block and for every orphan it released.
type BlockProcessResult struct {
	BlockHash *externalapi.BlockHash
	Result    ImportResult
	Connected map[externalapi.BlockHash]ImportResult
}

// NewBlockProcessResult returns a result for blockHash with no connected blocks.
func NewBlockProcessResult(blockHash *externalapi.BlockHash, result ImportResult) *BlockProcessResult {
	return &BlockProcessResult{
		BlockHash: blockHash,
		Result:    result,
		Connected: make(map[externalapi.BlockHash]ImportResult),
	}
}

// IsBestChanged returns whether any block connected during the call became
// the best block.
func (result *BlockProcessResult) IsBestChanged() bool {
	for _, connectedResult := range result.Connected {
		if connectedResult == ImportedBest {
			return true
		}
	}
	return false
}
