package serialization

import (
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/kaspanet/chainsyncd/domain/consensus/model/externalapi"
	"github.com/pkg/errors"
)

// DbBlockHeader is the storage representation of a block header.
type DbBlockHeader struct {
	ParentHash []byte
	UnclesHash []byte
	Coinbase   []byte
	Number     uint64
	Difficulty *big.Int
	Timestamp  uint64
	ExtraData  []byte
	Nonce      uint64
}

// DbBlock is the storage representation of a connected block together with
// the cumulative work of the chain it terminates. Sequence is the order in
// which the store first saw the block.
type DbBlock struct {
	Header    *DbBlockHeader
	Uncles    []*DbBlockHeader
	TotalWork *big.Int
	Sequence  uint64 `rlp:"optional"`
}

// DomainBlockHeaderToDbBlockHeader converts DomainBlockHeader to DbBlockHeader
func DomainBlockHeaderToDbBlockHeader(header *externalapi.DomainBlockHeader) *DbBlockHeader {
	return &DbBlockHeader{
		ParentHash: DomainHashToDbHash(header.ParentHash),
		UnclesHash: DomainHashToDbHash(header.UnclesHash),
		Coinbase:   header.Coinbase,
		Number:     header.Number,
		Difficulty: header.Difficulty,
		Timestamp:  header.Timestamp,
		ExtraData:  header.ExtraData,
		Nonce:      header.Nonce,
	}
}

// DbBlockHeaderToDomainBlockHeader converts DbBlockHeader to DomainBlockHeader
func DbBlockHeaderToDomainBlockHeader(dbHeader *DbBlockHeader) (*externalapi.DomainBlockHeader, error) {
	if dbHeader == nil {
		return nil, errors.New("missing block header")
	}
	if dbHeader.Difficulty == nil {
		return nil, errors.New("missing block difficulty")
	}
	return &externalapi.DomainBlockHeader{
		ParentHash: DbHashToDomainHash(dbHeader.ParentHash),
		UnclesHash: DbHashToDomainHash(dbHeader.UnclesHash),
		Coinbase:   dbHeader.Coinbase,
		Number:     dbHeader.Number,
		Difficulty: dbHeader.Difficulty,
		Timestamp:  dbHeader.Timestamp,
		ExtraData:  dbHeader.ExtraData,
		Nonce:      dbHeader.Nonce,
	}, nil
}

// DomainBlockToDbBlock converts DomainBlock, its total work and its store
// sequence to DbBlock
func DomainBlockToDbBlock(block *externalapi.DomainBlock, totalWork *big.Int, sequence uint64) *DbBlock {
	dbUncles := make([]*DbBlockHeader, len(block.Uncles))
	for i, uncle := range block.Uncles {
		dbUncles[i] = DomainBlockHeaderToDbBlockHeader(uncle)
	}
	return &DbBlock{
		Header:    DomainBlockHeaderToDbBlockHeader(block.Header),
		Uncles:    dbUncles,
		TotalWork: totalWork,
		Sequence:  sequence,
	}
}

// DbBlockToDomainBlock converts DbBlock to DomainBlock, its total work and
// its store sequence
func DbBlockToDomainBlock(dbBlock *DbBlock) (*externalapi.DomainBlock, *big.Int, uint64, error) {
	header, err := DbBlockHeaderToDomainBlockHeader(dbBlock.Header)
	if err != nil {
		return nil, nil, 0, err
	}
	uncles := make([]*externalapi.DomainBlockHeader, len(dbBlock.Uncles))
	for i, dbUncle := range dbBlock.Uncles {
		uncles[i], err = DbBlockHeaderToDomainBlockHeader(dbUncle)
		if err != nil {
			return nil, nil, 0, errors.Wrapf(err, "uncle %d", i)
		}
	}
	if dbBlock.TotalWork == nil {
		return nil, nil, 0, errors.New("missing total work")
	}
	return &externalapi.DomainBlock{Header: header, Uncles: uncles}, dbBlock.TotalWork, dbBlock.Sequence, nil
}

// SerializeBlock returns the RLP encoding of the block record.
func SerializeBlock(block *externalapi.DomainBlock, totalWork *big.Int, sequence uint64) ([]byte, error) {
	encoded, err := rlp.EncodeToBytes(DomainBlockToDbBlock(block, totalWork, sequence))
	if err != nil {
		return nil, errors.Wrapf(err, "failed serializing block %s", block.Hash())
	}
	return encoded, nil
}

// DeserializeBlock parses a block record produced by SerializeBlock.
func DeserializeBlock(blockBytes []byte) (*externalapi.DomainBlock, *big.Int, uint64, error) {
	dbBlock := &DbBlock{}
	err := rlp.DecodeBytes(blockBytes, dbBlock)
	if err != nil {
		return nil, nil, 0, errors.Wrap(err, "failed deserializing block")
	}
	return DbBlockToDomainBlock(dbBlock)
}
