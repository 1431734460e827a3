package serialization

import (
	"encoding/binary"

	"github.com/kaspanet/chainsyncd/domain/consensus/model/externalapi"
	"github.com/pkg/errors"
)

// DomainHashToDbHash converts a BlockHash to its raw storage bytes
func DomainHashToDbHash(domainHash *externalapi.BlockHash) []byte {
	if domainHash == nil {
		return nil
	}
	return domainHash.ByteSlice()
}

// DbHashToDomainHash converts raw storage bytes to a BlockHash
func DbHashToDomainHash(dbHash []byte) *externalapi.BlockHash {
	return externalapi.NewBlockHash(dbHash)
}

// BlockNumberToKey encodes a height as a big-endian key suffix, so that
// cursors iterate heights in ascending order.
func BlockNumberToKey(number uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, number)
	return key
}

// KeyToBlockNumber decodes a key suffix produced by BlockNumberToKey.
func KeyToBlockNumber(key []byte) (uint64, error) {
	if len(key) != 8 {
		return 0, errors.Errorf("invalid block number key length %d", len(key))
	}
	return binary.BigEndian.Uint64(key), nil
}
