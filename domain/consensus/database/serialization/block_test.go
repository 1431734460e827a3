package serialization

import (
	"math/big"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/kaspanet/chainsyncd/domain/consensus/model/externalapi"
)

func TestBlockSerializationRoundTrip(t *testing.T) {
	uncle := &externalapi.DomainBlockHeader{
		ParentHash: externalapi.Keccak256Hash([]byte("grandparent")),
		UnclesHash: externalapi.EmptyListHash(),
		Number:     4,
		Difficulty: big.NewInt(7),
	}
	block := &externalapi.DomainBlock{
		Header: &externalapi.DomainBlockHeader{
			ParentHash: externalapi.Keccak256Hash([]byte("parent")),
			Coinbase:   []byte{1, 2, 3},
			Number:     6,
			Difficulty: big.NewInt(1000000),
			Timestamp:  42,
			ExtraData:  []byte("x"),
			Nonce:      9,
		},
		Uncles: []*externalapi.DomainBlockHeader{uncle},
	}
	block.Header.UnclesHash = externalapi.CalcUnclesHash(block.Uncles)
	totalWork := new(big.Int).Lsh(big.NewInt(1), 100)

	serialized, err := SerializeBlock(block, totalWork, 17)
	if err != nil {
		t.Fatalf("SerializeBlock: %s", err)
	}
	deserialized, deserializedWork, sequence, err := DeserializeBlock(serialized)
	if err != nil {
		t.Fatalf("DeserializeBlock: %s", err)
	}
	if !deserialized.Equal(block) {
		t.Fatalf("round trip changed the block. Want: %s, got: %s", spew.Sdump(block), spew.Sdump(deserialized))
	}
	if !deserialized.Hash().Equal(block.Hash()) {
		t.Fatalf("round trip changed the block hash")
	}
	if deserializedWork.Cmp(totalWork) != 0 {
		t.Fatalf("round trip changed the total work. Want: %s, got: %s", totalWork, deserializedWork)
	}

	if sequence != 17 {
		t.Fatalf("round trip changed the sequence. Want: 17, got: %d", sequence)
	}

	_, _, _, err = DeserializeBlock([]byte{0xc0})
	if err == nil {
		t.Fatalf("DeserializeBlock unexpectedly accepted an empty record")
	}
}

func TestBlockNumberKeyOrdering(t *testing.T) {
	numbers := []uint64{0, 1, 255, 256, 1 << 40}
	for i := 1; i < len(numbers); i++ {
		previous := BlockNumberToKey(numbers[i-1])
		current := BlockNumberToKey(numbers[i])
		if string(previous) >= string(current) {
			t.Fatalf("key of %d does not order before key of %d", numbers[i-1], numbers[i])
		}
	}
	number, err := KeyToBlockNumber(BlockNumberToKey(1 << 40))
	if err != nil || number != 1<<40 {
		t.Fatalf("KeyToBlockNumber returned (%d, %v)", number, err)
	}
	if _, err := KeyToBlockNumber([]byte{1}); err == nil {
		t.Fatalf("KeyToBlockNumber unexpectedly accepted a short key")
	}
}

func TestBlockWithoutSequenceDecodes(t *testing.T) {
	block := &externalapi.DomainBlock{
		Header: &externalapi.DomainBlockHeader{
			ParentHash: externalapi.ZeroHash(),
			UnclesHash: externalapi.EmptyListHash(),
			Difficulty: big.NewInt(1),
		},
	}
	serialized, err := SerializeBlock(block, big.NewInt(1), 0)
	if err != nil {
		t.Fatalf("SerializeBlock: %s", err)
	}
	_, totalWork, sequence, err := DeserializeBlock(serialized)
	if err != nil {
		t.Fatalf("DeserializeBlock: %s", err)
	}
	if sequence != 0 || totalWork.Int64() != 1 {
		t.Fatalf("unexpected record: total work %s, sequence %d", totalWork, sequence)
	}
}
