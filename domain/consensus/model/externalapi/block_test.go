package externalapi

import (
	"math/big"
	"testing"
)

func testHeader(number uint64) *DomainBlockHeader {
	return &DomainBlockHeader{
		ParentHash: Keccak256Hash([]byte{byte(number)}),
		UnclesHash: EmptyListHash(),
		Coinbase:   []byte{0xaa, 0xbb},
		Number:     number,
		Difficulty: big.NewInt(1000),
		Timestamp:  1600000000 + number,
		ExtraData:  []byte("extra"),
		Nonce:      number * 7,
	}
}

func TestHeaderHashIsDeterministic(t *testing.T) {
	header := testHeader(5)
	clone := header.Clone()
	if !header.Hash().Equal(clone.Hash()) {
		t.Fatalf("a header and its clone hash differently")
	}
	if header.Hash().Len() != BlockHashSize {
		t.Fatalf("header hash has %d bytes", header.Hash().Len())
	}

	other := testHeader(5)
	other.Nonce++
	if header.Hash().Equal(other.Hash()) {
		t.Fatalf("headers with different nonces hash equally")
	}
}

func TestHeaderEncodingRoundTrip(t *testing.T) {
	header := testHeader(12)
	encoded, err := EncodeHeader(header)
	if err != nil {
		t.Fatalf("EncodeHeader: %s", err)
	}
	decoded, err := DecodeHeader(encoded)
	if err != nil {
		t.Fatalf("DecodeHeader: %s", err)
	}
	if !decoded.Equal(header) {
		t.Fatalf("decoded header differs from the original")
	}
	if !decoded.Hash().Equal(header.Hash()) {
		t.Fatalf("decoded header hashes differently")
	}

	_, err = DecodeHeader([]byte{0x01, 0x02})
	if err == nil {
		t.Fatalf("DecodeHeader unexpectedly accepted garbage")
	}
}

func TestBlockCloneAndEqual(t *testing.T) {
	block := &DomainBlock{
		Header: testHeader(3),
		Uncles: []*DomainBlockHeader{testHeader(2)},
	}
	block.Header.UnclesHash = CalcUnclesHash(block.Uncles)
	clone := block.Clone()
	if !block.Equal(clone) {
		t.Fatalf("clone is not equal to the original")
	}

	clone.Header.Difficulty.SetInt64(1)
	if block.Difficulty().Int64() != 1000 {
		t.Fatalf("modifying the clone's difficulty changed the original")
	}
	if block.Equal(clone) {
		t.Fatalf("blocks with different difficulties are equal")
	}
	if CalcUnclesHash(block.Uncles).Equal(EmptyListHash()) {
		t.Fatalf("a non-empty uncle list hashed to EmptyListHash")
	}
	if block.Number() != 3 || block.IsGenesis() || !block.ParentHash().Equal(block.Header.ParentHash) {
		t.Fatalf("block accessors disagree with the header")
	}
}
