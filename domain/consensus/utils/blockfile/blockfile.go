// Package blockfile reads and writes block files: concatenated RLP
// encodings of blocks, oldest first, as produced by the importblocks tool.
package blockfile

import (
	"bufio"
	"io"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/kaspanet/chainsyncd/domain/consensus/database/serialization"
	"github.com/kaspanet/chainsyncd/domain/consensus/model/externalapi"
	"github.com/pkg/errors"
)

type fileBlock struct {
	Header *serialization.DbBlockHeader
	Uncles []*serialization.DbBlockHeader
}

// Writer appends blocks to a block file.
type Writer struct {
	writer *bufio.Writer
	count  int
}

// NewWriter returns a Writer over w. Flush must be called once all blocks
// were written.
func NewWriter(w io.Writer) *Writer {
	return &Writer{writer: bufio.NewWriter(w)}
}

// WriteBlock appends block to the file.
func (w *Writer) WriteBlock(block *externalapi.DomainBlock) error {
	uncles := make([]*serialization.DbBlockHeader, len(block.Uncles))
	for i, uncle := range block.Uncles {
		uncles[i] = serialization.DomainBlockHeaderToDbBlockHeader(uncle)
	}
	err := rlp.Encode(w.writer, &fileBlock{
		Header: serialization.DomainBlockHeaderToDbBlockHeader(block.Header),
		Uncles: uncles,
	})
	if err != nil {
		return errors.Wrapf(err, "failed writing block %s", block.Hash())
	}
	w.count++
	return nil
}

// Count returns the number of blocks written so far.
func (w *Writer) Count() int {
	return w.count
}

// Flush writes any buffered data to the underlying writer.
func (w *Writer) Flush() error {
	return w.writer.Flush()
}

// Reader iterates over the blocks of a block file.
type Reader struct {
	stream *rlp.Stream
	count  int
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{stream: rlp.NewStream(bufio.NewReader(r), 0)}
}

// Next returns the next block of the file, or io.EOF once the file is
// exhausted.
func (r *Reader) Next() (*externalapi.DomainBlock, error) {
	decoded := &fileBlock{}
	err := r.stream.Decode(decoded)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, errors.Wrapf(err, "failed reading block #%d of the file", r.count)
	}

	header, err := serialization.DbBlockHeaderToDomainBlockHeader(decoded.Header)
	if err != nil {
		return nil, errors.Wrapf(err, "block #%d of the file", r.count)
	}
	uncles := make([]*externalapi.DomainBlockHeader, len(decoded.Uncles))
	for i, dbUncle := range decoded.Uncles {
		uncles[i], err = serialization.DbBlockHeaderToDomainBlockHeader(dbUncle)
		if err != nil {
			return nil, errors.Wrapf(err, "uncle %d of block #%d of the file", i, r.count)
		}
	}
	r.count++
	return &externalapi.DomainBlock{Header: header, Uncles: uncles}, nil
}
