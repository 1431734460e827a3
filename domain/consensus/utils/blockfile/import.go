package blockfile

import (
	"io"

	"github.com/kaspanet/chainsyncd/domain/consensus/model"
	"github.com/kaspanet/chainsyncd/domain/consensus/ruleerrors"
	"github.com/kaspanet/chainsyncd/infrastructure/logger"
	"github.com/pkg/errors"
)

// ImportStats summarizes an import.
type ImportStats struct {
	Read      int
	Connected int
	Orphans   int // blocks held back on arrival, possibly connected later
	Existing  int
	Ignored   int
	Rejected  int
}

// ErrInterrupted is returned by Import when its interrupt channel closes
// before the whole file was imported.
var ErrInterrupted = errors.New("import interrupted")

// Import feeds every block of the file read by reader to service as a
// local block. Blocks failing validation are counted and skipped; any other
// error aborts the import. A nil interrupt never interrupts.
func Import(service model.BlockSyncService, reader *Reader, isFromFastSync bool,
	interrupt <-chan struct{}) (*ImportStats, error) {

	onEnd := logger.LogAndMeasureExecutionTime(log, "blockfile.Import")
	defer onEnd()

	stats := &ImportStats{}
	for {
		select {
		case <-interrupt:
			return stats, errors.WithStack(ErrInterrupted)
		default:
		}

		block, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stats, err
		}
		stats.Read++

		result, err := service.ProcessBlock(nil, block, isFromFastSync)
		if err != nil {
			if errors.As(err, &ruleerrors.RuleError{}) {
				log.Warnf("Rejected block %s at height %d: %s", block.Hash(), block.Number(), err)
				stats.Rejected++
				continue
			}
			return stats, err
		}
		stats.add(result)
	}
	log.Infof("Imported %d blocks: %d connected, %d orphans, %d existing, %d ignored, %d rejected",
		stats.Read, stats.Connected, stats.Orphans, stats.Existing, stats.Ignored, stats.Rejected)
	return stats, nil
}

func (stats *ImportStats) add(result *model.BlockProcessResult) {
	switch result.Result {
	case model.NoParent:
		stats.Orphans++
	case model.Exist:
		stats.Existing++
	case model.InvalidBlock:
		stats.Rejected++
	case model.ImportedBest, model.ImportedNotBest:
	default:
		stats.Ignored++
	}
	// Connected also counts earlier orphans released by this block
	for _, connectedResult := range result.Connected {
		if connectedResult.IsConnected() {
			stats.Connected++
		}
	}
}

// ExportChain writes the canonical chain of service from height 0 up to
// its best block.
func ExportChain(service model.BlockSyncService, writer *Writer) error {
	onEnd := logger.LogAndMeasureExecutionTime(log, "blockfile.ExportChain")
	defer onEnd()

	best, err := service.BestBlock()
	if err != nil {
		return err
	}
	for number := uint64(0); number <= best.Number(); number++ {
		block, err := service.BlockByNumber(number)
		if err != nil {
			return err
		}
		err = writer.WriteBlock(block)
		if err != nil {
			return err
		}
	}
	return writer.Flush()
}
