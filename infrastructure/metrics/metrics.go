package metrics

import (
	"math/big"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	bestHeightGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chainsyncd_best_block_height",
		Help: "Height of the best block",
	})
	bestTotalWorkGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chainsyncd_best_block_total_work",
		Help: "Cumulative work of the best chain, as a float approximation",
	})
	orphanCountGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chainsyncd_orphan_blocks",
		Help: "Number of blocks held back waiting for their parent",
	})
	importResultCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chainsyncd_processed_blocks_total",
		Help: "Processed blocks by import result",
	}, []string{"result"})
	reorganizationCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chainsyncd_reorganizations_total",
		Help: "Number of best chain changes that removed blocks from the main chain",
	})
	reorganizationDepthHistogram = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "chainsyncd_reorganization_depth",
		Help:    "Number of main chain blocks removed by a reorganization",
		Buckets: []float64{1, 2, 3, 5, 10, 20, 50, 100},
	})
	evictedOrphansCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chainsyncd_evicted_orphans_total",
		Help: "Orphan blocks dropped from the orphan pool by reason",
	}, []string{"reason"})
)

// SetBestBlock records the height and cumulative work of the best block.
func SetBestBlock(height uint64, totalWork *big.Int) {
	bestHeightGauge.Set(float64(height))
	totalWorkFloat, _ := new(big.Float).SetInt(totalWork).Float64()
	bestTotalWorkGauge.Set(totalWorkFloat)
}

// SetOrphanCount records the size of the orphan pool.
func SetOrphanCount(count int) {
	orphanCountGauge.Set(float64(count))
}

// IncImportResult counts a processed block by its import result.
func IncImportResult(result string) {
	importResultCounter.WithLabelValues(result).Inc()
}

// ObserveReorganization records a best chain change that removed depth
// blocks from the main chain.
func ObserveReorganization(depth int) {
	reorganizationCounter.Inc()
	reorganizationDepthHistogram.Observe(float64(depth))
}

// IncEvictedOrphans counts orphans dropped for the given reason.
func IncEvictedOrphans(reason string, count int) {
	evictedOrphansCounter.WithLabelValues(reason).Add(float64(count))
}
