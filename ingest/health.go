package ingest

import (
	"github.com/baseindex/baseindex/log"
	"github.com/baseindex/baseindex/metrics"
)

// Health is the live counter view of a running poller. All fields are safe
// for concurrent reads while the poller runs.
type Health struct {
	// Blocks marks one event per committed block; its Rate1 is the
	// blocks/sec figure logged during catchup.
	Blocks *metrics.Meter

	Errors  metrics.Counter
	Reorgs  metrics.Counter
	Rewinds metrics.Counter

	// LastBlock is the newest committed block number, HeadLag the distance
	// to the node head observed on the last poll.
	LastBlock metrics.Gauge
	HeadLag   metrics.Gauge
}

// NewHealth creates a zeroed health view.
func NewHealth() *Health {
	return &Health{Blocks: metrics.NewMeter()}
}

// CatchingUp reports whether the poller is further behind the head than
// the catchup threshold.
func (h *Health) CatchingUp() bool {
	return h.HeadLag.Value() > catchupThreshold
}

// logSnapshot emits the one-line periodic health summary.
func (h *Health) logSnapshot(logger *log.Logger) {
	logger.Info("health",
		"last_block", h.LastBlock.Value(),
		"head_lag", h.HeadLag.Value(),
		"catching_up", h.CatchingUp(),
		"blocks", h.Blocks.Count(),
		"rate1", h.Blocks.Rate1(),
		"rate_mean", h.Blocks.RateMean(),
		"errors", h.Errors.Count(),
		"reorgs", h.Reorgs.Count(),
		"uptime_s", h.Blocks.Uptime(),
	)
}
