// Package ingest drives the forward-only ingestion loop: poll the head,
// stay a safety buffer behind it, process one block at a time through
// fetch-enrich-commit, detect reorgs by parent hash, and rewind when one
// slips past the buffer. Progress is a single durable checkpoint; every
// block is either fully committed or not present at all, so a crash at any
// point resumes cleanly from checkpoint+1.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/baseindex/baseindex/chain"
	"github.com/baseindex/baseindex/config"
	"github.com/baseindex/baseindex/log"
	"github.com/baseindex/baseindex/store"
)

// catchupThreshold is the head distance beyond which the poller stops
// sleeping between blocks and logs catchup progress instead.
const catchupThreshold = 5

// catchupLogEvery is the block cadence of catchup progress lines.
const catchupLogEvery = 100

// healthLogInterval is the cadence of the periodic health summary.
const healthLogInterval = 30 * time.Second

// Fetcher is the chain-data source the poller consumes.
type Fetcher interface {
	LatestHead(ctx context.Context) (uint64, error)
	BlockWithTxs(ctx context.Context, number uint64) (*chain.Block, error)
	Receipts(ctx context.Context, number uint64, hashes []common.Hash) ([]chain.Receipt, error)
}

// Builder turns a fetched block and its receipts into the rows one commit
// persists.
type Builder interface {
	Snapshot(ctx context.Context, block *chain.Block, receipts []chain.Receipt) (*store.Snapshot, error)
}

// Storage is the durable side of the loop.
type Storage interface {
	Checkpoint(ctx context.Context) (uint64, error)
	SetCheckpoint(ctx context.Context, n uint64) error
	CommitBlock(ctx context.Context, snap *store.Snapshot) error
	BlockByNumber(ctx context.Context, n uint64) (*store.BlockRow, error)
	RewindTo(ctx context.Context, from uint64) error
}

// Poller is the ingestion loop.
type Poller struct {
	fetcher Fetcher
	builder Builder
	store   Storage
	health  *Health
	log     *log.Logger

	pollInterval time.Duration
	safetyBuffer uint64
	rewindDepth  uint64

	lastHealthLog time.Time
}

// New wires a poller from its collaborators and the runtime config.
func New(f Fetcher, b Builder, s Storage, h *Health, cfg *config.Config, logger *log.Logger) *Poller {
	return &Poller{
		fetcher:       f,
		builder:       b,
		store:         s,
		health:        h,
		log:           logger.Module("ingest"),
		pollInterval:  cfg.PollInterval,
		safetyBuffer:  cfg.SafetyBuffer,
		rewindDepth:   cfg.ReorgRewindDepth,
		lastHealthLog: time.Now(),
	}
}

// Run drives the loop until the context is cancelled. The block in flight
// when cancellation arrives finishes committing; cancellation is not an
// error.
func (p *Poller) Run(ctx context.Context) error {
	next, err := p.startBlock(ctx)
	if err != nil {
		return err
	}
	p.log.Info("ingestion started", "block", next,
		"poll_interval", p.pollInterval, "safety_buffer", p.safetyBuffer)

	for {
		if ctx.Err() != nil {
			p.log.Info("ingestion stopped", "next_block", next)
			return nil
		}

		head, err := p.fetcher.LatestHead(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			p.health.Errors.Inc()
			p.log.Warn("head poll failed", "err", err)
			p.sleep(ctx, 2*p.pollInterval)
			continue
		}
		if head < p.safetyBuffer {
			p.sleep(ctx, p.pollInterval)
			continue
		}
		target := head - p.safetyBuffer
		p.health.HeadLag.Set(int64(head) - p.health.LastBlock.Value())

		if next > target {
			p.maybeLogHealth()
			p.sleep(ctx, p.pollInterval)
			continue
		}

		behind := target - next
		rewound, err := p.processBlock(ctx, next)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil
			}
			p.health.Errors.Inc()
			p.log.Error("block failed, will retry", "block", next, "err", err)
			p.sleep(ctx, 2*p.pollInterval)
		case rewound != 0:
			next = rewound
		default:
			p.health.Blocks.Mark(1)
			p.health.LastBlock.Set(int64(next))
			if behind > catchupThreshold && next%catchupLogEvery == 0 {
				p.logCatchup(next, target)
			}
			next++
			if behind <= catchupThreshold {
				p.maybeLogHealth()
				p.sleep(ctx, p.pollInterval)
			}
		}
	}
}

// startBlock resumes from checkpoint+1, or seeds the checkpoint a safety
// buffer behind the current head on a fresh database.
func (p *Poller) startBlock(ctx context.Context) (uint64, error) {
	cp, err := p.store.Checkpoint(ctx)
	if err == nil {
		p.log.Info("resuming from checkpoint", "checkpoint", cp)
		return cp + 1, nil
	}
	if !errors.Is(err, store.ErrNoCheckpoint) {
		return 0, err
	}

	head, err := p.fetcher.LatestHead(ctx)
	if err != nil {
		return 0, fmt.Errorf("ingest: initial head: %w", err)
	}
	if head < p.safetyBuffer {
		return 0, fmt.Errorf("ingest: head %d below safety buffer %d", head, p.safetyBuffer)
	}
	// Persist head-buffer as the seed checkpoint so a crash before the
	// first commit restarts from the same point, then begin at the block
	// after it like any resume.
	start := head - p.safetyBuffer
	if err := p.store.SetCheckpoint(ctx, start); err != nil {
		return 0, fmt.Errorf("ingest: seed checkpoint: %w", err)
	}
	p.log.Info("cold start", "head", head, "checkpoint", start, "start_block", start+1)
	return start + 1, nil
}

// processBlock runs the per-block pipeline for n. A parent-hash mismatch
// rewinds instead of committing and returns the block number to continue
// from; otherwise the block is committed and the checkpoint advanced.
func (p *Poller) processBlock(ctx context.Context, n uint64) (rewound uint64, err error) {
	block, err := p.fetcher.BlockWithTxs(ctx, n)
	if err != nil {
		return 0, err
	}

	ok, err := p.parentLinks(ctx, block)
	if err != nil {
		return 0, err
	}
	if !ok {
		return p.rewind(ctx, n)
	}

	hashes := make([]common.Hash, len(block.Transactions))
	for i := range block.Transactions {
		hashes[i] = block.Transactions[i].Hash
	}
	receipts, err := p.fetcher.Receipts(ctx, n, hashes)
	if err != nil {
		return 0, err
	}

	snap, err := p.builder.Snapshot(ctx, block, receipts)
	if err != nil {
		return 0, err
	}
	if err := p.store.CommitBlock(ctx, snap); err != nil {
		return 0, err
	}
	if err := p.store.SetCheckpoint(ctx, n); err != nil {
		return 0, err
	}
	p.log.Debug("block committed", "block", n,
		"txs", len(snap.Txs), "logs", len(snap.Logs), "swaps", len(snap.DexSwaps))
	return 0, nil
}

// parentLinks reports whether the fetched block's parent hash matches the
// stored predecessor. With no stored predecessor there is nothing to
// check.
func (p *Poller) parentLinks(ctx context.Context, block *chain.Block) (bool, error) {
	n := uint64(block.Number)
	if n == 0 {
		return true, nil
	}
	prev, err := p.store.BlockByNumber(ctx, n-1)
	if errors.Is(err, store.ErrBlockNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	if prev.Reorged {
		return true, nil
	}
	return prev.Hash == block.ParentHash.Hex(), nil
}

// rewind handles a detected reorg at block n: walk back a fixed depth
// (never past block 1), discard dependent rows, and continue from the
// rewind point. A reorg deeper than one depth resolves over repeated
// passes, each walking back another depth.
func (p *Poller) rewind(ctx context.Context, n uint64) (uint64, error) {
	from := uint64(1)
	if n > p.rewindDepth {
		from = n - p.rewindDepth
	}
	p.health.Reorgs.Inc()
	p.log.Warn("reorg detected", "block", n, "rewind_to", from)

	if err := p.store.RewindTo(ctx, from); err != nil {
		return 0, err
	}
	p.health.Rewinds.Inc()
	return from, nil
}

func (p *Poller) logCatchup(next, target uint64) {
	rate := p.health.Blocks.Rate1()
	remaining := target - next
	eta := time.Duration(0)
	if rate > 0 {
		eta = time.Duration(float64(remaining)/rate) * time.Second
	}
	p.log.Info("catching up", "block", next, "target", target,
		"remaining", remaining, "blocks_per_sec", rate, "eta", eta)
}

func (p *Poller) maybeLogHealth() {
	if time.Since(p.lastHealthLog) < healthLogInterval {
		return
	}
	p.lastHealthLog = time.Now()
	p.health.logSnapshot(p.log)
}

// sleep waits for d or until the context is cancelled.
func (p *Poller) sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
