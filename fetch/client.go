// Package fetch is the JSON-RPC fetcher: head number, blocks with full
// transactions, and receipts. Receipts prefer the one-round-trip
// eth_getBlockReceipts; the first unsupported response permanently latches
// per-hash fan-out, bounded by the configured concurrency limit.
//
// Every request retries with exponential backoff (1s initial, 30s cap) up
// to a fixed budget. Persistent failure surfaces to the poller, which
// sleeps and retries the same block.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"golang.org/x/sync/errgroup"

	"github.com/baseindex/baseindex/chain"
	"github.com/baseindex/baseindex/log"
)

// Fetch errors.
var (
	// ErrBatchReceiptsUnsupported marks an endpoint without
	// eth_getBlockReceipts.
	ErrBatchReceiptsUnsupported = errors.New("fetch: eth_getBlockReceipts not supported")

	// ErrNotFound is returned when the node has no block at the requested
	// number.
	ErrNotFound = errors.New("fetch: block not found")
)

// methodNotFoundCode is the JSON-RPC error code for an unknown method.
const methodNotFoundCode = -32601

// Retry policy defaults.
const (
	defaultRetryInitial = 1 * time.Second
	defaultRetryMax     = 30 * time.Second
	defaultMaxRetries   = 5
)

// Client fetches chain data over JSON-RPC.
type Client struct {
	rc    *rpc.Client
	limit int
	log   *log.Logger

	// noBatch latches once eth_getBlockReceipts reports unsupported;
	// after that every block uses per-hash fan-out.
	noBatch atomic.Bool

	// Retry knobs, overridable in tests.
	retryInitial time.Duration
	retryMax     time.Duration
	maxRetries   uint64
}

// Dial connects to the endpoint and returns a Client with the given
// receipt fan-out limit.
func Dial(ctx context.Context, url string, limit int, logger *log.Logger) (*Client, error) {
	rc, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch: dial %s: %w", url, err)
	}
	return NewClient(rc, limit, logger), nil
}

// NewClient wraps an existing RPC client.
func NewClient(rc *rpc.Client, limit int, logger *log.Logger) *Client {
	if limit <= 0 {
		limit = 1
	}
	return &Client{
		rc:           rc,
		limit:        limit,
		log:          logger.Module("fetch"),
		retryInitial: defaultRetryInitial,
		retryMax:     defaultRetryMax,
		maxRetries:   defaultMaxRetries,
	}
}

// Close releases the underlying connection.
func (c *Client) Close() {
	c.rc.Close()
}

// call performs one JSON-RPC call under the retry policy. Unknown-method
// errors do not retry.
func (c *Client) call(ctx context.Context, result any, method string, args ...any) error {
	attempt := 0
	op := func() error {
		err := c.rc.CallContext(ctx, result, method, args...)
		if err == nil {
			return nil
		}
		if isMethodNotFound(err) || isRevert(err) {
			return backoff.Permanent(err)
		}
		attempt++
		c.log.Debug("rpc retry", "method", method, "attempt", attempt, "err", err)
		return err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.retryInitial
	bo.MaxInterval = c.retryMax
	bo.MaxElapsedTime = 0 // budget is the retry count, not wall time

	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, c.maxRetries), ctx))
	if err != nil {
		return fmt.Errorf("fetch: %s: %w", method, err)
	}
	return nil
}

// isMethodNotFound reports whether the error is the node telling us the
// method does not exist.
func isMethodNotFound(err error) bool {
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) && rpcErr.ErrorCode() == methodNotFoundCode {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "method not found") ||
		strings.Contains(msg, "does not exist") ||
		strings.Contains(msg, "not supported")
}

// isRevert reports whether the error is an EVM execution revert, which no
// amount of retrying will fix.
func isRevert(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "revert")
}

// factorySelector is the 4-byte selector of factory().
var factorySelector = hexutil.Bytes{0xc4, 0x5a, 0x01, 0x55}

// ErrNoFactory is returned when a pool contract has no factory() view.
var ErrNoFactory = errors.New("fetch: contract has no factory()")

// FactoryOf calls the factory() view on a pool contract against latest
// state. Pools without the method (or that revert) return ErrNoFactory.
func (c *Client) FactoryOf(ctx context.Context, pool common.Address) (common.Address, error) {
	arg := map[string]any{
		"to":    pool,
		"input": factorySelector,
	}
	var out hexutil.Bytes
	if err := c.call(ctx, &out, "eth_call", arg, "latest"); err != nil {
		if isRevert(err) || isMethodNotFound(err) {
			return common.Address{}, ErrNoFactory
		}
		return common.Address{}, err
	}
	if len(out) < 32 {
		return common.Address{}, ErrNoFactory
	}
	return common.BytesToAddress(out[12:32]), nil
}

// LatestHead returns the node's current head block number.
func (c *Client) LatestHead(ctx context.Context) (uint64, error) {
	var head hexutil.Uint64
	if err := c.call(ctx, &head, "eth_blockNumber"); err != nil {
		return 0, err
	}
	return uint64(head), nil
}

// BlockWithTxs fetches a block with full transaction objects.
func (c *Client) BlockWithTxs(ctx context.Context, number uint64) (*chain.Block, error) {
	var block *chain.Block
	if err := c.call(ctx, &block, "eth_getBlockByNumber", hexutil.EncodeUint64(number), true); err != nil {
		return nil, err
	}
	if block == nil {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, number)
	}
	return block, nil
}

// BlockReceipts fetches every receipt of a block in one round trip.
// ErrBatchReceiptsUnsupported when the endpoint lacks the method.
func (c *Client) BlockReceipts(ctx context.Context, number uint64) ([]chain.Receipt, error) {
	var receipts []chain.Receipt
	err := c.call(ctx, &receipts, "eth_getBlockReceipts", hexutil.EncodeUint64(number))
	if err != nil {
		if isMethodNotFound(err) {
			return nil, ErrBatchReceiptsUnsupported
		}
		return nil, err
	}
	return receipts, nil
}

// ReceiptsByHash fetches receipts one per hash with at most limit requests
// in flight, preserving input order in the result.
func (c *Client) ReceiptsByHash(ctx context.Context, hashes []common.Hash) ([]chain.Receipt, error) {
	receipts := make([]chain.Receipt, len(hashes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.limit)

	for i, h := range hashes {
		g.Go(func() error {
			var r *chain.Receipt
			if err := c.call(gctx, &r, "eth_getTransactionReceipt", h); err != nil {
				return err
			}
			if r == nil {
				return fmt.Errorf("fetch: missing receipt %s", h.Hex())
			}
			receipts[i] = *r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return receipts, nil
}

// Receipts returns all receipts for a block, probing the batch method
// until its first unsupported response and using per-hash fan-out after
// that.
func (c *Client) Receipts(ctx context.Context, number uint64, hashes []common.Hash) ([]chain.Receipt, error) {
	if len(hashes) == 0 {
		return nil, nil
	}
	if !c.noBatch.Load() {
		receipts, err := c.BlockReceipts(ctx, number)
		if err == nil {
			return receipts, nil
		}
		if !errors.Is(err, ErrBatchReceiptsUnsupported) {
			return nil, err
		}
		c.noBatch.Store(true)
		c.log.Info("eth_getBlockReceipts unsupported, switching to per-hash receipts")
	}
	return c.ReceiptsByHash(ctx, hashes)
}
