// Package dex resolves pool contract addresses to DEX family names. The
// hot path is a synchronous cache-only lookup that never touches the
// network; misses enqueue a detached factory() probe whose result lands in
// the durable cache for subsequent blocks.
package dex

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/baseindex/baseindex/chain"
	"github.com/baseindex/baseindex/log"
)

// memCacheSize bounds the in-memory pool cache. Base sees far fewer
// distinct active pools than this.
const memCacheSize = 4096

// probeTimeout bounds one detached factory probe.
const probeTimeout = 15 * time.Second

// CacheStore is the durable pool cache, implemented by the store gateway.
type CacheStore interface {
	PoolDex(ctx context.Context, pool string) (dexName, factory string, ok bool, err error)
	PutPoolDex(ctx context.Context, pool, dexName, factory string) error
	LoadPoolCache(ctx context.Context) (map[string]string, error)
}

// FactoryCaller performs the read-only factory() probe, implemented by the
// fetch client. ErrNoFactory (or any error) falls back to a
// signature-derived name.
type FactoryCaller interface {
	FactoryOf(ctx context.Context, pool common.Address) (common.Address, error)
}

// Resolver maps pool addresses to DEX family names.
type Resolver struct {
	store  CacheStore
	caller FactoryCaller
	log    *log.Logger

	mem      *lru.Cache[string, string]
	loadOnce sync.Once

	// pending deduplicates in-flight probes by pool address.
	mu      sync.Mutex
	pending map[string]struct{}
	wg      sync.WaitGroup
}

// NewResolver creates a resolver over the durable cache and probe caller.
func NewResolver(store CacheStore, caller FactoryCaller, logger *log.Logger) *Resolver {
	mem, _ := lru.New[string, string](memCacheSize)
	return &Resolver{
		store:   store,
		caller:  caller,
		log:     logger.Module("dex"),
		mem:     mem,
		pending: make(map[string]struct{}),
	}
}

// Lookup is the synchronous, hot-path resolution: singletons, the curated
// Curve set, the in-memory cache (warmed once from the store), then the
// durable cache. It never issues RPC. ok=false means not cached yet.
func (r *Resolver) Lookup(ctx context.Context, pool common.Address) (string, bool) {
	if name, ok := singletons[pool]; ok {
		return name, true
	}
	if curvePools[pool] {
		return NameCurve, true
	}

	r.loadOnce.Do(func() { r.warm(ctx) })

	key := chain.LowerHex(pool)
	if name, ok := r.mem.Get(key); ok {
		return name, true
	}

	name, _, ok, err := r.store.PoolDex(ctx, key)
	if err != nil {
		r.log.Warn("pool cache read failed", "pool", key, "err", err)
		return "", false
	}
	if !ok {
		return "", false
	}
	r.mem.Add(key, name)
	return name, true
}

// warm loads the durable cache into memory once.
func (r *Resolver) warm(ctx context.Context) {
	m, err := r.store.LoadPoolCache(ctx)
	if err != nil {
		r.log.Warn("pool cache warm failed", "err", err)
		return
	}
	for pool, name := range m {
		r.mem.Add(pool, name)
	}
	if len(m) > 0 {
		r.log.Info("pool cache warmed", "entries", len(m))
	}
}

// Queue schedules a detached factory probe for an unresolved pool. A probe
// already pending or a pool already cached makes this a no-op, so two
// swaps from the same unknown pool in one block issue one RPC.
func (r *Resolver) Queue(pool common.Address, topic0 common.Hash) {
	key := chain.LowerHex(pool)

	r.mu.Lock()
	if _, inflight := r.pending[key]; inflight {
		r.mu.Unlock()
		return
	}
	if _, cached := r.mem.Get(key); cached {
		r.mu.Unlock()
		return
	}
	r.pending[key] = struct{}{}
	r.mu.Unlock()

	r.wg.Add(1)
	go r.probe(pool, topic0)
}

// Wait blocks until every queued probe has finished, used on shutdown so
// probe results are not lost.
func (r *Resolver) Wait() {
	r.wg.Wait()
}

// probe resolves one pool via factory() and records the result in both
// caches. It runs detached from the block pipeline.
func (r *Resolver) probe(pool common.Address, topic0 common.Hash) {
	key := chain.LowerHex(pool)
	defer func() {
		r.mu.Lock()
		delete(r.pending, key)
		r.mu.Unlock()
		r.wg.Done()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	name, factory := r.resolveOnChain(ctx, pool, topic0)

	r.mem.Add(key, name)
	if err := r.store.PutPoolDex(ctx, key, name, factory); err != nil {
		r.log.Warn("pool cache write failed", "pool", key, "err", err)
		return
	}
	r.log.Debug("pool resolved", "pool", key, "dex", name)
}

// resolveOnChain maps the pool's factory address through the curated
// table. A missing factory() view degrades to the signature fallback; an
// unrecognized factory yields Unknown(<prefix>).
func (r *Resolver) resolveOnChain(ctx context.Context, pool common.Address, topic0 common.Hash) (name, factory string) {
	addr, err := r.caller.FactoryOf(ctx, pool)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			r.log.Debug("factory probe failed", "pool", chain.LowerHex(pool), "err", err)
		}
		return FallbackName(topic0), ""
	}
	factory = chain.LowerHex(addr)
	if known, ok := factoryToDex[addr]; ok {
		return known, factory
	}
	return fmt.Sprintf("Unknown(%s)", factory[:10]), factory
}
