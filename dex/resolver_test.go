package dex

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/baseindex/baseindex/events"
	"github.com/baseindex/baseindex/log"
)

// fakeCache is an in-memory CacheStore.
type fakeCache struct {
	mu      sync.Mutex
	entries map[string]string
	puts    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]string)}
}

func (c *fakeCache) PoolDex(ctx context.Context, pool string) (string, string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	name, ok := c.entries[pool]
	return name, "", ok, nil
}

func (c *fakeCache) PutPoolDex(ctx context.Context, pool, dexName, factory string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[pool] = dexName
	c.puts++
	return nil
}

func (c *fakeCache) LoadPoolCache(ctx context.Context) (map[string]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m := make(map[string]string, len(c.entries))
	for k, v := range c.entries {
		m[k] = v
	}
	return m, nil
}

// fakeCaller answers factory() probes from a fixed map; pools absent from
// it have no factory.
type fakeCaller struct {
	factories map[common.Address]common.Address
	calls     atomic.Int64
}

func (f *fakeCaller) FactoryOf(ctx context.Context, pool common.Address) (common.Address, error) {
	f.calls.Add(1)
	if addr, ok := f.factories[pool]; ok {
		return addr, nil
	}
	return common.Address{}, fmt.Errorf("probe %s: %w", pool, errNoFactoryForTest)
}

var errNoFactoryForTest = fmt.Errorf("contract has no factory()")

func newTestResolver(cache *fakeCache, caller *fakeCaller) *Resolver {
	return NewResolver(cache, caller, log.Default())
}

var (
	uniV3Factory = common.HexToAddress("0x33128a8fC17869897dcE68Ed026d694621f6FDfD")
	testPool     = common.HexToAddress("0xdddddddddddddddddddddddddddddddddddddddd")
)

func TestLookupSingleton(t *testing.T) {
	r := newTestResolver(newFakeCache(), &fakeCaller{})

	poolManager := common.HexToAddress("0x498581fF718922c3f8e6A244956aF099B2652b2b")
	name, ok := r.Lookup(context.Background(), poolManager)
	if !ok || name != NameUniswapV4 {
		t.Errorf("Lookup = %q, %v, want %q, true", name, ok, NameUniswapV4)
	}
}

func TestLookupCuratedCurvePool(t *testing.T) {
	r := newTestResolver(newFakeCache(), &fakeCaller{})

	pool := common.HexToAddress("0x6e53131F68a034873b6bFA15502aF094Ef0c5854")
	name, ok := r.Lookup(context.Background(), pool)
	if !ok || name != NameCurve {
		t.Errorf("Lookup = %q, %v, want %q, true", name, ok, NameCurve)
	}
}

func TestLookupDurableCacheHit(t *testing.T) {
	cache := newFakeCache()
	cache.entries["0xdddddddddddddddddddddddddddddddddddddddd"] = NameUniswapV3
	r := newTestResolver(cache, &fakeCaller{})

	name, ok := r.Lookup(context.Background(), testPool)
	if !ok || name != NameUniswapV3 {
		t.Errorf("Lookup = %q, %v, want %q, true", name, ok, NameUniswapV3)
	}
}

func TestMissThenProbeThenHit(t *testing.T) {
	cache := newFakeCache()
	caller := &fakeCaller{factories: map[common.Address]common.Address{testPool: uniV3Factory}}
	r := newTestResolver(cache, caller)
	ctx := context.Background()

	if _, ok := r.Lookup(ctx, testPool); ok {
		t.Fatal("expected cache miss before probe")
	}

	r.Queue(testPool, events.TopicSwapV3)
	r.Wait()

	name, ok := r.Lookup(ctx, testPool)
	if !ok || name != NameUniswapV3 {
		t.Errorf("Lookup after probe = %q, %v, want %q, true", name, ok, NameUniswapV3)
	}
	if cache.puts != 1 {
		t.Errorf("durable puts = %d, want 1", cache.puts)
	}
}

func TestQueueDeduplicates(t *testing.T) {
	caller := &fakeCaller{factories: map[common.Address]common.Address{testPool: uniV3Factory}}
	r := newTestResolver(newFakeCache(), caller)

	// Two swaps from the same unknown pool in one block.
	r.Queue(testPool, events.TopicSwapV3)
	r.Queue(testPool, events.TopicSwapV3)
	r.Wait()

	if got := caller.calls.Load(); got != 1 {
		t.Errorf("probe calls = %d, want 1", got)
	}

	// Once cached, queueing again is a no-op.
	r.Queue(testPool, events.TopicSwapV3)
	r.Wait()
	if got := caller.calls.Load(); got != 1 {
		t.Errorf("probe calls after cached = %d, want 1", got)
	}
}

func TestUnrecognizedFactory(t *testing.T) {
	strange := common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	caller := &fakeCaller{factories: map[common.Address]common.Address{testPool: strange}}
	r := newTestResolver(newFakeCache(), caller)
	ctx := context.Background()

	r.Queue(testPool, events.TopicSwapV2)
	r.Wait()

	name, ok := r.Lookup(ctx, testPool)
	if !ok {
		t.Fatal("expected cached entry after probe")
	}
	want := "Unknown(0xbbbbbbbb)"
	if name != want {
		t.Errorf("name = %q, want %q", name, want)
	}
}

func TestNoFactoryFallsBackToSignature(t *testing.T) {
	r := newTestResolver(newFakeCache(), &fakeCaller{})
	ctx := context.Background()

	r.Queue(testPool, events.TopicCurveExchange)
	r.Wait()

	name, ok := r.Lookup(ctx, testPool)
	if !ok || name != NameCurve {
		t.Errorf("Lookup = %q, %v, want %q, true", name, ok, NameCurve)
	}
}

func TestFallbackName(t *testing.T) {
	cases := []struct {
		topic common.Hash
		want  string
	}{
		{events.TopicCurveExchange, NameCurve},
		{events.TopicSwapCL, NameAerodromeCL},
		{events.TopicSwapV2, NameUnknown},
		{events.TopicSwapV3, NameUnknown},
	}
	for _, c := range cases {
		if got := FallbackName(c.topic); got != c.want {
			t.Errorf("FallbackName(%s) = %q, want %q", c.topic, got, c.want)
		}
	}
}
