package metrics

import "sync/atomic"

// Counter is a monotonically increasing event counter.
// It is safe for concurrent use.
type Counter struct {
	v atomic.Int64
}

// Inc adds one to the counter.
func (c *Counter) Inc() {
	c.v.Add(1)
}

// Add adds n to the counter.
func (c *Counter) Add(n int64) {
	c.v.Add(n)
}

// Count returns the current value.
func (c *Counter) Count() int64 {
	return c.v.Load()
}

// Gauge holds an arbitrary instantaneous value, such as the last processed
// block number or the distance behind head. It is safe for concurrent use.
type Gauge struct {
	v atomic.Int64
}

// Set stores the value.
func (g *Gauge) Set(n int64) {
	g.v.Store(n)
}

// Value returns the stored value.
func (g *Gauge) Value() int64 {
	return g.v.Load()
}
