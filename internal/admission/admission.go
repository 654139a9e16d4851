// Package admission bounds the number of generation requests in flight,
// with a cap that depends on the size each request asks for.
package admission

import (
	"fmt"
	"sync"

	"datagen/internal/metrics"
)

// Tier caps concurrent requests below a size bound.
type Tier struct {
	// BelowMB is the exclusive upper bound; 0 means unbounded.
	BelowMB  float64
	Capacity int
}

// DefaultTiers are evaluated in order. Requests of 100 MB and more get a
// larger cap again because they are streamed rather than buffered.
var DefaultTiers = []Tier{
	{BelowMB: 10, Capacity: 10},
	{BelowMB: 30, Capacity: 5},
	{BelowMB: 50, Capacity: 3},
	{BelowMB: 100, Capacity: 2},
	{BelowMB: 0, Capacity: 5},
}

// CapacityFor returns the tier capacity for a request of sizeKB kilobytes.
func CapacityFor(sizeKB float64) int {
	return capacityFor(DefaultTiers, sizeKB)
}

func capacityFor(tiers []Tier, sizeKB float64) int {
	sizeMB := sizeKB / 1024
	for _, t := range tiers {
		if t.BelowMB == 0 || sizeMB < t.BelowMB {
			return t.Capacity
		}
	}
	return tiers[len(tiers)-1].Capacity
}

// RejectedError is returned when the tier for a request is exhausted.
type RejectedError struct {
	Current         int
	Capacity        int
	RequestedSizeKB float64
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("server busy: %d requests in flight, capacity %d for %gKB", e.Current, e.Capacity, e.RequestedSizeKB)
}

// Controller holds the single in-flight counter shared by every tier.
type Controller struct {
	mu       sync.Mutex
	inFlight int
	tiers    []Tier
	metrics  *metrics.Collectors
}

// NewController returns a Controller using DefaultTiers. m may be nil.
func NewController(m *metrics.Collectors) *Controller {
	return &Controller{tiers: DefaultTiers, metrics: m}
}

// Acquire admits a request of sizeKB or rejects it immediately with a
// *RejectedError. Requests are never queued.
func (c *Controller) Acquire(sizeKB float64) (*Ticket, error) {
	capacity := capacityFor(c.tiers, sizeKB)

	c.mu.Lock()
	if c.inFlight >= capacity {
		current := c.inFlight
		c.mu.Unlock()
		c.metrics.Rejected(capacity)
		return nil, &RejectedError{Current: current, Capacity: capacity, RequestedSizeKB: sizeKB}
	}
	c.inFlight++
	n := c.inFlight
	c.mu.Unlock()

	c.metrics.SetInFlight(n)
	return &Ticket{c: c}, nil
}

// InFlight returns the number of admitted requests not yet released.
func (c *Controller) InFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

func (c *Controller) release() {
	c.mu.Lock()
	c.inFlight--
	n := c.inFlight
	c.mu.Unlock()
	c.metrics.SetInFlight(n)
}

// Ticket represents one admitted request.
type Ticket struct {
	c    *Controller
	once sync.Once
}

// Release returns the slot. Only the first call has an effect, so it may be
// wired to both request completion and client disconnect.
func (t *Ticket) Release() {
	t.once.Do(t.c.release)
}
