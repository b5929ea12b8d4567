// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package region

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/wneessen/gotta-go/internal/geobus"
	"github.com/wneessen/gotta-go/internal/logger"
	"github.com/wneessen/gotta-go/internal/restroom"
)

// ErrStaleResponse is returned by Fetch when a response was dropped because a newer one had
// already been applied.
var ErrStaleResponse = errors.New("restroom response is older than the applied one")

// State is the lifecycle state of the restroom set.
type State int

const (
	StateIdle State = iota
	StateFetching
	StatePopulated
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateFetching:
		return "fetching"
	case StatePopulated:
		return "populated"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Fetcher looks up the restrooms around a center coordinate.
type Fetcher interface {
	Fetch(ctx context.Context, center geobus.Coordinate) ([]restroom.Record, error)
}

// Decision is the answer of the Coordinator to a trigger. Fetch is true if the caller should
// issue a lookup for Region.
type Decision struct {
	Region Region
	Fetch  bool
}

// Snapshot is a copy of the Coordinator state for rendering.
type Snapshot struct {
	Region    Region
	HasRegion bool
	State     State
	Restrooms []restroom.Record
	Err       error
	UpdatedAt time.Time
	InFlight  int
}

// Coordinator owns the current viewport and the current restroom set and decides when a
// viewport change warrants a new lookup.
//
// Overlapping fetches are not prevented. By default every response is applied when it
// arrives, so a slow earlier response can replace the data of a faster later one. With
// discardStale set, responses issued before the newest applied one are dropped instead.
type Coordinator struct {
	fetcher      Fetcher
	logger       *logger.Logger
	discardStale bool

	mu        sync.RWMutex
	region    Region
	hasRegion bool
	state     State
	restrooms []restroom.Record
	lastErr   error
	updatedAt time.Time
	issued    uint64
	applied   uint64
	inFlight  int
	listeners []func(Snapshot)
}

func NewCoordinator(fetcher Fetcher, log *logger.Logger, discardStale bool) (*Coordinator, error) {
	if fetcher == nil {
		return nil, errors.New("fetcher is required")
	}
	if log == nil {
		return nil, errors.New("logger is required")
	}
	return &Coordinator{
		fetcher:      fetcher,
		logger:       log,
		discardStale: discardStale,
		state:        StateIdle,
	}, nil
}

// OnChange registers fn to be called with a fresh Snapshot after every completed fetch.
func (c *Coordinator) OnChange(fn func(Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// SetInitialRegion centers the viewport on coord with the zoomed-in deltas. It always
// asks for a fetch.
func (c *Coordinator) SetInitialRegion(coord geobus.Coordinate) Decision {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.region = Initial(coord)
	c.hasRegion = true
	return Decision{Region: c.region, Fetch: true}
}

// OnViewportChanged adopts proposed if it differs significantly from the current region and
// asks for a fetch. Minor changes are discarded and the current region is kept.
func (c *Coordinator) OnViewportChanged(proposed Region) Decision {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hasRegion {
		return Decision{}
	}
	if !IsSignificant(c.region, proposed) {
		return Decision{Region: c.region}
	}
	c.region = proposed
	return Decision{Region: c.region, Fetch: true}
}

// ManualRefresh asks for a fetch of the current region, regardless of any pending one.
// Without a region there is nothing to refresh.
func (c *Coordinator) ManualRefresh() Decision {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.hasRegion {
		return Decision{}
	}
	return Decision{Region: c.region, Fetch: true}
}

// NavigateTo centers the viewport on coord with the wide deltas. It never asks for a fetch.
func (c *Coordinator) NavigateTo(coord geobus.Coordinate) Decision {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.region = Navigation(coord)
	c.hasRegion = true
	return Decision{Region: c.region}
}

// Apply runs the fetch a Decision asks for.
func (c *Coordinator) Apply(ctx context.Context, d Decision) error {
	if !d.Fetch {
		return nil
	}
	return c.Fetch(ctx, d.Region)
}

// Fetch looks up the restrooms of r. A successful lookup replaces the restroom set
// wholesale, a failed one keeps the previous set.
func (c *Coordinator) Fetch(ctx context.Context, r Region) error {
	c.mu.Lock()
	c.issued++
	id := c.issued
	c.inFlight++
	c.state = StateFetching
	c.mu.Unlock()

	records, err := c.fetcher.Fetch(ctx, r.Center())

	c.mu.Lock()
	c.inFlight--
	if c.discardStale && id < c.applied {
		c.restoreState()
		c.mu.Unlock()
		c.logger.Debug("dropping stale restroom response", slog.Uint64("request", id),
			slog.Uint64("applied", c.applied))
		return ErrStaleResponse
	}
	c.applied = id
	if err != nil {
		c.lastErr = err
		c.state = StateFailed
	} else {
		c.restrooms = records
		c.lastErr = nil
		c.updatedAt = time.Now()
		c.state = StatePopulated
	}
	if c.inFlight > 0 {
		c.state = StateFetching
	}
	snap := c.snapshot()
	listeners := slices.Clone(c.listeners)
	c.mu.Unlock()

	if err != nil {
		c.logger.Error("failed to fetch restrooms", logger.Err(err), slog.Uint64("request", id))
	}
	for _, fn := range listeners {
		fn(snap)
	}
	return err
}

// restoreState sets the state after a dropped response. Must be called with the lock held.
func (c *Coordinator) restoreState() {
	switch {
	case c.inFlight > 0:
		c.state = StateFetching
	case c.lastErr != nil:
		c.state = StateFailed
	case c.applied > 0:
		c.state = StatePopulated
	default:
		c.state = StateIdle
	}
}

// Region returns a copy of the current region and whether one is set.
func (c *Coordinator) Region() (Region, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.region, c.hasRegion
}

// Restrooms returns a copy of the current restroom set.
func (c *Coordinator) Restrooms() []restroom.Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.restrooms)
}

func (c *Coordinator) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Restroom returns the restroom with the given id from the current set.
func (c *Coordinator) Restroom(id int) (restroom.Record, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, r := range c.restrooms {
		if r.ID == id {
			return r, true
		}
	}
	return restroom.Record{}, false
}

func (c *Coordinator) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot()
}

func (c *Coordinator) snapshot() Snapshot {
	return Snapshot{
		Region:    c.region,
		HasRegion: c.hasRegion,
		State:     c.state,
		Restrooms: slices.Clone(c.restrooms),
		Err:       c.lastErr,
		UpdatedAt: c.updatedAt,
		InFlight:  c.inFlight,
	}
}
