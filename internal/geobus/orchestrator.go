// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geobus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/wneessen/gotta-go/internal/logger"
)

// DefaultTTL is the time a published location stays valid on the bus.
const DefaultTTL = time.Minute * 10

// Orchestrator coordinates a one-shot location lookup across multiple providers and
// publishes their results through a GeoBus.
type Orchestrator struct {
	Bus       *GeoBus
	Providers []Provider
}

// Locate queries all providers concurrently, once. It returns as soon as a result within
// maxAccuracy meters is published. Otherwise it waits for all providers to answer and returns
// the best result available on the bus.
func (o *Orchestrator) Locate(ctx context.Context, key string, maxAccuracy float64) (Result, error) {
	if len(o.Providers) == 0 {
		return Result{}, errors.New("no geolocation providers enabled")
	}

	sub, unsub := o.Bus.Subscribe(key, len(o.Providers)+1)
	defer unsub()

	lookupCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg      sync.WaitGroup
		errLock sync.Mutex
		errs    []error
	)
	for _, p := range o.Providers {
		wg.Add(1)
		go func(p Provider) {
			defer wg.Done()
			if err := o.lookupProvider(lookupCtx, p, key); err != nil {
				errLock.Lock()
				errs = append(errs, err)
				errLock.Unlock()
			}
		}(p)
	}
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	for {
		select {
		case <-ctx.Done():
			if best, ok := o.Bus.Best(key); ok {
				return best, nil
			}
			return Result{}, ctx.Err()
		case r := <-sub:
			if r.AccuracyMeters <= maxAccuracy {
				return r, nil
			}
		case <-done:
			if best, ok := o.Bus.Best(key); ok {
				return best, nil
			}
			errLock.Lock()
			defer errLock.Unlock()
			for _, err := range errs {
				if errors.Is(err, ErrAccessDenied) {
					return Result{}, err
				}
			}
			return Result{}, errors.Join(append([]error{ErrNoLocation}, errs...)...)
		}
	}
}

// lookupProvider performs a single lookup on the Provider and publishes the result to the GeoBus.
func (o *Orchestrator) lookupProvider(ctx context.Context, p Provider, key string) error {
	coord, err := o.safeLocate(ctx, p)
	if err != nil {
		o.Bus.logger.Debug("geolocation provider lookup failed", slog.String("provider", p.Name()),
			logger.Err(err))
		return fmt.Errorf("%s: %w", p.Name(), err)
	}
	if !coord.Valid() {
		return fmt.Errorf("%s: invalid coordinates %f,%f", p.Name(), coord.Lat, coord.Lon)
	}
	o.Bus.Publish(Result{
		Key:            key,
		Lat:            coord.Lat,
		Lon:            coord.Lon,
		AccuracyMeters: coord.Acc,
		Source:         p.Name(),
		At:             time.Now(),
		TTL:            DefaultTTL,
	})
	return nil
}

// safeLocate safely invokes the Locate method on a Provider and recovers from potential panics.
func (o *Orchestrator) safeLocate(ctx context.Context, provider Provider) (coord Coordinate, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("provider panicked: %v", r)
		}
	}()
	return provider.Locate(ctx)
}
