// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package locator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/wneessen/gotta-go/internal/geobus"
	"github.com/wneessen/gotta-go/internal/logger"
)

// busKey is the GeoBus key all device position lookups are published under.
const busKey = "device"

// ErrPermissionDenied is returned when the user or the platform refused access to the location.
var ErrPermissionDenied = errors.New("location permission denied")

// Permission is the outcome of a foreground location permission request.
type Permission int

const (
	PermissionUndetermined Permission = iota
	PermissionGranted
	PermissionDenied
)

func (p Permission) String() string {
	switch p {
	case PermissionGranted:
		return "granted"
	case PermissionDenied:
		return "denied"
	default:
		return "undetermined"
	}
}

// Policy decides how a permission request is answered.
type Policy string

const (
	PolicyPrompt  Policy = "prompt"
	PolicyGranted Policy = "granted"
	PolicyDenied  Policy = "denied"
)

// Prompter asks the user whether the application may use the location. It returns true if
// access was granted.
type Prompter func(ctx context.Context) (bool, error)

// Positioner performs a one-shot position lookup with the given accuracy threshold in meters.
type Positioner interface {
	Locate(ctx context.Context, key string, maxAccuracy float64) (geobus.Result, error)
}

// Locator provides a single device position reading guarded by a foreground permission.
type Locator struct {
	positioner Positioner
	policy     Policy
	prompter   Prompter
	timeout    time.Duration
	logger     *logger.Logger

	mu         sync.Mutex
	permission Permission
}

// New returns a Locator. The prompter is only consulted for PolicyPrompt.
func New(positioner Positioner, policy Policy, prompter Prompter, timeout time.Duration,
	log *logger.Logger,
) (*Locator, error) {
	if positioner == nil {
		return nil, errors.New("positioner is required")
	}
	if log == nil {
		return nil, errors.New("logger is required")
	}
	switch policy {
	case PolicyGranted, PolicyDenied:
	case PolicyPrompt:
		if prompter == nil {
			return nil, errors.New("prompter is required for the prompt policy")
		}
	default:
		return nil, fmt.Errorf("unsupported permission policy: %q", policy)
	}
	return &Locator{
		positioner: positioner,
		policy:     policy,
		prompter:   prompter,
		timeout:    timeout,
		logger:     log,
	}, nil
}

// RequestPermission asks for foreground location access. Once answered, the decision is kept
// for the lifetime of the Locator.
func (l *Locator) RequestPermission(ctx context.Context) (Permission, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.permission != PermissionUndetermined {
		return l.permission, nil
	}

	switch l.policy {
	case PolicyGranted:
		l.permission = PermissionGranted
	case PolicyDenied:
		l.permission = PermissionDenied
	case PolicyPrompt:
		granted, err := l.prompter(ctx)
		if err != nil {
			return PermissionUndetermined, fmt.Errorf("failed to ask for location permission: %w", err)
		}
		l.permission = PermissionDenied
		if granted {
			l.permission = PermissionGranted
		}
	}
	l.logger.Debug("location permission answered", slog.String("permission", l.permission.String()),
		slog.String("policy", string(l.policy)))
	return l.permission, nil
}

// Permission returns the current permission state without asking.
func (l *Locator) Permission() Permission {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.permission
}

// CurrentPosition returns a single position reading. It fails with ErrPermissionDenied unless
// the permission was granted before, or if the platform refuses access during the lookup.
func (l *Locator) CurrentPosition(ctx context.Context, accuracy Accuracy) (geobus.Coordinate, error) {
	if l.Permission() != PermissionGranted {
		return geobus.Coordinate{}, ErrPermissionDenied
	}

	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := l.positioner.Locate(ctx, busKey, accuracy.Meters())
	if err != nil {
		if errors.Is(err, geobus.ErrAccessDenied) {
			l.mu.Lock()
			l.permission = PermissionDenied
			l.mu.Unlock()
			return geobus.Coordinate{}, fmt.Errorf("%w: %w", ErrPermissionDenied, err)
		}
		return geobus.Coordinate{}, fmt.Errorf("failed to determine current position: %w", err)
	}
	l.logger.Debug("current position determined", slog.String("source", result.Source),
		slog.Float64("accuracy", result.AccuracyMeters), slog.Duration("took", time.Since(start)))
	return result.Coordinate(), nil
}

// Accuracy is the requested accuracy of a position reading.
type Accuracy int

const (
	AccuracyLowest Accuracy = iota
	AccuracyLow
	AccuracyBalanced
	AccuracyHigh
	AccuracyHighest
)

// ParseAccuracy parses the configuration value of an accuracy.
func ParseAccuracy(value string) (Accuracy, error) {
	switch strings.ToLower(value) {
	case "lowest":
		return AccuracyLowest, nil
	case "low":
		return AccuracyLow, nil
	case "", "balanced":
		return AccuracyBalanced, nil
	case "high":
		return AccuracyHigh, nil
	case "highest":
		return AccuracyHighest, nil
	default:
		return AccuracyBalanced, fmt.Errorf("unknown accuracy: %q", value)
	}
}

func (a Accuracy) String() string {
	switch a {
	case AccuracyLowest:
		return "lowest"
	case AccuracyLow:
		return "low"
	case AccuracyHigh:
		return "high"
	case AccuracyHighest:
		return "highest"
	default:
		return "balanced"
	}
}

// Meters returns the radius a reading has to be within to be accepted right away.
func (a Accuracy) Meters() float64 {
	switch a {
	case AccuracyLowest:
		return geobus.AccuracyRegion
	case AccuracyLow:
		return geobus.AccuracyCity
	case AccuracyHigh:
		return 100
	case AccuracyHighest:
		return 10
	default:
		return geobus.AccuracyZip
	}
}
