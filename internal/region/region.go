// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package region

import (
	"math"

	"github.com/wneessen/gotta-go/internal/geobus"
)

const (
	// InitialLatitudeDelta and InitialLongitudeDelta describe the zoomed-in viewport around the
	// device position.
	InitialLatitudeDelta  = 0.0122
	InitialLongitudeDelta = 0.0421

	// NavigateLatitudeDelta and NavigateLongitudeDelta describe the wider viewport used when a
	// single restroom is shown on the map.
	NavigateLatitudeDelta  = 0.922
	NavigateLongitudeDelta = 0.421

	// SignificantDelta is the center shift in degrees a viewport change has to exceed on either
	// axis to trigger a new lookup.
	SignificantDelta = 0.5
)

// Region is a map viewport: its center and the extent shown around it.
type Region struct {
	Latitude       float64
	Longitude      float64
	LatitudeDelta  float64
	LongitudeDelta float64
}

// Center returns the center of the viewport.
func (r Region) Center() geobus.Coordinate {
	return geobus.Coordinate{Lat: r.Latitude, Lon: r.Longitude}
}

// Contains reports whether the coordinate is within the viewport.
func (r Region) Contains(c geobus.Coordinate) bool {
	return math.Abs(c.Lat-r.Latitude) <= r.LatitudeDelta/2 && math.Abs(c.Lon-r.Longitude) <= r.LongitudeDelta/2
}

// Initial returns the zoomed-in region around coord.
func Initial(coord geobus.Coordinate) Region {
	return Region{
		Latitude:       coord.Lat,
		Longitude:      coord.Lon,
		LatitudeDelta:  InitialLatitudeDelta,
		LongitudeDelta: InitialLongitudeDelta,
	}
}

// Navigation returns the wide region around coord.
func Navigation(coord geobus.Coordinate) Region {
	return Region{
		Latitude:       coord.Lat,
		Longitude:      coord.Lon,
		LatitudeDelta:  NavigateLatitudeDelta,
		LongitudeDelta: NavigateLongitudeDelta,
	}
}

// IsSignificant reports whether moving the viewport from current to proposed shifts the
// center by more than SignificantDelta degrees on either axis. Zoom changes are ignored.
func IsSignificant(current, proposed Region) bool {
	return math.Abs(proposed.Latitude-current.Latitude) > SignificantDelta ||
		math.Abs(proposed.Longitude-current.Longitude) > SignificantDelta
}
