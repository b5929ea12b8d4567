// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geocode

import (
	"context"
	"errors"
	"strings"

	"github.com/wneessen/gotta-go/internal/geobus"
)

// ErrNotFound is returned by Search when the address could not be resolved.
var ErrNotFound = errors.New("no coordinates found for address")

type Address struct {
	AddressFound bool
	CacheHit     bool
	Latitude     float64
	Longitude    float64
	DisplayName  string
	Country      string
	State        string
	Municipality string
	CityDistrict string
	Postcode     string
	City         string
	Suburb       string
	Street       string
	HouseNumber  string
}

// Geocoder translates between coordinates and human-readable addresses.
type Geocoder interface {
	Name() string
	Reverse(ctx context.Context, coords geobus.Coordinate) (Address, error)
	Search(ctx context.Context, address string) (geobus.Coordinate, error)
}

// Short returns a compact "district, city" style label of the address. It falls back to the
// display name if no city is known.
func (a Address) Short() string {
	parts := make([]string, 0, 2)
	switch {
	case a.Suburb != "":
		parts = append(parts, a.Suburb)
	case a.CityDistrict != "":
		parts = append(parts, a.CityDistrict)
	}
	if a.City != "" {
		parts = append(parts, a.City)
	}
	if len(parts) == 0 {
		return a.DisplayName
	}
	return strings.Join(parts, ", ")
}
