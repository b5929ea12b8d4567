// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package region

import (
	"testing"

	"github.com/wneessen/gotta-go/internal/geobus"
)

func TestIsSignificant(t *testing.T) {
	current := Region{Latitude: 40.0, Longitude: -73.0, LatitudeDelta: 0.0122, LongitudeDelta: 0.0421}
	tests := []struct {
		name     string
		proposed Region
		want     bool
	}{
		{"identical", current, false},
		{"latitude 0.3", Region{Latitude: 40.3, Longitude: -73.0}, false},
		{"latitude exactly 0.5", Region{Latitude: 40.5, Longitude: -73.0}, false},
		{"latitude 0.6", Region{Latitude: 40.6, Longitude: -73.0}, true},
		{"latitude -0.6", Region{Latitude: 39.4, Longitude: -73.0}, true},
		{"longitude 0.51", Region{Latitude: 40.0, Longitude: -72.49}, true},
		{"longitude -0.2", Region{Latitude: 40.0, Longitude: -73.2}, false},
		{"both 0.4", Region{Latitude: 40.4, Longitude: -72.6}, false},
		{"zoom only", Region{Latitude: 40.0, Longitude: -73.0, LatitudeDelta: 10, LongitudeDelta: 10}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsSignificant(current, tc.proposed); got != tc.want {
				t.Errorf("expected significance to be %t, got %t", tc.want, got)
			}
		})
	}
}

func TestInitial(t *testing.T) {
	r := Initial(geobus.Coordinate{Lat: 52.52, Lon: 13.405})
	if r.Latitude != 52.52 || r.Longitude != 13.405 {
		t.Errorf("unexpected center: %f,%f", r.Latitude, r.Longitude)
	}
	if r.LatitudeDelta != 0.0122 || r.LongitudeDelta != 0.0421 {
		t.Errorf("unexpected deltas: %f,%f", r.LatitudeDelta, r.LongitudeDelta)
	}
}

func TestNavigation(t *testing.T) {
	r := Navigation(geobus.Coordinate{Lat: 52.52, Lon: 13.405})
	if r.LatitudeDelta != 0.922 || r.LongitudeDelta != 0.421 {
		t.Errorf("unexpected deltas: %f,%f", r.LatitudeDelta, r.LongitudeDelta)
	}
	if r.Center() != (geobus.Coordinate{Lat: 52.52, Lon: 13.405}) {
		t.Errorf("unexpected center: %+v", r.Center())
	}
}

func TestRegion_Contains(t *testing.T) {
	r := Region{Latitude: 40, Longitude: -73, LatitudeDelta: 1, LongitudeDelta: 2}
	if !r.Contains(geobus.Coordinate{Lat: 40.4, Lon: -72.1}) {
		t.Error("expected coordinate to be inside the region")
	}
	if r.Contains(geobus.Coordinate{Lat: 40.6, Lon: -73}) {
		t.Error("expected coordinate to be outside the region")
	}
}
