// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package googlemaps

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/text/language"
	"googlemaps.github.io/maps"

	"github.com/wneessen/gotta-go/internal/geobus"
	"github.com/wneessen/gotta-go/internal/geocode"
)

var _ geocode.Geocoder = (*GoogleMaps)(nil)

type mockClient struct {
	results []maps.GeocodingResult
	err     error
	lastReq *maps.GeocodingRequest
}

func (m *mockClient) Geocode(_ context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error) {
	m.lastReq = r
	return m.results, m.err
}

func (m *mockClient) ReverseGeocode(_ context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error) {
	m.lastReq = r
	return m.results, m.err
}

var tribeca = maps.GeocodingResult{
	FormattedAddress: "71 Franklin St, New York, NY 10013, USA",
	Geometry: maps.AddressGeometry{
		Location:     maps.LatLng{Lat: 40.7185, Lng: -74.0025},
		LocationType: "ROOFTOP",
	},
	AddressComponents: []maps.AddressComponent{
		{LongName: "71", Types: []string{"street_number"}},
		{LongName: "Franklin Street", Types: []string{"route"}},
		{LongName: "Manhattan", Types: []string{"sublocality_level_1", "sublocality", "political"}},
		{LongName: "New York", Types: []string{"locality", "political"}},
		{LongName: "New York", Types: []string{"administrative_area_level_1", "political"}},
		{LongName: "United States", Types: []string{"country", "political"}},
		{LongName: "10013", Types: []string{"postal_code"}},
	},
}

func TestNew(t *testing.T) {
	t.Run("new without API key fails", func(t *testing.T) {
		if _, err := New("", language.English); err == nil {
			t.Fatal("expected geocoder creation to fail")
		}
	})
	t.Run("new with API key succeeds", func(t *testing.T) {
		coder, err := New("AIzaTestKey", language.English)
		if err != nil {
			t.Fatalf("failed to create geocoder: %s", err)
		}
		if coder.Name() != name {
			t.Errorf("expected name to be %s, got %s", name, coder.Name())
		}
	})
}

func TestGoogleMaps_Reverse(t *testing.T) {
	t.Run("reverse geocoding succeeds", func(t *testing.T) {
		client := &mockClient{results: []maps.GeocodingResult{tribeca}}
		coder := NewWithClient(client, language.German)
		addr, err := coder.Reverse(t.Context(), geobus.Coordinate{Lat: 40.7185, Lon: -74.0025})
		if err != nil {
			t.Fatalf("failed to reverse geocode: %s", err)
		}
		if !addr.AddressFound {
			t.Fatal("expected address to be found")
		}
		if addr.Street != "Franklin Street" || addr.HouseNumber != "71" {
			t.Errorf("unexpected street: %s %s", addr.Street, addr.HouseNumber)
		}
		if addr.City != "New York" || addr.Suburb != "Manhattan" || addr.Postcode != "10013" {
			t.Errorf("unexpected address: %+v", addr)
		}
		if client.lastReq.LatLng == nil || client.lastReq.LatLng.Lat != 40.7185 {
			t.Errorf("unexpected request: %+v", client.lastReq)
		}
		if client.lastReq.Language != "de" {
			t.Errorf("expected language to be de, got %s", client.lastReq.Language)
		}
	})
	t.Run("empty response is not found", func(t *testing.T) {
		coder := NewWithClient(&mockClient{}, language.English)
		addr, err := coder.Reverse(t.Context(), geobus.Coordinate{Lat: 1, Lon: 1})
		if err != nil {
			t.Fatalf("failed to reverse geocode: %s", err)
		}
		if addr.AddressFound {
			t.Error("expected address to not be found")
		}
	})
	t.Run("API error is returned", func(t *testing.T) {
		coder := NewWithClient(&mockClient{err: errors.New("intentionally failing")}, language.English)
		if _, err := coder.Reverse(t.Context(), geobus.Coordinate{Lat: 1, Lon: 1}); err == nil {
			t.Fatal("expected reverse geocoding to fail")
		}
	})
}

func TestGoogleMaps_Search(t *testing.T) {
	t.Run("search succeeds", func(t *testing.T) {
		client := &mockClient{results: []maps.GeocodingResult{tribeca}}
		coder := NewWithClient(client, language.English)
		coords, err := coder.Search(t.Context(), "71 Franklin St, New York")
		if err != nil {
			t.Fatalf("failed to search: %s", err)
		}
		if coords.Lat != 40.7185 || coords.Lon != -74.0025 || coords.Acc != 10 {
			t.Errorf("unexpected coordinates: %+v", coords)
		}
		if client.lastReq.Address != "71 Franklin St, New York" {
			t.Errorf("unexpected request address: %s", client.lastReq.Address)
		}
	})
	t.Run("empty response fails", func(t *testing.T) {
		coder := NewWithClient(&mockClient{}, language.English)
		if _, err := coder.Search(t.Context(), "Atlantis"); !errors.Is(err, geocode.ErrNotFound) {
			t.Fatalf("expected error to be %s, got %v", geocode.ErrNotFound, err)
		}
	})
	t.Run("location types map to accuracies", func(t *testing.T) {
		tests := []struct {
			kind string
			want float64
		}{
			{"ROOFTOP", 10},
			{"RANGE_INTERPOLATED", 100},
			{"GEOMETRIC_CENTER", geobus.AccuracyZip},
			{"APPROXIMATE", geobus.AccuracyCity},
		}
		for _, tc := range tests {
			if got := accuracyFor(tc.kind); got != tc.want {
				t.Errorf("expected accuracy for %s to be %f, got %f", tc.kind, tc.want, got)
			}
		}
	})
}
