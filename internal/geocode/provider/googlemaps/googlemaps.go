// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package googlemaps

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/text/language"
	"googlemaps.github.io/maps"

	"github.com/wneessen/gotta-go/internal/geobus"
	"github.com/wneessen/gotta-go/internal/geocode"
)

const name = "google-maps"

// APIClient is the subset of the Google Maps client used for geocoding.
type APIClient interface {
	Geocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
	ReverseGeocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
}

type GoogleMaps struct {
	client APIClient
	lang   language.Tag
}

// New returns a Google Maps geocoder backed by a maps client for the given API key.
func New(apiKey string, lang language.Tag) (*GoogleMaps, error) {
	if apiKey == "" {
		return nil, errors.New("API key is required for the Google Maps geocoder")
	}
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Maps client: %w", err)
	}
	return NewWithClient(client, lang), nil
}

func NewWithClient(client APIClient, lang language.Tag) *GoogleMaps {
	return &GoogleMaps{client: client, lang: lang}
}

func (g *GoogleMaps) Name() string {
	return name
}

func (g *GoogleMaps) Reverse(ctx context.Context, coords geobus.Coordinate) (geocode.Address, error) {
	req := &maps.GeocodingRequest{
		LatLng:   &maps.LatLng{Lat: coords.Lat, Lng: coords.Lon},
		Language: g.lang.String(),
	}
	results, err := g.client.ReverseGeocode(ctx, req)
	if err != nil {
		return geocode.Address{}, fmt.Errorf("failed to reverse geocode coordinates via Google Maps: %w", err)
	}
	if len(results) == 0 {
		return geocode.Address{Latitude: coords.Lat, Longitude: coords.Lon}, nil
	}

	result := results[0]
	address := geocode.Address{
		AddressFound: true,
		Latitude:     result.Geometry.Location.Lat,
		Longitude:    result.Geometry.Location.Lng,
		DisplayName:  result.FormattedAddress,
	}
	for _, component := range result.AddressComponents {
		for _, kind := range component.Types {
			switch kind {
			case "street_number":
				address.HouseNumber = component.LongName
			case "route":
				address.Street = component.LongName
			case "sublocality", "sublocality_level_1":
				address.Suburb = component.LongName
			case "locality", "postal_town":
				if address.City == "" {
					address.City = component.LongName
				}
			case "administrative_area_level_1":
				address.State = component.LongName
			case "administrative_area_level_2":
				address.Municipality = component.LongName
			case "postal_code":
				address.Postcode = component.LongName
			case "country":
				address.Country = component.LongName
			}
		}
	}

	return address, nil
}

func (g *GoogleMaps) Search(ctx context.Context, address string) (geobus.Coordinate, error) {
	req := &maps.GeocodingRequest{Address: address, Language: g.lang.String()}
	results, err := g.client.Geocode(ctx, req)
	if err != nil {
		return geobus.Coordinate{}, fmt.Errorf("failed to geocode address via Google Maps: %w", err)
	}
	if len(results) == 0 {
		return geobus.Coordinate{}, fmt.Errorf("%w: %q", geocode.ErrNotFound, address)
	}

	location := results[0].Geometry.Location
	return geobus.Coordinate{
		Lat: location.Lat,
		Lon: location.Lng,
		Acc: accuracyFor(results[0].Geometry.LocationType),
	}, nil
}

// accuracyFor maps the Google location type onto an approximate radius in meters.
func accuracyFor(locationType string) float64 {
	switch locationType {
	case "ROOFTOP":
		return 10
	case "RANGE_INTERPOLATED":
		return 100
	case "GEOMETRIC_CENTER":
		return geobus.AccuracyZip
	default:
		return geobus.AccuracyCity
	}
}
