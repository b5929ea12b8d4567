// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geoip

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wneessen/gotta-go/internal/geobus"
	"github.com/wneessen/gotta-go/internal/http"
)

const (
	APIEndpoint   = "https://reallyfreegeoip.org/json/"
	LookupTimeout = time.Second * 5
	name          = "geoip"
)

type GeolocationGeoIPProvider struct {
	name string
	http *http.Client
}

type APIResult struct {
	IP          string  `json:"ip"`
	CountryCode string  `json:"country_code"`
	Country     string  `json:"country_name"`
	RegionCode  string  `json:"region_code,omitempty"`
	Region      string  `json:"region_name,omitempty"`
	City        string  `json:"city,omitempty"`
	ZipCode     string  `json:"zip_code,omitempty"`
	TimeZone    string  `json:"time_zone"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	MetroCode   int     `json:"metro_code"`
}

func NewGeolocationGeoIPProvider(http *http.Client) (*GeolocationGeoIPProvider, error) {
	if http == nil {
		return nil, errors.New("http client is required")
	}
	return &GeolocationGeoIPProvider{
		name: name,
		http: http,
	}, nil
}

func (p *GeolocationGeoIPProvider) Name() string {
	return p.name
}

// Locate resolves the coordinates of the public IP address. The accuracy is derived from the
// most specific administrative level the API returned.
func (p *GeolocationGeoIPProvider) Locate(ctx context.Context) (geobus.Coordinate, error) {
	ctxHttp, cancelHttp := context.WithTimeout(ctx, LookupTimeout)
	defer cancelHttp()

	result := new(APIResult)
	if _, err := p.http.Get(ctxHttp, APIEndpoint, result, nil, nil); err != nil {
		return geobus.Coordinate{}, fmt.Errorf("failed to get geolocation data from API: %w", err)
	}
	if result.Latitude == 0 && result.Longitude == 0 {
		return geobus.Coordinate{}, errors.New("API returned no coordinates")
	}

	acc := float64(geobus.AccuracyUnknown)
	if result.CountryCode != "" {
		acc = geobus.AccuracyCountry
	}
	if result.RegionCode != "" {
		acc = geobus.AccuracyRegion
	}
	if result.City != "" {
		acc = geobus.AccuracyCity
	}
	if result.ZipCode != "" {
		acc = geobus.AccuracyZip
	}

	return geobus.Coordinate{
		Lat: geobus.Truncate(result.Latitude, geobus.TruncPrecision),
		Lon: geobus.Truncate(result.Longitude, geobus.TruncPrecision),
		Acc: acc,
	}, nil
}
