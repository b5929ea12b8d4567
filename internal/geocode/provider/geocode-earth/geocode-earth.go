// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geocodeearth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/text/language"

	"github.com/wneessen/gotta-go/internal/geobus"
	"github.com/wneessen/gotta-go/internal/geocode"
	"github.com/wneessen/gotta-go/internal/http"
)

const (
	APIEndpoint = "https://api.geocode.earth/v1"
	APITimeout  = time.Second * 10
	name        = "geocode-earth"
)

type GeocodeEarth struct {
	apikey   string
	endpoint string
	http     *http.Client
	lang     language.Tag
}

type Response struct {
	Features []Feature `json:"features"`
}

type Feature struct {
	Geometry   Geometry   `json:"geometry"`
	Properties Properties `json:"properties"`
}

// Geometry is a GeoJSON point; Coordinates holds longitude first.
type Geometry struct {
	Coordinates []float64 `json:"coordinates"`
}

type Properties struct {
	DisplayName  string `json:"label"`
	City         string `json:"locality"`
	County       string `json:"county"`
	Borough      string `json:"borough"`
	Country      string `json:"country"`
	HouseNumber  string `json:"housenumber"`
	Neighborhood string `json:"neighbourhood"`
	Postcode     string `json:"postalcode"`
	Street       string `json:"street"`
	Region       string `json:"region"`
}

func New(client *http.Client, lang language.Tag, apikey string) (*GeocodeEarth, error) {
	if apikey == "" {
		return nil, errors.New("geocode-earth geocoder requires an API key")
	}
	return &GeocodeEarth{
		apikey:   apikey,
		endpoint: APIEndpoint,
		lang:     lang,
		http:     client,
	}, nil
}

func (g *GeocodeEarth) Name() string {
	return name
}

func (g *GeocodeEarth) Reverse(ctx context.Context, coords geobus.Coordinate) (geocode.Address, error) {
	query := url.Values{}
	query.Set("point.lat", strconv.FormatFloat(coords.Lat, 'f', -1, 64))
	query.Set("point.lon", strconv.FormatFloat(coords.Lon, 'f', -1, 64))
	query.Set("size", "1")

	response, err := g.get(ctx, "/reverse", query)
	if err != nil {
		return geocode.Address{}, fmt.Errorf("failed to retrieve address details from geocode.earth API: %w", err)
	}
	if len(response.Features) < 1 {
		return geocode.Address{}, fmt.Errorf("no address found for coordinates %f,%f", coords.Lat, coords.Lon)
	}

	props := response.Features[0].Properties
	address := geocode.Address{
		AddressFound: true,
		Latitude:     coords.Lat,
		Longitude:    coords.Lon,
		DisplayName:  props.DisplayName,
		Country:      props.Country,
		State:        props.Region,
		Municipality: props.County,
		CityDistrict: props.Borough,
		Postcode:     props.Postcode,
		City:         props.City,
		Suburb:       props.Neighborhood,
		Street:       props.Street,
		HouseNumber:  props.HouseNumber,
	}

	return address, nil
}

func (g *GeocodeEarth) Search(ctx context.Context, address string) (geobus.Coordinate, error) {
	query := url.Values{}
	query.Set("text", address)
	query.Set("size", "1")

	response, err := g.get(ctx, "/search", query)
	if err != nil {
		return geobus.Coordinate{}, fmt.Errorf("failed to retrieve coordinates from geocode.earth API: %w", err)
	}
	if len(response.Features) < 1 || len(response.Features[0].Geometry.Coordinates) != 2 {
		return geobus.Coordinate{}, fmt.Errorf("%w: %q", geocode.ErrNotFound, address)
	}
	point := response.Features[0].Geometry.Coordinates
	return geobus.Coordinate{Lat: point[1], Lon: point[0], Acc: geobus.AccuracyCity}, nil
}

func (g *GeocodeEarth) get(ctx context.Context, path string, query url.Values) (Response, error) {
	var response Response
	query.Set("api_key", g.apikey)
	query.Set("lang", g.lang.String())
	_, err := g.http.GetWithTimeout(ctx, g.endpoint+path, &response, query, nil, APITimeout)
	return response, err
}
