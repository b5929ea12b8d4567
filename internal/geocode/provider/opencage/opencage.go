// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package opencage

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
	APIEndpoint = "https://api.opencagedata.com/geocode/v1/json"
	APITimeout  = time.Second * 10
	name        = "opencage"
)

type OpenCage struct {
	apikey   string
	endpoint string
	http     *http.Client
	lang     language.Tag
}

type Response struct {
	Results      []Result `json:"results"`
	TotalResults int      `json:"total_results"`
}

type Result struct {
	Components  Components `json:"components"`
	DisplayName string     `json:"formatted"`
	Confidence  int        `json:"confidence"`
	Geometry    Geometry   `json:"geometry"`
}

type Components struct {
	NormalizedCity string `json:"_normalized_city"`
	City           string `json:"city"`
	CityDistrict   string `json:"city_district"`
	Country        string `json:"country"`
	HouseNumber    string `json:"house_number"`
	Municipality   string `json:"municipality"`
	Postcode       string `json:"postcode"`
	Road           string `json:"road"`
	State          string `json:"state"`
	Suburb         string `json:"suburb"`
	Town           string `json:"town"`
	Village        string `json:"village"`
}

type Geometry struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lng"`
}

func New(client *http.Client, lang language.Tag, apikey string) (*OpenCage, error) {
	if apikey == "" {
		return nil, errors.New("opencage geocoder requires an API key")
	}
	return &OpenCage{
		apikey:   apikey,
		endpoint: APIEndpoint,
		lang:     lang,
		http:     client,
	}, nil
}

func (o *OpenCage) Name() string {
	return name
}

// Reverse resolves the coordinates into the address of the first result.
func (o *OpenCage) Reverse(ctx context.Context, coords geobus.Coordinate) (geocode.Address, error) {
	response, err := o.query(ctx, strconv.FormatFloat(coords.Lat, 'f', -1, 64)+","+
		strconv.FormatFloat(coords.Lon, 'f', -1, 64))
	if err != nil {
		return geocode.Address{}, fmt.Errorf("failed to retrieve address details from OpenCage API: %w", err)
	}
	if len(response.Results) < 1 {
		return geocode.Address{}, fmt.Errorf("no address found for coordinates %f,%f", coords.Lat, coords.Lon)
	}

	result := response.Results[0]
	comp := result.Components
	address := geocode.Address{
		AddressFound: true,
		Latitude:     result.Geometry.Lat,
		Longitude:    result.Geometry.Lon,
		DisplayName:  result.DisplayName,
		Country:      comp.Country,
		State:        comp.State,
		Municipality: comp.Municipality,
		CityDistrict: comp.CityDistrict,
		Postcode:     comp.Postcode,
		City:         comp.NormalizedCity,
		Suburb:       comp.Suburb,
		Street:       comp.Road,
		HouseNumber:  comp.HouseNumber,
	}
	switch {
	case address.City != "":
	case comp.City != "":
		address.City = comp.City
	case comp.Town != "":
		address.City = comp.Town
	case comp.Village != "":
		address.City = comp.Village
	}

	return address, nil
}

// Search forward-geocodes the address. OpenCage answers both directions on the same endpoint.
func (o *OpenCage) Search(ctx context.Context, address string) (geobus.Coordinate, error) {
	response, err := o.query(ctx, address)
	if err != nil {
		return geobus.Coordinate{}, fmt.Errorf("failed to retrieve coordinates from OpenCage API: %w", err)
	}
	if len(response.Results) < 1 {
		return geobus.Coordinate{}, fmt.Errorf("%w: %q", geocode.ErrNotFound, address)
	}
	geo := response.Results[0].Geometry
	return geobus.Coordinate{Lat: geo.Lat, Lon: geo.Lon, Acc: geobus.AccuracyCity}, nil
}

func (o *OpenCage) query(ctx context.Context, q string) (Response, error) {
	var response Response

	query := url.Values{}
	query.Set("key", o.apikey)
	query.Set("q", q)
	query.Set("limit", "1")
	query.Set("no_annotations", "1")
	query.Set("no_record", "1")
	query.Set("language", o.lang.String())

	_, err := o.http.GetWithTimeout(ctx, o.endpoint, &response, query, nil, APITimeout)
	return response, err
}
