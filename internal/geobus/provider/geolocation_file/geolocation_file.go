// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geolocation_file

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/wneessen/gotta-go/internal/geobus"
)

const name = "geolocation_file"

// Accuracy is the default accuracy value for geolocation data. We consider geolocation file data as
// the most accurate data available.
const Accuracy = 5

// GeolocationFileProvider reads a "latitude,longitude" pair from a file.
type GeolocationFileProvider struct {
	name string
	path string
}

// NewGeolocationFileProvider initializes a GeolocationFileProvider for the given file path.
func NewGeolocationFileProvider(path string) *GeolocationFileProvider {
	return &GeolocationFileProvider{
		name: name,
		path: path,
	}
}

// Name returns the name of the GeolocationFileProvider instance.
func (p *GeolocationFileProvider) Name() string {
	return p.name
}

// Locate reads the coordinates from the geolocation file.
func (p *GeolocationFileProvider) Locate(ctx context.Context) (geobus.Coordinate, error) {
	if err := ctx.Err(); err != nil {
		return geobus.Coordinate{}, err
	}
	lat, lon, err := p.readFile()
	if err != nil {
		return geobus.Coordinate{}, err
	}
	return geobus.Coordinate{Lat: lat, Lon: lon, Acc: Accuracy}, nil
}

// readFile reads geolocation data from the file at the configured path.
func (p *GeolocationFileProvider) readFile() (lat, lon float64, err error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read geolocation file %q: %w", p.path, err)
	}
	coords := strings.Split(strings.TrimSpace(string(data)), ",")
	if len(coords) != 2 {
		return 0, 0, fmt.Errorf("geolocation file %q contains invalid coordinates", p.path)
	}
	lat, err = strconv.ParseFloat(strings.TrimSpace(coords[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to parse latitude from geolocation file %q: %w", p.path, err)
	}
	lon, err = strconv.ParseFloat(strings.TrimSpace(coords[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to parse longitude from geolocation file %q: %w", p.path, err)
	}
	return lat, lon, nil
}
