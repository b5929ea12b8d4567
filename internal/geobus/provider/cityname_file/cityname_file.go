// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package cityname_file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/wneessen/gotta-go/internal/geobus"
	"github.com/wneessen/gotta-go/internal/geocode"
)

const name = "cityname_file"

var ErrNoCoordinates = errors.New("no valid city name found in cityname file")

// CitynameFileProvider resolves the first usable city name from a file into coordinates
// through a geocoder.
type CitynameFileProvider struct {
	name  string
	path  string
	coder geocode.Geocoder
}

func NewCitynameFileProvider(path string, coder geocode.Geocoder) (*CitynameFileProvider, error) {
	if coder == nil {
		return nil, errors.New("geocoder is required")
	}
	return &CitynameFileProvider{
		coder: coder,
		name:  name,
		path:  path,
	}, nil
}

// Name returns the name of the CitynameFileProvider instance.
func (p *CitynameFileProvider) Name() string {
	return p.name
}

func (p *CitynameFileProvider) Locate(ctx context.Context) (geobus.Coordinate, error) {
	coords, err := p.readFile(ctx)
	if err != nil {
		return coords, err
	}
	coords.Acc = geobus.AccuracyCity
	return coords, nil
}

// readFile reads the file at the configured path and geocodes the lines in order. Empty lines
// and lines starting with "#" are skipped.
func (p *CitynameFileProvider) readFile(ctx context.Context) (coords geobus.Coordinate, err error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return coords, fmt.Errorf("failed to read cityname file %q: %w", p.path, err)
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err = ctx.Err(); err != nil {
			return coords, err
		}

		coords, err = p.coder.Search(ctx, line)
		if err != nil {
			continue
		}
		return coords, nil
	}
	return coords, ErrNoCoordinates
}
