// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package gpsd

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"

	"github.com/stratoberry/go-gpsd"

	"github.com/wneessen/gotta-go/internal/geobus"
)

const (
	host = "localhost"
	port = "2947"
	name = "gpsd"

	fallbackAccuracy3DFix = 10 // ~10 m typical consumer GPS in open sky
	fallbackAccuracy2DFix = 25
)

// ErrNoFix is returned when the gpsd watch ended before a usable fix was reported.
var ErrNoFix = errors.New("gpsd watch ended without a 2D fix")

type GeolocationGPSDProvider struct {
	name string
	addr string
}

func NewGeolocationGPSDProvider() *GeolocationGPSDProvider {
	return &GeolocationGPSDProvider{
		name: name,
		addr: net.JoinHostPort(host, port),
	}
}

func (p *GeolocationGPSDProvider) Name() string {
	return p.name
}

// Locate connects to gpsd, starts a watch and returns the first TPV report with at least a
// 2D fix.
func (p *GeolocationGPSDProvider) Locate(ctx context.Context) (geobus.Coordinate, error) {
	if err := ctx.Err(); err != nil {
		return geobus.Coordinate{}, err
	}

	session, err := gpsd.Dial(p.addr)
	if err != nil {
		return geobus.Coordinate{}, fmt.Errorf("failed to connect to gpsd at %q: %w", p.addr, err)
	}

	fixes := make(chan geobus.Coordinate, 1)
	session.AddFilter("TPV", func(r interface{}) {
		tpv, ok := r.(*gpsd.TPVReport)
		if !ok || tpv.Mode < gpsd.Mode2D {
			return
		}
		coord := geobus.Coordinate{
			Lat: geobus.Truncate(tpv.Lat, geobus.TruncPrecision),
			Lon: geobus.Truncate(tpv.Lon, geobus.TruncPrecision),
			Acc: horizontalAccuracy(tpv),
		}
		select {
		case fixes <- coord:
		default:
		}
	})
	done := session.Watch()

	// go-gpsd has no Close(); the watch goroutine ends once gpsd drops the connection.
	select {
	case <-ctx.Done():
		return geobus.Coordinate{}, ctx.Err()
	case coord := <-fixes:
		return coord, nil
	case <-done:
		select {
		case coord := <-fixes:
			return coord, nil
		default:
			return geobus.Coordinate{}, ErrNoFix
		}
	}
}

func horizontalAccuracy(tpv *gpsd.TPVReport) float64 {
	if tpv.Epx > 0 && tpv.Epy > 0 {
		return geobus.Truncate(math.Hypot(tpv.Epx, tpv.Epy), geobus.TruncPrecision)
	}
	if tpv.Mode == gpsd.Mode3D {
		return fallbackAccuracy3DFix
	}
	return fallbackAccuracy2DFix
}
