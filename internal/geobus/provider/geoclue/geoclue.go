// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geoclue

import (
	"context"
	"errors"
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/wneessen/gotta-go/internal/geobus"
)

const (
	name = "geoclue"

	busName           = "org.freedesktop.GeoClue2"
	managerPath       = "/org/freedesktop/GeoClue2/Manager"
	managerInterface  = "org.freedesktop.GeoClue2.Manager"
	clientInterface   = "org.freedesktop.GeoClue2.Client"
	locationInterface = "org.freedesktop.GeoClue2.Location"
	accessDeniedError = "org.freedesktop.DBus.Error.AccessDenied"

	DesktopID = "gotta-go"
)

// AccuracyLevel mirrors the GClueAccuracyLevel enum of GeoClue2.
type AccuracyLevel uint32

const (
	AccuracyLevelNone         AccuracyLevel = 0
	AccuracyLevelCountry      AccuracyLevel = 1
	AccuracyLevelCity         AccuracyLevel = 4
	AccuracyLevelNeighborhood AccuracyLevel = 5
	AccuracyLevelStreet       AccuracyLevel = 6
	AccuracyLevelExact        AccuracyLevel = 8
)

// GeolocationGeoClueProvider asks the GeoClue2 service on the system bus for a single
// location fix.
type GeolocationGeoClueProvider struct {
	name  string
	level AccuracyLevel
}

func NewGeolocationGeoClueProvider(level AccuracyLevel) *GeolocationGeoClueProvider {
	if level == AccuracyLevelNone {
		level = AccuracyLevelExact
	}
	return &GeolocationGeoClueProvider{
		name:  name,
		level: level,
	}
}

func (p *GeolocationGeoClueProvider) Name() string {
	return p.name
}

// Locate registers a GeoClue client, starts it and waits for the first LocationUpdated
// signal. A refusal by the GeoClue agent is reported as geobus.ErrAccessDenied.
func (p *GeolocationGeoClueProvider) Locate(ctx context.Context) (coord geobus.Coordinate, err error) {
	conn, err := dbus.ConnectSystemBus(dbus.WithContext(ctx))
	if err != nil {
		return coord, fmt.Errorf("failed to connect to system bus: %w", err)
	}
	defer func() {
		if closeErr := conn.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close system bus: %w", closeErr))
		}
	}()

	var clientPath dbus.ObjectPath
	manager := conn.Object(busName, managerPath)
	if err = manager.CallWithContext(ctx, managerInterface+".GetClient", 0).Store(&clientPath); err != nil {
		return coord, mapError("failed to get geoclue client", err)
	}
	client := conn.Object(busName, clientPath)
	if err = client.SetProperty(clientInterface+".DesktopId", dbus.MakeVariant(DesktopID)); err != nil {
		return coord, mapError("failed to set desktop id", err)
	}
	if err = client.SetProperty(clientInterface+".RequestedAccuracyLevel", dbus.MakeVariant(uint32(p.level))); err != nil {
		return coord, mapError("failed to set requested accuracy level", err)
	}

	if err = conn.AddMatchSignal(
		dbus.WithMatchObjectPath(clientPath),
		dbus.WithMatchInterface(clientInterface),
		dbus.WithMatchMember("LocationUpdated"),
	); err != nil {
		return coord, fmt.Errorf("failed to subscribe to location updates: %w", err)
	}
	signals := make(chan *dbus.Signal, 4)
	conn.Signal(signals)
	defer conn.RemoveSignal(signals)

	if err = client.CallWithContext(ctx, clientInterface+".Start", 0).Err; err != nil {
		return coord, mapError("failed to start geoclue client", err)
	}
	defer client.Call(clientInterface+".Stop", 0)

	for {
		select {
		case <-ctx.Done():
			return coord, ctx.Err()
		case signal, ok := <-signals:
			if !ok {
				return coord, errors.New("system bus connection closed")
			}
			locationPath, ok := newLocationPath(signal)
			if !ok {
				continue
			}
			return readLocation(conn.Object(busName, locationPath))
		}
	}
}

// newLocationPath extracts the path of the new location object from a LocationUpdated signal.
func newLocationPath(signal *dbus.Signal) (dbus.ObjectPath, bool) {
	if signal == nil || signal.Name != clientInterface+".LocationUpdated" || len(signal.Body) != 2 {
		return "", false
	}
	path, ok := signal.Body[1].(dbus.ObjectPath)
	if !ok || !path.IsValid() || path == "/" {
		return "", false
	}
	return path, true
}

type propertyReader interface {
	GetProperty(p string) (dbus.Variant, error)
}

func readLocation(obj propertyReader) (geobus.Coordinate, error) {
	var coord geobus.Coordinate
	for prop, target := range map[string]*float64{
		"Latitude":  &coord.Lat,
		"Longitude": &coord.Lon,
		"Accuracy":  &coord.Acc,
	} {
		value, err := obj.GetProperty(locationInterface + "." + prop)
		if err != nil {
			return geobus.Coordinate{}, fmt.Errorf("failed to read location %s: %w", prop, err)
		}
		f, ok := value.Value().(float64)
		if !ok {
			return geobus.Coordinate{}, fmt.Errorf("unexpected type %s for location %s", value.Signature(), prop)
		}
		*target = f
	}
	coord.Lat = geobus.Truncate(coord.Lat, geobus.TruncPrecision)
	coord.Lon = geobus.Truncate(coord.Lon, geobus.TruncPrecision)
	return coord, nil
}

// mapError wraps a D-Bus error and translates an AccessDenied reply into geobus.ErrAccessDenied.
func mapError(msg string, err error) error {
	var dbusErr dbus.Error
	if errors.As(err, &dbusErr) && dbusErr.Name == accessDeniedError {
		return fmt.Errorf("%s: %w", msg, errors.Join(geobus.ErrAccessDenied, err))
	}
	var dbusErrPtr *dbus.Error
	if errors.As(err, &dbusErrPtr) && dbusErrPtr.Name == accessDeniedError {
		return fmt.Errorf("%s: %w", msg, errors.Join(geobus.ErrAccessDenied, err))
	}
	return fmt.Errorf("%s: %w", msg, err)
}
