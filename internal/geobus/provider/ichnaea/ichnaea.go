// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package ichnaea

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mdlayher/wifi"

	"github.com/wneessen/gotta-go/internal/geobus"
	"github.com/wneessen/gotta-go/internal/http"
)

const (
	apiEndpoint   = "https://api.beacondb.net/v1/geolocate"
	lookupTimeout = time.Second * 5
	name          = "ichnaea"
)

type GeolocationICHNAEAProvider struct {
	name     string
	http     *http.Client
	endpoint string
	scanFn   func() ([]WirelessNetwork, error)
}

type APIResult struct {
	Location struct {
		Latitude  float64 `json:"lat"`
		Longitude float64 `json:"lng"`
	} `json:"location"`
	Accuracy float64 `json:"accuracy"`
}

type WirelessNetwork struct {
	LastSeen       int64  `json:"age"`
	MACAddress     string `json:"macAddress"`
	SignalStrength int32  `json:"signalStrength"`
}

func NewGeolocationICHNAEAProvider(http *http.Client) (*GeolocationICHNAEAProvider, error) {
	if http == nil {
		return nil, errors.New("http client is required")
	}
	wlan, err := wifi.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create wifi client: %w", err)
	}

	return &GeolocationICHNAEAProvider{
		name:     name,
		http:     http,
		endpoint: apiEndpoint,
		scanFn: func() ([]WirelessNetwork, error) {
			return wifiAccessPoints(wlan)
		},
	}, nil
}

func (p *GeolocationICHNAEAProvider) Name() string {
	return p.name
}

// Locate scans the visible WiFi access points once and asks the ICHNAEA service to resolve
// them. A failed scan still falls back to an IP based lookup on the service side.
func (p *GeolocationICHNAEAProvider) Locate(ctx context.Context) (geobus.Coordinate, error) {
	if err := ctx.Err(); err != nil {
		return geobus.Coordinate{}, err
	}
	wifiList, err := p.scanFn()
	if err != nil {
		wifiList = nil
	}

	type request struct {
		ConsiderIP   bool              `json:"considerIp"`
		Accesspoints []WirelessNetwork `json:"wifiAccessPoints,omitempty"`
	}
	req := request{
		ConsiderIP:   true,
		Accesspoints: wifiList,
	}
	bodyBuffer := bytes.NewBuffer(nil)
	if err = json.NewEncoder(bodyBuffer).Encode(req); err != nil {
		return geobus.Coordinate{}, fmt.Errorf("failed to encode wifi list to JSON: %w", err)
	}

	ctxHttp, cancelHttp := context.WithTimeout(ctx, lookupTimeout)
	defer cancelHttp()
	result := new(APIResult)
	if _, err = p.http.Post(ctxHttp, p.endpoint, result, bodyBuffer,
		map[string]string{"Content-Type": "application/json"}); err != nil {
		return geobus.Coordinate{}, fmt.Errorf("failed to get geolocation data from API: %w", err)
	}
	if result.Accuracy <= 0 {
		return geobus.Coordinate{}, errors.New("API returned no accuracy")
	}

	return geobus.Coordinate{
		Lat: geobus.Truncate(result.Location.Latitude, geobus.TruncPrecision),
		Lon: geobus.Truncate(result.Location.Longitude, geobus.TruncPrecision),
		Acc: geobus.Truncate(result.Accuracy, geobus.TruncPrecision),
	}, nil
}

func wifiAccessPoints(wlan *wifi.Client) ([]WirelessNetwork, error) {
	var list []WirelessNetwork

	ifaces, err := wlan.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("failed to list interfaces: %w", err)
	}
	for _, iface := range ifaces {
		if iface.Type != wifi.InterfaceTypeStation {
			continue
		}
		aps, err := wlan.AccessPoints(iface)
		if err != nil {
			continue
		}
		list = append(list, filterAccessPoints(aps)...)
	}

	return list, nil
}

// filterAccessPoints drops hidden networks and those that opted out of mapping via the
// "_nomap" suffix.
func filterAccessPoints(aps []*wifi.BSS) []WirelessNetwork {
	list := make([]WirelessNetwork, 0, len(aps))
	for _, ap := range aps {
		if ap.SSID == "" || ap.SSID[0] == '\x00' || strings.HasSuffix(ap.SSID, "_nomap") {
			continue
		}
		list = append(list, WirelessNetwork{
			SignalStrength: ap.Signal / 100,
			MACAddress:     ap.BSSID.String(),
			LastSeen:       ap.LastSeen.Milliseconds(),
		})
	}
	return list
}
