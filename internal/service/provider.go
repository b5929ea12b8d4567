// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"github.com/wneessen/gotta-go/internal/config"
	"github.com/wneessen/gotta-go/internal/geobus"
	"github.com/wneessen/gotta-go/internal/geobus/provider/cityname_file"
	"github.com/wneessen/gotta-go/internal/geobus/provider/geoapi"
	"github.com/wneessen/gotta-go/internal/geobus/provider/geoclue"
	"github.com/wneessen/gotta-go/internal/geobus/provider/geoip"
	"github.com/wneessen/gotta-go/internal/geobus/provider/geolocation_file"
	"github.com/wneessen/gotta-go/internal/geobus/provider/gpsd"
	"github.com/wneessen/gotta-go/internal/geobus/provider/ichnaea"
	"github.com/wneessen/gotta-go/internal/geocode"
	geocodeearth "github.com/wneessen/gotta-go/internal/geocode/provider/geocode-earth"
	"github.com/wneessen/gotta-go/internal/geocode/provider/googlemaps"
	"github.com/wneessen/gotta-go/internal/geocode/provider/opencage"
	nominatim "github.com/wneessen/gotta-go/internal/geocode/provider/osm-nominatim"
	"github.com/wneessen/gotta-go/internal/http"
	"github.com/wneessen/gotta-go/internal/locator"
	"github.com/wneessen/gotta-go/internal/logger"
)

var geoclueLevels = map[locator.Accuracy]geoclue.AccuracyLevel{
	locator.AccuracyLowest:   geoclue.AccuracyLevelCountry,
	locator.AccuracyLow:      geoclue.AccuracyLevelCity,
	locator.AccuracyBalanced: geoclue.AccuracyLevelNeighborhood,
	locator.AccuracyHigh:     geoclue.AccuracyLevelStreet,
	locator.AccuracyHighest:  geoclue.AccuracyLevelExact,
}

func (s *Service) selectGeobusProviders(accuracy locator.Accuracy) ([]geobus.Provider, error) {
	httpClient := http.New(s.logger)
	var provider []geobus.Provider

	if !s.config.GeoLocation.DisableGeolocationFile {
		provider = append(provider, geolocation_file.NewGeolocationFileProvider(s.config.GeoLocation.File))
	}

	if !s.config.GeoLocation.DisableCityNameFile {
		if s.geocoder == nil {
			s.logger.Debug("city name file provider requires a geocoder, skipping")
		} else {
			cnf, err := cityname_file.NewCitynameFileProvider(s.config.GeoLocation.CityNameFile, s.geocoder)
			if err != nil {
				return nil, fmt.Errorf("failed to create city name file provider: %w", err)
			}
			provider = append(provider, cnf)
		}
	}

	if !s.config.GeoLocation.DisableGeoClue {
		provider = append(provider, geoclue.NewGeolocationGeoClueProvider(geoclueLevels[accuracy]))
	}

	if !s.config.GeoLocation.DisableGPSD {
		provider = append(provider, gpsd.NewGeolocationGPSDProvider())
	}

	if !s.config.GeoLocation.DisableGeoIP {
		gip, err := geoip.NewGeolocationGeoIPProvider(httpClient)
		if err != nil {
			return nil, fmt.Errorf("failed to create GeoIP provider: %w", err)
		}
		provider = append(provider, gip)
	}

	if !s.config.GeoLocation.DisableGeoAPI {
		gap, err := geoapi.NewGeolocationGeoAPIProvider(httpClient)
		if err != nil {
			return nil, fmt.Errorf("failed to create GeoAPI provider: %w", err)
		}
		provider = append(provider, gap)
	}

	if !s.config.GeoLocation.DisableICHNAEA {
		mls, err := ichnaea.NewGeolocationICHNAEAProvider(httpClient)
		if err != nil {
			s.logger.Error("failed to create ICHNAEA provider", logger.Err(err))
		} else {
			provider = append(provider, mls)
		}
	}
	if len(provider) == 0 {
		return nil, fmt.Errorf("no geolocation providers enabled")
	}

	return provider, nil
}

// selectGeocodeProvider returns the configured geocoder wrapped in a cache. It returns nil if
// geocoding is disabled.
func (s *Service) selectGeocodeProvider(conf *config.Config, log *logger.Logger, lang language.Tag) (geocode.Geocoder, error) {
	var geocoder geocode.Geocoder

	switch strings.ToLower(conf.GeoCoder.Provider) {
	case "none":
		return nil, nil
	case "nominatim":
		geocoder = geocode.NewCachedGeocoder(nominatim.New(http.New(log), lang), cacheHitTTL, cacheMissTTL)
	case "google-maps":
		if conf.GeoCoder.APIKey == "" {
			return nil, fmt.Errorf("google-maps geocoder requires an API key")
		}
		gm, err := googlemaps.New(conf.GeoCoder.APIKey, lang)
		if err != nil {
			return nil, fmt.Errorf("failed to create google-maps geocoder: %w", err)
		}
		geocoder = geocode.NewCachedGeocoder(gm, cacheHitTTL, cacheMissTTL)
	case "opencage":
		oc, err := opencage.New(http.New(log), lang, conf.GeoCoder.APIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create opencage geocoder: %w", err)
		}
		geocoder = geocode.NewCachedGeocoder(oc, cacheHitTTL, cacheMissTTL)
	case "geocode-earth":
		ge, err := geocodeearth.New(http.New(log), lang, conf.GeoCoder.APIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create geocode-earth geocoder: %w", err)
		}
		geocoder = geocode.NewCachedGeocoder(ge, cacheHitTTL, cacheMissTTL)
	default:
		return nil, fmt.Errorf("unsupported geocoder type: %s", conf.GeoCoder.Provider)
	}

	return geocoder, nil
}
