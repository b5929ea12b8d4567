// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kkyr/fig"
)

const (
	configEnv = "GOTTAGO"

	DefaultRestroomEndpoint = "https://www.refugerestrooms.org/api/v1/restrooms/by_location"
	DefaultAuthURL          = "https://accounts.google.com/o/oauth2/auth"
	DefaultTokenURL         = "https://oauth2.googleapis.com/token"

	DefaultMapTpl = "{{.Header}}\n" +
		"{{range .Markers}}{{.Glyph}} {{pad .Name 32}} {{dist .Distance}} {{.Bearing}} [{{.ID}}]\n{{else}}{{loc \"norestrooms\"}}\n{{end}}"
	DefaultListTpl = "{{.Header}}\n" +
		"{{range .Entries}}[{{.ID}}] {{.Name}} ({{dist .Meters}})\n" +
		"    {{.Street}}, {{.City}}, {{.State}}\n" +
		"    {{access .Accessible}} | {{unisex .Unisex}}\n" +
		"{{else}}{{loc \"norestrooms\"}}\n{{end}}"
	DefaultDetailTpl = "{{.Name}}\n" +
		"  {{.Street}}, {{.City}}, {{.State}}, {{.Country}}\n" +
		"  {{access .Accessible}} | {{unisex .Unisex}}{{if .ChangingTable}} | {{loc \"changingtable\"}}{{end}}\n" +
		"{{if .Directions}}  {{loc \"directions\"}}: {{.Directions}}\n{{end}}" +
		"{{if .Comment}}  {{loc \"comment\"}}: {{.Comment}}\n{{end}}" +
		"  +{{.Upvote}} / -{{.Downvote}}\n"
)

// Config represents the application's configuration structure.
type Config struct {
	Locale   string     `fig:"locale"`
	LogLevel slog.Level `fig:"loglevel" default:"0"`

	Restrooms struct {
		Endpoint string `fig:"endpoint"`
		// DiscardStaleResponses drops fetch results that were issued before the newest applied one
		DiscardStaleResponses bool `fig:"discard_stale_responses"`
	} `fig:"restrooms"`

	View struct {
		// Allowed values: map, list
		Mode string `fig:"mode" default:"map"`
		// Allowed values: default, toilet
		Icon string `fig:"icon" default:"default"`
	} `fig:"view"`

	Templates struct {
		Map    string `fig:"map"`
		List   string `fig:"list"`
		Detail string `fig:"detail"`
	} `fig:"templates"`

	GeoLocation struct {
		// Allowed values: prompt, granted, denied
		Permission string `fig:"permission" default:"prompt"`
		// Allowed values: lowest, low, balanced, high, highest
		Accuracy               string        `fig:"accuracy" default:"balanced"`
		Timeout                time.Duration `fig:"timeout" default:"20s"`
		File                   string        `fig:"file"`
		CityNameFile           string        `fig:"cityname_file"`
		DisableGeolocationFile bool          `fig:"disable_geolocation_file"`
		DisableCityNameFile    bool          `fig:"disable_cityname_file"`
		DisableGeoClue         bool          `fig:"disable_geoclue"`
		DisableGPSD            bool          `fig:"disable_gpsd"`
		DisableGeoIP           bool          `fig:"disable_geoip"`
		DisableGeoAPI          bool          `fig:"disable_geoapi"`
		DisableICHNAEA         bool          `fig:"disable_ichnaea"`
	} `fig:"geolocation"`

	GeoCoder struct {
		// Allowed values: nominatim, google-maps, opencage, geocode-earth, none
		Provider string `fig:"provider" default:"nominatim"`
		APIKey   string `fig:"apikey"`
	} `fig:"geocoder"`

	Session struct {
		StorageFile string `fig:"storage_file"`
	} `fig:"session"`

	Identity struct {
		ClientID     string        `fig:"client_id"`
		ClientSecret string        `fig:"client_secret"`
		AuthURL      string        `fig:"auth_url"`
		TokenURL     string        `fig:"token_url"`
		Scopes       []string      `fig:"scopes"`
		ListenAddr   string        `fig:"listen_addr" default:"127.0.0.1:8765"`
		Timeout      time.Duration `fig:"timeout" default:"5m"`
	} `fig:"identity"`
}

func NewFromFile(path, file string) (*Config, error) {
	conf := new(Config)
	_, err := os.Stat(filepath.Join(path, file))
	if err != nil {
		return conf, fmt.Errorf("failed to read Config: %w", err)
	}
	if err = fig.Load(conf, fig.Dirs(path), fig.File(file), fig.UseEnv(configEnv)); err != nil {
		return conf, fmt.Errorf("failed to load Config: %w", err)
	}

	return conf, conf.Validate()
}

func New() (*Config, error) {
	conf := new(Config)
	if err := fig.Load(conf, fig.AllowNoFile(), fig.UseEnv(configEnv)); err != nil {
		return conf, fmt.Errorf("failed to load Config: %w", err)
	}

	return conf, conf.Validate()
}

func (c *Config) Validate() error {
	if c.Locale == "" {
		c.Locale = getLocale()
	}
	if c.Restrooms.Endpoint == "" {
		c.Restrooms.Endpoint = DefaultRestroomEndpoint
	}

	c.View.Mode = strings.ToLower(c.View.Mode)
	if c.View.Mode != "map" && c.View.Mode != "list" {
		return fmt.Errorf("invalid view mode: %s", c.View.Mode)
	}
	c.View.Icon = strings.ToLower(c.View.Icon)
	if c.View.Icon != "default" && c.View.Icon != "toilet" {
		return fmt.Errorf("invalid icon type: %s", c.View.Icon)
	}

	if c.Templates.Map == "" {
		c.Templates.Map = DefaultMapTpl
	}
	if c.Templates.List == "" {
		c.Templates.List = DefaultListTpl
	}
	if c.Templates.Detail == "" {
		c.Templates.Detail = DefaultDetailTpl
	}

	c.GeoLocation.Permission = strings.ToLower(c.GeoLocation.Permission)
	switch c.GeoLocation.Permission {
	case "prompt", "granted", "denied":
	default:
		return fmt.Errorf("invalid geolocation permission: %s", c.GeoLocation.Permission)
	}
	c.GeoLocation.Accuracy = strings.ToLower(c.GeoLocation.Accuracy)
	switch c.GeoLocation.Accuracy {
	case "lowest", "low", "balanced", "high", "highest":
	default:
		return fmt.Errorf("invalid geolocation accuracy: %s", c.GeoLocation.Accuracy)
	}
	if c.GeoLocation.Timeout <= 0 {
		return fmt.Errorf("invalid geolocation timeout: %s", c.GeoLocation.Timeout)
	}

	c.GeoCoder.Provider = strings.ToLower(c.GeoCoder.Provider)
	switch c.GeoCoder.Provider {
	case "nominatim", "none":
	case "google-maps", "opencage", "geocode-earth":
		if c.GeoCoder.APIKey == "" {
			return fmt.Errorf("%s geocoder requires an API key", c.GeoCoder.Provider)
		}
	default:
		return fmt.Errorf("unsupported geocoder type: %s", c.GeoCoder.Provider)
	}

	home, _ := os.UserHomeDir()
	if c.GeoLocation.File == "" {
		c.GeoLocation.File = filepath.Join(home, ".config", "gotta-go", "geolocation")
	}
	if c.GeoLocation.CityNameFile == "" {
		c.GeoLocation.CityNameFile = filepath.Join(home, ".config", "gotta-go", "cityname")
	}
	if c.Session.StorageFile == "" {
		c.Session.StorageFile = filepath.Join(home, ".config", "gotta-go", "storage.db")
	}

	if c.Identity.AuthURL == "" {
		c.Identity.AuthURL = DefaultAuthURL
	}
	if c.Identity.TokenURL == "" {
		c.Identity.TokenURL = DefaultTokenURL
	}
	if len(c.Identity.Scopes) == 0 {
		c.Identity.Scopes = []string{"openid", "email", "profile"}
	}
	if c.Identity.Timeout <= 0 {
		return fmt.Errorf("invalid identity timeout: %s", c.Identity.Timeout)
	}

	return nil
}

func getLocale() string {
	locale := os.Getenv("LC_MESSAGES")
	if idx := strings.Index(locale, "."); idx != -1 {
		lang := locale[:idx]
		return strings.ReplaceAll(lang, "_", "-")
	}
	return locale
}
