// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package view

import (
	"fmt"
	"strings"
	"sync"

	"github.com/mattn/go-runewidth"

	"github.com/wneessen/gotta-go/internal/geobus"
	"github.com/wneessen/gotta-go/internal/region"
)

// Mode is the presentation of the restroom set. The values match the tab index.
type Mode int

const (
	ModeMap Mode = iota
	ModeList
)

func (m Mode) String() string {
	if m == ModeList {
		return "list"
	}
	return "map"
}

// ParseMode returns the Mode for its name.
func ParseMode(value string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "map", "0":
		return ModeMap, nil
	case "list", "1":
		return ModeList, nil
	default:
		return ModeMap, fmt.Errorf("unsupported view mode: %q", value)
	}
}

// Icon is the marker style used on the map.
type Icon int

const (
	IconDefault Icon = iota
	IconToilet
)

func (i Icon) String() string {
	if i == IconToilet {
		return "toilet"
	}
	return "default"
}

// ParseIcon returns the Icon for its name.
func ParseIcon(value string) (Icon, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "default":
		return IconDefault, nil
	case "toilet":
		return IconToilet, nil
	default:
		return IconDefault, fmt.Errorf("unsupported icon type: %q", value)
	}
}

// Asset describes how a marker Icon is drawn.
type Asset struct {
	Name  string
	Color string
	Glyph string
}

// Width returns the number of terminal cells the glyph occupies.
func (a Asset) Width() int {
	return runewidth.StringWidth(a.Glyph)
}

var assets = map[Icon]Asset{
	IconDefault: {Name: "map-pin", Color: "red", Glyph: "📍"},
	IconToilet:  {Name: "toilet", Color: "blue", Glyph: "🚻"},
}

// IconAsset maps an Icon to its Asset. Unknown icons fall back to the default asset.
func IconAsset(icon Icon) Asset {
	if a, ok := assets[icon]; ok {
		return a
	}
	return assets[IconDefault]
}

// Navigator moves the map viewport.
type Navigator interface {
	NavigateTo(coord geobus.Coordinate) region.Decision
}

// Selector holds the presentation choices of the main view.
type Selector struct {
	mu   sync.RWMutex
	mode Mode
	icon Icon
}

func NewSelector(mode Mode, icon Icon) *Selector {
	return &Selector{mode: mode, icon: icon}
}

func (s *Selector) Mode() Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

func (s *Selector) SetMode(mode Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = mode
}

func (s *Selector) Icon() Icon {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.icon
}

// SetIcon changes the marker style. Only the map presentation uses it.
func (s *Selector) SetIcon(icon Icon) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.icon = icon
}

// ShowOnMap switches to the map and centers it on coord. The returned Decision never asks
// for a fetch, the restroom set stays as it is.
func (s *Selector) ShowOnMap(nav Navigator, coord geobus.Coordinate) region.Decision {
	s.SetMode(ModeMap)
	return nav.NavigateTo(coord)
}
