// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package presenter

import (
	"bytes"
	"fmt"
	"slices"
	"text/template"
	"time"

	"github.com/vorlif/humanize"
	"github.com/vorlif/humanize/locale/de"
	"github.com/vorlif/spreak"

	"github.com/wneessen/gotta-go/internal/config"
	"github.com/wneessen/gotta-go/internal/geobus"
	"github.com/wneessen/gotta-go/internal/geocode"
	"github.com/wneessen/gotta-go/internal/region"
	"github.com/wneessen/gotta-go/internal/restroom"
	"github.com/wneessen/gotta-go/internal/view"
)

// Marker is a restroom as shown on the map, relative to the map origin.
type Marker struct {
	ID        int
	Glyph     string
	Name      string
	Latitude  float64
	Longitude float64
	Distance  float64
	Bearing   string
	InView    bool
}

// Entry is a restroom as shown in the list. Meters is the distance from the map origin.
type Entry struct {
	restroom.Record
	Meters float64
}

// TemplateContext is the data the map and list templates are executed with.
type TemplateContext struct {
	Header  string
	Icon    view.Asset
	Markers []Marker
	Entries []Entry
}

type Presenter struct {
	MapTemplate    *template.Template
	ListTemplate   *template.Template
	DetailTemplate *template.Template

	localizer *spreak.Localizer
	humanizer *humanize.Humanizer
}

// New parses the configured templates and test-renders them with sample data, so that broken
// user templates are reported at startup.
func New(conf *config.Config, loc *spreak.Localizer) (*Presenter, error) {
	collection, err := humanize.New(humanize.WithLocale(de.New()))
	if err != nil {
		return nil, fmt.Errorf("failed to create humanizer: %w", err)
	}
	pres := &Presenter{
		localizer: loc,
		humanizer: collection.CreateHumanizer(loc.Language()),
	}

	templates := []struct {
		name   string
		text   string
		target **template.Template
	}{
		{"map", conf.Templates.Map, &pres.MapTemplate},
		{"list", conf.Templates.List, &pres.ListTemplate},
		{"detail", conf.Templates.Detail, &pres.DetailTemplate},
	}
	for _, t := range templates {
		tpl, err := template.New(t.name).Funcs(pres.templateFuncMap()).Parse(t.text)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", t.name, err)
		}
		*t.target = tpl
	}

	sample := pres.BuildContext(sampleSnapshot(), geobus.Coordinate{}, false, geocode.Address{},
		view.IconAsset(view.IconDefault))
	if _, err = pres.Render(view.ModeMap, sample); err != nil {
		return nil, err
	}
	if _, err = pres.Render(view.ModeList, sample); err != nil {
		return nil, err
	}
	if _, err = pres.RenderDetail(sample.Entries[0]); err != nil {
		return nil, err
	}

	return pres, nil
}

// BuildContext prepares the template data for snap. Distances and bearings are measured from
// the user's position if known, otherwise from the center of the region.
func (p *Presenter) BuildContext(snap region.Snapshot, position geobus.Coordinate, hasPosition bool,
	addr geocode.Address, icon view.Asset,
) TemplateContext {
	origin := snap.Region.Center()
	if hasPosition {
		origin = position
	}

	ctx := TemplateContext{
		Header:  p.header(snap, addr),
		Icon:    icon,
		Markers: make([]Marker, 0, len(snap.Restrooms)),
		Entries: make([]Entry, 0, len(snap.Restrooms)),
	}
	for _, r := range snap.Restrooms {
		meters := origin.DistanceTo(r.Coordinate())
		ctx.Entries = append(ctx.Entries, Entry{Record: r, Meters: meters})
		ctx.Markers = append(ctx.Markers, Marker{
			ID:        r.ID,
			Glyph:     icon.Glyph,
			Name:      r.Name,
			Latitude:  r.Latitude,
			Longitude: r.Longitude,
			Distance:  meters,
			Bearing:   cardinal(origin.BearingTo(r.Coordinate())),
			InView:    snap.HasRegion && snap.Region.Contains(r.Coordinate()),
		})
	}
	slices.SortStableFunc(ctx.Markers, func(a, b Marker) int {
		switch {
		case a.Distance < b.Distance:
			return -1
		case a.Distance > b.Distance:
			return 1
		}
		return 0
	})
	return ctx
}

// Render executes the template of the given view mode.
func (p *Presenter) Render(mode view.Mode, ctx TemplateContext) (string, error) {
	tpl := p.MapTemplate
	if mode == view.ModeList {
		tpl = p.ListTemplate
	}
	buf := bytes.NewBuffer(nil)
	if err := tpl.Execute(buf, ctx); err != nil {
		return "", fmt.Errorf("failed to render %s template: %w", mode, err)
	}
	return buf.String(), nil
}

// RenderDetail executes the detail template for a single restroom.
func (p *Presenter) RenderDetail(entry Entry) (string, error) {
	buf := bytes.NewBuffer(nil)
	if err := p.DetailTemplate.Execute(buf, entry); err != nil {
		return "", fmt.Errorf("failed to render detail template: %w", err)
	}
	return buf.String(), nil
}

func (p *Presenter) header(snap region.Snapshot, addr geocode.Address) string {
	if !snap.HasRegion {
		return p.localizer.Get("Your location is unavailable, no restrooms can be shown.")
	}

	place := fmt.Sprintf("%.4f, %.4f", snap.Region.Latitude, snap.Region.Longitude)
	if addr.AddressFound {
		place = addr.Short()
	}
	title := p.localizer.Getf("Restrooms near %s", place)

	switch snap.State {
	case region.StateFetching:
		return title + " • " + p.localizer.Get("loading…")
	case region.StateFailed:
		return title + " • " + p.localizer.Getf("update failed: %s", snap.Err)
	case region.StatePopulated:
		return title + " • " + p.localizer.NGetf("%d restroom", "%d restrooms", len(snap.Restrooms),
			len(snap.Restrooms)) + ", " + p.humanizer.NaturalTime(snap.UpdatedAt)
	default:
		return title
	}
}

func sampleSnapshot() region.Snapshot {
	coord := geobus.Coordinate{Lat: 40.7128, Lon: -74.0060}
	return region.Snapshot{
		Region:    region.Initial(coord),
		HasRegion: true,
		State:     region.StatePopulated,
		UpdatedAt: time.Now(),
		Restrooms: []restroom.Record{{
			ID:         1,
			Name:       "Sample restroom",
			Street:     "1 Sample St",
			City:       "New York",
			State:      "NY",
			Country:    "US",
			Accessible: true,
			Latitude:   coord.Lat,
			Longitude:  coord.Lon,
		}},
	}
}
