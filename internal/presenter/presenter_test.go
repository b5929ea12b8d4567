// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package presenter

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/vorlif/spreak"

	"github.com/wneessen/gotta-go/internal/config"
	"github.com/wneessen/gotta-go/internal/geobus"
	"github.com/wneessen/gotta-go/internal/geocode"
	"github.com/wneessen/gotta-go/internal/i18n"
	"github.com/wneessen/gotta-go/internal/region"
	"github.com/wneessen/gotta-go/internal/restroom"
	"github.com/wneessen/gotta-go/internal/view"
)

var (
	center = geobus.Coordinate{Lat: 52.5200, Lon: 13.4050}
	addr   = geocode.Address{
		AddressFound: true,
		City:         "Berlin",
		Suburb:       "Mitte",
		DisplayName:  "Mitte, Berlin, Deutschland",
	}
	records = []restroom.Record{
		{
			ID: 2, Name: "Far away restroom", Street: "Alexanderplatz 1", City: "Berlin", State: "BE",
			Country: "DE", Latitude: 52.5300, Longitude: 13.4050, Unisex: true,
		},
		{
			ID: 1, Name: "Nearby restroom", Street: "Unter den Linden 5", City: "Berlin", State: "BE",
			Country: "DE", Latitude: 52.5210, Longitude: 13.4050, Accessible: true, ChangingTable: true,
			Directions: "Second floor", Comment: "Clean", Upvote: 4, Downvote: 1,
		},
	}
)

func TestNew(t *testing.T) {
	t.Run("creating a new presenter succeeds", func(t *testing.T) {
		conf, lang := testConfLang(t)
		pres, err := New(conf, lang)
		if err != nil {
			t.Fatalf("failed to create presenter: %s", err)
		}
		if pres == nil {
			t.Fatal("expected presenter to be non-nil")
		}
	})
	t.Run("creating presenter with invalid templates fails", func(t *testing.T) {
		tests := []struct {
			name       string
			templateFn func(conf *config.Config)
			wantErr    string
		}{
			{"map parse", func(conf *config.Config) { conf.Templates.Map = "{{invalid" }, "failed to parse"},
			{"list parse", func(conf *config.Config) { conf.Templates.List = "{{invalid" }, "failed to parse"},
			{"detail parse", func(conf *config.Config) { conf.Templates.Detail = "{{invalid" }, "failed to parse"},
			{"map render", func(conf *config.Config) { conf.Templates.Map = "{{.Data}}" }, "failed to render"},
			{"list render", func(conf *config.Config) { conf.Templates.List = "{{.Data}}" }, "failed to render"},
			{"detail render", func(conf *config.Config) { conf.Templates.Detail = "{{.Data}}" }, "failed to render"},
		}
		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				conf, lang := testConfLang(t)
				tc.templateFn(conf)
				_, err := New(conf, lang)
				if err == nil {
					t.Fatal("expected presenter creation to fail")
				}
				if !strings.Contains(err.Error(), tc.wantErr) {
					t.Errorf("expected error to contain %q, got %q", tc.wantErr, err)
				}
			})
		}
	})
}

func TestPresenter_BuildContext(t *testing.T) {
	t.Run("markers are sorted by distance from the position", func(t *testing.T) {
		pres := testPresenter(t)
		ctx := pres.BuildContext(testSnapshot(region.StatePopulated), center, true, addr,
			view.IconAsset(view.IconToilet))
		if len(ctx.Markers) != 2 || len(ctx.Entries) != 2 {
			t.Fatalf("expected 2 markers and entries, got %d and %d", len(ctx.Markers), len(ctx.Entries))
		}
		if ctx.Markers[0].ID != 1 {
			t.Errorf("expected nearest restroom first, got %d", ctx.Markers[0].ID)
		}
		if ctx.Markers[0].Glyph != "🚻" {
			t.Errorf("expected toilet glyph, got %q", ctx.Markers[0].Glyph)
		}
		if ctx.Markers[0].Bearing != "↑ N" {
			t.Errorf("expected bearing to be north, got %q", ctx.Markers[0].Bearing)
		}
		if d := ctx.Markers[0].Distance; d < 100 || d > 120 {
			t.Errorf("expected distance to be ~111m, got %f", d)
		}
		if !ctx.Markers[0].InView || ctx.Markers[1].InView {
			t.Error("expected only the nearby restroom to be inside the viewport")
		}
		if ctx.Entries[0].ID != 2 {
			t.Errorf("expected list entries to keep the API order, got %d", ctx.Entries[0].ID)
		}
	})
	t.Run("region center is used without a position", func(t *testing.T) {
		pres := testPresenter(t)
		snap := testSnapshot(region.StatePopulated)
		snap.Region = region.Initial(geobus.Coordinate{Lat: 52.5300, Lon: 13.4050})
		ctx := pres.BuildContext(snap, geobus.Coordinate{}, false, addr, view.IconAsset(view.IconDefault))
		if ctx.Markers[0].ID != 2 {
			t.Errorf("expected restroom at the center first, got %d", ctx.Markers[0].ID)
		}
	})
	t.Run("headers reflect the fetch state", func(t *testing.T) {
		tests := []struct {
			name  string
			snap  region.Snapshot
			addr  geocode.Address
			wants []string
		}{
			{"no region", region.Snapshot{}, addr, []string{"unavailable"}},
			{"idle", testSnapshot(region.StateIdle), addr, []string{"Restrooms near Mitte, Berlin"}},
			{"fetching", testSnapshot(region.StateFetching), addr, []string{"loading"}},
			{"populated", testSnapshot(region.StatePopulated), addr, []string{"2 restrooms"}},
			{"failed", func() region.Snapshot {
				s := testSnapshot(region.StateFailed)
				s.Err = errors.New("connection refused")
				return s
			}(), addr, []string{"update failed", "connection refused"}},
			{"no address", testSnapshot(region.StateIdle), geocode.Address{}, []string{"52.5200, 13.4050"}},
		}
		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				pres := testPresenter(t)
				ctx := pres.BuildContext(tc.snap, center, true, tc.addr, view.IconAsset(view.IconDefault))
				for _, want := range tc.wants {
					if !strings.Contains(ctx.Header, want) {
						t.Errorf("expected header to contain %q, got %q", want, ctx.Header)
					}
				}
			})
		}
	})
}

func TestPresenter_Render(t *testing.T) {
	t.Run("map view", func(t *testing.T) {
		pres := testPresenter(t)
		ctx := pres.BuildContext(testSnapshot(region.StatePopulated), center, true, addr,
			view.IconAsset(view.IconDefault))
		out, err := pres.Render(view.ModeMap, ctx)
		if err != nil {
			t.Fatalf("failed to render: %s", err)
		}
		lines := strings.Split(strings.TrimSpace(out), "\n")
		if len(lines) != 3 {
			t.Fatalf("expected 3 lines, got %d: %q", len(lines), out)
		}
		want := "📍 Nearby restroom                  111 m ↑ N [1]"
		if lines[1] != want {
			t.Errorf("expected marker line to be %q, got %q", want, lines[1])
		}
		if !strings.Contains(lines[2], "1.1 km") {
			t.Errorf("expected second marker to be 1.1 km away, got %q", lines[2])
		}
	})
	t.Run("list view", func(t *testing.T) {
		pres := testPresenter(t)
		ctx := pres.BuildContext(testSnapshot(region.StatePopulated), center, true, addr,
			view.IconAsset(view.IconDefault))
		out, err := pres.Render(view.ModeList, ctx)
		if err != nil {
			t.Fatalf("failed to render: %s", err)
		}
		for _, want := range []string{
			"[2] Far away restroom (1.1 km)",
			"Alexanderplatz 1, Berlin, BE",
			"Not accessible | Unisex",
			"[1] Nearby restroom (111 m)",
			"Accessible | Gendered",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("expected list output to contain %q, got %q", want, out)
			}
		}
	})
	t.Run("empty set shows the empty state", func(t *testing.T) {
		pres := testPresenter(t)
		snap := testSnapshot(region.StatePopulated)
		snap.Restrooms = nil
		ctx := pres.BuildContext(snap, center, true, addr, view.IconAsset(view.IconDefault))
		for _, mode := range []view.Mode{view.ModeMap, view.ModeList} {
			out, err := pres.Render(mode, ctx)
			if err != nil {
				t.Fatalf("failed to render: %s", err)
			}
			if !strings.Contains(out, "No restrooms found in this area.") {
				t.Errorf("expected %s output to show the empty state, got %q", mode, out)
			}
		}
	})
	t.Run("detail view", func(t *testing.T) {
		pres := testPresenter(t)
		out, err := pres.RenderDetail(Entry{Record: records[1], Meters: 111})
		if err != nil {
			t.Fatalf("failed to render: %s", err)
		}
		want := "Nearby restroom\n" +
			"  Unter den Linden 5, Berlin, BE, DE\n" +
			"  Accessible | Gendered | Changing table\n" +
			"  Directions: Second floor\n" +
			"  Comment: Clean\n" +
			"  +4 / -1\n"
		if out != want {
			t.Errorf("expected detail output to be %q, got %q", want, out)
		}
	})
	t.Run("german localization", func(t *testing.T) {
		conf, err := config.New()
		if err != nil {
			t.Fatalf("failed to load config: %s", err)
		}
		lang, err := i18n.New("de")
		if err != nil {
			t.Fatalf("failed to create localizer: %s", err)
		}
		pres, err := New(conf, lang)
		if err != nil {
			t.Fatalf("failed to create presenter: %s", err)
		}
		out, err := pres.RenderDetail(Entry{Record: records[1]})
		if err != nil {
			t.Fatalf("failed to render: %s", err)
		}
		if !strings.Contains(out, "Barrierefrei") || !strings.Contains(out, "Wickeltisch") {
			t.Errorf("expected german output, got %q", out)
		}
	})
}

func TestFuncs(t *testing.T) {
	t.Run("dist", func(t *testing.T) {
		tests := []struct {
			meters float64
			want   string
		}{
			{0, "0 m"},
			{110.6, "111 m"},
			{999.4, "999 m"},
			{1000, "1.0 km"},
			{12345, "12.3 km"},
		}
		for _, tc := range tests {
			if got := dist(tc.meters); got != tc.want {
				t.Errorf("expected %f to format as %q, got %q", tc.meters, tc.want, got)
			}
		}
	})
	t.Run("pad", func(t *testing.T) {
		if got := pad("WC", 5); got != "WC   " {
			t.Errorf("expected padded string, got %q", got)
		}
		if got := pad("A very long restroom name", 10); got != "A very lo…" {
			t.Errorf("expected truncated string, got %q", got)
		}
		if got := pad("🚻", 4); got != "🚻  " {
			t.Errorf("expected wide glyph to count as two cells, got %q", got)
		}
	})
	t.Run("cardinal", func(t *testing.T) {
		tests := []struct {
			bearing float64
			want    string
		}{
			{0, "↑ N"},
			{44, "↗ NE"},
			{90, "→ E"},
			{181, "↓ S"},
			{359, "↑ N"},
			{-90, "← W"},
		}
		for _, tc := range tests {
			if got := cardinal(tc.bearing); got != tc.want {
				t.Errorf("expected bearing %f to be %q, got %q", tc.bearing, tc.want, got)
			}
		}
	})
}

func testSnapshot(state region.State) region.Snapshot {
	return region.Snapshot{
		Region:    region.Initial(center),
		HasRegion: true,
		State:     state,
		Restrooms: records,
		UpdatedAt: time.Now().Add(-time.Minute * 2),
	}
}

func testPresenter(t *testing.T) *Presenter {
	t.Helper()
	conf, lang := testConfLang(t)
	pres, err := New(conf, lang)
	if err != nil {
		t.Fatalf("failed to create presenter: %s", err)
	}
	return pres
}

func testConfLang(t *testing.T) (*config.Config, *spreak.Localizer) {
	t.Helper()
	conf, err := config.New()
	if err != nil {
		t.Fatalf("failed to load config: %s", err)
	}
	lang, err := i18n.New("en")
	if err != nil {
		t.Fatalf("failed to create localizer: %s", err)
	}
	return conf, lang
}
