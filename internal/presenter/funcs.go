// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package presenter

import (
	"fmt"
	"math"
	"strings"
	"text/template"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/vorlif/humanize"
)

func (p *Presenter) templateFuncMap() template.FuncMap {
	return template.FuncMap{
		"timeFormat":    p.timeFormat,
		"localizedTime": p.localizedTime,
		"naturalTime":   p.naturalTime,
		"loc":           p.loc,
		"access":        p.access,
		"unisex":        p.unisex,
		"dist":          dist,
		"pad":           pad,
		"lc":            strings.ToLower,
		"uc":            strings.ToUpper,
	}
}

func (p *Presenter) loc(val string) string {
	val = strings.ToLower(val)
	if raw, ok := i18nVars[val]; ok {
		return p.localizer.Get(raw)
	}
	return val
}

func (p *Presenter) access(accessible bool) string {
	if accessible {
		return p.loc("accessible")
	}
	return p.loc("notaccessible")
}

func (p *Presenter) unisex(unisex bool) string {
	if unisex {
		return p.loc("unisex")
	}
	return p.loc("gendered")
}

func (p *Presenter) localizedTime(val time.Time) string {
	return p.humanizer.FormatTime(val, humanize.TimeFormat)
}

func (p *Presenter) naturalTime(val time.Time) string {
	return p.humanizer.NaturalTime(val)
}

func (p *Presenter) timeFormat(val time.Time, fmt string) string {
	return val.Format(fmt)
}

// dist formats a distance in meters.
func dist(meters float64) string {
	if meters < 1000 {
		return fmt.Sprintf("%d m", int(math.Round(meters)))
	}
	return fmt.Sprintf("%.1f km", meters/1000)
}

// pad truncates or fills s to exactly width terminal cells.
func pad(s string, width int) string {
	return runewidth.FillRight(runewidth.Truncate(s, width, "…"), width)
}

// cardinal returns the compass arrow and direction for a bearing in degrees.
func cardinal(bearing float64) string {
	idx := int(math.Round(math.Mod(bearing+360, 360)/45)) % len(compassPoints)
	point := compassPoints[idx]
	return compassIcons[point] + " " + point
}
