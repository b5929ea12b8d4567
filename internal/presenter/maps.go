// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package presenter

import "github.com/vorlif/spreak/localize"

var i18nVars = map[string]localize.MsgID{
	"norestrooms":   "No restrooms found in this area.",
	"accessible":    "Accessible",
	"notaccessible": "Not accessible",
	"unisex":        "Unisex",
	"gendered":      "Gendered",
	"changingtable": "Changing table",
	"directions":    "Directions",
	"comment":       "Comment",
	"updated":       "Updated",
}

var compassPoints = []string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

var compassIcons = map[string]string{
	"N":  "↑",
	"NE": "↗",
	"E":  "→",
	"SE": "↘",
	"S":  "↓",
	"SW": "↙",
	"W":  "←",
	"NW": "↖",
}
