// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/Xuanwo/go-locale"
	"github.com/vorlif/spreak"
	"golang.org/x/text/language"
)

const catalogDir = "locale"

//go:embed locale/*
var locales embed.FS

// Languages returns the languages gotta-go ships a catalog for. English, the source language,
// is always first.
func Languages() ([]language.Tag, error) {
	entries, err := fs.ReadDir(locales, catalogDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read message catalogs: %w", err)
	}
	tags := []language.Tag{language.English}
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".po" {
			continue
		}
		tag, err := language.Parse(strings.TrimSuffix(entry.Name(), ".po"))
		if err != nil || tag == language.English {
			continue
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

// New returns a localizer for the catalog that matches loc best. An empty loc uses the
// locale of the environment. Without a matching catalog, messages stay English.
func New(loc string) (*spreak.Localizer, error) {
	languages, err := Languages()
	if err != nil {
		return nil, err
	}
	_, idx, conf := language.NewMatcher(languages).Match(resolveTag(loc))
	tag := languages[idx]
	if conf == language.No {
		tag = language.English
	}

	localeFS, err := fs.Sub(locales, catalogDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load locales: %w", err)
	}
	langs := make([]any, 0, len(languages))
	for _, l := range languages {
		langs = append(langs, l)
	}
	bundle, err := spreak.NewBundle(
		spreak.WithSourceLanguage(language.English),
		spreak.WithFallbackLanguage(language.English),
		spreak.WithDomainFs(spreak.NoDomain, localeFS),
		spreak.WithLanguage(langs...),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create i18n bundle: %w", err)
	}
	return spreak.NewLocalizer(bundle, tag), nil
}

// resolveTag turns a BCP 47 tag or a POSIX locale name like "de_DE.UTF-8" into a language tag.
func resolveTag(loc string) language.Tag {
	loc = strings.TrimSpace(loc)
	if idx := strings.IndexAny(loc, ".@"); idx != -1 {
		loc = loc[:idx]
	}
	if loc == "" || loc == "C" || loc == "POSIX" {
		tag, err := locale.Detect()
		if err != nil {
			return language.English
		}
		return tag
	}
	tag, err := language.Parse(strings.ReplaceAll(loc, "_", "-"))
	if err != nil {
		return language.English
	}
	return tag
}
