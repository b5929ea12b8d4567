// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

//go:build linux

// Package main implements the gotta-go restroom finder.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/wneessen/gotta-go/internal/config"
	"github.com/wneessen/gotta-go/internal/i18n"
	"github.com/wneessen/gotta-go/internal/logger"
	"github.com/wneessen/gotta-go/internal/service"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGABRT, os.Interrupt)
	defer cancel()

	// Initialize Logger
	log := logger.NewLogger(slog.LevelError, os.Stderr)

	confRead := false
	confPath := flag.String("config", "", "path to the config file")
	logout := flag.Bool("logout", false, "remove the stored login and exit")
	flag.Parse()

	// Read default config
	conf, err := config.New()
	if err != nil {
		log.Error("failed to load config", logger.Err(err))
		os.Exit(1)
	}

	// If config file was specified, read it
	if *confPath != "" {
		conf, err = config.NewFromFile(filepath.Dir(*confPath), filepath.Base(*confPath))
		if err != nil {
			log.Error("failed to load config from file", logger.Err(err))
			os.Exit(1)
		}
		confRead = true
	}

	// Check if we have a config file in the default location
	if path, file := findConfigFile(); !confRead && (path != "" && file != "") {
		conf, err = config.NewFromFile(path, file)
		if err != nil {
			log.Error("failed to load config from file", logger.Err(err))
			os.Exit(1)
		}
	}

	log = logger.NewLogger(conf.LogLevel, os.Stderr)
	t, err := i18n.New(conf.Locale)
	if err != nil {
		log.Error("failed to initialize localizer", logger.Err(err))
		os.Exit(1)
	}

	serv, err := service.New(conf, log, t)
	if err != nil {
		log.Error("failed to initialize gotta-go", logger.Err(err))
		os.Exit(1)
	}

	if *logout {
		err = serv.Logout(ctx)
		if closeErr := serv.Close(); closeErr != nil {
			log.Error("failed to close session storage", logger.Err(closeErr))
		}
		if err != nil {
			log.Error("failed to log out", logger.Err(err))
			os.Exit(1)
		}
		return
	}

	log.Info(t.Get("starting gotta-go"), slog.String("version", version),
		slog.String("commit", commit), slog.String("date", date))
	if err = serv.Run(ctx); err != nil {
		log.Error(t.Get("gotta-go stopped with an error"), logger.Err(err))
		cancel()
		os.Exit(1)
	}
	log.Info(t.Get("shutting down gotta-go"))
}

func findConfigFile() (string, string) {
	homedir, err := os.UserHomeDir()
	if err != nil {
		return "", ""
	}
	exts := []string{"toml", "yaml", "yml", "json"}
	for _, ext := range exts {
		path := filepath.Join(homedir, ".config", "gotta-go", "config."+ext)
		if _, err = os.Stat(path); err == nil {
			return filepath.Dir(path), filepath.Base(path)
		}
	}
	return "", ""
}
