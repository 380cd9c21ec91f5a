// Copyright 2025 The PlaceServe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main implements the place-search server and CLI [DBG] application.

PlaceServe powers the location typeahead of a transfer-booking form: it loads
a bilingual gazetteer of cities, airports and railway stations, matches
partial queries against either language, and enforces the form's selection
rules (pickup before destination, no identical pickup and destination). It
can operate as a MessagePack IPC server for integration with the widget host,
or as a CLI application for testing and debugging.

# Usage

Start the server with default settings:

	placeserve

Use a custom gazetteer file and enable debug mode:

	placeserve -data /path/to/places.toml -d

Run in CLI mode for interactive testing:

	placeserve -c -lang ru -limit 10

# Configuration

Runtime configuration is managed through a TOML file with search caps, the
active UI language, and the routing endpoint:

	[search]
	max_results = 50
	min_query_len = 2

	[locale]
	language = "en"

	[routing]
	endpoint = "https://router.project-osrm.org"
	timeout_ms = 10000

The config file is automatically created with defaults if it doesn't exist.

# IPC Protocol

The server communicates via MessagePack over stdin/stdout. Search requests
are processed synchronously with microsecond timing information included in
responses.

Send a search request:

	{"id": "req1", "op": "search", "q": "gen", "f": "from"}

Commit a selection and let the guard validate it:

	{"id": "sel1", "op": "select", "f": "to", "en": "Zurich", "cat": "city"}

See the server package docs for the full message catalogue.

# Search Engine

The core matching lives in the search package: score tiers decide which
places a query includes, a shared category-then-alphabetical policy decides
display order, and the canonical candidate lists are indexed with Patricia
tries so the prefix tiers avoid full scans.

	policy := search.NewPolicy("en")
	matcher := search.NewMatcher(policy, 50)
	matcher.Register(data.From)
	results := matcher.Search("gen", data.From, false)

# Command Line Flags

The following flags control application behavior:

	-data string
	    Path to the gazetteer TOML file (default "data/places.toml")
	-config string
	    Path to a custom config file
	-lang string
	    UI language, "en" or "ru" (overrides config)
	-d  Enable debug mode with detailed logging
	-c  Run in CLI mode instead of server mode
	-limit int
	    Number of results to print in CLI mode
	-field string
	    Field the CLI starts on, "from" or "to"
*/
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/alpenroute/placeserve/internal/cli"
	"github.com/alpenroute/placeserve/internal/logger"
	"github.com/alpenroute/placeserve/pkg/config"
	"github.com/alpenroute/placeserve/pkg/gazetteer"
	"github.com/alpenroute/placeserve/pkg/routing"
	"github.com/alpenroute/placeserve/pkg/search"
	"github.com/alpenroute/placeserve/pkg/server"
)

const (
	Version = "0.3.0"
	AppName = "placeserve"
)

// sigHandler is a simple handler for OS signals to exit normally.
func sigHandler() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		os.Exit(0)
	}()
}

// main wires the gazetteer, matcher and transport together.
// main() does not implement logic for them and only manages the flow.
func main() {
	sigHandler()
	defaultConfig := config.DefaultConfig()

	showVersion := flag.Bool("version", false, "Show current version")
	dataPath := flag.String("data", "data/places.toml", "Path to the gazetteer TOML file")
	configPath := flag.String("config", "", "Path to a custom config file")
	lang := flag.String("lang", "", "UI language, en or ru (overrides config)")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	cliMode := flag.Bool("c", false, "Run CLI -- useful for testing and debugging")
	limit := flag.Int("limit", defaultConfig.CLI.DefaultLimit, "Number of results to print in CLI mode")
	field := flag.String("field", defaultConfig.CLI.DefaultField, "Field the CLI starts on, from or to")

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if *debugMode {
		log.SetLevel(log.DebugLevel)
		log.SetReportTimestamp(true)
	} else {
		log.SetLevel(log.WarnLevel)
	}

	appConfig, activePath, err := config.LoadConfigWithPriority(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Debugf("Active config: %s", config.GetActiveConfigPath(activePath))

	if *lang != "" {
		appConfig.Locale.Language = *lang
	}

	data, err := gazetteer.Load(*dataPath)
	if err != nil {
		log.Fatalf("Failed to load gazetteer: %v", err)
	}
	if len(data.From)+len(data.To) == 0 {
		log.Warn("Gazetteer is empty, all searches will return nothing")
	}

	policy := search.NewPolicy(appConfig.Locale.Language)
	matcher := search.NewMatcher(policy, appConfig.Search.MaxResults)
	matcher.SetQueryLimits(appConfig.Search.MinQueryLen, appConfig.Search.MaxQueryLen)
	matcher.Register(data.From)
	matcher.Register(data.To)

	if *cliMode {
		log.SetReportTimestamp(false)
		inputHandler := cli.NewInputHandler(matcher, data, *field, *limit)
		if err := inputHandler.Start(); err != nil {
			log.Fatalf("CLI error: %v", err)
		}
		return
	}

	router := routing.NewClient(appConfig.Routing.Endpoint, time.Duration(appConfig.Routing.TimeoutMS)*time.Millisecond)
	srv := server.NewServer(matcher, data, router)

	showStartupInfo(*dataPath, len(data.From), len(data.To))

	if err := srv.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// printVersion displays the version banner with lipgloss styling.
func printVersion() {
	banner := logger.NewWithConfig("", log.InfoLevel, false, false, log.TextFormatter)

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	banner.SetStyles(styles)

	banner.Print("")
	banner.Print("[ PlaceServe ] Bilingual place search for the booking form")
	banner.Print("", "version", Version)
	banner.Print("")
	banner.Print("use -h or --help to see available options")
}

// showStartupInfo displays some basic info about the init process.
func showStartupInfo(dataPath string, fromCount, toCount int) {
	pid := os.Getpid()
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)

	log.Infof("Version: %s", Version)
	log.Infof("Process ID: [ %d ]", pid)
	log.Infof("gazetteer: ( %s ) %d from, %d to", dataPath, fromCount, toCount)
	log.Info("status: ready")

	log.SetLevel(currentLevel)
}
