/*
Package main implements the dictx command: build, inspect and query
common-substring search databases.

dictx indexes every sufficiently long suffix of each dictionary word in a
double-array trie, so a query can retrieve all words sharing a substring of
a requested minimum length with it. Databases are built once from a
tab-separated dictionary file and loaded for repeated lookup.

# Usage

Build a database and drop into the interactive prompt:

	dictx -dict words.tsv -db words.db -c

Load an existing database and serve msgpack IPC over stdin/stdout:

	dictx -db words.db

Queries in CLI mode are one line each:

	youthe 4 0 20 10

meaning word, min common length, min/max dictionary word length and result
limit; omitted numbers keep the configured defaults.

# Configuration

A TOML file (auto-created with defaults) sets the build parameters and the
default query bounds:

	[engine]
	suffix_ratio = 0.5
	min_suffix = 2

	[search]
	min_common_len = 4
	max_dword_len = 8
	limit = 1000
	average_limit = true

The char_table entry restricts which bytes subtree enumeration tries,
which speeds up traversal on known-alphabet dictionaries.
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

	"github.com/solrex/dictx/internal/cli"
	"github.com/solrex/dictx/pkg/config"
	"github.com/solrex/dictx/pkg/server"
	"github.com/solrex/dictx/pkg/substr"
)

const (
	Version = "0.3.0"
	AppName = "dictx"
	gh      = "https://github.com/solrex/dictx"
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

// main wires config, engine and the chosen front-end; the packages do the
// actual work.
func main() {
	sigHandler()

	showVersion := flag.Bool("version", false, "Show current version")
	dictPath := flag.String("dict", "", "Dictionary file (TSV) to build a database from")
	dbPath := flag.String("db", "", "Database file to write (with -dict) or to load")
	cliMode := flag.Bool("c", false, "Run the interactive CLI instead of the IPC server")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	configPath := flag.String("config", "dictx.toml", "Config file path")

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

	cfg, err := config.InitConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	engine, err := substr.New(cfg.Engine.SuffixRatio, cfg.Engine.MinSuffix)
	if err != nil {
		log.Fatalf("Bad engine config: %v", err)
	}
	if cfg.Engine.CharTable != "" {
		// The NUL edge must stay visible for prefix-covered suffixes.
		table := append([]byte{0}, []byte(cfg.Engine.CharTable)...)
		if err := engine.SetCharTable(table); err != nil {
			log.Fatalf("Bad char table: %v", err)
		}
	}

	switch {
	case *dictPath != "":
		start := time.Now()
		if err := engine.Build(*dictPath, *dbPath); err != nil {
			log.Fatalf("Build failed: %v", err)
		}
		log.Infof("Built DB from '%s' in %v", *dictPath, time.Since(start))
	case *dbPath != "":
		start := time.Now()
		n, err := engine.Read(*dbPath)
		if err != nil {
			log.Fatalf("Read DB from '%s' failed: %v", *dbPath, err)
		}
		log.Infof("Read DB from '%s' (%d bytes) in %v", *dbPath, n, time.Since(start))
	default:
		flag.Usage()
		os.Exit(2)
	}

	if *cliMode {
		log.SetReportTimestamp(false)
		handler := cli.NewInputHandler(engine, cfg.Search)
		if err := handler.Start(); err != nil {
			log.Fatalf("CLI error: %v", err)
		}
		return
	}

	srv := server.NewServer(engine, cfg)
	if err := srv.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// printVersion displays version info with a bit of styling.
func printVersion() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    false,
		ReportTimestamp: false,
	})

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	logger.SetStyles(styles)

	logger.Print("")
	logger.Printf("[ %s ] Common substring dictionary search", AppName)
	logger.Print("", "version", Version)
	logger.Print("use -h or --help to see available options")
	logger.Print("Github Repo", "gh", gh)
}
