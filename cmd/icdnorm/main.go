// Copyright 2025 The WordServe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main implements the diagnosis normalizer: batch runner, MessagePack
IPC server and CLI [DBG] application.

icdnorm turns free-text Chinese cause-of-death phrases into dictionary terms.
Each phrase is canonicalized by an ordered rule table, split into terms by
longest-prefix matching over a Patricia trie, and refined into at most four
slots. Results are validated against reference annotations with a fuzzy
comparison that understands synonyms, combination diagnoses and neutral
markers such as 病史.

# Usage

Start the IPC server with default settings:

	icdnorm

Process every month file of a directory and store the results:

	icdnorm -batch /path/to/months -db results.db

Run in CLI mode for interactive testing:

	icdnorm -c -d

Rebuild the term list from curated terms plus annotations:

	icdnorm -generate data/icd.csv -batch /path/to/months

The dictionary directory holds manifest.yaml and the CSV sources it names.

# Configuration

Runtime configuration is read from a TOML file, created with defaults when
missing:

	[dict]
	dir = "data/"
	input_encoding = "utf-8"

	[segment]
	experimental = false
	cache_size = 65536

	[pipeline]
	chain_split = false
	workers = 0

	[output]
	db_path = "results.db"
	json = false

Command line flags override the file.

# IPC Protocol

The server communicates via MessagePack over stdin/stdout:

	{"id": "n1", "p": "肺炎併發敗血症"}
	{"id": "n1", "t": ["肺炎", "敗血症", "", ""], "d": false, "us": 84}

See package server for every message.

# Command Line Flags

	-dict string
	    Dictionary directory (default from config)
	-config string
	    Config file path
	-d  Enable debug mode with detailed logging
	-c  Run CLI mode instead of server mode
	-batch string
	    Directory of month files to process
	-db string
	    Results database (default from config)
	-x  Enable experimental subsequence recovery
	-chain
	    Move causes joined by 導致/引發 into the next category
	-workers int
	    Files processed in parallel (0 for one per CPU)
	-generate string
	    Write a generated term list to this path and exit
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bastiangx/icdnorm/internal/cli"
	"github.com/bastiangx/icdnorm/internal/logger"
	"github.com/bastiangx/icdnorm/internal/utils"
	"github.com/bastiangx/icdnorm/pkg/config"
	"github.com/bastiangx/icdnorm/pkg/server"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

const (
	Version = "0.4.0-beta"
	AppName = "icdnorm"
	gh      = "https://github.com/bastiangx/icdnorm"
)

// sigHandler cancels the context on the first signal and exits on the second.
func sigHandler(cancel context.CancelFunc) {
	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Fprintf(os.Stderr, "\nStopping after the files in flight...\n")
		cancel()
		<-c
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		os.Exit(1)
	}()
}

// main only manages the flow; every mode lives in its own package.
func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigHandler(cancel)

	showVersion := flag.Bool("version", false, "Show current version")
	dictDir := flag.String("dict", "", "Dictionary directory holding manifest.yaml")
	configPath := flag.String("config", "", "Config file path")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	cliMode := flag.Bool("c", false, "Run CLI -- useful for testing and debugging")
	batchDir := flag.String("batch", "", "Directory of month files to process")
	dbPath := flag.String("db", "", "Results database path")
	experimental := flag.Bool("x", false, "Enable experimental subsequence recovery")
	chainSplit := flag.Bool("chain", false, "Move causes joined by 導致/引發 into the next category")
	workers := flag.Int("workers", -1, "Files processed in parallel (0 for one per CPU)")
	generate := flag.String("generate", "", "Write a generated term list to this path and exit")

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

	pathResolver, err := utils.NewPathResolver()
	if err != nil {
		log.Fatalf("Failed to initialize path resolver: %v", err)
	}

	cfg, activeConfig := config.LoadConfigWithPriority(*configPath, pathResolver.GetConfigDir())
	log.Debugf("Using config file: (%s)", config.GetActiveConfigPath(activeConfig))

	// flags win over the file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "dict":
			cfg.Dict.Dir = *dictDir
		case "db":
			cfg.Output.DBPath = *dbPath
		case "x":
			cfg.Segment.Experimental = *experimental
		case "chain":
			cfg.Pipeline.ChainSplit = *chainSplit
		case "workers":
			cfg.Pipeline.Workers = *workers
		}
	})

	resolvedDictDir := pathResolver.GetDataDir(cfg.Dict.Dir)
	log.Debugf("Using dictionary dir at: %s (executable in %s)", resolvedDictDir, pathResolver.GetExecutableDir())

	if *generate != "" {
		if err := runGenerate(resolvedDictDir, *batchDir, *generate, cfg.Dict.InputEncoding); err != nil {
			log.Fatalf("Generate failed: %v", err)
		}
		return
	}

	a, err := newApp(resolvedDictDir, cfg)
	if err != nil {
		log.Fatalf("Failed to load dictionary: %v", err)
	}

	if *batchDir != "" {
		if err := runBatch(ctx, a, cfg, *batchDir); err != nil {
			log.Fatalf("Batch failed: %v", err)
		}
		return
	}

	// CLI would be mainly used for testing and dbg purposes.
	if *cliMode {
		log.SetReportTimestamp(false)
		l := logger.NewWithConfig(os.Stdout, "", log.GetLevel(), false, false, log.TextFormatter)
		handler := cli.NewInputHandler(a.pipeline, os.Stdin, l, cfg.Server.MaxInputLen, cfg.Server.NoFilter)
		if err := handler.Start(); err != nil {
			log.Fatalf("CLI error: %v", err)
		}
		return
	}

	log.Debug("spawning IPC")
	srv := server.NewServer(a.pipeline, a.info())
	showStartupInfo(resolvedDictDir, a)
	if err := srv.Start(); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}

func printVersion() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    false,
		ReportTimestamp: false,
		Prefix:          "",
	})

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	logger.SetStyles(styles)

	logger.Print("")
	logger.Print("[ icdnorm ] Normalizes cause-of-death diagnoses")
	logger.Print("", "version", Version)
	logger.Print("")
	logger.Print("use -h or --help to see available options")
	logger.Print("Github Repo", "gh", gh)
}

// showStartupInfo displays some basic info about the init process on stderr.
func showStartupInfo(dictDir string, a *app) {
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)
	defer log.SetLevel(currentLevel)

	info := a.info()
	log.Infof("%s %s", AppName, Version)
	log.Infof("Process ID: [ %d ]", os.Getpid())
	log.Infof("dictionary: %s@%s ( %s )", info.DictID, info.DictVersion, dictDir)
	log.Infof("terms: %s  rules: %d  experimental: %v", utils.FormatWithCommas(info.Terms), info.Rules, info.Experimental)
	log.Info("status: ready")
}
