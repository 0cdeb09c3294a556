// Copyright 2025 The WordCore Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main implements the wordcore server and commandline interface.

WordCore is an on-device word prediction and spell checking core for soft
keyboards. It ranks completions and corrections from layered text
dictionaries using a grapheme-level fuzzy search with keyboard proximity
and n-gram frequencies. It can operate as a MessagePack IPC server for
host integrations or as a standalone CLI for interactive testing.

# Server Mode

The server reads msgpack requests from stdin and answers on stdout. Each
request selects an op (suggest, spell, train) and carries the current
word, the preceding history and the packed request flags.

# CLI Mode

The CLI provides an interactive shell for debugging and testing the
prediction engine's behavior on whole sentences.

# Session Files

A session JSON file names the primary locale, the base dictionary files,
the user dictionary path, the prediction weights and the key proximity
map. Base dictionaries are read-only; the user dictionary receives
training updates and is persisted on exit.

# Config

Runtime configuration is managed via a `config.toml` file with server and
CLI sections. Server mode reads it and creates a default one if none
exists. CLI mode does not read the file: its flag defaults come from the
built-in defaults.
*/
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/bastiangx/wordcore/internal/cli"
	"github.com/bastiangx/wordcore/internal/logger"
	"github.com/bastiangx/wordcore/pkg/config"
	"github.com/bastiangx/wordcore/pkg/server"
	"github.com/bastiangx/wordcore/pkg/session"
	"github.com/bastiangx/wordcore/pkg/suggest"
)

const (
	Version = "0.1.0-beta"
	AppName = "wordcore"
	gh      = "https://github.com/bastiangx/wordcore"
)

// sigHandler is a simple handler for OS signals to exit normally, after
// persisting the user dictionary.
func sigHandler(sess *session.Session) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		if sess != nil {
			if err := sess.PersistUserDictionary(); err != nil {
				log.Errorf("persisting user dictionary: %v", err)
			}
		}
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		os.Exit(0)
	}()
}

// main calls other packages to initialize the server or CLI inputs.
// main() does not implement logic for them and only manages the flow.
func main() {
	defaultConfig := config.DefaultConfig()

	showVersion := flag.Bool("version", false, "Show current version")
	configFile := flag.String("config", "config.toml", "Path to custom config.toml file")
	sessionFile := flag.String("session", "", "Path to the session JSON file")
	debugMode := flag.Bool("v", false, "Toggle verbose mode")
	cliMode := flag.Bool("c", false, "Run CLI -- useful for testing and debugging")
	spellMode := flag.Bool("spell", false, "CLI checks spelling instead of suggesting")
	limit := flag.Int("limit", defaultConfig.CLI.DefaultLimit, "Number of suggestions to return")
	ngramLevel := flag.Int("ngrams", defaultConfig.CLI.DefaultNgramLevel, "Highest n-gram order used for history (0/1 disables)")
	pooled := flag.Bool("pooled", false, "Use pooled cross-dictionary frequencies instead of the mean")

	flag.Parse()

	if *showVersion {
		logger := log.NewWithOptions(os.Stderr, log.Options{
			ReportCaller:    false,
			ReportTimestamp: false,
			Prefix:          "",
		})

		styles := log.DefaultStyles()

		styles.Values["version"] = lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
		styles.Values["version"] = lipgloss.NewStyle().
			Background(lipgloss.AdaptiveColor{Light: "#f2e9e1", Dark: "#26233a"})

		styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})

		logger.SetStyles(styles)

		logger.Print("")
		logger.Print("[WordCore] On-device word prediction and spell checking!")
		logger.Print("", "version", Version)
		logger.Print("")
		logger.Print("use --help to see available options")
		logger.Print("")
		logger.Print("Find out more at", "gh", gh)

		os.Exit(0)
	}

	if *debugMode {
		log.SetLevel(log.DebugLevel)
		log.SetReportTimestamp(true)
	} else {
		log.SetLevel(log.WarnLevel)
	}

	sessionConfig := config.DefaultSessionConfig()
	if *sessionFile != "" {
		var err error
		sessionConfig, err = config.LoadSessionConfig(*sessionFile)
		if err != nil {
			log.Fatalf("Failed to load session config: %v", err)
			os.Exit(1)
		}
		log.Debugf("Using session file: %s", *sessionFile)
	} else {
		log.Warn("No session file specified, running with an empty user dictionary...")
	}

	sess, err := session.New(sessionConfig)
	if err != nil {
		log.Fatalf("Failed to init session: %v", err)
		os.Exit(1)
	}
	if *pooled {
		sess.SetFrequencyMode(suggest.FrequencyPooled)
	}
	log.Debug("Session init done")
	sigHandler(sess)

	// CLI would be mainly used for testing and dbg purposes.
	// Any new features or changes should be tested in CLI mode first.
	if *cliMode {
		log.SetReportTimestamp(false)
		log.Debug("Input info:",
			"limit", *limit,
			"ngramLevel", *ngramLevel,
			"spellMode", *spellMode)

		inputHandler := cli.NewInputHandler(sess, *limit, *ngramLevel, *spellMode)
		if err := inputHandler.Start(); err != nil {
			log.Fatalf("CLI error: %v", err)
			os.Exit(1)
		}
		return
	}

	log.Debug("spawning IPC")

	appConfig, err := config.InitConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
		os.Exit(1)
	}
	log.Debugf("Using config file: %s", *configFile)
	srv := server.NewServer(sess, appConfig, *configFile)

	showStartupInfo(*sessionFile, sess)

	if err := srv.Start(); err != nil {
		log.Fatalf("Failed to start server: %v", err)
		os.Exit(1)
	}
	if err := sess.PersistUserDictionary(); err != nil {
		log.Errorf("persisting user dictionary: %v", err)
	}
}

// showStartupInfo displays some basic info about the init process.
func showStartupInfo(sessionFile string, sess *session.Session) {
	banner := logger.Banner()

	println("==========")
	println(" WordCore ")
	println("==========")
	banner.Infof("Version: %s", Version)
	banner.Infof("Process ID: [ %d ]", os.Getpid())
	banner.Info("init: OK")
	banner.Infof("session: ( %s )", sessionFile)
	for key, value := range sess.Stats() {
		banner.Infof("%s: %d", key, value)
	}
	banner.Info("status: ready")
	println("==========")
	println("Press Ctrl+C to exit")
}
