// npchat TUI - a terminal messenger for chatting with LLM personas.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/npchat-tui/internal/archive"
	"github.com/jeranaias/npchat-tui/internal/config"
	"github.com/jeranaias/npchat-tui/internal/orchestrator"
	"github.com/jeranaias/npchat-tui/internal/provider"
	"github.com/jeranaias/npchat-tui/internal/store"
	"github.com/jeranaias/npchat-tui/internal/ui"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("npchat %s (%s, built %s)\n", Version, GitCommit, BuildDate)
		return
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "npchat: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.EnsureDirs(); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	// All logging goes to a file; stdout belongs to the TUI.
	logPath, err := config.LogPath()
	if err != nil {
		return err
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	log.SetOutput(logFile)
	log.Printf("npchat %s starting", Version)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	st, err := store.NewStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	if err := st.Load(); err != nil {
		return fmt.Errorf("load store: %w", err)
	}

	archivePath, err := config.ArchivePath()
	if err != nil {
		return err
	}
	arc, err := archive.Open(archivePath)
	if err != nil {
		// The archive is an extra; the app works without it.
		log.Printf("archive unavailable: %v", err)
		arc = nil
	}
	defer arc.Close()

	dispatcher := provider.NewDispatcher(cfg)
	orch := orchestrator.New(cfg, st, dispatcher, arc)

	// Live-reload the provider registry when the config file changes.
	configPath, err := config.ConfigPath()
	if err != nil {
		return err
	}
	watcher, err := config.NewWatcher(configPath, 500*time.Millisecond, func(next *config.Config) {
		cfg.Adopt(next)
		log.Printf("config reloaded: %d providers", len(next.Providers))
	})
	if err != nil {
		log.Printf("config watch unavailable: %v", err)
	} else {
		if err := watcher.Watch(); err != nil {
			log.Printf("config watch failed: %v", err)
		}
		defer watcher.Close()
	}

	app := ui.NewApp(cfg, st, orch, arc)
	program := tea.NewProgram(app, tea.WithAltScreen())

	_, runErr := program.Run()

	orch.Shutdown()
	log.Printf("npchat exiting")
	return runErr
}
