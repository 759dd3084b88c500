// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes chat transcripts to shareable files. Markdown and
// JSON are supported.
package export

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"github.com/jeranaias/npchat-tui/internal/model"
	"github.com/jeranaias/npchat-tui/internal/util"
)

// Transcript is the export view of one chat.
type Transcript struct {
	ChatID   string
	Title    string
	Kind     string // "private" or "group"
	Messages []model.Message

	// Names maps character ids to display names; unknown senders render
	// as their raw id.
	Names map[string]string
}

// Exporter converts a transcript to one output format.
type Exporter interface {
	Export(tr *Transcript) ([]byte, error)
	FileExtension() string
}

// Options configures export behavior.
type Options struct {
	// OutputDir is where files are written. Default: current directory.
	OutputDir string

	// IncludeTimestamps includes per-message timestamps.
	IncludeTimestamps bool

	// OpenAfterExport opens the file in the default application.
	OpenAfterExport bool
}

// DefaultOptions returns the default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir:         ".",
		IncludeTimestamps: true,
	}
}

// ExportToFile renders the transcript and writes it to a timestamped file
// in the output directory, returning the path.
func ExportToFile(tr *Transcript, e Exporter, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	data, err := e.Export(tr)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	name := fmt.Sprintf("%s_%s%s", tr.ChatID, time.Now().Format("20060102_150405"), e.FileExtension())
	path := filepath.Join(opts.OutputDir, name)
	if err := util.AtomicWriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}

	if opts.OpenAfterExport {
		openFile(path)
	}
	return path, nil
}

// senderName resolves a message sender for display.
func (tr *Transcript) senderName(msg model.Message) string {
	if msg.IsUser() {
		return "User"
	}
	if name, ok := tr.Names[msg.Sender]; ok && name != "" {
		return name
	}
	return msg.Sender
}

// openFile opens the exported file with the platform default handler.
// Failures are ignored; the export itself already succeeded.
func openFile(path string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", "", path)
	default:
		cmd = exec.Command("xdg-open", path)
	}
	_ = cmd.Start()
}
