// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/npchat-tui/internal/model"
	"github.com/jeranaias/npchat-tui/internal/util"
)

// characterFileName is the record file expected inside each persona
// directory.
const characterFileName = "character.toml"

// loadCharacters scans dir for persona directories, each holding a
// character.toml. Records missing an id or name are skipped with a
// warning so one bad persona never blocks the rest.
func loadCharacters(dir string) map[string]*model.Character {
	characters := map[string]*model.Character{}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("store: cannot read characters dir %s: %v", dir, err)
		}
		return characters
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name(), characterFileName)

		var c model.Character
		if _, err := toml.DecodeFile(path, &c); err != nil {
			if !os.IsNotExist(err) {
				log.Printf("store: skipping persona %s: %v", entry.Name(), err)
			}
			continue
		}
		if c.ID == "" || c.Name == "" {
			log.Printf("store: skipping persona %s: missing id or name", entry.Name())
			continue
		}
		characters[c.ID] = &c
	}
	return characters
}

// loadGroups reads every group TOML record in dir.
func loadGroups(dir string) map[string]*model.Group {
	groups := map[string]*model.Group{}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("store: cannot read groups dir %s: %v", dir, err)
		}
		return groups
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".toml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())

		var g model.Group
		if _, err := toml.DecodeFile(path, &g); err != nil {
			log.Printf("store: skipping group %s: %v", entry.Name(), err)
			continue
		}
		if g.ID == "" {
			g.ID = strings.TrimSuffix(entry.Name(), ".toml")
		}
		groups[g.ID] = &g
	}
	return groups
}

// writeTOML encodes v and writes it atomically.
func writeTOML(path string, v any) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(v); err != nil {
		return err
	}
	return util.AtomicWriteFile(path, buf.Bytes(), 0644)
}
