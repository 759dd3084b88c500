// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
)

// Photo is a named photo asset belonging to a character.
type Photo struct {
	Filename string `toml:"filename" json:"filename"`
	Caption  string `toml:"caption,omitempty" json:"caption,omitempty"`
}

// APISettings is a per-character override of the global generation settings.
// Zero-valued fields fall back to the global defaults.
type APISettings struct {
	Provider    string  `toml:"provider,omitempty" json:"provider,omitempty"`
	Model       string  `toml:"model,omitempty" json:"model,omitempty"`
	Temperature float64 `toml:"temperature,omitempty" json:"temperature,omitempty"`
	MaxTokens   int     `toml:"max_tokens,omitempty" json:"max_tokens,omitempty"`
}

// Character is a configured persona. Characters are loaded once at startup
// and treated as immutable for the rest of the session; they are identified
// and looked up by ID everywhere.
type Character struct {
	ID            string      `toml:"id" json:"id"`
	Name          string      `toml:"name" json:"name"`
	PrivatePrompt string      `toml:"private_prompt" json:"private_prompt"`
	GroupPrompt   string      `toml:"group_prompt" json:"group_prompt"`
	Photos        []Photo     `toml:"photos" json:"photos"`
	API           APISettings `toml:"api" json:"api"`
}

// FindPhoto resolves a photo directive token against the character's photo
// assets. Matching is by substring against stored filenames; the first match
// wins. The boolean result is false when no asset matches.
func (c *Character) FindPhoto(token string) (Photo, bool) {
	if token == "" {
		return Photo{}, false
	}
	for _, p := range c.Photos {
		if strings.Contains(p.Filename, token) {
			return p, true
		}
	}
	return Photo{}, false
}
