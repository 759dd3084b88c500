// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for npchat.
//
// All configuration lives in a single TOML file with per-provider tables,
// plus environment variable overrides. Characters, groups, and chat
// histories live in sibling directories under the same data dir.
//
// Layout:
//   - ~/.npchat/config.toml     provider registry + generation settings
//   - ~/.npchat/characters/     one directory per character
//   - ~/.npchat/groups/         one TOML file per group
//   - ~/.npchat/chats/          one JSON file per chat
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/npchat-tui/internal/util"
)

// =============================================================================
// TRANSPORT VARIANTS
// =============================================================================

// Transport selects how a provider is called. The variant is fixed per
// provider at load time; the dispatcher switches on it exactly once instead
// of string-matching provider names per request.
type Transport string

const (
	// TransportChat is the generic OpenAI-compatible HTTP JSON transport:
	// POST {model, messages, max_tokens, temperature, stream:false} with a
	// Bearer credential, response in choices[0].message.content.
	TransportChat Transport = "chat"

	// TransportSDK is the message-oriented native SDK transport.
	TransportSDK Transport = "sdk"

	// TransportGenerate is the generation-oriented HTTP transport: a single
	// prompt in, a single response text out.
	TransportGenerate Transport = "generate"
)

// Valid reports whether t names a known transport variant.
func (t Transport) Valid() bool {
	switch t {
	case TransportChat, TransportSDK, TransportGenerate:
		return true
	}
	return false
}

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Provider holds the connection parameters for one named LLM backend.
type Provider struct {
	// Name is the registry key; filled from the table name on load.
	Name string `toml:"-"`

	// Transport selects the call mechanism (chat, sdk, generate).
	Transport Transport `toml:"transport"`

	// APIURL is the endpoint URL. Required for chat and generate
	// transports; for sdk it overrides the SDK's default base URL.
	APIURL string `toml:"api"`

	// Key is the API credential.
	Key string `toml:"key"`

	// Models lists the selectable model identifiers.
	Models []string `toml:"models"`

	// SelectedModel is the model last chosen in the settings panel.
	SelectedModel string `toml:"selected_model"`
}

// HasModel reports whether id is in the provider's model list.
func (p *Provider) HasModel(id string) bool {
	for _, m := range p.Models {
		if m == id {
			return true
		}
	}
	return false
}

// Generation holds the global generation settings. Characters may carry a
// per-persona override; zero-valued override fields fall back to these.
type Generation struct {
	Provider    string  `toml:"provider"`
	Model       string  `toml:"model"`
	Temperature float64 `toml:"temperature"`
	MaxTokens   int     `toml:"max_tokens"`
}

// History holds the bounded-window settings for prompt construction and
// persistence, and the group pacing delay.
type History struct {
	// PromptWindow is how many recent messages go into a prompt.
	PromptWindow int `toml:"prompt_window"`

	// PersistWindow is how many recent messages are written to disk.
	PersistWindow int `toml:"persist_window"`

	// PacingSeconds is the inter-member delay during group turns.
	PacingSeconds int `toml:"pacing_seconds"`
}

// Config is the complete npchat configuration. The mutex covers the
// provider registry and generation settings, which the file watcher can
// replace while dispatch workers read them.
type Config struct {
	Version    string               `toml:"version"`
	Generation Generation           `toml:"generation"`
	History    History              `toml:"history"`
	Providers  map[string]*Provider `toml:"providers"`

	mu sync.RWMutex
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns a Config with sensible defaults and an empty provider
// registry. Every dispatch against an empty registry fails with an unknown
// provider error; the app itself stays usable.
func Default() *Config {
	return &Config{
		Version: "1.0.0",
		Generation: Generation{
			Temperature: 0.7,
			MaxTokens:   300,
		},
		History: History{
			PromptWindow:  15,
			PersistWindow: 100,
			PacingSeconds: 1,
		},
		Providers: map[string]*Provider{},
	}
}

// fillDefaults fills in any missing values with defaults.
func fillDefaults(cfg *Config) {
	defaults := Default()

	if cfg.Version == "" {
		cfg.Version = defaults.Version
	}
	if cfg.Generation.Temperature == 0 {
		cfg.Generation.Temperature = defaults.Generation.Temperature
	}
	if cfg.Generation.MaxTokens == 0 {
		cfg.Generation.MaxTokens = defaults.Generation.MaxTokens
	}
	if cfg.History.PromptWindow == 0 {
		cfg.History.PromptWindow = defaults.History.PromptWindow
	}
	if cfg.History.PersistWindow == 0 {
		cfg.History.PersistWindow = defaults.History.PersistWindow
	}
	if cfg.History.PacingSeconds == 0 {
		cfg.History.PacingSeconds = defaults.History.PacingSeconds
	}
	if cfg.Providers == nil {
		cfg.Providers = map[string]*Provider{}
	}
	for name, p := range cfg.Providers {
		p.Name = name
		if p.Transport == "" {
			p.Transport = TransportChat
		}
	}
}

// =============================================================================
// PATH HELPERS
// =============================================================================

// DataDir returns the npchat data directory. NPCHAT_HOME overrides the
// default ~/.npchat, which keeps tests and portable installs simple.
func DataDir() (string, error) {
	if dir := os.Getenv("NPCHAT_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".npchat"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// CharactersDir returns the character definitions directory.
func CharactersDir() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "characters"), nil
}

// GroupsDir returns the group definitions directory.
func GroupsDir() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "groups"), nil
}

// ChatsDir returns the chat history directory.
func ChatsDir() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "chats"), nil
}

// ArchivePath returns the path of the SQLite message archive.
func ArchivePath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "archive.db"), nil
}

// LogPath returns the path of the application log file.
func LogPath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "npchat.log"), nil
}

// EnsureDirs creates the data directories if they do not exist.
func EnsureDirs() error {
	for _, fn := range []func() (string, error){DataDir, CharactersDir, GroupsDir, ChatsDir} {
		dir, err := fn()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD / SAVE
// =============================================================================

// Load loads the configuration from the default config path. A missing file
// is not an error: the defaults (with an empty provider registry) are
// returned, so the client runs without any configuration present.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific TOML file, applying env
// overrides, defaults, and validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
		}
	}

	cfg.ApplyEnvOverrides()
	fillDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration back to the default config path atomically.
// Config files hold API keys, so the file is written 0600.
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the configuration to a specific path.
func (c *Config) SaveTo(path string) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return util.AtomicWriteFile(path, buf.Bytes(), 0600)
}

// =============================================================================
// ENV OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides:
//
//	NPCHAT_PROVIDER      default generation provider
//	NPCHAT_MODEL         default generation model
//	NPCHAT_<NAME>_KEY    credential for the provider <name>
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("NPCHAT_PROVIDER"); v != "" {
		c.Generation.Provider = v
	}
	if v := os.Getenv("NPCHAT_MODEL"); v != "" {
		c.Generation.Model = v
	}
	for name, p := range c.Providers {
		envName := "NPCHAT_" + strings.ToUpper(name) + "_KEY"
		if v := os.Getenv(envName); v != "" {
			p.Key = v
		}
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks value ranges and transport variants.
func (c *Config) Validate() error {
	if c.Generation.Temperature < 0 || c.Generation.Temperature > 2 {
		return fmt.Errorf("generation.temperature %v out of range [0, 2]", c.Generation.Temperature)
	}
	if c.Generation.MaxTokens < 0 {
		return fmt.Errorf("generation.max_tokens %d must not be negative", c.Generation.MaxTokens)
	}
	if c.History.PromptWindow < 1 {
		return fmt.Errorf("history.prompt_window %d must be at least 1", c.History.PromptWindow)
	}
	if c.History.PersistWindow < 1 {
		return fmt.Errorf("history.persist_window %d must be at least 1", c.History.PersistWindow)
	}
	for name, p := range c.Providers {
		if !p.Transport.Valid() {
			return fmt.Errorf("provider %s: unknown transport %q", name, p.Transport)
		}
	}
	return nil
}

// =============================================================================
// REGISTRY LOOKUP
// =============================================================================

// Provider looks up a provider by name. The boolean result is false when
// the provider is not registered.
func (c *Config) Provider(name string) (*Provider, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.Providers[name]
	return p, ok
}

// ProviderNames returns the registered provider names, sorted for stable
// display in the settings panel.
func (c *Config) ProviderNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.Providers))
	for name := range c.Providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GenerationSettings returns a snapshot of the global generation
// settings, safe against concurrent reloads.
func (c *Config) GenerationSettings() Generation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Generation
}

// Adopt replaces the registry and generation settings with those from a
// freshly loaded config. Called by the file watcher.
func (c *Config) Adopt(next *Config) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Version = next.Version
	c.Generation = next.Generation
	c.History = next.History
	c.Providers = next.Providers
}
