// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 0.7, cfg.Generation.Temperature)
	assert.Equal(t, 300, cfg.Generation.MaxTokens)
	assert.Equal(t, 15, cfg.History.PromptWindow)
	assert.Equal(t, 100, cfg.History.PersistWindow)
	assert.Empty(t, cfg.Providers)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)

	// No providers registered; the app still runs.
	assert.Empty(t, cfg.Providers)
	assert.Equal(t, 15, cfg.History.PromptWindow)
}

func TestLoadFromPath_Providers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
version = "1.0.0"

[generation]
provider = "openrouter"
model = "anthropic/claude-3.5-sonnet"
temperature = 0.9
max_tokens = 250

[providers.openrouter]
transport = "chat"
api = "https://openrouter.ai/api/v1/chat/completions"
key = "sk-or-test"
models = ["anthropic/claude-3.5-sonnet", "openai/gpt-4o"]
selected_model = "anthropic/claude-3.5-sonnet"

[providers.deepseek]
transport = "sdk"
api = "https://api.deepseek.com"
key = "sk-ds-test"
models = ["deepseek-chat"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	or, ok := cfg.Provider("openrouter")
	require.True(t, ok)
	assert.Equal(t, "openrouter", or.Name)
	assert.Equal(t, TransportChat, or.Transport)
	assert.True(t, or.HasModel("openai/gpt-4o"))
	assert.False(t, or.HasModel("mistral-7b"))

	ds, ok := cfg.Provider("deepseek")
	require.True(t, ok)
	assert.Equal(t, TransportSDK, ds.Transport)

	_, ok = cfg.Provider("nope")
	assert.False(t, ok)

	assert.Equal(t, []string{"deepseek", "openrouter"}, cfg.ProviderNames())
}

func TestLoadFromPath_TransportDefaultsToChat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[providers.chutes]
api = "https://llm.chutes.ai/v1/chat/completions"
key = "k"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	p, ok := cfg.Provider("chutes")
	require.True(t, ok)
	assert.Equal(t, TransportChat, p.Transport)
}

func TestLoadFromPath_InvalidTransport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[providers.bad]
transport = "carrier-pigeon"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	_, err := LoadFromPath(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("NPCHAT_PROVIDER", "deepseek")
	t.Setenv("NPCHAT_MODEL", "deepseek-chat")
	t.Setenv("NPCHAT_OPENROUTER_KEY", "sk-or-env")

	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[generation]
provider = "openrouter"

[providers.openrouter]
transport = "chat"
api = "https://openrouter.ai/api/v1/chat/completions"
key = "sk-or-file"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, "deepseek", cfg.Generation.Provider)
	assert.Equal(t, "deepseek-chat", cfg.Generation.Model)
	p, _ := cfg.Provider("openrouter")
	assert.Equal(t, "sk-or-env", p.Key)
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.Generation.Provider = "openrouter"
	cfg.Providers["openrouter"] = &Provider{
		Transport:     TransportChat,
		APIURL:        "https://openrouter.ai/api/v1/chat/completions",
		Key:           "sk-or-roundtrip",
		Models:        []string{"openai/gpt-4o"},
		SelectedModel: "openai/gpt-4o",
	}

	require.NoError(t, cfg.SaveTo(path))

	// Key material: the saved file must be owner-only.
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)

	p, ok := loaded.Provider("openrouter")
	require.True(t, ok)
	assert.Equal(t, "sk-or-roundtrip", p.Key)
	assert.Equal(t, "openai/gpt-4o", p.SelectedModel)
}

func TestDataDirHonorsEnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("NPCHAT_HOME", dir)

	got, err := DataDir()
	require.NoError(t, err)
	assert.Equal(t, dir, got)

	chats, err := ChatsDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "chats"), chats)
}
