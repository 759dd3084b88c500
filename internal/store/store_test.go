// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/npchat-tui/internal/config"
	"github.com/jeranaias/npchat-tui/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	base := t.TempDir()
	dirs := []string{"characters", "groups", "chats"}
	for _, d := range dirs {
		require.NoError(t, os.MkdirAll(filepath.Join(base, d), 0755))
	}
	return NewStoreWithDirs(config.Default(),
		filepath.Join(base, "characters"),
		filepath.Join(base, "groups"),
		filepath.Join(base, "chats"))
}

func writeCharacter(t *testing.T, s *Store, body string, dirName string) {
	t.Helper()
	dir := filepath.Join(s.charactersDir, dirName)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, characterFileName), []byte(body), 0644))
}

func TestLoadCharactersSkipsIncomplete(t *testing.T) {
	s := newTestStore(t)
	writeCharacter(t, s, `
id = "alice"
name = "Alice"
private_prompt = "You are Alice."
`, "alice")
	writeCharacter(t, s, `
name = "No ID Here"
`, "broken")

	require.NoError(t, s.Load())

	c, ok := s.Character("alice")
	require.True(t, ok)
	assert.Equal(t, "Alice", c.Name)
	assert.Len(t, s.Characters(), 1)
}

func TestAppendPersistsAndWindows(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Load())

	for i := 0; i < 200; i++ {
		_, err := s.Append("alice", model.NewTextMessage(model.SenderUser, fmt.Sprintf("m%d", i)))
		require.NoError(t, err)
	}

	// In memory: full history, Recent gives the prompt window.
	assert.Len(t, s.Messages("alice"), 200)
	recent := s.Recent("alice", 15)
	require.Len(t, recent, 15)
	assert.Equal(t, "m185", recent[0].Text)
	assert.Equal(t, "m199", recent[14].Text)

	// On disk: only the persistence window survives.
	data, err := os.ReadFile(filepath.Join(s.chatsDir, "alice.json"))
	require.NoError(t, err)
	var file chatFile
	require.NoError(t, json.Unmarshal(data, &file))
	assert.Equal(t, "alice", file.ChatID)
	assert.Equal(t, ChatPrivate, file.ChatType)
	assert.Equal(t, "alice", file.CharacterID)
	require.Len(t, file.Messages, 100)
	assert.Equal(t, "m100", file.Messages[0].Text)
	assert.Equal(t, "m199", file.Messages[99].Text)
}

func TestChatRoundTrip(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Load())

	_, err := s.Append("alice", model.NewTextMessage(model.SenderUser, "hello"))
	require.NoError(t, err)
	_, err = s.Append("alice", model.NewTextMessage("alice", "hi there"))
	require.NoError(t, err)

	reloaded := NewStoreWithDirs(config.Default(), s.charactersDir, s.groupsDir, s.chatsDir)
	require.NoError(t, reloaded.Load())

	msgs := reloaded.Messages("alice")
	require.Len(t, msgs, 2)
	assert.Equal(t, "hello", msgs[0].Text)
	assert.Equal(t, "hi there", msgs[1].Text)
}

func TestLoadMalformedChatFile(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(s.chatsDir, "bad.json"), []byte("{not json"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(s.chatsDir, "empty.json"), nil, 0644))

	require.NoError(t, s.Load())
	assert.Empty(t, s.Messages("bad"))
	assert.Empty(t, s.Messages("empty"))
}

func TestCreateGroup(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Load())

	g, err := s.CreateGroup("Team", []string{"alice", "bob"})
	require.NoError(t, err)
	assert.NotEmpty(t, g.ID)

	// Record written back as TOML.
	_, statErr := os.Stat(filepath.Join(s.groupsDir, g.ID+".toml"))
	require.NoError(t, statErr)

	kind, ok := s.ChatKind(g.ID)
	require.True(t, ok)
	assert.Equal(t, ChatGroup, kind)

	// Survives reload.
	reloaded := NewStoreWithDirs(config.Default(), s.charactersDir, s.groupsDir, s.chatsDir)
	require.NoError(t, reloaded.Load())
	got, ok := reloaded.Group(g.ID)
	require.True(t, ok)
	assert.Equal(t, "Team", got.Name)
	assert.Equal(t, []string{"alice", "bob"}, got.Members)
}

func TestGroupChatKindDerivedFromMembership(t *testing.T) {
	s := newTestStore(t)
	writeCharacter(t, s, `
id = "alice"
name = "Alice"
`, "alice")
	require.NoError(t, s.Load())

	kind, ok := s.ChatKind("alice")
	require.True(t, ok)
	assert.Equal(t, ChatPrivate, kind)

	_, ok = s.ChatKind("nobody")
	assert.False(t, ok)
}

func TestChatLockStableAcrossReload(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Load())

	_, err := s.Append("alice", model.NewTextMessage(model.SenderUser, "hi"))
	require.NoError(t, err)

	before := s.ChatLock("alice")
	require.NoError(t, s.Reload())
	after := s.ChatLock("alice")

	// A worker mid-turn keeps excluding later turns even when a reload
	// rebuilt the chat map underneath it.
	assert.Same(t, before, after)
}
