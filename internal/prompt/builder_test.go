// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package prompt

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/npchat-tui/internal/model"
)

var testNames = map[string]string{
	"alice": "Alice",
	"bob":   "Bob",
}

func TestBuildPrivate(t *testing.T) {
	persona := &model.Character{
		ID:            "alice",
		Name:          "Alice",
		PrivatePrompt: "You are Alice, a cheerful engineer.",
	}
	history := []model.Message{
		model.NewTextMessage(model.SenderUser, "hi Alice"),
		model.NewTextMessage("alice", "hey!"),
	}

	got, err := NewBuilder().Build(persona, nil, history, testNames)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(got, "You are Alice, a cheerful engineer.\n\nConversation history:\n"))
	assert.Contains(t, got, "User: hi Alice\n")
	assert.Contains(t, got, "Alice: hey!\n")
	assert.True(t, strings.HasSuffix(got, "Respond to the last message naturally and in character."))
}

func TestBuildGroupSubstitution(t *testing.T) {
	persona := &model.Character{
		ID:          "alice",
		Name:        "Alice",
		GroupPrompt: "Chat: {group_name} with {members}.",
	}
	group := &model.Group{
		Name:    "Team",
		Members: []string{"alice", "bob"},
	}

	got, err := NewBuilder().Build(persona, group, nil, testNames)
	require.NoError(t, err)
	assert.Contains(t, got, "Chat: Team with Alice, Bob.")
}

func TestBuildGroupUnknownMemberFallsBackToID(t *testing.T) {
	persona := &model.Character{GroupPrompt: "Members: {members}"}
	group := &model.Group{Name: "Team", Members: []string{"alice", "ghost"}}

	got, err := NewBuilder().Build(persona, group, nil, testNames)
	require.NoError(t, err)
	assert.Contains(t, got, "Members: Alice, ghost")
}

func TestBuildGroupUnknownPlaceholder(t *testing.T) {
	persona := &model.Character{GroupPrompt: "Hello {group_name}, weather is {weather}."}
	group := &model.Group{Name: "Team"}

	got, err := NewBuilder().Build(persona, group, nil, testNames)
	require.Error(t, err)

	var te *TemplateError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "weather", te.Placeholder)

	// Fallback keeps the template unsubstituted but the prompt is usable.
	assert.Contains(t, got, "Hello {group_name}, weather is {weather}.")
	assert.Contains(t, got, "Conversation history:")
}

func TestBuildHistoryWindow(t *testing.T) {
	persona := &model.Character{PrivatePrompt: "p"}
	var history []model.Message
	for i := 0; i < 40; i++ {
		history = append(history, model.NewTextMessage(model.SenderUser, fmt.Sprintf("message %d", i)))
	}

	got, err := NewBuilder().Build(persona, nil, history, nil)
	require.NoError(t, err)

	assert.NotContains(t, got, "message 24")
	assert.Contains(t, got, "message 25")
	assert.Contains(t, got, "message 39")
}

func TestBuildPhotoPlaceholder(t *testing.T) {
	persona := &model.Character{PrivatePrompt: "p"}
	history := []model.Message{
		model.NewPhotoMessage("alice", "/tmp/pic.png"),
	}

	got, err := NewBuilder().Build(persona, nil, history, testNames)
	require.NoError(t, err)
	assert.Contains(t, got, "Alice: [sent a photo]\n")
}

func TestBuildDeterministic(t *testing.T) {
	persona := &model.Character{GroupPrompt: "Chat {group_name}: {members}"}
	group := &model.Group{Name: "Team", Members: []string{"bob", "alice"}}
	history := []model.Message{
		model.NewTextMessage(model.SenderUser, "one"),
		model.NewTextMessage("bob", "two"),
	}

	b := NewBuilder()
	first, err1 := b.Build(persona, group, history, testNames)
	second, err2 := b.Build(persona, group, history, testNames)
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, first, second)

	// Member order follows the stored roster order, not map order.
	assert.Contains(t, first, "Bob, Alice")
}
