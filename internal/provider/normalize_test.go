// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"clean text passes through", "Hello there.", "Hello there."},
		{"surrounding whitespace trimmed", "  Hello there.\n", "Hello there."},
		{"hash marker truncates", "Hello###world", "Hello"},
		{"stop marker truncates", "Fine, thanks. STOP And then", "Fine, thanks."},
		{"human marker truncates", "Sure!\nHuman: now say", "Sure!"},
		{"assistant marker truncates", "Sure!\nAssistant: more", "Sure!"},
		{"inst marker truncates", "Okay INST whatever", "Okay"},
		{"first marker wins over later text", "A STOP B Human: C", "A"},
		{"empty input", "", EmptyResponseText},
		{"whitespace only", "  \n\t ", EmptyAfterCleanup},
		{"marker at start leaves nothing", "### everything", EmptyAfterCleanup},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.raw))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"Hello there.",
		"Hello###world",
		"",
		"### everything",
		"  padded  ",
	}
	for _, raw := range inputs {
		once := Normalize(raw)
		assert.Equal(t, once, Normalize(once), "input %q", raw)
	}
}

func TestHasIgnoreDirective(t *testing.T) {
	assert.True(t, HasIgnoreDirective("[IGNORE]"))
	assert.True(t, HasIgnoreDirective("hmm [IGNORE] whatever"))
	assert.False(t, HasIgnoreDirective("I will ignore that"))
	assert.False(t, HasIgnoreDirective(""))
}

func TestParsePhotoDirective(t *testing.T) {
	token, rest, ok := ParsePhotoDirective("Look at this! [PHOTO:sunset]")
	require.True(t, ok)
	assert.Equal(t, "sunset", token)
	assert.Equal(t, "Look at this!", rest)

	// First directive wins.
	token, _, ok = ParsePhotoDirective("[PHOTO:cat] or [PHOTO:dog]")
	require.True(t, ok)
	assert.Equal(t, "cat", token)

	_, rest, ok = ParsePhotoDirective("no directive here")
	assert.False(t, ok)
	assert.Equal(t, "no directive here", rest)

	// Tokens are word characters only.
	_, _, ok = ParsePhotoDirective("[PHOTO:two words]")
	assert.False(t, ok)
}
