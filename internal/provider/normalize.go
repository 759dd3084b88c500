// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"regexp"
	"strings"
)

// =============================================================================
// Response normalization
// =============================================================================

// Placeholder text substituted when a provider returns nothing usable.
// These are stored and displayed like any other message text.
const (
	EmptyResponseText = "The model returned an empty response."
	EmptyAfterCleanup = "The model response was empty after cleaning."
)

// cutMarkers are runaway-generation markers. Smaller models often keep
// writing past their own turn; everything from the first marker on is
// discarded. Order matters: markers are applied sequentially, each one
// truncating the text before the next is looked up.
var cutMarkers = []string{"STOP", "INST", "Human:", "Assistant:", "###"}

// Normalize cleans a raw model response for display and storage. It is a
// pure function and idempotent: normalizing an already-normalized string
// returns it unchanged.
func Normalize(raw string) string {
	if raw == "" {
		return EmptyResponseText
	}
	text := raw
	for _, marker := range cutMarkers {
		if i := strings.Index(text, marker); i >= 0 {
			text = text[:i]
		}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return EmptyAfterCleanup
	}
	return text
}

// =============================================================================
// Response directives
// =============================================================================

// IgnoreDirective marks a group reply that should be silently dropped:
// the persona decided not to speak this turn.
const IgnoreDirective = "[IGNORE]"

var photoDirectiveRe = regexp.MustCompile(`\[PHOTO:(\w+)\]`)

// HasIgnoreDirective reports whether the normalized text opts out of the
// turn. The directive is honored anywhere in the text.
func HasIgnoreDirective(text string) bool {
	return strings.Contains(text, IgnoreDirective)
}

// ParsePhotoDirective extracts the first photo token from the text, if
// any, along with the text with the directive removed.
func ParsePhotoDirective(text string) (token, remainder string, ok bool) {
	m := photoDirectiveRe.FindStringSubmatchIndex(text)
	if m == nil {
		return "", text, false
	}
	token = text[m[2]:m[3]]
	remainder = strings.TrimSpace(text[:m[0]] + text[m[1]:])
	return token, remainder, true
}
