// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the npchat TUI.
// All colors use Lip Gloss AdaptiveColor for automatic light/dark detection.
package styles

import (
	"hash/fnv"

	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// PALETTE
// =============================================================================

// Purple - Primary accent, persona messages, selections
var Purple = lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#A78BFA"}

// Cyan - Brand color, user highlights
var Cyan = lipgloss.AdaptiveColor{Light: "#0891B2", Dark: "#22D3EE"}

// Emerald - Success states
var Emerald = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34D399"}

// Rose - Errors, inline API failures
var Rose = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"}

// Amber - Warnings, photo messages
var Amber = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}

// Overlay - Borders, separators
var Overlay = lipgloss.AdaptiveColor{Light: "#E5E5E5", Dark: "#313244"}

// TextPrimary - Main body text
var TextPrimary = lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#CDD6F4"}

// TextSecondary - Labels, previews
var TextSecondary = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#A6ADC8"}

// TextMuted - Hints, timestamps
var TextMuted = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6C7086"}

// TextInverse - Text on colored backgrounds
var TextInverse = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#1E1E2E"}

// =============================================================================
// MESSAGE BUBBLES
// =============================================================================

var UserBubbleBg = lipgloss.AdaptiveColor{Light: "#DBEAFE", Dark: "#1D4ED8"}
var UserBubbleFg = lipgloss.AdaptiveColor{Light: "#1E40AF", Dark: "#E0F2FE"}

var PersonaBubbleBg = lipgloss.AdaptiveColor{Light: "#F5F3FF", Dark: "#3B3655"}
var PersonaBubbleFg = lipgloss.AdaptiveColor{Light: "#5B4B8A", Dark: "#E9E4F5"}

// UserBubble styles messages sent by the local user.
var UserBubble = lipgloss.NewStyle().
	Background(UserBubbleBg).
	Foreground(UserBubbleFg).
	Padding(0, 1)

// PersonaBubble styles persona replies.
var PersonaBubble = lipgloss.NewStyle().
	Background(PersonaBubbleBg).
	Foreground(PersonaBubbleFg).
	Padding(0, 1)

// ErrorText styles inline API error messages.
var ErrorText = lipgloss.NewStyle().Foreground(Rose)

// PhotoText styles photo message placeholders.
var PhotoText = lipgloss.NewStyle().Foreground(Amber).Italic(true)

// SenderName styles the name line above a bubble.
var SenderName = lipgloss.NewStyle().Foreground(TextSecondary).Bold(true)

// Timestamp styles message timestamps.
var Timestamp = lipgloss.NewStyle().Foreground(TextMuted)

// =============================================================================
// SIDEBAR
// =============================================================================

// Sidebar frames the chat list.
var Sidebar = lipgloss.NewStyle().
	BorderStyle(lipgloss.NormalBorder()).
	BorderRight(true).
	BorderForeground(Overlay).
	Padding(0, 1)

// SidebarItem styles an unselected chat row.
var SidebarItem = lipgloss.NewStyle().Foreground(TextPrimary)

// SidebarSelected styles the active chat row.
var SidebarSelected = lipgloss.NewStyle().
	Foreground(TextInverse).
	Background(Purple).
	Bold(true)

// SidebarPreview styles the last-message preview under a chat name.
var SidebarPreview = lipgloss.NewStyle().Foreground(TextMuted)

// Header styles the chat pane title bar.
var Header = lipgloss.NewStyle().
	Foreground(Purple).
	Bold(true).
	BorderStyle(lipgloss.NormalBorder()).
	BorderBottom(true).
	BorderForeground(Overlay)

// StatusLine styles the bottom hint bar.
var StatusLine = lipgloss.NewStyle().Foreground(TextMuted)

// TypingIndicator styles the "is typing" line.
var TypingIndicator = lipgloss.NewStyle().Foreground(TextSecondary).Italic(true)

// =============================================================================
// AVATARS
// =============================================================================

// avatarPalette is the set of badge background colors. A persona keeps
// the same color across sessions because the choice hashes its id.
var avatarPalette = []lipgloss.AdaptiveColor{
	Purple,
	Cyan,
	Emerald,
	Amber,
	Rose,
	{Light: "#2563EB", Dark: "#60A5FA"},
	{Light: "#0D9488", Dark: "#2DD4BF"},
	{Light: "#C026D3", Dark: "#E879F9"},
}

// AvatarColor picks a stable badge color for a sender id.
func AvatarColor(id string) lipgloss.AdaptiveColor {
	h := fnv.New32a()
	h.Write([]byte(id))
	return avatarPalette[int(h.Sum32())%len(avatarPalette)]
}

// AvatarBadge renders a one-letter colored badge for a sender.
func AvatarBadge(id, name string) string {
	initial := "?"
	for _, r := range name {
		initial = string(r)
		break
	}
	return lipgloss.NewStyle().
		Background(AvatarColor(id)).
		Foreground(TextInverse).
		Bold(true).
		Padding(0, 1).
		Render(initial)
}
