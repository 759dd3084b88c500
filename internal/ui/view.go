// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/npchat-tui/internal/model"
	"github.com/jeranaias/npchat-tui/internal/store"
	"github.com/jeranaias/npchat-tui/internal/ui/styles"
	"github.com/jeranaias/npchat-tui/internal/util"
)

// View renders the whole screen.
func (a *App) View() string {
	if !a.ready {
		return "loading..."
	}

	switch a.mode {
	case modeSearch:
		return a.viewSearch()
	case modeGroupName, modeGroupMembers:
		return a.viewGroupCreate()
	}

	sidebar := a.viewSidebar()
	chat := a.viewChat()
	body := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, chat)

	hints := "tab: focus  ctrl+f: search  ctrl+g: new group  ctrl+e: export  ctrl+c: quit"
	status := a.status
	if status == "" {
		status = hints
	}
	return body + "\n" + styles.StatusLine.Render(util.TruncateToWidth(status, a.width))
}

// =============================================================================
// SIDEBAR
// =============================================================================

func (a *App) viewSidebar() string {
	var sb strings.Builder
	sb.WriteString(styles.Header.Render("Chats"))
	sb.WriteString("\n")

	for i, item := range a.items {
		title := item.title
		if item.kind == store.ChatGroup {
			title = "# " + title
		}
		title = util.TruncateToWidth(title, sidebarWidth-4)

		if i == a.cursor && a.focusSidebar {
			sb.WriteString(styles.SidebarSelected.Render(title))
		} else if item.id == a.current {
			sb.WriteString(styles.SidebarItem.Bold(true).Render(title))
		} else {
			sb.WriteString(styles.SidebarItem.Render(title))
		}
		sb.WriteString("\n")

		preview := item.preview
		if sender, ok := a.typing[item.id]; ok {
			preview = a.nameOf(sender) + " is typing " + a.spin.View()
		}
		if preview != "" {
			sb.WriteString(styles.SidebarPreview.Render(util.TruncateToWidth(preview, sidebarWidth-4)))
			sb.WriteString("\n")
		}
	}

	return styles.Sidebar.Width(sidebarWidth).Height(a.height - 1).Render(sb.String())
}

// previewFor returns the one-line preview of the latest message.
func (a *App) previewFor(chatID string) string {
	recent := a.store.Recent(chatID, 1)
	if len(recent) == 0 {
		return ""
	}
	msg := recent[0]
	if msg.Kind == model.KindPhoto {
		return "[photo]"
	}
	return util.OneLine(msg.Text)
}

// =============================================================================
// CHAT PANE
// =============================================================================

func (a *App) viewChat() string {
	var sb strings.Builder

	title := a.titleFor(a.current)
	if a.current == "" {
		title = "no chat selected"
	}
	sb.WriteString(styles.Header.Width(a.viewport.Width).Render(title))
	sb.WriteString("\n")
	sb.WriteString(a.viewport.View())
	sb.WriteString("\n")

	if sender, ok := a.typing[a.current]; ok {
		sb.WriteString(styles.TypingIndicator.Render(a.spin.View() + " " + a.nameOf(sender) + " is typing..."))
	}
	sb.WriteString("\n")
	sb.WriteString(a.input.View())

	return sb.String()
}

// renderMessages rebuilds the viewport content for the open chat.
func (a *App) renderMessages() {
	if !a.ready || a.current == "" {
		return
	}

	msgs := a.store.Messages(a.current)
	var sb strings.Builder

	for _, msg := range msgs {
		name := a.nameOf(msg.Sender)
		badge := styles.AvatarBadge(msg.Sender, name)

		header := badge + " " + styles.SenderName.Render(name)
		if t := msg.Time(); !t.IsZero() {
			header += " " + styles.Timestamp.Render(t.Format("15:04"))
		}
		sb.WriteString(header)
		sb.WriteString("\n")
		sb.WriteString(a.renderBody(msg))
		sb.WriteString("\n")
	}

	a.viewport.SetContent(sb.String())
}

func (a *App) renderBody(msg model.Message) string {
	switch {
	case msg.Kind == model.KindPhoto:
		return styles.PhotoText.Render("[photo] " + msg.PhotoPath)

	case msg.IsUser():
		return styles.UserBubble.Render(msg.Text)

	case strings.HasPrefix(msg.Text, "[API error:"):
		return styles.ErrorText.Render(msg.Text)

	default:
		// Persona replies render as markdown when glamour is available.
		if a.renderer != nil {
			if out, err := a.renderer.Render(msg.Text); err == nil {
				return strings.TrimRight(out, "\n")
			}
		}
		return styles.PersonaBubble.Render(msg.Text)
	}
}

func (a *App) nameOf(sender string) string {
	if sender == model.SenderUser {
		return "You"
	}
	if c, ok := a.store.Character(sender); ok {
		return c.Name
	}
	return sender
}

// =============================================================================
// SEARCH VIEW
// =============================================================================

func (a *App) viewSearch() string {
	var sb strings.Builder
	sb.WriteString(styles.Header.Render("Search"))
	sb.WriteString("\n\n")
	sb.WriteString(a.searchInput.View())
	sb.WriteString("\n\n")

	if len(a.searchHits) == 0 {
		sb.WriteString(styles.StatusLine.Render("enter: search  esc: back"))
		return sb.String()
	}

	for _, hit := range a.searchHits {
		line := fmt.Sprintf("%s  %s: %s",
			styles.Timestamp.Render(hit.Timestamp),
			styles.SenderName.Render(a.nameOf(hit.Sender)),
			util.OneLine(hit.Text))
		sb.WriteString(util.TruncateToWidth(line, a.width-2))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(styles.StatusLine.Render("esc: back"))
	return sb.String()
}

// =============================================================================
// GROUP CREATE VIEW
// =============================================================================

func (a *App) viewGroupCreate() string {
	var sb strings.Builder
	sb.WriteString(styles.Header.Render("New Group"))
	sb.WriteString("\n\n")
	sb.WriteString(a.groupInput.View())
	sb.WriteString("\n\n")

	if a.mode == modeGroupMembers {
		sb.WriteString("Members:\n")
		for i, c := range a.store.Characters() {
			mark := "[ ]"
			if a.memberChecked[c.ID] {
				mark = "[x]"
			}
			line := mark + " " + c.Name
			if i == a.memberCursor {
				line = styles.SidebarSelected.Render(line)
			}
			sb.WriteString(line)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
		sb.WriteString(styles.StatusLine.Render("space: toggle  enter: create  esc: cancel"))
	} else {
		sb.WriteString(styles.StatusLine.Render("enter: choose members  esc: cancel"))
	}

	if a.status != "" {
		sb.WriteString("\n")
		sb.WriteString(styles.ErrorText.Render(a.status))
	}
	return sb.String()
}
