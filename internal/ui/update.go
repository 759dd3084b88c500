// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/npchat-tui/internal/export"
	"github.com/jeranaias/npchat-tui/internal/orchestrator"
)

const sidebarWidth = 28

// Update is the single state transition function.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.resize(msg.Width, msg.Height)
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spin, cmd = a.spin.Update(msg)
		return a, cmd

	case orchEventMsg:
		a.handleEvent(msg.ev)
		return a, a.waitEvent()

	case orchClosedMsg:
		return a, tea.Quit

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	return a, nil
}

func (a *App) resize(w, h int) {
	a.width = w
	a.height = h

	chatWidth := w - sidebarWidth - 2
	if chatWidth < 20 {
		chatWidth = 20
	}
	viewportHeight := h - 5
	if viewportHeight < 3 {
		viewportHeight = 3
	}

	if !a.ready {
		a.viewport = viewport.New(chatWidth, viewportHeight)
		a.ready = true
	} else {
		a.viewport.Width = chatWidth
		a.viewport.Height = viewportHeight
	}
	a.input.Width = chatWidth - 4

	// Glamour wraps at render time, so the renderer tracks the pane width.
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(chatWidth-6),
	)
	if err == nil {
		a.renderer = renderer
	}

	a.renderMessages()
}

// handleEvent folds one orchestrator event into the model.
func (a *App) handleEvent(ev orchestrator.Event) {
	switch ev := ev.(type) {
	case orchestrator.MessageEvent:
		if ev.ChatID == a.current {
			a.renderMessages()
			a.viewport.GotoBottom()
		}
		a.refreshItems()

	case orchestrator.TypingEvent:
		if ev.Active {
			a.typing[ev.ChatID] = ev.Sender
		} else {
			delete(a.typing, ev.ChatID)
		}

	case orchestrator.TurnDoneEvent:
		delete(a.typing, ev.ChatID)
		if ev.State == orchestrator.StateFailed && ev.Err != nil {
			a.status = ev.Err.Error()
		}
	}
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Global bindings first.
	switch msg.String() {
	case "ctrl+c":
		return a, tea.Quit
	}

	switch a.mode {
	case modeSearch:
		return a.handleSearchKey(msg)
	case modeGroupName, modeGroupMembers:
		return a.handleGroupKey(msg)
	}
	return a.handleNormalKey(msg)
}

func (a *App) handleNormalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab":
		a.focusSidebar = !a.focusSidebar
		if a.focusSidebar {
			a.input.Blur()
		} else {
			a.input.Focus()
		}
		return a, nil

	case "ctrl+f":
		a.mode = modeSearch
		a.searchHits = nil
		a.searchInput.Reset()
		a.searchInput.Focus()
		a.input.Blur()
		return a, nil

	case "ctrl+g":
		a.mode = modeGroupName
		a.groupInput.Reset()
		a.groupInput.Focus()
		a.input.Blur()
		a.memberChecked = map[string]bool{}
		a.memberCursor = 0
		return a, nil

	case "ctrl+e":
		a.exportCurrent()
		return a, nil
	}

	if a.focusSidebar {
		switch msg.String() {
		case "up", "k":
			if a.cursor > 0 {
				a.cursor--
			}
		case "down", "j":
			if a.cursor < len(a.items)-1 {
				a.cursor++
			}
		case "enter":
			if item, ok := a.selectedItem(); ok {
				a.openChat(item.id)
			}
		}
		return a, nil
	}

	switch msg.String() {
	case "enter":
		a.submit()
		return a, nil
	case "up":
		a.viewport.LineUp(1)
		return a, nil
	case "down":
		a.viewport.LineDown(1)
		return a, nil
	case "pgup":
		a.viewport.HalfViewUp()
		return a, nil
	case "pgdown":
		a.viewport.HalfViewDown()
		return a, nil
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *App) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.mode = modeNormal
		a.searchInput.Blur()
		a.input.Focus()
		return a, nil
	case "enter":
		hits, err := a.arc.Search(a.searchInput.Value(), 20)
		if err != nil {
			a.status = err.Error()
			return a, nil
		}
		a.searchHits = hits
		return a, nil
	}

	var cmd tea.Cmd
	a.searchInput, cmd = a.searchInput.Update(msg)
	return a, cmd
}

func (a *App) handleGroupKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" {
		a.mode = modeNormal
		a.groupInput.Blur()
		a.input.Focus()
		return a, nil
	}

	if a.mode == modeGroupName {
		if msg.String() == "enter" {
			if a.groupInput.Value() != "" {
				a.mode = modeGroupMembers
				a.groupInput.Blur()
			}
			return a, nil
		}
		var cmd tea.Cmd
		a.groupInput, cmd = a.groupInput.Update(msg)
		return a, cmd
	}

	// Member picker.
	personas := a.store.Characters()
	switch msg.String() {
	case "up", "k":
		if a.memberCursor > 0 {
			a.memberCursor--
		}
	case "down", "j":
		if a.memberCursor < len(personas)-1 {
			a.memberCursor++
		}
	case " ":
		if a.memberCursor < len(personas) {
			id := personas[a.memberCursor].ID
			a.memberChecked[id] = !a.memberChecked[id]
		}
	case "enter":
		a.createGroup()
	}
	return a, nil
}

// openChat switches the viewport to the chat under the sidebar cursor.
func (a *App) openChat(chatID string) {
	a.current = chatID
	a.focusSidebar = false
	a.input.Focus()
	a.renderMessages()
	a.viewport.GotoBottom()
}

// submit hands the typed message to the orchestrator.
func (a *App) submit() {
	text := a.input.Value()
	if a.current == "" {
		a.status = "no chat selected"
		return
	}
	_, err := a.orch.Submit(a.current, text)
	if err != nil {
		if !errors.Is(err, orchestrator.ErrEmptyMessage) {
			a.status = err.Error()
		}
		return
	}
	a.status = ""
	a.input.Reset()
}

// createGroup collects checked members in persona list order.
func (a *App) createGroup() {
	var members []string
	for _, c := range a.store.Characters() {
		if a.memberChecked[c.ID] {
			members = append(members, c.ID)
		}
	}
	if len(members) == 0 {
		a.status = "select at least one member"
		return
	}

	g, err := a.store.CreateGroup(a.groupInput.Value(), members)
	if err != nil {
		a.status = err.Error()
		return
	}

	a.mode = modeNormal
	a.input.Focus()
	a.refreshItems()
	a.openChat(g.ID)
	a.status = fmt.Sprintf("group %q created", g.Name)
}

// exportCurrent writes the open chat as Markdown next to the data dir.
func (a *App) exportCurrent() {
	if a.current == "" {
		return
	}
	kind, _ := a.store.ChatKind(a.current)
	tr := &export.Transcript{
		ChatID:   a.current,
		Title:    a.titleFor(a.current),
		Kind:     string(kind),
		Messages: a.store.Messages(a.current),
		Names:    a.store.DisplayNames(),
	}
	opts := export.DefaultOptions()
	path, err := export.ExportToFile(tr, export.NewMarkdownExporter(opts), opts)
	if err != nil {
		a.status = err.Error()
		return
	}
	a.status = "exported to " + path
}

func (a *App) titleFor(chatID string) string {
	if c, ok := a.store.Character(chatID); ok {
		return c.Name
	}
	if g, ok := a.store.Group(chatID); ok {
		return g.Name
	}
	return chatID
}
