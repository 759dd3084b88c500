// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui implements the terminal interface: a sidebar of chats, a
// message viewport, and an input line. All state changes arrive as
// bubbletea messages; background workers talk to the UI only through the
// orchestrator's event channel.
package ui

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/npchat-tui/internal/archive"
	"github.com/jeranaias/npchat-tui/internal/config"
	"github.com/jeranaias/npchat-tui/internal/orchestrator"
	"github.com/jeranaias/npchat-tui/internal/store"
	"github.com/jeranaias/npchat-tui/internal/ui/styles"
)

// =============================================================================
// MODES
// =============================================================================

type mode int

const (
	modeNormal mode = iota
	modeSearch
	modeGroupName
	modeGroupMembers
)

// chatItem is one sidebar row.
type chatItem struct {
	id      string
	title   string
	preview string
	kind    store.ChatType
}

// =============================================================================
// APP MODEL
// =============================================================================

// App is the bubbletea model for the whole program.
type App struct {
	cfg   *config.Config
	store *store.Store
	orch  *orchestrator.Orchestrator
	arc   *archive.Archive

	items   []chatItem
	cursor  int
	current string

	width  int
	height int
	ready  bool

	viewport    viewport.Model
	input       textinput.Model
	searchInput textinput.Model
	groupInput  textinput.Model
	spin        spinner.Model
	renderer    *glamour.TermRenderer

	mode         mode
	focusSidebar bool
	status       string

	// typing maps chat id to the persona currently typing there.
	typing map[string]string

	searchHits []archive.Hit

	// Group-create member picker state.
	memberCursor  int
	memberChecked map[string]bool
}

// orchEventMsg wraps one orchestrator event for the update loop.
type orchEventMsg struct {
	ev orchestrator.Event
}

// orchClosedMsg signals the event channel is drained and closed.
type orchClosedMsg struct{}

// NewApp builds the UI over already-wired collaborators.
func NewApp(cfg *config.Config, st *store.Store, orch *orchestrator.Orchestrator, arc *archive.Archive) *App {
	input := textinput.New()
	input.Placeholder = "Type a message..."
	input.CharLimit = 4000
	input.Focus()

	search := textinput.New()
	search.Placeholder = "Search messages..."

	group := textinput.New()
	group.Placeholder = "Group name"
	group.CharLimit = 80

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = lipgloss.NewStyle().Foreground(styles.Purple)

	app := &App{
		cfg:           cfg,
		store:         st,
		orch:          orch,
		arc:           arc,
		input:         input,
		searchInput:   search,
		groupInput:    group,
		spin:          spin,
		typing:        map[string]string{},
		memberChecked: map[string]bool{},
	}
	app.refreshItems()
	if len(app.items) > 0 {
		app.current = app.items[0].id
	}
	return app
}

// Init starts the spinner and the event pump.
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.spin.Tick, a.waitEvent())
}

// waitEvent blocks on the orchestrator channel and delivers the next
// event as a bubbletea message.
func (a *App) waitEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-a.orch.Events()
		if !ok {
			return orchClosedMsg{}
		}
		return orchEventMsg{ev: ev}
	}
}

// refreshItems rebuilds the sidebar rows from the store.
func (a *App) refreshItems() {
	previous := a.current
	a.items = a.items[:0]

	for _, c := range a.store.Characters() {
		a.items = append(a.items, chatItem{
			id:      c.ID,
			title:   c.Name,
			preview: a.previewFor(c.ID),
			kind:    store.ChatPrivate,
		})
	}
	for _, g := range a.store.Groups() {
		a.items = append(a.items, chatItem{
			id:      g.ID,
			title:   g.Name,
			preview: a.previewFor(g.ID),
			kind:    store.ChatGroup,
		})
	}

	a.cursor = 0
	for i, item := range a.items {
		if item.id == previous {
			a.cursor = i
			break
		}
	}
}

func (a *App) selectedItem() (chatItem, bool) {
	if a.cursor < 0 || a.cursor >= len(a.items) {
		return chatItem{}, false
	}
	return a.items[a.cursor], true
}
