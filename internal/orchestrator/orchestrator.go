// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package orchestrator runs reply turns. Each submitted user message
// becomes one Turn executed by one background goroutine: assemble the
// prompt, dispatch to the configured provider, normalize, and append the
// reply. Group chats fan out to every member sequentially in stored
// member order. Workers never touch the UI; everything observable flows
// through the event channel.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/jeranaias/npchat-tui/internal/archive"
	"github.com/jeranaias/npchat-tui/internal/config"
	"github.com/jeranaias/npchat-tui/internal/model"
	"github.com/jeranaias/npchat-tui/internal/prompt"
	"github.com/jeranaias/npchat-tui/internal/provider"
	"github.com/jeranaias/npchat-tui/internal/store"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrEmptyMessage rejects submissions that are empty after trimming.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrUnknownChat rejects submissions for a chat id that names no
	// loaded persona or group.
	ErrUnknownChat = errors.New("unknown chat")

	// ErrShuttingDown rejects submissions after Shutdown has started.
	ErrShuttingDown = errors.New("orchestrator is shutting down")
)

// =============================================================================
// EVENTS
// =============================================================================

// Event is delivered to the foreground loop. Exactly one of the concrete
// types below.
type Event interface{ isEvent() }

// MessageEvent announces a newly stored message (user, reply, photo, or
// inline error).
type MessageEvent struct {
	ChatID  string
	Message model.Message
}

// TypingEvent toggles the typing indicator for a persona in a chat.
type TypingEvent struct {
	ChatID string
	Sender string
	Active bool
}

// TurnDoneEvent announces the end of a turn.
type TurnDoneEvent struct {
	ChatID string
	TurnID string
	State  TurnState
	Err    error
}

func (MessageEvent) isEvent()  {}
func (TypingEvent) isEvent()   {}
func (TurnDoneEvent) isEvent() {}

// =============================================================================
// ORCHESTRATOR
// =============================================================================

// Dispatcher is the provider call surface the orchestrator needs.
// *provider.Dispatcher satisfies it; tests substitute fakes.
type Dispatcher interface {
	Dispatch(ctx context.Context, providerName string, req provider.Request) (string, error)
}

// Orchestrator schedules and runs turns.
type Orchestrator struct {
	cfg        *config.Config
	store      *store.Store
	dispatcher Dispatcher
	builder    *prompt.Builder
	archive    *archive.Archive
	pacing     time.Duration

	events chan Event

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu   sync.Mutex
	done bool
}

// New wires an orchestrator. The archive may be nil; recording then
// becomes a no-op.
func New(cfg *config.Config, st *store.Store, d Dispatcher, arc *archive.Archive) *Orchestrator {
	ctx, cancel := context.WithCancel(context.Background())

	pacing := time.Duration(cfg.History.PacingSeconds) * time.Second
	if pacing <= 0 {
		pacing = time.Second
	}

	return &Orchestrator{
		cfg:        cfg,
		store:      st,
		dispatcher: d,
		builder:    &prompt.Builder{Window: cfg.History.PromptWindow},
		archive:    arc,
		pacing:     pacing,
		events:     make(chan Event, 64),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Events returns the channel the foreground loop consumes.
func (o *Orchestrator) Events() <-chan Event { return o.events }

// Shutdown cancels in-flight dispatches and waits for workers to exit.
func (o *Orchestrator) Shutdown() {
	o.mu.Lock()
	o.done = true
	o.mu.Unlock()

	o.cancel()
	o.wg.Wait()
	close(o.events)
}

// Submit validates and stores the user's message, then schedules the
// reply round on a background worker. It returns immediately.
func (o *Orchestrator) Submit(chatID, text string) (*Turn, error) {
	if isBlank(text) {
		return nil, ErrEmptyMessage
	}

	kind, ok := o.store.ChatKind(chatID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownChat, chatID)
	}

	o.mu.Lock()
	if o.done {
		o.mu.Unlock()
		return nil, ErrShuttingDown
	}
	o.wg.Add(1)
	o.mu.Unlock()

	turn := newTurn(chatID)

	msg, err := o.store.Append(chatID, model.NewTextMessage(model.SenderUser, text))
	if err != nil {
		// The message is in memory even when the flush failed; keep going.
		log.Printf("orchestrator: flush failed for %s: %v", chatID, err)
	}
	o.archive.Record(chatID, msg)
	turn.setState(StateUserMessageAppended)
	o.emit(MessageEvent{ChatID: chatID, Message: msg})

	go o.run(turn, kind)
	return turn, nil
}

// run executes one turn. The chat lock is held for the whole reply round
// so overlapping turns on one chat interleave at turn granularity.
func (o *Orchestrator) run(turn *Turn, kind store.ChatType) {
	defer o.wg.Done()

	lock := o.store.ChatLock(turn.ChatID)
	lock.Lock()
	defer lock.Unlock()

	turn.setState(StateDispatching)

	switch kind {
	case store.ChatGroup:
		group, ok := o.store.Group(turn.ChatID)
		if !ok {
			o.finish(turn, fmt.Errorf("group %s vanished", turn.ChatID))
			return
		}
		for _, memberID := range group.Members {
			if o.ctx.Err() != nil {
				break
			}
			persona, ok := o.store.Character(memberID)
			if !ok {
				log.Printf("orchestrator: group %s member %s not loaded, skipping", group.ID, memberID)
				continue
			}
			o.respondAs(turn.ChatID, persona, group)
		}
	default:
		persona, ok := o.store.Character(turn.ChatID)
		if !ok {
			o.finish(turn, fmt.Errorf("persona %s vanished", turn.ChatID))
			return
		}
		o.respondAs(turn.ChatID, persona, nil)
	}

	o.finish(turn, nil)
}

func (o *Orchestrator) finish(turn *Turn, err error) {
	if err != nil {
		turn.fail(err)
	} else {
		turn.setState(StateCompleted)
	}
	o.emit(TurnDoneEvent{ChatID: turn.ChatID, TurnID: turn.ID, State: turn.State(), Err: err})
}

// respondAs runs one persona's reply: build prompt, dispatch, handle
// directives, append. A nil group selects the private flow.
func (o *Orchestrator) respondAs(chatID string, persona *model.Character, group *model.Group) {
	providerName, req := o.resolveSettings(persona, group)
	history := o.store.Recent(chatID, o.builder.Window)

	text, tplErr := o.builder.Build(persona, group, history, o.store.DisplayNames())
	if tplErr != nil {
		log.Printf("orchestrator: %v (sending unsubstituted template)", tplErr)
	}
	req.Prompt = text

	o.emit(TypingEvent{ChatID: chatID, Sender: persona.ID, Active: true})
	defer o.emit(TypingEvent{ChatID: chatID, Sender: persona.ID, Active: false})

	reply, err := o.dispatcher.Dispatch(o.ctx, providerName, req)
	if err != nil {
		log.Printf("orchestrator: dispatch failed for %s in %s: %v", persona.ID, chatID, err)
		o.append(chatID, model.NewTextMessage(persona.ID, "[API error: "+err.Error()+"]"))
		return
	}

	// An ignoring member stays silent and costs no pacing delay.
	if group != nil && provider.HasIgnoreDirective(reply) {
		return
	}

	if group != nil {
		if err := o.pace(); err != nil {
			return
		}
	}

	if token, _, ok := provider.ParsePhotoDirective(reply); ok {
		o.sendPhoto(chatID, persona, token)
		return
	}

	o.append(chatID, model.NewTextMessage(persona.ID, reply))
}

// pace waits the full typing-cadence delay before a group reply lands.
// The delay is per member and cumulative across the turn: a fresh
// limiter is drained and waited on each time, so time spent inside the
// dispatch call never counts against the delay, and turns in different
// chats never share pacing state.
func (o *Orchestrator) pace() error {
	if o.pacing <= 0 {
		return nil
	}
	l := rate.NewLimiter(rate.Every(o.pacing), 1)
	l.Allow()
	return l.Wait(o.ctx)
}

// sendPhoto resolves a photo token against the persona's photos. The
// reply text is replaced by the photo message; an unresolvable token
// drops the reply entirely.
func (o *Orchestrator) sendPhoto(chatID string, persona *model.Character, token string) {
	photo, ok := persona.FindPhoto(token)
	if !ok {
		log.Printf("orchestrator: %s has no photo matching %q, dropping reply", persona.ID, token)
		return
	}
	path := o.store.PhotoPath(persona.ID, photo)
	if _, err := os.Stat(path); err != nil {
		log.Printf("orchestrator: photo %s not on disk, dropping reply: %v", path, err)
		return
	}
	o.append(chatID, model.NewPhotoMessage(persona.ID, path))
}

func (o *Orchestrator) append(chatID string, msg model.Message) {
	stored, err := o.store.Append(chatID, msg)
	if err != nil {
		log.Printf("orchestrator: flush failed for %s: %v", chatID, err)
	}
	o.archive.Record(chatID, stored)
	o.emit(MessageEvent{ChatID: chatID, Message: stored})
}

// resolveSettings layers generation settings: global defaults, then the
// group override, then the persona override.
func (o *Orchestrator) resolveSettings(persona *model.Character, group *model.Group) (string, provider.Request) {
	gen := o.cfg.GenerationSettings()
	providerName := gen.Provider
	req := provider.Request{
		Model:       gen.Model,
		Temperature: gen.Temperature,
		MaxTokens:   gen.MaxTokens,
	}

	apply := func(s model.APISettings) {
		if s.Provider != "" {
			providerName = s.Provider
		}
		if s.Model != "" {
			req.Model = s.Model
		}
		if s.Temperature != 0 {
			req.Temperature = s.Temperature
		}
		if s.MaxTokens != 0 {
			req.MaxTokens = s.MaxTokens
		}
	}
	if group != nil {
		apply(group.API)
	}
	apply(persona.API)

	return providerName, req
}

func (o *Orchestrator) emit(ev Event) {
	select {
	case o.events <- ev:
	case <-o.ctx.Done():
	}
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
