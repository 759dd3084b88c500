// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package orchestrator

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// TURN STATE
// =============================================================================

// TurnState tracks a submitted message through its lifecycle.
type TurnState string

const (
	// StateIdle is the zero state before submission.
	StateIdle TurnState = "Idle"

	// StateUserMessageAppended means the user's message is stored and
	// visible; replies have not started.
	StateUserMessageAppended TurnState = "UserMessageAppended"

	// StateDispatching means a worker is collecting persona replies.
	StateDispatching TurnState = "Dispatching"

	// StateCompleted means the turn finished. Individual member failures
	// still complete the turn; they surface as inline error messages.
	StateCompleted TurnState = "Completed"

	// StateFailed means the turn could not run at all, e.g. the chat's
	// persona or group vanished between scheduling and execution.
	StateFailed TurnState = "Failed"
)

func (s TurnState) String() string { return string(s) }

// =============================================================================
// TURN
// =============================================================================

// Turn is one submitted user message and the reply round it triggers.
type Turn struct {
	ID        string
	ChatID    string
	StartTime time.Time
	EndTime   time.Time

	mu    sync.Mutex
	state TurnState
	err   error
}

func newTurn(chatID string) *Turn {
	return &Turn{
		ID:        uuid.New().String(),
		ChatID:    chatID,
		StartTime: time.Now(),
		state:     StateIdle,
	}
}

// State returns the current lifecycle state.
func (t *Turn) State() TurnState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Err returns the failure cause for a Failed turn.
func (t *Turn) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

func (t *Turn) setState(s TurnState) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = s
	if s == StateCompleted || s == StateFailed {
		t.EndTime = time.Now()
	}
}

func (t *Turn) fail(err error) {
	t.mu.Lock()
	t.err = err
	t.mu.Unlock()
	t.setState(StateFailed)
}
