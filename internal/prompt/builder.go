// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package prompt assembles provider-ready prompt text from a persona's
// system prompt and the recent chat history. Assembly is deterministic:
// the same persona, history, and roster always produce the same string.
package prompt

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jeranaias/npchat-tui/internal/model"
)

// DefaultWindow is how many trailing messages are rendered into the
// prompt. The durable store keeps more; the model only sees this many.
const DefaultWindow = 15

// UserDisplayName labels the user's lines in the rendered history.
const UserDisplayName = "User"

const (
	historyHeader      = "Conversation history:"
	closingInstruction = "Respond to the last message naturally and in character."
	photoPlaceholder   = "[sent a photo]"
)

// TemplateError reports a placeholder in a group prompt template that has
// no known substitution. The prompt is still usable: callers log the
// error and send the unsubstituted template.
type TemplateError struct {
	Placeholder string
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("prompt template: unknown placeholder {%s}", e.Placeholder)
}

var placeholderRe = regexp.MustCompile(`\{(\w+)\}`)

// Builder renders prompts over a fixed history window.
type Builder struct {
	Window int
}

// NewBuilder returns a Builder with the default window.
func NewBuilder() *Builder {
	return &Builder{Window: DefaultWindow}
}

// Build assembles the full prompt for one dispatch. A nil group selects
// the persona's private prompt; otherwise the group prompt is used with
// {group_name} and {members} substituted. names maps character ids to
// display names for history rendering; unknown senders fall back to the
// raw id.
//
// A TemplateError is returned alongside a usable prompt built from the
// unsubstituted template. Callers should log it and carry on.
func (b *Builder) Build(persona *model.Character, group *model.Group, history []model.Message, names map[string]string) (string, error) {
	var system string
	var tplErr error

	if group == nil {
		system = persona.PrivatePrompt
	} else {
		system, tplErr = expandTemplate(persona.GroupPrompt, map[string]string{
			"group_name": group.Name,
			"members":    memberList(group, names),
		})
	}

	window := b.Window
	if window <= 0 {
		window = DefaultWindow
	}
	if len(history) > window {
		history = history[len(history)-window:]
	}

	var sb strings.Builder
	sb.WriteString(system)
	sb.WriteString("\n\n")
	sb.WriteString(historyHeader)
	sb.WriteString("\n")
	for _, msg := range history {
		sb.WriteString(senderName(msg, names))
		sb.WriteString(": ")
		if msg.Kind == model.KindPhoto {
			sb.WriteString(photoPlaceholder)
		} else {
			sb.WriteString(msg.Text)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(closingInstruction)

	return sb.String(), tplErr
}

// memberList joins the group members' display names in stored member
// order.
func memberList(group *model.Group, names map[string]string) string {
	parts := make([]string, 0, len(group.Members))
	for _, id := range group.Members {
		if name, ok := names[id]; ok && name != "" {
			parts = append(parts, name)
		} else {
			parts = append(parts, id)
		}
	}
	return strings.Join(parts, ", ")
}

func senderName(msg model.Message, names map[string]string) string {
	if msg.IsUser() {
		return UserDisplayName
	}
	if name, ok := names[msg.Sender]; ok && name != "" {
		return name
	}
	return msg.Sender
}

// expandTemplate substitutes {placeholder} tokens from vars. An unknown
// placeholder leaves the whole template untouched and reports the first
// offender.
func expandTemplate(tpl string, vars map[string]string) (string, error) {
	var unknown string
	out := placeholderRe.ReplaceAllStringFunc(tpl, func(match string) string {
		key := match[1 : len(match)-1]
		if v, ok := vars[key]; ok {
			return v
		}
		if unknown == "" {
			unknown = key
		}
		return match
	})
	if unknown != "" {
		return tpl, &TemplateError{Placeholder: unknown}
	}
	return out, nil
}
