// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"
)

// SenderUser is the sender marker for messages typed by the local user.
// Every other sender value is a character id.
const SenderUser = "user"

// MessageKind distinguishes plain text messages from photo messages.
type MessageKind string

const (
	// KindText is an ordinary text message.
	KindText MessageKind = "text"

	// KindPhoto is a photo message; Text is empty and PhotoPath is set.
	KindPhoto MessageKind = "photo"
)

// Message is a single entry in a chat history. Messages are append-only and
// never mutated after creation; ordering is append order, which matches
// chronological order because ids are time-derived.
type Message struct {
	ID        string      `json:"id"`
	Sender    string      `json:"sender"`
	Text      string      `json:"text"`
	Timestamp string      `json:"timestamp"`
	Kind      MessageKind `json:"type"`
	PhotoPath string      `json:"photo_path,omitempty"`
}

// NewTextMessage creates a text message from the given sender, stamped with
// the current time.
func NewTextMessage(sender, text string) Message {
	return Message{
		ID:        newMessageID(),
		Sender:    sender,
		Text:      text,
		Timestamp: time.Now().Format(time.RFC3339),
		Kind:      KindText,
	}
}

// NewPhotoMessage creates a photo message referencing a resolved asset path.
func NewPhotoMessage(sender, photoPath string) Message {
	return Message{
		ID:        newMessageID(),
		Sender:    sender,
		Timestamp: time.Now().Format(time.RFC3339),
		Kind:      KindPhoto,
		PhotoPath: photoPath,
	}
}

// IsUser reports whether the message was sent by the local user.
func (m Message) IsUser() bool {
	return m.Sender == SenderUser
}

// Time parses the message timestamp. A zero time is returned for
// unparseable timestamps rather than an error; display code treats it as
// "no timestamp".
func (m Message) Time() time.Time {
	t, err := time.Parse(time.RFC3339, m.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return t
}

// newMessageID returns a millisecond-resolution time-derived message id.
// Within one process ids are kept strictly increasing so that two messages
// created in the same millisecond still sort correctly.
func newMessageID() string {
	return "msg_" + nextMessageStamp()
}
