// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package archive keeps a permanent record of every message in a SQLite
// database. Chat files only persist a rolling window; the archive is
// append-only and never trimmed, and backs the sidebar search.
//
// The archive is best-effort: insert failures are logged, never
// propagated. Losing an archive row must not break a chat.
package archive

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/npchat-tui/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS messages (
    id         TEXT NOT NULL,
    chat_id    TEXT NOT NULL,
    sender     TEXT NOT NULL,
    kind       TEXT NOT NULL,
    text       TEXT NOT NULL,
    photo_path TEXT NOT NULL DEFAULT '',
    timestamp  TEXT NOT NULL,
    PRIMARY KEY (chat_id, id)
);

CREATE INDEX IF NOT EXISTS idx_messages_chat ON messages(chat_id);
CREATE INDEX IF NOT EXISTS idx_messages_text ON messages(text);
`

// Archive is the append-only message database.
type Archive struct {
	db *sql.DB
}

// Hit is one search result.
type Hit struct {
	ChatID    string
	Sender    string
	Text      string
	Timestamp string
}

// Open opens (creating if needed) the archive database at path.
func Open(path string) (*Archive, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create archive directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	// SQLite supports one writer; a single connection avoids busy errors.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize archive schema: %w", err)
	}

	return &Archive{db: db}, nil
}

// Close releases the database handle.
func (a *Archive) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	return a.db.Close()
}

// Record inserts one message. Failures are logged and swallowed; a nil
// receiver is a no-op so callers can run without an archive.
func (a *Archive) Record(chatID string, msg model.Message) {
	if a == nil || a.db == nil {
		return
	}
	_, err := a.db.Exec(
		`INSERT OR IGNORE INTO messages (id, chat_id, sender, kind, text, photo_path, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		msg.ID, chatID, msg.Sender, string(msg.Kind), msg.Text, msg.PhotoPath, msg.Timestamp,
	)
	if err != nil {
		log.Printf("archive: failed to record message %s in %s: %v", msg.ID, chatID, err)
	}
}

// Search returns up to limit messages whose text contains the query,
// newest first. An empty query returns nothing.
func (a *Archive) Search(query string, limit int) ([]Hit, error) {
	if a == nil || a.db == nil || query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := a.db.Query(
		`SELECT chat_id, sender, text, timestamp
		 FROM messages
		 WHERE kind = 'text' AND text LIKE ? ESCAPE '\'
		 ORDER BY timestamp DESC, id DESC
		 LIMIT ?`,
		"%"+escapeLike(query)+"%", limit,
	)
	if err != nil {
		return nil, fmt.Errorf("archive search: %w", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var h Hit
		if err := rows.Scan(&h.ChatID, &h.Sender, &h.Text, &h.Timestamp); err != nil {
			return nil, fmt.Errorf("archive search: %w", err)
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// History returns the full archived history for one chat in insertion
// order, unbounded by the chat file's persistence window.
func (a *Archive) History(chatID string) ([]model.Message, error) {
	if a == nil || a.db == nil {
		return nil, nil
	}

	rows, err := a.db.Query(
		`SELECT id, sender, kind, text, photo_path, timestamp
		 FROM messages
		 WHERE chat_id = ?
		 ORDER BY id ASC`,
		chatID,
	)
	if err != nil {
		return nil, fmt.Errorf("archive history: %w", err)
	}
	defer rows.Close()

	var msgs []model.Message
	for rows.Next() {
		var m model.Message
		var kind string
		if err := rows.Scan(&m.ID, &m.Sender, &kind, &m.Text, &m.PhotoPath, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("archive history: %w", err)
		}
		m.Kind = model.MessageKind(kind)
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// escapeLike escapes LIKE wildcards so user queries match literally.
func escapeLike(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
