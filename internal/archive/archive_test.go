// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package archive

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/npchat-tui/internal/model"
)

func openTestArchive(t *testing.T) *Archive {
	t.Helper()
	a, err := Open(filepath.Join(t.TempDir(), "archive.db"))
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func TestRecordAndHistory(t *testing.T) {
	a := openTestArchive(t)

	m1 := model.NewTextMessage(model.SenderUser, "first message")
	m2 := model.NewTextMessage("alice", "second message")
	a.Record("alice", m1)
	a.Record("alice", m2)
	a.Record("bob", model.NewTextMessage(model.SenderUser, "other chat"))

	history, err := a.History("alice")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "first message", history[0].Text)
	assert.Equal(t, "second message", history[1].Text)
	assert.Equal(t, model.KindText, history[0].Kind)
}

func TestRecordIsIdempotentPerID(t *testing.T) {
	a := openTestArchive(t)

	m := model.NewTextMessage(model.SenderUser, "once")
	a.Record("alice", m)
	a.Record("alice", m)

	history, err := a.History("alice")
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestSearch(t *testing.T) {
	a := openTestArchive(t)

	a.Record("alice", model.NewTextMessage(model.SenderUser, "the quick brown fox"))
	a.Record("bob", model.NewTextMessage("bob", "lazy dogs sleep"))
	a.Record("alice", model.NewPhotoMessage("alice", "/tmp/fox.png"))

	hits, err := a.Search("fox", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "alice", hits[0].ChatID)
	assert.Equal(t, "the quick brown fox", hits[0].Text)

	hits, err = a.Search("", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)

	// Wildcards in the query match literally, not as patterns.
	hits, err = a.Search("100%", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestNilArchiveIsNoOp(t *testing.T) {
	var a *Archive
	a.Record("alice", model.NewTextMessage(model.SenderUser, "dropped"))

	hits, err := a.Search("dropped", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
	require.NoError(t, a.Close())
}
