// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/npchat-tui/internal/model"
)

func sampleTranscript() *Transcript {
	return &Transcript{
		ChatID: "alice",
		Title:  "Alice",
		Kind:   "private",
		Messages: []model.Message{
			model.NewTextMessage(model.SenderUser, "hello"),
			model.NewTextMessage("alice", "hi there"),
			model.NewPhotoMessage("alice", "/data/photos/sunset.jpg"),
		},
		Names: map[string]string{"alice": "Alice"},
	}
}

func TestMarkdownExport(t *testing.T) {
	data, err := NewMarkdownExporter(nil).Export(sampleTranscript())
	require.NoError(t, err)

	out := string(data)
	assert.True(t, strings.HasPrefix(out, "---\n"))
	assert.Contains(t, out, "title: Alice")
	assert.Contains(t, out, "kind: private")
	assert.Contains(t, out, "**User**")
	assert.Contains(t, out, "hello")
	assert.Contains(t, out, "**Alice**")
	assert.Contains(t, out, "*[sent a photo: /data/photos/sunset.jpg]*")
}

func TestMarkdownExportEmptyTranscript(t *testing.T) {
	_, err := NewMarkdownExporter(nil).Export(&Transcript{ChatID: "x"})
	assert.Error(t, err)
}

func TestJSONExport(t *testing.T) {
	data, err := NewJSONExporter().Export(sampleTranscript())
	require.NoError(t, err)

	var out jsonTranscript
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "alice", out.ChatID)
	require.Len(t, out.Messages, 3)
	assert.Equal(t, model.KindPhoto, out.Messages[2].Kind)
}

func TestExportToFile(t *testing.T) {
	dir := t.TempDir()
	opts := &Options{OutputDir: dir, IncludeTimestamps: true}

	path, err := ExportToFile(sampleTranscript(), NewMarkdownExporter(opts), opts)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, ".md"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Alice")
}

func TestEscapeYAML(t *testing.T) {
	assert.Equal(t, "plain", escapeYAML("plain"))
	assert.Equal(t, `"with: colon"`, escapeYAML("with: colon"))
}
