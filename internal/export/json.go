// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jeranaias/npchat-tui/internal/model"
)

// =============================================================================
// JSON EXPORTER
// =============================================================================

// JSONExporter renders a transcript as indented JSON.
type JSONExporter struct{}

// NewJSONExporter creates a JSON exporter.
func NewJSONExporter() *JSONExporter { return &JSONExporter{} }

// FileExtension returns ".json".
func (e *JSONExporter) FileExtension() string { return ".json" }

type jsonTranscript struct {
	ChatID     string          `json:"chat_id"`
	Title      string          `json:"title"`
	Kind       string          `json:"kind"`
	ExportedAt string          `json:"exported_at"`
	Messages   []model.Message `json:"messages"`
}

// Export converts a transcript to pretty-printed JSON.
func (e *JSONExporter) Export(tr *Transcript) ([]byte, error) {
	if tr == nil {
		return nil, fmt.Errorf("transcript is nil")
	}
	if len(tr.Messages) == 0 {
		return nil, fmt.Errorf("transcript has no messages")
	}

	out := jsonTranscript{
		ChatID:     tr.ChatID,
		Title:      tr.Title,
		Kind:       tr.Kind,
		ExportedAt: time.Now().Format(time.RFC3339),
		Messages:   tr.Messages,
	}
	return json.MarshalIndent(out, "", "  ")
}
