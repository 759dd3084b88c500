// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/npchat-tui/internal/model"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter renders a transcript as Markdown with YAML frontmatter.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// FileExtension returns ".md".
func (e *MarkdownExporter) FileExtension() string { return ".md" }

// Export converts a transcript to Markdown.
func (e *MarkdownExporter) Export(tr *Transcript) ([]byte, error) {
	if tr == nil {
		return nil, fmt.Errorf("transcript is nil")
	}
	if len(tr.Messages) == 0 {
		return nil, fmt.Errorf("transcript has no messages")
	}

	var sb strings.Builder

	sb.WriteString("---\n")
	sb.WriteString(fmt.Sprintf("title: %s\n", escapeYAML(tr.Title)))
	sb.WriteString(fmt.Sprintf("chat: %s\n", tr.ChatID))
	sb.WriteString(fmt.Sprintf("kind: %s\n", tr.Kind))
	sb.WriteString(fmt.Sprintf("messages: %d\n", len(tr.Messages)))
	sb.WriteString(fmt.Sprintf("exported: %s\n", time.Now().Format(time.RFC3339)))
	sb.WriteString("generator: npchat-tui\n")
	sb.WriteString("---\n\n")

	sb.WriteString(fmt.Sprintf("# %s\n\n", tr.Title))

	for _, msg := range tr.Messages {
		name := tr.senderName(msg)
		if e.options.IncludeTimestamps && !msg.Time().IsZero() {
			sb.WriteString(fmt.Sprintf("**%s** <sub>%s</sub>\n\n", name, msg.Time().Format("2006-01-02 15:04")))
		} else {
			sb.WriteString(fmt.Sprintf("**%s**\n\n", name))
		}

		if msg.Kind == model.KindPhoto {
			sb.WriteString(fmt.Sprintf("*[sent a photo: %s]*\n\n", msg.PhotoPath))
		} else {
			sb.WriteString(msg.Text)
			sb.WriteString("\n\n")
		}
	}

	return []byte(sb.String()), nil
}

// escapeYAML quotes a value when it would break frontmatter parsing.
func escapeYAML(s string) string {
	if strings.ContainsAny(s, ":#\"'\n") {
		return fmt.Sprintf("%q", strings.ReplaceAll(s, "\n", " "))
	}
	return s
}
