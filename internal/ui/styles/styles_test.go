// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAvatarColorStable(t *testing.T) {
	first := AvatarColor("alice")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, AvatarColor("alice"))
	}
}

func TestAvatarBadgeInitial(t *testing.T) {
	assert.True(t, strings.Contains(AvatarBadge("alice", "Alice"), "A"))
	assert.True(t, strings.Contains(AvatarBadge("x", ""), "?"))
}
