// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model defines the core domain types for npchat: characters
// (personas), groups, and chat messages.
//
// A chat is identified either by a character id (private chat) or a group id
// (group chat). The two id namespaces must never collide; chat type is
// derived purely from which set the id belongs to.
package model
