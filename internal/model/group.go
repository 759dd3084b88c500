// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// Group is a multi-character chat room. The member list is ordered; it
// defines the response fan-out order for group turns and is never shuffled.
type Group struct {
	ID           string      `toml:"id" json:"id"`
	Name         string      `toml:"name" json:"name"`
	Members      []string    `toml:"members" json:"members"`
	GroupContext string      `toml:"group_context" json:"group_context"`
	API          APISettings `toml:"api" json:"api"`
}

// NewGroup creates a group with a fresh time-derived id and a default
// context blurb.
func NewGroup(name string, members []string) *Group {
	return &Group{
		ID:           NewGroupID(),
		Name:         name,
		Members:      append([]string(nil), members...),
		GroupContext: "This is the group chat '" + name + "'.",
	}
}
