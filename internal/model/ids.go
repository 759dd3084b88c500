// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strconv"
	"sync/atomic"
	"time"
)

// lastStamp holds the most recently issued millisecond stamp so concurrent
// callers never mint duplicate message ids.
var lastStamp atomic.Int64

// nextMessageStamp returns a unix-millisecond stamp, bumped past the previous
// one if the clock has not advanced.
func nextMessageStamp() string {
	for {
		now := time.Now().UnixMilli()
		prev := lastStamp.Load()
		if now <= prev {
			now = prev + 1
		}
		if lastStamp.CompareAndSwap(prev, now) {
			return strconv.FormatInt(now, 10)
		}
	}
}

// NewGroupID returns a fresh time-derived group id.
func NewGroupID() string {
	return "group_" + strconv.FormatInt(time.Now().Unix(), 10)
}
