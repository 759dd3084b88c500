// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"errors"
	"fmt"
)

// =============================================================================
// Sentinel errors
// =============================================================================

var (
	// ErrUnknownProvider is returned when a dispatch names a provider that
	// is not present in the configured registry.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrMissingCredential is returned when a provider requires an API key
	// and none is configured.
	ErrMissingCredential = errors.New("missing API credential")

	// ErrMissingCapability is returned when a provider is configured with a
	// transport this build cannot serve.
	ErrMissingCapability = errors.New("transport not available")

	// ErrEmptyResponse is returned when a provider call succeeds at the
	// transport level but carries no usable content.
	ErrEmptyResponse = errors.New("provider returned no content")
)

// =============================================================================
// Typed errors
// =============================================================================

// ConfigError reports a dispatch that failed before any network traffic:
// unknown provider, missing credential, or unavailable transport.
type ConfigError struct {
	Provider string
	Reason   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("provider %q: %v", e.Provider, e.Reason)
}

func (e *ConfigError) Unwrap() error { return e.Reason }

// TransportError reports a failure talking to the provider endpoint:
// connection errors, timeouts, or a non-success HTTP status.
type TransportError struct {
	Provider string
	Status   int // 0 when the request never completed
	Cause    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("provider %q: HTTP %d: %v", e.Provider, e.Status, e.Cause)
	}
	return fmt.Sprintf("provider %q: %v", e.Provider, e.Cause)
}

func (e *TransportError) Unwrap() error { return e.Cause }

// ResponseShapeError reports a payload that parsed as JSON but did not
// carry the field the transport expected.
type ResponseShapeError struct {
	Provider string
	Field    string
}

func (e *ResponseShapeError) Error() string {
	return fmt.Sprintf("provider %q: response missing %s", e.Provider, e.Field)
}

// IsConfigError reports whether err is a pre-flight configuration failure.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
