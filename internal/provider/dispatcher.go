// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package provider dispatches completion requests to configured LLM
// backends and normalizes what comes back. Providers are looked up by
// name in the registry loaded from config; each entry names one of three
// wire transports (chat, sdk, generate). A dispatch makes exactly one
// attempt: failures surface immediately as typed errors for the caller
// to render, never as retries.
package provider

import (
	"context"
	"time"

	"github.com/jeranaias/npchat-tui/internal/config"
)

// DefaultTimeout bounds a single provider call.
const DefaultTimeout = 30 * time.Second

// Registry resolves provider names to their configured entries.
// *config.Config satisfies it.
type Registry interface {
	Provider(name string) (*config.Provider, bool)
}

// Dispatcher routes completion requests to the transport configured for
// the named provider. It is safe for concurrent use.
type Dispatcher struct {
	registry   Registry
	transports map[config.Transport]transport
	timeout    time.Duration
}

// NewDispatcher builds a dispatcher over the given registry with all
// built-in transports registered.
func NewDispatcher(registry Registry) *Dispatcher {
	client := newHTTPClient(DefaultTimeout)
	return &Dispatcher{
		registry: registry,
		transports: map[config.Transport]transport{
			config.TransportChat:     &chatTransport{client: client},
			config.TransportSDK:      &sdkTransport{},
			config.TransportGenerate: &generateTransport{client: client},
		},
		timeout: DefaultTimeout,
	}
}

// WithTimeout overrides the per-call timeout. Used by tests.
func (d *Dispatcher) WithTimeout(timeout time.Duration) *Dispatcher {
	d.timeout = timeout
	return d
}

// Dispatch resolves the provider, performs one completion call, and
// returns the normalized text. Configuration problems (unknown provider,
// missing credential, unavailable transport) fail before any network
// traffic.
func (d *Dispatcher) Dispatch(ctx context.Context, providerName string, req Request) (string, error) {
	p, ok := d.registry.Provider(providerName)
	if !ok {
		return "", &ConfigError{Provider: providerName, Reason: ErrUnknownProvider}
	}

	tr, ok := d.transports[p.Transport]
	if !ok {
		return "", &ConfigError{Provider: providerName, Reason: ErrMissingCapability}
	}

	// Local generate endpoints commonly run unauthenticated; everything
	// else needs a key before we go near the network.
	if p.Key == "" && p.Transport != config.TransportGenerate {
		return "", &ConfigError{Provider: providerName, Reason: ErrMissingCredential}
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	text, err := tr.complete(ctx, p, req)
	if err != nil {
		return "", err
	}
	return Normalize(text), nil
}
