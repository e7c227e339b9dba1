// Package mail sends rendered distribution emails. It uses the strategy
// pattern to support multiple providers (SMTP, SES, Resend) behind one
// registry with primary/fallback selection.
package mail

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
)

// Attachment is one file carried by a message.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Message is a fully rendered, addressed email ready to send.
type Message struct {
	From        string
	To          []string
	Subject     string
	HTML        string
	Attachments []Attachment
}

// Transport is the outbound sending contract the pipeline depends on.
type Transport interface {
	Send(ctx context.Context, msg *Message) error
}

// Provider is the interface each email backend implements.
type Provider interface {
	// Name returns the provider name (e.g., "smtp", "ses", "resend").
	Name() string

	// Send sends a message using this provider.
	Send(ctx context.Context, msg *Message) error

	// IsConfigured returns true if the provider is usable as configured.
	IsConfigured() bool
}

// Registry manages email providers with fallback support. It implements
// Transport by routing to the best available provider.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	primary   string
	fallback  []string
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds a provider to the registry.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
	slog.Info("Registered mail provider", "name", p.Name(), "configured", p.IsConfigured())
}

// SetPrimary sets the primary provider by name.
func (r *Registry) SetPrimary(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.providers[name]; !ok {
		return fmt.Errorf("mail provider %q not registered", name)
	}
	r.primary = name
	slog.Info("Set primary mail provider", "name", name)
	return nil
}

// SetFallback sets the fallback providers, tried in order.
func (r *Registry) SetFallback(names ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range names {
		if _, ok := r.providers[name]; !ok {
			return fmt.Errorf("mail provider %q not registered", name)
		}
	}
	r.fallback = names
	return nil
}

// Get returns a provider by name.
func (r *Registry) Get(name string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	return p, ok
}

// GetPrimary returns the primary configured provider, falling back to other
// configured providers when the primary is unusable.
func (r *Registry) GetPrimary() (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.primary != "" {
		if p, ok := r.providers[r.primary]; ok && p.IsConfigured() {
			return p, nil
		}
	}

	for _, name := range r.fallback {
		if p, ok := r.providers[name]; ok && p.IsConfigured() {
			slog.Warn("Primary mail provider not configured, using fallback",
				"primary", r.primary,
				"fallback", name,
			)
			return p, nil
		}
	}

	for name, p := range r.providers {
		if p.IsConfigured() {
			slog.Warn("Using first available mail provider", "name", name)
			return p, nil
		}
	}

	return nil, fmt.Errorf("no configured mail provider available")
}

// Send sends a message through the best available provider, trying
// fallbacks in order when the primary rejects it.
func (r *Registry) Send(ctx context.Context, msg *Message) error {
	if len(msg.To) == 0 {
		return fmt.Errorf("no recipients specified")
	}

	primary, err := r.GetPrimary()
	if err != nil {
		return err
	}

	err = primary.Send(ctx, msg)
	if err == nil {
		return nil
	}

	r.mu.RLock()
	fallbacks := append([]string(nil), r.fallback...)
	r.mu.RUnlock()

	for _, name := range fallbacks {
		p, ok := r.Get(name)
		if !ok || !p.IsConfigured() || p.Name() == primary.Name() {
			continue
		}
		slog.Warn("Primary mail provider failed, trying fallback",
			"primary", primary.Name(),
			"fallback", name,
			"error", err,
		)
		if fallbackErr := p.Send(ctx, msg); fallbackErr == nil {
			return nil
		}
	}
	return err
}

var _ Transport = (*Registry)(nil)

// getEnvOrDefault returns an environment variable or a default value.
func getEnvOrDefault(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultValue
}
