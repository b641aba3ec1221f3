// Package permission routes platform capability requests to pluggable backends.
package permission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Capability names a platform capability the front-end may ask for.
type Capability string

const (
	CapabilityMicrophone Capability = "microphone"
)

// ErrUnsupported is returned when no backend handles a capability.
var ErrUnsupported = errors.New("unsupported capability")

// Requester asks the platform for a capability.
type Requester interface {
	Request(ctx context.Context, c Capability) (bool, error)
}

// RequesterFunc adapts a function to Requester.
type RequesterFunc func(ctx context.Context, c Capability) (bool, error)

// Request calls f.
func (f RequesterFunc) Request(ctx context.Context, c Capability) (bool, error) {
	return f(ctx, c)
}

// Static answers every request with the same decision without asking the OS.
type Static struct {
	Granted bool
}

// Request returns s.Granted.
func (s Static) Request(_ context.Context, _ Capability) (bool, error) {
	return s.Granted, nil
}

// Broker dispatches requests to the backend registered for each capability.
type Broker struct {
	mu       sync.RWMutex
	backends map[Capability]Requester
	logger   *slog.Logger
}

// NewBroker creates an empty broker.
func NewBroker(logger *slog.Logger) *Broker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broker{
		backends: make(map[Capability]Requester),
		logger:   logger,
	}
}

// NewDefaultBroker creates a broker that grants the microphone without
// consulting the platform.
func NewDefaultBroker(logger *slog.Logger) *Broker {
	b := NewBroker(logger)
	b.Register(CapabilityMicrophone, Static{Granted: true})
	return b
}

// Register sets the backend for a capability, replacing any previous one.
func (b *Broker) Register(c Capability, r Requester) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.backends[c] = r
}

// Request asks the registered backend for c.
func (b *Broker) Request(ctx context.Context, c Capability) (bool, error) {
	b.mu.RLock()
	r, ok := b.backends[c]
	b.mu.RUnlock()

	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnsupported, c)
	}

	granted, err := r.Request(ctx, c)
	if err != nil {
		return false, fmt.Errorf("failed to request %s permission: %w", c, err)
	}

	b.logger.Debug("permission requested", "capability", c, "granted", granted)
	return granted, nil
}

// RequestMicrophone is shorthand for Request(ctx, CapabilityMicrophone).
func (b *Broker) RequestMicrophone(ctx context.Context) (bool, error) {
	return b.Request(ctx, CapabilityMicrophone)
}
