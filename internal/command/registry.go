// Package command maps chat commands and their aliases to conversation handlers.
package command

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/memohai/searcharr/internal/conversation"
	"github.com/memohai/searcharr/internal/render"
)

var ErrDuplicateCommand = errors.New("command already registered")

// Invocation is one command message after the transport stripped entities.
type Invocation struct {
	Caller conversation.Caller
	Name   string
	Args   string
}

// Handler answers one command.
type Handler func(ctx context.Context, inv Invocation) (render.Response, error)

// Registry holds command handlers by name. It is built once at startup.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{handlers: map[string]Handler{}}
}

// Register binds handler to every name. Registration is all or nothing.
func (r *Registry) Register(handler Handler, names ...string) error {
	if handler == nil {
		return errors.New("handler is nil")
	}
	if len(names) == 0 {
		return errors.New("command name is required")
	}
	normalized := make([]string, 0, len(names))
	seen := map[string]struct{}{}
	for _, name := range names {
		n := normalizeName(name)
		if n == "" {
			return errors.New("command name is required")
		}
		if _, dup := seen[n]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateCommand, n)
		}
		seen[n] = struct{}{}
		normalized = append(normalized, n)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range normalized {
		if _, exists := r.handlers[n]; exists {
			return fmt.Errorf("%w: %s", ErrDuplicateCommand, n)
		}
	}
	for _, n := range normalized {
		r.handlers[n] = handler
	}
	return nil
}

// Get returns the handler registered under name.
func (r *Registry) Get(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[normalizeName(name)]
	return h, ok
}

// Names lists every registered command, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for n := range r.handlers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "/"))
}
