package render

import (
	"errors"
	"fmt"
	"maps"
	"mime"
	"slices"
	"strings"
	"sync"
)

// ErrUnknownRenderer is returned by Get for names nothing registered.
var ErrUnknownRenderer = errors.New("render: unknown renderer")

// Registry holds the renderers a form can be produced with, keyed by name.
// The first one added answers requests that name none.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]Renderer
	first  string
}

func NewRegistry() *Registry {
	return &Registry{byName: map[string]Renderer{}}
}

// Register adds renderer under its name. A name can only be taken once.
func (r *Registry) Register(renderer Renderer) error {
	if renderer == nil || renderer.Name() == "" {
		return errors.New("render: renderer needs a name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	name := renderer.Name()
	if r.byName[name] != nil {
		return fmt.Errorf("render: %q registered twice", name)
	}
	r.byName[name] = renderer
	if r.first == "" {
		r.first = name
	}
	return nil
}

// MustRegister is Register for wiring code that cannot recover.
func (r *Registry) MustRegister(renderer Renderer) {
	if err := r.Register(renderer); err != nil {
		panic(err)
	}
}

// Get looks a renderer up by name; "" means the first one registered.
func (r *Registry) Get(name string) (Renderer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if name == "" {
		name = r.first
	}
	if renderer := r.byName[name]; renderer != nil {
		return renderer, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownRenderer, name)
}

// Negotiate picks the renderer whose content type appears first in an Accept
// header, falling back to the default. Quality values are not weighed.
func (r *Registry) Negotiate(accept string) (Renderer, error) {
	r.mu.RLock()
	byType := make(map[string]Renderer, len(r.byName))
	for _, renderer := range r.byName {
		if mediaType, _, err := mime.ParseMediaType(renderer.ContentType()); err == nil {
			byType[mediaType] = renderer
		}
	}
	r.mu.RUnlock()

	for _, part := range strings.Split(accept, ",") {
		mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		if renderer, ok := byType[mediaType]; ok {
			return renderer, nil
		}
	}
	return r.Get("")
}

// List returns the registered names in order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.byName))
}

func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byName[name] != nil
}
