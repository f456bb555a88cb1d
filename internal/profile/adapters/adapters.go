// Package adapters implements one Synchronizer per downstream consumer of
// profile data. Every adapter is idempotent: the worker re-invokes all of an
// operation's systems on retry, including ones that already succeeded.
package adapters

import (
	"fmt"

	"praxis/internal/profile/models"
	"praxis/internal/profile/ports"
	"praxis/pkg/platform/sentinel"
)

// Registry resolves the adapter serving each downstream system.
type Registry struct {
	adapters map[models.System]ports.Synchronizer
}

// NewRegistry indexes adapters by system, rejecting duplicates.
func NewRegistry(adapters ...ports.Synchronizer) (*Registry, error) {
	r := &Registry{adapters: make(map[models.System]ports.Synchronizer, len(adapters))}
	for _, a := range adapters {
		if _, dup := r.adapters[a.System()]; dup {
			return nil, fmt.Errorf("duplicate adapter for system %s", a.System())
		}
		r.adapters[a.System()] = a
	}
	return r, nil
}

// Lookup returns the adapter for a system.
func (r *Registry) Lookup(system models.System) (ports.Synchronizer, error) {
	a, ok := r.adapters[system]
	if !ok {
		return nil, fmt.Errorf("no adapter for system %s: %w", system, sentinel.ErrNotFound)
	}
	return a, nil
}
