package schema

import (
	"fmt"

	"github.com/go-extras/go-kit/must"
)

// Registry holds the entity definitions for a run. Entities are kept in
// declaration order, which for the built-ins is the load dependency order
// (accounts before contacts before intern roles), so reference columns always
// point at rows loaded earlier in the same run or a prior one.
type Registry struct {
	entities []Entity
	byName   map[string]int
}

// NewRegistry validates the given entities and builds a registry from them.
func NewRegistry(entities ...Entity) (*Registry, error) {
	r := &Registry{byName: make(map[string]int, len(entities))}
	for _, e := range entities {
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("invalid entity definition: %w", err)
		}
		if _, dup := r.byName[e.Name]; dup {
			return nil, fmt.Errorf("duplicate entity %q", e.Name)
		}
		r.byName[e.Name] = len(r.entities)
		r.entities = append(r.entities, e)
	}
	return r, nil
}

// DefaultRegistry returns the built-in entity set in dependency order. The
// built-ins are static, so assembling them cannot fail.
func DefaultRegistry() *Registry {
	return must.Must(NewRegistry(EntityAccount, EntityContact, EntityInternRole, EntityDocument, EntitySyncRun))
}

// Entity looks up an entity by name.
func (r *Registry) Entity(name string) (Entity, bool) {
	i, ok := r.byName[name]
	if !ok {
		return Entity{}, false
	}
	return r.entities[i], true
}

// Entities returns all entities in declaration order. The returned slice is a
// copy and may be modified by the caller.
func (r *Registry) Entities() []Entity {
	out := make([]Entity, len(r.entities))
	copy(out, r.entities)
	return out
}

// SyncOrder returns the CRM-backed entities in dependency order, skipping
// locally maintained tables.
func (r *Registry) SyncOrder() []Entity {
	var out []Entity
	for _, e := range r.entities {
		if e.APIModule != "" {
			out = append(out, e)
		}
	}
	return out
}
