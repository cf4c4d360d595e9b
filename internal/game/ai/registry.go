package ai

import (
	"fmt"
	"sort"

	"github.com/cory-johannsen/shipsim/internal/game/combat"
)

// Registry indexes firing policies by name.
//
// Invariant: each name is registered at most once.
type Registry struct {
	policies map[string]combat.FiringPolicy
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{policies: make(map[string]combat.FiringPolicy)}
}

// Register stores policy under name.
//
// Precondition: name must be non-empty; policy must not be nil.
// Postcondition: returns error on name collision.
func (r *Registry) Register(name string, policy combat.FiringPolicy) error {
	if name == "" || policy == nil {
		return fmt.Errorf("ai.Registry: name and policy are required")
	}
	if _, exists := r.policies[name]; exists {
		return fmt.Errorf("ai.Registry: policy %q already registered", name)
	}
	r.policies[name] = policy
	return nil
}

// Policy returns the policy registered under name, or false if none is.
func (r *Registry) Policy(name string) (combat.FiringPolicy, bool) {
	p, ok := r.policies[name]
	return p, ok
}

// Names returns every registered name in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.policies))
	for name := range r.policies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
