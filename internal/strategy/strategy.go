// Package strategy defines the Strategy interface for rule-based signal
// generation and provides a Registry for managing multiple strategy
// implementations.
package strategy

import (
	"sort"

	"medallion/internal/domain"
)

// Strategy converts a feature series into a tradable position series.
type Strategy interface {
	// Name returns the unique identifier for this strategy. It also names
	// the persisted insights artifact.
	Name() string

	// Positions returns the tradable position (Flat or Long) for every row.
	// Implementations must not look ahead: the position at index t may
	// depend only on rows 0..t-1.
	Positions(rows []domain.FeatureRow) []int
}

// Registry holds a named collection of strategies for lookup and enumeration.
type Registry struct {
	strategies map[string]Strategy
}

// NewRegistry creates an empty strategy Registry.
func NewRegistry() *Registry {
	return &Registry{
		strategies: make(map[string]Strategy),
	}
}

// Register adds a strategy to the registry, keyed by its Name().
func (r *Registry) Register(s Strategy) {
	r.strategies[s.Name()] = s
}

// Get retrieves a strategy by name. The second return value indicates whether
// the strategy was found.
func (r *Registry) Get(name string) (Strategy, bool) {
	s, ok := r.strategies[name]
	return s, ok
}

// List returns a sorted slice of all registered strategy names.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
