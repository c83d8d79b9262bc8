package pricing

import (
	"errors"
	"sync/atomic"
)

// Store holds the active RateTables snapshot. Readers always observe one
// complete snapshot; reloads replace the pointer and never touch a table in place.
type Store struct {
	current atomic.Pointer[RateTables]
}

// NewStore constructs a Store seeded with initial.
func NewStore(initial *RateTables) (*Store, error) {
	if initial == nil {
		return nil, errors.New("pricing: initial rate tables are required")
	}
	s := &Store{}
	s.current.Store(initial)
	return s, nil
}

// Current returns the active snapshot.
func (s *Store) Current() *RateTables {
	return s.current.Load()
}

// Swap installs next and returns the snapshot it replaced.
func (s *Store) Swap(next *RateTables) (*RateTables, error) {
	if next == nil {
		return nil, errors.New("pricing: cannot swap in nil rate tables")
	}
	return s.current.Swap(next), nil
}

// Engine runs pricing operations against whatever snapshot is active when
// each call starts.
type Engine struct {
	store *Store
}

// NewEngine constructs an Engine backed by store.
func NewEngine(store *Store) *Engine {
	return &Engine{store: store}
}

// Rates returns the snapshot a call made now would use.
func (e *Engine) Rates() *RateTables {
	return e.store.Current()
}

// ComputePrice prices f against the active snapshot.
func (e *Engine) ComputePrice(f Factors) (PriceBreakdown, *RateTables, error) {
	rt := e.store.Current()
	breakdown, err := rt.ComputePrice(f)
	return breakdown, rt, err
}

// ProjectBulkTiers projects bulk pricing against a single snapshot.
func (e *Engine) ProjectBulkTiers(f Factors) ([]BulkTier, *RateTables, error) {
	rt := e.store.Current()
	tiers, err := rt.ProjectBulkTiers(f)
	return tiers, rt, err
}

// ValidateMinimum checks a branding minimum against the active snapshot.
func (e *Engine) ValidateMinimum(brandingMethod string, quantity int) MinimumCheck {
	return e.store.Current().ValidateMinimum(brandingMethod, quantity)
}
