package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-printshop/internal/resilience"
)

// BreakerSource guards a remote Source with a circuit breaker. Misses and
// cancelled requests do not count as dependency failures.
type BreakerSource struct {
	next    Source
	breaker *resilience.Breaker
}

// NewBreakerSource wraps next.
func NewBreakerSource(next Source, breaker *resilience.Breaker) (*BreakerSource, error) {
	if next == nil || breaker == nil {
		return nil, errors.New("catalog: source and breaker are required")
	}
	return &BreakerSource{next: next, breaker: breaker}, nil
}

// Product implements Source. It returns resilience.ErrOpenCircuit while the
// breaker is open.
func (s *BreakerSource) Product(ctx context.Context, id uuid.UUID) (Product, error) {
	var p Product
	err := s.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		p, err = s.next.Product(ctx, id)
		return err
	}, countsAsFailure)
	if err != nil {
		return Product{}, err
	}
	return p, nil
}

func countsAsFailure(err error) bool {
	return !errors.Is(err, ErrProductNotFound) &&
		!errors.Is(err, context.Canceled)
}
