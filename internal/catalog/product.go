package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-printshop/internal/pricing"
)

// ErrProductNotFound is returned when no product has the requested id.
var ErrProductNotFound = errors.New("catalog: product not found")

// Product is a customisable catalog item with its base unit price.
type Product struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	BasePrice decimal.Decimal `json:"basePrice"`
	Sizes     []string        `json:"sizes"`
	Colors    []string        `json:"colors"`
}

// Pricing returns the view of p the pricing engine works with.
func (p Product) Pricing() pricing.Product {
	return pricing.Product{
		ID:        p.ID.String(),
		Name:      p.Name,
		Category:  p.Category,
		BasePrice: p.BasePrice,
		Sizes:     append([]string(nil), p.Sizes...),
		Colors:    append([]string(nil), p.Colors...),
	}
}

// Source resolves products by id.
type Source interface {
	Product(ctx context.Context, id uuid.UUID) (Product, error)
}
