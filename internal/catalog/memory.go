package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-printshop/internal/obs"
)

// MemorySource is a read-only in-process catalog.
type MemorySource struct {
	products map[uuid.UUID]Product
}

// NewMemorySource indexes products by id. Duplicate ids are rejected.
func NewMemorySource(products ...Product) (*MemorySource, error) {
	m := &MemorySource{products: make(map[uuid.UUID]Product, len(products))}
	for _, p := range products {
		if p.ID == uuid.Nil {
			return nil, fmt.Errorf("catalog: product %q has no id", p.Name)
		}
		if _, dup := m.products[p.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate product id %s", p.ID)
		}
		if p.BasePrice.IsNegative() {
			return nil, fmt.Errorf("catalog: product %s has a negative base price", p.ID)
		}
		m.products[p.ID] = p
	}
	return m, nil
}

// Product implements Source.
func (m *MemorySource) Product(_ context.Context, id uuid.UUID) (Product, error) {
	start := time.Now()
	p, ok := m.products[id]
	if !ok {
		obs.ObserveCatalogLookup("memory", "miss", obs.DurationMillis(time.Since(start)))
		return Product{}, ErrProductNotFound
	}
	obs.ObserveCatalogLookup("memory", "hit", obs.DurationMillis(time.Since(start)))
	return p, nil
}

// Products returns every product in the source, in no particular order.
func (m *MemorySource) Products() []Product {
	out := make([]Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	return out
}

// Seed ids are stable so local clients can hard-code them.
var (
	SeedClassicTeeID = uuid.MustParse("6f1c2a4e-3b7d-4c1a-9e8f-0a1b2c3d4e01")
	SeedHoodieID     = uuid.MustParse("6f1c2a4e-3b7d-4c1a-9e8f-0a1b2c3d4e02")
	SeedCapID        = uuid.MustParse("6f1c2a4e-3b7d-4c1a-9e8f-0a1b2c3d4e03")
	SeedPoloID       = uuid.MustParse("6f1c2a4e-3b7d-4c1a-9e8f-0a1b2c3d4e04")
	SeedToteID       = uuid.MustParse("6f1c2a4e-3b7d-4c1a-9e8f-0a1b2c3d4e05")
)

// SeedProducts is the development catalog used when no database is configured.
func SeedProducts() []Product {
	apparelSizes := []string{"XS", "S", "M", "L", "XL", "XXL", "XXXL"}
	return []Product{
		{
			ID:        SeedClassicTeeID,
			Name:      "Classic Cotton Tee",
			Category:  "t-shirt",
			BasePrice: decimal.NewFromInt(800),
			Sizes:     apparelSizes,
			Colors:    []string{"white", "black", "navy", "red"},
		},
		{
			ID:        SeedHoodieID,
			Name:      "Pullover Hoodie",
			Category:  "hoodie",
			BasePrice: decimal.NewFromInt(2500),
			Sizes:     apparelSizes,
			Colors:    []string{"black", "grey", "maroon"},
		},
		{
			ID:        SeedCapID,
			Name:      "Six Panel Cap",
			Category:  "headwear",
			BasePrice: decimal.NewFromInt(600),
			Sizes:     []string{"ONE-SIZE"},
			Colors:    []string{"black", "khaki", "white"},
		},
		{
			ID:        SeedPoloID,
			Name:      "Pique Polo",
			Category:  "polo",
			BasePrice: decimal.NewFromInt(1500),
			Sizes:     apparelSizes,
			Colors:    []string{"white", "navy", "green"},
		},
		{
			ID:        SeedToteID,
			Name:      "Canvas Tote Bag",
			Category:  "bag",
			BasePrice: decimal.RequireFromString("450.50"),
			Sizes:     []string{"ONE-SIZE"},
			Colors:    []string{"natural", "black"},
		},
	}
}
