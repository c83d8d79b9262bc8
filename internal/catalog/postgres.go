package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// RowQuerier is the subset of pgxpool.Pool used by PostgresSource.
type RowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const productByIDSQL = `SELECT id, name, category, base_price::text, sizes, colors
FROM products
WHERE id = $1 AND deleted_at IS NULL`

// PostgresSource reads products from the catalog database.
type PostgresSource struct {
	db RowQuerier
}

// NewPostgresSource constructs a Postgres-backed source.
func NewPostgresSource(db RowQuerier) (*PostgresSource, error) {
	if db == nil {
		return nil, errors.New("catalog: database is required")
	}
	return &PostgresSource{db: db}, nil
}

// Product implements Source.
func (s *PostgresSource) Product(ctx context.Context, id uuid.UUID) (Product, error) {
	var (
		rowID    pgtype.UUID
		name     string
		category string
		price    string
		sizes    []string
		colors   []string
	)
	err := s.db.QueryRow(ctx, productByIDSQL, id).Scan(&rowID, &name, &category, &price, &sizes, &colors)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrProductNotFound
		}
		return Product{}, fmt.Errorf("query product %s: %w", id, err)
	}
	base, err := decimal.NewFromString(price)
	if err != nil {
		return Product{}, fmt.Errorf("product %s base price %q: %w", id, price, err)
	}
	if base.IsNegative() {
		return Product{}, fmt.Errorf("product %s has a negative base price", id)
	}
	return Product{
		ID:        uuid.UUID(rowID.Bytes),
		Name:      name,
		Category:  category,
		BasePrice: base,
		Sizes:     sizes,
		Colors:    colors,
	}, nil
}
