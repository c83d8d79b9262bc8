package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-printshop/internal/resilience"
)

func seededSource(t *testing.T) *MemorySource {
	t.Helper()
	src, err := NewMemorySource(SeedProducts()...)
	require.NoError(t, err)
	return src
}

func TestMemorySource(t *testing.T) {
	src := seededSource(t)
	ctx := context.Background()

	hat, err := src.Product(ctx, SeedCapID)
	require.NoError(t, err)
	require.Equal(t, "headwear", hat.Category)
	require.True(t, hat.BasePrice.Equal(decimal.NewFromInt(600)))
	require.Len(t, src.Products(), 5)

	_, err = src.Product(ctx, uuid.New())
	require.ErrorIs(t, err, ErrProductNotFound)
}

func TestMemorySourceRejectsBadProducts(t *testing.T) {
	p := SeedProducts()[0]

	_, err := NewMemorySource(p, p)
	require.ErrorContains(t, err, "duplicate")

	noID := p
	noID.ID = uuid.Nil
	_, err = NewMemorySource(noID)
	require.Error(t, err)

	negative := p
	negative.BasePrice = decimal.NewFromInt(-1)
	_, err = NewMemorySource(negative)
	require.Error(t, err)
}

func TestProductPricingView(t *testing.T) {
	p := SeedProducts()[0]
	view := p.Pricing()
	require.Equal(t, p.ID.String(), view.ID)
	require.Equal(t, p.Category, view.Category)
	require.True(t, p.BasePrice.Equal(view.BasePrice))

	view.Sizes[0] = "changed"
	require.NotEqual(t, "changed", p.Sizes[0])
}

type stubRow struct {
	values []any
	err    error
}

func (r stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		switch ptr := d.(type) {
		case *pgtype.UUID:
			*ptr = r.values[i].(pgtype.UUID)
		case *string:
			*ptr = r.values[i].(string)
		case *[]string:
			*ptr = r.values[i].([]string)
		default:
			return errors.New("unexpected scan target")
		}
	}
	return nil
}

type stubQuerier struct {
	row     stubRow
	gotSQL  string
	gotArgs []any
}

func (q *stubQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	q.gotSQL = sql
	q.gotArgs = args
	return q.row
}

func TestPostgresSource(t *testing.T) {
	id := uuid.New()
	q := &stubQuerier{row: stubRow{values: []any{
		pgtype.UUID{Bytes: id, Valid: true},
		"Pique Polo",
		"polo",
		"1499.99",
		[]string{"S", "M"},
		[]string{"navy"},
	}}}
	src, err := NewPostgresSource(q)
	require.NoError(t, err)

	p, err := src.Product(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, id, p.ID)
	require.Equal(t, "polo", p.Category)
	require.Equal(t, "1499.99", p.BasePrice.String())
	require.Equal(t, []string{"S", "M"}, p.Sizes)
	require.Contains(t, q.gotSQL, "FROM products")
	require.Equal(t, []any{id}, q.gotArgs)
}

func TestPostgresSourceErrors(t *testing.T) {
	ctx := context.Background()

	src, err := NewPostgresSource(&stubQuerier{row: stubRow{err: pgx.ErrNoRows}})
	require.NoError(t, err)
	_, err = src.Product(ctx, uuid.New())
	require.ErrorIs(t, err, ErrProductNotFound)

	boom := errors.New("connection reset")
	src, err = NewPostgresSource(&stubQuerier{row: stubRow{err: boom}})
	require.NoError(t, err)
	_, err = src.Product(ctx, uuid.New())
	require.ErrorIs(t, err, boom)

	src, err = NewPostgresSource(&stubQuerier{row: stubRow{values: []any{
		pgtype.UUID{Bytes: uuid.New(), Valid: true}, "Tee", "t-shirt", "-5", []string{}, []string{},
	}}})
	require.NoError(t, err)
	_, err = src.Product(ctx, uuid.New())
	require.ErrorContains(t, err, "negative")

	_, err = NewPostgresSource(nil)
	require.Error(t, err)
}

type countingSource struct {
	Source
	calls int
}

func (c *countingSource) Product(ctx context.Context, id uuid.UUID) (Product, error) {
	c.calls++
	return c.Source.Product(ctx, id)
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestCachedSourceReadsThrough(t *testing.T) {
	mr, client := newRedis(t)
	backing := &countingSource{Source: seededSource(t)}
	src, err := NewCachedSource(backing, NewCache(client, time.Minute), zerolog.Nop())
	require.NoError(t, err)
	ctx := context.Background()

	first, err := src.Product(ctx, SeedToteID)
	require.NoError(t, err)
	second, err := src.Product(ctx, SeedToteID)
	require.NoError(t, err)

	require.Equal(t, 1, backing.calls)
	require.Equal(t, first.ID, second.ID)
	require.True(t, first.BasePrice.Equal(second.BasePrice))
	require.True(t, mr.Exists(productCacheKey(SeedToteID)))
	require.Equal(t, time.Minute, mr.TTL(productCacheKey(SeedToteID)))

	require.NoError(t, src.Invalidate(ctx, SeedToteID))
	_, err = src.Product(ctx, SeedToteID)
	require.NoError(t, err)
	require.Equal(t, 2, backing.calls)
}

func TestCachedSourceDoesNotCacheMisses(t *testing.T) {
	mr, client := newRedis(t)
	src, err := NewCachedSource(seededSource(t), NewCache(client, time.Minute), zerolog.Nop())
	require.NoError(t, err)

	id := uuid.New()
	_, err = src.Product(context.Background(), id)
	require.ErrorIs(t, err, ErrProductNotFound)
	require.False(t, mr.Exists(productCacheKey(id)))
}

func TestCachedSourceFallsThroughWhenRedisIsDown(t *testing.T) {
	mr, client := newRedis(t)
	backing := &countingSource{Source: seededSource(t)}
	src, err := NewCachedSource(backing, NewCache(client, time.Minute), zerolog.Nop())
	require.NoError(t, err)
	mr.Close()

	p, err := src.Product(context.Background(), SeedHoodieID)
	require.NoError(t, err)
	require.Equal(t, SeedHoodieID, p.ID)
	require.Equal(t, 1, backing.calls)
}

func TestNilCacheAlwaysMisses(t *testing.T) {
	var c *Cache
	ok, err := c.GetJSON(context.Background(), "k", &Product{})
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, c.SetJSON(context.Background(), "k", Product{}))
	require.NoError(t, c.Delete(context.Background(), "k"))
}

type failingSource struct{ err error }

func (f failingSource) Product(context.Context, uuid.UUID) (Product, error) {
	return Product{}, f.err
}

func TestBreakerSourceOpensOnDependencyFailures(t *testing.T) {
	breaker := resilience.NewBreaker(resilience.Config{Target: "catalog_test", MinRequests: 2, OpenFor: time.Hour})
	src, err := NewBreakerSource(failingSource{err: errors.New("pool exhausted")}, breaker)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = src.Product(ctx, uuid.New())
	require.ErrorContains(t, err, "pool exhausted")
	_, err = src.Product(ctx, uuid.New())
	require.ErrorContains(t, err, "pool exhausted")

	_, err = src.Product(ctx, uuid.New())
	require.ErrorIs(t, err, resilience.ErrOpenCircuit)
}

func TestBreakerSourceIgnoresMisses(t *testing.T) {
	breaker := resilience.NewBreaker(resilience.Config{Target: "catalog_test", MinRequests: 2, OpenFor: time.Hour})
	src, err := NewBreakerSource(seededSource(t), breaker)
	require.NoError(t, err)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err = src.Product(ctx, uuid.New())
		require.ErrorIs(t, err, ErrProductNotFound)
	}
	p, err := src.Product(ctx, SeedPoloID)
	require.NoError(t, err)
	require.Equal(t, "polo", p.Category)
	require.Equal(t, resilience.Closed, breaker.State())
}
