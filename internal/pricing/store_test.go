package pricing

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewStoreRequiresTables(t *testing.T) {
	_, err := NewStore(nil)
	require.Error(t, err)
}

func TestStoreSwap(t *testing.T) {
	first := DefaultRateTables()
	store, err := NewStore(first)
	require.NoError(t, err)

	cfg := DefaultRateConfig()
	cfg.PlatformFeeRate = 0.05
	second := MustRateTables(cfg)

	prev, err := store.Swap(second)
	require.NoError(t, err)
	require.Same(t, first, prev)
	require.Same(t, second, store.Current())

	_, err = store.Swap(nil)
	require.Error(t, err)
	require.Same(t, second, store.Current())
}

func TestEngineUsesActiveSnapshot(t *testing.T) {
	store, err := NewStore(DefaultRateTables())
	require.NoError(t, err)
	engine := NewEngine(store)

	b, rt, err := engine.ComputePrice(screenPrintFactors(10))
	require.NoError(t, err)
	require.Equal(t, store.Current().Version(), rt.Version())
	requireAmount(t, "total", b.Total, "11628")

	cfg := DefaultRateConfig()
	cfg.PlatformFeeRate = 0
	_, err = store.Swap(MustRateTables(cfg))
	require.NoError(t, err)

	b, _, err = engine.ComputePrice(screenPrintFactors(10))
	require.NoError(t, err)
	requireAmount(t, "total without fee", b.Total, "11400")
	require.Equal(t, MinimumCheck{Valid: false, MinQuantity: 10}, engine.ValidateMinimum("screen_printing", 9))
}

func TestEngineConcurrentReadsDuringSwaps(t *testing.T) {
	store, err := NewStore(DefaultRateTables())
	require.NoError(t, err)
	engine := NewEngine(store)

	feeCfg := DefaultRateConfig()
	feeCfg.PlatformFeeRate = 0
	alternates := []*RateTables{DefaultRateTables(), MustRateTables(feeCfg)}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			_, _ = store.Swap(alternates[i%2])
		}
	}()
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				tiers, rt, err := engine.ProjectBulkTiers(screenPrintFactors(1))
				if err != nil {
					t.Errorf("project: %v", err)
					return
				}
				direct, err := rt.ComputePrice(screenPrintFactors(10))
				if err != nil {
					t.Errorf("compute: %v", err)
					return
				}
				if !direct.Total.Equal(tiers[1].TotalPrice) {
					t.Errorf("bulk projection mixed snapshots: %s vs %s", direct.Total, tiers[1].TotalPrice)
					return
				}
			}
		}()
	}
	wg.Wait()
}
