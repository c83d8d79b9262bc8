package rateconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-printshop/internal/pricing"
)

const overrideYAML = `
currency: usd
platform_fee_rate: 0.03
size_multipliers:
  XXXXL: 1.5
branding_methods:
  screen_printing:
    base_cost: 250
    complexity_multiplier: 1
    min_quantity: 12
discount_tiers:
  - {min: 1, max: 49, rate: 0}
  - {min: 50, max: 0, rate: 0.1}
`

func writeFile(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "rates.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	rt, err := Load("")
	require.NoError(t, err)
	require.Equal(t, pricing.DefaultRateTables().Version(), rt.Version())
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := writeFile(t, t.TempDir(), overrideYAML)
	rt, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "USD", rt.Currency())
	require.Equal(t, "0.03", rt.PlatformFeeRate().String())
	require.Equal(t, "1.5", rt.SizeMultiplier("XXXXL").String())
	require.Equal(t, "1.2", rt.SizeMultiplier("XL").String(), "default sizes survive the merge")

	minQty, ok := rt.MinQuantity(pricing.BrandingScreenPrinting)
	require.True(t, ok)
	require.Equal(t, 12, minQty)
	embroideryMin, ok := rt.MinQuantity(pricing.BrandingEmbroidery)
	require.True(t, ok)
	require.Equal(t, 5, embroideryMin)

	require.Equal(t, "0", rt.DiscountRate(25).String(), "tier list replaced, not merged")
	require.Equal(t, "0.1", rt.DiscountRate(500).String())
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "discount_tiers:\n  - {min: 2, max: 0, rate: 0.1}\n")
	_, err := Load(path)
	require.ErrorIs(t, err, pricing.ErrInvalidRates)

	path = writeFile(t, t.TempDir(), "size_multipliers:\n  xl: 1.3\n")
	_, err = Load(path)
	require.ErrorIs(t, err, pricing.ErrInvalidRates, "xl collides with the default XL")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestReloaderKeepsSnapshotOnInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, overrideYAML)
	store, err := pricing.NewStore(pricing.DefaultRateTables())
	require.NoError(t, err)
	r := &Reloader{Path: path, Store: store, Logger: zerolog.Nop()}

	next, err := r.Reload()
	require.NoError(t, err)
	require.Equal(t, next.Version(), store.Current().Version())
	require.Equal(t, "USD", store.Current().Currency())

	writeFile(t, dir, "platform_fee_rate: -1\n")
	_, err = r.Reload()
	require.ErrorIs(t, err, pricing.ErrInvalidRates)
	require.Equal(t, next.Version(), store.Current().Version())
}

func TestReloaderRequiresStore(t *testing.T) {
	r := &Reloader{Logger: zerolog.Nop()}
	_, err := r.Reload()
	require.Error(t, err)

	_, err = r.Watch()
	require.Error(t, err)
}

func TestWatchAppliesFileChanges(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "platform_fee_rate: 0.02\n")
	initial, err := Load(path)
	require.NoError(t, err)
	store, err := pricing.NewStore(initial)
	require.NoError(t, err)

	r := &Reloader{Path: path, Store: store, Logger: zerolog.Nop()}
	watcher, err := r.Watch()
	require.NoError(t, err)
	t.Cleanup(func() { _ = watcher.Unwatch() })

	writeFile(t, dir, "platform_fee_rate: 0.04\n")
	require.Eventually(t, func() bool {
		return store.Current().PlatformFeeRate().String() == "0.04"
	}, 5*time.Second, 20*time.Millisecond)
}
