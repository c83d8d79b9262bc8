package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestProjectBulkTiers(t *testing.T) {
	rt := DefaultRateTables()
	tiers, err := rt.ProjectBulkTiers(screenPrintFactors(3))
	require.NoError(t, err)
	require.Len(t, tiers, 6)

	for i, qty := range []int{1, 10, 25, 50, 100, 200} {
		require.Equal(t, qty, tiers[i].Quantity)
		direct, err := rt.ComputePrice(screenPrintFactors(qty))
		require.NoError(t, err)
		require.True(t, direct.Total.Equal(tiers[i].TotalPrice))
		require.True(t, direct.PricePerUnit.Equal(tiers[i].PricePerUnit))
		require.True(t, direct.Savings.Equal(tiers[i].Savings))
		if i > 0 {
			require.True(t, tiers[i].PricePerUnit.LessThanOrEqual(tiers[i-1].PricePerUnit))
		}
	}
	requireAmount(t, "10 units", tiers[1].TotalPrice, "11628")
}

func TestProjectBulkTiersPropagatesErrors(t *testing.T) {
	rt := DefaultRateTables()
	f := screenPrintFactors(1)
	f.DesignComplexity = "unknown"
	_, err := rt.ProjectBulkTiers(f)
	require.ErrorIs(t, err, ErrUnknownComplexity)
}

func TestBulkQuantitiesIsACopy(t *testing.T) {
	q := BulkQuantities()
	q[0] = 999
	require.Equal(t, 1, BulkQuantities()[0])
}

func TestEstimateDelivery(t *testing.T) {
	cases := []struct {
		name    string
		factors Factors
		min     int
		desc    string
	}{
		{name: "baseline", factors: Factors{BrandingMethod: "digital_printing", Quantity: 10}, min: 3, desc: "3-5 business days"},
		{name: "embroidery", factors: Factors{BrandingMethod: "embroidery", Quantity: 10}, min: 4},
		{name: "ai", factors: Factors{BrandingMethod: "none", Quantity: 1, IsAIGenerated: true}, min: 4},
		{name: "screen print small run", factors: Factors{BrandingMethod: "screen_printing", Quantity: 50}, min: 3},
		// +2 for screen printing over 50, +1 for the 51-100 band.
		{name: "screen print 51", factors: Factors{BrandingMethod: "screen_printing", Quantity: 51}, min: 6},
		{name: "volume 100 is the lower band", factors: Factors{BrandingMethod: "digital_printing", Quantity: 100}, min: 4},
		// Bands are exclusive: only +2, never +2 and +1.
		{name: "volume 101 is the upper band only", factors: Factors{BrandingMethod: "digital_printing", Quantity: 101}, min: 5},
		{name: "everything", factors: Factors{BrandingMethod: "screen_printing", Quantity: 150, IsAIGenerated: true}, min: 8},
		{name: "rush halves rounding up", factors: Factors{BrandingMethod: "screen_printing", Quantity: 150, IsAIGenerated: true, RushOrder: true}, min: 4, desc: "4-6 business days (Rush Order)"},
		{name: "rush odd", factors: Factors{BrandingMethod: "digital_printing", Quantity: 10, RushOrder: true}, min: 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			est := EstimateDelivery(tc.factors)
			require.Equal(t, tc.min, est.MinDays)
			require.Equal(t, tc.min+2, est.MaxDays)
			if tc.desc != "" {
				require.Equal(t, tc.desc, est.Description)
			}
		})
	}
}

func TestRecommendBranding(t *testing.T) {
	tee := Product{Category: "t-shirt"}
	hat := Product{Category: "Headwear"}
	polo := Product{Category: "polo"}
	cases := []struct {
		name       string
		product    Product
		quantity   int
		complexity Complexity
		want       BrandingMethod
	}{
		{"bulk simple", tee, 25, ComplexitySimple, BrandingScreenPrinting},
		{"bulk simple beats category", hat, 100, ComplexitySimple, BrandingScreenPrinting},
		{"complex", hat, 5, ComplexityComplex, BrandingDigitalPrinting},
		{"mid volume", hat, 10, ComplexityMedium, BrandingDigitalPrinting},
		{"mid volume simple under 25", tee, 24, ComplexitySimple, BrandingDigitalPrinting},
		{"headwear small", hat, 3, ComplexityMedium, BrandingEmbroidery},
		{"polo large", polo, 60, ComplexityMedium, BrandingEmbroidery},
		{"small run", tee, 9, ComplexityMedium, BrandingHeatTransfer},
		{"default", tee, 50, ComplexityMedium, BrandingDigitalPrinting},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, RecommendBranding(tc.product, tc.quantity, tc.complexity))
		})
	}
}

func TestValidateMinimum(t *testing.T) {
	rt := DefaultRateTables()
	require.Equal(t, MinimumCheck{Valid: true, MinQuantity: 10}, rt.ValidateMinimum("screen_printing", 10))
	require.Equal(t, MinimumCheck{Valid: false, MinQuantity: 5}, rt.ValidateMinimum("embroidery", 4))
	require.Equal(t, MinimumCheck{Valid: true, MinQuantity: 1}, rt.ValidateMinimum("none", 1))
	require.Equal(t, MinimumCheck{Valid: false, MinQuantity: 1}, rt.ValidateMinimum("sublimation", 500))
}

func TestValidateMinimumUnconfiguredMethod(t *testing.T) {
	cfg := DefaultRateConfig()
	delete(cfg.BrandingMethods, string(BrandingHeatTransfer))
	rt := MustRateTables(cfg)
	require.Equal(t, MinimumCheck{Valid: false, MinQuantity: 1}, rt.ValidateMinimum("heat_transfer", 100))

	b, err := rt.ComputePrice(Factors{
		Product:          Product{BasePrice: decimal.NewFromInt(100)},
		BrandingMethod:   "heat_transfer",
		DesignComplexity: ComplexitySimple,
		Quantity:         1,
	})
	require.NoError(t, err)
	require.Equal(t, BrandingNone, b.Branding)
}

func TestFormatAmount(t *testing.T) {
	require.Equal(t, "KES 11,628", FormatAmount("KES", decimal.RequireFromString("11628")))
	require.Equal(t, "KES 1,163", FormatAmount("KES", decimal.RequireFromString("1162.8")))
	require.Equal(t, "KES 1,234,568", FormatAmount("KES", decimal.RequireFromString("1234567.5")))
	require.Equal(t, "KES 0", FormatAmount("KES", decimal.Zero))
}
