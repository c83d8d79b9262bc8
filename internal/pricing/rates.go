package pricing

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidRates wraps every rate configuration invariant violation.
var ErrInvalidRates = errors.New("pricing: invalid rate tables")

// BrandingRate is the configured cost profile of a branding method.
type BrandingRate struct {
	BaseCost             float64 `koanf:"base_cost" json:"baseCost" yaml:"base_cost"`
	ComplexityMultiplier float64 `koanf:"complexity_multiplier" json:"complexityMultiplier" yaml:"complexity_multiplier"`
	MinQuantity          int     `koanf:"min_quantity" json:"minQuantity" yaml:"min_quantity"`
}

// DiscountTier maps an inclusive quantity range to a discount rate. Max of 0 means unbounded.
type DiscountTier struct {
	Min  int     `koanf:"min" json:"min" yaml:"min"`
	Max  int     `koanf:"max" json:"max" yaml:"max"`
	Rate float64 `koanf:"rate" json:"rate" yaml:"rate"`
}

// RateConfig is the raw, loadable form of the rate tables.
type RateConfig struct {
	Currency            string                  `koanf:"currency" json:"currency" yaml:"currency"`
	SizeMultipliers     map[string]float64      `koanf:"size_multipliers" json:"sizeMultipliers" yaml:"size_multipliers"`
	BrandingMethods     map[string]BrandingRate `koanf:"branding_methods" json:"brandingMethods" yaml:"branding_methods"`
	Complexity          map[string]float64      `koanf:"complexity" json:"complexity" yaml:"complexity"`
	DiscountTiers       []DiscountTier          `koanf:"discount_tiers" json:"discountTiers" yaml:"discount_tiers"`
	AIBaseCosts         map[string]float64      `koanf:"ai_base_costs" json:"aiBaseCosts" yaml:"ai_base_costs"`
	AIVariationRate     float64                 `koanf:"ai_variation_rate" json:"aiVariationRate" yaml:"ai_variation_rate"`
	PlatformFeeRate     float64                 `koanf:"platform_fee_rate" json:"platformFeeRate" yaml:"platform_fee_rate"`
	RushSurchargeRate   float64                 `koanf:"rush_surcharge_rate" json:"rushSurchargeRate" yaml:"rush_surcharge_rate"`
	PackagingFeePerUnit float64                 `koanf:"packaging_fee_per_unit" json:"packagingFeePerUnit" yaml:"packaging_fee_per_unit"`
}

// DefaultRateConfig returns the built-in storefront rates.
func DefaultRateConfig() RateConfig {
	return RateConfig{
		Currency: "KES",
		SizeMultipliers: map[string]float64{
			"XS":   1.0,
			"S":    1.0,
			"M":    1.0,
			"L":    1.1,
			"XL":   1.2,
			"XXL":  1.3,
			"XXXL": 1.4,
		},
		BrandingMethods: map[string]BrandingRate{
			string(BrandingNone):            {BaseCost: 0, ComplexityMultiplier: 1.0, MinQuantity: 1},
			string(BrandingScreenPrinting):  {BaseCost: 200, ComplexityMultiplier: 1.0, MinQuantity: 10},
			string(BrandingDigitalPrinting): {BaseCost: 150, ComplexityMultiplier: 1.2, MinQuantity: 1},
			string(BrandingEmbroidery):      {BaseCost: 300, ComplexityMultiplier: 1.5, MinQuantity: 5},
			string(BrandingHeatTransfer):    {BaseCost: 100, ComplexityMultiplier: 1.1, MinQuantity: 1},
		},
		Complexity: map[string]float64{
			string(ComplexitySimple):  1.0,
			string(ComplexityMedium):  1.2,
			string(ComplexityComplex): 1.4,
		},
		DiscountTiers: []DiscountTier{
			{Min: 1, Max: 9, Rate: 0},
			{Min: 10, Max: 24, Rate: 0.05},
			{Min: 25, Max: 49, Rate: 0.10},
			{Min: 50, Max: 99, Rate: 0.15},
			{Min: 100, Max: 199, Rate: 0.20},
			{Min: 200, Max: 0, Rate: 0.25},
		},
		AIBaseCosts: map[string]float64{
			string(ComplexitySimple):  500,
			string(ComplexityMedium):  1000,
			string(ComplexityComplex): 2000,
		},
		AIVariationRate:     0.5,
		PlatformFeeRate:     0.02,
		RushSurchargeRate:   0.5,
		PackagingFeePerUnit: 50,
	}
}

type brandingEntry struct {
	baseCost             decimal.Decimal
	complexityMultiplier decimal.Decimal
	minQuantity          int
}

type tier struct {
	min  int
	max  int
	rate decimal.Decimal
}

func (t tier) contains(quantity int) bool {
	return quantity >= t.min && (t.max == 0 || quantity <= t.max)
}

// RateTables is a validated, immutable snapshot of every pricing table.
// All accessors return copies or values; nothing exposes internal maps.
type RateTables struct {
	currency        string
	sizes           map[string]decimal.Decimal
	branding        map[BrandingMethod]brandingEntry
	complexity      map[Complexity]decimal.Decimal
	tiers           []tier
	aiCosts         map[Complexity]decimal.Decimal
	aiVariationRate decimal.Decimal
	platformFeeRate decimal.Decimal
	rushRate        decimal.Decimal
	packagingFee    decimal.Decimal
	maxDiscountRate decimal.Decimal
	version         string
	source          RateConfig
}

// NewRateTables validates cfg and builds an immutable RateTables from it.
func NewRateTables(cfg RateConfig) (*RateTables, error) {
	var problems []string
	fail := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	rt := &RateTables{
		currency:   strings.ToUpper(strings.TrimSpace(cfg.Currency)),
		sizes:      make(map[string]decimal.Decimal, len(cfg.SizeMultipliers)),
		branding:   make(map[BrandingMethod]brandingEntry, len(cfg.BrandingMethods)),
		complexity: make(map[Complexity]decimal.Decimal, 3),
		aiCosts:    make(map[Complexity]decimal.Decimal, 3),
	}
	if rt.currency == "" {
		fail("currency is required")
	}

	for label, mult := range cfg.SizeMultipliers {
		key := normalizeSize(label)
		if key == "" {
			fail("size label must not be empty")
			continue
		}
		if _, dup := rt.sizes[key]; dup {
			fail("duplicate size label %q", key)
			continue
		}
		if mult < 1 {
			fail("size %q multiplier %v is below 1.0", label, mult)
		}
		rt.sizes[key] = decimal.NewFromFloat(mult)
	}

	for key, rate := range cfg.BrandingMethods {
		method, ok := ParseBrandingMethod(key)
		if !ok {
			fail("unknown branding method %q", key)
			continue
		}
		if _, dup := rt.branding[method]; dup {
			fail("duplicate branding method %q", method)
			continue
		}
		if rate.BaseCost < 0 {
			fail("branding %q base cost is negative", key)
		}
		if rate.ComplexityMultiplier <= 0 {
			fail("branding %q complexity multiplier must be positive", key)
		}
		if rate.MinQuantity < 1 {
			fail("branding %q minimum quantity must be at least 1", key)
		}
		rt.branding[method] = brandingEntry{
			baseCost:             decimal.NewFromFloat(rate.BaseCost),
			complexityMultiplier: decimal.NewFromFloat(rate.ComplexityMultiplier),
			minQuantity:          rate.MinQuantity,
		}
	}
	if none, ok := rt.branding[BrandingNone]; !ok {
		fail("branding table must contain %q", BrandingNone)
	} else if !none.baseCost.IsZero() {
		fail("branding %q must have zero base cost", BrandingNone)
	}

	for key, mult := range cfg.Complexity {
		c, err := ParseComplexity(key)
		if err != nil {
			fail("unknown complexity %q", key)
			continue
		}
		if _, dup := rt.complexity[c]; dup {
			fail("duplicate complexity %q", c)
			continue
		}
		if mult <= 0 {
			fail("complexity %q multiplier must be positive", key)
		}
		rt.complexity[c] = decimal.NewFromFloat(mult)
	}
	for key, cost := range cfg.AIBaseCosts {
		c, err := ParseComplexity(key)
		if err != nil {
			fail("unknown AI complexity %q", key)
			continue
		}
		if _, dup := rt.aiCosts[c]; dup {
			fail("duplicate AI complexity %q", c)
			continue
		}
		if cost < 0 {
			fail("AI base cost for %q is negative", key)
		}
		rt.aiCosts[c] = decimal.NewFromFloat(cost)
	}
	for _, c := range Complexities() {
		if _, ok := rt.complexity[c]; !ok {
			fail("complexity multiplier for %q is missing", c)
		}
		if _, ok := rt.aiCosts[c]; !ok {
			fail("AI base cost for %q is missing", c)
		}
	}

	problems = append(problems, rt.buildTiers(cfg.DiscountTiers)...)

	if cfg.AIVariationRate < 0 {
		fail("AI variation rate is negative")
	}
	if cfg.PlatformFeeRate < 0 {
		fail("platform fee rate is negative")
	}
	if cfg.RushSurchargeRate < 0 {
		fail("rush surcharge rate is negative")
	}
	if cfg.PackagingFeePerUnit < 0 {
		fail("packaging fee is negative")
	}
	rt.aiVariationRate = decimal.NewFromFloat(cfg.AIVariationRate)
	rt.platformFeeRate = decimal.NewFromFloat(cfg.PlatformFeeRate)
	rt.rushRate = decimal.NewFromFloat(cfg.RushSurchargeRate)
	rt.packagingFee = decimal.NewFromFloat(cfg.PackagingFeePerUnit)

	if len(problems) > 0 {
		sort.Strings(problems)
		return nil, fmt.Errorf("%w: %s", ErrInvalidRates, strings.Join(problems, "; "))
	}

	rt.source = cloneConfig(cfg)
	version, err := contentVersion(rt.source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRates, err)
	}
	rt.version = version
	return rt, nil
}

// MustRateTables is NewRateTables that panics on invalid configuration.
func MustRateTables(cfg RateConfig) *RateTables {
	rt, err := NewRateTables(cfg)
	if err != nil {
		panic(err)
	}
	return rt
}

// DefaultRateTables builds the tables from DefaultRateConfig.
func DefaultRateTables() *RateTables {
	return MustRateTables(DefaultRateConfig())
}

func (rt *RateTables) buildTiers(raw []DiscountTier) []string {
	var problems []string
	if len(raw) == 0 {
		return []string{"at least one discount tier is required"}
	}
	sorted := append([]DiscountTier(nil), raw...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Min < sorted[j].Min })

	next := 1
	prevRate := decimal.Zero
	for i, t := range sorted {
		rate := decimal.NewFromFloat(t.Rate)
		switch {
		case t.Min != next:
			problems = append(problems, fmt.Sprintf("discount tier %d starts at %d, expected %d", i, t.Min, next))
		case t.Max != 0 && t.Max < t.Min:
			problems = append(problems, fmt.Sprintf("discount tier %d max %d is below min %d", i, t.Max, t.Min))
		}
		if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
			problems = append(problems, fmt.Sprintf("discount tier %d rate %v must be in [0, 1)", i, t.Rate))
		}
		if rate.LessThan(prevRate) {
			problems = append(problems, fmt.Sprintf("discount tier %d rate %v is below the previous tier", i, t.Rate))
		}
		if t.Max == 0 && i != len(sorted)-1 {
			problems = append(problems, fmt.Sprintf("discount tier %d is unbounded but is not the last tier", i))
		}
		rt.tiers = append(rt.tiers, tier{min: t.Min, max: t.Max, rate: rate})
		if rate.GreaterThan(rt.maxDiscountRate) {
			rt.maxDiscountRate = rate
		}
		prevRate = rate
		next = t.Max + 1
	}
	if last := sorted[len(sorted)-1]; last.Max != 0 {
		problems = append(problems, fmt.Sprintf("last discount tier must be unbounded, ends at %d", last.Max))
	}
	return problems
}

// Currency returns the single currency the tables are denominated in.
func (rt *RateTables) Currency() string { return rt.currency }

// Version is a short content hash identifying this snapshot.
func (rt *RateTables) Version() string { return rt.version }

// Config returns a copy of the configuration the tables were built from.
func (rt *RateTables) Config() RateConfig { return cloneConfig(rt.source) }

// SizeMultiplier returns the multiplier for label, or 1.0 for unknown labels.
func (rt *RateTables) SizeMultiplier(label string) decimal.Decimal {
	if mult, ok := rt.sizes[normalizeSize(label)]; ok {
		return mult
	}
	return decimal.NewFromInt(1)
}

// Branding resolves a branding key. Unknown keys resolve to the "none" entry
// and report false.
func (rt *RateTables) Branding(key string) (BrandingMethod, bool) {
	method, ok := ParseBrandingMethod(key)
	if !ok {
		return BrandingNone, false
	}
	if _, configured := rt.branding[method]; !configured {
		return BrandingNone, false
	}
	return method, true
}

// MinQuantity returns the configured minimum order quantity for a method.
func (rt *RateTables) MinQuantity(method BrandingMethod) (int, bool) {
	entry, ok := rt.branding[method]
	if !ok {
		return 1, false
	}
	return entry.minQuantity, true
}

// DiscountRate returns the rate of the tier containing quantity, or zero.
func (rt *RateTables) DiscountRate(quantity int) decimal.Decimal {
	for _, t := range rt.tiers {
		if t.contains(quantity) {
			return t.rate
		}
	}
	return decimal.Zero
}

// MaxDiscountRate returns the deepest discount any tier offers.
func (rt *RateTables) MaxDiscountRate() decimal.Decimal { return rt.maxDiscountRate }

// PlatformFeeRate returns the platform fee applied to the post-discount subtotal.
func (rt *RateTables) PlatformFeeRate() decimal.Decimal { return rt.platformFeeRate }

func normalizeSize(label string) string {
	return strings.ToUpper(strings.TrimSpace(label))
}

func cloneConfig(cfg RateConfig) RateConfig {
	out := cfg
	out.SizeMultipliers = make(map[string]float64, len(cfg.SizeMultipliers))
	for k, v := range cfg.SizeMultipliers {
		out.SizeMultipliers[k] = v
	}
	out.BrandingMethods = make(map[string]BrandingRate, len(cfg.BrandingMethods))
	for k, v := range cfg.BrandingMethods {
		out.BrandingMethods[k] = v
	}
	out.Complexity = make(map[string]float64, len(cfg.Complexity))
	for k, v := range cfg.Complexity {
		out.Complexity[k] = v
	}
	out.AIBaseCosts = make(map[string]float64, len(cfg.AIBaseCosts))
	for k, v := range cfg.AIBaseCosts {
		out.AIBaseCosts[k] = v
	}
	out.DiscountTiers = append([]DiscountTier(nil), cfg.DiscountTiers...)
	return out
}

// contentVersion hashes the canonical JSON form. encoding/json sorts map keys,
// so equal configurations always produce the same version.
func contentVersion(cfg RateConfig) (string, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:12], nil
}
