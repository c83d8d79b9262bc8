package pricing

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidQuantity is returned when a quantity below 1 reaches the engine.
	ErrInvalidQuantity = errors.New("pricing: quantity must be at least 1")
	// ErrUnknownComplexity is returned for a design or AI complexity outside simple/medium/complex.
	ErrUnknownComplexity = errors.New("pricing: unknown complexity")
	// ErrInvalidBasePrice is returned when a product has a negative base price.
	ErrInvalidBasePrice = errors.New("pricing: base price must not be negative")
)

// BrandingMethod is the technique used to apply a design to a product.
type BrandingMethod string

const (
	BrandingNone            BrandingMethod = "none"
	BrandingScreenPrinting  BrandingMethod = "screen_printing"
	BrandingDigitalPrinting BrandingMethod = "digital_printing"
	BrandingEmbroidery      BrandingMethod = "embroidery"
	BrandingHeatTransfer    BrandingMethod = "heat_transfer"
)

// BrandingMethods lists every supported method.
func BrandingMethods() []BrandingMethod {
	return []BrandingMethod{
		BrandingNone,
		BrandingScreenPrinting,
		BrandingDigitalPrinting,
		BrandingEmbroidery,
		BrandingHeatTransfer,
	}
}

// ParseBrandingMethod reports whether key names a supported branding method.
func ParseBrandingMethod(key string) (BrandingMethod, bool) {
	candidate := BrandingMethod(strings.ToLower(strings.TrimSpace(key)))
	for _, m := range BrandingMethods() {
		if m == candidate {
			return m, true
		}
	}
	return BrandingNone, false
}

// Complexity is a coarse three-level classification of design detail.
type Complexity string

const (
	ComplexitySimple  Complexity = "simple"
	ComplexityMedium  Complexity = "medium"
	ComplexityComplex Complexity = "complex"
)

// Complexities lists the levels from cheapest to most expensive.
func Complexities() []Complexity {
	return []Complexity{ComplexitySimple, ComplexityMedium, ComplexityComplex}
}

// ParseComplexity parses a complexity level, rejecting anything unknown.
func ParseComplexity(value string) (Complexity, error) {
	switch Complexity(strings.ToLower(strings.TrimSpace(value))) {
	case ComplexitySimple:
		return ComplexitySimple, nil
	case ComplexityMedium:
		return ComplexityMedium, nil
	case ComplexityComplex:
		return ComplexityComplex, nil
	default:
		return "", ErrUnknownComplexity
	}
}

// Product is the catalog view the engine prices against.
type Product struct {
	ID        string
	Name      string
	Category  string
	BasePrice decimal.Decimal
	Sizes     []string
	Colors    []string
}

// Factors is everything a single pricing request depends on.
type Factors struct {
	Product          Product
	SelectedSize     string
	SelectedColor    string
	BrandingMethod   string
	DesignComplexity Complexity
	Quantity         int
	IsAIGenerated    bool
	// AIComplexity defaults to medium when empty.
	AIComplexity Complexity
	// AIVariations below 1 is treated as 1.
	AIVariations    int
	RushOrder       bool
	CustomPackaging bool
}

// WithQuantity returns a copy of f priced at a different quantity.
func (f Factors) WithQuantity(quantity int) Factors {
	f.Quantity = quantity
	return f
}

// PriceBreakdown is the itemised result of ComputePrice.
type PriceBreakdown struct {
	BaseProductCost        decimal.Decimal
	SizePremium            decimal.Decimal
	BrandingCost           decimal.Decimal
	AIGenerationCost       decimal.Decimal
	ComplexityMultiplier   decimal.Decimal
	SubtotalBeforeDiscount decimal.Decimal
	DiscountRate           decimal.Decimal
	QuantityDiscount       decimal.Decimal
	RushOrderFee           decimal.Decimal
	PackagingFee           decimal.Decimal
	Subtotal               decimal.Decimal
	PlatformFee            decimal.Decimal
	Total                  decimal.Decimal
	PricePerUnit           decimal.Decimal
	Savings                decimal.Decimal
	// Branding is the method actually priced, after fallback.
	Branding BrandingMethod
	Quantity int
}

// BulkTier is one row of a bulk pricing projection.
type BulkTier struct {
	Quantity     int
	PricePerUnit decimal.Decimal
	TotalPrice   decimal.Decimal
	Savings      decimal.Decimal
}

// DeliveryEstimate is a business-day range.
type DeliveryEstimate struct {
	MinDays     int
	MaxDays     int
	Description string
}

// MinimumCheck is the result of ValidateMinimum.
type MinimumCheck struct {
	Valid       bool
	MinQuantity int
}
