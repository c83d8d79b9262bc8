package quote

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-printshop/internal/pricing"
)

// QuoteRequest is the body of POST /quotes and POST /quotes/bulk.
type QuoteRequest struct {
	ProductID        string `json:"productId" validate:"required,uuid"`
	SelectedSize     string `json:"selectedSize" validate:"max=16"`
	SelectedColor    string `json:"selectedColor" validate:"max=32"`
	BrandingMethod   string `json:"brandingMethod" validate:"max=32"`
	DesignComplexity string `json:"designComplexity" validate:"required"`
	Quantity         int    `json:"quantity"`
	IsAIGenerated    bool   `json:"isAIGenerated"`
	AIComplexity     string `json:"aiComplexity"`
	AIVariations     int    `json:"aiVariations" validate:"gte=0,lte=20"`
	RushOrder        bool   `json:"rushOrder"`
	CustomPackaging  bool   `json:"customPackaging"`
}

// DeliveryRequest is the body of POST /quotes/delivery.
type DeliveryRequest struct {
	BrandingMethod string `json:"brandingMethod" validate:"max=32"`
	Quantity       int    `json:"quantity"`
	IsAIGenerated  bool   `json:"isAIGenerated"`
	RushOrder      bool   `json:"rushOrder"`
}

// Breakdown mirrors pricing.PriceBreakdown. Amounts are exact decimal strings.
type Breakdown struct {
	BaseProductCost        decimal.Decimal `json:"baseProductCost"`
	SizePremium            decimal.Decimal `json:"sizePremium"`
	BrandingCost           decimal.Decimal `json:"brandingCost"`
	AIGenerationCost       decimal.Decimal `json:"aiGenerationCost"`
	ComplexityMultiplier   decimal.Decimal `json:"complexityMultiplier"`
	SubtotalBeforeDiscount decimal.Decimal `json:"subtotalBeforeDiscount"`
	DiscountRate           decimal.Decimal `json:"discountRate"`
	QuantityDiscount       decimal.Decimal `json:"quantityDiscount"`
	RushOrderFee           decimal.Decimal `json:"rushOrderFee"`
	PackagingFee           decimal.Decimal `json:"packagingFee"`
	Subtotal               decimal.Decimal `json:"subtotal"`
	PlatformFee            decimal.Decimal `json:"platformFee"`
	Total                  decimal.Decimal `json:"total"`
	PricePerUnit           decimal.Decimal `json:"pricePerUnit"`
	Savings                decimal.Decimal `json:"savings"`
	BrandingMethod         string          `json:"brandingMethod"`
	Quantity               int             `json:"quantity"`
}

func breakdownFrom(b pricing.PriceBreakdown) Breakdown {
	return Breakdown{
		BaseProductCost:        b.BaseProductCost,
		SizePremium:            b.SizePremium,
		BrandingCost:           b.BrandingCost,
		AIGenerationCost:       b.AIGenerationCost,
		ComplexityMultiplier:   b.ComplexityMultiplier,
		SubtotalBeforeDiscount: b.SubtotalBeforeDiscount,
		DiscountRate:           b.DiscountRate,
		QuantityDiscount:       b.QuantityDiscount,
		RushOrderFee:           b.RushOrderFee,
		PackagingFee:           b.PackagingFee,
		Subtotal:               b.Subtotal,
		PlatformFee:            b.PlatformFee,
		Total:                  b.Total,
		PricePerUnit:           b.PricePerUnit,
		Savings:                b.Savings,
		BrandingMethod:         string(b.Branding),
		Quantity:               b.Quantity,
	}
}

// Delivery is a business-day window.
type Delivery struct {
	MinDays     int    `json:"minDays"`
	MaxDays     int    `json:"maxDays"`
	Description string `json:"description"`
}

func deliveryFrom(d pricing.DeliveryEstimate) Delivery {
	return Delivery{MinDays: d.MinDays, MaxDays: d.MaxDays, Description: d.Description}
}

// Minimum reports whether a quantity meets a branding method's minimum.
type Minimum struct {
	BrandingMethod string `json:"brandingMethod"`
	Valid          bool   `json:"valid"`
	MinQuantity    int    `json:"minQuantity"`
}

// ProductSummary identifies the priced product.
type ProductSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// Quote is the response of POST /quotes.
type Quote struct {
	Product               ProductSummary `json:"product"`
	Breakdown             Breakdown      `json:"breakdown"`
	Delivery              Delivery       `json:"delivery"`
	Minimum               Minimum        `json:"minimum"`
	Currency              string         `json:"currency"`
	FormattedTotal        string         `json:"formattedTotal"`
	FormattedPricePerUnit string         `json:"formattedPricePerUnit"`
	RatesVersion          string         `json:"ratesVersion"`
}

// BulkTier is one row of the bulk pricing table.
type BulkTier struct {
	Quantity       int             `json:"quantity"`
	PricePerUnit   decimal.Decimal `json:"pricePerUnit"`
	TotalPrice     decimal.Decimal `json:"totalPrice"`
	Savings        decimal.Decimal `json:"savings"`
	FormattedTotal string          `json:"formattedTotal"`
}

// BulkQuote is the response of POST /quotes/bulk.
type BulkQuote struct {
	Product      ProductSummary `json:"product"`
	Tiers        []BulkTier     `json:"tiers"`
	Currency     string         `json:"currency"`
	RatesVersion string         `json:"ratesVersion"`
}

// Recommendation is the response of GET /branding/recommendation.
type Recommendation struct {
	ProductID      string  `json:"productId"`
	Quantity       int     `json:"quantity"`
	Complexity     string  `json:"complexity"`
	BrandingMethod string  `json:"brandingMethod"`
	Minimum        Minimum `json:"minimum"`
}

// Rates is the response of GET /rates.
type Rates struct {
	Version string             `json:"version"`
	Config  pricing.RateConfig `json:"config"`
}
