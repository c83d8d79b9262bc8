package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ComputePrice prices f against rt. Intermediate amounts are never rounded;
// Total is the authoritative figure.
func (rt *RateTables) ComputePrice(f Factors) (PriceBreakdown, error) {
	if f.Quantity <= 0 {
		return PriceBreakdown{}, fmt.Errorf("%w: got %d", ErrInvalidQuantity, f.Quantity)
	}
	if f.Product.BasePrice.IsNegative() {
		return PriceBreakdown{}, ErrInvalidBasePrice
	}
	complexityMult, ok := rt.complexity[f.DesignComplexity]
	if !ok {
		return PriceBreakdown{}, fmt.Errorf("%w: design complexity %q", ErrUnknownComplexity, f.DesignComplexity)
	}
	aiCost, err := rt.aiGenerationCost(f)
	if err != nil {
		return PriceBreakdown{}, err
	}

	one := decimal.NewFromInt(1)
	qty := decimal.NewFromInt(int64(f.Quantity))

	baseCost := f.Product.BasePrice.Mul(qty)
	sizePremium := baseCost.Mul(rt.SizeMultiplier(f.SelectedSize).Sub(one))

	method, _ := rt.Branding(f.BrandingMethod)
	entry := rt.branding[method]
	brandingPerUnit := entry.baseCost.Mul(entry.complexityMultiplier).Mul(complexityMult)
	brandingCost := brandingPerUnit.Mul(qty)

	beforeDiscount := baseCost.Add(sizePremium).Add(brandingCost).Add(aiCost)

	discountRate := rt.DiscountRate(f.Quantity)
	discount := beforeDiscount.Mul(discountRate)

	rushFee := decimal.Zero
	if f.RushOrder {
		rushFee = beforeDiscount.Mul(rt.rushRate)
	}
	packagingFee := decimal.Zero
	if f.CustomPackaging {
		packagingFee = qty.Mul(rt.packagingFee)
	}

	subtotal := beforeDiscount.Sub(discount).Add(rushFee).Add(packagingFee)
	platformFee := subtotal.Mul(rt.platformFeeRate)
	total := subtotal.Add(platformFee)

	return PriceBreakdown{
		BaseProductCost:        baseCost,
		SizePremium:            sizePremium,
		BrandingCost:           brandingCost,
		AIGenerationCost:       aiCost,
		ComplexityMultiplier:   complexityMult,
		SubtotalBeforeDiscount: beforeDiscount,
		DiscountRate:           discountRate,
		QuantityDiscount:       discount,
		RushOrderFee:           rushFee,
		PackagingFee:           packagingFee,
		Subtotal:               subtotal,
		PlatformFee:            platformFee,
		Total:                  total,
		PricePerUnit:           total.Div(qty),
		Savings:                discount,
		Branding:               method,
		Quantity:               f.Quantity,
	}, nil
}

// aiGenerationCost is a one-time fee and never scales with quantity.
func (rt *RateTables) aiGenerationCost(f Factors) (decimal.Decimal, error) {
	if !f.IsAIGenerated {
		return decimal.Zero, nil
	}
	level := f.AIComplexity
	if level == "" {
		level = ComplexityMedium
	}
	base, ok := rt.aiCosts[level]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: AI complexity %q", ErrUnknownComplexity, level)
	}
	if f.AIVariations <= 1 {
		return base, nil
	}
	extra := decimal.NewFromInt(int64(f.AIVariations - 1)).Mul(rt.aiVariationRate)
	return base.Mul(decimal.NewFromInt(1).Add(extra)), nil
}
