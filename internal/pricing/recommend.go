package pricing

import "strings"

// embroideryCategories are product categories that default to embroidery.
var embroideryCategories = map[string]struct{}{
	"headwear": {},
	"polo":     {},
}

// RecommendBranding suggests a branding method. Rules are evaluated in order
// and the first match wins.
func RecommendBranding(product Product, quantity int, complexity Complexity) BrandingMethod {
	switch {
	case quantity >= 25 && complexity == ComplexitySimple:
		return BrandingScreenPrinting
	case complexity == ComplexityComplex || (quantity >= 10 && quantity < 50):
		return BrandingDigitalPrinting
	case isEmbroideryCategory(product.Category):
		return BrandingEmbroidery
	case quantity < 10:
		return BrandingHeatTransfer
	default:
		return BrandingDigitalPrinting
	}
}

func isEmbroideryCategory(category string) bool {
	_, ok := embroideryCategories[strings.ToLower(strings.TrimSpace(category))]
	return ok
}
