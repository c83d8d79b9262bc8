package pricing

// ValidateMinimum checks quantity against the method's minimum order quantity.
// An unrecognised method is reported as invalid with a minimum of 1, which
// signals a configuration problem rather than a quantity problem. The check is
// advisory: ComputePrice never enforces it.
func (rt *RateTables) ValidateMinimum(brandingMethod string, quantity int) MinimumCheck {
	method, ok := ParseBrandingMethod(brandingMethod)
	if !ok {
		return MinimumCheck{Valid: false, MinQuantity: 1}
	}
	minQty, ok := rt.MinQuantity(method)
	if !ok {
		return MinimumCheck{Valid: false, MinQuantity: 1}
	}
	return MinimumCheck{Valid: quantity >= minQty, MinQuantity: minQty}
}
