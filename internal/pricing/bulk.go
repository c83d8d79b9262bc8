package pricing

// bulkQuantities are the representative order sizes shown in bulk tables.
var bulkQuantities = [...]int{1, 10, 25, 50, 100, 200}

// BulkQuantities returns the representative quantities in ascending order.
func BulkQuantities() []int {
	out := make([]int, len(bulkQuantities))
	copy(out, bulkQuantities[:])
	return out
}

// ProjectBulkTiers prices f at each representative quantity. Nothing is
// cached; every call reprices against rt.
func (rt *RateTables) ProjectBulkTiers(f Factors) ([]BulkTier, error) {
	tiers := make([]BulkTier, 0, len(bulkQuantities))
	for _, qty := range bulkQuantities {
		breakdown, err := rt.ComputePrice(f.WithQuantity(qty))
		if err != nil {
			return nil, err
		}
		tiers = append(tiers, BulkTier{
			Quantity:     qty,
			PricePerUnit: breakdown.PricePerUnit,
			TotalPrice:   breakdown.Total,
			Savings:      breakdown.Savings,
		})
	}
	return tiers, nil
}
