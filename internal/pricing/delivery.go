package pricing

import "fmt"

const (
	baseDeliveryDays   = 3
	deliverySpreadDays = 2
)

// EstimateDelivery derives a business-day window from the production inputs.
func EstimateDelivery(f Factors) DeliveryEstimate {
	days := baseDeliveryDays
	method, _ := ParseBrandingMethod(f.BrandingMethod)
	if method == BrandingScreenPrinting && f.Quantity > 50 {
		days += 2
	}
	if method == BrandingEmbroidery {
		days++
	}
	if f.IsAIGenerated {
		days++
	}
	// Only one volume adjustment applies: >100 wins over >50.
	if f.Quantity > 100 {
		days += 2
	} else if f.Quantity > 50 {
		days++
	}
	if f.RushOrder {
		days = (days + 1) / 2
		if days < 1 {
			days = 1
		}
	}

	est := DeliveryEstimate{MinDays: days, MaxDays: days + deliverySpreadDays}
	est.Description = fmt.Sprintf("%d-%d business days", est.MinDays, est.MaxDays)
	if f.RushOrder {
		est.Description += " (Rush Order)"
	}
	return est
}
