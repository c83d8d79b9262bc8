package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/noah-isme/backend-printshop/internal/catalog"
	"github.com/noah-isme/backend-printshop/internal/pricing"
	"github.com/noah-isme/backend-printshop/internal/rateconfig"
)

type priceOptions struct {
	ratesFile       string
	productID       string
	basePrice       string
	category        string
	size            string
	branding        string
	complexity      string
	quantity        int
	aiGenerated     bool
	aiComplexity    string
	aiVariations    int
	rushOrder       bool
	customPackaging bool
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "quotectl",
		Short: "Inspect rate tables and price print orders",
		Long: `quotectl runs the pricing engine locally.

Examples:
  quotectl validate-rates ./rates.yaml
  quotectl price --product 6f1c2a4e-3b7d-4c1a-9e8f-0a1b2c3d4e01 --branding screen_printing --quantity 50
  quotectl bulk --base-price 1200 --branding embroidery --complexity complex`,
		SilenceUsage: true,
	}
	root.AddCommand(newValidateRatesCmd(), newPriceCmd(), newBulkCmd())
	return root
}

func newValidateRatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate-rates <file>",
		Short: "Load a rate file over the defaults and check every invariant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := rateconfig.Load(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "rates ok\nversion:  %s\ncurrency: %s\n", rt.Version(), rt.Currency())
			fmt.Fprintf(out, "max discount: %s\n", rt.MaxDiscountRate().Mul(decimal.NewFromInt(100)).String()+"%")
			return nil
		},
	}
}

func bindPriceFlags(cmd *cobra.Command, opts *priceOptions) {
	f := cmd.Flags()
	f.StringVar(&opts.ratesFile, "rates", "", "YAML rate file layered over the defaults")
	f.StringVar(&opts.productID, "product", "", "seed catalog product id")
	f.StringVar(&opts.basePrice, "base-price", "", "ad-hoc product base price (used when --product is empty)")
	f.StringVar(&opts.category, "category", "t-shirt", "ad-hoc product category")
	f.StringVar(&opts.size, "size", "M", "selected size label")
	f.StringVar(&opts.branding, "branding", string(pricing.BrandingNone), "branding method")
	f.StringVar(&opts.complexity, "complexity", string(pricing.ComplexitySimple), "design complexity")
	f.BoolVar(&opts.aiGenerated, "ai", false, "design is AI generated")
	f.StringVar(&opts.aiComplexity, "ai-complexity", "", "AI design complexity (default medium)")
	f.IntVar(&opts.aiVariations, "ai-variations", 1, "number of AI design variations")
	f.BoolVar(&opts.rushOrder, "rush", false, "rush order")
	f.BoolVar(&opts.customPackaging, "packaging", false, "custom packaging")
}

func newPriceCmd() *cobra.Command {
	opts := &priceOptions{}
	cmd := &cobra.Command{
		Use:   "price",
		Short: "Print the itemised price for one order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, factors, err := opts.resolve()
			if err != nil {
				return err
			}
			b, err := rt.ComputePrice(factors)
			if err != nil {
				return err
			}
			writeBreakdown(cmd.OutOrStdout(), rt, factors, b)
			return nil
		},
	}
	bindPriceFlags(cmd, opts)
	cmd.Flags().IntVarP(&opts.quantity, "quantity", "q", 1, "order quantity")
	return cmd
}

func newBulkCmd() *cobra.Command {
	opts := &priceOptions{}
	cmd := &cobra.Command{
		Use:   "bulk",
		Short: "Print the bulk pricing table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.quantity = 1
			rt, factors, err := opts.resolve()
			if err != nil {
				return err
			}
			tiers, err := rt.ProjectBulkTiers(factors)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(tw, "QTY\tPER UNIT\tTOTAL\tSAVINGS\t")
			for _, t := range tiers {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t\n",
					t.Quantity,
					pricing.FormatAmount(rt.Currency(), t.PricePerUnit),
					pricing.FormatAmount(rt.Currency(), t.TotalPrice),
					pricing.FormatAmount(rt.Currency(), t.Savings))
			}
			return tw.Flush()
		},
	}
	bindPriceFlags(cmd, opts)
	return cmd
}

func (o *priceOptions) resolve() (*pricing.RateTables, pricing.Factors, error) {
	rt, err := rateconfig.Load(o.ratesFile)
	if err != nil {
		return nil, pricing.Factors{}, err
	}
	product, err := o.product()
	if err != nil {
		return nil, pricing.Factors{}, err
	}
	design, err := pricing.ParseComplexity(o.complexity)
	if err != nil {
		return nil, pricing.Factors{}, fmt.Errorf("--complexity %q: %w", o.complexity, err)
	}
	var ai pricing.Complexity
	if o.aiGenerated && strings.TrimSpace(o.aiComplexity) != "" {
		if ai, err = pricing.ParseComplexity(o.aiComplexity); err != nil {
			return nil, pricing.Factors{}, fmt.Errorf("--ai-complexity %q: %w", o.aiComplexity, err)
		}
	}
	return rt, pricing.Factors{
		Product:          product,
		SelectedSize:     o.size,
		BrandingMethod:   o.branding,
		DesignComplexity: design,
		Quantity:         o.quantity,
		IsAIGenerated:    o.aiGenerated,
		AIComplexity:     ai,
		AIVariations:     o.aiVariations,
		RushOrder:        o.rushOrder,
		CustomPackaging:  o.customPackaging,
	}, nil
}

func (o *priceOptions) product() (pricing.Product, error) {
	if o.productID != "" {
		id, err := uuid.Parse(o.productID)
		if err != nil {
			return pricing.Product{}, fmt.Errorf("--product: %w", err)
		}
		for _, p := range catalog.SeedProducts() {
			if p.ID == id {
				return p.Pricing(), nil
			}
		}
		return pricing.Product{}, fmt.Errorf("--product %s: %w", id, catalog.ErrProductNotFound)
	}
	if o.basePrice == "" {
		return pricing.Product{}, errors.New("one of --product or --base-price is required")
	}
	base, err := decimal.NewFromString(o.basePrice)
	if err != nil {
		return pricing.Product{}, fmt.Errorf("--base-price: %w", err)
	}
	return pricing.Product{ID: "ad-hoc", Name: "ad-hoc", Category: o.category, BasePrice: base}, nil
}

func writeBreakdown(w io.Writer, rt *pricing.RateTables, f pricing.Factors, b pricing.PriceBreakdown) {
	cur := rt.Currency()
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	rows := []struct {
		label  string
		amount decimal.Decimal
	}{
		{"base product", b.BaseProductCost},
		{"size premium", b.SizePremium},
		{"branding (" + string(b.Branding) + ")", b.BrandingCost},
		{"AI generation", b.AIGenerationCost},
		{"subtotal before discount", b.SubtotalBeforeDiscount},
		{"quantity discount", b.QuantityDiscount.Neg()},
		{"rush fee", b.RushOrderFee},
		{"packaging", b.PackagingFee},
		{"subtotal", b.Subtotal},
		{"platform fee", b.PlatformFee},
		{"total", b.Total},
		{"per unit", b.PricePerUnit},
	}
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.label, r.amount.StringFixed(2), pricing.FormatAmount(cur, r.amount))
	}
	_ = tw.Flush()

	est := pricing.EstimateDelivery(f)
	fmt.Fprintf(w, "delivery: %s\n", est.Description)
	if _, known := rt.Branding(f.BrandingMethod); !known && strings.TrimSpace(f.BrandingMethod) != "" {
		fmt.Fprintf(w, "warning: branding method %q is not configured; priced as %s\n", f.BrandingMethod, b.Branding)
	} else if check := rt.ValidateMinimum(string(b.Branding), b.Quantity); !check.Valid {
		fmt.Fprintf(w, "warning: %s requires at least %d units\n", b.Branding, check.MinQuantity)
	}
	fmt.Fprintf(w, "rates version: %s\n", rt.Version())
}
