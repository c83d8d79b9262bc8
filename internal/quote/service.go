package quote

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/backend-printshop/internal/catalog"
	"github.com/noah-isme/backend-printshop/internal/obs"
	"github.com/noah-isme/backend-printshop/internal/pricing"
	"github.com/noah-isme/backend-printshop/internal/resilience"
)

// ErrInvalidProductID is returned when a product id is not a UUID.
var ErrInvalidProductID = errors.New("quote: invalid product id")

// Service resolves products and runs pricing operations for the HTTP layer.
type Service struct {
	catalog catalog.Source
	engine  *pricing.Engine
	logger  zerolog.Logger
	tracer  trace.Tracer
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Catalog catalog.Source
	Engine  *pricing.Engine
	Logger  zerolog.Logger
}

// NewService validates dependencies and constructs a Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Catalog == nil {
		return nil, errors.New("quote: catalog source is required")
	}
	if cfg.Engine == nil {
		return nil, errors.New("quote: pricing engine is required")
	}
	return &Service{
		catalog: cfg.Catalog,
		engine:  cfg.Engine,
		logger:  cfg.Logger,
		tracer:  otel.Tracer("quote"),
	}, nil
}

// Quote prices a single configuration and attaches delivery and minimum
// quantity guidance. The minimum check never blocks the quote.
func (s *Service) Quote(ctx context.Context, req QuoteRequest) (result Quote, err error) {
	ctx, span := s.startSpan(ctx, "quote.Quote", req)
	defer func() { s.finish(span, "quote", err, result.Breakdown.Total.InexactFloat64()) }()

	product, factors, err := s.resolve(ctx, req)
	if err != nil {
		return Quote{}, err
	}
	breakdown, rt, err := s.engine.ComputePrice(factors)
	if err != nil {
		return Quote{}, err
	}
	requested := requestedBranding(factors.BrandingMethod)
	minimum := rt.ValidateMinimum(requested, factors.Quantity)
	span.SetAttributes(attribute.String("pricing.rates_version", rt.Version()))

	return Quote{
		Product:   summaryOf(product),
		Breakdown: breakdownFrom(breakdown),
		Delivery:  deliveryFrom(pricing.EstimateDelivery(factors)),
		Minimum: Minimum{
			BrandingMethod: requested,
			Valid:          minimum.Valid,
			MinQuantity:    minimum.MinQuantity,
		},
		Currency:              rt.Currency(),
		FormattedTotal:        pricing.FormatAmount(rt.Currency(), breakdown.Total),
		FormattedPricePerUnit: pricing.FormatAmount(rt.Currency(), breakdown.PricePerUnit),
		RatesVersion:          rt.Version(),
	}, nil
}

// Bulk prices the request at each representative quantity. The request's
// own quantity is ignored.
func (s *Service) Bulk(ctx context.Context, req QuoteRequest) (result BulkQuote, err error) {
	ctx, span := s.startSpan(ctx, "quote.Bulk", req)
	defer func() { s.finish(span, "bulk", err, 0) }()

	if req.Quantity == 0 {
		req.Quantity = 1
	}
	product, factors, err := s.resolve(ctx, req)
	if err != nil {
		return BulkQuote{}, err
	}
	tiers, rt, err := s.engine.ProjectBulkTiers(factors)
	if err != nil {
		return BulkQuote{}, err
	}
	out := BulkQuote{
		Product:      summaryOf(product),
		Tiers:        make([]BulkTier, 0, len(tiers)),
		Currency:     rt.Currency(),
		RatesVersion: rt.Version(),
	}
	for _, t := range tiers {
		out.Tiers = append(out.Tiers, BulkTier{
			Quantity:       t.Quantity,
			PricePerUnit:   t.PricePerUnit,
			TotalPrice:     t.TotalPrice,
			Savings:        t.Savings,
			FormattedTotal: pricing.FormatAmount(rt.Currency(), t.TotalPrice),
		})
	}
	return out, nil
}

// Delivery estimates production time without pricing.
func (s *Service) Delivery(ctx context.Context, req DeliveryRequest) (result Delivery, err error) {
	_, span := s.tracer.Start(ctx, "quote.Delivery", trace.WithAttributes(
		attribute.Int("quote.quantity", req.Quantity),
		attribute.String("quote.branding_method", req.BrandingMethod),
	))
	defer func() { s.finish(span, "delivery", err, 0) }()

	if req.Quantity <= 0 {
		return Delivery{}, fmt.Errorf("%w: got %d", pricing.ErrInvalidQuantity, req.Quantity)
	}
	est := pricing.EstimateDelivery(pricing.Factors{
		BrandingMethod: req.BrandingMethod,
		Quantity:       req.Quantity,
		IsAIGenerated:  req.IsAIGenerated,
		RushOrder:      req.RushOrder,
	})
	return deliveryFrom(est), nil
}

// Recommend suggests a branding method for a product.
func (s *Service) Recommend(ctx context.Context, productID string, quantity int, complexity string) (result Recommendation, err error) {
	ctx, span := s.tracer.Start(ctx, "quote.Recommend", trace.WithAttributes(
		attribute.String("quote.product_id", productID),
		attribute.Int("quote.quantity", quantity),
	))
	defer func() { s.finish(span, "recommend", err, 0) }()

	if quantity <= 0 {
		return Recommendation{}, fmt.Errorf("%w: got %d", pricing.ErrInvalidQuantity, quantity)
	}
	level, err := pricing.ParseComplexity(complexity)
	if err != nil {
		return Recommendation{}, err
	}
	product, err := s.product(ctx, productID)
	if err != nil {
		return Recommendation{}, err
	}
	method := pricing.RecommendBranding(product.Pricing(), quantity, level)
	check := s.engine.ValidateMinimum(string(method), quantity)
	return Recommendation{
		ProductID:      product.ID.String(),
		Quantity:       quantity,
		Complexity:     string(level),
		BrandingMethod: string(method),
		Minimum: Minimum{
			BrandingMethod: string(method),
			Valid:          check.Valid,
			MinQuantity:    check.MinQuantity,
		},
	}, nil
}

// Minimum checks a quantity against a branding method's minimum order.
func (s *Service) Minimum(method string, quantity int) Minimum {
	key := requestedBranding(method)
	check := s.engine.ValidateMinimum(key, quantity)
	obs.RecordQuote("minimum", "ok", 0)
	return Minimum{
		BrandingMethod: key,
		Valid:          check.Valid,
		MinQuantity:    check.MinQuantity,
	}
}

// Rates returns the active rate tables and their version.
func (s *Service) Rates() Rates {
	rt := s.engine.Rates()
	return Rates{Version: rt.Version(), Config: rt.Config()}
}

func (s *Service) resolve(ctx context.Context, req QuoteRequest) (catalog.Product, pricing.Factors, error) {
	design, err := pricing.ParseComplexity(req.DesignComplexity)
	if err != nil {
		return catalog.Product{}, pricing.Factors{}, fmt.Errorf("design complexity %q: %w", req.DesignComplexity, err)
	}
	var ai pricing.Complexity
	if req.IsAIGenerated && strings.TrimSpace(req.AIComplexity) != "" {
		ai, err = pricing.ParseComplexity(req.AIComplexity)
		if err != nil {
			return catalog.Product{}, pricing.Factors{}, fmt.Errorf("AI complexity %q: %w", req.AIComplexity, err)
		}
	}
	if req.Quantity <= 0 {
		return catalog.Product{}, pricing.Factors{}, fmt.Errorf("%w: got %d", pricing.ErrInvalidQuantity, req.Quantity)
	}
	product, err := s.product(ctx, req.ProductID)
	if err != nil {
		return catalog.Product{}, pricing.Factors{}, err
	}
	return product, pricing.Factors{
		Product:          product.Pricing(),
		SelectedSize:     req.SelectedSize,
		SelectedColor:    req.SelectedColor,
		BrandingMethod:   req.BrandingMethod,
		DesignComplexity: design,
		Quantity:         req.Quantity,
		IsAIGenerated:    req.IsAIGenerated,
		AIComplexity:     ai,
		AIVariations:     req.AIVariations,
		RushOrder:        req.RushOrder,
		CustomPackaging:  req.CustomPackaging,
	}, nil
}

func (s *Service) product(ctx context.Context, rawID string) (catalog.Product, error) {
	id, err := uuid.Parse(strings.TrimSpace(rawID))
	if err != nil {
		return catalog.Product{}, fmt.Errorf("%w: %v", ErrInvalidProductID, err)
	}
	return s.catalog.Product(ctx, id)
}

func (s *Service) startSpan(ctx context.Context, name string, req QuoteRequest) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("quote.product_id", req.ProductID),
		attribute.Int("quote.quantity", req.Quantity),
		attribute.String("quote.branding_method", req.BrandingMethod),
		attribute.Bool("quote.rush_order", req.RushOrder),
	))
}

func (s *Service) finish(span trace.Span, operation string, err error, total float64) {
	defer span.End()
	result := resultLabel(err)
	obs.RecordQuote(operation, result, total)
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if result == "error" {
		s.logger.Error().Err(err).Str("operation", operation).Msg("pricing operation failed")
	}
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, catalog.ErrProductNotFound):
		return "not_found"
	case errors.Is(err, pricing.ErrInvalidQuantity),
		errors.Is(err, pricing.ErrUnknownComplexity),
		errors.Is(err, ErrInvalidProductID):
		return "invalid"
	case errors.Is(err, resilience.ErrOpenCircuit):
		return "unavailable"
	default:
		return "error"
	}
}

// requestedBranding is the method the caller asked for, before any fallback.
// An omitted method means none.
func requestedBranding(method string) string {
	key := strings.ToLower(strings.TrimSpace(method))
	if key == "" {
		return string(pricing.BrandingNone)
	}
	return key
}

func summaryOf(p catalog.Product) ProductSummary {
	return ProductSummary{ID: p.ID.String(), Name: p.Name, Category: p.Category}
}
