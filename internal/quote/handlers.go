package quote

import (
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/backend-printshop/internal/catalog"
	"github.com/noah-isme/backend-printshop/internal/common"
	"github.com/noah-isme/backend-printshop/internal/pricing"
	"github.com/noah-isme/backend-printshop/internal/resilience"
)

const defaultMaxBodyBytes = 64 << 10

// Handler exposes the quote endpoints over HTTP.
type Handler struct {
	svc          *Service
	validate     *validator.Validate
	maxBodyBytes int64
}

// HandlerConfig groups Handler dependencies.
type HandlerConfig struct {
	Service      *Service
	Validator    *validator.Validate
	MaxBodyBytes int64
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	v := cfg.Validator
	if v == nil {
		v = NewValidator()
	}
	limit := cfg.MaxBodyBytes
	if limit <= 0 {
		limit = defaultMaxBodyBytes
	}
	return &Handler{svc: cfg.Service, validate: v, maxBodyBytes: limit}
}

// Routes mounts the quote endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/quotes", h.Quote)
	r.Post("/quotes/bulk", h.Bulk)
	r.Post("/quotes/delivery", h.Delivery)
	r.Get("/branding/recommendation", h.Recommendation)
	r.Get("/branding/minimum", h.Minimum)
	r.Get("/rates", h.Rates)
}

// NewValidator returns a validator that reports fields by their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Quote handles POST /quotes.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	var req QuoteRequest
	if !h.decode(w, r, &req) {
		return
	}
	result, err := h.svc.Quote(r.Context(), req)
	if err != nil {
		common.WriteError(w, mapError(err))
		return
	}
	common.Data(w, http.StatusOK, result)
}

// Bulk handles POST /quotes/bulk.
func (h *Handler) Bulk(w http.ResponseWriter, r *http.Request) {
	var req QuoteRequest
	if !h.decode(w, r, &req) {
		return
	}
	result, err := h.svc.Bulk(r.Context(), req)
	if err != nil {
		common.WriteError(w, mapError(err))
		return
	}
	common.Data(w, http.StatusOK, result)
}

// Delivery handles POST /quotes/delivery.
func (h *Handler) Delivery(w http.ResponseWriter, r *http.Request) {
	var req DeliveryRequest
	if !h.decode(w, r, &req) {
		return
	}
	result, err := h.svc.Delivery(r.Context(), req)
	if err != nil {
		common.WriteError(w, mapError(err))
		return
	}
	common.Data(w, http.StatusOK, result)
}

// Recommendation handles GET /branding/recommendation.
func (h *Handler) Recommendation(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	quantity, err := queryInt(q.Get("quantity"), "quantity")
	if err != nil {
		common.WriteError(w, err)
		return
	}
	complexity := q.Get("complexity")
	if strings.TrimSpace(complexity) == "" {
		complexity = string(pricing.ComplexitySimple)
	}
	result, err := h.svc.Recommend(r.Context(), q.Get("productId"), quantity, complexity)
	if err != nil {
		common.WriteError(w, mapError(err))
		return
	}
	common.Data(w, http.StatusOK, result)
}

// Minimum handles GET /branding/minimum.
func (h *Handler) Minimum(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	method := strings.TrimSpace(q.Get("method"))
	if method == "" {
		common.WriteError(w, common.BadRequest("VALIDATION_ERROR", "method is required", nil, map[string]string{"method": "required"}))
		return
	}
	quantity, err := queryInt(q.Get("quantity"), "quantity")
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, h.svc.Minimum(method, quantity))
}

// Rates handles GET /rates.
func (h *Handler) Rates(w http.ResponseWriter, _ *http.Request) {
	common.Data(w, http.StatusOK, h.svc.Rates())
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := common.DecodeJSON(w, r, h.maxBodyBytes, dst); err != nil {
		common.WriteError(w, err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		common.WriteError(w, validationError(err))
		return false
	}
	return true
}

func queryInt(raw, field string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, common.BadRequest("VALIDATION_ERROR", field+" is required", nil, map[string]string{field: "required"})
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, common.BadRequest("VALIDATION_ERROR", field+" must be an integer", err, map[string]string{field: "integer"})
	}
	return n, nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return common.BadRequest("VALIDATION_ERROR", "invalid request", err, nil)
	}
	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		details[fe.Field()] = fe.Tag()
	}
	return common.BadRequest("VALIDATION_ERROR", "request validation failed", err, details)
}

func mapError(err error) error {
	switch {
	case common.IsAppError(err):
		return err
	case errors.Is(err, pricing.ErrInvalidQuantity):
		return common.BadRequest("INVALID_QUANTITY", "quantity must be at least 1", err, nil)
	case errors.Is(err, pricing.ErrUnknownComplexity):
		return common.BadRequest("INVALID_COMPLEXITY", "complexity must be one of simple, medium or complex", err, nil)
	case errors.Is(err, ErrInvalidProductID):
		return common.BadRequest("VALIDATION_ERROR", "productId must be a UUID", err, map[string]string{"productId": "uuid"})
	case errors.Is(err, catalog.ErrProductNotFound):
		return common.NewAppError("PRODUCT_NOT_FOUND", "product not found", http.StatusNotFound, err)
	case errors.Is(err, resilience.ErrOpenCircuit):
		return common.NewAppError("CATALOG_UNAVAILABLE", "product catalog temporarily unavailable", http.StatusServiceUnavailable, err)
	default:
		return common.NewAppError("INTERNAL", "internal error", http.StatusInternalServerError, err)
	}
}
