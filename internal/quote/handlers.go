package quote

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/pricecompare-api/internal/common"
	"github.com/noah-isme/pricecompare-api/internal/obs"
)

// Handler exposes the pricing endpoints.
type Handler struct {
	service *Service
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service *Service
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{service: cfg.Service}
}

// Routes registers the pricing endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/tax-rates", h.TaxRates)
	r.Post("/tax/preview", h.PreviewTax)
	r.Post("/promotions/evaluate", h.EvaluatePromotions)
	r.Post("/sessions/summary", h.SummarizeSession)
}

// TaxRates handles GET /api/v1/tax-rates.
func (h *Handler) TaxRates(w http.ResponseWriter, _ *http.Request) {
	if !h.ready(w) {
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": h.service.TaxRates()})
}

// PreviewTax handles POST /api/v1/tax/preview.
func (h *Handler) PreviewTax(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var req TaxPreviewRequest
	if err := common.DecodeJSON(r.Body, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	res, err := h.service.PreviewTax(r.Context(), req)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	obs.Annotate(r.Context(), "tax_code", res.TaxCode)
	common.JSON(w, http.StatusOK, map[string]any{"data": res})
}

// EvaluatePromotions handles POST /api/v1/promotions/evaluate.
func (h *Handler) EvaluatePromotions(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var req EvaluateRequest
	if err := common.DecodeJSON(r.Body, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	res, err := h.service.EvaluatePromotions(r.Context(), req)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	obs.Annotate(r.Context(), "promotions_source", res.Source)
	obs.Annotate(r.Context(), "promotions", strconv.Itoa(len(res.Evaluations)))
	common.JSON(w, http.StatusOK, map[string]any{"data": res})
}

// SummarizeSession handles POST /api/v1/sessions/summary.
func (h *Handler) SummarizeSession(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var req SessionRequest
	if err := common.DecodeJSON(r.Body, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	res, err := h.service.SummarizeSession(r.Context(), req)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	obs.Annotate(r.Context(), "session_items", strconv.Itoa(len(res.Lines)))
	common.JSON(w, http.StatusOK, map[string]any{"data": res})
}

func (h *Handler) ready(w http.ResponseWriter) bool {
	if h == nil || h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "quote service not configured", nil)
		return false
	}
	return true
}
