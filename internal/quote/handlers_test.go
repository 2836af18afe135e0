package quote_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pricecompare-api/internal/common"
	"github.com/noah-isme/pricecompare-api/internal/quote"
)

type errorResponse struct {
	Error common.ErrorBody `json:"error"`
}

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	handler := quote.NewHandler(quote.HandlerConfig{Service: newService(t, quote.ServiceConfig{})})
	r := chi.NewRouter()
	r.Route("/api/v1", handler.Routes)
	return r
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandlerTaxRates(t *testing.T) {
	rec := doJSON(t, newRouter(t), http.MethodGet, "/api/v1/tax-rates", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data quote.TaxRatesResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "general", body.Data.DefaultCode)
	require.Len(t, body.Data.Rates, 4)
}

func TestHandlerPreviewTax(t *testing.T) {
	rec := doJSON(t, newRouter(t), http.MethodPost, "/api/v1/tax/preview",
		`{"unitPrice":10,"quantity":2,"taxCode":"general","priceIncludesTax":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data quote.TaxPreviewResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 9.35, body.Data.BasePrice)
	require.Equal(t, 1.31, body.Data.TaxAmount)
}

func TestHandlerEvaluatePromotions(t *testing.T) {
	rec := doJSON(t, newRouter(t), http.MethodPost, "/api/v1/promotions/evaluate", `{
		"unitPrice": 2, "quantity": 7,
		"promotions": [{"id": "m", "type": "multi_buy", "value": 5, "minQuantity": 3, "status": "verified"}]
	}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data quote.EvaluateResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotNil(t, body.Data.Best)
	require.Equal(t, 12.0, body.Data.Best.Result.FinalPrice)
}

func TestHandlerSessionSummary(t *testing.T) {
	rec := doJSON(t, newRouter(t), http.MethodPost, "/api/v1/sessions/summary", `{"items":[
		{"unitPrice": 10, "quantity": 2, "priceIncludesTax": true},
		{"unitPrice": 5, "quantity": 1, "taxCode": "exempt"}
	]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data quote.SessionResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data.Lines, 2)
	require.Equal(t, 23.69, body.Data.Summary.SubtotalBeforeTax)
	require.Equal(t, 1.31, body.Data.Summary.TotalTax)
	require.Equal(t, 25.0, body.Data.Summary.GrandTotal)
	require.Equal(t, 2, len(body.Data.Summary.Breakdown))
}

func TestHandlerRejectsBadInput(t *testing.T) {
	router := newRouter(t)

	cases := []struct {
		name   string
		path   string
		body   string
		status int
		code   string
	}{
		{"malformed json", "/api/v1/tax/preview", `{"unitPrice":`, http.StatusBadRequest, common.CodeBadRequest},
		{"unknown field", "/api/v1/tax/preview", `{"unitPrice":1,"quantity":1,"price":3}`, http.StatusBadRequest, common.CodeBadRequest},
		{"negative price", "/api/v1/tax/preview", `{"unitPrice":-1,"quantity":1}`, http.StatusBadRequest, common.CodeValidationFailed},
		{"zero quantity", "/api/v1/sessions/summary", `{"items":[{"unitPrice":1,"quantity":0}]}`, http.StatusBadRequest, common.CodeValidationFailed},
		{"unknown tax code", "/api/v1/sessions/summary", `{"items":[{"unitPrice":1,"quantity":1,"taxCode":"luxury"}]}`, http.StatusBadRequest, common.CodeValidationFailed},
		{"no promotion store", "/api/v1/promotions/evaluate", `{"productId":"a","storeId":"b","unitPrice":1,"quantity":1}`, http.StatusServiceUnavailable, common.CodeUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPost, tc.path, tc.body)
			require.Equal(t, tc.status, rec.Code, rec.Body.String())
			var body errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.Equal(t, tc.code, body.Error.Code)
		})
	}
}

func TestHandlerWithoutService(t *testing.T) {
	handler := quote.NewHandler(quote.HandlerConfig{})
	rec := httptest.NewRecorder()
	handler.TaxRates(rec, httptest.NewRequest(http.MethodGet, "/api/v1/tax-rates", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
