package common

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type errorEnvelope struct {
	Error ErrorBody `json:"error"`
}

func TestWriteErrorAppError(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, ValidationError("invalid request", map[string]string{"quantity": "gt"}))

	require.Equal(t, http.StatusBadRequest, rr.Code)
	var body errorEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, CodeValidationFailed, body.Error.Code)
	require.Equal(t, map[string]any{"quantity": "gt"}, body.Error.Details)
}

func TestWriteErrorHidesUnknownErrors(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, errors.New("dial tcp 10.0.0.1:5432: refused"))

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.NotContains(t, rr.Body.String(), "10.0.0.1")
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Quantity float64 `json:"quantity"`
	}
	require.NoError(t, DecodeJSON(strings.NewReader(`{"quantity":2}`), &dst))
	require.Equal(t, 2.0, dst.Quantity)

	err := DecodeJSON(strings.NewReader(`{"quantity":2,"extra":true}`), &dst)
	require.True(t, IsAppError(err))

	err = DecodeJSON(strings.NewReader(`{"quantity":2} {}`), &dst)
	require.True(t, IsAppError(err))

	rr := httptest.NewRecorder()
	WriteError(rr, DecodeJSON(strings.NewReader(`{"quantity":`), &dst))
	require.Equal(t, http.StatusBadRequest, rr.Code)
}
