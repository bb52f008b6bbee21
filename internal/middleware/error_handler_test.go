package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kronusitsolutions/KronusMed-DRW-sub000/internal/models"
	"github.com/kronusitsolutions/KronusMed-DRW-sub000/internal/services"
)

func runErrorHandler(t *testing.T, err error) (int, ErrorResponse) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	CustomErrorHandler(err, c)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestErrorHandlerValidationError(t *testing.T) {
	code, body := runErrorHandler(t, &services.ValidationError{Field: "amount", Reason: "must be greater than zero"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "amount", body.Field)
	assert.Equal(t, "amount must be greater than zero", body.Error)
}

func TestErrorHandlerNotFound(t *testing.T) {
	code, body := runErrorHandler(t, &services.NotFoundError{Resource: "invoice", Key: "99"})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "invoice 99 not found", body.Error)
}

func TestErrorHandlerInvalidState(t *testing.T) {
	code, _ := runErrorHandler(t, &services.InvalidStateError{
		InvoiceNumber: "INV-00000001",
		Status:        models.InvoiceStatusCancelled,
		Operation:     "record payment against",
	})
	assert.Equal(t, http.StatusConflict, code)
}

func TestErrorHandlerAlreadyExonerated(t *testing.T) {
	code, body := runErrorHandler(t, &services.AlreadyExoneratedError{InvoiceNumber: "INV-00000002"})
	assert.Equal(t, http.StatusConflict, code)
	assert.Contains(t, body.Error, "already exonerated")
}

func TestErrorHandlerConcurrencyConflict(t *testing.T) {
	code, body := runErrorHandler(t, &services.ConcurrencyConflictError{InvoiceNumber: "INV-00000003"})
	assert.Equal(t, http.StatusConflict, code)
	assert.Contains(t, body.Error, "retry")
}

func TestErrorHandlerEchoHTTPError(t *testing.T) {
	code, body := runErrorHandler(t, echo.NewHTTPError(http.StatusForbidden, "insufficient role for this operation"))
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "insufficient role for this operation", body.Error)
}

func TestErrorHandlerUnknownErrorIsGeneric500(t *testing.T) {
	code, body := runErrorHandler(t, errors.New("pq: connection refused"))
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.NotContains(t, body.Error, "pq:")
}
