package middleware

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/kronusitsolutions/KronusMed-DRW-sub000/internal/services"
)

// ErrorResponse is the JSON body returned for every failed request
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// CustomErrorHandler maps the billing error taxonomy onto HTTP status codes.
// Validation and state errors carry their specific message to the client;
// anything unexpected is logged server-side and returned as a generic 500.
func CustomErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	resp := ErrorResponse{Error: "something went wrong, please try again later"}

	var (
		validationErr  *services.ValidationError
		notFoundErr    *services.NotFoundError
		alreadyExoErr  *services.AlreadyExoneratedError
		invalidState   *services.InvalidStateError
		conflictErr    *services.ConcurrencyConflictError
		bindingErrs    validator.ValidationErrors
		httpErr        *echo.HTTPError
	)

	switch {
	case errors.As(err, &validationErr):
		code = http.StatusBadRequest
		resp = ErrorResponse{Error: validationErr.Error(), Field: validationErr.Field}
	case errors.As(err, &bindingErrs):
		code = http.StatusBadRequest
		resp = ErrorResponse{Error: "request validation failed"}
		if len(bindingErrs) > 0 {
			resp.Field = bindingErrs[0].Field()
			resp.Error = "invalid value for " + bindingErrs[0].Field()
		}
	case errors.As(err, &notFoundErr):
		code = http.StatusNotFound
		resp = ErrorResponse{Error: notFoundErr.Error()}
	case errors.As(err, &alreadyExoErr):
		code = http.StatusConflict
		resp = ErrorResponse{Error: alreadyExoErr.Error()}
	case errors.As(err, &invalidState):
		code = http.StatusConflict
		resp = ErrorResponse{Error: invalidState.Error()}
	case errors.As(err, &conflictErr):
		// Surfaced only after the bounded retries inside the services gave up
		code = http.StatusConflict
		resp = ErrorResponse{Error: "the invoice was modified concurrently, please retry"}
	case errors.As(err, &httpErr):
		code = httpErr.Code
		if msg, ok := httpErr.Message.(string); ok && msg != "" {
			resp = ErrorResponse{Error: msg}
		} else {
			resp = ErrorResponse{Error: http.StatusText(code)}
		}
	default:
		// Internal errors are logged with full detail but never leaked
		c.Logger().Error(err)
	}

	if err := c.JSON(code, resp); err != nil {
		c.Logger().Error(err)
	}
}
