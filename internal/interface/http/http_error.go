package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/faq-matcher/internal/domain/faq"
	"github.com/yanqian/faq-matcher/internal/infra/admintoken"
	apperrors "github.com/yanqian/faq-matcher/pkg/errors"
)

// codeInternal is rendered for failures that carry no known service code.
const codeInternal = "faq_failed"

// codeStatus maps service error codes onto response statuses.
var codeStatus = map[string]int{
	faq.CodeEmptyInput:          http.StatusBadRequest,
	faq.CodeUnready:             http.StatusServiceUnavailable,
	faq.CodeRepresenter:         http.StatusBadGateway,
	faq.CodeReloadDisabled:      http.StatusConflict,
	faq.CodeReloadFailed:        http.StatusInternalServerError,
	faq.CodeStoreFailed:         http.StatusInternalServerError,
	admintoken.CodeInvalidToken: http.StatusForbidden,
}

// HTTPError is an error with the status and code it renders as.
type HTTPError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewHTTPError is a helper to build an HTTPError instance.
func NewHTTPError(status int, code, message string, err error) *HTTPError {
	return &HTTPError{Status: status, Code: code, Message: message, Err: err}
}

// asHTTPError resolves err to a renderable error. Service errors keep their
// apperrors code; anything else becomes a 500.
func asHTTPError(err error) *HTTPError {
	if err == nil {
		return nil
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	code := apperrors.CodeOf(err)
	status, ok := codeStatus[code]
	if !ok {
		status, code = http.StatusInternalServerError, codeInternal
	}
	return &HTTPError{Status: status, Code: code, Message: err.Error(), Err: err}
}

func abortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(asHTTPError(err))
	c.Abort()
}
