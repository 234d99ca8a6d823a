package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"medrec/internal/domain"
	"medrec/internal/http/middleware"
	"medrec/internal/query"
)

// ErrorResponse standardizes error payloads.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Details   any    `json:"details,omitempty"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func respondError(c *gin.Context, status int, code, message string, details any) {
	if code == "" {
		code = http.StatusText(status)
	}
	c.JSON(status, ErrorResponse{
		Error:     message,
		Code:      code,
		Details:   details,
		Message:   message,
		RequestID: middleware.GetRequestID(c),
	})
}

var statusByCode = map[string]int{
	domain.CodeValidation:   http.StatusBadRequest,
	domain.CodeUnauthorized: http.StatusUnauthorized,
	domain.CodeForbidden:    http.StatusForbidden,
	domain.CodeNotFound:     http.StatusNotFound,
	domain.CodeConflict:     http.StatusConflict,
}

// RespondDomainError maps domain and query errors to HTTP responses.
// Anything unrecognized is logged and answered with a generic 500.
func (h *Handler) RespondDomainError(c *gin.Context, err error) {
	var pe *query.ParseError
	if errors.As(err, &pe) {
		respondError(c, http.StatusBadRequest, "invalid_query", pe.Error(), gin.H{
			"param": pe.Param,
			"kind":  string(pe.Kind),
		})
		return
	}

	code := domain.CodeOf(err)
	if status, ok := statusByCode[code]; ok {
		respondError(c, status, code, err.Error(), nil)
		return
	}

	if h != nil && h.Log != nil {
		h.Log.Error("request failed",
			"request_id", middleware.GetRequestID(c),
			"path", c.FullPath(),
			"error", err,
		)
	}
	respondError(c, http.StatusInternalServerError, domain.CodeInternal, "something went wrong", nil)
}

// RespondDomainError is the handler-less form used where no logger is at hand.
func RespondDomainError(c *gin.Context, err error) {
	(*Handler)(nil).RespondDomainError(c, err)
}
