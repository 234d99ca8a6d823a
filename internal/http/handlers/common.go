package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"medrec/internal/domain"
	"medrec/internal/http/middleware"
	"medrec/internal/query"
	"medrec/internal/services"
)

// Pinger is the part of *sql.DB the health check needs.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Handler holds the services behind every route. Services are copied per
// request so the request id can travel into their logs.
type Handler struct {
	Doctors         services.DoctorService
	Patients        services.PatientService
	Specializations services.SpecializationService
	Auth            services.AuthService
	Docs            services.DocsService
	DB              Pinger
	Log             *slog.Logger
}

// RespondError sends standard error payload with request_id included.
func RespondError(c *gin.Context, status int, message string, err error) {
	payload := gin.H{
		"message":    message,
		"request_id": middleware.GetRequestID(c),
	}
	if err != nil {
		payload["error"] = err.Error()
	}
	c.JSON(status, payload)
}

// BindJSONOrError ensures body is present and parsable.
func BindJSONOrError[T any](c *gin.Context, dst *T) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		RespondError(c, http.StatusBadRequest, "request body is empty", nil)
		return false
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid payload", err)
		return false
	}
	return true
}

// pathID reads the :id parameter. It writes a 400 and returns false when the
// id is not a positive integer.
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		RespondDomainError(c, domain.ValidationError{Field: "id", Msg: "must be a positive integer"})
		return 0, false
	}
	return id, true
}

func respondList(c *gin.Context, rows []query.Record) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "success",
		"resultCount": len(rows),
		"data":        rows,
	})
}

func respondRecord(c *gin.Context, status int, rec query.Record) {
	c.JSON(status, gin.H{
		"status": "success",
		"data":   rec,
	})
}
