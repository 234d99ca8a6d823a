package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"medrec/internal/query"
)

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "medrec is running"})
}

func (h *Handler) DBCheck(c *gin.Context) {
	if h.DB == nil {
		respondError(c, http.StatusServiceUnavailable, "db_unavailable", "database is not connected", nil)
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.DB.PingContext(ctx); err != nil {
		if h.Log != nil {
			h.Log.Warn("database ping failed", "error", err)
		}
		respondError(c, http.StatusServiceUnavailable, "db_unavailable", "database ping failed", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "database connection OK"})
}

// GET /api/v1/specializations
func (h *Handler) ListSpecializations(c *gin.Context) {
	rows, err := h.Specializations.List(c.Request.Context(), query.Values(c.Request.URL.Query()))
	if err != nil {
		h.RespondDomainError(c, err)
		return
	}
	respondList(c, rows)
}
