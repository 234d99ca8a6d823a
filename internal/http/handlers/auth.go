package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"medrec/internal/auth"
	"medrec/internal/domain"
	"medrec/internal/http/middleware"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(c *gin.Context, st auth.SubjectType) {
	var req loginRequest
	if !BindJSONOrError(c, &req) {
		return
	}

	svc := h.Auth
	svc.RequestID = middleware.GetRequestID(c)
	res, err := svc.Login(c.Request.Context(), st, req.Email, req.Password)
	if err != nil {
		h.RespondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "success",
		"user":      res.Identity.Identifier,
		"token":     res.Token.Value,
		"expiresAt": res.Token.ExpiresAt,
	})
}

// GET /api/v1/doctors/check and /api/v1/patients/check
func (h *Handler) CheckLogin(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "unauthorized", "missing bearer token", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   claims,
	})
}

// requireSelf lets a request through when its token belongs to subject id of
// type st. With doctors set, any doctor token is accepted as well. It writes
// a 403 otherwise.
func (h *Handler) requireSelf(c *gin.Context, st auth.SubjectType, id int64, doctors bool) bool {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "unauthorized", "missing bearer token", nil)
		return false
	}
	if claims.SubjectType == st && claims.SubjectID == strconv.FormatInt(id, 10) {
		return true
	}
	if doctors && claims.SubjectType == auth.SubjectDoctor {
		return true
	}
	h.RespondDomainError(c, domain.ForbiddenError{Resource: string(st)})
	return false
}
