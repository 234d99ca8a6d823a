package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"medrec/internal/auth"
	"medrec/internal/http/middleware"
	"medrec/internal/query"
	"medrec/internal/services"
)

func (h *Handler) doctors(c *gin.Context) services.DoctorService {
	s := h.Doctors
	s.RequestID = middleware.GetRequestID(c)
	return s
}

// GET /api/v1/doctors
func (h *Handler) ListDoctors(c *gin.Context) {
	rows, err := h.doctors(c).List(c.Request.Context(), query.Values(c.Request.URL.Query()))
	if err != nil {
		h.RespondDomainError(c, err)
		return
	}
	respondList(c, rows)
}

// GET /api/v1/doctors/online
func (h *Handler) ListOnlineDoctors(c *gin.Context) {
	rows, err := h.doctors(c).ListOnline(c.Request.Context(), query.Values(c.Request.URL.Query()))
	if err != nil {
		h.RespondDomainError(c, err)
		return
	}
	respondList(c, rows)
}

// POST /api/v1/doctors
func (h *Handler) CreateDoctor(c *gin.Context) {
	var form services.DoctorForm
	if !BindJSONOrError(c, &form) {
		return
	}
	rec, err := h.doctors(c).Create(c.Request.Context(), form)
	if err != nil {
		h.RespondDomainError(c, err)
		return
	}
	respondRecord(c, http.StatusCreated, rec)
}

// PUT /api/v1/doctors/:id
func (h *Handler) UpdateDoctor(c *gin.Context) {
	id, ok := pathID(c)
	if !ok || !h.requireSelf(c, auth.SubjectDoctor, id, false) {
		return
	}
	var body services.DoctorUpdate
	if !BindJSONOrError(c, &body) {
		return
	}
	rec, err := h.doctors(c).Update(c.Request.Context(), id, body)
	if err != nil {
		h.RespondDomainError(c, err)
		return
	}
	respondRecord(c, http.StatusOK, rec)
}

// DELETE /api/v1/doctors/:id
func (h *Handler) DeleteDoctor(c *gin.Context) {
	id, ok := pathID(c)
	if !ok || !h.requireSelf(c, auth.SubjectDoctor, id, false) {
		return
	}
	if err := h.doctors(c).Delete(c.Request.Context(), id); err != nil {
		h.RespondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/v1/doctors/login
func (h *Handler) DoctorLogin(c *gin.Context) {
	h.login(c, auth.SubjectDoctor)
}
