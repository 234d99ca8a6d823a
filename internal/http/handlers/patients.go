package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"medrec/internal/auth"
	"medrec/internal/http/middleware"
	"medrec/internal/query"
	"medrec/internal/services"
)

func (h *Handler) patients(c *gin.Context) services.PatientService {
	s := h.Patients
	s.RequestID = middleware.GetRequestID(c)
	return s
}

// GET /api/v1/patients
func (h *Handler) ListPatients(c *gin.Context) {
	rows, err := h.patients(c).List(c.Request.Context(), query.Values(c.Request.URL.Query()))
	if err != nil {
		h.RespondDomainError(c, err)
		return
	}
	respondList(c, rows)
}

// GET /api/v1/patients/:id
func (h *Handler) GetPatient(c *gin.Context) {
	id, ok := pathID(c)
	if !ok || !h.requireSelf(c, auth.SubjectPatient, id, true) {
		return
	}
	rec, err := h.patients(c).Get(c.Request.Context(), id)
	if err != nil {
		h.RespondDomainError(c, err)
		return
	}
	respondRecord(c, http.StatusOK, rec)
}

// POST /api/v1/patients
func (h *Handler) CreatePatient(c *gin.Context) {
	var form services.PatientForm
	if !BindJSONOrError(c, &form) {
		return
	}
	rec, err := h.patients(c).Create(c.Request.Context(), form)
	if err != nil {
		h.RespondDomainError(c, err)
		return
	}
	respondRecord(c, http.StatusCreated, rec)
}

// PUT /api/v1/patients/:id
func (h *Handler) UpdatePatient(c *gin.Context) {
	id, ok := pathID(c)
	if !ok || !h.requireSelf(c, auth.SubjectPatient, id, true) {
		return
	}
	var body services.PatientUpdate
	if !BindJSONOrError(c, &body) {
		return
	}
	rec, err := h.patients(c).Update(c.Request.Context(), id, body)
	if err != nil {
		h.RespondDomainError(c, err)
		return
	}
	respondRecord(c, http.StatusOK, rec)
}

// DELETE /api/v1/patients/:id
func (h *Handler) DeletePatient(c *gin.Context) {
	id, ok := pathID(c)
	if !ok || !h.requireSelf(c, auth.SubjectPatient, id, true) {
		return
	}
	if err := h.patients(c).Delete(c.Request.Context(), id); err != nil {
		h.RespondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/v1/patients/:id/card
func (h *Handler) PatientCard(c *gin.Context) {
	id, ok := pathID(c)
	if !ok || !h.requireSelf(c, auth.SubjectPatient, id, true) {
		return
	}
	docs := h.Docs
	docs.Patients = h.patients(c)
	docs.RequestID = middleware.GetRequestID(c)

	pdf, name, err := docs.PatientCard(c.Request.Context(), id)
	if err != nil {
		h.RespondDomainError(c, err)
		return
	}
	c.Header("Content-Disposition", `inline; filename="`+name+`"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// POST /api/v1/patients/login
func (h *Handler) PatientLogin(c *gin.Context) {
	h.login(c, auth.SubjectPatient)
}
