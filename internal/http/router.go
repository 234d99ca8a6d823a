package api

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"

	"medrec/internal/auth"
	intconfig "medrec/internal/config"
	h "medrec/internal/http/handlers"
	"medrec/internal/http/middleware"
	"medrec/internal/logging"
)

func NewRouter(env intconfig.Env, hd *h.Handler) *gin.Engine {
	log := hd.Log
	if log == nil {
		log = logging.Discard()
	}

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(log), gin.Recovery(), middleware.CORS(env.CORSOrigins))

	if err := r.SetTrustedProxies(nil); err != nil {
		log.Warn("failed to set trusted proxies", "error", err)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	anyToken := middleware.RequireToken(hd.Auth)
	doctorToken := middleware.RequireToken(hd.Auth, auth.SubjectDoctor)
	patientToken := middleware.RequireToken(hd.Auth, auth.SubjectPatient)

	api := r.Group("/api")
	{
		api.GET("/health", hd.Health)
		api.GET("/db-check", hd.DBCheck)

		v1 := api.Group("/v1")

		doctors := v1.Group("/doctors")
		doctors.GET("", hd.ListDoctors)
		doctors.GET("/online", hd.ListOnlineDoctors)
		doctors.POST("", hd.CreateDoctor)
		doctors.POST("/login", hd.DoctorLogin)
		doctors.GET("/check", doctorToken, hd.CheckLogin)
		doctors.PUT("/:id", doctorToken, hd.UpdateDoctor)
		doctors.DELETE("/:id", doctorToken, hd.DeleteDoctor)

		patients := v1.Group("/patients")
		patients.GET("", doctorToken, hd.ListPatients)
		patients.POST("", hd.CreatePatient)
		patients.POST("/login", hd.PatientLogin)
		patients.GET("/check", patientToken, hd.CheckLogin)
		patients.GET("/:id", anyToken, hd.GetPatient)
		patients.PUT("/:id", anyToken, hd.UpdatePatient)
		patients.DELETE("/:id", anyToken, hd.DeletePatient)
		patients.GET("/:id/card", anyToken, hd.PatientCard)

		v1.GET("/specializations", hd.ListSpecializations)
	}

	return r
}
