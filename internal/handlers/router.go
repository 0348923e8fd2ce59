package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-maintenance/internal/middleware"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

// NewRouter mounts every API route behind authentication and permissions.
func NewRouter(analytics *AnalyticsHandler, authHandler *AuthHandler, authMW *middleware.AuthMiddleware, logger log.FieldLogger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger(logger))
	r.Use(authMW.Authenticate)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	limiter := middleware.NewRateLimitMiddleware()
	r.With(limiter.RateLimit(10, time.Minute)).Post("/api/auth/login", authHandler.Login)

	allow := authMW.RequirePermission
	r.Route("/api/analytics", func(r chi.Router) {
		r.With(allow(models.ActionViewAnalytics)).Get("/mileage", analytics.Mileage)
		r.With(allow(models.ActionViewAnalytics)).Get("/predictions", analytics.Predictions)
		r.With(allow(models.ActionViewAnalytics)).Get("/report", analytics.Report)
		r.With(allow(models.ActionTrainCostModel)).Post("/cost-model/train", analytics.TrainCostModel)
		r.With(allow(models.ActionPredictCost)).Post("/cost-model/predict", analytics.PredictCost)
	})
	r.Route("/api/vehicles", func(r chi.Router) {
		r.With(allow(models.ActionViewVehicles)).Get("/", analytics.ListVehicles)
		r.With(allow(models.ActionManageVehicles)).Post("/", analytics.CreateVehicle)
		r.With(allow(models.ActionRecordService)).Post("/{plate}/services", analytics.RecordService)
	})
	return r
}
