package handlers

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ukydev/fleet-maintenance/internal/costmodel"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

// FleetAnalytics is the service behind the analytics and fleet endpoints.
type FleetAnalytics interface {
	MileageStats(ctx context.Context) ([]models.MileageStat, error)
	Predictions(ctx context.Context, th models.Thresholds) ([]models.MaintenancePrediction, error)
	Report(ctx context.Context) (*models.FleetReport, error)
	TrainCostModel(ctx context.Context) (*costmodel.Artifact, error)
	PredictCost(ctx context.Context, req models.CostEstimateRequest) (*models.CostEstimate, error)
	Vehicles(ctx context.Context) ([]models.Vehicle, error)
	AddVehicle(ctx context.Context, v models.Vehicle) error
	RecordService(ctx context.Context, rec models.ServiceRecord) error
}

// AnalyticsHandler serves the maintenance analytics API.
type AnalyticsHandler struct {
	service FleetAnalytics
}

func NewAnalyticsHandler(service FleetAnalytics) *AnalyticsHandler {
	return &AnalyticsHandler{service: service}
}

// TrainResponse reports a completed training run.
type TrainResponse struct {
	Message    string               `json:"message"`
	ModelID    string               `json:"model_id"`
	TrainedAt  time.Time            `json:"trained_at"`
	Evaluation costmodel.Evaluation `json:"evaluation"`
}

// ServiceRequest is the body of a service log entry.
type ServiceRequest struct {
	Date        string   `json:"date"`
	Odometer    *float64 `json:"odometer,omitempty"`
	ServiceType string   `json:"service_type"`
	Workshop    string   `json:"workshop"`
	Cost        float64  `json:"cost"`
	Description string   `json:"description"`
}

func (h *AnalyticsHandler) Mileage(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.MileageStats(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Predictions accepts optional distance_threshold and time_threshold_days
// query parameters.
func (h *AnalyticsHandler) Predictions(w http.ResponseWriter, r *http.Request) {
	var th models.Thresholds
	q := r.URL.Query()
	if v := q.Get("distance_threshold"); v != "" {
		d, err := strconv.ParseFloat(v, 64)
		if err != nil || d <= 0 || math.IsNaN(d) || math.IsInf(d, 0) {
			writeError(w, http.StatusBadRequest, "distance_threshold must be a positive number")
			return
		}
		th.DistanceKm = d
	}
	if v := q.Get("time_threshold_days"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil || days <= 0 {
			writeError(w, http.StatusBadRequest, "time_threshold_days must be a positive integer")
			return
		}
		th.Days = days
	}

	preds, err := h.service.Predictions(r.Context(), th)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, preds)
}

func (h *AnalyticsHandler) Report(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Report(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *AnalyticsHandler) TrainCostModel(w http.ResponseWriter, r *http.Request) {
	artifact, err := h.service.TrainCostModel(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, TrainResponse{
		Message:    "Model trained successfully. " + artifact.Evaluation.Message(),
		ModelID:    artifact.ID,
		TrainedAt:  artifact.TrainedAt,
		Evaluation: artifact.Evaluation,
	})
}

func (h *AnalyticsHandler) PredictCost(w http.ResponseWriter, r *http.Request) {
	var req models.CostEstimateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	estimate, err := h.service.PredictCost(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, estimate)
}

func (h *AnalyticsHandler) ListVehicles(w http.ResponseWriter, r *http.Request) {
	vehicles, err := h.service.Vehicles(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, vehicles)
}

func (h *AnalyticsHandler) CreateVehicle(w http.ResponseWriter, r *http.Request) {
	var v models.Vehicle
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := h.service.AddVehicle(r.Context(), v); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"plate": strings.TrimSpace(v.Plate)})
}

func (h *AnalyticsHandler) RecordService(w http.ResponseWriter, r *http.Request) {
	var req ServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	date := models.ParseDate(req.Date)
	if date.IsZero() {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	rec := models.ServiceRecord{
		Plate:       chi.URLParam(r, "plate"),
		Date:        date,
		Odometer:    req.Odometer,
		ServiceType: req.ServiceType,
		Workshop:    req.Workshop,
		Cost:        req.Cost,
		Description: req.Description,
	}
	if err := h.service.RecordService(r.Context(), rec); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "service recorded"})
}
