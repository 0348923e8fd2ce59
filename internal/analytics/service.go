package analytics

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-maintenance/internal/costmodel"
	"github.com/ukydev/fleet-maintenance/internal/db"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

// ErrInvalidRequest marks input rejected before any computation.
var ErrInvalidRequest = errors.New("invalid request")

// TopUsageLimit bounds the usage leaderboard of the fleet report.
const TopUsageLimit = 10

type dataset struct {
	vehicles []models.Vehicle
	services []models.ServiceRecord
}

// Service runs the analytics against a fleet backend.
type Service struct {
	Fleet      db.FleetStore
	Models     costmodel.Store
	Clock      Clock
	Cache      *Cache
	Thresholds models.Thresholds
	Training   costmodel.Options
	Logger     log.FieldLogger
}

// NewService wires a Service with the system clock and default thresholds.
func NewService(fleet db.FleetStore, store costmodel.Store, cache *Cache) *Service {
	clock := Clock(SystemClock{})
	if cache == nil {
		cache = NewCache(clock, DefaultCacheTTL, DefaultCacheSize)
	}
	return &Service{
		Fleet:      fleet,
		Models:     store,
		Clock:      clock,
		Cache:      cache,
		Thresholds: models.DefaultThresholds(),
		Logger:     log.StandardLogger(),
	}
}

func (s *Service) today() string {
	return calendarDay(s.Clock.Now()).Format("2006-01-02")
}

// load snapshots both fleet tables.
func (s *Service) load(ctx context.Context) (dataset, error) {
	vehicles, err := s.Fleet.Vehicles(ctx)
	if err != nil {
		return dataset{}, fmt.Errorf("load vehicles: %w", err)
	}
	services, err := s.Fleet.ServiceHistory(ctx)
	if err != nil {
		return dataset{}, fmt.Errorf("load service history: %w", err)
	}
	return dataset{vehicles: vehicles, services: services}, nil
}

// MileageStats returns the usage rate of every vehicle, busiest first.
func (s *Service) MileageStats(ctx context.Context) ([]models.MileageStat, error) {
	key := Key("mileage_stats", s.today())
	if v, ok := s.Cache.Get(key); ok {
		return v.([]models.MileageStat), nil
	}
	data, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	stats := EstimateMileage(data.vehicles, data.services, s.Clock.Now())
	s.Cache.Set(key, stats)
	s.Logger.WithField("vehicles", len(stats)).Debug("Computed mileage stats")
	return stats, nil
}

// Predictions forecasts the next service of every vehicle. Zero threshold
// fields take the service defaults.
func (s *Service) Predictions(ctx context.Context, th models.Thresholds) ([]models.MaintenancePrediction, error) {
	defaults := s.Thresholds
	if defaults.DistanceKm <= 0 || defaults.Days <= 0 {
		defaults = models.DefaultThresholds()
	}
	if th.DistanceKm == 0 {
		th.DistanceKm = defaults.DistanceKm
	}
	if th.Days == 0 {
		th.Days = defaults.Days
	}
	if th.DistanceKm < 0 || th.Days < 0 {
		return nil, fmt.Errorf("%w: thresholds must be positive", ErrInvalidRequest)
	}
	if math.IsNaN(th.DistanceKm) || math.IsInf(th.DistanceKm, 0) {
		return nil, fmt.Errorf("%w: distance threshold must be finite", ErrInvalidRequest)
	}
	if th.Days > MaxForecastDays {
		return nil, fmt.Errorf("%w: time threshold must not exceed %d days", ErrInvalidRequest, MaxForecastDays)
	}

	key := Key("predictions", struct {
		Thresholds models.Thresholds
		Day        string
	}{th, s.today()})
	if v, ok := s.Cache.Get(key); ok {
		return v.([]models.MaintenancePrediction), nil
	}
	data, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	preds := ForecastMaintenance(data.vehicles, data.services, th, s.Clock.Now())
	s.Cache.Set(key, preds)
	s.Logger.WithFields(log.Fields{
		"vehicles":     len(preds),
		"distance_km":  th.DistanceKm,
		"days":         th.Days,
		"service_date": s.today(),
	}).Debug("Computed maintenance predictions")
	return preds, nil
}

// Report assembles the dashboard tabulations with the default thresholds.
func (s *Service) Report(ctx context.Context) (*models.FleetReport, error) {
	data, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	preds, err := s.Predictions(ctx, s.Thresholds)
	if err != nil {
		return nil, err
	}
	stats, err := s.MileageStats(ctx)
	if err != nil {
		return nil, err
	}
	if len(stats) > TopUsageLimit {
		stats = stats[:TopUsageLimit]
	}
	return &models.FleetReport{
		GeneratedAt:     s.Clock.Now(),
		Summary:         Summarize(data.vehicles, data.services, preds),
		ForecastByMonth: ForecastByMonth(preds),
		CostByType:      CostBreakdown(data.vehicles, data.services, ByVehicleType),
		CostByArea:      CostBreakdown(data.vehicles, data.services, ByArea),
		TopUsage:        stats,
	}, nil
}

// TrainCostModel fits the cost model on the full history and replaces the
// stored artifact. On failure the stored artifact is left untouched.
func (s *Service) TrainCostModel(ctx context.Context) (*costmodel.Artifact, error) {
	data, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	opts := s.Training
	opts.Now = s.Clock.Now()

	m, ev, err := costmodel.Train(data.vehicles, data.services, opts)
	if err != nil {
		s.Logger.WithError(err).Warn("Cost model training failed")
		return nil, err
	}
	artifact := costmodel.NewArtifact(m, ev, opts.Now)
	if err := s.Models.Save(ctx, artifact); err != nil {
		return nil, fmt.Errorf("save cost model: %w", err)
	}
	s.Logger.WithFields(log.Fields{
		"model_id": artifact.ID,
		"samples":  ev.Samples,
		"r2":       ev.R2,
		"mae":      ev.MAE,
	}).Info("Cost model trained")
	return artifact, nil
}

// PredictCost estimates the cost of a future service. The vehicle comes
// either from the fleet by plate or from the attributes in the request.
func (s *Service) PredictCost(ctx context.Context, req models.CostEstimateRequest) (*models.CostEstimate, error) {
	if strings.TrimSpace(req.ServiceType) == "" {
		return nil, fmt.Errorf("%w: service_type is required", ErrInvalidRequest)
	}
	if req.Odometer < 0 {
		return nil, fmt.Errorf("%w: odometer must not be negative", ErrInvalidRequest)
	}

	var attrs models.VehicleAttributes
	switch {
	case req.Plate != "":
		v, err := s.Fleet.FindVehicle(ctx, req.Plate)
		if err != nil {
			return nil, err
		}
		attrs = v.Attributes()
		if req.Odometer == 0 {
			req.Odometer = v.Odometer
		}
	case req.Vehicle != nil:
		attrs = *req.Vehicle
	default:
		return nil, fmt.Errorf("%w: plate or vehicle is required", ErrInvalidRequest)
	}

	artifact, err := s.Models.Load(ctx)
	if err != nil {
		if errors.Is(err, costmodel.ErrNoModel) {
			s.Logger.Warn("Cost prediction requested before any model was trained")
		}
		return nil, err
	}
	cost := artifact.Model.Predict(costmodel.PredictionObservation(attrs, req.Odometer, req.ServiceType))
	return &models.CostEstimate{
		Plate:       req.Plate,
		ServiceType: req.ServiceType,
		Odometer:    req.Odometer,
		Cost:        cost,
		ModelID:     artifact.ID,
		TrainedAt:   artifact.TrainedAt,
	}, nil
}

// Vehicles lists the fleet.
func (s *Service) Vehicles(ctx context.Context) ([]models.Vehicle, error) {
	return s.Fleet.Vehicles(ctx)
}

// AddVehicle registers a vehicle and drops cached results.
func (s *Service) AddVehicle(ctx context.Context, v models.Vehicle) error {
	v.Plate = strings.TrimSpace(v.Plate)
	if v.Plate == "" {
		return fmt.Errorf("%w: plate is required", ErrInvalidRequest)
	}
	if v.Status == "" {
		v.Status = models.StatusInService
	}
	if !models.IsValidStatus(v.Status) {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidRequest, v.Status)
	}
	if v.Odometer < 0 {
		return fmt.Errorf("%w: odometer must not be negative", ErrInvalidRequest)
	}
	if err := s.Fleet.InsertVehicle(ctx, v); err != nil {
		return err
	}
	s.Cache.Clear()
	s.Logger.WithField("plate", v.Plate).Info("Vehicle registered")
	return nil
}

// RecordService logs a completed service and drops cached results.
func (s *Service) RecordService(ctx context.Context, rec models.ServiceRecord) error {
	if rec.Plate == "" {
		return fmt.Errorf("%w: plate is required", ErrInvalidRequest)
	}
	if !rec.HasDate() {
		return fmt.Errorf("%w: date is required", ErrInvalidRequest)
	}
	if rec.Cost < 0 {
		return fmt.Errorf("%w: cost must not be negative", ErrInvalidRequest)
	}
	if rec.Odometer != nil && *rec.Odometer < 0 {
		return fmt.Errorf("%w: odometer must not be negative", ErrInvalidRequest)
	}
	rec.Date = calendarDay(rec.Date)
	if err := s.Fleet.AddServiceRecord(ctx, rec); err != nil {
		return err
	}
	s.Cache.Clear()
	s.Logger.WithFields(log.Fields{
		"plate":        rec.Plate,
		"service_type": rec.ServiceType,
		"cost":         rec.Cost,
	}).Info("Service recorded")
	return nil
}
