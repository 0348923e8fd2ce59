package analytics

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleet-maintenance/internal/costmodel"
	"github.com/ukydev/fleet-maintenance/internal/db"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

type testEnv struct {
	svc    *Service
	fleet  *db.SQLiteFleetStore
	store  *costmodel.FileStore
	clock  *fakeClock
	logged *test.Hook
}

func newTestEnv(t *testing.T, store *costmodel.FileStore) *testEnv {
	t.Helper()
	sqlDB, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	if store == nil {
		store, err = costmodel.NewFileStore(t.TempDir())
		require.NoError(t, err)
	}
	logger, hook := test.NewNullLogger()
	clock := &fakeClock{now: date(2024, 10, 1)}
	fleet := &db.SQLiteFleetStore{DB: sqlDB}
	svc := &Service{
		Fleet:      fleet,
		Models:     store,
		Clock:      clock,
		Cache:      NewCache(clock, time.Hour, 10),
		Thresholds: models.DefaultThresholds(),
		Logger:     logger,
	}
	return &testEnv{svc: svc, fleet: fleet, store: store, clock: clock, logged: hook}
}

// seed registers two vehicles and n costed services spread over 2024.
func (e *testEnv) seed(t *testing.T, n int) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, e.svc.AddVehicle(ctx, models.Vehicle{Plate: "AA", Make: "Fiat", Type: "van", Area: "North", Year: 2019, Odometer: 30000}))
	require.NoError(t, e.svc.AddVehicle(ctx, models.Vehicle{Plate: "BB", Make: "Iveco", Type: "truck", Area: "South", Year: 2015, Odometer: 60000}))
	for i := 0; i < n; i++ {
		plate := []string{"AA", "BB"}[i%2]
		require.NoError(t, e.svc.RecordService(ctx, models.ServiceRecord{
			Plate:       plate,
			Date:        date(2024, 1, 1).AddDate(0, 0, i*15),
			Odometer:    models.Float(float64(10000 + i*1000)),
			ServiceType: fmt.Sprintf("type-%d", i%3),
			Workshop:    "Central",
			Cost:        float64(120 + 35*i),
		}))
	}
}

func TestService_MileageAndPredictions(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	require.NoError(t, env.svc.AddVehicle(ctx, models.Vehicle{Plate: "X", Odometer: 10000}))
	require.NoError(t, env.svc.RecordService(ctx, service("X", date(2024, 1, 1), 10000, 150)))
	require.NoError(t, env.svc.RecordService(ctx, service("X", date(2024, 7, 1), 13000, 220)))
	// the vehicle sits at 14000 km today
	_, err := env.fleet.DB.Exec(`UPDATE vehicles SET odometer = 14000 WHERE plate = 'X'`)
	require.NoError(t, err)
	env.svc.Cache.Clear()

	stats, err := env.svc.MileageStats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.InDelta(t, 13.6765, stats[0].MeanKmPerDay, 1e-4)

	preds, err := env.svc.Predictions(ctx, models.Thresholds{})
	require.NoError(t, err)
	require.Len(t, preds, 1)
	assert.True(t, preds[0].PredictedNextServiceDate.Equal(date(2024, 12, 28)))
	assert.Equal(t, models.UrgencyPlanned, preds[0].Urgency)
}

func TestService_PredictionsCachedUntilWrite(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	require.NoError(t, env.svc.AddVehicle(ctx, models.Vehicle{Plate: "X", Odometer: 2000}))
	require.NoError(t, env.svc.RecordService(ctx, service("X", date(2024, 9, 1), 1000, 100)))

	first, err := env.svc.Predictions(ctx, models.DefaultThresholds())
	require.NoError(t, err)
	require.Len(t, first, 1)

	// a write behind the service's back is not seen while cached
	_, err = env.fleet.DB.Exec(`UPDATE vehicles SET odometer = 9000 WHERE plate = 'X'`)
	require.NoError(t, err)
	cached, err := env.svc.Predictions(ctx, models.DefaultThresholds())
	require.NoError(t, err)
	assert.Equal(t, first[0].CurrentOdometer, cached[0].CurrentOdometer)

	require.NoError(t, env.svc.RecordService(ctx, service("X", date(2024, 9, 15), 1500, 100)))
	fresh, err := env.svc.Predictions(ctx, models.DefaultThresholds())
	require.NoError(t, err)
	assert.Equal(t, 9000.0, fresh[0].CurrentOdometer)
}

func TestService_PredictionsRejectsNegativeThresholds(t *testing.T) {
	env := newTestEnv(t, nil)
	_, err := env.svc.Predictions(context.Background(), models.Thresholds{DistanceKm: -5})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestService_PredictionsRejectsUnboundedThresholds(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	for _, th := range []models.Thresholds{
		{DistanceKm: math.NaN()},
		{DistanceKm: math.Inf(1)},
		{Days: MaxForecastDays + 1},
	} {
		_, err := env.svc.Predictions(ctx, th)
		assert.ErrorIs(t, err, ErrInvalidRequest, "%+v", th)
	}
}

func TestService_Report(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seed(t, 12)

	report, err := env.svc.Report(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Summary.TotalVehicles)
	assert.Equal(t, 2, report.Summary.InService)
	assert.Len(t, report.CostByType, 2)
	assert.Len(t, report.CostByArea, 2)
	assert.NotEmpty(t, report.ForecastByMonth)
	assert.LessOrEqual(t, len(report.TopUsage), TopUsageLimit)
	assert.True(t, report.GeneratedAt.Equal(env.clock.now))
}

func TestService_TrainAndPredictCost(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seed(t, 12)
	ctx := context.Background()

	artifact, err := env.svc.TrainCostModel(ctx)
	require.NoError(t, err)
	assert.Equal(t, 12, artifact.Evaluation.Samples)
	assert.NotEmpty(t, artifact.ID)

	byPlate, err := env.svc.PredictCost(ctx, models.CostEstimateRequest{Plate: "AA", ServiceType: "type-0"})
	require.NoError(t, err)
	assert.Equal(t, 30000.0, byPlate.Odometer)
	assert.Equal(t, artifact.ID, byPlate.ModelID)
	assert.GreaterOrEqual(t, byPlate.Cost, 0.0)

	// a make the model never saw still prices
	unseen, err := env.svc.PredictCost(ctx, models.CostEstimateRequest{
		Vehicle:     &models.VehicleAttributes{Make: "Tesla", Type: "car", Year: 2023},
		Odometer:    5000,
		ServiceType: "brakes",
	})
	require.NoError(t, err)
	assert.False(t, math.IsNaN(unseen.Cost))
	assert.False(t, math.IsInf(unseen.Cost, 0))
	assert.GreaterOrEqual(t, unseen.Cost, 0.0)
}

func TestService_TrainFailureKeepsStoredModel(t *testing.T) {
	trained := newTestEnv(t, nil)
	trained.seed(t, 12)
	ctx := context.Background()
	artifact, err := trained.svc.TrainCostModel(ctx)
	require.NoError(t, err)

	sparse := newTestEnv(t, trained.store)
	sparse.seed(t, 9)
	_, err = sparse.svc.TrainCostModel(ctx)
	require.ErrorIs(t, err, costmodel.ErrInsufficientData)
	assert.Contains(t, err.Error(), "minimum 10 records, got 9")

	stored, err := trained.store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, artifact.ID, stored.ID)

	require.NotNil(t, sparse.logged.LastEntry())
	assert.Equal(t, log.WarnLevel, sparse.logged.LastEntry().Level)
}

func TestService_PredictCostWithoutModel(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seed(t, 2)

	_, err := env.svc.PredictCost(context.Background(), models.CostEstimateRequest{Plate: "AA", ServiceType: "oil"})
	assert.ErrorIs(t, err, costmodel.ErrNoModel)
}

func TestService_PredictCostValidation(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seed(t, 2)
	ctx := context.Background()

	tests := []struct {
		name string
		req  models.CostEstimateRequest
		want error
	}{
		{"missing service type", models.CostEstimateRequest{Plate: "AA"}, ErrInvalidRequest},
		{"negative odometer", models.CostEstimateRequest{Plate: "AA", ServiceType: "oil", Odometer: -1}, ErrInvalidRequest},
		{"no vehicle", models.CostEstimateRequest{ServiceType: "oil"}, ErrInvalidRequest},
		{"unknown plate", models.CostEstimateRequest{Plate: "ZZ", ServiceType: "oil"}, db.ErrVehicleNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.PredictCost(ctx, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestService_WriteValidation(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	assert.ErrorIs(t, env.svc.AddVehicle(ctx, models.Vehicle{Plate: " "}), ErrInvalidRequest)
	assert.ErrorIs(t, env.svc.AddVehicle(ctx, models.Vehicle{Plate: "A", Status: "PARKED"}), ErrInvalidRequest)
	require.NoError(t, env.svc.AddVehicle(ctx, models.Vehicle{Plate: "A"}))
	assert.ErrorIs(t, env.svc.AddVehicle(ctx, models.Vehicle{Plate: "A"}), db.ErrVehicleExists)

	assert.ErrorIs(t, env.svc.RecordService(ctx, models.ServiceRecord{Plate: "A"}), ErrInvalidRequest)
	assert.ErrorIs(t, env.svc.RecordService(ctx, models.ServiceRecord{Plate: "A", Date: date(2024, 1, 1), Cost: -1}), ErrInvalidRequest)
	assert.ErrorIs(t, env.svc.RecordService(ctx, service("NOPE", date(2024, 1, 1), 10, 10)), db.ErrVehicleNotFound)

	vehicles, err := env.svc.Vehicles(ctx)
	require.NoError(t, err)
	require.Len(t, vehicles, 1)
	assert.Equal(t, models.StatusInService, vehicles[0].Status)
}
