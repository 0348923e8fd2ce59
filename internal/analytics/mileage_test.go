package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

func TestEstimateMileage_TwoReadingsAndToday(t *testing.T) {
	vehicles, services, today := scenarioFleet()

	stats := EstimateMileage(vehicles, services, today)
	require.Len(t, stats, 1)

	st := stats[0]
	assert.Equal(t, "X", st.Plate)
	assert.Equal(t, 2, st.Samples)
	assert.InDelta(t, 3000.0/182, st.MaxKmPerDay, 1e-9)
	assert.InDelta(t, 1000.0/92, st.MinKmPerDay, 1e-9)
	assert.InDelta(t, 13.6765, st.MeanKmPerDay, 1e-4)
	assert.InDelta(t, 4991.9, st.EstimatedAnnualKm, 0.1)
	assert.Equal(t, 14000.0, st.CurrentOdometer)
	assert.True(t, st.LastObservation.Equal(today))
}

func TestEstimateMileage_MeanWithinMinMax(t *testing.T) {
	vehicles := []models.Vehicle{{Plate: "A", Odometer: 9000}}
	services := []models.ServiceRecord{
		service("A", date(2024, 1, 1), 1000, 0),
		service("A", date(2024, 1, 11), 1500, 0),
		service("A", date(2024, 2, 1), 4000, 0),
		service("A", date(2024, 4, 1), 6500, 0),
	}

	stats := EstimateMileage(vehicles, services, date(2024, 5, 1))
	require.Len(t, stats, 1)
	st := stats[0]
	assert.Equal(t, 4, st.Samples)
	assert.LessOrEqual(t, st.MinKmPerDay, st.MeanKmPerDay)
	assert.GreaterOrEqual(t, st.MaxKmPerDay, st.MeanKmPerDay)
}

func TestEstimateMileage_SkipsInvalidPairs(t *testing.T) {
	tests := []struct {
		name     string
		services []models.ServiceRecord
		odometer float64
		samples  int
	}{
		{
			name: "same day readings",
			services: []models.ServiceRecord{
				service("A", date(2024, 3, 1), 1000, 0),
				service("A", date(2024, 3, 1), 1200, 0),
			},
			odometer: 2200,
			samples:  1,
		},
		{
			name: "missing odometer",
			services: []models.ServiceRecord{
				{Plate: "A", Date: date(2024, 1, 1)},
				service("A", date(2024, 2, 1), 1000, 0),
			},
			odometer: 1500,
			samples:  1,
		},
		{
			name: "odometer rollback",
			services: []models.ServiceRecord{
				service("A", date(2024, 1, 1), 5000, 0),
				service("A", date(2024, 2, 1), 1000, 0),
			},
			odometer: 1300,
			samples:  1,
		},
		{
			name: "unparseable date",
			services: []models.ServiceRecord{
				{Plate: "A", Date: models.ParseDate("31/31/2024"), Odometer: models.Float(100)},
				service("A", date(2024, 2, 1), 1000, 0),
			},
			odometer: 1500,
			samples:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vehicles := []models.Vehicle{{Plate: "A", Odometer: tt.odometer}}
			stats := EstimateMileage(vehicles, tt.services, date(2024, 4, 1))
			require.Len(t, stats, 1)
			assert.Equal(t, tt.samples, stats[0].Samples)
			assert.GreaterOrEqual(t, stats[0].MinKmPerDay, 0.0)
		})
	}
}

func TestEstimateMileage_OmitsVehiclesWithoutRates(t *testing.T) {
	vehicles := []models.Vehicle{
		{Plate: "NOHISTORY", Odometer: 5000},
		{Plate: "TODAY", Odometer: 5000},
		{Plate: "OK", Odometer: 5000},
	}
	today := date(2024, 4, 1)
	services := []models.ServiceRecord{
		// only reading is on the synthetic "today" date
		service("TODAY", today, 4000, 0),
		service("OK", date(2024, 3, 1), 4000, 0),
		// service of a plate missing from the fleet
		service("ORPHAN", date(2024, 1, 1), 100, 0),
	}

	stats := EstimateMileage(vehicles, services, today)
	require.Len(t, stats, 1)
	assert.Equal(t, "OK", stats[0].Plate)
}

func TestEstimateMileage_EmptyInput(t *testing.T) {
	vehicles, services, today := scenarioFleet()

	assert.Empty(t, EstimateMileage(nil, services, today))
	assert.Empty(t, EstimateMileage(vehicles, nil, today))
	assert.NotNil(t, EstimateMileage(nil, nil, today))
}

func TestEstimateMileage_SortedByMeanRate(t *testing.T) {
	vehicles := []models.Vehicle{
		{Plate: "SLOW", Odometer: 1100},
		{Plate: "FAST", Odometer: 4000},
		{Plate: "MID", Odometer: 2000},
	}
	start := date(2024, 1, 1)
	services := []models.ServiceRecord{
		service("SLOW", start, 1000, 0),
		service("FAST", start, 1000, 0),
		service("MID", start, 1000, 0),
	}

	stats := EstimateMileage(vehicles, services, start.AddDate(0, 0, 10))
	require.Len(t, stats, 3)
	assert.Equal(t, []string{"FAST", "MID", "SLOW"}, []string{stats[0].Plate, stats[1].Plate, stats[2].Plate})
}

func TestEstimateMileage_IgnoresTimeOfDay(t *testing.T) {
	vehicles := []models.Vehicle{{Plate: "A", Odometer: 2000}}
	services := []models.ServiceRecord{
		service("A", time.Date(2024, 1, 1, 23, 59, 0, 0, time.UTC), 1000, 0),
	}

	stats := EstimateMileage(vehicles, services, time.Date(2024, 1, 11, 0, 1, 0, 0, time.UTC))
	require.Len(t, stats, 1)
	assert.InDelta(t, 100.0, stats[0].MeanKmPerDay, 1e-9)
}
