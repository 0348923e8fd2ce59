package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

func reportFleet() ([]models.Vehicle, []models.ServiceRecord) {
	vehicles := []models.Vehicle{
		{Plate: "V1", Type: "van", Area: "North", Status: models.StatusInService},
		{Plate: "V2", Type: "van", Area: "South", Status: models.StatusInService},
		{Plate: "T1", Type: "truck", Area: "North", Status: models.StatusToRecover},
	}
	services := []models.ServiceRecord{
		service("V1", date(2024, 1, 1), 1000, 100),
		service("V1", date(2024, 2, 1), 2000, 300),
		service("V2", date(2024, 1, 1), 1000, 200),
		service("T1", date(2024, 1, 1), 1000, 1000),
		service("GONE", date(2024, 1, 1), 1000, 5000),
	}
	return vehicles, services
}

func TestCostBreakdown_ByVehicleType(t *testing.T) {
	vehicles, services := reportFleet()

	groups := CostBreakdown(vehicles, services, ByVehicleType)
	require.Len(t, groups, 2)

	assert.Equal(t, "truck", groups[0].Group)
	assert.Equal(t, 1000.0, groups[0].Total)
	assert.Equal(t, 1, groups[0].Count)

	assert.Equal(t, "van", groups[1].Group)
	assert.Equal(t, 600.0, groups[1].Total)
	assert.Equal(t, 200.0, groups[1].Mean)
	assert.Equal(t, 200.0, groups[1].Median)
	assert.Equal(t, 3, groups[1].Count)
}

func TestCostBreakdown_ByArea(t *testing.T) {
	vehicles, services := reportFleet()

	groups := CostBreakdown(vehicles, services, ByArea)
	require.Len(t, groups, 2)
	assert.Equal(t, "North", groups[0].Group)
	assert.Equal(t, 1400.0, groups[0].Total)
	assert.Equal(t, 300.0, groups[0].Median)
	assert.Equal(t, "South", groups[1].Group)
}

func TestForecastByMonth(t *testing.T) {
	preds := []models.MaintenancePrediction{
		{PredictedNextServiceDate: date(2024, 3, 5), Urgency: models.UrgencyUrgent},
		{PredictedNextServiceDate: date(2024, 3, 20), Urgency: models.UrgencyUrgent},
		{PredictedNextServiceDate: date(2024, 3, 1), Urgency: models.UrgencyOverdue},
		{PredictedNextServiceDate: date(2024, 5, 1), Urgency: models.UrgencyPlanned},
	}

	got := ForecastByMonth(preds)
	assert.Equal(t, []models.MonthlyForecast{
		{Month: "2024-03", Urgency: models.UrgencyOverdue, Count: 1},
		{Month: "2024-03", Urgency: models.UrgencyUrgent, Count: 2},
		{Month: "2024-05", Urgency: models.UrgencyPlanned, Count: 1},
	}, got)
}

func TestSummarize(t *testing.T) {
	vehicles, services := reportFleet()
	preds := []models.MaintenancePrediction{
		{Urgency: models.UrgencyOverdue, DaysUntilService: -3},
		{Urgency: models.UrgencyUrgent, DaysUntilService: 10},
		{Urgency: models.UrgencyUpcoming, DaysUntilService: 30},
		{Urgency: models.UrgencyPlanned, DaysUntilService: 31},
		{Urgency: models.UrgencyUnknown},
	}

	sum := Summarize(vehicles, services, preds)
	assert.Equal(t, 3, sum.TotalVehicles)
	assert.Equal(t, 2, sum.InService)
	assert.Equal(t, 6600.0, sum.TotalServiceCost)
	assert.Equal(t, 1320.0, sum.MeanServiceCost)
	assert.Equal(t, 1, sum.OverdueVehicles)
	assert.Equal(t, 2, sum.DueWithin30Days)
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 0.0, median(nil))
	assert.Equal(t, 2.0, median([]float64{3, 1, 2}))
	assert.Equal(t, 2.5, median([]float64{4, 1, 3, 2}))

	xs := []float64{3, 1, 2}
	median(xs)
	assert.Equal(t, []float64{3, 1, 2}, xs)
}
