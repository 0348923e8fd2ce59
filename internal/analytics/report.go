package analytics

import (
	"sort"

	"github.com/ukydev/fleet-maintenance/internal/models"
)

// ForecastByMonth counts predicted services per calendar month and urgency.
func ForecastByMonth(preds []models.MaintenancePrediction) []models.MonthlyForecast {
	type bucket struct {
		month   string
		urgency models.Urgency
	}
	counts := make(map[bucket]int)
	for _, p := range preds {
		counts[bucket{p.PredictedNextServiceDate.Format("2006-01"), p.Urgency}]++
	}

	out := make([]models.MonthlyForecast, 0, len(counts))
	for b, n := range counts {
		out = append(out, models.MonthlyForecast{Month: b.month, Urgency: b.urgency, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Month != out[j].Month {
			return out[i].Month < out[j].Month
		}
		return out[i].Urgency.Rank() < out[j].Urgency.Rank()
	})
	return out
}

// CostBreakdown groups service cost by an attribute of the serviced vehicle.
// Services of unknown vehicles are skipped. Groups are sorted by total cost.
func CostBreakdown(vehicles []models.Vehicle, services []models.ServiceRecord, groupBy func(models.Vehicle) string) []models.CostGroup {
	byPlate := make(map[string]models.Vehicle, len(vehicles))
	for _, v := range vehicles {
		byPlate[v.Plate] = v
	}

	costs := make(map[string][]float64)
	for _, s := range services {
		v, ok := byPlate[s.Plate]
		if !ok {
			continue
		}
		g := groupBy(v)
		costs[g] = append(costs[g], s.Cost)
	}

	out := make([]models.CostGroup, 0, len(costs))
	for g, cs := range costs {
		var total float64
		for _, c := range cs {
			total += c
		}
		out = append(out, models.CostGroup{
			Group:  g,
			Mean:   total / float64(len(cs)),
			Median: median(cs),
			Total:  total,
			Count:  len(cs),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Group < out[j].Group
	})
	return out
}

// ByVehicleType and ByArea are CostBreakdown grouping keys.
func ByVehicleType(v models.Vehicle) string { return v.Type }
func ByArea(v models.Vehicle) string { return v.Area }

// Summarize computes the fleet KPIs.
func Summarize(vehicles []models.Vehicle, services []models.ServiceRecord, preds []models.MaintenancePrediction) models.FleetSummary {
	sum := models.FleetSummary{TotalVehicles: len(vehicles)}
	for _, v := range vehicles {
		if v.Status == models.StatusInService {
			sum.InService++
		}
	}
	for _, s := range services {
		sum.TotalServiceCost += s.Cost
	}
	if len(services) > 0 {
		sum.MeanServiceCost = sum.TotalServiceCost / float64(len(services))
	}
	for _, p := range preds {
		switch {
		case p.Urgency == models.UrgencyOverdue:
			sum.OverdueVehicles++
		case p.Urgency != models.UrgencyUnknown && p.DaysUntilService <= 30:
			sum.DueWithin30Days++
		}
	}
	return sum
}

// median returns the middle value of xs without modifying it.
func median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	s := append([]float64(nil), xs...)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}
