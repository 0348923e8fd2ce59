package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/ukydev/fleet-maintenance/internal/models"
)

// ceilTolerance absorbs float noise so an exact quotient such as 368 does
// not round up to 369.
const ceilTolerance = 1e-9

// MaxForecastDays bounds every forecast horizon. A distance limit further
// out than this is treated as never reached.
const MaxForecastDays = 36500

// ForecastMaintenance predicts each vehicle's next service from its mean
// km/day rate and the two thresholds, whichever is reached first.
//
// Vehicles without a usable rate fall back to the time threshold alone.
// Output is ordered by urgency, then by days until service.
func ForecastMaintenance(vehicles []models.Vehicle, services []models.ServiceRecord, th models.Thresholds, today time.Time) []models.MaintenancePrediction {
	stats := EstimateMileage(vehicles, services, today)
	if len(stats) == 0 {
		return []models.MaintenancePrediction{}
	}

	today = calendarDay(today)
	last := lastServiceByPlate(services)
	preds := make([]models.MaintenancePrediction, 0, len(stats))
	for _, st := range stats {
		p := models.MaintenancePrediction{
			Plate:           st.Plate,
			Make:            st.Make,
			Model:           st.Model,
			Type:            st.Type,
			Area:            st.Area,
			CurrentOdometer: st.CurrentOdometer,
			KmPerDay:        st.MeanKmPerDay,
		}

		p.LastServiceDate = today
		p.LastServiceOdometer = st.CurrentOdometer
		if rec, ok := last[st.Plate]; ok {
			p.LastServiceDate = calendarDay(rec.Date)
			if rec.Odometer != nil {
				p.LastServiceOdometer = *rec.Odometer
			}
		}
		p.DaysSinceLastService = daysBetween(p.LastServiceDate, today)
		p.KmSinceLastService = p.CurrentOdometer - p.LastServiceOdometer

		p.PredictedByTime = addDays(p.LastServiceDate, th.Days)
		p.PredictedNextServiceDate = p.PredictedByTime

		if days, ok := daysUntilDistance(th.DistanceKm, p.KmSinceLastService, st.MeanKmPerDay); ok {
			byDistance := addDays(today, days)
			p.DaysUntilDistanceLimit = &days
			p.PredictedByDistance = &byDistance
			if byDistance.Before(p.PredictedByTime) {
				p.PredictedNextServiceDate = byDistance
			}
		}

		p.DaysUntilService = daysBetween(today, p.PredictedNextServiceDate)
		p.Urgency = ClassifyUrgency(float64(p.DaysUntilService))
		preds = append(preds, p)
	}

	sortPredictions(preds)
	return preds
}

// daysUntilDistance returns the days left before the distance threshold is
// reached at the given rate, clamped at zero. ok is false when the rate
// cannot produce a forecast or the limit lies beyond MaxForecastDays.
func daysUntilDistance(threshold, travelled, rate float64) (int, bool) {
	if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return 0, false
	}
	q := math.Ceil((threshold-travelled)/rate - ceilTolerance)
	if math.IsNaN(q) || q > MaxForecastDays {
		return 0, false
	}
	if q < 0 {
		return 0, true
	}
	return int(q), true
}

// ClassifyUrgency maps days until service onto the urgency bands
// (<0, [0,15], (15,30], >30). NaN is UNKNOWN.
func ClassifyUrgency(days float64) models.Urgency {
	switch {
	case math.IsNaN(days):
		return models.UrgencyUnknown
	case days < 0:
		return models.UrgencyOverdue
	case days <= 15:
		return models.UrgencyUrgent
	case days <= 30:
		return models.UrgencyUpcoming
	default:
		return models.UrgencyPlanned
	}
}

// lastServiceByPlate finds the most recent dated service of each vehicle.
func lastServiceByPlate(services []models.ServiceRecord) map[string]models.ServiceRecord {
	out := make(map[string]models.ServiceRecord)
	for _, s := range services {
		if !s.HasDate() {
			continue
		}
		if cur, ok := out[s.Plate]; !ok || s.Date.After(cur.Date) {
			out[s.Plate] = s
		}
	}
	return out
}

func sortPredictions(preds []models.MaintenancePrediction) {
	sort.SliceStable(preds, func(i, j int) bool {
		a, b := preds[i], preds[j]
		if a.Urgency.Rank() != b.Urgency.Rank() {
			return a.Urgency.Rank() < b.Urgency.Rank()
		}
		if a.DaysUntilService != b.DaysUntilService {
			return a.DaysUntilService < b.DaysUntilService
		}
		return a.Plate < b.Plate
	})
}
