package analytics

import (
	"sort"
	"time"

	"github.com/ukydev/fleet-maintenance/internal/models"
)

// reading is one (date, odometer) observation of a vehicle.
type reading struct {
	date     time.Time
	odometer *float64
}

// EstimateMileage computes each vehicle's historical km/day rate from its
// service readings plus a synthetic reading of the current odometer at today.
//
// Pairs with no elapsed days, a missing odometer or a lower reading than the
// previous one contribute no sample. Vehicles without a single valid pair are
// omitted. Rows are sorted by mean rate, heaviest use first.
func EstimateMileage(vehicles []models.Vehicle, services []models.ServiceRecord, today time.Time) []models.MileageStat {
	if len(vehicles) == 0 || len(services) == 0 {
		return []models.MileageStat{}
	}

	byPlate := readingsByPlate(vehicles, services)
	stats := make([]models.MileageStat, 0, len(vehicles))
	for _, v := range vehicles {
		rs := byPlate[v.Plate]
		if len(rs) == 0 {
			continue
		}
		rs = append(rs, reading{date: calendarDay(today), odometer: models.Float(v.Odometer)})
		sort.SliceStable(rs, func(i, j int) bool { return rs[i].date.Before(rs[j].date) })

		stat, ok := aggregateRates(rs)
		if !ok {
			continue
		}
		stat.Plate = v.Plate
		stat.Make = v.Make
		stat.Model = v.Model
		stat.Type = v.Type
		stat.Area = v.Area
		stat.CurrentOdometer = v.Odometer
		stats = append(stats, stat)
	}

	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].MeanKmPerDay != stats[j].MeanKmPerDay {
			return stats[i].MeanKmPerDay > stats[j].MeanKmPerDay
		}
		return stats[i].Plate < stats[j].Plate
	})
	return stats
}

// readingsByPlate groups dated service readings of known vehicles.
func readingsByPlate(vehicles []models.Vehicle, services []models.ServiceRecord) map[string][]reading {
	known := make(map[string]bool, len(vehicles))
	for _, v := range vehicles {
		known[v.Plate] = true
	}
	out := make(map[string][]reading)
	for _, s := range services {
		if !known[s.Plate] || !s.HasDate() {
			continue
		}
		out[s.Plate] = append(out[s.Plate], reading{date: calendarDay(s.Date), odometer: s.Odometer})
	}
	return out
}

func aggregateRates(rs []reading) (models.MileageStat, bool) {
	var stat models.MileageStat
	var sum float64
	for i := 1; i < len(rs); i++ {
		prev, cur := rs[i-1], rs[i]
		days := daysBetween(prev.date, cur.date)
		if days <= 0 || prev.odometer == nil || cur.odometer == nil {
			continue
		}
		delta := *cur.odometer - *prev.odometer
		if delta < 0 {
			continue
		}
		rate := delta / float64(days)
		if stat.Samples == 0 || rate < stat.MinKmPerDay {
			stat.MinKmPerDay = rate
		}
		if stat.Samples == 0 || rate > stat.MaxKmPerDay {
			stat.MaxKmPerDay = rate
		}
		sum += rate
		stat.Samples++
		stat.LastObservation = cur.date
	}
	if stat.Samples == 0 {
		return stat, false
	}
	stat.MeanKmPerDay = sum / float64(stat.Samples)
	stat.EstimatedAnnualKm = stat.MeanKmPerDay * 365
	return stat, true
}
