package models

import "time"

// Urgency classifies how soon a vehicle needs its next service.
type Urgency string

const (
	UrgencyOverdue  Urgency = "OVERDUE"
	UrgencyUrgent   Urgency = "URGENT"
	UrgencyUpcoming Urgency = "UPCOMING"
	UrgencyPlanned  Urgency = "PLANNED"
	UrgencyUnknown  Urgency = "UNKNOWN"
)

// Rank orders urgencies from most to least pressing.
func (u Urgency) Rank() int {
	switch u {
	case UrgencyOverdue:
		return 0
	case UrgencyUrgent:
		return 1
	case UrgencyUpcoming:
		return 2
	case UrgencyPlanned:
		return 3
	default:
		return 4
	}
}

// MileageStat is the per-vehicle distance accumulation rate derived from
// consecutive odometer readings.
type MileageStat struct {
	Plate             string    `json:"plate"`
	Make              string    `json:"make"`
	Model             string    `json:"model"`
	Type              string    `json:"type"`
	Area              string    `json:"area"`
	CurrentOdometer   float64   `json:"current_odometer"`
	LastObservation   time.Time `json:"last_observation"`
	MeanKmPerDay      float64   `json:"mean_km_per_day"`
	MinKmPerDay       float64   `json:"min_km_per_day"`
	MaxKmPerDay       float64   `json:"max_km_per_day"`
	Samples           int       `json:"samples"`
	EstimatedAnnualKm float64   `json:"estimated_annual_km"`
}

// Thresholds bound the interval between services; whichever is reached
// first makes the service due.
type Thresholds struct {
	DistanceKm float64 `json:"distance_km"`
	Days       int     `json:"days"`
}

// DefaultThresholds returns 5000 km / 180 days.
func DefaultThresholds() Thresholds {
	return Thresholds{DistanceKm: 5000, Days: 180}
}

// MaintenancePrediction is the forecast of a vehicle's next service.
type MaintenancePrediction struct {
	Plate                    string     `json:"plate"`
	Make                     string     `json:"make"`
	Model                    string     `json:"model"`
	Type                     string     `json:"type"`
	Area                     string     `json:"area"`
	CurrentOdometer          float64    `json:"current_odometer"`
	KmPerDay                 float64    `json:"km_per_day"`
	LastServiceDate          time.Time  `json:"last_service_date"`
	LastServiceOdometer      float64    `json:"last_service_odometer"`
	DaysSinceLastService     int        `json:"days_since_last_service"`
	KmSinceLastService       float64    `json:"km_since_last_service"`
	DaysUntilDistanceLimit   *int       `json:"days_until_distance_limit,omitempty"`
	PredictedByDistance      *time.Time `json:"predicted_by_distance,omitempty"`
	PredictedByTime          time.Time  `json:"predicted_by_time"`
	PredictedNextServiceDate time.Time  `json:"predicted_next_service_date"`
	DaysUntilService         int        `json:"days_until_service"`
	Urgency                  Urgency    `json:"urgency"`
}
