// Package costmodel fits and applies the service cost regression.
package costmodel

import (
	"math"
	"time"

	"github.com/ukydev/fleet-maintenance/internal/models"
)

// Feature columns, in the order the pipeline lays them out.
var (
	NumericFeatures     = []string{"odometer", "year", "age_days"}
	CategoricalFeatures = []string{"make", "vehicle_type", "service_type"}
)

// Observation is one feature row. Missing numeric values are NaN and
// missing categorical values are empty.
type Observation struct {
	Odometer    float64
	Year        float64
	AgeDays     float64
	Make        string
	VehicleType string
	ServiceType string
}

// NewObservation builds the training row for a service of vehicle v, with
// the service age measured at now.
func NewObservation(s models.ServiceRecord, v models.Vehicle, now time.Time) Observation {
	o := Observation{
		Odometer:    math.NaN(),
		Year:        math.NaN(),
		AgeDays:     math.NaN(),
		Make:        v.Make,
		VehicleType: v.Type,
		ServiceType: s.ServiceType,
	}
	if s.Odometer != nil {
		o.Odometer = *s.Odometer
	}
	if v.Year > 0 {
		o.Year = float64(v.Year)
	}
	if s.HasDate() {
		o.AgeDays = math.Floor(dayOf(now).Sub(dayOf(s.Date)).Hours() / 24)
	}
	return o
}

// PredictionObservation builds the row for a service happening now.
func PredictionObservation(attrs models.VehicleAttributes, odometer float64, serviceType string) Observation {
	v := models.Vehicle{Make: attrs.Make, Type: attrs.Type, Year: attrs.Year}
	return NewObservation(models.ServiceRecord{
		Date:        time.Unix(0, 0).UTC(),
		Odometer:    models.Float(odometer),
		ServiceType: serviceType,
	}, v, time.Unix(0, 0).UTC())
}

func (o Observation) numeric() []float64 {
	return []float64{o.Odometer, o.Year, o.AgeDays}
}

func (o Observation) categorical() []string {
	return []string{o.Make, o.VehicleType, o.ServiceType}
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
