package analytics

import (
	"time"

	"github.com/ukydev/fleet-maintenance/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func service(plate string, d time.Time, odometer float64, cost float64) models.ServiceRecord {
	return models.ServiceRecord{Plate: plate, Date: d, Odometer: models.Float(odometer), ServiceType: "oil", Cost: cost}
}

// scenarioFleet has one vehicle with readings on 2024-01-01 and 2024-07-01 and sits at
// 14000 km on 2024-10-01.
func scenarioFleet() ([]models.Vehicle, []models.ServiceRecord, time.Time) {
	vehicles := []models.Vehicle{
		{Plate: "X", Make: "Fiat", Model: "Ducato", Type: "van", Area: "North", Year: 2019, Status: models.StatusInService, Odometer: 14000},
	}
	services := []models.ServiceRecord{
		service("X", date(2024, 1, 1), 10000, 150),
		service("X", date(2024, 7, 1), 13000, 220),
	}
	return vehicles, services, date(2024, 10, 1)
}
