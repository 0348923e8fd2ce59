// Package notify sends maintenance reminders for vehicles that are due.
package notify

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ukydev/fleet-maintenance/internal/models"
)

// Reminder is a due-service notice for one vehicle.
type Reminder struct {
	Plate              string         `json:"plate"`
	Make               string         `json:"make"`
	Model              string         `json:"model"`
	Area               string         `json:"area"`
	Urgency            models.Urgency `json:"urgency"`
	DueDate            time.Time      `json:"due_date"`
	DaysUntilService   int            `json:"days_until_service"`
	KmSinceLastService float64        `json:"km_since_last_service"`
	LastServiceDate    time.Time      `json:"last_service_date"`
}

// BuildReminders keeps the OVERDUE and URGENT predictions, most pressing
// first.
func BuildReminders(preds []models.MaintenancePrediction) []Reminder {
	reminders := []Reminder{}
	for _, p := range preds {
		if p.Urgency != models.UrgencyOverdue && p.Urgency != models.UrgencyUrgent {
			continue
		}
		reminders = append(reminders, Reminder{
			Plate:              p.Plate,
			Make:               p.Make,
			Model:              p.Model,
			Area:               p.Area,
			Urgency:            p.Urgency,
			DueDate:            p.PredictedNextServiceDate,
			DaysUntilService:   p.DaysUntilService,
			KmSinceLastService: p.KmSinceLastService,
			LastServiceDate:    p.LastServiceDate,
		})
	}
	sort.SliceStable(reminders, func(i, j int) bool {
		if reminders[i].DaysUntilService != reminders[j].DaysUntilService {
			return reminders[i].DaysUntilService < reminders[j].DaysUntilService
		}
		return reminders[i].Plate < reminders[j].Plate
	})
	return reminders
}

// Line renders the reminder as one line of a digest.
func (r Reminder) Line() string {
	vehicle := strings.TrimSpace(r.Make + " " + r.Model)
	if vehicle == "" {
		vehicle = "vehicle"
	}
	due := r.DueDate.Format("2006-01-02")
	if r.DaysUntilService < 0 {
		return fmt.Sprintf("%s %s (%s): overdue since %s, %.0f km since last service",
			r.Urgency, r.Plate, vehicle, due, r.KmSinceLastService)
	}
	return fmt.Sprintf("%s %s (%s): due %s in %d days, %.0f km since last service",
		r.Urgency, r.Plate, vehicle, due, r.DaysUntilService, r.KmSinceLastService)
}

// Digest renders every reminder into a single message.
func Digest(reminders []Reminder, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Fleet maintenance reminders for %s: %d vehicle(s) need service\n",
		now.UTC().Format("2006-01-02"), len(reminders))
	for _, r := range reminders {
		b.WriteString("- ")
		b.WriteString(r.Line())
		b.WriteString("\n")
	}
	return b.String()
}
