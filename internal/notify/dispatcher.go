package notify

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

// Dispatcher fans reminders out to every sender.
type Dispatcher struct {
	Senders []Sender
	Logger  log.FieldLogger
}

func NewDispatcher(logger log.FieldLogger, senders ...Sender) *Dispatcher {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Dispatcher{Senders: senders, Logger: logger}
}

// Dispatch sends reminders for the due vehicles among preds and returns how
// many vehicles were reminded. A failing sender does not stop the others.
func (d *Dispatcher) Dispatch(ctx context.Context, preds []models.MaintenancePrediction) (int, error) {
	reminders := BuildReminders(preds)
	if len(reminders) == 0 {
		d.Logger.Info("No vehicles due for maintenance")
		return 0, nil
	}
	if len(d.Senders) == 0 {
		d.Logger.WithField("vehicles", len(reminders)).Warn("No reminder channels configured")
		return len(reminders), nil
	}

	var errs []error
	for _, s := range d.Senders {
		if err := s.Send(ctx, reminders); err != nil {
			d.Logger.WithError(err).WithField("sender", s.Name()).Error("Failed to send reminders")
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		d.Logger.WithFields(log.Fields{
			"sender":   s.Name(),
			"vehicles": len(reminders),
		}).Info("Reminders sent")
	}
	return len(reminders), errors.Join(errs...)
}
