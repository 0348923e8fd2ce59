// Command reminder forecasts the next service of every vehicle and notifies
// the configured channels about the overdue and urgent ones.
package main

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-maintenance/internal/app"
	"github.com/ukydev/fleet-maintenance/internal/config"
	"github.com/ukydev/fleet-maintenance/internal/models"
	"github.com/ukydev/fleet-maintenance/internal/notify"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Invalid configuration")
	}
	cfg.ConfigureLogger()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	backend, err := app.Open(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to open data backend")
	}
	defer backend.Close(context.Background())

	var senders []notify.Sender
	if len(cfg.NotifyURLs) > 0 {
		senders = append(senders, notify.NewShoutrrrSender(cfg.NotifyURLs))
	}
	if cfg.MQTTBroker != "" {
		mqttSender, err := notify.NewMQTTSender(cfg.MQTTBroker, cfg.MQTTClientID, cfg.MQTTTopic)
		if err != nil {
			log.WithError(err).Error("MQTT channel unavailable")
		} else {
			defer mqttSender.Close()
			senders = append(senders, mqttSender)
		}
	}

	svc := app.NewAnalytics(cfg, backend, log.StandardLogger())
	preds, err := svc.Predictions(ctx, models.Thresholds{})
	if err != nil {
		log.WithError(err).Fatal("Failed to forecast maintenance")
	}

	n, err := notify.NewDispatcher(log.StandardLogger(), senders...).Dispatch(ctx, preds)
	if err != nil {
		log.WithError(err).WithField("vehicles", n).Fatal("Some reminders were not delivered")
	}
	log.WithFields(log.Fields{
		"vehicles_checked": len(preds),
		"reminders":        n,
	}).Info("Reminder run complete")
}
