// Package app wires the configured backends into the services shared by the
// binaries.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-maintenance/internal/analytics"
	"github.com/ukydev/fleet-maintenance/internal/auth"
	"github.com/ukydev/fleet-maintenance/internal/config"
	"github.com/ukydev/fleet-maintenance/internal/costmodel"
	"github.com/ukydev/fleet-maintenance/internal/db"
	"github.com/ukydev/fleet-maintenance/internal/models"
	"go.mongodb.org/mongo-driver/mongo"
)

// Backend holds the opened stores.
type Backend struct {
	Fleet  db.FleetStore
	Users  db.UserCollection
	Models costmodel.Store

	mongo  *mongo.Client
	sqlite *sql.DB
}

// Open connects the fleet, user and model stores selected by cfg.
func Open(ctx context.Context, cfg *config.Config) (*Backend, error) {
	b := &Backend{}
	if cfg.DataBackend == "mongo" || cfg.ModelStore == "mongo" {
		client, err := db.ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		b.mongo = client
		log.WithField("database", cfg.MongoDB).Info("Connected to MongoDB")
	}

	switch cfg.DataBackend {
	case "mongo":
		database := b.mongo.Database(cfg.MongoDB)
		b.Fleet = db.NewMongoFleetStore(database)
		b.Users = &db.MongoUserCollection{Collection: database.Collection(db.UsersCollection)}
	default:
		sqlDB, err := db.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			b.Close(ctx)
			return nil, err
		}
		b.sqlite = sqlDB
		b.Fleet = &db.SQLiteFleetStore{DB: sqlDB}
		b.Users = &db.SQLiteUserCollection{DB: sqlDB}
		log.WithField("path", cfg.SQLitePath).Info("Opened SQLite database")
	}

	switch cfg.ModelStore {
	case "mongo":
		b.Models = &db.MongoModelStore{Collection: b.mongo.Database(cfg.MongoDB).Collection(db.ArtifactsCollection)}
	default:
		store, err := costmodel.NewFileStore(cfg.ModelDir)
		if err != nil {
			b.Close(ctx)
			return nil, err
		}
		b.Models = store
	}
	return b, nil
}

// Close releases the database connections.
func (b *Backend) Close(ctx context.Context) error {
	var errs []error
	if b.sqlite != nil {
		errs = append(errs, b.sqlite.Close())
	}
	if b.mongo != nil {
		errs = append(errs, b.mongo.Disconnect(ctx))
	}
	return errors.Join(errs...)
}

// NewAnalytics builds the analytics service with the configured thresholds,
// training options and cache.
func NewAnalytics(cfg *config.Config, b *Backend, logger log.FieldLogger) *analytics.Service {
	svc := analytics.NewService(b.Fleet, b.Models, nil)
	svc.Cache = analytics.NewCache(svc.Clock, cfg.CacheTTL, cfg.CacheSize)
	svc.Thresholds = models.Thresholds{DistanceKm: cfg.DistanceThreshold, Days: cfg.TimeThresholdDays}
	svc.Training = costmodel.Options{Alpha: cfg.RidgeAlpha, HoldoutFraction: cfg.HoldoutFraction}
	if logger != nil {
		svc.Logger = logger
	}
	return svc
}

// BootstrapAdmin creates the ADMIN_USER account on first start.
func BootstrapAdmin(ctx context.Context, cfg *config.Config, users db.UserCollection, authService *auth.Service) error {
	if cfg.AdminUser == "" {
		return nil
	}
	_, err := users.FindUserByUsername(ctx, cfg.AdminUser)
	if err == nil {
		return nil
	}
	if !errors.Is(err, db.ErrUserNotFound) {
		return fmt.Errorf("look up admin user: %w", err)
	}
	if err := authService.ValidatePassword(cfg.AdminPass); err != nil {
		return fmt.Errorf("ADMIN_PASS: %w", err)
	}
	hash, err := authService.HashPassword(cfg.AdminPass)
	if err != nil {
		return err
	}
	user := models.User{
		Username:     cfg.AdminUser,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		IsActive:     true,
	}
	if err := users.InsertUser(ctx, user); err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}
	log.WithField("username", cfg.AdminUser).Info("Created admin user")
	return nil
}
