package db

import (
	"context"
	"errors"

	"github.com/ukydev/fleet-maintenance/internal/models"
)

var (
	ErrVehicleNotFound = errors.New("vehicle not found")
	ErrVehicleExists   = errors.New("vehicle already exists")
	ErrUserNotFound    = errors.New("user not found")
)

// FleetSource provides complete snapshots of the fleet tables.
type FleetSource interface {
	Vehicles(ctx context.Context) ([]models.Vehicle, error)
	ServiceHistory(ctx context.Context) ([]models.ServiceRecord, error)
}

// FleetWriter records fleet changes.
type FleetWriter interface {
	InsertVehicle(ctx context.Context, vehicle models.Vehicle) error
	// AddServiceRecord appends the record and moves the vehicle's odometer,
	// last service date and workshop forward.
	AddServiceRecord(ctx context.Context, record models.ServiceRecord) error
}

// FleetStore is a readable and writable fleet backend.
type FleetStore interface {
	FleetSource
	FleetWriter
	FindVehicle(ctx context.Context, plate string) (*models.Vehicle, error)
}

// UserCollection defines the user operations authentication needs.
type UserCollection interface {
	InsertUser(ctx context.Context, user models.User) error
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id string) error
}
