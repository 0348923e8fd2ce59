package models

import (
	"time"
)

// VehicleStatus is the operational state of a fleet vehicle.
type VehicleStatus string

const (
	StatusInService      VehicleStatus = "IN_SERVICE"
	StatusToRecover      VehicleStatus = "TO_RECOVER"
	StatusDecommissioned VehicleStatus = "DECOMMISSIONED"
)

// IsValidStatus checks if a status is one of the known operational states
func IsValidStatus(status VehicleStatus) bool {
	switch status {
	case StatusInService, StatusToRecover, StatusDecommissioned:
		return true
	default:
		return false
	}
}

// Vehicle represents a fleet vehicle keyed by its plate.
type Vehicle struct {
	Plate           string        `bson:"_id" json:"plate"`
	Make            string        `bson:"make" json:"make"`
	Model           string        `bson:"model" json:"model"`
	Type            string        `bson:"type" json:"type"`
	Area            string        `bson:"area" json:"area"`
	Year            int           `bson:"year" json:"year"`
	Status          VehicleStatus `bson:"status" json:"status"`
	Odometer        float64       `bson:"odometer" json:"odometer"` // in kilometers
	LastServiceDate *time.Time    `bson:"last_service_date,omitempty" json:"last_service_date,omitempty"`
	LastWorkshop    string        `bson:"last_workshop,omitempty" json:"last_workshop,omitempty"`
	CreatedAt       time.Time     `bson:"created_at" json:"created_at"`
}

// VehicleAttributes is the subset of a vehicle used to price a future service.
type VehicleAttributes struct {
	Make string `json:"make"`
	Type string `json:"type"`
	Year int    `json:"year"`
}

// Attributes returns the pricing attributes of the vehicle.
func (v Vehicle) Attributes() VehicleAttributes {
	return VehicleAttributes{Make: v.Make, Type: v.Type, Year: v.Year}
}
