package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ServiceRecord represents a logged maintenance or repair event.
// A zero Date means the source date was missing or unparseable.
type ServiceRecord struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Plate       string             `json:"plate" bson:"plate"`
	Date        time.Time          `json:"date" bson:"date"`
	Odometer    *float64           `json:"odometer,omitempty" bson:"odometer,omitempty"` // in kilometers
	ServiceType string             `json:"service_type" bson:"service_type"`
	Workshop    string             `json:"workshop" bson:"workshop"`
	Cost        float64            `json:"cost" bson:"cost"`
	Description string             `json:"description" bson:"description"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
}

// HasDate reports whether the record carries a usable service date.
func (s ServiceRecord) HasDate() bool {
	return !s.Date.IsZero()
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"02/01/2006",
}

// ParseDate coerces a source date string. Unparseable input yields the
// zero time, which the analytics treat as missing.
func ParseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Float returns a pointer to v, for optional odometer readings.
func Float(v float64) *float64 {
	return &v
}
