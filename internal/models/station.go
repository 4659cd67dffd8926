package models

import (
	"time"
)

// Station represents a monitoring station whose series have been archived.
type Station struct {
	StationID string    `json:"station_id" db:"station_id"`
	SiteName  string    `json:"site_name" db:"site_name"`
	Latitude  float64   `json:"latitude" db:"latitude"`
	Longitude float64   `json:"longitude" db:"longitude"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
