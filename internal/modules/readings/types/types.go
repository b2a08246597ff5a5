package types

import "time"

// Status is the heater/cooler state reported alongside a temperature.
type Status int

const (
	StatusCooling Status = -1
	StatusOff     Status = 0
	StatusHeating Status = 1
)

func (s Status) Valid() bool {
	return s >= StatusCooling && s <= StatusHeating
}

func (s Status) String() string {
	switch s {
	case StatusCooling:
		return "COOLING"
	case StatusOff:
		return "OFF"
	case StatusHeating:
		return "HEATING"
	default:
		return "UNKNOWN"
	}
}

// NewReading is a validated payload ready to be persisted.
type NewReading struct {
	Temperature float64 `json:"temperature"`
	Status      Status  `json:"status"`
}

// Reading is a stored sample. Readings are append-only: never updated or deleted.
type Reading struct {
	ID          string    `json:"id"`
	Temperature float64   `json:"temperature"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// RecentLimit is how many readings the list endpoint and dashboard show.
const RecentLimit = 20
