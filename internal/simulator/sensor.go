package simulator

import (
	"math"
	"math/rand/v2"
	"sync"
)

// Reading is one simulated probe sample.
type Reading struct {
	Temperature float64 `json:"temperature"`
	Status      int     `json:"status"`
}

// Thermostat holds the tank between Target-Band and Target+Band. Below the
// band it heats (1), above it cools (-1), inside it is off (0).
type Thermostat struct {
	Target float64
	Band   float64
}

func (t Thermostat) Status(temp float64) int {
	switch {
	case temp < t.Target-t.Band:
		return 1
	case temp > t.Target+t.Band:
		return -1
	default:
		return 0
	}
}

// Sensor produces a random walk that drifts toward the thermostat target
// while the heater or chiller runs.
type Sensor struct {
	thermostat Thermostat
	step       float64

	mu     sync.Mutex
	rng    *rand.Rand
	temp   float64
	status int
}

func NewSensor(start float64, thermostat Thermostat, step float64, seed uint64) *Sensor {
	return &Sensor{
		thermostat: thermostat,
		step:       step,
		rng:        rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		temp:       start,
		status:     thermostat.Status(start),
	}
}

// Next advances the walk by one sample.
func (s *Sensor) Next() Reading {
	s.mu.Lock()
	defer s.mu.Unlock()

	delta := (s.rng.Float64()*2 - 1) * s.step
	// The running device pushes the water back toward the target.
	delta += float64(s.status) * s.step / 2
	s.temp = math.Round((s.temp+delta)*100) / 100
	s.status = s.thermostat.Status(s.temp)

	return Reading{Temperature: s.temp, Status: s.status}
}
