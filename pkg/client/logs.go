package client

import (
	"context"
	"time"
)

// Log is a stored aquarium reading as returned by the API.
type Log struct {
	ID          string    `json:"id"`
	Temperature float64   `json:"temperature"`
	Status      int       `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// LogInput is the body of a new reading. Status is -1 (cooling), 0 (off) or
// 1 (heating).
type LogInput struct {
	Temperature float64 `json:"temperature"`
	Status      int     `json:"status"`
}

const logsEndpoint = "logs"

type LogService struct {
	client *Client
}

func (c *Client) Logs() *LogService {
	return &LogService{client: c}
}

// List returns the most recent readings, newest first.
func (s *LogService) List(ctx context.Context) (Envelope[[]Log], error) {
	return Get[[]Log](ctx, s.client, logsEndpoint, nil)
}

func (s *LogService) Create(ctx context.Context, in LogInput) (Envelope[Log], error) {
	return Post[Log](ctx, s.client, logsEndpoint, in)
}

// StatusText mirrors the dashboard's labels for a status code.
func StatusText(status int) string {
	switch status {
	case 1:
		return "HEATING"
	case -1:
		return "COOLING"
	case 0:
		return "OFF"
	default:
		return "UNKNOWN"
	}
}
