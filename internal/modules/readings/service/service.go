package service

import (
	"context"
	"fmt"

	"aquadash/internal/metrics"
	"aquadash/internal/modules/readings/repository"
	"aquadash/internal/modules/readings/types"
	"aquadash/internal/modules/readings/validator"
)

// Connector hands out the shared store connection, dialing on first use.
type Connector interface {
	Acquire(ctx context.Context) (repository.ReadingRepository, error)
}

type Service struct {
	conn    Connector
	metrics *metrics.Metrics
}

func NewService(conn Connector, m *metrics.Metrics) *Service {
	return &Service{conn: conn, metrics: m}
}

// Ingest validates payload and stores it. Invalid payloads return field
// errors without touching the store.
func (s *Service) Ingest(ctx context.Context, payload []byte, source string) (types.Reading, validator.FieldErrors, error) {
	in, fieldErrs := validator.Validate(payload)
	if fieldErrs != nil {
		s.metrics.ValidationFailed(source)
		return types.Reading{}, fieldErrs, nil
	}

	repo, err := s.conn.Acquire(ctx)
	if err != nil {
		return types.Reading{}, nil, fmt.Errorf("acquire connection: %w", err)
	}
	rec, err := repo.Create(ctx, in)
	if err != nil {
		return types.Reading{}, nil, err
	}
	s.metrics.ReadingIngested(source)
	return rec, nil, nil
}

// ListRecent returns the newest readings, at most types.RecentLimit.
func (s *Service) ListRecent(ctx context.Context) ([]types.Reading, error) {
	repo, err := s.conn.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	return repo.ListRecent(ctx, types.RecentLimit)
}

func (s *Service) Ping(ctx context.Context) error {
	repo, err := s.conn.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	return repo.Ping(ctx)
}
