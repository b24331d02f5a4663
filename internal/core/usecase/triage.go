package usecase

import (
	"context"
	"fmt"

	"github.com/flyup/recruit-backend/internal/core/domain"
	"github.com/flyup/recruit-backend/internal/core/ports"
)

// FilterService is the admin triage surface over derived filters. Filters are
// never mutated by users; the only writes are the done flag and dismissal.
type FilterService struct {
	filters  ports.FilterRepository
	exporter ports.TriageExporter
}

func NewFilterService(filters ports.FilterRepository, exporter ports.TriageExporter) *FilterService {
	return &FilterService{filters: filters, exporter: exporter}
}

func (s *FilterService) List(ctx context.Context, done *bool) ([]domain.Filter, error) {
	return s.filters.List(ctx, done)
}

func (s *FilterService) SetDone(ctx context.Context, email string, done bool) (*domain.Filter, error) {
	if err := s.filters.SetDone(ctx, email, done); err != nil {
		return nil, err
	}
	return s.filters.GetByEmail(ctx, email)
}

// Dismiss deletes the filter record. The sweeper may recreate it on its next
// pass if the offer is still complete.
func (s *FilterService) Dismiss(ctx context.Context, email string) error {
	return s.filters.Delete(ctx, email)
}

func (s *FilterService) Export(ctx context.Context) ([]byte, error) {
	filters, err := s.filters.List(ctx, nil)
	if err != nil {
		return nil, err
	}
	book, err := s.exporter.Workbook(filters)
	if err != nil {
		return nil, fmt.Errorf("render triage workbook: %w", err)
	}
	return book, nil
}
