package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/flyup/recruit-backend/internal/core/domain"
	"github.com/flyup/recruit-backend/internal/core/ports"
)

// SweepService is the periodic reconciliation pass: it re-scans completed
// offers and re-runs filter derivation for any candidate still missing one.
// The status transition to considering is owned by the analysis job; the
// sweep only reads status.
type SweepService struct {
	offers     ports.OfferRepository
	candidates ports.CandidateDirectory
	filters    ports.FilterRepository
	analysis   ports.AnalysisRunner
}

func NewSweepService(
	offers ports.OfferRepository,
	candidates ports.CandidateDirectory,
	filters ports.FilterRepository,
	analysis ports.AnalysisRunner,
) *SweepService {
	return &SweepService{
		offers:     offers,
		candidates: candidates,
		filters:    filters,
		analysis:   analysis,
	}
}

// Sweep visits every fully submitted offer whose candidate is still in the
// offering or considering stage and ensures a filter exists. Failures are
// isolated per candidate so one bad record never aborts the pass.
func (s *SweepService) Sweep(ctx context.Context) (domain.SweepReport, error) {
	var report domain.SweepReport

	emails, err := s.offers.ListCompleted(ctx)
	if err != nil {
		return report, fmt.Errorf("list completed offers: %w", err)
	}

	for _, email := range emails {
		report.Scanned++

		status, err := s.candidates.Status(ctx, email)
		if err != nil {
			if domain.IsKind(err, domain.ErrNotFound) {
				report.Skipped++
				continue
			}
			slog.Error("read candidate status", "email", email, "error", err)
			report.Failed++
			continue
		}
		if status != domain.StatusOffering && status != domain.StatusConsidering {
			report.Skipped++
			continue
		}

		exists, err := s.filters.Exists(ctx, email)
		if err != nil {
			slog.Error("check filter existence", "email", email, "error", err)
			report.Failed++
			continue
		}
		if exists {
			report.Skipped++
			continue
		}

		if err := s.analysis.EnsureFilter(ctx, email); err != nil {
			slog.Error("reconcile filter", "email", email, "error", err)
			report.Failed++
			continue
		}
		report.Created++
	}

	return report, nil
}
