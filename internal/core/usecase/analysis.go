package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"path"

	"github.com/flyup/recruit-backend/internal/core/domain"
	"github.com/flyup/recruit-backend/internal/core/ports"
)

// AnalysisService runs the grade-analysis pipeline for one candidate and
// derives the filter record. It runs outside any request cycle; the filter's
// unique identity is the only duplicate guard, so concurrent attempts race
// harmlessly and the loser discards its result.
type AnalysisService struct {
	filters    ports.FilterRepository
	profiles   ports.PersonalInfoRepository
	candidates ports.CandidateDirectory
	store      ports.ObjectStore
	analyzer   ports.GradeAnalyzer
}

func NewAnalysisService(
	filters ports.FilterRepository,
	profiles ports.PersonalInfoRepository,
	candidates ports.CandidateDirectory,
	store ports.ObjectStore,
	analyzer ports.GradeAnalyzer,
) *AnalysisService {
	return &AnalysisService{
		filters:    filters,
		profiles:   profiles,
		candidates: candidates,
		store:      store,
		analyzer:   analyzer,
	}
}

// EnsureFilter analyzes the candidate's grade report and persists the derived
// filter exactly once. It is a no-op when a filter already exists or the
// profile has no grade report. On success the candidate status advances to
// considering; the status write is best effort.
func (s *AnalysisService) EnsureFilter(ctx context.Context, email string) error {
	exists, err := s.filters.Exists(ctx, email)
	if err != nil {
		return fmt.Errorf("check filter existence: %w", err)
	}
	if exists {
		slog.Debug("filter already exists", "email", email)
		return nil
	}

	info, err := s.profiles.GetByEmail(ctx, email)
	if err != nil {
		if domain.IsKind(err, domain.ErrNotFound) {
			slog.Info("no personal info, skipping analysis", "email", email)
			return nil
		}
		return fmt.Errorf("load personal info: %w", err)
	}
	if info.GradeReport == "" {
		slog.Info("no grade report, skipping analysis", "email", email)
		return nil
	}

	doc, err := s.store.Open(ctx, info.GradeReport)
	if err != nil {
		return domain.WrapError(domain.ErrStorage, "open grade report", err)
	}
	defer doc.Close()

	result, err := s.analyzer.Analyze(ctx, path.Base(s.store.KeyOf(info.GradeReport)), doc)
	if err != nil {
		return fmt.Errorf("analyze grade report: %w", err)
	}

	filter := &domain.Filter{
		Email:        info.Email,
		GPAAI:        result.GPA,
		F:            result.F,
		Completeness: Completeness(info),
	}
	if info.GPA != nil {
		filter.GPAForm = *info.GPA
	}

	if err := s.filters.Create(ctx, filter); err != nil {
		if domain.IsKind(err, domain.ErrConflict) {
			// A concurrent attempt won the race; its record stands.
			slog.Info("filter created concurrently, discarding", "email", email)
			return nil
		}
		return fmt.Errorf("persist filter: %w", err)
	}

	if err := s.candidates.SetStatus(ctx, email, domain.StatusConsidering); err != nil {
		slog.Error("advance candidate status", "email", email, "error", err)
	}
	return nil
}
