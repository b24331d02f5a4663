package ports

import (
	"context"
	"io"
	"time"

	"github.com/flyup/recruit-backend/internal/core/domain"
)

// Upload is a single incoming file from a multipart request.
type Upload struct {
	Filename string
	Body     io.Reader
}

// OfferLedger is the inbound contract for the offer/skill-test lifecycle.
type OfferLedger interface {
	Create(ctx context.Context, email string, dueTime time.Time, testNames []string) (*domain.Offer, error)
	Get(ctx context.Context, email string) (*domain.Offer, error)
	ApplyUpdates(ctx context.Context, email string, dueTime *time.Time, patches []domain.SkillTestPatch, uploads map[string][]Upload) (*domain.Offer, error)
	SubmitTest(ctx context.Context, email, test string, keepFiles *[]string, uploads []Upload) (*domain.Offer, bool, error)
	DismissTest(ctx context.Context, email, test string) (*domain.Offer, error)
}

// ProfileService is the inbound contract for personal-info management.
type ProfileService interface {
	Create(ctx context.Context, email string, dueTime time.Time) (*domain.PersonalInfo, error)
	Get(ctx context.Context, email string) (*domain.PersonalInfo, error)
	Submit(ctx context.Context, email string, patch domain.ProfilePatch, uploads map[string]Upload) (*domain.PersonalInfo, error)
	DeleteDocument(ctx context.Context, email, field string) (*domain.PersonalInfo, error)
}

// FilterTriage is the inbound contract for admin triage over derived filters.
type FilterTriage interface {
	List(ctx context.Context, done *bool) ([]domain.Filter, error)
	SetDone(ctx context.Context, email string, done bool) (*domain.Filter, error)
	Dismiss(ctx context.Context, email string) error
	Export(ctx context.Context) ([]byte, error)
}

// CatalogService is the inbound contract for the skill-test catalog.
type CatalogService interface {
	Create(ctx context.Context, name, position string, pdf Upload) (*domain.CatalogTest, error)
	Get(ctx context.Context, name string) (*domain.CatalogTest, error)
	List(ctx context.Context) ([]domain.CatalogTest, error)
	Delete(ctx context.Context, name string) error
}

// AnalysisRunner is the background contract that turns a completed offer into
// a filter record. Safe to invoke concurrently and repeatedly per email.
type AnalysisRunner interface {
	EnsureFilter(ctx context.Context, email string) error
}

// Sweeper re-attempts filter derivation for candidates that missed it.
type Sweeper interface {
	Sweep(ctx context.Context) (domain.SweepReport, error)
}

// TriageExporter renders the triage table into a spreadsheet.
type TriageExporter interface {
	Workbook(filters []domain.Filter) ([]byte, error)
}
