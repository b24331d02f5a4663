package ports

import (
	"context"
	"io"
	"time"

	"github.com/flyup/recruit-backend/internal/core/domain"
)

// OfferRepository persists offers with row-scoped skill-test operations.
// File-set mutations are atomic per test so concurrent edits to different
// tests on the same offer never clobber each other.
type OfferRepository interface {
	Create(ctx context.Context, offer *domain.Offer) error
	GetByEmail(ctx context.Context, email string) (*domain.Offer, error)
	UpdateDueTime(ctx context.Context, email string, dueTime time.Time) error
	UpdateTestMeta(ctx context.Context, email, test string, rank *int, explanation *string) error
	SetTestStatus(ctx context.Context, email, test string, status domain.SkillTestStatus) error

	// ReplaceTestFiles makes keep the exact stored set and returns the
	// references that were dropped.
	ReplaceTestFiles(ctx context.Context, email, test string, keep []string) (removed []string, err error)
	// AppendTestFiles enforces the per-test cap and preserves upload order.
	AppendTestFiles(ctx context.Context, email, test string, urls []string) error
	// RemoveTest deletes the test entry and returns its file references.
	RemoveTest(ctx context.Context, email, test string) (removed []string, err error)

	AllSubmitted(ctx context.Context, email string) (bool, error)
	// ListCompleted returns emails of offers whose every test is submitted.
	ListCompleted(ctx context.Context) ([]string, error)
}

// FilterRepository persists derived triage records, unique per email.
type FilterRepository interface {
	Create(ctx context.Context, filter *domain.Filter) error
	Exists(ctx context.Context, email string) (bool, error)
	GetByEmail(ctx context.Context, email string) (*domain.Filter, error)
	List(ctx context.Context, done *bool) ([]domain.Filter, error)
	SetDone(ctx context.Context, email string, done bool) error
	Delete(ctx context.Context, email string) error
}

// PersonalInfoRepository persists candidate profiles.
type PersonalInfoRepository interface {
	Create(ctx context.Context, email string, dueTime time.Time) (*domain.PersonalInfo, error)
	GetByEmail(ctx context.Context, email string) (*domain.PersonalInfo, error)
	Update(ctx context.Context, info *domain.PersonalInfo) error
}

// CandidateDirectory reads and advances candidate pipeline status.
type CandidateDirectory interface {
	Status(ctx context.Context, email string) (domain.CandidateStatus, error)
	SetStatus(ctx context.Context, email string, status domain.CandidateStatus) error
}

// CatalogRepository persists the admin skill-test catalog.
type CatalogRepository interface {
	Create(ctx context.Context, test *domain.CatalogTest) error
	GetByName(ctx context.Context, name string) (*domain.CatalogTest, error)
	List(ctx context.Context) ([]domain.CatalogTest, error)
	Delete(ctx context.Context, name string) error
}

// ObjectStore abstracts blob storage with key/URL translation. Delete is
// idempotent; deleting a missing key is not an error.
type ObjectStore interface {
	Put(ctx context.Context, key string, data io.Reader) (url string, err error)
	Open(ctx context.Context, keyOrURL string) (io.ReadCloser, error)
	Delete(ctx context.Context, keyOrURL string) error
	DeletePrefix(ctx context.Context, prefix string) error
	KeyOf(urlOrKey string) string
	URLOf(key string) string
}

// CompletionQueue carries offer-completion events to the background worker.
type CompletionQueue interface {
	PublishOfferCompleted(ctx context.Context, email string) error
	SubscribeOfferCompleted(ctx context.Context, handler func(context.Context, string) error) error
}

// DocumentInspector validates uploaded documents before they are stored.
type DocumentInspector interface {
	CheckPDF(data []byte) error
}

// GradeAnalyzer calls the external scoring service with a grade report.
type GradeAnalyzer interface {
	Analyze(ctx context.Context, filename string, doc io.Reader) (domain.GradeAnalysis, error)
}
