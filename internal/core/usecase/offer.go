package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/flyup/recruit-backend/internal/core/domain"
	"github.com/flyup/recruit-backend/internal/core/ports"
)

// OfferService owns the offer/skill-test ledger: upload accounting with the
// per-test cap, keep-list pruning, submission, and the completion trigger.
type OfferService struct {
	offers ports.OfferRepository
	store  ports.ObjectStore
	queue  ports.CompletionQueue
}

func NewOfferService(
	offers ports.OfferRepository,
	store ports.ObjectStore,
	queue ports.CompletionQueue,
) *OfferService {
	return &OfferService{
		offers: offers,
		store:  store,
		queue:  queue,
	}
}

func (s *OfferService) Create(ctx context.Context, email string, dueTime time.Time, testNames []string) (*domain.Offer, error) {
	if email == "" || dueTime.IsZero() {
		return nil, domain.WrapError(domain.ErrInvalidInput, "create offer", errors.New("email and dueTime are required"))
	}
	if testNames == nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "create offer", errors.New("skillTests must be a list"))
	}

	offer := &domain.Offer{
		Email:   email,
		DueTime: dueTime,
	}
	for _, name := range testNames {
		if name == "" {
			return nil, domain.WrapError(domain.ErrInvalidInput, "create offer", errors.New("skill test name must not be empty"))
		}
		offer.SkillTests = append(offer.SkillTests, domain.SkillTest{
			Name:          name,
			UploadedFiles: []string{},
			Status:        domain.TestDoing,
		})
	}

	if err := s.offers.Create(ctx, offer); err != nil {
		return nil, fmt.Errorf("create offer: %w", err)
	}
	return s.offers.GetByEmail(ctx, email)
}

func (s *OfferService) Get(ctx context.Context, email string) (*domain.Offer, error) {
	return s.offers.GetByEmail(ctx, email)
}

// ApplyUpdates edits due time, per-test rank/explanation, prunes file sets via
// keep-lists and appends new uploads. Prunes always complete before appends.
// Patches naming unknown tests are skipped, not rejected. The patch is not
// atomic across tests: each test's writes commit independently, so a cap
// rejection on a later test leaves earlier tests already updated.
func (s *OfferService) ApplyUpdates(
	ctx context.Context,
	email string,
	dueTime *time.Time,
	patches []domain.SkillTestPatch,
	uploads map[string][]ports.Upload,
) (*domain.Offer, error) {
	offer, err := s.offers.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if dueTime != nil {
		if err := s.offers.UpdateDueTime(ctx, email, *dueTime); err != nil {
			return nil, fmt.Errorf("update due time: %w", err)
		}
	}

	for _, patch := range patches {
		if offer.Test(patch.Name) == nil {
			continue
		}
		if patch.Rank != nil || patch.Explanation != nil {
			if err := s.offers.UpdateTestMeta(ctx, email, patch.Name, patch.Rank, patch.Explanation); err != nil {
				return nil, fmt.Errorf("update test %q: %w", patch.Name, err)
			}
		}
		if patch.KeepFiles != nil {
			if err := s.pruneFiles(ctx, email, patch.Name, *patch.KeepFiles); err != nil {
				return nil, err
			}
		}
	}

	for _, st := range offer.SkillTests {
		incoming := uploads[st.Name]
		if len(incoming) == 0 {
			continue
		}
		if err := s.appendUploads(ctx, email, st.Name, incoming); err != nil {
			return nil, err
		}
	}

	return s.offers.GetByEmail(ctx, email)
}

// SubmitTest prunes, appends, marks the test submitted and reports whether
// the whole offer is now complete. On the all-submitted transition the
// candidate email is published for background grade analysis; a failed
// publish is logged and left for the sweeper to reconcile.
func (s *OfferService) SubmitTest(
	ctx context.Context,
	email, test string,
	keepFiles *[]string,
	uploads []ports.Upload,
) (*domain.Offer, bool, error) {
	offer, err := s.offers.GetByEmail(ctx, email)
	if err != nil {
		return nil, false, err
	}
	if offer.Test(test) == nil {
		return nil, false, domain.WrapError(domain.ErrNotFound, "submit skill test", fmt.Errorf("skill test %q", test))
	}

	if keepFiles != nil {
		if err := s.pruneFiles(ctx, email, test, *keepFiles); err != nil {
			return nil, false, err
		}
	}
	if err := s.appendUploads(ctx, email, test, uploads); err != nil {
		return nil, false, err
	}

	if err := s.offers.SetTestStatus(ctx, email, test, domain.TestSubmitted); err != nil {
		return nil, false, fmt.Errorf("mark test submitted: %w", err)
	}

	allSubmitted, err := s.offers.AllSubmitted(ctx, email)
	if err != nil {
		return nil, false, fmt.Errorf("check offer completion: %w", err)
	}
	if allSubmitted {
		if err := s.queue.PublishOfferCompleted(ctx, email); err != nil {
			slog.Error("publish offer completion", "email", email, "error", err)
		}
	}

	updated, err := s.offers.GetByEmail(ctx, email)
	if err != nil {
		return nil, false, err
	}
	return updated, allSubmitted, nil
}

// DismissTest removes the test entry and purges its files from storage.
func (s *OfferService) DismissTest(ctx context.Context, email, test string) (*domain.Offer, error) {
	removed, err := s.offers.RemoveTest(ctx, email, test)
	if err != nil {
		return nil, err
	}
	s.cleanupFiles(ctx, removed)
	return s.offers.GetByEmail(ctx, email)
}

// pruneFiles makes keep the exact stored set and deletes dropped objects.
// Storage cleanup is best effort and never blocks the mutation.
func (s *OfferService) pruneFiles(ctx context.Context, email, test string, keep []string) error {
	removed, err := s.offers.ReplaceTestFiles(ctx, email, test, keep)
	if err != nil {
		return fmt.Errorf("prune files of test %q: %w", test, err)
	}
	s.cleanupFiles(ctx, removed)
	return nil
}

// appendUploads stores incoming files then appends their references under the
// per-test cap. When the cap rejects the append the freshly stored objects
// are removed again so the stored set stays unchanged.
func (s *OfferService) appendUploads(ctx context.Context, email, test string, uploads []ports.Upload) error {
	if len(uploads) == 0 {
		return nil
	}

	urls := make([]string, 0, len(uploads))
	for _, up := range uploads {
		url, err := s.store.Put(ctx, offerFileKey(email, test, up.Filename), up.Body)
		if err != nil {
			s.cleanupFiles(ctx, urls)
			return domain.WrapError(domain.ErrStorage, "store upload", err)
		}
		urls = append(urls, url)
	}

	if err := s.offers.AppendTestFiles(ctx, email, test, urls); err != nil {
		s.cleanupFiles(ctx, urls)
		return fmt.Errorf("append files to test %q: %w", test, err)
	}
	return nil
}

func (s *OfferService) cleanupFiles(ctx context.Context, refs []string) {
	for _, ref := range refs {
		if err := s.store.Delete(ctx, ref); err != nil {
			slog.Error("delete stored object", "ref", ref, "error", err)
		}
	}
}
