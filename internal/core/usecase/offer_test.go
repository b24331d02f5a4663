package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/flyup/recruit-backend/internal/core/domain"
	"github.com/flyup/recruit-backend/internal/core/ports"
)

type ledgerFake struct {
	offers map[string]*domain.Offer
}

func newLedgerFake() *ledgerFake {
	return &ledgerFake{offers: map[string]*domain.Offer{}}
}

func (f *ledgerFake) Create(_ context.Context, offer *domain.Offer) error {
	if _, ok := f.offers[offer.Email]; ok {
		return domain.WrapError(domain.ErrConflict, "create offer", errors.New(offer.Email))
	}
	clone := *offer
	clone.SkillTests = slices.Clone(offer.SkillTests)
	f.offers[offer.Email] = &clone
	return nil
}

func (f *ledgerFake) GetByEmail(_ context.Context, email string) (*domain.Offer, error) {
	offer, ok := f.offers[email]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "get offer", errors.New(email))
	}
	clone := *offer
	clone.SkillTests = make([]domain.SkillTest, len(offer.SkillTests))
	for i, st := range offer.SkillTests {
		clone.SkillTests[i] = st
		clone.SkillTests[i].UploadedFiles = slices.Clone(st.UploadedFiles)
	}
	return &clone, nil
}

func (f *ledgerFake) UpdateDueTime(_ context.Context, email string, dueTime time.Time) error {
	offer, ok := f.offers[email]
	if !ok {
		return domain.WrapError(domain.ErrNotFound, "update due time", errors.New(email))
	}
	offer.DueTime = dueTime
	return nil
}

func (f *ledgerFake) test(email, name string) (*domain.SkillTest, error) {
	offer, ok := f.offers[email]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "find offer", errors.New(email))
	}
	st := offer.Test(name)
	if st == nil {
		return nil, domain.WrapError(domain.ErrNotFound, "find skill test", errors.New(name))
	}
	return st, nil
}

func (f *ledgerFake) UpdateTestMeta(_ context.Context, email, name string, rank *int, explanation *string) error {
	st, err := f.test(email, name)
	if err != nil {
		return err
	}
	if rank != nil {
		st.Rank = *rank
	}
	if explanation != nil {
		st.Explanation = *explanation
	}
	return nil
}

func (f *ledgerFake) SetTestStatus(_ context.Context, email, name string, status domain.SkillTestStatus) error {
	st, err := f.test(email, name)
	if err != nil {
		return err
	}
	st.Status = status
	return nil
}

func (f *ledgerFake) ReplaceTestFiles(_ context.Context, email, name string, keep []string) ([]string, error) {
	st, err := f.test(email, name)
	if err != nil {
		return nil, err
	}
	var removed []string
	for _, url := range st.UploadedFiles {
		if !slices.Contains(keep, url) {
			removed = append(removed, url)
		}
	}
	st.UploadedFiles = slices.Clone(keep)
	return removed, nil
}

func (f *ledgerFake) AppendTestFiles(_ context.Context, email, name string, urls []string) error {
	st, err := f.test(email, name)
	if err != nil {
		return err
	}
	if len(st.UploadedFiles)+len(urls) > domain.MaxFilesPerTest {
		return domain.WrapError(domain.ErrCapacityExceeded, "append files", fmt.Errorf("test %q", name))
	}
	st.UploadedFiles = append(st.UploadedFiles, urls...)
	return nil
}

func (f *ledgerFake) RemoveTest(_ context.Context, email, name string) ([]string, error) {
	offer, ok := f.offers[email]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "remove test", errors.New(email))
	}
	for i, st := range offer.SkillTests {
		if st.Name == name {
			removed := slices.Clone(st.UploadedFiles)
			offer.SkillTests = slices.Delete(offer.SkillTests, i, i+1)
			return removed, nil
		}
	}
	return nil, domain.WrapError(domain.ErrNotFound, "remove test", errors.New(name))
}

func (f *ledgerFake) AllSubmitted(_ context.Context, email string) (bool, error) {
	offer, ok := f.offers[email]
	if !ok {
		return false, domain.WrapError(domain.ErrNotFound, "all submitted", errors.New(email))
	}
	return offer.AllSubmitted(), nil
}

func (f *ledgerFake) ListCompleted(_ context.Context) ([]string, error) {
	var emails []string
	for email, offer := range f.offers {
		if offer.AllSubmitted() {
			emails = append(emails, email)
		}
	}
	return emails, nil
}

type storeFake struct {
	objects map[string]string
	deleted []string
	putErr  error
}

func newStoreFake() *storeFake {
	return &storeFake{objects: map[string]string{}}
}

func (f *storeFake) Put(_ context.Context, key string, data io.Reader) (string, error) {
	if f.putErr != nil {
		return "", f.putErr
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	f.objects[key] = string(raw)
	return f.URLOf(key), nil
}

func (f *storeFake) Open(_ context.Context, keyOrURL string) (io.ReadCloser, error) {
	content, ok := f.objects[f.KeyOf(keyOrURL)]
	if !ok {
		return nil, errors.New("object missing: " + keyOrURL)
	}
	return io.NopCloser(strings.NewReader(content)), nil
}

func (f *storeFake) Delete(_ context.Context, keyOrURL string) error {
	key := f.KeyOf(keyOrURL)
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *storeFake) DeletePrefix(_ context.Context, prefix string) error {
	for key := range f.objects {
		if strings.HasPrefix(key, prefix) {
			delete(f.objects, key)
			f.deleted = append(f.deleted, key)
		}
	}
	return nil
}

func (f *storeFake) KeyOf(urlOrKey string) string {
	return strings.TrimPrefix(urlOrKey, "mem://")
}

func (f *storeFake) URLOf(key string) string {
	return "mem://" + key
}

type queueFake struct {
	published []string
	err       error
}

func (f *queueFake) PublishOfferCompleted(_ context.Context, email string) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, email)
	return nil
}

func (f *queueFake) SubscribeOfferCompleted(context.Context, func(context.Context, string) error) error {
	return errors.New("not implemented")
}

func upload(name, content string) ports.Upload {
	return ports.Upload{Filename: name, Body: strings.NewReader(content)}
}

func seedOffer(t *testing.T, svc *OfferService, email string, tests ...string) {
	t.Helper()
	if _, err := svc.Create(context.Background(), email, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), tests); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
}

func TestOfferCreateValidation(t *testing.T) {
	svc := NewOfferService(newLedgerFake(), newStoreFake(), &queueFake{})

	cases := []struct {
		name    string
		email   string
		dueTime time.Time
		tests   []string
	}{
		{"missing email", "", time.Now(), []string{"T1"}},
		{"missing due time", "a@x.com", time.Time{}, []string{"T1"}},
		{"nil test list", "a@x.com", time.Now(), nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.email, tc.dueTime, tc.tests)
			if !domain.IsKind(err, domain.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestOfferCreateConflict(t *testing.T) {
	svc := NewOfferService(newLedgerFake(), newStoreFake(), &queueFake{})
	seedOffer(t, svc, "a@x.com", "T1")

	_, err := svc.Create(context.Background(), "a@x.com", time.Now(), []string{"T1"})
	if !domain.IsKind(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestApplyUpdatesCommitsPerTest(t *testing.T) {
	repo := newLedgerFake()
	svc := NewOfferService(repo, newStoreFake(), &queueFake{})
	seedOffer(t, svc, "a@x.com", "T1", "T2")

	var fill []ports.Upload
	for i := 0; i < domain.MaxFilesPerTest; i++ {
		fill = append(fill, upload(fmt.Sprintf("f%d.pdf", i), "x"))
	}
	if _, err := svc.ApplyUpdates(context.Background(), "a@x.com", nil, nil, map[string][]ports.Upload{"T2": fill}); err != nil {
		t.Fatalf("ApplyUpdates(fill) error = %v", err)
	}

	_, err := svc.ApplyUpdates(context.Background(), "a@x.com", nil, nil, map[string][]ports.Upload{
		"T1": {upload("new1.pdf", "x")},
		"T2": {upload("over.pdf", "x")},
	})
	if !domain.IsKind(err, domain.ErrCapacityExceeded) {
		t.Fatalf("expected capacity error, got %v", err)
	}

	offer, err := svc.Get(context.Background(), "a@x.com")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got := len(offer.Test("T1").UploadedFiles); got != 1 {
		t.Fatalf("earlier test's append should have committed, got %d files", got)
	}
	if got := len(offer.Test("T2").UploadedFiles); got != domain.MaxFilesPerTest {
		t.Fatalf("capped test must be unchanged, got %d files", got)
	}
}

func TestSubmitTestCapLeavesSetUnchanged(t *testing.T) {
	repo := newLedgerFake()
	store := newStoreFake()
	svc := NewOfferService(repo, store, &queueFake{})
	seedOffer(t, svc, "a@x.com", "T1")

	var uploads []ports.Upload
	for i := 0; i < domain.MaxFilesPerTest; i++ {
		uploads = append(uploads, upload(fmt.Sprintf("f%d.pdf", i), "x"))
	}
	if _, _, err := svc.SubmitTest(context.Background(), "a@x.com", "T1", nil, uploads); err != nil {
		t.Fatalf("SubmitTest() error = %v", err)
	}

	_, _, err := svc.SubmitTest(context.Background(), "a@x.com", "T1", nil, []ports.Upload{upload("extra.pdf", "x")})
	if !domain.IsKind(err, domain.ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded, got %v", err)
	}

	offer, err := svc.Get(context.Background(), "a@x.com")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got := len(offer.Test("T1").UploadedFiles); got != domain.MaxFilesPerTest {
		t.Fatalf("expected stored set unchanged at %d files, got %d", domain.MaxFilesPerTest, got)
	}
	if len(store.objects) != domain.MaxFilesPerTest {
		t.Fatalf("expected rejected upload removed from storage, %d objects left", len(store.objects))
	}
}

func TestSubmitTestCompletionTrigger(t *testing.T) {
	queue := &queueFake{}
	svc := NewOfferService(newLedgerFake(), newStoreFake(), queue)
	seedOffer(t, svc, "a@x.com", "T1", "T2")

	_, all, err := svc.SubmitTest(context.Background(), "a@x.com", "T1", nil, []ports.Upload{upload("one.pdf", "1")})
	if err != nil {
		t.Fatalf("SubmitTest(T1) error = %v", err)
	}
	if all {
		t.Fatalf("expected allSubmitted=false after first test")
	}
	if len(queue.published) != 0 {
		t.Fatalf("expected no completion event yet, got %v", queue.published)
	}

	_, all, err = svc.SubmitTest(context.Background(), "a@x.com", "T2", nil, []ports.Upload{upload("two.pdf", "2")})
	if err != nil {
		t.Fatalf("SubmitTest(T2) error = %v", err)
	}
	if !all {
		t.Fatalf("expected allSubmitted=true after last test")
	}
	if len(queue.published) != 1 || queue.published[0] != "a@x.com" {
		t.Fatalf("expected one completion event for a@x.com, got %v", queue.published)
	}
}

func TestSubmitTestResubmissionKeepsFiles(t *testing.T) {
	queue := &queueFake{}
	svc := NewOfferService(newLedgerFake(), newStoreFake(), queue)
	seedOffer(t, svc, "a@x.com", "T1")

	offer, _, err := svc.SubmitTest(context.Background(), "a@x.com", "T1", nil, []ports.Upload{upload("one.pdf", "1")})
	if err != nil {
		t.Fatalf("SubmitTest() error = %v", err)
	}
	keep := slices.Clone(offer.Test("T1").UploadedFiles)

	offer, all, err := svc.SubmitTest(context.Background(), "a@x.com", "T1", &keep, nil)
	if err != nil {
		t.Fatalf("resubmission error = %v", err)
	}
	if !all {
		t.Fatalf("expected allSubmitted=true on resubmission")
	}
	if got := offer.Test("T1").UploadedFiles; !slices.Equal(got, keep) {
		t.Fatalf("expected files unchanged %v, got %v", keep, got)
	}
}

func TestSubmitTestUnknownTest(t *testing.T) {
	svc := NewOfferService(newLedgerFake(), newStoreFake(), &queueFake{})
	seedOffer(t, svc, "a@x.com", "T1")

	_, _, err := svc.SubmitTest(context.Background(), "a@x.com", "T9", nil, nil)
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestApplyUpdatesPruneDeletesDroppedObjects(t *testing.T) {
	store := newStoreFake()
	svc := NewOfferService(newLedgerFake(), store, &queueFake{})
	seedOffer(t, svc, "a@x.com", "T1")

	offer, err := svc.ApplyUpdates(context.Background(), "a@x.com", nil, nil, map[string][]ports.Upload{
		"T1": {upload("f1.pdf", "1"), upload("f2.pdf", "2"), upload("f3.pdf", "3")},
	})
	if err != nil {
		t.Fatalf("ApplyUpdates() error = %v", err)
	}
	files := offer.Test("T1").UploadedFiles
	if len(files) != 3 {
		t.Fatalf("expected 3 files, got %d", len(files))
	}

	keep := []string{files[1]}
	offer, err = svc.ApplyUpdates(context.Background(), "a@x.com", nil, []domain.SkillTestPatch{
		{Name: "T1", KeepFiles: &keep},
	}, nil)
	if err != nil {
		t.Fatalf("ApplyUpdates(prune) error = %v", err)
	}
	if got := offer.Test("T1").UploadedFiles; !slices.Equal(got, keep) {
		t.Fatalf("expected stored set %v, got %v", keep, got)
	}
	if len(store.deleted) != 2 {
		t.Fatalf("expected 2 storage deletions, got %v", store.deleted)
	}
}

func TestApplyUpdatesUnknownTestSkipped(t *testing.T) {
	svc := NewOfferService(newLedgerFake(), newStoreFake(), &queueFake{})
	seedOffer(t, svc, "a@x.com", "T1")

	rank := 3
	offer, err := svc.ApplyUpdates(context.Background(), "a@x.com", nil, []domain.SkillTestPatch{
		{Name: "nope", Rank: &rank},
		{Name: "T1", Rank: &rank},
	}, nil)
	if err != nil {
		t.Fatalf("ApplyUpdates() error = %v", err)
	}
	if offer.Test("T1").Rank != 3 {
		t.Fatalf("expected rank applied to known test")
	}
}

func TestDismissTestPurgesFiles(t *testing.T) {
	store := newStoreFake()
	svc := NewOfferService(newLedgerFake(), store, &queueFake{})
	seedOffer(t, svc, "a@x.com", "T1", "T2")

	if _, err := svc.ApplyUpdates(context.Background(), "a@x.com", nil, nil, map[string][]ports.Upload{
		"T1": {upload("f1.pdf", "1"), upload("f2.pdf", "2"), upload("f3.pdf", "3")},
	}); err != nil {
		t.Fatalf("ApplyUpdates() error = %v", err)
	}

	offer, err := svc.DismissTest(context.Background(), "a@x.com", "T1")
	if err != nil {
		t.Fatalf("DismissTest() error = %v", err)
	}
	if offer.Test("T1") != nil {
		t.Fatalf("expected T1 removed from offer")
	}
	if len(store.deleted) != 3 {
		t.Fatalf("expected 3 storage deletions, got %v", store.deleted)
	}

	if _, err := svc.DismissTest(context.Background(), "a@x.com", "T1"); !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on repeated dismiss, got %v", err)
	}
}
