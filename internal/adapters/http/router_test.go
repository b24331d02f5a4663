package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/flyup/recruit-backend/internal/config"
	"github.com/flyup/recruit-backend/internal/core/domain"
	"github.com/flyup/recruit-backend/internal/core/ports"
)

type offersFake struct {
	offers map[string]*domain.Offer

	lastUploads map[string][]string
	lastKeep    *[]string
	submitAll   bool
}

func newOffersFake() *offersFake {
	return &offersFake{offers: map[string]*domain.Offer{}}
}

func (f *offersFake) Create(_ context.Context, email string, dueTime time.Time, testNames []string) (*domain.Offer, error) {
	if email == "" || dueTime.IsZero() || len(testNames) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "create offer", errors.New("missing fields"))
	}
	if _, ok := f.offers[email]; ok {
		return nil, domain.WrapError(domain.ErrConflict, "create offer", errors.New(email))
	}
	offer := &domain.Offer{Email: email, DueTime: dueTime}
	for _, name := range testNames {
		offer.SkillTests = append(offer.SkillTests, domain.SkillTest{Name: name, Status: domain.TestDoing, UploadedFiles: []string{}})
	}
	f.offers[email] = offer
	return offer, nil
}

func (f *offersFake) Get(_ context.Context, email string) (*domain.Offer, error) {
	offer, ok := f.offers[email]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "get offer", errors.New(email))
	}
	return offer, nil
}

func (f *offersFake) ApplyUpdates(_ context.Context, email string, _ *time.Time, _ []domain.SkillTestPatch, uploads map[string][]ports.Upload) (*domain.Offer, error) {
	offer, ok := f.offers[email]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "update offer", errors.New(email))
	}
	f.lastUploads = map[string][]string{}
	for test, ups := range uploads {
		for _, up := range ups {
			f.lastUploads[test] = append(f.lastUploads[test], up.Filename)
		}
	}
	return offer, nil
}

func (f *offersFake) SubmitTest(_ context.Context, email, test string, keepFiles *[]string, uploads []ports.Upload) (*domain.Offer, bool, error) {
	offer, ok := f.offers[email]
	if !ok {
		return nil, false, domain.WrapError(domain.ErrNotFound, "submit test", errors.New(email))
	}
	if offer.Test(test) == nil {
		return nil, false, domain.WrapError(domain.ErrNotFound, "submit test", errors.New(test))
	}
	f.lastKeep = keepFiles
	names := []string{}
	for _, up := range uploads {
		names = append(names, up.Filename)
	}
	f.lastUploads = map[string][]string{test: names}
	return offer, f.submitAll, nil
}

func (f *offersFake) DismissTest(_ context.Context, email, test string) (*domain.Offer, error) {
	offer, ok := f.offers[email]
	if !ok || offer.Test(test) == nil {
		return nil, domain.WrapError(domain.ErrNotFound, "dismiss test", errors.New(test))
	}
	return offer, nil
}

type profilesHTTPFake struct {
	infos     map[string]*domain.PersonalInfo
	lastPatch domain.ProfilePatch
}

func (f *profilesHTTPFake) Create(_ context.Context, email string, dueTime time.Time) (*domain.PersonalInfo, error) {
	if f.infos == nil {
		f.infos = map[string]*domain.PersonalInfo{}
	}
	if _, ok := f.infos[email]; ok {
		return nil, domain.WrapError(domain.ErrConflict, "create profile", errors.New(email))
	}
	info := &domain.PersonalInfo{Email: email, DueTime: dueTime}
	f.infos[email] = info
	return info, nil
}

func (f *profilesHTTPFake) Get(_ context.Context, email string) (*domain.PersonalInfo, error) {
	info, ok := f.infos[email]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "get profile", errors.New(email))
	}
	return info, nil
}

func (f *profilesHTTPFake) Submit(_ context.Context, email string, patch domain.ProfilePatch, _ map[string]ports.Upload) (*domain.PersonalInfo, error) {
	info, ok := f.infos[email]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "submit profile", errors.New(email))
	}
	f.lastPatch = patch
	patch.Apply(info)
	return info, nil
}

func (f *profilesHTTPFake) DeleteDocument(_ context.Context, email, field string) (*domain.PersonalInfo, error) {
	info, ok := f.infos[email]
	if !ok || !domain.IsDocumentField(field) {
		return nil, domain.WrapError(domain.ErrNotFound, "delete document", errors.New(field))
	}
	return info, nil
}

type triageFake struct {
	filters []domain.Filter
}

func (f *triageFake) List(_ context.Context, done *bool) ([]domain.Filter, error) {
	if done == nil {
		return f.filters, nil
	}
	var out []domain.Filter
	for _, filter := range f.filters {
		if filter.Done == *done {
			out = append(out, filter)
		}
	}
	return out, nil
}

func (f *triageFake) SetDone(_ context.Context, email string, done bool) (*domain.Filter, error) {
	for i := range f.filters {
		if f.filters[i].Email == email {
			f.filters[i].Done = done
			return &f.filters[i], nil
		}
	}
	return nil, domain.WrapError(domain.ErrNotFound, "set done", errors.New(email))
}

func (f *triageFake) Dismiss(_ context.Context, email string) error {
	for i := range f.filters {
		if f.filters[i].Email == email {
			f.filters = append(f.filters[:i], f.filters[i+1:]...)
			return nil
		}
	}
	return domain.WrapError(domain.ErrNotFound, "dismiss filter", errors.New(email))
}

func (f *triageFake) Export(_ context.Context) ([]byte, error) {
	return []byte("PK workbook bytes"), nil
}

type catalogFake struct {
	tests map[string]*domain.CatalogTest
}

func (f *catalogFake) Create(_ context.Context, name, position string, pdf ports.Upload) (*domain.CatalogTest, error) {
	if name == "" || position == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "create catalog test", errors.New("missing fields"))
	}
	if f.tests == nil {
		f.tests = map[string]*domain.CatalogTest{}
	}
	if _, ok := f.tests[name]; ok {
		return nil, domain.WrapError(domain.ErrConflict, "create catalog test", errors.New(name))
	}
	_, _ = io.ReadAll(pdf.Body)
	test := &domain.CatalogTest{Name: name, Position: position, PDF: "mem://skillTests/" + name + "/" + pdf.Filename}
	f.tests[name] = test
	return test, nil
}

func (f *catalogFake) Get(_ context.Context, name string) (*domain.CatalogTest, error) {
	test, ok := f.tests[name]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "get catalog test", errors.New(name))
	}
	return test, nil
}

func (f *catalogFake) List(_ context.Context) ([]domain.CatalogTest, error) {
	var out []domain.CatalogTest
	for _, test := range f.tests {
		out = append(out, *test)
	}
	return out, nil
}

func (f *catalogFake) Delete(_ context.Context, name string) error {
	if _, ok := f.tests[name]; !ok {
		return domain.WrapError(domain.ErrNotFound, "delete catalog test", errors.New(name))
	}
	delete(f.tests, name)
	return nil
}

type testBackend struct {
	offers   *offersFake
	profiles *profilesHTTPFake
	triage   *triageFake
	catalog  *catalogFake
}

func newTestBackend() *testBackend {
	return &testBackend{
		offers:   newOffersFake(),
		profiles: &profilesHTTPFake{},
		triage:   &triageFake{},
		catalog:  &catalogFake{},
	}
}

func newTestHandler(cfg config.Config) http.Handler {
	return newTestHandlerWithBackend(cfg, newTestBackend())
}

func newTestHandlerWithBackend(cfg config.Config, b *testBackend) http.Handler {
	return NewRouter(b.offers, b.profiles, b.triage, b.catalog, cfg, nil).Handler()
}

func multipartBody(t *testing.T, values map[string]string, files map[string][]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range values {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("write field %q: %v", key, err)
		}
	}
	for field, names := range files {
		for _, name := range names {
			part, err := writer.CreateFormFile(field, name)
			if err != nil {
				t.Fatalf("create file %q: %v", name, err)
			}
			if _, err := part.Write([]byte("file content")); err != nil {
				t.Fatalf("write file %q: %v", name, err)
			}
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, writer.FormDataContentType()
}

func TestCreateOfferLifecycle(t *testing.T) {
	backend := newTestBackend()
	handler := newTestHandlerWithBackend(config.Config{}, backend)

	body := `{"email":"a@b.c","dueTime":"2026-10-01T00:00:00Z","skillTests":["backend","frontend"]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/offers", strings.NewReader(body))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusCreated {
		t.Fatalf("create expected 201, got %d: %s", res.Code, res.Body.String())
	}

	res2 := httptest.NewRecorder()
	handler.ServeHTTP(res2, httptest.NewRequest(http.MethodPost, "/v1/offers", strings.NewReader(body)))
	if res2.Code != http.StatusConflict {
		t.Fatalf("duplicate expected 409, got %d", res2.Code)
	}

	res3 := httptest.NewRecorder()
	handler.ServeHTTP(res3, httptest.NewRequest(http.MethodGet, "/v1/offers/a@b.c", nil))
	if res3.Code != http.StatusOK {
		t.Fatalf("get expected 200, got %d", res3.Code)
	}
	var offer domain.Offer
	if err := json.NewDecoder(res3.Body).Decode(&offer); err != nil {
		t.Fatalf("decode offer: %v", err)
	}
	if len(offer.SkillTests) != 2 {
		t.Fatalf("expected 2 tests, got %d", len(offer.SkillTests))
	}
}

func TestCreateOfferRejectsMissingFields(t *testing.T) {
	handler := newTestHandler(config.Config{})
	req := httptest.NewRequest(http.MethodPost, "/v1/offers", strings.NewReader(`{"email":"a@b.c"}`))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestGetOfferNotFound(t *testing.T) {
	handler := newTestHandler(config.Config{})
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/v1/offers/missing@x.y", nil))
	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}

func TestSubmitTestReturnsCompletionFlag(t *testing.T) {
	backend := newTestBackend()
	backend.offers.submitAll = true
	handler := newTestHandlerWithBackend(config.Config{}, backend)

	if _, err := backend.offers.Create(context.Background(), "a@b.c", time.Now().Add(time.Hour), []string{"backend"}); err != nil {
		t.Fatalf("seed offer: %v", err)
	}

	body, contentType := multipartBody(t,
		map[string]string{"keepFiles": `["https://files/old.pdf"]`},
		map[string][]string{"files": {"solution.zip", "notes.md"}},
	)
	req := httptest.NewRequest(http.MethodPatch, "/v1/offers/a@b.c/backend/submit", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}

	var resp struct {
		AllSubmitted bool `json:"allSubmitted"`
	}
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.AllSubmitted {
		t.Fatalf("expected allSubmitted true")
	}
	if backend.offers.lastKeep == nil || len(*backend.offers.lastKeep) != 1 {
		t.Fatalf("keepFiles not parsed: %v", backend.offers.lastKeep)
	}
	if got := backend.offers.lastUploads["backend"]; len(got) != 2 {
		t.Fatalf("expected 2 uploads, got %v", got)
	}
}

func TestUpdateOfferFilesKeyedByTestName(t *testing.T) {
	backend := newTestBackend()
	handler := newTestHandlerWithBackend(config.Config{}, backend)
	if _, err := backend.offers.Create(context.Background(), "a@b.c", time.Now().Add(time.Hour), []string{"backend", "frontend"}); err != nil {
		t.Fatalf("seed offer: %v", err)
	}

	body, contentType := multipartBody(t,
		map[string]string{"skillTests": `[{"name":"backend","rank":1}]`},
		map[string][]string{"backend": {"draft.pdf"}, "frontend": {"mock.png"}},
	)
	req := httptest.NewRequest(http.MethodPatch, "/v1/offers/a@b.c", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	if len(backend.offers.lastUploads["backend"]) != 1 || len(backend.offers.lastUploads["frontend"]) != 1 {
		t.Fatalf("uploads not keyed by test: %v", backend.offers.lastUploads)
	}
}

func TestUpdateOfferRejectsMalformedPatchJSON(t *testing.T) {
	backend := newTestBackend()
	handler := newTestHandlerWithBackend(config.Config{}, backend)
	if _, err := backend.offers.Create(context.Background(), "a@b.c", time.Now().Add(time.Hour), []string{"backend"}); err != nil {
		t.Fatalf("seed offer: %v", err)
	}

	body, contentType := multipartBody(t, map[string]string{"skillTests": `{broken`}, nil)
	req := httptest.NewRequest(http.MethodPatch, "/v1/offers/a@b.c", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestProfilePatchScalarsFromForm(t *testing.T) {
	backend := newTestBackend()
	handler := newTestHandlerWithBackend(config.Config{}, backend)
	if _, err := backend.profiles.Create(context.Background(), "a@b.c", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("seed profile: %v", err)
	}

	body, contentType := multipartBody(t,
		map[string]string{"name": "Smith", "gpa": "3.25"},
		map[string][]string{"gradeReport": {"transcript.pdf"}},
	)
	req := httptest.NewRequest(http.MethodPatch, "/v1/personal-infos/a@b.c", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	if backend.profiles.lastPatch.Name == nil || *backend.profiles.lastPatch.Name != "Smith" {
		t.Fatalf("name patch missing: %+v", backend.profiles.lastPatch)
	}
	if backend.profiles.lastPatch.GPA == nil || *backend.profiles.lastPatch.GPA != 3.25 {
		t.Fatalf("gpa patch missing: %+v", backend.profiles.lastPatch)
	}
}

func TestProfilePatchRejectsUnknownDocumentField(t *testing.T) {
	backend := newTestBackend()
	handler := newTestHandlerWithBackend(config.Config{}, backend)
	if _, err := backend.profiles.Create(context.Background(), "a@b.c", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("seed profile: %v", err)
	}

	body, contentType := multipartBody(t, nil, map[string][]string{"resume": {"cv.pdf"}})
	req := httptest.NewRequest(http.MethodPatch, "/v1/personal-infos/a@b.c", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestListFiltersWithDoneQuery(t *testing.T) {
	backend := newTestBackend()
	backend.triage.filters = []domain.Filter{
		{Email: "a@b.c", Done: false},
		{Email: "d@e.f", Done: true},
	}
	handler := newTestHandlerWithBackend(config.Config{}, backend)

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/v1/filters?done=true", nil))
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var filters []domain.Filter
	if err := json.NewDecoder(res.Body).Decode(&filters); err != nil {
		t.Fatalf("decode filters: %v", err)
	}
	if len(filters) != 1 || filters[0].Email != "d@e.f" {
		t.Fatalf("unexpected filters %v", filters)
	}

	res2 := httptest.NewRecorder()
	handler.ServeHTTP(res2, httptest.NewRequest(http.MethodGet, "/v1/filters?done=banana", nil))
	if res2.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad query, got %d", res2.Code)
	}
}

func TestExportFiltersSetsAttachmentHeaders(t *testing.T) {
	handler := newTestHandler(config.Config{})
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/v1/filters/export", nil))
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if ct := res.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Fatalf("unexpected content type %q", ct)
	}
	if cd := res.Header().Get("Content-Disposition"); !strings.Contains(cd, "attachment") {
		t.Fatalf("unexpected content disposition %q", cd)
	}
}

func TestCreateCatalogTestRequiresPDF(t *testing.T) {
	handler := newTestHandler(config.Config{})
	body, contentType := multipartBody(t, map[string]string{"name": "backend", "position": "engineer"}, nil)
	req := httptest.NewRequest(http.MethodPost, "/v1/skill-tests", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestDismissFilterNoContent(t *testing.T) {
	backend := newTestBackend()
	backend.triage.filters = []domain.Filter{{Email: "a@b.c"}}
	handler := newTestHandlerWithBackend(config.Config{}, backend)

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodDelete, "/v1/filters/a@b.c", nil))
	if res.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", res.Code)
	}

	res2 := httptest.NewRecorder()
	handler.ServeHTTP(res2, httptest.NewRequest(http.MethodDelete, "/v1/filters/a@b.c", nil))
	if res2.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on repeat, got %d", res2.Code)
	}
}
