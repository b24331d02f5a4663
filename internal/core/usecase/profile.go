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

// ProfileService manages personal info and its five document slots. A slot
// holds at most one stored object; replacing it deletes the previous object
// before the reference is overwritten.
type ProfileService struct {
	profiles ports.PersonalInfoRepository
	store    ports.ObjectStore
}

func NewProfileService(profiles ports.PersonalInfoRepository, store ports.ObjectStore) *ProfileService {
	return &ProfileService{profiles: profiles, store: store}
}

func (s *ProfileService) Create(ctx context.Context, email string, dueTime time.Time) (*domain.PersonalInfo, error) {
	if email == "" || dueTime.IsZero() {
		return nil, domain.WrapError(domain.ErrInvalidInput, "create personal info", errors.New("email and dueTime are required"))
	}
	return s.profiles.Create(ctx, email, dueTime)
}

func (s *ProfileService) Get(ctx context.Context, email string) (*domain.PersonalInfo, error) {
	return s.profiles.GetByEmail(ctx, email)
}

// Submit applies a partial scalar update and replaces document slots with the
// uploaded files. Upload fields outside the known slots are ignored.
func (s *ProfileService) Submit(
	ctx context.Context,
	email string,
	patch domain.ProfilePatch,
	uploads map[string]ports.Upload,
) (*domain.PersonalInfo, error) {
	info, err := s.profiles.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	patch.Apply(info)

	for field, up := range uploads {
		if !domain.IsDocumentField(field) {
			continue
		}

		url, err := s.store.Put(ctx, profileFileKey(email, field, up.Filename), up.Body)
		if err != nil {
			return nil, domain.WrapError(domain.ErrStorage, "store document", err)
		}

		if prev := info.Document(field); prev != "" {
			if err := s.store.Delete(ctx, prev); err != nil {
				slog.Error("delete replaced document", "email", email, "field", field, "error", err)
			}
		}
		info.SetDocument(field, url)
	}

	if err := s.profiles.Update(ctx, info); err != nil {
		return nil, fmt.Errorf("persist personal info: %w", err)
	}
	return info, nil
}

// DeleteDocument removes a slot's stored object and clears the reference.
func (s *ProfileService) DeleteDocument(ctx context.Context, email, field string) (*domain.PersonalInfo, error) {
	if !domain.IsDocumentField(field) {
		return nil, domain.WrapError(domain.ErrInvalidInput, "delete document", fmt.Errorf("unknown document field %q", field))
	}

	info, err := s.profiles.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	ref := info.Document(field)
	if ref == "" {
		return nil, domain.WrapError(domain.ErrNotFound, "delete document", fmt.Errorf("no file for field %q", field))
	}

	if err := s.store.Delete(ctx, ref); err != nil {
		slog.Error("delete document object", "email", email, "field", field, "error", err)
	}

	info.SetDocument(field, "")
	if err := s.profiles.Update(ctx, info); err != nil {
		return nil, fmt.Errorf("persist personal info: %w", err)
	}
	return info, nil
}
