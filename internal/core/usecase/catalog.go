package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/flyup/recruit-backend/internal/core/domain"
	"github.com/flyup/recruit-backend/internal/core/ports"
)

// CatalogManager maintains the admin skill-test catalog. Catalog entries are
// independent of the offer lifecycle.
type CatalogManager struct {
	catalog   ports.CatalogRepository
	store     ports.ObjectStore
	inspector ports.DocumentInspector
}

func NewCatalogManager(
	catalog ports.CatalogRepository,
	store ports.ObjectStore,
	inspector ports.DocumentInspector,
) *CatalogManager {
	return &CatalogManager{
		catalog:   catalog,
		store:     store,
		inspector: inspector,
	}
}

func (m *CatalogManager) Create(ctx context.Context, name, position string, pdf ports.Upload) (*domain.CatalogTest, error) {
	if name == "" || position == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "create skill test", errors.New("name and position are required"))
	}
	if pdf.Body == nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "create skill test", errors.New("pdf file is required"))
	}

	data, err := io.ReadAll(pdf.Body)
	if err != nil {
		return nil, fmt.Errorf("read pdf upload: %w", err)
	}
	if err := m.inspector.CheckPDF(data); err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "create skill test", err)
	}

	url, err := m.store.Put(ctx, catalogFileKey(name, pdf.Filename), bytes.NewReader(data))
	if err != nil {
		return nil, domain.WrapError(domain.ErrStorage, "store skill test pdf", err)
	}

	test := &domain.CatalogTest{
		Name:     name,
		Position: position,
		PDF:      url,
	}
	if err := m.catalog.Create(ctx, test); err != nil {
		if delErr := m.store.Delete(ctx, url); delErr != nil {
			slog.Error("delete orphaned catalog pdf", "ref", url, "error", delErr)
		}
		return nil, err
	}
	return test, nil
}

func (m *CatalogManager) Get(ctx context.Context, name string) (*domain.CatalogTest, error) {
	return m.catalog.GetByName(ctx, name)
}

func (m *CatalogManager) List(ctx context.Context) ([]domain.CatalogTest, error) {
	return m.catalog.List(ctx)
}

// Delete removes the catalog row and prunes everything under the test's
// storage prefix. Storage cleanup is best effort.
func (m *CatalogManager) Delete(ctx context.Context, name string) error {
	if err := m.catalog.Delete(ctx, name); err != nil {
		return err
	}
	if err := m.store.DeletePrefix(ctx, catalogPrefix(name)); err != nil {
		slog.Error("prune catalog storage prefix", "test", name, "error", err)
	}
	return nil
}
