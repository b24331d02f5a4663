// Package pdfcheck validates uploaded catalog documents before storage.
package pdfcheck

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"

	"github.com/flyup/recruit-backend/internal/core/domain"
)

type Inspector struct{}

func New() *Inspector {
	return &Inspector{}
}

// CheckPDF confirms the bytes parse as a PDF with at least one page. The
// parser panics on some malformed inputs, so the check recovers and reports
// those as invalid too.
func (i *Inspector) CheckPDF(data []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = domain.WrapError(domain.ErrInvalidInput, "check pdf", fmt.Errorf("malformed document: %v", r))
		}
	}()

	reader, readErr := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if readErr != nil {
		return domain.WrapError(domain.ErrInvalidInput, "check pdf", readErr)
	}
	if reader.NumPage() < 1 {
		return domain.WrapError(domain.ErrInvalidInput, "check pdf", fmt.Errorf("document has no pages"))
	}
	return nil
}
