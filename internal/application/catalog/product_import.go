package catalog

import (
	"context"
	"errors"
	"io"

	"github.com/google/uuid"

	"github.com/retailcore/backend/internal/domain/catalog"
	"github.com/retailcore/backend/internal/domain/shared"
	csvimport "github.com/retailcore/backend/internal/infrastructure/import"
)

// ImportResult summarizes a bulk product import. Row errors identify the
// rejected rows; accepted rows are committed regardless.
type ImportResult struct {
	Imported int                  `json:"imported"`
	Failed   int                  `json:"failed"`
	Errors   []csvimport.RowError `json:"errors,omitempty"`
}

// ImportProducts reads a product CSV stream and registers every valid row.
// File-level problems (empty file, bad encoding, missing header) fail the
// whole import; row-level problems only reject the offending rows.
func (s *ProductService) ImportProducts(ctx context.Context, tenantID, shopID uuid.UUID, r io.Reader) (*ImportResult, error) {
	reader, err := csvimport.NewProductReader(r)
	if err != nil {
		if errors.Is(err, csvimport.ErrEmptyFile) ||
			errors.Is(err, csvimport.ErrInvalidEncoding) ||
			errors.Is(err, csvimport.ErrMissingHeader) {
			return nil, shared.NewDomainError(shared.CodeValidation, err.Error())
		}
		return nil, err
	}

	records, rowErrs := reader.ReadAll()

	result := &ImportResult{Errors: rowErrs}
	for _, record := range records {
		product, err := catalog.NewProduct(tenantID, shopID, record.Name, record.SKU, record.Divisible)
		if err == nil && record.LowStockThreshold.IsPositive() {
			err = product.SetLowStockThreshold(record.LowStockThreshold)
		}
		if err != nil {
			result.Errors = append(result.Errors, csvimport.RowError{
				Row:     record.Row,
				Code:    csvimport.ErrCodeImportValidation,
				Message: err.Error(),
				Value:   record.SKU,
			})
			continue
		}

		if err := s.productRepo.Save(ctx, product); err != nil {
			return nil, err
		}
		result.Imported++
	}

	result.Failed = len(result.Errors)
	return result, nil
}
