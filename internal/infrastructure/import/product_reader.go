// Package csvimport reads product catalog CSV files for bulk import.
// It handles UTF-8 BOM stripping, configurable delimiters and per-row
// validation, collecting row errors instead of aborting on the first one.
package csvimport

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Recognized header columns. name and sku are required, the rest optional.
const (
	ColumnName              = "name"
	ColumnSKU               = "sku"
	ColumnDivisible         = "divisible"
	ColumnLowStockThreshold = "low_stock_threshold"
)

// ProductRecord is one validated data row of a product import file
type ProductRecord struct {
	Row               int
	Name              string
	SKU               string
	Divisible         bool
	LowStockThreshold decimal.Decimal
}

// ProductReader parses and validates a product CSV stream
type ProductReader struct {
	reader  *csv.Reader
	columns map[string]int
}

// ReaderOption is a functional option for ProductReader configuration
type ReaderOption func(*csv.Reader)

// WithDelimiter sets the field delimiter (default is comma)
func WithDelimiter(d rune) ReaderOption {
	return func(r *csv.Reader) {
		r.Comma = d
	}
}

// NewProductReader wraps the given stream, strips a UTF-8 BOM if present,
// validates the encoding and reads the header row.
func NewProductReader(r io.Reader, opts ...ReaderOption) (*ProductReader, error) {
	buf := bufio.NewReader(r)

	head, err := buf.Peek(4096)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(head) == 0 {
		return nil, ErrEmptyFile
	}
	// UTF-8 BOM: 0xEF, 0xBB, 0xBF
	if len(head) >= 3 && head[0] == 0xEF && head[1] == 0xBB && head[2] == 0xBF {
		_, _ = buf.Discard(3)
		head = head[3:]
	}
	if !utf8.Valid(head) {
		return nil, ErrInvalidEncoding
	}

	cr := csv.NewReader(buf)
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	for _, opt := range opts {
		opt(cr)
	}

	pr := &ProductReader{reader: cr}
	if err := pr.readHeader(); err != nil {
		return nil, err
	}
	return pr, nil
}

func (p *ProductReader) readHeader() error {
	record, err := p.reader.Read()
	if err == io.EOF {
		return ErrMissingHeader
	}
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}

	p.columns = make(map[string]int, len(record))
	for i, h := range record {
		p.columns[strings.ToLower(strings.TrimSpace(h))] = i
	}

	for _, required := range []string{ColumnName, ColumnSKU} {
		if _, ok := p.columns[required]; !ok {
			return fmt.Errorf("%w: missing column %q", ErrMissingHeader, required)
		}
	}
	return nil
}

// ReadAll consumes the remaining rows, validating each one. Invalid rows are
// reported as RowErrors; valid rows keep importing around them. A SKU that
// appears twice in the file is rejected on its second occurrence.
func (p *ProductReader) ReadAll() ([]ProductRecord, []RowError) {
	var (
		records  []ProductRecord
		rowErrs  []RowError
		seenSKUs = make(map[string]int)
		rowNum   = 1 // header
	)

	for {
		rowNum++
		row, err := p.reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			rowErrs = append(rowErrs, RowError{
				Row: rowNum, Code: ErrCodeImportMalformedRow, Message: err.Error(),
			})
			continue
		}

		record, errs := p.parseRow(rowNum, row)
		if len(errs) > 0 {
			rowErrs = append(rowErrs, errs...)
			continue
		}

		if firstRow, dup := seenSKUs[record.SKU]; dup {
			rowErrs = append(rowErrs, RowError{
				Row: rowNum, Column: ColumnSKU, Code: ErrCodeImportDuplicateInFile,
				Message: fmt.Sprintf("SKU already appears on row %d", firstRow),
				Value:   record.SKU,
			})
			continue
		}
		seenSKUs[record.SKU] = rowNum

		records = append(records, record)
	}
	return records, rowErrs
}

func (p *ProductReader) parseRow(rowNum int, row []string) (ProductRecord, []RowError) {
	var errs []RowError

	record := ProductRecord{
		Row:  rowNum,
		Name: strings.TrimSpace(p.field(row, ColumnName)),
		SKU:  strings.TrimSpace(p.field(row, ColumnSKU)),
	}

	if record.Name == "" {
		errs = append(errs, RowError{
			Row: rowNum, Column: ColumnName, Code: ErrCodeImportRequiredField,
			Message: "name is required",
		})
	}
	if record.SKU == "" {
		errs = append(errs, RowError{
			Row: rowNum, Column: ColumnSKU, Code: ErrCodeImportRequiredField,
			Message: "sku is required",
		})
	}

	if raw := strings.TrimSpace(p.field(row, ColumnDivisible)); raw != "" {
		divisible, err := parseBool(raw)
		if err != nil {
			errs = append(errs, RowError{
				Row: rowNum, Column: ColumnDivisible, Code: ErrCodeImportInvalidType,
				Message: "divisible must be true/false, yes/no or 1/0", Value: raw,
			})
		} else {
			record.Divisible = divisible
		}
	}

	if raw := strings.TrimSpace(p.field(row, ColumnLowStockThreshold)); raw != "" {
		threshold, err := decimal.NewFromString(raw)
		switch {
		case err != nil:
			errs = append(errs, RowError{
				Row: rowNum, Column: ColumnLowStockThreshold, Code: ErrCodeImportInvalidType,
				Message: "low_stock_threshold must be a number", Value: raw,
			})
		case threshold.IsNegative():
			errs = append(errs, RowError{
				Row: rowNum, Column: ColumnLowStockThreshold, Code: ErrCodeImportInvalidRange,
				Message: "low_stock_threshold cannot be negative", Value: raw,
			})
		default:
			record.LowStockThreshold = threshold
		}
	}

	return record, errs
}

func (p *ProductReader) field(row []string, column string) string {
	idx, ok := p.columns[column]
	if !ok || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(raw) {
	case "true", "yes", "y", "1":
		return true, nil
	case "false", "no", "n", "0":
		return false, nil
	}
	return false, fmt.Errorf("not a boolean: %q", raw)
}
