// Package catalog reads product catalogs from CSV files into validated
// domain records.
package catalog

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/custodia-labs/tread-cli/internal/core/domain"
	"github.com/custodia-labs/tread-cli/internal/core/ports/driven"
	"github.com/custodia-labs/tread-cli/internal/logger"
)

// Ensure CSVSource implements the interface.
var _ driven.CatalogSource = (*CSVSource)(nil)

// requiredColumns are the header columns every catalog file must carry.
// Extra columns are ignored.
var requiredColumns = []string{"id", "name", "description", "category", "price", "link"}

// Config holds configuration for the CSV catalog source.
type Config struct {
	// Path is the catalog file location (required).
	Path string

	// SkipInvalid logs and skips rows that fail validation instead of
	// aborting the whole load. Duplicate IDs count as invalid rows.
	SkipInvalid bool
}

// CSVSource loads a UTF-8 CSV catalog with a header row.
type CSVSource struct {
	path        string
	skipInvalid bool
}

// NewCSVSource creates a catalog source for the given file.
func NewCSVSource(cfg Config) (*CSVSource, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("%w: catalog path is required", domain.ErrInvalidConfig)
	}
	return &CSVSource{
		path:        cfg.Path,
		skipInvalid: cfg.SkipInvalid,
	}, nil
}

// Path returns the catalog file location.
func (s *CSVSource) Path() string {
	return s.path
}

// Load reads and validates the whole catalog. Row numbers in errors are
// 1-based file rows, so the first data row is row 2.
func (s *CSVSource) Load(ctx context.Context) (*domain.Catalog, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %w", domain.ErrCatalogFormat, s.path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // column count is validated per row

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: reading header: %w", domain.ErrCatalogFormat, err)
	}

	columns, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	var (
		products []domain.ProductRecord
		firstRow = make(map[string]int)
		row      = 1
		skipped  = 0
	)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		row++
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %w", domain.ErrCatalogFormat, row, err)
		}

		record, rowErr := s.parseRow(columns, fields, row)
		if rowErr == nil {
			if first, dup := firstRow[record.ID]; dup {
				rowErr = &domain.CatalogDuplicateIDError{Row: row, ID: record.ID, FirstRow: first}
			}
		}

		if rowErr != nil {
			if s.skipInvalid {
				logger.Warn("catalog: skipping row %d: %v", row, rowErr)
				skipped++
				continue
			}
			return nil, rowErr
		}

		firstRow[record.ID] = row
		products = append(products, record)
	}

	logger.Debug("catalog: loaded %d products from %s (%d skipped)", len(products), s.path, skipped)
	return domain.NewCatalog(products), nil
}

// mapColumns resolves each required column to its position in the header.
func mapColumns(header []string) (map[string]int, error) {
	positions := make(map[string]int, len(header))
	for i, name := range header {
		positions[strings.ToLower(strings.TrimSpace(name))] = i
	}

	columns := make(map[string]int, len(requiredColumns))
	var missing []string
	for _, name := range requiredColumns {
		pos, ok := positions[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		columns[name] = pos
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing required columns: %s",
			domain.ErrCatalogFormat, strings.Join(missing, ", "))
	}
	return columns, nil
}

// parseRow validates a single data row. Malformed values are rejected,
// never coerced.
func (s *CSVSource) parseRow(columns map[string]int, fields []string, row int) (domain.ProductRecord, error) {
	get := func(name string) (string, error) {
		pos := columns[name]
		if pos >= len(fields) {
			return "", &domain.CatalogRowError{Row: row, Field: name, Reason: "column missing"}
		}
		value := strings.TrimSpace(fields[pos])
		if value == "" {
			return "", &domain.CatalogRowError{Row: row, Field: name, Reason: "empty value"}
		}
		return value, nil
	}

	var record domain.ProductRecord
	var err error

	if record.ID, err = get("id"); err != nil {
		return record, err
	}
	if record.Name, err = get("name"); err != nil {
		return record, err
	}
	if record.Description, err = get("description"); err != nil {
		return record, err
	}
	if record.Category, err = get("category"); err != nil {
		return record, err
	}

	priceText, err := get("price")
	if err != nil {
		return record, err
	}
	record.Price, err = decimal.NewFromString(priceText)
	if err != nil {
		return record, &domain.CatalogRowError{Row: row, Field: "price", Reason: "not a number: " + priceText}
	}
	if record.Price.IsNegative() {
		return record, &domain.CatalogRowError{Row: row, Field: "price", Reason: "negative price"}
	}

	link, err := get("link")
	if err != nil {
		return record, err
	}
	parsed, err := url.Parse(link)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return record, &domain.CatalogRowError{Row: row, Field: "link", Reason: "malformed URL: " + link}
	}
	record.Link = link

	record.Row = row
	return record, nil
}
