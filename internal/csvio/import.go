package csvio

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"tenderledger/internal/amqp"
	"tenderledger/internal/core"
	applog "tenderledger/internal/log"
)

var ErrMissingColumn = errors.New("missing required column")

// LabelResolver finds a visible label by name, creating it for the owner
// when needed. *services.LabelService implements it.
type LabelResolver interface {
	Ensure(ctx context.Context, owner int64, kind core.LabelKind, name string) (core.Label, bool, error)
}

// ExpenseWriter is the ledger side of an import. *services.ExpenseService
// implements it.
type ExpenseWriter interface {
	Create(ctx context.Context, owner int64, in core.ExpenseInput) (core.Expense, error)
	Find(ctx context.Context, owner int64, f core.Filter) ([]core.ExpenseView, error)
}

// Publisher announces a finished import. *amqp.Client implements it.
type Publisher interface {
	PublishLedgerEvent(ctx context.Context, event *amqp.LedgerEvent) error
}

// RowError is a rejected data row. Row counts from 1 at the header.
type RowError struct {
	Row int
	Err error
}

func (e RowError) Error() string { return fmt.Sprintf("row %d: %v", e.Row, e.Err) }
func (e RowError) Unwrap() error { return e.Err }

// ImportResult summarizes one import.
type ImportResult struct {
	Imported      int
	Duplicates    int
	CreatedLabels []string
	Errors        []RowError
}

type Importer struct {
	labels    LabelResolver
	expenses  ExpenseWriter
	publisher Publisher
	logger    *applog.Logger
}

// NewImporter wires an importer. publisher may be nil.
func NewImporter(labels LabelResolver, expenses ExpenseWriter, publisher Publisher, logger *applog.Logger) *Importer {
	if logger == nil {
		logger = applog.Discard()
	}
	return &Importer{
		labels:    labels,
		expenses:  expenses,
		publisher: publisher,
		logger:    logger.WithComponent(applog.ComponentCSV),
	}
}

// Import reads CSV rows into the owner's ledger. Columns are matched by
// header name in any order; Date and Amount are required. Unknown
// categories and payment methods are created for the owner. A row equal to
// an existing expense, or to one earlier in the file, is skipped. Bad rows
// are collected in the result and do not stop the import.
func (im *Importer) Import(ctx context.Context, owner int64, r io.Reader) (ImportResult, error) {
	var result ImportResult

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return result, nil
	}
	if err != nil {
		return result, fmt.Errorf("read header: %w", err)
	}
	columns, err := mapColumns(header)
	if err != nil {
		return result, err
	}

	existing, err := im.expenses.Find(ctx, owner, core.Filter{})
	if err != nil {
		return result, fmt.Errorf("load existing expenses: %w", err)
	}
	seen := make(map[rowKey]struct{}, len(existing))
	for _, v := range existing {
		seen[keyOf(v.Date, core.FormatAmount(v.Amount), deref(v.Category), deref(v.PaymentMethod), v.Location)] = struct{}{}
	}

	row := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		row++
		if err != nil {
			var parseErr *csv.ParseError
			if !errors.As(err, &parseErr) {
				return result, fmt.Errorf("read row %d: %w", row, err)
			}
			result.Errors = append(result.Errors, RowError{Row: row, Err: err})
			continue
		}
		if isBlank(record) {
			continue
		}

		parsed, err := parseRow(record, columns)
		if err != nil {
			result.Errors = append(result.Errors, RowError{Row: row, Err: err})
			continue
		}

		key := keyOf(parsed.date, core.FormatAmount(parsed.input.Amount), parsed.category, parsed.paymentMethod, parsed.input.Location)
		if _, dup := seen[key]; dup {
			result.Duplicates++
			continue
		}

		in := parsed.input
		if in.CategoryID, err = im.resolve(ctx, owner, core.KindCategory, parsed.category, &result); err != nil {
			result.Errors = append(result.Errors, RowError{Row: row, Err: err})
			continue
		}
		if in.PaymentMethodID, err = im.resolve(ctx, owner, core.KindPaymentMethod, parsed.paymentMethod, &result); err != nil {
			result.Errors = append(result.Errors, RowError{Row: row, Err: err})
			continue
		}

		if _, err := im.expenses.Create(ctx, owner, in); err != nil {
			result.Errors = append(result.Errors, RowError{Row: row, Err: err})
			continue
		}
		seen[key] = struct{}{}
		result.Imported++
	}

	im.logger.InfoContext(ctx, "CSV import finished",
		applog.FieldOperation, applog.OpImport,
		applog.FieldOwner, owner,
		"imported", result.Imported,
		"duplicates", result.Duplicates,
		"rejected", len(result.Errors))

	if result.Imported > 0 && im.publisher != nil {
		event := amqp.NewLedgerEvent(amqp.EventExpensesImported, owner, 0)
		event.Count = result.Imported
		if err := im.publisher.PublishLedgerEvent(ctx, event); err != nil {
			im.logger.WarnContext(ctx, "Failed to publish import event",
				applog.FieldEventID, event.ID,
				applog.FieldError, err)
		}
	}

	return result, nil
}

func (im *Importer) resolve(ctx context.Context, owner int64, kind core.LabelKind, name string, result *ImportResult) (*int64, error) {
	if name == "" {
		return nil, nil
	}
	label, created, err := im.labels.Ensure(ctx, owner, kind, name)
	if err != nil {
		return nil, fmt.Errorf("%s %q: %w", kind, name, err)
	}
	if created {
		result.CreatedLabels = append(result.CreatedLabels, string(kind)+":"+label.Name)
	}
	id := label.ID
	return &id, nil
}

type rowKey struct {
	date, amount, category, paymentMethod, location string
}

func keyOf(date core.Date, amount, category, paymentMethod, location string) rowKey {
	return rowKey{date.String(), amount, category, paymentMethod, location}
}

type parsedRow struct {
	date          core.Date
	input         core.ExpenseInput
	category      string
	paymentMethod string
}

func parseRow(record []string, columns map[int]int) (parsedRow, error) {
	cell := func(col int) string {
		i, ok := columns[col]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	date, err := core.ParseDate(cell(colDate))
	if err != nil {
		return parsedRow{}, err
	}
	amount, err := core.ParseAmount(cell(colAmount))
	if err != nil {
		return parsedRow{}, fmt.Errorf("%w: %q", err, cell(colAmount))
	}

	input := core.ExpenseInput{
		Amount:   amount,
		Date:     date,
		Location: cell(colLocation),
	}
	p := parsedRow{
		date:          date,
		input:         input,
		category:      cell(colCategory),
		paymentMethod: cell(colPaymentMethod),
	}
	if err := p.input.Validate(); err != nil {
		return parsedRow{}, err
	}
	for _, name := range []string{p.category, p.paymentMethod} {
		if name == "" {
			continue
		}
		if _, err := core.NormalizeLabelName(name); err != nil {
			return parsedRow{}, fmt.Errorf("%w: %q", err, name)
		}
	}
	return p, nil
}

// mapColumns maps logical columns to positions by case-insensitive header
// name.
func mapColumns(header []string) (map[int]int, error) {
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	columns := make(map[int]int)
	for i, name := range header {
		for col, want := range Header {
			if strings.EqualFold(strings.TrimSpace(name), want) {
				if _, dup := columns[col]; !dup {
					columns[col] = i
				}
			}
		}
	}
	for _, col := range []int{colDate, colAmount} {
		if _, ok := columns[col]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, Header[col])
		}
	}
	return columns, nil
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
