// Package dashboard assembles everything a report view shows for a date
// range in one call.
package dashboard

import (
	"context"
	"time"

	"tenderledger/internal/aggregate"
	"tenderledger/internal/core"
	applog "tenderledger/internal/log"

	"github.com/shopspring/decimal"
)

// NoDataLabel is shown in place of a date span when nothing matched.
const NoDataLabel = "No data"

// Finder runs a filtered ledger query. *services.ExpenseService implements
// it.
type Finder interface {
	Find(ctx context.Context, owner int64, f core.Filter) ([]core.ExpenseView, error)
}

// Report is the data behind a dashboard.
type Report struct {
	Range                core.DateRange
	Expenses             []core.ExpenseView
	Total                decimal.Decimal
	ByCategory           map[string]decimal.Decimal
	ByPaymentMethod      map[string]decimal.Decimal
	CategoryRanking      []core.LabelAmount
	PaymentMethodRanking []core.LabelAmount
	Daily                []core.DailyAmount
	// Span is the first and last date present, nil when nothing matched.
	Span *core.DateSpan
	// Err is the query failure, if any. The rest of the report is then
	// empty but still renderable.
	Err error
}

// HasData reports whether any expense matched.
func (r Report) HasData() bool {
	return len(r.Expenses) > 0
}

// SpanLabel describes the dates actually covered, or NoDataLabel.
func (r Report) SpanLabel() string {
	if r.Span == nil {
		return NoDataLabel
	}
	return r.Span.String()
}

type Service struct {
	finder Finder
	logger *applog.Logger
}

func NewService(finder Finder, logger *applog.Logger) *Service {
	if logger == nil {
		logger = applog.Discard()
	}
	return &Service{finder: finder, logger: logger.WithComponent(applog.ComponentDashboard)}
}

// Build queries the owner's expenses in r and derives every figure from the
// same result set. It never fails: a query error lands in Report.Err.
func (s *Service) Build(ctx context.Context, owner int64, r core.DateRange) Report {
	start := time.Now()

	views, err := s.finder.Find(ctx, owner, core.DateFilter(r))
	if err != nil {
		views = []core.ExpenseView{}
	}
	report := Summarize(views)
	report.Range = r
	report.Err = err

	s.logger.DebugContext(ctx, "Report built", applog.NewFields().
		WithOperation(applog.OpReport).
		WithOwner(owner).
		WithDateRange(r.Start.String(), r.End.String()).
		WithCount(len(views)).
		WithError(err).ToSlice()...)
	s.logger.DebugContext(ctx, "Report timing", applog.FieldDuration, time.Since(start).Milliseconds())

	return report
}

// Summarize derives a report from an already filtered result set.
func Summarize(views []core.ExpenseView) Report {
	report := Report{
		Expenses:             views,
		Total:                aggregate.Total(views),
		ByCategory:           aggregate.ByCategory(views),
		ByPaymentMethod:      aggregate.ByPaymentMethod(views),
		CategoryRanking:      aggregate.Breakdown(views, core.ExpenseView.CategoryLabel),
		PaymentMethodRanking: aggregate.Breakdown(views, core.ExpenseView.PaymentMethodLabel),
		Daily:                aggregate.DailySeries(views),
	}
	if span, ok := aggregate.Span(views); ok {
		report.Span = &span
	}
	return report
}
