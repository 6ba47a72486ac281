package core

import "github.com/shopspring/decimal"

// LabelAmount is an amount aggregated by category or payment method name.
type LabelAmount struct {
	Label  string
	Amount decimal.Decimal
	Count  int
}

// DailyAmount is the net spend of a single calendar day.
type DailyAmount struct {
	Date   Date
	Amount decimal.Decimal
}

// LabelFunc picks the grouping label of an expense view.
type LabelFunc func(ExpenseView) string

// DateRange is an inclusive date filter; a zero bound is open.
type DateRange struct {
	Start Date
	End   Date
}

// DateSpan is the first and last date actually present in a result set.
type DateSpan struct {
	First Date
	Last  Date
}

// Days returns the number of calendar days covered by the span.
func (s DateSpan) Days() int {
	return s.First.DaysUntil(s.Last) + 1
}

func (s DateSpan) String() string {
	if s.First.Equal(s.Last) {
		return s.First.String()
	}
	return s.First.String() + " to " + s.Last.String()
}
