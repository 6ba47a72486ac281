// Package aggregate reduces expense views into report figures. All sums use
// decimal arithmetic.
package aggregate

import (
	"sort"

	"tenderledger/internal/core"

	"github.com/shopspring/decimal"
)

// Total sums every amount. An empty input totals zero.
func Total(views []core.ExpenseView) decimal.Decimal {
	total := decimal.Zero
	for _, v := range views {
		total = total.Add(v.Amount)
	}
	return total
}

// ByCategory sums amounts per category name, null references under
// "Uncategorized".
func ByCategory(views []core.ExpenseView) map[string]decimal.Decimal {
	return GroupBy(views, core.ExpenseView.CategoryLabel)
}

// ByPaymentMethod sums amounts per payment method name.
func ByPaymentMethod(views []core.ExpenseView) map[string]decimal.Decimal {
	return GroupBy(views, core.ExpenseView.PaymentMethodLabel)
}

// GroupBy sums amounts per label. A group whose amounts cancel out is kept
// with a zero sum.
func GroupBy(views []core.ExpenseView, label core.LabelFunc) map[string]decimal.Decimal {
	sums := make(map[string]decimal.Decimal)
	for _, v := range views {
		key := label(v)
		sums[key] = sums[key].Add(v.Amount)
	}
	return sums
}

// Breakdown groups like GroupBy and also counts the records per label. The
// result is sorted ascending by amount, then by label.
func Breakdown(views []core.ExpenseView, label core.LabelFunc) []core.LabelAmount {
	index := make(map[string]int)
	var out []core.LabelAmount
	for _, v := range views {
		key := label(v)
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, core.LabelAmount{Label: key, Amount: decimal.Zero})
		}
		out[i].Amount = out[i].Amount.Add(v.Amount)
		out[i].Count++
	}
	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].Amount.Cmp(out[j].Amount); c != 0 {
			return c < 0
		}
		return out[i].Label < out[j].Label
	})
	return out
}

// DailySeries sums amounts per day and fills every day between the first
// and last date with zero when nothing was spent. Ascending by date; an
// empty input gives an empty series.
func DailySeries(views []core.ExpenseView) []core.DailyAmount {
	span, ok := Span(views)
	if !ok {
		return []core.DailyAmount{}
	}

	perDay := make(map[string]decimal.Decimal, len(views))
	for _, v := range views {
		key := v.Date.String()
		perDay[key] = perDay[key].Add(v.Amount)
	}

	series := make([]core.DailyAmount, 0, span.Days())
	for d := span.First; !d.After(span.Last); d = d.AddDays(1) {
		amount, ok := perDay[d.String()]
		if !ok {
			amount = decimal.Zero
		}
		series = append(series, core.DailyAmount{Date: d, Amount: amount})
	}
	return series
}

// Span returns the earliest and latest date present in views.
func Span(views []core.ExpenseView) (core.DateSpan, bool) {
	if len(views) == 0 {
		return core.DateSpan{}, false
	}
	span := core.DateSpan{First: views[0].Date, Last: views[0].Date}
	for _, v := range views[1:] {
		if v.Date.Before(span.First) {
			span.First = v.Date
		}
		if v.Date.After(span.Last) {
			span.Last = v.Date
		}
	}
	return span, true
}
