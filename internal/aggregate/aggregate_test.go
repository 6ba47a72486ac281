package aggregate

import (
	"testing"

	"tenderledger/internal/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strp(s string) *string { return &s }

func view(id int64, amount, date string, method, category *string, location string) core.ExpenseView {
	d, err := core.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return core.ExpenseView{
		ID:            id,
		Amount:        decimal.RequireFromString(amount),
		Date:          d,
		PaymentMethod: method,
		Category:      category,
		Location:      location,
	}
}

func sampleViews() []core.ExpenseView {
	return []core.ExpenseView{
		view(1, "100", "2024-01-01", strp("Cash"), strp("Food"), "A"),
		view(2, "50", "2024-01-03", strp("Card"), strp("Food"), "B"),
		view(3, "0.10", "2024-01-03", nil, nil, "C"),
		view(4, "0.20", "2024-01-02", strp("Cash"), strp("Travel"), "D"),
	}
}

func TestTotal(t *testing.T) {
	if got := Total(nil); !got.Equal(decimal.Zero) {
		t.Errorf("Total(nil) = %s, want 0", got)
	}

	got := Total(sampleViews())
	if got.String() != "150.3" {
		t.Errorf("Total = %s, want 150.3", got)
	}

	// decimal sums stay exact where float addition drifts
	var views []core.ExpenseView
	for i := 0; i < 10; i++ {
		views = append(views, view(int64(i), "0.1", "2024-01-01", nil, nil, ""))
	}
	if got := Total(views); !got.Equal(decimal.NewFromInt(1)) {
		t.Errorf("Total of ten 0.1 = %s, want 1", got)
	}
}

func TestByCategory(t *testing.T) {
	got := ByCategory(sampleViews())

	want := map[string]string{"Food": "150", "Travel": "0.2", core.UncategorizedLabel: "0.1"}
	require.Len(t, got, len(want))
	for label, amount := range want {
		assert.True(t, decimal.RequireFromString(amount).Equal(got[label]), "%s = %s", label, got[label])
	}
}

func TestByPaymentMethod(t *testing.T) {
	got := ByPaymentMethod(sampleViews())

	assert.Len(t, got, 3)
	assert.Equal(t, "100.2", got["Cash"].String())
	assert.Equal(t, "50", got["Card"].String())
	assert.Equal(t, "0.1", got[core.UncategorizedLabel].String())
}

func TestGroupSumsPartitionTotal(t *testing.T) {
	views := sampleViews()
	total := Total(views)

	for name, sums := range map[string]map[string]decimal.Decimal{
		"category":       ByCategory(views),
		"payment method": ByPaymentMethod(views),
	} {
		sum := decimal.Zero
		for _, v := range sums {
			sum = sum.Add(v)
		}
		assert.True(t, total.Equal(sum), "%s groups sum to %s, total %s", name, sum, total)
	}
}

func TestGroupKeepsZeroSums(t *testing.T) {
	views := []core.ExpenseView{
		view(1, "20", "2024-01-01", nil, strp("Shopping"), ""),
		view(2, "-20", "2024-01-02", nil, strp("Shopping"), "refund"),
	}
	got := ByCategory(views)
	amount, ok := got["Shopping"]
	require.True(t, ok)
	assert.True(t, amount.IsZero())
}

func TestDailySeries(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		got := DailySeries(nil)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("densifies gaps", func(t *testing.T) {
		views := []core.ExpenseView{
			view(1, "100", "2024-01-01", strp("Cash"), strp("Food"), "A"),
			view(2, "50", "2024-01-03", strp("Card"), strp("Food"), "B"),
		}
		got := DailySeries(views)

		want := []struct{ date, amount string }{
			{"2024-01-01", "100"},
			{"2024-01-02", "0"},
			{"2024-01-03", "50"},
		}
		require.Len(t, got, len(want))
		for i, w := range want {
			assert.Equal(t, w.date, got[i].Date.String())
			assert.True(t, decimal.RequireFromString(w.amount).Equal(got[i].Amount), "day %s = %s", w.date, got[i].Amount)
		}
	})

	t.Run("sums same day and is ascending", func(t *testing.T) {
		got := DailySeries(sampleViews())
		require.Len(t, got, 3)
		assert.Equal(t, "100", got[0].Amount.String())
		assert.Equal(t, "0.2", got[1].Amount.String())
		assert.Equal(t, "50.1", got[2].Amount.String())
	})

	t.Run("length covers span across months", func(t *testing.T) {
		views := []core.ExpenseView{
			view(1, "1", "2024-03-02", nil, nil, ""),
			view(2, "1", "2024-02-27", nil, nil, ""),
		}
		got := DailySeries(views)
		require.Len(t, got, 5) // leap year: 27, 28, 29, 1, 2
		for i := 1; i < len(got); i++ {
			assert.Equal(t, 1, got[i-1].Date.DaysUntil(got[i].Date))
		}
		assert.True(t, Total(views).Equal(sumDaily(got)))
	})
}

func sumDaily(series []core.DailyAmount) decimal.Decimal {
	sum := decimal.Zero
	for _, d := range series {
		sum = sum.Add(d.Amount)
	}
	return sum
}

func TestBreakdown(t *testing.T) {
	views := append(sampleViews(), view(5, "0.2", "2024-01-04", strp("Cash"), strp("Housing"), "E"))

	got := Breakdown(views, core.ExpenseView.CategoryLabel)

	require.Len(t, got, 4)
	assert.Equal(t, core.UncategorizedLabel, got[0].Label)
	// equal amounts fall back to label order
	assert.Equal(t, "Housing", got[1].Label)
	assert.Equal(t, "Travel", got[2].Label)
	assert.Equal(t, "Food", got[3].Label)
	assert.Equal(t, 2, got[3].Count)
	assert.Equal(t, "150", got[3].Amount.String())

	assert.Empty(t, Breakdown(nil, core.ExpenseView.PaymentMethodLabel))
}

func TestSpan(t *testing.T) {
	_, ok := Span(nil)
	assert.False(t, ok)

	span, ok := Span(sampleViews())
	require.True(t, ok)
	assert.Equal(t, "2024-01-01 to 2024-01-03", span.String())
	assert.Equal(t, 3, span.Days())
}
