package storage

import (
	"strings"

	"tenderledger/internal/core"
)

const findSelect = `SELECT e.id, e.amount, e.date_of_purchase, pm.name, c.name, e.location
FROM expenses e
LEFT JOIN payment_methods pm ON pm.id = e.payment_method_id
LEFT JOIN categories c ON c.id = e.category_id
WHERE e.user_id = ?`

// buildFindQuery composes the date and reference clauses of the filter into
// a single parameterized statement. Clauses are AND-ed. The search term is
// applied to the scanned rows by matchesSearch.
func buildFindQuery(owner int64, f core.Filter) (string, []any) {
	var sb strings.Builder
	sb.WriteString(findSelect)
	args := []any{owner}

	if !f.Start.IsZero() {
		sb.WriteString("\n  AND e.date_of_purchase >= ?")
		args = append(args, f.Start.String())
	}
	if !f.End.IsZero() {
		sb.WriteString("\n  AND e.date_of_purchase <= ?")
		args = append(args, f.End.String())
	}
	if f.CategoryID != nil {
		sb.WriteString("\n  AND e.category_id = ?")
		args = append(args, *f.CategoryID)
	}
	if f.PaymentMethodID != nil {
		sb.WriteString("\n  AND e.payment_method_id = ?")
		args = append(args, *f.PaymentMethodID)
	}
	sb.WriteString("\nORDER BY e.date_of_purchase DESC, e.id DESC")
	return sb.String(), args
}

// matchesSearch reports whether term is a case-insensitive substring of the
// location or a substring of the amount as displayed, so "23" also matches
// 123.45. term must already be lowered.
func matchesSearch(v core.ExpenseView, term string) bool {
	return strings.Contains(strings.ToLower(v.Location), term) ||
		strings.Contains(core.FormatAmount(v.Amount), term)
}
