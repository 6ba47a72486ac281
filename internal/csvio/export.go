// Package csvio exchanges expenses as CSV with the columns
// Date, Amount, Category, Payment Method, Location.
package csvio

import (
	"encoding/csv"
	"fmt"
	"io"

	"tenderledger/internal/core"
)

// Header is the column order written by Export.
var Header = []string{"Date", "Amount", "Category", "Payment Method", "Location"}

const (
	colDate = iota
	colAmount
	colCategory
	colPaymentMethod
	colLocation
)

// Export writes views with a header row. Amounts carry two decimals and a
// null category or payment method is an empty cell.
func Export(w io.Writer, views []core.ExpenseView) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, v := range views {
		record := []string{
			v.Date.String(),
			core.FormatAmount(v.Amount),
			deref(v.Category),
			deref(v.PaymentMethod),
			v.Location,
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write expense %d: %w", v.ID, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
