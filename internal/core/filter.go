package core

import (
	"errors"
	"strings"
)

// Filter narrows a ledger query. Every zero-valued field is unrestricted
// and all set fields compose with AND.
type Filter struct {
	Start           Date
	End             Date
	CategoryID      *int64
	PaymentMethodID *int64
	Search          string
}

// DateFilter returns a Filter restricted only by the given range.
func DateFilter(r DateRange) Filter {
	return Filter{Start: r.Start, End: r.End}
}

// SearchTerm returns the trimmed free-text term.
func (f Filter) SearchTerm() string {
	return strings.TrimSpace(f.Search)
}

func (f Filter) Validate() error {
	if !f.Start.IsZero() && !f.End.IsZero() && f.End.Before(f.Start) {
		return errors.New("end date must not be before start date")
	}
	return nil
}
