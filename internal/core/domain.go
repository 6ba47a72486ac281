package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	KindCategory      LabelKind = "category"
	KindPaymentMethod LabelKind = "payment_method"

	// UncategorizedLabel is shown wherever a category or payment method
	// reference is null.
	UncategorizedLabel = "Uncategorized"

	MaxLabelName      = 64
	MaxLocationLength = 200
)

type (
	LabelKind string

	User struct {
		ID           int64
		Username     string
		PasswordHash string
		CreatedAt    time.Time
		UpdatedAt    time.Time
	}

	// Label is a category or a payment method. A nil Owner marks a default
	// shared by every user.
	Label struct {
		ID        int64
		Owner     *int64
		Kind      LabelKind
		Name      string
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	Expense struct {
		ID              int64
		Owner           int64
		Amount          decimal.Decimal
		Date            Date
		CategoryID      *int64
		PaymentMethodID *int64
		Location        string
		CreatedAt       time.Time
		UpdatedAt       time.Time
	}

	// ExpenseInput carries the caller-supplied fields of a new expense.
	ExpenseInput struct {
		Amount          decimal.Decimal
		Date            Date
		CategoryID      *int64
		PaymentMethodID *int64
		Location        string
	}

	// ExpensePatch is a field-level edit. Nil fields are left untouched;
	// ClearCategory and ClearPaymentMethod null the reference.
	ExpensePatch struct {
		Amount             *decimal.Decimal
		Date               *Date
		CategoryID         *int64
		ClearCategory      bool
		PaymentMethodID    *int64
		ClearPaymentMethod bool
		Location           *string
	}

	// ExpenseView is an expense joined with its category and payment method
	// names, the shape used by tables, reports and CSV exchange.
	ExpenseView struct {
		ID            int64
		Amount        decimal.Decimal
		Date          Date
		PaymentMethod *string
		Category      *string
		Location      string
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidDate     = errors.New("invalid date")
	ErrEmptyName       = errors.New("empty name")
	ErrNameTooLong     = errors.New("name too long (max 64 characters)")
	ErrLocationTooLong = errors.New("location too long (max 200 characters)")
	ErrInvalidKind     = errors.New("invalid label kind")
	ErrEmptyPatch      = errors.New("nothing to update")
)

func (k LabelKind) Validate() error {
	switch k {
	case KindCategory, KindPaymentMethod:
		return nil
	default:
		return ErrInvalidKind
	}
}

// IsDefault reports whether the label is shared by every user.
func (l Label) IsDefault() bool {
	return l.Owner == nil
}

// NormalizeLabelName trims the name and checks its length.
func NormalizeLabelName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}
	if len([]rune(name)) > MaxLabelName {
		return "", ErrNameTooLong
	}
	return name, nil
}

func (in ExpenseInput) Validate() error {
	if err := in.Date.Validate(); err != nil {
		return err
	}
	if len([]rune(in.Location)) > MaxLocationLength {
		return ErrLocationTooLong
	}
	return nil
}

func (p ExpensePatch) Validate() error {
	if p.Amount == nil && p.Date == nil && p.CategoryID == nil && !p.ClearCategory &&
		p.PaymentMethodID == nil && !p.ClearPaymentMethod && p.Location == nil {
		return ErrEmptyPatch
	}
	if p.Date != nil {
		if err := p.Date.Validate(); err != nil {
			return err
		}
	}
	if p.Location != nil && len([]rune(*p.Location)) > MaxLocationLength {
		return ErrLocationTooLong
	}
	if p.CategoryID != nil && p.ClearCategory {
		return errors.New("cannot set and clear category in one update")
	}
	if p.PaymentMethodID != nil && p.ClearPaymentMethod {
		return errors.New("cannot set and clear payment method in one update")
	}
	return nil
}

// CategoryLabel returns the category name or UncategorizedLabel.
func (v ExpenseView) CategoryLabel() string {
	if v.Category == nil {
		return UncategorizedLabel
	}
	return *v.Category
}

// PaymentMethodLabel returns the payment method name or UncategorizedLabel.
func (v ExpenseView) PaymentMethodLabel() string {
	if v.PaymentMethod == nil {
		return UncategorizedLabel
	}
	return *v.PaymentMethod
}
