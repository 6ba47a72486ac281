package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"tenderledger/internal/core"
)

const expenseColumns = `id, user_id, amount, date_of_purchase, category_id, payment_method_id, location, created_at, updated_at`

// CreateExpense stores a new expense for owner. Referenced labels must be
// visible to the owner.
func (r *SQLiteRepository) CreateExpense(ctx context.Context, owner int64, in core.ExpenseInput) (core.Expense, error) {
	if err := in.Validate(); err != nil {
		return core.Expense{}, err
	}

	var expense core.Expense
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if err := labelVisible(ctx, tx, core.KindCategory, owner, in.CategoryID); err != nil {
			return err
		}
		if err := labelVisible(ctx, tx, core.KindPaymentMethod, owner, in.PaymentMethodID); err != nil {
			return err
		}

		now := r.now()
		res, err := tx.ExecContext(ctx,
			`INSERT INTO expenses (user_id, amount, date_of_purchase, category_id, payment_method_id, location, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			owner, in.Amount.String(), in.Date.String(), in.CategoryID, in.PaymentMethodID, in.Location, now, now)
		if err != nil {
			return fmt.Errorf("insert expense: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("expense id: %w", err)
		}
		expense = core.Expense{
			ID:              id,
			Owner:           owner,
			Amount:          in.Amount,
			Date:            in.Date,
			CategoryID:      in.CategoryID,
			PaymentMethodID: in.PaymentMethodID,
			Location:        in.Location,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		return nil
	})
	if err != nil {
		return core.Expense{}, err
	}

	slog.DebugContext(ctx, "Expense saved to SQLite",
		"id", expense.ID,
		"owner", owner,
		"amount", expense.Amount.String(),
		"date", expense.Date.String())

	return expense, nil
}

// GetExpense returns one of the owner's expenses.
func (r *SQLiteRepository) GetExpense(ctx context.Context, owner, id int64) (core.Expense, error) {
	return getExpense(ctx, r.db, owner, id)
}

// UpdateExpense applies patch to one of the owner's expenses and returns the
// stored result.
func (r *SQLiteRepository) UpdateExpense(ctx context.Context, owner, id int64, patch core.ExpensePatch) (core.Expense, error) {
	if err := patch.Validate(); err != nil {
		return core.Expense{}, err
	}

	var expense core.Expense
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		current, err := getExpense(ctx, tx, owner, id)
		if err != nil {
			return err
		}
		applyPatch(&current, patch)

		if patch.CategoryID != nil {
			if err := labelVisible(ctx, tx, core.KindCategory, owner, current.CategoryID); err != nil {
				return err
			}
		}
		if patch.PaymentMethodID != nil {
			if err := labelVisible(ctx, tx, core.KindPaymentMethod, owner, current.PaymentMethodID); err != nil {
				return err
			}
		}

		current.UpdatedAt = r.now()
		res, err := tx.ExecContext(ctx,
			`UPDATE expenses SET amount = ?, date_of_purchase = ?, category_id = ?, payment_method_id = ?, location = ?, updated_at = ?
			 WHERE id = ? AND user_id = ?`,
			current.Amount.String(), current.Date.String(), current.CategoryID, current.PaymentMethodID,
			current.Location, current.UpdatedAt, id, owner)
		if err != nil {
			return fmt.Errorf("update expense: %w", err)
		}
		if err := expectAffected(res); err != nil {
			return err
		}
		expense = current
		return nil
	})
	if err != nil {
		return core.Expense{}, err
	}
	return expense, nil
}

// DeleteExpense removes one of the owner's expenses.
func (r *SQLiteRepository) DeleteExpense(ctx context.Context, owner, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ? AND user_id = ?`, id, owner)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return expectAffected(res)
}

// FindExpenses returns the owner's expenses matching f, newest first.
func (r *SQLiteRepository) FindExpenses(ctx context.Context, owner int64, f core.Filter) ([]core.ExpenseView, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	query, args := buildFindQuery(owner, f)
	term := strings.ToLower(f.SearchTerm())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find expenses: %w", err)
	}
	defer rows.Close()

	views := []core.ExpenseView{}
	for rows.Next() {
		var (
			v                       core.ExpenseView
			date                    string
			paymentMethod, category sql.NullString
		)
		if err := rows.Scan(&v.ID, &v.Amount, &date, &paymentMethod, &category, &v.Location); err != nil {
			return nil, fmt.Errorf("scan expense view: %w", err)
		}
		if v.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("expense %d: %w", v.ID, err)
		}
		v.PaymentMethod = nullableString(paymentMethod)
		v.Category = nullableString(category)
		if term != "" && !matchesSearch(v, term) {
			continue
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return views, nil
}

func getExpense(ctx context.Context, q queryer, owner, id int64) (core.Expense, error) {
	var (
		e                    core.Expense
		date                 string
		category, paymentRef sql.NullInt64
	)
	err := q.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = ? AND user_id = ?`, id, owner).
		Scan(&e.ID, &e.Owner, &e.Amount, &date, &category, &paymentRef, &e.Location, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	if e.Date, err = core.ParseDate(date); err != nil {
		return core.Expense{}, fmt.Errorf("expense %d: %w", e.ID, err)
	}
	e.CategoryID = nullableInt(category)
	e.PaymentMethodID = nullableInt(paymentRef)
	return e, nil
}

func applyPatch(e *core.Expense, p core.ExpensePatch) {
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.CategoryID != nil {
		id := *p.CategoryID
		e.CategoryID = &id
	}
	if p.ClearCategory {
		e.CategoryID = nil
	}
	if p.PaymentMethodID != nil {
		id := *p.PaymentMethodID
		e.PaymentMethodID = &id
	}
	if p.ClearPaymentMethod {
		e.PaymentMethodID = nil
	}
	if p.Location != nil {
		e.Location = *p.Location
	}
}

func nullableString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func nullableInt(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}
