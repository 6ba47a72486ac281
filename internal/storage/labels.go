package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tenderledger/internal/core"
)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func labelTable(kind core.LabelKind) (string, error) {
	switch kind {
	case core.KindCategory:
		return "categories", nil
	case core.KindPaymentMethod:
		return "payment_methods", nil
	default:
		return "", core.ErrInvalidKind
	}
}

// expenseColumn is the expenses column referencing a label of kind.
func expenseColumn(kind core.LabelKind) string {
	if kind == core.KindPaymentMethod {
		return "payment_method_id"
	}
	return "category_id"
}

// AddLabel creates a label for owner, or a default when owner is nil. The
// name must not match any label the owner can already see; the check and the
// insert are one statement.
func (r *SQLiteRepository) AddLabel(ctx context.Context, owner *int64, kind core.LabelKind, name string) (core.Label, error) {
	table, err := labelTable(kind)
	if err != nil {
		return core.Label{}, err
	}
	name, err = core.NormalizeLabelName(name)
	if err != nil {
		return core.Label{}, err
	}

	now := r.now()
	res, err := r.db.ExecContext(ctx, fmt.Sprintf(
		`INSERT INTO %[1]s (user_id, name, created_at, updated_at)
		 SELECT ?, ?, ?, ?
		 WHERE NOT EXISTS (SELECT 1 FROM %[1]s WHERE name = ? AND (user_id = ? OR user_id IS NULL))`, table),
		owner, name, now, now, name, owner)
	if err != nil {
		if isUniqueViolation(err) {
			return core.Label{}, ErrDuplicateName
		}
		return core.Label{}, fmt.Errorf("insert %s: %w", kind, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.Label{}, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.Label{}, ErrDuplicateName
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Label{}, fmt.Errorf("%s id: %w", kind, err)
	}

	return core.Label{ID: id, Owner: owner, Kind: kind, Name: name, CreatedAt: now, UpdatedAt: now}, nil
}

// ListLabels returns the owner's labels of kind together with the defaults,
// ordered by name.
func (r *SQLiteRepository) ListLabels(ctx context.Context, owner int64, kind core.LabelKind) ([]core.Label, error) {
	table, err := labelTable(kind)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT id, user_id, name, created_at, updated_at FROM %s
		 WHERE user_id = ? OR user_id IS NULL
		 ORDER BY name COLLATE NOCASE, id`, table), owner)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	defer rows.Close()

	labels := []core.Label{}
	for rows.Next() {
		l, err := scanLabel(rows, kind)
		if err != nil {
			return nil, err
		}
		labels = append(labels, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", table, err)
	}
	return labels, nil
}

// GetLabel returns a label visible to owner.
func (r *SQLiteRepository) GetLabel(ctx context.Context, owner int64, kind core.LabelKind, id int64) (core.Label, error) {
	table, err := labelTable(kind)
	if err != nil {
		return core.Label{}, err
	}
	row := r.db.QueryRowContext(ctx, fmt.Sprintf(
		`SELECT id, user_id, name, created_at, updated_at FROM %s
		 WHERE id = ? AND (user_id = ? OR user_id IS NULL)`, table), id, owner)
	l, err := scanLabel(row, kind)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Label{}, ErrNotFound
	}
	return l, err
}

// FindLabelByName returns the label named name that owner can see.
func (r *SQLiteRepository) FindLabelByName(ctx context.Context, owner int64, kind core.LabelKind, name string) (core.Label, error) {
	table, err := labelTable(kind)
	if err != nil {
		return core.Label{}, err
	}
	name, err = core.NormalizeLabelName(name)
	if err != nil {
		return core.Label{}, err
	}
	row := r.db.QueryRowContext(ctx, fmt.Sprintf(
		`SELECT id, user_id, name, created_at, updated_at FROM %s
		 WHERE name = ? AND (user_id = ? OR user_id IS NULL)
		 ORDER BY user_id IS NULL LIMIT 1`, table), name, owner)
	l, err := scanLabel(row, kind)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Label{}, ErrNotFound
	}
	return l, err
}

// LabelExists reports whether owner can already see a label named name. It
// is a pre-check only; AddLabel stays authoritative.
func (r *SQLiteRepository) LabelExists(ctx context.Context, owner int64, kind core.LabelKind, name string) (bool, error) {
	_, err := r.FindLabelByName(ctx, owner, kind, name)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// RenameLabel renames one of the owner's labels. Defaults cannot be renamed.
func (r *SQLiteRepository) RenameLabel(ctx context.Context, owner int64, kind core.LabelKind, id int64, name string) (core.Label, error) {
	table, err := labelTable(kind)
	if err != nil {
		return core.Label{}, err
	}
	name, err = core.NormalizeLabelName(name)
	if err != nil {
		return core.Label{}, err
	}

	var label core.Label
	err = r.withTx(ctx, func(tx *sql.Tx) error {
		if err := requireOwnedLabel(ctx, tx, table, owner, id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, fmt.Sprintf(
			`UPDATE %[1]s SET name = ?, updated_at = ?
			 WHERE id = ? AND user_id = ?
			 AND NOT EXISTS (SELECT 1 FROM %[1]s WHERE name = ? AND (user_id = ? OR user_id IS NULL) AND id <> ?)`, table),
			name, r.now(), id, owner, name, owner, id)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateName
			}
			return fmt.Errorf("rename %s: %w", kind, err)
		}
		if err := expectAffected(res); err != nil {
			if errors.Is(err, ErrNotFound) {
				return ErrDuplicateName
			}
			return err
		}
		row := tx.QueryRowContext(ctx, fmt.Sprintf(
			`SELECT id, user_id, name, created_at, updated_at FROM %s WHERE id = ?`, table), id)
		label, err = scanLabel(row, kind)
		return err
	})
	if err != nil {
		return core.Label{}, err
	}
	return label, nil
}

// DeleteLabel removes one of the owner's labels. Expenses that referenced it
// are kept with a null reference. Defaults cannot be deleted.
func (r *SQLiteRepository) DeleteLabel(ctx context.Context, owner int64, kind core.LabelKind, id int64) error {
	table, err := labelTable(kind)
	if err != nil {
		return err
	}
	column := expenseColumn(kind)

	return r.withTx(ctx, func(tx *sql.Tx) error {
		if err := requireOwnedLabel(ctx, tx, table, owner, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(
			`UPDATE expenses SET %s = NULL, updated_at = ? WHERE %[1]s = ?`, column),
			r.now(), id); err != nil {
			return fmt.Errorf("detach expenses from %s: %w", kind, err)
		}
		res, err := tx.ExecContext(ctx, fmt.Sprintf(
			`DELETE FROM %s WHERE id = ? AND user_id = ?`, table), id, owner)
		if err != nil {
			return fmt.Errorf("delete %s: %w", kind, err)
		}
		return expectAffected(res)
	})
}

func requireOwnedLabel(ctx context.Context, q queryer, table string, owner, id int64) error {
	var one int
	err := q.QueryRowContext(ctx, fmt.Sprintf(
		`SELECT 1 FROM %s WHERE id = ? AND user_id = ?`, table), id, owner).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("look up %s: %w", table, err)
	}
	return nil
}

// labelVisible checks that a non-nil reference points at a label owner can see.
func labelVisible(ctx context.Context, q queryer, kind core.LabelKind, owner int64, id *int64) error {
	if id == nil {
		return nil
	}
	table, err := labelTable(kind)
	if err != nil {
		return err
	}
	var one int
	err = q.QueryRowContext(ctx, fmt.Sprintf(
		`SELECT 1 FROM %s WHERE id = ? AND (user_id = ? OR user_id IS NULL)`, table), *id, owner).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s %d", ErrInvalidReference, kind, *id)
	}
	if err != nil {
		return fmt.Errorf("look up %s: %w", table, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLabel(row rowScanner, kind core.LabelKind) (core.Label, error) {
	var (
		l     core.Label
		owner sql.NullInt64
	)
	if err := row.Scan(&l.ID, &owner, &l.Name, &l.CreatedAt, &l.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Label{}, err
		}
		return core.Label{}, fmt.Errorf("scan %s: %w", kind, err)
	}
	if owner.Valid {
		id := owner.Int64
		l.Owner = &id
	}
	l.Kind = kind
	return l, nil
}
