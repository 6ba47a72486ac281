package services

import (
	"context"
	"errors"
	"fmt"

	"tenderledger/internal/amqp"
	"tenderledger/internal/core"
	applog "tenderledger/internal/log"
	"tenderledger/internal/storage"
)

// ExpenseStore is the persistence the expense service needs.
type ExpenseStore interface {
	CreateExpense(ctx context.Context, owner int64, in core.ExpenseInput) (core.Expense, error)
	GetExpense(ctx context.Context, owner, id int64) (core.Expense, error)
	UpdateExpense(ctx context.Context, owner, id int64, patch core.ExpensePatch) (core.Expense, error)
	DeleteExpense(ctx context.Context, owner, id int64) error
	FindExpenses(ctx context.Context, owner int64, f core.Filter) ([]core.ExpenseView, error)
}

// ExpenseService validates expense writes before they reach the store and
// announces them once committed.
type ExpenseService struct {
	store     ExpenseStore
	publisher EventPublisher
	logger    *applog.Logger
}

func NewExpenseService(store ExpenseStore, publisher EventPublisher, logger *applog.Logger) *ExpenseService {
	if logger == nil {
		logger = applog.Discard()
	}
	return &ExpenseService{
		store:     store,
		publisher: publisher,
		logger:    logger.WithComponent(applog.ComponentLedger),
	}
}

// Create records a new expense for owner.
func (s *ExpenseService) Create(ctx context.Context, owner int64, in core.ExpenseInput) (core.Expense, error) {
	if err := in.Validate(); err != nil {
		return core.Expense{}, err
	}

	e, err := s.store.CreateExpense(ctx, owner, in)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to save expense", applog.NewFields().
			WithOperation(applog.OpCreate).
			WithOwner(owner).
			WithExpense(0, in.Amount, in.Date.String()).
			WithError(err).ToSlice()...)
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}

	s.logger.InfoContext(ctx, "Expense created", applog.NewFields().
		WithOperation(applog.OpCreate).
		WithOwner(owner).
		WithExpense(e.ID, e.Amount, e.Date.String()).ToSlice()...)

	publishEvent(ctx, s.publisher, s.logger, amqp.NewLedgerEvent(amqp.EventExpenseCreated, owner, e.ID))
	return e, nil
}

// Get returns one of the owner's expenses.
func (s *ExpenseService) Get(ctx context.Context, owner, id int64) (core.Expense, error) {
	return s.store.GetExpense(ctx, owner, id)
}

// Update applies a field-level edit to one of the owner's expenses.
func (s *ExpenseService) Update(ctx context.Context, owner, id int64, patch core.ExpensePatch) (core.Expense, error) {
	if err := patch.Validate(); err != nil {
		return core.Expense{}, err
	}

	e, err := s.store.UpdateExpense(ctx, owner, id, patch)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense %d: %w", id, err)
	}

	s.logger.InfoContext(ctx, "Expense updated", applog.NewFields().
		WithOperation(applog.OpUpdate).
		WithOwner(owner).
		WithExpense(e.ID, e.Amount, e.Date.String()).ToSlice()...)

	publishEvent(ctx, s.publisher, s.logger, amqp.NewLedgerEvent(amqp.EventExpenseUpdated, owner, e.ID))
	return e, nil
}

// Delete removes one of the owner's expenses.
func (s *ExpenseService) Delete(ctx context.Context, owner, id int64) error {
	if err := s.store.DeleteExpense(ctx, owner, id); err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}

	s.logger.InfoContext(ctx, "Expense deleted",
		applog.FieldOperation, applog.OpDelete,
		applog.FieldOwner, owner,
		applog.FieldExpenseID, id)

	publishEvent(ctx, s.publisher, s.logger, amqp.NewLedgerEvent(amqp.EventExpenseDeleted, owner, id))
	return nil
}

// Find returns the owner's expenses matching f, newest first. On failure it
// still returns an empty, non-nil slice so callers can always render, along
// with the error.
func (s *ExpenseService) Find(ctx context.Context, owner int64, f core.Filter) ([]core.ExpenseView, error) {
	views, err := s.store.FindExpenses(ctx, owner, f)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to query expenses", applog.NewFields().
			WithOperation(applog.OpFind).
			WithOwner(owner).
			WithDateRange(f.Start.String(), f.End.String()).
			WithError(err).ToSlice()...)
		return []core.ExpenseView{}, fmt.Errorf("find expenses: %w", err)
	}
	if views == nil {
		views = []core.ExpenseView{}
	}

	s.logger.DebugContext(ctx, "Expenses queried", applog.NewFields().
		WithOperation(applog.OpFind).
		WithOwner(owner).
		WithCount(len(views)).ToSlice()...)
	return views, nil
}

// Exists reports whether id is one of the owner's expenses.
func (s *ExpenseService) Exists(ctx context.Context, owner, id int64) (bool, error) {
	_, err := s.store.GetExpense(ctx, owner, id)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, storage.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}
