package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/singleflight"

	"tenderledger/internal/amqp"
	"tenderledger/internal/core"
	applog "tenderledger/internal/log"
	"tenderledger/internal/storage"
)

// LabelStore is the persistence the label service needs.
type LabelStore interface {
	AddLabel(ctx context.Context, owner *int64, kind core.LabelKind, name string) (core.Label, error)
	ListLabels(ctx context.Context, owner int64, kind core.LabelKind) ([]core.Label, error)
	GetLabel(ctx context.Context, owner int64, kind core.LabelKind, id int64) (core.Label, error)
	FindLabelByName(ctx context.Context, owner int64, kind core.LabelKind, name string) (core.Label, error)
	LabelExists(ctx context.Context, owner int64, kind core.LabelKind, name string) (bool, error)
	RenameLabel(ctx context.Context, owner int64, kind core.LabelKind, id int64, name string) (core.Label, error)
	DeleteLabel(ctx context.Context, owner int64, kind core.LabelKind, id int64) error
}

// LabelService manages categories and payment methods.
type LabelService struct {
	store     LabelStore
	publisher EventPublisher
	logger    *applog.Logger

	ensureGroup singleflight.Group
}

func NewLabelService(store LabelStore, publisher EventPublisher, logger *applog.Logger) *LabelService {
	if logger == nil {
		logger = applog.Discard()
	}
	return &LabelService{
		store:     store,
		publisher: publisher,
		logger:    logger.WithComponent(applog.ComponentLedger),
	}
}

// Add creates a label owned by owner. The name must be unique among the
// owner's labels and the defaults.
func (s *LabelService) Add(ctx context.Context, owner int64, kind core.LabelKind, name string) (core.Label, error) {
	if err := kind.Validate(); err != nil {
		return core.Label{}, err
	}
	name, err := core.NormalizeLabelName(name)
	if err != nil {
		return core.Label{}, err
	}

	label, err := s.store.AddLabel(ctx, &owner, kind, name)
	if err != nil {
		if !errors.Is(err, storage.ErrDuplicateName) {
			s.logger.ErrorContext(ctx, "Failed to add label", applog.NewFields().
				WithOperation(applog.OpCreate).
				WithOwner(owner).
				WithLabel(string(kind), 0, name).
				WithError(err).ToSlice()...)
		}
		return core.Label{}, fmt.Errorf("add %s %q: %w", kind, name, err)
	}

	s.logger.InfoContext(ctx, "Label added", applog.NewFields().
		WithOperation(applog.OpCreate).
		WithOwner(owner).
		WithLabel(string(kind), label.ID, label.Name).ToSlice()...)

	publishEvent(ctx, s.publisher, s.logger, amqp.NewLedgerEvent(amqp.EventLabelCreated, owner, label.ID))
	return label, nil
}

// List returns the owner's labels and the defaults. On failure the result
// is empty and non-nil.
func (s *LabelService) List(ctx context.Context, owner int64, kind core.LabelKind) ([]core.Label, error) {
	labels, err := s.store.ListLabels(ctx, owner, kind)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list labels", applog.NewFields().
			WithOperation(applog.OpList).
			WithOwner(owner).
			WithLabel(string(kind), 0, "").
			WithError(err).ToSlice()...)
		return []core.Label{}, fmt.Errorf("list %s: %w", kind, err)
	}
	if labels == nil {
		labels = []core.Label{}
	}
	return labels, nil
}

func (s *LabelService) Get(ctx context.Context, owner int64, kind core.LabelKind, id int64) (core.Label, error) {
	return s.store.GetLabel(ctx, owner, kind, id)
}

// Lookup finds a visible label by name.
func (s *LabelService) Lookup(ctx context.Context, owner int64, kind core.LabelKind, name string) (core.Label, error) {
	return s.store.FindLabelByName(ctx, owner, kind, name)
}

// Exists is a pre-check for Add. Add itself stays authoritative.
func (s *LabelService) Exists(ctx context.Context, owner int64, kind core.LabelKind, name string) (bool, error) {
	name, err := core.NormalizeLabelName(name)
	if err != nil {
		return false, err
	}
	return s.store.LabelExists(ctx, owner, kind, name)
}

type ensured struct {
	label   core.Label
	created bool
}

// Ensure returns the visible label named name, creating it for owner when
// it does not exist yet. created reports whether a label was added.
// Concurrent calls for the same name share a single lookup-or-create and
// all see its outcome.
func (s *LabelService) Ensure(ctx context.Context, owner int64, kind core.LabelKind, name string) (core.Label, bool, error) {
	key := fmt.Sprintf("%d/%s/%s", owner, kind, strings.TrimSpace(name))
	v, err, _ := s.ensureGroup.Do(key, func() (any, error) {
		label, created, err := s.ensure(ctx, owner, kind, name)
		return ensured{label: label, created: created}, err
	})
	res := v.(ensured)
	return res.label, res.created, err
}

func (s *LabelService) ensure(ctx context.Context, owner int64, kind core.LabelKind, name string) (label core.Label, created bool, err error) {
	label, err = s.store.FindLabelByName(ctx, owner, kind, name)
	if err == nil {
		return label, false, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return core.Label{}, false, err
	}

	label, err = s.Add(ctx, owner, kind, name)
	if errors.Is(err, storage.ErrDuplicateName) {
		// lost a race with another writer
		label, err = s.store.FindLabelByName(ctx, owner, kind, name)
		return label, false, err
	}
	if err != nil {
		return core.Label{}, false, err
	}
	return label, true, nil
}

// Rename changes the name of one of the owner's labels.
func (s *LabelService) Rename(ctx context.Context, owner int64, kind core.LabelKind, id int64, name string) (core.Label, error) {
	if err := kind.Validate(); err != nil {
		return core.Label{}, err
	}
	name, err := core.NormalizeLabelName(name)
	if err != nil {
		return core.Label{}, err
	}

	label, err := s.store.RenameLabel(ctx, owner, kind, id, name)
	if err != nil {
		return core.Label{}, fmt.Errorf("rename %s %d: %w", kind, id, err)
	}

	s.logger.InfoContext(ctx, "Label renamed", applog.NewFields().
		WithOperation(applog.OpRename).
		WithOwner(owner).
		WithLabel(string(kind), label.ID, label.Name).ToSlice()...)

	publishEvent(ctx, s.publisher, s.logger, amqp.NewLedgerEvent(amqp.EventLabelRenamed, owner, label.ID))
	return label, nil
}

// Delete removes one of the owner's labels. Expenses that used it become
// uncategorized.
func (s *LabelService) Delete(ctx context.Context, owner int64, kind core.LabelKind, id int64) error {
	if err := kind.Validate(); err != nil {
		return err
	}
	if err := s.store.DeleteLabel(ctx, owner, kind, id); err != nil {
		return fmt.Errorf("delete %s %d: %w", kind, id, err)
	}

	s.logger.InfoContext(ctx, "Label deleted", applog.NewFields().
		WithOperation(applog.OpDelete).
		WithOwner(owner).
		WithLabel(string(kind), id, "").ToSlice()...)

	publishEvent(ctx, s.publisher, s.logger, amqp.NewLedgerEvent(amqp.EventLabelDeleted, owner, id))
	return nil
}
