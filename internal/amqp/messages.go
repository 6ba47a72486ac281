package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventKind names the committed write a LedgerEvent announces.
type EventKind string

const (
	EventExpenseCreated   EventKind = "expense.created"
	EventExpenseUpdated   EventKind = "expense.updated"
	EventExpenseDeleted   EventKind = "expense.deleted"
	EventExpensesImported EventKind = "expenses.imported"
	EventLabelCreated     EventKind = "label.created"
	EventLabelRenamed     EventKind = "label.renamed"
	EventLabelDeleted     EventKind = "label.deleted"
	EventUserRegistered   EventKind = "user.registered"
)

// LedgerEvent is a lightweight notification of a committed write. It
// carries identifiers only; consumers read the ledger for details.
type LedgerEvent struct {
	ID        string    `json:"id"`
	Kind      EventKind `json:"kind"`
	Owner     int64     `json:"owner"`
	EntityID  int64     `json:"entity_id,omitempty"`
	Count     int       `json:"count,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLedgerEvent creates an event with a fresh id.
func NewLedgerEvent(kind EventKind, owner, entityID int64) *LedgerEvent {
	return &LedgerEvent{
		ID:        uuid.NewString(),
		Kind:      kind,
		Owner:     owner,
		EntityID:  entityID,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventFromJSON decodes an event and checks its id.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var msg LedgerEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(msg.ID); err != nil {
		return nil, fmt.Errorf("event id: %w", err)
	}
	return &msg, nil
}
