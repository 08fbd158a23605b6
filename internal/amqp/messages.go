package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// EventLedgerSaved is the routing key of ledger overwrite notifications.
const EventLedgerSaved = "ledger.saved"

// LedgerSavedMessage announces that a ledger was overwritten. It carries
// no rows: consumers read the current ledger from the primary store.
type LedgerSavedMessage struct {
	ID        uuid.UUID `json:"id"`
	Ledger    string    `json:"ledger"`
	Operation string    `json:"operation"`
	Rows      int       `json:"rows"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLedgerSavedMessage creates a message with a fresh id.
func NewLedgerSavedMessage(ledger, operation string, rows int) *LedgerSavedMessage {
	return &LedgerSavedMessage{
		ID:        uuid.New(),
		Ledger:    ledger,
		Operation: operation,
		Rows:      rows,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerSavedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerSavedMessageFromJSON creates a message from JSON bytes
func LedgerSavedMessageFromJSON(data []byte) (*LedgerSavedMessage, error) {
	var msg LedgerSavedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Ledger == "" {
		return nil, errors.New("message without ledger name")
	}
	return &msg, nil
}
