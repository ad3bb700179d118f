package amqp

import (
	"encoding/json"
	"time"
)

// Ledger event names carried on the wire.
const (
	EventTransactionCreated = "transaction.created"
	EventTransactionUpdated = "transaction.updated"
	EventTransactionDeleted = "transaction.deleted"
	EventTransferCreated    = "transfer.created"
	EventTransferDeleted    = "transfer.deleted"
)

// LedgerEventMessage is a lightweight post-commit notification. It carries
// only identifiers; consumers fetch current row state from the store, so a
// stale or replayed message never corrupts anything.
type LedgerEventMessage struct {
	Event         string    `json:"event"`
	TransactionID int64     `json:"transaction_id,omitempty"`
	TransferID    string    `json:"transfer_id,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewLedgerEventMessage(event string, transactionID int64, transferID string) *LedgerEventMessage {
	return &LedgerEventMessage{
		Event:         event,
		TransactionID: transactionID,
		TransferID:    transferID,
		Timestamp:     time.Now(),
	}
}

func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
