package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// LedgerReloadMessage announces that a new ledger batch has been stored and
// consumers should rebuild their snapshot. Only the batch identity travels on
// the wire, the rows are read back from storage.
type LedgerReloadMessage struct {
	BatchID   string    `json:"batch_id"`
	Source    string    `json:"source,omitempty"`
	Rows      int       `json:"rows"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLedgerReloadMessage stamps a reload notification with the current time.
func NewLedgerReloadMessage(batchID, source string, rows int) *LedgerReloadMessage {
	return &LedgerReloadMessage{
		BatchID:   batchID,
		Source:    source,
		Rows:      rows,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerReloadMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerReloadMessageFromJSON decodes a message and rejects one without a batch id.
func LedgerReloadMessageFromJSON(data []byte) (*LedgerReloadMessage, error) {
	var msg LedgerReloadMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.BatchID == "" {
		return nil, errors.New("reload message missing batch_id")
	}
	return &msg, nil
}
