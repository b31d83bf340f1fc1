package amqp

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"savings/internal/core"
)

// RecordSavedMessage announces an upsert the record store accepted.
// Amounts travel as decimal strings so no precision is lost.
type RecordSavedMessage struct {
	Name          string          `json:"name"`
	TotalIncomes  decimal.Decimal `json:"total_incomes"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
	ChangeCount   uint64          `json:"change_count"`
	SessionID     string          `json:"session_id,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
}

// NewRecordSavedMessage builds the message for event.
func NewRecordSavedMessage(event core.RecordSaved) *RecordSavedMessage {
	ts := event.SavedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return &RecordSavedMessage{
		Name:          event.Name,
		TotalIncomes:  event.TotalIncomes,
		TotalExpenses: event.TotalExpenses,
		ChangeCount:   event.ChangeCount,
		Timestamp:     ts,
	}
}

// ToJSON converts the message to JSON bytes
func (m *RecordSavedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RecordSavedMessageFromJSON decodes a message body.
func RecordSavedMessageFromJSON(data []byte) (*RecordSavedMessage, error) {
	var msg RecordSavedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
