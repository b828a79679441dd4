package queue

import (
	"encoding/json"
	"time"
)

// RecurringTransactionMessage is the unit of work the daily recurrence scan
// emits. It carries only identifiers; the worker re-reads the transaction so
// the dueness check always runs against fresh state.
type RecurringTransactionMessage struct {
	TransactionID string    `json:"transaction_id"`
	UserID        string    `json:"user_id"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewRecurringTransactionMessage(transactionID, userID string) *RecurringTransactionMessage {
	return &RecurringTransactionMessage{
		TransactionID: transactionID,
		UserID:        userID,
		Timestamp:     time.Now(),
	}
}

func (m *RecurringTransactionMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func RecurringTransactionMessageFromJSON(data []byte) (*RecurringTransactionMessage, error) {
	var msg RecurringTransactionMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
