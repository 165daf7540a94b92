package amqp

import (
	"encoding/json"
	"time"
)

const (
	EventTransactionCreated = "transaction.created"
	EventTransactionUpdated = "transaction.updated"
	EventTransactionDeleted = "transaction.deleted"
	EventGoalCreated        = "goal.created"
)

// LedgerEvent is a lightweight notification of a ledger change. Consumers
// that need the full row fetch it from the database by id.
type LedgerEvent struct {
	Event     string    `json:"event"`
	UserID    int64     `json:"user_id"`
	RecordID  int64     `json:"record_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerEvent(event string, userID, recordID int64) *LedgerEvent {
	return &LedgerEvent{
		Event:     event,
		UserID:    userID,
		RecordID:  recordID,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON creates an event from JSON bytes
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
