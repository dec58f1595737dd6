package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents the type of event (created, updated, deleted)
type EventType string

const (
	EventTypeCreated EventType = "created"
	EventTypeUpdated EventType = "updated"
	EventTypeDeleted EventType = "deleted"
)

// EntityType represents the type of entity the event is about
type EntityType string

const (
	EntityTypeLoan     EntityType = "loan"
	EntityTypePayment  EntityType = "payment"
	EntityTypeCustomer EntityType = "customer"
	EntityTypeInvestor EntityType = "investor"
)

// Additional event types for loan state transitions
const (
	EventTypeSettled     EventType = "settled"
	EventTypeReopened    EventType = "reopened"
	EventTypeActivated   EventType = "activated"
	EventTypeDeactivated EventType = "deactivated"
)

// Event represents a WebSocket event message sent to clients
// Format: { type, entity, payload, timestamp }
type Event struct {
	Type      string      `json:"type"`      // Combined type e.g. "loan.settled"
	Entity    EntityType  `json:"entity"`    // Entity type e.g. "loan"
	Payload   interface{} `json:"payload"`   // Full entity data
	Timestamp time.Time   `json:"timestamp"` // Event timestamp
}

// NewEvent creates a new event with the given type, entity, and payload
func NewEvent(eventType EventType, entityType EntityType, payload interface{}) Event {
	return Event{
		Type:      fmt.Sprintf("%s.%s", entityType, eventType),
		Entity:    entityType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON serializes the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LoanCreated creates a loan.created event
func LoanCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeLoan, payload)
}

// LoanUpdated creates a loan.updated event
func LoanUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeLoan, payload)
}

// LoanSettled creates a loan.settled event
func LoanSettled(payload interface{}) Event {
	return NewEvent(EventTypeSettled, EntityTypeLoan, payload)
}

// LoanReopened creates a loan.reopened event
func LoanReopened(payload interface{}) Event {
	return NewEvent(EventTypeReopened, EntityTypeLoan, payload)
}

// PaymentCreated creates a payment.created event
func PaymentCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypePayment, payload)
}

// PaymentUpdated creates a payment.updated event
func PaymentUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypePayment, payload)
}

// PaymentDeleted creates a payment.deleted event
func PaymentDeleted(payload interface{}) Event {
	return NewEvent(EventTypeDeleted, EntityTypePayment, payload)
}

// CustomerCreated creates a customer.created event
func CustomerCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeCustomer, payload)
}

// CustomerUpdated creates a customer.updated event
func CustomerUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeCustomer, payload)
}

// CustomerActivated creates a customer.activated event
func CustomerActivated(payload interface{}) Event {
	return NewEvent(EventTypeActivated, EntityTypeCustomer, payload)
}

// CustomerDeactivated creates a customer.deactivated event
func CustomerDeactivated(payload interface{}) Event {
	return NewEvent(EventTypeDeactivated, EntityTypeCustomer, payload)
}

// InvestorCreated creates an investor.created event
func InvestorCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeInvestor, payload)
}

// InvestorUpdated creates an investor.updated event
func InvestorUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeInvestor, payload)
}
