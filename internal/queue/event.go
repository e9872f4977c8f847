// Package queue defines message payloads exchanged over the message broker.
package queue

// TransactionCreatedEvent is published after a booking transaction has
// been durably stored and both rollups updated.  It carries the stored
// row's identity plus display-formatted fields so dashboard consumers
// can render the change without querying the primary database.
type TransactionCreatedEvent struct {
	TransactionID   uint64 `json:"transaction_id"`
	MessageID       string `json:"message_id"`
	Location        string `json:"location"`
	Unit            string `json:"unit"`
	CheckoutTime    string `json:"checkout_time"`
	DurationLabel   string `json:"duration"`
	PaymentMethod   string `json:"payment_method"`
	AgentName       string `json:"agent_name"`
	Amount          int64  `json:"amount"`
	Commission      int64  `json:"commission"`
	NetAmount       int64  `json:"net_amount"`
	BookingDate     string `json:"booking_date"`
	SourceChannelID string `json:"source_channel_id,omitempty"`
	CreatedAt       string `json:"created_at"`
}
