package model

import "time"

// Transaction records one accepted booking.  Exactly one row exists per
// accepted message ID (1:1 with ProcessedMessage) and the pipeline only
// ever appends rows; manual corrections happen in the dashboard layer.
// Amounts are in the smallest currency unit, NetAmount is derived as
// Amount minus Commission at insert time, and BookingDate is the
// calendar date (YYYY-MM-DD) the booking counts toward.
type Transaction struct {
	ID              uint64    // transactions.id
	MessageID       string    // transactions.message_id
	Location        string    // transactions.location
	Unit            string    // transactions.unit
	CheckoutTime    string    // transactions.checkout_time
	DurationLabel   string    // transactions.duration_label
	PaymentMethod   string    // transactions.payment_method
	AgentName       string    // transactions.agent_name
	Amount          int64     // transactions.amount
	Commission      int64     // transactions.commission
	NetAmount       int64     // transactions.net_amount
	BookingDate     string    // transactions.booking_date (DATE)
	SourceChannelID *string   // transactions.source_channel_id (nullable)
	CreatedAt       time.Time // transactions.created_at
}
