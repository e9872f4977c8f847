package model

import "strings"

// Payment methods accepted by the booking bot.  Values are stored
// upper-cased in the transactions table, mirroring the enum column.
const (
	PaymentCash     = "CASH"
	PaymentTransfer = "TRANSFER"
)

// InboundEvent is the unit of work submitted to the ingestion pipeline.
// It is the fully-parsed form of one bot message; the upstream transport
// owns signature checking and JSON-shape parsing.  MessageID doubles as
// the idempotency key: the same source message may be delivered more
// than once and every delivery carries the same MessageID.
//
// Amount and Commission are expressed in the smallest currency unit to
// avoid floating-point rounding.  Commission may never exceed Amount.
type InboundEvent struct {
	MessageID       string `json:"message_id" validate:"required"`
	Location        string `json:"location"`
	Unit            string `json:"unit"`
	CheckoutTime    string `json:"checkout_time"`
	DurationLabel   string `json:"duration"`
	PaymentMethod   string `json:"payment_method" validate:"required,oneof=CASH TRANSFER"`
	AgentName       string `json:"agent_name" validate:"required"`
	Amount          int64  `json:"amount" validate:"gte=0"`
	Commission      int64  `json:"commission" validate:"gte=0,ltefield=Amount"`
	BookingDate     string `json:"booking_date" validate:"required,datetime=2006-01-02"`
	SourceChannelID string `json:"source_channel_id"`
}

// Normalize trims identifying fields and upper-cases the payment method
// so that "Cash" and "CASH" validate the same way.  It must run before
// validation.
func (e *InboundEvent) Normalize() {
	e.MessageID = strings.TrimSpace(e.MessageID)
	e.AgentName = strings.TrimSpace(e.AgentName)
	e.BookingDate = strings.TrimSpace(e.BookingDate)
	e.PaymentMethod = strings.ToUpper(strings.TrimSpace(e.PaymentMethod))
}

// NetAmount returns the amount the business keeps after commission.
func (e *InboundEvent) NetAmount() int64 { return e.Amount - e.Commission }
