package model

import "time"

// ProcessedMessage is the idempotency ledger row for one accepted bot
// message.  Presence of a row is the only authority for "already
// handled"; the unique key on MessageID is what serializes concurrent
// deliveries of the same message.  Rows are written once at accept time
// and never mutated.
type ProcessedMessage struct {
	ID              uint64    // processed_messages.id
	MessageID       string    // processed_messages.message_id (unique)
	SourceChannelID *string   // processed_messages.source_channel_id (nullable)
	Status          string    // processed_messages.status, always "processed"
	ProcessedAt     time.Time // processed_messages.processed_at
}
