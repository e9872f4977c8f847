package pipeline

// Status classifies the result of one ingest call.  Callers branch on
// the status constant, never on error strings.
type Status int

const (
	// StatusAccepted means a transaction was stored and both rollups
	// were updated.
	StatusAccepted Status = iota + 1
	// StatusDuplicate means the message ID was already processed.  This
	// is a normal outcome of at-least-once delivery, not an error.
	StatusDuplicate
	// StatusRejected means the event failed validation and had no side
	// effects.
	StatusRejected
	// StatusFailed means durable storage failed during claim, append or
	// aggregation.
	StatusFailed
)

// String returns the lower-case name used in logs and HTTP responses.
func (s Status) String() string {
	switch s {
	case StatusAccepted:
		return "accepted"
	case StatusDuplicate:
		return "duplicate"
	case StatusRejected:
		return "rejected"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

// FieldError describes one validation failure on an inbound event.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Outcome is the result of Ingest.  Which fields are meaningful depends
// on Status:
//
//	Accepted  - TransactionID identifies the stored row.
//	Duplicate - MessageID is the already-processed idempotency key;
//	            TransactionID carries the originally stored row's ID
//	            when it can be resolved.
//	Rejected  - Fields carries per-field validation messages.
//	Failed    - Err carries the storage failure; StoredButNotAggregated
//	            is true when the transaction row exists but one or both
//	            rollups were not updated after retries, which requires a
//	            summary rebuild to repair.
type Outcome struct {
	Status                 Status
	TransactionID          uint64
	MessageID              string
	Fields                 []FieldError
	Err                    error
	StoredButNotAggregated bool
}
