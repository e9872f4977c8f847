// Package pipeline implements the transaction ingestion orchestrator.
// It sequences the idempotency ledger, the transaction store, the two
// rollup updates and the change notification under one logical
// operation and defines the failure contract between them.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/iliyamo/booking-pipeline/internal/model"
)

// Ledger is the idempotency gate.  TryClaim must be atomic with respect
// to concurrent callers for the same message ID: exactly one caller
// wins.  Release undoes a claim whose transaction was never stored.
// Confirm marks a claim permanent once its transaction is durably
// stored; implementations may use it to prime duplicate-detection
// caches and must treat it as best effort.
type Ledger interface {
	TryClaim(ctx context.Context, messageID string, sourceChannelID *string) (bool, error)
	Confirm(ctx context.Context, messageID string)
	Release(ctx context.Context, messageID string) error
}

// Store appends accepted bookings and resolves message IDs to stored
// rows.  It performs no dedup of its own and trusts the caller to have
// claimed the message ID first.
type Store interface {
	Append(ctx context.Context, ev model.InboundEvent) (*model.Transaction, error)
	GetByMessageID(ctx context.Context, messageID string) (*model.Transaction, error)
}

// Aggregator maintains the two rollups.  Each apply must be atomic per
// key under concurrency; applying the same event twice double-counts,
// so the orchestrator calls each apply exactly once per accepted event.
type Aggregator interface {
	ApplyAgentDay(ctx context.Context, ev model.InboundEvent) error
	ApplyDay(ctx context.Context, ev model.InboundEvent) error
}

// Notifier publishes a best-effort change event per accepted
// transaction.  Implementations log their own failures; delivery
// problems never affect the ingest outcome.
type Notifier interface {
	Publish(ctx context.Context, txn *model.Transaction)
}

// Ingestor is the single entry point for inbound bot events.  It is
// safe for concurrent use; unrelated message IDs are never serialized
// against each other.
type Ingestor struct {
	ledger   Ledger
	store    Store
	rollups  Aggregator
	notifier Notifier
	validate *validator.Validate
	retries  int
	backoff  time.Duration
}

// NewIngestor constructs an Ingestor.  Ledger, store and aggregator
// must be non-nil; notifier may be nil to disable fan-out.  retries and
// backoff control the bounded retry of a failed rollup update; zero
// values select one retry with a 100ms initial backoff.
func NewIngestor(ledger Ledger, store Store, rollups Aggregator, notifier Notifier, retries int, backoff time.Duration) *Ingestor {
	if ledger == nil || store == nil || rollups == nil {
		panic("nil dependency passed to NewIngestor")
	}
	if retries <= 0 {
		retries = 1
	}
	if backoff <= 0 {
		backoff = 100 * time.Millisecond
	}
	v := validator.New()
	// Report validation failures under the wire names the bot sends,
	// not the Go struct field names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Ingestor{
		ledger:   ledger,
		store:    store,
		rollups:  rollups,
		notifier: notifier,
		validate: v,
		retries:  retries,
		backoff:  backoff,
	}
}

// Ingest processes one parsed bot event end to end and reports the
// outcome.  The guarantee: at most one transaction and at most one
// contribution to each rollup per distinct message ID, and every stored
// transaction is reflected exactly once in both rollups unless the
// outcome carries StoredButNotAggregated.
//
// A caller that times out must treat the outcome as unknown and retry
// with the identical message ID; the ledger absorbs the retry.
func (p *Ingestor) Ingest(ctx context.Context, ev model.InboundEvent) Outcome {
	ev.Normalize()
	if fields := p.validateEvent(ev); len(fields) > 0 {
		return Outcome{Status: StatusRejected, MessageID: ev.MessageID, Fields: fields}
	}

	var channel *string
	if ev.SourceChannelID != "" {
		ch := ev.SourceChannelID
		channel = &ch
	}
	claimed, err := p.ledger.TryClaim(ctx, ev.MessageID, channel)
	if err != nil {
		log.Printf("ingest: claim failed for %s: %v", ev.MessageID, err)
		return Outcome{Status: StatusFailed, MessageID: ev.MessageID, Err: fmt.Errorf("claim: %w", err)}
	}
	if !claimed {
		out := Outcome{Status: StatusDuplicate, MessageID: ev.MessageID}
		// Point the caller at the row stored by the winning delivery.
		if prior, err := p.store.GetByMessageID(ctx, ev.MessageID); err == nil {
			out.TransactionID = prior.ID
		}
		return out
	}

	txn, err := p.store.Append(ctx, ev)
	if err != nil {
		log.Printf("ingest: append failed for %s: %v", ev.MessageID, err)
		// Compensation: release the claim so a redelivery of this
		// message can be processed instead of silently no-oping
		// forever.  If the release itself fails the message stays
		// used up and needs operator attention.
		if relErr := p.ledger.Release(context.WithoutCancel(ctx), ev.MessageID); relErr != nil {
			log.Printf("ingest: release after failed append also failed for %s: %v", ev.MessageID, relErr)
		}
		return Outcome{Status: StatusFailed, MessageID: ev.MessageID, Err: fmt.Errorf("append: %w", err)}
	}

	// The row is durable; from here on the outcome must not depend on
	// the caller still listening.  A disconnect mid-aggregation would
	// otherwise manufacture rollup loss that only a rebuild repairs.
	durable := context.WithoutCancel(ctx)
	p.ledger.Confirm(durable, ev.MessageID)

	agentErr := p.applyWithRetry(durable, ev, p.rollups.ApplyAgentDay)
	dayErr := p.applyWithRetry(durable, ev, p.rollups.ApplyDay)
	if agentErr != nil || dayErr != nil {
		err := agentErr
		if err == nil {
			err = dayErr
		}
		log.Printf("ingest: transaction %d stored but rollups inconsistent for %s: %v", txn.ID, ev.MessageID, err)
		return Outcome{
			Status:                 StatusFailed,
			TransactionID:          txn.ID,
			MessageID:              ev.MessageID,
			Err:                    fmt.Errorf("aggregate: %w", err),
			StoredButNotAggregated: true,
		}
	}

	if p.notifier != nil {
		// Fan-out is best-effort and must never delay or fail the
		// accepted outcome.
		go p.notifier.Publish(durable, txn)
	}
	return Outcome{Status: StatusAccepted, TransactionID: txn.ID, MessageID: ev.MessageID}
}

// applyWithRetry runs one rollup update, retrying transient failures
// with doubling backoff up to the configured bound.
func (p *Ingestor) applyWithRetry(ctx context.Context, ev model.InboundEvent, apply func(context.Context, model.InboundEvent) error) error {
	err := apply(ctx, ev)
	if err == nil {
		return nil
	}
	wait := p.backoff
	for attempt := 0; attempt < p.retries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		if err = apply(ctx, ev); err == nil {
			return nil
		}
		wait *= 2
	}
	return err
}

// validateEvent maps validator errors onto per-field messages.  An
// empty slice means the event is acceptable.
func (p *Ingestor) validateEvent(ev model.InboundEvent) []FieldError {
	err := p.validate.Struct(ev)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []FieldError{{Field: "event", Message: err.Error()}}
	}
	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{Field: fe.Field(), Message: messageFor(fe)})
	}
	return fields
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return "must not be negative"
	case "ltefield":
		return "must not exceed amount"
	case "oneof":
		return "must be CASH or TRANSFER"
	case "datetime":
		return "must be a calendar date in YYYY-MM-DD form"
	}
	return "is invalid"
}
