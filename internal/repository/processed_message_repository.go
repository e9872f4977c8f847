package repository

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// ProcessedMessageRepo is the idempotency ledger.  One row exists per
// accepted message ID and the unique key on message_id is the only
// authority for "already handled".  An optional Redis client serves as
// a non-authoritative fast path: a cache hit short-circuits to
// duplicate, a cache miss always falls through to the database.  Cache
// entries are written by Confirm alone, after the claimed message's
// transaction is durably stored, so a released claim is never cached
// and a hit can never block a legitimate redelivery.
type ProcessedMessageRepo struct {
	db       *sql.DB
	rdb      *redis.Client // may be nil; ledger degrades to DB-only
	cacheTTL time.Duration
}

// NewProcessedMessageRepo returns a ledger bound to the given database.
// rdb may be nil to disable the cache fast path.
func NewProcessedMessageRepo(db *sql.DB, rdb *redis.Client, cacheTTL time.Duration) *ProcessedMessageRepo {
	if cacheTTL <= 0 {
		cacheTTL = 24 * time.Hour
	}
	return &ProcessedMessageRepo{db: db, rdb: rdb, cacheTTL: cacheTTL}
}

const processedKeyPrefix = "processed:"

// TryClaim atomically records messageID as processed.  It returns false
// when a ledger row already exists: the check-and-insert is a single
// INSERT against the unique key, so two concurrent claims for the same
// ID yield exactly one true and one false.  A lost race is a normal
// outcome, not an error.
func (r *ProcessedMessageRepo) TryClaim(ctx context.Context, messageID string, sourceChannelID *string) (bool, error) {
	if r.seen(ctx, messageID) {
		return false, nil
	}
	const q = `INSERT INTO processed_messages (message_id, source_channel_id, status) VALUES (?, ?, 'processed')`
	if _, err := r.db.ExecContext(ctx, q, messageID, sourceChannelID); err != nil {
		if isDuplicateKey(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Confirm primes the fast path for a message whose transaction has been
// durably stored.  The claim is permanent from this point on, so a
// cached positive can never go stale.  Best effort: a failed SET only
// costs a database round trip on the next redelivery.
func (r *ProcessedMessageRepo) Confirm(ctx context.Context, messageID string) {
	if r.rdb == nil {
		return
	}
	if err := r.rdb.Set(ctx, processedKeyPrefix+messageID, 1, r.cacheTTL).Err(); err != nil {
		log.Printf("ledger: cache set failed for %s: %v", messageID, err)
	}
}

// Release removes a claim so the message can be reprocessed.  The
// orchestrator calls this as compensation when the transaction insert
// fails after a successful claim.  Only unconfirmed claims are ever
// released and those are never cached, so no cache invalidation is
// needed and a redelivery goes straight back to the unique key.
func (r *ProcessedMessageRepo) Release(ctx context.Context, messageID string) error {
	const q = `DELETE FROM processed_messages WHERE message_id = ?`
	_, err := r.db.ExecContext(ctx, q, messageID)
	return err
}

// seen consults the cache only; false means "unknown", never "new".
func (r *ProcessedMessageRepo) seen(ctx context.Context, messageID string) bool {
	if r.rdb == nil {
		return false
	}
	n, err := r.rdb.Exists(ctx, processedKeyPrefix+messageID).Result()
	if err != nil {
		return false
	}
	return n > 0
}
