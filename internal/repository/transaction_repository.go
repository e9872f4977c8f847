package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/booking-pipeline/internal/model"
)

// TransactionRepo provides append and read access to the transactions
// table.  The pipeline only appends; it performs no dedup of its own
// and trusts the ledger to have claimed the message ID first.  All
// timestamp fields are stored in UTC.
type TransactionRepo struct {
	db *sql.DB
}

// NewTransactionRepo returns a new TransactionRepo bound to the given database.
func NewTransactionRepo(db *sql.DB) *TransactionRepo { return &TransactionRepo{db: db} }

// Append inserts one transaction for an accepted event and returns the
// stored row.  The net amount is derived here, deterministically, as
// amount minus commission.  Concurrent appends never conflict because
// each carries a distinct message ID.
func (r *TransactionRepo) Append(ctx context.Context, ev model.InboundEvent) (*model.Transaction, error) {
	var channel *string
	if ev.SourceChannelID != "" {
		ch := ev.SourceChannelID
		channel = &ch
	}
	const q = `INSERT INTO transactions
		(message_id, location, unit, checkout_time, duration_label, payment_method,
		 agent_name, amount, commission, net_amount, booking_date, source_channel_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, q,
		ev.MessageID, ev.Location, ev.Unit, ev.CheckoutTime, ev.DurationLabel, ev.PaymentMethod,
		ev.AgentName, ev.Amount, ev.Commission, ev.NetAmount(), ev.BookingDate, channel,
	)
	if err != nil {
		return nil, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}
	// Query back the full row to populate timestamps and defaults
	return r.getByID(ctx, uint64(id))
}

const txnColumns = `id, message_id, location, unit, checkout_time, duration_label,
	payment_method, agent_name, amount, commission, net_amount,
	DATE_FORMAT(booking_date, '%Y-%m-%d'), source_channel_id, created_at`

func (r *TransactionRepo) getByID(ctx context.Context, id uint64) (*model.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+txnColumns+` FROM transactions WHERE id = ?`, id)
	return scanTransaction(row)
}

// GetByMessageID returns the transaction stored for a message ID, or
// ErrNotFound when the message was never accepted.  Used to answer
// duplicate deliveries with the existing row.
func (r *TransactionRepo) GetByMessageID(ctx context.Context, messageID string) (*model.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+txnColumns+` FROM transactions WHERE message_id = ?`, messageID)
	t, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return t, err
}

// ListByBookingDate returns all transactions attributed to one calendar
// date, newest first.  An empty slice is returned when none exist.
func (r *TransactionRepo) ListByBookingDate(ctx context.Context, bookingDate string) ([]model.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+txnColumns+` FROM transactions WHERE booking_date = ? ORDER BY created_at DESC, id DESC`,
		bookingDate,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// rowScanner lets scanTransaction work with both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(row rowScanner) (*model.Transaction, error) {
	var t model.Transaction
	var channel sql.NullString
	var createdAt time.Time
	err := row.Scan(
		&t.ID, &t.MessageID, &t.Location, &t.Unit, &t.CheckoutTime, &t.DurationLabel,
		&t.PaymentMethod, &t.AgentName, &t.Amount, &t.Commission, &t.NetAmount,
		&t.BookingDate, &channel, &createdAt,
	)
	if err != nil {
		return nil, err
	}
	if channel.Valid {
		ch := channel.String
		t.SourceChannelID = &ch
	}
	t.CreatedAt = createdAt.UTC()
	return &t, nil
}
