package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/booking-pipeline/internal/model"
)

// SummaryRepo maintains the two rollup tables derived from the
// transactions table: agent_daily_summaries keyed by (booking_date,
// agent_name) and daily_summaries keyed by booking_date.
//
// Each apply is a single INSERT ... ON DUPLICATE KEY UPDATE, so the
// "create row with zeros if absent, then increment" step is one atomic
// statement per key.  Concurrent applies to the same key are serialized
// by the storage engine's row lock and never lose increments; applies
// to different keys proceed in parallel.  Re-applying the same event is
// NOT idempotent: the orchestrator's ledger guarantees each event is
// applied exactly once.
type SummaryRepo struct {
	db *sql.DB
}

// NewSummaryRepo returns a new SummaryRepo bound to the given database.
func NewSummaryRepo(db *sql.DB) *SummaryRepo { return &SummaryRepo{db: db} }

// bucketAmounts splits the event amount into the payment-method buckets.
func bucketAmounts(ev model.InboundEvent) (cash, transfer int64) {
	if ev.PaymentMethod == model.PaymentCash {
		return ev.Amount, 0
	}
	return 0, ev.Amount
}

// ApplyAgentDay adds one accepted event to the (booking_date, agent_name)
// rollup, creating the row on first contact with the key.
func (r *SummaryRepo) ApplyAgentDay(ctx context.Context, ev model.InboundEvent) error {
	cash, transfer := bucketAmounts(ev)
	const q = `INSERT INTO agent_daily_summaries
		(booking_date, agent_name, total_bookings, total_cash, total_transfer, total_commission)
		VALUES (?, ?, 1, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			total_bookings = total_bookings + 1,
			total_cash = total_cash + VALUES(total_cash),
			total_transfer = total_transfer + VALUES(total_transfer),
			total_commission = total_commission + VALUES(total_commission)`
	_, err := r.db.ExecContext(ctx, q, ev.BookingDate, ev.AgentName, cash, transfer, ev.Commission)
	return err
}

// ApplyDay adds one accepted event to the per-day rollup across all
// agents.  The gross bucket covers both payment methods.
func (r *SummaryRepo) ApplyDay(ctx context.Context, ev model.InboundEvent) error {
	cash, transfer := bucketAmounts(ev)
	const q = `INSERT INTO daily_summaries
		(booking_date, total_bookings, total_cash, total_transfer, total_gross, total_commission)
		VALUES (?, 1, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			total_bookings = total_bookings + 1,
			total_cash = total_cash + VALUES(total_cash),
			total_transfer = total_transfer + VALUES(total_transfer),
			total_gross = total_gross + VALUES(total_gross),
			total_commission = total_commission + VALUES(total_commission)`
	_, err := r.db.ExecContext(ctx, q, ev.BookingDate, cash, transfer, ev.Amount, ev.Commission)
	return err
}

// GetAgentDay returns the rollup for one agent on one date, or
// ErrNotFound when no transaction has touched the key yet.
func (r *SummaryRepo) GetAgentDay(ctx context.Context, bookingDate, agentName string) (*model.AgentDailySummary, error) {
	const q = `SELECT DATE_FORMAT(booking_date, '%Y-%m-%d'), agent_name,
			total_bookings, total_cash, total_transfer, total_commission, updated_at
		FROM agent_daily_summaries WHERE booking_date = ? AND agent_name = ?`
	var s model.AgentDailySummary
	var updatedAt time.Time
	err := r.db.QueryRowContext(ctx, q, bookingDate, agentName).Scan(
		&s.BookingDate, &s.AgentName, &s.TotalBookings, &s.TotalCash,
		&s.TotalTransfer, &s.TotalCommission, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	s.UpdatedAt = updatedAt.UTC()
	return &s, nil
}

// ListAgentsByDate returns every agent rollup for one date ordered by
// agent name.  An empty slice is returned when the date has no bookings.
func (r *SummaryRepo) ListAgentsByDate(ctx context.Context, bookingDate string) ([]model.AgentDailySummary, error) {
	const q = `SELECT DATE_FORMAT(booking_date, '%Y-%m-%d'), agent_name,
			total_bookings, total_cash, total_transfer, total_commission, updated_at
		FROM agent_daily_summaries WHERE booking_date = ? ORDER BY agent_name`
	rows, err := r.db.QueryContext(ctx, q, bookingDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.AgentDailySummary, 0)
	for rows.Next() {
		var s model.AgentDailySummary
		var updatedAt time.Time
		if err := rows.Scan(&s.BookingDate, &s.AgentName, &s.TotalBookings, &s.TotalCash,
			&s.TotalTransfer, &s.TotalCommission, &updatedAt); err != nil {
			return nil, err
		}
		s.UpdatedAt = updatedAt.UTC()
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetDay returns the all-agents rollup for one date, or ErrNotFound.
func (r *SummaryRepo) GetDay(ctx context.Context, bookingDate string) (*model.DailySummary, error) {
	const q = `SELECT DATE_FORMAT(booking_date, '%Y-%m-%d'),
			total_bookings, total_cash, total_transfer, total_gross, total_commission, updated_at
		FROM daily_summaries WHERE booking_date = ?`
	var s model.DailySummary
	var updatedAt time.Time
	err := r.db.QueryRowContext(ctx, q, bookingDate).Scan(
		&s.BookingDate, &s.TotalBookings, &s.TotalCash, &s.TotalTransfer,
		&s.TotalGross, &s.TotalCommission, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	s.UpdatedAt = updatedAt.UTC()
	return &s, nil
}

// Rebuild recomputes both rollup tables from scratch by replaying the
// transactions table inside one transaction.  This is the repair path
// for a stored-but-not-aggregated failure: the rollups are defined as
// the aggregate over all stored transactions, so a full rebuild always
// restores consistency.
func (r *SummaryRepo) Rebuild(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx, `DELETE FROM agent_daily_summaries`); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM daily_summaries`); err != nil {
		return err
	}
	const agentQ = `INSERT INTO agent_daily_summaries
		(booking_date, agent_name, total_bookings, total_cash, total_transfer, total_commission)
		SELECT booking_date, agent_name, COUNT(*),
			COALESCE(SUM(CASE WHEN payment_method = 'CASH' THEN amount ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN payment_method = 'TRANSFER' THEN amount ELSE 0 END), 0),
			COALESCE(SUM(commission), 0)
		FROM transactions GROUP BY booking_date, agent_name`
	if _, err := tx.ExecContext(ctx, agentQ); err != nil {
		return err
	}
	const dayQ = `INSERT INTO daily_summaries
		(booking_date, total_bookings, total_cash, total_transfer, total_gross, total_commission)
		SELECT booking_date, COUNT(*),
			COALESCE(SUM(CASE WHEN payment_method = 'CASH' THEN amount ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN payment_method = 'TRANSFER' THEN amount ELSE 0 END), 0),
			COALESCE(SUM(amount), 0),
			COALESCE(SUM(commission), 0)
		FROM transactions GROUP BY booking_date`
	if _, err := tx.ExecContext(ctx, dayQ); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
