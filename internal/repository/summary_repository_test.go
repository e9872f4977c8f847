package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/booking-pipeline/internal/model"
)

func summaryEvent(method string) model.InboundEvent {
	return model.InboundEvent{
		MessageID:     "m1",
		PaymentMethod: method,
		AgentName:     "lia",
		Amount:        500000,
		Commission:    25000,
		BookingDate:   "2024-01-10",
	}
}

func TestApplyAgentDayBucketsCash(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewSummaryRepo(db)

	mock.ExpectExec("INSERT INTO agent_daily_summaries").
		WithArgs("2024-01-10", "lia", int64(500000), int64(0), int64(25000)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.ApplyAgentDay(context.Background(), summaryEvent(model.PaymentCash)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyAgentDayBucketsTransfer(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewSummaryRepo(db)

	mock.ExpectExec("INSERT INTO agent_daily_summaries").
		WithArgs("2024-01-10", "lia", int64(0), int64(500000), int64(25000)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.ApplyAgentDay(context.Background(), summaryEvent(model.PaymentTransfer)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyDayIncludesGross(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewSummaryRepo(db)

	mock.ExpectExec("INSERT INTO daily_summaries").
		WithArgs("2024-01-10", int64(500000), int64(0), int64(500000), int64(25000)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.ApplyDay(context.Background(), summaryEvent(model.PaymentCash)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAgentDay(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewSummaryRepo(db)

	updated := time.Date(2024, 1, 10, 15, 0, 0, 0, time.UTC)
	cols := []string{"booking_date", "agent_name", "total_bookings", "total_cash", "total_transfer", "total_commission", "updated_at"}
	mock.ExpectQuery("SELECT (.+) FROM agent_daily_summaries").
		WithArgs("2024-01-10", "lia").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("2024-01-10", "lia", 2, 500000, 300000, 40000, updated))

	s, err := repo.GetAgentDay(context.Background(), "2024-01-10", "lia")
	require.NoError(t, err)
	assert.Equal(t, int64(2), s.TotalBookings)
	assert.Equal(t, int64(500000), s.TotalCash)
	assert.Equal(t, int64(300000), s.TotalTransfer)
	assert.Equal(t, int64(40000), s.TotalCommission)
}

func TestGetDayNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewSummaryRepo(db)

	cols := []string{"booking_date", "total_bookings", "total_cash", "total_transfer", "total_gross", "total_commission", "updated_at"}
	mock.ExpectQuery("SELECT (.+) FROM daily_summaries").
		WithArgs("2024-01-09").
		WillReturnRows(sqlmock.NewRows(cols))

	_, err = repo.GetDay(context.Background(), "2024-01-09")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRebuildReplaysTransactions(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewSummaryRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM agent_daily_summaries").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("DELETE FROM daily_summaries").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO agent_daily_summaries").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("INSERT INTO daily_summaries").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	require.NoError(t, repo.Rebuild(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
