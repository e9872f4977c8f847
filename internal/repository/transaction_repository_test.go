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

var txnTestColumns = []string{
	"id", "message_id", "location", "unit", "checkout_time", "duration_label",
	"payment_method", "agent_name", "amount", "commission", "net_amount",
	"booking_date", "source_channel_id", "created_at",
}

func TestAppendDerivesNetAmount(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewTransactionRepo(db)

	ev := model.InboundEvent{
		MessageID:     "m1",
		Location:      "Villa Anggrek",
		Unit:          "A2",
		CheckoutTime:  "12:00",
		DurationLabel: "1 malam",
		PaymentMethod: model.PaymentCash,
		AgentName:     "lia",
		Amount:        500000,
		Commission:    25000,
		BookingDate:   "2024-01-10",
	}

	mock.ExpectExec("INSERT INTO transactions").
		WithArgs("m1", "Villa Anggrek", "A2", "12:00", "1 malam", "CASH",
			"lia", int64(500000), int64(25000), int64(475000), "2024-01-10", nil).
		WillReturnResult(sqlmock.NewResult(7, 1))

	created := time.Date(2024, 1, 10, 9, 30, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT (.+) FROM transactions WHERE id = ?").
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows(txnTestColumns).AddRow(
			7, "m1", "Villa Anggrek", "A2", "12:00", "1 malam",
			"CASH", "lia", 500000, 25000, 475000,
			"2024-01-10", nil, created,
		))

	txn, err := repo.Append(context.Background(), ev)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), txn.ID)
	assert.Equal(t, int64(475000), txn.NetAmount)
	assert.Equal(t, "2024-01-10", txn.BookingDate)
	assert.Nil(t, txn.SourceChannelID)
	assert.Equal(t, created, txn.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByMessageIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewTransactionRepo(db)

	mock.ExpectQuery("SELECT (.+) FROM transactions WHERE message_id = ?").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(txnTestColumns))

	_, err = repo.GetByMessageID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListByBookingDate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewTransactionRepo(db)

	created := time.Date(2024, 1, 10, 14, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT (.+) FROM transactions WHERE booking_date = ?").
		WithArgs("2024-01-10").
		WillReturnRows(sqlmock.NewRows(txnTestColumns).
			AddRow(2, "m2", "", "", "", "", "TRANSFER", "sari", 300000, 15000, 285000, "2024-01-10", "group-7", created).
			AddRow(1, "m1", "", "", "", "", "CASH", "lia", 500000, 25000, 475000, "2024-01-10", nil, created))

	rows, err := repo.ListByBookingDate(context.Background(), "2024-01-10")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "sari", rows[0].AgentName)
	require.NotNil(t, rows[0].SourceChannelID)
	assert.Equal(t, "group-7", *rows[0].SourceChannelID)
	assert.Nil(t, rows[1].SourceChannelID)
}
