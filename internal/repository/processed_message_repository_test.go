package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTryClaimInsertsOnce(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewProcessedMessageRepo(db, nil, time.Hour)

	mock.ExpectExec("INSERT INTO processed_messages").
		WithArgs("m1", nil).
		WillReturnResult(sqlmock.NewResult(1, 1))

	claimed, err := repo.TryClaim(context.Background(), "m1", nil)
	require.NoError(t, err)
	assert.True(t, claimed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTryClaimLostRaceIsNotAnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewProcessedMessageRepo(db, nil, time.Hour)

	mock.ExpectExec("INSERT INTO processed_messages").
		WithArgs("m1", nil).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	claimed, err := repo.TryClaim(context.Background(), "m1", nil)
	require.NoError(t, err, "a unique-key violation means race lost, not failure")
	assert.False(t, claimed)
}

func TestTryClaimPropagatesStorageFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewProcessedMessageRepo(db, nil, time.Hour)

	mock.ExpectExec("INSERT INTO processed_messages").
		WillReturnError(errors.New("connection lost"))

	claimed, err := repo.TryClaim(context.Background(), "m1", nil)
	require.Error(t, err)
	assert.False(t, claimed)
}

func TestReleaseDeletesClaim(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewProcessedMessageRepo(db, nil, time.Hour)

	mock.ExpectExec("DELETE FROM processed_messages").
		WithArgs("m1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Release(context.Background(), "m1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReleasedClaimCanBeReclaimed(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewProcessedMessageRepo(db, nil, time.Hour)

	mock.ExpectExec("INSERT INTO processed_messages").
		WithArgs("m1", nil).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("DELETE FROM processed_messages").
		WithArgs("m1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO processed_messages").
		WithArgs("m1", nil).
		WillReturnResult(sqlmock.NewResult(2, 1))

	ctx := context.Background()
	claimed, err := repo.TryClaim(ctx, "m1", nil)
	require.NoError(t, err)
	require.True(t, claimed)

	// Confirm is skipped because the transaction insert failed; the
	// released claim must be claimable again on redelivery.
	require.NoError(t, repo.Release(ctx, "m1"))

	claimed, err = repo.TryClaim(ctx, "m1", nil)
	require.NoError(t, err)
	assert.True(t, claimed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmWithoutCacheIsNoop(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewProcessedMessageRepo(db, nil, time.Hour)

	repo.Confirm(context.Background(), "m1")
	assert.NoError(t, mock.ExpectationsWereMet())
}
