package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/afftrack/backend/internal/domain/shared"
	"github.com/afftrack/backend/internal/domain/transfer"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockTransferRepository creates a GormTransferRepository with a mocked SQL connection
func newMockTransferRepository(t *testing.T) (*GormTransferRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormTransferRepository(gormDB), mock, mockDB
}

func TestGormTransferRepository_Create(t *testing.T) {
	t.Run("inserts outcome record", func(t *testing.T) {
		repo, mock, mockDB := newMockTransferRepository(t)
		defer mockDB.Close()

		rec := transfer.New(uuid.New(), transfer.StatusAccepted)
		rec.Payout = decimal.NewFromFloat(45)
		rec.PayoutFound = true

		mock.ExpectExec(`INSERT INTO "transfers"`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Create(context.Background(), rec)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps unique violation to ErrAlreadyExists", func(t *testing.T) {
		repo, mock, mockDB := newMockTransferRepository(t)
		defer mockDB.Close()

		rec := transfer.New(uuid.New(), transfer.StatusFailedAllFeeds)

		mock.ExpectExec(`INSERT INTO "transfers"`).
			WillReturnError(&pq.Error{Code: "23505"})

		err := repo.Create(context.Background(), rec)

		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("other database errors pass through", func(t *testing.T) {
		repo, mock, mockDB := newMockTransferRepository(t)
		defer mockDB.Close()

		rec := transfer.New(uuid.New(), transfer.StatusFailedMain)

		mock.ExpectExec(`INSERT INTO "transfers"`).
			WillReturnError(&pq.Error{Code: "53300"})

		err := repo.Create(context.Background(), rec)

		assert.Error(t, err)
		assert.NotErrorIs(t, err, shared.ErrAlreadyExists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormTransferRepository_FindByLeadID(t *testing.T) {
	t.Run("returns records newest first", func(t *testing.T) {
		repo, mock, mockDB := newMockTransferRepository(t)
		defer mockDB.Close()

		leadID := uuid.New()
		feedID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "lead_id", "feed_id", "status", "payout", "payout_found", "retry_count"}).
			AddRow(uuid.New(), leadID, feedID, "ACCEPTED", "12.5000", true, 2)

		mock.ExpectQuery(`SELECT \* FROM "transfers" WHERE lead_id = \$1 ORDER BY created_at DESC`).
			WithArgs(leadID).
			WillReturnRows(rows)

		records, err := repo.FindByLeadID(context.Background(), leadID)

		assert.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, leadID, records[0].LeadID)
		require.NotNil(t, records[0].FeedID)
		assert.Equal(t, feedID, *records[0].FeedID)
		assert.True(t, records[0].Payout.Equal(decimal.NewFromFloat(12.5)))
		assert.True(t, records[0].PayoutFound)
		assert.Equal(t, 2, records[0].RetryCount)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormTransferRepository_FindByID(t *testing.T) {
	t.Run("returns domain error for non-existent record", func(t *testing.T) {
		repo, mock, mockDB := newMockTransferRepository(t)
		defer mockDB.Close()

		id := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "transfers" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(id, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		rec, err := repo.FindByID(context.Background(), id)

		assert.Error(t, err)
		assert.Nil(t, rec)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormTransferRepository_Count(t *testing.T) {
	t.Run("counts with status filter", func(t *testing.T) {
		repo, mock, mockDB := newMockTransferRepository(t)
		defer mockDB.Close()

		rows := sqlmock.NewRows([]string{"count"}).AddRow(12)

		mock.ExpectQuery(`SELECT count\(\*\) FROM "transfers" WHERE status = \$1`).
			WithArgs("ACCEPTED").
			WillReturnRows(rows)

		filter := shared.DefaultFilter()
		filter.Filters["status"] = "ACCEPTED"

		count, err := repo.Count(context.Background(), filter)

		assert.NoError(t, err)
		assert.Equal(t, int64(12), count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
