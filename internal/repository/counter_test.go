package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func TestCounterRepository_Next_Increments(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewCounterRepository(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "counters" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT (.+) FROM "counters" WHERE project_key =`).
		WillReturnRows(sqlmock.NewRows([]string{"project_key", "seq"}).AddRow("TEST", 42))
	mock.ExpectCommit()

	seq, err := repo.Next(ctx, "TEST")
	assert.NoError(t, err)
	assert.Equal(t, int64(42), seq)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCounterRepository_Next_CreatesFirstRow(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewCounterRepository(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "counters" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO "counters"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	seq, err := repo.Next(ctx, "NEW")
	assert.NoError(t, err)
	assert.Equal(t, int64(1), seq)
	assert.NoError(t, mock.ExpectationsWereMet())
}
