package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

const (
	testNativeID   = "64a1f2e3c4b5a69788990011"
	testExternalID = "aB3dE5fG7hJ9kL1mN3pQ5rS7tU9w"
)

func TestUserRepository_GetByExternalID(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "external_id", "email", "username"}).
			AddRow(testNativeID, testExternalID, "dev@example.com", "devuser")
		mock.ExpectQuery(`SELECT (.+) FROM "users" WHERE external_id =`).
			WillReturnRows(rows)

		user, err := repo.GetByExternalID(ctx, testExternalID)
		assert.NoError(t, err)
		if assert.NotNil(t, user) {
			assert.Equal(t, testNativeID, user.ID)
			assert.Equal(t, "devuser", user.Username)
		}
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM "users" WHERE external_id =`).
			WillReturnError(gorm.ErrRecordNotFound)

		user, err := repo.GetByExternalID(ctx, testExternalID)
		assert.Error(t, err)
		assert.Nil(t, user)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_Resolve(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	t.Run("Native ID hits primary key lookup", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "email"}).
			AddRow(testNativeID, "dev@example.com")
		mock.ExpectQuery(`SELECT (.+) FROM "users" WHERE id =`).
			WillReturnRows(rows)

		user, err := repo.Resolve(ctx, testNativeID)
		assert.NoError(t, err)
		if assert.NotNil(t, user) {
			assert.Equal(t, testNativeID, user.ID)
		}
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("External ID hits external lookup", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "external_id"}).
			AddRow(testNativeID, testExternalID)
		mock.ExpectQuery(`SELECT (.+) FROM "users" WHERE external_id =`).
			WillReturnRows(rows)

		user, err := repo.Resolve(ctx, testExternalID)
		assert.NoError(t, err)
		assert.NotNil(t, user)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Garbage identifier rejected without a query", func(t *testing.T) {
		user, err := repo.Resolve(ctx, "not-an-id")
		assert.Error(t, err)
		assert.Nil(t, user)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
