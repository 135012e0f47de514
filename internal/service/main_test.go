package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"bugtrail/internal/database"
	"bugtrail/internal/models"
	"bugtrail/internal/realtime"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens an isolated in-memory database with the full schema.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// Shared-cache in-memory databases vanish when the last connection
	// closes; a single connection keeps it alive for the test.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(database.Models()...))

	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, username string, role models.UserRole) *models.User {
	t.Helper()

	ext := (username + "0000000000000000000000000000")[:28]
	user := &models.User{
		ExternalID:          ext,
		Email:               username + "@example.com",
		Name:                username,
		Username:            username,
		Role:                role,
		OnboardingCompleted: true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestProject(t *testing.T, db *gorm.DB, owner *models.User, key string) *models.Project {
	t.Helper()

	project := &models.Project{
		Name:    "Project " + key,
		Key:     key,
		OwnerID: owner.ID,
		Status:  models.ProjectActive,
	}
	require.NoError(t, db.Create(project).Error)
	return project
}

// stubNotifier records published events for assertions.
type stubNotifier struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (s *stubNotifier) Publish(_ context.Context, event realtime.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *stubNotifier) actions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Action)
	}
	return out
}
