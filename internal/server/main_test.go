package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"bugtrail/internal/config"
	"bugtrail/internal/database"
	"bugtrail/internal/featureflags"
	"bugtrail/internal/models"
	"bugtrail/internal/repository"
	"bugtrail/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens an isolated in-memory database with the full schema.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:server_%s?mode=memory&cache=shared", t.Name())
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

// newTestServer wires a Server over an in-memory database without touching
// Redis, Prometheus registration, or outbound HTTP clients.
func newTestServer(t *testing.T, db *gorm.DB, verifier service.GoogleVerifier) *Server {
	t.Helper()

	cfg := &config.Config{
		Port:      "0",
		JWTSecret: "0123456789abcdef0123456789abcdef",
		Env:       "test",
	}

	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	bugRepo := repository.NewBugRepository(db)
	counterRepo := repository.NewCounterRepository(db)
	pointsRepo := repository.NewPointsRepository(db)
	points := service.NewPointsService(db)

	s := &Server{
		config:       cfg,
		db:           db,
		userRepo:     userRepo,
		projectRepo:  projectRepo,
		bugRepo:      bugRepo,
		counterRepo:  counterRepo,
		pointsRepo:   pointsRepo,
		featureFlags: featureflags.NewManager("github_integration=on,activity_feed=on"),
	}
	s.pointsService = points
	s.authService = service.NewAuthService(userRepo, verifier, cfg.JWTSecret)
	s.userService = service.NewUserService(userRepo)
	s.projectService = service.NewProjectService(db, projectRepo)
	s.bugService = service.NewBugService(db, bugRepo, projectRepo, counterRepo, points, nil)
	s.githubService = service.NewGitHubService(db, bugRepo, points, nil, s.featureFlags, nil)
	return s
}

// asUser injects the user ID the way the auth middleware would.
func asUser(userID string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("userID", userID)
		return c.Next()
	}
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
	require.NoError(t, db.Create(&models.ProjectMember{
		ProjectID: project.ID,
		UserID:    owner.ID,
		Role:      models.RoleManager,
	}).Error)
	return project
}

// envelope mirrors the success response shape for assertions.
type envelope struct {
	Success bool                       `json:"success"`
	Message string                     `json:"message"`
	Code    string                     `json:"code"`
	Data    map[string]json.RawMessage `json:"data"`
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func dataField(t *testing.T, env envelope, key string, out interface{}) {
	t.Helper()
	raw, ok := env.Data[key]
	require.True(t, ok, "missing data field %q", key)
	require.NoError(t, json.Unmarshal(raw, out))
}
