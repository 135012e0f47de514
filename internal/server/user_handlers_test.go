package server

import (
	"net/http"
	"testing"

	"bugtrail/internal/models"
	"bugtrail/internal/standardize"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func userTestApp(s *Server, userID string) *fiber.App {
	app := fiber.New()
	users := app.Group("/api/users", asUser(userID))
	users.Post("/check-username", s.CheckUsername)
	users.Post("/complete-onboarding", s.CompleteOnboarding)
	users.Put("/update-profile", s.UpdateProfile)
	users.Get("/leaderboard", s.Leaderboard)
	users.Post("/award-points", s.AwardPoints)
	users.Get("/points-history", s.PointsHistory)

	bugs := app.Group("/api/bugs", asUser(userID))
	bugs.Post("/", s.CreateBug)
	return app
}

func TestAwardPoints_AdminOnlyOutsideContributions(t *testing.T) {
	db := setupTestDB(t)
	s := newTestServer(t, db, &stubVerifier{})
	admin := createTestUser(t, db, "admin", models.RoleAdmin)
	dev := createTestUser(t, db, "dev", models.RoleDeveloper)
	project := createTestProject(t, db, admin, "AWD")

	adminApp := userTestApp(s, admin.ID)
	devApp := userTestApp(s, dev.ID)

	status, env := doJSON(t, adminApp, http.MethodPost, "/api/bugs/", map[string]string{
		"title":      "Points fixture",
		"project_id": project.ID,
	})
	assert.Equal(t, http.StatusCreated, status)
	var bug standardize.BugView
	dataField(t, env, "bug", &bug)

	// A developer cannot hand out arbitrary awards.
	status, env = doJSON(t, devApp, http.MethodPost, "/api/users/award-points",
		map[string]interface{}{
			"user_id": dev.ID,
			"points":  500,
			"reason":  "bug_resolved",
		})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, models.CodeForbidden, env.Code)

	// A bug-scoped contribution bonus is allowed for anyone.
	status, env = doJSON(t, devApp, http.MethodPost, "/api/users/award-points",
		map[string]interface{}{
			"bug_id": bug.Key,
			"points": 15,
			"reason": "contribution",
		})
	assert.Equal(t, http.StatusOK, status)

	var newTotal int
	dataField(t, env, "new_total", &newTotal)
	assert.Equal(t, 15, newTotal)

	// The ledger dedup rejects a second identical contribution.
	status, env = doJSON(t, devApp, http.MethodPost, "/api/users/award-points",
		map[string]interface{}{
			"bug_id": bug.Key,
			"points": 15,
			"reason": "contribution",
		})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, models.CodeDuplicateAward, env.Code)

	// Admins may award any reason to any user.
	status, env = doJSON(t, adminApp, http.MethodPost, "/api/users/award-points",
		map[string]interface{}{
			"user_id": dev.ID,
			"bug_id":  bug.ID,
			"points":  25,
			"reason":  "bug_resolved",
			"note":    "manual correction",
		})
	assert.Equal(t, http.StatusOK, status)
	dataField(t, env, "new_total", &newTotal)
	assert.Equal(t, 40, newTotal)
}

func TestPointsHistory_ReflectsAwards(t *testing.T) {
	db := setupTestDB(t)
	s := newTestServer(t, db, &stubVerifier{})
	reporter := createTestUser(t, db, "reporter", models.RoleDeveloper)
	project := createTestProject(t, db, reporter, "HIS")

	app := userTestApp(s, reporter.ID)

	status, _ := doJSON(t, app, http.MethodPost, "/api/bugs/", map[string]string{
		"title":      "History fixture",
		"project_id": project.ID,
	})
	assert.Equal(t, http.StatusCreated, status)

	status, env := doJSON(t, app, http.MethodGet, "/api/users/points-history", nil)
	assert.Equal(t, http.StatusOK, status)

	var entries []standardize.PointsEntryView
	dataField(t, env, "entries", &entries)
	assert.Len(t, entries, 1)
	assert.Equal(t, "bug_reported", entries[0].Reason)
	assert.Equal(t, 10, entries[0].Points)

	var pointsTotal int
	dataField(t, env, "points_total", &pointsTotal)
	assert.Equal(t, 10, pointsTotal)
}

func TestLeaderboard_OrderedByPoints(t *testing.T) {
	db := setupTestDB(t)
	s := newTestServer(t, db, &stubVerifier{})
	low := createTestUser(t, db, "low", models.RoleDeveloper)
	high := createTestUser(t, db, "high", models.RoleDeveloper)
	db.Model(low).UpdateColumn("points_total", 5)
	db.Model(high).UpdateColumn("points_total", 50)

	app := userTestApp(s, low.ID)

	status, env := doJSON(t, app, http.MethodGet, "/api/users/leaderboard?limit=2", nil)
	assert.Equal(t, http.StatusOK, status)

	var board []standardize.UserView
	dataField(t, env, "leaderboard", &board)
	assert.Len(t, board, 2)
	assert.Equal(t, "high", board[0].Username)
	assert.Equal(t, "low", board[1].Username)
}

func TestCheckUsername_HTTP(t *testing.T) {
	db := setupTestDB(t)
	s := newTestServer(t, db, &stubVerifier{})
	createTestUser(t, db, "taken", models.RoleDeveloper)
	caller := createTestUser(t, db, "caller", models.RoleDeveloper)

	app := userTestApp(s, caller.ID)

	status, env := doJSON(t, app, http.MethodPost, "/api/users/check-username",
		map[string]string{"username": "fresh_name"})
	assert.Equal(t, http.StatusOK, status)

	var available bool
	dataField(t, env, "available", &available)
	assert.True(t, available)

	status, env = doJSON(t, app, http.MethodPost, "/api/users/check-username",
		map[string]string{"username": "taken"})
	assert.Equal(t, http.StatusOK, status)
	dataField(t, env, "available", &available)
	assert.False(t, available)
}
