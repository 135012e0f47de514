package server

import (
	"encoding/json"
	"net/http"
	"testing"

	"bugtrail/internal/models"
	"bugtrail/internal/standardize"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboard_Summary(t *testing.T) {
	db := setupTestDB(t)
	s := newTestServer(t, db, &stubVerifier{})
	dev := createTestUser(t, db, "dev", models.RoleDeveloper)
	project := createTestProject(t, db, dev, "DSH")

	app := fiber.New()
	app.Get("/api/dashboard", asUser(dev.ID), s.Dashboard)
	app.Post("/api/bugs/", asUser(dev.ID), s.CreateBug)
	app.Put("/api/bugs/:identifier", asUser(dev.ID), s.UpdateBug)

	status, env := doJSON(t, app, http.MethodPost, "/api/bugs/", map[string]string{
		"title":      "Dashboard fixture A",
		"project_id": project.ID,
	})
	assert.Equal(t, http.StatusCreated, status)
	var bug standardize.BugView
	dataField(t, env, "bug", &bug)

	status, _ = doJSON(t, app, http.MethodPost, "/api/bugs/", map[string]string{
		"title":      "Dashboard fixture B",
		"project_id": project.ID,
	})
	assert.Equal(t, http.StatusCreated, status)

	status, _ = doJSON(t, app, http.MethodPut, "/api/bugs/"+bug.Key, map[string]string{
		"status": "resolved",
	})
	assert.Equal(t, http.StatusOK, status)

	status, env = doJSON(t, app, http.MethodGet, "/api/dashboard", nil)
	assert.Equal(t, http.StatusOK, status)

	var counts map[string]int64
	dataField(t, env, "bugs", &counts)
	assert.Equal(t, int64(1), counts["open"])
	assert.Equal(t, int64(1), counts["resolved"])

	var points standardize.Points
	dataField(t, env, "points", &points)
	// Two reports plus a self-resolution.
	assert.Equal(t, 45, points.Total)

	raw, ok := env.Data["recent_activity"]
	require.True(t, ok)
	var activity []standardize.ActivityView
	require.NoError(t, json.Unmarshal(raw, &activity))
	assert.NotEmpty(t, activity)
}
