package server

import (
	"net/http"
	"testing"

	"bugtrail/internal/models"
	"bugtrail/internal/standardize"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func githubTestApp(s *Server, userID string) *fiber.App {
	app := fiber.New()
	github := app.Group("/api/github", asUser(userID))
	github.Post("/link-repo/:bugId", s.LinkRepo)
	github.Post("/fork/:bugId", s.RecordFork)
	github.Post("/pull-request/:bugId", s.RecordPullRequest)
	github.Put("/pull-request/:bugId/:prNumber", s.UpdatePullRequest)
	github.Get("/activity/:bugId", s.GitHubActivity)

	bugs := app.Group("/api/bugs", asUser(userID))
	bugs.Post("/", s.CreateBug)
	return app
}

func TestGitHubFlow_ForkAndPullRequest(t *testing.T) {
	db := setupTestDB(t)
	s := newTestServer(t, db, &stubVerifier{})
	dev := createTestUser(t, db, "dev", models.RoleDeveloper)
	project := createTestProject(t, db, dev, "GH")

	app := githubTestApp(s, dev.ID)

	status, env := doJSON(t, app, http.MethodPost, "/api/bugs/", map[string]string{
		"title":      "Fixable upstream",
		"project_id": project.ID,
	})
	assert.Equal(t, http.StatusCreated, status)
	var bug standardize.BugView
	dataField(t, env, "bug", &bug)

	// Link without a metadata client still records owner/repo and a default URL.
	status, env = doJSON(t, app, http.MethodPost, "/api/github/link-repo/"+bug.Key,
		map[string]string{"owner": "acme", "repo": "mobile-app"})
	assert.Equal(t, http.StatusOK, status)
	dataField(t, env, "bug", &bug)
	assert.Equal(t, "acme", bug.LinkedRepo.Owner)
	assert.True(t, bug.LinkedRepo.Linked)

	status, env = doJSON(t, app, http.MethodPost, "/api/github/fork/"+bug.Key,
		map[string]string{"fork_url": "https://github.com/dev/mobile-app"})
	assert.Equal(t, http.StatusCreated, status)

	var fork standardize.ForkView
	dataField(t, env, "fork", &fork)
	assert.Equal(t, dev.ID, fork.UserID)

	status, env = doJSON(t, app, http.MethodPost, "/api/github/pull-request/"+bug.Key,
		map[string]interface{}{
			"number": 42,
			"title":  "Fix crash on login",
			"url":    "https://github.com/acme/mobile-app/pull/42",
		})
	assert.Equal(t, http.StatusCreated, status)

	var pr standardize.PullRequestView
	dataField(t, env, "pull_request", &pr)
	assert.Equal(t, "open", pr.State)

	status, env = doJSON(t, app, http.MethodPut, "/api/github/pull-request/"+bug.Key+"/42",
		map[string]string{"state": "merged"})
	assert.Equal(t, http.StatusOK, status)
	dataField(t, env, "pull_request", &pr)
	assert.Equal(t, "merged", pr.State)
	assert.NotEmpty(t, pr.MergedAt)

	status, env = doJSON(t, app, http.MethodGet, "/api/github/activity/"+bug.Key, nil)
	assert.Equal(t, http.StatusOK, status)

	var forks []standardize.ForkView
	dataField(t, env, "forks", &forks)
	assert.Len(t, forks, 1)

	var prs []standardize.PullRequestView
	dataField(t, env, "pull_requests", &prs)
	assert.Len(t, prs, 1)
}

func TestUpdatePullRequest_BadNumber(t *testing.T) {
	db := setupTestDB(t)
	s := newTestServer(t, db, &stubVerifier{})
	dev := createTestUser(t, db, "dev", models.RoleDeveloper)

	app := githubTestApp(s, dev.ID)

	status, env := doJSON(t, app, http.MethodPut, "/api/github/pull-request/GH-001/zero",
		map[string]string{"state": "closed"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, models.CodeValidation, env.Code)
}
