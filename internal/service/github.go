package service

import (
	"context"
	"strings"
	"time"

	"bugtrail/internal/cache"
	"bugtrail/internal/featureflags"
	"bugtrail/internal/middleware"
	"bugtrail/internal/models"
	"bugtrail/internal/observability"
	"bugtrail/internal/realtime"
	"bugtrail/internal/repository"

	"gorm.io/gorm"
)

// LinkRepoInput describes the GitHub repository attached to a bug.
type LinkRepoInput struct {
	Owner string `json:"owner"`
	Repo  string `json:"repo"`
	URL   string `json:"url"`
}

// RecordForkInput records a fork created to work on a bug.
type RecordForkInput struct {
	ForkURL string `json:"fork_url"`
}

// RecordPullRequestInput records a PR opened against a bug.
type RecordPullRequestInput struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	URL    string `json:"url"`
	State  string `json:"state"`
}

// GitHubActivity bundles a bug's forks and pull requests.
type GitHubActivity struct {
	Forks        []models.Fork        `json:"forks"`
	PullRequests []models.PullRequest `json:"pull_requests"`
}

// GitHubService keeps fork and pull-request bookkeeping for bugs.
type GitHubService struct {
	db       *gorm.DB
	bugs     repository.BugRepository
	points   *PointsService
	client   RepoMetadataClient
	flags    *featureflags.Manager
	notifier realtime.Publisher
}

// NewGitHubService creates a new GitHub service instance. client may be nil
// when no GitHub token is configured; metadata enrichment is then skipped.
func NewGitHubService(db *gorm.DB, bugs repository.BugRepository, points *PointsService,
	client RepoMetadataClient, flags *featureflags.Manager, notifier realtime.Publisher) *GitHubService {
	if notifier == nil {
		notifier = realtime.NewNotifier(nil)
	}
	return &GitHubService{
		db:       db,
		bugs:     bugs,
		points:   points,
		client:   client,
		flags:    flags,
		notifier: notifier,
	}
}

func (s *GitHubService) enabled(userID string) bool {
	return s.flags.Enabled(featureflags.GitHubIntegration, userID)
}

// LinkRepo attaches a repository descriptor to the bug. When a metadata
// client is available the stars and default branch are fetched best-effort;
// a fetch failure never blocks the link.
func (s *GitHubService) LinkRepo(ctx context.Context, actor *models.User, bugRef string, in LinkRepoInput) (*models.Bug, error) {
	if !s.enabled(actor.ID) {
		return nil, models.NewForbiddenError("GitHub integration is not enabled")
	}
	if in.Owner == "" || in.Repo == "" {
		return nil, models.NewValidationError("owner and repo are required")
	}

	bug, err := s.bugs.Resolve(ctx, bugRef)
	if err != nil {
		return nil, err
	}

	repo := models.LinkedRepo{
		Owner: in.Owner,
		Name:  in.Repo,
		URL:   in.URL,
	}
	if repo.URL == "" {
		repo.URL = "https://github.com/" + in.Owner + "/" + in.Repo
	}

	if s.client != nil {
		info, err := s.client.GetRepo(ctx, in.Owner, in.Repo)
		if err != nil {
			middleware.Logger.WarnContext(ctx, "GitHub metadata fetch failed",
				"owner", in.Owner, "repo", in.Repo, "error", err)
		} else {
			repo.Stars = info.Stars
			repo.DefaultBranch = info.DefaultBranch
			if info.HTMLURL != "" {
				repo.URL = info.HTMLURL
			}
		}
	}

	err = s.db.WithContext(ctx).Model(&models.Bug{}).Where("id = ?", bug.ID).
		Updates(map[string]interface{}{
			"linked_repo_owner":          repo.Owner,
			"linked_repo_name":           repo.Name,
			"linked_repo_url":            repo.URL,
			"linked_repo_default_branch": repo.DefaultBranch,
			"linked_repo_stars":          repo.Stars,
		}).Error
	if err != nil {
		return nil, err
	}

	s.notifier.Publish(ctx, realtime.Event{
		BugID:   bug.ID,
		BugKey:  bug.Key,
		Action:  "repo_linked",
		ActorID: actor.ID,
		Detail:  repo.Owner + "/" + repo.Name,
	})

	return s.bugs.GetByID(ctx, bug.ID)
}

// RecordFork stores a fork record and awards a contribution bonus, deduped
// per (bug, user). The fork row and the ledger mutation commit together.
func (s *GitHubService) RecordFork(ctx context.Context, actor *models.User, bugRef string, in RecordForkInput) (*models.Fork, error) {
	if !s.enabled(actor.ID) {
		return nil, models.NewForbiddenError("GitHub integration is not enabled")
	}
	if strings.TrimSpace(in.ForkURL) == "" {
		return nil, models.NewValidationError("fork_url is required")
	}

	bug, err := s.bugs.Resolve(ctx, bugRef)
	if err != nil {
		return nil, err
	}

	fork := &models.Fork{
		BugID:   bug.ID,
		UserID:  actor.ID,
		ForkURL: strings.TrimSpace(in.ForkURL),
	}

	awarded := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(fork).Error; err != nil {
			return err
		}

		activity := models.ActivityEntry{
			BugID:   bug.ID,
			ActorID: actor.ID,
			Action:  "forked",
			Detail:  fork.ForkURL,
		}
		if err := tx.Create(&activity).Error; err != nil {
			return err
		}

		_, err := s.points.AwardTx(tx, AwardInput{
			UserID: actor.ID,
			BugID:  bug.ID,
			Reason: models.ReasonContribution,
			Points: models.PointsForkRecorded,
			Note:   "Fork contribution on " + bug.Key,
		})
		if err != nil {
			if isDuplicateAward(err) {
				return nil
			}
			return err
		}
		awarded = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if awarded {
		observability.PointsAwardsTotal.WithLabelValues(string(models.ReasonContribution)).Inc()
		cache.InvalidateUser(ctx, actor.ID)
	}

	s.notifier.Publish(ctx, realtime.Event{
		BugID:   bug.ID,
		BugKey:  bug.Key,
		Action:  "forked",
		ActorID: actor.ID,
		Detail:  fork.ForkURL,
	})

	return fork, nil
}

// RecordPullRequest stores a PR opened against the bug.
func (s *GitHubService) RecordPullRequest(ctx context.Context, actor *models.User, bugRef string, in RecordPullRequestInput) (*models.PullRequest, error) {
	if !s.enabled(actor.ID) {
		return nil, models.NewForbiddenError("GitHub integration is not enabled")
	}
	if in.Number <= 0 {
		return nil, models.NewValidationError("a positive PR number is required")
	}
	state := in.State
	if state == "" {
		state = string(models.PROpen)
	}
	if !models.ValidPullRequestState(state) {
		return nil, models.NewValidationError("unknown pull request state: " + state)
	}

	bug, err := s.bugs.Resolve(ctx, bugRef)
	if err != nil {
		return nil, err
	}

	pr := &models.PullRequest{
		BugID:    bug.ID,
		Number:   in.Number,
		Title:    in.Title,
		URL:      in.URL,
		State:    models.PullRequestState(state),
		AuthorID: actor.ID,
	}
	if pr.State == models.PRMerged {
		now := time.Now().UTC()
		pr.MergedAt = &now
	}

	if err := s.db.WithContext(ctx).Create(pr).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, models.NewValidationError("pull request already recorded for this bug")
		}
		return nil, err
	}

	s.notifier.Publish(ctx, realtime.Event{
		BugID:   bug.ID,
		BugKey:  bug.Key,
		Action:  "pull_request_opened",
		ActorID: actor.ID,
		Detail:  pr.URL,
	})

	return pr, nil
}

// UpdatePullRequest changes a recorded PR's state. Merged PRs stamp merged_at.
func (s *GitHubService) UpdatePullRequest(ctx context.Context, actor *models.User, bugRef string, number int, state string) (*models.PullRequest, error) {
	if !s.enabled(actor.ID) {
		return nil, models.NewForbiddenError("GitHub integration is not enabled")
	}
	if !models.ValidPullRequestState(state) {
		return nil, models.NewValidationError("unknown pull request state: " + state)
	}

	bug, err := s.bugs.Resolve(ctx, bugRef)
	if err != nil {
		return nil, err
	}

	var pr models.PullRequest
	if err := s.db.WithContext(ctx).First(&pr, "bug_id = ? AND number = ?", bug.ID, number).Error; err != nil {
		return nil, models.NewNotFoundError("PullRequest", number)
	}

	pr.State = models.PullRequestState(state)
	if pr.State == models.PRMerged && pr.MergedAt == nil {
		now := time.Now().UTC()
		pr.MergedAt = &now
	}

	if err := s.db.WithContext(ctx).Save(&pr).Error; err != nil {
		return nil, err
	}

	s.notifier.Publish(ctx, realtime.Event{
		BugID:   bug.ID,
		BugKey:  bug.Key,
		Action:  "pull_request_" + state,
		ActorID: actor.ID,
		Detail:  pr.URL,
	})

	return &pr, nil
}

// Activity returns the bug's forks and pull requests.
func (s *GitHubService) Activity(ctx context.Context, bugRef string) (*GitHubActivity, error) {
	bug, err := s.bugs.Resolve(ctx, bugRef)
	if err != nil {
		return nil, err
	}

	activity := &GitHubActivity{
		Forks:        []models.Fork{},
		PullRequests: []models.PullRequest{},
	}
	if err := s.db.WithContext(ctx).Preload("User").
		Where("bug_id = ?", bug.ID).Order("created_at ASC").
		Find(&activity.Forks).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Preload("Author").
		Where("bug_id = ?", bug.ID).Order("number ASC").
		Find(&activity.PullRequests).Error; err != nil {
		return nil, err
	}
	return activity, nil
}
