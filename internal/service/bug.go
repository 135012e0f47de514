package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bugtrail/internal/cache"
	"bugtrail/internal/models"
	"bugtrail/internal/observability"
	"bugtrail/internal/realtime"
	"bugtrail/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateBugInput carries the fields accepted when reporting a bug.
type CreateBugInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ProjectID   string `json:"project_id"`
	Priority    string `json:"priority"`
	Severity    string `json:"severity"`
	Category    string `json:"category"`
}

// UpdateBugInput carries the mutable bug fields. Pointer fields distinguish
// "not sent" from "clear".
type UpdateBugInput struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	Priority    *string `json:"priority"`
	Severity    *string `json:"severity"`
	Category    *string `json:"category"`
	AssigneeID  *string `json:"assignee_id"`
	Resolution  *string `json:"resolution"`
}

// CommentInput carries a new comment. A resolution comment earns the author a
// helpful-comment award, deduped per bug.
type CommentInput struct {
	Content      string `json:"content"`
	IsResolution bool   `json:"is_resolution"`
}

// BugService implements the bug lifecycle on top of the repositories and the
// points ledger.
type BugService struct {
	db       *gorm.DB
	bugs     repository.BugRepository
	projects repository.ProjectRepository
	counters repository.CounterRepository
	points   *PointsService
	notifier realtime.Publisher
}

// NewBugService creates a new bug service instance.
func NewBugService(db *gorm.DB, bugs repository.BugRepository, projects repository.ProjectRepository,
	counters repository.CounterRepository, points *PointsService, notifier realtime.Publisher) *BugService {
	if notifier == nil {
		notifier = realtime.NewNotifier(nil)
	}
	return &BugService{
		db:       db,
		bugs:     bugs,
		projects: projects,
		counters: counters,
		points:   points,
		notifier: notifier,
	}
}

// Create reports a new bug. The human key comes from the project counter; the
// bug row, the activity entry, the project stats bump and the reporter's
// bug_reported award commit in one transaction.
func (s *BugService) Create(ctx context.Context, reporterID string, in CreateBugInput) (*models.Bug, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, models.NewValidationError("title is required")
	}
	if in.ProjectID == "" {
		return nil, models.NewValidationError("project_id is required")
	}
	if in.Priority != "" && !models.ValidBugPriority(in.Priority) {
		return nil, models.NewValidationError("unknown priority: " + in.Priority)
	}

	project, err := s.projects.GetByID(ctx, in.ProjectID)
	if err != nil {
		return nil, err
	}

	// The counter increment sits outside the bug transaction on purpose: a
	// rolled-back bug burns a sequence number but two concurrent reports can
	// never mint the same key.
	seq, err := s.counters.Next(ctx, project.Key)
	if err != nil {
		return nil, err
	}

	bug := &models.Bug{
		Key:         fmt.Sprintf("%s-%03d", project.Key, seq),
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		ProjectID:   project.ID,
		Status:      models.BugOpen,
		Priority:    models.BugPriority(in.Priority),
		Severity:    in.Severity,
		Category:    in.Category,
		ReporterID:  reporterID,
	}
	if bug.Priority == "" {
		bug.Priority = models.PriorityMedium
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(bug).Error; err != nil {
			return err
		}

		activity := models.ActivityEntry{
			BugID:   bug.ID,
			ActorID: reporterID,
			Action:  "reported",
			Detail:  bug.Key,
		}
		if err := tx.Create(&activity).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Project{}).Where("id = ?", project.ID).
			UpdateColumns(map[string]interface{}{
				"bugs_total": gorm.Expr("bugs_total + 1"),
				"bugs_open":  gorm.Expr("bugs_open + 1"),
			}).Error; err != nil {
			return err
		}

		_, err := s.points.AwardTx(tx, AwardInput{
			UserID: reporterID,
			BugID:  bug.ID,
			Reason: models.ReasonBugReported,
			Points: models.PointsBugReported,
			Note:   "Reported " + bug.Key,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	observability.BugsCreatedTotal.Inc()
	observability.PointsAwardsTotal.WithLabelValues(string(models.ReasonBugReported)).Inc()
	cache.InvalidateUser(ctx, reporterID)
	cache.InvalidateProject(ctx, project.ID)

	s.notifier.Publish(ctx, realtime.Event{
		BugID:   bug.ID,
		BugKey:  bug.Key,
		Action:  "reported",
		ActorID: reporterID,
		Detail:  bug.Title,
	})

	return s.bugs.GetByID(ctx, bug.ID)
}

// Get resolves a bug by native ID or human key.
func (s *BugService) Get(ctx context.Context, raw string) (*models.Bug, error) {
	return s.bugs.Resolve(ctx, raw)
}

// List returns bugs matching the filter.
func (s *BugService) List(ctx context.Context, filter repository.BugFilter) ([]models.Bug, int64, error) {
	return s.bugs.List(ctx, filter)
}

// openStatus reports whether the status counts against a project's open bugs.
func openStatus(status models.BugStatus) bool {
	return status == models.BugOpen || status == models.BugInProgress
}

// Update applies field changes. Only the reporter, the assignee, the project
// owner or an admin may modify a bug. A transition to resolved stamps the
// resolver and awards bug_resolved in the same transaction; a repeat
// resolution (reopen then resolve again) keeps the transition but skips the
// already-granted award.
func (s *BugService) Update(ctx context.Context, actor *models.User, raw string, in UpdateBugInput) (*models.Bug, error) {
	bug, err := s.bugs.Resolve(ctx, raw)
	if err != nil {
		return nil, err
	}

	if !s.canModify(ctx, actor, bug) {
		return nil, models.NewForbiddenError("you do not have permission to modify this bug")
	}

	if in.Status != nil && !models.ValidBugStatus(*in.Status) {
		return nil, models.NewValidationError("unknown status: " + *in.Status)
	}
	if in.Priority != nil && !models.ValidBugPriority(*in.Priority) {
		return nil, models.NewValidationError("unknown priority: " + *in.Priority)
	}
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return nil, models.NewValidationError("title cannot be empty")
	}

	prevStatus := bug.Status
	var activities []models.ActivityEntry
	note := func(action, detail string) {
		activities = append(activities, models.ActivityEntry{
			BugID:   bug.ID,
			ActorID: actor.ID,
			Action:  action,
			Detail:  detail,
		})
	}

	if in.Title != nil && *in.Title != bug.Title {
		bug.Title = strings.TrimSpace(*in.Title)
		note("updated", "title changed")
	}
	if in.Description != nil {
		bug.Description = *in.Description
	}
	if in.Priority != nil && models.BugPriority(*in.Priority) != bug.Priority {
		bug.Priority = models.BugPriority(*in.Priority)
		note("reprioritized", *in.Priority)
	}
	if in.Severity != nil {
		bug.Severity = *in.Severity
	}
	if in.Category != nil {
		bug.Category = *in.Category
	}
	if in.Resolution != nil {
		bug.Resolution = *in.Resolution
	}
	if in.AssigneeID != nil {
		if *in.AssigneeID == "" {
			bug.AssigneeID = nil
			note("unassigned", "")
		} else {
			id := *in.AssigneeID
			bug.AssigneeID = &id
			note("assigned", id)
		}
	}

	resolvedNow := false
	if in.Status != nil && models.BugStatus(*in.Status) != prevStatus {
		newStatus := models.BugStatus(*in.Status)
		bug.Status = newStatus
		note("status_changed", string(newStatus))

		now := time.Now().UTC()
		switch newStatus {
		case models.BugResolved:
			bug.ResolvedAt = &now
			bug.ResolvedByID = &actor.ID
			resolvedNow = true
		case models.BugClosed:
			bug.ClosedAt = &now
		default:
			// Reopened.
			bug.ResolvedAt = nil
			bug.ResolvedByID = nil
			bug.ClosedAt = nil
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The resolved bug carries preloaded relations; keep the save scoped
		// to the bug row itself.
		if err := tx.Omit(clause.Associations).Save(bug).Error; err != nil {
			return err
		}
		for i := range activities {
			if err := tx.Create(&activities[i]).Error; err != nil {
				return err
			}
		}

		if in.Status != nil && bug.Status != prevStatus {
			if err := s.adjustProjectStats(tx, bug.ProjectID, prevStatus, bug.Status); err != nil {
				return err
			}
		}

		if resolvedNow {
			_, err := s.points.AwardTx(tx, AwardInput{
				UserID: actor.ID,
				BugID:  bug.ID,
				Reason: models.ReasonBugResolved,
				Points: models.PointsBugResolved,
				Note:   "Resolved " + bug.Key,
			})
			if err != nil && !isDuplicateAward(err) {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if in.Status != nil && bug.Status != prevStatus {
		observability.BugStatusTransitions.WithLabelValues(string(bug.Status)).Inc()
	}
	cache.InvalidateUser(ctx, actor.ID)
	cache.InvalidateProject(ctx, bug.ProjectID)

	for _, a := range activities {
		s.notifier.Publish(ctx, realtime.Event{
			BugID:   bug.ID,
			BugKey:  bug.Key,
			Action:  a.Action,
			ActorID: actor.ID,
			Detail:  a.Detail,
		})
	}

	return s.bugs.GetByID(ctx, bug.ID)
}

// Delete removes a bug. Reporter or admin only.
func (s *BugService) Delete(ctx context.Context, actor *models.User, raw string) error {
	bug, err := s.bugs.Resolve(ctx, raw)
	if err != nil {
		return err
	}
	if bug.ReporterID != actor.ID && !actor.IsAdmin() {
		return models.NewForbiddenError("only the reporter or an admin can delete a bug")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&models.Bug{}, "id = ?", bug.ID)
		if result.Error != nil {
			return result.Error
		}
		updates := map[string]interface{}{
			"bugs_total": gorm.Expr("bugs_total - 1"),
		}
		if openStatus(bug.Status) {
			updates["bugs_open"] = gorm.Expr("bugs_open - 1")
		} else {
			updates["bugs_closed"] = gorm.Expr("bugs_closed - 1")
		}
		return tx.Model(&models.Project{}).Where("id = ?", bug.ProjectID).
			UpdateColumns(updates).Error
	})
	if err != nil {
		return err
	}

	cache.InvalidateProject(ctx, bug.ProjectID)
	return nil
}

// AddComment appends a comment to the bug's thread. A resolution comment
// carries a helpful-comment award to its author, committed with the comment;
// a repeat resolution comment posts without a second award.
func (s *BugService) AddComment(ctx context.Context, author *models.User, raw string, in CommentInput) (*models.Comment, error) {
	if strings.TrimSpace(in.Content) == "" {
		return nil, models.NewValidationError("content is required")
	}

	bug, err := s.bugs.Resolve(ctx, raw)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		BugID:        bug.ID,
		AuthorID:     author.ID,
		Content:      strings.TrimSpace(in.Content),
		IsResolution: in.IsResolution,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(comment).Error; err != nil {
			return err
		}

		activity := models.ActivityEntry{
			BugID:   bug.ID,
			ActorID: author.ID,
			Action:  "commented",
		}
		if err := tx.Create(&activity).Error; err != nil {
			return err
		}

		if !in.IsResolution {
			return nil
		}

		_, err := s.points.AwardTx(tx, AwardInput{
			UserID: author.ID,
			BugID:  bug.ID,
			Reason: models.ReasonCommentHelpful,
			Points: models.PointsCommentHelpful,
			Note:   "Helpful comment on " + bug.Key,
		})
		if err != nil {
			if isDuplicateAward(err) {
				return nil
			}
			return err
		}

		comment.PointsAwarded = models.PointsCommentHelpful
		return tx.Model(&models.Comment{}).Where("id = ?", comment.ID).
			UpdateColumn("points_awarded", models.PointsCommentHelpful).Error
	})
	if err != nil {
		return nil, err
	}

	if comment.PointsAwarded > 0 {
		observability.PointsAwardsTotal.WithLabelValues(string(models.ReasonCommentHelpful)).Inc()
		cache.InvalidateUser(ctx, author.ID)
	}

	s.notifier.Publish(ctx, realtime.Event{
		BugID:   bug.ID,
		BugKey:  bug.Key,
		Action:  "commented",
		ActorID: author.ID,
	})

	return comment, nil
}

// Comments lists a bug's thread.
func (s *BugService) Comments(ctx context.Context, raw string) ([]models.Comment, error) {
	bug, err := s.bugs.Resolve(ctx, raw)
	if err != nil {
		return nil, err
	}
	return s.bugs.Comments(ctx, bug.ID)
}

func (s *BugService) canModify(ctx context.Context, actor *models.User, bug *models.Bug) bool {
	if actor.IsAdmin() || bug.ReporterID == actor.ID {
		return true
	}
	if bug.AssigneeID != nil && *bug.AssigneeID == actor.ID {
		return true
	}
	project, err := s.projects.GetByID(ctx, bug.ProjectID)
	if err != nil {
		return false
	}
	return project.OwnerID == actor.ID
}

func (s *BugService) adjustProjectStats(tx *gorm.DB, projectID string, from, to models.BugStatus) error {
	wasOpen, isOpen := openStatus(from), openStatus(to)
	if wasOpen == isOpen {
		return nil
	}

	var updates map[string]interface{}
	if wasOpen {
		updates = map[string]interface{}{
			"bugs_open":   gorm.Expr("bugs_open - 1"),
			"bugs_closed": gorm.Expr("bugs_closed + 1"),
		}
	} else {
		updates = map[string]interface{}{
			"bugs_open":   gorm.Expr("bugs_open + 1"),
			"bugs_closed": gorm.Expr("bugs_closed - 1"),
		}
	}
	return tx.Model(&models.Project{}).Where("id = ?", projectID).UpdateColumns(updates).Error
}

func isDuplicateAward(err error) bool {
	var appErr *models.AppError
	return errors.As(err, &appErr) && appErr.Code == models.CodeDuplicateAward
}
