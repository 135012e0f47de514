// Package standardize normalizes persisted documents into fixed client-facing
// shapes. Every field gets a deterministic default when absent (empty string
// for text, 0 for numeric aggregates, empty list for collections, null for
// optional relations) and every date is rendered as RFC3339 UTC. This is the
// only place defaults are decided; handlers never branch on field presence.
package standardize

import (
	"time"

	"bugtrail/internal/models"
)

// Timestamp renders a time as RFC3339 UTC, or "" for the zero time.
func Timestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// TimestampPtr renders an optional time, defaulting to "".
func TimestampPtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return Timestamp(*t)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Breakdown is the fixed points-breakdown shape.
type Breakdown struct {
	BugsReported  int `json:"bugs_reported"`
	BugsResolved  int `json:"bugs_resolved"`
	Comments      int `json:"comments"`
	Contributions int `json:"contributions"`
}

// Points is the fixed points-aggregate shape.
type Points struct {
	Total     int       `json:"total"`
	Earned    int       `json:"earned"`
	Spent     int       `json:"spent"`
	Breakdown Breakdown `json:"breakdown"`
}

// UserView is the client-facing user shape.
type UserView struct {
	ID                  string `json:"id"`
	Email               string `json:"email"`
	Name                string `json:"name"`
	Username            string `json:"username"`
	Industry            string `json:"industry"`
	Phone               string `json:"phone"`
	AvatarURL           string `json:"avatar_url"`
	Role                string `json:"role"`
	OnboardingCompleted bool   `json:"onboarding_completed"`
	Points              Points `json:"points"`
	CreatedAt           string `json:"created_at"`
	UpdatedAt           string `json:"updated_at"`
}

// User maps a user document to its fixed shape. A nil input yields nil so
// optional relations serialize as JSON null.
func User(u *models.User) *UserView {
	if u == nil {
		return nil
	}
	role := string(u.Role)
	if role == "" {
		role = string(models.RoleDeveloper)
	}
	return &UserView{
		ID:                  u.ID,
		Email:               u.Email,
		Name:                u.Name,
		Username:            u.Username,
		Industry:            u.Industry,
		Phone:               u.Phone,
		AvatarURL:           u.AvatarURL,
		Role:                role,
		OnboardingCompleted: u.OnboardingCompleted,
		Points: Points{
			Total:  u.PointsTotal,
			Earned: u.PointsEarned,
			Spent:  u.PointsSpent,
			Breakdown: Breakdown{
				BugsReported:  u.Breakdown.BugsReported,
				BugsResolved:  u.Breakdown.BugsResolved,
				Comments:      u.Breakdown.Comments,
				Contributions: u.Breakdown.Contributions,
			},
		},
		CreatedAt: Timestamp(u.CreatedAt),
		UpdatedAt: Timestamp(u.UpdatedAt),
	}
}

// ProjectMemberView is the client-facing project membership shape.
type ProjectMemberView struct {
	UserID   string    `json:"user_id"`
	Role     string    `json:"role"`
	User     *UserView `json:"user"`
	JoinedAt string    `json:"joined_at"`
}

// ProjectView is the client-facing project shape.
type ProjectView struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Key         string              `json:"key"`
	Description string              `json:"description"`
	Status      string              `json:"status"`
	Owner       *UserView           `json:"owner"`
	OwnerID     string              `json:"owner_id"`
	Members     []ProjectMemberView `json:"members"`
	BugsTotal   int                 `json:"bugs_total"`
	BugsOpen    int                 `json:"bugs_open"`
	BugsClosed  int                 `json:"bugs_closed"`
	CreatedAt   string              `json:"created_at"`
	UpdatedAt   string              `json:"updated_at"`
}

// Project maps a project document to its fixed shape.
func Project(p *models.Project) *ProjectView {
	if p == nil {
		return nil
	}
	status := string(p.Status)
	if status == "" {
		status = string(models.ProjectActive)
	}
	members := make([]ProjectMemberView, 0, len(p.Members))
	for i := range p.Members {
		m := p.Members[i]
		members = append(members, ProjectMemberView{
			UserID:   m.UserID,
			Role:     string(m.Role),
			User:     User(m.User),
			JoinedAt: Timestamp(m.CreatedAt),
		})
	}
	return &ProjectView{
		ID:          p.ID,
		Name:        p.Name,
		Key:         p.Key,
		Description: p.Description,
		Status:      status,
		Owner:       User(p.Owner),
		OwnerID:     p.OwnerID,
		Members:     members,
		BugsTotal:   p.BugsTotal,
		BugsOpen:    p.BugsOpen,
		BugsClosed:  p.BugsClosed,
		CreatedAt:   Timestamp(p.CreatedAt),
		UpdatedAt:   Timestamp(p.UpdatedAt),
	}
}

// CommentView is the client-facing comment shape.
type CommentView struct {
	ID            uint      `json:"id"`
	BugID         string    `json:"bug_id"`
	Author        *UserView `json:"author"`
	AuthorID      string    `json:"author_id"`
	Content       string    `json:"content"`
	IsResolution  bool      `json:"is_resolution"`
	PointsAwarded int       `json:"points_awarded"`
	CreatedAt     string    `json:"created_at"`
}

// Comment maps a comment document to its fixed shape.
func Comment(c *models.Comment) *CommentView {
	if c == nil {
		return nil
	}
	return &CommentView{
		ID:            c.ID,
		BugID:         c.BugID,
		Author:        User(c.Author),
		AuthorID:      c.AuthorID,
		Content:       c.Content,
		IsResolution:  c.IsResolution,
		PointsAwarded: c.PointsAwarded,
		CreatedAt:     Timestamp(c.CreatedAt),
	}
}

// ActivityView is the client-facing activity entry shape.
type ActivityView struct {
	ID        uint      `json:"id"`
	BugID     string    `json:"bug_id"`
	Actor     *UserView `json:"actor"`
	ActorID   string    `json:"actor_id"`
	Action    string    `json:"action"`
	Detail    string    `json:"detail"`
	CreatedAt string    `json:"created_at"`
}

// Activity maps an activity entry to its fixed shape.
func Activity(a *models.ActivityEntry) *ActivityView {
	if a == nil {
		return nil
	}
	return &ActivityView{
		ID:        a.ID,
		BugID:     a.BugID,
		Actor:     User(a.Actor),
		ActorID:   a.ActorID,
		Action:    a.Action,
		Detail:    a.Detail,
		CreatedAt: Timestamp(a.CreatedAt),
	}
}

// ForkView is the client-facing fork record shape.
type ForkView struct {
	ID        uint      `json:"id"`
	BugID     string    `json:"bug_id"`
	User      *UserView `json:"user"`
	UserID    string    `json:"user_id"`
	ForkURL   string    `json:"fork_url"`
	CreatedAt string    `json:"created_at"`
}

// Fork maps a fork record to its fixed shape.
func Fork(f *models.Fork) *ForkView {
	if f == nil {
		return nil
	}
	return &ForkView{
		ID:        f.ID,
		BugID:     f.BugID,
		User:      User(f.User),
		UserID:    f.UserID,
		ForkURL:   f.ForkURL,
		CreatedAt: Timestamp(f.CreatedAt),
	}
}

// PullRequestView is the client-facing pull request shape.
type PullRequestView struct {
	ID        uint      `json:"id"`
	BugID     string    `json:"bug_id"`
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	State     string    `json:"state"`
	Author    *UserView `json:"author"`
	AuthorID  string    `json:"author_id"`
	MergedAt  string    `json:"merged_at"`
	CreatedAt string    `json:"created_at"`
	UpdatedAt string    `json:"updated_at"`
}

// PullRequest maps a PR record to its fixed shape.
func PullRequest(pr *models.PullRequest) *PullRequestView {
	if pr == nil {
		return nil
	}
	state := string(pr.State)
	if state == "" {
		state = string(models.PROpen)
	}
	return &PullRequestView{
		ID:        pr.ID,
		BugID:     pr.BugID,
		Number:    pr.Number,
		Title:     pr.Title,
		URL:       pr.URL,
		State:     state,
		Author:    User(pr.Author),
		AuthorID:  pr.AuthorID,
		MergedAt:  TimestampPtr(pr.MergedAt),
		CreatedAt: Timestamp(pr.CreatedAt),
		UpdatedAt: Timestamp(pr.UpdatedAt),
	}
}

// LinkedRepoView is the client-facing linked repository shape.
type LinkedRepoView struct {
	Owner         string `json:"owner"`
	Name          string `json:"name"`
	URL           string `json:"url"`
	DefaultBranch string `json:"default_branch"`
	Stars         int    `json:"stars"`
	Linked        bool   `json:"linked"`
}

// BugView is the client-facing bug shape.
type BugView struct {
	ID           string            `json:"id"`
	Key          string            `json:"key"`
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	ProjectID    string            `json:"project_id"`
	Project      *ProjectView      `json:"project"`
	Status       string            `json:"status"`
	Priority     string            `json:"priority"`
	Severity     string            `json:"severity"`
	Category     string            `json:"category"`
	Resolution   string            `json:"resolution"`
	Reporter     *UserView         `json:"reporter"`
	ReporterID   string            `json:"reporter_id"`
	Assignee     *UserView         `json:"assignee"`
	AssigneeID   string            `json:"assignee_id"`
	ResolvedBy   *UserView         `json:"resolved_by"`
	ResolvedByID string            `json:"resolved_by_id"`
	ResolvedAt   string            `json:"resolved_at"`
	ClosedAt     string            `json:"closed_at"`
	LinkedRepo   LinkedRepoView    `json:"linked_repo"`
	Comments     []CommentView     `json:"comments"`
	Activity     []ActivityView    `json:"activity"`
	Forks        []ForkView        `json:"forks"`
	PullRequests []PullRequestView `json:"pull_requests"`
	CreatedAt    string            `json:"created_at"`
	UpdatedAt    string            `json:"updated_at"`
}

// Bug maps a bug document to its fixed shape. Collections are always present
// (possibly empty), nested relations are standardized recursively.
func Bug(b *models.Bug) *BugView {
	if b == nil {
		return nil
	}
	status := string(b.Status)
	if status == "" {
		status = string(models.BugOpen)
	}
	priority := string(b.Priority)
	if priority == "" {
		priority = string(models.PriorityMedium)
	}

	comments := make([]CommentView, 0, len(b.Comments))
	for i := range b.Comments {
		comments = append(comments, *Comment(&b.Comments[i]))
	}
	activity := make([]ActivityView, 0, len(b.Activity))
	for i := range b.Activity {
		activity = append(activity, *Activity(&b.Activity[i]))
	}
	forks := make([]ForkView, 0, len(b.Forks))
	for i := range b.Forks {
		forks = append(forks, *Fork(&b.Forks[i]))
	}
	prs := make([]PullRequestView, 0, len(b.PullRequests))
	for i := range b.PullRequests {
		prs = append(prs, *PullRequest(&b.PullRequests[i]))
	}

	return &BugView{
		ID:           b.ID,
		Key:          b.Key,
		Title:        b.Title,
		Description:  b.Description,
		ProjectID:    b.ProjectID,
		Project:      Project(b.Project),
		Status:       status,
		Priority:     priority,
		Severity:     b.Severity,
		Category:     b.Category,
		Resolution:   b.Resolution,
		Reporter:     User(b.Reporter),
		ReporterID:   b.ReporterID,
		Assignee:     User(b.Assignee),
		AssigneeID:   deref(b.AssigneeID),
		ResolvedBy:   User(b.ResolvedBy),
		ResolvedByID: deref(b.ResolvedByID),
		ResolvedAt:   TimestampPtr(b.ResolvedAt),
		ClosedAt:     TimestampPtr(b.ClosedAt),
		LinkedRepo: LinkedRepoView{
			Owner:         b.LinkedRepo.Owner,
			Name:          b.LinkedRepo.Name,
			URL:           b.LinkedRepo.URL,
			DefaultBranch: b.LinkedRepo.DefaultBranch,
			Stars:         b.LinkedRepo.Stars,
			Linked:        b.LinkedRepo.URL != "",
		},
		Comments:     comments,
		Activity:     activity,
		Forks:        forks,
		PullRequests: prs,
		CreatedAt:    Timestamp(b.CreatedAt),
		UpdatedAt:    Timestamp(b.UpdatedAt),
	}
}

// Bugs maps a slice of bugs, always returning a non-nil slice.
func Bugs(in []models.Bug) []BugView {
	out := make([]BugView, 0, len(in))
	for i := range in {
		out = append(out, *Bug(&in[i]))
	}
	return out
}

// Users maps a slice of users, always returning a non-nil slice.
func Users(in []models.User) []UserView {
	out := make([]UserView, 0, len(in))
	for i := range in {
		out = append(out, *User(&in[i]))
	}
	return out
}

// Projects maps a slice of projects, always returning a non-nil slice.
func Projects(in []models.Project) []ProjectView {
	out := make([]ProjectView, 0, len(in))
	for i := range in {
		out = append(out, *Project(&in[i]))
	}
	return out
}

// PointsEntryView is the client-facing points history shape.
type PointsEntryView struct {
	ID            uint   `json:"id"`
	UserID        string `json:"user_id"`
	Points        int    `json:"points"`
	Reason        string `json:"reason"`
	BugID         string `json:"bug_id"`
	Note          string `json:"note"`
	PreviousTotal int    `json:"previous_total"`
	NewTotal      int    `json:"new_total"`
	CreatedAt     string `json:"created_at"`
}

// PointsEntry maps a history row to its fixed shape.
func PointsEntry(e *models.PointsEntry) *PointsEntryView {
	if e == nil {
		return nil
	}
	return &PointsEntryView{
		ID:            e.ID,
		UserID:        e.UserID,
		Points:        e.Points,
		Reason:        string(e.Reason),
		BugID:         deref(e.BugID),
		Note:          e.Note,
		PreviousTotal: e.PreviousTotal,
		NewTotal:      e.NewTotal,
		CreatedAt:     Timestamp(e.CreatedAt),
	}
}

// PointsEntries maps a slice of history rows, always non-nil.
func PointsEntries(in []models.PointsEntry) []PointsEntryView {
	out := make([]PointsEntryView, 0, len(in))
	for i := range in {
		out = append(out, *PointsEntry(&in[i]))
	}
	return out
}
