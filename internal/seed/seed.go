// Package seed provides helpers to create demo data for the application
// database. Bugs, comments and resolutions go through the service layer so
// the points ledger and project statistics stay consistent with production
// writes. Development and testing only.
package seed

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"bugtrail/internal/models"
	"bugtrail/internal/repository"
	"bugtrail/internal/service"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// Options tunes the generated data set.
type Options struct {
	Users    int
	Projects int
	Bugs     int
	// MaxDays spreads created_at timestamps over the given window.
	MaxDays int
}

// Seeder builds domain entities through the same services the API uses.
type Seeder struct {
	db       *gorm.DB
	opts     Options
	rng      *rand.Rand
	users    repository.UserRepository
	projects *service.ProjectService
	bugs     *service.BugService
}

// NewSeeder creates a Seeder bound to the provided Gorm DB.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	gofakeit.Seed(time.Now().UnixNano())

	if opts.Users <= 0 {
		opts.Users = 25
	}
	if opts.Projects <= 0 {
		opts.Projects = 5
	}
	if opts.Bugs <= 0 {
		opts.Bugs = 100
	}
	if opts.MaxDays <= 0 {
		opts.MaxDays = 90
	}

	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	bugRepo := repository.NewBugRepository(db)
	counterRepo := repository.NewCounterRepository(db)
	points := service.NewPointsService(db)

	return &Seeder{
		db:       db,
		opts:     opts,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		users:    userRepo,
		projects: service.NewProjectService(db, projectRepo),
		bugs:     service.NewBugService(db, bugRepo, projectRepo, counterRepo, points, nil),
	}
}

// ClearAll truncates every seeded table in reverse dependency order.
func (s *Seeder) ClearAll() error {
	log.Println("Clearing existing data...")
	tables := []interface{}{
		&models.PointsAward{},
		&models.PointsEntry{},
		&models.PullRequest{},
		&models.Fork{},
		&models.ActivityEntry{},
		&models.Comment{},
		&models.Bug{},
		&models.Counter{},
		&models.ProjectMember{},
		&models.Project{},
		&models.User{},
	}
	for _, table := range tables {
		if err := s.db.Unscoped().Where("1 = 1").Delete(table).Error; err != nil {
			return fmt.Errorf("clearing %T: %w", table, err)
		}
	}
	return nil
}

// CreateUser constructs and persists a sample user. Optional override
// functions may modify the generated user before saving.
func (s *Seeder) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	user := &models.User{
		ExternalID:          gofakeit.LetterN(28),
		Email:               gofakeit.Email(),
		Name:                gofakeit.Name(),
		Username:            strings.ToLower(gofakeit.Username() + fmt.Sprintf("%d", gofakeit.Number(10, 99))),
		Industry:            gofakeit.BuzzWord(),
		Phone:               gofakeit.Phone(),
		AvatarURL:           fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
		Role:                models.RoleDeveloper,
		OnboardingCompleted: true,
	}
	for _, override := range overrides {
		override(user)
	}
	if err := s.users.Create(context.Background(), user); err != nil {
		return nil, err
	}
	return user, nil
}

// SeedUsers creates the configured number of users plus one admin.
func (s *Seeder) SeedUsers() ([]*models.User, error) {
	log.Printf("Creating %d users...", s.opts.Users)

	users := make([]*models.User, 0, s.opts.Users+1)
	admin, err := s.CreateUser(func(u *models.User) {
		u.Email = "admin@bugtrail.dev"
		u.Name = "Bugtrail Admin"
		u.Username = "admin" + fmt.Sprintf("%d", gofakeit.Number(10, 99))
		u.Role = models.RoleAdmin
	})
	if err != nil {
		return nil, err
	}
	users = append(users, admin)

	for i := 0; i < s.opts.Users; i++ {
		user, err := s.CreateUser()
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

// SeedProjects creates projects owned by random users, each with a few
// random members.
func (s *Seeder) SeedProjects(users []*models.User) ([]*models.Project, error) {
	log.Printf("Creating %d projects...", s.opts.Projects)

	ctx := context.Background()
	projects := make([]*models.Project, 0, s.opts.Projects)
	for i := 0; i < s.opts.Projects; i++ {
		owner := users[s.rng.Intn(len(users))]
		project, err := s.projects.Create(ctx, owner, service.CreateProjectInput{
			Name:        gofakeit.AppName() + fmt.Sprintf(" %d", i+1),
			Description: gofakeit.Sentence(12),
		})
		if err != nil {
			return nil, err
		}

		for _, member := range s.pickUsers(users, 2+s.rng.Intn(4)) {
			if member.ID == owner.ID {
				continue
			}
			// Duplicate memberships are possible with random picks; skip them.
			if err := s.projects.AddMember(ctx, owner, project.ID, member.ID, string(models.RoleDeveloper)); err != nil {
				continue
			}
		}
		projects = append(projects, project)
	}
	return projects, nil
}

// SeedBugs reports bugs through the bug service, then resolves roughly a
// third of them and comments on half, so points and project statistics
// accumulate exactly as they do in production.
func (s *Seeder) SeedBugs(users []*models.User, projects []*models.Project) error {
	log.Printf("Creating %d bugs...", s.opts.Bugs)

	ctx := context.Background()
	priorities := []string{"low", "medium", "high", "critical"}
	categories := []string{"ui", "backend", "crash", "performance", "security"}

	for i := 0; i < s.opts.Bugs; i++ {
		reporter := users[s.rng.Intn(len(users))]
		project := projects[s.rng.Intn(len(projects))]

		bug, err := s.bugs.Create(ctx, reporter.ID, service.CreateBugInput{
			Title:       gofakeit.Sentence(6),
			Description: gofakeit.Paragraph(1, 3, 8, "\n"),
			ProjectID:   project.ID,
			Priority:    priorities[s.rng.Intn(len(priorities))],
			Severity:    priorities[s.rng.Intn(len(priorities))],
			Category:    categories[s.rng.Intn(len(categories))],
		})
		if err != nil {
			return err
		}
		s.backdate(&models.Bug{}, bug.ID)

		if s.rng.Intn(2) == 0 {
			commenter := users[s.rng.Intn(len(users))]
			if _, err := s.bugs.AddComment(ctx, commenter, bug.ID, service.CommentInput{
				Content:      gofakeit.Sentence(10),
				IsResolution: s.rng.Intn(4) == 0,
			}); err != nil {
				return err
			}
		}

		if s.rng.Intn(3) == 0 {
			resolver := users[s.rng.Intn(len(users))]
			status := string(models.BugResolved)
			resolution := gofakeit.Sentence(8)
			if _, err := s.bugs.Update(ctx, reporter, bug.ID, service.UpdateBugInput{
				AssigneeID: &resolver.ID,
			}); err != nil {
				return err
			}
			if _, err := s.bugs.Update(ctx, resolver, bug.ID, service.UpdateBugInput{
				Status:     &status,
				Resolution: &resolution,
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

// Run executes the full demo data set.
func (s *Seeder) Run() error {
	users, err := s.SeedUsers()
	if err != nil {
		return fmt.Errorf("seeding users: %w", err)
	}
	projects, err := s.SeedProjects(users)
	if err != nil {
		return fmt.Errorf("seeding projects: %w", err)
	}
	if err := s.SeedBugs(users, projects); err != nil {
		return fmt.Errorf("seeding bugs: %w", err)
	}
	return nil
}

// pickUsers returns up to n distinct random users.
func (s *Seeder) pickUsers(users []*models.User, n int) []*models.User {
	idx := s.rng.Perm(len(users))
	if n > len(idx) {
		n = len(idx)
	}
	out := make([]*models.User, 0, n)
	for _, i := range idx[:n] {
		out = append(out, users[i])
	}
	return out
}

// backdate spreads created_at over the configured window for realism.
func (s *Seeder) backdate(model interface{}, id string) {
	daysBack := s.rng.Intn(s.opts.MaxDays)
	hoursBack := s.rng.Intn(24)
	ts := time.Now().Add(-time.Duration(daysBack)*24*time.Hour - time.Duration(hoursBack)*time.Hour)
	s.db.Model(model).Where("id = ?", id).UpdateColumn("created_at", ts)
}
