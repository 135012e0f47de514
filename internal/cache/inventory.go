package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix    = "user:%s"
	ProjectKeyPrefix = "project:%s"
	LeaderboardKey   = "leaderboard"
)

const (
	UserTTL        = 5 * time.Minute
	ProjectTTL     = 10 * time.Minute
	LeaderboardTTL = time.Minute
)

func UserKey(userID string) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func ProjectKey(projectID string) string {
	return fmt.Sprintf(ProjectKeyPrefix, projectID)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID string) {
	Invalidate(ctx, UserKey(userID))
	// Point totals feed the leaderboard view.
	Invalidate(ctx, LeaderboardKey)
}

func InvalidateProject(ctx context.Context, projectID string) {
	Invalidate(ctx, ProjectKey(projectID))
}
